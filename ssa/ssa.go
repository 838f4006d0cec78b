// Package ssa implements an adaptive singular spectrum analysis forecaster. A sliding buffer of
// the most recent observations is embedded into a trajectory matrix, the leading singular
// vectors define a linear recurrence and the recurrence is extended recursively to forecast.
package ssa

import (
	"errors"
	"fmt"
	"math"

	"github.com/aouyang1/go-pcrforecast/stats"
	"gonum.org/v1/gonum/floats"
)

var (
	ErrInsufficientHistory = errors.New("insufficient history to fit model")
	ErrUntrained           = errors.New("model has not been fit")
	ErrNilOptions          = errors.New("options cannot be nil")
)

// SSA is a singular spectrum model with a recurrence that is refreshed as new observations
// arrive
type SSA struct {
	opt *Options
	z   float64

	buf    []float64
	decomp decomposition
	coef   []float64

	// one step ahead predictions and the observations they were scored against
	predicted []float64
	observed  []float64

	trained bool
}

// Forecast holds the point forecast with its lower and upper confidence bounds
type Forecast struct {
	Values []float64 `json:"values"`
	Lower  []float64 `json:"lower"`
	Upper  []float64 `json:"upper"`
}

func New(opt *Options) (*SSA, error) {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	if err := opt.Validate(); err != nil {
		return nil, fmt.Errorf("unable to validate ssa options, %w", err)
	}
	z, err := stats.ZScore(opt.ConfidenceLevel)
	if err != nil {
		return nil, fmt.Errorf("unable to compute confidence quantile, %w", err)
	}

	optCopy := *opt
	return &SSA{
		opt: &optCopy,
		z:   z,
	}, nil
}

// MinHistory is the smallest input length accepted by Fit
func (s *SSA) MinHistory() int {
	return max(s.opt.WindowSize, s.opt.SeriesLength, s.opt.TrainSize)
}

// Fit builds the initial recurrence from the first SeriesLength points, adapts it over the
// rest of the training points and feeds any points past TrainSize through Update.
func (s *SSA) Fit(y []float64) error {
	if minLen := s.MinHistory(); len(y) < minLen {
		return fmt.Errorf("need at least %d points but got %d, %w", minLen, len(y), ErrInsufficientHistory)
	}

	trainSize := s.opt.TrainSize
	if trainSize == 0 {
		trainSize = len(y)
	}
	n := s.opt.SeriesLength
	p := s.opt.WindowSize - 1

	s.trained = false
	s.predicted = nil
	s.observed = nil
	s.buf = make([]float64, n)
	copy(s.buf, y[:n])

	d, err := decompose(s.buf, s.opt.WindowSize, s.opt.EnergyThreshold, s.opt.maxRank())
	if err != nil {
		return fmt.Errorf("unable to decompose initial window, %w", err)
	}
	s.decomp = d
	s.coef = make([]float64, len(d.coef))
	copy(s.coef, d.coef)
	if s.opt.Stabilize {
		s.coef = stabilize(s.coef)
	}

	for t := p; t < n; t++ {
		s.record(floats.Dot(s.coef, s.buf[t-p:t]), s.buf[t])
	}

	for t := n; t < trainSize; t++ {
		if err := s.step(y[t]); err != nil {
			return fmt.Errorf("unable to adapt at index %d, %w", t, err)
		}
	}
	s.trained = true

	for t := trainSize; t < len(y); t++ {
		if err := s.Update(y[t]); err != nil {
			return fmt.Errorf("unable to update at index %d, %w", t, err)
		}
	}
	return nil
}

// Update scores the current recurrence against v, slides v into the buffer and blends the
// recurrence of the new window into the current one
func (s *SSA) Update(v float64) error {
	if !s.trained {
		return ErrUntrained
	}
	return s.step(v)
}

func (s *SSA) step(v float64) error {
	s.record(s.next(s.buf), v)

	copy(s.buf, s.buf[1:])
	s.buf[len(s.buf)-1] = v

	d, err := decompose(s.buf, s.opt.WindowSize, s.opt.EnergyThreshold, s.opt.maxRank())
	if err != nil {
		return err
	}
	s.decomp = d

	eta := s.opt.AdaptationRate
	for i := range s.coef {
		s.coef[i] = (1-eta)*s.coef[i] + eta*d.coef[i]
	}
	if s.opt.Stabilize {
		s.coef = stabilize(s.coef)
	}
	return nil
}

func (s *SSA) record(predicted, observed float64) {
	s.predicted = append(s.predicted, predicted)
	s.observed = append(s.observed, observed)
}

// next applies the recurrence to the tail of hist
func (s *SSA) next(hist []float64) float64 {
	p := len(s.coef)
	return floats.Dot(s.coef, hist[len(hist)-p:])
}

// NoiseVariance is the mean squared one step ahead residual
func (s *SSA) NoiseVariance() float64 {
	if len(s.observed) == 0 {
		return 0
	}
	var ss float64
	for i := range s.observed {
		r := s.observed[i] - s.predicted[i]
		ss += r * r
	}
	return ss / float64(len(s.observed))
}

// Forecast extends the buffer horizon steps with the recurrence. Each bound is the forecast
// plus or minus z standard deviations of the accumulated innovation variance at that step.
func (s *SSA) Forecast(horizon int) (Forecast, error) {
	if !s.trained {
		return Forecast{}, ErrUntrained
	}
	if horizon < 1 {
		return Forecast{}, fmt.Errorf("got %d, %w", horizon, ErrInvalidHorizon)
	}

	p := len(s.coef)
	hist := make([]float64, p, p+horizon)
	copy(hist, s.buf[len(s.buf)-p:])

	res := Forecast{
		Values: make([]float64, horizon),
		Lower:  make([]float64, horizon),
		Upper:  make([]float64, horizon),
	}

	sigma2 := s.NoiseVariance()
	psi := impulseResponse(s.coef, horizon)
	var cum float64
	for h := 0; h < horizon; h++ {
		v := s.next(hist)
		hist = append(hist, v)

		cum += psi[h] * psi[h]
		width := s.z * math.Sqrt(sigma2*cum)

		res.Values[h] = v
		res.Lower[h] = v - width
		res.Upper[h] = v + width
	}
	return res, nil
}

// Reconstruction returns the signal component of the current buffer, i.e. the buffer
// projected onto the selected singular subspace
func (s *SSA) Reconstruction() ([]float64, error) {
	if !s.trained {
		return nil, ErrUntrained
	}
	return s.decomp.reconstruct(s.buf)
}

// Model returns a serializable summary of the current state
func (s *SSA) Model() (Model, error) {
	if !s.trained {
		return Model{}, ErrUntrained
	}

	scores, err := stats.NewScores(s.predicted, s.observed)
	if err != nil {
		return Model{}, fmt.Errorf("unable to score one step predictions, %w", err)
	}

	coef := make([]float64, len(s.coef))
	copy(coef, s.coef)
	sv := make([]float64, len(s.decomp.singular))
	copy(sv, s.decomp.singular)

	return Model{
		Options:        *s.opt,
		Rank:           s.decomp.rank,
		SingularValues: sv,
		Coefficients:   coef,
		NoiseVariance:  s.NoiseVariance(),
		Observations:   len(s.observed),
		Scores:         scores,
	}, nil
}
