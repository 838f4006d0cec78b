// Package pcrforecast forecasts the daily PCR positivity rate. Tested and positive counts are
// joined by date, smoothed with a trailing moving average, turned into a percentage and extended
// with an adaptive singular spectrum model.
package pcrforecast

import (
	"errors"
	"fmt"
	"time"

	"github.com/aouyang1/go-pcrforecast/event"
	"github.com/aouyang1/go-pcrforecast/ssa"
	"github.com/aouyang1/go-pcrforecast/stats"
	"github.com/aouyang1/go-pcrforecast/timedataset"
	"github.com/rs/zerolog"
)

var ErrUntrained = errors.New("forecaster has not been fit")

// Forecaster runs the positivity rate pipeline and holds the fit model
type Forecaster struct {
	opt    *Options
	model  *ssa.SSA
	logger zerolog.Logger

	aligned  []timedataset.AlignedObservation
	rates    *timedataset.TimeDataset
	outliers []time.Time
}

// New validates the options and creates a Forecaster. If no options are provided a default is
// used.
func New(opt *Options) (*Forecaster, error) {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	if err := opt.Validate(); err != nil {
		return nil, fmt.Errorf("unable to validate options, %w", err)
	}
	if opt.SSAOptions == nil {
		withDefaults := *opt
		withDefaults.SSAOptions = ssa.NewDefaultOptions()
		opt = &withDefaults
	}

	model, err := ssa.New(opt.SSAOptions)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize ssa model, %w", err)
	}

	return &Forecaster{
		opt:    opt,
		model:  model,
		logger: zerolog.Nop(),
	}, nil
}

// SetLogger replaces the no-op default logger
func (f *Forecaster) SetLogger(logger zerolog.Logger) {
	f.logger = logger
}

// ComposeRates converts smoothed tested and positive counts into positivity rates stamped with
// dates. A day with no tests has a rate of 0.
func ComposeRates(dates []time.Time, tested, positive []float64) ([]timedataset.RateObservation, error) {
	if len(dates) != len(tested) {
		return nil, fmt.Errorf("%d dates for %d values, %w", len(dates), len(tested), stats.ErrLengthMismatch)
	}
	rate, err := stats.PositiveRate(tested, positive)
	if err != nil {
		return nil, err
	}

	res := make([]timedataset.RateObservation, len(rate))
	for i := 0; i < len(rate); i++ {
		res[i] = timedataset.RateObservation{
			Date:         dates[i],
			PositiveRate: rate[i],
		}
	}
	return res, nil
}

// Signal aligns and smooths the two count series into the positivity rate series without
// fitting a model
func (f *Forecaster) Signal(tested, positive []timedataset.DatedCount) ([]timedataset.RateObservation, error) {
	aligned, err := timedataset.Align(tested, positive)
	if err != nil {
		return nil, fmt.Errorf("unable to align tested and positive series, %w", err)
	}
	f.aligned = aligned
	f.logger.Debug().
		Int("tested", len(tested)).
		Int("positive", len(positive)).
		Int("aligned", len(aligned)).
		Msg("aligned series")

	dates, testedY, positiveY := timedataset.Columns(aligned)
	ts := timedataset.TimeSlice(dates)
	if freq, err := ts.EstimateFreq(); err == nil && freq != 24*time.Hour {
		f.logger.Warn().
			Dur("frequency", freq).
			Msg("aligned series cadence is not daily")
	}
	if gaps := ts.Gaps(); len(gaps) > 0 {
		f.logger.Warn().
			Int("gaps", len(gaps)).
			Time("first_gap", dates[gaps[0]]).
			Msg("aligned series is not contiguous daily data")
	}

	w := f.opt.MovingAverageWindow
	testedAvg, err := stats.MovingAverage(testedY, w)
	if err != nil {
		return nil, fmt.Errorf("unable to smooth tested series, %w", err)
	}
	positiveAvg, err := stats.MovingAverage(positiveY, w)
	if err != nil {
		return nil, fmt.Errorf("unable to smooth positive series, %w", err)
	}

	rates, err := ComposeRates(dates[w-1:], testedAvg, positiveAvg)
	if err != nil {
		return nil, fmt.Errorf("unable to compose positivity rates, %w", err)
	}
	f.logger.Debug().
		Int("window", w).
		Int("rates", len(rates)).
		Msg("composed positivity rates")
	return rates, nil
}

// Fit runs the pipeline up to the rate series and fits the forecast model on it
func (f *Forecaster) Fit(tested, positive []timedataset.DatedCount) error {
	f.rates = nil
	f.outliers = nil

	rates, err := f.Signal(tested, positive)
	if err != nil {
		return err
	}
	td, err := timedataset.NewRateDataset(rates)
	if err != nil {
		return fmt.Errorf("unable to create rate dataset, %w", err)
	}

	if oo := f.opt.OutlierOptions; oo != nil {
		for _, idx := range stats.DetectOutliers(td.Y, oo.LowerPercentile, oo.UpperPercentile, oo.TukeyFactor) {
			f.outliers = append(f.outliers, td.T[idx])
		}
		if len(f.outliers) > 0 {
			f.logger.Warn().
				Int("count", len(f.outliers)).
				Time("first", f.outliers[0]).
				Msg("outlier positivity rates detected")
		}
	}

	if err := f.model.Fit(td.Y); err != nil {
		return fmt.Errorf("unable to fit ssa model, %w", err)
	}
	f.rates = td
	f.logger.Debug().
		Int("rates", len(td.Y)).
		Time("last_date", td.T[len(td.T)-1]).
		Msg("fit ssa model")
	return nil
}

// Predict forecasts the configured horizon past the last rate date
func (f *Forecaster) Predict() (*Results, error) {
	if f.rates == nil {
		return nil, ErrUntrained
	}

	horizon := f.opt.SSAOptions.Horizon
	fc, err := f.model.Forecast(horizon)
	if err != nil {
		return nil, fmt.Errorf("unable to forecast positivity rate, %w", err)
	}

	t := timedataset.TimeSlice(f.rates.T).DailyHorizon(horizon)
	res := &Results{
		Actual:   f.rates.Rates(),
		T:        t,
		Forecast: stats.ClampNonNegative(fc.Values),
		Upper:    fc.Upper,
		Lower:    fc.Lower,
		Outliers: f.outliers,
		Holidays: event.Holidays(event.JapanHolidays, timedataset.TimeSlice(f.rates.T).StartTime(), timedataset.TimeSlice(t).EndTime()),
	}
	return res, nil
}

// Run fits a new Forecaster on the two count series and forecasts the configured horizon
func Run(tested, positive []timedataset.DatedCount, opt *Options) (*Results, error) {
	f, err := New(opt)
	if err != nil {
		return nil, err
	}
	if err := f.Fit(tested, positive); err != nil {
		return nil, err
	}
	return f.Predict()
}

// TrainingData returns the rate series used to fit the model
func (f *Forecaster) TrainingData() *timedataset.TimeDataset {
	return f.rates.Copy()
}

// Aligned returns the joined count series of the last Fit or Signal call
func (f *Forecaster) Aligned() []timedataset.AlignedObservation {
	return f.aligned
}

// Model returns the serializable summary of the fit forecaster
func (f *Forecaster) Model() (Model, error) {
	if f.rates == nil {
		return Model{}, ErrUntrained
	}
	m, err := f.model.Model()
	if err != nil {
		return Model{}, fmt.Errorf("unable to fetch ssa model, %w", err)
	}
	return Model{
		Options:      f.opt,
		Observations: len(f.rates.Y),
		SSA:          m,
	}, nil
}
