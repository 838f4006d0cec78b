package ssa

import (
	"errors"
	"fmt"
	"io"

	"github.com/aouyang1/go-pcrforecast/stats"
	"github.com/aouyang1/go-pcrforecast/util"
)

var (
	ErrInvalidConfidenceLevel = stats.ErrInvalidConfidenceLevel
	ErrInvalidWindow          = errors.New("window size must be at least 2 and smaller than the series length")
	ErrInvalidHorizon         = errors.New("horizon must be at least 1")
	ErrInvalidTrainSize       = errors.New("train size must be 0 or at least the series length")
	ErrInvalidEnergyThreshold = errors.New("energy threshold must be in (0, 1]")
	ErrInvalidMaxRank         = errors.New("max rank must be between 0 and the window size")
	ErrInvalidAdaptationRate  = errors.New("adaptation rate must be in (0, 1]")
)

const (
	DefaultWindowSize      = 14
	DefaultSeriesLength    = 30
	DefaultHorizon         = 90
	DefaultConfidenceLevel = 0.95
	DefaultEnergyThreshold = 0.95
	DefaultAdaptationRate  = 0.5
)

// Options configures the singular spectrum model
type Options struct {
	// WindowSize is the embedding dimension, the length of each lagged window in the
	// trajectory matrix
	WindowSize int `json:"window_size"`

	// SeriesLength is the number of most recent observations kept to build the trajectory
	// matrix
	SeriesLength int `json:"series_length"`

	// TrainSize is the number of leading observations consumed by Fit. 0 uses all input.
	TrainSize int `json:"train_size"`

	Horizon         int     `json:"horizon"`
	ConfidenceLevel float64 `json:"confidence_level"`

	// EnergyThreshold is the fraction of the squared singular value mass kept as signal
	EnergyThreshold float64 `json:"energy_threshold"`

	// MaxRank caps the signal rank. 0 uses half the window size.
	MaxRank int `json:"max_rank"`

	// AdaptationRate is the weight of the newest window's recurrence when blending it into
	// the current one. 1 keeps only the newest window.
	AdaptationRate float64 `json:"adaptation_rate"`

	// Stabilize projects characteristic roots outside the unit circle back onto it so long
	// horizons do not explode
	Stabilize bool `json:"stabilize"`
}

func NewDefaultOptions() *Options {
	return &Options{
		WindowSize:      DefaultWindowSize,
		SeriesLength:    DefaultSeriesLength,
		Horizon:         DefaultHorizon,
		ConfidenceLevel: DefaultConfidenceLevel,
		EnergyThreshold: DefaultEnergyThreshold,
		AdaptationRate:  DefaultAdaptationRate,
		Stabilize:       true,
	}
}

// Validate checks every option and returns the first violation
func (o *Options) Validate() error {
	if !(o.ConfidenceLevel > 0 && o.ConfidenceLevel < 1) {
		return fmt.Errorf("got %.4f, %w", o.ConfidenceLevel, ErrInvalidConfidenceLevel)
	}
	if o.WindowSize < 2 || o.WindowSize >= o.SeriesLength {
		return fmt.Errorf("window size %d with series length %d, %w", o.WindowSize, o.SeriesLength, ErrInvalidWindow)
	}
	if o.Horizon < 1 {
		return fmt.Errorf("got %d, %w", o.Horizon, ErrInvalidHorizon)
	}
	if o.TrainSize != 0 && o.TrainSize < o.SeriesLength {
		return fmt.Errorf("train size %d with series length %d, %w", o.TrainSize, o.SeriesLength, ErrInvalidTrainSize)
	}
	if !(o.EnergyThreshold > 0 && o.EnergyThreshold <= 1) {
		return fmt.Errorf("got %.4f, %w", o.EnergyThreshold, ErrInvalidEnergyThreshold)
	}
	if o.MaxRank < 0 || o.MaxRank > o.WindowSize {
		return fmt.Errorf("got %d, %w", o.MaxRank, ErrInvalidMaxRank)
	}
	if !(o.AdaptationRate > 0 && o.AdaptationRate <= 1) {
		return fmt.Errorf("got %.4f, %w", o.AdaptationRate, ErrInvalidAdaptationRate)
	}
	return nil
}

func (o *Options) maxRank() int {
	if o.MaxRank > 0 {
		return o.MaxRank
	}
	return max(1, o.WindowSize/2)
}

func (o *Options) TablePrint(w io.Writer, prefix, indent string, indentGrowth int) error {
	if _, err := fmt.Fprintf(w, "%s%sSSA:\n", prefix, util.IndentExpand(indent, indentGrowth)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%sWindow: %d    Series Length: %d    Train Size: %d\n",
		prefix, util.IndentExpand(indent, indentGrowth+1),
		o.WindowSize, o.SeriesLength, o.TrainSize); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%sHorizon: %d    Confidence: %.3f\n",
		prefix, util.IndentExpand(indent, indentGrowth+1),
		o.Horizon, o.ConfidenceLevel); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%s%sEnergy: %.3f    Max Rank: %d    Adaptation: %.3f    Stabilize: %t\n",
		prefix, util.IndentExpand(indent, indentGrowth+1),
		o.EnergyThreshold, o.maxRank(), o.AdaptationRate, o.Stabilize)
	return err
}
