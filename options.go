package pcrforecast

import (
	"errors"
	"fmt"
	"io"

	"github.com/aouyang1/go-pcrforecast/ssa"
	"github.com/aouyang1/go-pcrforecast/util"
)

const DefaultMovingAverageWindow = 7

var ErrInvalidMovingAverageWindow = errors.New("moving average window must be at least 1")

// OutlierOptions flags smoothed rates outside the widened inter-percentile range. Flagged days
// are reported but stay in the series.
type OutlierOptions struct {
	LowerPercentile float64 `json:"lower_percentile"`
	UpperPercentile float64 `json:"upper_percentile"`
	TukeyFactor     float64 `json:"tukey_factor"`
}

func NewOutlierOptions() *OutlierOptions {
	return &OutlierOptions{
		LowerPercentile: 0.25,
		UpperPercentile: 0.75,
		TukeyFactor:     1.5,
	}
}

// Options configures the positivity rate pipeline
type Options struct {
	// MovingAverageWindow is the number of trailing days averaged before the rate is computed
	MovingAverageWindow int `json:"moving_average_window"`

	SSAOptions     *ssa.Options    `json:"ssa_options"`
	OutlierOptions *OutlierOptions `json:"outlier_options,omitempty"`
}

func NewDefaultOptions() *Options {
	return &Options{
		MovingAverageWindow: DefaultMovingAverageWindow,
		SSAOptions:          ssa.NewDefaultOptions(),
		OutlierOptions:      NewOutlierOptions(),
	}
}

// Validate checks the forecasting options before the pipeline options so an invalid
// confidence level is always reported first. Nil SSAOptions stand for the defaults.
func (o *Options) Validate() error {
	if o.SSAOptions != nil {
		if err := o.SSAOptions.Validate(); err != nil {
			return err
		}
	}
	if o.MovingAverageWindow < 1 {
		return fmt.Errorf("got %d, %w", o.MovingAverageWindow, ErrInvalidMovingAverageWindow)
	}
	return nil
}

func (o *Options) TablePrint(w io.Writer, prefix, indent string, indentGrowth int) error {
	if _, err := fmt.Fprintf(w, "%s%sPipeline:\n", prefix, util.IndentExpand(indent, indentGrowth)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%sMoving Average Window: %d\n",
		prefix, util.IndentExpand(indent, indentGrowth+1), o.MovingAverageWindow); err != nil {
		return err
	}
	if o.OutlierOptions != nil {
		if _, err := fmt.Fprintf(w, "%s%sOutliers: [%.2f, %.2f] x %.2f\n",
			prefix, util.IndentExpand(indent, indentGrowth+1),
			o.OutlierOptions.LowerPercentile, o.OutlierOptions.UpperPercentile, o.OutlierOptions.TukeyFactor); err != nil {
			return err
		}
	}
	if o.SSAOptions == nil {
		return nil
	}
	return o.SSAOptions.TablePrint(w, prefix, indent, indentGrowth)
}
