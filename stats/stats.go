// Package stats holds the numeric building blocks of the positivity rate pipeline: smoothing,
// rate composition, clamping, confidence quantiles and fit scores.
package stats

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/aouyang1/go-pcrforecast/util"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	ErrInsufficientData       = errors.New("insufficient data for moving average window")
	ErrInvalidWindow          = errors.New("window size must be at least 1")
	ErrLengthMismatch         = errors.New("input series have different lengths")
	ErrInvalidConfidenceLevel = errors.New("confidence level must be in (0, 1)")
)

// MovingAverage computes the mean over every window of w consecutive values. The result has
// n-w+1 values where the i-th value is the mean of s[i:i+w], so it lines up with the last w-1
// dropped points of the input.
func MovingAverage(s []float64, w int) ([]float64, error) {
	if w < 1 {
		return nil, fmt.Errorf("got %d, %w", w, ErrInvalidWindow)
	}
	if len(s) < w {
		return nil, fmt.Errorf("need at least %d points but got %d, %w", w, len(s), ErrInsufficientData)
	}

	n := len(s) - w + 1
	avg := make([]float64, n)
	for i := 0; i < n; i++ {
		avg[i] = floats.Sum(s[i:i+w]) / float64(w)
	}
	return avg, nil
}

// PositiveRate returns positive/tested*100 for each index. A day with no tests has a rate of 0.
func PositiveRate(tested, positive []float64) ([]float64, error) {
	if len(tested) != len(positive) {
		return nil, fmt.Errorf("tested has %d values and positive has %d, %w", len(tested), len(positive), ErrLengthMismatch)
	}

	rate := make([]float64, len(tested))
	for i := range tested {
		if tested[i] > 0 {
			rate[i] = positive[i] / tested[i] * 100
		}
	}
	return rate, nil
}

// ReLU floors a single value at zero
func ReLU(x float64) float64 {
	if x < 0 {
		return 0
	}
	return x
}

// ClampNonNegative returns a copy of x with every value floored at zero
func ClampNonNegative(x []float64) []float64 {
	if x == nil {
		return nil
	}
	res := make([]float64, len(x))
	copy(res, x)
	return util.SliceMap(res, ReLU)
}

// ZScore returns the two sided standard normal quantile for the confidence level, e.g. ~1.96
// for 0.95.
func ZScore(level float64) (float64, error) {
	if !(level > 0 && level < 1) {
		return 0, fmt.Errorf("got %.4f, %w", level, ErrInvalidConfidenceLevel)
	}
	return distuv.UnitNormal.Quantile(1.0 - (1.0-level)/2.0), nil
}

// DetectOutliers returns the indices of values outside the inter-percentile range widened by
// the tukey factor.
func DetectOutliers(y []float64, lowerPerc, upperPerc, tukeyFactor float64) []int {
	if len(y) == 0 {
		return nil
	}
	lowerPerc = math.Max(lowerPerc, 0.0)
	upperPerc = math.Min(upperPerc, 1.0)
	tukeyFactor = math.Max(tukeyFactor, 0.0)

	yCopy := make([]float64, len(y))
	copy(yCopy, y)
	sort.Float64s(yCopy)
	lowerIdx := int(math.Floor(float64(len(yCopy)) * lowerPerc))
	upperIdx := int(math.Ceil(float64(len(yCopy)) * upperPerc))
	upperIdx = min(upperIdx, len(yCopy)-1)
	lowerIdx = min(lowerIdx, upperIdx)

	lower := yCopy[lowerIdx]
	upper := yCopy[upperIdx]
	innerRange := upper - lower
	if innerRange == 0 {
		return nil
	}
	lower -= innerRange * tukeyFactor
	upper += innerRange * tukeyFactor

	var outlierIdx []int
	for i := 0; i < len(y); i++ {
		if y[i] >= upper || y[i] <= lower {
			outlierIdx = append(outlierIdx, i)
		}
	}
	return outlierIdx
}
