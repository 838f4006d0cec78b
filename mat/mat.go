package mat

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrInvalidWindow   = errors.New("window must be between 1 and the series length")
	ErrEmptyTrajectory = errors.New("trajectory matrix has no elements")
)

// NewHankel embeds the series into a window x (len(s)-window+1) trajectory matrix where each
// column is a lagged window of the series, i.e. element (i, j) is s[i+j].
func NewHankel(s []float64, window int) (*mat.Dense, error) {
	if window < 1 || window > len(s) {
		return nil, fmt.Errorf("window %d for series of length %d, %w", window, len(s), ErrInvalidWindow)
	}
	k := len(s) - window + 1

	data := make([]float64, window*k)
	for i := 0; i < window; i++ {
		copy(data[i*k:(i+1)*k], s[i:i+k])
	}
	return mat.NewDense(window, k, data), nil
}

// DiagonalAverage maps a trajectory matrix back to a series by averaging each anti-diagonal.
// This is the inverse of NewHankel for matrices with Hankel structure.
func DiagonalAverage(x mat.Matrix) ([]float64, error) {
	l, k := x.Dims()
	if l == 0 || k == 0 {
		return nil, ErrEmptyTrajectory
	}

	n := l + k - 1
	sums := make([]float64, n)
	cnts := make([]float64, n)
	for i := 0; i < l; i++ {
		for j := 0; j < k; j++ {
			sums[i+j] += x.At(i, j)
			cnts[i+j]++
		}
	}
	for i := range sums {
		sums[i] /= cnts[i]
	}
	return sums, nil
}
