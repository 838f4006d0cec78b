package mat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestNewHankel(t *testing.T) {
	testData := map[string]struct {
		err      error
		s        []float64
		window   int
		expected [][]float64
	}{
		"zero window": {
			err:    ErrInvalidWindow,
			s:      []float64{1, 2, 3},
			window: 0,
		},
		"window larger than series": {
			err:    ErrInvalidWindow,
			s:      []float64{1, 2, 3},
			window: 4,
		},
		"window of one": {
			s:        []float64{1, 2, 3},
			window:   1,
			expected: [][]float64{{1, 2, 3}},
		},
		"full window": {
			s:        []float64{1, 2, 3},
			window:   3,
			expected: [][]float64{{1}, {2}, {3}},
		},
		"lagged windows": {
			s:      []float64{1, 2, 3, 4, 5},
			window: 3,
			expected: [][]float64{
				{1, 2, 3},
				{2, 3, 4},
				{3, 4, 5},
			},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			mx, err := NewHankel(td.s, td.window)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.NoError(t, err)

			m, n := mx.Dims()
			assert.Equal(t, td.window, m, "rows")
			assert.Equal(t, len(td.s)-td.window+1, n, "cols")
			for ri, row := range td.expected {
				assert.Equal(t, row, mat.Row(nil, ri, mx), "row %d", ri)
			}
		})
	}
}

func TestDiagonalAverage(t *testing.T) {
	s := []float64{1, 4, 2, 8, 5, 7}
	for window := 1; window <= len(s); window++ {
		mx, err := NewHankel(s, window)
		require.NoError(t, err)

		res, err := DiagonalAverage(mx)
		require.NoError(t, err)
		assert.InDeltaSlice(t, s, res, 1e-12, "window %d", window)
	}

	res, err := DiagonalAverage(mat.NewDense(2, 2, []float64{1, 2, 4, 5}))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 3, 5}, res, 1e-12)
}
