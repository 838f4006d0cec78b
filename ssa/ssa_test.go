package ssa

import (
	"bytes"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/aouyang1/go-pcrforecast/timedataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noisyWave(n int) []float64 {
	rnd := rand.New(rand.NewPCG(1, 2))
	return timedataset.GenerateWaveY(n, 3.0, 7.0, 0.0).
		Add(timedataset.GenerateConstY(n, 10.0)).
		Add(timedataset.GenerateNoise(n, 0.5, rnd))
}

func TestNew(t *testing.T) {
	testData := map[string]struct {
		opt *Options
		err error
	}{
		"nil uses defaults": {opt: nil},
		"defaults":          {opt: NewDefaultOptions()},
		"confidence zero": {
			opt: &Options{WindowSize: 14, SeriesLength: 30, Horizon: 1, ConfidenceLevel: 0, EnergyThreshold: 0.9, AdaptationRate: 0.5},
			err: ErrInvalidConfidenceLevel,
		},
		"confidence one": {
			opt: &Options{WindowSize: 14, SeriesLength: 30, Horizon: 1, ConfidenceLevel: 1, EnergyThreshold: 0.9, AdaptationRate: 0.5},
			err: ErrInvalidConfidenceLevel,
		},
		"confidence checked first": {
			opt: &Options{ConfidenceLevel: 1.5},
			err: ErrInvalidConfidenceLevel,
		},
		"window too small": {
			opt: &Options{WindowSize: 1, SeriesLength: 30, Horizon: 1, ConfidenceLevel: 0.9, EnergyThreshold: 0.9, AdaptationRate: 0.5},
			err: ErrInvalidWindow,
		},
		"window not smaller than series": {
			opt: &Options{WindowSize: 30, SeriesLength: 30, Horizon: 1, ConfidenceLevel: 0.9, EnergyThreshold: 0.9, AdaptationRate: 0.5},
			err: ErrInvalidWindow,
		},
		"zero horizon": {
			opt: &Options{WindowSize: 14, SeriesLength: 30, Horizon: 0, ConfidenceLevel: 0.9, EnergyThreshold: 0.9, AdaptationRate: 0.5},
			err: ErrInvalidHorizon,
		},
		"train size below series length": {
			opt: &Options{WindowSize: 14, SeriesLength: 30, TrainSize: 20, Horizon: 1, ConfidenceLevel: 0.9, EnergyThreshold: 0.9, AdaptationRate: 0.5},
			err: ErrInvalidTrainSize,
		},
		"energy above one": {
			opt: &Options{WindowSize: 14, SeriesLength: 30, Horizon: 1, ConfidenceLevel: 0.9, EnergyThreshold: 1.1, AdaptationRate: 0.5},
			err: ErrInvalidEnergyThreshold,
		},
		"max rank above window": {
			opt: &Options{WindowSize: 14, SeriesLength: 30, Horizon: 1, ConfidenceLevel: 0.9, EnergyThreshold: 0.9, MaxRank: 15, AdaptationRate: 0.5},
			err: ErrInvalidMaxRank,
		},
		"zero adaptation": {
			opt: &Options{WindowSize: 14, SeriesLength: 30, Horizon: 1, ConfidenceLevel: 0.9, EnergyThreshold: 0.9, AdaptationRate: 0},
			err: ErrInvalidAdaptationRate,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			m, err := New(td.opt)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				assert.Nil(t, m)
				return
			}
			require.Nil(t, err)
			assert.NotNil(t, m)
		})
	}
}

func TestFitInsufficientHistory(t *testing.T) {
	testData := map[string]struct {
		opt *Options
		y   []float64
	}{
		"single rate": {
			opt: NewDefaultOptions(),
			y:   []float64{10.0},
		},
		"one short of series length": {
			opt: NewDefaultOptions(),
			y:   timedataset.GenerateConstY(29, 1.0),
		},
		"shorter than train size": {
			opt: &Options{WindowSize: 14, SeriesLength: 30, TrainSize: 40, Horizon: 1, ConfidenceLevel: 0.9, EnergyThreshold: 0.9, AdaptationRate: 0.5},
			y:   timedataset.GenerateConstY(35, 1.0),
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			m, err := New(td.opt)
			require.Nil(t, err)
			err = m.Fit(td.y)
			assert.ErrorIs(t, err, ErrInsufficientHistory)

			_, err = m.Forecast(1)
			assert.ErrorIs(t, err, ErrUntrained)
		})
	}
}

func TestUntrained(t *testing.T) {
	m, err := New(nil)
	require.Nil(t, err)

	_, err = m.Forecast(5)
	assert.ErrorIs(t, err, ErrUntrained)
	assert.ErrorIs(t, m.Update(1.0), ErrUntrained)
	_, err = m.Model()
	assert.ErrorIs(t, err, ErrUntrained)
	_, err = m.Reconstruction()
	assert.ErrorIs(t, err, ErrUntrained)
}

func TestForecastInvalidHorizon(t *testing.T) {
	m, err := New(nil)
	require.Nil(t, err)
	require.Nil(t, m.Fit(timedataset.GenerateConstY(40, 2.0)))

	_, err = m.Forecast(0)
	assert.ErrorIs(t, err, ErrInvalidHorizon)
}

func TestForecastConstant(t *testing.T) {
	m, err := New(nil)
	require.Nil(t, err)
	require.Nil(t, m.Fit(timedataset.GenerateConstY(45, 5.0)))

	res, err := m.Forecast(20)
	require.Nil(t, err)
	require.Len(t, res.Values, 20)
	require.Len(t, res.Lower, 20)
	require.Len(t, res.Upper, 20)
	for i := range res.Values {
		assert.InDelta(t, 5.0, res.Values[i], 1e-6)
		assert.InDelta(t, 0.0, res.Upper[i]-res.Lower[i], 1e-6)
	}

	rec, err := m.Reconstruction()
	require.Nil(t, err)
	assert.Len(t, rec, DefaultSeriesLength)
	assert.InDeltaSlice(t, timedataset.GenerateConstY(DefaultSeriesLength, 5.0), rec, 1e-6)
}

func TestForecastZero(t *testing.T) {
	m, err := New(nil)
	require.Nil(t, err)
	require.Nil(t, m.Fit(make([]float64, 30)))

	res, err := m.Forecast(5)
	require.Nil(t, err)
	assert.Equal(t, make([]float64, 5), res.Values)
	assert.Equal(t, make([]float64, 5), res.Lower)
	assert.Equal(t, make([]float64, 5), res.Upper)
}

func TestForecastLinearTrend(t *testing.T) {
	opt := NewDefaultOptions()
	opt.EnergyThreshold = 1.0
	opt.MaxRank = 2
	opt.Stabilize = false

	n := 40
	y := timedataset.GenerateTrendY(n, 0.5).Add(timedataset.GenerateConstY(n, 2.0))

	m, err := New(opt)
	require.Nil(t, err)
	require.Nil(t, m.Fit(y))

	res, err := m.Forecast(10)
	require.Nil(t, err)

	expected := make([]float64, 10)
	for h := range expected {
		expected[h] = 2.0 + 0.5*float64(n+h)
	}
	assert.InDeltaSlice(t, expected, res.Values, 1e-3)

	model, err := m.Model()
	require.Nil(t, err)
	assert.Equal(t, 2, model.Rank)
	assert.Less(t, model.NoiseVariance, 1e-9)
}

func TestForecastSine(t *testing.T) {
	opt := NewDefaultOptions()
	opt.EnergyThreshold = 0.99

	n := 60
	y := timedataset.GenerateWaveY(n, 3.0, 10.0, 0.0)

	m, err := New(opt)
	require.Nil(t, err)
	require.Nil(t, m.Fit(y))

	res, err := m.Forecast(20)
	require.Nil(t, err)

	expected := timedataset.GenerateWaveY(n+20, 3.0, 10.0, 0.0)[n:]
	assert.InDeltaSlice(t, []float64(expected), res.Values, 1e-3)

	model, err := m.Model()
	require.Nil(t, err)
	assert.Equal(t, 2, model.Rank)
}

func TestForecastPrefixStable(t *testing.T) {
	m, err := New(nil)
	require.Nil(t, err)
	require.Nil(t, m.Fit(noisyWave(60)))

	short, err := m.Forecast(10)
	require.Nil(t, err)
	long, err := m.Forecast(30)
	require.Nil(t, err)

	assert.Equal(t, short.Values, long.Values[:10])
	assert.Equal(t, short.Lower, long.Lower[:10])
	assert.Equal(t, short.Upper, long.Upper[:10])
}

func TestForecastBounds(t *testing.T) {
	testData := map[string]struct {
		y []float64
	}{
		"noisy wave": {y: noisyWave(80)},
		"noisy trend": {
			y: timedataset.GenerateTrendY(50, 0.2).Add(timedataset.GenerateNoise(50, 1.0, rand.New(rand.NewPCG(3, 4)))),
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			m, err := New(nil)
			require.Nil(t, err)
			require.Nil(t, m.Fit(td.y))

			res, err := m.Forecast(DefaultHorizon)
			require.Nil(t, err)
			require.Len(t, res.Values, DefaultHorizon)

			assert.Greater(t, res.Upper[0]-res.Lower[0], 0.0)
			prevWidth := 0.0
			for i := range res.Values {
				assert.False(t, math.IsNaN(res.Values[i]))
				assert.LessOrEqual(t, res.Lower[i], res.Values[i])
				assert.LessOrEqual(t, res.Values[i], res.Upper[i])

				width := res.Upper[i] - res.Lower[i]
				assert.GreaterOrEqual(t, width, prevWidth-1e-9)
				prevWidth = width
			}
		})
	}
}

func TestFitTrainSize(t *testing.T) {
	y := noisyWave(50)

	opt := NewDefaultOptions()
	opt.TrainSize = 35
	split, err := New(opt)
	require.Nil(t, err)
	require.Nil(t, split.Fit(y))

	stepwise, err := New(opt)
	require.Nil(t, err)
	require.Nil(t, stepwise.Fit(y[:35]))
	for _, v := range y[35:] {
		require.Nil(t, stepwise.Update(v))
	}

	a, err := split.Forecast(15)
	require.Nil(t, err)
	b, err := stepwise.Forecast(15)
	require.Nil(t, err)
	assert.Equal(t, a, b)
}

func TestRefit(t *testing.T) {
	m, err := New(nil)
	require.Nil(t, err)

	require.Nil(t, m.Fit(noisyWave(60)))
	first, err := m.Forecast(10)
	require.Nil(t, err)

	require.Nil(t, m.Fit(timedataset.GenerateConstY(40, 1.0)))
	require.Nil(t, m.Fit(noisyWave(60)))
	second, err := m.Forecast(10)
	require.Nil(t, err)

	assert.Equal(t, first, second)
}

func TestModel(t *testing.T) {
	m, err := New(nil)
	require.Nil(t, err)
	require.Nil(t, m.Fit(noisyWave(60)))

	model, err := m.Model()
	require.Nil(t, err)
	assert.Equal(t, DefaultWindowSize, model.Options.WindowSize)
	assert.Len(t, model.Coefficients, DefaultWindowSize-1)
	assert.Len(t, model.SingularValues, DefaultWindowSize)
	assert.GreaterOrEqual(t, model.Rank, 1)
	assert.LessOrEqual(t, model.Rank, DefaultWindowSize/2)
	// in-sample residuals of the initial window plus one per adapted point
	assert.Equal(t, (DefaultSeriesLength-DefaultWindowSize+1)+(60-DefaultSeriesLength), model.Observations)
	require.NotNil(t, model.Scores)
	assert.Greater(t, model.NoiseVariance, 0.0)

	var buf bytes.Buffer
	require.Nil(t, model.TablePrint(&buf, "", "  ", 0))
	out := buf.String()
	assert.Contains(t, out, "SSA:")
	assert.Contains(t, out, "Rank:")
	assert.Contains(t, out, "Coefficients:")
	assert.Contains(t, out, "lag  1:")
}
