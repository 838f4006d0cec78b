package timedataset

import (
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/floats"
)

// GenerateDailyT returns n consecutive days starting at the calendar day of start
func GenerateDailyT(n int, start time.Time) []time.Time {
	t := make([]time.Time, 0, n)
	ct := Day(start)
	for i := 0; i < n; i++ {
		t = append(t, ct.AddDate(0, 0, i))
	}
	return t
}

type Series []float64

func (s Series) Add(src Series) Series {
	floats.Add(s, src)
	return s
}

func (s Series) SetConst(t []time.Time, val float64, start, end time.Time) Series {
	n := len(s)
	for i := 0; i < n; i++ {
		if (t[i].After(start) || t[i].Equal(start)) && t[i].Before(end) {
			s[i] = val
		}
	}
	return s
}

// ScaleWeekend multiplies weekend values by factor, mimicking the drop in reported tests
// on Saturdays and Sundays.
func (s Series) ScaleWeekend(t []time.Time, factor float64) Series {
	n := len(s)
	for i := 0; i < n; i++ {
		switch t[i].Weekday() {
		case time.Saturday, time.Sunday:
			s[i] *= factor
		}
	}
	return s
}

// Counts rounds the series to non-negative integer daily counts
func (s Series) Counts(t []time.Time) []DatedCount {
	counts := make([]DatedCount, len(s))
	for i, v := range s {
		c := int(math.Round(v))
		if c < 0 {
			c = 0
		}
		counts[i] = DatedCount{Date: t[i], Count: c}
	}
	return counts
}

func GenerateConstY(n int, val float64) Series {
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, val)
	}
	return Series(y)
}

// GenerateWaveY creates a sine wave with the period expressed in days
func GenerateWaveY(n int, amp, periodDays, phase float64) Series {
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		val := amp * math.Sin(2.0*math.Pi/periodDays*float64(i)+phase)
		y = append(y, val)
	}
	return Series(y)
}

// GenerateTrendY creates a linear ramp with the slope expressed per day
func GenerateTrendY(n int, slope float64) Series {
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, slope*float64(i))
	}
	return Series(y)
}

func GenerateNoise(n int, scale float64, rnd *rand.Rand) Series {
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, rnd.NormFloat64()*scale)
	}
	return Series(y)
}
