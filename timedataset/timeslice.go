package timedataset

import (
	"errors"
	"math"
	"time"
)

var ErrCannotInferFreq = errors.New("cannot infer frequency from time slice")

type TimeSlice []time.Time

func (t TimeSlice) StartTime() time.Time {
	var startTime time.Time
	if len(t) < 1 {
		return startTime
	}
	return t[0]
}

func (t TimeSlice) EndTime() time.Time {
	var lastTime time.Time
	if len(t) < 1 {
		return lastTime
	}

	lastTime = t[len(t)-1]
	return lastTime
}

// EstimateFreq returns the most common delta between consecutive points, preferring the
// smallest delta on ties.
func (t TimeSlice) EstimateFreq() (time.Duration, error) {
	if len(t) < 2 {
		return 0, ErrCannotInferFreq
	}

	frequencies := make(map[time.Duration]int)
	for i := 1; i < len(t); i++ {
		delta := t[i].Sub(t[i-1])
		frequencies[delta] += 1
	}

	var maxCnt int
	maxDelta := time.Duration(math.MaxInt64)

	for delta, cnt := range frequencies {
		if cnt > maxCnt || (cnt == maxCnt && delta < maxDelta) {
			maxCnt = cnt
			maxDelta = delta
		}
	}
	return maxDelta, nil
}

// Gaps returns the indices i where t[i] is not exactly one calendar day after t[i-1]
func (t TimeSlice) Gaps() []int {
	var gaps []int
	for i := 1; i < len(t); i++ {
		if !Day(t[i-1]).AddDate(0, 0, 1).Equal(Day(t[i])) {
			gaps = append(gaps, i)
		}
	}
	return gaps
}

// DailyHorizon returns the n calendar days following the end of the time slice
func (t TimeSlice) DailyHorizon(n int) []time.Time {
	if len(t) == 0 || n <= 0 {
		return nil
	}
	end := t.EndTime()
	horizon := make([]time.Time, n)
	for i := 0; i < n; i++ {
		horizon[i] = end.AddDate(0, 0, i+1)
	}
	return horizon
}
