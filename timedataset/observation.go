package timedataset

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	ErrEmptyResult   = errors.New("no overlapping dates between tested and positive series")
	ErrDuplicateDate = errors.New("date appears more than once in series")
	ErrNegativeCount = errors.New("count must be non-negative")
)

// DatedCount is a single daily count from one of the source series
type DatedCount struct {
	Date  time.Time `json:"date"`
	Count int       `json:"count"`
}

// AlignedObservation joins the tested and positive counts of the same day
type AlignedObservation struct {
	Date     time.Time `json:"date"`
	Tested   float64   `json:"tested"`
	Positive float64   `json:"positive"`
}

// RateObservation is the smoothed positivity rate, in percent, for a day
type RateObservation struct {
	Date         time.Time `json:"date"`
	PositiveRate float64   `json:"positive_rate"`
}

// Day truncates t to midnight UTC of its calendar date so that counts reported with
// different clocks or zones still join on the same day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func indexByDay(series []DatedCount) (map[time.Time]int, error) {
	idx := make(map[time.Time]int, len(series))
	for _, dc := range series {
		if dc.Count < 0 {
			return nil, fmt.Errorf("%d on %s, %w", dc.Count, dc.Date.Format(time.DateOnly), ErrNegativeCount)
		}
		day := Day(dc.Date)
		if _, exists := idx[day]; exists {
			return nil, fmt.Errorf("%s, %w", day.Format(time.DateOnly), ErrDuplicateDate)
		}
		idx[day] = dc.Count
	}
	return idx, nil
}

// Align inner joins the tested and positive series on date and returns the observations
// in ascending date order. Dates missing from either series are dropped.
func Align(tested, positive []DatedCount) ([]AlignedObservation, error) {
	testedIdx, err := indexByDay(tested)
	if err != nil {
		return nil, fmt.Errorf("invalid tested series, %w", err)
	}
	positiveIdx, err := indexByDay(positive)
	if err != nil {
		return nil, fmt.Errorf("invalid positive series, %w", err)
	}

	aligned := make([]AlignedObservation, 0, min(len(testedIdx), len(positiveIdx)))
	for day, pos := range positiveIdx {
		tst, exists := testedIdx[day]
		if !exists {
			continue
		}
		aligned = append(aligned, AlignedObservation{
			Date:     day,
			Tested:   float64(tst),
			Positive: float64(pos),
		})
	}
	if len(aligned) == 0 {
		return nil, ErrEmptyResult
	}

	sort.Slice(aligned, func(i, j int) bool {
		return aligned[i].Date.Before(aligned[j].Date)
	})
	return aligned, nil
}

// Columns splits aligned observations into parallel date, tested and positive slices
func Columns(obs []AlignedObservation) ([]time.Time, []float64, []float64) {
	t := make([]time.Time, len(obs))
	tested := make([]float64, len(obs))
	positive := make([]float64, len(obs))
	for i, o := range obs {
		t[i] = o.Date
		tested[i] = o.Tested
		positive[i] = o.Positive
	}
	return t, tested, positive
}
