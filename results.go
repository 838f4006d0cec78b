package pcrforecast

import (
	"fmt"
	"io"
	"time"

	"github.com/aouyang1/go-pcrforecast/event"
	"github.com/aouyang1/go-pcrforecast/timedataset"
	"github.com/aouyang1/go-pcrforecast/util"
)

// Results holds the smoothed positivity rate history and the forecast that follows it. Forecast
// values are floored at zero while the bounds are left as computed.
type Results struct {
	Actual   []timedataset.RateObservation `json:"actual"`
	T        []time.Time                   `json:"time"`
	Forecast []float64                     `json:"forecast"`
	Upper    []float64                     `json:"upper"`
	Lower    []float64                     `json:"lower"`

	Outliers []time.Time   `json:"outliers,omitempty"`
	Holidays []event.Event `json:"holidays,omitempty"`
}

// LastActual returns the most recent smoothed rate
func (r *Results) LastActual() (timedataset.RateObservation, bool) {
	if r == nil || len(r.Actual) == 0 {
		return timedataset.RateObservation{}, false
	}
	return r.Actual[len(r.Actual)-1], true
}

// TablePrint writes the last tail actual rates followed by every forecast day. A negative tail
// prints the full history.
func (r *Results) TablePrint(w io.Writer, prefix, indent string, tail int) error {
	actual := r.Actual
	if tail >= 0 && tail < len(actual) {
		actual = actual[len(actual)-tail:]
	}

	if _, err := fmt.Fprintf(w, "%sActual:\n", prefix); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%s%-10s %10s  %s\n", prefix, util.IndentExpand(indent, 1), "Date", "Rate(%)", "Holiday"); err != nil {
		return err
	}
	for _, a := range actual {
		if _, err := fmt.Fprintf(w, "%s%s%-10s %10.3f  %s\n",
			prefix, util.IndentExpand(indent, 1),
			a.Date.Format(time.DateOnly), a.PositiveRate, event.NameOn(r.Holidays, a.Date)); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "%sForecast:\n", prefix); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%s%-10s %10s %10s %10s  %s\n",
		prefix, util.IndentExpand(indent, 1), "Date", "Rate(%)", "Lower", "Upper", "Holiday"); err != nil {
		return err
	}
	for i, t := range r.T {
		if _, err := fmt.Fprintf(w, "%s%s%-10s %10.3f %10.3f %10.3f  %s\n",
			prefix, util.IndentExpand(indent, 1),
			t.Format(time.DateOnly), r.Forecast[i], r.Lower[i], r.Upper[i], event.NameOn(r.Holidays, t)); err != nil {
			return err
		}
	}
	return nil
}
