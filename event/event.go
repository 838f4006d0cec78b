package event

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rickar/cal/v2"
)

var (
	ErrStartAfterEnd = errors.New("event start time is after end time")
	ErrUnsetTime     = errors.New("unset event start or end time")
	ErrNoEventName   = errors.New("no event name")
)

// Event is a named span of days annotated on forecasts
type Event struct {
	Name  string    `json:"name"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func NewEvent(name string, start, end time.Time) Event {
	return Event{
		Name:  name,
		Start: start,
		End:   end,
	}
}

func (e *Event) Valid() error {
	if e.Start.IsZero() || e.End.IsZero() {
		return ErrUnsetTime
	}
	if e.Start.After(e.End) {
		return ErrStartAfterEnd
	}
	if e.Name == "" {
		return ErrNoEventName
	}
	return nil
}

// Contains reports whether t falls in [Start, End)
func (e *Event) Contains(t time.Time) bool {
	return !t.Before(e.Start) && t.Before(e.End)
}

// Holiday returns a day-long event per year for each date of the holiday that falls between
// start and end inclusive. A holiday observed on a later substitute day yields a second event
// named with a _Substitute suffix. Dates are pinned to midnight in the location of start.
func Holiday(hol *cal.Holiday, start, end time.Time, durBefore, durAfter time.Duration) []Event {
	loc := start.Location()

	events := []Event{}
	for i := start.Year(); i <= end.Year(); i++ {
		actual, observed := hol.Calc(i)
		if actual.IsZero() || observed.IsZero() {
			continue
		}
		name := strings.ReplaceAll(fmt.Sprintf("%s_%d", hol.Name, i), " ", "_")

		days := []time.Time{pinDay(actual, loc)}
		names := []string{name}
		if d := pinDay(observed, loc); !d.Equal(days[0]) {
			days = append(days, d)
			names = append(names, name+"_Substitute")
		}

		for j, d := range days {
			if d.Before(start) || d.After(end) {
				continue
			}
			events = append(events, Event{
				Name:  names[j],
				Start: d.Add(-durBefore),
				End:   d.AddDate(0, 0, 1).Add(durAfter),
			})
		}
	}
	return events
}

func pinDay(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// Holidays collects the events of every holiday between start and end ordered by start time
func Holidays(hols []*cal.Holiday, start, end time.Time) []Event {
	var events []Event
	for _, hol := range hols {
		for _, e := range Holiday(hol, start, end, 0, 0) {
			if err := e.Valid(); err != nil {
				continue
			}
			events = append(events, e)
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})
	return events
}

// NameOn returns the name of the first event covering t or an empty string
func NameOn(events []Event, t time.Time) string {
	for i := range events {
		if events[i].Contains(t) {
			return events[i].Name
		}
	}
	return ""
}
