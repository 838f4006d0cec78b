package event

import (
	"testing"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/jp"
	"github.com/stretchr/testify/assert"
)

func TestValid(t *testing.T) {
	start := time.Date(2021, 5, 3, 0, 0, 0, 0, time.UTC)
	testData := map[string]struct {
		event Event
		err   error
	}{
		"valid":        {event: NewEvent("golden_week", start, start.AddDate(0, 0, 3))},
		"unset start":  {event: NewEvent("golden_week", time.Time{}, start), err: ErrUnsetTime},
		"reversed":     {event: NewEvent("golden_week", start, start.AddDate(0, 0, -1)), err: ErrStartAfterEnd},
		"missing name": {event: NewEvent("", start, start.AddDate(0, 0, 1)), err: ErrNoEventName},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, td.event.Valid(), td.err)
		})
	}
}

func TestHoliday(t *testing.T) {
	jst := time.FixedZone("JST", 9*60*60)

	testData := map[string]struct {
		hol       *cal.Holiday
		start     time.Time
		end       time.Time
		durBefore time.Duration
		durAfter  time.Duration
		expected  []Event
	}{
		"simple": {
			hol:   jp.NewYear,
			start: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2022, 12, 31, 0, 0, 0, 0, time.UTC),
			expected: []Event{
				{
					"New_Year's_Day_2021",
					time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
					time.Date(2021, 1, 2, 0, 0, 0, 0, time.UTC),
				},
				{
					"New_Year's_Day_2022",
					time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
					time.Date(2022, 1, 2, 0, 0, 0, 0, time.UTC),
				},
			},
		},
		"substitute monday": {
			hol:   jp.TheEmperorsBirthday,
			start: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC),
			expected: []Event{
				{
					"The_Emperor's_Birthday_2020",
					time.Date(2020, 2, 23, 0, 0, 0, 0, time.UTC),
					time.Date(2020, 2, 24, 0, 0, 0, 0, time.UTC),
				},
				{
					"The_Emperor's_Birthday_2020_Substitute",
					time.Date(2020, 2, 24, 0, 0, 0, 0, time.UTC),
					time.Date(2020, 2, 25, 0, 0, 0, 0, time.UTC),
				},
			},
		},
		"substitute only in window": {
			hol:   jp.TheEmperorsBirthday,
			start: time.Date(2020, 2, 24, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC),
			expected: []Event{
				{
					"The_Emperor's_Birthday_2020_Substitute",
					time.Date(2020, 2, 24, 0, 0, 0, 0, time.UTC),
					time.Date(2020, 2, 25, 0, 0, 0, 0, time.UTC),
				},
			},
		},
		"substitute past golden week": {
			hol:   jp.ConstitutionMemorialDay,
			start: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC),
			expected: []Event{
				{
					"Constitution_Memorial_Day_2020",
					time.Date(2020, 5, 3, 0, 0, 0, 0, time.UTC),
					time.Date(2020, 5, 4, 0, 0, 0, 0, time.UTC),
				},
				{
					"Constitution_Memorial_Day_2020_Substitute",
					time.Date(2020, 5, 6, 0, 0, 0, 0, time.UTC),
					time.Date(2020, 5, 7, 0, 0, 0, 0, time.UTC),
				},
			},
		},
		"no holiday in transition year": {
			hol:      jp.TheEmperorsBirthday,
			start:    time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC),
			end:      time.Date(2019, 12, 31, 0, 0, 0, 0, time.UTC),
			expected: []Event{},
		},
		"nth weekday": {
			hol:   jp.ComingOfAgeDay,
			start: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2021, 1, 31, 0, 0, 0, 0, time.UTC),
			expected: []Event{
				{
					"Coming_of_Age_Day_2021",
					time.Date(2021, 1, 11, 0, 0, 0, 0, time.UTC),
					time.Date(2021, 1, 12, 0, 0, 0, 0, time.UTC),
				},
			},
		},
		"vernal equinox": {
			hol:   VernalEquinoxDay,
			start: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2022, 12, 31, 0, 0, 0, 0, time.UTC),
			expected: []Event{
				{
					"Vernal_Equinox_Day_2021",
					time.Date(2021, 3, 20, 0, 0, 0, 0, time.UTC),
					time.Date(2021, 3, 21, 0, 0, 0, 0, time.UTC),
				},
				{
					"Vernal_Equinox_Day_2022",
					time.Date(2022, 3, 21, 0, 0, 0, 0, time.UTC),
					time.Date(2022, 3, 22, 0, 0, 0, 0, time.UTC),
				},
			},
		},
		"autumnal equinox": {
			hol:   jp.AutumnalEquinoxDay,
			start: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2021, 12, 31, 0, 0, 0, 0, time.UTC),
			expected: []Event{
				{
					"Autumnal_Equinox_Day_2021",
					time.Date(2021, 9, 23, 0, 0, 0, 0, time.UTC),
					time.Date(2021, 9, 24, 0, 0, 0, 0, time.UTC),
				},
			},
		},
		"non utc tz": {
			hol:   jp.CultureDay,
			start: time.Date(2021, 1, 1, 0, 0, 0, 0, jst),
			end:   time.Date(2021, 12, 31, 0, 0, 0, 0, jst),
			expected: []Event{
				{
					"Culture_Day_2021",
					time.Date(2021, 11, 3, 0, 0, 0, 0, jst),
					time.Date(2021, 11, 4, 0, 0, 0, 0, jst),
				},
			},
		},
		"with buffer": {
			hol:       jp.CultureDay,
			start:     time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
			end:       time.Date(2021, 12, 31, 0, 0, 0, 0, time.UTC),
			durBefore: 24 * time.Hour,
			durAfter:  2 * 24 * time.Hour,
			expected: []Event{
				{
					"Culture_Day_2021",
					time.Date(2021, 11, 2, 0, 0, 0, 0, time.UTC),
					time.Date(2021, 11, 6, 0, 0, 0, 0, time.UTC),
				},
			},
		},
		"outside window": {
			hol:      jp.CultureDay,
			start:    time.Date(2021, 11, 4, 0, 0, 0, 0, time.UTC),
			end:      time.Date(2021, 12, 31, 0, 0, 0, 0, time.UTC),
			expected: []Event{},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res := Holiday(td.hol, td.start, td.end, td.durBefore, td.durAfter)
			assert.Equal(t, td.expected, res)
		})
	}
}

func TestHolidays(t *testing.T) {
	start := time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2021, 5, 31, 0, 0, 0, 0, time.UTC)

	hols := []*cal.Holiday{jp.ChildrensDay, jp.ConstitutionMemorialDay, jp.GreeneryDay, jp.CultureDay}
	res := Holidays(hols, start, end)

	names := make([]string, 0, len(res))
	for _, e := range res {
		names = append(names, e.Name)
	}
	expected := []string{
		"Constitution_Memorial_Day_2021",
		"Greenery_Day_2021",
		"Children's_Day_2021",
	}
	assert.Equal(t, expected, names)

	assert.Equal(t, "Greenery_Day_2021", NameOn(res, time.Date(2021, 5, 4, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, "", NameOn(res, time.Date(2021, 5, 6, 0, 0, 0, 0, time.UTC)))
}

func TestJapanHolidays(t *testing.T) {
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2021, 12, 31, 0, 0, 0, 0, time.UTC)

	res := Holidays(JapanHolidays, start, end)
	// 16 national holidays plus the Mountain Day substitute
	assert.Len(t, res, 17)
	for i := 1; i < len(res); i++ {
		assert.False(t, res[i].Start.Before(res[i-1].Start))
	}
}

func TestJapanHolidaysOn(t *testing.T) {
	res := Holidays(JapanHolidays,
		time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2022, 12, 31, 0, 0, 0, 0, time.UTC),
	)
	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	testData := map[string]struct {
		t        time.Time
		expected string
	}{
		"2020 golden week substitute": {t: day(2020, 5, 6), expected: "Constitution_Memorial_Day_2020_Substitute"},
		"2020 greenery day":           {t: day(2020, 5, 4), expected: "Greenery_Day_2020"},
		"2020 marine day moved":       {t: day(2020, 7, 23), expected: "Marine_Day_2020"},
		"2020 sports day moved":       {t: day(2020, 7, 24), expected: "Sports_Day_2020"},
		"2020 mountain day moved":     {t: day(2020, 8, 10), expected: "Mountain_Day_2020"},
		"2020 regular marine day":     {t: day(2020, 7, 20), expected: ""},
		"2020 regular mountain day":   {t: day(2020, 8, 11), expected: ""},
		"2020 regular sports day":     {t: day(2020, 10, 12), expected: ""},
		"2021 marine day moved":       {t: day(2021, 7, 22), expected: "Marine_Day_2021"},
		"2021 sports day moved":       {t: day(2021, 7, 23), expected: "Sports_Day_2021"},
		"2021 mountain day sunday":    {t: day(2021, 8, 8), expected: "Mountain_Day_2021"},
		"2021 mountain day observed":  {t: day(2021, 8, 9), expected: "Mountain_Day_2021_Substitute"},
		"2021 regular sports day":     {t: day(2021, 10, 11), expected: ""},
		"2022 regular sports day":     {t: day(2022, 10, 10), expected: "Sports_Day_2022"},
		"2019 enthronement":           {t: day(2019, 5, 1), expected: "New_Emperor_Enthronement_Day_2019"},
		"2020 vernal equinox":         {t: day(2020, 3, 20), expected: "Vernal_Equinox_Day_2020"},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, td.expected, NameOn(res, td.t))
		})
	}
}

func TestJapanHolidaysCitizensHoliday(t *testing.T) {
	res := Holidays(JapanHolidays,
		time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC),
	)
	names := make([]string, 0, len(res))
	for _, e := range res {
		names = append(names, e.Name)
	}
	expected := []string{
		"Respect_for_the_Aged_Day_2026",
		"National_holiday_between_Respect_for_the_Aged_Day_and_Autumnal_Equinox_Day_2026",
		"Autumnal_Equinox_Day_2026",
	}
	assert.Equal(t, expected, names)
}
