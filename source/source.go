// Package source downloads, caches and parses the daily PCR count CSV files published by the
// Ministry of Health, Labour and Welfare.
package source

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aouyang1/go-pcrforecast/timedataset"
)

var (
	ErrMalformedRecord = errors.New("malformed csv record")
	ErrEmptySource     = errors.New("csv source has no records")
)

// Source is a remote CSV of daily counts and the file name it is cached under
type Source struct {
	Name     string `json:"name" mapstructure:"name" yaml:"name"`
	URL      string `json:"url" mapstructure:"url" yaml:"url"`
	Filename string `json:"filename" mapstructure:"filename" yaml:"filename"`
}

const (
	PositiveDailyURL      = "https://www.mhlw.go.jp/content/pcr_positive_daily.csv"
	PositiveDailyFilename = "pcr_positive_daily.csv"
	TestedDailyURL        = "https://www.mhlw.go.jp/content/pcr_tested_daily.csv"
	TestedDailyFilename   = "pcr_tested_daily.csv"
)

func PositiveDaily() Source {
	return Source{Name: "positive", URL: PositiveDailyURL, Filename: PositiveDailyFilename}
}

func TestedDaily() Source {
	return Source{Name: "tested", URL: TestedDailyURL, Filename: TestedDailyFilename}
}

var dateLayouts = []string{
	"2006/1/2",
	"2006-01-02",
	"2006/01/02",
	"2006-1-2",
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func parseDate(s string) (time.Time, error) {
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		t, err = time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// ParseCSV reads dated counts from the first two columns of a csv with a header row. Records are
// returned ordered by date.
func ParseCSV(r io.Reader) ([]timedataset.DatedCount, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("unable to read csv, %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var counts []timedataset.DatedCount
	header := true
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
		}
		line, _ := cr.FieldPos(0)
		if header {
			header = false
			continue
		}
		if len(record) < 2 {
			return nil, fmt.Errorf("line %d has %d fields, %w", line, len(record), ErrMalformedRecord)
		}

		date, err := parseDate(strings.TrimSpace(record[0]))
		if err != nil {
			return nil, fmt.Errorf("line %d has date %q, %w", line, record[0], ErrMalformedRecord)
		}
		count, err := strconv.Atoi(strings.ReplaceAll(strings.TrimSpace(record[1]), ",", ""))
		if err != nil || count < 0 {
			return nil, fmt.Errorf("line %d has count %q, %w", line, record[1], ErrMalformedRecord)
		}
		counts = append(counts, timedataset.DatedCount{Date: date, Count: count})
	}
	if len(counts) == 0 {
		return nil, ErrEmptySource
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Date.Before(counts[j].Date)
	})
	return counts, nil
}
