package timeseries

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// CSVOptions holds options for CSV loading.
type CSVOptions struct {
	DateColumn  string   // Column name for dates (default: "Date")
	ValueColumn string   // Column name for values (default: "Sales")
	DateFormats []string // Layouts tried in order before the built-in ones
	Delimiter   rune     // Field delimiter (default: ',')
	SkipInvalid bool     // Drop rows whose date or value cannot be parsed
}

// DefaultCSVOptions returns default options for the sales export format.
func DefaultCSVOptions() *CSVOptions {
	return &CSVOptions{
		DateColumn:  "Date",
		ValueColumn: "Sales",
		Delimiter:   ',',
	}
}

var builtinDateFormats = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"02-Jan-2006",
	"2006-01",
}

// LoadCSV loads a time series from a CSV file.
func LoadCSV(filename string, opts *CSVOptions) (*Series, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	s, err := LoadCSVFromReader(file, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return s, nil
}

// LoadCSVFromReader loads a time series from an io.Reader.
//
// Empty, "NA", "NaN" and "null" cells become NaN values so that the
// preprocessor can treat them as gaps. Rows are kept in file order.
func LoadCSVFromReader(r io.Reader, opts *CSVOptions) (*Series, error) {
	if opts == nil {
		opts = DefaultCSVOptions()
	}
	dateCol, valueCol := opts.DateColumn, opts.ValueColumn
	if dateCol == "" {
		dateCol = "Date"
	}
	if valueCol == "" {
		valueCol = "Sales"
	}

	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	dateIdx, valueIdx := -1, -1
	for i, h := range header {
		h = strings.TrimSpace(strings.Trim(h, "\""))
		switch {
		case strings.EqualFold(h, dateCol):
			dateIdx = i
		case strings.EqualFold(h, valueCol):
			valueIdx = i
		}
	}
	if dateIdx == -1 {
		return nil, fmt.Errorf("date column %q not found", dateCol)
	}
	if valueIdx == -1 {
		return nil, fmt.Errorf("value column %q not found", valueCol)
	}

	formats := append(append([]string{}, opts.DateFormats...), builtinDateFormats...)

	s := &Series{Name: valueCol}
	row := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		if dateIdx >= len(record) || valueIdx >= len(record) {
			if opts.SkipInvalid {
				continue
			}
			return nil, fmt.Errorf("row %d: expected at least %d fields, got %d", row, max(dateIdx, valueIdx)+1, len(record))
		}

		ts, err := parseDate(strings.TrimSpace(strings.Trim(record[dateIdx], "\"")), formats)
		if err != nil {
			if opts.SkipInvalid {
				continue
			}
			return nil, fmt.Errorf("row %d: %w", row, err)
		}

		val, err := parseValue(strings.TrimSpace(strings.Trim(record[valueIdx], "\"")))
		if err != nil {
			if opts.SkipInvalid {
				continue
			}
			return nil, fmt.Errorf("row %d: %w", row, err)
		}

		s.Timestamps = append(s.Timestamps, ts)
		s.Values = append(s.Values, val)
	}

	if s.Len() == 0 {
		return nil, errors.New("no valid data found in CSV")
	}
	return s, nil
}

// ParseTimestamp parses s with the built-in date layouts.
func ParseTimestamp(s string) (time.Time, error) {
	return parseDate(strings.TrimSpace(s), builtinDateFormats)
}

func parseDate(s string, formats []string) (time.Time, error) {
	for _, layout := range formats {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

func parseValue(s string) (float64, error) {
	switch s {
	case "", "NA", "NaN", "nan", "null":
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable value %q", s)
	}
	return v, nil
}

// WriteCSV writes the series as Date,<Name> rows. An empty name is written as "Sales".
func WriteCSV(w io.Writer, series *Series) error {
	name := series.Name
	if name == "" {
		name = "Sales"
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Date", name}); err != nil {
		return err
	}
	for i, v := range series.Values {
		var date string
		if i < len(series.Timestamps) {
			date = FormatTimestamp(series.Timestamps[i])
		}
		if err := cw.Write([]string{date, strconv.FormatFloat(v, 'f', -1, 64)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// FormatTimestamp renders t as a date, or as date and clock time when t is not
// at midnight. Both layouts are accepted by LoadCSV.
func FormatTimestamp(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05")
}
