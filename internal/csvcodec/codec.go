// Package csvcodec converts weight entries to and from CSV text.
//
// Encode writes a "date,weight,unit" header followed by one row per entry,
// with the unit as "metric" or "english". Decode also accepts the older
// "Date, Weight, Units" header with "kg" and "lb" unit tokens.
package csvcodec

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"weightlog/internal/domain"
)

const (
	unitMetric  = "metric"
	unitEnglish = "english"
)

// Header is the first row written by Encode.
var Header = []string{"date", "weight", "unit"}

// Encode writes entries in the order given. Weights are written with the
// shortest representation that parses back to the same float64.
func Encode(w io.Writer, entries []domain.Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, e := range entries {
		row := []string{
			e.Date.String(),
			strconv.FormatFloat(e.Weight, 'f', -1, 64),
			unitToken(e.IsMetric),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Decode parses every row before returning. Any bad row fails the whole
// input with a *domain.MalformedInputError naming its line.
func Decode(r io.Reader) ([]domain.Measurement, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &domain.MalformedInputError{Line: 1, Reason: "missing header row"}
	}
	if err != nil {
		return nil, readError(err)
	}
	if err := checkHeader(header); err != nil {
		return nil, err
	}

	var out []domain.Measurement
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, readError(err)
		}
		line, _ := cr.FieldPos(0)
		if isBlank(record) {
			continue
		}
		m, err := parseRecord(record)
		if err != nil {
			return nil, &domain.MalformedInputError{Line: line, Reason: err.Error()}
		}
		out = append(out, m)
	}
	return out, nil
}

func checkHeader(header []string) error {
	if len(header) != len(Header) {
		return &domain.MalformedInputError{
			Line:   1,
			Reason: fmt.Sprintf("header must have %d columns, got %d", len(Header), len(header)),
		}
	}
	for i, col := range header {
		name := strings.ToLower(strings.TrimSpace(col))
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		if name != Header[i] && name != Header[i]+"s" {
			return &domain.MalformedInputError{Line: 1, Reason: fmt.Sprintf("unexpected header column %q", col)}
		}
	}
	return nil
}

func parseRecord(record []string) (domain.Measurement, error) {
	if len(record) != len(Header) {
		return domain.Measurement{}, fmt.Errorf("expected %d columns, got %d", len(Header), len(record))
	}
	date, err := domain.ParseDate(record[0])
	if err != nil {
		return domain.Measurement{}, fmt.Errorf("invalid date %q", strings.TrimSpace(record[0]))
	}
	raw := strings.TrimSpace(record[1])
	weight, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return domain.Measurement{}, fmt.Errorf("invalid weight %q", raw)
	}
	m := domain.Measurement{Date: date, Weight: weight}
	if m.Validate() != nil {
		return domain.Measurement{}, fmt.Errorf("weight must be greater than zero, got %q", raw)
	}
	metric, err := parseUnit(record[2])
	if err != nil {
		return domain.Measurement{}, err
	}
	m.IsMetric = metric
	return m, nil
}

func parseUnit(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case unitMetric, "kg", "kgs":
		return true, nil
	case unitEnglish, "imperial", "lb", "lbs":
		return false, nil
	default:
		return false, fmt.Errorf("unknown unit %q", strings.TrimSpace(s))
	}
}

func unitToken(metric bool) string {
	if metric {
		return unitMetric
	}
	return unitEnglish
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func readError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &domain.MalformedInputError{Line: pe.Line, Reason: pe.Err.Error()}
	}
	return err
}
