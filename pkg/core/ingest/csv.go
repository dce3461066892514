package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"scenario_forecast/pkg/core/projection"
)

// RequiredColumns are the CSV headers the projection needs, lowercase.
var RequiredColumns = []string{"month", "revenue", "cogs", "opex", "customers"}

// ErrNoRows is returned when the CSV has a header but no data.
var ErrNoRows = errors.New("csv has no data rows")

// MissingColumnsError lists required headers absent from the upload.
type MissingColumnsError struct {
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("Missing columns: [%s]", quoteJoin(e.Missing))
}

func quoteJoin(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = "'" + s + "'"
	}
	return strings.Join(quoted, ", ")
}

// monthLayouts are tried in order when parsing the month column.
var monthLayouts = []string{
	"2006-01",
	"2006-01-02",
	"2006/01",
	"2006/01/02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"01/02/2006",
	"1/2/2006",
	"Jan 2006",
	"January 2006",
	"Jan-2006",
	"2006-01-02T15:04:05",
}

// ParseMonth parses a month label in any of the supported layouts.
func ParseMonth(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	for _, layout := range monthLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized month %q", raw)
}

// parseAmount reads a numeric cell. Blank cells are NaN (missing), and
// currency symbols and thousands separators are ignored.
func parseAmount(raw string) (float64, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.ReplaceAll(cleaned, "$", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" || strings.EqualFold(cleaned, "nan") || strings.EqualFold(cleaned, "null") {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(cleaned, 64)
}

// ParseCSV reads monthly actuals. Headers are matched case-insensitively;
// extra columns are ignored. Rows are returned in file order.
func ParseCSV(r io.Reader) ([]projection.HistoricalRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("csv is empty")
		}
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}

	index := make(map[string]int, len(headers))
	for i, h := range headers {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, seen := index[key]; !seen {
			index[key] = i
		}
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &MissingColumnsError{Missing: missing}
	}

	var records []projection.HistoricalRecord
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if isBlankRow(row) {
			continue
		}

		cell := func(col string) string {
			i := index[col]
			if i >= len(row) {
				return ""
			}
			return row[i]
		}

		m, err := ParseMonth(cell("month"))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		rec := projection.HistoricalRecord{Month: m}
		fields := []struct {
			col string
			dst *float64
		}{
			{"revenue", &rec.Revenue},
			{"cogs", &rec.COGS},
			{"opex", &rec.Opex},
			{"customers", &rec.Customers},
		}
		for _, f := range fields {
			v, err := parseAmount(cell(f.col))
			if err != nil {
				return nil, fmt.Errorf("line %d: column %s: invalid number %q", line, f.col, cell(f.col))
			}
			*f.dst = v
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, ErrNoRows
	}
	return records, nil
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Tail returns the last n records, or all of them when there are fewer.
func Tail(records []projection.HistoricalRecord, n int) []projection.HistoricalRecord {
	if n <= 0 {
		return nil
	}
	if len(records) <= n {
		return records
	}
	return records[len(records)-n:]
}
