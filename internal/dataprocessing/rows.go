package dataprocessing

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"camelsrating/internal/camels"
)

// headerScanRows bounds how far down a sheet the header row is searched for
const headerScanRows = 10

// dateLayouts are tried in order when a date cell is text
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01-02-06",
	"02.01.2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// columnMap maps each input column to its index in the sheet
type columnMap struct {
	institution int
	date        int
	fields      [camels.NumFields]int
}

func normalizeHeader(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// mapColumns resolves the header row. Every column is required.
func mapColumns(header []string) (*columnMap, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		key := normalizeHeader(h)
		if key == "" {
			continue
		}
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}

	lookup := func(name string) int {
		if i, ok := index[normalizeHeader(name)]; ok {
			return i
		}
		return -1
	}

	cm := &columnMap{
		institution: lookup(camels.ColumnInstitution),
		date:        lookup(camels.ColumnDate),
	}

	var missing []string
	if cm.institution < 0 {
		missing = append(missing, camels.ColumnInstitution)
	}
	if cm.date < 0 {
		missing = append(missing, camels.ColumnDate)
	}
	for _, f := range camels.Fields() {
		cm.fields[f] = lookup(f.String())
		if cm.fields[f] < 0 {
			missing = append(missing, f.String())
		}
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %w", camels.ErrInvalidInput, &camels.ValidationError{
			Field:   "header",
			Message: "missing required columns: " + strings.Join(missing, ", "),
		})
	}
	return cm, nil
}

// findHeader returns the index of the first row that names both key columns
func findHeader(rows [][]string) int {
	inst := normalizeHeader(camels.ColumnInstitution)
	date := normalizeHeader(camels.ColumnDate)
	for i := 0; i < len(rows) && i < headerScanRows; i++ {
		var hasInst, hasDate bool
		for _, cell := range rows[i] {
			switch normalizeHeader(cell) {
			case inst:
				hasInst = true
			case date:
				hasDate = true
			}
		}
		if hasInst && hasDate {
			return i
		}
	}
	return -1
}

// ParseRows converts a header-bearing table of cells into observations.
// Blank rows are skipped, empty numeric cells become missing values and
// any other unreadable cell is reported with its 1-based sheet row.
func ParseRows(rows [][]string) ([]camels.Observation, error) {
	headerIdx := findHeader(rows)
	if headerIdx < 0 {
		return nil, fmt.Errorf("%w: %w", camels.ErrInvalidInput, &camels.ValidationError{
			Field:   "header",
			Message: fmt.Sprintf("no header row with %q and %q", camels.ColumnInstitution, camels.ColumnDate),
		})
	}

	cm, err := mapColumns(rows[headerIdx])
	if err != nil {
		return nil, err
	}

	obs := make([]camels.Observation, 0, len(rows)-headerIdx-1)
	for i := headerIdx + 1; i < len(rows); i++ {
		row := rows[i]
		if isBlank(row) {
			continue
		}
		o, err := parseRow(row, i+1, cm)
		if err != nil {
			return nil, err
		}
		obs = append(obs, o)
	}

	if len(obs) == 0 {
		return nil, camels.ErrNoObservations
	}
	return obs, nil
}

func parseRow(row []string, sheetRow int, cm *columnMap) (camels.Observation, error) {
	var o camels.Observation
	o.Institution = strings.TrimSpace(cell(row, cm.institution))

	rawDate := cell(row, cm.date)
	date, err := ParseDate(rawDate)
	if err != nil {
		return o, fmt.Errorf("%w: %w", camels.ErrInvalidInput, &camels.ValidationError{
			Row:     sheetRow,
			Field:   camels.ColumnDate,
			Message: "unrecognised date",
			Value:   rawDate,
		})
	}
	o.Date = date

	for _, f := range camels.Fields() {
		raw := cell(row, cm.fields[f])
		v, err := ParseNumber(raw)
		if err != nil {
			return o, fmt.Errorf("%w: %w", camels.ErrInvalidInput, &camels.ValidationError{
				Row:     sheetRow,
				Field:   f.String(),
				Message: "non-numeric value",
				Value:   raw,
			})
		}
		*o.Field(f) = v
	}
	return o, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ParseNumber reads a numeric cell. Empty cells and the usual spreadsheet
// placeholders for "no value" yield a missing value. Anything else must be a
// plain number: display formatting such as "12%", "(5)" or "1,234" is
// rejected, since workbooks are read with raw cell values and never carry it.
func ParseNumber(s string) (camels.Value, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "-", "na", "n/a", "nan", "null", "#n/a", "#div/0!":
		return camels.Missing, nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return camels.Missing, fmt.Errorf("not a plain number: %q", s)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return camels.Missing, fmt.Errorf("non-finite value %q", s)
	}
	return camels.Some(f), nil
}

// ParseDate reads a date cell written either as text or as an Excel serial
// number. Times are dropped.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return truncateDay(t), nil
		}
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, err
		}
		return truncateDay(t), nil
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
