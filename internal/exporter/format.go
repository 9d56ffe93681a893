package exporter

import (
	"strconv"
	"time"

	"camelsrating/internal/camels"
)

// DateFormat is the date layout used in every export
const DateFormat = "2006-01-02"

// formatFloat formats a float64 with the shortest exact representation
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatValue formats an optional value; missing values become empty cells
func formatValue(v camels.Value) string {
	if !v.Valid {
		return ""
	}
	return formatFloat(v.Float)
}

// formatInt formats an int for CSV output
func formatInt(i int) string {
	return strconv.Itoa(i)
}

func formatDate(t time.Time) string {
	return t.Format(DateFormat)
}
