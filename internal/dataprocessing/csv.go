package dataprocessing

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"camelsrating/internal/camels"
	"camelsrating/internal/errors"
)

// ParseCSVFile reads observations from a CSV file with the workbook header
func ParseCSVFile(filePath string) ([]camels.Observation, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return ParseCSV(f)
}

// ParseCSV reads observations from CSV data with the workbook header
func ParseCSV(r io.Reader) ([]camels.Observation, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.NewParsingError("failed to read CSV", err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = trimBOM(rows[0][0])
	}
	return ParseRows(rows)
}

func trimBOM(s string) string {
	const bom = "\uFEFF"
	if len(s) >= len(bom) && s[:len(bom)] == bom {
		return s[len(bom):]
	}
	return s
}
