package dataprocessing

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"camelsrating/internal/camels"
	"camelsrating/internal/errors"
)

// DefaultSheet is the worksheet holding institution data
const DefaultSheet = "Institution_Data"

// ParseWorkbook reads observations from an Excel workbook on disk.
// An empty sheet name selects DefaultSheet.
func ParseWorkbook(filePath, sheet string) ([]camels.Observation, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, errors.NewParsingError("failed to open workbook", err).
			WithContext("file", filepath.Base(filePath))
	}
	defer f.Close()

	return parseWorkbook(f, sheet)
}

// ReadWorkbook reads observations from an Excel workbook stream, such as an upload
func ReadWorkbook(r io.Reader, sheet string) ([]camels.Observation, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.NewParsingError("failed to open workbook", err)
	}
	defer f.Close()

	return parseWorkbook(f, sheet)
}

func parseWorkbook(f *excelize.File, sheet string) ([]camels.Observation, error) {
	name, err := resolveSheet(f, sheet)
	if err != nil {
		return nil, err
	}

	// Raw values keep dates as serial numbers and numbers free of display formats
	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.NewParsingError(fmt.Sprintf("failed to read sheet %q", name), err).
			WithContext("sheet", name)
	}

	slog.Debug("Read institution sheet",
		slog.String("sheet_name", name),
		slog.Int("total_rows", len(rows)))

	obs, err := ParseRows(rows)
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", name, err)
	}
	return obs, nil
}

// resolveSheet finds the requested sheet, ignoring case and surrounding
// spaces. When the default sheet is absent, the first sheet carrying the
// institution header is used.
func resolveSheet(f *excelize.File, sheet string) (string, error) {
	want := sheet
	if want == "" {
		want = DefaultSheet
	}

	sheets := f.GetSheetList()
	for _, name := range sheets {
		if strings.EqualFold(strings.TrimSpace(name), want) {
			return name, nil
		}
	}

	if sheet == "" {
		for _, name := range sheets {
			rows, err := f.GetRows(name)
			if err != nil || len(rows) == 0 {
				continue
			}
			if findHeader(rows) >= 0 {
				slog.Info("Default sheet not found, using sheet with institution header",
					slog.String("sheet_name", name))
				return name, nil
			}
		}
	}

	return "", fmt.Errorf("%w: sheet %q not found (available: %s)",
		camels.ErrInvalidInput, want, strings.Join(sheets, ", "))
}
