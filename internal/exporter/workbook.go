package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"
)

const (
	minColumnWidth = 10.0
	maxColumnWidth = 48.0
)

// WriteWorkbook writes the tables to an Excel workbook, one sheet per table.
// Numeric columns are stored as numbers so they stay usable in formulas.
func WriteWorkbook(filePath string, tables []Table) error {
	if len(tables) == 0 {
		return fmt.Errorf("no tables to write")
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DCE6F1"}},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, t := range tables {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), t.Name); err != nil {
				return fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(t.Name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", t.Name, err)
		}

		if err := writeSheet(f, t, headerStyle); err != nil {
			return fmt.Errorf("failed to write sheet %s: %w", t.Name, err)
		}
	}
	f.SetActiveSheet(0)

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := f.SaveAs(filePath); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	slog.Info("Wrote workbook",
		slog.String("file_path", filePath),
		slog.Int("sheets", len(tables)))
	return nil
}

func writeSheet(f *excelize.File, t Table, headerStyle int) error {
	sw, err := f.NewStreamWriter(t.Name)
	if err != nil {
		return err
	}

	widths := make([]float64, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = clampWidth(float64(len(h)) + 2)
	}
	for _, row := range t.Rows {
		for i, c := range row {
			if i < len(widths) && float64(len(c))+2 > widths[i] {
				widths[i] = clampWidth(float64(len(c)) + 2)
			}
		}
	}
	for i, w := range widths {
		if err := sw.SetColWidth(i+1, i+1, w); err != nil {
			return err
		}
	}

	if err := sw.SetPanes(&excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	header := make([]interface{}, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = excelize.Cell{StyleID: headerStyle, Value: h}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	for r, row := range t.Rows {
		cells := make([]interface{}, len(row))
		for i, c := range row {
			cells[i] = cellValue(t, i, c)
		}
		axis, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(axis, cells); err != nil {
			return err
		}
	}

	return sw.Flush()
}

// cellValue stores numeric columns as numbers and empty cells as blanks
func cellValue(t Table, col int, c string) interface{} {
	if c == "" {
		return nil
	}
	if col < len(t.Numeric) && t.Numeric[col] {
		if f, err := strconv.ParseFloat(c, 64); err == nil {
			return f
		}
	}
	return c
}

func clampWidth(w float64) float64 {
	switch {
	case w < minColumnWidth:
		return minColumnWidth
	case w > maxColumnWidth:
		return maxColumnWidth
	default:
		return w
	}
}
