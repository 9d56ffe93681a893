package dataprocessing

import (
	"fmt"
	"path/filepath"
	"strings"

	"camelsrating/internal/camels"
)

// Load reads observations from a workbook or CSV file, chosen by extension.
// The sheet name only applies to workbooks.
func Load(filePath, sheet string) ([]camels.Observation, error) {
	switch ext := strings.ToLower(filepath.Ext(filePath)); ext {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return ParseWorkbook(filePath, sheet)
	case ".csv":
		return ParseCSVFile(filePath)
	default:
		return nil, fmt.Errorf("unsupported input format %q", ext)
	}
}
