package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"camelsrating/internal/camels"
	"camelsrating/internal/errors"
)

// SheetsSource reads institution data from a Google Sheets spreadsheet
type SheetsSource struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
	logger        *slog.Logger
}

// SheetsConfig selects a spreadsheet and how to authenticate against it
type SheetsConfig struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
	APIKey          string
}

// NewSheetsSource creates a Sheets-backed source. A service account file is
// preferred over an API key when both are set.
func NewSheetsSource(ctx context.Context, cfg SheetsConfig, logger *slog.Logger) (*SheetsSource, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet ID is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	var opts []option.ClientOption
	switch {
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	case cfg.APIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	default:
		return nil, fmt.Errorf("either a credentials file or an API key is required")
	}
	opts = append(opts, option.WithScopes(sheets.SpreadsheetsReadonlyScope))

	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Sheets service: %w", err)
	}

	sheetName := cfg.SheetName
	if sheetName == "" {
		sheetName = DefaultSheet
	}

	return &SheetsSource{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     sheetName,
		logger:        logger,
	}, nil
}

// Fetch downloads the sheet and parses it into observations
func (s *SheetsSource) Fetch(ctx context.Context) ([]camels.Observation, error) {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.sheetName).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("SERIAL_NUMBER").
		Context(ctx).
		Do()
	if err != nil {
		return nil, errors.NewNetworkError(fmt.Sprintf("failed to read sheet %q", s.sheetName), err).
			WithContext("sheet", s.sheetName)
	}

	s.logger.InfoContext(ctx, "Fetched institution sheet",
		slog.String("spreadsheet_id", s.spreadsheetID),
		slog.String("sheet_name", s.sheetName),
		slog.Int("rows", len(resp.Values)))

	return ParseRows(stringCells(resp.Values))
}

// stringCells flattens the loosely typed values returned by the Sheets API
func stringCells(values [][]interface{}) [][]string {
	rows := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, v := range row {
			switch x := v.(type) {
			case nil:
			case string:
				cells[j] = x
			case float64:
				cells[j] = strconv.FormatFloat(x, 'f', -1, 64)
			case bool:
				cells[j] = strconv.FormatBool(x)
			default:
				cells[j] = fmt.Sprint(x)
			}
		}
		rows[i] = cells
	}
	return rows
}
