package services

import "errors"

// Rating service errors
var (
	// Input errors
	ErrUnsupportedUpload = errors.New("unsupported upload format")
	ErrEmptyUpload       = errors.New("uploaded file is empty")
	ErrUnsupportedExport = errors.New("unsupported export format")

	// Source errors
	ErrSourceUnavailable = errors.New("no spreadsheet source configured")

	// General errors
	ErrOperationTimeout   = errors.New("operation timed out")
	ErrServiceUnavailable = errors.New("service temporarily unavailable")
)
