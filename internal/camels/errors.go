package camels

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when observations fail schema validation
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidScheme is returned when thresholds or weights are inconsistent
	ErrInvalidScheme = errors.New("invalid rating scheme")
	// ErrNoObservations is returned when a run receives no rows
	ErrNoObservations = errors.New("no observations")
	// ErrDateNotFound is returned when a benchmark date has no rows
	ErrDateNotFound = errors.New("date not found")
)

// ValidationError describes a single invalid field
type ValidationError struct {
	Row     int         `json:"row,omitempty"` // 1-based input row, 0 when not row-bound
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Error implements the error interface
func (ve *ValidationError) Error() string {
	if ve.Row > 0 {
		return fmt.Sprintf("row %d: %s: %s", ve.Row, ve.Field, ve.Message)
	}
	return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
}
