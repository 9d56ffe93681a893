package camels

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	structValidator     *validator.Validate
	structValidatorOnce sync.Once
)

func getValidator() *validator.Validate {
	structValidatorOnce.Do(func() {
		structValidator = validator.New()
		structValidator.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return structValidator
}

// ValidateObservations checks the batch contract: institution and date
// present, every defined value finite, no duplicate (institution, date).
// The first violation is returned wrapped in ErrInvalidInput.
func ValidateObservations(obs []Observation) error {
	if len(obs) == 0 {
		return ErrNoObservations
	}

	v := getValidator()
	seen := make(map[string]int, len(obs))

	for i := range obs {
		o := &obs[i]
		row := i + 1

		if err := v.Struct(o); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) && len(verrs) > 0 {
				fe := verrs[0]
				return fmt.Errorf("%w: %w", ErrInvalidInput, &ValidationError{
					Row:     row,
					Field:   fe.Field(),
					Message: fmt.Sprintf("failed %q validation", fe.Tag()),
					Value:   fe.Value(),
				})
			}
			return fmt.Errorf("%w: row %d: %w", ErrInvalidInput, row, err)
		}
		if strings.TrimSpace(o.Institution) == "" {
			return fmt.Errorf("%w: %w", ErrInvalidInput, &ValidationError{
				Row: row, Field: "institution", Message: "institution name is blank",
			})
		}

		for _, f := range Fields() {
			cell := o.Field(f)
			if cell.Valid && (math.IsNaN(cell.Float) || math.IsInf(cell.Float, 0)) {
				return fmt.Errorf("%w: %w", ErrInvalidInput, &ValidationError{
					Row: row, Field: f.String(), Message: "value is not finite", Value: cell.Float,
				})
			}
		}

		key := o.Institution + "\x00" + dateKey(o.Date).Format("2006-01-02")
		if first, dup := seen[key]; dup {
			return fmt.Errorf("%w: %w", ErrInvalidInput, &ValidationError{
				Row:     row,
				Field:   "institution",
				Message: fmt.Sprintf("duplicate observation for %s on %s (first at row %d)", o.Institution, dateKey(o.Date).Format("2006-01-02"), first),
				Value:   o.Institution,
			})
		}
		seen[key] = row
	}
	return nil
}
