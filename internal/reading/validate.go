package reading

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Validation failure kinds. Use errors.Is against a *ValidationError.
var (
	ErrMissingField    = errors.New("missing field")
	ErrOutOfRange      = errors.New("value out of range")
	ErrInvalidRelation = errors.New("systolic below diastolic")
)

// Field names used in validation errors.
const (
	FieldSystolic  = "systolic"
	FieldDiastolic = "diastolic"
	FieldPulse     = "pulse"
)

// ValidationError describes the first rule a candidate reading broke.
type ValidationError struct {
	Kind  error
	Field string
	Value int
	Min   int
	Max   int
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case ErrMissingField:
		return "Both systolic and diastolic values are required"
	case ErrOutOfRange:
		if e.Field == FieldPulse {
			return fmt.Sprintf("Please enter a valid pulse value (%d-%d) or leave it empty", e.Min, e.Max)
		}
		return fmt.Sprintf("Please enter a valid %s value (%d-%d)", e.Field, e.Min, e.Max)
	case ErrInvalidRelation:
		return "Systolic value must be higher than diastolic value"
	default:
		return "invalid reading"
	}
}

// Unwrap exposes the failure kind.
func (e *ValidationError) Unwrap() error {
	return e.Kind
}

// IsValidationError reports whether err carries a ValidationError.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// Input is a candidate reading as submitted by a user. Nil pointers are
// fields that were left empty.
type Input struct {
	Systolic  *int   `json:"systolic"`
	Diastolic *int   `json:"diastolic"`
	Pulse     *int   `json:"pulse,omitempty"`
	Notes     string `json:"notes,omitempty"`
	Category  string `json:"category,omitempty"`
	// TakenAt backdates the reading. Nil records it at the current time.
	TakenAt *time.Time `json:"takenAt,omitempty"`
}

// Validate checks the candidate and returns the first violated rule, or nil.
// Checks run in a fixed order: presence, systolic range, diastolic range,
// pulse range, then systolic >= diastolic. Equal values are accepted.
func (in Input) Validate() error {
	if in.Systolic == nil {
		return &ValidationError{Kind: ErrMissingField, Field: FieldSystolic}
	}
	if in.Diastolic == nil {
		return &ValidationError{Kind: ErrMissingField, Field: FieldDiastolic}
	}
	if err := checkRange(FieldSystolic, *in.Systolic, MinSystolic, MaxSystolic); err != nil {
		return err
	}
	if err := checkRange(FieldDiastolic, *in.Diastolic, MinDiastolic, MaxDiastolic); err != nil {
		return err
	}
	if in.Pulse != nil {
		if err := checkRange(FieldPulse, *in.Pulse, MinPulse, MaxPulse); err != nil {
			return err
		}
	}
	if *in.Systolic < *in.Diastolic {
		return &ValidationError{Kind: ErrInvalidRelation, Field: FieldSystolic, Value: *in.Systolic}
	}
	return nil
}

// Entry validates the candidate and converts it into an Entry ready for storage.
func (in Input) Entry() (Entry, error) {
	if err := in.Validate(); err != nil {
		return Entry{}, err
	}
	entry := Entry{
		Systolic:  *in.Systolic,
		Diastolic: *in.Diastolic,
		Pulse:     clonePulse(in.Pulse),
		Notes:     strings.TrimSpace(in.Notes),
		Category:  strings.TrimSpace(in.Category),
	}
	if in.TakenAt != nil {
		entry.TakenAt = *in.TakenAt
	}
	return entry, nil
}

func checkRange(field string, v, lo, hi int) error {
	if v < lo || v > hi {
		return &ValidationError{Kind: ErrOutOfRange, Field: field, Value: v, Min: lo, Max: hi}
	}
	return nil
}
