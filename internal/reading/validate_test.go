package reading

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func input(sys, dia int) Input {
	return Input{Systolic: IntPtr(sys), Diastolic: IntPtr(dia)}
}

func TestValidateAcceptsEveryOrderedPairInRange(t *testing.T) {
	for s := MinSystolic; s <= MaxSystolic; s++ {
		for d := MinDiastolic; d <= MaxDiastolic; d++ {
			err := input(s, d).Validate()
			if s >= d && err != nil {
				t.Fatalf("Validate(%d/%d) = %v, want nil", s, d, err)
			}
			if s < d && !errors.Is(err, ErrInvalidRelation) {
				t.Fatalf("Validate(%d/%d) = %v, want invalid relation", s, d, err)
			}
		}
	}
}

func TestValidateEqualValuesAccepted(t *testing.T) {
	assert.NoError(t, input(100, 100).Validate())
}

func TestValidateRules(t *testing.T) {
	tests := []struct {
		name  string
		in    Input
		kind  error
		field string
	}{
		{"missing systolic", Input{Diastolic: IntPtr(80)}, ErrMissingField, FieldSystolic},
		{"missing diastolic", Input{Systolic: IntPtr(120)}, ErrMissingField, FieldDiastolic},
		{"missing both", Input{}, ErrMissingField, FieldSystolic},
		{"systolic too low", input(49, 40), ErrOutOfRange, FieldSystolic},
		{"systolic too high", input(251, 80), ErrOutOfRange, FieldSystolic},
		{"diastolic too low", input(120, 29), ErrOutOfRange, FieldDiastolic},
		{"diastolic too high", input(200, 151), ErrOutOfRange, FieldDiastolic},
		{"pulse too low", Input{Systolic: IntPtr(120), Diastolic: IntPtr(80), Pulse: IntPtr(29)}, ErrOutOfRange, FieldPulse},
		{"pulse too high", Input{Systolic: IntPtr(120), Diastolic: IntPtr(80), Pulse: IntPtr(201)}, ErrOutOfRange, FieldPulse},
		{"systolic below diastolic", input(90, 100), ErrInvalidRelation, FieldSystolic},
		// range checks run before the relation check
		{"out of range and inverted", input(60, 151), ErrOutOfRange, FieldDiastolic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.kind), "got %v", err)
			assert.True(t, IsValidationError(err))

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestValidatePulseBounds(t *testing.T) {
	for _, p := range []int{MinPulse, 72, MaxPulse} {
		in := input(120, 80)
		in.Pulse = IntPtr(p)
		assert.NoError(t, in.Validate(), "pulse %d", p)
	}
}

func TestValidationErrorMessages(t *testing.T) {
	assert.Equal(t, "Both systolic and diastolic values are required", Input{}.Validate().Error())
	assert.Equal(t, "Please enter a valid systolic value (50-250)", input(300, 80).Validate().Error())
	assert.Equal(t, "Please enter a valid diastolic value (30-150)", input(120, 10).Validate().Error())
	assert.Equal(t, "Systolic value must be higher than diastolic value", input(90, 100).Validate().Error())

	in := input(120, 80)
	in.Pulse = IntPtr(5)
	assert.Equal(t, "Please enter a valid pulse value (30-200) or leave it empty", in.Validate().Error())
}

func TestInputEntry(t *testing.T) {
	in := Input{
		Systolic:  IntPtr(128),
		Diastolic: IntPtr(82),
		Pulse:     IntPtr(70),
		Notes:     "  after coffee ",
		Category:  CategoryMorning,
	}

	entry, err := in.Entry()
	require.NoError(t, err)

	assert.Equal(t, 128, entry.Systolic)
	assert.Equal(t, 82, entry.Diastolic)
	require.NotNil(t, entry.Pulse)
	assert.Equal(t, 70, *entry.Pulse)
	assert.Equal(t, "after coffee", entry.Notes)
	assert.Equal(t, CategoryMorning, entry.Category)

	assert.True(t, entry.TakenAt.IsZero(), "no time given means now")

	// The entry must not alias the caller's pulse.
	*in.Pulse = 99
	assert.Equal(t, 70, *entry.Pulse)
}

func TestInputEntryKeepsTakenAt(t *testing.T) {
	at := time.Date(2025, time.May, 2, 21, 45, 0, 0, time.UTC)
	in := input(118, 76)
	in.TakenAt = &at

	entry, err := in.Entry()
	require.NoError(t, err)
	assert.True(t, entry.TakenAt.Equal(at))
}

func TestInputEntryRejectsInvalid(t *testing.T) {
	_, err := input(80, 120).Entry()
	assert.ErrorIs(t, err, ErrInvalidRelation)
}
