package utils

import (
	"regexp"
	"strings"

	"github.com/adityaraj-spec/fullStack/internal/apperr"
)

const MinPasswordLength = 8

// Loose shape check only; the mailbox is never verified here.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// FieldRules collects per-field validation violations so a request gets a
// single aggregated failure listing everything wrong, evaluated before any
// store access.
type FieldRules struct {
	violations []apperr.FieldError
}

func (v *FieldRules) add(field, message string) {
	v.violations = append(v.violations, apperr.FieldError{Field: field, Message: message})
}

// Require flags the field when the value is blank.
func (v *FieldRules) Require(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.add(field, field+" is required")
	}
}

// Username applies the username format rules, skipping blank values
// (pair with Require when the field is mandatory).
func (v *FieldRules) Username(field, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	if err := ValidateUsername(value); err != nil {
		v.add(field, err.Error())
	}
}

// Email applies a loose address shape check, skipping blank values.
func (v *FieldRules) Email(field, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	if !emailRegex.MatchString(value) {
		v.add(field, "invalid email address")
	}
}

// Password enforces the minimum length, skipping blank values.
func (v *FieldRules) Password(field, value string) {
	if value == "" {
		return
	}
	if len(value) < MinPasswordLength {
		v.add(field, "Password must be at least 8 characters")
	}
}

// Err returns an aggregated *apperr.ValidationError, or nil when every rule passed.
func (v *FieldRules) Err() error {
	if len(v.violations) == 0 {
		return nil
	}
	return &apperr.ValidationError{Fields: v.violations}
}
