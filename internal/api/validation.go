package api

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator accumulates validation errors
type Validator struct {
	errors []ValidationError
}

// NewValidator creates a new Validator
func NewValidator() *Validator {
	return &Validator{errors: make([]ValidationError, 0)}
}

// Email: simplified RFC 5322
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// AddError adds a validation error
func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, ValidationError{Field: field, Message: message})
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors
func (v *Validator) Errors() []ValidationError {
	return v.errors
}

// Err collapses all accumulated errors into a single error, or nil.
func (v *Validator) Err() error {
	if !v.HasErrors() {
		return nil
	}
	parts := make([]string, 0, len(v.errors))
	for _, e := range v.errors {
		parts = append(parts, e.Field+": "+e.Message)
	}
	return fmt.Errorf("invalid request: %s", strings.Join(parts, "; "))
}

// ValidateRequired validates that a field is not empty
func (v *Validator) ValidateRequired(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "this field is required")
	}
}

// ValidateMaxLength validates maximum string length
func (v *Validator) ValidateMaxLength(field, value string, maxLen int) {
	if len(value) > maxLen {
		v.AddError(field, fmt.Sprintf("value too long (max %d characters)", maxLen))
	}
}

// ValidateEmail validates an email address
func (v *Validator) ValidateEmail(field, value string) {
	if value == "" {
		return
	}

	if len(value) > 254 {
		v.AddError(field, "email address too long (max 254 characters)")
		return
	}

	if !emailRegex.MatchString(value) {
		v.AddError(field, "invalid email address format")
	}
}

// ParseTimestamp parses an RFC 3339 timestamp, recording an error on
// failure. An empty value is an error: callers pass timestamps only for
// parameters that must be present.
func (v *Validator) ParseTimestamp(field, value string) time.Time {
	if value == "" {
		v.AddError(field, "this field is required")
		return time.Time{}
	}

	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		v.AddError(field, "invalid timestamp (expected RFC 3339)")
		return time.Time{}
	}
	return ts
}
