package dosing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/giygas/anesdose/catalog"
)

var (
	// ErrInvalidInput marks a single dose field that could not be computed.
	ErrInvalidInput = errors.New("invalid input")
	// ErrValidation marks a patient profile rejected before any computation.
	ErrValidation = errors.New("invalid patient profile")
)

// FieldError reports why one dose field of one drug was skipped.
type FieldError struct {
	Drug      string           `json:"drug"`
	Kind      catalog.RuleKind `json:"kind"`
	Covariate string           `json:"covariate"`
	Reason    string           `json:"reason"`
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s %s: %s %s", e.Drug, e.Kind, e.Covariate, e.Reason)
}

func (e *FieldError) Unwrap() error {
	return ErrInvalidInput
}

// Violation is one failed profile constraint.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every constraint a profile failed.
type ValidationError struct {
	Violations []Violation `json:"violations"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Field + " " + v.Message
	}
	return "invalid patient profile: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Add records a violation.
func (e *ValidationError) Add(field, message string) {
	e.Violations = append(e.Violations, Violation{Field: field, Message: message})
}

// Has reports whether field already has a violation.
func (e *ValidationError) Has(field string) bool {
	for _, v := range e.Violations {
		if v.Field == field {
			return true
		}
	}
	return false
}

// ErrOrNil returns e as an error, or nil when nothing was recorded.
func (e *ValidationError) ErrOrNil() error {
	if e == nil || len(e.Violations) == 0 {
		return nil
	}
	return e
}
