package commonerrors

import (
	"errors"
	"strings"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every rejected input field. It unwraps to the domain
// error it was built from so the HTTP layer maps it like any other
// DomainError.
type ValidationError struct {
	base   DomainError
	Fields []FieldError
}

func NewValidationError(base DomainError, fields []FieldError) *ValidationError {
	return &ValidationError{base: base, Fields: fields}
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return e.base.Message() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return e.base
}

func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
