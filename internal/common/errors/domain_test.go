package commonerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError_WithCauseKeepsIdentity(t *testing.T) {
	cause := errors.New("connection refused")
	err := ErrInternalError.WithCause(cause)

	assert.ErrorIs(t, err, ErrInternalError)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrInvalidToken)
	assert.Equal(t, "Internal server error: connection refused", err.Error())
	assert.Equal(t, "Internal server error", err.Message())
}

func TestAsDomainError_ThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("login: %w", ErrInvalidToken)

	de, ok := AsDomainError(wrapped)
	require.True(t, ok)
	assert.Equal(t, "INVALID_TOKEN", de.Code())
	assert.Equal(t, http.StatusUnauthorized, de.HTTPStatus())
	assert.Equal(t, CategoryUnauthorized, de.Category())

	_, ok = AsDomainError(errors.New("plain"))
	assert.False(t, ok)
}

func TestValidationError(t *testing.T) {
	base := NewDomainError("VALIDATION_FAILED", CategoryValidation, http.StatusBadRequest, "validation failed")
	err := error(NewValidationError(base, []FieldError{
		{Field: "email", Message: "Invalid value"},
		{Field: "password", Message: "too short"},
	}))

	assert.ErrorIs(t, err, base)
	assert.Equal(t, "validation failed: email: Invalid value; password: too short", err.Error())

	ve, ok := AsValidationError(fmt.Errorf("register: %w", err))
	require.True(t, ok)
	assert.Len(t, ve.Fields, 2)

	de, ok := AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, de.HTTPStatus())
}
