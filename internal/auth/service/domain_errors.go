package service

import (
	"net/http"

	commonerrors "github.com/AlibekovAA/credential-service/internal/common/errors"
)

var (
	ErrInvalidInput = commonerrors.NewDomainError(
		"VALIDATION_FAILED",
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		"validation failed",
	)

	ErrDuplicateIdentity = commonerrors.NewDomainError(
		"DUPLICATE_IDENTITY",
		commonerrors.CategoryConflict,
		http.StatusConflict,
		"Email or username already exists",
	)

	// ErrInvalidCredentials is returned for both an unknown username and a
	// wrong password.
	ErrInvalidCredentials = commonerrors.NewDomainError(
		"INVALID_CREDENTIALS",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"Invalid credentials",
	)

	ErrConfiguration = commonerrors.NewDomainError(
		"CONFIGURATION_ERROR",
		commonerrors.CategoryInternal,
		http.StatusInternalServerError,
		"Internal server error",
	)

	ErrUnexpected = commonerrors.NewDomainError(
		"UNEXPECTED_ERROR",
		commonerrors.CategoryInternal,
		http.StatusInternalServerError,
		"Internal server error",
	)

	ErrInvalidToken = commonerrors.NewDomainError(
		"INVALID_TOKEN",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"invalid or expired token",
	)
)

func newUnexpectedError(cause error) error {
	if cause == nil {
		return ErrUnexpected
	}
	return ErrUnexpected.WithCause(cause)
}
