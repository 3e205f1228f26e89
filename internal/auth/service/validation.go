package service

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/AlibekovAA/credential-service/internal/common/constants"
	commonerrors "github.com/AlibekovAA/credential-service/internal/common/errors"
)

const (
	msgInvalidValue     = "Invalid value"
	msgPasswordTooShort = "Password must be at least 5 characters long"
	msgPasswordTooLong  = "Password must be at most 72 bytes long"
)

type registerFields struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"min=3"`
	Password string `json:"password" validate:"min=5,bcryptlen"`
}

type loginFields struct {
	Username string `json:"username" validate:"min=3"`
	Password string `json:"password" validate:"min=5,bcryptlen"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// bcrypt ignores input past 72 bytes
	_ = v.RegisterValidation("bcryptlen", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= constants.PasswordMaxBytes
	})

	return v
}

// validateInput runs struct validation and converts failures into a
// ValidationError listing every rejected field.
func validateInput(input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return newUnexpectedError(err)
	}

	fields := make([]commonerrors.FieldError, 0, len(validationErrs))
	for _, fe := range validationErrs {
		fields = append(fields, commonerrors.FieldError{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
		})
	}
	return commonerrors.NewValidationError(ErrInvalidInput, fields)
}

func fieldMessage(fe validator.FieldError) string {
	if fe.Field() == "password" {
		switch fe.Tag() {
		case "min":
			return msgPasswordTooShort
		case "bcryptlen":
			return msgPasswordTooLong
		}
	}
	return msgInvalidValue
}

// validateRegister trims every field the same way validateLogin does, so a
// credential that registers is one that can log in. The returned input
// carries the normalized email.
func validateRegister(input RegisterInput) (RegisterInput, error) {
	fields := registerFields{
		Email:    strings.TrimSpace(input.Email),
		Username: strings.TrimSpace(input.Username),
		Password: strings.TrimSpace(input.Password),
	}
	if err := validateInput(fields); err != nil {
		return RegisterInput{}, err
	}

	email := NormalizeEmail(fields.Email)
	if email == "" {
		return RegisterInput{}, commonerrors.NewValidationError(ErrInvalidInput, []commonerrors.FieldError{
			{Field: "email", Message: msgInvalidValue},
		})
	}
	return RegisterInput{Email: email, Username: fields.Username, Password: fields.Password}, nil
}

func validateLogin(input LoginInput) (LoginInput, error) {
	sanitized := LoginInput{
		Username: strings.TrimSpace(input.Username),
		Password: strings.TrimSpace(input.Password),
	}
	if err := validateInput(loginFields(sanitized)); err != nil {
		return LoginInput{}, err
	}
	return sanitized, nil
}
