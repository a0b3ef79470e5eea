package auth

import (
	"chat-app/errors"
	stderrors "errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// MinPasswordLength mirrors the hosted auth service rule.
const MinPasswordLength = 6

var validate = validator.New()

type CredentialsRequest struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6,max=128"`
}

// ValidateCredentials checks a register request and reports the first
// violation as the auth service would.
func ValidateCredentials(req CredentialsRequest) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if !stderrors.As(err, &fieldErrors) || len(fieldErrors) == 0 {
		return err
	}
	switch fieldErrors[0].Field() {
	case "Email":
		return errors.NewAuthError(errors.CodeInvalidEmail, "The email address is badly formatted")
	default:
		return errors.NewAuthError(errors.CodeWeakPassword,
			fmt.Sprintf("Password should be at least %d characters", MinPasswordLength))
	}
}

// ValidateEmail only checks the address format, as sign-in does.
func ValidateEmail(email string) error {
	if err := validate.Var(email, "required,email"); err != nil {
		return errors.NewAuthError(errors.CodeInvalidEmail, "The email address is badly formatted")
	}
	return nil
}
