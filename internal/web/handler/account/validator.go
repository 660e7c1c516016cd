package account

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// validationMessage flattens struct validation errors into one client-facing
// message, e.g. "email: required, password: min".
func validationMessage(err error) string {
	errs, ok := err.(validator.ValidationErrors) //nolint:errorlint // library returns this type directly
	if !ok {
		return "invalid request"
	}

	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		parts = append(parts, strings.ToLower(fe.Field())+": "+fe.Tag())
	}

	return strings.Join(parts, ", ")
}
