// Package validator provides validation infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package validator

import (
	"fmt"
	"strings"

	"carmarket_backend/platform/apperr"

	"github.com/go-playground/validator/v10"
)

var urgencies = map[string]struct{}{"hot": {}, "warm": {}, "cold": {}}

// Validator wraps the go-playground validator for structured validation.
type Validator struct {
	v *validator.Validate
}

// New creates a Validator with the urgency tag registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("urgency", enumTag(func(value string) bool {
		_, ok := urgencies[value]
		return ok
	}))
	return &Validator{v: v}
}

// enumTag matches the trimmed, lower-cased value; empty values pass so the
// tag composes with omitempty and required.
func enumTag(valid func(string) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value := strings.ToLower(strings.TrimSpace(fl.Field().String()))
		if value == "" {
			return true
		}
		return valid(value)
	}
}

// Struct validates a struct based on validation tags and returns an
// apperr validation error naming the failing fields.
func (val *Validator) Struct(s interface{}) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperr.Wrap(apperr.KindBadRequest, "invalid request", err)
	}

	details := make(map[string]string, len(fieldErrs))
	names := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fe.Field()] = describe(fe)
		names = append(names, fe.Field())
	}
	return apperr.Validation("invalid request: " + strings.Join(names, ", ")).WithDetails(details)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "uuid", "uuid4":
		return "must be a UUID"
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
