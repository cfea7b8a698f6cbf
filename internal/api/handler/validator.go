package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pricewatch/console-auth/internal/core/domain"
)

// requestValidator checks request payloads against the same actor rules the
// domain enforces, so bad input is rejected before a use case runs.
type requestValidator struct {
	v *validator.Validate
}

// NewValidator returns the validator assigned to echo.Echo.Validator.
func NewValidator() *requestValidator {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)
	mustRegister(v, "actor_kind", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseActorKind(fl.Field().String())
		return err == nil
	})
	mustRegister(v, "username", func(fl validator.FieldLevel) bool {
		return domain.ValidUsername(fl.Field().String())
	})
	return &requestValidator{v: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("handler: register %s validation: %v", tag, err))
	}
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "" || name == "-" {
		return strings.ToLower(f.Name)
	}
	return name
}

// Validate reports every failing field in one ErrValidation.
func (rv *requestValidator) Validate(i any) error {
	err := rv.v.Struct(i)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "actor_kind":
		return fmt.Sprintf("%s must be %q or %q", field, domain.KindAdmin, domain.KindOperative)
	case "username":
		return field + " must be 3-32 letters, digits, '_', '.' or '-'"
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}
