// Package validation wraps go-playground/validator with the field rules
// shared by the shop and merchant request schemas.
package validation

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	phonePattern = regexp.MustCompile(`^\+?[1-9]\d{9,14}$`)
	otpPattern   = regexp.MustCompile(`^\d{6}$`)
	pinPattern   = regexp.MustCompile(`^\d{5,10}$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report errors under json field names so clients can map them to inputs.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "phone", phonePattern)
	mustRegister(v, "otp", otpPattern)
	mustRegister(v, "pincode", pinPattern)

	return v
}

func mustRegister(v *validator.Validate, tag string, pattern *regexp.Regexp) {
	err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return pattern.MatchString(fl.Field().String())
	})
	if err != nil {
		panic(err)
	}
}

// Error carries field-level validation detail. The central error handler
// renders it as a 400 VALIDATION_ERROR with the fields attached.
type Error struct {
	Fields map[string][]string
}

func (e *Error) Error() string {
	return "VALIDATION_ERROR"
}

// Struct validates a request struct and returns a *Error when any rule fails.
func Struct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	fields := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = append(fields[fe.Field()], message(fe))
	}
	return &Error{Fields: fields}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "phone":
		return "invalid phone number"
	case "otp":
		return "OTP must be 6 digits"
	case "pincode":
		return "invalid pincode"
	case "email":
		return "invalid email"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "gte":
		return "too small"
	case "gt":
		return "must be positive"
	default:
		return "invalid value"
	}
}
