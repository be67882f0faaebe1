// Package validate wraps go-playground/validator with the field naming and
// messages both API surfaces report.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError describes one failed input rule.
type FieldError struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

// Validator checks struct tags. Field names are taken from the json tag.
type Validator struct{ v *validator.Validate }

// New returns a ready Validator.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{v: v}
}

// Validate checks i; it also satisfies echo.Validator.
func (cv *Validator) Validate(i any) error { return cv.v.Struct(i) }

// Fields extracts per-field failures from err. ok is false when err did not
// come from a validation run.
func Fields(err error) (out []FieldError, ok bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, false
	}
	out = make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Msg: ruleMessage(fe)})
	}
	return out, true
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "uuid", "uuid4":
		return "must be a valid id"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	}
	return fmt.Sprintf("failed %q rule", fe.Tag())
}
