package service

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FormError reports per-field validation failures. Nothing is persisted when
// it is returned.
type FormError struct {
	Fields map[string]string
}

func (e *FormError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

func (e *FormError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = msg
	}
}

func (e *FormError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// AsFormError unwraps err into a *FormError.
func AsFormError(err error) (*FormError, bool) {
	var fe *FormError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 \-()]{4,19}$`)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	return v
}

// formErrorFrom converts validator output into field messages keyed by the
// form field name.
func formErrorFrom(err error) *FormError {
	fe := &FormError{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fe.add("__all__", err.Error())
		return fe
	}
	for _, v := range verrs {
		fe.add(v.Field(), validationMessage(v))
	}
	return fe
}

func validationMessage(v validator.FieldError) string {
	switch v.Tag() {
	case "required", "required_if":
		return "this field is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", v.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", v.Param())
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	case "phone":
		return "must be a valid phone number"
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", v.Param())
	}
	return "invalid value"
}
