// Package validator wraps go-playground/validator with the JSON field names and the
// "shortcut" rule used by key binding payloads.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

const maxShortcutLength = 64

var (
	once     sync.Once
	validate *validator.Validate
)

// FieldError is one failed rule, reported under the field's JSON name.
type FieldError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Param string `json:"param"`
}

// Message renders the failure for API clients.
func (f FieldError) Message() string {
	switch f.Tag {
	case "required":
		return f.Field + " is required"
	case "email":
		return f.Field + " must be a valid email address"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", f.Field, f.Param)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", f.Field, f.Param)
	case "uuid", "uuid4":
		return f.Field + " must be a valid UUID"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", f.Field, strings.Join(strings.Fields(f.Param), ", "))
	case "shortcut":
		return f.Field + " must be a key chord such as Ctrl+Shift+W"
	}
	if f.Param == "" {
		return fmt.Sprintf("%s failed validation: %s", f.Field, f.Tag)
	}
	return fmt.Sprintf("%s failed validation: %s=%s", f.Field, f.Tag, f.Param)
}

// FieldErrors is every failed rule of one struct, in declaration order.
type FieldErrors []FieldError

func (fe FieldErrors) Error() string {
	if len(fe) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(fe))
	for i, f := range fe {
		messages[i] = f.Message()
	}
	return strings.Join(messages, "; ")
}

// ValidateStruct applies the validate tags of s. Rule failures come back as FieldErrors;
// any other error means s was not a validatable struct.
func ValidateStruct(s any) error {
	err := instance().Struct(s)
	var failures validator.ValidationErrors
	if !errors.As(err, &failures) {
		return err
	}

	out := make(FieldErrors, len(failures))
	for i, f := range failures {
		out[i] = FieldError{Field: f.Field(), Tag: f.Tag(), Param: f.Param()}
	}
	return out
}

// IsShortcut reports whether value is a key chord such as "Ctrl+Shift+W":
// one or more non-empty segments joined by '+', none containing whitespace.
func IsShortcut(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" || len(value) > maxShortcutLength {
		return false
	}
	for _, segment := range strings.Split(value, "+") {
		if segment == "" || strings.ContainsAny(segment, " \t\r\n") {
			return false
		}
	}
	return true
}

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonFieldName)
		_ = validate.RegisterValidation("shortcut", func(fl validator.FieldLevel) bool {
			return IsShortcut(fl.Field().String())
		})
	})
	return validate
}

func jsonFieldName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return field.Name
	}
	return name
}
