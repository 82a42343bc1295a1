package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidate()

// newValidate builds a validator that reports fields by their JSON names so
// error paths match the wire documents and request bodies.
func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate runs the struct's validate tags and returns a *ValidationError
// listing every failing field.
func Validate(s any) error {
	err := validate.Struct(s)
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return &ValidationError{Errors: fieldErrs}
	}
	return err
}

// ValidationError reports failing fields by JSON path.
type ValidationError struct {
	Errors validator.ValidationErrors
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		msgs = append(msgs, fmt.Sprintf("field '%s' %s", Path(fe), describe(fe)))
	}
	return strings.Join(msgs, "; ")
}

// Fields maps each failing path to its message.
func (e *ValidationError) Fields() map[string]string {
	fields := make(map[string]string, len(e.Errors))
	for _, fe := range e.Errors {
		fields[Path(fe)] = describe(fe)
	}
	return fields
}

// First returns the path and message of the first failing field.
func (e *ValidationError) First() (path, message string) {
	if len(e.Errors) == 0 {
		return "", ""
	}
	return Path(e.Errors[0]), describe(e.Errors[0])
}

// Path returns the field's namespace without the root struct name, for
// example "products[1].id".
func Path(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

var tagMessages = map[string]func(fe validator.FieldError) string{
	"required": func(validator.FieldError) string { return "is required" },
	"url":      func(validator.FieldError) string { return "must be a valid URL" },
	"min":      func(fe validator.FieldError) string { return bound("at least", fe) },
	"max":      func(fe validator.FieldError) string { return bound("at most", fe) },
	"gte": func(fe validator.FieldError) string {
		return "must be greater than or equal to " + fe.Param()
	},
	"lte": func(fe validator.FieldError) string {
		return "must be less than or equal to " + fe.Param()
	},
	"oneof": func(fe validator.FieldError) string { return "must be one of: " + fe.Param() },
}

func describe(fe validator.FieldError) string {
	if msg, ok := tagMessages[fe.Tag()]; ok {
		return msg(fe)
	}
	return fmt.Sprintf("failed on '%s' validation", fe.Tag())
}

// bound phrases min/max by kind: entries for collections, characters for
// strings, plain values for numbers.
func bound(rel string, fe validator.FieldError) string {
	switch fe.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return fmt.Sprintf("must contain %s %s entries", rel, fe.Param())
	case reflect.String:
		return fmt.Sprintf("must be %s %s characters", rel, fe.Param())
	default:
		return fmt.Sprintf("must be %s %s", rel, fe.Param())
	}
}

// DecodeAndValidate decodes the JSON request body into dst and validates it.
// An empty body surfaces as io.EOF wrapped in the decode error.
func DecodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return Validate(dst)
}
