// Package validation adapts go-playground/validator to Echo and renders
// per-field messages keyed by JSON path (e.g. "address.street").
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"sales-service/internal/apperror"

	"github.com/go-playground/validator/v10"
)

// Validator implements echo.Validator
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator that reports fields by their json names
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

// Validate checks i against its `validate` tags and returns an
// *apperror.Error of kind validation on failure
func (v *Validator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.Internal("An unexpected error occurred.", err)
	}

	fields := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		key := fieldKey(fe.Namespace())
		fields[key] = append(fields[key], message(fe, displayName(key)))
	}
	return apperror.Validation(fields)
}

// fieldKey drops the root struct name from a namespace like "Request.address.city"
func fieldKey(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func displayName(key string) string {
	return strings.ReplaceAll(key, "_", " ")
}

func message(fe validator.FieldError, name string) string {
	numeric := isNumeric(fe.Kind())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", name)
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", name)
	case "max":
		if numeric {
			return fmt.Sprintf("The %s field must not be greater than %s.", name, fe.Param())
		}
		return fmt.Sprintf("The %s field must not be greater than %s characters.", name, fe.Param())
	case "min":
		if !numeric && fe.Param() == "1" {
			return fmt.Sprintf("The %s field must have a value.", name)
		}
		if numeric {
			return fmt.Sprintf("The %s field must be at least %s.", name, fe.Param())
		}
		return fmt.Sprintf("The %s field must be at least %s characters.", name, fe.Param())
	case "len":
		return fmt.Sprintf("The %s field must be %s characters.", name, fe.Param())
	case "gte":
		return fmt.Sprintf("The %s field must be greater than or equal to %s.", name, fe.Param())
	case "gt":
		return fmt.Sprintf("The %s field must be greater than %s.", name, fe.Param())
	case "alpha":
		return fmt.Sprintf("The %s field must only contain letters.", name)
	case "numeric":
		return fmt.Sprintf("The %s field must be a number.", name)
	case "eqfield":
		return fmt.Sprintf("The %s does not match.", name)
	default:
		return fmt.Sprintf("The %s field is invalid.", name)
	}
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
