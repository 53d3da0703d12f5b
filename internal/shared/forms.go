package shared

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// NewValidator returns a validator that reports fields by their `form` tag.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return strings.ToLower(fld.Name)
		}
		return name
	})
	return v
}

// ValidationError carries per-field messages of an invalid form.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "invalid form: " + strings.Join(keys, ", ")
}

// Validate runs v on form and wraps failures in a ValidationError.
func Validate(v *validator.Validate, form any) error {
	if err := v.Struct(form); err != nil {
		return &ValidationError{Fields: FieldErrors(err)}
	}
	return nil
}

// FieldErrors flattens validation errors into form field → message. Errors
// that are not validation errors end up under the "general" key.
func FieldErrors(err error) map[string]string {
	out := make(map[string]string)
	if err == nil {
		return out
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["general"] = err.Error()
		return out
	}
	for _, fe := range verrs {
		if _, exists := out[fe.Field()]; exists {
			continue
		}
		out[fe.Field()] = fieldMessage(fe)
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Toto pole je povinné."
	case "email":
		return "Zadejte platný e-mail."
	case "min":
		return "Hodnota je příliš krátká (minimum " + fe.Param() + ")."
	case "max":
		return "Hodnota je příliš dlouhá (maximum " + fe.Param() + ")."
	case "eqfield":
		return "Hesla se neshodují."
	case "oneof":
		return "Neplatná volba."
	case "gte":
		return "Hodnota nesmí být menší než " + fe.Param() + "."
	default:
		return "Neplatná hodnota."
	}
}
