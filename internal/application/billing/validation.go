package billing

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/complementos-api/internal/domain"
)

// newValidator instancia compartida por el caso de uso: nombres de campo según
// el tag json y decimal.Decimal comparable con gt/lt.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// toValidationError convierte validator.ValidationErrors en *domain.ValidationError.
func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &domain.ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		out.Fields[fe.Field()] = fieldMessage(fe)
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "es obligatorio"
	case "datetime":
		return "debe tener formato YYYY-MM-DD"
	case "gt":
		return "debe ser mayor a " + fe.Param()
	case "min":
		return "debe tener al menos " + fe.Param() + " caracteres"
	case "max":
		return "debe tener como máximo " + fe.Param() + " caracteres"
	}
	return "no es válido"
}
