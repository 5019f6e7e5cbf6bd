package handlers

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var registerOnce sync.Once

// RegisterValidators configura el validador de gin: nombres de campo según el
// tag json/form, el tag "decimals" y rechazo de campos JSON desconocidos.
func RegisterValidators() {
	registerOnce.Do(func() {
		binding.EnableDecoderDisallowUnknownFields = true

		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(fieldName)
		if err := v.RegisterValidation("decimals", maxDecimals); err != nil {
			panic(fmt.Sprintf("register decimals validator: %v", err))
		}
	})
}

func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name != "" && name != "-" {
			return name
		}
	}
	return f.Name
}

// maxDecimals valida que un número no tenga más decimales que el parámetro (decimals=2)
func maxDecimals(fl validator.FieldLevel) bool {
	places, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}

	var d decimal.Decimal
	switch fl.Field().Kind() {
	case reflect.Float32, reflect.Float64:
		d = decimal.NewFromFloat(fl.Field().Float())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	default:
		return false
	}
	return d.Exponent() >= -int32(places)
}

// FormatValidationErrors convierte los errores del validador en un mapa campo → mensaje
func FormatValidationErrors(errs validator.ValidationErrors) map[string]string {
	messages := make(map[string]string, len(errs))
	for _, err := range errs {
		field := err.Field()
		switch err.Tag() {
		case "required":
			messages[field] = fmt.Sprintf("%s is required", field)
		case "gt":
			messages[field] = fmt.Sprintf("%s must be greater than %s", field, err.Param())
		case "gte", "min":
			messages[field] = fmt.Sprintf("%s must be at least %s", field, err.Param())
		case "lte", "max":
			messages[field] = fmt.Sprintf("%s must be at most %s", field, err.Param())
		case "oneof":
			messages[field] = fmt.Sprintf("%s must be one of: %s", field, err.Param())
		case "decimals":
			messages[field] = fmt.Sprintf("%s must have at most %s decimal places", field, err.Param())
		default:
			messages[field] = fmt.Sprintf("%s failed %s validation", field, err.Tag())
		}
	}
	return messages
}
