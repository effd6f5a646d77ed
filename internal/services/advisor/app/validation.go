package app

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/LeonardoBeccarini/eco_crop_advisor/internal/model/entities"
)

const codeValidation = "VALIDATION_ERROR"

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
			switch fl.Field().Kind() {
			case reflect.Float32, reflect.Float64:
				f := fl.Field().Float()
				return !math.IsNaN(f) && !math.IsInf(f, 0)
			default:
				return false
			}
		})
		_ = v.RegisterValidation("soil_type", func(fl validator.FieldLevel) bool {
			return entities.SoilType(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("crop_type", func(fl validator.FieldLevel) bool {
			return entities.CropType(fl.Field().String()).Valid()
		})
		validate = v
	})
	return validate
}

type fieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// validateRequest returns nil or a VALIDATION_ERROR listing every bad field.
func validateRequest(v any) *APIError {
	err := getValidator().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &APIError{Code: codeValidation, Message: err.Error()}
	}
	fields := make([]fieldError, 0, len(verrs))
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		m := fieldMessage(fe)
		fields = append(fields, fieldError{Field: fe.Field(), Tag: fe.Tag(), Message: m})
		msgs = append(msgs, m)
	}
	return &APIError{
		Code:    codeValidation,
		Message: strings.Join(msgs, "; "),
		Details: map[string]any{"fields": fields},
	}
}

func fieldMessage(fe validator.FieldError) string {
	f := fe.Field()
	switch fe.Tag() {
	case "required":
		return f + " is required"
	case "finite":
		return f + " must be a finite number"
	case "soil_type":
		return fmt.Sprintf("%s must be one of %v", f, entities.SoilTypes)
	case "crop_type":
		return fmt.Sprintf("%s must be one of %v", f, entities.CropTypes)
	case "min":
		return fmt.Sprintf("%s must be at least %s", f, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", f, fe.Param())
	case "latitude", "longitude":
		return f + " must be a valid " + fe.Tag()
	default:
		return fmt.Sprintf("%s failed %s validation", f, fe.Tag())
	}
}
