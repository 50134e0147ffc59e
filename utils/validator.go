package utils

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator. Besides the built-in tags it knows
// "nosep", which rejects values containing the logical name separator.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		_ = validate.RegisterValidation("nosep", func(fl validator.FieldLevel) bool {
			return !strings.Contains(fl.Field().String(), LogicalNameSeparator)
		})
	})
	return validate
}

// ValidateStruct runs struct tags and converts the first failure into a
// BadRequest that names the field.
func ValidateStruct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return NewBadRequest(fe.Field() + " " + validationMessage(fe))
	}
	return NewBadRequest(err.Error())
}

func ProcessValidationErrors(err error) map[string]string {
	errorResponse := make(map[string]string)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errorResponse
	}
	for _, fe := range verrs {
		errorResponse[fe.Field()] = validationMessage(fe)
	}
	return errorResponse
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "nosep":
		return "must not contain " + LogicalNameSeparator
	case "max":
		return "must be at most " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "uuid":
		return "must be a valid id"
	case "oneof":
		return "must be one of " + fe.Param()
	}
	return "is invalid"
}
