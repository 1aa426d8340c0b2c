package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their form name so messages line up with the inputs
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// validateStruct runs tag validation and collects one message per field
func validateStruct(s interface{}, errs ValidationErrors) {
	err := validate.Struct(s)
	if err == nil {
		return
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		errs.Add("_", "Invalid input")
		return
	}
	for _, fe := range ve {
		errs.Add(fe.Field(), fieldMessage(fe))
	}
}

func fieldMessage(fe validator.FieldError) string {
	label := strings.ReplaceAll(fe.Field(), "_", " ")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", label)
	case "email":
		return "Invalid email address"
	case "max":
		return fmt.Sprintf("%s is too long", label)
	case "min":
		return fmt.Sprintf("%s is too short", label)
	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}
