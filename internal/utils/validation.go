package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// Validate performs validation on a struct.
func Validate(s interface{}) error {
	return validatorInstance().Struct(s)
}

// FormatValidationError formats validation errors into a readable string.
func FormatValidationError(err error) string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err.Error()
	}
	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		messages = append(messages, fieldMessage(e))
	}
	return strings.Join(messages, ", ")
}

func fieldMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", e.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", e.Field(), e.Param())
	case "gtfield":
		return fmt.Sprintf("%s must be after %s", e.Field(), e.Param())
	}
	return fmt.Sprintf("%s failed on %s", e.Field(), e.Tag())
}

// BindAndValidate binds the request body to a struct and validates it.
// If validation fails, it sends a BadRequest response and returns false.
func BindAndValidate(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		BadRequest(c, "Invalid request payload: "+err.Error())
		return false
	}
	if err := Validate(obj); err != nil {
		BadRequest(c, "Validation failed: "+FormatValidationError(err))
		return false
	}
	return true
}
