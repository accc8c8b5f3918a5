package common

import (
	"errors"
	"fmt"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/joseph-ayodele/pantry-tracker/constants"
)

// ValidationError represents a single field failure
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s' with value '%v': %s", e.Field, e.Value, e.Message)
}

// NewValidator returns a validator with the pantry-specific tags registered:
// "category" (canonical pantry category), "unit" (known unit) and "role" (chat role).
func NewValidator() *validatorv10.Validate {
	v := validatorv10.New()

	_ = v.RegisterValidation("category", func(fl validatorv10.FieldLevel) bool {
		s := fl.Field().String()
		for _, c := range constants.AsStringSlice() {
			if s == c {
				return true
			}
		}
		return false
	})
	_ = v.RegisterValidation("unit", func(fl validatorv10.FieldLevel) bool {
		_, ok := constants.ParseUnit(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("role", func(fl validatorv10.FieldLevel) bool {
		return constants.MessageRole(fl.Field().String()).Valid()
	})
	return v
}

// ValidateStruct runs v against s and converts failures into an AppError wrapping ErrValidation.
func ValidateStruct(v *validatorv10.Validate, s interface{}) error {
	if err := v.Struct(s); err != nil {
		return NewAppError("VALIDATION_ERROR", joinMessages(FieldErrors(err)), ErrValidation)
	}
	return nil
}

// FieldErrors flattens validator output into ValidationError values.
func FieldErrors(err error) []ValidationError {
	var ve validatorv10.ValidationErrors
	if !errors.As(err, &ve) {
		return []ValidationError{{Field: "", Value: nil, Message: err.Error()}}
	}
	out := make([]ValidationError, 0, len(ve))
	for _, fe := range ve {
		msg := "failed '" + fe.Tag() + "'"
		if fe.Param() != "" {
			msg += " (" + fe.Param() + ")"
		}
		out = append(out, ValidationError{Field: fe.StructNamespace(), Value: fe.Value(), Message: msg})
	}
	return out
}

// ValidationErrorsToMap renders validator failures keyed by field for API responses.
func ValidationErrorsToMap(err error) map[string]string {
	out := map[string]string{}
	for _, fe := range FieldErrors(err) {
		key := fe.Field
		if key == "" {
			key = "error"
		}
		out[key] = fe.Message
	}
	return out
}

func joinMessages(errs []ValidationError) string {
	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		messages = append(messages, e.Error())
	}
	return strings.Join(messages, "; ")
}
