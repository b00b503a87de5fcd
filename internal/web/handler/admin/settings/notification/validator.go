package notification

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// ErrorResponse describes one failed form field.
type ErrorResponse struct {
	FailedField string
	Tag         string
	Value       interface{}
}

// Message returns a line suitable for the form error list.
func (e ErrorResponse) Message() string {
	return "Field '" + e.FailedField + "' failed validation tag '" + e.Tag + "'"
}

var validate = validator.New()

// Validate checks the form and returns one entry per failed field.
func Validate(data interface{}) []ErrorResponse {
	var (
		out              []ErrorResponse
		validationErrors validator.ValidationErrors
	)

	if !errors.As(validate.Struct(data), &validationErrors) {
		return nil
	}

	for _, err := range validationErrors {
		out = append(out, ErrorResponse{
			FailedField: err.Field(),
			Tag:         err.Tag(),
			Value:       err.Value(),
		})
	}

	return out
}
