package contract

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type httpRequirements struct {
	Method Node `json:"method" validate:"required"`
	URL    Node `json:"url" validate:"required"`
	Status Node `json:"status" validate:"required"`
}

type messageRequirements struct {
	Source      string `json:"source" validate:"required"`
	Destination string `json:"destination" validate:"required"`
}

// checkRequired reports the first missing field of requirements as a
// MissingRequiredFieldError.
func checkRequired(kind Kind, requirements interface{}) error {
	err := validate.Struct(requirements)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		return &MissingRequiredFieldError{Kind: kind, Field: validationErrors[0].Field()}
	}
	return errors.Wrapf(err, "unable to validate %s contract", kind)
}

func validateHTTP(req Request, res Response) error {
	return checkRequired(HTTP, httpRequirements{
		Method: req.Method,
		URL:    req.URL,
		Status: res.Status,
	})
}

func validateMessage(in MessageInput, out MessageOutput) error {
	return checkRequired(Messaging, messageRequirements{
		Source:      in.Source,
		Destination: out.Destination,
	})
}
