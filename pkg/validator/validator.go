package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Violation is a single field-level validation failure.
type Violation struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError is the structured report returned when a payload is rejected.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, fmt.Sprintf("field '%s' %s", v.Field, v.Message))
	}
	return strings.Join(msgs, "; ")
}

// Fields returns a map of field names to error messages.
func (e *ValidationError) Fields() map[string]string {
	fields := make(map[string]string, len(e.Violations))
	for _, v := range e.Violations {
		fields[v.Field] = v.Message
	}
	return fields
}

// Has reports whether any violation names the given field.
func (e *ValidationError) Has(field string) bool {
	for _, v := range e.Violations {
		if v.Field == field {
			return true
		}
	}
	return false
}

// Validate checks payload against schema. It returns nil or a *ValidationError.
func Validate(schema Schema, payload map[string]any) error {
	if payload == nil {
		payload = map[string]any{}
	}
	if violations := schema.check("", payload); len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

// Decode validates payload against schema and, on success, decodes it into dst
// using the json struct tags of dst.
func Decode(schema Schema, payload map[string]any, dst any) error {
	if err := Validate(schema, payload); err != nil {
		return err
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           dst,
		WeaklyTypedInput: false,
	})
	if err != nil {
		return fmt.Errorf("build %s decoder: %w", schema.Name, err)
	}
	if err := dec.Decode(payload); err != nil {
		return fmt.Errorf("decode %s: %w", schema.Name, err)
	}
	return nil
}

// ReadPayload decodes a JSON object from r into an untyped map. A body that is
// not a JSON object is rejected with a non-validation error.
func ReadPayload(r io.Reader) (map[string]any, error) {
	var payload map[string]any
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode request body: %w", err)
	}
	if payload == nil {
		return nil, errors.New("decode request body: expected a JSON object")
	}
	return payload, nil
}

// Struct validates a struct using go-playground/validator tags and reports
// failures in the same shape as schema validation.
func Struct(s any) error {
	if err := validate.Struct(s); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			violations := make([]Violation, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				violations = append(violations, Violation{
					Field:   fe.Field(),
					Rule:    fe.Tag(),
					Message: msgForTag(fe),
				})
			}
			return &ValidationError{Violations: violations}
		}
		return err
	}
	return nil
}

func msgForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "url":
		return "must be a valid URL"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed on '%s' validation", fe.Tag())
	}
}
