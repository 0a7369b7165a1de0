// Package validation exposes field validation as a small capability so the
// services do not depend on a particular validation library.
//
// The default implementation is backed by go-playground/validator and reads
// rules from `validate` struct tags. Field names are taken from `json` tags
// so messages match what API clients send.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dmitrijs2005/todolist/internal/common"
)

// Violation is one failed constraint on one field.
type Violation struct {
	Field      string
	Constraint string
	Message    string
}

// FieldValidator validates a struct value. Violations are reported in
// struct field order. A non-nil error means validation itself could not run.
type FieldValidator interface {
	Validate(v any) ([]Violation, error)
}

type PlaygroundValidator struct {
	v *validator.Validate
}

func New() *PlaygroundValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return &PlaygroundValidator{v: v}
}

func (p *PlaygroundValidator) Validate(s any) ([]Violation, error) {
	err := p.v.Struct(s)
	if err == nil {
		return nil, nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil, err
	}

	out := make([]Violation, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, Violation{
			Field:      fe.Field(),
			Constraint: fe.Tag(),
			Message:    message(fe),
		})
	}
	return out, nil
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s should not be empty", field)
	case "max":
		return fmt.Sprintf("%s must be shorter than or equal to %s characters", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be longer than or equal to %s characters", field, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be an email", field)
	case "uuid":
		return fmt.Sprintf("%s must be a UUID", field)
	default:
		return fmt.Sprintf("%s failed on the '%s' rule", field, fe.Tag())
	}
}

// Check runs fv on v and folds the outcome into the error taxonomy:
// violations become common.ErrInvalidFields with every message joined in
// reported order, while a validator failure or a violation without a
// constraint becomes common.ErrUnknownValidationFailure.
func Check(fv FieldValidator, v any) error {
	violations, err := fv.Validate(v)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrUnknownValidationFailure, err)
	}
	if len(violations) == 0 {
		return nil
	}

	msgs := make([]string, 0, len(violations))
	for _, vl := range violations {
		if vl.Constraint == "" {
			return common.ErrUnknownValidationFailure
		}
		msgs = append(msgs, vl.Message)
	}
	return fmt.Errorf("%w: %s", common.ErrInvalidFields, strings.Join(msgs, "; "))
}
