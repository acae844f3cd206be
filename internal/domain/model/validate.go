package model

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/brokerdesk/admin-console/internal/errors"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate

	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)
)

// structValidator returns the shared validator. Field names in errors use the
// `form` tag so messages line up with the HTML inputs.
func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		err := validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return usernamePattern.MatchString(fl.Field().String())
		})
		if err != nil {
			panic(fmt.Sprintf("model: register username validation: %v", err))
		}
	})
	return validate
}

// FieldError is a single rejected form field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError collects every rejected field of one request, in order.
// It unwraps to a validation AppError for the first field so callers can
// use apperrors.IsValidation and apperrors.UserMessage.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return strings.Join(msgs, "; ")
}

// Unwrap exposes the first field as an AppError.
func (e *ValidationError) Unwrap() error {
	if len(e.Fields) == 0 {
		return apperrors.Validation("invalid input")
	}
	return apperrors.ValidationField(e.Fields[0].Field, e.Fields[0].Message)
}

// Map returns field -> message, keeping the first message per field.
func (e *ValidationError) Map() map[string]string {
	out := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		if _, ok := out[f.Field]; !ok {
			out[f.Field] = f.Message
		}
	}
	return out
}

func (e *ValidationError) add(field, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: msg})
}

func (e *ValidationError) orNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// checkStruct runs tag validation and appends friendly messages to ve.
func checkStruct(ve *ValidationError, v any) {
	err := structValidator().Struct(v)
	if err == nil {
		return
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		ve.add("", err.Error())
		return
	}
	for _, fe := range fieldErrs {
		ve.add(fe.Field(), fieldMessage(fe))
	}
}

func fieldMessage(fe validator.FieldError) string {
	label := humanize(fe.Field())
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return "Please enter a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s cannot exceed %s characters", label, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, fe.Param())
	case "username":
		return label + " may only contain letters, numbers, dots, dashes and underscores"
	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}

// humanize turns "insurerName" or "insurer_name" into "Insurer name".
func humanize(field string) string {
	if field == "" {
		return "Value"
	}
	var b strings.Builder
	for i, r := range field {
		switch {
		case r == '_' || r == '-':
			b.WriteRune(' ')
		case i > 0 && r >= 'A' && r <= 'Z':
			b.WriteRune(' ')
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteRune(r)
		}
	}
	s := b.String()
	return strings.ToUpper(s[:1]) + s[1:]
}
