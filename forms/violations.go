package forms

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"upbilling/models"
)

// Violation codes rendered next to the offending field.
const (
	CodeRequired      = "required"
	CodeOutOfRange    = "out_of_range"
	CodeInvalidChoice = "invalid_choice"
	CodeInvalidNumber = "invalid_number"
	CodeTooLong       = "too_long"
	CodeInvalidEmail  = "invalid_email"
)

// Violations maps a form field name to its violation code.
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Add keeps the first violation recorded for a field.
func (v Violations) Add(field, code string) {
	if _, ok := v[field]; !ok {
		v[field] = code
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("invoice_state", func(fl validator.FieldLevel) bool {
		return models.InvoiceStateExists(fl.Field().String())
	})
	return v
}

// check runs struct validation and folds the errors into v.
func check(s any, v Violations) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	for _, fe := range fieldErrs {
		v.Add(fieldName(fe.Namespace()), codeFor(fe.Tag()))
	}
	return nil
}

// Check validates a decoded request body and returns its violations.
func Check(s any) (Violations, error) {
	v := Violations{}
	if err := check(s, v); err != nil {
		return nil, err
	}
	return v, nil
}

func codeFor(tag string) string {
	switch tag {
	case "required":
		return CodeRequired
	case "numeric", "number":
		return CodeInvalidNumber
	case "oneof", "invoice_state":
		return CodeInvalidChoice
	case "max":
		return CodeTooLong
	case "email":
		return CodeInvalidEmail
	default:
		return CodeOutOfRange
	}
}

// fieldName turns a validator namespace such as "QuoteForm.sections[0].items[1].label"
// into the posted field name "sections[0][items][1][label]".
func fieldName(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	var b strings.Builder
	b.WriteString(parts[0])
	for _, p := range parts[1:] {
		name, index, _ := strings.Cut(p, "[")
		b.WriteString("[" + name + "]")
		if index != "" {
			b.WriteString("[" + index)
		}
	}
	return b.String()
}
