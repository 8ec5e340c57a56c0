// Package validator wraps go-playground validation for transport DTOs.
package validator

import (
	"github.com/go-playground/validator/v10"
	"github.com/nyaruka/phonenumbers"
)

// Validator validates request structs against their validate tags.
type Validator struct {
	v *validator.Validate
}

// New builds a Validator with the CRM's custom rules registered.
func New() *Validator {
	v := validator.New()
	// waphone accepts anything phonenumbers can parse into a real number,
	// defaulting to the Indonesian region like the rest of the pipeline.
	_ = v.RegisterValidation("waphone", func(fl validator.FieldLevel) bool {
		number, err := phonenumbers.Parse(fl.Field().String(), "ID")
		if err != nil {
			return false
		}
		return phonenumbers.IsValidNumber(number)
	})
	return &Validator{v: v}
}

// Struct validates a struct based on its validate tags.
func (val *Validator) Struct(s interface{}) error {
	return val.v.Struct(s)
}

// Var validates a single value against a tag expression.
func (val *Validator) Var(field interface{}, tag string) error {
	return val.v.Var(field, tag)
}

// RegisterValidation adds a custom rule under the given tag.
func (val *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return val.v.RegisterValidation(tag, fn)
}
