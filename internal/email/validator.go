package email

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// Validator checks an address before an account is created for it.
type Validator interface {
	Validate(email string) error
}

type formatValidator struct{}

// NewValidator returns a Validator that checks the address syntax only; it does
// not look up MX records.
func NewValidator() Validator {
	return formatValidator{}
}

func (formatValidator) Validate(email string) error {
	return validation.Validate(email,
		validation.Required,
		validation.Length(3, 254),
		is.Email,
	)
}
