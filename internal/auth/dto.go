package auth

import (
	"strings"

	"github.com/frahmantamala/issue-tracker/internal"
	"github.com/frahmantamala/issue-tracker/internal/core/common/validation"
	"github.com/frahmantamala/issue-tracker/internal/user"
)

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type RegisterDTO struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Validate checks the email only. There is no password; an unknown role is
// coerced to USER rather than rejected. The check belongs to the HTTP
// boundary: Store.Login itself accepts any email and never fails on identity.
func (d LoginDTO) Validate() error {
	return validateEmail(d.Email)
}

// ParsedRole returns the requested role, USER when absent or unknown.
func (d LoginDTO) ParsedRole() user.Role {
	return user.ParseRole(d.Role)
}

func (d RegisterDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", d.Name).MaxLength(100, internal.ErrCodeValidationFailed)
	if appErr := v.Validate(internal.NewValidationError("invalid registration", internal.ErrCodeValidationFailed)); appErr != nil {
		return appErr
	}
	return validateEmail(d.Email)
}

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return internal.NewValidationFieldError("email", "email is required", internal.ErrCodeValidationFailed)
	}
	if !validation.Email(email) {
		return internal.NewValidationFieldError("email", "email must be a valid email address", internal.ErrCodeValidationFailed)
	}
	return nil
}
