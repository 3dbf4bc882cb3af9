package auth

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jrsteele09/atreader/api"
	apperrors "github.com/jrsteele09/atreader/internal/errors"
	"github.com/jrsteele09/atreader/sso"
	"github.com/pkg/errors"
)

// Validator rejects unusable input before anything reaches the network.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new Validator instance
func NewValidator() *Validator {
	return &Validator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Credentials trims identifier and returns the login body. Both fields must
// be non-blank; the password is sent as typed.
func (v *Validator) Credentials(identifier, secret string) (api.LoginRequest, error) {
	req := api.LoginRequest{
		Email:    strings.TrimSpace(identifier),
		Password: secret,
	}
	if strings.TrimSpace(req.Password) == "" {
		req.Password = ""
	}
	if err := v.validate.Struct(req); err != nil {
		var fields validator.ValidationErrors
		if errors.As(err, &fields) && len(fields) > 0 {
			return api.LoginRequest{}, errors.Wrapf(apperrors.ErrInvalidInput, "%s is required", strings.ToLower(fields[0].Field()))
		}
		return api.LoginRequest{}, errors.Wrap(apperrors.ErrInvalidInput, err.Error())
	}
	return req, nil
}

// Cookie rejects a captured cookie with no value.
func (v *Validator) Cookie(c sso.Cookie) error {
	if err := v.validate.Var(strings.TrimSpace(c.Value), "required"); err != nil {
		return errors.Wrap(apperrors.ErrInvalidInput, "login cookie is empty")
	}
	return nil
}
