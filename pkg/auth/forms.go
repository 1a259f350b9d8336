package auth

import (
	"errors"
	"strings"

	"github.com/pyneda/stapi/lib"
	passwords "github.com/pyneda/stapi/lib/auth"
	"github.com/pyneda/stapi/pkg/client"
)

// ErrPasswordMismatch is returned when the confirmation differs from the password.
var ErrPasswordMismatch = errors.New("passwords do not match")

type LoginForm struct {
	Username string `validate:"required_without=Email"`
	Email    string `validate:"omitempty,email"`
	Password string `validate:"required"`
}

func (f LoginForm) Validate() error {
	return lib.ValidateStruct(f)
}

func (f LoginForm) Credentials() client.Credentials {
	return client.Credentials{
		Username: strings.TrimSpace(f.Username),
		Email:    strings.TrimSpace(f.Email),
		Password: f.Password,
	}
}

type RegisterForm struct {
	Username        string `validate:"required,max=150"`
	FirstName       string `validate:"required"`
	LastName        string `validate:"required"`
	Email           string `validate:"required,email"`
	Password        string `validate:"required"`
	ConfirmPassword string `validate:"required"`
}

func (f RegisterForm) Validate() error {
	if err := lib.ValidateStruct(f); err != nil {
		return err
	}
	if f.Password != f.ConfirmPassword {
		return ErrPasswordMismatch
	}
	return passwords.CheckPasswordPolicy(f.Password)
}

func (f RegisterForm) Registration() client.Registration {
	return client.Registration{
		Username:  strings.TrimSpace(f.Username),
		Email:     strings.TrimSpace(f.Email),
		FirstName: strings.TrimSpace(f.FirstName),
		LastName:  strings.TrimSpace(f.LastName),
		Password1: f.Password,
		Password2: f.ConfirmPassword,
	}
}
