package auth

import (
	"testing"

	passwords "github.com/pyneda/stapi/lib/auth"
	"github.com/stretchr/testify/assert"
)

func TestLoginFormValidate(t *testing.T) {
	tests := []struct {
		name    string
		form    LoginForm
		wantErr bool
	}{
		{"username", LoginForm{Username: "alice", Password: "x"}, false},
		{"email", LoginForm{Email: "alice@example.com", Password: "x"}, false},
		{"neither", LoginForm{Password: "x"}, true},
		{"bad email", LoginForm{Email: "alice", Password: "x"}, true},
		{"no password", LoginForm{Username: "alice"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.form.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRegisterFormValidate(t *testing.T) {
	valid := RegisterForm{
		Username: "bob", FirstName: "Bob", LastName: "B",
		Email: "bob@example.com", Password: "hunter22", ConfirmPassword: "hunter22",
	}
	assert.NoError(t, valid.Validate())

	mismatch := valid
	mismatch.ConfirmPassword = "hunter23"
	assert.ErrorIs(t, mismatch.Validate(), ErrPasswordMismatch)

	weak := valid
	weak.Password, weak.ConfirmPassword = "abcdefgh", "abcdefgh"
	assert.ErrorIs(t, weak.Validate(), passwords.ErrMissingLetterOrNumber)

	short := valid
	short.Password, short.ConfirmPassword = "ab1", "ab1"
	assert.ErrorIs(t, short.Validate(), passwords.ErrPasswordTooShort)

	missing := valid
	missing.FirstName = ""
	assert.ErrorContains(t, missing.Validate(), "FirstName is required")

	reg := valid.Registration()
	assert.Equal(t, "hunter22", reg.Password1)
	assert.Equal(t, "hunter22", reg.Password2)
}
