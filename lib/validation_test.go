package lib

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleForm struct {
	Name  string `validate:"required"`
	Email string `validate:"omitempty,email"`
	Site  string `validate:"required,http_url"`
}

func TestValidateStruct(t *testing.T) {
	assert.NoError(t, ValidateStruct(sampleForm{Name: "a", Site: "https://example.com"}))

	err := ValidateStruct(sampleForm{Email: "nope", Site: "example.com"})
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Name is required", verr.Fields["Name"])
	assert.Equal(t, "Email must be a valid email address", verr.Fields["Email"])
	assert.Equal(t, "Site must be an absolute http(s) URL", verr.Fields["Site"])
	assert.Equal(t,
		"validation failed: Email must be a valid email address; Name is required; Site must be an absolute http(s) URL",
		err.Error())
}
