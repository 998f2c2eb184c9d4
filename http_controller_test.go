package nexus_test

import (
	"errors"
	"testing"

	nexus "github.com/laxmi-narasimha26/b2b-commerce-nexus"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginRequestValidation(t *testing.T) {
	valid := nexus.LoginRequest{
		Identifier: "buyer@shop.test",
		Password:   "hunter22xx",
	}
	assert.NoError(t, valid.Validate())

	missing := nexus.LoginRequest{}
	require.Error(t, missing.Validate())

	badEmail := nexus.LoginRequest{Identifier: "not-an-email", Password: "hunter22xx"}
	require.Error(t, badEmail.Validate())
}

func TestRegistrationPayloadValidation(t *testing.T) {
	payload := nexus.RegistrationCreatePayload{
		FirstName:       "Dana",
		LastName:        "Reyes",
		Email:           "dana@acme.test",
		Password:        "long-enough-pass",
		ConfirmPassword: "long-enough-pass",
	}
	assert.NoError(t, payload.Validate())

	payload.ConfirmPassword = "different"
	require.Error(t, payload.Validate())

	payload.ConfirmPassword = payload.Password
	payload.Password = "short"
	payload.ConfirmPassword = "short"
	require.Error(t, payload.Validate())
}

func TestValidateStringEquals(t *testing.T) {
	rule := nexus.ValidateStringEquals("secret")
	assert.NoError(t, rule("secret"))
	assert.Error(t, rule("other"))
	assert.Error(t, rule(42))
}

func TestFormatValidationErrorToMap(t *testing.T) {
	verrs := validation.Errors{
		"email":    errors.New("must be a valid email address"),
		"password": errors.New("the length must be between 10 and 100"),
	}

	out := nexus.FormatValidationErrorToMap(verrs)
	assert.Equal(t, "must be a valid email address", out["email"])
	assert.Equal(t, "the length must be between 10 and 100", out["password"])

	out = nexus.FormatValidationErrorToMap(errors.New("boom"))
	assert.Equal(t, "boom", out["form"])

	assert.Empty(t, nexus.FormatValidationErrorToMap(nil))
}
