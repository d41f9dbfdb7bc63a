package validator

import (
	"testing"

	"tradeboard_backend/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_RegisterRequest(t *testing.T) {
	v := New()

	ok := &dto.RegisterRequest{
		Email:    "dave@example.com",
		Password: "hunter2hunter2",
		Role:     "jobseeker",
		FullName: "Dave Fixit",
	}
	assert.NoError(t, v.Validate(ok))

	bad := &dto.RegisterRequest{
		Email:    "not-an-email",
		Password: "short",
		Role:     "superuser",
		FullName: "D",
	}
	err := v.Validate(bad)
	require.Error(t, err)
	vErr, isValidation := err.(*ValidationError)
	require.True(t, isValidation)

	// field names come from the json tags
	assert.Contains(t, vErr.Errors, "email")
	assert.Contains(t, vErr.Errors, "password")
	assert.Contains(t, vErr.Errors, "role")
	assert.Contains(t, vErr.Errors, "full_name")
}

func TestValidate_RoleRejectsAdminSelfSignup(t *testing.T) {
	v := New()

	req := &dto.RegisterRequest{
		Email:    "dave@example.com",
		Password: "hunter2hunter2",
		Role:     "admin",
		FullName: "Dave",
	}
	assert.Error(t, v.Validate(req))
}

func TestValidate_CustomDomainTags(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(&dto.CheckoutSubscriptionRequest{Plan: "growth"}))
	assert.Error(t, v.Validate(&dto.CheckoutSubscriptionRequest{Plan: "free"}), "the free tier is not purchasable")
	assert.Error(t, v.Validate(&dto.CheckoutSubscriptionRequest{Plan: "platinum"}))

	assert.NoError(t, v.Validate(&dto.CheckoutCreditsRequest{Pack: "twentyfive"}))
	assert.Error(t, v.Validate(&dto.CheckoutCreditsRequest{Pack: "hundred"}))

	assert.NoError(t, v.Validate(&dto.FeatureJobRequest{AddonType: "featured"}))
	assert.NoError(t, v.Validate(&dto.FeatureJobRequest{AddonType: "urgent"}))
	assert.Error(t, v.Validate(&dto.FeatureJobRequest{AddonType: "sponsored"}))

	assert.NoError(t, v.Validate(&dto.UpdateJobStatusRequest{Status: "paused"}))
	assert.Error(t, v.Validate(&dto.UpdateJobStatusRequest{Status: "deleted"}), "deletion has its own endpoint")

	assert.NoError(t, v.Validate(&dto.UpdateApplicationStatusRequest{Status: "shortlisted"}))
	assert.Error(t, v.Validate(&dto.UpdateApplicationStatusRequest{Status: "pending"}))
}

func TestValidate_RateRange(t *testing.T) {
	v := New()

	min := 20.0
	max := 35.0
	req := &dto.CreateJobRequest{
		Title:       "Plumber needed",
		Company:     "Acme",
		Region:      "North West",
		Trade:       "plumbing",
		RateMin:     &min,
		RateMax:     &max,
		RatePeriod:  "hour",
		Description: "Residential pipework, immediate start.",
	}
	assert.NoError(t, v.Validate(req))

	backwards := 10.0
	req.RateMax = &backwards
	assert.Error(t, v.Validate(req), "rate_max must not undercut rate_min")
}
