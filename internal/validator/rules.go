package validator

import (
	"log"

	"tradeboard_backend/internal/models"

	"github.com/go-playground/validator/v10"
)

// registerCustomRules wires the domain-specific validation tags.
func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	mustRegister("is-user-role", validateUserRole)
	mustRegister("is-application-status", validateApplicationStatus)
	mustRegister("is-job-status", validateJobStatus)
	mustRegister("is-plan-type", validatePlanType)
	mustRegister("is-credit-pack", validateCreditPack)
	mustRegister("is-job-feature", validateJobFeature)
}

func validateUserRole(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // 'required' handles empties
	}
	switch models.UserRole(value) {
	case models.UserRoleJobSeeker, models.UserRoleEmployer:
		return true
	}
	return false
}

func validateApplicationStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.ValidApplicationTransitions[models.ApplicationStatus(value)]
}

func validateJobStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	switch models.JobStatus(value) {
	case models.JobStatusActive, models.JobStatusPaused:
		return true
	}
	return false
}

func validatePlanType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.IsPaidPlan(models.PlanType(value))
}

func validateCreditPack(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	_, ok := models.PackInfo(models.CreditPack(value))
	return ok
}

func validateJobFeature(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	switch models.JobFeature(value) {
	case models.JobFeatureFeatured, models.JobFeatureUrgent:
		return true
	}
	return false
}
