package models

import "time"

type PlanType string

const (
	PlanFree         PlanType = "free"
	PlanStarter      PlanType = "starter"
	PlanGrowth       PlanType = "growth"
	PlanProfessional PlanType = "professional"
	PlanEnterprise   PlanType = "enterprise"
)

// UnlimitedJobs marks a plan with no active-job cap.
const UnlimitedJobs = -1

// PlanEntitlements is the fixed plan-type -> limits table. ActiveJobsLimit
// is the cap on concurrently active jobs; MonthlyCredits is the allotment
// restored on each rolling 30-day refresh.
type PlanEntitlements struct {
	ActiveJobsLimit int
	MonthlyCredits  int
}

var planTable = map[PlanType]PlanEntitlements{
	PlanFree:         {ActiveJobsLimit: 1, MonthlyCredits: 0},
	PlanStarter:      {ActiveJobsLimit: 3, MonthlyCredits: 0},
	PlanGrowth:       {ActiveJobsLimit: 6, MonthlyCredits: 5},
	PlanProfessional: {ActiveJobsLimit: 15, MonthlyCredits: 25},
	PlanEnterprise:   {ActiveJobsLimit: UnlimitedJobs, MonthlyCredits: 100},
}

// EntitlementsFor returns the entitlement row for a plan, falling back to
// the free tier for unknown plan types.
func EntitlementsFor(plan PlanType) PlanEntitlements {
	if e, ok := planTable[plan]; ok {
		return e
	}
	return planTable[PlanFree]
}

// IsPaidPlan reports whether the plan type is a purchasable tier.
func IsPaidPlan(plan PlanType) bool {
	switch plan {
	case PlanStarter, PlanGrowth, PlanProfessional, PlanEnterprise:
		return true
	}
	return false
}

// Subscription is one row per billing period per user. The partial unique
// index (declared in database.AutoMigrate) keeps at most one active row per
// user, so reconciliation never has to mop up duplicate actives.
type Subscription struct {
	BaseModel
	UserID   string             `gorm:"type:uuid;not null;index" json:"user_id"`
	PlanType PlanType           `gorm:"type:varchar(20);not null" json:"plan_type"`
	Status   SubscriptionStatus `gorm:"type:varchar(20);default:'active';index" json:"status"`

	ProviderSubscriptionID string `gorm:"index" json:"-"`

	ActiveJobsLimit  int        `json:"active_jobs_limit"`
	MonthlyCredits   int        `json:"monthly_credits"`
	CurrentPeriodEnd *time.Time `json:"current_period_end,omitempty"`
	CancelledAt      *time.Time `json:"cancelled_at,omitempty"`
}
