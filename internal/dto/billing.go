package dto

import "time"

type CheckoutSubscriptionRequest struct {
	Plan string `json:"plan" validate:"required,is-plan-type"`
}

type CheckoutCreditsRequest struct {
	Pack string `json:"pack" validate:"required,is-credit-pack"`
}

type CheckoutResponse struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
}

type ConfirmSessionRequest struct {
	SessionID string `json:"session_id" validate:"required"`
}

type SubscriptionResponse struct {
	Plan             string     `json:"plan"`
	Status           string     `json:"status"`
	ActiveJobsLimit  int        `json:"active_jobs_limit"`
	MonthlyCredits   int        `json:"monthly_credits"`
	CurrentPeriodEnd *time.Time `json:"current_period_end,omitempty"`
	CancelledAt      *time.Time `json:"cancelled_at,omitempty"`
}

type EntitlementsResponse struct {
	Plan            string `json:"plan"`
	ActiveJobsLimit int    `json:"active_jobs_limit"`
	ActiveJobsUsed  int64  `json:"active_jobs_used"`
	MonthlyCredits  int    `json:"monthly_credits"`
	CreditBalance   int    `json:"credit_balance"`
}

type CreditBalanceResponse struct {
	MonthlyCredits     int       `json:"monthly_credits"`
	PurchasedCredits   int       `json:"purchased_credits"`
	Total              int       `json:"total"`
	LastMonthlyRefresh time.Time `json:"last_monthly_refresh"`
}

type PlanResponse struct {
	Plan            string `json:"plan"`
	ActiveJobsLimit int    `json:"active_jobs_limit"`
	MonthlyCredits  int    `json:"monthly_credits"`
	PriceID         string `json:"price_id,omitempty"`
}

type CreditPackResponse struct {
	Pack       string `json:"pack"`
	Credits    int    `json:"credits"`
	PriceCents int64  `json:"price_cents"`
	Currency   string `json:"currency"`
}

type ReconcileResponse struct {
	CheckedUsers     int `json:"checked_users"`
	RepairedUsers    int `json:"repaired_users"`
	CancelledExtra   int `json:"cancelled_extra"`
	CompletedPending int `json:"completed_pending"`
}
