package payments

import (
	"context"
	"time"
)

// Checkout metadata keys and session types. The metadata written at
// session creation is the only contract between checkout and the
// reconciliation path that later consumes the session.
const (
	MetaType   = "type"
	MetaUserID = "user_id"
	MetaJobID  = "job_id"
	MetaAddon  = "addon_type"
	MetaPlan   = "plan"
	MetaPack   = "pack"

	SessionTypeSubscription   = "subscription"
	SessionTypeJobFeature     = "job_feature"
	SessionTypeCreditPurchase = "credit_purchase"
)

// CheckoutParams describes one checkout session to create.
type CheckoutParams struct {
	CustomerID string
	// Mode is "payment" for one-time charges and "subscription" for
	// recurring plans.
	Mode string
	// PriceID is the provider's recurring price (subscription mode).
	PriceID string
	// AmountCents and Currency describe a one-time charge (payment mode).
	AmountCents int64
	Currency    string
	Description string
	Metadata    map[string]string
	SuccessURL  string
	CancelURL   string
}

// CheckoutSession is the provider-side session state the application
// cares about.
type CheckoutSession struct {
	ID             string
	URL            string
	PaymentStatus  string // "paid", "unpaid", "no_payment_required"
	Metadata       map[string]string
	CustomerID     string
	SubscriptionID string
}

// Paid reports whether the session has settled.
func (s *CheckoutSession) Paid() bool {
	return s.PaymentStatus == "paid" || s.PaymentStatus == "no_payment_required"
}

// Subscription is the provider's view of a recurring subscription.
type Subscription struct {
	ID               string
	Status           string
	PriceID          string
	CurrentPeriodEnd time.Time
	Created          time.Time
}

// WebhookEvent is a verified provider webhook.
type WebhookEvent struct {
	Type      string
	SessionID string
}

// Provider is the payment gateway surface the services depend on. Tests
// substitute a fake; production wires the Stripe client.
type Provider interface {
	// EnsureCustomer returns existingID unchanged when set, otherwise
	// creates a provider customer for the user.
	EnsureCustomer(ctx context.Context, email, userID, existingID string) (string, error)

	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error)

	ListActiveSubscriptions(ctx context.Context, customerID string) ([]Subscription, error)
	CancelSubscription(ctx context.Context, subscriptionID string) error

	// VerifyWebhook checks the payload signature and extracts the event.
	VerifyWebhook(payload []byte, signature string) (*WebhookEvent, error)
}
