package services

import (
	"context"
	"testing"
	"time"

	"tradeboard_backend/internal/models"
	"tradeboard_backend/internal/payments"
	"tradeboard_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type paymentHarness struct {
	*jobHarness
	unlocks *fakeUnlockRepo
	svc     *paymentService
}

func newPaymentHarness(t *testing.T) *paymentHarness {
	t.Helper()
	jh := newJobHarness(t)
	unlocks := newFakeUnlockRepo()
	svc := NewPaymentService(
		jh.users, jh.subs, jh.credits, unlocks, jh.svc,
		jh.provider, testPrices,
		"https://tradeboard.test", "usd",
	).(*paymentService)
	svc.now = func() time.Time { return jh.now }
	return &paymentHarness{jobHarness: jh, unlocks: unlocks, svc: svc}
}

func TestCheckoutSubscription(t *testing.T) {
	h := newPaymentHarness(t)
	emp := h.users.addUser("emp@example.com", models.UserRoleEmployer, "Emp")

	out, err := h.svc.CheckoutSubscription(context.Background(), emp.ID, "growth")
	require.NoError(t, err)
	assert.NotEmpty(t, out.SessionID)
	assert.Contains(t, out.CheckoutURL, out.SessionID)

	// the provider customer is created and remembered
	assert.Equal(t, "cus_"+emp.ID, h.users.profiles[emp.ID].PaymentCustomerID)

	session := h.provider.sessions[out.SessionID]
	require.NotNil(t, session)
	assert.Equal(t, payments.SessionTypeSubscription, session.Metadata[payments.MetaType])
	assert.Equal(t, emp.ID, session.Metadata[payments.MetaUserID])
	assert.Equal(t, "growth", session.Metadata[payments.MetaPlan])
}

func TestCheckoutSubscription_UnknownPlan(t *testing.T) {
	h := newPaymentHarness(t)
	emp := h.users.addUser("emp@example.com", models.UserRoleEmployer, "Emp")

	_, err := h.svc.CheckoutSubscription(context.Background(), emp.ID, "free")
	require.Error(t, err)
	_, err = h.svc.CheckoutSubscription(context.Background(), emp.ID, "platinum")
	require.Error(t, err)
}

func TestConfirmSession_ActivatesSubscription(t *testing.T) {
	h := newPaymentHarness(t)
	emp := h.users.addUser("emp@example.com", models.UserRoleEmployer, "Emp")

	out, err := h.svc.CheckoutSubscription(context.Background(), emp.ID, "growth")
	require.NoError(t, err)
	h.provider.markPaid(out.SessionID, "sub_new")

	require.NoError(t, h.svc.ConfirmSession(context.Background(), emp.ID, out.SessionID))

	sub, err := h.subs.FindActiveByUser(emp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlanGrowth, sub.PlanType)
	assert.Equal(t, "sub_new", sub.ProviderSubscriptionID)
	assert.Equal(t, 6, sub.ActiveJobsLimit)

	// the plan's monthly allotment lands immediately
	balance := h.credits.balances[emp.ID]
	require.NotNil(t, balance)
	assert.Equal(t, 5, balance.MonthlyCredits)
	assert.Equal(t, h.now, balance.LastMonthlyRefresh)
}

func TestConfirmSession_ReplayIsNoop(t *testing.T) {
	h := newPaymentHarness(t)
	emp := h.users.addUser("emp@example.com", models.UserRoleEmployer, "Emp")

	out, err := h.svc.CheckoutSubscription(context.Background(), emp.ID, "growth")
	require.NoError(t, err)
	h.provider.markPaid(out.SessionID, "sub_new")

	require.NoError(t, h.svc.ConfirmSession(context.Background(), emp.ID, out.SessionID))
	// user spends monthly credits before the webhook replays the session
	_, err = h.credits.Consume(emp.ID, 3)
	require.NoError(t, err)

	require.NoError(t, h.svc.ConfirmSession(context.Background(), "", out.SessionID))
	assert.Equal(t, 2, h.credits.balances[emp.ID].MonthlyCredits, "replay does not re-grant credits")
	assert.Empty(t, h.provider.cancelled)
}

func TestConfirmSession_ReplacesPreviousPlan(t *testing.T) {
	h := newPaymentHarness(t)
	emp := h.users.addUser("emp@example.com", models.UserRoleEmployer, "Emp")
	require.NoError(t, h.subs.CreateActive(&models.Subscription{
		UserID:                 emp.ID,
		PlanType:               models.PlanStarter,
		ProviderSubscriptionID: "sub_old",
	}))

	out, err := h.svc.CheckoutSubscription(context.Background(), emp.ID, "professional")
	require.NoError(t, err)
	h.provider.markPaid(out.SessionID, "sub_new")
	require.NoError(t, h.svc.ConfirmSession(context.Background(), emp.ID, out.SessionID))

	assert.Contains(t, h.provider.cancelled, "sub_old")
	sub, err := h.subs.FindActiveByUser(emp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlanProfessional, sub.PlanType)
	assert.Equal(t, "sub_new", sub.ProviderSubscriptionID)
	assert.Equal(t, 25, h.credits.balances[emp.ID].MonthlyCredits)
}

func TestConfirmSession_UnpaidRejected(t *testing.T) {
	h := newPaymentHarness(t)
	emp := h.users.addUser("emp@example.com", models.UserRoleEmployer, "Emp")

	out, err := h.svc.CheckoutSubscription(context.Background(), emp.ID, "growth")
	require.NoError(t, err)

	err = h.svc.ConfirmSession(context.Background(), emp.ID, out.SessionID)
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodePaymentRequired, appErr.Code)
}

func TestConfirmSession_ForeignSessionForbidden(t *testing.T) {
	h := newPaymentHarness(t)
	emp := h.users.addUser("emp@example.com", models.UserRoleEmployer, "Emp")
	other := h.users.addUser("other@example.com", models.UserRoleEmployer, "Other")

	out, err := h.svc.CheckoutSubscription(context.Background(), emp.ID, "growth")
	require.NoError(t, err)
	h.provider.markPaid(out.SessionID, "sub_new")

	err = h.svc.ConfirmSession(context.Background(), other.ID, out.SessionID)
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeForbidden, appErr.Code)
}

func TestConfirmSession_CreditPack(t *testing.T) {
	h := newPaymentHarness(t)
	emp := h.users.addUser("emp@example.com", models.UserRoleEmployer, "Emp")

	out, err := h.svc.CheckoutCredits(context.Background(), emp.ID, "ten")
	require.NoError(t, err)
	purchase, err := h.credits.FindPurchaseBySession(out.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.PurchaseStatusPending, purchase.Status)

	h.provider.markPaid(out.SessionID, "")
	require.NoError(t, h.svc.ConfirmSession(context.Background(), emp.ID, out.SessionID))
	assert.Equal(t, 10, h.credits.balances[emp.ID].PurchasedCredits)

	purchase, err = h.credits.FindPurchaseBySession(out.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.PurchaseStatusCompleted, purchase.Status)

	// webhook replay of the settled session grants nothing more
	require.NoError(t, h.svc.ConfirmSession(context.Background(), "", out.SessionID))
	assert.Equal(t, 10, h.credits.balances[emp.ID].PurchasedCredits)
}

func TestConfirmSession_CreditPackWithoutPendingRow(t *testing.T) {
	h := newPaymentHarness(t)
	emp := h.users.addUser("emp@example.com", models.UserRoleEmployer, "Emp")

	// session created outside this process, observed first via webhook
	h.provider.sessions["cs_test_1"] = &payments.CheckoutSession{
		ID:            "cs_test_1",
		PaymentStatus: "paid",
		Metadata: map[string]string{
			payments.MetaType:   payments.SessionTypeCreditPurchase,
			payments.MetaUserID: emp.ID,
			payments.MetaPack:   "twentyfive",
		},
	}

	require.NoError(t, h.svc.ConfirmSession(context.Background(), "", "cs_test_1"))
	assert.Equal(t, 25, h.credits.balances[emp.ID].PurchasedCredits)

	// the completed audit row now guards replays
	require.NoError(t, h.svc.ConfirmSession(context.Background(), emp.ID, "cs_test_1"))
	assert.Equal(t, 25, h.credits.balances[emp.ID].PurchasedCredits)
}

func TestCheckoutJobFeature(t *testing.T) {
	h := newPaymentHarness(t)
	emp := h.users.addUser("emp@example.com", models.UserRoleEmployer, "Emp")
	other := h.users.addUser("other@example.com", models.UserRoleEmployer, "Other")
	job := h.seedActiveJob(emp.ID, h.now)

	_, err := h.svc.CheckoutJobFeature(context.Background(), other.ID, job.ID, "featured")
	require.Error(t, err, "only the owner buys add-ons")

	_, err = h.svc.CheckoutJobFeature(context.Background(), emp.ID, job.ID, "sponsored")
	require.Error(t, err)

	out, err := h.svc.CheckoutJobFeature(context.Background(), emp.ID, job.ID, "featured")
	require.NoError(t, err)

	purchase, err := h.unlockRepoPurchase(out.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.JobFeatureFeatured, purchase.Feature)
	assert.Equal(t, int64(1900), purchase.AmountCents)
	assert.Equal(t, models.PurchaseStatusPending, purchase.Status)
}

func (h *paymentHarness) unlockRepoPurchase(sessionID string) (*models.JobFeaturePurchase, error) {
	return h.unlocks.FindFeaturePurchaseBySession(sessionID)
}

func TestConfirmSession_JobFeature(t *testing.T) {
	h := newPaymentHarness(t)
	emp := h.users.addUser("emp@example.com", models.UserRoleEmployer, "Emp")
	job := h.seedActiveJob(emp.ID, h.now)

	out, err := h.svc.CheckoutJobFeature(context.Background(), emp.ID, job.ID, "urgent")
	require.NoError(t, err)
	h.provider.markPaid(out.SessionID, "")

	require.NoError(t, h.svc.ConfirmSession(context.Background(), emp.ID, out.SessionID))

	flagged, err := h.jobs.FindByID(job.ID)
	require.NoError(t, err)
	assert.True(t, flagged.IsUrgent)
	require.NotNil(t, flagged.UrgentUntil)
	assert.Equal(t, h.now.AddDate(0, 0, 30), *flagged.UrgentUntil)

	// replay does not extend the window
	h.now = h.now.AddDate(0, 0, 3)
	require.NoError(t, h.svc.ConfirmSession(context.Background(), "", out.SessionID))
	again, _ := h.jobs.FindByID(job.ID)
	assert.Equal(t, flagged.UrgentUntil.Unix(), again.UrgentUntil.Unix())
}

func TestHandleWebhook(t *testing.T) {
	h := newPaymentHarness(t)
	emp := h.users.addUser("emp@example.com", models.UserRoleEmployer, "Emp")

	out, err := h.svc.CheckoutSubscription(context.Background(), emp.ID, "starter")
	require.NoError(t, err)
	h.provider.markPaid(out.SessionID, "sub_1")

	h.provider.webhookEvent = &payments.WebhookEvent{Type: "invoice.paid", SessionID: ""}
	require.NoError(t, h.svc.HandleWebhook(context.Background(), []byte("{}"), "sig"))
	_, err = h.subs.FindActiveByUser(emp.ID)
	assert.Error(t, err, "unrelated events are ignored")

	h.provider.webhookEvent = &payments.WebhookEvent{Type: "checkout.session.completed", SessionID: out.SessionID}
	require.NoError(t, h.svc.HandleWebhook(context.Background(), []byte("{}"), "sig"))
	sub, err := h.subs.FindActiveByUser(emp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlanStarter, sub.PlanType)
}

func TestCancelSubscription(t *testing.T) {
	h := newPaymentHarness(t)
	emp := h.users.addUser("emp@example.com", models.UserRoleEmployer, "Emp")
	require.NoError(t, h.subs.CreateActive(&models.Subscription{
		UserID:                 emp.ID,
		PlanType:               models.PlanGrowth,
		ProviderSubscriptionID: "sub_1",
	}))

	require.NoError(t, h.svc.CancelSubscription(context.Background(), emp.ID))
	assert.Contains(t, h.provider.cancelled, "sub_1")
	_, err := h.subs.FindActiveByUser(emp.ID)
	assert.Error(t, err)

	err = h.svc.CancelSubscription(context.Background(), emp.ID)
	require.Error(t, err, "nothing left to cancel")
}

func TestGetSubscription_DefaultsToFree(t *testing.T) {
	h := newPaymentHarness(t)
	emp := h.users.addUser("emp@example.com", models.UserRoleEmployer, "Emp")

	out, err := h.svc.GetSubscription(context.Background(), emp.ID)
	require.NoError(t, err)
	assert.Equal(t, "free", out.Plan)
	assert.Equal(t, 1, out.ActiveJobsLimit)
}

func TestPlans(t *testing.T) {
	h := newPaymentHarness(t)

	plans := h.svc.Plans()
	require.Len(t, plans, 5)
	assert.Equal(t, "free", plans[0].Plan)
	assert.Empty(t, plans[0].PriceID)
	assert.Equal(t, "enterprise", plans[4].Plan)
	assert.Equal(t, models.UnlimitedJobs, plans[4].ActiveJobsLimit)
	assert.Equal(t, "price_enterprise", plans[4].PriceID)
}

func TestReconcile(t *testing.T) {
	h := newPaymentHarness(t)
	emp := h.users.addUser("emp@example.com", models.UserRoleEmployer, "Emp")
	require.NoError(t, h.users.SetPaymentCustomerID(emp.ID, "cus_1"))

	// the provider holds two active subscriptions; only the newest should
	// survive, and the local record is missing entirely
	h.provider.subsByCust["cus_1"] = []payments.Subscription{
		{ID: "sub_old", PriceID: "price_starter", Created: h.now.AddDate(0, 0, -40), CurrentPeriodEnd: h.now.AddDate(0, 0, -10)},
		{ID: "sub_new", PriceID: "price_growth", Created: h.now.AddDate(0, 0, -2), CurrentPeriodEnd: h.now.AddDate(0, 0, 28)},
	}

	// plus a pending credit purchase whose session settled unnoticed
	h.provider.sessions["cs_lost"] = &payments.CheckoutSession{
		ID:            "cs_lost",
		PaymentStatus: "paid",
		Metadata: map[string]string{
			payments.MetaType:   payments.SessionTypeCreditPurchase,
			payments.MetaUserID: emp.ID,
			payments.MetaPack:   "ten",
		},
	}
	require.NoError(t, h.credits.CreatePurchase(&models.CreditPurchase{
		UserID:            emp.ID,
		Pack:              models.CreditPackTen,
		Credits:           10,
		CheckoutSessionID: "cs_lost",
		Status:            models.PurchaseStatusPending,
	}))

	report, err := h.svc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.CheckedUsers)
	assert.Equal(t, 1, report.CancelledExtra)
	assert.Equal(t, 1, report.RepairedUsers)
	assert.Equal(t, 1, report.CompletedPending)

	assert.Contains(t, h.provider.cancelled, "sub_old")
	sub, err := h.subs.FindActiveByUser(emp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlanGrowth, sub.PlanType)
	assert.Equal(t, "sub_new", sub.ProviderSubscriptionID)
	assert.Equal(t, 10, h.credits.balances[emp.ID].PurchasedCredits)

	// a second pass finds nothing to repair
	report, err = h.svc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.CheckedUsers)
	assert.Equal(t, 0, report.CancelledExtra)
	assert.Equal(t, 0, report.RepairedUsers)
	assert.Equal(t, 0, report.CompletedPending)
}

func TestReconcile_ExpiresLocalWhenProviderEmpty(t *testing.T) {
	h := newPaymentHarness(t)
	emp := h.users.addUser("emp@example.com", models.UserRoleEmployer, "Emp")
	require.NoError(t, h.users.SetPaymentCustomerID(emp.ID, "cus_1"))
	require.NoError(t, h.subs.CreateActive(&models.Subscription{
		UserID:                 emp.ID,
		PlanType:               models.PlanGrowth,
		ProviderSubscriptionID: "sub_gone",
	}))

	report, err := h.svc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.RepairedUsers)
	_, err = h.subs.FindActiveByUser(emp.ID)
	assert.Error(t, err, "lapsed subscription drops the user to the free tier")
}
