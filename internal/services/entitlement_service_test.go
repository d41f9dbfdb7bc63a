package services

import (
	"context"
	"testing"
	"time"

	"tradeboard_backend/internal/models"
	"tradeboard_backend/internal/payments"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPrices = PlanPrices{
	Starter:      "price_starter",
	Growth:       "price_growth",
	Professional: "price_professional",
	Enterprise:   "price_enterprise",
}

type entitlementHarness struct {
	svc      *entitlementService
	users    *fakeUserRepo
	subs     *fakeSubRepo
	credits  *fakeCreditRepo
	provider *fakeProvider
	now      time.Time
}

func newEntitlementHarness(t *testing.T) *entitlementHarness {
	t.Helper()
	h := &entitlementHarness{
		users:    newFakeUserRepo(),
		subs:     newFakeSubRepo(),
		credits:  newFakeCreditRepo(),
		provider: newFakeProvider(),
		now:      time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC),
	}
	h.svc = NewEntitlementService(h.subs, h.credits, h.users, h.provider, testPrices).(*entitlementService)
	h.svc.now = func() time.Time { return h.now }
	return h
}

func TestEntitlementResolve_DefaultsToFree(t *testing.T) {
	h := newEntitlementHarness(t)
	user := h.users.addUser("emp@example.com", models.UserRoleEmployer, "Emp")

	ent, err := h.svc.Resolve(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlanFree, ent.Plan)
	assert.Equal(t, 1, ent.ActiveJobsLimit)
	assert.Equal(t, 0, ent.MonthlyCredits)

	// the first resolve stamps the refresh window
	balance := h.credits.balances[user.ID]
	require.NotNil(t, balance)
	assert.Equal(t, h.now, balance.LastMonthlyRefresh)
	assert.Equal(t, 0, balance.MonthlyCredits)
}

func TestEntitlementResolve_ActiveSubscription(t *testing.T) {
	h := newEntitlementHarness(t)
	user := h.users.addUser("emp@example.com", models.UserRoleEmployer, "Emp")
	require.NoError(t, h.subs.CreateActive(&models.Subscription{
		UserID:   user.ID,
		PlanType: models.PlanGrowth,
	}))

	ent, err := h.svc.Resolve(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlanGrowth, ent.Plan)
	assert.Equal(t, 6, ent.ActiveJobsLimit)
	assert.Equal(t, 5, ent.MonthlyCredits)

	balance := h.credits.balances[user.ID]
	assert.Equal(t, 5, balance.MonthlyCredits)
}

func TestEntitlementResolve_RefreshSkippedWhileFresh(t *testing.T) {
	h := newEntitlementHarness(t)
	user := h.users.addUser("emp@example.com", models.UserRoleEmployer, "Emp")
	require.NoError(t, h.subs.CreateActive(&models.Subscription{
		UserID:   user.ID,
		PlanType: models.PlanGrowth,
	}))
	// 3 of 5 monthly credits already spent, window still open
	require.NoError(t, h.credits.UpdateBalance(&models.CreditBalance{
		UserID:             user.ID,
		MonthlyCredits:     2,
		LastMonthlyRefresh: h.now.Add(-10 * 24 * time.Hour),
	}))

	_, err := h.svc.Resolve(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, h.credits.balances[user.ID].MonthlyCredits)
}

func TestEntitlementResolve_RollingRefreshRestoresAllotment(t *testing.T) {
	h := newEntitlementHarness(t)
	user := h.users.addUser("emp@example.com", models.UserRoleEmployer, "Emp")
	require.NoError(t, h.subs.CreateActive(&models.Subscription{
		UserID:   user.ID,
		PlanType: models.PlanProfessional,
	}))
	require.NoError(t, h.credits.UpdateBalance(&models.CreditBalance{
		UserID:             user.ID,
		MonthlyCredits:     1,
		PurchasedCredits:   4,
		LastMonthlyRefresh: h.now.Add(-31 * 24 * time.Hour),
	}))

	_, err := h.svc.Resolve(context.Background(), user.ID)
	require.NoError(t, err)

	balance := h.credits.balances[user.ID]
	assert.Equal(t, 25, balance.MonthlyCredits, "unused monthly credits do not roll over")
	assert.Equal(t, 4, balance.PurchasedCredits, "purchased credits survive the refresh")
	assert.Equal(t, h.now, balance.LastMonthlyRefresh)
}

func TestEntitlementResolve_MaterializesFromProvider(t *testing.T) {
	h := newEntitlementHarness(t)
	user := h.users.addUser("emp@example.com", models.UserRoleEmployer, "Emp")
	require.NoError(t, h.users.SetPaymentCustomerID(user.ID, "cus_1"))
	h.provider.subsByCust["cus_1"] = []payments.Subscription{{
		ID:               "sub_1",
		Status:           "active",
		PriceID:          "price_growth",
		CurrentPeriodEnd: h.now.AddDate(0, 1, 0),
		Created:          h.now.AddDate(0, 0, -2),
	}}

	ent, err := h.svc.Resolve(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlanGrowth, ent.Plan)

	local, err := h.subs.FindActiveByUser(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "sub_1", local.ProviderSubscriptionID)
	assert.Equal(t, models.PlanGrowth, local.PlanType)
}

func TestEntitlementResolveWithBalance_SinglePass(t *testing.T) {
	h := newEntitlementHarness(t)
	user := h.users.addUser("emp@example.com", models.UserRoleEmployer, "Emp")
	require.NoError(t, h.users.SetPaymentCustomerID(user.ID, "cus_1"))
	h.provider.subsByCust["cus_1"] = []payments.Subscription{{
		ID:               "sub_1",
		Status:           "active",
		PriceID:          "price_growth",
		CurrentPeriodEnd: h.now.AddDate(0, 1, 0),
		Created:          h.now.AddDate(0, 0, -2),
	}}

	ent, balance, err := h.svc.ResolveWithBalance(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlanGrowth, ent.Plan)
	require.NotNil(t, balance)
	assert.Equal(t, 5, balance.MonthlyCredits)
	assert.Equal(t, h.now, balance.LastMonthlyRefresh)
	assert.Equal(t, 1, h.provider.listCalls, "plan and balance come from one resolution")
}

func TestEntitlementResolve_UnknownProviderPriceIgnored(t *testing.T) {
	h := newEntitlementHarness(t)
	user := h.users.addUser("emp@example.com", models.UserRoleEmployer, "Emp")
	require.NoError(t, h.users.SetPaymentCustomerID(user.ID, "cus_1"))
	h.provider.subsByCust["cus_1"] = []payments.Subscription{{
		ID:      "sub_1",
		PriceID: "price_from_another_app",
		Created: h.now,
	}}

	ent, err := h.svc.Resolve(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlanFree, ent.Plan)
	_, err = h.subs.FindActiveByUser(user.ID)
	assert.Error(t, err)
}
