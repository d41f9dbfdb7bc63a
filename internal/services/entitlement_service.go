package services

import (
	"context"
	"time"

	"tradeboard_backend/internal/logger"
	"tradeboard_backend/internal/models"
	"tradeboard_backend/internal/payments"
	"tradeboard_backend/internal/repositories"
	"tradeboard_backend/pkg/apperrors"
)

// PlanPrices maps subscription plans to the provider's recurring price
// ids, configured per environment.
type PlanPrices struct {
	Starter      string
	Growth       string
	Professional string
	Enterprise   string
}

func (p PlanPrices) PriceFor(plan models.PlanType) (string, bool) {
	switch plan {
	case models.PlanStarter:
		return p.Starter, p.Starter != ""
	case models.PlanGrowth:
		return p.Growth, p.Growth != ""
	case models.PlanProfessional:
		return p.Professional, p.Professional != ""
	case models.PlanEnterprise:
		return p.Enterprise, p.Enterprise != ""
	}
	return "", false
}

func (p PlanPrices) PlanFor(priceID string) (models.PlanType, bool) {
	switch priceID {
	case "":
		return "", false
	case p.Starter:
		return models.PlanStarter, true
	case p.Growth:
		return models.PlanGrowth, true
	case p.Professional:
		return models.PlanProfessional, true
	case p.Enterprise:
		return models.PlanEnterprise, true
	}
	return "", false
}

// Entitlements is the effective plan state for one user at one moment.
type Entitlements struct {
	Plan            models.PlanType
	ActiveJobsLimit int
	MonthlyCredits  int
}

// EntitlementService answers "what is this user allowed to do right now".
// Every resolution also runs the lazy monthly credit refresh, so callers
// that gate on credits see a current balance.
type EntitlementService interface {
	// Resolve returns the user's effective entitlements, deriving them
	// from the local active subscription and falling back to the free
	// plan. When the local record is missing but the payment provider
	// holds an active subscription for the user's customer, the local
	// record is rebuilt from the provider.
	Resolve(ctx context.Context, userID string) (*Entitlements, error)

	// Balance returns the credit balance after the refresh pass.
	Balance(ctx context.Context, userID string) (*models.CreditBalance, error)

	// ResolveWithBalance returns both in one pass, for callers that need
	// the plan and the refreshed balance without resolving twice.
	ResolveWithBalance(ctx context.Context, userID string) (*Entitlements, *models.CreditBalance, error)
}

type entitlementService struct {
	subRepo    repositories.SubscriptionRepository
	creditRepo repositories.CreditRepository
	userRepo   repositories.UserRepository
	provider   payments.Provider
	prices     PlanPrices
	now        func() time.Time
}

func NewEntitlementService(
	subRepo repositories.SubscriptionRepository,
	creditRepo repositories.CreditRepository,
	userRepo repositories.UserRepository,
	provider payments.Provider,
	prices PlanPrices,
) EntitlementService {
	return &entitlementService{
		subRepo:    subRepo,
		creditRepo: creditRepo,
		userRepo:   userRepo,
		provider:   provider,
		prices:     prices,
		now:        time.Now,
	}
}

func (s *entitlementService) Resolve(ctx context.Context, userID string) (*Entitlements, error) {
	ent, _, err := s.ResolveWithBalance(ctx, userID)
	return ent, err
}

func (s *entitlementService) Balance(ctx context.Context, userID string) (*models.CreditBalance, error) {
	_, balance, err := s.ResolveWithBalance(ctx, userID)
	return balance, err
}

func (s *entitlementService) ResolveWithBalance(ctx context.Context, userID string) (*Entitlements, *models.CreditBalance, error) {
	sub, err := s.subRepo.FindActiveByUser(userID)
	if err != nil && err != repositories.ErrSubscriptionNotFound {
		return nil, nil, apperrors.InternalError(err)
	}
	if sub == nil {
		sub = s.materializeFromProvider(ctx, userID)
	}

	plan := models.PlanFree
	if sub != nil {
		plan = sub.PlanType
	}
	ent := models.EntitlementsFor(plan)

	balance, err := s.refreshCredits(userID, plan, ent.MonthlyCredits)
	if err != nil {
		return nil, nil, err
	}

	return &Entitlements{
		Plan:            plan,
		ActiveJobsLimit: ent.ActiveJobsLimit,
		MonthlyCredits:  ent.MonthlyCredits,
	}, balance, nil
}

// materializeFromProvider rebuilds a lost local subscription from the
// provider's state. Errors are logged, not surfaced: a provider outage
// must not lock paying users out of the free tier either.
func (s *entitlementService) materializeFromProvider(ctx context.Context, userID string) *models.Subscription {
	profile, err := s.userRepo.FindProfile(userID)
	if err != nil || profile.PaymentCustomerID == "" {
		return nil
	}

	remote, err := s.provider.ListActiveSubscriptions(ctx, profile.PaymentCustomerID)
	if err != nil {
		logger.CtxWithError(ctx, err).Warn("entitlements: provider lookup failed")
		return nil
	}
	newest := newestSubscription(remote)
	if newest == nil {
		return nil
	}
	plan, ok := s.prices.PlanFor(newest.PriceID)
	if !ok {
		logger.CtxWarn(ctx, "entitlements: provider subscription with unknown price", "price_id", newest.PriceID)
		return nil
	}

	ent := models.EntitlementsFor(plan)
	periodEnd := newest.CurrentPeriodEnd
	sub := &models.Subscription{
		UserID:                 userID,
		PlanType:               plan,
		ProviderSubscriptionID: newest.ID,
		ActiveJobsLimit:        ent.ActiveJobsLimit,
		MonthlyCredits:         ent.MonthlyCredits,
		CurrentPeriodEnd:       &periodEnd,
	}
	if err := s.subRepo.CreateActive(sub); err != nil {
		if err == repositories.ErrActiveSubExists {
			// Lost the race to a concurrent request; use its row.
			existing, ferr := s.subRepo.FindActiveByUser(userID)
			if ferr == nil {
				return existing
			}
			return nil
		}
		logger.CtxWithError(ctx, err).Warn("entitlements: failed to materialize subscription")
		return nil
	}
	logger.CtxInfo(ctx, "entitlements: rebuilt subscription from provider",
		"user_id", userID, "plan", string(plan))
	return sub
}

// refreshCredits runs the rolling 30-day monthly allotment reset and
// returns the resulting balance. Free plans get no monthly credits but
// still carry purchased ones.
func (s *entitlementService) refreshCredits(userID string, plan models.PlanType, monthly int) (*models.CreditBalance, error) {
	balance, err := s.creditRepo.GetOrCreateBalance(userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	now := s.now()
	if !balance.NeedsRefresh(now) {
		return balance, nil
	}
	if !models.IsPaidPlan(plan) {
		monthly = 0
	}
	balance.MonthlyCredits = monthly
	balance.LastMonthlyRefresh = now
	if err := s.creditRepo.UpdateBalance(balance); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return balance, nil
}

func newestSubscription(subs []payments.Subscription) *payments.Subscription {
	var newest *payments.Subscription
	for i := range subs {
		if newest == nil || subs[i].Created.After(newest.Created) {
			newest = &subs[i]
		}
	}
	return newest
}
