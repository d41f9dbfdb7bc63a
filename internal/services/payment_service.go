package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tradeboard_backend/internal/dto"
	"tradeboard_backend/internal/logger"
	"tradeboard_backend/internal/models"
	"tradeboard_backend/internal/payments"
	"tradeboard_backend/internal/repositories"
	"tradeboard_backend/pkg/apperrors"

	"gorm.io/datatypes"
)

type PaymentService interface {
	// CheckoutSubscription opens a recurring checkout for a paid plan.
	// The old subscription, if any, is replaced when the new session is
	// confirmed, not here.
	CheckoutSubscription(ctx context.Context, userID, plan string) (*dto.CheckoutResponse, error)
	CheckoutJobFeature(ctx context.Context, userID, jobID string, feature string) (*dto.CheckoutResponse, error)
	CheckoutCredits(ctx context.Context, userID, pack string) (*dto.CheckoutResponse, error)

	// ConfirmSession applies a paid checkout session by its metadata
	// type. Safe to call any number of times per session, and from both
	// the redirect handler and the webhook. userID authorizes the call;
	// the webhook passes "" and trusts the session metadata.
	ConfirmSession(ctx context.Context, userID, sessionID string) error

	HandleWebhook(ctx context.Context, payload []byte, signature string) error

	GetSubscription(ctx context.Context, userID string) (*dto.SubscriptionResponse, error)
	CancelSubscription(ctx context.Context, userID string) error
	Plans() []dto.PlanResponse

	// Reconcile is the idempotent repair pass over provider state:
	// collapse duplicate provider subscriptions to the newest, rebuild
	// or retire local records to match, and complete pending credit
	// purchases whose sessions turn out paid.
	Reconcile(ctx context.Context) (*dto.ReconcileResponse, error)
}

type paymentService struct {
	userRepo   repositories.UserRepository
	subRepo    repositories.SubscriptionRepository
	creditRepo repositories.CreditRepository
	unlockRepo repositories.UnlockRepository
	jobs       JobService
	provider   payments.Provider
	prices     PlanPrices
	baseURL    string
	currency   string
	now        func() time.Time
}

func NewPaymentService(
	userRepo repositories.UserRepository,
	subRepo repositories.SubscriptionRepository,
	creditRepo repositories.CreditRepository,
	unlockRepo repositories.UnlockRepository,
	jobs JobService,
	provider payments.Provider,
	prices PlanPrices,
	baseURL, currency string,
) PaymentService {
	return &paymentService{
		userRepo:   userRepo,
		subRepo:    subRepo,
		creditRepo: creditRepo,
		unlockRepo: unlockRepo,
		jobs:       jobs,
		provider:   provider,
		prices:     prices,
		baseURL:    baseURL,
		currency:   currency,
		now:        time.Now,
	}
}

func (s *paymentService) CheckoutSubscription(ctx context.Context, userID, plan string) (*dto.CheckoutResponse, error) {
	planType := models.PlanType(plan)
	priceID, ok := s.prices.PriceFor(planType)
	if !ok {
		return nil, apperrors.ErrUnknownPlan(plan)
	}

	customerID, err := s.ensureCustomer(ctx, userID)
	if err != nil {
		return nil, err
	}

	session, err := s.provider.CreateCheckoutSession(ctx, payments.CheckoutParams{
		CustomerID: customerID,
		Mode:       "subscription",
		PriceID:    priceID,
		Metadata: map[string]string{
			payments.MetaType:   payments.SessionTypeSubscription,
			payments.MetaUserID: userID,
			payments.MetaPlan:   plan,
		},
		SuccessURL: s.baseURL + "/billing/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.baseURL + "/billing/cancelled",
	})
	if err != nil {
		return nil, apperrors.ErrPaymentProvider(err)
	}
	return &dto.CheckoutResponse{SessionID: session.ID, CheckoutURL: session.URL}, nil
}

func (s *paymentService) CheckoutJobFeature(ctx context.Context, userID, jobID string, feature string) (*dto.CheckoutResponse, error) {
	featureType := models.JobFeature(feature)
	price, ok := models.FeaturePriceCents(featureType)
	if !ok {
		return nil, apperrors.NewBadRequestError(fmt.Sprintf("unknown job feature %q", feature))
	}

	job, err := s.jobs.Get(jobID, userID)
	if err != nil {
		return nil, err
	}
	if job.EmployerID != userID {
		return nil, apperrors.ErrNotJobOwner()
	}

	customerID, err := s.ensureCustomer(ctx, userID)
	if err != nil {
		return nil, err
	}

	session, err := s.provider.CreateCheckoutSession(ctx, payments.CheckoutParams{
		CustomerID:  customerID,
		Mode:        "payment",
		AmountCents: price,
		Currency:    s.currency,
		Description: fmt.Sprintf("%s listing add-on: %s", feature, job.Title),
		Metadata: map[string]string{
			payments.MetaType:   payments.SessionTypeJobFeature,
			payments.MetaUserID: userID,
			payments.MetaJobID:  jobID,
			payments.MetaAddon:  feature,
		},
		SuccessURL: s.baseURL + "/billing/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.baseURL + "/billing/cancelled",
	})
	if err != nil {
		return nil, apperrors.ErrPaymentProvider(err)
	}

	purchase := &models.JobFeaturePurchase{
		JobID:             jobID,
		EmployerID:        userID,
		Feature:           featureType,
		AmountCents:       price,
		CheckoutSessionID: session.ID,
		Status:            models.PurchaseStatusPending,
		SessionMetadata:   sessionMetadataJSON(session.Metadata),
	}
	if err := s.unlockRepo.CreateFeaturePurchase(purchase); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return &dto.CheckoutResponse{SessionID: session.ID, CheckoutURL: session.URL}, nil
}

func (s *paymentService) CheckoutCredits(ctx context.Context, userID, pack string) (*dto.CheckoutResponse, error) {
	packType := models.CreditPack(pack)
	info, ok := models.PackInfo(packType)
	if !ok {
		return nil, apperrors.ErrUnknownCreditPack(pack)
	}

	customerID, err := s.ensureCustomer(ctx, userID)
	if err != nil {
		return nil, err
	}

	session, err := s.provider.CreateCheckoutSession(ctx, payments.CheckoutParams{
		CustomerID:  customerID,
		Mode:        "payment",
		AmountCents: info.PriceCents,
		Currency:    s.currency,
		Description: fmt.Sprintf("%d resume credits", info.Credits),
		Metadata: map[string]string{
			payments.MetaType:   payments.SessionTypeCreditPurchase,
			payments.MetaUserID: userID,
			payments.MetaPack:   pack,
		},
		SuccessURL: s.baseURL + "/billing/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.baseURL + "/billing/cancelled",
	})
	if err != nil {
		return nil, apperrors.ErrPaymentProvider(err)
	}

	purchase := &models.CreditPurchase{
		UserID:            userID,
		Pack:              packType,
		Credits:           info.Credits,
		AmountCents:       info.PriceCents,
		CheckoutSessionID: session.ID,
		Status:            models.PurchaseStatusPending,
		SessionMetadata:   sessionMetadataJSON(session.Metadata),
	}
	if err := s.creditRepo.CreatePurchase(purchase); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return &dto.CheckoutResponse{SessionID: session.ID, CheckoutURL: session.URL}, nil
}

func (s *paymentService) ConfirmSession(ctx context.Context, userID, sessionID string) error {
	session, err := s.provider.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return apperrors.ErrPaymentProvider(err)
	}
	if !session.Paid() {
		return apperrors.ErrSessionNotPaid()
	}

	sessionUser := session.Metadata[payments.MetaUserID]
	if userID != "" && sessionUser != userID {
		return apperrors.NewForbiddenError("checkout session belongs to another account")
	}

	sessionType := session.Metadata[payments.MetaType]
	switch sessionType {
	case payments.SessionTypeSubscription:
		return s.applySubscriptionSession(ctx, sessionUser, session)
	case payments.SessionTypeJobFeature:
		return s.applyFeatureSession(ctx, sessionUser, session)
	case payments.SessionTypeCreditPurchase:
		return s.applyCreditSession(ctx, sessionUser, session)
	default:
		return apperrors.ErrUnknownSessionType(sessionType)
	}
}

func (s *paymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.provider.VerifyWebhook(payload, signature)
	if err != nil {
		return apperrors.NewBadRequestError("invalid webhook signature")
	}
	if event.Type != "checkout.session.completed" || event.SessionID == "" {
		logger.CtxDebug(ctx, "payments: ignoring webhook event", "type", event.Type)
		return nil
	}
	return s.ConfirmSession(ctx, "", event.SessionID)
}

// applySubscriptionSession activates the purchased plan. Replacing an
// existing subscription cancels the old one at the provider so the user
// is never double-billed; the local partial unique index guarantees at
// most one active row per user however the calls interleave.
func (s *paymentService) applySubscriptionSession(ctx context.Context, userID string, session *payments.CheckoutSession) error {
	plan := models.PlanType(session.Metadata[payments.MetaPlan])
	if _, ok := s.prices.PriceFor(plan); !ok {
		return apperrors.ErrUnknownPlan(string(plan))
	}

	existing, err := s.subRepo.FindActiveByUser(userID)
	if err != nil && err != repositories.ErrSubscriptionNotFound {
		return apperrors.InternalError(err)
	}
	if existing != nil {
		if existing.ProviderSubscriptionID == session.SubscriptionID {
			return nil // replay of an already-applied session
		}
		if existing.ProviderSubscriptionID != "" {
			if err := s.provider.CancelSubscription(ctx, existing.ProviderSubscriptionID); err != nil {
				logger.CtxWithError(ctx, err).Warn("payments: cancel of replaced subscription failed",
					"provider_subscription_id", existing.ProviderSubscriptionID)
			}
		}
		if err := s.subRepo.MarkReplaced(existing.ID); err != nil {
			return apperrors.InternalError(err)
		}
	}

	ent := models.EntitlementsFor(plan)
	sub := &models.Subscription{
		UserID:                 userID,
		PlanType:               plan,
		ProviderSubscriptionID: session.SubscriptionID,
		ActiveJobsLimit:        ent.ActiveJobsLimit,
		MonthlyCredits:         ent.MonthlyCredits,
	}
	if periodEnd := s.lookupPeriodEnd(ctx, session); periodEnd != nil {
		sub.CurrentPeriodEnd = periodEnd
	}
	if err := s.subRepo.CreateActive(sub); err != nil {
		if err == repositories.ErrActiveSubExists {
			// A concurrent confirm won; nothing left to apply.
			return nil
		}
		return apperrors.InternalError(err)
	}

	// The new plan's allotment is available immediately, not on the next
	// rolling refresh.
	balance, err := s.creditRepo.GetOrCreateBalance(userID)
	if err != nil {
		return apperrors.InternalError(err)
	}
	balance.MonthlyCredits = ent.MonthlyCredits
	balance.LastMonthlyRefresh = s.now()
	if err := s.creditRepo.UpdateBalance(balance); err != nil {
		return apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "payments: subscription activated", "user_id", userID, "plan", string(plan))
	return nil
}

// applyFeatureSession flips the paid add-on. The audit row keyed by the
// session id decides whether this invocation is the first; replays and
// the confirm/webhook pair fall through without touching the job twice.
func (s *paymentService) applyFeatureSession(ctx context.Context, userID string, session *payments.CheckoutSession) error {
	jobID := session.Metadata[payments.MetaJobID]
	feature := models.JobFeature(session.Metadata[payments.MetaAddon])
	if _, ok := models.FeaturePriceCents(feature); !ok || jobID == "" {
		return apperrors.NewBadRequestError("checkout session has malformed job feature metadata")
	}

	purchase, err := s.unlockRepo.FindFeaturePurchaseBySession(session.ID)
	switch err {
	case nil:
		applied, err := s.unlockRepo.CompleteFeaturePurchase(purchase.ID, s.now())
		if err != nil {
			return apperrors.InternalError(err)
		}
		if !applied {
			return nil
		}
	case repositories.ErrFeaturePurchaseNotFound:
		// Session created outside this process; the insert below is the
		// idempotency gate.
		price, _ := models.FeaturePriceCents(feature)
		completedAt := s.now()
		record := &models.JobFeaturePurchase{
			JobID:             jobID,
			EmployerID:        userID,
			Feature:           feature,
			AmountCents:       price,
			CheckoutSessionID: session.ID,
			Status:            models.PurchaseStatusCompleted,
			CompletedAt:       &completedAt,
			SessionMetadata:   sessionMetadataJSON(session.Metadata),
		}
		if err := s.unlockRepo.CreateFeaturePurchase(record); err != nil {
			if err == repositories.ErrDuplicateSession {
				return nil
			}
			return apperrors.InternalError(err)
		}
	default:
		return apperrors.InternalError(err)
	}

	if err := s.jobs.ApplyFeature(jobID, feature); err != nil {
		return err
	}
	logger.CtxInfo(ctx, "payments: job feature applied", "job_id", jobID, "feature", string(feature))
	return nil
}

func (s *paymentService) applyCreditSession(ctx context.Context, userID string, session *payments.CheckoutSession) error {
	pack := models.CreditPack(session.Metadata[payments.MetaPack])
	info, ok := models.PackInfo(pack)
	if !ok {
		return apperrors.ErrUnknownCreditPack(string(pack))
	}

	purchase, err := s.creditRepo.FindPurchaseBySession(session.ID)
	switch err {
	case nil:
		// Reuse the pending row; the status flip below is racing the
		// webhook for the same session.
	case repositories.ErrPurchaseNotFound:
		completedAt := s.now()
		record := &models.CreditPurchase{
			UserID:            userID,
			Pack:              pack,
			Credits:           info.Credits,
			AmountCents:       info.PriceCents,
			CheckoutSessionID: session.ID,
			Status:            models.PurchaseStatusCompleted,
			CompletedAt:       &completedAt,
			SessionMetadata:   sessionMetadataJSON(session.Metadata),
		}
		if cerr := s.creditRepo.CreatePurchase(record); cerr != nil {
			if cerr == repositories.ErrDuplicateSession {
				return nil
			}
			return apperrors.InternalError(cerr)
		}
		if cerr := s.creditRepo.AddPurchased(userID, info.Credits); cerr != nil {
			return apperrors.InternalError(cerr)
		}
		logger.CtxInfo(ctx, "payments: credits granted", "user_id", userID, "credits", info.Credits)
		return nil
	default:
		return apperrors.InternalError(err)
	}

	granted, err := s.creditRepo.CompletePurchase(purchase.ID, s.now())
	if err != nil {
		return apperrors.InternalError(err)
	}
	if !granted {
		return nil
	}
	if err := s.creditRepo.AddPurchased(purchase.UserID, purchase.Credits); err != nil {
		return apperrors.InternalError(err)
	}
	logger.CtxInfo(ctx, "payments: credits granted", "user_id", purchase.UserID, "credits", purchase.Credits)
	return nil
}

func (s *paymentService) GetSubscription(ctx context.Context, userID string) (*dto.SubscriptionResponse, error) {
	sub, err := s.subRepo.FindActiveByUser(userID)
	if err != nil {
		if err == repositories.ErrSubscriptionNotFound {
			ent := models.EntitlementsFor(models.PlanFree)
			return &dto.SubscriptionResponse{
				Plan:            string(models.PlanFree),
				Status:          string(models.SubscriptionStatusActive),
				ActiveJobsLimit: ent.ActiveJobsLimit,
				MonthlyCredits:  ent.MonthlyCredits,
			}, nil
		}
		return nil, apperrors.InternalError(err)
	}
	return &dto.SubscriptionResponse{
		Plan:             string(sub.PlanType),
		Status:           string(sub.Status),
		ActiveJobsLimit:  sub.ActiveJobsLimit,
		MonthlyCredits:   sub.MonthlyCredits,
		CurrentPeriodEnd: sub.CurrentPeriodEnd,
		CancelledAt:      sub.CancelledAt,
	}, nil
}

func (s *paymentService) CancelSubscription(ctx context.Context, userID string) error {
	sub, err := s.subRepo.FindActiveByUser(userID)
	if err != nil {
		if err == repositories.ErrSubscriptionNotFound {
			return apperrors.ErrSubscriptionNotFound()
		}
		return apperrors.InternalError(err)
	}
	if sub.ProviderSubscriptionID != "" {
		if err := s.provider.CancelSubscription(ctx, sub.ProviderSubscriptionID); err != nil {
			return apperrors.ErrPaymentProvider(err)
		}
	}
	if err := s.subRepo.MarkCancelled(sub.ID, s.now()); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *paymentService) Plans() []dto.PlanResponse {
	plans := []models.PlanType{
		models.PlanFree, models.PlanStarter, models.PlanGrowth,
		models.PlanProfessional, models.PlanEnterprise,
	}
	out := make([]dto.PlanResponse, 0, len(plans))
	for _, plan := range plans {
		ent := models.EntitlementsFor(plan)
		priceID, _ := s.prices.PriceFor(plan)
		out = append(out, dto.PlanResponse{
			Plan:            string(plan),
			ActiveJobsLimit: ent.ActiveJobsLimit,
			MonthlyCredits:  ent.MonthlyCredits,
			PriceID:         priceID,
		})
	}
	return out
}

func (s *paymentService) Reconcile(ctx context.Context) (*dto.ReconcileResponse, error) {
	profiles, err := s.userRepo.ListProfilesWithPaymentCustomer()
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	report := &dto.ReconcileResponse{}
	for i := range profiles {
		profile := &profiles[i]
		report.CheckedUsers++
		if err := s.reconcileUser(ctx, profile, report); err != nil {
			logger.CtxWithError(ctx, err).Error("payments: reconcile failed for user", "user_id", profile.UserID)
		}
	}
	return report, nil
}

func (s *paymentService) reconcileUser(ctx context.Context, profile *models.Profile, report *dto.ReconcileResponse) error {
	remote, err := s.provider.ListActiveSubscriptions(ctx, profile.PaymentCustomerID)
	if err != nil {
		return err
	}

	newest := newestSubscription(remote)
	for i := range remote {
		if newest != nil && remote[i].ID == newest.ID {
			continue
		}
		if err := s.provider.CancelSubscription(ctx, remote[i].ID); err != nil {
			logger.CtxWithError(ctx, err).Warn("payments: cancel of duplicate subscription failed",
				"provider_subscription_id", remote[i].ID)
			continue
		}
		report.CancelledExtra++
	}

	local, err := s.subRepo.FindActiveByUser(profile.UserID)
	if err != nil && err != repositories.ErrSubscriptionNotFound {
		return err
	}

	switch {
	case newest == nil && local != nil:
		if err := s.subRepo.MarkExpired(local.ID); err != nil {
			return err
		}
		report.RepairedUsers++
	case newest != nil && local == nil:
		plan, ok := s.prices.PlanFor(newest.PriceID)
		if !ok {
			return fmt.Errorf("provider subscription %s has unknown price %s", newest.ID, newest.PriceID)
		}
		ent := models.EntitlementsFor(plan)
		periodEnd := newest.CurrentPeriodEnd
		sub := &models.Subscription{
			UserID:                 profile.UserID,
			PlanType:               plan,
			ProviderSubscriptionID: newest.ID,
			ActiveJobsLimit:        ent.ActiveJobsLimit,
			MonthlyCredits:         ent.MonthlyCredits,
			CurrentPeriodEnd:       &periodEnd,
		}
		if err := s.subRepo.CreateActive(sub); err != nil && err != repositories.ErrActiveSubExists {
			return err
		}
		report.RepairedUsers++
	case newest != nil && local != nil && local.ProviderSubscriptionID != newest.ID:
		plan, ok := s.prices.PlanFor(newest.PriceID)
		if !ok {
			return fmt.Errorf("provider subscription %s has unknown price %s", newest.ID, newest.PriceID)
		}
		ent := models.EntitlementsFor(plan)
		periodEnd := newest.CurrentPeriodEnd
		local.PlanType = plan
		local.ProviderSubscriptionID = newest.ID
		local.ActiveJobsLimit = ent.ActiveJobsLimit
		local.MonthlyCredits = ent.MonthlyCredits
		local.CurrentPeriodEnd = &periodEnd
		if err := s.subRepo.Update(local); err != nil {
			return err
		}
		report.RepairedUsers++
	}

	pending, err := s.creditRepo.ListPendingPurchases(profile.UserID)
	if err != nil {
		return err
	}
	for i := range pending {
		session, err := s.provider.GetCheckoutSession(ctx, pending[i].CheckoutSessionID)
		if err != nil || !session.Paid() {
			continue
		}
		granted, err := s.creditRepo.CompletePurchase(pending[i].ID, s.now())
		if err != nil {
			return err
		}
		if !granted {
			continue
		}
		if err := s.creditRepo.AddPurchased(pending[i].UserID, pending[i].Credits); err != nil {
			return err
		}
		report.CompletedPending++
	}
	return nil
}

func (s *paymentService) ensureCustomer(ctx context.Context, userID string) (string, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return "", apperrors.InternalError(err)
	}
	existing := ""
	if user.Profile != nil {
		existing = user.Profile.PaymentCustomerID
	}

	customerID, err := s.provider.EnsureCustomer(ctx, user.Email, userID, existing)
	if err != nil {
		return "", apperrors.ErrPaymentProvider(err)
	}
	if customerID != existing {
		if err := s.userRepo.SetPaymentCustomerID(userID, customerID); err != nil {
			return "", apperrors.InternalError(err)
		}
	}
	return customerID, nil
}

// lookupPeriodEnd asks the provider for the new subscription's billing
// period. Best effort; reconciliation fills it in later if this misses.
func (s *paymentService) lookupPeriodEnd(ctx context.Context, session *payments.CheckoutSession) *time.Time {
	if session.CustomerID == "" || session.SubscriptionID == "" {
		return nil
	}
	remote, err := s.provider.ListActiveSubscriptions(ctx, session.CustomerID)
	if err != nil {
		return nil
	}
	for i := range remote {
		if remote[i].ID == session.SubscriptionID {
			end := remote[i].CurrentPeriodEnd
			return &end
		}
	}
	return nil
}

// sessionMetadataJSON snapshots session metadata for the audit row.
func sessionMetadataJSON(metadata map[string]string) datatypes.JSON {
	if len(metadata) == 0 {
		return nil
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}
