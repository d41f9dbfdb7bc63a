package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"tradeboard_backend/internal/models"
	"tradeboard_backend/internal/payments"
	"tradeboard_backend/internal/pkg/email"
	"tradeboard_backend/internal/repositories"

	"github.com/google/uuid"
)

// In-memory repository fakes backing the service tests. They reproduce
// the same sentinel errors and uniqueness rules the real repositories
// get from the database.

func newTestNotifier() *Notifier {
	return NewNotifier(email.NewLogSender())
}

// --- users ---

type fakeUserRepo struct {
	users    map[string]*models.User
	profiles map[string]*models.Profile
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:    make(map[string]*models.User),
		profiles: make(map[string]*models.Profile),
	}
}

func (f *fakeUserRepo) addUser(emailAddr string, role models.UserRole, fullName string) *models.User {
	user := &models.User{
		Email:  emailAddr,
		Role:   role,
		Status: models.UserStatusActive,
	}
	profile := &models.Profile{FullName: fullName}
	if err := f.Create(user, profile); err != nil {
		panic(err)
	}
	return user
}

func (f *fakeUserRepo) Create(user *models.User, profile *models.Profile) error {
	for _, u := range f.users {
		if u.Email == user.Email {
			return repositories.ErrEmailTaken
		}
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	profile.ID = uuid.New().String()
	profile.UserID = user.ID
	user.Profile = profile
	f.users[user.ID] = user
	f.profiles[user.ID] = profile
	return nil
}

func (f *fakeUserRepo) FindByID(id string) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	user.Profile = f.profiles[id]
	return user, nil
}

func (f *fakeUserRepo) FindByEmail(emailAddr string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == emailAddr {
			u.Profile = f.profiles[u.ID]
			return u, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (f *fakeUserRepo) FindByResetToken(token string) (*models.User, error) {
	for _, u := range f.users {
		if u.ResetToken == token && token != "" {
			return u, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (f *fakeUserRepo) Update(user *models.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) UpdatePassword(id string, passwordHash string) error {
	user, ok := f.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	return nil
}

func (f *fakeUserRepo) SetResetToken(id string, token string, expires time.Time) error {
	user, ok := f.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.ResetToken = token
	user.ResetTokenExp = &expires
	return nil
}

func (f *fakeUserRepo) ClearResetToken(id string) error {
	user, ok := f.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.ResetToken = ""
	user.ResetTokenExp = nil
	return nil
}

func (f *fakeUserRepo) FindProfile(userID string) (*models.Profile, error) {
	profile, ok := f.profiles[userID]
	if !ok {
		return nil, repositories.ErrProfileNotFound
	}
	return profile, nil
}

func (f *fakeUserRepo) UpdateProfile(profile *models.Profile) error {
	f.profiles[profile.UserID] = profile
	return nil
}

func (f *fakeUserRepo) SetPaymentCustomerID(userID string, customerID string) error {
	profile, ok := f.profiles[userID]
	if !ok {
		return repositories.ErrProfileNotFound
	}
	profile.PaymentCustomerID = customerID
	return nil
}

func (f *fakeUserRepo) ListProfilesWithPaymentCustomer() ([]models.Profile, error) {
	var out []models.Profile
	for _, p := range f.profiles {
		if p.PaymentCustomerID != "" {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

// --- jobs ---

type fakeJobRepo struct {
	jobs  map[string]*models.Job
	clock func() time.Time
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[string]*models.Job), clock: time.Now}
}

func (f *fakeJobRepo) Create(job *models.Job) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = f.clock()
	}
	stored := *job
	f.jobs[job.ID] = &stored
	return nil
}

func (f *fakeJobRepo) FindByID(id string) (*models.Job, error) {
	job, ok := f.jobs[id]
	if !ok {
		return nil, repositories.ErrJobNotFound
	}
	cp := *job
	return &cp, nil
}

func (f *fakeJobRepo) Update(job *models.Job) error {
	if _, ok := f.jobs[job.ID]; !ok {
		return repositories.ErrJobNotFound
	}
	stored := *job
	f.jobs[job.ID] = &stored
	return nil
}

func (f *fakeJobRepo) UpdateStatus(id string, status models.JobStatus) error {
	job, ok := f.jobs[id]
	if !ok {
		return repositories.ErrJobNotFound
	}
	job.Status = status
	return nil
}

func (f *fakeJobRepo) SoftDelete(id string, now time.Time) error {
	job, ok := f.jobs[id]
	if !ok {
		return repositories.ErrJobNotFound
	}
	job.Status = models.JobStatusDeleted
	job.DeletedAt = &now
	return nil
}

func (f *fakeJobRepo) ListPublic(filter repositories.JobFilter) ([]models.Job, int64, error) {
	var matched []models.Job
	for _, job := range f.jobs {
		if job.Status != models.JobStatusActive {
			continue
		}
		if filter.Region != "" && job.Region != filter.Region {
			continue
		}
		if filter.Trade != "" && job.Trade != filter.Trade {
			continue
		}
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(job.Title), needle) &&
				!strings.Contains(strings.ToLower(job.Description), needle) {
				continue
			}
		}
		matched = append(matched, *job)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].IsFeatured != matched[j].IsFeatured {
			return matched[i].IsFeatured
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	total := int64(len(matched))
	if filter.Offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (f *fakeJobRepo) ListByEmployer(employerID string) ([]models.Job, error) {
	var out []models.Job
	for _, job := range f.jobs {
		if job.EmployerID == employerID && job.Status != models.JobStatusDeleted {
			out = append(out, *job)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeJobRepo) CountActiveByEmployer(employerID string) (int64, error) {
	var n int64
	for _, job := range f.jobs {
		if job.EmployerID == employerID && job.Status == models.JobStatusActive {
			n++
		}
	}
	return n, nil
}

func (f *fakeJobRepo) IncrementViews(id string) error {
	job, ok := f.jobs[id]
	if !ok {
		return repositories.ErrJobNotFound
	}
	job.Views++
	return nil
}

func (f *fakeJobRepo) FindFreeExpiringBefore(deadline time.Time) ([]models.Job, error) {
	var out []models.Job
	for _, job := range f.jobs {
		if job.Status == models.JobStatusActive && job.IsFree &&
			job.ExpiresAt != nil && !job.ExpiresAt.After(deadline) {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (f *fakeJobRepo) ClearExpiredFeatures(now time.Time) (int64, error) {
	var cleared int64
	for _, job := range f.jobs {
		if job.IsFeatured && job.FeaturedUntil != nil && job.FeaturedUntil.Before(now) {
			job.IsFeatured = false
			job.FeaturedUntil = nil
			cleared++
		}
		if job.IsUrgent && job.UrgentUntil != nil && job.UrgentUntil.Before(now) {
			job.IsUrgent = false
			job.UrgentUntil = nil
			cleared++
		}
	}
	return cleared, nil
}

// --- applications ---

type fakeAppRepo struct {
	apps    map[string]*models.Application
	prompts map[string]bool
	jobs    *fakeJobRepo
}

func newFakeAppRepo(jobs *fakeJobRepo) *fakeAppRepo {
	return &fakeAppRepo{
		apps:    make(map[string]*models.Application),
		prompts: make(map[string]bool),
		jobs:    jobs,
	}
}

func (f *fakeAppRepo) Create(app *models.Application) error {
	for _, a := range f.apps {
		if a.JobID == app.JobID && a.ApplicantID == app.ApplicantID {
			return repositories.ErrDuplicateApplication
		}
	}
	if app.ID == "" {
		app.ID = uuid.New().String()
	}
	if app.CreatedAt.IsZero() {
		app.CreatedAt = time.Now()
	}
	stored := *app
	stored.Job = nil
	f.apps[app.ID] = &stored
	return nil
}

func (f *fakeAppRepo) FindByID(id string) (*models.Application, error) {
	app, ok := f.apps[id]
	if !ok {
		return nil, repositories.ErrApplicationNotFound
	}
	cp := *app
	if f.jobs != nil {
		if job, err := f.jobs.FindByID(cp.JobID); err == nil {
			cp.Job = job
		}
	}
	return &cp, nil
}

func (f *fakeAppRepo) Update(app *models.Application) error {
	if _, ok := f.apps[app.ID]; !ok {
		return repositories.ErrApplicationNotFound
	}
	stored := *app
	stored.Job = nil
	f.apps[app.ID] = &stored
	return nil
}

func (f *fakeAppRepo) ListByJob(jobID string, limit, offset int) ([]models.Application, int64, error) {
	var out []models.Application
	for _, a := range f.apps {
		if a.JobID == jobID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, limit, offset)
}

func (f *fakeAppRepo) ListByApplicant(applicantID string, limit, offset int) ([]models.Application, int64, error) {
	var out []models.Application
	for _, a := range f.apps {
		if a.ApplicantID == applicantID {
			cp := *a
			if f.jobs != nil {
				if job, err := f.jobs.FindByID(cp.JobID); err == nil {
					cp.Job = job
				}
			}
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, limit, offset)
}

func (f *fakeAppRepo) CountByJob(jobID string) (int64, error) {
	var n int64
	for _, a := range f.apps {
		if a.JobID == jobID {
			n++
		}
	}
	return n, nil
}

func (f *fakeAppRepo) RecordUpgradePrompt(jobID string, promptType string) (bool, error) {
	key := jobID + "/" + promptType
	if f.prompts[key] {
		return false, nil
	}
	f.prompts[key] = true
	return true, nil
}

func paginate(apps []models.Application, limit, offset int) ([]models.Application, int64, error) {
	total := int64(len(apps))
	if offset >= len(apps) {
		return nil, total, nil
	}
	apps = apps[offset:]
	if limit > 0 && limit < len(apps) {
		apps = apps[:limit]
	}
	return apps, total, nil
}

// --- subscriptions ---

type fakeSubRepo struct {
	subs map[string]*models.Subscription
}

func newFakeSubRepo() *fakeSubRepo {
	return &fakeSubRepo{subs: make(map[string]*models.Subscription)}
}

func (f *fakeSubRepo) CreateActive(sub *models.Subscription) error {
	for _, s := range f.subs {
		if s.UserID == sub.UserID && s.Status == models.SubscriptionStatusActive {
			return repositories.ErrActiveSubExists
		}
	}
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	sub.Status = models.SubscriptionStatusActive
	stored := *sub
	f.subs[sub.ID] = &stored
	return nil
}

func (f *fakeSubRepo) FindActiveByUser(userID string) (*models.Subscription, error) {
	for _, s := range f.subs {
		if s.UserID == userID && s.Status == models.SubscriptionStatusActive {
			cp := *s
			return &cp, nil
		}
	}
	return nil, repositories.ErrSubscriptionNotFound
}

func (f *fakeSubRepo) FindByProviderSubID(providerSubID string) (*models.Subscription, error) {
	for _, s := range f.subs {
		if s.ProviderSubscriptionID == providerSubID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, repositories.ErrSubscriptionNotFound
}

func (f *fakeSubRepo) Update(sub *models.Subscription) error {
	if _, ok := f.subs[sub.ID]; !ok {
		return repositories.ErrSubscriptionNotFound
	}
	stored := *sub
	f.subs[sub.ID] = &stored
	return nil
}

func (f *fakeSubRepo) setStatus(id string, status models.SubscriptionStatus) error {
	sub, ok := f.subs[id]
	if !ok {
		return repositories.ErrSubscriptionNotFound
	}
	sub.Status = status
	return nil
}

func (f *fakeSubRepo) MarkReplaced(id string) error {
	return f.setStatus(id, models.SubscriptionStatusReplaced)
}

func (f *fakeSubRepo) MarkCancelled(id string, at time.Time) error {
	if sub, ok := f.subs[id]; ok {
		sub.CancelledAt = &at
	}
	return f.setStatus(id, models.SubscriptionStatusCancelled)
}

func (f *fakeSubRepo) MarkExpired(id string) error {
	return f.setStatus(id, models.SubscriptionStatusExpired)
}

func (f *fakeSubRepo) ListActive() ([]models.Subscription, error) {
	var out []models.Subscription
	for _, s := range f.subs {
		if s.Status == models.SubscriptionStatusActive {
			out = append(out, *s)
		}
	}
	return out, nil
}

// --- credits ---

type fakeCreditRepo struct {
	balances  map[string]*models.CreditBalance
	purchases map[string]*models.CreditPurchase
}

func newFakeCreditRepo() *fakeCreditRepo {
	return &fakeCreditRepo{
		balances:  make(map[string]*models.CreditBalance),
		purchases: make(map[string]*models.CreditPurchase),
	}
}

func (f *fakeCreditRepo) GetOrCreateBalance(userID string) (*models.CreditBalance, error) {
	if b, ok := f.balances[userID]; ok {
		cp := *b
		return &cp, nil
	}
	b := &models.CreditBalance{UserID: userID}
	b.ID = uuid.New().String()
	f.balances[userID] = b
	cp := *b
	return &cp, nil
}

func (f *fakeCreditRepo) UpdateBalance(balance *models.CreditBalance) error {
	stored := *balance
	f.balances[balance.UserID] = &stored
	return nil
}

func (f *fakeCreditRepo) Consume(userID string, n int) (*models.CreditBalance, error) {
	b, ok := f.balances[userID]
	if !ok || b.Total() < n {
		return nil, repositories.ErrInsufficientCredits
	}
	fromMonthly := n
	if fromMonthly > b.MonthlyCredits {
		fromMonthly = b.MonthlyCredits
	}
	b.MonthlyCredits -= fromMonthly
	b.PurchasedCredits -= n - fromMonthly
	cp := *b
	return &cp, nil
}

func (f *fakeCreditRepo) AddPurchased(userID string, n int) error {
	b, ok := f.balances[userID]
	if !ok {
		b = &models.CreditBalance{UserID: userID}
		b.ID = uuid.New().String()
		f.balances[userID] = b
	}
	b.PurchasedCredits += n
	return nil
}

func (f *fakeCreditRepo) CreatePurchase(purchase *models.CreditPurchase) error {
	for _, p := range f.purchases {
		if p.CheckoutSessionID == purchase.CheckoutSessionID {
			return repositories.ErrDuplicateSession
		}
	}
	if purchase.ID == "" {
		purchase.ID = uuid.New().String()
	}
	stored := *purchase
	f.purchases[purchase.ID] = &stored
	return nil
}

func (f *fakeCreditRepo) FindPurchaseBySession(sessionID string) (*models.CreditPurchase, error) {
	for _, p := range f.purchases {
		if p.CheckoutSessionID == sessionID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repositories.ErrPurchaseNotFound
}

func (f *fakeCreditRepo) ListPendingPurchases(userID string) ([]models.CreditPurchase, error) {
	var out []models.CreditPurchase
	for _, p := range f.purchases {
		if p.UserID == userID && p.Status == models.PurchaseStatusPending {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeCreditRepo) CompletePurchase(id string, at time.Time) (bool, error) {
	p, ok := f.purchases[id]
	if !ok || p.Status != models.PurchaseStatusPending {
		return false, nil
	}
	p.Status = models.PurchaseStatusCompleted
	p.CompletedAt = &at
	return true, nil
}

// --- unlocks and feature purchases ---

type fakeUnlockRepo struct {
	unlocks   map[string]*models.ResumeUnlock
	purchases map[string]*models.JobFeaturePurchase
}

func newFakeUnlockRepo() *fakeUnlockRepo {
	return &fakeUnlockRepo{
		unlocks:   make(map[string]*models.ResumeUnlock),
		purchases: make(map[string]*models.JobFeaturePurchase),
	}
}

func unlockKey(employerID, applicantID string) string {
	return employerID + "/" + applicantID
}

func (f *fakeUnlockRepo) CreateUnlock(unlock *models.ResumeUnlock) error {
	key := unlockKey(unlock.EmployerID, unlock.ApplicantID)
	if _, ok := f.unlocks[key]; ok {
		return repositories.ErrAlreadyUnlocked
	}
	if unlock.ID == "" {
		unlock.ID = uuid.New().String()
	}
	stored := *unlock
	f.unlocks[key] = &stored
	return nil
}

func (f *fakeUnlockRepo) FindUnlock(employerID, applicantID string) (*models.ResumeUnlock, error) {
	unlock, ok := f.unlocks[unlockKey(employerID, applicantID)]
	if !ok {
		return nil, nil
	}
	cp := *unlock
	return &cp, nil
}

func (f *fakeUnlockRepo) ListByEmployer(employerID string) ([]models.ResumeUnlock, error) {
	var out []models.ResumeUnlock
	for _, u := range f.unlocks {
		if u.EmployerID == employerID {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUnlockRepo) CreateFeaturePurchase(purchase *models.JobFeaturePurchase) error {
	for _, p := range f.purchases {
		if p.CheckoutSessionID == purchase.CheckoutSessionID {
			return repositories.ErrDuplicateSession
		}
	}
	if purchase.ID == "" {
		purchase.ID = uuid.New().String()
	}
	stored := *purchase
	f.purchases[purchase.ID] = &stored
	return nil
}

func (f *fakeUnlockRepo) FindFeaturePurchaseBySession(sessionID string) (*models.JobFeaturePurchase, error) {
	for _, p := range f.purchases {
		if p.CheckoutSessionID == sessionID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repositories.ErrFeaturePurchaseNotFound
}

func (f *fakeUnlockRepo) CompleteFeaturePurchase(id string, at time.Time) (bool, error) {
	p, ok := f.purchases[id]
	if !ok || p.Status != models.PurchaseStatusPending {
		return false, nil
	}
	p.Status = models.PurchaseStatusCompleted
	p.CompletedAt = &at
	return true, nil
}

// --- payment provider ---

type fakeProvider struct {
	sessions     map[string]*payments.CheckoutSession
	subsByCust   map[string][]payments.Subscription
	cancelled    []string
	webhookEvent *payments.WebhookEvent
	webhookErr   error
	nextSession  int
	listCalls    int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		sessions:   make(map[string]*payments.CheckoutSession),
		subsByCust: make(map[string][]payments.Subscription),
	}
}

func (f *fakeProvider) EnsureCustomer(_ context.Context, _, userID, existingID string) (string, error) {
	if existingID != "" {
		return existingID, nil
	}
	return "cus_" + userID, nil
}

func (f *fakeProvider) CreateCheckoutSession(_ context.Context, params payments.CheckoutParams) (*payments.CheckoutSession, error) {
	f.nextSession++
	id := fmt.Sprintf("cs_%d", f.nextSession)
	session := &payments.CheckoutSession{
		ID:            id,
		URL:           "https://checkout.example.com/" + id,
		PaymentStatus: "unpaid",
		Metadata:      params.Metadata,
		CustomerID:    params.CustomerID,
	}
	f.sessions[id] = session
	cp := *session
	return &cp, nil
}

func (f *fakeProvider) GetCheckoutSession(_ context.Context, sessionID string) (*payments.CheckoutSession, error) {
	session, ok := f.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("no such session %s", sessionID)
	}
	cp := *session
	return &cp, nil
}

func (f *fakeProvider) ListActiveSubscriptions(_ context.Context, customerID string) ([]payments.Subscription, error) {
	f.listCalls++
	return append([]payments.Subscription(nil), f.subsByCust[customerID]...), nil
}

func (f *fakeProvider) CancelSubscription(_ context.Context, subscriptionID string) error {
	f.cancelled = append(f.cancelled, subscriptionID)
	for cust, subs := range f.subsByCust {
		kept := subs[:0]
		for _, s := range subs {
			if s.ID != subscriptionID {
				kept = append(kept, s)
			}
		}
		f.subsByCust[cust] = kept
	}
	return nil
}

func (f *fakeProvider) VerifyWebhook(_ []byte, _ string) (*payments.WebhookEvent, error) {
	if f.webhookErr != nil {
		return nil, f.webhookErr
	}
	if f.webhookEvent == nil {
		return &payments.WebhookEvent{}, nil
	}
	return f.webhookEvent, nil
}

// markPaid settles a previously created session, optionally attaching the
// provider subscription created by a subscription-mode checkout.
func (f *fakeProvider) markPaid(sessionID, subscriptionID string) {
	session := f.sessions[sessionID]
	session.PaymentStatus = "paid"
	session.SubscriptionID = subscriptionID
}
