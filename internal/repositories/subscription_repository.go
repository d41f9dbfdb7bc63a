package repositories

import (
	"errors"
	"time"

	"tradeboard_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrActiveSubExists      = errors.New("user already has an active subscription")
)

type SubscriptionRepository interface {
	// CreateActive inserts a new active subscription. The partial unique
	// index over (user_id) WHERE status = 'active' rejects a second
	// concurrent activation with ErrActiveSubExists.
	CreateActive(sub *models.Subscription) error
	FindActiveByUser(userID string) (*models.Subscription, error)
	FindByProviderSubID(providerSubID string) (*models.Subscription, error)
	Update(sub *models.Subscription) error
	MarkReplaced(id string) error
	MarkCancelled(id string, at time.Time) error
	MarkExpired(id string) error
	ListActive() ([]models.Subscription, error)
}

type SubscriptionRepositoryImpl struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &SubscriptionRepositoryImpl{db: db}
}

func (r *SubscriptionRepositoryImpl) CreateActive(sub *models.Subscription) error {
	sub.Status = models.SubscriptionStatusActive
	err := r.db.Create(sub).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrActiveSubExists
	}
	return err
}

func (r *SubscriptionRepositoryImpl) FindActiveByUser(userID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("user_id = ? AND status = ?", userID, models.SubscriptionStatusActive).
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionRepositoryImpl) FindByProviderSubID(providerSubID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("provider_subscription_id = ?", providerSubID).First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionRepositoryImpl) Update(sub *models.Subscription) error {
	return r.db.Save(sub).Error
}

func (r *SubscriptionRepositoryImpl) MarkReplaced(id string) error {
	return r.db.Model(&models.Subscription{}).Where("id = ?", id).
		Update("status", models.SubscriptionStatusReplaced).Error
}

func (r *SubscriptionRepositoryImpl) MarkCancelled(id string, at time.Time) error {
	return r.db.Model(&models.Subscription{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":       models.SubscriptionStatusCancelled,
		"cancelled_at": at,
	}).Error
}

func (r *SubscriptionRepositoryImpl) MarkExpired(id string) error {
	return r.db.Model(&models.Subscription{}).Where("id = ?", id).
		Update("status", models.SubscriptionStatusExpired).Error
}

func (r *SubscriptionRepositoryImpl) ListActive() ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.Where("status = ?", models.SubscriptionStatusActive).Find(&subs).Error
	return subs, err
}
