package repositories

import (
	"errors"
	"time"

	"tradeboard_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrAlreadyUnlocked         = errors.New("resume already unlocked")
	ErrFeaturePurchaseNotFound = errors.New("job feature purchase not found")
)

type UnlockRepository interface {
	// CreateUnlock records an unlock for the pair. The unique index on
	// (employer_id, applicant_id) turns a concurrent second unlock into
	// ErrAlreadyUnlocked so the caller can refund nothing.
	CreateUnlock(unlock *models.ResumeUnlock) error
	FindUnlock(employerID, applicantID string) (*models.ResumeUnlock, error)
	ListByEmployer(employerID string) ([]models.ResumeUnlock, error)

	CreateFeaturePurchase(purchase *models.JobFeaturePurchase) error
	FindFeaturePurchaseBySession(sessionID string) (*models.JobFeaturePurchase, error)
	CompleteFeaturePurchase(id string, at time.Time) (bool, error)
}

type UnlockRepositoryImpl struct {
	db *gorm.DB
}

func NewUnlockRepository(db *gorm.DB) UnlockRepository {
	return &UnlockRepositoryImpl{db: db}
}

func (r *UnlockRepositoryImpl) CreateUnlock(unlock *models.ResumeUnlock) error {
	err := r.db.Create(unlock).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAlreadyUnlocked
	}
	return err
}

func (r *UnlockRepositoryImpl) FindUnlock(employerID, applicantID string) (*models.ResumeUnlock, error) {
	var unlock models.ResumeUnlock
	err := r.db.Where("employer_id = ? AND applicant_id = ?", employerID, applicantID).
		First(&unlock).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &unlock, nil
}

func (r *UnlockRepositoryImpl) ListByEmployer(employerID string) ([]models.ResumeUnlock, error) {
	var unlocks []models.ResumeUnlock
	err := r.db.Where("employer_id = ?", employerID).
		Order("created_at DESC").Find(&unlocks).Error
	return unlocks, err
}

func (r *UnlockRepositoryImpl) CreateFeaturePurchase(purchase *models.JobFeaturePurchase) error {
	err := r.db.Create(purchase).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateSession
	}
	return err
}

func (r *UnlockRepositoryImpl) FindFeaturePurchaseBySession(sessionID string) (*models.JobFeaturePurchase, error) {
	var purchase models.JobFeaturePurchase
	err := r.db.Where("checkout_session_id = ?", sessionID).First(&purchase).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFeaturePurchaseNotFound
		}
		return nil, err
	}
	return &purchase, nil
}

// CompleteFeaturePurchase flips a pending purchase to completed and
// reports whether this call did the flip.
func (r *UnlockRepositoryImpl) CompleteFeaturePurchase(id string, at time.Time) (bool, error) {
	res := r.db.Model(&models.JobFeaturePurchase{}).
		Where("id = ? AND status = ?", id, models.PurchaseStatusPending).
		Updates(map[string]interface{}{
			"status":       models.PurchaseStatusCompleted,
			"completed_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
