package repositories

import (
	"errors"
	"time"

	"tradeboard_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrPurchaseNotFound    = errors.New("credit purchase not found")
	ErrDuplicateSession    = errors.New("checkout session already recorded")
)

type CreditRepository interface {
	// GetOrCreateBalance returns the user's balance row, creating a
	// zeroed one on first touch.
	GetOrCreateBalance(userID string) (*models.CreditBalance, error)
	UpdateBalance(balance *models.CreditBalance) error

	// Consume spends n credits inside a transaction with the balance row
	// locked, draining monthly credits before purchased ones. Returns
	// the balance after the spend.
	Consume(userID string, n int) (*models.CreditBalance, error)
	AddPurchased(userID string, n int) error

	CreatePurchase(purchase *models.CreditPurchase) error
	FindPurchaseBySession(sessionID string) (*models.CreditPurchase, error)
	ListPendingPurchases(userID string) ([]models.CreditPurchase, error)
	// CompletePurchase flips a pending purchase to completed and reports
	// whether this call did the flip.
	CompletePurchase(id string, at time.Time) (bool, error)
}

type CreditRepositoryImpl struct {
	db *gorm.DB
}

func NewCreditRepository(db *gorm.DB) CreditRepository {
	return &CreditRepositoryImpl{db: db}
}

func (r *CreditRepositoryImpl) GetOrCreateBalance(userID string) (*models.CreditBalance, error) {
	var balance models.CreditBalance
	err := r.db.Where("user_id = ?", userID).First(&balance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		balance = models.CreditBalance{UserID: userID}
		if err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&balance).Error; err != nil {
			return nil, err
		}
		// Reread in case a concurrent request created the row first.
		if err := r.db.Where("user_id = ?", userID).First(&balance).Error; err != nil {
			return nil, err
		}
		return &balance, nil
	}
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

func (r *CreditRepositoryImpl) UpdateBalance(balance *models.CreditBalance) error {
	return r.db.Save(balance).Error
}

func (r *CreditRepositoryImpl) Consume(userID string, n int) (*models.CreditBalance, error) {
	var balance models.CreditBalance
	err := r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).First(&balance).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInsufficientCredits
			}
			return err
		}
		if balance.Total() < n {
			return ErrInsufficientCredits
		}
		fromMonthly := n
		if fromMonthly > balance.MonthlyCredits {
			fromMonthly = balance.MonthlyCredits
		}
		balance.MonthlyCredits -= fromMonthly
		balance.PurchasedCredits -= n - fromMonthly
		return tx.Save(&balance).Error
	})
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

func (r *CreditRepositoryImpl) AddPurchased(userID string, n int) error {
	return r.db.Model(&models.CreditBalance{}).Where("user_id = ?", userID).
		UpdateColumn("purchased_credits", gorm.Expr("purchased_credits + ?", n)).Error
}

func (r *CreditRepositoryImpl) CreatePurchase(purchase *models.CreditPurchase) error {
	err := r.db.Create(purchase).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateSession
	}
	return err
}

func (r *CreditRepositoryImpl) FindPurchaseBySession(sessionID string) (*models.CreditPurchase, error) {
	var purchase models.CreditPurchase
	err := r.db.Where("checkout_session_id = ?", sessionID).First(&purchase).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPurchaseNotFound
		}
		return nil, err
	}
	return &purchase, nil
}

func (r *CreditRepositoryImpl) ListPendingPurchases(userID string) ([]models.CreditPurchase, error) {
	var purchases []models.CreditPurchase
	err := r.db.Where("user_id = ? AND status = ?", userID, models.PurchaseStatusPending).
		Find(&purchases).Error
	return purchases, err
}

func (r *CreditRepositoryImpl) CompletePurchase(id string, at time.Time) (bool, error) {
	// Guarding on pending status keeps confirm and webhook idempotent
	// when both see the same session.
	res := r.db.Model(&models.CreditPurchase{}).
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
