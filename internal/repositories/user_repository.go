package repositories

import (
	"errors"
	"time"

	"tradeboard_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrEmailTaken      = errors.New("email already registered")
	ErrProfileNotFound = errors.New("profile not found")
)

type UserRepository interface {
	Create(user *models.User, profile *models.Profile) error
	FindByID(id string) (*models.User, error)
	FindByEmail(email string) (*models.User, error)
	FindByResetToken(token string) (*models.User, error)
	Update(user *models.User) error
	UpdatePassword(id string, passwordHash string) error
	SetResetToken(id string, token string, expires time.Time) error
	ClearResetToken(id string) error

	FindProfile(userID string) (*models.Profile, error)
	UpdateProfile(profile *models.Profile) error
	SetPaymentCustomerID(userID string, customerID string) error
	ListProfilesWithPaymentCustomer() ([]models.Profile, error)
}

type UserRepositoryImpl struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &UserRepositoryImpl{db: db}
}

// Create inserts the user and its profile in one transaction. The unique
// index on users.email turns concurrent signups into ErrEmailTaken.
func (r *UserRepositoryImpl) Create(user *models.User, profile *models.Profile) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrEmailTaken
			}
			return err
		}
		profile.UserID = user.ID
		return tx.Create(profile).Error
	})
}

func (r *UserRepositoryImpl) FindByID(id string) (*models.User, error) {
	var user models.User
	err := r.db.Preload("Profile").First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) FindByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.Preload("Profile").Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) FindByResetToken(token string) (*models.User, error) {
	var user models.User
	err := r.db.Where("reset_token = ?", token).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) Update(user *models.User) error {
	return r.db.Save(user).Error
}

func (r *UserRepositoryImpl) UpdatePassword(id string, passwordHash string) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).
		Update("password_hash", passwordHash).Error
}

func (r *UserRepositoryImpl) SetResetToken(id string, token string, expires time.Time) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"reset_token":     token,
		"reset_token_exp": expires,
	}).Error
}

func (r *UserRepositoryImpl) ClearResetToken(id string) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"reset_token":     nil,
		"reset_token_exp": nil,
	}).Error
}

func (r *UserRepositoryImpl) FindProfile(userID string) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

func (r *UserRepositoryImpl) UpdateProfile(profile *models.Profile) error {
	return r.db.Save(profile).Error
}

func (r *UserRepositoryImpl) SetPaymentCustomerID(userID string, customerID string) error {
	return r.db.Model(&models.Profile{}).Where("user_id = ?", userID).
		Update("payment_customer_id", customerID).Error
}

func (r *UserRepositoryImpl) ListProfilesWithPaymentCustomer() ([]models.Profile, error) {
	var profiles []models.Profile
	err := r.db.Where("payment_customer_id <> ''").Find(&profiles).Error
	return profiles, err
}
