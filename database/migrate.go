package database

import (
	"fmt"

	"tradeboard_backend/internal/models"

	"gorm.io/gorm"
)

// Migrate runs the schema migration. AutoMigrate covers tables and plain
// indexes; the partial unique index on subscriptions is raw SQL because
// GORM tags cannot express a WHERE clause.
func Migrate(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return fmt.Errorf("create uuid extension: %w", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.Job{},
		&models.Application{},
		&models.UpgradePrompt{},
		&models.Subscription{},
		&models.CreditBalance{},
		&models.CreditPurchase{},
		&models.ResumeUnlock{},
		&models.JobFeaturePurchase{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	// One active subscription per user, enforced by the database so
	// concurrent activations cannot both win.
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_subscriptions_one_active
		ON subscriptions (user_id)
		WHERE status = 'active'
	`).Error; err != nil {
		return fmt.Errorf("create partial unique index: %w", err)
	}

	return nil
}
