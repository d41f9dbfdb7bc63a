package models

import (
	"time"

	"gorm.io/datatypes"
)

// ResumeUnlock records an employer spending credits to view a job seeker's
// resume and contact details. One row per (employer, applicant) pair; a
// repeat unlock is free and reuses the existing row.
type ResumeUnlock struct {
	BaseModel
	EmployerID   string `gorm:"type:uuid;not null;uniqueIndex:idx_employer_applicant" json:"employer_id"`
	ApplicantID  string `gorm:"type:uuid;not null;uniqueIndex:idx_employer_applicant" json:"applicant_id"`
	CreditsSpent int    `gorm:"default:1" json:"credits_spent"`
}

// JobFeaturePurchase is an append-only audit row for a paid job add-on
// (featured/urgent). The unique session id keeps confirm/webhook replays
// from double-applying a feature.
type JobFeaturePurchase struct {
	BaseModel
	JobID             string         `gorm:"type:uuid;not null;index" json:"job_id"`
	EmployerID        string         `gorm:"type:uuid;not null;index" json:"employer_id"`
	Feature           JobFeature     `gorm:"type:varchar(20);not null" json:"feature"`
	AmountCents       int64          `json:"amount_cents"`
	CheckoutSessionID string         `gorm:"uniqueIndex" json:"-"`
	Status            PurchaseStatus `gorm:"type:varchar(20);default:'pending'" json:"status"`
	CompletedAt       *time.Time     `json:"completed_at,omitempty"`

	// Snapshot of the checkout session metadata, kept for audit.
	SessionMetadata datatypes.JSON `gorm:"type:jsonb" json:"-"`
}
