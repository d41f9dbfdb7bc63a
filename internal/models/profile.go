package models

import "github.com/lib/pq"

// Profile holds the contact card for a user. One row per user, created on
// registration and never hard-deleted. PaymentCustomerID links the user to
// the payment provider's customer object once a first checkout happens.
type Profile struct {
	BaseModel
	UserID      string         `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	FullName    string         `json:"full_name"`
	Phone       string         `json:"phone"`
	Region      string         `json:"region"`
	CompanyName string         `json:"company_name,omitempty"`
	Trade       string         `json:"trade,omitempty"`
	Skills      pq.StringArray `gorm:"type:text[]" json:"skills,omitempty"`
	Bio         string         `gorm:"type:text" json:"bio,omitempty"`

	// Resume file as stored, keyed {userID}/{filename}.
	ResumePath     string `json:"resume_path,omitempty"`
	ResumeFilename string `json:"resume_filename,omitempty"`

	PaymentCustomerID string `gorm:"index" json:"-"`
}
