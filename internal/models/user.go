package models

import "time"

type User struct {
	BaseModel
	Email         string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash  string     `gorm:"not null" json:"-"`
	Role          UserRole   `gorm:"type:varchar(20);not null" json:"role"`
	Status        UserStatus `gorm:"type:varchar(20);default:'active'" json:"status"`
	IsVerified    bool       `gorm:"default:false" json:"is_verified"`
	ResetToken    string     `json:"-"`
	ResetTokenExp *time.Time `json:"-"`

	// Relations
	Profile *Profile `gorm:"foreignKey:UserID" json:"profile,omitempty"`
}
