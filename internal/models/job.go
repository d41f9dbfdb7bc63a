package models

import (
	"time"

	"github.com/lib/pq"
)

type Job struct {
	BaseModel
	EmployerID  string         `gorm:"type:uuid;not null;index" json:"employer_id"`
	Title       string         `gorm:"not null" json:"title"`
	Company     string         `json:"company"`
	Region      string         `gorm:"index" json:"region"`
	Trade       string         `gorm:"index" json:"trade"`
	RateMin     float64        `json:"rate_min"`
	RateMax     float64        `json:"rate_max"`
	RatePeriod  string         `json:"rate_period"` // "hour", "day", "project"
	Description string         `gorm:"type:text" json:"description"`
	Tags        pq.StringArray `gorm:"type:text[]" json:"tags,omitempty"`

	Status    JobStatus  `gorm:"type:varchar(20);default:'active';index" json:"status"`
	IsFree    bool       `gorm:"default:true" json:"is_free"`
	ExpiresAt *time.Time `gorm:"index" json:"expires_at,omitempty"`
	DeletedAt *time.Time `json:"-"`

	// Paid add-ons, each with its own expiry window independent of the
	// job's own expiry.
	IsFeatured    bool       `gorm:"default:false" json:"is_featured"`
	FeaturedUntil *time.Time `json:"featured_until,omitempty"`
	IsUrgent      bool       `gorm:"default:false" json:"is_urgent"`
	UrgentUntil   *time.Time `json:"urgent_until,omitempty"`

	Views int `gorm:"default:0" json:"views"`
}

// ActiveWindowDays is how long a posting stays active before the
// expiration sweep retires it. Feature add-ons run on the same window.
const ActiveWindowDays = 30

var featurePrices = map[JobFeature]int64{
	JobFeatureFeatured: 1900,
	JobFeatureUrgent:   900,
}

// FeaturePriceCents returns the one-time price of a job add-on in cents.
func FeaturePriceCents(f JobFeature) (int64, bool) {
	price, ok := featurePrices[f]
	return price, ok
}

// ApplyFeature sets the add-on flag with a fresh expiry window.
func (j *Job) ApplyFeature(f JobFeature, now time.Time) {
	until := now.AddDate(0, 0, ActiveWindowDays)
	switch f {
	case JobFeatureFeatured:
		j.IsFeatured = true
		j.FeaturedUntil = &until
	case JobFeatureUrgent:
		j.IsUrgent = true
		j.UrgentUntil = &until
	}
}

// DaysActive is the whole number of days since the job was posted.
func (j *Job) DaysActive(now time.Time) int {
	return int(now.Sub(j.CreatedAt).Hours() / 24)
}

// DaysLeft is the number of whole days remaining in the active window.
// Reactivation resets ExpiresAt, so the stored expiry is authoritative
// whenever it is set; the posting date only anchors legacy rows.
func (j *Job) DaysLeft(now time.Time) int {
	if j.ExpiresAt != nil {
		return int(j.ExpiresAt.Sub(now).Hours() / 24)
	}
	return ActiveWindowDays - j.DaysActive(now)
}
