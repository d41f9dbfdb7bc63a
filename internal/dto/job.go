package dto

import "time"

type CreateJobRequest struct {
	Title       string   `json:"title" validate:"required,min=3,max=200"`
	Company     string   `json:"company" validate:"required,min=2,max=200"`
	Region      string   `json:"region" validate:"required,max=100"`
	Trade       string   `json:"trade" validate:"required,max=100"`
	RateMin     *float64 `json:"rate_min" validate:"omitempty,min=0"`
	RateMax     *float64 `json:"rate_max" validate:"omitempty,min=0,gtefield=RateMin"`
	RatePeriod  string   `json:"rate_period" validate:"omitempty,oneof=hour day project"`
	Description string   `json:"description" validate:"required,min=10,max=10000"`
	Tags        []string `json:"tags" validate:"omitempty,max=10,dive,min=1,max=40"`
}

type UpdateJobRequest struct {
	Title       *string  `json:"title" validate:"omitempty,min=3,max=200"`
	Company     *string  `json:"company" validate:"omitempty,min=2,max=200"`
	Region      *string  `json:"region" validate:"omitempty,max=100"`
	Trade       *string  `json:"trade" validate:"omitempty,max=100"`
	RateMin     *float64 `json:"rate_min" validate:"omitempty,min=0"`
	RateMax     *float64 `json:"rate_max" validate:"omitempty,min=0"`
	RatePeriod  *string  `json:"rate_period" validate:"omitempty,oneof=hour day project"`
	Description *string  `json:"description" validate:"omitempty,min=10,max=10000"`
	Tags        []string `json:"tags" validate:"omitempty,max=10,dive,min=1,max=40"`
}

type UpdateJobStatusRequest struct {
	Status string `json:"status" validate:"required,is-job-status"`
}

type JobListQuery struct {
	ListQuery
	Region string `form:"region" validate:"omitempty,max=100"`
	Trade  string `form:"trade" validate:"omitempty,max=100"`
	Search string `form:"search" validate:"omitempty,max=200"`
}

type JobResponse struct {
	ID            string     `json:"id"`
	EmployerID    string     `json:"employer_id"`
	Title         string     `json:"title"`
	Company       string     `json:"company"`
	Region        string     `json:"region"`
	Trade         string     `json:"trade"`
	RateMin       float64    `json:"rate_min,omitempty"`
	RateMax       float64    `json:"rate_max,omitempty"`
	RatePeriod    string     `json:"rate_period,omitempty"`
	Description   string     `json:"description"`
	Tags          []string   `json:"tags,omitempty"`
	Status        string     `json:"status"`
	IsFeatured    bool       `json:"is_featured"`
	IsUrgent      bool       `json:"is_urgent"`
	Views         int        `json:"views"`
	DaysLeft      int        `json:"days_left"`
	Applications  int64      `json:"applications,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	FeaturedUntil *time.Time `json:"featured_until,omitempty"`
	UrgentUntil   *time.Time `json:"urgent_until,omitempty"`
}

type JobListResponse struct {
	Jobs []JobResponse `json:"jobs"`
	Meta PageMeta      `json:"meta"`
}

type FeatureJobRequest struct {
	AddonType string `json:"addon_type" validate:"required,is-job-feature"`
}
