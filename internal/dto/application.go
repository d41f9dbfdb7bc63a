package dto

import "time"

type SubmitApplicationRequest struct {
	CoverNote string `json:"cover_note" validate:"omitempty,max=4000"`
}

type UpdateApplicationStatusRequest struct {
	Status string `json:"status" validate:"required,is-application-status"`
}

type ApplicationResponse struct {
	ID            string    `json:"id"`
	JobID         string    `json:"job_id"`
	JobTitle      string    `json:"job_title"`
	Company       string    `json:"company"`
	ApplicantID   string    `json:"applicant_id"`
	ApplicantName string    `json:"applicant_name"`
	CoverNote     string    `json:"cover_note,omitempty"`
	Status        string    `json:"status"`
	HasResume     bool      `json:"has_resume"`
	ResumeLocked  bool      `json:"resume_locked"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type ApplicationListResponse struct {
	Applications []ApplicationResponse `json:"applications"`
	Meta         PageMeta              `json:"meta"`
}

type SubmitApplicationResponse struct {
	Application   ApplicationResponse `json:"application"`
	UpgradePrompt bool                `json:"upgrade_prompt"`
}
