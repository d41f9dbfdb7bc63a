package models

// Application links a job seeker to a job. The applicant's contact fields
// are snapshotted at submit time so later profile edits do not rewrite
// history. The (job_id, applicant_id) pair is unique at the database level;
// a violation is surfaced to the caller as a conflict.
type Application struct {
	BaseModel
	JobID       string `gorm:"type:uuid;not null;uniqueIndex:idx_job_applicant" json:"job_id"`
	ApplicantID string `gorm:"type:uuid;not null;uniqueIndex:idx_job_applicant;index" json:"applicant_id"`

	FullName   string `gorm:"not null" json:"full_name"`
	Email      string `gorm:"not null" json:"email"`
	Phone      string `json:"phone"`
	ResumePath string `json:"resume_path,omitempty"`
	CoverNote  string `gorm:"type:text" json:"cover_note,omitempty"`

	Status ApplicationStatus `gorm:"type:varchar(20);default:'pending'" json:"status"`

	// Relations
	Job *Job `gorm:"foreignKey:JobID" json:"job,omitempty"`
}

// UpgradePrompt is a one-shot notification record tied to a job, fired once
// when a free job receives its first application. The unique index on
// (job_id, prompt_type) closes the double-insert window the existence-check
// approach would leave open.
type UpgradePrompt struct {
	BaseModel
	JobID      string `gorm:"type:uuid;not null;uniqueIndex:idx_job_prompt" json:"job_id"`
	PromptType string `gorm:"not null;uniqueIndex:idx_job_prompt;default:'first_application'" json:"prompt_type"`
	Seen       bool   `gorm:"default:false" json:"seen"`
}
