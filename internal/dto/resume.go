package dto

import "time"

type ResumeUploadResponse struct {
	Filename   string    `json:"filename"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type ResumeUnlockResponse struct {
	ApplicantID   string `json:"applicant_id"`
	CreditsSpent  int    `json:"credits_spent"`
	CreditBalance int    `json:"credit_balance"`
	AlreadyOwned  bool   `json:"already_owned"`
}
