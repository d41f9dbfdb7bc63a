package dto

import "time"

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,is-user-role"`
	FullName string `json:"full_name" validate:"required,min=2,max=120"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	Status     string    `json:"status"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

type UpdateProfileRequest struct {
	FullName    *string  `json:"full_name" validate:"omitempty,min=2,max=120"`
	Phone       *string  `json:"phone" validate:"omitempty,max=32"`
	Region      *string  `json:"region" validate:"omitempty,max=100"`
	CompanyName *string  `json:"company_name" validate:"omitempty,max=200"`
	Trade       *string  `json:"trade" validate:"omitempty,max=100"`
	Skills      []string `json:"skills" validate:"omitempty,dive,min=1,max=60"`
	Bio         *string  `json:"bio" validate:"omitempty,max=2000"`
}

type ProfileResponse struct {
	UserID         string   `json:"user_id"`
	Email          string   `json:"email"`
	Role           string   `json:"role"`
	FullName       string   `json:"full_name"`
	Phone          string   `json:"phone,omitempty"`
	Region         string   `json:"region,omitempty"`
	CompanyName    string   `json:"company_name,omitempty"`
	Trade          string   `json:"trade,omitempty"`
	Skills         []string `json:"skills,omitempty"`
	Bio            string   `json:"bio,omitempty"`
	HasResume      bool     `json:"has_resume"`
	ResumeFilename string   `json:"resume_filename,omitempty"`
}
