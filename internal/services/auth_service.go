package services

import (
	"time"

	"tradeboard_backend/internal/auth"
	"tradeboard_backend/internal/dto"
	"tradeboard_backend/internal/models"
	"tradeboard_backend/internal/repositories"
	"tradeboard_backend/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const resetTokenTTL = time.Hour

type AuthService interface {
	Register(req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(req *dto.LoginRequest) (*dto.AuthResponse, error)
	ForgotPassword(email string) error
	ResetPassword(token, newPassword string) error

	GetProfile(userID string) (*dto.ProfileResponse, error)
	UpdateProfile(userID string, req *dto.UpdateProfileRequest) (*dto.ProfileResponse, error)
}

type authService struct {
	userRepo      repositories.UserRepository
	tokens        *auth.TokenManager
	notifier      *Notifier
	newResetToken func() string
}

func NewAuthService(userRepo repositories.UserRepository, tokens *auth.TokenManager, notifier *Notifier) AuthService {
	return &authService{
		userRepo:      userRepo,
		tokens:        tokens,
		notifier:      notifier,
		newResetToken: func() string { return uuid.New().String() },
	}
}

func (s *authService) Register(req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, apperrors.ErrWeakPassword()
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: hash,
		Role:         models.UserRole(req.Role),
		Status:       models.UserStatusActive,
	}
	profile := &models.Profile{FullName: req.FullName}
	if err := s.userRepo.Create(user, profile); err != nil {
		if err == repositories.ErrEmailTaken {
			return nil, apperrors.ErrEmailTaken()
		}
		return nil, apperrors.InternalError(err)
	}

	s.notifier.Welcome(user.Email, profile.FullName, string(user.Role))

	token, err := s.tokens.Generate(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return &dto.AuthResponse{Token: token, User: toUserResponse(user)}, nil
}

func (s *authService) Login(req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		if err == repositories.ErrUserNotFound {
			return nil, apperrors.ErrInvalidCredentials()
		}
		return nil, apperrors.InternalError(err)
	}
	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials()
	}
	if user.Status != models.UserStatusActive {
		return nil, apperrors.NewForbiddenError("account is not active")
	}

	token, err := s.tokens.Generate(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return &dto.AuthResponse{Token: token, User: toUserResponse(user)}, nil
}

// ForgotPassword issues a reset token. An unknown address is treated as
// success so the endpoint does not leak which emails are registered.
func (s *authService) ForgotPassword(emailAddr string) error {
	user, err := s.userRepo.FindByEmail(emailAddr)
	if err != nil {
		if err == repositories.ErrUserNotFound {
			return nil
		}
		return apperrors.InternalError(err)
	}

	// Only the hash is stored; the plaintext token goes out by email.
	token := s.newResetToken()
	expires := time.Now().Add(resetTokenTTL)
	if err := s.userRepo.SetResetToken(user.ID, auth.HashResetToken(token), expires); err != nil {
		return apperrors.InternalError(err)
	}
	s.notifier.PasswordReset(user.Email, token)
	return nil
}

func (s *authService) ResetPassword(token, newPassword string) error {
	if err := auth.ValidatePassword(newPassword); err != nil {
		return apperrors.ErrWeakPassword()
	}
	user, err := s.userRepo.FindByResetToken(auth.HashResetToken(token))
	if err != nil {
		if err == repositories.ErrUserNotFound {
			return apperrors.ErrInvalidResetToken()
		}
		return apperrors.InternalError(err)
	}
	if user.ResetTokenExp == nil || time.Now().After(*user.ResetTokenExp) {
		return apperrors.ErrInvalidResetToken()
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return apperrors.InternalError(err)
	}
	if err := s.userRepo.UpdatePassword(user.ID, hash); err != nil {
		return apperrors.InternalError(err)
	}
	if err := s.userRepo.ClearResetToken(user.ID); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *authService) GetProfile(userID string) (*dto.ProfileResponse, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if err == repositories.ErrUserNotFound {
			return nil, apperrors.NewNotFoundError("auth", "user not found")
		}
		return nil, apperrors.InternalError(err)
	}
	return toProfileResponse(user), nil
}

func (s *authService) UpdateProfile(userID string, req *dto.UpdateProfileRequest) (*dto.ProfileResponse, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if err == repositories.ErrUserNotFound {
			return nil, apperrors.NewNotFoundError("auth", "user not found")
		}
		return nil, apperrors.InternalError(err)
	}

	profile := user.Profile
	if profile == nil {
		profile, err = s.userRepo.FindProfile(userID)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		user.Profile = profile
	}
	if req.FullName != nil {
		profile.FullName = *req.FullName
	}
	if req.Phone != nil {
		profile.Phone = *req.Phone
	}
	if req.Region != nil {
		profile.Region = *req.Region
	}
	if req.CompanyName != nil {
		profile.CompanyName = *req.CompanyName
	}
	if req.Trade != nil {
		profile.Trade = *req.Trade
	}
	if req.Skills != nil {
		profile.Skills = pq.StringArray(req.Skills)
	}
	if req.Bio != nil {
		profile.Bio = *req.Bio
	}
	if err := s.userRepo.UpdateProfile(profile); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return toProfileResponse(user), nil
}

func toUserResponse(user *models.User) dto.UserResponse {
	return dto.UserResponse{
		ID:         user.ID,
		Email:      user.Email,
		Role:       string(user.Role),
		Status:     string(user.Status),
		IsVerified: user.IsVerified,
		CreatedAt:  user.CreatedAt,
	}
}

func toProfileResponse(user *models.User) *dto.ProfileResponse {
	p := user.Profile
	if p == nil {
		p = &models.Profile{}
	}
	return &dto.ProfileResponse{
		UserID:         user.ID,
		Email:          user.Email,
		Role:           string(user.Role),
		FullName:       p.FullName,
		Phone:          p.Phone,
		Region:         p.Region,
		CompanyName:    p.CompanyName,
		Trade:          p.Trade,
		Skills:         p.Skills,
		Bio:            p.Bio,
		HasResume:      p.ResumePath != "",
		ResumeFilename: p.ResumeFilename,
	}
}
