package services

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"tradeboard_backend/internal/dto"
	"tradeboard_backend/internal/logger"
	"tradeboard_backend/internal/models"
	"tradeboard_backend/internal/repositories"
	"tradeboard_backend/internal/storage"
	"tradeboard_backend/pkg/apperrors"

	"github.com/google/uuid"
)

const unlockCost = 1

var resumeContentTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

type ResumeService interface {
	Upload(ctx context.Context, userID, filename string, size int64, r io.Reader) (*dto.ResumeUploadResponse, error)
	DeleteOwn(ctx context.Context, userID string) error

	// Download streams a resume. Job seekers read their own; employers
	// need a prior unlock for the applicant.
	Download(ctx context.Context, requesterID string, requesterRole models.UserRole, applicantID string) (io.ReadCloser, string, error)

	// Unlock spends credits to open one applicant's resume and contact
	// details for one employer, permanently. A repeat unlock is free.
	Unlock(ctx context.Context, employerID, applicantID string) (*dto.ResumeUnlockResponse, error)
}

type resumeService struct {
	userRepo     repositories.UserRepository
	unlockRepo   repositories.UnlockRepository
	creditRepo   repositories.CreditRepository
	credits      CreditService
	store        storage.Storage
	maxSize      int64
	allowedTypes []string
	now          func() time.Time
}

func NewResumeService(
	userRepo repositories.UserRepository,
	unlockRepo repositories.UnlockRepository,
	creditRepo repositories.CreditRepository,
	credits CreditService,
	store storage.Storage,
	maxSize int64,
	allowedTypes []string,
) ResumeService {
	return &resumeService{
		userRepo:     userRepo,
		unlockRepo:   unlockRepo,
		creditRepo:   creditRepo,
		credits:      credits,
		store:        store,
		maxSize:      maxSize,
		allowedTypes: allowedTypes,
		now:          time.Now,
	}
}

func (s *resumeService) Upload(ctx context.Context, userID, filename string, size int64, r io.Reader) (*dto.ResumeUploadResponse, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !s.extAllowed(ext) {
		return nil, apperrors.NewBadRequestError(
			fmt.Sprintf("unsupported file type %s, allowed: %s", ext, strings.Join(s.allowedTypes, ", ")))
	}
	if size <= 0 || size > s.maxSize {
		return nil, apperrors.NewBadRequestError(
			fmt.Sprintf("file size must be between 1 byte and %d bytes", s.maxSize))
	}

	profile, err := s.userRepo.FindProfile(userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	path := fmt.Sprintf("resumes/%s/%s%s", userID, uuid.New().String(), ext)
	if err := s.store.Save(ctx, path, r, resumeContentTypes[ext]); err != nil {
		return nil, apperrors.InternalError(err)
	}

	if profile.ResumePath != "" && profile.ResumePath != path {
		if err := s.store.Delete(ctx, profile.ResumePath); err != nil {
			logger.CtxWithError(ctx, err).Warn("resumes: stale file cleanup failed", "path", profile.ResumePath)
		}
	}

	profile.ResumePath = path
	profile.ResumeFilename = filepath.Base(filename)
	if err := s.userRepo.UpdateProfile(profile); err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &dto.ResumeUploadResponse{
		Filename:   profile.ResumeFilename,
		Size:       size,
		UploadedAt: s.now(),
	}, nil
}

func (s *resumeService) DeleteOwn(ctx context.Context, userID string) error {
	profile, err := s.userRepo.FindProfile(userID)
	if err != nil {
		return apperrors.InternalError(err)
	}
	if profile.ResumePath == "" {
		return apperrors.ErrResumeNotFound()
	}
	if err := s.store.Delete(ctx, profile.ResumePath); err != nil {
		return apperrors.InternalError(err)
	}
	profile.ResumePath = ""
	profile.ResumeFilename = ""
	return s.userRepo.UpdateProfile(profile)
}

func (s *resumeService) Download(ctx context.Context, requesterID string, requesterRole models.UserRole, applicantID string) (io.ReadCloser, string, error) {
	if requesterID != applicantID && requesterRole != models.UserRoleAdmin {
		unlock, err := s.unlockRepo.FindUnlock(requesterID, applicantID)
		if err != nil {
			return nil, "", apperrors.InternalError(err)
		}
		if unlock == nil {
			return nil, "", apperrors.ErrResumeLocked()
		}
	}

	profile, err := s.userRepo.FindProfile(applicantID)
	if err != nil {
		return nil, "", apperrors.ErrResumeNotFound()
	}
	if profile.ResumePath == "" {
		return nil, "", apperrors.ErrResumeNotFound()
	}

	rc, err := s.store.Get(ctx, profile.ResumePath)
	if err != nil {
		return nil, "", apperrors.InternalError(err)
	}
	return rc, profile.ResumeFilename, nil
}

func (s *resumeService) Unlock(ctx context.Context, employerID, applicantID string) (*dto.ResumeUnlockResponse, error) {
	existing, err := s.unlockRepo.FindUnlock(employerID, applicantID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if existing != nil {
		balance, err := s.credits.Balance(ctx, employerID)
		if err != nil {
			return nil, err
		}
		return &dto.ResumeUnlockResponse{
			ApplicantID:   applicantID,
			CreditsSpent:  0,
			CreditBalance: balance.Total,
			AlreadyOwned:  true,
		}, nil
	}

	profile, err := s.userRepo.FindProfile(applicantID)
	if err != nil || profile.ResumePath == "" {
		return nil, apperrors.ErrResumeNotFound()
	}

	balance, err := s.credits.Consume(ctx, employerID, unlockCost)
	if err != nil {
		return nil, err
	}

	unlock := &models.ResumeUnlock{
		EmployerID:   employerID,
		ApplicantID:  applicantID,
		CreditsSpent: unlockCost,
	}
	if err := s.unlockRepo.CreateUnlock(unlock); err != nil {
		if err == repositories.ErrAlreadyUnlocked {
			// Lost the race to a concurrent unlock of the same pair;
			// give the credit back and report the existing access.
			if rerr := s.creditRepo.AddPurchased(employerID, unlockCost); rerr != nil {
				logger.CtxWithError(ctx, rerr).Error("resumes: unlock refund failed", "employer_id", employerID)
			}
			return &dto.ResumeUnlockResponse{
				ApplicantID:   applicantID,
				CreditsSpent:  0,
				CreditBalance: balance.Total + unlockCost,
				AlreadyOwned:  true,
			}, nil
		}
		return nil, apperrors.InternalError(err)
	}

	return &dto.ResumeUnlockResponse{
		ApplicantID:   applicantID,
		CreditsSpent:  unlockCost,
		CreditBalance: balance.Total,
		AlreadyOwned:  false,
	}, nil
}

func (s *resumeService) extAllowed(ext string) bool {
	for _, allowed := range s.allowedTypes {
		if ext == allowed {
			return true
		}
	}
	return false
}
