package services

import (
	"tradeboard_backend/internal/dto"
	"tradeboard_backend/internal/logger"
	"tradeboard_backend/internal/models"
	"tradeboard_backend/internal/repositories"
	"tradeboard_backend/pkg/apperrors"
)

const promptFirstApplication = "first_application"

type ApplicationService interface {
	// Submit creates an application to an active job. One application per
	// (job, applicant) pair; a duplicate is a conflict, not an update.
	Submit(applicantID, jobID string, req *dto.SubmitApplicationRequest) (*dto.SubmitApplicationResponse, error)

	// UpdateStatus moves an application along the review pipeline. Only
	// the owning employer may do this, and pending is never re-entered.
	UpdateStatus(employerID, applicationID string, status models.ApplicationStatus) (*dto.ApplicationResponse, error)

	ListForJob(employerID, jobID string, query *dto.ListQuery) (*dto.ApplicationListResponse, error)
	ListMine(applicantID string, query *dto.ListQuery) (*dto.ApplicationListResponse, error)
}

type applicationService struct {
	appRepo    repositories.ApplicationRepository
	jobRepo    repositories.JobRepository
	userRepo   repositories.UserRepository
	unlockRepo repositories.UnlockRepository
	notifier   *Notifier
}

func NewApplicationService(
	appRepo repositories.ApplicationRepository,
	jobRepo repositories.JobRepository,
	userRepo repositories.UserRepository,
	unlockRepo repositories.UnlockRepository,
	notifier *Notifier,
) ApplicationService {
	return &applicationService{
		appRepo:    appRepo,
		jobRepo:    jobRepo,
		userRepo:   userRepo,
		unlockRepo: unlockRepo,
		notifier:   notifier,
	}
}

func (s *applicationService) Submit(applicantID, jobID string, req *dto.SubmitApplicationRequest) (*dto.SubmitApplicationResponse, error) {
	job, err := s.jobRepo.FindByID(jobID)
	if err != nil {
		if err == repositories.ErrJobNotFound {
			return nil, apperrors.ErrJobNotFound()
		}
		return nil, apperrors.InternalError(err)
	}
	if job.Status != models.JobStatusActive {
		return nil, apperrors.ErrJobNotFound()
	}
	if job.EmployerID == applicantID {
		return nil, apperrors.NewBadRequestError("cannot apply to your own job")
	}

	applicant, err := s.userRepo.FindByID(applicantID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	app := &models.Application{
		JobID:       jobID,
		ApplicantID: applicantID,
		Email:       applicant.Email,
		CoverNote:   req.CoverNote,
		Status:      models.ApplicationStatusPending,
	}
	if applicant.Profile != nil {
		app.FullName = applicant.Profile.FullName
		app.Phone = applicant.Profile.Phone
		app.ResumePath = applicant.Profile.ResumePath
	}
	if err := s.appRepo.Create(app); err != nil {
		if err == repositories.ErrDuplicateApplication {
			return nil, apperrors.ErrDuplicateApplication()
		}
		return nil, apperrors.InternalError(err)
	}
	app.Job = job

	prompt := s.maybePromptUpgrade(job)
	s.notifier.ApplicationConfirmation(applicant.Email, app.FullName, job.Title, job.Company)
	if owner, err := s.userRepo.FindByID(job.EmployerID); err == nil {
		s.notifier.EmployerAlert(owner.Email, job.Title, app.FullName)
	} else {
		logger.WithError(err).Warn("applications: employer lookup failed", "job_id", job.ID)
	}

	return &dto.SubmitApplicationResponse{
		Application:   *s.toResponse(app, false),
		UpgradePrompt: prompt,
	}, nil
}

// maybePromptUpgrade fires the one-shot upgrade nudge when a free job
// receives its first application. The unique prompt row decides the race
// between concurrent first applications.
func (s *applicationService) maybePromptUpgrade(job *models.Job) bool {
	if !job.IsFree {
		return false
	}
	created, err := s.appRepo.RecordUpgradePrompt(job.ID, promptFirstApplication)
	if err != nil {
		logger.WithError(err).Warn("applications: upgrade prompt record failed", "job_id", job.ID)
		return false
	}
	return created
}

func (s *applicationService) UpdateStatus(employerID, applicationID string, status models.ApplicationStatus) (*dto.ApplicationResponse, error) {
	app, err := s.appRepo.FindByID(applicationID)
	if err != nil {
		if err == repositories.ErrApplicationNotFound {
			return nil, apperrors.ErrApplicationNotFound()
		}
		return nil, apperrors.InternalError(err)
	}
	if app.Job == nil || app.Job.EmployerID != employerID {
		return nil, apperrors.ErrNotApplicationReviewer()
	}
	if !models.ValidApplicationTransitions[status] {
		return nil, apperrors.ErrInvalidApplicationStatus(string(status))
	}

	app.Status = status
	if err := s.appRepo.Update(app); err != nil {
		return nil, apperrors.InternalError(err)
	}

	if status == models.ApplicationStatusRejected {
		s.notifier.ApplicationRejected(app.Email, app.FullName, app.Job.Title, app.Job.Company)
	}
	return s.toResponse(app, true), nil
}

func (s *applicationService) ListForJob(employerID, jobID string, query *dto.ListQuery) (*dto.ApplicationListResponse, error) {
	job, err := s.jobRepo.FindByID(jobID)
	if err != nil {
		if err == repositories.ErrJobNotFound {
			return nil, apperrors.ErrJobNotFound()
		}
		return nil, apperrors.InternalError(err)
	}
	if job.EmployerID != employerID {
		return nil, apperrors.ErrNotJobOwner()
	}

	query.Normalize()
	apps, total, err := s.appRepo.ListByJob(jobID, query.PerPage, query.Offset())
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	resp := &dto.ApplicationListResponse{
		Applications: make([]dto.ApplicationResponse, 0, len(apps)),
		Meta:         dto.PageMeta{Page: query.Page, PerPage: query.PerPage, Total: total},
	}
	for i := range apps {
		if apps[i].Job == nil {
			apps[i].Job = job
		}
		out := s.toResponse(&apps[i], true)
		if unlock, err := s.unlockRepo.FindUnlock(employerID, apps[i].ApplicantID); err == nil {
			out.ResumeLocked = unlock == nil
		}
		resp.Applications = append(resp.Applications, *out)
	}
	return resp, nil
}

func (s *applicationService) ListMine(applicantID string, query *dto.ListQuery) (*dto.ApplicationListResponse, error) {
	query.Normalize()
	apps, total, err := s.appRepo.ListByApplicant(applicantID, query.PerPage, query.Offset())
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	resp := &dto.ApplicationListResponse{
		Applications: make([]dto.ApplicationResponse, 0, len(apps)),
		Meta:         dto.PageMeta{Page: query.Page, PerPage: query.PerPage, Total: total},
	}
	for i := range apps {
		resp.Applications = append(resp.Applications, *s.toResponse(&apps[i], false))
	}
	return resp, nil
}

func (s *applicationService) toResponse(app *models.Application, employerView bool) *dto.ApplicationResponse {
	resp := &dto.ApplicationResponse{
		ID:            app.ID,
		JobID:         app.JobID,
		ApplicantID:   app.ApplicantID,
		ApplicantName: app.FullName,
		CoverNote:     app.CoverNote,
		Status:        string(app.Status),
		HasResume:     app.ResumePath != "",
		ResumeLocked:  employerView && app.ResumePath != "",
		CreatedAt:     app.CreatedAt,
		UpdatedAt:     app.UpdatedAt,
	}
	if app.Job != nil {
		resp.JobTitle = app.Job.Title
		resp.Company = app.Job.Company
	}
	return resp
}
