package services

import (
	"context"
	"time"

	"tradeboard_backend/internal/dto"
	"tradeboard_backend/internal/logger"
	"tradeboard_backend/internal/models"
	"tradeboard_backend/internal/repositories"
	"tradeboard_backend/pkg/apperrors"

	"github.com/lib/pq"
)

type JobService interface {
	Create(ctx context.Context, employerID string, req *dto.CreateJobRequest) (*dto.JobResponse, error)
	Update(employerID, jobID string, req *dto.UpdateJobRequest) (*dto.JobResponse, error)
	UpdateStatus(ctx context.Context, employerID, jobID string, status models.JobStatus) (*dto.JobResponse, error)
	Delete(employerID, jobID string) error

	// Get returns one job. Non-active jobs are visible to their owner
	// only; anonymous and third-party views of an active job bump the
	// view counter.
	Get(jobID, viewerID string) (*dto.JobResponse, error)
	List(query *dto.JobListQuery) (*dto.JobListResponse, error)
	ListMine(employerID string) (*dto.JobListResponse, error)

	// ApplyFeature flips a paid add-on flag with a fresh expiry window.
	// Called from the payment path after a session settles.
	ApplyFeature(jobID string, feature models.JobFeature) error

	// ExpireSweep retires free-plan jobs whose active window has fully
	// elapsed. Paid postings are left to the subscription lifecycle.
	ExpireSweep(now time.Time) (int, error)
	// WarningSweep emails owners of jobs sitting at exactly 7 or 1 days
	// left. A job that is never observed on those exact days gets no
	// warning; the sweep cadence has to match.
	WarningSweep(now time.Time) (int, error)
	// FeatureSweep clears featured/urgent flags whose windows passed.
	FeatureSweep(now time.Time) (int64, error)
}

type jobService struct {
	jobRepo      repositories.JobRepository
	appRepo      repositories.ApplicationRepository
	userRepo     repositories.UserRepository
	entitlements EntitlementService
	notifier     *Notifier
	now          func() time.Time
}

func NewJobService(
	jobRepo repositories.JobRepository,
	appRepo repositories.ApplicationRepository,
	userRepo repositories.UserRepository,
	entitlements EntitlementService,
	notifier *Notifier,
) JobService {
	return &jobService{
		jobRepo:      jobRepo,
		appRepo:      appRepo,
		userRepo:     userRepo,
		entitlements: entitlements,
		notifier:     notifier,
		now:          time.Now,
	}
}

// Create posts a job after the active-slot check. The limit comes from
// the employer's resolved entitlements, so an expired subscription
// downgrades the cap in the same request.
func (s *jobService) Create(ctx context.Context, employerID string, req *dto.CreateJobRequest) (*dto.JobResponse, error) {
	ent, err := s.entitlements.Resolve(ctx, employerID)
	if err != nil {
		return nil, err
	}
	if ent.ActiveJobsLimit != models.UnlimitedJobs {
		active, err := s.jobRepo.CountActiveByEmployer(employerID)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		if active >= int64(ent.ActiveJobsLimit) {
			return nil, apperrors.ErrJobLimitReached(ent.ActiveJobsLimit)
		}
	}

	now := s.now()
	expires := now.AddDate(0, 0, models.ActiveWindowDays)
	job := &models.Job{
		EmployerID:  employerID,
		Title:       req.Title,
		Company:     req.Company,
		Region:      req.Region,
		Trade:       req.Trade,
		RatePeriod:  req.RatePeriod,
		Description: req.Description,
		Tags:        pq.StringArray(req.Tags),
		Status:      models.JobStatusActive,
		IsFree:      ent.Plan == models.PlanFree,
		ExpiresAt:   &expires,
	}
	if req.RateMin != nil {
		job.RateMin = *req.RateMin
	}
	if req.RateMax != nil {
		job.RateMax = *req.RateMax
	}
	if err := s.jobRepo.Create(job); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return s.toResponse(job, true), nil
}

func (s *jobService) Update(employerID, jobID string, req *dto.UpdateJobRequest) (*dto.JobResponse, error) {
	job, err := s.ownedJob(employerID, jobID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		job.Title = *req.Title
	}
	if req.Company != nil {
		job.Company = *req.Company
	}
	if req.Region != nil {
		job.Region = *req.Region
	}
	if req.Trade != nil {
		job.Trade = *req.Trade
	}
	if req.RateMin != nil {
		job.RateMin = *req.RateMin
	}
	if req.RateMax != nil {
		job.RateMax = *req.RateMax
	}
	if req.RatePeriod != nil {
		job.RatePeriod = *req.RatePeriod
	}
	if req.Tags != nil {
		job.Tags = pq.StringArray(req.Tags)
	}
	if req.Description != nil {
		job.Description = *req.Description
	}
	if err := s.jobRepo.Update(job); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return s.toResponse(job, true), nil
}

func (s *jobService) UpdateStatus(ctx context.Context, employerID, jobID string, status models.JobStatus) (*dto.JobResponse, error) {
	job, err := s.ownedJob(employerID, jobID)
	if err != nil {
		return nil, err
	}
	if !models.CanTransitionJob(job.Status, status) {
		return nil, apperrors.ErrInvalidJobTransition(string(job.Status), string(status))
	}

	if status == models.JobStatusDeleted {
		if err := s.jobRepo.SoftDelete(job.ID, s.now()); err != nil {
			return nil, apperrors.InternalError(err)
		}
		job.Status = models.JobStatusDeleted
		return s.toResponse(job, true), nil
	}

	if status == models.JobStatusActive {
		// Reactivating counts against the active-slot limit again.
		ent, err := s.entitlements.Resolve(ctx, employerID)
		if err != nil {
			return nil, err
		}
		if ent.ActiveJobsLimit != models.UnlimitedJobs {
			active, err := s.jobRepo.CountActiveByEmployer(employerID)
			if err != nil {
				return nil, apperrors.InternalError(err)
			}
			if active >= int64(ent.ActiveJobsLimit) {
				return nil, apperrors.ErrJobLimitReached(ent.ActiveJobsLimit)
			}
		}
		expires := s.now().AddDate(0, 0, models.ActiveWindowDays)
		job.ExpiresAt = &expires
	}

	job.Status = status
	if err := s.jobRepo.Update(job); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return s.toResponse(job, true), nil
}

func (s *jobService) Delete(employerID, jobID string) error {
	job, err := s.ownedJob(employerID, jobID)
	if err != nil {
		return err
	}
	if err := s.jobRepo.SoftDelete(job.ID, s.now()); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *jobService) Get(jobID, viewerID string) (*dto.JobResponse, error) {
	job, err := s.jobRepo.FindByID(jobID)
	if err != nil {
		if err == repositories.ErrJobNotFound {
			return nil, apperrors.ErrJobNotFound()
		}
		return nil, apperrors.InternalError(err)
	}

	owner := viewerID != "" && viewerID == job.EmployerID
	if job.Status != models.JobStatusActive && !owner {
		return nil, apperrors.ErrJobNotFound()
	}
	if !owner {
		if err := s.jobRepo.IncrementViews(job.ID); err != nil {
			logger.WithError(err).Warn("jobs: view increment failed", "job_id", job.ID)
		} else {
			job.Views++
		}
	}
	return s.toResponse(job, owner), nil
}

func (s *jobService) List(query *dto.JobListQuery) (*dto.JobListResponse, error) {
	query.Normalize()
	jobs, total, err := s.jobRepo.ListPublic(repositories.JobFilter{
		Region: query.Region,
		Trade:  query.Trade,
		Search: query.Search,
		Limit:  query.PerPage,
		Offset: query.Offset(),
	})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	resp := &dto.JobListResponse{
		Jobs: make([]dto.JobResponse, 0, len(jobs)),
		Meta: dto.PageMeta{Page: query.Page, PerPage: query.PerPage, Total: total},
	}
	for i := range jobs {
		resp.Jobs = append(resp.Jobs, *s.toResponse(&jobs[i], false))
	}
	return resp, nil
}

func (s *jobService) ListMine(employerID string) (*dto.JobListResponse, error) {
	jobs, err := s.jobRepo.ListByEmployer(employerID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	resp := &dto.JobListResponse{
		Jobs: make([]dto.JobResponse, 0, len(jobs)),
		Meta: dto.PageMeta{Page: 1, PerPage: len(jobs), Total: int64(len(jobs))},
	}
	for i := range jobs {
		out := s.toResponse(&jobs[i], true)
		if count, err := s.appRepo.CountByJob(jobs[i].ID); err == nil {
			out.Applications = count
		}
		resp.Jobs = append(resp.Jobs, *out)
	}
	return resp, nil
}

func (s *jobService) ApplyFeature(jobID string, feature models.JobFeature) error {
	job, err := s.jobRepo.FindByID(jobID)
	if err != nil {
		if err == repositories.ErrJobNotFound {
			return apperrors.ErrJobNotFound()
		}
		return apperrors.InternalError(err)
	}
	job.ApplyFeature(feature, s.now())
	if err := s.jobRepo.Update(job); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *jobService) ExpireSweep(now time.Time) (int, error) {
	jobs, err := s.jobRepo.FindFreeExpiringBefore(now)
	if err != nil {
		return 0, err
	}
	expired := 0
	for i := range jobs {
		if err := s.jobRepo.UpdateStatus(jobs[i].ID, models.JobStatusExpired); err != nil {
			logger.WithError(err).Error("jobs: expire failed", "job_id", jobs[i].ID)
			continue
		}
		expired++
	}
	return expired, nil
}

func (s *jobService) WarningSweep(now time.Time) (int, error) {
	jobs, err := s.jobRepo.FindFreeExpiringBefore(now.AddDate(0, 0, 8))
	if err != nil {
		return 0, err
	}
	warned := 0
	for i := range jobs {
		daysLeft := jobs[i].DaysLeft(now)
		if daysLeft != 7 && daysLeft != 1 {
			continue
		}
		owner, err := s.userRepo.FindByID(jobs[i].EmployerID)
		if err != nil {
			logger.WithError(err).Warn("jobs: warning sweep owner lookup failed", "job_id", jobs[i].ID)
			continue
		}
		s.notifier.ExpirationWarning(owner.Email, jobs[i].Title, daysLeft)
		warned++
	}
	return warned, nil
}

func (s *jobService) FeatureSweep(now time.Time) (int64, error) {
	return s.jobRepo.ClearExpiredFeatures(now)
}

func (s *jobService) ownedJob(employerID, jobID string) (*models.Job, error) {
	job, err := s.jobRepo.FindByID(jobID)
	if err != nil {
		if err == repositories.ErrJobNotFound {
			return nil, apperrors.ErrJobNotFound()
		}
		return nil, apperrors.InternalError(err)
	}
	if job.Status == models.JobStatusDeleted {
		return nil, apperrors.ErrJobNotFound()
	}
	if job.EmployerID != employerID {
		return nil, apperrors.ErrNotJobOwner()
	}
	return job, nil
}

func (s *jobService) toResponse(job *models.Job, owner bool) *dto.JobResponse {
	resp := &dto.JobResponse{
		ID:          job.ID,
		EmployerID:  job.EmployerID,
		Title:       job.Title,
		Company:     job.Company,
		Region:      job.Region,
		Trade:       job.Trade,
		RateMin:     job.RateMin,
		RateMax:     job.RateMax,
		RatePeriod:  job.RatePeriod,
		Description: job.Description,
		Tags:        job.Tags,
		Status:      string(job.Status),
		IsFeatured:  job.IsFeatured,
		IsUrgent:    job.IsUrgent,
		Views:       job.Views,
		CreatedAt:   job.CreatedAt,
	}
	if daysLeft := job.DaysLeft(s.now()); daysLeft > 0 && job.Status == models.JobStatusActive {
		resp.DaysLeft = daysLeft
	}
	if owner {
		resp.ExpiresAt = job.ExpiresAt
		resp.FeaturedUntil = job.FeaturedUntil
		resp.UrgentUntil = job.UrgentUntil
	}
	return resp
}
