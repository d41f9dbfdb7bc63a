package repositories

import (
	"errors"
	"time"

	"tradeboard_backend/internal/models"

	"gorm.io/gorm"
)

var ErrJobNotFound = errors.New("job not found")

type JobFilter struct {
	Region string
	Trade  string
	Search string
	Limit  int
	Offset int
}

type JobRepository interface {
	Create(job *models.Job) error
	FindByID(id string) (*models.Job, error)
	Update(job *models.Job) error
	UpdateStatus(id string, status models.JobStatus) error
	SoftDelete(id string, now time.Time) error

	ListPublic(filter JobFilter) ([]models.Job, int64, error)
	ListByEmployer(employerID string) ([]models.Job, error)
	CountActiveByEmployer(employerID string) (int64, error)
	IncrementViews(id string) error

	// FindFreeExpiringBefore returns active free-tier jobs whose expiry
	// timestamp falls on or before the deadline. Paid postings stay up
	// for as long as the subscription covers them.
	FindFreeExpiringBefore(deadline time.Time) ([]models.Job, error)
	ClearExpiredFeatures(now time.Time) (int64, error)
}

type JobRepositoryImpl struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) JobRepository {
	return &JobRepositoryImpl{db: db}
}

func (r *JobRepositoryImpl) Create(job *models.Job) error {
	return r.db.Create(job).Error
}

func (r *JobRepositoryImpl) FindByID(id string) (*models.Job, error) {
	var job models.Job
	err := r.db.First(&job, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return &job, nil
}

func (r *JobRepositoryImpl) Update(job *models.Job) error {
	return r.db.Save(job).Error
}

func (r *JobRepositoryImpl) UpdateStatus(id string, status models.JobStatus) error {
	res := r.db.Model(&models.Job{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrJobNotFound
	}
	return nil
}

func (r *JobRepositoryImpl) SoftDelete(id string, now time.Time) error {
	res := r.db.Model(&models.Job{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":     models.JobStatusDeleted,
		"deleted_at": now,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrJobNotFound
	}
	return nil
}

// ListPublic returns active jobs only, featured ones first.
func (r *JobRepositoryImpl) ListPublic(filter JobFilter) ([]models.Job, int64, error) {
	q := r.db.Model(&models.Job{}).Where("status = ?", models.JobStatusActive)
	if filter.Region != "" {
		q = q.Where("region = ?", filter.Region)
	}
	if filter.Trade != "" {
		q = q.Where("trade = ?", filter.Trade)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where("title ILIKE ? OR company ILIKE ? OR description ILIKE ?", pattern, pattern, pattern)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var jobs []models.Job
	err := q.Order("is_featured DESC, created_at DESC").
		Limit(filter.Limit).Offset(filter.Offset).
		Find(&jobs).Error
	return jobs, total, err
}

func (r *JobRepositoryImpl) ListByEmployer(employerID string) ([]models.Job, error) {
	var jobs []models.Job
	err := r.db.Where("employer_id = ? AND status <> ?", employerID, models.JobStatusDeleted).
		Order("created_at DESC").
		Find(&jobs).Error
	return jobs, err
}

func (r *JobRepositoryImpl) CountActiveByEmployer(employerID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Job{}).
		Where("employer_id = ? AND status = ?", employerID, models.JobStatusActive).
		Count(&count).Error
	return count, err
}

func (r *JobRepositoryImpl) IncrementViews(id string) error {
	return r.db.Model(&models.Job{}).Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1")).Error
}

func (r *JobRepositoryImpl) FindFreeExpiringBefore(deadline time.Time) ([]models.Job, error) {
	var jobs []models.Job
	err := r.db.Where("status = ? AND is_free = ? AND expires_at <= ?",
		models.JobStatusActive, true, deadline).
		Find(&jobs).Error
	return jobs, err
}

// ClearExpiredFeatures drops featured/urgent flags whose windows have
// passed. Two updates, both idempotent.
func (r *JobRepositoryImpl) ClearExpiredFeatures(now time.Time) (int64, error) {
	featured := r.db.Model(&models.Job{}).
		Where("is_featured = ? AND featured_until <= ?", true, now).
		Updates(map[string]interface{}{"is_featured": false, "featured_until": nil})
	if featured.Error != nil {
		return 0, featured.Error
	}
	urgent := r.db.Model(&models.Job{}).
		Where("is_urgent = ? AND urgent_until <= ?", true, now).
		Updates(map[string]interface{}{"is_urgent": false, "urgent_until": nil})
	if urgent.Error != nil {
		return featured.RowsAffected, urgent.Error
	}
	return featured.RowsAffected + urgent.RowsAffected, nil
}
