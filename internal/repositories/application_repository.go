package repositories

import (
	"errors"

	"tradeboard_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrApplicationNotFound  = errors.New("application not found")
	ErrDuplicateApplication = errors.New("application already exists for this job")
)

type ApplicationRepository interface {
	// Create inserts the application. The unique index on
	// (job_id, applicant_id) makes concurrent double-submits surface as
	// ErrDuplicateApplication.
	Create(app *models.Application) error
	FindByID(id string) (*models.Application, error)
	Update(app *models.Application) error

	ListByJob(jobID string, limit, offset int) ([]models.Application, int64, error)
	ListByApplicant(applicantID string, limit, offset int) ([]models.Application, int64, error)
	CountByJob(jobID string) (int64, error)

	// RecordUpgradePrompt inserts the prompt marker for a job and
	// reports whether this call created it. Subsequent calls are no-ops.
	RecordUpgradePrompt(jobID string, promptType string) (bool, error)
}

type ApplicationRepositoryImpl struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &ApplicationRepositoryImpl{db: db}
}

func (r *ApplicationRepositoryImpl) Create(app *models.Application) error {
	err := r.db.Create(app).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateApplication
	}
	return err
}

func (r *ApplicationRepositoryImpl) FindByID(id string) (*models.Application, error) {
	var app models.Application
	err := r.db.Preload("Job").First(&app, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	return &app, nil
}

func (r *ApplicationRepositoryImpl) Update(app *models.Application) error {
	return r.db.Save(app).Error
}

func (r *ApplicationRepositoryImpl) ListByJob(jobID string, limit, offset int) ([]models.Application, int64, error) {
	q := r.db.Model(&models.Application{}).Where("job_id = ?", jobID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var apps []models.Application
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&apps).Error
	return apps, total, err
}

func (r *ApplicationRepositoryImpl) ListByApplicant(applicantID string, limit, offset int) ([]models.Application, int64, error) {
	q := r.db.Model(&models.Application{}).Where("applicant_id = ?", applicantID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var apps []models.Application
	err := q.Preload("Job").Order("created_at DESC").
		Limit(limit).Offset(offset).Find(&apps).Error
	return apps, total, err
}

func (r *ApplicationRepositoryImpl) CountByJob(jobID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Application{}).Where("job_id = ?", jobID).Count(&count).Error
	return count, err
}

func (r *ApplicationRepositoryImpl) RecordUpgradePrompt(jobID string, promptType string) (bool, error) {
	prompt := models.UpgradePrompt{JobID: jobID, PromptType: promptType}
	res := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&prompt)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
