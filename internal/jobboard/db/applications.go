package db

import (
	"context"
	"errors"
	"fmt"

	e "github.com/gartstein/jobboard/internal/jobboard/errors"
	"github.com/gartstein/jobboard/internal/jobboard/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateApplication inserts a new application row. The composite unique
// index on (job_id, applicant_id) is the authoritative duplicate guard;
// a violation from a concurrent double-submit surfaces as ErrConflict.
func (r *Repository) CreateApplication(ctx context.Context, app *models.Application) error {
	result := r.db.WithContext(ctx).Create(app)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: application already exists", e.ErrConflict)
		}
		return result.Error
	}
	return nil
}

func (r *Repository) GetApplication(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	var app models.Application
	result := r.db.WithContext(ctx).First(&app, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return &app, nil
}

// ApplicationExists reports whether the (job, applicant) pair already has
// an application. Advisory check only; CreateApplication is authoritative.
func (r *Repository) ApplicationExists(ctx context.Context, jobID, applicantID uuid.UUID) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.Application{}).
		Where("job_id = ? AND applicant_id = ?", jobID, applicantID).
		Limit(1).
		Count(&count)
	return count > 0, result.Error
}

// UpdateApplicationStatus sets the status of an application on behalf of
// the acting company. Ownership of the backing job is re-verified in the
// WHERE clause, so a stale-session privilege check cannot succeed after
// ownership has changed. Zero rows affected is never reported as success.
func (r *Repository) UpdateApplicationStatus(ctx context.Context, id uuid.UUID, status models.ApplicationStatus, companyID uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&models.Application{}).
		Where("id = ? AND job_id IN (SELECT id FROM jobs WHERE company_id = ?)", id, companyID).
		Update("status", status)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.Application{}).
			Where("id = ?", id).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return e.ErrNotFound
		}
		return e.ErrDenied
	}
	return nil
}

// DeleteApplication withdraws an application for the owning applicant.
// Accepted applications may not be withdrawn. The resume ref of the
// deleted row is returned so the caller can release the stored file.
func (r *Repository) DeleteApplication(ctx context.Context, id, applicantID uuid.UUID) (string, error) {
	var app models.Application
	result := r.db.WithContext(ctx).First(&app, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", e.ErrNotFound
		}
		return "", result.Error
	}
	if app.ApplicantID != applicantID {
		return "", e.ErrDenied
	}
	if app.Status == models.StatusAccepted {
		return "", e.ErrWithdrawAccepted
	}

	// Conditions repeated at write time; a concurrent acceptance between
	// the read above and this delete leaves the row untouched.
	result = r.db.WithContext(ctx).Delete(&models.Application{},
		"id = ? AND applicant_id = ? AND status <> ?", id, applicantID, models.StatusAccepted)
	if result.Error != nil {
		return "", result.Error
	}
	if result.RowsAffected == 0 {
		return "", fmt.Errorf("%w: application changed concurrently", e.ErrConflict)
	}
	return app.ResumeRef, nil
}

const applicationDetailColumns = `applications.id, applications.job_id, applications.applicant_id,
applications.cover_letter, applications.resume_ref, applications.status, applications.applied_at,
jobs.title AS job_title, jobs.location AS job_location, jobs.status AS job_status,
jobs.company_id AS company_id, companies.name AS company_name,
users.first_name AS applicant_first_name, users.last_name AS applicant_last_name,
users.email AS applicant_email`

func (r *Repository) applicationDetails(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Table("applications").
		Select(applicationDetailColumns).
		Joins("JOIN jobs ON jobs.id = applications.job_id").
		Joins("JOIN companies ON companies.id = jobs.company_id").
		Joins("JOIN users ON users.id = applications.applicant_id")
}

func (r *Repository) GetApplicationDetail(ctx context.Context, id uuid.UUID) (*models.ApplicationDetail, error) {
	var row models.ApplicationDetail
	result := r.applicationDetails(ctx).Where("applications.id = ?", id).Scan(&row)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, e.ErrNotFound
	}
	return &row, nil
}

func (r *Repository) ListApplicationsByApplicant(ctx context.Context, applicantID uuid.UUID) ([]models.ApplicationDetail, error) {
	var rows []models.ApplicationDetail
	result := r.applicationDetails(ctx).
		Where("applications.applicant_id = ?", applicantID).
		Order("applications.applied_at DESC").
		Scan(&rows)
	if result.Error != nil {
		return nil, result.Error
	}
	return rows, nil
}

func (r *Repository) ListApplicationsByJob(ctx context.Context, jobID uuid.UUID) ([]models.ApplicationDetail, error) {
	var rows []models.ApplicationDetail
	result := r.applicationDetails(ctx).
		Where("applications.job_id = ?", jobID).
		Order("applications.applied_at DESC").
		Scan(&rows)
	if result.Error != nil {
		return nil, result.Error
	}
	return rows, nil
}

func (r *Repository) ListApplicationsByCompany(ctx context.Context, companyID uuid.UUID) ([]models.ApplicationDetail, error) {
	var rows []models.ApplicationDetail
	result := r.applicationDetails(ctx).
		Where("jobs.company_id = ?", companyID).
		Order("applications.applied_at DESC").
		Scan(&rows)
	if result.Error != nil {
		return nil, result.Error
	}
	return rows, nil
}
