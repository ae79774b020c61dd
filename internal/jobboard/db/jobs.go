package db

import (
	"context"
	"errors"

	e "github.com/gartstein/jobboard/internal/jobboard/errors"
	"github.com/gartstein/jobboard/internal/jobboard/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func (r *Repository) CreateJob(ctx context.Context, job *models.Job) error {
	result := r.db.WithContext(ctx).Create(job)
	if result.Error != nil {
		return result.Error
	}
	return nil
}

func (r *Repository) GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	var job models.Job
	result := r.db.WithContext(ctx).First(&job, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return &job, nil
}

// UpdateJob applies a partial update. The WHERE clause re-verifies company
// ownership at write time; a zero-row result is disambiguated into
// not-found versus denied so callers never mistake one for the other.
func (r *Repository) UpdateJob(ctx context.Context, update *models.JobUpdate, companyID uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ? AND company_id = ?", update.ID, companyID).
		Updates(update)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.jobMissingOrDenied(ctx, update.ID)
	}
	return nil
}

func (r *Repository) ListJobsByCompany(ctx context.Context, companyID uuid.UUID) ([]models.Job, error) {
	var jobs []models.Job
	result := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("created_at DESC").
		Find(&jobs)
	if result.Error != nil {
		return nil, result.Error
	}
	return jobs, nil
}

// DeleteJob removes a job and cascades to its applications. It returns the
// resume refs of the deleted applications so the caller can clean up the
// stored files after the transaction commits.
func (r *Repository) DeleteJob(ctx context.Context, id, companyID uuid.UUID) ([]string, error) {
	var refs []string
	err := r.WithTransaction(ctx, func(tx *Repository) error {
		var job models.Job
		result := tx.db.First(&job, "id = ?", id)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return e.ErrNotFound
			}
			return result.Error
		}
		if job.CompanyID != companyID {
			return e.ErrDenied
		}

		if err := tx.db.Model(&models.Application{}).
			Where("job_id = ?", id).
			Pluck("resume_ref", &refs).Error; err != nil {
			return err
		}
		if err := tx.db.Delete(&models.Application{}, "job_id = ?", id).Error; err != nil {
			return err
		}

		result = tx.db.Delete(&models.Job{}, "id = ? AND company_id = ?", id, companyID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return e.ErrConflict
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return refs, nil
}

func (r *Repository) jobMissingOrDenied(ctx context.Context, id uuid.UUID) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return e.ErrNotFound
	}
	return e.ErrDenied
}
