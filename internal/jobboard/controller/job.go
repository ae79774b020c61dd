package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/gartstein/jobboard/internal/jobboard/auth"
	e "github.com/gartstein/jobboard/internal/jobboard/errors"
	"github.com/gartstein/jobboard/internal/jobboard/events"
	"github.com/gartstein/jobboard/internal/jobboard/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JobRepository defines the storage interface for job postings.
type JobRepository interface {
	CreateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error)
	UpdateJob(ctx context.Context, update *models.JobUpdate, companyID uuid.UUID) error
	DeleteJob(ctx context.Context, id, companyID uuid.UUID) ([]string, error)
	ListJobsByCompany(ctx context.Context, companyID uuid.UUID) ([]models.Job, error)
	GetCompanyByUser(ctx context.Context, userID uuid.UUID) (*models.Company, error)
}

// JobService manages job postings on behalf of their owning companies.
type JobService struct {
	repo     JobRepository
	files    FileStore
	producer EventProducer
	logger   *zap.Logger
}

func NewJobService(repo JobRepository, files FileStore, producer EventProducer, logger *zap.Logger) *JobService {
	return &JobService{
		repo:     repo,
		files:    files,
		producer: producer,
		logger:   logger.Named("job_service"),
	}
}

// Create posts a new job for the acting company, in active or draft state.
func (s *JobService) Create(ctx context.Context, principal auth.Principal, job *models.Job) (*models.Job, error) {
	if err := auth.RequireRole(principal, models.RoleCompany); err != nil {
		return nil, err
	}
	if job.Title == "" || len(job.Title) > 200 {
		return nil, fmt.Errorf("%w: invalid title", e.ErrInvalidInput)
	}
	if _, err := models.ParseJobType(string(job.Type)); err != nil {
		return nil, fmt.Errorf("%w: %v", e.ErrInvalidInput, err)
	}
	if job.Status != models.JobActive && job.Status != models.JobDraft {
		return nil, fmt.Errorf("%w: new jobs must be active or draft", e.ErrInvalidInput)
	}
	if err := validateSalaryRange(job.SalaryMin, job.SalaryMax); err != nil {
		return nil, err
	}

	company, err := s.repo.GetCompanyByUser(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, fmt.Errorf("%w: no company profile", e.ErrDenied)
		}
		return nil, fmt.Errorf("failed to resolve company: %w", err)
	}

	job.ID = uuid.New()
	job.CompanyID = company.ID
	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	go func() {
		s.producer.Produce(events.JobCreated, job.ID, job)
	}()
	return job, nil
}

// Update edits a job's content or status for the owning company only.
// Status changes ride the same partial update and are independent of
// content edits.
func (s *JobService) Update(ctx context.Context, principal auth.Principal, update *models.JobUpdate) (*models.Job, error) {
	if err := auth.RequireRole(principal, models.RoleCompany); err != nil {
		return nil, err
	}
	if update.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: invalid job ID", e.ErrInvalidInput)
	}
	if update.Status != nil {
		if _, err := models.ParseJobStatus(string(*update.Status)); err != nil {
			return nil, fmt.Errorf("%w: %v", e.ErrInvalidInput, err)
		}
	}
	if update.Type != nil {
		if _, err := models.ParseJobType(string(*update.Type)); err != nil {
			return nil, fmt.Errorf("%w: %v", e.ErrInvalidInput, err)
		}
	}
	if update.SalaryMin != nil || update.SalaryMax != nil {
		// A single-bound edit is checked against the stored other bound,
		// so a partial update can never leave the row with min > max.
		min, max := update.SalaryMin, update.SalaryMax
		if min == nil || max == nil {
			current, err := s.repo.GetJob(ctx, update.ID)
			if err != nil {
				if errors.Is(err, e.ErrNotFound) {
					return nil, err
				}
				return nil, fmt.Errorf("failed to load job: %w", err)
			}
			if min == nil {
				min = current.SalaryMin
			}
			if max == nil {
				max = current.SalaryMax
			}
		}
		if err := validateSalaryRange(min, max); err != nil {
			return nil, err
		}
	}

	company, err := s.repo.GetCompanyByUser(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, e.ErrDenied
		}
		return nil, fmt.Errorf("failed to resolve company: %w", err)
	}

	if err := s.repo.UpdateJob(ctx, update, company.ID); err != nil {
		return nil, err
	}
	return s.repo.GetJob(ctx, update.ID)
}

// Delete removes a job, its applications, and their resume files. File
// cleanup is best-effort after the rows are gone.
func (s *JobService) Delete(ctx context.Context, principal auth.Principal, jobID uuid.UUID) error {
	if err := auth.RequireRole(principal, models.RoleCompany); err != nil {
		return err
	}

	company, err := s.repo.GetCompanyByUser(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return e.ErrDenied
		}
		return fmt.Errorf("failed to resolve company: %w", err)
	}

	refs, err := s.repo.DeleteJob(ctx, jobID, company.ID)
	if err != nil {
		return err
	}
	for _, ref := range refs {
		if err := s.files.Delete(ctx, ref); err != nil {
			s.logger.Error("Failed to delete resume file",
				zap.Error(err),
				zap.String("resume_ref", ref),
			)
		}
	}

	go func() {
		s.producer.Produce(events.JobDeleted, jobID, nil)
	}()
	return nil
}

// Get returns a job posting. Reads are public.
func (s *JobService) Get(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	job, err := s.repo.GetJob(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

// ListByCompany returns a company's postings.
func (s *JobService) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]models.Job, error) {
	return s.repo.ListJobsByCompany(ctx, companyID)
}

func validateSalaryRange(min, max *int) error {
	if min != nil && *min < 0 {
		return fmt.Errorf("%w: salary must not be negative", e.ErrInvalidInput)
	}
	if max != nil && *max < 0 {
		return fmt.Errorf("%w: salary must not be negative", e.ErrInvalidInput)
	}
	if min != nil && max != nil && *min > *max {
		return fmt.Errorf("%w: minimum salary exceeds maximum", e.ErrInvalidInput)
	}
	return nil
}
