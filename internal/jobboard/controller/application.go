// Package controller implements the core business logic for the job
// board: application lifecycle, job management, and accounts. Every
// operation takes an explicit Principal; authorization never reads
// ambient state.
package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gartstein/jobboard/internal/jobboard/auth"
	"github.com/gartstein/jobboard/internal/jobboard/eligibility"
	e "github.com/gartstein/jobboard/internal/jobboard/errors"
	"github.com/gartstein/jobboard/internal/jobboard/events"
	"github.com/gartstein/jobboard/internal/jobboard/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	coverLetterMin = 50
	coverLetterMax = 2000
)

// EventProducer publishes lifecycle events.
type EventProducer interface {
	Produce(eventType events.EventType, entityID uuid.UUID, payload interface{})
}

// FileStore is the slice of file storage the services need: releasing
// resume files on failure paths and after withdrawals.
type FileStore interface {
	Delete(ctx context.Context, ref string) error
}

// Eligibility decides whether an application may be created.
type Eligibility interface {
	CanApply(ctx context.Context, jobID, userID uuid.UUID) (eligibility.Decision, error)
}

// ApplicationRepository defines the storage interface for applications.
type ApplicationRepository interface {
	CreateApplication(ctx context.Context, app *models.Application) error
	GetApplicationDetail(ctx context.Context, id uuid.UUID) (*models.ApplicationDetail, error)
	ListApplicationsByApplicant(ctx context.Context, applicantID uuid.UUID) ([]models.ApplicationDetail, error)
	ListApplicationsByJob(ctx context.Context, jobID uuid.UUID) ([]models.ApplicationDetail, error)
	ListApplicationsByCompany(ctx context.Context, companyID uuid.UUID) ([]models.ApplicationDetail, error)
	UpdateApplicationStatus(ctx context.Context, id uuid.UUID, status models.ApplicationStatus, companyID uuid.UUID) error
	DeleteApplication(ctx context.Context, id, applicantID uuid.UUID) (string, error)
	GetCompanyByUser(ctx context.Context, userID uuid.UUID) (*models.Company, error)
	GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error)
}

// StatusChange is the payload of an application_status_changed event.
type StatusChange struct {
	ApplicationID uuid.UUID
	Status        models.ApplicationStatus
}

// ApplicationService owns the application lifecycle: creation with
// compensating resume cleanup, status transitions, withdrawal, reads.
type ApplicationService struct {
	repo        ApplicationRepository
	eligibility Eligibility
	files       FileStore
	producer    EventProducer
	logger      *zap.Logger
}

func NewApplicationService(repo ApplicationRepository, elig Eligibility, files FileStore, producer EventProducer, logger *zap.Logger) *ApplicationService {
	return &ApplicationService{
		repo:        repo,
		eligibility: elig,
		files:       files,
		producer:    producer,
		logger:      logger.Named("application_service"),
	}
}

// Create submits an application for the acting job seeker. resumeRef
// must already be stored; on every non-success exit the stored file is
// released so no orphaned upload survives a failed submission.
func (s *ApplicationService) Create(ctx context.Context, principal auth.Principal, jobID uuid.UUID, coverLetter, resumeRef string) (app *models.Application, err error) {
	defer func() {
		if err != nil && resumeRef != "" {
			s.releaseResume(ctx, resumeRef)
		}
	}()

	if err = auth.RequireRole(principal, models.RoleJobSeeker); err != nil {
		return nil, err
	}
	if resumeRef == "" {
		return nil, fmt.Errorf("%w: resume is required", e.ErrInvalidInput)
	}
	if l := len(coverLetter); l < coverLetterMin || l > coverLetterMax {
		return nil, fmt.Errorf("%w: cover letter must be between %d and %d characters",
			e.ErrInvalidInput, coverLetterMin, coverLetterMax)
	}

	decision, err := s.eligibility.CanApply(ctx, jobID, principal.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate eligibility: %w", err)
	}
	if !decision.CanApply {
		return nil, &e.EligibilityError{Reason: decision.Reason}
	}

	app = &models.Application{
		ID:          uuid.New(),
		JobID:       jobID,
		ApplicantID: principal.UserID,
		CoverLetter: coverLetter,
		ResumeRef:   resumeRef,
		Status:      models.StatusPending,
		AppliedAt:   time.Now(),
	}
	if err = s.repo.CreateApplication(ctx, app); err != nil {
		if errors.Is(err, e.ErrConflict) {
			// Lost the race against a concurrent double-submit; the unique
			// index is authoritative, the earlier eligibility pass advisory.
			return nil, err
		}
		return nil, fmt.Errorf("failed to create application: %w", err)
	}

	go func() {
		s.producer.Produce(events.ApplicationSubmitted, app.ID, app)
	}()
	return app, nil
}

// SetStatus moves an application to a new review status on behalf of the
// owning company. The raw status is validated against the closed enum
// before storage is touched; ownership is re-verified by the update's
// WHERE clause. Setting the current status again is a no-op success.
//
// Transitions out of "accepted" are deliberately permitted, matching the
// product's current behavior of letting a company correct a decision.
func (s *ApplicationService) SetStatus(ctx context.Context, principal auth.Principal, appID uuid.UUID, rawStatus string) error {
	if err := auth.RequireRole(principal, models.RoleCompany); err != nil {
		return err
	}
	status, err := models.ParseApplicationStatus(rawStatus)
	if err != nil {
		return fmt.Errorf("%w: %v", e.ErrInvalidInput, err)
	}

	company, err := s.repo.GetCompanyByUser(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return e.ErrDenied
		}
		return fmt.Errorf("failed to resolve company: %w", err)
	}

	if err := s.repo.UpdateApplicationStatus(ctx, appID, status, company.ID); err != nil {
		return err
	}

	go func() {
		s.producer.Produce(events.ApplicationStatusChanged, appID, StatusChange{
			ApplicationID: appID,
			Status:        status,
		})
	}()
	return nil
}

// Withdraw deletes the acting applicant's application. Accepted
// applications cannot be withdrawn. The resume file is released after
// the row deletion; a failed file delete is logged but never undoes the
// withdrawal.
func (s *ApplicationService) Withdraw(ctx context.Context, principal auth.Principal, appID uuid.UUID) error {
	if err := auth.RequireRole(principal, models.RoleJobSeeker); err != nil {
		return err
	}

	resumeRef, err := s.repo.DeleteApplication(ctx, appID, principal.UserID)
	if err != nil {
		return err
	}
	s.releaseResume(ctx, resumeRef)

	go func() {
		s.producer.Produce(events.ApplicationWithdrawn, appID, nil)
	}()
	return nil
}

// GetByID returns the denormalized application row to its applicant, the
// owning company, or an admin.
func (s *ApplicationService) GetByID(ctx context.Context, principal auth.Principal, id uuid.UUID) (*models.ApplicationDetail, error) {
	if principal.IsAnonymous() {
		return nil, e.ErrUnauthenticated
	}

	detail, err := s.repo.GetApplicationDetail(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}

	switch principal.Role {
	case models.RoleAdmin:
		return detail, nil
	case models.RoleJobSeeker:
		if detail.ApplicantID == principal.UserID {
			return detail, nil
		}
	case models.RoleCompany:
		company, err := s.repo.GetCompanyByUser(ctx, principal.UserID)
		if err == nil && company.ID == detail.CompanyID {
			return detail, nil
		}
	}
	return nil, e.ErrDenied
}

// ListByApplicant returns a seeker's own applications.
func (s *ApplicationService) ListByApplicant(ctx context.Context, principal auth.Principal, applicantID uuid.UUID) ([]models.ApplicationDetail, error) {
	if principal.Role != models.RoleAdmin {
		if err := auth.RequireSameUser(principal, applicantID); err != nil {
			return nil, err
		}
	}
	return s.repo.ListApplicationsByApplicant(ctx, applicantID)
}

// ListByJob returns the applications for a job to its owning company.
func (s *ApplicationService) ListByJob(ctx context.Context, principal auth.Principal, jobID uuid.UUID) ([]models.ApplicationDetail, error) {
	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load job: %w", err)
	}
	if err := s.requireCompanyAccess(ctx, principal, job.CompanyID); err != nil {
		return nil, err
	}
	return s.repo.ListApplicationsByJob(ctx, jobID)
}

// ListByCompany returns all applications across a company's jobs.
func (s *ApplicationService) ListByCompany(ctx context.Context, principal auth.Principal, companyID uuid.UUID) ([]models.ApplicationDetail, error) {
	if err := s.requireCompanyAccess(ctx, principal, companyID); err != nil {
		return nil, err
	}
	return s.repo.ListApplicationsByCompany(ctx, companyID)
}

func (s *ApplicationService) requireCompanyAccess(ctx context.Context, principal auth.Principal, companyID uuid.UUID) error {
	if principal.IsAnonymous() {
		return e.ErrUnauthenticated
	}
	if principal.Role == models.RoleAdmin {
		return nil
	}
	if principal.Role != models.RoleCompany {
		return e.ErrDenied
	}
	company, err := s.repo.GetCompanyByUser(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return e.ErrDenied
		}
		return fmt.Errorf("failed to resolve company: %w", err)
	}
	if company.ID != companyID {
		return e.ErrDenied
	}
	return nil
}

// releaseResume is best-effort cleanup of a stored resume file.
func (s *ApplicationService) releaseResume(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	if err := s.files.Delete(ctx, ref); err != nil {
		s.logger.Error("Failed to delete resume file",
			zap.Error(err),
			zap.String("resume_ref", ref),
		)
	}
}
