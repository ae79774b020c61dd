// Package eligibility decides whether a job seeker may submit a new
// application to a job at this moment.
package eligibility

import (
	"context"
	"errors"
	"fmt"
	"time"

	e "github.com/gartstein/jobboard/internal/jobboard/errors"
	"github.com/gartstein/jobboard/internal/jobboard/models"
	"github.com/google/uuid"
)

// Reason strings are user-facing and rendered verbatim by callers.
const (
	ReasonJobNotFound    = "Job not found"
	ReasonJobNotActive   = "Job is not active"
	ReasonDeadlinePassed = "Application deadline has passed"
	ReasonAlreadyApplied = "You have already applied for this job"
)

// Repository is the slice of storage the evaluator needs.
type Repository interface {
	GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error)
	ApplicationExists(ctx context.Context, jobID, applicantID uuid.UUID) (bool, error)
}

// Decision is the outcome of an eligibility check. Reason is set only
// when CanApply is false.
type Decision struct {
	CanApply bool
	Reason   string
}

type Evaluator struct {
	repo Repository
}

func NewEvaluator(repo Repository) *Evaluator {
	return &Evaluator{repo: repo}
}

// CanApply runs the checks in order, short-circuiting on the first
// failure: job exists, job active, deadline not passed, no existing
// application. It is called both before rendering the apply form and
// again at submission time; the storage layer's unique index remains the
// authoritative duplicate guard.
func (ev *Evaluator) CanApply(ctx context.Context, jobID, userID uuid.UUID) (Decision, error) {
	job, err := ev.repo.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return Decision{Reason: ReasonJobNotFound}, nil
		}
		return Decision{}, fmt.Errorf("failed to load job: %w", err)
	}

	if job.Status != models.JobActive {
		return Decision{Reason: ReasonJobNotActive}, nil
	}

	if job.Deadline != nil && job.Deadline.Before(time.Now()) {
		return Decision{Reason: ReasonDeadlinePassed}, nil
	}

	exists, err := ev.repo.ApplicationExists(ctx, jobID, userID)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to check existing application: %w", err)
	}
	if exists {
		return Decision{Reason: ReasonAlreadyApplied}, nil
	}

	return Decision{CanApply: true}, nil
}
