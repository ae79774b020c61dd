// Package errors defines the sentinel errors shared across the job board
// core. Callers match them with errors.Is; the reason attached to an
// eligibility denial is recovered with errors.As.
package errors

import (
	"fmt"
)

var (
	ErrNotFound        = fmt.Errorf("not found")
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrUnauthenticated = fmt.Errorf("authentication required")
	ErrDenied          = fmt.Errorf("access denied")
	ErrEligibility     = fmt.Errorf("not eligible")
	ErrConflict        = fmt.Errorf("conflict")
	ErrDependency      = fmt.Errorf("dependency failure")

	// ErrWithdrawAccepted is a business rule, not an authorization failure:
	// the owning applicant may not withdraw once a company has accepted.
	ErrWithdrawAccepted = fmt.Errorf("cannot withdraw accepted application")
)

// EligibilityError carries the user-facing reason an application may not
// be created. It unwraps to ErrEligibility.
type EligibilityError struct {
	Reason string
}

func (e *EligibilityError) Error() string {
	return fmt.Sprintf("not eligible: %s", e.Reason)
}

func (e *EligibilityError) Unwrap() error {
	return ErrEligibility
}
