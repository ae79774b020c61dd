// Package models defines the core domain entities for the job board:
// User, Company, Job, and Application, together with their enumerations
// and partial-update structs.
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role identifies what kind of account a User holds.
type Role string

const (
	RoleJobSeeker Role = "job_seeker"
	RoleCompany   Role = "company"
	RoleAdmin     Role = "admin"
)

// ParseRole validates a raw role string against the closed set.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleJobSeeker, RoleCompany, RoleAdmin:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// JobStatus is the publication state of a Job posting.
type JobStatus string

const (
	JobActive JobStatus = "active"
	JobDraft  JobStatus = "draft"
	JobClosed JobStatus = "closed"
)

// ParseJobStatus validates a raw job status string against the closed set.
func ParseJobStatus(s string) (JobStatus, error) {
	switch js := JobStatus(s); js {
	case JobActive, JobDraft, JobClosed:
		return js, nil
	}
	return "", fmt.Errorf("unknown job status %q", s)
}

// JobType categorizes the employment arrangement of a Job.
type JobType string

const (
	FullTime   JobType = "full-time"
	PartTime   JobType = "part-time"
	Contract   JobType = "contract"
	Internship JobType = "internship"
	Remote     JobType = "remote"
)

// ParseJobType validates a raw job type string against the closed set.
func ParseJobType(s string) (JobType, error) {
	switch jt := JobType(s); jt {
	case FullTime, PartTime, Contract, Internship, Remote:
		return jt, nil
	}
	return "", fmt.Errorf("unknown job type %q", s)
}

// ApplicationStatus is the review state of an Application. Statuses are
// validated at the boundary with ParseApplicationStatus; business logic
// never compares raw strings.
type ApplicationStatus string

const (
	StatusPending     ApplicationStatus = "pending"
	StatusReviewed    ApplicationStatus = "reviewed"
	StatusShortlisted ApplicationStatus = "shortlisted"
	StatusAccepted    ApplicationStatus = "accepted"
	StatusRejected    ApplicationStatus = "rejected"
)

// ParseApplicationStatus validates a raw status string against the closed set.
func ParseApplicationStatus(s string) (ApplicationStatus, error) {
	switch as := ApplicationStatus(s); as {
	case StatusPending, StatusReviewed, StatusShortlisted, StatusAccepted, StatusRejected:
		return as, nil
	}
	return "", fmt.Errorf("unknown application status %q", s)
}

// User is an account on the board. The credential is stored only in
// hashed form; the plaintext never reaches this struct.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         Role      `gorm:"size:20;not null" json:"role"`
	FirstName    string    `gorm:"size:100" json:"first_name"`
	LastName     string    `gorm:"size:100" json:"last_name"`
	Phone        string    `gorm:"size:30" json:"phone"`
	Active       bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Company is the display profile backing a company-role User.
// The unique index on UserID enforces at most one Company per user.
type Company struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Name        string    `gorm:"size:150;not null" json:"name"`
	Description string    `gorm:"size:3000" json:"description"`
	Location    string    `gorm:"size:150" json:"location"`
	Industry    string    `gorm:"size:100" json:"industry"`
	Size        string    `gorm:"size:50" json:"size"`
	FoundedYear int       `json:"founded_year"`
	LogoRef     string    `gorm:"size:255" json:"logo_ref"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Job is a posting owned by exactly one Company.
type Job struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID       uuid.UUID  `gorm:"type:uuid;index;not null" json:"company_id"`
	Title           string     `gorm:"size:200;not null" json:"title"`
	Description     string     `gorm:"size:5000" json:"description"`
	Requirements    string     `gorm:"size:5000" json:"requirements"`
	Location        string     `gorm:"size:150" json:"location"`
	SalaryMin       *int       `json:"salary_min"`
	SalaryMax       *int       `json:"salary_max"`
	Type            JobType    `gorm:"size:20;not null" json:"type"`
	ExperienceLevel string     `gorm:"size:50" json:"experience_level"`
	Category        *string    `gorm:"size:100" json:"category"`
	Status          JobStatus  `gorm:"size:20;not null" json:"status"`
	Deadline        *time.Time `json:"deadline"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Application links a job seeker to a Job. The composite unique index on
// (job_id, applicant_id) is the authoritative duplicate guard; the
// application-level existence check is advisory only.
type Application struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	JobID       uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_applications_job_applicant" json:"job_id"`
	ApplicantID uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_applications_job_applicant" json:"applicant_id"`
	CoverLetter string            `gorm:"size:2000;not null" json:"cover_letter"`
	ResumeRef   string            `gorm:"size:255;not null" json:"resume_ref"`
	Status      ApplicationStatus `gorm:"size:20;not null" json:"status"`
	AppliedAt   time.Time         `json:"applied_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// ApplicationDetail is a denormalized application row joined with the
// display fields a caller needs to render it without further lookups.
type ApplicationDetail struct {
	ID                 uuid.UUID         `json:"id"`
	JobID              uuid.UUID         `json:"job_id"`
	ApplicantID        uuid.UUID         `json:"applicant_id"`
	CoverLetter        string            `json:"cover_letter"`
	ResumeRef          string            `json:"resume_ref"`
	Status             ApplicationStatus `json:"status"`
	AppliedAt          time.Time         `json:"applied_at"`
	JobTitle           string            `json:"job_title"`
	JobLocation        string            `json:"job_location"`
	JobStatus          JobStatus         `json:"job_status"`
	CompanyID          uuid.UUID         `json:"company_id"`
	CompanyName        string            `json:"company_name"`
	ApplicantFirstName string            `json:"applicant_first_name"`
	ApplicantLastName  string            `json:"applicant_last_name"`
	ApplicantEmail     string            `json:"applicant_email"`
}

// UserUpdate carries the profile fields a user may edit.
// Pointer types are used to allow partial updates.
type UserUpdate struct {
	ID        uuid.UUID
	FirstName *string
	LastName  *string
	Phone     *string
	Active    *bool
}

// CompanyUpdate carries the company profile fields that can change.
type CompanyUpdate struct {
	ID          uuid.UUID
	Name        *string
	Description *string
	Location    *string
	Industry    *string
	Size        *string
	FoundedYear *int
	LogoRef     *string
}

// JobUpdate carries the job fields the owning company may edit.
// Status changes travel here too; content and status edits are independent.
type JobUpdate struct {
	ID              uuid.UUID
	Title           *string
	Description     *string
	Requirements    *string
	Location        *string
	SalaryMin       *int
	SalaryMax       *int
	Type            *JobType
	ExperienceLevel *string
	Category        *string
	Status          *JobStatus
	Deadline        *time.Time
}
