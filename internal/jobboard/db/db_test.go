package db

import (
	"context"
	"testing"
	"time"

	e "github.com/gartstein/jobboard/internal/jobboard/errors"
	"github.com/gartstein/jobboard/internal/jobboard/models"
	"github.com/gartstein/jobboard/internal/pkg/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SetupTestDB initializes an in-memory SQLite database for testing.
func SetupTestDB(t *testing.T) *Repository {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "failed to open test database")

	err = db.AutoMigrate(&models.User{}, &models.Company{}, &models.Job{}, &models.Application{})
	require.NoError(t, err, "failed to migrate test database")

	return &Repository{db: db}
}

func seedUser(t *testing.T, repo *Repository, role models.Role) *models.User {
	t.Helper()
	user := &models.User{
		ID:           uuid.New(),
		Email:        uuid.New().String() + "@example.com",
		PasswordHash: "x",
		Role:         role,
		Active:       true,
	}
	require.NoError(t, repo.CreateUser(context.Background(), user), "CreateUser should succeed")
	return user
}

func seedCompany(t *testing.T, repo *Repository) *models.Company {
	t.Helper()
	user := seedUser(t, repo, models.RoleCompany)
	company := &models.Company{
		ID:     uuid.New(),
		UserID: user.ID,
		Name:   "Acme",
	}
	require.NoError(t, repo.CreateCompany(context.Background(), company), "CreateCompany should succeed")
	return company
}

func seedJob(t *testing.T, repo *Repository, companyID uuid.UUID, status models.JobStatus) *models.Job {
	t.Helper()
	job := &models.Job{
		ID:        uuid.New(),
		CompanyID: companyID,
		Title:     "Backend Engineer",
		Type:      models.FullTime,
		Status:    status,
	}
	require.NoError(t, repo.CreateJob(context.Background(), job), "CreateJob should succeed")
	return job
}

func seedApplication(t *testing.T, repo *Repository, jobID, applicantID uuid.UUID) *models.Application {
	t.Helper()
	app := &models.Application{
		ID:          uuid.New(),
		JobID:       jobID,
		ApplicantID: applicantID,
		CoverLetter: "cover letter",
		ResumeRef:   "resume-" + uuid.New().String() + ".pdf",
		Status:      models.StatusPending,
		AppliedAt:   time.Now(),
	}
	require.NoError(t, repo.CreateApplication(context.Background(), app), "CreateApplication should succeed")
	return app
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	user := seedUser(t, repo, models.RoleJobSeeker)

	dup := &models.User{
		ID:           uuid.New(),
		Email:        user.Email,
		PasswordHash: "y",
		Role:         models.RoleJobSeeker,
	}
	err := repo.CreateUser(ctx, dup)
	assert.ErrorIs(t, err, e.ErrConflict, "duplicate email should return ErrConflict")
}

func TestCreateCompanyOnePerUser(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	company := seedCompany(t, repo)

	second := &models.Company{
		ID:     uuid.New(),
		UserID: company.UserID,
		Name:   "Acme Two",
	}
	err := repo.CreateCompany(ctx, second)
	assert.ErrorIs(t, err, e.ErrConflict, "second company for the same user should return ErrConflict")

	// The profile stays reachable through its user.
	got, err := repo.GetCompanyByUser(ctx, company.UserID)
	require.NoError(t, err)
	assert.Equal(t, company.ID, got.ID)
}

func TestUpdateJobOwnership(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	owner := seedCompany(t, repo)
	other := seedCompany(t, repo)
	job := seedJob(t, repo, owner.ID, models.JobActive)

	update := &models.JobUpdate{ID: job.ID, Title: utils.Ptr("Renamed")}

	err := repo.UpdateJob(ctx, update, other.ID)
	assert.ErrorIs(t, err, e.ErrDenied, "non-owner update should return ErrDenied")

	unchanged, err := repo.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, "Backend Engineer", unchanged.Title, "denied update should not change the row")

	require.NoError(t, repo.UpdateJob(ctx, update, owner.ID), "owner update should succeed")
	updated, err := repo.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
}

func TestUpdateJobNotFound(t *testing.T) {
	repo := SetupTestDB(t)

	err := repo.UpdateJob(context.Background(), &models.JobUpdate{ID: uuid.New(), Title: utils.Ptr("x")}, uuid.New())
	assert.ErrorIs(t, err, e.ErrNotFound, "updating a missing job should return ErrNotFound")
}

func TestCreateApplicationDuplicate(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	company := seedCompany(t, repo)
	job := seedJob(t, repo, company.ID, models.JobActive)
	seeker := seedUser(t, repo, models.RoleJobSeeker)

	seedApplication(t, repo, job.ID, seeker.ID)

	// Second insert for the same (job, applicant) pair hits the unique
	// index even though no advisory existence check ran.
	dup := &models.Application{
		ID:          uuid.New(),
		JobID:       job.ID,
		ApplicantID: seeker.ID,
		CoverLetter: "another letter",
		ResumeRef:   "resume2.pdf",
		Status:      models.StatusPending,
		AppliedAt:   time.Now(),
	}
	err := repo.CreateApplication(ctx, dup)
	assert.ErrorIs(t, err, e.ErrConflict, "duplicate application should return ErrConflict")

	rows, err := repo.ListApplicationsByJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "only one application row may exist per (job, applicant)")
}

func TestApplicationExists(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	company := seedCompany(t, repo)
	job := seedJob(t, repo, company.ID, models.JobActive)
	seeker := seedUser(t, repo, models.RoleJobSeeker)

	exists, err := repo.ApplicationExists(ctx, job.ID, seeker.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	seedApplication(t, repo, job.ID, seeker.ID)

	exists, err = repo.ApplicationExists(ctx, job.ID, seeker.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUpdateApplicationStatusOwnership(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	owner := seedCompany(t, repo)
	other := seedCompany(t, repo)
	job := seedJob(t, repo, owner.ID, models.JobActive)
	seeker := seedUser(t, repo, models.RoleJobSeeker)
	app := seedApplication(t, repo, job.ID, seeker.ID)

	err := repo.UpdateApplicationStatus(ctx, app.ID, models.StatusShortlisted, other.ID)
	assert.ErrorIs(t, err, e.ErrDenied, "foreign company must not change the status")

	stored, err := repo.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status, "denied update should leave the status unchanged")

	require.NoError(t, repo.UpdateApplicationStatus(ctx, app.ID, models.StatusShortlisted, owner.ID))
	stored, err = repo.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusShortlisted, stored.Status)

	// Setting the same status again is an idempotent success.
	require.NoError(t, repo.UpdateApplicationStatus(ctx, app.ID, models.StatusShortlisted, owner.ID))
}

func TestUpdateApplicationStatusNotFound(t *testing.T) {
	repo := SetupTestDB(t)

	err := repo.UpdateApplicationStatus(context.Background(), uuid.New(), models.StatusReviewed, uuid.New())
	assert.ErrorIs(t, err, e.ErrNotFound, "missing application should return ErrNotFound")
}

func TestDeleteApplication(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	company := seedCompany(t, repo)
	job := seedJob(t, repo, company.ID, models.JobActive)
	seeker := seedUser(t, repo, models.RoleJobSeeker)
	app := seedApplication(t, repo, job.ID, seeker.ID)

	ref, err := repo.DeleteApplication(ctx, app.ID, seeker.ID)
	require.NoError(t, err)
	assert.Equal(t, app.ResumeRef, ref, "delete should return the resume ref for cleanup")

	_, err = repo.GetApplication(ctx, app.ID)
	assert.ErrorIs(t, err, e.ErrNotFound, "deleted application should not be found")
}

func TestDeleteApplicationGuards(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	company := seedCompany(t, repo)
	job := seedJob(t, repo, company.ID, models.JobActive)
	seeker := seedUser(t, repo, models.RoleJobSeeker)
	stranger := seedUser(t, repo, models.RoleJobSeeker)
	app := seedApplication(t, repo, job.ID, seeker.ID)

	_, err := repo.DeleteApplication(ctx, uuid.New(), seeker.ID)
	assert.ErrorIs(t, err, e.ErrNotFound)

	_, err = repo.DeleteApplication(ctx, app.ID, stranger.ID)
	assert.ErrorIs(t, err, e.ErrDenied, "non-owner withdrawal must be denied")

	require.NoError(t, repo.UpdateApplicationStatus(ctx, app.ID, models.StatusAccepted, company.ID))
	_, err = repo.DeleteApplication(ctx, app.ID, seeker.ID)
	assert.ErrorIs(t, err, e.ErrWithdrawAccepted, "accepted application must not be withdrawable")

	stored, err := repo.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, stored.Status, "failed withdrawal should leave the row intact")
}

func TestGetApplicationDetail(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	company := seedCompany(t, repo)
	job := seedJob(t, repo, company.ID, models.JobActive)
	seeker := seedUser(t, repo, models.RoleJobSeeker)
	app := seedApplication(t, repo, job.ID, seeker.ID)

	detail, err := repo.GetApplicationDetail(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, app.ID, detail.ID)
	assert.Equal(t, job.Title, detail.JobTitle)
	assert.Equal(t, company.ID, detail.CompanyID)
	assert.Equal(t, company.Name, detail.CompanyName)
	assert.Equal(t, seeker.Email, detail.ApplicantEmail)

	_, err = repo.GetApplicationDetail(ctx, uuid.New())
	assert.ErrorIs(t, err, e.ErrNotFound)
}

func TestListApplications(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	company := seedCompany(t, repo)
	jobA := seedJob(t, repo, company.ID, models.JobActive)
	jobB := seedJob(t, repo, company.ID, models.JobActive)
	seeker := seedUser(t, repo, models.RoleJobSeeker)
	seedApplication(t, repo, jobA.ID, seeker.ID)
	seedApplication(t, repo, jobB.ID, seeker.ID)

	byApplicant, err := repo.ListApplicationsByApplicant(ctx, seeker.ID)
	require.NoError(t, err)
	assert.Len(t, byApplicant, 2)

	byJob, err := repo.ListApplicationsByJob(ctx, jobA.ID)
	require.NoError(t, err)
	assert.Len(t, byJob, 1)

	byCompany, err := repo.ListApplicationsByCompany(ctx, company.ID)
	require.NoError(t, err)
	assert.Len(t, byCompany, 2)
}

func TestDeleteJobCascades(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	company := seedCompany(t, repo)
	job := seedJob(t, repo, company.ID, models.JobActive)
	seekerA := seedUser(t, repo, models.RoleJobSeeker)
	seekerB := seedUser(t, repo, models.RoleJobSeeker)
	appA := seedApplication(t, repo, job.ID, seekerA.ID)
	appB := seedApplication(t, repo, job.ID, seekerB.ID)

	refs, err := repo.DeleteJob(ctx, job.ID, company.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{appA.ResumeRef, appB.ResumeRef}, refs,
		"cascade delete should report the resume refs of removed applications")

	_, err = repo.GetJob(ctx, job.ID)
	assert.ErrorIs(t, err, e.ErrNotFound)

	rows, err := repo.ListApplicationsByApplicant(ctx, seekerA.ID)
	require.NoError(t, err)
	assert.Empty(t, rows, "applications should be gone with their job")
}

func TestDeleteJobOwnership(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	owner := seedCompany(t, repo)
	other := seedCompany(t, repo)
	job := seedJob(t, repo, owner.ID, models.JobActive)

	_, err := repo.DeleteJob(ctx, job.ID, other.ID)
	assert.ErrorIs(t, err, e.ErrDenied, "non-owner delete must be denied")

	_, err = repo.GetJob(ctx, job.ID)
	assert.NoError(t, err, "denied delete should leave the job in place")
}

func TestWithTransaction(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	err := repo.WithTransaction(ctx, func(txRepo *Repository) error {
		user := &models.User{
			ID:           uuid.New(),
			Email:        "tx@example.com",
			PasswordHash: "x",
			Role:         models.RoleJobSeeker,
		}
		return txRepo.CreateUser(ctx, user)
	})
	assert.NoError(t, err, "WithTransaction should execute successfully")

	_, err = repo.GetUserByEmail(ctx, "tx@example.com")
	assert.NoError(t, err, "user should exist after transaction")
}
