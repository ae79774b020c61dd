package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gartstein/jobboard/internal/jobboard/auth"
	"github.com/gartstein/jobboard/internal/jobboard/eligibility"
	e "github.com/gartstein/jobboard/internal/jobboard/errors"
	"github.com/gartstein/jobboard/internal/jobboard/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ApplicationController defines the application operations the handlers invoke.
type ApplicationController interface {
	Create(ctx context.Context, principal auth.Principal, jobID uuid.UUID, coverLetter, resumeRef string) (*models.Application, error)
	SetStatus(ctx context.Context, principal auth.Principal, appID uuid.UUID, rawStatus string) error
	Withdraw(ctx context.Context, principal auth.Principal, appID uuid.UUID) error
	GetByID(ctx context.Context, principal auth.Principal, id uuid.UUID) (*models.ApplicationDetail, error)
	ListByApplicant(ctx context.Context, principal auth.Principal, applicantID uuid.UUID) ([]models.ApplicationDetail, error)
	ListByJob(ctx context.Context, principal auth.Principal, jobID uuid.UUID) ([]models.ApplicationDetail, error)
	ListByCompany(ctx context.Context, principal auth.Principal, companyID uuid.UUID) ([]models.ApplicationDetail, error)
}

// JobController defines the job operations the handlers invoke.
type JobController interface {
	Create(ctx context.Context, principal auth.Principal, job *models.Job) (*models.Job, error)
	Update(ctx context.Context, principal auth.Principal, update *models.JobUpdate) (*models.Job, error)
	Delete(ctx context.Context, principal auth.Principal, jobID uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*models.Job, error)
	ListByCompany(ctx context.Context, companyID uuid.UUID) ([]models.Job, error)
}

// AccountController defines the account operations the handlers invoke.
type AccountController interface {
	Register(ctx context.Context, email, password, rawRole, firstName, lastName, phone string) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (string, *models.User, error)
	UpdateProfile(ctx context.Context, principal auth.Principal, update *models.UserUpdate) error
	ChangePassword(ctx context.Context, principal auth.Principal, current, next string) error
	CreateCompanyProfile(ctx context.Context, principal auth.Principal, company *models.Company) (*models.Company, error)
	UpdateCompanyProfile(ctx context.Context, principal auth.Principal, update *models.CompanyUpdate) (*models.Company, error)
}

// EligibilityChecker backs the pre-form eligibility endpoint.
type EligibilityChecker interface {
	CanApply(ctx context.Context, jobID, userID uuid.UUID) (eligibility.Decision, error)
}

// FileStore stores uploaded resumes.
type FileStore interface {
	Store(ctx context.Context, filename string, r io.Reader, size int64) (string, error)
}

// Handler routes HTTP requests to the controllers.
type Handler struct {
	applications ApplicationController
	jobs         JobController
	accounts     AccountController
	eligibility  EligibilityChecker
	files        FileStore
	jwtSecret    string
	uploadLimit  int64
	logger       *zap.Logger
}

func NewHandler(
	applications ApplicationController,
	jobs JobController,
	accounts AccountController,
	elig EligibilityChecker,
	files FileStore,
	jwtSecret string,
	uploadLimit int64,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		applications: applications,
		jobs:         jobs,
		accounts:     accounts,
		eligibility:  elig,
		files:        files,
		jwtSecret:    jwtSecret,
		uploadLimit:  uploadLimit,
		logger:       logger.Named("http_handler"),
	}
}

// Routes registers all endpoints on a fresh mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/auth/register", h.register)
	mux.HandleFunc("POST /v1/auth/login", h.login)
	mux.HandleFunc("GET /v1/auth/csrf", h.csrfToken)

	mux.HandleFunc("PATCH /v1/users/{id}", h.updateProfile)
	mux.HandleFunc("POST /v1/users/{id}/password", h.changePassword)
	mux.HandleFunc("GET /v1/users/{id}/applications", h.listApplicationsByApplicant)

	mux.HandleFunc("POST /v1/companies", h.createCompany)
	mux.HandleFunc("PATCH /v1/companies/{id}", h.updateCompany)
	mux.HandleFunc("GET /v1/companies/{id}/jobs", h.listJobsByCompany)
	mux.HandleFunc("GET /v1/companies/{id}/applications", h.listApplicationsByCompany)

	mux.HandleFunc("POST /v1/jobs", h.createJob)
	mux.HandleFunc("GET /v1/jobs/{id}", h.getJob)
	mux.HandleFunc("PATCH /v1/jobs/{id}", h.updateJob)
	mux.HandleFunc("DELETE /v1/jobs/{id}", h.deleteJob)
	mux.HandleFunc("GET /v1/jobs/{id}/eligibility", h.checkEligibility)
	mux.HandleFunc("POST /v1/jobs/{id}/applications", h.applyToJob)
	mux.HandleFunc("GET /v1/jobs/{id}/applications", h.listApplicationsByJob)

	mux.HandleFunc("GET /v1/applications/{id}", h.getApplication)
	mux.HandleFunc("PATCH /v1/applications/{id}/status", h.setApplicationStatus)
	mux.HandleFunc("DELETE /v1/applications/{id}", h.withdrawApplication)

	return mux
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		Role      string `json:"role"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Phone     string `json:"phone"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	user, err := h.accounts.Register(r.Context(), req.Email, req.Password, req.Role, req.FirstName, req.LastName, req.Phone)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, user)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	token, user, err := h.accounts.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	csrf, err := auth.IssueCSRFToken(user.ID, h.jwtSecret)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"token":      token,
		"csrf_token": csrf,
		"user":       user,
	})
}

// csrfToken reissues an anti-forgery token for the current session.
func (h *Handler) csrfToken(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	if principal.IsAnonymous() {
		h.writeError(w, e.ErrUnauthenticated)
		return
	}
	csrf, err := auth.IssueCSRFToken(principal.UserID, h.jwtSecret)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"csrf_token": csrf})
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		FirstName *string `json:"first_name"`
		LastName  *string `json:"last_name"`
		Phone     *string `json:"phone"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	update := &models.UserUpdate{ID: id, FirstName: req.FirstName, LastName: req.LastName, Phone: req.Phone}
	if err := h.accounts.UpdateProfile(r.Context(), auth.PrincipalFromContext(r.Context()), update); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	principal := auth.PrincipalFromContext(r.Context())
	if err := auth.RequireSameUser(principal, id); err != nil {
		h.writeError(w, err)
		return
	}
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.accounts.ChangePassword(r.Context(), principal, req.CurrentPassword, req.NewPassword); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) createCompany(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Location    string `json:"location"`
		Industry    string `json:"industry"`
		Size        string `json:"size"`
		FoundedYear int    `json:"founded_year"`
		LogoRef     string `json:"logo_ref"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	company := &models.Company{
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
		Industry:    req.Industry,
		Size:        req.Size,
		FoundedYear: req.FoundedYear,
		LogoRef:     req.LogoRef,
	}
	created, err := h.accounts.CreateCompanyProfile(r.Context(), auth.PrincipalFromContext(r.Context()), company)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) updateCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		Location    *string `json:"location"`
		Industry    *string `json:"industry"`
		Size        *string `json:"size"`
		FoundedYear *int    `json:"founded_year"`
		LogoRef     *string `json:"logo_ref"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	update := &models.CompanyUpdate{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
		Industry:    req.Industry,
		Size:        req.Size,
		FoundedYear: req.FoundedYear,
		LogoRef:     req.LogoRef,
	}
	company, err := h.accounts.UpdateCompanyProfile(r.Context(), auth.PrincipalFromContext(r.Context()), update)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, company)
}

type jobRequest struct {
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Requirements    string     `json:"requirements"`
	Location        string     `json:"location"`
	SalaryMin       *int       `json:"salary_min"`
	SalaryMax       *int       `json:"salary_max"`
	Type            string     `json:"type"`
	ExperienceLevel string     `json:"experience_level"`
	Category        *string    `json:"category"`
	Status          string     `json:"status"`
	Deadline        *time.Time `json:"deadline"`
}

func (h *Handler) createJob(w http.ResponseWriter, r *http.Request) {
	var req jobRequest
	if !h.decode(w, r, &req) {
		return
	}
	job := &models.Job{
		Title:           req.Title,
		Description:     req.Description,
		Requirements:    req.Requirements,
		Location:        req.Location,
		SalaryMin:       req.SalaryMin,
		SalaryMax:       req.SalaryMax,
		Type:            models.JobType(req.Type),
		ExperienceLevel: req.ExperienceLevel,
		Category:        req.Category,
		Status:          models.JobStatus(req.Status),
		Deadline:        req.Deadline,
	}
	created, err := h.jobs.Create(r.Context(), auth.PrincipalFromContext(r.Context()), job)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) getJob(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	job, err := h.jobs.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, job)
}

func (h *Handler) updateJob(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Title           *string    `json:"title"`
		Description     *string    `json:"description"`
		Requirements    *string    `json:"requirements"`
		Location        *string    `json:"location"`
		SalaryMin       *int       `json:"salary_min"`
		SalaryMax       *int       `json:"salary_max"`
		Type            *string    `json:"type"`
		ExperienceLevel *string    `json:"experience_level"`
		Category        *string    `json:"category"`
		Status          *string    `json:"status"`
		Deadline        *time.Time `json:"deadline"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	update := &models.JobUpdate{
		ID:              id,
		Title:           req.Title,
		Description:     req.Description,
		Requirements:    req.Requirements,
		Location:        req.Location,
		SalaryMin:       req.SalaryMin,
		SalaryMax:       req.SalaryMax,
		ExperienceLevel: req.ExperienceLevel,
		Category:        req.Category,
		Deadline:        req.Deadline,
	}
	if req.Type != nil {
		t := models.JobType(*req.Type)
		update.Type = &t
	}
	if req.Status != nil {
		s := models.JobStatus(*req.Status)
		update.Status = &s
	}
	job, err := h.jobs.Update(r.Context(), auth.PrincipalFromContext(r.Context()), update)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, job)
}

func (h *Handler) deleteJob(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.jobs.Delete(r.Context(), auth.PrincipalFromContext(r.Context()), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listJobsByCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	jobs, err := h.jobs.ListByCompany(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, jobs)
}

// checkEligibility backs the apply form: the same evaluation runs again
// at submission time.
func (h *Handler) checkEligibility(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	principal := auth.PrincipalFromContext(r.Context())
	if principal.IsAnonymous() {
		h.writeError(w, e.ErrUnauthenticated)
		return
	}
	decision, err := h.eligibility.CanApply(r.Context(), id, principal.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"can_apply": decision.CanApply,
		"reason":    decision.Reason,
	})
}

// applyToJob stores the uploaded resume, then submits the application.
// If submission fails for any reason the controller releases the file.
func (h *Handler) applyToJob(w http.ResponseWriter, r *http.Request) {
	jobID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(h.uploadLimit); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}
	file, header, err := r.FormFile("resume")
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "resume file is required"})
		return
	}
	defer file.Close()

	ref, err := h.files.Store(r.Context(), header.Filename, file, header.Size)
	if err != nil {
		h.writeError(w, err)
		return
	}

	app, err := h.applications.Create(r.Context(), auth.PrincipalFromContext(r.Context()), jobID, r.FormValue("cover_letter"), ref)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, app)
}

func (h *Handler) getApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	detail, err := h.applications.GetByID(r.Context(), auth.PrincipalFromContext(r.Context()), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) setApplicationStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.applications.SetStatus(r.Context(), auth.PrincipalFromContext(r.Context()), id, req.Status); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) withdrawApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.applications.Withdraw(r.Context(), auth.PrincipalFromContext(r.Context()), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listApplicationsByApplicant(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	rows, err := h.applications.ListByApplicant(r.Context(), auth.PrincipalFromContext(r.Context()), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, rows)
}

func (h *Handler) listApplicationsByJob(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	rows, err := h.applications.ListByJob(r.Context(), auth.PrincipalFromContext(r.Context()), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, rows)
}

func (h *Handler) listApplicationsByCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	rows, err := h.applications.ListByCompany(r.Context(), auth.PrincipalFromContext(r.Context()), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, rows)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// writeError maps the error taxonomy to HTTP statuses. Dependency and
// unknown errors are logged with context and surfaced as a generic
// failure; nothing internal leaks to the caller.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var eligErr *e.EligibilityError
	switch {
	case errors.As(err, &eligErr):
		h.writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": eligErr.Reason})
	case errors.Is(err, e.ErrInvalidInput):
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, e.ErrUnauthenticated):
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
	case errors.Is(err, e.ErrWithdrawAccepted):
		h.writeJSON(w, http.StatusConflict, map[string]string{"error": e.ErrWithdrawAccepted.Error()})
	case errors.Is(err, e.ErrDenied):
		h.writeJSON(w, http.StatusForbidden, map[string]string{"error": "access denied"})
	case errors.Is(err, e.ErrNotFound):
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, e.ErrConflict):
		h.writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		h.logger.Error("Request failed", zap.Error(err))
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
