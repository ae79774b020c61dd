package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gartstein/jobboard/internal/jobboard/auth"
	e "github.com/gartstein/jobboard/internal/jobboard/errors"
	"github.com/gartstein/jobboard/internal/jobboard/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const passwordMin = 8

// AccountRepository defines the storage interface for users and company
// profiles.
type AccountRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, update *models.UserUpdate) error
	UpdateUserPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	CreateCompany(ctx context.Context, company *models.Company) error
	GetCompanyByUser(ctx context.Context, userID uuid.UUID) (*models.Company, error)
	UpdateCompany(ctx context.Context, update *models.CompanyUpdate) error
}

// AccountService handles registration, login, and profile management.
type AccountService struct {
	repo      AccountRepository
	jwtSecret string
	logger    *zap.Logger
}

func NewAccountService(repo AccountRepository, jwtSecret string, logger *zap.Logger) *AccountService {
	return &AccountService{
		repo:      repo,
		jwtSecret: jwtSecret,
		logger:    logger.Named("account_service"),
	}
}

// Register creates a new account with the given role. The plaintext
// password is hashed before it reaches storage.
func (s *AccountService) Register(ctx context.Context, email, password, rawRole, firstName, lastName, phone string) (*models.User, error) {
	role, err := models.ParseRole(rawRole)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", e.ErrInvalidInput, err)
	}
	if role == models.RoleAdmin {
		return nil, fmt.Errorf("%w: admin accounts cannot self-register", e.ErrDenied)
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: invalid email", e.ErrInvalidInput)
	}
	if len(password) < passwordMin {
		return nil, fmt.Errorf("%w: password must be at least %d characters", e.ErrInvalidInput, passwordMin)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		FirstName:    firstName,
		LastName:     lastName,
		Phone:        phone,
		Active:       true,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, e.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Authenticate verifies credentials and issues a session token. Unknown
// email and wrong password return the same denial.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (string, *models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return "", nil, fmt.Errorf("%w: invalid credentials", e.ErrDenied)
		}
		return "", nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if !user.Active {
		return "", nil, fmt.Errorf("%w: account disabled", e.ErrDenied)
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return "", nil, fmt.Errorf("%w: invalid credentials", e.ErrDenied)
	}

	token, err := auth.GenerateToken(auth.Principal{UserID: user.ID, Role: user.Role}, s.jwtSecret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return token, user, nil
}

// UpdateProfile edits the acting user's own profile fields.
func (s *AccountService) UpdateProfile(ctx context.Context, principal auth.Principal, update *models.UserUpdate) error {
	if err := auth.RequireSameUser(principal, update.ID); err != nil {
		return err
	}
	return s.repo.UpdateUser(ctx, update)
}

// ChangePassword verifies the current password before storing a new hash.
func (s *AccountService) ChangePassword(ctx context.Context, principal auth.Principal, current, next string) error {
	if principal.IsAnonymous() {
		return e.ErrUnauthenticated
	}
	if len(next) < passwordMin {
		return fmt.Errorf("%w: password must be at least %d characters", e.ErrInvalidInput, passwordMin)
	}

	user, err := s.repo.GetUser(ctx, principal.UserID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if !auth.CheckPassword(user.PasswordHash, current) {
		return fmt.Errorf("%w: current password incorrect", e.ErrDenied)
	}

	hash, err := auth.HashPassword(next)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.repo.UpdateUserPassword(ctx, principal.UserID, hash)
}

// CreateCompanyProfile attaches a company profile to the acting
// company-role user. At most one profile per user; the unique index
// enforces it.
func (s *AccountService) CreateCompanyProfile(ctx context.Context, principal auth.Principal, company *models.Company) (*models.Company, error) {
	if err := auth.RequireRole(principal, models.RoleCompany); err != nil {
		return nil, err
	}
	if company.Name == "" || len(company.Name) > 150 {
		return nil, fmt.Errorf("%w: invalid company name", e.ErrInvalidInput)
	}

	company.ID = uuid.New()
	company.UserID = principal.UserID
	if err := s.repo.CreateCompany(ctx, company); err != nil {
		if errors.Is(err, e.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create company: %w", err)
	}
	return company, nil
}

// UpdateCompanyProfile edits the acting user's own company profile.
func (s *AccountService) UpdateCompanyProfile(ctx context.Context, principal auth.Principal, update *models.CompanyUpdate) (*models.Company, error) {
	if err := auth.RequireRole(principal, models.RoleCompany); err != nil {
		return nil, err
	}

	company, err := s.repo.GetCompanyByUser(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, e.ErrDenied
		}
		return nil, fmt.Errorf("failed to resolve company: %w", err)
	}
	if company.ID != update.ID {
		return nil, e.ErrDenied
	}

	if err := s.repo.UpdateCompany(ctx, update); err != nil {
		return nil, err
	}
	return s.repo.GetCompanyByUser(ctx, principal.UserID)
}
