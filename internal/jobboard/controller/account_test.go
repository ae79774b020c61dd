package controller

import (
	"context"
	"errors"
	"testing"

	"github.com/gartstein/jobboard/internal/jobboard/auth"
	e "github.com/gartstein/jobboard/internal/jobboard/errors"
	"github.com/gartstein/jobboard/internal/jobboard/models"
	"github.com/gartstein/jobboard/internal/pkg/utils"
	"github.com/google/uuid"
	"go.uber.org/zap/zaptest"
)

const testJWTSecret = "test-secret"

// MockAccountRepository implements the AccountRepository interface for testing
type MockAccountRepository struct {
	createUser         func(context.Context, *models.User) error
	getUser            func(context.Context, uuid.UUID) (*models.User, error)
	getUserByEmail     func(context.Context, string) (*models.User, error)
	updateUser         func(context.Context, *models.UserUpdate) error
	updateUserPassword func(context.Context, uuid.UUID, string) error
	createCompany      func(context.Context, *models.Company) error
	getCompanyByUser   func(context.Context, uuid.UUID) (*models.Company, error)
	updateCompany      func(context.Context, *models.CompanyUpdate) error
}

func (m *MockAccountRepository) CreateUser(ctx context.Context, user *models.User) error {
	return m.createUser(ctx, user)
}

func (m *MockAccountRepository) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return m.getUser(ctx, id)
}

func (m *MockAccountRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.getUserByEmail(ctx, email)
}

func (m *MockAccountRepository) UpdateUser(ctx context.Context, update *models.UserUpdate) error {
	return m.updateUser(ctx, update)
}

func (m *MockAccountRepository) UpdateUserPassword(ctx context.Context, id uuid.UUID, hash string) error {
	return m.updateUserPassword(ctx, id, hash)
}

func (m *MockAccountRepository) CreateCompany(ctx context.Context, company *models.Company) error {
	return m.createCompany(ctx, company)
}

func (m *MockAccountRepository) GetCompanyByUser(ctx context.Context, userID uuid.UUID) (*models.Company, error) {
	return m.getCompanyByUser(ctx, userID)
}

func (m *MockAccountRepository) UpdateCompany(ctx context.Context, update *models.CompanyUpdate) error {
	return m.updateCompany(ctx, update)
}

func newAccountService(t *testing.T, repo *MockAccountRepository) *AccountService {
	t.Helper()
	return NewAccountService(repo, testJWTSecret, zaptest.NewLogger(t))
}

func TestAccountService_Register(t *testing.T) {
	tests := []struct {
		name          string
		email         string
		password      string
		role          string
		mockSetup     func(*MockAccountRepository)
		expectedError error
	}{
		{
			name:     "successful registration",
			email:    "Jane.Doe@Example.com",
			password: "password1",
			role:     "job_seeker",
			mockSetup: func(mr *MockAccountRepository) {
				mr.createUser = func(_ context.Context, user *models.User) error {
					if user.Email != "jane.doe@example.com" {
						return errors.New("email not normalized")
					}
					if user.PasswordHash == "password1" {
						return errors.New("plaintext password reached storage")
					}
					return nil
				}
			},
		},
		{
			name:          "admin self-registration denied",
			email:         "root@example.com",
			password:      "password1",
			role:          "admin",
			mockSetup:     func(_ *MockAccountRepository) {},
			expectedError: e.ErrDenied,
		},
		{
			name:          "unknown role",
			email:         "jane@example.com",
			password:      "password1",
			role:          "recruiter",
			mockSetup:     func(_ *MockAccountRepository) {},
			expectedError: e.ErrInvalidInput,
		},
		{
			name:          "invalid email",
			email:         "not-an-email",
			password:      "password1",
			role:          "job_seeker",
			mockSetup:     func(_ *MockAccountRepository) {},
			expectedError: e.ErrInvalidInput,
		},
		{
			name:          "password too short",
			email:         "jane@example.com",
			password:      "short",
			role:          "job_seeker",
			mockSetup:     func(_ *MockAccountRepository) {},
			expectedError: e.ErrInvalidInput,
		},
		{
			name:     "duplicate email",
			email:    "jane@example.com",
			password: "password1",
			role:     "job_seeker",
			mockSetup: func(mr *MockAccountRepository) {
				mr.createUser = func(_ context.Context, _ *models.User) error {
					return e.ErrConflict
				}
			},
			expectedError: e.ErrConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &MockAccountRepository{}
			tt.mockSetup(mockRepo)
			service := newAccountService(t, mockRepo)

			user, err := service.Register(context.Background(), tt.email, tt.password, tt.role, "Jane", "Doe", "")

			if tt.expectedError == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if !user.Active {
					t.Error("new accounts must start active")
				}
			} else {
				if err == nil {
					t.Fatal("expected error but got none")
				}
				if !errors.Is(err, tt.expectedError) {
					t.Errorf("expected error %v, got %v", tt.expectedError, err)
				}
			}
		})
	}
}

func TestAccountService_Authenticate(t *testing.T) {
	hash, err := auth.HashPassword("password1")
	if err != nil {
		t.Fatal(err)
	}
	user := &models.User{
		ID:           uuid.New(),
		Email:        "jane@example.com",
		PasswordHash: hash,
		Role:         models.RoleJobSeeker,
		Active:       true,
	}

	lookup := func(_ context.Context, email string) (*models.User, error) {
		if email != user.Email {
			return nil, e.ErrNotFound
		}
		return user, nil
	}

	t.Run("valid credentials issue a parseable token", func(t *testing.T) {
		service := newAccountService(t, &MockAccountRepository{getUserByEmail: lookup})

		token, got, err := service.Authenticate(context.Background(), "Jane@Example.com", "password1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.ID != user.ID {
			t.Errorf("expected user %v, got %v", user.ID, got.ID)
		}
		principal, err := auth.ParseToken(token, testJWTSecret)
		if err != nil {
			t.Fatalf("token does not parse: %v", err)
		}
		if principal.UserID != user.ID || principal.Role != models.RoleJobSeeker {
			t.Errorf("token carries wrong identity: %+v", principal)
		}
	})

	t.Run("wrong password and unknown email are indistinguishable", func(t *testing.T) {
		service := newAccountService(t, &MockAccountRepository{getUserByEmail: lookup})

		_, _, errWrong := service.Authenticate(context.Background(), "jane@example.com", "nope12345")
		_, _, errUnknown := service.Authenticate(context.Background(), "ghost@example.com", "password1")

		if !errors.Is(errWrong, e.ErrDenied) || !errors.Is(errUnknown, e.ErrDenied) {
			t.Fatalf("expected ErrDenied for both, got %v / %v", errWrong, errUnknown)
		}
		if errWrong.Error() != errUnknown.Error() {
			t.Errorf("denials must not leak which part failed: %q vs %q", errWrong, errUnknown)
		}
	})

	t.Run("disabled account", func(t *testing.T) {
		disabled := *user
		disabled.Active = false
		service := newAccountService(t, &MockAccountRepository{
			getUserByEmail: func(_ context.Context, _ string) (*models.User, error) {
				return &disabled, nil
			},
		})

		_, _, err := service.Authenticate(context.Background(), user.Email, "password1")
		if !errors.Is(err, e.ErrDenied) {
			t.Fatalf("expected ErrDenied, got %v", err)
		}
	})
}

func TestAccountService_UpdateProfile(t *testing.T) {
	userID := uuid.New()
	called := false
	service := newAccountService(t, &MockAccountRepository{
		updateUser: func(_ context.Context, _ *models.UserUpdate) error {
			called = true
			return nil
		},
	})

	err := service.UpdateProfile(context.Background(),
		auth.Principal{UserID: userID, Role: models.RoleJobSeeker},
		&models.UserUpdate{ID: userID, FirstName: utils.Ptr("Janet")})
	if err != nil || !called {
		t.Fatalf("expected own-profile update to pass through, err=%v called=%v", err, called)
	}

	err = service.UpdateProfile(context.Background(),
		auth.Principal{UserID: uuid.New(), Role: models.RoleJobSeeker},
		&models.UserUpdate{ID: userID})
	if !errors.Is(err, e.ErrDenied) {
		t.Fatalf("expected ErrDenied for foreign profile, got %v", err)
	}
}

func TestAccountService_ChangePassword(t *testing.T) {
	hash, err := auth.HashPassword("current1")
	if err != nil {
		t.Fatal(err)
	}
	userID := uuid.New()
	principal := auth.Principal{UserID: userID, Role: models.RoleJobSeeker}

	newRepo := func(stored *string) *MockAccountRepository {
		return &MockAccountRepository{
			getUser: func(_ context.Context, _ uuid.UUID) (*models.User, error) {
				return &models.User{ID: userID, PasswordHash: hash}, nil
			},
			updateUserPassword: func(_ context.Context, _ uuid.UUID, h string) error {
				*stored = h
				return nil
			},
		}
	}

	t.Run("successful change stores a new hash", func(t *testing.T) {
		var stored string
		service := newAccountService(t, newRepo(&stored))

		if err := service.ChangePassword(context.Background(), principal, "current1", "next-password"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if stored == "" || stored == hash {
			t.Error("expected a fresh hash to be stored")
		}
		if !auth.CheckPassword(stored, "next-password") {
			t.Error("stored hash does not verify the new password")
		}
	})

	t.Run("wrong current password", func(t *testing.T) {
		var stored string
		service := newAccountService(t, newRepo(&stored))

		err := service.ChangePassword(context.Background(), principal, "wrong", "next-password")
		if !errors.Is(err, e.ErrDenied) {
			t.Fatalf("expected ErrDenied, got %v", err)
		}
		if stored != "" {
			t.Error("failed change must not store anything")
		}
	})

	t.Run("anonymous caller", func(t *testing.T) {
		service := newAccountService(t, &MockAccountRepository{})

		err := service.ChangePassword(context.Background(), auth.Anonymous, "current1", "next-password")
		if !errors.Is(err, e.ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated, got %v", err)
		}
	})
}

func TestAccountService_CompanyProfile(t *testing.T) {
	principal := companyPrincipal()
	companyID := uuid.New()

	t.Run("create binds profile to acting user", func(t *testing.T) {
		service := newAccountService(t, &MockAccountRepository{
			createCompany: func(_ context.Context, company *models.Company) error {
				if company.UserID != principal.UserID {
					return errors.New("profile not bound to principal")
				}
				return nil
			},
		})

		company, err := service.CreateCompanyProfile(context.Background(), principal,
			&models.Company{Name: "Acme", UserID: uuid.New()})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if company.UserID != principal.UserID {
			t.Error("expected user ID overwritten from principal")
		}
	})

	t.Run("second profile conflicts", func(t *testing.T) {
		service := newAccountService(t, &MockAccountRepository{
			createCompany: func(_ context.Context, _ *models.Company) error {
				return e.ErrConflict
			},
		})

		_, err := service.CreateCompanyProfile(context.Background(), principal, &models.Company{Name: "Acme"})
		if !errors.Is(err, e.ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("seeker cannot create company profile", func(t *testing.T) {
		service := newAccountService(t, &MockAccountRepository{})

		_, err := service.CreateCompanyProfile(context.Background(), seeker(), &models.Company{Name: "Acme"})
		if !errors.Is(err, e.ErrDenied) {
			t.Fatalf("expected ErrDenied, got %v", err)
		}
	})

	t.Run("update rejects foreign company ID", func(t *testing.T) {
		service := newAccountService(t, &MockAccountRepository{
			getCompanyByUser: func(_ context.Context, _ uuid.UUID) (*models.Company, error) {
				return &models.Company{ID: companyID, UserID: principal.UserID}, nil
			},
		})

		_, err := service.UpdateCompanyProfile(context.Background(), principal,
			&models.CompanyUpdate{ID: uuid.New(), Name: utils.Ptr("Evil Corp")})
		if !errors.Is(err, e.ErrDenied) {
			t.Fatalf("expected ErrDenied, got %v", err)
		}
	})

	t.Run("update own company", func(t *testing.T) {
		updated := false
		service := newAccountService(t, &MockAccountRepository{
			getCompanyByUser: func(_ context.Context, _ uuid.UUID) (*models.Company, error) {
				return &models.Company{ID: companyID, UserID: principal.UserID}, nil
			},
			updateCompany: func(_ context.Context, _ *models.CompanyUpdate) error {
				updated = true
				return nil
			},
		})

		_, err := service.UpdateCompanyProfile(context.Background(), principal,
			&models.CompanyUpdate{ID: companyID, Name: utils.Ptr("Acme Ltd")})
		if err != nil || !updated {
			t.Fatalf("expected update to pass through, err=%v updated=%v", err, updated)
		}
	})
}
