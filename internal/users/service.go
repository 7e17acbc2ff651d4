package users

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/permradar/permradar/internal/shared"
)

// RepositoryPort defines data access methods for account management.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]User, error)
	CreateUser(ctx context.Context, name, email, passwordHash, authRole, role, actor string) (int64, error)
	DeleteUser(ctx context.Context, userID int64, actor string) error
}

// Service handles account management business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListUsers returns all accounts with their assigned role.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// CreateUser provisions an account with the named graph role. Only accounts
// created with the admin role receive the admin auth level; everyone else
// authenticates as a viewer.
func (s *Service) CreateUser(ctx context.Context, name, email, password, role string, actor shared.Identity) (int64, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}

	authRole := "viewer"
	if role == "admin" {
		authRole = "admin"
	}

	return s.repo.CreateUser(ctx, name, email, string(hash), authRole, role, actor.Email)
}

// DeleteUser removes an account. Admins cannot delete themselves.
func (s *Service) DeleteUser(ctx context.Context, userID int64, actor shared.Identity) error {
	if actor.ID == userID {
		return fmt.Errorf("%w: you cannot delete your own account", shared.ErrValidation)
	}
	return s.repo.DeleteUser(ctx, userID, actor.Email)
}
