package user

import (
	"context"
	"fmt"

	"github.com/clientbook/service/internal/password"
)

// Store is the persistence interface the service depends on. Implemented by
// Repository.
type Store interface {
	Create(ctx context.Context, username, passwordHash string, admin bool) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	Update(ctx context.Context, u *User) (*User, error)
	Delete(ctx context.Context, id int64) error
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	CountAdmins(ctx context.Context) (int64, error)
}

// UpdateRequest carries the optional fields of a user patch. A nil field
// means "leave unchanged", so legitimately falsy values (admin=false) stay
// distinguishable from absent ones.
type UpdateRequest struct {
	Username *string
	Password *string
	Admin    *bool
}

// Service contains business logic for user management.
type Service struct {
	repo   Store
	hasher password.Hasher
}

// NewService creates a new user Service.
func NewService(repo Store, hasher password.Hasher) *Service {
	return &Service{repo: repo, hasher: hasher}
}

// Create registers a new user after checking username uniqueness. The check
// is not transactional with the insert; the unique index on username backs
// it up, and either path surfaces ErrUsernameTaken.
func (s *Service) Create(ctx context.Context, username, plainPassword string, admin bool) (*User, error) {
	exists, err := s.repo.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if exists {
		return nil, ErrUsernameTaken
	}

	hash, err := s.hasher.Hash(plainPassword)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	return s.repo.Create(ctx, username, hash, admin)
}

// GetByID returns a user by ID.
func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByUsername returns a user by username. Feeds the authentication layer,
// which maps ErrNotFound to its own credential error.
func (s *Service) GetByUsername(ctx context.Context, username string) (*User, error) {
	return s.repo.GetByUsername(ctx, username)
}

// List returns all users.
func (s *Service) List(ctx context.Context) ([]*User, error) {
	return s.repo.List(ctx)
}

// Patch applies the supplied fields to an existing user and re-saves it.
// A supplied password is re-hashed. No uniqueness pre-check is done on a
// username change — this surface is admin-only and the unique index rejects
// a true duplicate.
func (s *Service) Patch(ctx context.Context, id int64, upd UpdateRequest) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Username != nil {
		u.Username = *upd.Username
	}
	if upd.Password != nil {
		hash, err := s.hasher.Hash(*upd.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = hash
	}
	if upd.Admin != nil {
		u.Admin = *upd.Admin
	}

	return s.repo.Update(ctx, u)
}

// Delete removes a user. Deleting the last remaining administrator fails
// with ErrLastAdmin and performs no write.
func (s *Service) Delete(ctx context.Context, id int64) error {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if u.Admin {
		count, err := s.repo.CountAdmins(ctx)
		if err != nil {
			return fmt.Errorf("count admins: %w", err)
		}
		if count == 1 {
			return ErrLastAdmin
		}
	}

	return s.repo.Delete(ctx, id)
}

// CountAdmins returns the number of administrator accounts.
func (s *Service) CountAdmins(ctx context.Context) (int64, error) {
	return s.repo.CountAdmins(ctx)
}
