package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/vkuznetsov/authgate/internal/apperrors"
	"github.com/vkuznetsov/authgate/internal/models"
	"github.com/vkuznetsov/authgate/internal/repository"
	"github.com/vkuznetsov/authgate/internal/service/auth"
)

type CreateParams struct {
	Email    string
	Username string
	Password string
	FullName *string
}

// Partial update: nil fields are left untouched
type UpdateParams struct {
	Email    *string
	Username *string
	Password *string
	FullName *string
}

type UserService struct {
	hasher  auth.PasswordHasher
	storage repository.Storage
}

func NewService(hasher auth.PasswordHasher, storage repository.Storage) *UserService {
	if hasher == nil {
		hasher = auth.DefaultHasher
	}

	return &UserService{
		hasher:  hasher,
		storage: storage,
	}
}

// Create hashes the password and persists the user.
// Email and username uniqueness is pre-checked, but the db unique
// constraint remains the authoritative guard (the pre-check may race)
func (s *UserService) Create(ctx context.Context, arg CreateParams) (models.User, error) {
	users := s.storage.User()

	if _, err := users.GetUserByEmail(ctx, arg.Email); err == nil {
		return models.User{}, apperrors.ErrEmailTaken
	}
	if _, err := users.GetUserByUsername(ctx, arg.Username); err == nil {
		return models.User{}, apperrors.ErrUsernameTaken
	}

	hash, err := s.hasher.Hash(arg.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("can't use this as password, Err: %w", err)
	}

	return users.CreateUser(ctx, repository.CreateUserParams{
		Email:        arg.Email,
		Username:     arg.Username,
		PasswordHash: hash,
		FullName:     arg.FullName,
	})
}

// Update applies only the provided fields. A new password is rehashed,
// a changed email or username is re-checked for uniqueness excluding self
func (s *UserService) Update(ctx context.Context, id int64, arg UpdateParams) (models.User, error) {
	users := s.storage.User()

	current, err := users.GetUserByID(ctx, id)
	if err != nil {
		return models.User{}, err
	}

	if arg.Email != nil && *arg.Email != current.Email {
		if _, err := users.GetUserByEmail(ctx, *arg.Email); err == nil {
			return models.User{}, apperrors.ErrEmailTaken
		}
	}
	if arg.Username != nil && *arg.Username != current.Username {
		if _, err := users.GetUserByUsername(ctx, *arg.Username); err == nil {
			return models.User{}, apperrors.ErrUsernameTaken
		}
	}

	var passwordHash *string
	if arg.Password != nil {
		hash, err := s.hasher.Hash(*arg.Password)
		if err != nil {
			return models.User{}, fmt.Errorf("can't use this as password, Err: %w", err)
		}
		passwordHash = &hash
	}

	return users.UpdateUser(ctx, id, repository.UpdateUserParams{
		Email:        arg.Email,
		Username:     arg.Username,
		PasswordHash: passwordHash,
		FullName:     arg.FullName,
	})
}

// Delete removes the user for good
func (s *UserService) Delete(ctx context.Context, id int64) error {
	return s.storage.User().DeleteUser(ctx, id)
}

// Authenticate returns the user only if it exists, the password matches and
// the account is active. Every miss returns the same error, so callers can
// not probe which emails are registered
func (s *UserService) Authenticate(ctx context.Context, email string, password string) (models.User, error) {
	user, err := s.storage.User().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return models.User{}, apperrors.ErrInvalidCredentials
		}
		return models.User{}, err
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return models.User{}, apperrors.ErrInvalidCredentials
	}

	if !user.IsActive {
		return models.User{}, apperrors.ErrInvalidCredentials
	}

	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id int64) (models.User, error) {
	return s.storage.User().GetUserByID(ctx, id)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (models.User, error) {
	return s.storage.User().GetUserByEmail(ctx, email)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (models.User, error) {
	return s.storage.User().GetUserByUsername(ctx, username)
}

func (s *UserService) List(ctx context.Context, offset int64, limit int64) ([]models.User, error) {
	return s.storage.User().ListUsers(ctx, offset, limit)
}

// SetSuperuser flips the superuser flag, used by the bootstrap command
func (s *UserService) SetSuperuser(ctx context.Context, id int64, superuser bool) (models.User, error) {
	return s.storage.User().UpdateUser(ctx, id, repository.UpdateUserParams{
		IsSuperuser: &superuser,
	})
}
