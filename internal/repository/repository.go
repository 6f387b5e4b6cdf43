package repository

import (
	"context"

	"github.com/vkuznetsov/authgate/internal/models"
)

type CreateUserParams struct {
	Email        string
	Username     string
	PasswordHash string
	FullName     *string
}

// Partial update: nil fields are left untouched.
type UpdateUserParams struct {
	Email        *string
	Username     *string
	PasswordHash *string
	FullName     *string
	IsActive     *bool
	IsSuperuser  *bool
}

// User repository interface
type UserRepo interface {
	// Create user
	// If email or username is taken already has to return
	// apperrors.ErrEmailTaken or apperrors.ErrUsernameTaken
	CreateUser(ctx context.Context, arg CreateUserParams) (models.User, error)

	// Get user by id, email or username
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, id int64) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)

	// Apply non-nil fields only and bump updated_at
	// Unique violations map the same way CreateUser does
	UpdateUser(ctx context.Context, id int64, arg UpdateUserParams) (models.User, error)

	// Hard delete
	// If user not found must return apperrors.ErrUserNotFound
	DeleteUser(ctx context.Context, id int64) error

	// List users ordered by id
	ListUsers(ctx context.Context, offset int64, limit int64) ([]models.User, error)
}

type Storage interface {
	User() UserRepo

	// Run fn within single db transaction
	InTx(ctx context.Context, fn func(Storage) error) error
}
