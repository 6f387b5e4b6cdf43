package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vkuznetsov/authgate/internal/apperrors"
	"github.com/vkuznetsov/authgate/internal/models"
	"github.com/vkuznetsov/authgate/internal/repository"
)

type UserRepo struct {
	DB DBTX
}

const createUser = `-- name: CreateUser
INSERT INTO users (email, username, password_hash, full_name)
VALUES ($1, $2, $3, $4)
RETURNING id, email, username, password_hash, full_name, is_active, is_superuser, created_at, updated_at
`

func (r *UserRepo) CreateUser(ctx context.Context, arg repository.CreateUserParams) (models.User, error) {
	rows, _ := r.DB.Query(ctx, createUser, arg.Email, arg.Username, arg.PasswordHash, arg.FullName)
	user, err := pgx.CollectOneRow(rows, rowToUser)
	if err != nil {
		return user, mapConstraintErr(err)
	}

	return user, nil
}

const getUserByID = `-- name: GetUserByID
SELECT id, email, username, password_hash, full_name, is_active, is_superuser, created_at, updated_at
FROM users
WHERE id = $1
`

func (r *UserRepo) GetUserByID(ctx context.Context, id int64) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByID, id)
	return collectUser(rows)
}

const getUserByEmail = `-- name: GetUserByEmail
SELECT id, email, username, password_hash, full_name, is_active, is_superuser, created_at, updated_at
FROM users
WHERE email = $1
`

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByEmail, email)
	return collectUser(rows)
}

const getUserByUsername = `-- name: GetUserByUsername
SELECT id, email, username, password_hash, full_name, is_active, is_superuser, created_at, updated_at
FROM users
WHERE username = $1
`

func (r *UserRepo) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByUsername, username)
	return collectUser(rows)
}

const updateUser = `-- name: UpdateUser
UPDATE users
SET email         = COALESCE($2, email),
    username      = COALESCE($3, username),
    password_hash = COALESCE($4, password_hash),
    full_name     = COALESCE($5, full_name),
    is_active     = COALESCE($6, is_active),
    is_superuser  = COALESCE($7, is_superuser),
    updated_at    = now()
WHERE id = $1
RETURNING id, email, username, password_hash, full_name, is_active, is_superuser, created_at, updated_at
`

func (r *UserRepo) UpdateUser(ctx context.Context, id int64, arg repository.UpdateUserParams) (models.User, error) {
	rows, _ := r.DB.Query(ctx, updateUser,
		id,
		arg.Email,
		arg.Username,
		arg.PasswordHash,
		arg.FullName,
		arg.IsActive,
		arg.IsSuperuser,
	)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, mapConstraintErr(err)
	}
}

const deleteUser = `-- name: DeleteUser
DELETE FROM users
WHERE id = $1
`

func (r *UserRepo) DeleteUser(ctx context.Context, id int64) error {
	tag, err := r.DB.Exec(ctx, deleteUser, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}

	return nil
}

const listUsers = `-- name: ListUsers
SELECT id, email, username, password_hash, full_name, is_active, is_superuser, created_at, updated_at
FROM users
ORDER BY id
OFFSET $1 LIMIT $2
`

func (r *UserRepo) ListUsers(ctx context.Context, offset int64, limit int64) ([]models.User, error) {
	rows, _ := r.DB.Query(ctx, listUsers, offset, limit)
	users, err := pgx.CollectRows(rows, rowToUser)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return users, nil
}

func collectUser(rows pgx.Rows) (models.User, error) {
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

// The unique constraints are the authoritative uniqueness guard: service level
// pre-checks may race, the db rejection always maps to the same taken error
func mapConstraintErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		switch pgErr.ConstraintName {
		case "users_email_key":
			return apperrors.ErrEmailTaken
		case "users_username_key":
			return apperrors.ErrUsernameTaken
		}
	}

	return fmt.Errorf("db error: %w", err)
}

func rowToUser(row pgx.CollectableRow) (models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.HashedPassword,
		&u.FullName,
		&u.IsActive,
		&u.IsSuperuser,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}
