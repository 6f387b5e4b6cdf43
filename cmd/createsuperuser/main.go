package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/vkuznetsov/authgate/internal/apperrors"
	"github.com/vkuznetsov/authgate/internal/db"
	"github.com/vkuznetsov/authgate/internal/models"
	"github.com/vkuznetsov/authgate/internal/repository"
	"github.com/vkuznetsov/authgate/internal/repository/postgres"
	"github.com/vkuznetsov/authgate/internal/service/auth"
	"github.com/vkuznetsov/authgate/internal/service/user"
)

// Bootstrap an administrator account
func main() {
	var (
		dsn      = pflag.StringP("database", "d", os.Getenv("DATABASE_URL"), "Database connection string")
		email    = pflag.String("email", "admin@example.com", "Superuser email")
		username = pflag.String("username", "admin", "Superuser username")
		password = pflag.String("password", "", "Superuser password (required)")
		fullName = pflag.String("full-name", "Administrator", "Superuser full name")
	)
	pflag.Parse()

	if err := run(context.Background(), *dsn, *email, *username, *password, *fullName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, dsn string, email string, username string, password string, fullName string) error {
	if dsn == "" {
		return errors.New("database DSN must be set (flag -d or DATABASE_URL)")
	}
	if password == "" {
		return errors.New("password must be set")
	}

	pool, err := db.ConnectAndMigrate(ctx, dsn)
	if err != nil {
		return fmt.Errorf("error while connecting to db. Err: %w", err)
	}
	defer pool.Close()

	storage := postgres.NewStorage(pool)

	// Create and promote in one transaction so a failure between the two
	// writes does not leave a plain account behind
	var created models.User
	err = storage.InTx(ctx, func(s repository.Storage) error {
		userService := user.NewService(auth.DefaultHasher, s)

		u, err := userService.Create(ctx, user.CreateParams{
			Email:    email,
			Username: username,
			Password: password,
			FullName: &fullName,
		})
		if err != nil {
			return err
		}

		created, err = userService.SetSuperuser(ctx, u.ID, true)
		return err
	})
	switch {
	case errors.Is(err, apperrors.ErrEmailTaken), errors.Is(err, apperrors.ErrUsernameTaken):
		fmt.Printf("user %q already exists, nothing to do\n", email)
		return nil
	case err != nil:
		return fmt.Errorf("error while creating superuser. Err: %w", err)
	}

	fmt.Printf("superuser created: id=%d email=%s username=%s\n", created.ID, email, username)
	return nil
}
