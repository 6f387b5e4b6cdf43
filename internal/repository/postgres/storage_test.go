package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkuznetsov/authgate/internal/apperrors"
	"github.com/vkuznetsov/authgate/internal/repository"
	"github.com/vkuznetsov/authgate/internal/testutil"
)

func Test_Storage_InTx(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	aliceParams := repository.CreateUserParams{
		Email:        "alice@example.com",
		Username:     "alice",
		PasswordHash: "hashed_password",
	}

	withStorage := func(dbpool *pgxpool.Pool, t *testing.T, fn func(storage *Storage)) {
		testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
			fn(NewStorage(tx))
		})
	}

	t.Run("commits on success", func(t *testing.T) {
		withStorage(pg.Pool, t, func(storage *Storage) {
			err := storage.InTx(t.Context(), func(s repository.Storage) error {
				created, err := s.User().CreateUser(t.Context(), aliceParams)
				if err != nil {
					return err
				}

				superuser := true
				_, err = s.User().UpdateUser(t.Context(), created.ID, repository.UpdateUserParams{
					IsSuperuser: &superuser,
				})
				return err
			})
			require.NoError(t, err)

			user, err := storage.User().GetUserByEmail(t.Context(), "alice@example.com")
			require.NoError(t, err)
			assert.True(t, user.IsSuperuser, "both writes should be visible after commit")
		})
	})

	t.Run("rolls back on error", func(t *testing.T) {
		boom := errors.New("boom")

		withStorage(pg.Pool, t, func(storage *Storage) {
			err := storage.InTx(t.Context(), func(s repository.Storage) error {
				if _, err := s.User().CreateUser(t.Context(), aliceParams); err != nil {
					return err
				}
				// Fail after the first write, as a promotion step would
				return boom
			})
			require.ErrorIs(t, err, boom)

			_, err = storage.User().GetUserByEmail(t.Context(), "alice@example.com")
			require.ErrorIs(t, err, apperrors.ErrUserNotFound, "no account should be left behind")
		})
	})
}
