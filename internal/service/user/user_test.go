package user

import (
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkuznetsov/authgate/internal/apperrors"
	"github.com/vkuznetsov/authgate/internal/repository"
	"github.com/vkuznetsov/authgate/internal/repository/postgres"
	"github.com/vkuznetsov/authgate/internal/service/auth"
	"github.com/vkuznetsov/authgate/internal/testutil"
)

func strPtr(s string) *string { return &s }

func Test_UserService(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	aliceParams := CreateParams{
		Email:    "alice@example.com",
		Username: "alice",
		Password: "Abcdef1!",
		FullName: strPtr("Alice Smith"),
	}

	withService := func(dbpool *pgxpool.Pool, t *testing.T, fn func(s *UserService)) {
		testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
			fn(NewService(auth.DefaultHasher, postgres.NewStorage(tx)))
		})
	}

	t.Run("Create", func(t *testing.T) {
		t.Run("hashes password", func(t *testing.T) {
			withService(pg.Pool, t, func(s *UserService) {
				user, err := s.Create(t.Context(), aliceParams)
				require.NoError(t, err)

				assert.NotEqual(t, "Abcdef1!", user.HashedPassword, "password must never be stored as plaintext")
				require.NoError(t, auth.DefaultHasher.Compare(user.HashedPassword, "Abcdef1!"))
				assert.True(t, user.IsActive)
				assert.False(t, user.IsSuperuser)
			})
		})

		t.Run("duplicate email conflicts", func(t *testing.T) {
			withService(pg.Pool, t, func(s *UserService) {
				_, err := s.Create(t.Context(), aliceParams)
				require.NoError(t, err)

				dup := aliceParams
				dup.Username = "alice2"
				_, err = s.Create(t.Context(), dup)
				require.ErrorIs(t, err, apperrors.ErrEmailTaken)
			})
		})

		t.Run("duplicate username conflicts", func(t *testing.T) {
			withService(pg.Pool, t, func(s *UserService) {
				_, err := s.Create(t.Context(), aliceParams)
				require.NoError(t, err)

				dup := aliceParams
				dup.Email = "alice2@example.com"
				_, err = s.Create(t.Context(), dup)
				require.ErrorIs(t, err, apperrors.ErrUsernameTaken)
			})
		})
	})

	t.Run("Update", func(t *testing.T) {
		t.Run("full name only leaves the rest untouched", func(t *testing.T) {
			withService(pg.Pool, t, func(s *UserService) {
				created, err := s.Create(t.Context(), aliceParams)
				require.NoError(t, err)

				updated, err := s.Update(t.Context(), created.ID, UpdateParams{
					FullName: strPtr("Alice Cooper"),
				})
				require.NoError(t, err)

				assert.Equal(t, created.Email, updated.Email)
				assert.Equal(t, created.Username, updated.Username)
				assert.Equal(t, created.HashedPassword, updated.HashedPassword)
				require.NotNil(t, updated.FullName)
				assert.Equal(t, "Alice Cooper", *updated.FullName)
			})
		})

		t.Run("password is rehashed", func(t *testing.T) {
			withService(pg.Pool, t, func(s *UserService) {
				created, err := s.Create(t.Context(), aliceParams)
				require.NoError(t, err)

				updated, err := s.Update(t.Context(), created.ID, UpdateParams{
					Password: strPtr("NewPassword1!"),
				})
				require.NoError(t, err)

				assert.NotEqual(t, created.HashedPassword, updated.HashedPassword)
				require.NoError(t, auth.DefaultHasher.Compare(updated.HashedPassword, "NewPassword1!"))
			})
		})

		t.Run("same email excluded from uniqueness check", func(t *testing.T) {
			withService(pg.Pool, t, func(s *UserService) {
				created, err := s.Create(t.Context(), aliceParams)
				require.NoError(t, err)

				_, err = s.Update(t.Context(), created.ID, UpdateParams{
					Email:    strPtr("alice@example.com"),
					Username: strPtr("alice"),
				})
				require.NoError(t, err, "updating user to its own email and username should not conflict")
			})
		})

		t.Run("taken email conflicts", func(t *testing.T) {
			withService(pg.Pool, t, func(s *UserService) {
				_, err := s.Create(t.Context(), aliceParams)
				require.NoError(t, err)

				bob, err := s.Create(t.Context(), CreateParams{
					Email:    "bob@example.com",
					Username: "bob",
					Password: "Abcdef1!",
				})
				require.NoError(t, err)

				_, err = s.Update(t.Context(), bob.ID, UpdateParams{Email: strPtr("alice@example.com")})
				require.ErrorIs(t, err, apperrors.ErrEmailTaken)
			})
		})

		t.Run("not found", func(t *testing.T) {
			withService(pg.Pool, t, func(s *UserService) {
				_, err := s.Update(t.Context(), 100500, UpdateParams{FullName: strPtr("Nobody")})
				require.ErrorIs(t, err, apperrors.ErrUserNotFound)
			})
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("by email and username", func(t *testing.T) {
			withService(pg.Pool, t, func(s *UserService) {
				created, err := s.Create(t.Context(), aliceParams)
				require.NoError(t, err)

				byEmail, err := s.GetByEmail(t.Context(), "alice@example.com")
				require.NoError(t, err)
				assert.Equal(t, created, byEmail)

				byUsername, err := s.GetByUsername(t.Context(), "alice")
				require.NoError(t, err)
				assert.Equal(t, created, byUsername)
			})
		})

		t.Run("not found", func(t *testing.T) {
			withService(pg.Pool, t, func(s *UserService) {
				_, err := s.GetByEmail(t.Context(), "ghost@example.com")
				require.ErrorIs(t, err, apperrors.ErrUserNotFound)

				_, err = s.GetByUsername(t.Context(), "ghost")
				require.ErrorIs(t, err, apperrors.ErrUserNotFound)
			})
		})
	})

	t.Run("Delete", func(t *testing.T) {
		withService(pg.Pool, t, func(s *UserService) {
			created, err := s.Create(t.Context(), aliceParams)
			require.NoError(t, err)

			require.NoError(t, s.Delete(t.Context(), created.ID))
			require.ErrorIs(t, s.Delete(t.Context(), created.ID), apperrors.ErrUserNotFound)
		})
	})

	t.Run("Authenticate", func(t *testing.T) {
		t.Run("valid credentials", func(t *testing.T) {
			withService(pg.Pool, t, func(s *UserService) {
				created, err := s.Create(t.Context(), aliceParams)
				require.NoError(t, err)

				user, err := s.Authenticate(t.Context(), "alice@example.com", "Abcdef1!")
				require.NoError(t, err)
				assert.Equal(t, created.ID, user.ID)
			})
		})

		t.Run("wrong password and unknown email shape alike", func(t *testing.T) {
			withService(pg.Pool, t, func(s *UserService) {
				_, err := s.Create(t.Context(), aliceParams)
				require.NoError(t, err)

				_, errWrongPass := s.Authenticate(t.Context(), "alice@example.com", "WrongPassword")
				_, errNoUser := s.Authenticate(t.Context(), "ghost@example.com", "Abcdef1!")

				require.ErrorIs(t, errWrongPass, apperrors.ErrInvalidCredentials)
				require.ErrorIs(t, errNoUser, apperrors.ErrInvalidCredentials)
			})
		})

		t.Run("inactive user", func(t *testing.T) {
			withService(pg.Pool, t, func(s *UserService) {
				created, err := s.Create(t.Context(), aliceParams)
				require.NoError(t, err)

				inactive := false
				_, err = s.storage.User().UpdateUser(t.Context(), created.ID, repository.UpdateUserParams{IsActive: &inactive})
				require.NoError(t, err)

				_, err = s.Authenticate(t.Context(), "alice@example.com", "Abcdef1!")
				require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
			})
		})
	})

	t.Run("List", func(t *testing.T) {
		withService(pg.Pool, t, func(s *UserService) {
			for _, name := range []string{"u1", "u2", "u3"} {
				_, err := s.Create(t.Context(), CreateParams{
					Email:    name + "@example.com",
					Username: name,
					Password: "Abcdef1!",
				})
				require.NoError(t, err)
			}

			page, err := s.List(t.Context(), 1, 2)
			require.NoError(t, err)
			require.Len(t, page, 2)
			assert.Equal(t, "u2", page[0].Username)
		})
	})

	t.Run("SetSuperuser", func(t *testing.T) {
		withService(pg.Pool, t, func(s *UserService) {
			created, err := s.Create(t.Context(), aliceParams)
			require.NoError(t, err)

			promoted, err := s.SetSuperuser(t.Context(), created.ID, true)
			require.NoError(t, err)
			assert.True(t, promoted.IsSuperuser)
		})
	})
}
