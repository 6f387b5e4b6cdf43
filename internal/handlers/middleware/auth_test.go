package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkuznetsov/authgate/internal/handlers/userctx"
	"github.com/vkuznetsov/authgate/internal/models"
)

type stubAuth struct {
	user models.User
	err  error
}

func (s stubAuth) UserFromRequest(_ context.Context, _ *http.Request) (models.User, error) {
	return s.user, s.err
}

func Test_AuthMiddleware(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := userctx.FromContext(r.Context())
		require.True(t, ok, "user should be placed into the context")
		_, _ = w.Write([]byte(u.Username))
	})

	t.Run("authenticated request passes through", func(t *testing.T) {
		mw := Auth(stubAuth{user: models.User{ID: 1, Username: "alice"}})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		mw(next).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "alice", rec.Body.String())
	})

	t.Run("rejected request gets 401", func(t *testing.T) {
		mw := Auth(stubAuth{err: errors.New("nope")})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		mw(next).ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `
			{
				"error": "service_error",
				"message": "Unauthorized"
			}`, rec.Body.String())
	})
}
