package middleware

import (
	"context"
	"net/http"

	"github.com/vkuznetsov/authgate/internal/handlers/render"
	"github.com/vkuznetsov/authgate/internal/handlers/userctx"
	"github.com/vkuznetsov/authgate/internal/models"
)

type authService interface {
	UserFromRequest(ctx context.Context, r *http.Request) (models.User, error)
}

// Auth rejects requests without a valid bearer access token and puts the
// authenticated user into the request context
func Auth(as authService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := as.UserFromRequest(r.Context(), r)
			if err != nil {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := userctx.New(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
