package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/vkuznetsov/authgate/internal/apperrors"
	"github.com/vkuznetsov/authgate/internal/handlers/render"
	"github.com/vkuznetsov/authgate/internal/logger"
	"github.com/vkuznetsov/authgate/internal/models"
	"github.com/vkuznetsov/authgate/internal/service/user"
)

type authService interface {
	// Login with email and password
	// Every credential failure is apperrors.ErrInvalidCredentials
	Login(ctx context.Context, email string, password string) (models.TokenPair, error)

	// Refresh mints a new access token from a valid refresh token
	// Every verification failure is apperrors.ErrInvalidToken
	Refresh(ctx context.Context, refresh string) (models.IssuedToken, error)

	// Logout is a stateless no-op, the client discards the tokens
	Logout()
}

type registrationService interface {
	Create(ctx context.Context, arg user.CreateParams) (models.User, error)
}

type AuthHandler struct {
	auth   authService
	users  registrationService
	logger logger.Logger
}

func NewAuth(auth authService, users registrationService, l logger.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, users: users, logger: l}
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	type registerRequest struct {
		Email    string  `json:"email" validate:"required,email"`
		Username string  `json:"username" validate:"required,min=3,max=100,username"`
		Password string  `json:"password" validate:"required,min=8,max=100"`
		FullName *string `json:"full_name" validate:"omitempty,max=255"`
	}

	data, err := render.BindAndValidate[registerRequest](w, r)
	if err != nil {
		return
	}

	created, err := h.users.Create(r.Context(), user.CreateParams{
		Email:    data.Email,
		Username: data.Username,
		Password: data.Password,
		FullName: data.FullName,
	})
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrEmailTaken):
			render.ServiceError(w, "Email already registered", http.StatusConflict)
		case errors.Is(err, apperrors.ErrUsernameTaken):
			render.ServiceError(w, "Username already taken", http.StatusConflict)
		default:
			h.logger.Error("register failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSONWithStatus(w, newUserResponse(created), http.StatusCreated)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	type loginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	type tokenPairResponse struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		TokenType    string `json:"token_type"`
	}

	data, err := render.BindAndValidate[loginRequest](w, r)
	if err != nil {
		return
	}

	pair, err := h.auth.Login(r.Context(), data.Email, data.Password)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidCredentials):
			render.ServiceError(w, "Incorrect email or password", http.StatusUnauthorized)
		default:
			h.logger.Error("login failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSON(w, tokenPairResponse{
		AccessToken:  pair.Access.Value,
		RefreshToken: pair.Refresh.Value,
		TokenType:    "bearer",
	})
}

func (h *AuthHandler) refresh(w http.ResponseWriter, r *http.Request) {
	type refreshRequest struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}
	type accessTokenResponse struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}

	data, err := render.BindAndValidate[refreshRequest](w, r)
	if err != nil {
		return
	}

	access, err := h.auth.Refresh(r.Context(), data.RefreshToken)
	if err != nil {
		// Single generic message for every cause on purpose
		switch {
		case errors.Is(err, apperrors.ErrInvalidToken):
			render.ServiceError(w, "Invalid or expired refresh token", http.StatusUnauthorized)
		default:
			h.logger.Error("refresh failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSON(w, accessTokenResponse{
		AccessToken: access.Value,
		TokenType:   "bearer",
	})
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	type logoutResponse struct {
		Message string `json:"message"`
		Detail  string `json:"detail,omitempty"`
	}

	h.auth.Logout()

	render.JSON(w, logoutResponse{
		Message: "Logged out successfully",
		Detail:  "Remove the tokens on the client",
	})
}
