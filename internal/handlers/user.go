package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/vkuznetsov/authgate/internal/apperrors"
	"github.com/vkuznetsov/authgate/internal/handlers/render"
	"github.com/vkuznetsov/authgate/internal/handlers/userctx"
	"github.com/vkuznetsov/authgate/internal/logger"
	"github.com/vkuznetsov/authgate/internal/models"
	"github.com/vkuznetsov/authgate/internal/service/user"
)

const (
	defaultListLimit = 100
	maxListLimit     = 100
)

type userService interface {
	GetByID(ctx context.Context, id int64) (models.User, error)
	Update(ctx context.Context, id int64, arg user.UpdateParams) (models.User, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, offset int64, limit int64) ([]models.User, error)
}

type UserHandler struct {
	users  userService
	logger logger.Logger
}

func NewUser(users userService, l logger.Logger) *UserHandler {
	return &UserHandler{users: users, logger: l}
}

// User as it is exposed over the API, the password hash never leaves the server
type userResponse struct {
	ID          int64      `json:"id"`
	Email       string     `json:"email"`
	Username    string     `json:"username"`
	FullName    *string    `json:"full_name"`
	IsActive    bool       `json:"is_active"`
	IsSuperuser bool       `json:"is_superuser"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

func newUserResponse(u models.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Email:       u.Email,
		Username:    u.Username,
		FullName:    u.FullName,
		IsActive:    u.IsActive,
		IsSuperuser: u.IsSuperuser,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func (h *UserHandler) me(w http.ResponseWriter, r *http.Request) {
	u, _ := userctx.FromContext(r.Context())
	render.JSON(w, newUserResponse(u))
}

func (h *UserHandler) updateMe(w http.ResponseWriter, r *http.Request) {
	type updateRequest struct {
		Email    *string `json:"email" validate:"omitempty,email"`
		Username *string `json:"username" validate:"omitempty,min=3,max=100,username"`
		Password *string `json:"password" validate:"omitempty,min=8,max=100"`
		FullName *string `json:"full_name" validate:"omitempty,max=255"`
	}

	data, err := render.BindAndValidate[updateRequest](w, r)
	if err != nil {
		return
	}

	u, _ := userctx.FromContext(r.Context())

	updated, err := h.users.Update(r.Context(), u.ID, user.UpdateParams{
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
		case errors.Is(err, apperrors.ErrUserNotFound):
			render.ServiceError(w, "User not found", http.StatusNotFound)
		default:
			h.logger.Error("user update failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSON(w, newUserResponse(updated))
}

func (h *UserHandler) deleteMe(w http.ResponseWriter, r *http.Request) {
	type deleteResponse struct {
		Message string `json:"message"`
	}

	u, _ := userctx.FromContext(r.Context())

	if err := h.users.Delete(r.Context(), u.ID); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUserNotFound):
			render.ServiceError(w, "User not found", http.StatusNotFound)
		default:
			h.logger.Error("user delete failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSON(w, deleteResponse{Message: "User deleted successfully"})
}

func (h *UserHandler) list(w http.ResponseWriter, r *http.Request) {
	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", defaultListLimit)

	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}

	users, err := h.users.List(r.Context(), offset, limit)
	if err != nil {
		h.logger.Error("user list failed", "error", err.Error())
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	response := make([]userResponse, 0, len(users))
	for _, u := range users {
		response = append(response, newUserResponse(u))
	}

	render.JSON(w, response)
}

func (h *UserHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		render.ServiceError(w, "Invalid user id", http.StatusBadRequest)
		return
	}

	u, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUserNotFound):
			render.ServiceError(w, "User not found", http.StatusNotFound)
		default:
			h.logger.Error("user get failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSON(w, newUserResponse(u))
}

func queryInt(r *http.Request, key string, def int64) int64 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}

	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return def
	}

	return value
}
