package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/vkuznetsov/authgate/internal/apperrors"
	"github.com/vkuznetsov/authgate/internal/models"
	"github.com/vkuznetsov/authgate/internal/service/auth/tokencodec"
)

// Minimal user service surface auth needs
type userService interface {
	// Authenticate must return the user only if it exists, is active and the
	// password matches; every miss is apperrors.ErrInvalidCredentials
	Authenticate(ctx context.Context, email string, password string) (models.User, error)

	GetByID(ctx context.Context, id int64) (models.User, error)
}

type Config struct {
	// Secret key to sign token payloads
	SecretKey string

	// JWT MAC algorithm, codec default if empty
	Alg string

	// Access and refresh token lifetimes, codec defaults if zero
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// AuthService drives the session lifecycle: login issues a token pair,
// refresh mints a new access token, logout is a client side token discard.
// There is no server side session record.
type AuthService struct {
	codec *tokencodec.Codec
	users userService
}

func NewService(cfg Config, users userService) (*AuthService, error) {
	if users == nil {
		return nil, errors.New("user service must not be nil")
	}

	codec, err := tokencodec.New(tokencodec.Config{
		SecretKey:  cfg.SecretKey,
		Alg:        cfg.Alg,
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
	})
	if err != nil {
		return nil, err
	}

	return &AuthService{
		codec: codec,
		users: users,
	}, nil
}

// Login checks credentials and issues an access and a refresh token with
// identical subject and email claims, generated at the same instant
func (s *AuthService) Login(ctx context.Context, email string, password string) (models.TokenPair, error) {
	user, err := s.users.Authenticate(ctx, email, password)
	if err != nil {
		return models.TokenPair{}, err
	}

	pair, err := s.codec.IssuePair(user, time.Now())
	if err != nil {
		return models.TokenPair{}, err
	}

	return pair, nil
}

// Refresh verifies the refresh token, re-checks the user is still active and
// issues a brand new access token. The refresh token itself is not rotated.
//
// Every failure collapses to apperrors.ErrInvalidToken so the caller can not
// tell which check failed.
func (s *AuthService) Refresh(ctx context.Context, refresh string) (models.IssuedToken, error) {
	now := time.Now()

	claims, err := s.codec.Verify(refresh, tokencodec.KindRefresh, now)
	if err != nil {
		return models.IssuedToken{}, apperrors.ErrInvalidToken
	}

	userID, err := claims.UserID()
	if err != nil {
		return models.IssuedToken{}, apperrors.ErrInvalidToken
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil || !user.IsActive {
		return models.IssuedToken{}, apperrors.ErrInvalidToken
	}

	return s.codec.Issue(user, tokencodec.KindAccess, now)
}

// Logout has no server side effect: sessions are stateless, the client just
// discards both tokens. Kept as an explicit, idempotent no-op.
func (s *AuthService) Logout() {}

// UserFromRequest authenticates a request by its bearer access token
func (s *AuthService) UserFromRequest(ctx context.Context, r *http.Request) (models.User, error) {
	token, err := BearerToken(r)
	if err != nil {
		return models.User{}, apperrors.ErrInvalidToken
	}

	claims, err := s.codec.Verify(token, tokencodec.KindAccess, time.Now())
	if err != nil {
		return models.User{}, apperrors.ErrInvalidToken
	}

	userID, err := claims.UserID()
	if err != nil {
		return models.User{}, apperrors.ErrInvalidToken
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil || !user.IsActive {
		return models.User{}, apperrors.ErrInvalidToken
	}

	return user, nil
}

// BearerToken extracts the token from the 'Authorization: Bearer ...' header
func BearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", errors.New("missing or malformed Authorization header")
	}

	return token, nil
}
