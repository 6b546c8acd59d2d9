package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskmanager/internal/core/domain"
	"taskmanager/internal/core/model/request"
	"taskmanager/internal/core/port"
	"taskmanager/internal/core/telemetry"
	"taskmanager/internal/core/util"
)

var errInvalidCredentials = fmt.Errorf("%w: invalid email or password", domain.ErrUnauthorized)

type AuthService struct {
	repo      port.UserRepository
	tokens    port.TokenManager
	sessions  port.SessionStore
	telemetry port.Telemetry
}

func NewAuthService(repo port.UserRepository, tokens port.TokenManager, sessions port.SessionStore, probe port.Telemetry) *AuthService {
	if probe == nil {
		probe = telemetry.NewNoOpProbe()
	}

	return &AuthService{
		repo:      repo,
		tokens:    tokens,
		sessions:  sessions,
		telemetry: probe,
	}
}

// Registration creates the account and writes its profile record.
func (as *AuthService) Registration(ctx context.Context, req *request.SignUpRequest) (user *domain.User, err error) {
	ctx, span := as.telemetry.StartServiceSpan(ctx, "auth", "Registration", 0, nil)
	defer finish(ctx, as.telemetry, span, "auth", "Registration", 0, time.Now(), &err)

	email := normalizeEmail(req.Email)

	if _, err := as.repo.GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: user already exists", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	encrypted, err := util.GenerateEncrypt(req.Password)

	if err != nil {
		return nil, fmt.Errorf("error creating encrypted password: %w", err)
	}

	now := time.Now().UTC()
	name := strings.TrimSpace(req.Name)

	saved, err := as.repo.CreateWithProfile(ctx, domain.User{
		UUID:              uuid.New(),
		Name:              name,
		Email:             email,
		EncryptedPassword: encrypted,
		Role:              domain.Member,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, domain.Profile{
		Name:      name,
		Email:     email,
		CreatedAt: now,
	})

	if err != nil {
		if !errors.Is(err, domain.ErrConflict) {
			slog.Error("Auth#Registration", "error", err, "email", email)
		}

		return nil, err
	}

	as.telemetry.RecordBusinessEvent(ctx, "registered", "user", saved.UUID.String(), saved.ID, nil)

	return &saved, nil
}

func (as *AuthService) Authenticate(ctx context.Context, req *request.LoginRequest) (*domain.User, error) {
	user, err := as.repo.GetByEmail(ctx, normalizeEmail(req.Email))

	if err != nil {
		slog.Error("Auth#Authenticate", "get_by_email", err)
		return nil, errInvalidCredentials
	}

	if err := util.ComparePassword(req.Password, user.EncryptedPassword); err != nil {
		slog.Error("Auth#Authenticate", "compare_password", err)
		return nil, errInvalidCredentials
	}

	return &user, nil
}

func (as *AuthService) Login(ctx context.Context, req *request.LoginRequest) (session *domain.Session, err error) {
	ctx, span := as.telemetry.StartServiceSpan(ctx, "auth", "Login", 0, nil)
	defer finish(ctx, as.telemetry, span, "auth", "Login", 0, time.Now(), &err)

	user, err := as.Authenticate(ctx, req)

	if err != nil {
		return nil, err
	}

	return as.issueSession(*user)
}

// Refresh trades a refresh token for a new pair. The old refresh token is
// revoked so it cannot be replayed.
func (as *AuthService) Refresh(ctx context.Context, refreshToken string) (session *domain.Session, err error) {
	claims, err := as.tokens.Verify(refreshToken, domain.RefreshToken)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}

	ctx, span := as.telemetry.StartServiceSpan(ctx, "auth", "Refresh", claims.UserID, nil)
	defer finish(ctx, as.telemetry, span, "auth", "Refresh", claims.UserID, time.Now(), &err)

	if as.sessions.IsRevoked(ctx, claims.TokenID) {
		return nil, fmt.Errorf("%w: session revoked", domain.ErrUnauthorized)
	}

	user, err := as.repo.GetByID(ctx, claims.UserID)

	if err != nil {
		return nil, fmt.Errorf("%w: unknown user", domain.ErrUnauthorized)
	}

	if err := as.sessions.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		return nil, err
	}

	return as.issueSession(user)
}

func (as *AuthService) Logout(ctx context.Context, claims domain.Claims) (err error) {
	ctx, span := as.telemetry.StartServiceSpan(ctx, "auth", "Logout", claims.UserID, nil)
	defer finish(ctx, as.telemetry, span, "auth", "Logout", claims.UserID, time.Now(), &err)

	return as.sessions.Revoke(ctx, claims.TokenID, claims.ExpiresAt)
}

// Verify checks an access token and rejects revoked sessions.
func (as *AuthService) Verify(ctx context.Context, token string) (domain.Claims, error) {
	claims, err := as.tokens.Verify(token, domain.AccessToken)

	if err != nil {
		return domain.Claims{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}

	if as.sessions.IsRevoked(ctx, claims.TokenID) {
		return domain.Claims{}, fmt.Errorf("%w: session revoked", domain.ErrUnauthorized)
	}

	return claims, nil
}

// VerifyRefresh validates a refresh token without consuming it.
func (as *AuthService) VerifyRefresh(ctx context.Context, token string) (domain.Claims, error) {
	claims, err := as.tokens.Verify(token, domain.RefreshToken)

	if err != nil {
		return domain.Claims{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}

	return claims, nil
}

func (as *AuthService) issueSession(user domain.User) (*domain.Session, error) {
	access, expiresAt, err := as.tokens.Issue(user, domain.AccessToken)

	if err != nil {
		return nil, err
	}

	refresh, _, err := as.tokens.Issue(user, domain.RefreshToken)

	if err != nil {
		return nil, err
	}

	return &domain.Session{
		User:         user,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
