package port

import (
	"context"
	"time"

	"taskmanager/internal/core/domain"
	"taskmanager/internal/core/model/request"
)

type AuthService interface {
	Registration(ctx context.Context, req *request.SignUpRequest) (*domain.User, error)
	Authenticate(ctx context.Context, req *request.LoginRequest) (*domain.User, error)
	Login(ctx context.Context, req *request.LoginRequest) (*domain.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.Session, error)
	Logout(ctx context.Context, claims domain.Claims) error
	Verify(ctx context.Context, token string) (domain.Claims, error)
	VerifyRefresh(ctx context.Context, token string) (domain.Claims, error)
}

type TokenManager interface {
	Issue(user domain.User, kind domain.TokenKind) (string, time.Time, error)
	Verify(token string, kind domain.TokenKind) (domain.Claims, error)
}

// SessionStore keeps revoked token ids until their natural expiry.
type SessionStore interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) bool
}
