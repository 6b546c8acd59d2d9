package auth

import (
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"taskmanager/internal/core/domain"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

type Config struct {
	Secret          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Issuer          string
}

func DefaultConfig(secret string) Config {
	return Config{
		Secret:          secret,
		AccessTokenTTL:  3 * time.Hour,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		Issuer:          "taskmanager",
	}
}

type Claims struct {
	UserID    int    `json:"user_id"`
	UUID      string `json:"uuid"`
	Email     string `json:"email"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

type JWT struct {
	config Config
}

func NewJWT(config Config) *JWT {
	return &JWT{config: config}
}

func (j *JWT) ttl(kind domain.TokenKind) time.Duration {
	if kind == domain.RefreshToken {
		return j.config.RefreshTokenTTL
	}

	return j.config.AccessTokenTTL
}

// Issue signs a token of the given kind; every token carries its own jti so
// it can be revoked on its own.
func (j *JWT) Issue(user domain.User, kind domain.TokenKind) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(j.ttl(kind))

	claims := Claims{
		UserID:    user.ID,
		UUID:      user.UUID.String(),
		Email:     user.Email,
		TokenType: string(kind),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    j.config.Issuer,
			Subject:   strconv.Itoa(user.ID),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(j.config.Secret))

	if err != nil {
		return "", time.Time{}, err
	}

	return token, expiresAt, nil
}

func (j *JWT) Verify(tokenString string, kind domain.TokenKind) (domain.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}

		return []byte(j.config.Secret), nil
	})

	if err != nil {
		slog.Error("Error verifying token", "error", err)

		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Claims{}, ErrExpiredToken
		}

		return domain.Claims{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)

	if !ok || !token.Valid || claims.TokenType != string(kind) {
		return domain.Claims{}, ErrInvalidToken
	}

	userUUID, _ := uuid.Parse(claims.UUID)

	result := domain.Claims{
		TokenID:  claims.ID,
		UserID:   claims.UserID,
		UserUUID: userUUID,
		Email:    claims.Email,
		Kind:     kind,
	}

	if claims.ExpiresAt != nil {
		result.ExpiresAt = claims.ExpiresAt.Time
	}

	return result, nil
}
