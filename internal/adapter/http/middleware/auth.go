package middleware

import (
	"context"
	"strings"

	"taskmanager/internal/adapter/http/helper"
	"taskmanager/internal/core/domain"
	ct "taskmanager/pkg/context"

	"github.com/gin-gonic/gin"
)

const (
	UserIDKey = "x-user-id"
	ClaimsKey = "claims"
)

type TokenVerifier interface {
	Verify(ctx context.Context, token string) (domain.Claims, error)
}

// JwtMiddleware accepts only unrevoked access tokens. On success the caller's
// id is available as UserIDKey and the full claims as ClaimsKey.
func JwtMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		bearer := c.GetHeader("Authorization")

		if bearer == "" {
			helper.SendUnauthorizedError(c, "Unauthorized request")
			c.Abort()
			return
		}

		if !strings.HasPrefix(bearer, "Bearer ") {
			helper.SendUnauthorizedError(c, "Invalid authorization format")
			c.Abort()
			return
		}

		claims, err := verifier.Verify(c.Request.Context(), strings.TrimSpace(bearer[len("Bearer "):]))

		if err != nil {
			helper.SendUnauthorizedError(c, err.Error())
			c.Abort()
			return
		}

		current := GetCurrent(c)
		current.Set(ct.UserIDKey, claims.UserID)
		current.Set(ct.UserUUIDKey, claims.UserUUID.String())
		current.Set(ct.TokenIDKey, claims.TokenID)

		c.Set(UserIDKey, claims.UserID)
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

func GetUserID(c *gin.Context) int {
	return c.GetInt(UserIDKey)
}

func GetClaims(c *gin.Context) (domain.Claims, bool) {
	claims, ok := c.Get(ClaimsKey)
	if !ok {
		return domain.Claims{}, false
	}

	typed, ok := claims.(domain.Claims)
	return typed, ok
}
