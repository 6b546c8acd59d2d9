package handler

import (
	"errors"
	"log/slog"
	"net/http"

	. "taskmanager/internal/adapter/http/helper"
	"taskmanager/internal/adapter/http/middleware"
	. "taskmanager/internal/adapter/http/validation"
	"taskmanager/internal/core/domain"
	"taskmanager/internal/core/model/request"
	"taskmanager/internal/core/model/response"
	"taskmanager/internal/core/port"
	"taskmanager/internal/core/util"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	svc port.AuthService
}

func NewAuthHandler(svc port.AuthService) *AuthHandler {
	return &AuthHandler{
		svc: svc,
	}
}

// RegisterByEmailAndPassword creates the account and signs it in.
func (a *AuthHandler) RegisterByEmailAndPassword(c *gin.Context) {
	ctx := c.Request.Context()

	params, err := util.ParamsToMap[request.SignUpRequest](c)

	if err != nil {
		SendValidationError(c, err)
		return
	}

	if err := Validator.Struct(params); err != nil {
		SendValidationError(c, err)
		return
	}

	if _, err := a.svc.Registration(ctx, &params); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			SendConflictError(c, "email", err.Error())
			return
		}

		slog.Error("AuthHandler#Register", "error", err)
		SendDomainError(c, err)
		return
	}

	session, err := a.svc.Login(ctx, &request.LoginRequest{Email: params.Email, Password: params.Password})

	if err != nil {
		slog.Error("AuthHandler#Register", "login", err)
		SendDomainError(c, err)
		return
	}

	SendSuccess(c, http.StatusCreated, response.NewSessionResponse(*session))
}

func (a *AuthHandler) AuthByEmailAndPassword(c *gin.Context) {
	ctx := c.Request.Context()

	params, err := util.ParamsToMap[request.LoginRequest](c)

	if err != nil {
		SendValidationError(c, err)
		return
	}

	if err := Validator.Struct(params); err != nil {
		SendValidationError(c, err)
		return
	}

	session, err := a.svc.Login(ctx, &params)

	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			SendUnauthorizedError(c, "Invalid email or password")
			return
		}

		slog.Error("AuthHandler#Auth", "error", err)
		SendDomainError(c, err)
		return
	}

	SendSuccess(c, http.StatusOK, response.NewSessionResponse(*session))
}

func (a *AuthHandler) Refresh(c *gin.Context) {
	params, err := util.ParamsToMap[request.RefreshRequest](c)

	if err != nil {
		SendValidationError(c, err)
		return
	}

	if err := Validator.Struct(params); err != nil {
		SendValidationError(c, err)
		return
	}

	session, err := a.svc.Refresh(c.Request.Context(), params.RefreshToken)

	if err != nil {
		SendDomainError(c, err)
		return
	}

	SendSuccess(c, http.StatusOK, response.NewSessionResponse(*session))
}

// Logout revokes the access token that authenticated this request.
func (a *AuthHandler) Logout(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)

	if !ok {
		SendUnauthorizedError(c, "Unauthorized request")
		return
	}

	if err := a.svc.Logout(c.Request.Context(), claims); err != nil {
		slog.Error("AuthHandler#Logout", "error", err, "user_id", claims.UserID)
		SendDomainError(c, err)
		return
	}

	SendSuccess(c, http.StatusOK, gin.H{"signed_out": true})
}
