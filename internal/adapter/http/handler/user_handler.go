package handler

import (
	"net/http"

	. "taskmanager/internal/adapter/http/helper"
	"taskmanager/internal/adapter/http/middleware"
	"taskmanager/internal/core/model/response"
	"taskmanager/internal/core/port"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	svc port.UserService
}

func NewUserHandler(svc port.UserService) *UserHandler {
	return &UserHandler{
		svc: svc,
	}
}

func (h *UserHandler) Me(c *gin.Context) {
	profile, err := h.svc.Profile(c.Request.Context(), middleware.GetUserID(c))

	if err != nil {
		SendDomainError(c, err)
		return
	}

	SendSuccess(c, http.StatusOK, response.NewProfileResponse(profile))
}
