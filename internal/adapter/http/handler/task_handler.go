package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	. "taskmanager/internal/adapter/http/helper"
	"taskmanager/internal/adapter/http/middleware"
	. "taskmanager/internal/adapter/http/validation"
	"taskmanager/internal/core/domain"
	"taskmanager/internal/core/model/request"
	"taskmanager/internal/core/model/response"
	"taskmanager/internal/core/port"
	"taskmanager/internal/core/util"
	"taskmanager/pkg/config"
	. "taskmanager/pkg/tracing"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type TaskHandler struct {
	svc    port.TaskService
	Logger *config.LokiLogger
	now    func() time.Time
}

func NewTaskHandler(svc port.TaskService, logger *config.LokiLogger) *TaskHandler {
	return &TaskHandler{
		svc:    svc,
		Logger: logger,
		now:    time.Now,
	}
}

func (t *TaskHandler) filter(c *gin.Context) (domain.TaskFilter, bool) {
	filter, err := domain.ParseTaskFilter(c.Query("view"), c.Query("priority"), c.Query("q"))

	if err != nil {
		SendBadRequestError(c, "filter", err.Error())
		return domain.TaskFilter{}, false
	}

	return filter, true
}

// ListTasks serves GET /tasks?view=active|history|all&priority=all|low|medium|high&q=.
func (t *TaskHandler) ListTasks(c *gin.Context) {
	ctx, span := HandlerSpan(c.Request.Context(), "ListTasks", c.Request.Method, c.FullPath())
	defer span.End()

	userId := middleware.GetUserID(c)

	filter, ok := t.filter(c)
	if !ok {
		return
	}

	span.SetAttributes(
		attribute.Int("user.id", userId),
		attribute.String("task.view", string(filter.View)),
		attribute.String("task.priority", string(filter.Priority)),
	)

	tasks, err := t.svc.ListFiltered(ctx, userId, filter)

	if err != nil {
		t.fail(c, span, "Failed to list tasks", err, userId)
		return
	}

	span.SetAttributes(attribute.Int("task.count", len(tasks)))

	SendSuccess(c, http.StatusOK, response.NewTaskListResponse(tasks))
}

// GroupedTasks buckets the filtered list into Today, Tomorrow and This Week.
// The optional tz query parameter (IANA name) sets what "today" means.
func (t *TaskHandler) GroupedTasks(c *gin.Context) {
	ctx, span := HandlerSpan(c.Request.Context(), "GroupedTasks", c.Request.Method, c.FullPath())
	defer span.End()

	userId := middleware.GetUserID(c)

	filter, ok := t.filter(c)
	if !ok {
		return
	}

	location := time.UTC

	if tz := c.Query("tz"); tz != "" {
		loc, err := time.LoadLocation(tz)

		if err != nil {
			SendBadRequestError(c, "tz", "unknown time zone: "+tz)
			return
		}

		location = loc
	}

	groups, err := t.svc.Grouped(ctx, userId, filter, t.now().In(location))

	if err != nil {
		t.fail(c, span, "Failed to group tasks", err, userId)
		return
	}

	SendSuccess(c, http.StatusOK, response.NewSectionsResponse(groups))
}

func (t *TaskHandler) CreateTask(c *gin.Context) {
	ctx, span := HandlerSpan(c.Request.Context(), "CreateTask", c.Request.Method, c.FullPath())
	defer span.End()

	userId := middleware.GetUserID(c)

	params, ok := t.bindTaskRequest(c)
	if !ok {
		return
	}

	priority, _ := domain.ParsePriority(params.Priority)

	task, err := t.svc.Create(ctx, domain.Task{
		Title:       params.Title,
		Description: params.Description,
		DueDate:     *params.DueDate,
		Priority:    priority,
		UserId:      userId,
	})

	if err != nil {
		t.fail(c, span, "Failed to create task", err, userId)
		return
	}

	span.SetAttributes(attribute.String("task.uuid", task.UUID.String()))

	SendSuccess(c, http.StatusCreated, response.NewTaskResponse(task))
}

// ReplaceTask is the edit form: every editable field is sent together.
func (t *TaskHandler) ReplaceTask(c *gin.Context) {
	ctx, span := HandlerSpan(c.Request.Context(), "ReplaceTask", c.Request.Method, c.FullPath())
	defer span.End()

	userId := middleware.GetUserID(c)

	params, ok := t.bindTaskRequest(c)
	if !ok {
		return
	}

	priority, _ := domain.ParsePriority(params.Priority)

	patch := domain.TaskPatch{
		Title:       &params.Title,
		Description: &params.Description,
		DueDate:     params.DueDate,
		Priority:    &priority,
	}

	t.update(ctx, c, span, userId, patch)
}

func (t *TaskHandler) PatchTask(c *gin.Context) {
	ctx, span := HandlerSpan(c.Request.Context(), "PatchTask", c.Request.Method, c.FullPath())
	defer span.End()

	userId := middleware.GetUserID(c)

	params, err := util.ParamsToMap[request.TaskPatchRequest](c)

	if err != nil {
		SendValidationError(c, err)
		return
	}

	if err := Validator.Struct(params); err != nil {
		SendValidationError(c, err)
		return
	}

	patch := domain.TaskPatch{
		Title:       params.Title,
		Description: params.Description,
		DueDate:     params.DueDate,
		IsCompleted: params.IsCompleted,
	}

	if params.Priority != nil {
		priority, _ := domain.ParsePriority(*params.Priority)
		patch.Priority = &priority
	}

	t.update(ctx, c, span, userId, patch)
}

func (t *TaskHandler) DeleteTask(c *gin.Context) {
	ctx, span := HandlerSpan(c.Request.Context(), "DeleteTask", c.Request.Method, c.FullPath())
	defer span.End()

	userId := middleware.GetUserID(c)
	uid := c.Param("uuid")

	span.SetAttributes(attribute.String("task.uuid", uid))

	if err := t.svc.DeleteByUUID(ctx, userId, uid); err != nil {
		t.fail(c, span, "Failed to delete task", err, userId)
		return
	}

	SendSuccess(c, http.StatusOK, gin.H{"id": uid, "deleted": true})
}

// MarkDone completes a task and returns the ticket that can revert it.
func (t *TaskHandler) MarkDone(c *gin.Context) {
	ctx, span := HandlerSpan(c.Request.Context(), "MarkDone", c.Request.Method, c.FullPath())
	defer span.End()

	userId := middleware.GetUserID(c)
	uid := c.Param("uuid")

	span.SetAttributes(attribute.String("task.uuid", uid))

	task, ticket, err := t.svc.MarkDone(ctx, userId, uid)

	if err != nil {
		t.fail(c, span, "Failed to complete task", err, userId)
		return
	}

	SendSuccess(c, http.StatusOK, response.MarkDoneResponse{
		Task:          response.NewTaskResponse(task),
		UndoTicket:    ticket.ID,
		UndoExpiresAt: ticket.ExpiresAt,
	})
}

func (t *TaskHandler) Undo(c *gin.Context) {
	ctx, span := HandlerSpan(c.Request.Context(), "Undo", c.Request.Method, c.FullPath())
	defer span.End()

	userId := middleware.GetUserID(c)

	task, err := t.svc.Undo(ctx, userId, c.Param("ticket"))

	if err != nil {
		t.fail(c, span, "Failed to undo completion", err, userId)
		return
	}

	SendSuccess(c, http.StatusOK, response.NewTaskResponse(task))
}

func (t *TaskHandler) bindTaskRequest(c *gin.Context) (request.TaskRequest, bool) {
	params, err := util.ParamsToMap[request.TaskRequest](c)

	if err != nil {
		SendValidationError(c, err)
		return params, false
	}

	if err := Validator.Struct(params); err != nil {
		SendValidationError(c, err)
		return params, false
	}

	return params, true
}

func (t *TaskHandler) update(ctx context.Context, c *gin.Context, span trace.Span, userId int, patch domain.TaskPatch) {
	uid := c.Param("uuid")

	span.SetAttributes(attribute.String("task.uuid", uid))

	task, err := t.svc.UpdateByUUID(ctx, userId, uid, patch)

	if err != nil {
		t.fail(c, span, "Failed to update task", err, userId)
		return
	}

	SendSuccess(c, http.StatusOK, response.NewTaskResponse(task))
}

// fail logs unexpected errors and writes the envelope. Client errors
// (validation, missing task, expired undo) are not logged as failures.
func (t *TaskHandler) fail(c *gin.Context, span trace.Span, msg string, err error, userId int) {
	if !isClientError(err) {
		AddSpanError(span, err)

		t.Logger.ErrorWithTrace(c.Request.Context(), msg,
			zap.Error(err),
			zap.Int("user_id", userId),
		)
	}

	SendDomainError(c, err)
}

func isClientError(err error) bool {
	return errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrUndoExpired)
}
