// Package client talks to the task API over HTTP. TaskGateway backs a
// board.Board for Go callers such as a CLI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"taskmanager/internal/core/domain"
	"taskmanager/internal/core/model/request"
	"taskmanager/internal/core/model/response"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// APIError is a non-2xx answer. Error returns the server message verbatim.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	switch e.Code {
	case "VALIDATION_ERROR", "BAD_REQUEST":
		return domain.ErrValidation
	case "NOT_FOUND":
		return domain.ErrNotFound
	case "CONFLICT":
		return domain.ErrConflict
	case "UNAUTHORIZED":
		return domain.ErrUnauthorized
	case "UNDO_EXPIRED":
		return domain.ErrUndoExpired
	default:
		return nil
	}
}

type TaskGateway struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewTaskGateway uses an instrumented client when httpClient is nil.
func NewTaskGateway(baseURL, token string, httpClient *http.Client) *TaskGateway {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	return &TaskGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    httpClient,
	}
}

// List fetches every task of the caller, completed ones included; the board
// applies its own view.
func (g *TaskGateway) List(ctx context.Context) ([]domain.Task, error) {
	var tasks []response.TaskResponse

	if err := g.do(ctx, http.MethodGet, "/tasks?view=all", nil, &tasks); err != nil {
		return nil, err
	}

	result := make([]domain.Task, 0, len(tasks))

	for _, task := range tasks {
		converted, err := toDomain(task)

		if err != nil {
			return nil, err
		}

		result = append(result, converted)
	}

	return result, nil
}

func (g *TaskGateway) Update(ctx context.Context, uuid string, patch domain.TaskPatch) (domain.Task, error) {
	body := request.TaskPatchRequest{
		Title:       patch.Title,
		Description: patch.Description,
		DueDate:     patch.DueDate,
		IsCompleted: patch.IsCompleted,
	}

	if patch.Priority != nil {
		priority := patch.Priority.String()
		body.Priority = &priority
	}

	var task response.TaskResponse

	if err := g.do(ctx, http.MethodPatch, "/tasks/"+uuid, body, &task); err != nil {
		return domain.Task{}, err
	}

	return toDomain(task)
}

func (g *TaskGateway) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader

	if body != nil {
		payload, err := json.Marshal(body)

		if err != nil {
			return err
		}

		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)

	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.token)

	resp, err := g.http.Do(req)

	if err != nil {
		return err
	}

	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}

	envelope := struct {
		Data any `json:"data"`
	}{Data: out}

	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}

	return nil
}

func decodeError(resp *http.Response) error {
	var envelope response.ErrorResponse

	apiErr := &APIError{Status: resp.StatusCode, Message: resp.Status}

	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return apiErr
	}

	apiErr.Code = envelope.Error.Code

	if len(envelope.Error.Errors) > 0 {
		apiErr.Message = envelope.Error.Errors[0].Message
	}

	return apiErr
}

func toDomain(task response.TaskResponse) (domain.Task, error) {
	priority, err := domain.ParsePriority(task.Priority)

	if err != nil {
		return domain.Task{}, fmt.Errorf("task %s: %w", task.ID, err)
	}

	return domain.Task{
		UUID:        task.ID,
		Title:       task.Title,
		Description: task.Description,
		DueDate:     task.DueDate,
		Priority:    priority,
		IsCompleted: task.IsCompleted,
		Date:        task.Date,
		UpdatedAt:   task.UpdatedAt,
	}, nil
}
