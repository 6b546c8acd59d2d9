package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	apphttp "taskmanager/internal/adapter/http"
	"taskmanager/internal/core/board"
	"taskmanager/internal/core/domain"
	"taskmanager/internal/core/telemetry"
	"taskmanager/pkg/config"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type TaskGatewaySuite struct {
	suite.Suite
	api     *httptest.Server
	server  *apphttp.Server
	token   string
	gateway *TaskGateway
}

func (s *TaskGatewaySuite) SetupTest() {
	appConfig := config.GetDefaultConfig()
	appConfig.GinMode = "test"
	appConfig.DatabasePath = filepath.Join(s.T().TempDir(), "tasks.db")
	appConfig.RateLimitEnabled = false

	server, err := apphttp.NewServer(context.Background(), appConfig, telemetry.NewNoOpProbe(), nil, config.NewNopLogger())
	s.Require().NoError(err)

	s.server = server
	s.api = httptest.NewServer(server.HTTP.Handler)
	s.token = s.signUp()
	s.gateway = NewTaskGateway(s.api.URL, s.token, s.api.Client())
}

func (s *TaskGatewaySuite) TearDownTest() {
	s.api.Close()
	s.server.Shutdown(context.Background())
}

func TestTaskGatewaySuite(t *testing.T) {
	suite.Run(t, new(TaskGatewaySuite))
}

func (s *TaskGatewaySuite) post(path, body, token string) *http.Response {
	req, _ := http.NewRequest("POST", s.api.URL+path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.api.Client().Do(req)
	s.Require().NoError(err)

	return resp
}

func (s *TaskGatewaySuite) signUp() string {
	resp := s.post("/signup", `{"name":"Cli","email":"cli@example.com","password":"12345678"}`, "")
	defer resp.Body.Close()

	var body struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&body))

	return body.Data.AccessToken
}

func (s *TaskGatewaySuite) createTask(title string, due time.Time) {
	resp := s.post("/tasks", `{"title":"`+title+`","description":"d","due_date":"`+due.UTC().Format(time.RFC3339)+`"}`, s.token)
	resp.Body.Close()
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
}

func (s *TaskGatewaySuite) TestList() {
	s.createTask("Second", time.Now().Add(2*time.Hour))
	s.createTask("First", time.Now().Add(time.Hour))

	tasks, err := s.gateway.List(context.Background())

	s.Require().NoError(err)
	s.Require().Len(tasks, 2)
	s.Equal("First", tasks[0].Title)
	s.Equal(domain.PriorityMedium, tasks[0].Priority)
}

func (s *TaskGatewaySuite) TestUpdate_NotFound() {
	_, err := s.gateway.Update(context.Background(), "4b0c6c9e-0000-4000-8000-000000000000", domain.CompletionPatch(true))

	var apiErr *APIError
	s.Require().True(errors.As(err, &apiErr))
	s.Equal(http.StatusNotFound, apiErr.Status)
	s.True(errors.Is(err, domain.ErrNotFound))
}

func (s *TaskGatewaySuite) TestUnauthorized() {
	_, err := NewTaskGateway(s.api.URL, "bad", s.api.Client()).List(context.Background())

	s.True(errors.Is(err, domain.ErrUnauthorized))
}

func (s *TaskGatewaySuite) TestBoard_MarkDoneAndUndo() {
	s.createTask("Laundry", time.Now().Add(time.Hour))

	ctx := context.Background()
	b := board.New(s.gateway)
	s.Require().NoError(b.Refresh(ctx))
	s.Require().Len(b.Visible(), 1)

	uid := b.Visible()[0].UUID.String()

	s.Require().NoError(b.MarkDone(ctx, uid))
	s.Empty(b.Visible())

	remote, err := s.gateway.List(ctx)
	s.Require().NoError(err)
	s.True(remote[0].IsCompleted)

	s.Require().NoError(b.Undo(ctx))
	s.Len(b.Visible(), 1)

	remote, err = s.gateway.List(ctx)
	s.Require().NoError(err)
	s.False(remote[0].IsCompleted)

	s.ErrorIs(b.Undo(ctx), board.ErrNothingToUndo)
}

func TestTaskGateway_ListRejectsUnknownPriority(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"id":"6f1c2a54-3b1e-4d9a-9a55-2f9f7f1e8c01","title":"ship","priority":"urgent","due_date":"2025-03-10T09:00:00Z"}]}`))
	}))
	defer api.Close()

	gateway := NewTaskGateway(api.URL, "token", api.Client())

	_, err := gateway.List(context.Background())

	require.ErrorIs(t, err, domain.ErrValidation)
	require.ErrorContains(t, err, "urgent")
}
