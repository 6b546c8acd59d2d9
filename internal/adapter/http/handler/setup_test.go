package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	. "taskmanager/pkg/test"

	"taskmanager/internal/adapter/database/memory"
	"taskmanager/internal/adapter/database/sqlite/repository"
	"taskmanager/internal/adapter/http/middleware"
	"taskmanager/internal/core/service"
	"taskmanager/pkg/auth"
	"taskmanager/pkg/config"

	"github.com/gin-gonic/gin"
)

type testApp struct {
	router *gin.Engine
	tasks  *service.TaskService
	now    time.Time
}

// newTestApp wires the real services on an in-memory database with the same
// routes the server mounts.
func newTestApp() *testApp {
	gin.SetMode(gin.TestMode)

	db := InitTestDB()
	app := &testApp{now: time.Now()}

	userRepo := repository.NewUserRepository(db, nil)
	authSvc := service.NewAuthService(userRepo, auth.NewJWT(auth.DefaultConfig("test-secret")), memory.NewSessionStore(), nil)
	app.tasks = service.NewTaskService(repository.NewTaskRepository(db, nil), memory.NewUndoStore(), nil,
		service.WithCache(memory.NewMemoryRepository(time.Minute), time.Minute),
		service.WithClock(func() time.Time { return app.now }),
	)

	authHandler := NewAuthHandler(authSvc)
	userHandler := NewUserHandler(service.NewUserService(userRepo, nil))
	taskHandler := NewTaskHandler(app.tasks, config.NewNopLogger())
	taskHandler.now = func() time.Time { return app.now }

	router := gin.New()
	router.Use(middleware.CurrentMiddleware())

	router.POST("/signup", authHandler.RegisterByEmailAndPassword)
	router.POST("/auth", authHandler.AuthByEmailAndPassword)
	router.POST("/auth/refresh", authHandler.Refresh)

	protected := router.Group("/")
	protected.Use(middleware.JwtMiddleware(authSvc))
	{
		protected.POST("/logout", authHandler.Logout)
		protected.GET("/me", userHandler.Me)

		protected.GET("/tasks", taskHandler.ListTasks)
		protected.GET("/tasks/grouped", taskHandler.GroupedTasks)
		protected.POST("/tasks", taskHandler.CreateTask)
		protected.PUT("/tasks/:uuid", taskHandler.ReplaceTask)
		protected.PATCH("/tasks/:uuid", taskHandler.PatchTask)
		protected.DELETE("/tasks/:uuid", taskHandler.DeleteTask)
		protected.POST("/tasks/:uuid/done", taskHandler.MarkDone)
		protected.POST("/tasks/undo/:ticket", taskHandler.Undo)
	}

	app.router = router

	return app
}

func (a *testApp) do(method, path, body, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)

	return rr
}

// signUp registers an account and returns its access token.
func (a *testApp) signUp(name, email string) string {
	rr := a.do("POST", "/signup", `{"name":"`+name+`","email":"`+email+`","password":"12345678"}`, "")

	var body struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	json.Unmarshal(rr.Body.Bytes(), &body)

	return body.Data.AccessToken
}

func decode[T any](rr *httptest.ResponseRecorder) T {
	var body struct {
		Data T `json:"data"`
	}
	json.Unmarshal(rr.Body.Bytes(), &body)

	return body.Data
}
