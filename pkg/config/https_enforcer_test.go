package config

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func enforcerRouter(enabled bool) *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(NewHTTPSEnforcer(zap.NewNop(), enabled).HTTPSMiddleware())
	router.GET("/tasks", func(c *gin.Context) { c.Status(http.StatusOK) })

	return router
}

func TestHTTPSEnforcer_Disabled(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "http://api.example.com/tasks", nil)
	enforcerRouter(false).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHTTPSEnforcer_Redirects(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "http://api.example.com/tasks?view=all", nil)
	enforcerRouter(true).ServeHTTP(w, req)

	assert.Equal(t, http.StatusMovedPermanently, w.Code)
	assert.Equal(t, "https://api.example.com/tasks?view=all", w.Header().Get("Location"))
}

func TestHTTPSEnforcer_PassThrough(t *testing.T) {
	router := enforcerRouter(true)

	forwarded := httptest.NewRequest("GET", "http://api.example.com/tasks", nil)
	forwarded.Header.Set("X-Forwarded-Proto", "https")

	local := httptest.NewRequest("GET", "http://localhost:8080/tasks", nil)

	secure := httptest.NewRequest("GET", "https://api.example.com/tasks", nil)
	secure.TLS = &tls.ConnectionState{}

	for _, req := range []*http.Request{forwarded, local, secure} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, req.URL.String())
	}
}

func TestHTTPSEnforcer_SetEnabled(t *testing.T) {
	enforcer := NewHTTPSEnforcer(zap.NewNop(), false)
	enforcer.SetEnabled(true)

	assert.True(t, enforcer.IsEnabled())
}
