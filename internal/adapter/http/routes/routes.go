package routes

import (
	"taskmanager/internal/adapter/http/handler"
	"taskmanager/internal/adapter/http/middleware"
	"taskmanager/internal/core/telemetry"
	"taskmanager/pkg/config"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type HandlersConfig struct {
	AuthHandler   *handler.AuthHandler
	UserHandler   *handler.UserHandler
	TaskHandler   *handler.TaskHandler
	HealthHandler *handler.HealthHandler
	Verifier      middleware.TokenVerifier
}

func SetupRouterWithConfig(handlers HandlersConfig, metrics *telemetry.AppMetrics, logger *config.LokiLogger, appConfig *config.AppConfig) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(appConfig.ServiceName))
	router.Use(middleware.CurrentMiddleware())
	router.Use(middleware.LoggingMiddleware(logger))

	if metrics != nil {
		router.Use(middleware.MetricsMiddleware(metrics))
	}

	router.Use(config.NewHTTPSEnforcer(logger.Zap(), appConfig.EnforceHTTPS).HTTPSMiddleware())
	router.Use(corsMiddleware())

	var limiter gin.HandlerFunc

	if appConfig.RateLimitEnabled {
		limiter = config.NewRateLimiter(logger.Zap(), metrics, appConfig.RateLimitConfigs).RateLimitMiddleware()
	}

	if handlers.HealthHandler != nil {
		router.GET("/health", handlers.HealthHandler.Health)
	}

	if handlers.AuthHandler != nil {
		setupPublicRoutes(router, handlers.AuthHandler, limiter)
	}

	setupProtectedRoutes(router, handlers, limiter)

	return router
}

func setupPublicRoutes(router *gin.Engine, authHandler *handler.AuthHandler, limiter gin.HandlerFunc) {
	public := router.Group("/")

	if limiter != nil {
		public.Use(limiter)
	}

	{
		public.POST("/signup", authHandler.RegisterByEmailAndPassword)
		public.POST("/auth", authHandler.AuthByEmailAndPassword)
		public.POST("/auth/refresh", authHandler.Refresh)
	}
}

func setupProtectedRoutes(router *gin.Engine, handlers HandlersConfig, limiter gin.HandlerFunc) {
	protected := router.Group("/")
	protected.Use(middleware.JwtMiddleware(handlers.Verifier))

	if limiter != nil {
		protected.Use(limiter)
	}

	if handlers.AuthHandler != nil {
		protected.POST("/logout", handlers.AuthHandler.Logout)
	}

	if handlers.UserHandler != nil {
		protected.GET("/me", handlers.UserHandler.Me)
	}

	if t := handlers.TaskHandler; t != nil {
		protected.GET("/tasks", t.ListTasks)
		protected.GET("/tasks/grouped", t.GroupedTasks)
		protected.POST("/tasks", t.CreateTask)
		protected.PUT("/tasks/:uuid", t.ReplaceTask)
		protected.PATCH("/tasks/:uuid", t.PatchTask)
		protected.DELETE("/tasks/:uuid", t.DeleteTask)
		protected.POST("/tasks/:uuid/done", t.MarkDone)
		protected.POST("/tasks/undo/:ticket", t.Undo)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
