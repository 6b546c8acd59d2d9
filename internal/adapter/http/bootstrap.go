package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"taskmanager/internal/adapter/database/memory"
	"taskmanager/internal/adapter/database/postgres"
	pgrepository "taskmanager/internal/adapter/database/postgres/repository"
	rdb "taskmanager/internal/adapter/database/redis"
	"taskmanager/internal/adapter/database/sqlite"
	sqliterepository "taskmanager/internal/adapter/database/sqlite/repository"
	"taskmanager/internal/adapter/http/handler"
	"taskmanager/internal/adapter/http/routes"
	"taskmanager/internal/core/port"
	"taskmanager/internal/core/telemetry"
	"taskmanager/pkg/auth"
	"taskmanager/pkg/config"

	"github.com/gin-gonic/gin"
)

// OpenStores connects the configured database (sqlite or postgres) and, when
// REDIS_ADDR is set, Redis for the task cache, undo tickets and revoked
// sessions. Without Redis those live in process memory.
func OpenStores(ctx context.Context, appConfig *config.AppConfig, probe port.Telemetry) (*Stores, error) {
	stores := &Stores{Checks: map[string]handler.HealthCheck{}}

	switch appConfig.DatabaseDriver {
	case config.DriverPostgres:
		if err := postgres.RunMigrations(appConfig.DatabaseURL); err != nil {
			return nil, err
		}

		db, err := postgres.NewDB(ctx, appConfig.DatabaseURL)

		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}

		stores.Users = pgrepository.NewUserRepository(db, probe)
		stores.Tasks = pgrepository.NewTaskRepository(db, probe)
		stores.Checks["database"] = db.Ping
		stores.closers = append(stores.closers, func() error {
			db.Close()
			return nil
		})
	case config.DriverSQLite, "":
		db, err := sqlite.NewDB(sqlite.Config{
			Path:       appConfig.DatabasePath,
			LogQueries: appConfig.LogQueries,
		})

		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite: %w", err)
		}

		stores.Users = sqliterepository.NewUserRepository(db, probe)
		stores.Tasks = sqliterepository.NewTaskRepository(db, probe)
		stores.Checks["database"] = db.PingContext
		stores.closers = append(stores.closers, db.Close)
	default:
		return nil, fmt.Errorf("unknown database driver: %s", appConfig.DatabaseDriver)
	}

	if appConfig.RedisAddr == "" {
		stores.Cache = memory.NewMemoryRepository(appConfig.CacheTTL)
		stores.Undo = memory.NewUndoStore()
		stores.Sessions = memory.NewSessionStore()
		stores.closers = append(stores.closers, stores.Cache.Close)

		return stores, nil
	}

	client, err := rdb.NewClient(ctx, rdb.Config{
		Addr:     appConfig.RedisAddr,
		Password: appConfig.RedisPassword,
		Prefix:   rdb.DefaultPrefix,
	})

	if err != nil {
		stores.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	stores.Cache = rdb.NewCacheRepository(client, rdb.DefaultPrefix)
	stores.Undo = rdb.NewUndoStore(client, rdb.DefaultPrefix)
	stores.Sessions = rdb.NewSessionStore(client, rdb.DefaultPrefix)
	stores.Checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	stores.closers = append(stores.closers, client.Close)

	return stores, nil
}

type Server struct {
	HTTP      *http.Server
	Container *Container
	stores    *Stores
}

func NewServer(ctx context.Context, appConfig *config.AppConfig, probe port.Telemetry, metrics *telemetry.AppMetrics, logger *config.LokiLogger) (*Server, error) {
	gin.SetMode(appConfig.GinMode)

	stores, err := OpenStores(ctx, appConfig, probe)

	if err != nil {
		return nil, err
	}

	tokens := auth.NewJWT(auth.Config{
		Secret:          appConfig.JWTSecret,
		AccessTokenTTL:  appConfig.AccessTokenTTL,
		RefreshTokenTTL: appConfig.RefreshTokenTTL,
		Issuer:          appConfig.ServiceName,
	})

	container := NewContainer(stores, tokens, probe, metrics, logger, appConfig)

	router := routes.SetupRouterWithConfig(routes.HandlersConfig{
		AuthHandler:   container.AuthHandler,
		UserHandler:   container.UserHandler,
		TaskHandler:   container.TaskHandler,
		HealthHandler: container.HealthHandler,
		Verifier:      container.AuthService,
	}, metrics, logger, appConfig)

	return &Server{
		HTTP: &http.Server{
			Addr:         ":" + appConfig.Port,
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Container: container,
		stores:    stores,
	}, nil
}

func (s *Server) ListenAndServe() error {
	slog.Info("Server starting", "addr", s.HTTP.Addr)

	if err := s.HTTP.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	err := s.HTTP.Shutdown(ctx)

	if closeErr := s.stores.Close(); err == nil {
		err = closeErr
	}

	return err
}
