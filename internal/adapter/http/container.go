package http

import (
	"taskmanager/internal/adapter/http/handler"
	"taskmanager/internal/core/port"
	"taskmanager/internal/core/service"
	"taskmanager/internal/core/telemetry"
	"taskmanager/pkg/config"
)

// Stores is the storage side of the application, picked by OpenStores.
type Stores struct {
	Users    port.UserRepository
	Tasks    port.TaskRepository
	Cache    port.CacheRepository
	Undo     port.UndoStore
	Sessions port.SessionStore
	Checks   map[string]handler.HealthCheck
	closers  []func() error
}

func (s *Stores) Close() error {
	var first error

	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && first == nil {
			first = err
		}
	}

	return first
}

type Container struct {
	AuthService *service.AuthService
	UserService *service.UserService
	TaskService *service.TaskService

	AuthHandler   *handler.AuthHandler
	UserHandler   *handler.UserHandler
	TaskHandler   *handler.TaskHandler
	HealthHandler *handler.HealthHandler
}

func NewContainer(stores *Stores, tokens port.TokenManager, probe port.Telemetry, metrics *telemetry.AppMetrics, logger *config.LokiLogger, appConfig *config.AppConfig) *Container {
	authSvc := service.NewAuthService(stores.Users, tokens, stores.Sessions, probe)
	userSvc := service.NewUserService(stores.Users, probe)

	options := []service.TaskOption{
		service.WithUndoWindow(appConfig.UndoWindow),
	}

	if stores.Cache != nil {
		options = append(options, service.WithCache(stores.Cache, appConfig.CacheTTL))
	}

	if metrics != nil {
		options = append(options, service.WithMetrics(metrics))
	}

	taskSvc := service.NewTaskService(stores.Tasks, stores.Undo, probe, options...)

	return &Container{
		AuthService: authSvc,
		UserService: userSvc,
		TaskService: taskSvc,

		AuthHandler:   handler.NewAuthHandler(authSvc),
		UserHandler:   handler.NewUserHandler(userSvc),
		TaskHandler:   handler.NewTaskHandler(taskSvc, logger),
		HealthHandler: handler.NewHealthHandler(stores.Checks),
	}
}
