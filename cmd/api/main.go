package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"
	_ "time/tzdata"

	apphttp "taskmanager/internal/adapter/http"
	"taskmanager/internal/adapter/telemetry"
	"taskmanager/pkg/config"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx := context.Background()

	appConfig := config.Load()

	logger, err := config.NewLokiLogger(appConfig.ServiceName, appConfig.LokiURL)

	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}

	defer logger.Sync()

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(slogger)

	tel, err := telemetry.NewContainer(ctx, telemetry.Config{
		ServiceName:    appConfig.ServiceName,
		ServiceVersion: appConfig.ServiceVersion,
		Environment:    appConfig.Environment,
		MetricsPort:    appConfig.MetricsPort,
		OTLPEndpoint:   appConfig.OTLPEndpoint,
	}, slogger)

	if err != nil {
		logger.Logger.Fatal("Failed to initialize telemetry", zap.Error(err))
	}

	tel.Start(ctx)

	server, err := apphttp.NewServer(ctx, appConfig, tel.NewTelemetryProbe(), tel.AppMetrics, logger)

	if err != nil {
		logger.Logger.Fatal("Failed to build server", zap.Error(err))
	}

	go func() {
		if err := server.ListenAndServe(); err != nil {
			logger.Logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	logger.InfoWithTrace(ctx, "Server started",
		zap.String("port", appConfig.Port),
		zap.String("environment", appConfig.Environment),
		zap.String("database", appConfig.DatabaseDriver),
		zap.Bool("redis", appConfig.RedisAddr != ""),
		zap.Bool("rate_limit_enabled", appConfig.RateLimitEnabled),
		zap.Bool("https_enforced", appConfig.EnforceHTTPS))

	wait := gfshutdown.GracefulShutdown(ctx, shutdownTimeout, map[string]gfshutdown.Operation{
		"http": func(ctx context.Context) error {
			logger.InfoWithTrace(ctx, "Shutting down gracefully...")
			return server.Shutdown(ctx)
		},
		"telemetry": func(ctx context.Context) error {
			return tel.Shutdown(ctx)
		},
	})

	exitCode := <-wait
	logger.Sync()
	os.Exit(exitCode)
}
