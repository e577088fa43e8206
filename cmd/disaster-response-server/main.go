package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	server "github.com/stanley1208/ADK/internal"
	"github.com/stanley1208/ADK/internal/alerting"
	alertsubrepo "github.com/stanley1208/ADK/internal/alertsubscription/repositoryimpl"
	"github.com/stanley1208/ADK/internal/archive"
	"github.com/stanley1208/ADK/internal/bqlog"
	"github.com/stanley1208/ADK/internal/config"
	"github.com/stanley1208/ADK/internal/descriptor"
	"github.com/stanley1208/ADK/internal/detection"
	"github.com/stanley1208/ADK/internal/eventbus"
	"github.com/stanley1208/ADK/internal/pipeline"
	runrepo "github.com/stanley1208/ADK/internal/run/repositoryimpl"
	sessionrepo "github.com/stanley1208/ADK/internal/session/repositoryimpl"
	"github.com/stanley1208/ADK/pkg/clog"
	"github.com/stanley1208/ADK/pkg/sentinel"
	"github.com/stanley1208/ADK/pkg/storage"
)

func main() {
	// Without the "run" subcommand the process acts as a supervisor that
	// starts and watches a child running the actual server.
	if len(os.Args) > 1 && os.Args[1] == "run" {
		runServer()
		return
	}
	sentinel.Run()
}

func runServer() {
	env, err := config.LoadEnv()
	if err != nil {
		slog.Error("failed to load env", "error", err)
		os.Exit(1)
	}

	// Setup logger
	level := env.SlogLevel()
	var handler slog.Handler
	if env.IsLocal() {
		handler = clog.NewTextHandler(os.Stderr, clog.WithLevel(level))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(clog.NewAttributesHandler(handler)))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	// Setup storage
	var store storage.Storage
	switch env.StorageEnv.Type {
	case "s3":
		store, err = storage.NewS3Storage(ctx, env.StorageEnv.S3Bucket, env.StorageEnv.S3Prefix, env.StorageEnv.S3Region)
		if err != nil {
			slog.Error("failed to create S3 storage", "error", err)
			os.Exit(1)
		}
	default:
		store, err = storage.NewLocalStorage(env.StorageEnv.BaseDir)
		if err != nil {
			slog.Error("failed to create local storage", "error", err)
			os.Exit(1)
		}
	}

	// Agent descriptor, also used to validate pipeline requests.
	agentDescriptor, err := descriptor.Load(env.DescriptorPath)
	if err != nil {
		slog.Error("failed to load agent descriptor", "path", env.DescriptorPath, "error", err)
		os.Exit(1)
	}

	// Setup event bus
	bus := eventbus.New()

	// Setup repositories
	sessionRepo := sessionrepo.NewYAMLRepository(store)
	runRepo := runrepo.NewYAMLRepository(store)
	alertSubRepo := alertsubrepo.NewYAMLRepository(store)

	// BigQuery sink: mock when toggled, disabled when unconfigured or
	// unreachable.
	logger := newBigQueryLogger(ctx, env)

	// Pipeline
	orch := pipeline.NewOrchestrator(env.DetectionEnv.DataDir, logger, sessionRepo, runRepo, bus)
	watcher := detection.NewWatcher(env.DetectionEnv.DataDir, env.DetectionEnv.FilePattern, bus)
	archiver := archive.NewArchiver(bus, store)

	// Alerting
	vapidEnv := config.VAPIDEnvFromEnv(env)
	alertSender := alerting.NewSender(vapidEnv, alertSubRepo)
	alertDispatcher := alerting.NewDispatcher(bus, alertSender)

	srv := server.NewServer(
		env,
		logger,
		agentDescriptor,
		pipeline.NewServer(orch, agentDescriptor, runRepo),
		bqlog.NewServer(logger),
		descriptor.NewServer(agentDescriptor),
		alerting.NewServer(vapidEnv, alertSubRepo, alertSender),
	)

	go orch.Start(ctx)
	go alertDispatcher.Start(ctx)
	go archiver.Start(ctx)
	go func() {
		if err := watcher.Start(ctx); err != nil {
			slog.Error("data directory watcher error", "error", err)
		}
	}()

	go func() {
		if err := srv.ListenAndServe(ctx); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

func newBigQueryLogger(ctx context.Context, env *config.Env) bqlog.Logger {
	if env.BigQueryEnv.UseMock {
		slog.Info("using mock BigQuery sink")
		return bqlog.NewMock(env.GoogleCloudEnv.ProjectID, env.BigQueryEnv.DatasetID, env.BigQueryEnv.TableID)
	}
	if env.GoogleCloudEnv.ProjectID == "" {
		slog.Warn("GOOGLE_CLOUD_PROJECT not set, BigQuery logging disabled")
		return bqlog.Disabled{}
	}
	client, err := bqlog.NewClient(ctx, &env.GoogleCloudEnv, &env.BigQueryEnv)
	if err != nil {
		slog.Error("failed to initialize BigQuery, logging disabled", "error", err)
		return bqlog.Disabled{}
	}
	return client
}
