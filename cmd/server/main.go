// Command server starts the portfolio API HTTP service.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"portfolio-live/internal/analytics"
	"portfolio-live/internal/api"
	"portfolio-live/internal/auth"
	"portfolio-live/internal/bootstrap"
	"portfolio-live/internal/config"
	"portfolio-live/internal/observability/logging"
	"portfolio-live/internal/relay"
	"portfolio-live/internal/server"
	"portfolio-live/internal/serverutil"
	"portfolio-live/internal/storage"
)

// version is stamped by the build pipeline.
var version = "dev"

func main() {
	port := flag.Int("port", 0, "HTTP listen port")
	dataPath := flag.String("data", "", "path to JSON datastore")
	storageDriver := flag.String("storage-driver", "", "datastore driver (json or postgres)")
	postgresDSN := flag.String("postgres-dsn", "", "Postgres connection string")
	uploadsDir := flag.String("uploads-dir", "", "directory for uploaded media")
	corsOrigin := flag.String("cors-origin", "", "origin allowed to call the API cross-origin")
	rateWindow := flag.Int("rate-limit-window", 0, "rate limit window in minutes")
	rateMax := flag.Int("rate-limit-max", 0, "maximum requests per IP inside the window")
	queueDriver := flag.String("analytics-queue", "", "analytics queue driver (memory or redis)")
	redisAddr := flag.String("redis-addr", "", "Redis address for the analytics queue and rate limiter")
	redisPassword := flag.String("redis-password", "", "Redis password")
	adminUsername := flag.String("admin-username", "", "admin account username")
	adminPassword := flag.String("admin-password", "", "admin account password")
	logLevel := flag.String("log-level", "", "log level (debug, info, warn, error)")
	tlsCert := flag.String("tls-cert", "", "path to TLS certificate file")
	tlsKey := flag.String("tls-key", "", "path to TLS private key file")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if *port > 0 {
		cfg.Port = *port
	}
	if *dataPath != "" {
		cfg.DataPath = *dataPath
	}
	if *storageDriver != "" {
		cfg.StorageDriver = strings.ToLower(strings.TrimSpace(*storageDriver))
	}
	if *postgresDSN != "" {
		cfg.PostgresDSN = *postgresDSN
		if *storageDriver == "" {
			cfg.StorageDriver = "postgres"
		}
	}
	if *uploadsDir != "" {
		cfg.UploadsDir = *uploadsDir
	}
	if *corsOrigin != "" {
		cfg.CORSOrigin = *corsOrigin
	}
	if *rateWindow > 0 {
		cfg.RateLimitWindow = time.Duration(*rateWindow) * time.Minute
	}
	if *rateMax > 0 {
		cfg.RateLimitMax = *rateMax
	}
	if *queueDriver != "" {
		cfg.AnalyticsQueueDriver = strings.ToLower(strings.TrimSpace(*queueDriver))
	}
	if *redisAddr != "" {
		cfg.RedisAddr = *redisAddr
	}
	if *redisPassword != "" {
		cfg.RedisPassword = *redisPassword
	}
	if *adminUsername != "" {
		cfg.AdminUsername = *adminUsername
	}
	if *adminPassword != "" {
		cfg.AdminPassword = *adminPassword
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *tlsCert != "" {
		cfg.TLSCertFile = *tlsCert
	}
	if *tlsKey != "" {
		cfg.TLSKeyFile = *tlsKey
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, cfg, logger, nil))
}

// run boots the process and blocks until shutdown. It returns a non-zero
// exit code when a startup step fails; the listener is never bound in that
// case.
func run(ctx context.Context, cfg config.Config, logger *slog.Logger, ready chan<- struct{}) int {
	if err := bootstrap.EnsureDirectories(cfg.UploadsDir, filepath.Dir(cfg.DataPath)); err != nil {
		logger.Error("failed to prepare directories", "error", err)
		return 1
	}

	store, storeCloser, err := openDatastore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open datastore", "driver", cfg.StorageDriver, "error", err)
		return 1
	}
	defer func() {
		if storeCloser != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := storeCloser(shutdownCtx); err != nil {
				logger.Warn("failed to close datastore", "error", err)
			}
		}
	}()

	if cfg.AdminPassword != "" {
		if _, err := store.EnsureAdminAccount(cfg.AdminUsername, cfg.AdminPassword); err != nil {
			logger.Error("failed to provision admin account", "error", err)
			return 1
		}
	}

	queue, err := configureAnalyticsQueue(cfg, logger)
	if err != nil {
		logger.Error("failed to configure analytics queue", "error", err)
		return 1
	}

	sessions := auth.NewSessionManager(cfg.SessionTTL, auth.WithIdleTimeout(cfg.SessionTTL/4))
	recorder := analytics.NewRecorder()
	rel := relay.New(relay.NewRegistry(), relay.Config{Logger: logging.WithComponent(logger, "relay")})

	handler := api.NewHandler(store, sessions)
	handler.Relay = rel
	handler.Queue = queue
	handler.Recorder = recorder
	handler.UploadsDir = cfg.UploadsDir
	handler.Version = version
	handler.Processor = api.NewUploadProcessor(api.UploadProcessorConfig{
		Store:      store,
		UploadsDir: cfg.UploadsDir,
		Logger:     logging.WithComponent(logger, "uploads"),
	})

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	purgeStop := sessions.StartPurgeLoop(workerCtx, logging.WithComponent(logger, "session-purger"), 15*time.Minute)
	defer purgeStop()
	go analytics.NewWorker(store, queue, logging.WithComponent(logger, "analytics-worker")).Run(workerCtx)

	srv, err := server.New(handler, server.Config{
		Addr: cfg.Addr(),
		TLS: server.TLSConfig{
			CertFile: cfg.TLSCertFile,
			KeyFile:  cfg.TLSKeyFile,
		},
		RateLimit: server.RateLimitConfig{
			Window:        cfg.RateLimitWindow,
			MaxRequests:   cfg.RateLimitMax,
			RedisAddr:     cfg.RedisAddr,
			RedisPassword: cfg.RedisPassword,
		},
		CORSOrigin:  cfg.CORSOrigin,
		UploadsDir:  cfg.UploadsDir,
		Logger:      logger,
		AuditLogger: logging.WithComponent(logger, "audit"),
		Relay:       rel,
		Queue:       queue,
		Recorder:    recorder,
	})
	if err != nil {
		logger.Error("failed to initialise server", "error", err)
		return 1
	}

	certFile, keyFile := srv.TLSFiles()
	logger.Info("portfolio API listening", "addr", cfg.Addr(), "env", cfg.Environment, "storage", cfg.StorageDriver)
	if certFile != "" && keyFile != "" {
		logger.Info("TLS enabled", "cert_file", certFile)
	}

	err = serverutil.Run(ctx, serverutil.Config{
		Server: srv.HTTPServer(),
		TLS: serverutil.TLSConfig{
			CertFile: certFile,
			KeyFile:  keyFile,
		},
		Ready: ready,
	})

	workerCancel()
	purgeStop()
	rel.Shutdown()
	if closer, ok := queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Warn("failed to close analytics queue", "error", err)
		}
	}

	processorCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := handler.Processor.Shutdown(processorCtx); err != nil {
		logger.Warn("failed to stop upload processor", "error", err)
	}

	if err != nil {
		logger.Error("server error", "error", err)
		return 1
	}
	logger.Info("server stopped")
	return 0
}

func openDatastore(ctx context.Context, cfg config.Config) (storage.Repository, func(context.Context) error, error) {
	switch cfg.StorageDriver {
	case "json":
		store, err := storage.NewStorage(cfg.DataPath)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	case "postgres":
		repo, err := storage.NewPostgresRepository(ctx, storage.PostgresConfig{
			DSN: cfg.PostgresDSN,
		})
		if err != nil {
			return nil, nil, err
		}
		if closer, ok := repo.(interface{ Close(context.Context) error }); ok {
			return repo, closer.Close, nil
		}
		return repo, nil, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}

func configureAnalyticsQueue(cfg config.Config, logger *slog.Logger) (analytics.Queue, error) {
	switch cfg.AnalyticsQueueDriver {
	case "", "memory":
		return analytics.NewMemoryQueue(128), nil
	case "redis":
		if strings.TrimSpace(cfg.RedisAddr) == "" {
			return nil, fmt.Errorf("redis addr is required for the analytics queue")
		}
		return analytics.NewRedisQueue(analytics.RedisQueueConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			Logger:   logging.WithComponent(logger, "analytics-queue"),
		})
	default:
		return nil, fmt.Errorf("unsupported analytics queue driver %q", cfg.AnalyticsQueueDriver)
	}
}
