package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatpush/internal/assistant"
	"chatpush/internal/clients"
	"chatpush/internal/config"
	"chatpush/internal/constants"
	"chatpush/internal/database"
	"chatpush/internal/metrics"
	"chatpush/internal/models"
	"chatpush/internal/push"
	"chatpush/internal/retry"
	"chatpush/internal/service"
	"chatpush/internal/tracing"

	"github.com/sirupsen/logrus"
)

var (
	// Version information (set at build time)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	// CLI flags
	verbose    = flag.Bool("verbose", false, "Enable verbose logging (includes sensitive information)")
	configPath = flag.String("config", "config.json", "Path to configuration file")
	version    = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("chatpush %s\nBuild Time: %s\nGit Commit: %s\n", Version, BuildTime, GitCommit)
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logrus.Fatalf("Application error: %v", err)
	}
}

func run(ctx context.Context) error {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	logger.WithFields(logrus.Fields{
		"version": Version,
		"build":   BuildTime,
		"commit":  GitCommit,
	}).Info("Starting chatpush")

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	configureLogLevel(logger, cfg.LogLevel, *verbose)

	tracingManager := tracing.NewTracingManager(tracingConfig(cfg), logger)
	if err := tracingManager.Initialize(ctx); err != nil {
		logger.Warnf("Failed to initialize tracing: %v", err)
	}
	defer func() {
		if err := tracingManager.Shutdown(context.Background()); err != nil {
			logger.Warnf("Failed to shutdown tracing: %v", err)
		}
	}()

	// Initialize database with exponential backoff retry
	var store database.Store
	backoff := retry.NewBackoff(retry.FromRetryConfig(cfg.Retry)).
		OnRetry(func(attempt int, delay time.Duration, err error) {
			logger.WithFields(logrus.Fields{
				"attempt": attempt,
				"delay":   delay.String(),
			}).WithError(err).Warn("Failed to initialize database, retrying")
		})

	err = backoff.RetryWithPredicate(ctx, func(ctx context.Context) error {
		var initErr error
		store, initErr = database.Open(ctx, cfg.Database)
		return initErr
	}, database.IsTransient)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	logger.WithField("driver", cfg.Database.Driver).Info("Database ready")

	m := metrics.Default()

	adminService := service.NewAdminService(store, cfg.Purge, logger)

	hub := clients.NewHub(logger, originHost(cfg.Push.AppOrigin)).WithMetrics(m)
	router, err := push.NewRouter(cfg.Push.AppOrigin, hub, hub, logger)
	if err != nil {
		return fmt.Errorf("failed to create click router: %w", err)
	}
	hub.SetClickHandler(router.WithMetrics(m))

	receivers := make(map[string]*push.Receiver)
	for name, profile := range push.Profiles(cfg.Push.Icon) {
		receivers[name] = push.NewReceiver(profile, hub, logger, push.WithMetrics(m))
	}

	assistantClient := assistant.New(cfg.Assistant, logger).WithMetrics(m)

	watcher := config.NewConfigWatcher(*configPath, logger).
		WithPollInterval(time.Duration(cfg.Server.ConfigPollIntervalSec) * time.Second)
	watcher.OnConfigChange(func(c *models.Config) {
		adminService.UpdatePolicy(c.Purge)
	})
	go func() {
		if err := watcher.Start(ctx); err != nil {
			logger.WithError(err).Warn("Configuration watcher stopped")
		}
	}()

	server := NewServer(cfg, ServerDeps{
		Admin:     adminService,
		Receivers: receivers,
		Hub:       hub,
		Assistant: assistantClient,
		Metrics:   m,
	}, logger).WithVerbose(*verbose)

	serverErrCh := make(chan error, constants.ServerErrorChannelSize)
	go func() {
		if err := server.Start(); err != nil {
			serverErrCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	case err := <-serverErrCh:
		logger.Error(err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(constants.DefaultGracefulShutdownSec)*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server gracefully: %w", err)
	}

	logger.Info("Server shutdown completed")
	return nil
}

// configureLogLevel applies the configured level. The verbose flag wins and
// enables debug output; an invalid level falls back to info.
func configureLogLevel(logger *logrus.Logger, levelName string, verbose bool) {
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
		logger.Info("Verbose logging enabled - sensitive information will be logged")
		return
	}

	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		logger.Warnf("Invalid log level %q, defaulting to info", levelName)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
}

func tracingConfig(cfg *models.Config) tracing.TracingConfig {
	tc := tracing.TracingConfig{
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: cfg.Tracing.ServiceVersion,
		Environment:    cfg.Tracing.Environment,
		OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
		SampleRate:     cfg.Tracing.SampleRate,
		Enabled:        cfg.Tracing.Enabled,
		UseStdout:      cfg.Tracing.UseStdout,
	}
	if tc.ServiceName == "" {
		tc.ServiceName = "chatpush"
	}
	if tc.ServiceVersion == "" {
		tc.ServiceVersion = Version
	}
	return tc
}

// originHost returns the host[:port] of the app origin, the pattern the hub
// accepts websocket origins from
func originHost(appOrigin string) string {
	u, err := url.Parse(appOrigin)
	if err != nil {
		return ""
	}
	return u.Host
}
