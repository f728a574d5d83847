// Package startup prepares the application server
package startup

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AtRiskMedia/spotlight-go/internal/application/container"
	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/caching/cleanup"
	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/spotlight-go/internal/presentation/http/server"
	"github.com/AtRiskMedia/spotlight-go/pkg/config"
	"github.com/gin-gonic/gin"
)

// perfRetention bounds how long completed markers are kept for stats.
const perfRetention = time.Hour

// Initialize performs the complete startup sequence and blocks until a
// shutdown signal arrives.
func Initialize() error {
	setupLogging()

	start := time.Now().UTC()

	ctx, cancelBackgroundTasks := context.WithCancel(context.Background())
	defer cancelBackgroundTasks()

	log.Println("\033[32m" + `
  ✦ spotlight-go
` + "\033[97m" + `  made by At Risk Media
` + "\033[0m")

	// Step 1: Channeled logging
	log.Println("Initializing logging...")
	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Close()
	logger.LogStartupPhase("logging", time.Since(start), true, map[string]any{
		"level": config.LogLevel, "json": config.LogJSON, "toFile": config.LogToFile,
	})

	// Step 2: Performance tracking
	perfTracker := performance.NewTracker(performance.DefaultTrackerConfig())

	// Step 3: Dependency injection container
	logger.Startup().Info("Initializing dependency injection container...")
	containerStart := time.Now()
	appContainer, err := container.NewContainer(logger, perfTracker)
	if err != nil {
		logger.LogStartupPhase("container", time.Since(containerStart), false, map[string]any{"error": err.Error()})
		return fmt.Errorf("failed to create container: %w", err)
	}
	logger.LogStartupPhase("container", time.Since(containerStart), true, map[string]any{
		"maxSessions":   config.MaxEditorSessions,
		"maxSpotlights": config.MaxSpotlightsPerScene,
	})

	// Step 4: Background workers
	logger.Startup().Info("Starting background workers...")
	workersStart := time.Now()

	cleanupConfig := cleanup.NewConfig()
	cleanupWorker := cleanup.NewWorker(appContainer.SessionStore, cleanupConfig, logger, func(expired []string) {
		for _, id := range expired {
			appContainer.Broadcaster.CloseSession(id)
		}
	})
	cleanupWorker.SetReportCapacity(config.MaxEditorSessions)
	go cleanupWorker.Start(ctx)

	go appContainer.SysOpBroadcaster.Run(ctx)
	go prunePerformance(ctx, perfTracker, logger)

	logger.LogStartupPhase("workers", time.Since(workersStart), true, map[string]any{
		"cleanupInterval": cleanupConfig.CleanupInterval.String(),
		"sessionTTL":      cleanupConfig.SessionTTL.String(),
	})

	// Step 5: HTTP server
	logger.Startup().Info("Starting HTTP server...")
	startServerTime := time.Now()

	port := config.Port
	httpServer := server.New(port, appContainer)

	logger.Startup().Info("HTTP server initialized", "port", port, "duration", time.Since(startServerTime))

	// Step 6: Graceful shutdown
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		logger.System().Info("Starting HTTP server", "address", ":"+port)
		serverErr <- httpServer.Start()
	}()

	logger.Startup().Info("Application startup complete",
		"totalDuration", time.Since(start),
		"port", port)

	var runErr error
	select {
	case <-gracefulShutdown:
		logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...")
	case runErr = <-serverErr:
		if runErr != nil {
			logger.System().Error("HTTP server failed", "error", runErr.Error())
		}
	}

	shutdownStart := time.Now()

	// Cancel background tasks
	cancelBackgroundTasks()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Shutdown().Info("Stopping HTTP server...")
	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
	} else {
		logger.Shutdown().Info("HTTP server stopped successfully")
	}

	logger.Shutdown().Info("Closing editor sessions...", "active", appContainer.SessionStore.Count())
	for _, id := range appContainer.SessionStore.IDs() {
		appContainer.Broadcaster.CloseSession(id)
	}
	appContainer.LogBroadcaster.Shutdown()

	logger.Shutdown().Info("Application shutdown complete",
		"totalUptime", time.Since(start),
		"shutdownDuration", time.Since(shutdownStart))

	return runErr
}

func newLogger() (*logging.ChanneledLogger, error) {
	cfg := logging.DefaultLoggerConfig()
	cfg.JSONFormat = config.LogJSON
	cfg.StreamLogs = config.LogJSON
	cfg.OutputToFile = config.LogToFile
	cfg.LogDirectory = config.LogDirectory

	level, err := logging.ParseLevel(config.LogLevel)
	if err != nil {
		log.Printf("Invalid LOG_LEVEL %q, using INFO", config.LogLevel)
	} else {
		cfg.DefaultLevel = level
	}
	return logging.NewChanneledLogger(cfg)
}

// prunePerformance drops stale performance records on a fixed schedule.
func prunePerformance(ctx context.Context, tracker *performance.Tracker, logger *logging.ChanneledLogger) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := tracker.Cleanup(perfRetention); removed > 0 {
				logger.Perf().Debug("Pruned performance records", "removed", removed)
			}
		}
	}
}

// setupLogging configures gin and the standard logger used before the
// channeled logger exists.
func setupLogging() {
	switch config.GinMode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		gin.SetMode(config.GinMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
