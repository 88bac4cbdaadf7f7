package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/mikey/msg-spam-filter/internal/adapters/store"
	"github.com/mikey/msg-spam-filter/internal/config"
	"github.com/mikey/msg-spam-filter/internal/core"
	"github.com/mikey/msg-spam-filter/internal/di"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	cfg *config.Config,
	logger *zap.Logger,
	pipeline *core.Pipeline,
	messageStore store.Store,
	reviewer core.Reviewer,
	pc config.PipelineConfig,
) error {
	defer logger.Sync()

	mc, err := cfg.GetMonitor()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Catch up on anything that arrived while we were down
	synced, err := pipeline.SyncFromSource(ctx, pc.BatchLimit)
	if err != nil {
		logger.Warn("Backlog sync failed", zap.Error(err))
	} else {
		logger.Info("Backlog synced", zap.Int("messages", len(synced)))
	}

	if mc.Autostart {
		if err := pipeline.StartMonitoring(ctx); err != nil {
			messageStore.Stop()
			return err
		}
	}

	<-ctx.Done()
	logger.Info("Shutting down...")

	pipeline.StopMonitoring()
	messageStore.Stop()

	// Close any resources that need closing
	if closer, ok := reviewer.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close LLM client", zap.Error(err))
		}
	}

	logger.Info("Shutdown complete")
	return nil
}
