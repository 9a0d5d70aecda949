package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikey/llm-email-triage/internal/core"
	"github.com/mikey/llm-email-triage/internal/di"
	"github.com/mikey/llm-email-triage/internal/ports"
	"go.uber.org/zap"
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
	logger *zap.Logger,
	server ports.WebServer,
	llmClient core.LLMClient,
	store core.HistoryRepository,
) error {
	defer logger.Sync()

	// Prepare the history schema up front. A failure here is logged rather
	// than fatal so the service can come up while the database recovers;
	// the store retries initialization on the next operation.
	if err := store.Initialize(context.Background()); err != nil {
		logger.Error("Failed to initialize history storage", zap.Error(err))
	}

	// Start the web server
	if err := server.Start(); err != nil {
		logger.Fatal("Failed to start web server", zap.Error(err))
		return err
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	// Stop the web server
	if err := server.Stop(); err != nil {
		logger.Error("Failed to stop web server", zap.Error(err))
	}

	// Close any resources that need closing
	if closer, ok := llmClient.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close LLM client", zap.Error(err))
		}
	}

	if err := store.Close(); err != nil {
		logger.Error("Failed to close history storage", zap.Error(err))
	}

	logger.Info("Shutdown complete")
	return nil
}
