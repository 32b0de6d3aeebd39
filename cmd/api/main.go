// Package main provides the entry point for the FindShroom server application.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/findshroom/findshroom-server/internal/di"
	"github.com/findshroom/findshroom-server/internal/logger"
)

func main() {
	injector := di.NewContainer()

	if err := di.Bootstrap(injector); err != nil {
		// Configuration errors happen before a logger can be built.
		log, logErr := do.Invoke[*logger.Logger](injector)
		if logErr != nil {
			fmt.Fprintf(os.Stderr, "Failed to bootstrap server: %v\n", err)
			os.Exit(1)
		}
		log.WithError(err).Fatal("Failed to bootstrap server")
	}

	log := do.MustInvoke[*logger.Logger](injector)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	// The container shuts services down in reverse dependency order, so the
	// HTTP server stops before the store and session database close.
	if err := injector.Shutdown(); err != nil {
		log.WithError(err).Error("Shutdown error")
	}

	log.Info("Server stopped")
}
