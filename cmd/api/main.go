// Package main provides the entry point for the ChartStash server.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/chartstash/chartstash-server/internal/di"
)

func main() {
	injector := di.NewContainer()

	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "failed to bootstrap server: %v\n", err)
		os.Exit(1)
	}

	log := do.MustInvoke[*slog.Logger](injector)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	// The container shuts providers down in reverse dependency order, so
	// the HTTP server drains before the catalog, cache, and index close.
	if err := injector.Shutdown(); err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
