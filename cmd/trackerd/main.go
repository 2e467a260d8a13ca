package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/framewell/tracker/common/bootstrap"
)

// trackerd boots the tracker core against postgres and redis and keeps the
// invalidation bus running. Surfaces embed the packages directly; this
// binary exists for operating the shared cache tier on its own.
func main() {
	ctx := context.Background()

	components := bootstrap.MustSetup(ctx, "trackerd")
	defer components.Shutdown(ctx)

	if err := components.Health(ctx); err != nil {
		components.Logger.Error("startup health check failed", "error", err)
		os.Exit(1)
	}

	components.Logger.Info("trackerd ready")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	components.Logger.Info("shutting down")
}
