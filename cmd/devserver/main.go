package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bookadmin-dev/bookadmin/internal/config"
	"github.com/bookadmin-dev/bookadmin/internal/devserver"
	"github.com/bookadmin-dev/bookadmin/internal/logger"
)

var version = "dev" // Will be set during build with -ldflags

func main() {
	cfg, err := config.LoadDevServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.GetLogger()

	srv, err := devserver.New(cfg.Server, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create dev server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("version", version).Str("admin", cfg.Server.AdminEmail).Msg("Starting bookadmin dev server...")

	if err := srv.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Dev server failed")
	}
}
