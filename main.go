package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/km-arc/go-inject/framework/app"
	"github.com/km-arc/go-inject/framework/auth"
	"github.com/km-arc/go-inject/framework/config"
	"github.com/km-arc/go-inject/framework/logging"
	"github.com/km-arc/go-inject/internal/api"
)

// demo accounts
var users = api.Directory{
	"joe":     {Profile: auth.UserProfile{ID: "joe", Name: "Joe"}, Password: "12345"},
	"Simpson": {Profile: auth.UserProfile{ID: "sim123", Name: "Simpson"}, Password: "alpha"},
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	application, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	if err := api.Install(application, users); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		logger.Error("server stopped", zap.Error(err))
		return err
	}
	return nil
}
