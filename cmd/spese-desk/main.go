package main

import (
	"context"
	"os"
	"sync"

	"fyne.io/fyne/v2/app"

	"spesetracker/internal/backend"
	"spesetracker/internal/cli"
	"spesetracker/internal/desktop"
	"spesetracker/internal/log"
)

const appID = "io.spese.tracker"

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentDesktop)
	cfg := cli.LoadAndValidateConfig(logger)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}

	ctx := context.Background()
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			if err := res.Cleanup(); err != nil {
				logger.Error("Cleanup failed", log.FieldError, err)
			}
		})
	}

	a := app.NewWithID(appID)
	w, err := desktop.New(ctx, a, res.Service, logger)
	if err != nil {
		logger.Error("Failed to load expenses", log.FieldError, err)
		cleanup()
		os.Exit(1)
	}
	w.SetOnClosed(cleanup)

	logger.Info("Starting spese-desk", log.FieldBackend, cfg.DataBackend, log.FieldVariant, cfg.Variant)
	w.ShowAndRun()
	cleanup()
	logger.Info("Window closed", log.FieldOperation, log.OpShutdown)
}
