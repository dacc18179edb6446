package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Nomadcxx/transcodarr/internal/api"
	"github.com/Nomadcxx/transcodarr/internal/config"
	"github.com/Nomadcxx/transcodarr/internal/database"
	"github.com/Nomadcxx/transcodarr/internal/logging"
	"github.com/Nomadcxx/transcodarr/internal/paths"
	"github.com/Nomadcxx/transcodarr/internal/probe"
	"github.com/Nomadcxx/transcodarr/internal/queue"
	"github.com/Nomadcxx/transcodarr/internal/scanner"
	"github.com/Nomadcxx/transcodarr/internal/transcode"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Scan sources once, then serve the control surface and encode worker",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("unable to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(logging.Config{
		Level:      cfg.Logging.Level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})
	if err != nil {
		return fmt.Errorf("unable to create logger: %w", err)
	}
	defer logger.Close()

	db, err := database.Open(paths.DatabasePath(cfg.Dest))
	if err != nil {
		return fmt.Errorf("unable to open database: %w", err)
	}
	defer db.Close()

	valid, err := db.ValidateSchema()
	if err != nil {
		return fmt.Errorf("unable to validate schema: %w", err)
	}
	if !valid {
		logger.Warn("startup", "Schema mismatch, state tables recreated",
			logging.F("tables", "entries,metadata,progress"))
	}

	prober := probe.NewFFProbe()

	// The scan completes before the worker starts; the worker only ever sees
	// fully inserted rows.
	scanResult, err := scanner.New(db, prober, logger).Scan(cmd.Context(), cfg.Sources)
	if err != nil {
		return fmt.Errorf("source scan interrupted: %w", err)
	}
	logger.Info("startup", "Startup scan finished",
		logging.F("added", scanResult.Added),
		logging.F("skipped", scanResult.Skipped),
		logging.F("errors", scanResult.Errors))

	worker := transcode.NewWorker(db, prober, transcode.Config{
		Workdir: cfg.Workdir,
		CRF:     cfg.Quality.CRF,
		ResCap:  cfg.Quality.ResCap,
	}, logger)
	worker.Startup()

	admission := queue.New(db, logger)
	server := api.NewServer(cfg.Server.Addr, db, admission, worker, version, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("startup", "Shutting down", logging.F("signal", sig.String()))
	case err := <-errChan:
		if err != nil {
			cancel()
			wg.Wait()
			return err
		}
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("startup", "Server shutdown failed", err)
	}

	wg.Wait()
	return nil
}
