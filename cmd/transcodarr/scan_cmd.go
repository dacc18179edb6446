package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Nomadcxx/transcodarr/internal/config"
	"github.com/Nomadcxx/transcodarr/internal/database"
	"github.com/Nomadcxx/transcodarr/internal/logging"
	"github.com/Nomadcxx/transcodarr/internal/paths"
	"github.com/Nomadcxx/transcodarr/internal/probe"
	"github.com/Nomadcxx/transcodarr/internal/scanner"
)

func newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Run a one-shot source scan without starting the service",
		RunE:  runScan,
	}
}

func runScan(cmd *cobra.Command, args []string) error {
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

	if valid, err := db.ValidateSchema(); err != nil {
		return fmt.Errorf("unable to validate schema: %w", err)
	} else if !valid {
		logger.Warn("scan", "Schema mismatch, state tables recreated")
	}

	result, err := scanner.New(db, probe.NewFFProbe(), logger).Scan(cmd.Context(), cfg.Sources)
	if err != nil {
		return err
	}

	fmt.Printf("Scan complete: %d added, %d skipped, %d errors\n",
		result.Added, result.Skipped, result.Errors)
	return nil
}
