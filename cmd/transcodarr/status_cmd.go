package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Nomadcxx/transcodarr/internal/config"
	"github.com/Nomadcxx/transcodarr/internal/database"
	"github.com/Nomadcxx/transcodarr/internal/paths"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print per-status entry counts from the state database",
		RunE:  runStatus,
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("unable to load config: %w", err)
	}
	if cfg.Dest == "" {
		return fmt.Errorf("no destination directory configured")
	}

	db, err := database.Open(paths.DatabasePath(cfg.Dest))
	if err != nil {
		return fmt.Errorf("unable to open database: %w", err)
	}
	defer db.Close()

	counts, err := db.CountByStatus()
	if err != nil {
		return err
	}

	total := 0
	for _, c := range counts {
		total += c
	}

	fmt.Printf("Total:       %d\n", total)
	fmt.Printf("Pending:     %d\n", counts[database.StatusPending])
	fmt.Printf("Queued:      %d\n", counts[database.StatusQueued])
	fmt.Printf("In progress: %d\n", counts[database.StatusInProgress])
	fmt.Printf("Done:        %d\n", counts[database.StatusDone])
	fmt.Printf("Optimum:     %d\n", counts[database.StatusOptimum])
	return nil
}
