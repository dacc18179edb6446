package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Nomadcxx/transcodarr/internal/config"
	"github.com/Nomadcxx/transcodarr/internal/paths"
)

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage transcodarr configuration",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := paths.ConfigPath()
			if err != nil {
				return err
			}
			if err := config.DefaultConfig().Save(); err != nil {
				return fmt.Errorf("unable to write config: %w", err)
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Print(cfg.ToTOML())
			return nil
		},
	})

	return configCmd
}
