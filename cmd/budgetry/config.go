package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/budgetry/internal/config"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage budgetry.toml",
	// A --config file that does not exist yet is the one init creates.
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		path := configPath
		if _, err := os.Stat(path); path != "" && errors.Is(err, os.ErrNotExist) {
			path = ""
		}
		loaded, err := config.Load(path)
		if err != nil {
			fatal("Failed to load config", err)
		}
		cfg = loaded
		if cmd.Flags().Changed("adapter") {
			cfg.Adapter = adapter
		}
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the effective configuration to budgetry.toml",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		path := configPath
		if path == "" {
			path = config.FileName
		}
		if _, err := os.Stat(path); err == nil && !configForce {
			fatal("Failed to write config", fmt.Errorf("%s already exists (use --force to overwrite)", path))
		}

		out := cfg
		if vaultPath != "" {
			out.Vault = vaultPath
		}
		if err := config.Save(path, out); err != nil {
			fatal("Failed to write config", err)
		}
		fmt.Printf("Config written to %s\n", path)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing config file")
}
