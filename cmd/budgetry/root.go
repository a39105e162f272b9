package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/budgetry"
	"github.com/aretw0/budgetry/internal/config"
	"github.com/aretw0/budgetry/pkg/budget"
	"github.com/aretw0/budgetry/pkg/core"
)

var (
	verbose    bool
	vaultPath  string
	adapter    string
	configPath string

	cfg config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "budgetry",
	Short: "Budget notes and budget lists on a document store",
	Long: `Budgetry keeps budgets and their notes as documents under
orgs/{orgId}/budgets/{budgetId}, on plain files or a single SQLite database.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		loaded, err := config.Load(configPath)
		if err != nil {
			fatal("Failed to load config", err)
		}
		cfg = loaded
		if cmd.Flags().Changed("adapter") {
			cfg.Adapter = adapter
		}

		level := cfg.SlogLevel()
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&vaultPath, "vault", "", "Vault directory or database file (default: config, then nearest vault root, then CWD)")
	rootCmd.PersistentFlags().StringVar(&adapter, "adapter", budgetry.AdapterFS, "Storage adapter (fs, sqlite)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to budgetry.toml")
}

// resolveVault picks the vault from the flag, the config, or the nearest vault root.
func resolveVault() string {
	if vaultPath != "" {
		return vaultPath
	}
	if cfg.Vault != "" && cfg.Vault != "." {
		return cfg.Vault
	}

	wd, err := os.Getwd()
	if err != nil {
		fatal("Failed to get CWD", err)
	}
	if root, err := budgetry.FindVaultRoot(wd); err == nil {
		return root
	}
	return wd
}

// openRepo opens the configured repository; callers must invoke the returned closer.
func openRepo(opts ...budgetry.Option) (core.Repository, func()) {
	base := append(cfg.Options(), budgetry.WithLogger(slog.Default()))
	repo, err := budgetry.Init(resolveVault(), append(base, opts...)...)
	if err != nil {
		fatal("Failed to open vault", err)
	}

	closer := func() {}
	if c, ok := repo.(io.Closer); ok {
		closer = func() {
			if err := c.Close(); err != nil {
				slog.Warn("failed to close repository", "error", err)
			}
		}
	}
	return repo, closer
}

func openStore(opts ...budgetry.Option) (*budget.Store, core.Repository, func()) {
	repo, closer := openRepo(opts...)
	return budget.NewStore(repo, slog.Default()), repo, closer
}
