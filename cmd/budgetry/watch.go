package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/budgetry/pkg/adapters/lifecycle"
	"github.com/aretw0/budgetry/pkg/core"
)

var watchPattern string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream document change events",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		repo, closer := openRepo()
		defer closer()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc := core.NewService(repo,
			core.WithServiceLogger(slog.Default()),
			core.WithEventBuffer(cfg.EventBuffer),
		)
		events, err := svc.Watch(ctx, "")
		if err != nil {
			fatal("Failed to watch vault", err)
		}

		src := lifecycle.NewSource(events, lifecycle.WithPattern(watchPattern))
		if err := src.Start(ctx); err != nil {
			fatal("Invalid pattern", err)
		}

		for e := range src.Events() {
			fmt.Printf("%s %s\n", time.Now().Format(time.TimeOnly), e)
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchPattern, "pattern", "orgs/**", "Only show documents matching this glob")
}
