package main

import (
	"log/slog"

	"github.com/aretw0/introspection"
	"github.com/spf13/cobra"

	"github.com/aretw0/budgetry/pkg/core"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print the state of the storage components as JSON",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		repo, closer := openRepo()
		defer closer()

		svc := core.NewService(repo,
			core.WithServiceLogger(slog.Default()),
			core.WithEventBuffer(cfg.EventBuffer),
		)

		components := []any{svc, repo}
		out := make(map[string]any, len(components))
		for _, c := range components {
			comp, ok := c.(introspection.Component)
			if !ok {
				continue
			}
			if state, ok := c.(introspection.Introspectable); ok {
				out[comp.ComponentType()] = state.State()
			}
		}
		printJSON(out)
	},
}

func init() {
	rootCmd.AddCommand(stateCmd)
}
