package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/budgetry/pkg/budget"
	"github.com/aretw0/budgetry/pkg/core"
)

var (
	budgetOrg       string
	budgetID        string
	budgetName      string
	budgetOwner     string
	budgetStatus    string
	budgetStartYear int
	budgetDuration  int
	budgetUser      string
	budgetWith      []string
	budgetJSON      bool
	budgetWatch     bool
)

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Create, list and act on budgets",
}

var budgetCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a budget",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		requireFlag(cmd, "id", budgetID)
		org := orgFor(budgetID)

		store, _, closer := openStore()
		defer closer()

		b := budget.Budget{
			ID:        budgetID,
			OrgID:     org,
			Name:      budgetName,
			OwnerID:   budgetOwner,
			Status:    budget.Status(budgetStatus),
			StartYear: budgetStartYear,
			Duration:  budgetDuration,
		}
		if err := store.CreateBudget(context.Background(), b); err != nil {
			fatal("Failed to create budget", err)
		}
		fmt.Printf("Budget %s created under %s\n", b.ID, budget.BudgetsPath(org))
	},
}

var budgetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List an org's budgets (overview and per-user lists)",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		requireFlag(cmd, "org", budgetOrg)

		store, repo, closer := openStore()
		defer closer()

		view := budget.NewListView(budgetOrg,
			store.OverviewSource(budgetOrg),
			store.BudgetsSource(budgetOrg, budgetUser),
			budget.WithViewLogger(slog.Default()),
		)

		if !budgetWatch {
			list := view.Refresh(context.Background())
			if budgetJSON {
				printJSON(list)
				return
			}
			fmt.Print(renderRows(fmt.Sprintf("%s: %d budgets", budgetOrg, list.Count()), view.Rows()))
			return
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		events, err := core.NewService(repo,
			core.WithServiceLogger(slog.Default()),
			core.WithEventBuffer(cfg.EventBuffer),
		).Watch(ctx, view.Pattern())
		if err != nil {
			fatal("Failed to watch vault", err)
		}

		show := func(list budget.BudgetList) {
			if budgetJSON {
				printJSON(list)
				return
			}
			fmt.Print(renderRows(fmt.Sprintf("%s: %d budgets", budgetOrg, list.Count()), view.Rows()))
		}

		view.Run(ctx, events)
		updates, unsubscribe := view.Subscribe(4)
		defer unsubscribe()
		show(view.Snapshot())
		for {
			select {
			case <-ctx.Done():
				return
			case list := <-updates:
				show(list)
			}
		}
	},
}

var budgetPromoteCmd = &cobra.Command{
	Use:   "promote",
	Short: "Mark a budget as promoted",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		withBudget(cmd, func(ctx context.Context, actions budget.Actions, b budget.Budget) {
			if err := actions.Promote(ctx, b); err != nil {
				fatal("Failed to promote budget", err)
			}
			fmt.Printf("Budget %s promoted\n", b.ID)
		})
	},
}

var budgetShareCmd = &cobra.Command{
	Use:   "share",
	Short: "Share a budget with users",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if len(budgetWith) == 0 {
			fmt.Fprintln(os.Stderr, "Error: --with is required")
			_ = cmd.Usage()
			os.Exit(1)
		}
		withBudget(cmd, func(ctx context.Context, actions budget.Actions, b budget.Budget) {
			if err := actions.Share(ctx, b, budgetWith); err != nil {
				fatal("Failed to share budget", err)
			}
			fmt.Printf("Budget %s shared with %s\n", b.ID, strings.Join(budgetWith, ", "))
		})
	},
}

var budgetCloneCmd = &cobra.Command{
	Use:   "clone",
	Short: "Copy a budget as a new draft",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		withBudget(cmd, func(ctx context.Context, actions budget.Actions, b budget.Budget) {
			clone, err := actions.Clone(ctx, b)
			if err != nil {
				fatal("Failed to clone budget", err)
			}
			fmt.Printf("Budget %s cloned to %s\n", b.ID, clone.ID)
		})
	},
}

// withBudget loads --id and hands it to fn together with store-backed actions.
func withBudget(cmd *cobra.Command, fn func(context.Context, budget.Actions, budget.Budget)) {
	requireFlag(cmd, "id", budgetID)
	org := orgFor(budgetID)

	store, _, closer := openStore()
	defer closer()

	ctx := context.Background()
	b, err := store.GetBudget(ctx, org, budgetID)
	if err != nil {
		fatal("Failed to read budget", err)
	}
	if b == nil {
		fatal("Failed to read budget", fmt.Errorf("%w: %s", budget.ErrBudgetNotFound, budgetID))
	}

	actions := budget.NewStoreActions(store, func(target string) error {
		slog.Debug("navigate", "path", target)
		return nil
	}, slog.Default())
	fn(ctx, actions, *b)
}

// orgFor returns the org derived from the budget id. A --org that names a
// different org is an error.
func orgFor(id string) string {
	org, err := budget.DeriveOrgID(id)
	if err != nil {
		fatal("Invalid budget ID format", err)
	}
	if budgetOrg != "" && budgetOrg != org {
		fatal("Invalid budget ID format", fmt.Errorf("%w: %q belongs to org %q, not %q", budget.ErrMalformedIdentifier, id, org, budgetOrg))
	}
	return org
}

func requireFlag(cmd *cobra.Command, name, value string) {
	if strings.TrimSpace(value) == "" {
		fmt.Fprintf(os.Stderr, "Error: --%s is required\n", name)
		_ = cmd.Usage()
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(budgetCmd)
	budgetCmd.AddCommand(budgetCreateCmd, budgetListCmd, budgetPromoteCmd, budgetShareCmd, budgetCloneCmd)

	budgetCmd.PersistentFlags().StringVar(&budgetOrg, "org", "", "Organization ID (with --id, must match the org derived from it)")
	budgetCmd.PersistentFlags().StringVar(&budgetID, "id", "", "Budget ID")

	budgetCreateCmd.Flags().StringVar(&budgetName, "name", "", "Budget name")
	budgetCreateCmd.Flags().StringVar(&budgetOwner, "owner", "", "Owner user ID")
	budgetCreateCmd.Flags().StringVar(&budgetStatus, "status", string(budget.StatusDraft), "Budget status (draft, active, promoted, archived)")
	budgetCreateCmd.Flags().IntVar(&budgetStartYear, "start-year", 0, "First budget year")
	budgetCreateCmd.Flags().IntVar(&budgetDuration, "duration", 1, "Duration in years")

	budgetListCmd.Flags().StringVar(&budgetUser, "user", "", "Only budgets owned by or shared with this user")
	budgetListCmd.Flags().BoolVar(&budgetJSON, "json", false, "Output in JSON format")
	budgetListCmd.Flags().BoolVar(&budgetWatch, "watch", false, "Keep running and re-render on changes")

	budgetShareCmd.Flags().StringSliceVar(&budgetWith, "with", nil, "User IDs to share with (comma separated)")
}
