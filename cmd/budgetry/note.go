package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/budgetry/pkg/budget"
)

var (
	noteBudget  string
	noteAuthor  string
	noteContent string
	noteAt      string
	noteJSON    bool
)

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Add and list budget notes",
}

var noteAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Append a note to a budget",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		createdAt := time.Now()
		if noteAt != "" {
			t, err := time.Parse(time.RFC3339, noteAt)
			if err != nil {
				fatal("Invalid --at timestamp", err)
			}
			createdAt = t
		}

		command, err := budget.NewAddNoteCommand(noteBudget, noteContent, noteAuthor, createdAt)
		if err != nil {
			var verr *budget.ValidationError
			if errors.As(err, &verr) && noteJSON {
				printJSON(verr)
				os.Exit(1)
			}
			fatal("Invalid note", err)
		}

		store, _, closer := openStore()
		defer closer()

		handler := budget.NewAddNoteHandler(store, store, budget.WithLogger(slog.Default()))
		res := handler.Execute(context.Background(), command)

		if noteJSON {
			printJSON(res)
			if !res.Success {
				os.Exit(1)
			}
			return
		}
		if !res.Success {
			fatal("Failed to add note", res.Err())
		}
		fmt.Printf("Note %s added to %s\n", res.NoteID, res.BudgetID)
	},
}

var noteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the notes of a budget",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		requireFlag(cmd, "budget", noteBudget)
		org, err := budget.DeriveOrgID(noteBudget)
		if err != nil {
			fatal("Invalid budget ID format", err)
		}

		store, _, closer := openStore()
		defer closer()

		notes, err := store.ListNotes(context.Background(), org, noteBudget)
		if err != nil {
			fatal("Failed to list notes", err)
		}

		if noteJSON {
			printJSON(notes)
			return
		}
		fmt.Print(renderNotes(notes))
	},
}

func init() {
	rootCmd.AddCommand(noteCmd)
	noteCmd.AddCommand(noteAddCmd, noteListCmd)

	noteCmd.PersistentFlags().StringVar(&noteBudget, "budget", "", "Budget ID")
	noteCmd.PersistentFlags().BoolVar(&noteJSON, "json", false, "Output in JSON format")

	noteAddCmd.Flags().StringVar(&noteAuthor, "author", "", "Author user ID")
	noteAddCmd.Flags().StringVar(&noteContent, "content", "", "Note text")
	noteAddCmd.Flags().StringVar(&noteAt, "at", "", "Creation time (RFC3339, default now)")
}
