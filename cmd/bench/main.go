package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/budgetry"
	"github.com/aretw0/budgetry/pkg/budget"
)

func main() {
	count := flag.Int("count", 1000, "Number of budgets to generate")
	notes := flag.Int("notes", 2, "Notes added to each budget")
	adapter := flag.String("adapter", budgetry.AdapterFS, "Storage adapter (fs, sqlite)")
	keep := flag.Bool("keep", false, "Keep the benchmark vault after running")
	flag.Parse()

	benchDir, err := os.MkdirTemp("", "budgetry_bench_")
	if err != nil {
		panic(err)
	}
	defer func() {
		if !*keep {
			os.RemoveAll(benchDir)
		} else {
			fmt.Printf("Keeping bench dir: %s\n", benchDir)
		}
	}()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	opts := []budgetry.Option{
		budgetry.WithLogger(logger),
		budgetry.WithAdapter(*adapter),
		budgetry.WithAutoInit(true),
	}
	ctx := context.Background()

	store, err := budgetry.OpenStore(benchDir, opts...)
	if err != nil {
		panic(err)
	}

	fmt.Printf("Generating %d budgets with %d notes each in %s (%s)...\n", *count, *notes, benchDir, *adapter)
	startGen := time.Now()
	handler := budget.NewAddNoteHandler(store, store, budget.WithLogger(logger))
	for i := 0; i < *count; i++ {
		b := budget.Budget{
			ID:        fmt.Sprintf("org_bench_budget_%05d", i),
			OrgID:     "org_bench",
			Name:      fmt.Sprintf("Budget %d", i),
			OwnerID:   fmt.Sprintf("u_%d", i%10),
			Status:    budget.Statuses[i%len(budget.Statuses)],
			StartYear: 2020 + i%6,
			Duration:  1 + i%5,
		}
		if err := store.CreateBudget(ctx, b); err != nil {
			panic(err)
		}
		for n := 0; n < *notes; n++ {
			cmd, err := budget.NewAddNoteCommandNow(b.ID, fmt.Sprintf("Note %d on %s", n, b.Name), b.OwnerID)
			if err != nil {
				panic(err)
			}
			if res := handler.Execute(ctx, cmd); !res.Success {
				panic(res.Err())
			}
		}
	}
	fmt.Printf("Generation took: %v\n", time.Since(startGen))

	// Run 1 uses the store that wrote the data; run 2 reopens it like a fresh CLI invocation.
	duration, items := derive(ctx, store)
	fmt.Printf("Run 1 Result: %v (Items: %d)\n", duration, items)

	store2, err := budgetry.OpenStore(benchDir, opts...)
	if err != nil {
		panic(err)
	}
	duration2, items2 := derive(ctx, store2)
	fmt.Printf("Run 2 Result: %v (Items: %d)\n", duration2, items2)

	fmt.Printf("--------------------------------------------------\n")
	fmt.Printf("Benchmark Result (%d budgets, %s):\n", *count, *adapter)
	fmt.Printf("  Warm store: %v\n", duration)
	fmt.Printf("  Reopened:   %v\n", duration2)
	fmt.Printf("--------------------------------------------------\n")
}

// derive times one full list derivation for the bench org.
func derive(ctx context.Context, store *budget.Store) (time.Duration, int) {
	view := budget.NewListView("org_bench", store.OverviewSource("org_bench"), store.BudgetsSource("org_bench", ""))
	start := time.Now()
	list := view.Refresh(ctx)
	return time.Since(start), len(list.Overview) + list.Count()
}
