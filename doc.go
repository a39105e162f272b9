// Package budgetry is the composition root for the budget notes and budget list features.
//
// It wires the document store (filesystem or SQLite adapter behind core.Repository)
// to the budget domain in pkg/budget.
//
// Features:
//
//   - **Document Store**: Hierarchical ids such as orgs/{orgId}/budgets/{budgetId}/notes/{noteId}.
//   - **Two Adapters**: Markdown/JSON/YAML files on disk, or a single SQLite database.
//   - **Budget Notes**: AddNoteCommand validation and an AddNoteHandler that never panics.
//   - **Budget Lists**: DeriveBudgetList plus a ListView that recomputes on store events.
//   - **Typed Retrieval**: Generic wrappers (NewTypedRepository, NewTypedCollection).
//
// Usage:
//
//	store, err := budgetry.OpenStore("./vault", budgetry.WithAdapter("sqlite"))
//	if err != nil {
//		return err
//	}
//
//	handler := budget.NewAddNoteHandler(store, store, budget.WithLogger(logger))
//	cmd, err := budget.NewAddNoteCommandNow("org_acme_budget_2025", "Raise Q3 travel cap", "u_42")
//	if err != nil {
//		return err
//	}
//	res := handler.Execute(ctx, cmd)
package budgetry
