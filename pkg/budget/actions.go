package budget

import (
	"context"
	"fmt"
	"log/slog"
	"path"
)

// Actions are the operations a user can trigger from the budget table.
type Actions interface {
	Promote(ctx context.Context, b Budget) error
	Share(ctx context.Context, b Budget, userIDs []string) error
	Clone(ctx context.Context, b Budget) (Budget, error)
	Delete(ctx context.Context, b Budget) error
	Navigate(path string) error
}

// StoreActions implements Actions on a Store.
type StoreActions struct {
	store    *Store
	navigate func(string) error
	logger   *slog.Logger
}

// NewStoreActions creates the actions. navigate receives the target of Navigate; it may be nil.
func NewStoreActions(store *Store, navigate func(string) error, logger *slog.Logger) *StoreActions {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &StoreActions{store: store, navigate: navigate, logger: logger}
}

// Promote marks the budget as promoted.
func (a *StoreActions) Promote(ctx context.Context, b Budget) error {
	b.Status = StatusPromoted
	if err := a.store.SaveBudget(ctx, b); err != nil {
		return fmt.Errorf("promote %s: %w", b.ID, err)
	}
	a.logger.Info("budget promoted", "budget_id", b.ID)
	return nil
}

// Share adds userIDs to the budget's share list, skipping duplicates and the owner.
func (a *StoreActions) Share(ctx context.Context, b Budget, userIDs []string) error {
	seen := make(map[string]bool, len(b.SharedWith))
	for _, u := range b.SharedWith {
		seen[u] = true
	}
	shared := append([]string(nil), b.SharedWith...)
	for _, u := range userIDs {
		if u == "" || u == b.OwnerID || seen[u] {
			continue
		}
		seen[u] = true
		shared = append(shared, u)
	}
	b.SharedWith = shared

	if err := a.store.SaveBudget(ctx, b); err != nil {
		return fmt.Errorf("share %s: %w", b.ID, err)
	}
	a.logger.Info("budget shared", "budget_id", b.ID, "shared_with", len(shared))
	return nil
}

// Clone stores a draft copy under the first free ID of the form <id>_copy_<n>.
func (a *StoreActions) Clone(ctx context.Context, b Budget) (Budget, error) {
	clone := b
	clone.Status = StatusDraft
	clone.SharedWith = nil
	clone.Name = b.Name + " (copy)"

	for n := 1; ; n++ {
		clone.ID = fmt.Sprintf("%s_copy_%d", b.ID, n)
		existing, err := a.store.GetBudget(ctx, b.OrgID, clone.ID)
		if err != nil {
			return Budget{}, fmt.Errorf("clone %s: %w", b.ID, err)
		}
		if existing == nil {
			break
		}
	}

	if err := a.store.CreateBudget(ctx, clone); err != nil {
		return Budget{}, fmt.Errorf("clone %s: %w", b.ID, err)
	}
	a.logger.Info("budget cloned", "budget_id", b.ID, "clone_id", clone.ID)
	return clone, nil
}

// Delete is not available yet.
func (a *StoreActions) Delete(ctx context.Context, b Budget) error {
	return fmt.Errorf("delete %s: %w", b.ID, ErrNotImplemented)
}

// Navigate hands target to the navigate callback.
func (a *StoreActions) Navigate(target string) error {
	if a.navigate == nil {
		return nil
	}
	return a.navigate(target)
}

// BudgetPath is the navigation target of a budget's detail page.
func BudgetPath(b Budget) string {
	return path.Join("/", BudgetsPath(b.OrgID), b.ID)
}

var _ Actions = (*StoreActions)(nil)
