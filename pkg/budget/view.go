package budget

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"sync"
	"time"

	"github.com/aretw0/introspection"
	"github.com/aretw0/lifecycle"
	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/budgetry/pkg/core"
)

// Row is one line of the budget table.
type Row struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Status    Status `json:"status"`
	StartYear int    `json:"startYear"`
	EndYear   int    `json:"endYear"`
	CanEdit   bool   `json:"canEdit"`
}

// ViewOption configures a ListView.
type ViewOption func(*ListView)

// WithViewLogger sets the view's logger.
func WithViewLogger(logger *slog.Logger) ViewOption {
	return func(v *ListView) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// WithPattern overrides the doublestar pattern of document IDs that trigger a refresh.
func WithPattern(pattern string) ViewOption {
	return func(v *ListView) {
		v.pattern = pattern
	}
}

// ListView holds the budget list derived from two sources and notifies
// subscribers whenever a refresh changes it.
type ListView struct {
	overview Source
	budgets  Source
	logger   *slog.Logger
	pattern  string

	// refreshMu orders whole refreshes so an older read never replaces a newer one.
	refreshMu sync.Mutex

	mu          sync.RWMutex
	snapshot    BudgetList
	subs        map[int]chan BudgetList
	nextSub     int
	refreshes   int
	lastRefresh time.Time
	lastErr     string
}

// NewListView creates a view for orgID. Call Refresh or Run to populate it.
func NewListView(orgID string, overview, budgets Source, opts ...ViewOption) *ListView {
	v := &ListView{
		overview: overview,
		budgets:  budgets,
		logger:   slog.New(slog.DiscardHandler),
		pattern:  path.Join(BudgetsPath(orgID), "*"),
		snapshot: emptyList(),
		subs:     make(map[int]chan BudgetList),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Pattern returns the document pattern the view reacts to.
func (v *ListView) Pattern() string {
	return v.pattern
}

// Snapshot returns the current derived state.
func (v *ListView) Snapshot() BudgetList {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.snapshot
}

// Rows renders the budgets of the current snapshot as table rows.
func (v *ListView) Rows() []Row {
	snap := v.Snapshot()
	rows := make([]Row, 0, len(snap.Budgets))
	for _, b := range snap.Budgets {
		rows = append(rows, Row{
			ID:        b.ID,
			Name:      b.Name,
			Status:    b.Status,
			StartYear: b.StartYear,
			EndYear:   b.EndYear,
			CanEdit:   canEdit(b),
		})
	}
	return rows
}

// canEdit is the access check; every budget is editable for now.
func canEdit(ListedBudget) bool {
	return true
}

// Subscribe returns a channel receiving each new snapshot and a func to cancel.
// Snapshots are dropped for a subscriber whose buffer is full.
func (v *ListView) Subscribe(buffer int) (<-chan BudgetList, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan BudgetList, buffer)

	v.mu.Lock()
	id := v.nextSub
	v.nextSub++
	v.subs[id] = ch
	v.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			v.mu.Lock()
			defer v.mu.Unlock()
			if _, ok := v.subs[id]; ok {
				delete(v.subs, id)
				close(ch)
			}
		})
	}
}

// Refresh reads both sources, recomputes the list and notifies subscribers
// if it changed. A failing source contributes nothing. Concurrent calls run
// one at a time.
func (v *ListView) Refresh(ctx context.Context) BudgetList {
	v.refreshMu.Lock()
	defer v.refreshMu.Unlock()

	overview := v.read(ctx, "overview", v.overview)
	budgets := v.read(ctx, "budgets", v.budgets)
	next := DeriveBudgetList(v.logger, overview, budgets)

	v.mu.Lock()
	defer v.mu.Unlock()

	v.refreshes++
	v.lastRefresh = time.Now()
	if next.Equal(v.snapshot) {
		return next
	}
	v.snapshot = next
	for _, ch := range v.subs {
		select {
		case ch <- next:
		default:
			v.logger.Warn("subscriber lagging, snapshot dropped")
		}
	}
	return next
}

func (v *ListView) read(ctx context.Context, name string, src Source) []any {
	if src == nil {
		return nil
	}
	items, err := src(ctx)
	if err != nil {
		v.logger.Error("budget source failed", "source", name, "error", err)
		v.mu.Lock()
		v.lastErr = fmt.Sprintf("%s: %v", name, err)
		v.mu.Unlock()
		return nil
	}
	return items
}

// Matches reports whether a change to document id affects the view.
func (v *ListView) Matches(id string) bool {
	ok, err := doublestar.Match(v.pattern, id)
	return err == nil && ok
}

// Run refreshes once, then again for every matching event, until ctx is done
// or events closes. It returns immediately; the loop runs in the background.
func (v *ListView) Run(ctx context.Context, events <-chan core.Event) {
	v.Refresh(ctx)
	lifecycle.Go(ctx, func(ctx context.Context) error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-events:
				if !ok {
					return nil
				}
				if !v.Matches(e.ID) {
					continue
				}
				v.logger.Debug("budget changed", "id", e.ID, "type", e.Type)
				v.Refresh(ctx)
			}
		}
	}, lifecycle.WithErrorHandler(func(err error) {
		v.logger.Error("list view loop stopped", "error", err)
	}))
}

// ViewState exposes the view for introspection.
type ViewState struct {
	Pattern     string    `json:"pattern"`
	Overview    int       `json:"overview"`
	Budgets     int       `json:"budgets"`
	Subscribers int       `json:"subscribers"`
	Refreshes   int       `json:"refreshes"`
	LastRefresh time.Time `json:"last_refresh"`
	LastError   string    `json:"last_error,omitempty"`
}

// State implements introspection.Introspectable.
func (v *ListView) State() any {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return ViewState{
		Pattern:     v.pattern,
		Overview:    len(v.snapshot.Overview),
		Budgets:     v.snapshot.Count(),
		Subscribers: len(v.subs),
		Refreshes:   v.refreshes,
		LastRefresh: v.lastRefresh,
		LastError:   v.lastErr,
	}
}

// ComponentType implements introspection.Component.
func (v *ListView) ComponentType() string {
	return "budget-list-view"
}

var _ introspection.Introspectable = (*ListView)(nil)
var _ introspection.Component = (*ListView)(nil)
