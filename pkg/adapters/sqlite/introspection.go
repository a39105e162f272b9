package sqlite

import (
	"context"
	"time"

	"github.com/aretw0/introspection"
)

// RepositoryState exposes internal state for observability.
type RepositoryState struct {
	Path          string `json:"path"`
	ReadOnly      bool   `json:"read_only"`
	Open          bool   `json:"open"`
	Documents     int    `json:"documents"`
	ActiveWatches int    `json:"active_watches"`
	DroppedEvents int    `json:"dropped_events"`
}

// State implements introspection.Introspectable.
func (r *Repository) State() any {
	subs, dropped := r.broker.stats()
	state := RepositoryState{
		Path:          r.config.Path,
		ReadOnly:      r.config.ReadOnly,
		ActiveWatches: subs,
		DroppedEvents: dropped,
	}

	db, err := r.handle()
	if err != nil {
		return state
	}
	state.Open = true

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = db.QueryRowContext(ctx, `SELECT COUNT(1) FROM documents`).Scan(&state.Documents)
	return state
}

// ComponentType implements introspection.Component.
func (r *Repository) ComponentType() string {
	return "sqlite-repository"
}

var _ introspection.Introspectable = (*Repository)(nil)
var _ introspection.Component = (*Repository)(nil)
