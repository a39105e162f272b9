package fs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/budgetry/pkg/core"
)

var errTxClosed = errors.New("transaction closed")

// Transaction stages writes in memory and applies them on Commit.
// Each file is still written atomically; the batch as a whole is best effort.
type Transaction struct {
	repo    *Repository
	staged  map[string]core.Document // ID -> Document
	deleted map[string]bool
	mu      sync.Mutex
	closed  bool
}

// NewTransaction creates a new transaction.
func NewTransaction(repo *Repository) *Transaction {
	return &Transaction{
		repo:    repo,
		staged:  make(map[string]core.Document),
		deleted: make(map[string]bool),
	}
}

// Save stages a document for saving.
func (t *Transaction) Save(ctx context.Context, doc core.Document) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return errTxClosed
	}
	if _, _, err := t.repo.resolve(doc.ID); err != nil {
		return err
	}

	t.staged[doc.ID] = doc
	delete(t.deleted, doc.ID)
	return nil
}

// Get retrieves a document, favoring staged changes.
func (t *Transaction) Get(ctx context.Context, id string) (core.Document, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return core.Document{}, errTxClosed
	}
	if t.deleted[id] {
		return core.Document{}, fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	if doc, ok := t.staged[id]; ok {
		return doc, nil
	}
	return t.repo.Get(ctx, id)
}

// Delete stages a document for deletion.
func (t *Transaction) Delete(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return errTxClosed
	}

	t.deleted[id] = true
	delete(t.staged, id)
	return nil
}

// Commit applies all staged changes in ID order.
func (t *Transaction) Commit(ctx context.Context, changeReason string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return errTxClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	ids := make([]string, 0, len(t.staged))
	for id := range t.staged {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		relPath, ext, err := t.repo.resolve(id)
		if err != nil {
			return err
		}
		if err := t.repo.writeDocument(relPath, ext, t.staged[id]); err != nil {
			return fmt.Errorf("commit %s: %w", id, err)
		}
	}

	for id := range t.deleted {
		relPath, _, err := t.repo.resolve(id)
		if err != nil {
			return err
		}
		if err := t.repo.removeDocument(relPath); err != nil && !errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("commit delete %s: %w", id, err)
		}
	}

	if err := t.repo.cache.Save(); err != nil {
		t.repo.config.Logger.Warn("failed to persist index", "error", err)
	}

	if changeReason == "" {
		changeReason = "batch transaction update"
	}
	t.repo.config.Logger.Info("transaction committed",
		"reason", changeReason,
		"saved", len(t.staged),
		"deleted", len(t.deleted),
	)

	t.closed = true
	return nil
}

// Rollback discards all staged changes.
func (t *Transaction) Rollback(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}

	t.staged = nil
	t.deleted = nil
	t.closed = true
	return nil
}
