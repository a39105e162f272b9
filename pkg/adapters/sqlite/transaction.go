package sqlite

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/budgetry/pkg/core"
)

var errTxClosed = errors.New("transaction closed")

// Transaction buffers changes and applies them atomically in one SQL transaction.
type Transaction struct {
	repo    *Repository
	staged  map[string]core.Document
	deleted map[string]bool
	mu      sync.Mutex
	closed  bool
}

func newTransaction(repo *Repository) *Transaction {
	return &Transaction{
		repo:    repo,
		staged:  make(map[string]core.Document),
		deleted: make(map[string]bool),
	}
}

func (t *Transaction) Save(ctx context.Context, doc core.Document) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return errTxClosed
	}
	if err := validateID(doc.ID); err != nil {
		return err
	}
	t.staged[doc.ID] = doc
	delete(t.deleted, doc.ID)
	return nil
}

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

// Commit applies every staged change or none of them.
func (t *Transaction) Commit(ctx context.Context, changeReason string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return errTxClosed
	}
	db, err := t.repo.handle()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	ids := make([]string, 0, len(t.staged))
	for id := range t.staged {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var events []core.Event
	for _, id := range ids {
		existed, err := upsert(ctx, tx, t.staged[id])
		if err != nil {
			return err
		}
		events = append(events, changeEvent(id, existed))
	}
	for id := range t.deleted {
		err := remove(ctx, tx, id)
		if errors.Is(err, core.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		events = append(events, core.Event{Type: core.EventDelete, ID: id, Timestamp: time.Now().Unix()})
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	t.closed = true

	if changeReason == "" {
		changeReason = "batch transaction update"
	}
	t.repo.config.Logger.Info("transaction committed",
		"reason", changeReason,
		"saved", len(t.staged),
		"deleted", len(t.deleted),
	)
	for _, e := range events {
		t.repo.broker.publish(e)
	}
	return nil
}

func (t *Transaction) Rollback(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.staged = nil
	t.deleted = nil
	t.closed = true
	return nil
}
