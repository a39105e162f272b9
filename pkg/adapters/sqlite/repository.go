// Package sqlite stores documents in a single SQLite table.
//
// Metadata is persisted as a JSON column; IDs are the same slash-separated
// paths the filesystem adapter uses, so the two are interchangeable behind
// core.Repository.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // register sqlite driver

	"github.com/aretw0/budgetry/pkg/core"
)

const timeFormat = time.RFC3339Nano

const schemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
	id         TEXT PRIMARY KEY,
	content    TEXT NOT NULL DEFAULT '',
	metadata   TEXT NOT NULL DEFAULT '{}',
	updated_at TEXT NOT NULL
);`

var errNotInitialized = errors.New("sqlite repository not initialized")

// Config holds the configuration for the SQLite repository.
type Config struct {
	Path     string // database file, e.g. "vault/budgetry.db"
	ReadOnly bool
	Logger   *slog.Logger

	// EventBuffer sizes each watcher's queue; events beyond it are dropped.
	EventBuffer int
}

// Repository implements core.Repository on SQLite.
type Repository struct {
	config Config
	broker *broker

	mu sync.RWMutex
	db *sql.DB
}

// NewRepository creates a repository; the database is opened by Initialize.
func NewRepository(config Config) *Repository {
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if config.EventBuffer <= 0 {
		config.EventBuffer = 64
	}
	return &Repository{
		config: config,
		broker: newBroker(config.EventBuffer, config.Logger),
	}
}

// Initialize opens the database and applies the schema.
func (r *Repository) Initialize(ctx context.Context) error {
	path := strings.TrimSpace(r.config.Path)
	if path == "" {
		return fmt.Errorf("storage path is required")
	}
	path = filepath.Clean(path)

	if r.config.ReadOnly {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("open read-only database: %w", err)
		}
	} else if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating database dir: %w", err)
	}

	dsn := path + "?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return fmt.Errorf("creating schema: %w", err)
	}

	r.mu.Lock()
	old := r.db
	r.db = db
	r.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}

	r.config.Logger.Debug("sqlite store ready", "path", path)
	return nil
}

// Close closes the database handle.
func (r *Repository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

func (r *Repository) handle() (*sql.DB, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.db == nil {
		return nil, errNotInitialized
	}
	return r.db, nil
}

func validateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: empty", core.ErrInvalidID)
	}
	return nil
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// upsert writes doc and reports whether it already existed.
func upsert(ctx context.Context, q execer, doc core.Document) (existed bool, err error) {
	metadata := doc.Metadata
	if metadata == nil {
		metadata = core.Metadata{}
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return false, fmt.Errorf("encode metadata for %s: %w", doc.ID, err)
	}

	var n int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(1) FROM documents WHERE id = ?`, doc.ID).Scan(&n); err != nil {
		return false, fmt.Errorf("lookup document %s: %w", doc.ID, err)
	}

	_, err = q.ExecContext(ctx,
		`INSERT INTO documents (id, content, metadata, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   content = excluded.content,
		   metadata = excluded.metadata,
		   updated_at = excluded.updated_at`,
		doc.ID,
		doc.Content,
		string(raw),
		time.Now().UTC().Format(timeFormat),
	)
	if err != nil {
		return false, fmt.Errorf("save document %s: %w", doc.ID, err)
	}
	return n > 0, nil
}

func remove(ctx context.Context, q execer, id string) error {
	res, err := q.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	return nil
}

// Save inserts or replaces a document.
func (r *Repository) Save(ctx context.Context, doc core.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.config.ReadOnly {
		return core.ErrReadOnly
	}
	if err := validateID(doc.ID); err != nil {
		return err
	}
	db, err := r.handle()
	if err != nil {
		return err
	}

	existed, err := upsert(ctx, db, doc)
	if err != nil {
		return err
	}

	if reason, ok := ctx.Value(core.ChangeReasonKey).(string); ok && reason != "" {
		r.config.Logger.Info("document saved", "id", doc.ID, "reason", reason)
	} else {
		r.config.Logger.Debug("document saved", "id", doc.ID)
	}

	r.broker.publish(changeEvent(doc.ID, existed))
	return nil
}

// Get returns the document stored under id.
func (r *Repository) Get(ctx context.Context, id string) (core.Document, error) {
	if err := ctx.Err(); err != nil {
		return core.Document{}, err
	}
	db, err := r.handle()
	if err != nil {
		return core.Document{}, err
	}

	var content, raw string
	err = db.QueryRowContext(ctx, `SELECT content, metadata FROM documents WHERE id = ?`, id).Scan(&content, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Document{}, fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	if err != nil {
		return core.Document{}, fmt.Errorf("get document %s: %w", id, err)
	}
	return decode(id, content, raw)
}

// List returns every document ordered by ID.
func (r *Repository) List(ctx context.Context) ([]core.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	db, err := r.handle()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT id, content, metadata FROM documents ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var docs []core.Document
	for rows.Next() {
		var id, content, raw string
		if err := rows.Scan(&id, &content, &raw); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		doc, err := decode(id, content, raw)
		if err != nil {
			r.config.Logger.Warn("skipping undecodable document", "id", id, "error", err)
			continue
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Delete removes the document stored under id.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if r.config.ReadOnly {
		return core.ErrReadOnly
	}
	db, err := r.handle()
	if err != nil {
		return err
	}
	if err := remove(ctx, db, id); err != nil {
		return err
	}
	r.broker.publish(core.Event{Type: core.EventDelete, ID: id, Timestamp: time.Now().Unix()})
	return nil
}

// Begin starts a transaction that is applied in a single SQL transaction on Commit.
func (r *Repository) Begin(ctx context.Context) (core.Transaction, error) {
	if r.config.ReadOnly {
		return nil, core.ErrReadOnly
	}
	if _, err := r.handle(); err != nil {
		return nil, err
	}
	return newTransaction(r), nil
}

// Watch streams events for documents whose ID matches pattern until ctx is done.
func (r *Repository) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	return r.broker.watch(ctx, pattern)
}

func decode(id, content, raw string) (core.Document, error) {
	doc := core.Document{ID: id, Content: content, Metadata: core.Metadata{}}
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &doc.Metadata); err != nil {
			return core.Document{}, fmt.Errorf("decode metadata for %s: %w", id, err)
		}
	}
	return doc, nil
}

func changeEvent(id string, existed bool) core.Event {
	t := core.EventCreate
	if existed {
		t = core.EventModify
	}
	return core.Event{Type: t, ID: id, Timestamp: time.Now().Unix()}
}

var (
	_ core.Repository    = (*Repository)(nil)
	_ core.Transactional = (*Repository)(nil)
	_ core.Watchable     = (*Repository)(nil)
)
