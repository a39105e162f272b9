package fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/budgetry/pkg/core"
)

func TestTransaction(t *testing.T) {
	tmpDir := t.TempDir()
	repo := NewRepository(Config{Path: tmpDir, AutoInit: true})

	ctx := context.Background()
	if err := repo.Initialize(ctx); err != nil {
		t.Fatalf("failed to init repo: %v", err)
	}

	assertFileExists := func(id string, wantExists bool) {
		t.Helper()
		_, err := os.Stat(filepath.Join(tmpDir, filepath.FromSlash(id)+".md"))
		exists := err == nil
		if exists != wantExists {
			t.Errorf("file %s exists: %v, want: %v", id, exists, wantExists)
		}
	}

	t.Run("Staged Writes Invisible Until Commit", func(t *testing.T) {
		tx, err := repo.Begin(ctx)
		if err != nil {
			t.Fatalf("failed to begin tx: %v", err)
		}

		note := core.Document{ID: "orgs/o/budgets/b/notes/tx-1", Content: "buffered"}
		if err := tx.Save(ctx, note); err != nil {
			t.Fatalf("failed to save in tx: %v", err)
		}
		assertFileExists(note.ID, false)

		got, err := tx.Get(ctx, note.ID)
		if err != nil {
			t.Fatalf("tx.Get failed: %v", err)
		}
		if got.Content != "buffered" {
			t.Errorf("expected staged content, got %q", got.Content)
		}

		if _, err := repo.Get(ctx, note.ID); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("expected repo.Get to miss staged doc, got %v", err)
		}

		if err := tx.Commit(ctx, "add note"); err != nil {
			t.Fatalf("commit failed: %v", err)
		}
		assertFileExists(note.ID, true)

		if err := tx.Save(ctx, note); !errors.Is(err, errTxClosed) {
			t.Errorf("expected errTxClosed after commit, got %v", err)
		}
	})

	t.Run("Rollback Discards", func(t *testing.T) {
		tx, err := repo.Begin(ctx)
		if err != nil {
			t.Fatalf("failed to begin tx: %v", err)
		}
		if err := tx.Save(ctx, core.Document{ID: "rolled-back"}); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		if err := tx.Rollback(ctx); err != nil {
			t.Fatalf("rollback failed: %v", err)
		}
		assertFileExists("rolled-back", false)

		if err := tx.Commit(ctx, ""); !errors.Is(err, errTxClosed) {
			t.Errorf("expected errTxClosed after rollback, got %v", err)
		}
	})

	t.Run("Staged Delete", func(t *testing.T) {
		if err := repo.Save(ctx, core.Document{ID: "doomed", Content: "x"}); err != nil {
			t.Fatal(err)
		}

		tx, _ := repo.Begin(ctx)
		if err := tx.Delete(ctx, "doomed"); err != nil {
			t.Fatal(err)
		}
		if _, err := tx.Get(ctx, "doomed"); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("expected staged delete to hide doc, got %v", err)
		}
		assertFileExists("doomed", true)

		// Deleting something that never existed is not a commit failure.
		_ = tx.Delete(ctx, "never-there")

		if err := tx.Commit(ctx, "cleanup"); err != nil {
			t.Fatalf("commit failed: %v", err)
		}
		assertFileExists("doomed", false)
	})

	t.Run("Rejects Invalid ID", func(t *testing.T) {
		tx, _ := repo.Begin(ctx)
		defer tx.Rollback(ctx)

		if err := tx.Save(ctx, core.Document{ID: "../outside"}); !errors.Is(err, core.ErrInvalidID) {
			t.Errorf("expected ErrInvalidID, got %v", err)
		}
	})
}

func TestService_WithTransaction(t *testing.T) {
	repo := NewRepository(Config{Path: t.TempDir()})
	ctx := context.Background()
	if err := repo.Initialize(ctx); err != nil {
		t.Fatal(err)
	}
	svc := core.NewService(repo)

	err := svc.WithTransaction(ctx, func(tx core.Transaction) error {
		if err := tx.Save(ctx, core.Document{ID: "a", Content: "1"}); err != nil {
			return err
		}
		return tx.Save(ctx, core.Document{ID: "b", Content: "2"})
	})
	if err != nil {
		t.Fatalf("WithTransaction failed: %v", err)
	}

	docs, err := svc.ListDocuments(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Errorf("expected 2 documents, got %d", len(docs))
	}
}
