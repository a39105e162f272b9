package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/budgetry/pkg/adapters/sqlite"
	"github.com/aretw0/budgetry/pkg/core"
)

func openRepo(t *testing.T) (*sqlite.Repository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "budgetry.db")
	repo := sqlite.NewRepository(sqlite.Config{Path: path})
	require.NoError(t, repo.Initialize(context.Background()))
	t.Cleanup(func() { _ = repo.Close() })
	return repo, path
}

func TestRoundTrip(t *testing.T) {
	repo, _ := openRepo(t)
	ctx := context.Background()

	doc := core.Document{
		ID:      "orgs/org_acme/budgets/org_acme_budget_1",
		Content: "",
		Metadata: core.Metadata{
			"name":       "Ops",
			"startYear":  2025,
			"sharedWith": []any{"u1"},
		},
	}
	require.NoError(t, repo.Save(ctx, doc))

	got, err := repo.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ops", got.Metadata["name"])
	assert.Equal(t, float64(2025), got.Metadata["startYear"])
	assert.Equal(t, []any{"u1"}, got.Metadata["sharedWith"])

	doc.Content = "updated"
	require.NoError(t, repo.Save(ctx, doc))
	got, err = repo.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "updated", got.Content)

	docs, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	require.NoError(t, repo.Delete(ctx, doc.ID))
	_, err = repo.Get(ctx, doc.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, doc.ID), core.ErrNotFound)
}

func TestListOrdered(t *testing.T) {
	repo, _ := openRepo(t)
	ctx := context.Background()

	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, repo.Save(ctx, core.Document{ID: id}))
	}
	docs, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "a", docs[0].ID)
	assert.Equal(t, "c", docs[2].ID)
}

func TestInvalidAndUninitialized(t *testing.T) {
	repo, _ := openRepo(t)
	assert.ErrorIs(t, repo.Save(context.Background(), core.Document{ID: " "}), core.ErrInvalidID)

	fresh := sqlite.NewRepository(sqlite.Config{Path: filepath.Join(t.TempDir(), "x.db")})
	_, err := fresh.Get(context.Background(), "a")
	assert.Error(t, err)

	assert.Error(t, sqlite.NewRepository(sqlite.Config{}).Initialize(context.Background()))
}

func TestReadOnly(t *testing.T) {
	rw, path := openRepo(t)
	ctx := context.Background()
	require.NoError(t, rw.Save(ctx, core.Document{ID: "keep", Content: "x"}))
	require.NoError(t, rw.Close())

	ro := sqlite.NewRepository(sqlite.Config{Path: path, ReadOnly: true})
	require.NoError(t, ro.Initialize(ctx))
	defer ro.Close()

	assert.ErrorIs(t, ro.Save(ctx, core.Document{ID: "new"}), core.ErrReadOnly)
	assert.ErrorIs(t, ro.Delete(ctx, "keep"), core.ErrReadOnly)
	_, err := ro.Begin(ctx)
	assert.ErrorIs(t, err, core.ErrReadOnly)

	doc, err := ro.Get(ctx, "keep")
	require.NoError(t, err)
	assert.Equal(t, "x", doc.Content)

	missing := sqlite.NewRepository(sqlite.Config{Path: filepath.Join(t.TempDir(), "nope.db"), ReadOnly: true})
	assert.Error(t, missing.Initialize(ctx))
}

func TestTransaction(t *testing.T) {
	repo, _ := openRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, core.Document{ID: "old"}))

	tx, err := repo.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Save(ctx, core.Document{ID: "a", Content: "1"}))
	require.NoError(t, tx.Delete(ctx, "old"))
	require.NoError(t, tx.Delete(ctx, "never-existed"))

	staged, err := tx.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "1", staged.Content)
	_, err = tx.Get(ctx, "old")
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = repo.Get(ctx, "a")
	assert.ErrorIs(t, err, core.ErrNotFound, "staged write visible before commit")

	require.NoError(t, tx.Commit(ctx, "batch"))

	_, err = repo.Get(ctx, "a")
	assert.NoError(t, err)
	_, err = repo.Get(ctx, "old")
	assert.ErrorIs(t, err, core.ErrNotFound)

	assert.Error(t, tx.Save(ctx, core.Document{ID: "late"}))
}

func TestTransaction_Rollback(t *testing.T) {
	repo, _ := openRepo(t)
	ctx := context.Background()

	tx, err := repo.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Save(ctx, core.Document{ID: "a"}))
	require.NoError(t, tx.Rollback(ctx))

	_, err = repo.Get(ctx, "a")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestWatch(t *testing.T) {
	repo, _ := openRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := repo.Watch(ctx, "orgs/o/budgets/*")
	require.NoError(t, err)

	require.NoError(t, repo.Save(ctx, core.Document{ID: "orgs/x/budgets/b"}))
	require.NoError(t, repo.Save(ctx, core.Document{ID: "orgs/o/budgets/b"}))
	require.NoError(t, repo.Save(ctx, core.Document{ID: "orgs/o/budgets/b"}))
	require.NoError(t, repo.Delete(ctx, "orgs/o/budgets/b"))

	var got []core.EventType
	for i := 0; i < 3; i++ {
		select {
		case e := <-events:
			assert.Equal(t, "orgs/o/budgets/b", e.ID)
			got = append(got, e.Type)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
	assert.Equal(t, []core.EventType{core.EventCreate, core.EventModify, core.EventDelete}, got)

	state := repo.State().(sqlite.RepositoryState)
	assert.Equal(t, 1, state.ActiveWatches)
	assert.True(t, state.Open)
	assert.Equal(t, 1, state.Documents)

	cancel()
	assert.Eventually(t, func() bool {
		_, open := <-events
		return !open
	}, time.Second, 10*time.Millisecond)

	_, err = repo.Watch(context.Background(), "[")
	assert.Error(t, err)
}
