package platform_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/budgetry/internal/platform"
	"github.com/aretw0/budgetry/pkg/adapters/fs"
	"github.com/aretw0/budgetry/pkg/adapters/sqlite"
	"github.com/aretw0/budgetry/pkg/core"
)

func TestInit(t *testing.T) {
	t.Run("AutoInit Creates Directory", func(t *testing.T) {
		vaultPath := filepath.Join(t.TempDir(), "vault")

		repo, err := platform.Init(vaultPath, platform.WithAutoInit(true), platform.WithForceTemp(true))
		require.NoError(t, err)

		fsRepo, ok := repo.(*fs.Repository)
		require.True(t, ok, "expected fs repository")
		assert.Equal(t, vaultPath, fsRepo.Path)

		info, err := os.Stat(vaultPath)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("AutoInit=false Fails if Directory Missing", func(t *testing.T) {
		vaultPath := filepath.Join(t.TempDir(), "missing")

		_, err := platform.Init(vaultPath, platform.WithAutoInit(false), platform.WithForceTemp(true))
		assert.Error(t, err)
	})

	t.Run("SQLite Uses Database File Inside Directory", func(t *testing.T) {
		vaultPath := t.TempDir()

		repo, err := platform.Init(vaultPath, platform.WithAdapter(platform.AdapterSQLite), platform.WithForceTemp(true))
		require.NoError(t, err)

		sqlRepo, ok := repo.(*sqlite.Repository)
		require.True(t, ok, "expected sqlite repository")
		t.Cleanup(func() { _ = sqlRepo.Close() })

		state := sqlRepo.State().(sqlite.RepositoryState)
		assert.Equal(t, filepath.Join(vaultPath, platform.DatabaseFile), state.Path)
		assert.True(t, state.Open)
		assert.FileExists(t, state.Path)
	})

	t.Run("SQLite MustExist Fails for Missing Database", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "missing.db")

		_, err := platform.Init(dbPath, platform.WithAdapter(platform.AdapterSQLite), platform.WithMustExist(true), platform.WithForceTemp(true))
		assert.Error(t, err)
		assert.NoFileExists(t, dbPath)
	})

	t.Run("Unknown Adapter", func(t *testing.T) {
		_, err := platform.Init(t.TempDir(), platform.WithAdapter("postgres"), platform.WithForceTemp(true))
		assert.ErrorContains(t, err, "unknown adapter")
	})

	t.Run("Injected Repository Wins", func(t *testing.T) {
		injected := fs.NewRepository(fs.Config{Path: t.TempDir()})
		repo, err := platform.Init("ignored", platform.WithRepository(injected))
		require.NoError(t, err)
		assert.Same(t, injected, repo)
	})
}

func TestNew(t *testing.T) {
	for _, adapter := range []string{platform.AdapterFS, platform.AdapterSQLite} {
		t.Run(adapter, func(t *testing.T) {
			svc, err := platform.New(t.TempDir(), platform.WithAdapter(adapter), platform.WithForceTemp(true), platform.WithEventBuffer(8))
			require.NoError(t, err)
			if closer, ok := svc.Repository().(interface{ Close() error }); ok {
				t.Cleanup(func() { _ = closer.Close() })
			}

			ctx := context.Background()
			require.NoError(t, svc.SaveDocument(ctx, "orgs/org_a/budgets/b1", "", core.Metadata{"name": "Ops"}))

			doc, err := svc.GetDocument(ctx, "orgs/org_a/budgets/b1")
			require.NoError(t, err)
			assert.Equal(t, "Ops", doc.Metadata["name"])
		})
	}
}
