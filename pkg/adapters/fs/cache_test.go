package fs

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCache_Load(t *testing.T) {
	t.Run("Starts Empty if File Missing", func(t *testing.T) {
		c := newCache(t.TempDir(), ".cache")

		if err := c.Load(); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if c.Len() != 0 {
			t.Errorf("Expected empty entries, got %d", c.Len())
		}
	})

	t.Run("Loads Current Version", func(t *testing.T) {
		tmpDir := t.TempDir()
		cacheDir := filepath.Join(tmpDir, ".cache")
		if err := os.MkdirAll(cacheDir, 0755); err != nil {
			t.Fatal(err)
		}

		jsonContent := `{
			"version": 2,
			"entries": {
				"orgs/o/budgets/b.md": {
					"id": "orgs/o/budgets/b",
					"content": "body",
					"metadata": {"name": "Ops"}
				}
			}
		}`
		if err := os.WriteFile(filepath.Join(cacheDir, "index.json"), []byte(jsonContent), 0644); err != nil {
			t.Fatal(err)
		}

		c := newCache(tmpDir, ".cache")
		if err := c.Load(); err != nil {
			t.Fatalf("Load failed: %v", err)
		}

		entry, ok := c.index.Entries["orgs/o/budgets/b.md"]
		if !ok {
			t.Fatal("Expected entry not found")
		}
		if entry.Metadata["name"] != "Ops" || entry.Content != "body" {
			t.Errorf("unexpected entry: %+v", entry)
		}
	})

	t.Run("Resets on Old Version or Corruption", func(t *testing.T) {
		for name, content := range map[string]string{
			"old":     `{"version": 1, "entries": {"a.md": {"id": "a"}}}`,
			"corrupt": `{ invalid json`,
		} {
			tmpDir := t.TempDir()
			cacheDir := filepath.Join(tmpDir, ".cache")
			_ = os.MkdirAll(cacheDir, 0755)
			_ = os.WriteFile(filepath.Join(cacheDir, "index.json"), []byte(content), 0644)

			c := newCache(tmpDir, ".cache")
			if err := c.Load(); err != nil {
				t.Fatalf("%s: Load failed: %v", name, err)
			}
			if c.Len() != 0 {
				t.Errorf("%s: expected reset cache, got %d entries", name, c.Len())
			}
		}
	})
}

func TestCache_GetRespectsMtime(t *testing.T) {
	c := newCache(t.TempDir(), ".cache")
	now := time.Now()

	c.Set("a.md", &indexEntry{ID: "a", LastModified: now})

	if _, ok := c.Get("a.md", now); !ok {
		t.Error("expected hit for identical mtime")
	}
	if _, ok := c.Get("a.md", now.Add(time.Second)); ok {
		t.Error("expected miss for newer mtime")
	}
	if _, ok := c.Get("missing.md", now); ok {
		t.Error("expected miss for unknown path")
	}
}

func TestCache_SaveAndPrune(t *testing.T) {
	tmpDir := t.TempDir()
	c := newCache(tmpDir, ".cache")
	now := time.Now().UTC().Truncate(time.Second)

	c.Set("a.md", &indexEntry{ID: "a", LastModified: now})
	c.Set("b.md", &indexEntry{ID: "b", LastModified: now})
	c.Prune(map[string]bool{"a.md": true})
	c.Delete("not-there.md")

	if err := c.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if c.index.dirty {
		t.Error("expected clean index after save")
	}

	reloaded := newCache(tmpDir, ".cache")
	if err := reloaded.Load(); err != nil {
		t.Fatal(err)
	}
	if reloaded.Len() != 1 {
		t.Fatalf("expected 1 entry after prune, got %d", reloaded.Len())
	}
	if _, ok := reloaded.Get("a.md", now); !ok {
		t.Error("expected a.md to survive reload with same mtime")
	}
}

func TestCache_SaveSkipsWhenClean(t *testing.T) {
	tmpDir := t.TempDir()
	c := newCache(tmpDir, ".cache")

	if err := c.Save(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, ".cache", "index.json")); !os.IsNotExist(err) {
		t.Errorf("expected no index file for a clean cache, got %v", err)
	}
}
