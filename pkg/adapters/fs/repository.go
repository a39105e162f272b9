// Package fs stores documents as files under a vault directory.
//
// A document ID maps to a relative path; IDs without a known extension are
// written with the default extension (Markdown with YAML frontmatter).
package fs

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/budgetry/pkg/core"
)

// DefaultSystemDir is the hidden directory holding the metadata index.
const DefaultSystemDir = ".budgetry"

// DefaultExt is used for IDs that carry no registered extension.
const DefaultExt = ".md"

// Config holds the configuration for the filesystem repository.
type Config struct {
	Path      string
	AutoInit  bool
	MustExist bool
	ReadOnly  bool
	Strict    bool
	Logger    *slog.Logger
	SystemDir string // e.g. ".budgetry"

	// ErrorHandler receives runtime watcher failures that are otherwise only logged.
	ErrorHandler func(error)
}

// Repository implements core.Repository on the filesystem.
type Repository struct {
	Path string

	config      Config
	cache       *cache
	serializers map[string]Serializer
	readOnly    bool

	mu            sync.RWMutex
	watchers      int
	lastWatchErr  string
	lastWatchTime *time.Time
}

// NewRepository creates a new filesystem-backed repository.
func NewRepository(config Config) *Repository {
	if config.SystemDir == "" {
		config.SystemDir = DefaultSystemDir
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	return &Repository{
		Path:        config.Path,
		config:      config,
		cache:       newCache(config.Path, config.SystemDir),
		serializers: DefaultSerializers(config.Strict),
		readOnly:    config.ReadOnly,
	}
}

// RegisterSerializer adds or replaces the serializer for ext (".toml", ".json", ...).
func (r *Repository) RegisterSerializer(ext string, s Serializer) {
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.serializers[ext] = s
}

func (r *Repository) serializerFor(ext string) (Serializer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.serializers[ext]
	return s, ok
}

// Initialize creates the vault directory (unless MustExist) and verifies it.
func (r *Repository) Initialize(ctx context.Context) error {
	if r.config.MustExist || r.readOnly {
		info, err := os.Stat(r.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("vault path does not exist: %s", r.Path)
		}
		if err != nil {
			return fmt.Errorf("stat vault path: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("vault path is not a directory: %s", r.Path)
		}
		return nil
	}

	if err := os.MkdirAll(r.Path, 0755); err != nil {
		return fmt.Errorf("failed to create vault directory: %w", err)
	}
	r.config.Logger.Debug("vault ready", "path", r.Path)
	return nil
}

// Begin starts a new transaction.
func (r *Repository) Begin(ctx context.Context) (core.Transaction, error) {
	if r.readOnly {
		return nil, core.ErrReadOnly
	}
	return NewTransaction(r), nil
}

// resolve maps a document ID to its relative filename and extension.
func (r *Repository) resolve(id string) (relPath, ext string, err error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "", fmt.Errorf("%w: empty", core.ErrInvalidID)
	}
	clean := path.Clean("/" + filepath.ToSlash(id))[1:]
	if clean != filepath.ToSlash(id) || strings.HasPrefix(clean, r.config.SystemDir) {
		return "", "", fmt.Errorf("%w: %q", core.ErrInvalidID, id)
	}

	ext = path.Ext(clean)
	if _, ok := r.serializerFor(ext); ok {
		return clean, ext, nil
	}
	return clean + DefaultExt, DefaultExt, nil
}

// idFromRel is the inverse of resolve: default-extension files lose their extension.
func idFromRel(relPath string) string {
	if strings.HasSuffix(relPath, DefaultExt) {
		return strings.TrimSuffix(relPath, DefaultExt)
	}
	return relPath
}

// Save serializes doc and writes it atomically, creating parent directories.
func (r *Repository) Save(ctx context.Context, doc core.Document) error {
	if r.readOnly {
		return core.ErrReadOnly
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	relPath, ext, err := r.resolve(doc.ID)
	if err != nil {
		return err
	}
	if err := r.writeDocument(relPath, ext, doc); err != nil {
		return err
	}

	if reason, ok := ctx.Value(core.ChangeReasonKey).(string); ok && reason != "" {
		r.config.Logger.Info("document saved", "id", doc.ID, "reason", reason)
	} else {
		r.config.Logger.Debug("document saved", "id", doc.ID)
	}

	if err := r.cache.Save(); err != nil {
		r.config.Logger.Warn("failed to persist index", "error", err)
	}
	return nil
}

// writeDocument writes one file and refreshes its cache entry.
func (r *Repository) writeDocument(relPath, ext string, doc core.Document) error {
	serializer, _ := r.serializerFor(ext)

	fullPath := filepath.Join(r.Path, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	data, err := serializer.Serialize(doc)
	if err != nil {
		return fmt.Errorf("failed to serialize document %s: %w", doc.ID, err)
	}
	if err := writeFileAtomic(fullPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	if info, err := os.Stat(fullPath); err == nil {
		r.cache.Set(relPath, &indexEntry{
			ID:           idFromRel(relPath),
			Content:      doc.Content,
			Metadata:     doc.Metadata,
			LastModified: info.ModTime(),
		})
	}
	return nil
}

// Get reads and parses the document stored under id.
func (r *Repository) Get(ctx context.Context, id string) (core.Document, error) {
	if err := ctx.Err(); err != nil {
		return core.Document{}, err
	}

	relPath, ext, err := r.resolve(id)
	if err != nil {
		return core.Document{}, err
	}
	return r.readDocument(relPath, ext)
}

func (r *Repository) readDocument(relPath, ext string) (core.Document, error) {
	fullPath := filepath.Join(r.Path, filepath.FromSlash(relPath))
	f, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return core.Document{}, fmt.Errorf("%w: %s", core.ErrNotFound, idFromRel(relPath))
		}
		return core.Document{}, err
	}
	defer f.Close()

	serializer, ok := r.serializerFor(ext)
	if !ok {
		return core.Document{}, fmt.Errorf("no serializer for %s", ext)
	}

	doc, err := serializer.Parse(f)
	if err != nil {
		return core.Document{}, fmt.Errorf("failed to parse document %s: %w", relPath, err)
	}
	doc.ID = idFromRel(relPath)
	return *doc, nil
}

// List walks the vault and returns every parseable document.
//
// Strategy:
//  1. Load the index cache.
//  2. Walk the tree, skipping the system dir, .git and temp files.
//  3. Reuse cached entries whose mtime is unchanged; parse the rest.
//  4. Prune vanished entries and persist the index.
func (r *Repository) List(ctx context.Context) ([]core.Document, error) {
	if err := r.cache.Load(); err != nil {
		r.config.Logger.Warn("index unreadable, rebuilding", "error", err)
	}

	var docs []core.Document
	seen := make(map[string]bool)

	err := filepath.WalkDir(r.Path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if p != r.Path && (d.Name() == ".git" || d.Name() == r.config.SystemDir) {
				return filepath.SkipDir
			}
			return nil
		}
		if isTempFile(d.Name()) {
			return nil
		}

		ext := filepath.Ext(d.Name())
		if _, ok := r.serializerFor(ext); !ok {
			return nil
		}

		rel, err := filepath.Rel(r.Path, p)
		if err != nil {
			return err
		}
		relPath := filepath.ToSlash(rel)

		info, err := d.Info()
		if err != nil {
			return nil
		}
		seen[relPath] = true

		if entry, hit := r.cache.Get(relPath, info.ModTime()); hit {
			docs = append(docs, core.Document{
				ID:       entry.ID,
				Content:  entry.Content,
				Metadata: entry.Metadata,
			})
			return nil
		}

		doc, err := r.readDocument(relPath, ext)
		if err != nil {
			r.config.Logger.Warn("skipping unparseable document", "path", relPath, "error", err)
			return nil
		}

		r.cache.Set(relPath, &indexEntry{
			ID:           doc.ID,
			Content:      doc.Content,
			Metadata:     doc.Metadata,
			LastModified: info.ModTime(),
		})
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.cache.Prune(seen)
	if !r.readOnly {
		if err := r.cache.Save(); err != nil {
			r.config.Logger.Warn("failed to persist index", "error", err)
		}
	}

	return docs, nil
}

// Delete removes the document stored under id.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if r.readOnly {
		return core.ErrReadOnly
	}

	relPath, _, err := r.resolve(id)
	if err != nil {
		return err
	}
	if err := r.removeDocument(relPath); err != nil {
		return err
	}
	if err := r.cache.Save(); err != nil {
		r.config.Logger.Warn("failed to persist index", "error", err)
	}
	return nil
}

func (r *Repository) removeDocument(relPath string) error {
	fullPath := filepath.Join(r.Path, filepath.FromSlash(relPath))
	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", core.ErrNotFound, idFromRel(relPath))
		}
		return fmt.Errorf("failed to remove file: %w", err)
	}
	r.cache.Delete(relPath)
	return nil
}

var (
	_ core.Repository    = (*Repository)(nil)
	_ core.Transactional = (*Repository)(nil)
	_ core.Watchable     = (*Repository)(nil)
)
