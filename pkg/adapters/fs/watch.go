package fs

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/budgetry/pkg/core"
)

// Watch streams change events for documents whose ID matches pattern
// (a doublestar glob; "" matches everything). The channel closes when ctx is done.
//
// Directories created after Watch starts are added to the watcher, and any
// documents already inside them are reported as CREATE so writes racing the
// directory registration are not lost.
func (r *Repository) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	if pattern != "" && !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid watch pattern %q", pattern)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if _, err := r.addRecursive(watcher, r.Path); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	events := make(chan core.Event)
	r.setWatcher(+1)

	emit := func(ctx context.Context, e core.Event) bool {
		if !matchID(pattern, e.ID) {
			return true
		}
		select {
		case events <- e:
			return true
		case <-ctx.Done():
			return false
		}
	}

	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(events)
		defer r.setWatcher(-1)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return nil

			case ev, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if ev.Has(fsnotify.Create) && r.isWatchableDir(ev.Name) {
					found, err := r.addRecursive(watcher, ev.Name)
					if err != nil {
						r.reportWatchError(err)
					}
					for _, id := range found {
						if !emit(ctx, core.Event{Type: core.EventCreate, ID: id, Timestamp: time.Now().Unix()}) {
							return nil
						}
					}
					continue
				}
				e, ok := r.toEvent(ev)
				if !ok {
					continue
				}
				if !emit(ctx, e) {
					return nil
				}

			case werr, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				r.reportWatchError(werr)
			}
		}
	}, lifecycle.WithErrorHandler(func(err error) {
		r.reportWatchError(fmt.Errorf("watcher stopped: %w", err))
	}))

	return events, nil
}

func matchID(pattern, id string) bool {
	if pattern == "" {
		return true
	}
	ok, err := doublestar.Match(pattern, id)
	return err == nil && ok
}

func (r *Repository) isWatchableDir(name string) bool {
	info, err := os.Stat(name)
	if err != nil || !info.IsDir() {
		return false
	}
	base := filepath.Base(name)
	return base != ".git" && base != r.config.SystemDir
}

// addRecursive registers root and its subdirectories with the watcher and
// returns the IDs of documents found along the way (excluding the vault root walk).
func (r *Repository) addRecursive(watcher *fsnotify.Watcher, root string) ([]string, error) {
	var found []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != r.Path && (d.Name() == ".git" || d.Name() == r.config.SystemDir) {
				return filepath.SkipDir
			}
			if err := watcher.Add(p); err != nil {
				return fmt.Errorf("watch %s: %w", p, err)
			}
			return nil
		}
		if root == r.Path {
			return nil
		}
		if id, ok := r.idForPath(p); ok {
			found = append(found, id)
		}
		return nil
	})
	return found, err
}

func (r *Repository) idForPath(name string) (string, bool) {
	if isTempFile(name) {
		return "", false
	}
	if _, ok := r.serializerFor(filepath.Ext(name)); !ok {
		return "", false
	}
	rel, err := filepath.Rel(r.Path, name)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	if first, _, _ := strings.Cut(rel, "/"); first == r.config.SystemDir || first == ".git" {
		return "", false
	}
	return idFromRel(rel), true
}

// toEvent maps a raw fsnotify event onto a document event.
func (r *Repository) toEvent(ev fsnotify.Event) (core.Event, bool) {
	id, ok := r.idForPath(ev.Name)
	if !ok {
		return core.Event{}, false
	}

	var t core.EventType
	switch {
	case ev.Has(fsnotify.Create):
		t = core.EventCreate
	case ev.Has(fsnotify.Write):
		t = core.EventModify
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		t = core.EventDelete
	default:
		return core.Event{}, false
	}
	return core.Event{Type: t, ID: id, Timestamp: time.Now().Unix()}, true
}

func (r *Repository) reportWatchError(err error) {
	r.mu.Lock()
	now := time.Now()
	r.lastWatchErr = err.Error()
	r.lastWatchTime = &now
	r.mu.Unlock()

	r.config.Logger.Error("watcher error", "error", err)
	if r.config.ErrorHandler != nil {
		r.config.ErrorHandler(err)
	}
}

func (r *Repository) setWatcher(delta int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watchers += delta
}
