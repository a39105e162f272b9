package platform

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/budgetry/pkg/adapters/fs"
	"github.com/aretw0/budgetry/pkg/adapters/sqlite"
	"github.com/aretw0/budgetry/pkg/core"
)

// DatabaseFile is the SQLite file created inside a vault directory.
const DatabaseFile = "budgetry.db"

// Init opens and initializes the repository selected by opts.
// uri is a vault directory for "fs", and a database file or vault directory for "sqlite".
func Init(uri string, opts ...Option) (core.Repository, error) {
	o := buildOptions(opts)

	if o.repository != nil {
		return o.repository, nil
	}

	var repo core.Repository
	switch o.adapter {
	case AdapterFS:
		r, err := initFS(uri, o)
		if err != nil {
			return nil, err
		}
		repo = r
	case AdapterSQLite:
		r, err := initSQLite(uri, o)
		if err != nil {
			return nil, err
		}
		repo = r
	default:
		return nil, fmt.Errorf("unknown adapter: %s", o.adapter)
	}

	if err := repo.Initialize(context.Background()); err != nil {
		return nil, err
	}
	return repo, nil
}

// resolvePath applies the dev sandbox unless the caller opted out or is read-only.
func resolvePath(uri string, o *options) string {
	bypass := o.readOnly || !o.devSafety
	useTemp := o.forceTemp || (IsDevRun() && !bypass)
	resolved := ResolveVaultPath(uri, useTemp)

	if useTemp && resolved != filepath.Clean(uri) {
		o.logger.Warn("running in SAFE MODE (dev sandbox)", "original_path", uri, "resolved_path", resolved)
	}
	return resolved
}

func initFS(uri string, o *options) (*fs.Repository, error) {
	resolved := resolvePath(uri, o)

	repo := fs.NewRepository(fs.Config{
		Path:         resolved,
		AutoInit:     o.autoInit,
		MustExist:    o.mustExist || !o.autoInit,
		ReadOnly:     o.readOnly,
		Strict:       o.strict,
		Logger:       o.logger,
		SystemDir:    o.systemDir,
		ErrorHandler: o.errorHandler,
	})
	for ext, s := range o.serializers {
		if s == nil {
			return nil, fmt.Errorf("serializer for %s is nil", ext)
		}
		repo.RegisterSerializer(ext, s)
	}
	return repo, nil
}

func initSQLite(uri string, o *options) (*sqlite.Repository, error) {
	resolved := resolvePath(uri, o)
	if info, err := os.Stat(resolved); (err == nil && info.IsDir()) || filepath.Ext(resolved) == "" {
		resolved = filepath.Join(resolved, DatabaseFile)
	}
	if o.mustExist || !o.autoInit {
		if _, err := os.Stat(resolved); err != nil {
			return nil, fmt.Errorf("database %s does not exist: %w", resolved, err)
		}
	}

	return sqlite.NewRepository(sqlite.Config{
		Path:        resolved,
		ReadOnly:    o.readOnly,
		Logger:      o.logger.With(slog.String("adapter", AdapterSQLite)),
		EventBuffer: o.eventBuffer,
	}), nil
}
