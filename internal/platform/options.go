package platform

import (
	"log/slog"

	"github.com/aretw0/budgetry/pkg/adapters/fs"
	"github.com/aretw0/budgetry/pkg/core"
)

// Adapter names accepted by WithAdapter.
const (
	AdapterFS     = "fs"
	AdapterSQLite = "sqlite"
)

// options holds the internal configuration for opening a store.
type options struct {
	repository   core.Repository
	logger       *slog.Logger
	adapter      string
	autoInit     bool
	mustExist    bool
	readOnly     bool
	strict       bool
	forceTemp    bool
	devSafety    bool
	systemDir    string
	eventBuffer  int
	errorHandler func(error)
	serializers  map[string]fs.Serializer
}

// Option defines a functional option for configuring the store.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		adapter:     AdapterFS,
		autoInit:    true,
		devSafety:   true,
		serializers: make(map[string]fs.Serializer),
	}
}

func buildOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// WithRepository injects a ready repository; adapter selection is skipped.
func WithRepository(repo core.Repository) Option {
	return func(o *options) {
		o.repository = repo
	}
}

// WithAdapter selects the storage adapter by name ("fs" or "sqlite"). Defaults to "fs".
func WithAdapter(name string) Option {
	return func(o *options) {
		if name != "" {
			o.adapter = name
		}
	}
}

// WithLogger sets the logger for the store and the service.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithAutoInit controls whether a missing vault is created. Defaults to true.
func WithAutoInit(auto bool) Option {
	return func(o *options) {
		o.autoInit = auto
	}
}

// WithMustExist fails Open when the vault does not exist yet.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.mustExist = must
	}
}

// WithReadOnly refuses every write. The dev sandbox is bypassed in this mode.
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.readOnly = enabled
	}
}

// WithStrict decodes numbers as json.Number in the filesystem adapter.
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

// WithSystemDir sets the hidden directory name (e.g. ".budgetry").
func WithSystemDir(name string) Option {
	return func(o *options) {
		o.systemDir = name
	}
}

// WithEventBuffer sizes the service's watch buffer. Zero means default.
func WithEventBuffer(size int) Option {
	return func(o *options) {
		o.eventBuffer = size
	}
}

// WithSerializer registers a filesystem serializer for ext.
func WithSerializer(ext string, s fs.Serializer) Option {
	return func(o *options) {
		o.serializers[ext] = s
	}
}

// WithWatcherErrorHandler receives runtime watcher failures.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.errorHandler = fn
	}
}

// WithForceTemp re-roots the vault into the temporary directory.
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.forceTemp = force
	}
}

// WithDevSafety controls the sandbox applied under `go run` and `go test`.
// Defaults to true.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.devSafety = enabled
	}
}

// LoggerFrom returns the logger configured by opts, or a discarding one.
func LoggerFrom(opts ...Option) *slog.Logger {
	return buildOptions(opts).logger
}
