package core

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/aretw0/lifecycle"
)

// DefaultEventBuffer is the buffer size used by Service.Watch when none is configured.
const DefaultEventBuffer = 100

// Service handles the business logic for documents.
type Service struct {
	repo            Repository
	logger          *slog.Logger
	eventBufferSize int
	mu              sync.RWMutex
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceLogger sets the logger used for watch diagnostics.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithEventBuffer sets the size of the buffer between the repository watcher and consumers.
// Zero or negative values keep DefaultEventBuffer.
func WithEventBuffer(size int) ServiceOption {
	return func(s *Service) {
		if size > 0 {
			s.eventBufferSize = size
		}
	}
}

// NewService creates a new Service.
func NewService(repo Repository, opts ...ServiceOption) *Service {
	s := &Service{repo: repo, eventBufferSize: DefaultEventBuffer}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Repository returns the repository backing the service.
func (s *Service) Repository() Repository {
	return s.repo
}

// SaveDocument saves a document with business validation.
func (s *Service) SaveDocument(ctx context.Context, id string, content string, metadata Metadata) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("document ID cannot be empty")
	}

	doc := Document{
		ID:       id,
		Content:  content,
		Metadata: metadata,
	}

	return s.repo.Save(ctx, doc)
}

// GetDocument retrieves a document.
func (s *Service) GetDocument(ctx context.Context, id string) (Document, error) {
	if strings.TrimSpace(id) == "" {
		return Document{}, errors.New("document ID cannot be empty")
	}
	return s.repo.Get(ctx, id)
}

// ListDocuments retrieves all documents.
func (s *Service) ListDocuments(ctx context.Context) ([]Document, error) {
	return s.repo.List(ctx)
}

// DeleteDocument removes a document.
func (s *Service) DeleteDocument(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("document ID cannot be empty")
	}
	return s.repo.Delete(ctx, id)
}

// WithTransaction executes a function within a transaction.
// The change reason is read from ChangeReasonKey when present.
func (s *Service) WithTransaction(ctx context.Context, fn func(tx Transaction) error) error {
	tx, err := s.Begin(ctx)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	msg := "batch transaction"
	if val, ok := ctx.Value(ChangeReasonKey).(string); ok && val != "" {
		msg = val
	}
	return tx.Commit(ctx, msg)
}

// Begin initiates a transaction manually.
func (s *Service) Begin(ctx context.Context) (Transaction, error) {
	tr, ok := s.repo.(Transactional)
	if !ok {
		return nil, ErrNotTransactional
	}
	return tr.Begin(ctx)
}

// Watch observes changes in the repository if supported.
// Events are relayed through a buffered channel so a slow consumer never
// blocks the repository watcher. The channel closes when ctx is done.
func (s *Service) Watch(ctx context.Context, pattern string) (<-chan Event, error) {
	w, ok := s.repo.(Watchable)
	if !ok {
		return nil, ErrNotWatchable
	}

	upstream, err := w.Watch(ctx, pattern)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	out := make(chan Event, s.eventBufferSize)
	s.mu.RUnlock()

	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-upstream:
				if !ok {
					return nil
				}
				select {
				case out <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	}, lifecycle.WithErrorHandler(func(err error) {
		if s.logger != nil {
			s.logger.Error("event relay stopped", "pattern", pattern, "error", err)
		}
	}))

	return out, nil
}
