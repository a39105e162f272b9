// Package lifecycle exposes store change events as a lifecycle.Source.
package lifecycle

import (
	"context"

	"github.com/aretw0/lifecycle"
	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/budgetry/pkg/core"
)

type storeSource struct {
	events  <-chan core.Event
	out     chan lifecycle.Event
	pattern string
}

// SourceOption configures a store source.
type SourceOption func(*storeSource)

// WithPattern forwards only events whose ID matches the doublestar pattern.
func WithPattern(pattern string) SourceOption {
	return func(s *storeSource) {
		s.pattern = pattern
	}
}

// NewSource adapts a store event channel to lifecycle.Source.
// The output channel closes when the input closes or the context passed to Start ends.
func NewSource(events <-chan core.Event, opts ...SourceOption) lifecycle.Source {
	s := &storeSource{
		events: events,
		out:    make(chan lifecycle.Event),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *storeSource) Events() <-chan lifecycle.Event {
	return s.out
}

func (s *storeSource) keep(e core.Event) bool {
	if s.pattern == "" {
		return true
	}
	ok, err := doublestar.Match(s.pattern, e.ID)
	return err == nil && ok
}

func (s *storeSource) Start(ctx context.Context) error {
	if s.pattern != "" && !doublestar.ValidatePattern(s.pattern) {
		close(s.out)
		return doublestar.ErrBadPattern
	}

	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-s.events:
				if !ok {
					return nil
				}
				if !s.keep(e) {
					continue
				}
				select {
				case s.out <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}
