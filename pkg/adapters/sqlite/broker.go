package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/lifecycle"
	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/budgetry/pkg/core"
)

// broker fans out write events to in-process watchers. SQLite has no change
// feed, so only writes made through this Repository are observed.
type broker struct {
	buffer int
	logger *slog.Logger

	mu      sync.Mutex
	next    int
	subs    map[int]*subscription
	dropped int
}

type subscription struct {
	pattern string
	ch      chan core.Event
}

func newBroker(buffer int, logger *slog.Logger) *broker {
	return &broker{
		buffer: buffer,
		logger: logger,
		subs:   make(map[int]*subscription),
	}
}

func (b *broker) watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	if pattern != "" && !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid watch pattern %q", pattern)
	}

	b.mu.Lock()
	id := b.next
	b.next++
	sub := &subscription{pattern: pattern, ch: make(chan core.Event, b.buffer)}
	b.subs[id] = sub
	b.mu.Unlock()

	lifecycle.Go(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		b.unsubscribe(id)
		return nil
	})

	return sub.ch, nil
}

func (b *broker) unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if sub, ok := b.subs[id]; ok {
		close(sub.ch)
		delete(b.subs, id)
	}
}

// publish never blocks writers; a full subscriber loses the event.
func (b *broker) publish(e core.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subs {
		if sub.pattern != "" {
			if ok, err := doublestar.Match(sub.pattern, e.ID); err != nil || !ok {
				continue
			}
		}
		select {
		case sub.ch <- e:
		default:
			b.dropped++
			b.logger.Warn("watch buffer full, dropping event", "id", e.ID, "type", e.Type)
		}
	}
}

func (b *broker) stats() (subscribers, dropped int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs), b.dropped
}
