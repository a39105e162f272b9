package lifecycle_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/budgetry/pkg/adapters/lifecycle"
	"github.com/aretw0/budgetry/pkg/core"
)

func TestSource_ForwardsMatchingEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan core.Event, 3)
	in <- core.Event{Type: core.EventCreate, ID: "orgs/org_a/budgets/b1"}
	in <- core.Event{Type: core.EventCreate, ID: "orgs/org_a/budgets/b1/notes/n1"}
	in <- core.Event{Type: core.EventDelete, ID: "orgs/org_a/budgets/b2"}
	close(in)

	src := lifecycle.NewSource(in, lifecycle.WithPattern("orgs/*/budgets/*"))
	require.NoError(t, src.Start(ctx))

	var got []core.Event
	timeout := time.After(2 * time.Second)
	for done := false; !done; {
		select {
		case e, ok := <-src.Events():
			if !ok {
				done = true
				continue
			}
			got = append(got, e.(core.Event))
		case <-timeout:
			t.Fatal("source did not close")
		}
	}

	require.Len(t, got, 2)
	assert.Equal(t, "orgs/org_a/budgets/b1", got[0].ID)
	assert.Equal(t, core.EventDelete, got[1].Type)
}

func TestSource_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan core.Event)

	src := lifecycle.NewSource(in)
	require.NoError(t, src.Start(ctx))
	cancel()

	select {
	case _, ok := <-src.Events():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("source did not stop")
	}
}

func TestSource_BadPattern(t *testing.T) {
	src := lifecycle.NewSource(make(chan core.Event), lifecycle.WithPattern("orgs/[a"))
	assert.Error(t, src.Start(context.Background()))
}
