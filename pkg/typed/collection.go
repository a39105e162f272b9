package typed

import (
	"context"

	"github.com/aretw0/budgetry/pkg/core"
)

// Collection is the typed counterpart of core.Collection. IDs are local to the collection path.
type Collection[T any] struct {
	col *core.Collection
}

// NewCollection wraps a path-scoped collection.
func NewCollection[T any](col *core.Collection) *Collection[T] {
	return &Collection[T]{col: col}
}

// Tx returns a copy of the collection that reads and writes through tx.
func (c *Collection[T]) Tx(tx core.Transaction) *Collection[T] {
	return &Collection[T]{col: c.col.Tx(tx)}
}

// Path returns the underlying collection path.
func (c *Collection[T]) Path() string {
	return c.col.Path()
}

// GetByID returns the document stored under id, or nil when absent.
func (c *Collection[T]) GetByID(ctx context.Context, id string) (*DocumentModel[T], error) {
	doc, err := c.col.GetDocByID(ctx, id)
	if err != nil || doc == nil {
		return nil, err
	}
	return fromCore[T](*doc)
}

// Create stores doc under doc.ID and fails with core.ErrAlreadyExists if present.
func (c *Collection[T]) Create(ctx context.Context, doc *DocumentModel[T]) error {
	coreDoc, err := toCore(doc)
	if err != nil {
		return err
	}
	return c.col.Create(ctx, coreDoc, doc.ID)
}

// Put stores doc under doc.ID, replacing any existing document.
func (c *Collection[T]) Put(ctx context.Context, doc *DocumentModel[T]) error {
	coreDoc, err := toCore(doc)
	if err != nil {
		return err
	}
	return c.col.Put(ctx, coreDoc, doc.ID)
}

// List decodes the direct children of the collection.
func (c *Collection[T]) List(ctx context.Context) ([]*DocumentModel[T], error) {
	docs, err := c.col.List(ctx)
	if err != nil {
		return nil, err
	}
	return fromCoreAll[T](docs)
}
