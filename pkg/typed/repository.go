// Package typed maps struct types onto document metadata.
//
// Conversion goes through encoding/json, so the struct's json tags define the
// metadata keys stored by every adapter.
package typed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/budgetry/pkg/core"
)

// DocumentModel is a typed view of a core.Document.
type DocumentModel[T any] struct {
	ID      string
	Content string
	Data    T
}

// Repository wraps a core.Repository to provide type-safe access.
type Repository[T any] struct {
	repo core.Repository
}

// NewRepository creates a new type-safe wrapper around an existing repository.
func NewRepository[T any](repo core.Repository) *Repository[T] {
	return &Repository[T]{repo: repo}
}

// Save persists a typed document.
func (r *Repository[T]) Save(ctx context.Context, doc *DocumentModel[T]) error {
	coreDoc, err := toCore(doc)
	if err != nil {
		return err
	}
	return r.repo.Save(ctx, coreDoc)
}

// Get retrieves a document and decodes it. Missing documents wrap core.ErrNotFound.
func (r *Repository[T]) Get(ctx context.Context, id string) (*DocumentModel[T], error) {
	coreDoc, err := r.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return fromCore[T](coreDoc)
}

// List returns all documents converted to the typed model.
func (r *Repository[T]) List(ctx context.Context) ([]*DocumentModel[T], error) {
	coreDocs, err := r.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return fromCoreAll[T](coreDocs)
}

// Delete removes a document by ID.
func (r *Repository[T]) Delete(ctx context.Context, id string) error {
	return r.repo.Delete(ctx, id)
}

// ToMetadata converts a struct into document metadata using its json tags.
func ToMetadata(v any) (core.Metadata, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal typed data: %w", err)
	}
	var metadata core.Metadata
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return nil, fmt.Errorf("failed to convert typed data to map: %w", err)
	}
	return metadata, nil
}

// FromMetadata decodes document metadata into T.
func FromMetadata[T any](metadata core.Metadata) (T, error) {
	var data T
	raw, err := json.Marshal(metadata)
	if err != nil {
		return data, fmt.Errorf("metadata marshal failed: %w", err)
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return data, fmt.Errorf("unmarshal to target type failed: %w", err)
	}
	return data, nil
}

func toCore[T any](doc *DocumentModel[T]) (core.Document, error) {
	metadata, err := ToMetadata(doc.Data)
	if err != nil {
		return core.Document{}, err
	}
	return core.Document{ID: doc.ID, Content: doc.Content, Metadata: metadata}, nil
}

func fromCore[T any](coreDoc core.Document) (*DocumentModel[T], error) {
	data, err := FromMetadata[T](coreDoc.Metadata)
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", coreDoc.ID, err)
	}
	return &DocumentModel[T]{ID: coreDoc.ID, Content: coreDoc.Content, Data: data}, nil
}

func fromCoreAll[T any](docs []core.Document) ([]*DocumentModel[T], error) {
	result := make([]*DocumentModel[T], 0, len(docs))
	for _, d := range docs {
		model, err := fromCore[T](d)
		if err != nil {
			return nil, err
		}
		result = append(result, model)
	}
	return result, nil
}
