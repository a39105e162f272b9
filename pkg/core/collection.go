package core

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// Collection is a view of a Repository scoped to a hierarchical path,
// e.g. "orgs/org_1/budgets". Document IDs passed to and returned by a
// Collection are local to that path.
type Collection struct {
	repo Repository
	rw   readWriter
	path string
}

// readWriter is the part of Repository that a Transaction also provides.
type readWriter interface {
	Get(ctx context.Context, id string) (Document, error)
	Save(ctx context.Context, doc Document) error
}

// NewCollection scopes repo to the path formed by joining segments.
func NewCollection(repo Repository, segments ...string) *Collection {
	return &Collection{repo: repo, rw: repo, path: path.Join(segments...)}
}

// Tx returns a copy of the collection whose reads and writes go through tx.
// List still reads committed documents from the repository.
func (c *Collection) Tx(tx Transaction) *Collection {
	return &Collection{repo: c.repo, rw: tx, path: c.path}
}

// Path returns the collection path.
func (c *Collection) Path() string {
	return c.path
}

// Sub returns the collection nested under document id, e.g.
// NewCollection(repo, "orgs", "o", "budgets").Sub("b", "notes").
func (c *Collection) Sub(id string, segments ...string) *Collection {
	return &Collection{repo: c.repo, rw: c.rw, path: path.Join(append([]string{c.path, id}, segments...)...)}
}

// DocID returns the repository-wide ID of a local id.
func (c *Collection) DocID(id string) string {
	return path.Join(c.path, id)
}

func validateLocalID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidID)
	}
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	// Adapters may read an extension as a storage format, so local ids carry none.
	if path.Ext(id) != "" {
		return fmt.Errorf("%w: %q has an extension", ErrInvalidID, id)
	}
	return nil
}

// GetDocByID returns the document stored under id, or nil when it does not exist.
func (c *Collection) GetDocByID(ctx context.Context, id string) (*Document, error) {
	if err := validateLocalID(id); err != nil {
		return nil, err
	}

	doc, err := c.rw.Get(ctx, c.DocID(id))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s: %w", c.DocID(id), err)
	}

	doc.ID = id
	return &doc, nil
}

// Create stores doc under id. It refuses to overwrite an existing document.
func (c *Collection) Create(ctx context.Context, doc Document, id string) error {
	if err := validateLocalID(id); err != nil {
		return err
	}

	fullID := c.DocID(id)
	if _, err := c.rw.Get(ctx, fullID); err == nil {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, fullID)
	} else if !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("check %s: %w", fullID, err)
	}

	doc.ID = fullID
	return c.rw.Save(ctx, doc)
}

// Put stores doc under id, replacing any existing document.
func (c *Collection) Put(ctx context.Context, doc Document, id string) error {
	if err := validateLocalID(id); err != nil {
		return err
	}
	doc.ID = c.DocID(id)
	return c.rw.Save(ctx, doc)
}

// List returns the documents that are direct children of the collection path.
func (c *Collection) List(ctx context.Context) ([]Document, error) {
	all, err := c.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	prefix := c.path + "/"
	var docs []Document
	for _, d := range all {
		rest, ok := strings.CutPrefix(d.ID, prefix)
		if !ok || rest == "" || strings.Contains(rest, "/") {
			continue
		}
		d.ID = rest
		docs = append(docs, d)
	}
	return docs, nil
}
