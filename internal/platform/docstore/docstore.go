// Package docstore is the document database collaborator. Domain
// repositories hold a typed Collection; the backing engine (MongoDB,
// PostgreSQL JSONB or memory) is chosen once at startup.
//
// Documents are addressed by a string id and filtered by top-level field
// equality. Field names are the JSON names of the stored struct; the Mongo
// backend maps "id" to "_id".
package docstore

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("docstore: document not found")
	ErrDuplicateID = errors.New("docstore: duplicate document id")
)

// Filter is a set of top-level field equality conditions, AND-ed together.
// A nil or empty Filter matches every document.
type Filter map[string]any

// Store owns the connection to a document engine.
type Store interface {
	Driver() string
	Ping(ctx context.Context) error
	Close(ctx context.Context) error

	collection(name string) backend
}

// backend is the untyped per-collection contract each engine implements.
// out is always a pointer to a struct or to a slice of structs.
type backend interface {
	findAll(ctx context.Context, out any) error
	find(ctx context.Context, f Filter, out any) error
	findByID(ctx context.Context, id string, out any) error
	insert(ctx context.Context, id string, doc any) error
	replace(ctx context.Context, id string, doc any) error
	delete(ctx context.Context, id string) (bool, error)
	count(ctx context.Context, f Filter) (int64, error)
}

// Collection is a typed view of one named collection.
type Collection[T any] struct {
	name string
	b    backend
}

func NewCollection[T any](s Store, name string) *Collection[T] {
	return &Collection[T]{name: name, b: s.collection(name)}
}

func (c *Collection[T]) Name() string { return c.name }

func (c *Collection[T]) FindAll(ctx context.Context) ([]T, error) {
	out := []T{}
	if err := c.b.findAll(ctx, &out); err != nil {
		return nil, fmt.Errorf("%s find all: %w", c.name, err)
	}
	return out, nil
}

func (c *Collection[T]) Find(ctx context.Context, f Filter) ([]T, error) {
	out := []T{}
	if err := c.b.find(ctx, f, &out); err != nil {
		return nil, fmt.Errorf("%s find: %w", c.name, err)
	}
	return out, nil
}

// FindOne returns the first document matching f, or ErrNotFound.
func (c *Collection[T]) FindOne(ctx context.Context, f Filter) (*T, error) {
	items, err := c.Find(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	return &items[0], nil
}

func (c *Collection[T]) FindByID(ctx context.Context, id string) (*T, error) {
	var out T
	if err := c.b.findByID(ctx, id, &out); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%s find %s: %w", c.name, id, err)
	}
	return &out, nil
}

func (c *Collection[T]) Insert(ctx context.Context, id string, doc *T) error {
	if err := c.b.insert(ctx, id, doc); err != nil {
		if errors.Is(err, ErrDuplicateID) {
			return ErrDuplicateID
		}
		return fmt.Errorf("%s insert %s: %w", c.name, id, err)
	}
	return nil
}

func (c *Collection[T]) Replace(ctx context.Context, id string, doc *T) error {
	if err := c.b.replace(ctx, id, doc); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("%s replace %s: %w", c.name, id, err)
	}
	return nil
}

// Delete removes the document and reports whether it existed.
func (c *Collection[T]) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := c.b.delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("%s delete %s: %w", c.name, id, err)
	}
	return ok, nil
}

func (c *Collection[T]) Count(ctx context.Context, f Filter) (int64, error) {
	n, err := c.b.count(ctx, f)
	if err != nil {
		return 0, fmt.Errorf("%s count: %w", c.name, err)
	}
	return n, nil
}

// Exists reports whether any document matches f.
func (c *Collection[T]) Exists(ctx context.Context, f Filter) (bool, error) {
	n, err := c.Count(ctx, f)
	return n > 0, err
}
