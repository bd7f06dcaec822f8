package firestore

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
)

// Codec converts between a domain value and its stored document. Encode may
// be nil for read-only collections.
type Codec[T any] struct {
	Encode func(T) (any, error)
	Decode func(*firestore.DocumentSnapshot) (T, error)
}

// Collection gives typed access to one Firestore collection.
type Collection[T any] struct {
	provider *Provider
	name     string
	codec    Codec[T]
}

// NewCollection binds a typed collection to provider.
func NewCollection[T any](provider *Provider, name string, codec Codec[T]) *Collection[T] {
	if codec.Decode == nil {
		codec.Decode = func(snap *firestore.DocumentSnapshot) (T, error) {
			var v T
			err := snap.DataTo(&v)
			return v, err
		}
	}
	return &Collection[T]{provider: provider, name: strings.TrimSpace(name), codec: codec}
}

// Name returns the collection name.
func (c *Collection[T]) Name() string { return c.name }

// Ping checks that the collection can be read.
func (c *Collection[T]) Ping(ctx context.Context) error {
	if _, err := c.client(ctx, "ping"); err != nil {
		return err
	}
	return c.provider.Ping(ctx, c.name)
}

// Get decodes the document with the given id.
func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	ref, err := c.doc(ctx, "get", id)
	if err != nil {
		return zero, err
	}
	snap, err := ref.Get(ctx)
	if err != nil {
		return zero, WrapError(c.op("get"), err)
	}
	return c.decode(snap)
}

// Put replaces the document with the given id.
func (c *Collection[T]) Put(ctx context.Context, id string, value T) error {
	if c.codec.Encode == nil {
		return fmt.Errorf("firestore: %s is read-only", c.name)
	}
	ref, err := c.doc(ctx, "set", id)
	if err != nil {
		return err
	}
	payload, err := c.codec.Encode(value)
	if err != nil {
		return fmt.Errorf("firestore: encode %s/%s: %w", c.name, id, err)
	}
	if _, err := ref.Set(ctx, payload); err != nil {
		return WrapError(c.op("set"), err)
	}
	return nil
}

// Delete removes the document. Deleting a missing document succeeds.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	ref, err := c.doc(ctx, "delete", id)
	if err != nil {
		return err
	}
	if _, err := ref.Delete(ctx); err != nil {
		return WrapError(c.op("delete"), err)
	}
	return nil
}

// Query runs the query built from the collection and decodes every match in order.
func (c *Collection[T]) Query(ctx context.Context, build func(firestore.Query) firestore.Query) ([]T, error) {
	client, err := c.client(ctx, "query")
	if err != nil {
		return nil, err
	}
	q := client.Collection(c.name).Query
	if build != nil {
		q = build(q)
	}
	snaps, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, WrapError(c.op("query"), err)
	}
	out := make([]T, 0, len(snaps))
	for _, snap := range snaps {
		v, err := c.decode(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (c *Collection[T]) decode(snap *firestore.DocumentSnapshot) (T, error) {
	v, err := c.codec.Decode(snap)
	if err != nil {
		return v, fmt.Errorf("firestore: decode %s/%s: %w", c.name, snap.Ref.ID, err)
	}
	return v, nil
}

func (c *Collection[T]) client(ctx context.Context, action string) (*firestore.Client, error) {
	if c == nil || c.provider == nil {
		return nil, fmt.Errorf("firestore: %s: provider is not configured", action)
	}
	if c.name == "" {
		return nil, fmt.Errorf("firestore: %s: collection name is required", action)
	}
	return c.provider.Client(ctx)
}

func (c *Collection[T]) doc(ctx context.Context, action, id string) (*firestore.DocumentRef, error) {
	if strings.TrimSpace(id) == "" {
		return nil, NotFound(c.op(action), "document id is required")
	}
	client, err := c.client(ctx, action)
	if err != nil {
		return nil, err
	}
	return client.Collection(c.name).Doc(id), nil
}

func (c *Collection[T]) op(action string) string {
	return c.name + "." + action
}
