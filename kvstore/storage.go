// Package kvstore provides the persistent key-value capability the client
// stores are built on, plus adapters for memory, Redis and Postgres.
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Storage is an asynchronous string key-value store that survives restarts.
// Removing a key that does not exist is not an error.
type Storage interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Prefixed namespaces every key of an underlying storage, so several device
// profiles can share one backend.
func Prefixed(s Storage, prefix string) Storage {
	if prefix == "" {
		return s
	}
	return &prefixed{inner: s, prefix: prefix}
}

type prefixed struct {
	inner  Storage
	prefix string
}

func (p *prefixed) Get(ctx context.Context, key string) (string, bool, error) {
	return p.inner.Get(ctx, p.prefix+key)
}

func (p *prefixed) Set(ctx context.Context, key, value string) error {
	return p.inner.Set(ctx, p.prefix+key, value)
}

func (p *prefixed) Remove(ctx context.Context, key string) error {
	return p.inner.Remove(ctx, p.prefix+key)
}

// ErrUnsupported is returned when a storage cannot enumerate its keys.
var ErrUnsupported = errors.New("kvstore: operation not supported")

// Lister is implemented by storages that can enumerate their keys.
type Lister interface {
	ListKeys(ctx context.Context, prefix string) ([]string, error)
}

func (p *prefixed) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	l, ok := p.inner.(Lister)
	if !ok {
		return nil, ErrUnsupported
	}
	keys, err := l.ListKeys(ctx, p.prefix+prefix)
	if err != nil {
		return nil, err
	}
	for i, k := range keys {
		keys[i] = strings.TrimPrefix(k, p.prefix)
	}
	return keys, nil
}

// ClearAll removes every key s holds. Storages that delete in bulk provide
// their own ClearAll; otherwise the keys are listed and removed one by one.
func ClearAll(ctx context.Context, s Storage) error {
	if c, ok := s.(interface {
		ClearAll(ctx context.Context) error
	}); ok {
		return c.ClearAll(ctx)
	}
	l, ok := s.(Lister)
	if !ok {
		return ErrUnsupported
	}
	keys, err := l.ListKeys(ctx, "")
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := s.Remove(ctx, k); err != nil {
			return fmt.Errorf("remove %s: %w", k, err)
		}
	}
	return nil
}

// Stats returns basic statistics about the keys s holds.
func Stats(ctx context.Context, s Storage) (map[string]interface{}, error) {
	l, ok := s.(Lister)
	if !ok {
		return nil, ErrUnsupported
	}
	keys, err := l.ListKeys(ctx, "")
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return map[string]interface{}{
		"keys_count": len(keys),
		"keys":       keys,
	}, nil
}
