// Package state holds the process-wide client stores: the session, the UI
// preferences and the current view. Session and preferences are loaded once
// at construction and written through to a Persister on every mutation.
package state

import (
	"context"
	"fmt"
	"sync"

	jsoniter "github.com/json-iterator/go"
)

const (
	SessionNamespace     = "auth-storage"
	PreferencesNamespace = "ui-settings"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Persister is the durable key/value boundary behind the stores.
// Load reports ok=false when nothing was stored under the namespace yet.
type Persister interface {
	Load(ctx context.Context, namespace string) (payload []byte, ok bool, err error)
	Save(ctx context.Context, namespace string, payload []byte) error
	Delete(ctx context.Context, namespace string) error
}

// envelope is the on-disk shape of a persisted store
type envelope[T any] struct {
	State   T   `json:"state"`
	Version int `json:"version"`
}

const envelopeVersion = 0

func loadState[T any](ctx context.Context, p Persister, namespace string, into *T) (bool, error) {
	payload, ok, err := p.Load(ctx, namespace)
	if err != nil {
		return false, fmt.Errorf("load %s: %w", namespace, err)
	}
	if !ok || len(payload) == 0 {
		return false, nil
	}
	var env envelope[T]
	if err := json.Unmarshal(payload, &env); err != nil {
		return false, fmt.Errorf("decode %s: %w", namespace, err)
	}
	*into = env.State
	return true, nil
}

func saveState[T any](ctx context.Context, p Persister, namespace string, s T) error {
	payload, err := json.Marshal(envelope[T]{State: s, Version: envelopeVersion})
	if err != nil {
		return fmt.Errorf("encode %s: %w", namespace, err)
	}
	if err := p.Save(ctx, namespace, payload); err != nil {
		return fmt.Errorf("save %s: %w", namespace, err)
	}
	return nil
}

// subscribers is a small broadcast list shared by the stores
type subscribers[T any] struct {
	mu     sync.Mutex
	nextID int
	fns    map[int]func(T)
}

func (s *subscribers[T]) add(fn func(T)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fns == nil {
		s.fns = make(map[int]func(T))
	}
	id := s.nextID
	s.nextID++
	s.fns[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.fns, id)
	}
}

func (s *subscribers[T]) notify(v T) {
	s.mu.Lock()
	fns := make([]func(T), 0, len(s.fns))
	for _, fn := range s.fns {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}
