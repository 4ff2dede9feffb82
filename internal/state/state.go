package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"ordercart/internal/cart"
)

var ErrNotFound = errors.New("state: key not found")

// Store abstracts the key/value backend carts are saved into.
type Store interface {
	Get(key string) ([]byte, error)
	Put(key string, val []byte) error
	Delete(key string) error
}

// Key returns the storage key for a cart id.
func Key(cartID string) string { return "cart:" + cartID }

// Adapter binds a Store to one cart and implements cart.Persister.
type Adapter struct {
	st  Store
	key string
}

func NewAdapter(st Store, cartID string) *Adapter {
	return &Adapter{st: st, key: Key(cartID)}
}

func (a *Adapter) Load() (*cart.Snapshot, error) {
	b, err := a.st.Get(a.key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", a.key, err)
	}
	var snap cart.Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, fmt.Errorf("decode %s: %w", a.key, err)
	}
	return &snap, nil
}

func (a *Adapter) Save(s cart.Snapshot) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode %s: %w", a.key, err)
	}
	if err := a.st.Put(a.key, b); err != nil {
		return fmt.Errorf("save %s: %w", a.key, err)
	}
	return nil
}

// Discard removes the saved cart, if any.
func (a *Adapter) Discard() error {
	if err := a.st.Delete(a.key); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("discard %s: %w", a.key, err)
	}
	return nil
}

// InMemoryStore is a simple thread-safe map store.
type InMemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{data: make(map[string][]byte)}
}

func (s *InMemoryStore) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *InMemoryStore) Put(key string, val []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), val...)
	return nil
}

func (s *InMemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}
