// Package memory provides an in-memory implementation of store.Backend used
// for tests and ephemeral environments.
package memory

import (
	"context"
	"sync"

	"github.com/jacentio/orchard/store"
)

// Compile-time contract assertion.
var _ store.Backend = (*Store)(nil)

type state struct {
	containers    map[string]store.Container
	subContainers map[string]store.SubContainer
	items         map[string]store.Item
}

func newState() state {
	return state{
		containers:    make(map[string]store.Container),
		subContainers: make(map[string]store.SubContainer),
		items:         make(map[string]store.Item),
	}
}

func (s state) clone() state {
	out := state{
		containers:    make(map[string]store.Container, len(s.containers)),
		subContainers: make(map[string]store.SubContainer, len(s.subContainers)),
		items:         make(map[string]store.Item, len(s.items)),
	}
	for k, v := range s.containers {
		out.containers[k] = v
	}
	for k, v := range s.subContainers {
		out.subContainers[k] = v
	}
	for k, v := range s.items {
		out.items[k] = cloneItem(v)
	}
	return out
}

func cloneItem(it store.Item) store.Item {
	if it.CompletedAt != nil {
		at := *it.CompletedAt
		it.CompletedAt = &at
	}
	return it
}

// Store keeps all records in memory. Update holds an exclusive lock for the
// whole unit of work, so units of work are serialized.
type Store struct {
	mu    sync.RWMutex
	state state
}

// NewStore constructs an empty in-memory store.
func NewStore() *Store {
	return &Store{state: newState()}
}

// Update runs fn against a private copy of the state and swaps it in when fn
// succeeds.
func (s *Store) Update(ctx context.Context, fn func(store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{state: s.state.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	s.state = tx.state
	return nil
}

// View runs fn against a snapshot of the state.
func (s *Store) View(ctx context.Context, fn func(store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()

	return fn(&transaction{state: snapshot, readOnly: true})
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

type transaction struct {
	state    state
	readOnly bool
}

// checkWrite validates the optimistic lock for a write of a record with the
// given version against the stored version (exists reports whether a record
// is stored).
func (tx *transaction) checkWrite(version int64, stored int64, exists bool) error {
	if tx.readOnly {
		return store.ErrReadOnly
	}
	if version == 0 {
		if exists {
			return store.ErrAlreadyExists
		}
		return nil
	}
	if !exists || stored != version {
		return store.ErrConcurrentModification
	}
	return nil
}

func (tx *transaction) Container(_ context.Context, id string) (store.Container, error) {
	c, ok := tx.state.containers[id]
	if !ok {
		return store.Container{}, store.ErrNotFound
	}
	return c, nil
}

func (tx *transaction) Containers(_ context.Context, ownerID string) ([]store.Container, error) {
	var out []store.Container
	for _, c := range tx.state.containers {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (tx *transaction) PutContainer(_ context.Context, c store.Container) error {
	stored, exists := tx.state.containers[c.ID]
	if err := tx.checkWrite(c.Version, stored.Version, exists); err != nil {
		return err
	}
	c.Version++
	tx.state.containers[c.ID] = c
	return nil
}

func (tx *transaction) DeleteContainer(_ context.Context, c store.Container) error {
	stored, exists := tx.state.containers[c.ID]
	if err := tx.checkDelete(c.Version, stored.Version, exists); err != nil {
		return err
	}
	delete(tx.state.containers, c.ID)
	return nil
}

func (tx *transaction) SubContainer(_ context.Context, id string) (store.SubContainer, error) {
	s, ok := tx.state.subContainers[id]
	if !ok {
		return store.SubContainer{}, store.ErrNotFound
	}
	return s, nil
}

func (tx *transaction) SubContainers(_ context.Context, containerID string) ([]store.SubContainer, error) {
	var out []store.SubContainer
	for _, s := range tx.state.subContainers {
		if s.ContainerID == containerID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (tx *transaction) PutSubContainer(_ context.Context, s store.SubContainer) error {
	stored, exists := tx.state.subContainers[s.ID]
	if err := tx.checkWrite(s.Version, stored.Version, exists); err != nil {
		return err
	}
	s.Version++
	tx.state.subContainers[s.ID] = s
	return nil
}

func (tx *transaction) DeleteSubContainer(_ context.Context, s store.SubContainer) error {
	stored, exists := tx.state.subContainers[s.ID]
	if err := tx.checkDelete(s.Version, stored.Version, exists); err != nil {
		return err
	}
	delete(tx.state.subContainers, s.ID)
	return nil
}

func (tx *transaction) Item(_ context.Context, id string) (store.Item, error) {
	it, ok := tx.state.items[id]
	if !ok {
		return store.Item{}, store.ErrNotFound
	}
	return cloneItem(it), nil
}

func (tx *transaction) Items(_ context.Context, containerID string) ([]store.Item, error) {
	var out []store.Item
	for _, it := range tx.state.items {
		if it.ContainerID == containerID {
			out = append(out, cloneItem(it))
		}
	}
	return out, nil
}

func (tx *transaction) PutItem(_ context.Context, it store.Item) error {
	stored, exists := tx.state.items[it.ID]
	if err := tx.checkWrite(it.Version, stored.Version, exists); err != nil {
		return err
	}
	it = cloneItem(it)
	it.Version++
	tx.state.items[it.ID] = it
	return nil
}

func (tx *transaction) DeleteItem(_ context.Context, it store.Item) error {
	stored, exists := tx.state.items[it.ID]
	if err := tx.checkDelete(it.Version, stored.Version, exists); err != nil {
		return err
	}
	delete(tx.state.items, it.ID)
	return nil
}

func (tx *transaction) checkDelete(version int64, stored int64, exists bool) error {
	if tx.readOnly {
		return store.ErrReadOnly
	}
	if !exists {
		return store.ErrNotFound
	}
	if stored != version {
		return store.ErrConcurrentModification
	}
	return nil
}
