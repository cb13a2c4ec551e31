// Package engine implements the ordering and mutation operations on
// containers, sub-containers and items.
//
// Every operation runs in one store unit of work and checks that the caller
// owns each record it touches. Records owned by somebody else behave as if
// they do not exist. Reads made without an owner return empty results; writes
// made without an owner fail with ErrUnauthenticated.
//
// Orders are dense per partition (see package scope) except for the gaps that
// deletes and moves leave behind. The next insert at the top or resequence of
// that partition closes them, and Compact closes them explicitly.
//
// Backends that cap the writes of one unit of work (store.WriteLimiter) get
// larger operations committed in consecutive units, children before parents.
package engine

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jacentio/orchard/ordering"
	"github.com/jacentio/orchard/store"
)

// Service runs engine operations against a store backend.
type Service struct {
	backend store.Backend
	logger  *slog.Logger
	metrics MetricsRecorder
	clock   func() time.Time
	newID   func() string

	// maxWrites caps the writes of one unit of work; 0 is unlimited.
	maxWrites int
}

// New creates a Service over backend.
func New(backend store.Backend, cfg Config) *Service {
	cfg.validate()
	maxWrites := cfg.MaxWrites
	if l, ok := backend.(store.WriteLimiter); ok && (maxWrites == 0 || l.MaxWrites() < maxWrites) {
		maxWrites = l.MaxWrites()
	}
	return &Service{
		backend:   backend,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		clock:     cfg.Clock,
		newID:     cfg.NewID,
		maxWrites: maxWrites,
	}
}

// update runs fn in a read-write unit of work and records the outcome.
func (s *Service) update(ctx context.Context, op string, fn func(store.Tx) error) error {
	start := time.Now()
	err := s.backend.Update(ctx, fn)
	s.observe(ctx, op, start, err)
	return err
}

// view runs fn in a read-only unit of work and records the outcome.
func (s *Service) view(ctx context.Context, op string, fn func(store.Tx) error) error {
	start := time.Now()
	err := s.backend.View(ctx, fn)
	s.observe(ctx, op, start, err)
	return err
}

func (s *Service) observe(ctx context.Context, op string, start time.Time, err error) {
	s.metrics.Observe(ctx, op, err == nil, time.Since(start))
	if err != nil {
		s.logger.DebugContext(ctx, "operation failed", "op", op, "error", err)
	}
}

func (s *Service) now() time.Time {
	return s.clock().UTC().Truncate(time.Millisecond)
}

// --- Ownership ---

func ownedContainer(ctx context.Context, tx store.Tx, owner, id string) (store.Container, error) {
	c, err := tx.Container(ctx, id)
	if err != nil {
		return store.Container{}, err
	}
	if c.OwnerID != owner {
		return store.Container{}, ErrNotFound
	}
	return c, nil
}

func ownedSubContainer(ctx context.Context, tx store.Tx, owner, id string) (store.SubContainer, error) {
	sc, err := tx.SubContainer(ctx, id)
	if err != nil {
		return store.SubContainer{}, err
	}
	if sc.OwnerID != owner {
		return store.SubContainer{}, ErrNotFound
	}
	return sc, nil
}

func ownedItem(ctx context.Context, tx store.Tx, owner, id string) (store.Item, error) {
	it, err := tx.Item(ctx, id)
	if err != nil {
		return store.Item{}, err
	}
	if it.OwnerID != owner {
		return store.Item{}, ErrNotFound
	}
	return it, nil
}

// placement resolves the sub-container an item is created in or moved to. An
// empty id is the container root.
func placement(ctx context.Context, tx store.Tx, op, owner, containerID, subContainerID string) error {
	if subContainerID == "" {
		return nil
	}
	sc, err := ownedSubContainer(ctx, tx, owner, subContainerID)
	if err != nil {
		return err
	}
	if sc.ContainerID != containerID {
		return invalid(op, "sub-container %s belongs to another container", subContainerID)
	}
	return nil
}

// --- Ranking helpers ---

func containerMember(c store.Container) ordering.Member {
	return ordering.Member{ID: c.ID, Order: c.Order, CreatedAt: c.CreatedAt}
}

func subContainerMember(sc store.SubContainer) ordering.Member {
	return ordering.Member{ID: sc.ID, Order: sc.Order, CreatedAt: sc.CreatedAt}
}

func itemMember(it store.Item) ordering.Member {
	return ordering.Member{ID: it.ID, Order: it.Order, CreatedAt: it.CreatedAt}
}

func members[T any](records []T, member func(T) ordering.Member) []ordering.Member {
	out := make([]ordering.Member, len(records))
	for i, r := range records {
		out[i] = member(r)
	}
	return out
}

// ranked returns records in partition sort order.
func ranked[T any](records []T, member func(T) ordering.Member) []T {
	ms := members(records, member)
	byID := make(map[string]T, len(records))
	for i, m := range ms {
		byID[m.ID] = records[i]
	}
	ordering.Sort(ms)
	out := make([]T, len(ms))
	for i, m := range ms {
		out[i] = byID[m.ID]
	}
	return out
}

// --- Input helpers ---

func requireName(op, field, value string) (string, error) {
	name := strings.TrimSpace(value)
	if name == "" {
		return "", invalid(op, "%s must not be blank", field)
	}
	return name, nil
}

func orDefault(value, def string) string {
	if value == "" {
		return def
	}
	return value
}
