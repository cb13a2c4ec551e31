package engine_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jacentio/orchard/engine"
	"github.com/jacentio/orchard/internal/scope"
	"github.com/jacentio/orchard/ordering"
	"github.com/jacentio/orchard/store"
	"github.com/jacentio/orchard/store/memory"
	"github.com/jacentio/orchard/store/sqlstore"
)

const (
	alice = "alice"
	bob   = "bob"
)

var epoch = time.UnixMilli(1704067200000).UTC()

// fixture bundles a Service with the backend it runs on.
type fixture struct {
	svc     *engine.Service
	backend store.Backend
	metrics *captureMetrics
}

// captureMetrics records every observation.
type captureMetrics struct {
	mu  sync.Mutex
	ops []observation
}

type observation struct {
	op      string
	success bool
}

func (c *captureMetrics) Observe(_ context.Context, op string, success bool, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops = append(c.ops, observation{op: op, success: success})
}

func (c *captureMetrics) has(op string, success bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, o := range c.ops {
		if o.op == op && o.success == success {
			return true
		}
	}
	return false
}

// newConfig returns a config with a clock that advances one millisecond per
// call and sequential IDs, so creation order is deterministic.
func newConfig(metrics *captureMetrics) engine.Config {
	var mu sync.Mutex
	tick, seq := 0, 0
	return engine.Config{
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics: metrics,
		Clock: func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			tick++
			return epoch.Add(time.Duration(tick) * time.Millisecond)
		},
		NewID: func() string {
			mu.Lock()
			defer mu.Unlock()
			seq++
			return fmt.Sprintf("id-%04d", seq)
		},
	}
}

var backends = map[string]func(t *testing.T) store.Backend{
	"memory": func(*testing.T) store.Backend { return memory.NewStore() },
	"sqlite": func(t *testing.T) store.Backend {
		s, err := sqlstore.Open(context.Background(), sqlstore.Config{
			Driver: sqlstore.DriverSQLite,
			DSN:    filepath.Join(t.TempDir(), "engine.db"),
		})
		if err != nil {
			t.Fatalf("failed to open sqlite: %v", err)
		}
		return s
	},
}

// forEachBackend runs fn once per backend with a fresh fixture.
func forEachBackend(t *testing.T, fn func(t *testing.T, f *fixture)) {
	t.Helper()
	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			b := open(t)
			t.Cleanup(func() { _ = b.Close() })
			metrics := &captureMetrics{}
			fn(t, &fixture{
				svc:     engine.New(b, newConfig(metrics)),
				backend: b,
				metrics: metrics,
			})
		})
	}
}

var errInjected = errors.New("injected failure")

// countingBackend counts units of work and fails the failAt-th Update, if set,
// without running it.
type countingBackend struct {
	store.Backend
	mu      sync.Mutex
	updates int
	failAt  int
}

func (b *countingBackend) Update(ctx context.Context, fn func(store.Tx) error) error {
	b.mu.Lock()
	b.updates++
	fail := b.failAt > 0 && b.updates == b.failAt
	b.mu.Unlock()
	if fail {
		return errInjected
	}
	return b.Backend.Update(ctx, fn)
}

// reset clears the counter and schedules a failure of the failAt-th Update
// from now; 0 disables it.
func (b *countingBackend) reset(failAt int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updates = 0
	b.failAt = failAt
}

func (b *countingBackend) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.updates
}

// forEachLimitedBackend is forEachBackend with the Service capped at
// maxWrites writes per unit of work.
func forEachLimitedBackend(t *testing.T, maxWrites int, fn func(t *testing.T, f *fixture, b *countingBackend)) {
	t.Helper()
	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			b := &countingBackend{Backend: open(t)}
			t.Cleanup(func() { _ = b.Close() })
			metrics := &captureMetrics{}
			cfg := newConfig(metrics)
			cfg.MaxWrites = maxWrites
			fn(t, &fixture{
				svc:     engine.New(b, cfg),
				backend: b,
				metrics: metrics,
			}, b)
		})
	}
}

func (f *fixture) container(t *testing.T, owner, name string) string {
	t.Helper()
	id, err := f.svc.CreateContainer(context.Background(), owner, engine.ContainerInput{Name: name})
	if err != nil {
		t.Fatalf("CreateContainer(%q) failed: %v", name, err)
	}
	return id
}

func (f *fixture) subContainer(t *testing.T, owner, containerID, name string) string {
	t.Helper()
	id, err := f.svc.CreateSubContainer(context.Background(), owner, containerID, engine.SubContainerInput{Name: name})
	if err != nil {
		t.Fatalf("CreateSubContainer(%q) failed: %v", name, err)
	}
	return id
}

func (f *fixture) item(t *testing.T, owner, containerID, subContainerID, title string) string {
	t.Helper()
	id, err := f.svc.CreateItem(context.Background(), owner, containerID, engine.ItemInput{
		SubContainerID: subContainerID,
		Title:          title,
	})
	if err != nil {
		t.Fatalf("CreateItem(%q) failed: %v", title, err)
	}
	return id
}

func (f *fixture) getItem(t *testing.T, owner, id string) store.Item {
	t.Helper()
	it, err := f.svc.GetItem(context.Background(), owner, id)
	if err != nil {
		t.Fatalf("GetItem(%s) failed: %v", id, err)
	}
	return it
}

func (f *fixture) toggle(t *testing.T, owner, id string) {
	t.Helper()
	if err := f.svc.ToggleItemStatus(context.Background(), owner, id); err != nil {
		t.Fatalf("ToggleItemStatus(%s) failed: %v", id, err)
	}
}

// itemOrders returns id -> order for every item of a container.
func (f *fixture) itemOrders(t *testing.T, owner, containerID string) map[string]int {
	t.Helper()
	items, err := f.svc.ListItems(context.Background(), owner, containerID, engine.AllItems)
	if err != nil {
		t.Fatalf("ListItems failed: %v", err)
	}
	out := make(map[string]int, len(items))
	for _, it := range items {
		out[it.ID] = it.Order
	}
	return out
}

// partitions groups a container's items by partition key.
func (f *fixture) partitions(t *testing.T, owner, containerID string) map[string][]ordering.Member {
	t.Helper()
	items, err := f.svc.ListItems(context.Background(), owner, containerID, engine.AllItems)
	if err != nil {
		t.Fatalf("ListItems failed: %v", err)
	}
	out := make(map[string][]ordering.Member)
	for _, it := range items {
		key := scope.OfItem(it).String()
		out[key] = append(out[key], ordering.Member{ID: it.ID, Order: it.Order, CreatedAt: it.CreatedAt})
	}
	return out
}

func assertDense(t *testing.T, f *fixture, owner, containerID string) {
	t.Helper()
	for key, ms := range f.partitions(t, owner, containerID) {
		if !ordering.IsDense(ms) {
			t.Errorf("partition %s is not dense: %+v", key, ms)
		}
	}
}

func ids[T any](records []T, id func(T) string) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = id(r)
	}
	return out
}

func itemIDs(items []store.Item) []string {
	return ids(items, func(it store.Item) string { return it.ID })
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func mustParseKey(t *testing.T, s string) scope.Key {
	t.Helper()
	k, err := scope.Parse(s)
	if err != nil {
		t.Fatalf("scope.Parse(%q) failed: %v", s, err)
	}
	return k
}
