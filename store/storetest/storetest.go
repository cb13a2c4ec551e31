// Package storetest provides a conformance suite for store.Backend implementations.
package storetest

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jacentio/orchard/store"
)

// Factory returns a fresh, empty backend. The suite closes it.
type Factory func(t *testing.T) store.Backend

// Run executes the conformance suite against backends produced by newBackend.
func Run(t *testing.T, newBackend Factory) {
	t.Run("ContainerRoundTrip", func(t *testing.T) { testContainerRoundTrip(t, newBackend(t)) })
	t.Run("SubContainerRoundTrip", func(t *testing.T) { testSubContainerRoundTrip(t, newBackend(t)) })
	t.Run("ItemRoundTrip", func(t *testing.T) { testItemRoundTrip(t, newBackend(t)) })
	t.Run("VersionIncrements", func(t *testing.T) { testVersionIncrements(t, newBackend(t)) })
	t.Run("InsertExisting", func(t *testing.T) { testInsertExisting(t, newBackend(t)) })
	t.Run("StaleVersion", func(t *testing.T) { testStaleVersion(t, newBackend(t)) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, newBackend(t)) })
	t.Run("ScopedScans", func(t *testing.T) { testScopedScans(t, newBackend(t)) })
	t.Run("Rollback", func(t *testing.T) { testRollback(t, newBackend(t)) })
	t.Run("ViewIsReadOnly", func(t *testing.T) { testViewIsReadOnly(t, newBackend(t)) })
	t.Run("MissingRecords", func(t *testing.T) { testMissingRecords(t, newBackend(t)) })
}

// Timestamps are persisted with millisecond precision.
var epoch = time.UnixMilli(1704067200000).UTC()

func newID() string { return uuid.NewString() }

func mustUpdate(t *testing.T, b store.Backend, fn func(store.Tx) error) {
	t.Helper()
	if err := b.Update(context.Background(), fn); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
}

func seedContainer(t *testing.T, b store.Backend, owner string, order int) store.Container {
	t.Helper()
	c := store.Container{
		ID:        newID(),
		OwnerID:   owner,
		Name:      "Work",
		Color:     "#3b82f6",
		Icon:      "📋",
		Order:     order,
		CreatedAt: epoch,
	}
	mustUpdate(t, b, func(tx store.Tx) error {
		return tx.PutContainer(context.Background(), c)
	})
	c.Version = 1
	return c
}

func getContainer(t *testing.T, b store.Backend, id string) (store.Container, error) {
	t.Helper()
	var got store.Container
	err := b.View(context.Background(), func(tx store.Tx) error {
		var err error
		got, err = tx.Container(context.Background(), id)
		return err
	})
	return got, err
}

func testContainerRoundTrip(t *testing.T, b store.Backend) {
	defer b.Close()

	c := seedContainer(t, b, "u1", 3)

	got, err := getContainer(t, b, c.ID)
	if err != nil {
		t.Fatalf("Container failed: %v", err)
	}
	if got.OwnerID != "u1" || got.Name != "Work" || got.Color != "#3b82f6" || got.Icon != "📋" {
		t.Errorf("unexpected container %+v", got)
	}
	if got.Order != 3 {
		t.Errorf("expected order 3, got %d", got.Order)
	}
	if !got.CreatedAt.Equal(epoch) {
		t.Errorf("expected created %v, got %v", epoch, got.CreatedAt)
	}
	if got.Version != 1 {
		t.Errorf("expected version 1, got %d", got.Version)
	}
}

func testSubContainerRoundTrip(t *testing.T, b store.Backend) {
	defer b.Close()
	ctx := context.Background()

	c := seedContainer(t, b, "u1", 0)
	s := store.SubContainer{
		ID:          newID(),
		ContainerID: c.ID,
		OwnerID:     "u1",
		Name:        "Errands",
		Color:       "#22c55e",
		Order:       1,
		CreatedAt:   epoch,
	}
	mustUpdate(t, b, func(tx store.Tx) error { return tx.PutSubContainer(ctx, s) })

	var got store.SubContainer
	err := b.View(ctx, func(tx store.Tx) error {
		var err error
		got, err = tx.SubContainer(ctx, s.ID)
		return err
	})
	if err != nil {
		t.Fatalf("SubContainer failed: %v", err)
	}
	if got.ContainerID != c.ID || got.OwnerID != "u1" || got.Name != "Errands" || got.Icon != "" {
		t.Errorf("unexpected sub-container %+v", got)
	}
	if got.Order != 1 || got.Version != 1 {
		t.Errorf("expected order 1 version 1, got order %d version %d", got.Order, got.Version)
	}
}

func testItemRoundTrip(t *testing.T, b store.Backend) {
	defer b.Close()
	ctx := context.Background()

	c := seedContainer(t, b, "u1", 0)
	done := epoch.Add(time.Hour)
	pending := store.Item{
		ID:          newID(),
		ContainerID: c.ID,
		OwnerID:     "u1",
		Title:       "Buy milk",
		Status:      store.StatusPending,
		Order:       0,
		CreatedAt:   epoch,
	}
	complete := store.Item{
		ID:             newID(),
		ContainerID:    c.ID,
		SubContainerID: "f1",
		OwnerID:        "u1",
		Title:          "File taxes",
		Notes:          "use last year's forms",
		Status:         store.StatusComplete,
		Order:          4,
		CreatedAt:      epoch,
		CompletedAt:    &done,
	}
	mustUpdate(t, b, func(tx store.Tx) error {
		if err := tx.PutItem(ctx, pending); err != nil {
			return err
		}
		return tx.PutItem(ctx, complete)
	})

	var gotPending, gotComplete store.Item
	err := b.View(ctx, func(tx store.Tx) error {
		var err error
		if gotPending, err = tx.Item(ctx, pending.ID); err != nil {
			return err
		}
		gotComplete, err = tx.Item(ctx, complete.ID)
		return err
	})
	if err != nil {
		t.Fatalf("Item failed: %v", err)
	}

	if !gotPending.AtRoot() || gotPending.Notes != "" || gotPending.CompletedAt != nil {
		t.Errorf("unexpected pending item %+v", gotPending)
	}
	if gotPending.Status != store.StatusPending || gotPending.Title != "Buy milk" {
		t.Errorf("unexpected pending item %+v", gotPending)
	}
	if gotComplete.SubContainerID != "f1" || gotComplete.Notes != "use last year's forms" {
		t.Errorf("unexpected complete item %+v", gotComplete)
	}
	if gotComplete.CompletedAt == nil || !gotComplete.CompletedAt.Equal(done) {
		t.Errorf("expected completedAt %v, got %v", done, gotComplete.CompletedAt)
	}
	if gotComplete.Order != 4 || gotComplete.Status != store.StatusComplete {
		t.Errorf("unexpected complete item %+v", gotComplete)
	}
}

func testVersionIncrements(t *testing.T, b store.Backend) {
	defer b.Close()
	ctx := context.Background()

	c := seedContainer(t, b, "u1", 0)
	c.Name = "Renamed"
	mustUpdate(t, b, func(tx store.Tx) error { return tx.PutContainer(ctx, c) })

	got, err := getContainer(t, b, c.ID)
	if err != nil {
		t.Fatalf("Container failed: %v", err)
	}
	if got.Version != 2 {
		t.Errorf("expected version 2, got %d", got.Version)
	}
	if got.Name != "Renamed" {
		t.Errorf("expected name 'Renamed', got %q", got.Name)
	}
}

func testInsertExisting(t *testing.T, b store.Backend) {
	defer b.Close()
	ctx := context.Background()

	c := seedContainer(t, b, "u1", 0)
	c.Version = 0
	err := b.Update(ctx, func(tx store.Tx) error { return tx.PutContainer(ctx, c) })
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func testStaleVersion(t *testing.T, b store.Backend) {
	defer b.Close()
	ctx := context.Background()

	c := seedContainer(t, b, "u1", 0)
	stale := c

	c.Name = "First"
	mustUpdate(t, b, func(tx store.Tx) error { return tx.PutContainer(ctx, c) })

	stale.Name = "Second"
	err := b.Update(ctx, func(tx store.Tx) error { return tx.PutContainer(ctx, stale) })
	if !errors.Is(err, store.ErrConcurrentModification) {
		t.Errorf("expected ErrConcurrentModification on put, got %v", err)
	}

	err = b.Update(ctx, func(tx store.Tx) error { return tx.DeleteContainer(ctx, stale) })
	if !errors.Is(err, store.ErrConcurrentModification) {
		t.Errorf("expected ErrConcurrentModification on delete, got %v", err)
	}

	got, err := getContainer(t, b, c.ID)
	if err != nil {
		t.Fatalf("Container failed: %v", err)
	}
	if got.Name != "First" {
		t.Errorf("expected name 'First', got %q", got.Name)
	}
}

func testDelete(t *testing.T, b store.Backend) {
	defer b.Close()
	ctx := context.Background()

	c := seedContainer(t, b, "u1", 0)
	s := store.SubContainer{ID: newID(), ContainerID: c.ID, OwnerID: "u1", Name: "f", CreatedAt: epoch}
	it := store.Item{ID: newID(), ContainerID: c.ID, OwnerID: "u1", Title: "t", Status: store.StatusPending, CreatedAt: epoch}
	mustUpdate(t, b, func(tx store.Tx) error {
		if err := tx.PutSubContainer(ctx, s); err != nil {
			return err
		}
		return tx.PutItem(ctx, it)
	})
	s.Version, it.Version = 1, 1

	mustUpdate(t, b, func(tx store.Tx) error {
		if err := tx.DeleteItem(ctx, it); err != nil {
			return err
		}
		if err := tx.DeleteSubContainer(ctx, s); err != nil {
			return err
		}
		return tx.DeleteContainer(ctx, c)
	})

	err := b.View(ctx, func(tx store.Tx) error {
		if _, err := tx.Item(ctx, it.ID); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected item ErrNotFound, got %v", err)
		}
		if _, err := tx.SubContainer(ctx, s.ID); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected sub-container ErrNotFound, got %v", err)
		}
		if _, err := tx.Container(ctx, c.ID); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected container ErrNotFound, got %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
}

func testScopedScans(t *testing.T, b store.Backend) {
	defer b.Close()
	ctx := context.Background()

	c1 := seedContainer(t, b, "u1", 0)
	c2 := seedContainer(t, b, "u1", 1)
	seedContainer(t, b, "u2", 0)

	mustUpdate(t, b, func(tx store.Tx) error {
		for i, cid := range []string{c1.ID, c1.ID, c2.ID} {
			s := store.SubContainer{ID: newID(), ContainerID: cid, OwnerID: "u1", Name: "f", Order: i, CreatedAt: epoch}
			if err := tx.PutSubContainer(ctx, s); err != nil {
				return err
			}
		}
		for i, cid := range []string{c1.ID, c1.ID, c1.ID, c2.ID} {
			it := store.Item{ID: newID(), ContainerID: cid, OwnerID: "u1", Title: "t", Status: store.StatusPending, Order: i, CreatedAt: epoch}
			if i == 1 {
				it.SubContainerID = "f"
			}
			if err := tx.PutItem(ctx, it); err != nil {
				return err
			}
		}
		return nil
	})

	err := b.View(ctx, func(tx store.Tx) error {
		containers, err := tx.Containers(ctx, "u1")
		if err != nil {
			return err
		}
		ids := []string{}
		for _, c := range containers {
			ids = append(ids, c.ID)
		}
		sort.Strings(ids)
		want := []string{c1.ID, c2.ID}
		sort.Strings(want)
		if len(ids) != 2 || ids[0] != want[0] || ids[1] != want[1] {
			t.Errorf("Containers(u1) = %v, want %v", ids, want)
		}

		subs, err := tx.SubContainers(ctx, c1.ID)
		if err != nil {
			return err
		}
		if len(subs) != 2 {
			t.Errorf("expected 2 sub-containers in c1, got %d", len(subs))
		}

		items, err := tx.Items(ctx, c1.ID)
		if err != nil {
			return err
		}
		if len(items) != 3 {
			t.Errorf("expected 3 items in c1, got %d", len(items))
		}

		none, err := tx.Items(ctx, "missing")
		if err != nil {
			return err
		}
		if len(none) != 0 {
			t.Errorf("expected no items for unknown container, got %d", len(none))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
}

func testRollback(t *testing.T, b store.Backend) {
	defer b.Close()
	ctx := context.Background()

	c := seedContainer(t, b, "u1", 0)
	boom := errors.New("boom")

	err := b.Update(ctx, func(tx store.Tx) error {
		renamed := c
		renamed.Name = "Changed"
		if err := tx.PutContainer(ctx, renamed); err != nil {
			return err
		}
		extra := store.Container{ID: newID(), OwnerID: "u1", Name: "Extra", CreatedAt: epoch}
		if err := tx.PutContainer(ctx, extra); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	got, err := getContainer(t, b, c.ID)
	if err != nil {
		t.Fatalf("Container failed: %v", err)
	}
	if got.Name != "Work" || got.Version != 1 {
		t.Errorf("expected untouched container, got %+v", got)
	}

	err = b.View(ctx, func(tx store.Tx) error {
		all, err := tx.Containers(ctx, "u1")
		if err != nil {
			return err
		}
		if len(all) != 1 {
			t.Errorf("expected 1 container after rollback, got %d", len(all))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
}

func testViewIsReadOnly(t *testing.T, b store.Backend) {
	defer b.Close()
	ctx := context.Background()

	err := b.View(ctx, func(tx store.Tx) error {
		return tx.PutContainer(ctx, store.Container{ID: newID(), OwnerID: "u1", CreatedAt: epoch})
	})
	if !errors.Is(err, store.ErrReadOnly) {
		t.Errorf("expected ErrReadOnly, got %v", err)
	}
}

func testMissingRecords(t *testing.T, b store.Backend) {
	defer b.Close()
	ctx := context.Background()

	err := b.View(ctx, func(tx store.Tx) error {
		if _, err := tx.Container(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected container ErrNotFound, got %v", err)
		}
		if _, err := tx.SubContainer(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected sub-container ErrNotFound, got %v", err)
		}
		if _, err := tx.Item(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected item ErrNotFound, got %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
}
