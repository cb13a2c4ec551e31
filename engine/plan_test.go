package engine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jacentio/orchard/engine"
	"github.com/jacentio/orchard/internal/scope"
	"github.com/jacentio/orchard/store"
)

func TestCreateItem_SplitsAcrossUnitsOfWork(t *testing.T) {
	forEachLimitedBackend(t, 3, func(t *testing.T, f *fixture, b *countingBackend) {
		ctx := context.Background()
		c := f.container(t, alice, "Work")
		var created []string
		for _, title := range []string{"a", "b", "c", "d", "e"} {
			created = append(created, f.item(t, alice, c, "", title))
		}

		// 5 shifts and the insert: one planning unit, then two parts of 3.
		b.reset(0)
		newest := f.item(t, alice, c, "", "f")
		if got := b.count(); got != 3 {
			t.Errorf("expected 3 units of work, got %d", got)
		}

		items, err := f.svc.ListItems(ctx, alice, c, engine.AllItems)
		if err != nil {
			t.Fatalf("ListItems failed: %v", err)
		}
		want := []string{newest, created[4], created[3], created[2], created[1], created[0]}
		if got := itemIDs(items); !equalIDs(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
		assertDense(t, f, alice, c)
		if !f.metrics.has("create_item", true) || f.metrics.has("create_item", false) {
			t.Error("expected split creates to be observed as successes only")
		}
	})
}

func TestCreateItem_WithinLimitUsesOneUnitOfWork(t *testing.T) {
	forEachLimitedBackend(t, 3, func(t *testing.T, f *fixture, b *countingBackend) {
		c := f.container(t, alice, "Work")
		f.item(t, alice, c, "", "a")

		b.reset(0)
		f.item(t, alice, c, "", "b")
		if got := b.count(); got != 1 {
			t.Errorf("expected 1 unit of work, got %d", got)
		}
	})
}

func TestToggleItemStatus_ReopenSplits(t *testing.T) {
	forEachLimitedBackend(t, 2, func(t *testing.T, f *fixture, b *countingBackend) {
		c := f.container(t, alice, "Work")
		a := f.item(t, alice, c, "", "a")
		f.item(t, alice, c, "", "b")
		f.item(t, alice, c, "", "c")
		f.toggle(t, alice, a)
		f.item(t, alice, c, "", "d")

		// 3 shifts and the reopened item.
		b.reset(0)
		f.toggle(t, alice, a)
		if got := b.count(); got != 3 {
			t.Errorf("expected 3 units of work, got %d", got)
		}
		got := f.getItem(t, alice, a)
		if got.Status != store.StatusPending || got.Order != 0 || got.CompletedAt != nil {
			t.Errorf("expected reopened item at top, got %+v", got)
		}
		assertDense(t, f, alice, c)
	})
}

func TestReorderItems_Splits(t *testing.T) {
	forEachLimitedBackend(t, 2, func(t *testing.T, f *fixture, _ *countingBackend) {
		ctx := context.Background()
		c := f.container(t, alice, "Work")
		i1 := f.item(t, alice, c, "", "1")
		i2 := f.item(t, alice, c, "", "2")
		i3 := f.item(t, alice, c, "", "3")
		i4 := f.item(t, alice, c, "", "4")

		want := []string{i1, i2, i3, i4}
		if err := f.svc.ReorderItems(ctx, alice, want); err != nil {
			t.Fatalf("ReorderItems failed: %v", err)
		}
		items, err := f.svc.ListItems(ctx, alice, c, engine.RootItems)
		if err != nil {
			t.Fatalf("ListItems failed: %v", err)
		}
		if got := itemIDs(items); !equalIDs(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
		assertDense(t, f, alice, c)
	})
}

func TestDeleteContainer_SplitsChildrenBeforeParent(t *testing.T) {
	forEachLimitedBackend(t, 2, func(t *testing.T, f *fixture, b *countingBackend) {
		ctx := context.Background()
		c := f.container(t, alice, "Work")
		s := f.subContainer(t, alice, c, "Errands")
		f.item(t, alice, c, "", "r1")
		f.item(t, alice, c, "", "r2")
		f.item(t, alice, c, s, "s1")
		done := f.item(t, alice, c, s, "s2")
		f.toggle(t, alice, done)

		// 4 items, the sub-container and the container: planning, then parts
		// 2, 3 and 4. The last part holds the parents.
		b.reset(4)
		err := f.svc.DeleteContainer(ctx, alice, c)
		if !errors.Is(err, errInjected) {
			t.Fatalf("expected injected failure, got %v", err)
		}
		if _, err := f.svc.GetContainer(ctx, alice, c); err != nil {
			t.Errorf("expected container to survive a failed last part, got %v", err)
		}
		if _, err := f.svc.GetSubContainer(ctx, alice, s); err != nil {
			t.Errorf("expected sub-container to survive a failed last part, got %v", err)
		}
		if orders := f.itemOrders(t, alice, c); len(orders) != 0 {
			t.Errorf("expected items of committed parts gone, got %v", orders)
		}
		if !f.metrics.has("delete_container", false) {
			t.Error("expected failed delete to be observed")
		}

		b.reset(0)
		if err := f.svc.DeleteContainer(ctx, alice, c); err != nil {
			t.Fatalf("retried DeleteContainer failed: %v", err)
		}
		if _, err := f.svc.GetContainer(ctx, alice, c); !errors.Is(err, engine.ErrNotFound) {
			t.Errorf("expected container gone, got %v", err)
		}
		if _, err := f.svc.GetSubContainer(ctx, alice, s); !errors.Is(err, engine.ErrNotFound) {
			t.Errorf("expected sub-container gone, got %v", err)
		}
	})
}

func TestDeleteSubContainer_RelocateSplits(t *testing.T) {
	forEachLimitedBackend(t, 2, func(t *testing.T, f *fixture, _ *countingBackend) {
		ctx := context.Background()
		c := f.container(t, alice, "Work")
		s := f.subContainer(t, alice, c, "Errands")
		root := f.item(t, alice, c, "", "root")
		x := f.item(t, alice, c, s, "x")
		y := f.item(t, alice, c, s, "y")
		z := f.item(t, alice, c, s, "z")
		// z=0, y=1, x=2.

		if err := f.svc.DeleteSubContainer(ctx, alice, s, engine.Relocate); err != nil {
			t.Fatalf("DeleteSubContainer failed: %v", err)
		}
		items, err := f.svc.ListItems(ctx, alice, c, engine.RootItems)
		if err != nil {
			t.Fatalf("ListItems failed: %v", err)
		}
		want := []string{root, z, y, x}
		if got := itemIDs(items); !equalIDs(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
		if _, err := f.svc.GetSubContainer(ctx, alice, s); !errors.Is(err, engine.ErrNotFound) {
			t.Errorf("expected sub-container gone, got %v", err)
		}
		assertDense(t, f, alice, c)
	})
}

func TestDeleteSubContainer_PurgeSplits(t *testing.T) {
	forEachLimitedBackend(t, 2, func(t *testing.T, f *fixture, _ *countingBackend) {
		ctx := context.Background()
		c := f.container(t, alice, "Work")
		s := f.subContainer(t, alice, c, "Errands")
		root := f.item(t, alice, c, "", "root")
		for _, title := range []string{"x", "y", "z"} {
			f.item(t, alice, c, s, title)
		}

		if err := f.svc.DeleteSubContainer(ctx, alice, s, engine.Purge); err != nil {
			t.Fatalf("DeleteSubContainer failed: %v", err)
		}
		orders := f.itemOrders(t, alice, c)
		if len(orders) != 1 || orders[root] != 0 {
			t.Errorf("expected only the root item left, got %v", orders)
		}
	})
}

func TestCompact_Splits(t *testing.T) {
	forEachLimitedBackend(t, 2, func(t *testing.T, f *fixture, _ *countingBackend) {
		ctx := context.Background()
		c := f.container(t, alice, "Work")
		var created []string
		for _, title := range []string{"a", "b", "c", "d", "e"} {
			created = append(created, f.item(t, alice, c, "", title))
		}
		// e=0 d=1 c=2 b=3 a=4; dropping e leaves 1..4.
		if err := f.svc.DeleteItem(ctx, alice, created[4]); err != nil {
			t.Fatalf("DeleteItem failed: %v", err)
		}

		changed, err := f.svc.Compact(ctx, scope.ForItems(c, "", store.StatusPending))
		if err != nil {
			t.Fatalf("Compact failed: %v", err)
		}
		if changed != 4 {
			t.Errorf("expected 4 records rewritten, got %d", changed)
		}
		assertDense(t, f, alice, c)
	})
}
