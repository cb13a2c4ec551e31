package engine_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/jacentio/orchard/engine"
	"github.com/jacentio/orchard/store"
)

func TestCreateItem_ShiftsPendingDown(t *testing.T) {
	forEachBackend(t, func(t *testing.T, f *fixture) {
		c := f.container(t, alice, "Work")
		a := f.item(t, alice, c, "", "a")
		b := f.item(t, alice, c, "", "b")
		// b went on top: b=0, a=1.
		x := f.item(t, alice, c, "", "x")

		orders := f.itemOrders(t, alice, c)
		want := map[string]int{x: 0, b: 1, a: 2}
		for id, order := range want {
			if orders[id] != order {
				t.Errorf("item %s: expected order %d, got %d", id, order, orders[id])
			}
		}
		assertDense(t, f, alice, c)
	})
}

func TestCreateItem_OnlyShiftsItsPartition(t *testing.T) {
	forEachBackend(t, func(t *testing.T, f *fixture) {
		c := f.container(t, alice, "Work")
		s := f.subContainer(t, alice, c, "Errands")
		root := f.item(t, alice, c, "", "root")
		inSub := f.item(t, alice, c, s, "in sub")

		orders := f.itemOrders(t, alice, c)
		if orders[root] != 0 || orders[inSub] != 0 {
			t.Errorf("expected both at order 0, got root=%d sub=%d", orders[root], orders[inSub])
		}
		if got := f.getItem(t, alice, root); got.Version != 1 {
			t.Errorf("expected root item untouched, got version %d", got.Version)
		}
	})
}

func TestCreateItem_Rejected(t *testing.T) {
	forEachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		c := f.container(t, alice, "Work")
		other := f.container(t, alice, "Home")
		elsewhere := f.subContainer(t, alice, other, "X")
		bobsContainer := f.container(t, bob, "Bob")
		bobsSub := f.subContainer(t, bob, bobsContainer, "Y")

		tests := []struct {
			name      string
			owner     string
			container string
			in        engine.ItemInput
			want      error
		}{
			{"unauthenticated", "", c, engine.ItemInput{Title: "x"}, engine.ErrUnauthenticated},
			{"blank title", alice, c, engine.ItemInput{Title: " "}, engine.ErrValidation},
			{"foreign container", bob, c, engine.ItemInput{Title: "x"}, engine.ErrNotFound},
			{"sub-container of another container", alice, c, engine.ItemInput{Title: "x", SubContainerID: elsewhere}, engine.ErrValidation},
			{"foreign sub-container", alice, c, engine.ItemInput{Title: "x", SubContainerID: bobsSub}, engine.ErrNotFound},
			{"missing sub-container", alice, c, engine.ItemInput{Title: "x", SubContainerID: "nope"}, engine.ErrNotFound},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := f.svc.CreateItem(ctx, tt.owner, tt.container, tt.in)
				if !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
			})
		}

		items, err := f.svc.ListItems(ctx, alice, c, engine.AllItems)
		if err != nil {
			t.Fatalf("ListItems failed: %v", err)
		}
		if len(items) != 0 {
			t.Errorf("expected no items, got %d", len(items))
		}
	})
}

func TestToggleItemStatus_LeavesGapInSource(t *testing.T) {
	forEachBackend(t, func(t *testing.T, f *fixture) {
		c := f.container(t, alice, "Work")
		b := f.item(t, alice, c, "", "B")
		a := f.item(t, alice, c, "", "A")
		// A=0, B=1, both pending.

		f.toggle(t, alice, a)

		gotA := f.getItem(t, alice, a)
		if gotA.Status != store.StatusComplete || gotA.Order != 0 {
			t.Errorf("expected A complete at order 0, got %s at %d", gotA.Status, gotA.Order)
		}
		if gotA.CompletedAt == nil {
			t.Error("expected completedAt to be set")
		}
		gotB := f.getItem(t, alice, b)
		if gotB.Order != 1 || gotB.Version != 2 {
			t.Errorf("expected B untouched at order 1, got order %d version %d", gotB.Order, gotB.Version)
		}
	})
}

func TestToggleItemStatus_CompletingSinksToBottom(t *testing.T) {
	forEachBackend(t, func(t *testing.T, f *fixture) {
		c := f.container(t, alice, "Work")
		first := f.item(t, alice, c, "", "first")
		second := f.item(t, alice, c, "", "second")

		f.toggle(t, alice, first)
		f.toggle(t, alice, second)

		if got := f.getItem(t, alice, first); got.Order != 0 {
			t.Errorf("expected first completed at order 0, got %d", got.Order)
		}
		if got := f.getItem(t, alice, second); got.Order != 1 {
			t.Errorf("expected second completed at order 1, got %d", got.Order)
		}
	})
}

func TestToggleItemStatus_RoundTrip(t *testing.T) {
	forEachBackend(t, func(t *testing.T, f *fixture) {
		c := f.container(t, alice, "Work")
		x := f.item(t, alice, c, "", "x")
		y := f.item(t, alice, c, "", "y")
		z := f.item(t, alice, c, "", "z")
		// z=0, y=1, x=2.

		f.toggle(t, alice, x)
		f.toggle(t, alice, x)

		got := f.getItem(t, alice, x)
		if got.Status != store.StatusPending {
			t.Fatalf("expected pending after two toggles, got %s", got.Status)
		}
		if got.Order != 0 {
			t.Errorf("expected reopened item at the top, got order %d", got.Order)
		}
		if got.CompletedAt != nil {
			t.Errorf("expected completedAt cleared, got %v", got.CompletedAt)
		}

		orders := f.itemOrders(t, alice, c)
		if orders[z] != 1 || orders[y] != 2 {
			t.Errorf("expected z=1 y=2, got z=%d y=%d", orders[z], orders[y])
		}
		assertDense(t, f, alice, c)
	})
}

func TestToggleItemStatus_StaysInSubContainer(t *testing.T) {
	forEachBackend(t, func(t *testing.T, f *fixture) {
		c := f.container(t, alice, "Work")
		s := f.subContainer(t, alice, c, "Errands")
		rootDone := f.item(t, alice, c, "", "root")
		f.toggle(t, alice, rootDone)
		it := f.item(t, alice, c, s, "in sub")

		f.toggle(t, alice, it)

		got := f.getItem(t, alice, it)
		if got.SubContainerID != s || got.Order != 0 {
			t.Errorf("expected completed in sub-container at order 0, got sub=%q order=%d", got.SubContainerID, got.Order)
		}
	})
}

func TestListItems_Filters(t *testing.T) {
	forEachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		c := f.container(t, alice, "Work")
		s := f.subContainer(t, alice, c, "Errands")
		r1 := f.item(t, alice, c, "", "r1")
		r2 := f.item(t, alice, c, "", "r2")
		s1 := f.item(t, alice, c, s, "s1")
		f.toggle(t, alice, r1)

		tests := []struct {
			name   string
			filter engine.ItemFilter
			want   []string
		}{
			{"all", engine.AllItems, []string{r2, s1, r1}},
			{"root", engine.RootItems, []string{r2, r1}},
			{"sub-container", engine.InSubContainer(s), []string{s1}},
			{"parsed root", engine.ParseItemFilter("root"), []string{r2, r1}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				items, err := f.svc.ListItems(ctx, alice, c, tt.filter)
				if err != nil {
					t.Fatalf("ListItems failed: %v", err)
				}
				if got := itemIDs(items); !equalIDs(got, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, got)
				}
			})
		}

		foreign, err := f.svc.ListItems(ctx, bob, c, engine.AllItems)
		if err != nil || len(foreign) != 0 {
			t.Errorf("expected empty list for foreign caller, got %v, %v", foreign, err)
		}
	})
}

func TestParseItemFilter(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "all"},
		{"all", "all"},
		{"root", "root"},
		{"abc", "abc"},
	}
	for _, tt := range tests {
		if got := engine.ParseItemFilter(tt.in).String(); got != tt.want {
			t.Errorf("ParseItemFilter(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUpdateItem(t *testing.T) {
	forEachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		c := f.container(t, alice, "Work")
		id := f.item(t, alice, c, "", "draft")

		title, notes := "final", "see doc"
		if err := f.svc.UpdateItem(ctx, alice, id, engine.ItemPatch{Title: &title, Notes: &notes}); err != nil {
			t.Fatalf("UpdateItem failed: %v", err)
		}
		got := f.getItem(t, alice, id)
		if got.Title != "final" || got.Notes != "see doc" || got.Order != 0 {
			t.Errorf("unexpected item %+v", got)
		}

		cleared := ""
		if err := f.svc.UpdateItem(ctx, alice, id, engine.ItemPatch{Notes: &cleared}); err != nil {
			t.Fatalf("UpdateItem failed: %v", err)
		}
		if got := f.getItem(t, alice, id); got.Notes != "" || got.Title != "final" {
			t.Errorf("expected notes cleared, got %+v", got)
		}

		if err := f.svc.UpdateItem(ctx, bob, id, engine.ItemPatch{Title: &title}); !errors.Is(err, engine.ErrNotFound) {
			t.Errorf("expected ErrNotFound for foreign item, got %v", err)
		}
	})
}

func TestDeleteItem_LeavesGap(t *testing.T) {
	forEachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		c := f.container(t, alice, "Work")
		bottom := f.item(t, alice, c, "", "bottom")
		middle := f.item(t, alice, c, "", "middle")
		top := f.item(t, alice, c, "", "top")

		if err := f.svc.DeleteItem(ctx, alice, middle); err != nil {
			t.Fatalf("DeleteItem failed: %v", err)
		}
		if _, err := f.svc.GetItem(ctx, alice, middle); !errors.Is(err, engine.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}

		orders := f.itemOrders(t, alice, c)
		if orders[top] != 0 || orders[bottom] != 2 {
			t.Errorf("expected top=0 bottom=2, got top=%d bottom=%d", orders[top], orders[bottom])
		}

		// The next insert at the top closes the gap.
		fresh := f.item(t, alice, c, "", "fresh")
		orders = f.itemOrders(t, alice, c)
		if orders[fresh] != 0 || orders[top] != 1 || orders[bottom] != 2 {
			t.Errorf("expected fresh=0 top=1 bottom=2, got %v", orders)
		}
	})
}

func TestReorderItems_RoundTrip(t *testing.T) {
	forEachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		c := f.container(t, alice, "Work")
		a := f.item(t, alice, c, "", "a")
		b := f.item(t, alice, c, "", "b")
		d := f.item(t, alice, c, "", "d")

		want := []string{a, d, b}
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

func TestReorderItems_Rejected(t *testing.T) {
	forEachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		c := f.container(t, alice, "Work")
		a := f.item(t, alice, c, "", "a")
		b := f.item(t, alice, c, "", "b")
		done := f.item(t, alice, c, "", "done")
		f.toggle(t, alice, done)
		bobsContainer := f.container(t, bob, "Bob")
		foreign := f.item(t, bob, bobsContainer, "", "foreign")

		tests := []struct {
			name  string
			owner string
			ids   []string
			want  error
		}{
			{"unauthenticated", "", []string{a, b}, engine.ErrUnauthenticated},
			{"partial list", alice, []string{a}, engine.ErrValidation},
			{"other partition", alice, []string{a, b, done}, engine.ErrValidation},
			{"foreign item", alice, []string{a, b, foreign}, engine.ErrNotFound},
			{"foreign first", alice, []string{foreign}, engine.ErrNotFound},
			{"duplicate", alice, []string{a, b, a}, engine.ErrValidation},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := f.svc.ReorderItems(ctx, tt.owner, tt.ids)
				if !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
			})
		}

		if err := f.svc.ReorderItems(ctx, alice, nil); err != nil {
			t.Errorf("expected empty reorder to be a no-op, got %v", err)
		}
	})
}

// TestOrders_NeverCollide drives random creates, toggles and reorders and
// checks that no partition ever holds two members at the same order, and
// that compaction always restores density.
func TestOrders_NeverCollide(t *testing.T) {
	forEachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		rng := rand.New(rand.NewSource(42))
		c := f.container(t, alice, "Work")
		subs := []string{"", f.subContainer(t, alice, c, "A"), f.subContainer(t, alice, c, "B")}
		var all []string

		for step := 0; step < 60; step++ {
			switch op := rng.Intn(3); {
			case op == 0 || len(all) == 0:
				all = append(all, f.item(t, alice, c, subs[rng.Intn(len(subs))], "item"))
			case op == 1:
				f.toggle(t, alice, all[rng.Intn(len(all))])
			default:
				it := f.getItem(t, alice, all[rng.Intn(len(all))])
				filter := engine.RootItems
				if !it.AtRoot() {
					filter = engine.InSubContainer(it.SubContainerID)
				}
				items, err := f.svc.ListItems(ctx, alice, c, filter)
				if err != nil {
					t.Fatalf("ListItems failed: %v", err)
				}
				var partition []string
				for _, sib := range items {
					if sib.Status == it.Status {
						partition = append(partition, sib.ID)
					}
				}
				rng.Shuffle(len(partition), func(i, j int) { partition[i], partition[j] = partition[j], partition[i] })
				if err := f.svc.ReorderItems(ctx, alice, partition); err != nil {
					t.Fatalf("step %d: ReorderItems failed: %v", step, err)
				}
			}

			for key, ms := range f.partitions(t, alice, c) {
				seen := map[int]bool{}
				for _, m := range ms {
					if seen[m.Order] {
						t.Fatalf("step %d: partition %s has duplicate order %d", step, key, m.Order)
					}
					seen[m.Order] = true
				}
			}
		}

		for key := range f.partitions(t, alice, c) {
			k := mustParseKey(t, key)
			if _, err := f.svc.Compact(ctx, k); err != nil {
				t.Fatalf("Compact(%s) failed: %v", key, err)
			}
		}
		assertDense(t, f, alice, c)
	})
}
