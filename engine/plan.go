package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jacentio/orchard/internal/scope"
	"github.com/jacentio/orchard/ordering"
	"github.com/jacentio/orchard/store"
)

// write stages one record change.
type write func(ctx context.Context, tx store.Tx) error

// plan is the ordered list of writes an operation derived from one read of
// the store. Each record appears in it at most once.
type plan []write

func (p plan) apply(ctx context.Context, tx store.Tx) error {
	for _, w := range p {
		if err := w(ctx, tx); err != nil {
			return err
		}
	}
	return nil
}

// errSplit aborts the planning unit of work when its plan exceeds the write
// limit. Nothing has been staged at that point.
var errSplit = errors.New("orchard: plan exceeds write limit")

// updatePlan runs build in a read-write unit of work and applies the plan it
// returns in the same unit. A plan larger than the write limit is instead
// committed in consecutive units of at most maxWrites writes, in plan order.
// A failed unit stops the run and leaves the earlier units committed, so plans
// put parents after their children. It returns the number of planned writes.
func (s *Service) updatePlan(ctx context.Context, op string, build func(store.Tx) (plan, error)) (int, error) {
	start := time.Now()
	var p plan
	err := s.backend.Update(ctx, func(tx store.Tx) error {
		var err error
		if p, err = build(tx); err != nil {
			return err
		}
		if s.maxWrites > 0 && len(p) > s.maxWrites {
			return errSplit
		}
		return p.apply(ctx, tx)
	})
	if errors.Is(err, errSplit) {
		err = s.applyInParts(ctx, op, p)
	}
	s.observe(ctx, op, start, err)
	return len(p), err
}

func (s *Service) applyInParts(ctx context.Context, op string, p plan) error {
	parts := (len(p) + s.maxWrites - 1) / s.maxWrites
	for i := 0; i < parts; i++ {
		part := p[i*s.maxWrites : min((i+1)*s.maxWrites, len(p))]
		err := s.backend.Update(ctx, func(tx store.Tx) error {
			return part.apply(ctx, tx)
		})
		if err != nil {
			return fmt.Errorf("%s: part %d of %d: %w", op, i+1, parts, err)
		}
	}
	s.logger.InfoContext(ctx, "plan committed in parts", "op", op, "writes", len(p), "parts", parts)
	return nil
}

// --- Writes ---

func putContainer(c store.Container) write {
	return func(ctx context.Context, tx store.Tx) error {
		return tx.PutContainer(ctx, c)
	}
}

func removeContainer(c store.Container) write {
	return func(ctx context.Context, tx store.Tx) error {
		return tx.DeleteContainer(ctx, c)
	}
}

func putSubContainer(sc store.SubContainer) write {
	return func(ctx context.Context, tx store.Tx) error {
		return tx.PutSubContainer(ctx, sc)
	}
}

func removeSubContainer(sc store.SubContainer) write {
	return func(ctx context.Context, tx store.Tx) error {
		if err := tx.DeleteSubContainer(ctx, sc); err != nil {
			return fmt.Errorf("delete sub-container %s: %w", sc.ID, err)
		}
		return nil
	}
}

func putItem(it store.Item) write {
	return func(ctx context.Context, tx store.Tx) error {
		return tx.PutItem(ctx, it)
	}
}

func removeItem(it store.Item) write {
	return func(ctx context.Context, tx store.Tx) error {
		if err := tx.DeleteItem(ctx, it); err != nil {
			return fmt.Errorf("delete item %s: %w", it.ID, err)
		}
		return nil
	}
}

// --- Change plans ---

// rerank turns order changes into writes. Changes that move members down are
// written bottom first and the rest top first, so a plan split into parts
// leaves gaps between parts rather than duplicate orders.
func rerank[T any](changes []ordering.Change, byID map[string]T, orderOf func(T) int, set func(T, int) write) plan {
	sorted := make([]ordering.Change, len(changes))
	copy(sorted, changes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order > sorted[j].Order
	})
	var down, up plan
	for _, ch := range sorted {
		w := set(byID[ch.ID], ch.Order)
		if orderOf(byID[ch.ID]) < ch.Order {
			down = append(down, w)
		} else {
			up = append(up, w)
		}
	}
	for i, j := 0, len(up)-1; i < j; i, j = i+1, j-1 {
		up[i], up[j] = up[j], up[i]
	}
	return append(down, up...)
}

func containerChanges(all []store.Container, changes []ordering.Change) plan {
	byID := make(map[string]store.Container, len(all))
	for _, c := range all {
		byID[c.ID] = c
	}
	return rerank(changes, byID, func(c store.Container) int { return c.Order }, func(c store.Container, order int) write {
		c.Order = order
		return putContainer(c)
	})
}

func subContainerChanges(all []store.SubContainer, changes []ordering.Change) plan {
	byID := make(map[string]store.SubContainer, len(all))
	for _, sc := range all {
		byID[sc.ID] = sc
	}
	return rerank(changes, byID, func(sc store.SubContainer) int { return sc.Order }, func(sc store.SubContainer, order int) write {
		sc.Order = order
		return putSubContainer(sc)
	})
}

func itemChanges(partition []store.Item, changes []ordering.Change) plan {
	byID := make(map[string]store.Item, len(partition))
	for _, it := range partition {
		byID[it.ID] = it
	}
	return rerank(changes, byID, func(it store.Item) int { return it.Order }, func(it store.Item, order int) write {
		it.Order = order
		return putItem(it)
	})
}

// bottomFirst returns items grouped by partition, each group from its last
// member to its first. Removing a prefix of the result leaves every
// partition's remaining members at their orders.
func bottomFirst(items []store.Item) []store.Item {
	groups := make(map[string][]store.Item)
	var keys []string
	for _, it := range items {
		key := scope.OfItem(it).String()
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], it)
	}
	sort.Strings(keys)

	out := make([]store.Item, 0, len(items))
	for _, key := range keys {
		group := ranked(groups[key], itemMember)
		for i := len(group) - 1; i >= 0; i-- {
			out = append(out, group[i])
		}
	}
	return out
}
