package engine

import (
	"context"

	"github.com/jacentio/orchard/internal/scope"
	"github.com/jacentio/orchard/ordering"
	"github.com/jacentio/orchard/store"
)

// DeleteMode selects what happens to the items of a deleted sub-container.
type DeleteMode string

const (
	// Relocate moves the items to the container root.
	Relocate DeleteMode = "relocate"

	// Purge deletes the items.
	Purge DeleteMode = "purge"
)

// IsValid reports whether m is a known mode.
func (m DeleteMode) IsValid() bool {
	return m == Relocate || m == Purge
}

// ParseDeleteMode parses "relocate" or "purge".
func ParseDeleteMode(s string) (DeleteMode, error) {
	m := DeleteMode(s)
	if !m.IsValid() {
		return "", invalid("delete_sub_container", "unknown mode %q", s)
	}
	return m, nil
}

// DeleteContainer deletes a container with all of its items and
// sub-containers, children before parents.
func (s *Service) DeleteContainer(ctx context.Context, owner, id string) error {
	if owner == "" {
		return ErrUnauthenticated
	}

	var items, subs int
	_, err := s.updatePlan(ctx, "delete_container", func(tx store.Tx) (plan, error) {
		c, err := ownedContainer(ctx, tx, owner, id)
		if err != nil {
			return nil, err
		}
		all, err := tx.Items(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		subContainers, err := tx.SubContainers(ctx, c.ID)
		if err != nil {
			return nil, err
		}

		items, subs = len(all), len(subContainers)
		return containerRemoval(c, all, subContainers), nil
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "container deleted",
		"containerID", id, "items", items, "subContainers", subs)
	return nil
}

// containerRemoval plans the delete of c after its items and sub-containers.
// c may be the zero Container to leave the container record alone.
func containerRemoval(c store.Container, items []store.Item, subs []store.SubContainer) plan {
	p := make(plan, 0, len(items)+len(subs)+1)
	for _, it := range bottomFirst(items) {
		p = append(p, removeItem(it))
	}
	subs = ranked(subs, subContainerMember)
	for i := len(subs) - 1; i >= 0; i-- {
		p = append(p, removeSubContainer(subs[i]))
	}
	if c.ID != "" {
		p = append(p, removeContainer(c))
	}
	return p
}

// DeleteSubContainer deletes a sub-container. In Relocate mode its items move
// to the bottom of the container root partition for their status, keeping
// their relative order; in Purge mode they are deleted.
func (s *Service) DeleteSubContainer(ctx context.Context, owner, id string, mode DeleteMode) error {
	const op = "delete_sub_container"
	if owner == "" {
		return ErrUnauthenticated
	}
	if !mode.IsValid() {
		return invalid(op, "unknown mode %q", mode)
	}

	var children int
	_, err := s.updatePlan(ctx, op, func(tx store.Tx) (plan, error) {
		sc, err := ownedSubContainer(ctx, tx, owner, id)
		if err != nil {
			return nil, err
		}
		all, err := tx.Items(ctx, sc.ContainerID)
		if err != nil {
			return nil, err
		}
		source := partitionOf(all, scope.ForItems(sc.ContainerID, sc.ID, store.StatusPending))
		source = append(source, partitionOf(all, scope.ForItems(sc.ContainerID, sc.ID, store.StatusComplete))...)
		children = len(source)

		var p plan
		if mode == Purge {
			for _, it := range bottomFirst(source) {
				p = append(p, removeItem(it))
			}
		} else {
			p = relocation(sc.ContainerID, source, all)
		}
		return append(p, removeSubContainer(sc)), nil
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "sub-container deleted",
		"subContainerID", id, "mode", mode, "items", children)
	return nil
}

// relocation plans the move of items to the bottom of the root partition for
// their status, keeping their relative order. all is every item of the
// container. Each source partition is emptied from its last member up.
func relocation(containerID string, items, all []store.Item) plan {
	var p plan
	for _, status := range []store.Status{store.StatusPending, store.StatusComplete} {
		var source []store.Item
		for _, it := range items {
			if it.Status == status {
				source = append(source, it)
			}
		}
		source = ranked(source, itemMember)
		root := partitionOf(all, scope.ForItems(containerID, "", status))
		next := ordering.Bottom(members(root, itemMember))
		for i := len(source) - 1; i >= 0; i-- {
			it := source[i]
			it.SubContainerID = ""
			it.Order = next + i
			p = append(p, putItem(it))
		}
	}
	return p
}

// MoveItem moves an item to another sub-container of its container, or to
// the root when target is empty. The item keeps its status: pending items
// enter at the top of the target partition and complete items at the bottom.
// The source partition keeps the gap. Moving to the current location writes
// nothing.
func (s *Service) MoveItem(ctx context.Context, owner, id, target string) error {
	const op = "move_item"
	if owner == "" {
		return ErrUnauthenticated
	}

	moved, err := s.updatePlan(ctx, op, func(tx store.Tx) (plan, error) {
		it, err := ownedItem(ctx, tx, owner, id)
		if err != nil {
			return nil, err
		}
		if it.SubContainerID == target {
			return nil, nil
		}
		if err := placement(ctx, tx, op, owner, it.ContainerID, target); err != nil {
			return nil, err
		}
		all, err := tx.Items(ctx, it.ContainerID)
		if err != nil {
			return nil, err
		}

		key := scope.ForItems(it.ContainerID, target, it.Status)
		p := place(&it, key, partitionOf(all, key))
		it.SubContainerID = target
		return append(p, putItem(it)), nil
	})
	if err != nil {
		return err
	}

	if moved > 0 {
		s.logger.DebugContext(ctx, "item moved", "itemID", id, "target", orDefault(target, scope.Root))
	}
	return nil
}
