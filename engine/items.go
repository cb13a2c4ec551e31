package engine

import (
	"context"
	"errors"

	"github.com/jacentio/orchard/internal/scope"
	"github.com/jacentio/orchard/ordering"
	"github.com/jacentio/orchard/store"
)

type filterKind int

const (
	filterAll filterKind = iota
	filterRoot
	filterSubContainer
)

// ItemFilter selects the items ListItems returns within a container.
type ItemFilter struct {
	kind           filterKind
	subContainerID string
}

var (
	// AllItems selects every item of the container.
	AllItems = ItemFilter{kind: filterAll}

	// RootItems selects the items at the container root.
	RootItems = ItemFilter{kind: filterRoot}
)

// InSubContainer selects the items of one sub-container.
func InSubContainer(id string) ItemFilter {
	return ItemFilter{kind: filterSubContainer, subContainerID: id}
}

// ParseItemFilter maps "" and "all" to AllItems, "root" to RootItems and
// anything else to InSubContainer.
func ParseItemFilter(s string) ItemFilter {
	switch s {
	case "", "all":
		return AllItems
	case scope.Root:
		return RootItems
	}
	return InSubContainer(s)
}

func (f ItemFilter) String() string {
	switch f.kind {
	case filterRoot:
		return scope.Root
	case filterSubContainer:
		return f.subContainerID
	}
	return "all"
}

func (f ItemFilter) matches(it store.Item) bool {
	switch f.kind {
	case filterRoot:
		return it.AtRoot()
	case filterSubContainer:
		return it.SubContainerID == f.subContainerID
	}
	return true
}

// ItemInput holds the fields of a new item. An empty SubContainerID places
// the item at the container root.
type ItemInput struct {
	SubContainerID string
	Title          string
	Notes          string
}

// ItemPatch holds the fields to change on an item. Nil fields are kept; an
// empty Notes clears the notes.
type ItemPatch struct {
	Title *string
	Notes *string
}

// ListItems returns the container's items selected by filter: pending items
// in order, followed by complete items in order.
func (s *Service) ListItems(ctx context.Context, owner, containerID string, filter ItemFilter) ([]store.Item, error) {
	if owner == "" {
		return nil, nil
	}
	var out []store.Item
	err := s.view(ctx, "list_items", func(tx store.Tx) error {
		if _, err := ownedContainer(ctx, tx, owner, containerID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil
			}
			return err
		}
		all, err := tx.Items(ctx, containerID)
		if err != nil {
			return err
		}

		var pending, complete []store.Item
		for _, it := range all {
			if !filter.matches(it) {
				continue
			}
			if it.Status == store.StatusComplete {
				complete = append(complete, it)
			} else {
				pending = append(pending, it)
			}
		}
		out = append(ranked(pending, itemMember), ranked(complete, itemMember)...)
		return nil
	})
	return out, err
}

// GetItem returns one item.
func (s *Service) GetItem(ctx context.Context, owner, id string) (store.Item, error) {
	if owner == "" {
		return store.Item{}, ErrNotFound
	}
	var it store.Item
	err := s.view(ctx, "get_item", func(tx store.Tx) error {
		var err error
		it, err = ownedItem(ctx, tx, owner, id)
		return err
	})
	return it, err
}

// CreateItem inserts a pending item at the top of its partition.
func (s *Service) CreateItem(ctx context.Context, owner, containerID string, in ItemInput) (string, error) {
	const op = "create_item"
	if owner == "" {
		return "", ErrUnauthenticated
	}
	title, err := requireName(op, "title", in.Title)
	if err != nil {
		return "", err
	}

	it := store.Item{
		ID:             s.newID(),
		ContainerID:    containerID,
		SubContainerID: in.SubContainerID,
		OwnerID:        owner,
		Title:          title,
		Notes:          in.Notes,
		Status:         store.StatusPending,
		Order:          0,
		CreatedAt:      s.now(),
	}
	_, err = s.updatePlan(ctx, op, func(tx store.Tx) (plan, error) {
		if _, err := ownedContainer(ctx, tx, owner, containerID); err != nil {
			return nil, err
		}
		if err := placement(ctx, tx, op, owner, containerID, in.SubContainerID); err != nil {
			return nil, err
		}
		all, err := tx.Items(ctx, containerID)
		if err != nil {
			return nil, err
		}
		p := insertAtTop(partitionOf(all, scope.OfItem(it)))
		return append(p, putItem(it)), nil
	})
	if err != nil {
		return "", err
	}

	s.logger.DebugContext(ctx, "item created", "itemID", it.ID, "partition", scope.OfItem(it).String())
	return it.ID, nil
}

// UpdateItem applies patch to an item.
func (s *Service) UpdateItem(ctx context.Context, owner, id string, patch ItemPatch) error {
	const op = "update_item"
	if owner == "" {
		return ErrUnauthenticated
	}
	if patch.Title != nil {
		title, err := requireName(op, "title", *patch.Title)
		if err != nil {
			return err
		}
		patch.Title = &title
	}

	return s.update(ctx, op, func(tx store.Tx) error {
		it, err := ownedItem(ctx, tx, owner, id)
		if err != nil {
			return err
		}
		if patch.Title == nil && patch.Notes == nil {
			return nil
		}
		if patch.Title != nil {
			it.Title = *patch.Title
		}
		if patch.Notes != nil {
			it.Notes = *patch.Notes
		}
		return tx.PutItem(ctx, it)
	})
}

// DeleteItem removes an item. Its partition keeps the gap.
func (s *Service) DeleteItem(ctx context.Context, owner, id string) error {
	if owner == "" {
		return ErrUnauthenticated
	}
	return s.update(ctx, "delete_item", func(tx store.Tx) error {
		it, err := ownedItem(ctx, tx, owner, id)
		if err != nil {
			return err
		}
		return tx.DeleteItem(ctx, it)
	})
}

// ReorderItems rewrites the orders of one item partition to the positions in
// ids. The partition is the one of ids[0]; ids must name every member of it
// exactly once. An empty list is a no-op.
func (s *Service) ReorderItems(ctx context.Context, owner string, ids []string) error {
	const op = "reorder_items"
	if owner == "" {
		return ErrUnauthenticated
	}
	if len(ids) == 0 {
		return nil
	}

	var key scope.Key
	changed, err := s.updatePlan(ctx, op, func(tx store.Tx) (plan, error) {
		first, err := ownedItem(ctx, tx, owner, ids[0])
		if err != nil {
			return nil, err
		}
		key = scope.OfItem(first)
		all, err := tx.Items(ctx, first.ContainerID)
		if err != nil {
			return nil, err
		}
		partition := partitionOf(all, key)
		inPartition := make(map[string]bool, len(partition))
		for _, it := range partition {
			inPartition[it.ID] = true
		}
		for _, id := range ids {
			if inPartition[id] {
				continue
			}
			if _, err := ownedItem(ctx, tx, owner, id); err != nil {
				return nil, err
			}
			return nil, invalid(op, "item %s is not in partition %s", id, key)
		}

		changes, err := resequence(op, members(partition, itemMember), ids)
		if err != nil {
			return nil, err
		}
		return itemChanges(partition, changes), nil
	})
	if err != nil {
		return err
	}

	s.logger.DebugContext(ctx, "items reordered", "partition", key.String(), "changed", changed)
	return nil
}

// ToggleItemStatus flips an item between pending and complete. Completing
// appends it to the bottom of the complete partition and stamps completedAt;
// reopening inserts it at the top of the pending partition and clears it.
func (s *Service) ToggleItemStatus(ctx context.Context, owner, id string) error {
	const op = "toggle_item_status"
	if owner == "" {
		return ErrUnauthenticated
	}

	var it store.Item
	_, err := s.updatePlan(ctx, op, func(tx store.Tx) (plan, error) {
		var err error
		if it, err = ownedItem(ctx, tx, owner, id); err != nil {
			return nil, err
		}
		all, err := tx.Items(ctx, it.ContainerID)
		if err != nil {
			return nil, err
		}

		target := scope.ForItems(it.ContainerID, it.SubContainerID, it.Status.Toggled())
		p := place(&it, target, partitionOf(all, target))

		it.Status = target.Status
		if it.Status == store.StatusComplete {
			now := s.now()
			it.CompletedAt = &now
		} else {
			it.CompletedAt = nil
		}
		return append(p, putItem(it)), nil
	})
	if err != nil {
		return err
	}

	s.logger.DebugContext(ctx, "item status toggled",
		"itemID", it.ID, "status", it.Status, "order", it.Order)
	return nil
}

// --- Partition helpers ---

// partitionOf returns the items of all that are members of key.
func partitionOf(all []store.Item, key scope.Key) []store.Item {
	var out []store.Item
	for _, it := range all {
		if key.Contains(it) {
			out = append(out, it)
		}
	}
	return out
}

// insertAtTop plans the shift of every member of partition down to make room
// at order 0. The shifts are written bottom first.
func insertAtTop(partition []store.Item) plan {
	return itemChanges(partition, ordering.Top(members(partition, itemMember)))
}

// place assigns it the order it takes on entering the partition target,
// whose current members are siblings: the top for pending partitions, the
// bottom for complete ones. It returns the writes that make room.
func place(it *store.Item, target scope.Key, siblings []store.Item) plan {
	if target.Status == store.StatusPending {
		it.Order = 0
		return insertAtTop(siblings)
	}
	it.Order = ordering.Bottom(members(siblings, itemMember))
	return nil
}
