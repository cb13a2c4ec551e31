package engine

import (
	"context"
	"errors"

	"github.com/jacentio/orchard/internal/scope"
	"github.com/jacentio/orchard/ordering"
	"github.com/jacentio/orchard/store"
)

// Compact re-ranks the members of one partition to 0..n-1, closing the gaps
// left by deletes and moves. It is a system operation and performs no owner
// check. Partitions of a container that no longer exists are left to
// SweepContainer. It returns the number of records rewritten.
func (s *Service) Compact(ctx context.Context, key scope.Key) (int, error) {
	changed, err := s.updatePlan(ctx, "compact", func(tx store.Tx) (plan, error) {
		switch key.Kind {
		case store.KindContainer:
			return compactContainers(ctx, tx, key.OwnerID)
		case store.KindSubContainer:
			return compactSubContainers(ctx, tx, key.ContainerID)
		}
		return compactItems(ctx, tx, key)
	})
	if err != nil {
		return 0, err
	}

	if changed > 0 {
		s.logger.InfoContext(ctx, "partition compacted", "partition", key.String(), "changed", changed)
	}
	return changed, nil
}

func compactContainers(ctx context.Context, tx store.Tx, ownerID string) (plan, error) {
	all, err := tx.Containers(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return containerChanges(all, ordering.Compact(members(all, containerMember))), nil
}

func compactSubContainers(ctx context.Context, tx store.Tx, containerID string) (plan, error) {
	if gone, err := containerGone(ctx, tx, containerID); gone || err != nil {
		return nil, err
	}
	all, err := tx.SubContainers(ctx, containerID)
	if err != nil {
		return nil, err
	}
	return subContainerChanges(all, ordering.Compact(members(all, subContainerMember))), nil
}

func compactItems(ctx context.Context, tx store.Tx, key scope.Key) (plan, error) {
	if gone, err := containerGone(ctx, tx, key.ContainerID); gone || err != nil {
		return nil, err
	}
	all, err := tx.Items(ctx, key.ContainerID)
	if err != nil {
		return nil, err
	}
	partition := partitionOf(all, key)
	return itemChanges(partition, ordering.Compact(members(partition, itemMember))), nil
}

func containerGone(ctx context.Context, tx store.Tx, id string) (bool, error) {
	_, err := tx.Container(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return true, nil
	}
	return false, err
}
