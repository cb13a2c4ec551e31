package engine

import (
	"context"
	"errors"

	"github.com/jacentio/orchard/store"
)

// SweepContainer deletes the items and sub-containers that still point at a
// container that no longer exists, such as records created while its delete
// was in flight. A live container is left alone. It is a system operation
// and returns the number of records deleted.
func (s *Service) SweepContainer(ctx context.Context, containerID string) (int, error) {
	swept, err := s.updatePlan(ctx, "sweep_container", func(tx store.Tx) (plan, error) {
		if gone, err := containerGone(ctx, tx, containerID); !gone || err != nil {
			return nil, err
		}
		items, err := tx.Items(ctx, containerID)
		if err != nil {
			return nil, err
		}
		items, err = confirmItems(ctx, tx, items, func(it store.Item) bool {
			return it.ContainerID == containerID
		})
		if err != nil {
			return nil, err
		}
		subs, err := tx.SubContainers(ctx, containerID)
		if err != nil {
			return nil, err
		}
		subs, err = confirmSubContainers(ctx, tx, subs, containerID)
		if err != nil {
			return nil, err
		}
		return containerRemoval(store.Container{}, items, subs), nil
	})
	if err != nil {
		return 0, err
	}

	if swept > 0 {
		s.logger.InfoContext(ctx, "container orphans swept", "containerID", containerID, "records", swept)
	}
	return swept, nil
}

// SweepSubContainer relocates the items that still point at a sub-container
// that no longer exists to the bottom of the container root. Items of a
// missing container are left to SweepContainer. It is a system operation and
// returns the number of items moved.
func (s *Service) SweepSubContainer(ctx context.Context, containerID, subContainerID string) (int, error) {
	swept, err := s.updatePlan(ctx, "sweep_sub_container", func(tx store.Tx) (plan, error) {
		if _, err := tx.SubContainer(ctx, subContainerID); !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		if gone, err := containerGone(ctx, tx, containerID); gone || err != nil {
			return nil, err
		}
		all, err := tx.Items(ctx, containerID)
		if err != nil {
			return nil, err
		}
		orphans, err := confirmItems(ctx, tx, all, func(it store.Item) bool {
			return it.ContainerID == containerID && it.SubContainerID == subContainerID
		})
		if err != nil {
			return nil, err
		}
		return relocation(containerID, orphans, all), nil
	})
	if err != nil {
		return 0, err
	}

	if swept > 0 {
		s.logger.InfoContext(ctx, "sub-container orphans swept",
			"containerID", containerID, "subContainerID", subContainerID, "items", swept)
	}
	return swept, nil
}

// confirmItems re-reads each candidate by ID and keeps the current records
// that still match. Scoped scans may lag behind recent writes on some
// backends; reads by ID do not.
func confirmItems(ctx context.Context, tx store.Tx, candidates []store.Item, match func(store.Item) bool) ([]store.Item, error) {
	var out []store.Item
	for _, c := range candidates {
		if !match(c) {
			continue
		}
		it, err := tx.Item(ctx, c.ID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if match(it) {
			out = append(out, it)
		}
	}
	return out, nil
}

func confirmSubContainers(ctx context.Context, tx store.Tx, candidates []store.SubContainer, containerID string) ([]store.SubContainer, error) {
	var out []store.SubContainer
	for _, c := range candidates {
		sc, err := tx.SubContainer(ctx, c.ID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if sc.ContainerID == containerID {
			out = append(out, sc)
		}
	}
	return out, nil
}
