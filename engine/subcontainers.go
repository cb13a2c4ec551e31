package engine

import (
	"context"
	"errors"

	"github.com/jacentio/orchard/internal/scope"
	"github.com/jacentio/orchard/ordering"
	"github.com/jacentio/orchard/store"
)

// SubContainerInput holds the fields of a new sub-container. An empty Color
// falls back to the first palette color; Icon is optional.
type SubContainerInput struct {
	Name  string
	Color string
	Icon  string
}

// SubContainerPatch holds the fields to change on a sub-container. Nil fields
// are kept; an empty Color resets to the first palette color and an empty
// Icon clears the icon.
type SubContainerPatch struct {
	Name  *string
	Color *string
	Icon  *string
}

// ListSubContainers returns the sub-containers of a container in order.
func (s *Service) ListSubContainers(ctx context.Context, owner, containerID string) ([]store.SubContainer, error) {
	if owner == "" {
		return nil, nil
	}
	var out []store.SubContainer
	err := s.view(ctx, "list_sub_containers", func(tx store.Tx) error {
		if _, err := ownedContainer(ctx, tx, owner, containerID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil
			}
			return err
		}
		all, err := tx.SubContainers(ctx, containerID)
		if err != nil {
			return err
		}
		out = ranked(all, subContainerMember)
		return nil
	})
	return out, err
}

// GetSubContainer returns one sub-container.
func (s *Service) GetSubContainer(ctx context.Context, owner, id string) (store.SubContainer, error) {
	if owner == "" {
		return store.SubContainer{}, ErrNotFound
	}
	var sc store.SubContainer
	err := s.view(ctx, "get_sub_container", func(tx store.Tx) error {
		var err error
		sc, err = ownedSubContainer(ctx, tx, owner, id)
		return err
	})
	return sc, err
}

// CreateSubContainer appends a sub-container to the bottom of its container.
func (s *Service) CreateSubContainer(ctx context.Context, owner, containerID string, in SubContainerInput) (string, error) {
	const op = "create_sub_container"
	if owner == "" {
		return "", ErrUnauthenticated
	}
	name, err := requireName(op, "name", in.Name)
	if err != nil {
		return "", err
	}

	sc := store.SubContainer{
		ID:          s.newID(),
		ContainerID: containerID,
		OwnerID:     owner,
		Name:        name,
		Color:       orDefault(in.Color, Palette[0].Hex),
		Icon:        in.Icon,
		CreatedAt:   s.now(),
	}
	err = s.update(ctx, op, func(tx store.Tx) error {
		if _, err := ownedContainer(ctx, tx, owner, containerID); err != nil {
			return err
		}
		existing, err := tx.SubContainers(ctx, containerID)
		if err != nil {
			return err
		}
		sc.Order = ordering.Bottom(members(existing, subContainerMember))
		return tx.PutSubContainer(ctx, sc)
	})
	if err != nil {
		return "", err
	}

	s.logger.DebugContext(ctx, "sub-container created",
		"containerID", containerID, "subContainerID", sc.ID, "order", sc.Order)
	return sc.ID, nil
}

// UpdateSubContainer applies patch to a sub-container.
func (s *Service) UpdateSubContainer(ctx context.Context, owner, id string, patch SubContainerPatch) error {
	const op = "update_sub_container"
	if owner == "" {
		return ErrUnauthenticated
	}
	if patch.Name != nil {
		name, err := requireName(op, "name", *patch.Name)
		if err != nil {
			return err
		}
		patch.Name = &name
	}

	return s.update(ctx, op, func(tx store.Tx) error {
		sc, err := ownedSubContainer(ctx, tx, owner, id)
		if err != nil {
			return err
		}
		if patch.Name == nil && patch.Color == nil && patch.Icon == nil {
			return nil
		}
		if patch.Name != nil {
			sc.Name = *patch.Name
		}
		if patch.Color != nil {
			sc.Color = orDefault(*patch.Color, Palette[0].Hex)
		}
		if patch.Icon != nil {
			sc.Icon = *patch.Icon
		}
		return tx.PutSubContainer(ctx, sc)
	})
}

// ReorderSubContainers rewrites the orders of a container's sub-containers to
// the positions in ids, which must name every sub-container exactly once.
func (s *Service) ReorderSubContainers(ctx context.Context, owner, containerID string, ids []string) error {
	const op = "reorder_sub_containers"
	if owner == "" {
		return ErrUnauthenticated
	}

	changed, err := s.updatePlan(ctx, op, func(tx store.Tx) (plan, error) {
		if _, err := ownedContainer(ctx, tx, owner, containerID); err != nil {
			return nil, err
		}
		all, err := tx.SubContainers(ctx, containerID)
		if err != nil {
			return nil, err
		}
		siblings := make(map[string]bool, len(all))
		for _, sc := range all {
			siblings[sc.ID] = true
		}
		for _, id := range ids {
			if siblings[id] {
				continue
			}
			// Named but not a sibling: foreign or missing is NotFound, an
			// owned sub-container of another container is a bad list.
			if _, err := ownedSubContainer(ctx, tx, owner, id); err != nil {
				return nil, err
			}
			return nil, invalid(op, "sub-container %s belongs to another container", id)
		}

		changes, err := resequence(op, members(all, subContainerMember), ids)
		if err != nil {
			return nil, err
		}
		return subContainerChanges(all, changes), nil
	})
	if err != nil {
		return err
	}

	s.logger.DebugContext(ctx, "sub-containers reordered",
		"partition", scope.ForSubContainers(containerID).String(), "changed", changed)
	return nil
}
