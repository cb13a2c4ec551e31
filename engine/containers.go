package engine

import (
	"context"
	"errors"

	"github.com/jacentio/orchard/internal/scope"
	"github.com/jacentio/orchard/ordering"
	"github.com/jacentio/orchard/store"
)

// ContainerInput holds the fields of a new container. Empty Color and Icon
// fall back to the first palette color and DefaultIcon.
type ContainerInput struct {
	Name  string
	Color string
	Icon  string
}

// ContainerPatch holds the fields to change on a container. Nil fields are
// kept; empty Color and Icon reset to the defaults ContainerInput uses.
type ContainerPatch struct {
	Name  *string
	Color *string
	Icon  *string
}

// ListContainers returns the owner's containers in order.
func (s *Service) ListContainers(ctx context.Context, owner string) ([]store.Container, error) {
	if owner == "" {
		return nil, nil
	}
	var out []store.Container
	err := s.view(ctx, "list_containers", func(tx store.Tx) error {
		all, err := tx.Containers(ctx, owner)
		if err != nil {
			return err
		}
		out = ranked(all, containerMember)
		return nil
	})
	return out, err
}

// GetContainer returns one container.
func (s *Service) GetContainer(ctx context.Context, owner, id string) (store.Container, error) {
	if owner == "" {
		return store.Container{}, ErrNotFound
	}
	var c store.Container
	err := s.view(ctx, "get_container", func(tx store.Tx) error {
		var err error
		c, err = ownedContainer(ctx, tx, owner, id)
		return err
	})
	return c, err
}

// CreateContainer appends a container to the bottom of the owner's list.
func (s *Service) CreateContainer(ctx context.Context, owner string, in ContainerInput) (string, error) {
	const op = "create_container"
	if owner == "" {
		return "", ErrUnauthenticated
	}
	name, err := requireName(op, "name", in.Name)
	if err != nil {
		return "", err
	}

	c := store.Container{
		ID:        s.newID(),
		OwnerID:   owner,
		Name:      name,
		Color:     orDefault(in.Color, Palette[0].Hex),
		Icon:      orDefault(in.Icon, DefaultIcon),
		CreatedAt: s.now(),
	}
	err = s.update(ctx, op, func(tx store.Tx) error {
		existing, err := tx.Containers(ctx, owner)
		if err != nil {
			return err
		}
		c.Order = ordering.Bottom(members(existing, containerMember))
		return tx.PutContainer(ctx, c)
	})
	if err != nil {
		return "", err
	}

	s.logger.DebugContext(ctx, "container created", "containerID", c.ID, "order", c.Order)
	return c.ID, nil
}

// UpdateContainer applies patch to a container.
func (s *Service) UpdateContainer(ctx context.Context, owner, id string, patch ContainerPatch) error {
	const op = "update_container"
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
		c, err := ownedContainer(ctx, tx, owner, id)
		if err != nil {
			return err
		}
		if patch.Name == nil && patch.Color == nil && patch.Icon == nil {
			return nil
		}
		if patch.Name != nil {
			c.Name = *patch.Name
		}
		if patch.Color != nil {
			c.Color = orDefault(*patch.Color, Palette[0].Hex)
		}
		if patch.Icon != nil {
			c.Icon = orDefault(*patch.Icon, DefaultIcon)
		}
		return tx.PutContainer(ctx, c)
	})
}

// ReorderContainers rewrites the owner's container orders to the positions
// in ids, which must name every container of the owner exactly once.
func (s *Service) ReorderContainers(ctx context.Context, owner string, ids []string) error {
	const op = "reorder_containers"
	if owner == "" {
		return ErrUnauthenticated
	}

	changed, err := s.updatePlan(ctx, op, func(tx store.Tx) (plan, error) {
		all, err := tx.Containers(ctx, owner)
		if err != nil {
			return nil, err
		}
		owned := make(map[string]bool, len(all))
		for _, c := range all {
			owned[c.ID] = true
		}
		for _, id := range ids {
			if !owned[id] {
				return nil, ErrNotFound
			}
		}

		changes, err := resequence(op, members(all, containerMember), ids)
		if err != nil {
			return nil, err
		}
		return containerChanges(all, changes), nil
	})
	if err != nil {
		return err
	}

	s.logger.DebugContext(ctx, "containers reordered",
		"partition", scope.ForContainers(owner).String(), "changed", changed)
	return nil
}

// resequence wraps ordering.Resequence, reporting list mismatches as validation errors.
func resequence(op string, ms []ordering.Member, ids []string) ([]ordering.Change, error) {
	changes, err := ordering.Resequence(ms, ids)
	if errors.Is(err, ordering.ErrMismatch) || errors.Is(err, ordering.ErrDuplicate) {
		return nil, invalid(op, "%v", err)
	}
	return changes, err
}
