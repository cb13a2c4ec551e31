package store

import "context"

// Tx is a unit of work against the entity store.
//
// Put writes the full record. A record with Version 0 is inserted; any other
// Version must match the stored one. Delete is conditioned the same way.
type Tx interface {
	// Container returns the container with the given ID or ErrNotFound.
	Container(ctx context.Context, id string) (Container, error)

	// Containers returns every container owned by ownerID, in no particular order.
	Containers(ctx context.Context, ownerID string) ([]Container, error)

	PutContainer(ctx context.Context, c Container) error
	DeleteContainer(ctx context.Context, c Container) error

	// SubContainer returns the sub-container with the given ID or ErrNotFound.
	SubContainer(ctx context.Context, id string) (SubContainer, error)

	// SubContainers returns every sub-container of containerID, in no particular order.
	SubContainers(ctx context.Context, containerID string) ([]SubContainer, error)

	PutSubContainer(ctx context.Context, s SubContainer) error
	DeleteSubContainer(ctx context.Context, s SubContainer) error

	// Item returns the item with the given ID or ErrNotFound.
	Item(ctx context.Context, id string) (Item, error)

	// Items returns every item of containerID across all sub-containers and
	// the root, in no particular order.
	Items(ctx context.Context, containerID string) ([]Item, error)

	PutItem(ctx context.Context, it Item) error
	DeleteItem(ctx context.Context, it Item) error
}

// Backend runs units of work.
type Backend interface {
	// Update runs fn in a read-write unit of work. If fn returns an error no
	// write is applied; otherwise all staged writes are committed atomically.
	Update(ctx context.Context, fn func(Tx) error) error

	// View runs fn in a read-only unit of work.
	View(ctx context.Context, fn func(Tx) error) error

	// Close releases backend resources.
	Close() error
}

// WriteLimiter is implemented by backends that cannot commit more than
// MaxWrites writes in one unit of work.
type WriteLimiter interface {
	MaxWrites() int
}
