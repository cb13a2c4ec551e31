package store

import "time"

// Kind names an entity kind. It is persisted alongside each record.
type Kind string

const (
	KindContainer    Kind = "container"
	KindSubContainer Kind = "sub_container"
	KindItem         Kind = "item"
)

// Status is the completion state of an Item.
type Status string

const (
	StatusPending  Status = "pending"
	StatusComplete Status = "complete"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusComplete:
		return true
	}
	return false
}

// Toggled returns the opposite status.
func (s Status) Toggled() Status {
	if s == StatusComplete {
		return StatusPending
	}
	return StatusComplete
}

// Container is a top-level grouping owned by one user.
type Container struct {
	ID        string
	OwnerID   string
	Name      string
	Color     string
	Icon      string
	Order     int
	CreatedAt time.Time

	// Version is the optimistic lock version (0 for records not yet stored).
	Version int64
}

// SubContainer groups Items inside one Container.
type SubContainer struct {
	ID          string
	ContainerID string
	OwnerID     string
	Name        string
	Color       string
	Icon        string
	Order       int
	CreatedAt   time.Time

	// Version is the optimistic lock version (0 for records not yet stored).
	Version int64
}

// Item is a single work item. An empty SubContainerID places the item at the
// container root.
type Item struct {
	ID             string
	ContainerID    string
	SubContainerID string
	OwnerID        string
	Title          string
	Notes          string
	Status         Status
	Order          int
	CreatedAt      time.Time

	// CompletedAt is set iff Status is StatusComplete.
	CompletedAt *time.Time

	// Version is the optimistic lock version (0 for records not yet stored).
	Version int64
}

// AtRoot reports whether the item lives at its container root.
func (it Item) AtRoot() bool {
	return it.SubContainerID == ""
}
