package dynamo

import (
	"time"

	"github.com/jacentio/orchard/store"
)

// Attribute names shared with the stream compactor.
const (
	AttrID             = "id"
	AttrKind           = "kind"
	AttrOwnerID        = "owner_id"
	AttrContainerID    = "container_id"
	AttrSubContainerID = "sub_container_id"
	AttrStatus         = "status"
	AttrVersion        = "version"
)

type containerRecord struct {
	ID        string `dynamodbav:"id"`
	Kind      string `dynamodbav:"kind"`
	OwnerID   string `dynamodbav:"owner_id"`
	Name      string `dynamodbav:"name"`
	Color     string `dynamodbav:"color"`
	Icon      string `dynamodbav:"icon"`
	Order     int    `dynamodbav:"sort_order"`
	CreatedAt int64  `dynamodbav:"created_at"`
	Version   int64  `dynamodbav:"version"`
}

type subContainerRecord struct {
	ID          string `dynamodbav:"id"`
	Kind        string `dynamodbav:"kind"`
	ContainerID string `dynamodbav:"container_id"`
	OwnerID     string `dynamodbav:"owner_id"`
	Name        string `dynamodbav:"name"`
	Color       string `dynamodbav:"color"`
	Icon        string `dynamodbav:"icon,omitempty"`
	Order       int    `dynamodbav:"sort_order"`
	CreatedAt   int64  `dynamodbav:"created_at"`
	Version     int64  `dynamodbav:"version"`
}

type itemRecord struct {
	ID             string `dynamodbav:"id"`
	Kind           string `dynamodbav:"kind"`
	ContainerID    string `dynamodbav:"container_id"`
	SubContainerID string `dynamodbav:"sub_container_id,omitempty"`
	OwnerID        string `dynamodbav:"owner_id"`
	Title          string `dynamodbav:"title"`
	Notes          string `dynamodbav:"notes,omitempty"`
	Status         string `dynamodbav:"status"`
	Order          int    `dynamodbav:"sort_order"`
	CreatedAt      int64  `dynamodbav:"created_at"`
	CompletedAt    *int64 `dynamodbav:"completed_at,omitempty"`
	Version        int64  `dynamodbav:"version"`
}

func toContainerRecord(c store.Container) containerRecord {
	return containerRecord{
		ID:        c.ID,
		Kind:      string(store.KindContainer),
		OwnerID:   c.OwnerID,
		Name:      c.Name,
		Color:     c.Color,
		Icon:      c.Icon,
		Order:     c.Order,
		CreatedAt: c.CreatedAt.UnixMilli(),
		Version:   c.Version + 1,
	}
}

func (r containerRecord) entity() store.Container {
	return store.Container{
		ID:        r.ID,
		OwnerID:   r.OwnerID,
		Name:      r.Name,
		Color:     r.Color,
		Icon:      r.Icon,
		Order:     r.Order,
		CreatedAt: time.UnixMilli(r.CreatedAt).UTC(),
		Version:   r.Version,
	}
}

func toSubContainerRecord(s store.SubContainer) subContainerRecord {
	return subContainerRecord{
		ID:          s.ID,
		Kind:        string(store.KindSubContainer),
		ContainerID: s.ContainerID,
		OwnerID:     s.OwnerID,
		Name:        s.Name,
		Color:       s.Color,
		Icon:        s.Icon,
		Order:       s.Order,
		CreatedAt:   s.CreatedAt.UnixMilli(),
		Version:     s.Version + 1,
	}
}

func (r subContainerRecord) entity() store.SubContainer {
	return store.SubContainer{
		ID:          r.ID,
		ContainerID: r.ContainerID,
		OwnerID:     r.OwnerID,
		Name:        r.Name,
		Color:       r.Color,
		Icon:        r.Icon,
		Order:       r.Order,
		CreatedAt:   time.UnixMilli(r.CreatedAt).UTC(),
		Version:     r.Version,
	}
}

func toItemRecord(it store.Item) itemRecord {
	r := itemRecord{
		ID:             it.ID,
		Kind:           string(store.KindItem),
		ContainerID:    it.ContainerID,
		SubContainerID: it.SubContainerID,
		OwnerID:        it.OwnerID,
		Title:          it.Title,
		Notes:          it.Notes,
		Status:         string(it.Status),
		Order:          it.Order,
		CreatedAt:      it.CreatedAt.UnixMilli(),
		Version:        it.Version + 1,
	}
	if it.CompletedAt != nil {
		ms := it.CompletedAt.UnixMilli()
		r.CompletedAt = &ms
	}
	return r
}

func (r itemRecord) entity() store.Item {
	it := store.Item{
		ID:             r.ID,
		ContainerID:    r.ContainerID,
		SubContainerID: r.SubContainerID,
		OwnerID:        r.OwnerID,
		Title:          r.Title,
		Notes:          r.Notes,
		Status:         store.Status(r.Status),
		Order:          r.Order,
		CreatedAt:      time.UnixMilli(r.CreatedAt).UTC(),
		Version:        r.Version,
	}
	if r.CompletedAt != nil {
		at := time.UnixMilli(*r.CompletedAt).UTC()
		it.CompletedAt = &at
	}
	return it
}
