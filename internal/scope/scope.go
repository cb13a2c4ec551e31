// Package scope computes the ordering partition that an entity ranks within.
package scope

import (
	"fmt"
	"strings"

	"github.com/jacentio/orchard/store"
)

// Root is the sub-container segment used for items at the container root.
const Root = "root"

// Key identifies one sibling set whose orders must stay dense.
type Key struct {
	Kind store.Kind

	// OwnerID is set for container partitions.
	OwnerID string

	// ContainerID is set for sub-container and item partitions.
	ContainerID string

	// SubContainerID is set for item partitions; empty means the container root.
	SubContainerID string

	// Status is set for item partitions.
	Status store.Status
}

// ForContainers returns the partition of all containers owned by ownerID.
func ForContainers(ownerID string) Key {
	return Key{Kind: store.KindContainer, OwnerID: ownerID}
}

// ForSubContainers returns the partition of all sub-containers of containerID.
func ForSubContainers(containerID string) Key {
	return Key{Kind: store.KindSubContainer, ContainerID: containerID}
}

// ForItems returns the item partition at (containerID, subContainerID-or-root, status).
func ForItems(containerID, subContainerID string, status store.Status) Key {
	return Key{
		Kind:           store.KindItem,
		ContainerID:    containerID,
		SubContainerID: subContainerID,
		Status:         status,
	}
}

// OfContainer returns the partition c currently ranks within.
func OfContainer(c store.Container) Key {
	return ForContainers(c.OwnerID)
}

// OfSubContainer returns the partition s currently ranks within.
func OfSubContainer(s store.SubContainer) Key {
	return ForSubContainers(s.ContainerID)
}

// OfItem returns the partition it currently ranks within.
func OfItem(it store.Item) Key {
	return ForItems(it.ContainerID, it.SubContainerID, it.Status)
}

// Contains reports whether it is a member of the item partition k.
func (k Key) Contains(it store.Item) bool {
	return k.Kind == store.KindItem &&
		it.ContainerID == k.ContainerID &&
		it.SubContainerID == k.SubContainerID &&
		it.Status == k.Status
}

// String returns the stable textual form of the key:
//
//	owner#<ownerID>
//	container#<containerID>
//	container#<containerID>#<subContainerID|root>#<status>
func (k Key) String() string {
	switch k.Kind {
	case store.KindContainer:
		return "owner#" + k.OwnerID
	case store.KindSubContainer:
		return "container#" + k.ContainerID
	default:
		sub := k.SubContainerID
		if sub == "" {
			sub = Root
		}
		return fmt.Sprintf("container#%s#%s#%s", k.ContainerID, sub, k.Status)
	}
}

// Parse is the inverse of Key.String.
func Parse(s string) (Key, error) {
	parts := strings.Split(s, "#")
	switch {
	case len(parts) == 2 && parts[0] == "owner" && parts[1] != "":
		return ForContainers(parts[1]), nil
	case len(parts) == 2 && parts[0] == "container" && parts[1] != "":
		return ForSubContainers(parts[1]), nil
	case len(parts) == 4 && parts[0] == "container" && parts[1] != "" && parts[2] != "":
		status := store.Status(parts[3])
		if !status.IsValid() {
			return Key{}, fmt.Errorf("scope: invalid status %q in %q", parts[3], s)
		}
		sub := parts[2]
		if sub == Root {
			sub = ""
		}
		return ForItems(parts[1], sub, status), nil
	}
	return Key{}, fmt.Errorf("scope: malformed partition key %q", s)
}
