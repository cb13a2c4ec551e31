// Package ordering implements dense-rank maintenance for one partition.
//
// Functions here are pure: they take the current members of a partition and
// return the order changes to persist. Only members whose order actually
// changes are returned, so callers write the minimum set of records.
package ordering

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	// ErrMismatch is returned when a resequence list does not name exactly the
	// current members of the partition.
	ErrMismatch = errors.New("ordering: id list does not match partition membership")

	// ErrDuplicate is returned when a resequence list names a member twice.
	ErrDuplicate = errors.New("ordering: duplicate id in list")
)

// Member is one ranked record of a partition.
type Member struct {
	ID        string
	Order     int
	CreatedAt time.Time
}

// Change assigns a new order to a member.
type Change struct {
	ID    string
	Order int
}

// Sort orders members by order, then creation time, then ID.
func Sort(members []Member) {
	sort.SliceStable(members, func(i, j int) bool {
		a, b := members[i], members[j]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// Top makes room for a new member at order 0. Existing members are re-ranked
// 1..n in sort order, which for a dense partition is an increment by one and
// for a gapped partition also closes the gaps.
func Top(members []Member) []Change {
	return rank(members, 1)
}

// Bottom returns the order for a member appended after every existing member.
func Bottom(members []Member) int {
	next := 0
	for _, m := range members {
		if m.Order >= next {
			next = m.Order + 1
		}
	}
	return next
}

// Compact re-ranks members 0..n-1 in sort order.
func Compact(members []Member) []Change {
	return rank(members, 0)
}

// Resequence assigns each member the index of its ID in ids. ids must name
// every member exactly once and nothing else.
func Resequence(members []Member, ids []string) ([]Change, error) {
	current := make(map[string]int, len(members))
	for _, m := range members {
		current[m.ID] = m.Order
	}

	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicate, id)
		}
		seen[id] = true
		if _, ok := current[id]; !ok {
			return nil, fmt.Errorf("%w: %s is not a member", ErrMismatch, id)
		}
	}
	if len(ids) != len(members) {
		return nil, fmt.Errorf("%w: got %d ids for %d members", ErrMismatch, len(ids), len(members))
	}

	var changes []Change
	for i, id := range ids {
		if current[id] != i {
			changes = append(changes, Change{ID: id, Order: i})
		}
	}
	return changes, nil
}

// IsDense reports whether the member orders are exactly {0..n-1}.
func IsDense(members []Member) bool {
	seen := make([]bool, len(members))
	for _, m := range members {
		if m.Order < 0 || m.Order >= len(members) || seen[m.Order] {
			return false
		}
		seen[m.Order] = true
	}
	return true
}

// rank assigns start, start+1, ... in sort order and returns the changes.
// members is not modified.
func rank(members []Member, start int) []Change {
	sorted := make([]Member, len(members))
	copy(sorted, members)
	Sort(sorted)

	var changes []Change
	for i, m := range sorted {
		if want := start + i; m.Order != want {
			changes = append(changes, Change{ID: m.ID, Order: want})
		}
	}
	return changes
}
