package scope

import (
	"testing"

	"github.com/jacentio/orchard/store"
)

func TestKeyString(t *testing.T) {
	tests := []struct {
		key      Key
		expected string
	}{
		{ForContainers("u1"), "owner#u1"},
		{ForSubContainers("c1"), "container#c1"},
		{ForItems("c1", "", store.StatusPending), "container#c1#root#pending"},
		{ForItems("c1", "f1", store.StatusComplete), "container#c1#f1#complete"},
	}

	for _, tt := range tests {
		if got := tt.key.String(); got != tt.expected {
			t.Errorf("String() = %q, want %q", got, tt.expected)
		}
	}
}

func TestParse_RoundTrip(t *testing.T) {
	keys := []Key{
		ForContainers("u1"),
		ForSubContainers("c1"),
		ForItems("c1", "", store.StatusPending),
		ForItems("c1", "f1", store.StatusComplete),
	}

	for _, k := range keys {
		got, err := Parse(k.String())
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", k.String(), err)
		}
		if got != k {
			t.Errorf("Parse(%q) = %+v, want %+v", k.String(), got, k)
		}
	}
}

func TestParse_Malformed(t *testing.T) {
	inputs := []string{
		"",
		"owner#",
		"container#",
		"container#c1#root",
		"container#c1#root#done",
		"folder#f1",
		"container##root#pending",
	}

	for _, in := range inputs {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q): expected error", in)
		}
	}
}

func TestOfItem(t *testing.T) {
	root := store.Item{ID: "i1", ContainerID: "c1", Status: store.StatusPending}
	nested := store.Item{ID: "i2", ContainerID: "c1", SubContainerID: "f1", Status: store.StatusComplete}

	if got := OfItem(root).String(); got != "container#c1#root#pending" {
		t.Errorf("OfItem(root) = %q", got)
	}
	if got := OfItem(nested).String(); got != "container#c1#f1#complete" {
		t.Errorf("OfItem(nested) = %q", got)
	}
}

func TestOfContainerAndSubContainer(t *testing.T) {
	c := store.Container{ID: "c1", OwnerID: "u1"}
	if got := OfContainer(c); got != ForContainers("u1") {
		t.Errorf("OfContainer = %+v", got)
	}

	s := store.SubContainer{ID: "f1", ContainerID: "c1", OwnerID: "u1"}
	if got := OfSubContainer(s); got != ForSubContainers("c1") {
		t.Errorf("OfSubContainer = %+v", got)
	}
}

func TestContains(t *testing.T) {
	k := ForItems("c1", "f1", store.StatusPending)

	tests := []struct {
		name     string
		item     store.Item
		expected bool
	}{
		{"same partition", store.Item{ContainerID: "c1", SubContainerID: "f1", Status: store.StatusPending}, true},
		{"other status", store.Item{ContainerID: "c1", SubContainerID: "f1", Status: store.StatusComplete}, false},
		{"root", store.Item{ContainerID: "c1", Status: store.StatusPending}, false},
		{"other container", store.Item{ContainerID: "c2", SubContainerID: "f1", Status: store.StatusPending}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := k.Contains(tt.item); got != tt.expected {
				t.Errorf("Contains() = %v, want %v", got, tt.expected)
			}
		})
	}

	if ForSubContainers("c1").Contains(store.Item{ContainerID: "c1"}) {
		t.Error("sub-container partition must not contain items")
	}
}
