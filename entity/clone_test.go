package entity

import (
	"testing"

	"github.com/google/uuid"
)

type cloneLeaf struct {
	Base
	Tags []string
}

type cloneParent struct {
	Base
	Children List
}

func TestShallowCloneDeepCopiesPlainFields(t *testing.T) {
	leaf := &cloneLeaf{Base: NewBase(), Tags: []string{"a", "b"}}
	clone := ShallowClone(leaf).(*cloneLeaf)

	clone.Tags[0] = "mutated"
	if leaf.Tags[0] == "mutated" {
		t.Fatal("mutating the clone's plain field must not affect the original")
	}

	if clone.EcsID != leaf.EcsID {
		t.Fatal("ShallowClone must preserve ecs_id")
	}
	if clone.LiveID != leaf.LiveID {
		t.Fatal("ShallowClone does not itself re-stamp live_id; that is the caller's job")
	}
}

func TestRelinkChildren(t *testing.T) {
	child := &cloneLeaf{Base: NewBase()}
	parent := &cloneParent{Base: NewBase(), Children: List{child}}

	childClone := ShallowClone(child)
	parentClone := ShallowClone(parent).(*cloneParent)

	byID := map[uuid.UUID]Entity{
		child.EcsID: childClone,
	}
	RelinkChildren(parentClone, byID)

	if len(parentClone.Children) != 1 {
		t.Fatalf("expected one relinked child, got %d", len(parentClone.Children))
	}
	if parentClone.Children[0] != childClone {
		t.Fatal("RelinkChildren must retarget the cloned parent's field at the provided clone")
	}
	if parent.Children[0] != child {
		t.Fatal("RelinkChildren must not mutate the original parent's field")
	}
}
