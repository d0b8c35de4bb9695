package entity

import (
	"testing"

	"github.com/google/uuid"
)

type plainLeaf struct {
	Base
	Name string
}

func TestNewBase(t *testing.T) {
	b := NewBase()

	if b.EcsID == uuid.Nil {
		t.Fatal("expected a non-nil ecs_id")
	}
	if b.LiveID == uuid.Nil {
		t.Fatal("expected a non-nil live_id")
	}
	if b.EcsID == b.LiveID {
		t.Fatal("ecs_id and live_id must be distinct identities")
	}
	if !b.IsOrphan() {
		t.Fatal("a freshly constructed Base should be an orphan")
	}
	if b.IsRoot() {
		t.Fatal("an orphan is not a root")
	}
}

func TestFork(t *testing.T) {
	b := NewBase()
	old := b.EcsID
	b.Fork()

	if b.EcsID == old {
		t.Fatal("fork must mint a new ecs_id")
	}
	if b.PreviousEcsID != old {
		t.Fatalf("PreviousEcsID = %s, want %s", b.PreviousEcsID, old)
	}
	if len(b.OldIDs) != 1 || b.OldIDs[0] != old {
		t.Fatalf("OldIDs = %v, want [%s]", b.OldIDs, old)
	}
	if b.ForkedAt.IsZero() {
		t.Fatal("ForkedAt should be set after a fork")
	}
}

func TestEqual(t *testing.T) {
	a := &plainLeaf{Base: NewBase(), Name: "a"}
	root := uuid.New()
	a.RootEcsID = root

	b := &plainLeaf{Base: a.Base, Name: "a"}
	b.LiveID = uuid.New()

	if !Equal(a, b) {
		t.Fatal("entities with the same (ecs_id, root_ecs_id) and different live_id must compare equal")
	}

	c := &plainLeaf{Base: a.Base, Name: "a"}
	c.RootEcsID = uuid.New()
	if Equal(a, c) {
		t.Fatal("a changed root_ecs_id must break equality even with the same ecs_id")
	}
}
