package registry

import (
	"errors"
	"testing"

	"github.com/arthur-debert/entigraph/entity"
)

type regNode struct {
	entity.Base
	Name     string
	Children entity.List
}

func newRegNode(name string) *regNode {
	return &regNode{Base: entity.NewBase(), Name: name}
}

func TestRegisterRootAndGetTree(t *testing.T) {
	r := New()
	root := newRegNode("root")
	child := newRegNode("child")
	root.Children = entity.List{child}
	root.RootEcsID = root.EcsID

	if err := r.RegisterRoot(root); err != nil {
		t.Fatalf("RegisterRoot returned error: %v", err)
	}

	t1, ok := r.GetTree(root.EcsID)
	if !ok {
		t.Fatal("expected the registered root to be retrievable")
	}
	t2, ok := r.GetTree(root.EcsID)
	if !ok {
		t.Fatal("expected a second retrieval to succeed")
	}

	if t1 == t2 {
		t.Fatal("GetTree must return a fresh copy on every call")
	}
	rootNode1 := t1.Nodes[root.EcsID]
	rootNode2 := t2.Nodes[root.EcsID]
	if rootNode1.GetBase().LiveID == rootNode2.GetBase().LiveID {
		t.Fatal("two retrievals must re-stamp distinct live_ids")
	}
	if rootNode1.GetBase().EcsID != rootNode2.GetBase().EcsID {
		t.Fatal("two retrievals must agree on ecs_id")
	}
}

func TestRegisterRootRejectsNonRoot(t *testing.T) {
	r := New()
	n := newRegNode("n")
	err := r.RegisterRoot(n)
	if !errors.Is(err, entity.ErrNotARoot) {
		t.Fatalf("err = %v, want ErrNotARoot", err)
	}
}

func TestRegisterRootRejectsDuplicate(t *testing.T) {
	r := New()
	root := newRegNode("root")
	root.RootEcsID = root.EcsID

	if err := r.RegisterRoot(root); err != nil {
		t.Fatalf("first RegisterRoot returned error: %v", err)
	}
	err := r.RegisterRoot(root)
	if !errors.Is(err, entity.ErrDuplicateRegistration) {
		t.Fatalf("err = %v, want ErrDuplicateRegistration", err)
	}
}

func TestVersionEntityNoopWhenNothingChanged(t *testing.T) {
	r := New()
	root := newRegNode("root")
	root.RootEcsID = root.EcsID
	if err := r.RegisterRoot(root); err != nil {
		t.Fatalf("RegisterRoot returned error: %v", err)
	}

	changed, err := r.VersionEntity(root, false)
	if err != nil {
		t.Fatalf("VersionEntity returned error: %v", err)
	}
	if changed {
		t.Fatal("expected no new version when nothing changed")
	}
}

func TestVersionEntityPropagatesLeafChangeToRoot(t *testing.T) {
	r := New()
	root := newRegNode("root")
	child := newRegNode("child")
	root.Children = entity.List{child}
	root.RootEcsID = root.EcsID
	if err := r.RegisterRoot(root); err != nil {
		t.Fatalf("RegisterRoot returned error: %v", err)
	}

	oldRootID := root.EcsID
	child.Name = "renamed"

	changed, err := r.VersionEntity(root, false)
	if err != nil {
		t.Fatalf("VersionEntity returned error: %v", err)
	}
	if !changed {
		t.Fatal("expected a new version after a leaf field changed")
	}
	if root.EcsID == oldRootID {
		t.Fatal("expected the live root object to be re-stamped in place")
	}

	if _, ok := r.GetTree(oldRootID); !ok {
		t.Fatal("the old root id must still resolve to its immutable stored snapshot")
	}
	if _, ok := r.GetTree(root.EcsID); !ok {
		t.Fatal("the new root id must resolve to the newly registered tree")
	}

	lineageRoots := r.RootsByLineage(root.LineageID)
	if len(lineageRoots) != 2 {
		t.Fatalf("RootsByLineage = %v, want 2 entries", lineageRoots)
	}
}

func TestClearResetsAllIndices(t *testing.T) {
	r := New()
	root := newRegNode("root")
	root.RootEcsID = root.EcsID
	if err := r.RegisterRoot(root); err != nil {
		t.Fatalf("RegisterRoot returned error: %v", err)
	}

	r.Clear()

	if _, ok := r.GetTree(root.EcsID); ok {
		t.Fatal("expected Clear to remove previously registered trees")
	}
}
