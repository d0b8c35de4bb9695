package lifecycle

import (
	"errors"
	"testing"

	"github.com/arthur-debert/entigraph/entity"
	"github.com/arthur-debert/entigraph/event"
	"github.com/arthur-debert/entigraph/registry"
)

type lcNode struct {
	entity.Base
	Name     string
	Children entity.List
	Tags     []string
}

func newLCNode(name string) *lcNode {
	return &lcNode{Base: entity.NewBase(), Name: name}
}

func TestPromoteOrphanToRoot(t *testing.T) {
	r := registry.New()
	n := newLCNode("n")

	if err := PromoteToRoot(r, n); err != nil {
		t.Fatalf("PromoteToRoot returned error: %v", err)
	}
	if !n.IsRoot() {
		t.Fatal("expected the orphan to become a root")
	}
	if _, ok := r.GetTree(n.EcsID); !ok {
		t.Fatal("expected PromoteToRoot to register the new root")
	}
}

func TestPromoteAttachedEntityStartsNewLineage(t *testing.T) {
	r := registry.New()
	root := newLCNode("root")
	child := newLCNode("child")
	root.Children = entity.List{child}
	root.RootEcsID = root.EcsID
	if err := r.RegisterRoot(root); err != nil {
		t.Fatalf("RegisterRoot returned error: %v", err)
	}

	oldLineage := child.LineageID

	if err := PromoteToRoot(r, child); err != nil {
		t.Fatalf("PromoteToRoot returned error: %v", err)
	}
	if !child.IsRoot() {
		t.Fatal("expected child to become its own root")
	}
	if child.LineageID == oldLineage {
		t.Fatal("expected PromoteToRoot to assign a fresh lineage to a previously attached entity")
	}
}

func TestDetachRootIsVersioned(t *testing.T) {
	r := registry.New()
	root := newLCNode("root")
	root.RootEcsID = root.EcsID
	if err := r.RegisterRoot(root); err != nil {
		t.Fatalf("RegisterRoot returned error: %v", err)
	}

	if err := Detach(r, root); err != nil {
		t.Fatalf("Detach returned error: %v", err)
	}
}

func TestAttachRequiresSourceToBeRoot(t *testing.T) {
	r := registry.New()
	root := newLCNode("root")
	child := newLCNode("child")
	root.Children = entity.List{child}
	root.RootEcsID = root.EcsID
	if err := r.RegisterRoot(root); err != nil {
		t.Fatalf("RegisterRoot returned error: %v", err)
	}

	other := newLCNode("other")
	other.RootEcsID = other.EcsID
	if err := r.RegisterRoot(other); err != nil {
		t.Fatalf("RegisterRoot returned error: %v", err)
	}

	err := Attach(r, child, other)
	if !errors.Is(err, entity.ErrNotARoot) {
		t.Fatalf("err = %v, want ErrNotARoot", err)
	}
}

func TestAttachMovesRootUnderNewParent(t *testing.T) {
	r := registry.New()
	target := newLCNode("target")
	target.RootEcsID = target.EcsID
	if err := r.RegisterRoot(target); err != nil {
		t.Fatalf("RegisterRoot returned error: %v", err)
	}

	newParent := newLCNode("parent")
	newParent.RootEcsID = newParent.EcsID
	if err := r.RegisterRoot(newParent); err != nil {
		t.Fatalf("RegisterRoot returned error: %v", err)
	}

	// Caller performs the physical attachment first, per Attach's contract.
	newParent.Children = entity.List{target}

	if err := Attach(r, target, newParent); err != nil {
		t.Fatalf("Attach returned error: %v", err)
	}
	if target.LineageID != newParent.LineageID {
		t.Fatal("expected the moved entity to join the new parent's lineage")
	}
	if target.IsRoot() {
		t.Fatal("expected the moved entity to no longer be a root")
	}
}

func TestBorrowAttributeFromDeepCopiesPlainData(t *testing.T) {
	r := registry.New()
	source := newLCNode("source")
	source.RootEcsID = source.EcsID
	source.Tags = []string{"x", "y"}

	target := newLCNode("target")
	target.RootEcsID = target.EcsID

	if err := BorrowAttributeFrom(r, target, source, "Tags", "Tags"); err != nil {
		t.Fatalf("BorrowAttributeFrom returned error: %v", err)
	}
	if len(target.Tags) != 2 {
		t.Fatalf("target.Tags = %v, want 2 elements", target.Tags)
	}

	target.Tags[0] = "mutated"
	if source.Tags[0] == "mutated" {
		t.Fatal("borrowed plain data must be deep-copied, not aliased")
	}

	src, ok := target.AttributeSource["Tags"]
	if !ok {
		t.Fatal("expected AttributeSource to record the borrowed field's provenance")
	}
	if src.Kind != entity.SourceList || len(src.List) != 2 || src.List[0] != source.EcsID {
		t.Fatalf("unexpected provenance record: %+v", src)
	}
}

func TestBorrowAttributeFromMissingField(t *testing.T) {
	r := registry.New()
	source := newLCNode("source")
	target := newLCNode("target")
	err := BorrowAttributeFrom(r, target, source, "DoesNotExist", "Tags")
	if !errors.Is(err, entity.ErrFieldNotFound) {
		t.Fatalf("err = %v, want ErrFieldNotFound", err)
	}
}

func TestLifecycleOperationsEmitPairedEvents(t *testing.T) {
	counts := make(map[event.Op]map[event.Phase]int)
	record := func(e event.Event) {
		if counts[e.Op] == nil {
			counts[e.Op] = make(map[event.Phase]int)
		}
		counts[e.Op][e.Phase]++
	}
	r := registry.New(registry.WithSink(event.Func(record)))

	n := newLCNode("n")
	if err := PromoteToRoot(r, n); err != nil {
		t.Fatalf("PromoteToRoot returned error: %v", err)
	}
	if err := BorrowAttributeFrom(r, n, n, "Name", "Name"); err != nil {
		t.Fatalf("BorrowAttributeFrom returned error: %v", err)
	}
	if err := Detach(r, n); err != nil {
		t.Fatalf("Detach returned error: %v", err)
	}

	for _, op := range []event.Op{event.OpPromoteToRoot, event.OpBorrowAttribute, event.OpDetach} {
		if counts[op][event.PhaseStarting] != 1 {
			t.Errorf("%s starting count = %d, want 1", op, counts[op][event.PhaseStarting])
		}
		if counts[op][event.PhaseCompleted] != 1 {
			t.Errorf("%s completed count = %d, want 1", op, counts[op][event.PhaseCompleted])
		}
	}
}

