package diff

import (
	"testing"

	"github.com/arthur-debert/entigraph/entity"
	"github.com/arthur-debert/entigraph/treebuild"
)

type diffNode struct {
	entity.Base
	Name     string
	Children entity.List
}

func newDiffNode(name string) *diffNode {
	return &diffNode{Base: entity.NewBase(), Name: name}
}

func buildTwoBranchTree(t *testing.T) (*diffNode, *diffNode, *diffNode, *entity.EntityTree) {
	t.Helper()
	root := newDiffNode("root")
	left := newDiffNode("left")
	right := newDiffNode("right")
	root.Children = entity.List{left, right}
	root.RootEcsID = root.EcsID

	tree, err := treebuild.Build(root)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	return root, left, right, tree
}

func TestComputeDetectsLeafOnlyChange(t *testing.T) {
	root, left, right, oldTree := buildTwoBranchTree(t)

	// The old tree holds the original objects, so the changed leaf is a
	// copy with the same ecs_id rather than an in-place mutation.
	changedLeft := entity.ShallowClone(left).(*diffNode)
	changedLeft.Name = "left-changed"
	root.Children[0] = changedLeft
	newTree, err := treebuild.Build(root)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	result := Compute(oldTree, newTree)

	if _, ok := result.Modified[left.EcsID]; !ok {
		t.Error("expected changed leaf to be in Modified")
	}
	if _, ok := result.Modified[oldTree.RootEcsID]; !ok {
		t.Error("expected root to be in Modified (ancestry path propagation)")
	}
	if _, ok := result.Unchanged[right.EcsID]; !ok {
		t.Error("expected untouched sibling branch to be Unchanged")
	}
}

func TestComputeDetectsAddedEntity(t *testing.T) {
	root, _, _, oldTree := buildTwoBranchTree(t)

	added := newDiffNode("added")
	root.Children = append(root.Children, added)
	newTree, err := treebuild.Build(root)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	result := Compute(oldTree, newTree)

	if _, ok := result.Added[added.EcsID]; !ok {
		t.Error("expected the new entity to be in Added")
	}
	if _, ok := result.Modified[root.EcsID]; !ok {
		t.Error("expected root to be in Modified since the added node's ancestry path includes it")
	}
}

func TestComputeDetectsMove(t *testing.T) {
	root, left, right, _ := buildTwoBranchTree(t)

	movable := newDiffNode("movable")
	leftNode := left
	leftNode.Children = entity.List{movable}
	// Rebuild so `movable` starts out under left.
	oldTreeWithChild, err := treebuild.Build(root)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	leftNode.Children = nil
	right.Children = entity.List{movable}
	newTree, err := treebuild.Build(root)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	result := Compute(oldTreeWithChild, newTree)

	if _, ok := result.Moved[movable.EcsID]; !ok {
		t.Error("expected the relocated entity to be in Moved")
	}
	if _, ok := result.Modified[root.EcsID]; !ok {
		t.Error("expected root to be Modified after a descendant moved")
	}
}
