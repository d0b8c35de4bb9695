// Package treebuild constructs an immutable entity.EntityTree from a live
// root entity via a single-pass breadth-first traversal, per spec.md §4.2.
package treebuild

import (
	"github.com/google/uuid"

	"github.com/arthur-debert/entigraph/entity"
)

type queueItem struct {
	node      entity.Entity
	parentID  uuid.UUID
	fieldName string
	hasParent bool
}

func edgeKindFor(fk entity.FieldKind) entity.EdgeKind {
	switch fk {
	case entity.ListOfEntity:
		return entity.ListEdge
	case entity.TupleOfEntity:
		return entity.TupleEdge
	case entity.DictOfEntity:
		return entity.DictEdge
	case entity.SetOfEntity:
		return entity.SetEdge
	default:
		return entity.Direct
	}
}

// Build runs the BFS tree builder over root, returning a fully populated
// EntityTree or an error. On any error, no partial tree is returned.
//
// Complexity is O(N+E) in the number of nodes and edges: every node is
// field-scanned exactly once, and every edge is emitted exactly once, at
// the point its target is first discovered.
func Build(root entity.Entity) (*entity.EntityTree, error) {
	rb := root.GetBase()
	tree := entity.NewEntityTree(rb.EcsID, rb.LineageID)
	tree.AddNode(root)
	tree.AncestryPaths[rb.EcsID] = []uuid.UUID{rb.EcsID}

	queue := []queueItem{{node: root, hasParent: false}}
	processed := make(map[uuid.UUID]bool)

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		id := item.node.GetBase().EcsID

		if processed[id] && item.hasParent {
			return nil, entity.NewError(entity.ErrCycleDetected, id,
				"entity reachable from the root through more than one parent; entities must form a tree")
		}

		if item.hasParent {
			key, edge, found := tree.Edge(item.parentID, id, item.fieldName)
			if !found {
				return nil, entity.NewError(entity.ErrInvariantViolation, id,
					"expected parent edge missing during tree build")
			}
			edge.IsHierarchical = true
			tree.SetEdge(key, edge)

			parentPath := tree.AncestryPaths[item.parentID]
			candidate := make([]uuid.UUID, 0, len(parentPath)+1)
			candidate = append(candidate, parentPath...)
			candidate = append(candidate, id)
			if existing, ok := tree.AncestryPaths[id]; !ok || len(candidate) < len(existing) {
				tree.AncestryPaths[id] = candidate
			}
		}

		if !processed[id] {
			for _, child := range entity.Children(item.node) {
				cb := child.Entity.GetBase()
				tree.AddNode(child.Entity)
				tree.AddEdge(entity.EntityEdge{
					SourceEcsID:    id,
					TargetEcsID:    cb.EcsID,
					Kind:           edgeKindFor(child.Kind),
					FieldName:      child.FieldName,
					ContainerIndex: child.ContainerIndex,
					ContainerKey:   child.ContainerKey,
					Ownership:      true,
				})
				queue = append(queue, queueItem{
					node:      child.Entity,
					parentID:  id,
					fieldName: child.FieldName,
					hasParent: true,
				})
			}
		}

		processed[id] = true
	}

	for id := range tree.Nodes {
		if _, ok := tree.AncestryPaths[id]; !ok {
			return nil, entity.NewError(entity.ErrInvariantViolation, id, "node has no ancestry path after build")
		}
	}

	return tree, nil
}
