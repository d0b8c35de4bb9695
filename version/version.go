// Package version implements the versioning engine: given a diffed pair of
// trees and a modified set, it re-stamps exactly the modified entities and
// rewrites the new tree's indices to reflect their fresh ids, per
// spec.md §4.4. It has no dependency on the registry; the registry package
// is the only caller.
package version

import (
	"github.com/google/uuid"

	"github.com/arthur-debert/entigraph/entity"
)

// Outcome is the result of a successful Apply: the rewritten tree (already
// consistent across all its indices), the id remapping applied, and the
// new root id for convenience.
type Outcome struct {
	Tree      *entity.EntityTree
	IDMap     map[uuid.UUID]uuid.UUID
	NewRootID uuid.UUID
	OldRootID uuid.UUID
}

// Apply re-stamps every entity named in modified (which must be a subset
// of newTree.Nodes' keys and must contain the tree's current root) and
// rewrites newTree's nodes/edges/ancestry-paths/live-id index/root_ecs_id
// in place to use the fresh ids. newTree.Nodes must hold the live entity
// objects (pointers), since Apply mutates their Base fields directly.
func Apply(root entity.Entity, newTree *entity.EntityTree, modified map[uuid.UUID]struct{}) (*Outcome, error) {
	rb := root.GetBase()
	oldRootID := rb.EcsID

	if _, ok := modified[oldRootID]; !ok {
		return nil, entity.NewError(entity.ErrInvariantViolation, oldRootID,
			"modified set is non-empty but does not contain the root; every ancestry path passes through it")
	}

	idMap := make(map[uuid.UUID]uuid.UUID, len(modified))

	// Snapshot the pre-fork state of every node so the index rewrite below
	// can look up each node's *old* id after the live objects have already
	// been mutated in place.
	type snapshot struct {
		oldID uuid.UUID
		node  entity.Entity
	}
	snapshots := make([]snapshot, 0, len(newTree.Nodes))
	for id, n := range newTree.Nodes {
		snapshots = append(snapshots, snapshot{oldID: id, node: n})
	}

	// Step 5 — stamp the root first.
	rb.Fork()
	rb.RootEcsID = rb.EcsID
	newRootID := rb.EcsID
	idMap[oldRootID] = newRootID

	// Step 6 — stamp every other modified entity.
	for id, n := range newTree.Nodes {
		if id == oldRootID {
			continue
		}
		if _, ok := modified[id]; !ok {
			continue
		}
		b := n.GetBase()
		b.Fork()
		b.RootEcsID = newRootID
		idMap[id] = b.EcsID
	}

	// Every node, modified or not, now belongs to the newly versioned
	// root; entities untouched by this version keep their ecs_id but their
	// root back-pointer must track the tree they actually belong to.
	for _, s := range snapshots {
		s.node.GetBase().RootEcsID = newRootID
	}

	remap := func(id uuid.UUID) uuid.UUID {
		if n, ok := idMap[id]; ok {
			return n
		}
		return id
	}

	// Step 7 — rewrite nodes.
	newNodes := make(map[uuid.UUID]entity.Entity, len(snapshots))
	for _, s := range snapshots {
		newNodes[remap(s.oldID)] = s.node
	}
	newTree.Nodes = newNodes

	// Rewrite edges and recompute adjacency from scratch.
	newEdges := make(map[entity.EdgeKey]entity.EntityEdge, len(newTree.Edges))
	newOutgoing := make(map[uuid.UUID][]uuid.UUID)
	newIncoming := make(map[uuid.UUID][]uuid.UUID)
	for _, e := range newTree.Edges {
		e.SourceEcsID = remap(e.SourceEcsID)
		e.TargetEcsID = remap(e.TargetEcsID)
		newEdges[e.Key()] = e
		newOutgoing[e.SourceEcsID] = append(newOutgoing[e.SourceEcsID], e.TargetEcsID)
		newIncoming[e.TargetEcsID] = append(newIncoming[e.TargetEcsID], e.SourceEcsID)
	}
	newTree.Edges = newEdges
	newTree.Outgoing = newOutgoing
	newTree.Incoming = newIncoming

	// Rewrite ancestry paths.
	newPaths := make(map[uuid.UUID][]uuid.UUID, len(newTree.AncestryPaths))
	for id, path := range newTree.AncestryPaths {
		remapped := make([]uuid.UUID, len(path))
		for i, p := range path {
			remapped[i] = remap(p)
		}
		newPaths[remap(id)] = remapped
	}
	newTree.AncestryPaths = newPaths

	// Rewrite live-id index values (live_id itself never changes here).
	newLiveIdx := make(map[uuid.UUID]uuid.UUID, len(newTree.LiveIDIndex))
	for liveID, ecsID := range newTree.LiveIDIndex {
		newLiveIdx[liveID] = remap(ecsID)
	}
	newTree.LiveIDIndex = newLiveIdx

	// Step 8/9 — align root and lineage.
	newTree.RootEcsID = newRootID
	newTree.LineageID = rb.LineageID

	return &Outcome{
		Tree:      newTree,
		IDMap:     idMap,
		NewRootID: newRootID,
		OldRootID: oldRootID,
	}, nil
}
