package entity

import "github.com/google/uuid"

// EntityTree is an immutable-by-convention snapshot of one entity graph,
// rooted at RootEcsID. Callers must never mutate a tree retrieved from the
// registry; construct a new one instead (the tree builder, or the
// versioning engine's index rewrite).
type EntityTree struct {
	RootEcsID uuid.UUID
	LineageID uuid.UUID

	Nodes map[uuid.UUID]Entity
	Edges map[EdgeKey]EntityEdge

	// Outgoing/Incoming are adjacency indices keyed by ecs_id. Outgoing
	// may list the same target more than once if two distinct fields
	// reference it.
	Outgoing map[uuid.UUID][]uuid.UUID
	Incoming map[uuid.UUID][]uuid.UUID

	// AncestryPaths maps every node's ecs_id to the ordered path from the
	// root to that node (inclusive of both ends), the shortest such path
	// discovered during the build.
	AncestryPaths map[uuid.UUID][]uuid.UUID

	// LiveIDIndex maps this snapshot's live_ids to ecs_ids.
	LiveIDIndex map[uuid.UUID]uuid.UUID
}

// NewEntityTree allocates an empty tree with all indices initialized.
func NewEntityTree(root uuid.UUID, lineage uuid.UUID) *EntityTree {
	return &EntityTree{
		RootEcsID:     root,
		LineageID:     lineage,
		Nodes:         make(map[uuid.UUID]Entity),
		Edges:         make(map[EdgeKey]EntityEdge),
		Outgoing:      make(map[uuid.UUID][]uuid.UUID),
		Incoming:      make(map[uuid.UUID][]uuid.UUID),
		AncestryPaths: make(map[uuid.UUID][]uuid.UUID),
		LiveIDIndex:   make(map[uuid.UUID]uuid.UUID),
	}
}

// AddNode inserts e if not already present, indexing it by live_id.
func (t *EntityTree) AddNode(e Entity) {
	b := e.GetBase()
	if _, exists := t.Nodes[b.EcsID]; exists {
		return
	}
	t.Nodes[b.EcsID] = e
	t.LiveIDIndex[b.LiveID] = b.EcsID
}

// AddEdge inserts edge e, updating adjacency indices. It is a no-op if an
// edge with the same (source, target, field_name) already exists.
func (t *EntityTree) AddEdge(e EntityEdge) {
	k := e.Key()
	if _, exists := t.Edges[k]; exists {
		return
	}
	t.Edges[k] = e
	t.Outgoing[e.SourceEcsID] = append(t.Outgoing[e.SourceEcsID], e.TargetEcsID)
	t.Incoming[e.TargetEcsID] = append(t.Incoming[e.TargetEcsID], e.SourceEcsID)
}

// Edge looks up the edge between source and target by field name.
func (t *EntityTree) Edge(source, target uuid.UUID, field string) (EntityEdge, bool) {
	e, ok := t.Edges[EdgeKey{Source: source, Target: target, FieldName: field}]
	return e, ok
}

// EdgeBetween returns the first edge found between source and target,
// regardless of field name. When several fields link the same pair, which
// one is returned is not defined.
func (t *EntityTree) EdgeBetween(source, target uuid.UUID) (EdgeKey, EntityEdge, bool) {
	for k, e := range t.Edges {
		if k.Source == source && k.Target == target {
			return k, e, true
		}
	}
	return EdgeKey{}, EntityEdge{}, false
}

// SetEdge replaces the edge stored at k (used to flip IsHierarchical).
func (t *EntityTree) SetEdge(k EdgeKey, e EntityEdge) {
	t.Edges[k] = e
}

// NodeCount returns the number of nodes in the tree.
func (t *EntityTree) NodeCount() int { return len(t.Nodes) }

// EdgeCount returns the number of edges in the tree.
func (t *EntityTree) EdgeCount() int { return len(t.Edges) }

// MaxDepth returns the length of the longest ancestry path, in edges (a
// tree containing only the root has MaxDepth 0).
func (t *EntityTree) MaxDepth() int {
	max := 0
	for _, path := range t.AncestryPaths {
		if d := len(path) - 1; d > max {
			max = d
		}
	}
	return max
}

// IncomingSources returns the de-duplicated set of sources with an
// incoming edge to target, used by the diff engine's move detection.
func (t *EntityTree) IncomingSources(target uuid.UUID) map[uuid.UUID]struct{} {
	out := make(map[uuid.UUID]struct{})
	for _, s := range t.Incoming[target] {
		out[s] = struct{}{}
	}
	return out
}

// HierarchicalParent returns the source of target's single incoming
// hierarchical edge, if any (the root has none).
func (t *EntityTree) HierarchicalParent(target uuid.UUID) (uuid.UUID, bool) {
	for k, e := range t.Edges {
		if k.Target == target && e.IsHierarchical {
			return k.Source, true
		}
	}
	return uuid.Nil, false
}
