package entity

import "github.com/google/uuid"

// EdgeKind tags the container that carried a discovered entity reference.
// Hierarchical is not a kind of its own: it is an orthogonal marker set on
// whichever edge currently forms a node's single incoming ownership edge
// (see EntityEdge.IsHierarchical).
type EdgeKind int

const (
	Direct EdgeKind = iota
	ListEdge
	DictEdge
	SetEdge
	TupleEdge
)

func (k EdgeKind) String() string {
	switch k {
	case Direct:
		return "direct"
	case ListEdge:
		return "list"
	case DictEdge:
		return "dict"
	case SetEdge:
		return "set"
	case TupleEdge:
		return "tuple"
	default:
		return "unknown"
	}
}

// EndpointKey identifies an edge by its endpoints for adjacency indexing.
type EndpointKey struct {
	Source uuid.UUID
	Target uuid.UUID
}

// EdgeKey is the deduplication identity of an edge: (source, target,
// field_name). Two edges with the same endpoints but different field names
// are distinct (an entity reachable from a parent through two different
// fields is two edges).
type EdgeKey struct {
	Source    uuid.UUID
	Target    uuid.UUID
	FieldName string
}

// EntityEdge is one reference from a source entity to a target entity,
// discovered through a single entity-bearing field.
type EntityEdge struct {
	SourceEcsID uuid.UUID
	TargetEcsID uuid.UUID
	Kind        EdgeKind
	FieldName   string

	// ContainerIndex is set for ListEdge/TupleEdge.
	ContainerIndex *int
	// ContainerKey is set for DictEdge.
	ContainerKey *string

	// IsHierarchical marks this edge as the target's single incoming
	// ownership edge; it is set by the tree builder, never by the caller.
	IsHierarchical bool

	// Ownership reserved for future non-tree (DAG) support: today every
	// edge the builder produces has Ownership == true. Kept in the wire
	// shape so a future DAG-capable builder doesn't force a format break.
	Ownership bool
}

// Key returns e's deduplication key.
func (e EntityEdge) Key() EdgeKey {
	return EdgeKey{Source: e.SourceEcsID, Target: e.TargetEcsID, FieldName: e.FieldName}
}

// Endpoints returns e's adjacency key.
func (e EntityEdge) Endpoints() EndpointKey {
	return EndpointKey{Source: e.SourceEcsID, Target: e.TargetEcsID}
}
