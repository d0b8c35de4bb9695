package entity

import "github.com/google/uuid"

// SourceKind tags the shape of an AttributeSource value: the attribute
// provenance map is heterogeneous (a field's source may be a single id, a
// per-element list of ids, or a per-key map of ids), so it is modeled as a
// tagged sum rather than a bare interface{}.
type SourceKind int

const (
	// SourceNone marks a value as locally created: no entity supplied it.
	SourceNone SourceKind = iota
	// SourceScalar records a single source ecs_id for a scalar field.
	SourceScalar
	// SourceList records one source ecs_id per element of a list field.
	SourceList
	// SourceMap records one source ecs_id per key of a map field.
	SourceMap
)

// AttributeSource is the provenance of a single field's current value.
// The diff engine ignores this field entirely: it is metadata, not data.
type AttributeSource struct {
	Kind  SourceKind
	ID    uuid.UUID            // valid when Kind == SourceScalar
	List  []uuid.UUID          // valid when Kind == SourceList
	Map   map[string]uuid.UUID // valid when Kind == SourceMap
}

// ScalarSource builds a SourceScalar provenance value.
func ScalarSource(id uuid.UUID) AttributeSource {
	return AttributeSource{Kind: SourceScalar, ID: id}
}

// ListSource builds a SourceList provenance value naming the same source id
// for every element (the shape borrow_attribute_from produces).
func ListSource(id uuid.UUID, n int) AttributeSource {
	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = id
	}
	return AttributeSource{Kind: SourceList, List: ids}
}

// MapSource builds a SourceMap provenance value naming the same source id
// for every key.
func MapSource(id uuid.UUID, keys []string) AttributeSource {
	m := make(map[string]uuid.UUID, len(keys))
	for _, k := range keys {
		m[k] = id
	}
	return AttributeSource{Kind: SourceMap, Map: m}
}
