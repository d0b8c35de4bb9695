package callable

import "github.com/arthur-debert/entigraph/entity"

// Result wraps a single non-entity return value so it can be registered
// and versioned like any other entity. This is the Go equivalent of the
// dynamically declared wrapper types the callable layer conjures in the
// original implementation (abstractions/ecs/entity_unpacker.py,
// abstractions/ecs/return_type_analyzer.py): rather than synthesizing a
// type at runtime, Go gets one fixed wrapper type whose Value field holds
// whatever the function returned.
type Result struct {
	entity.Base
	Value interface{}
}

// MultiResult wraps a heterogeneous tuple of return values, some of which
// may themselves be entities, classifying each element by kind. Elements
// that are entities are tracked in Entities (an entity-bearing Tuple field
// discovered by the introspector like any other); elements that are plain
// data are tracked by position in Scalars.
type MultiResult struct {
	entity.Base
	Entities entity.Tuple
	Scalars  map[int]interface{}
}

// UnpackMulti classifies a slice of heterogeneous return values into a
// MultiResult, preserving original positional order via Scalars' int keys
// and Entities' slice order for the entity-valued positions.
func UnpackMulti(values []interface{}) *MultiResult {
	m := &MultiResult{Base: entity.NewBase(), Scalars: make(map[int]interface{})}
	for i, v := range values {
		if e, ok := v.(entity.Entity); ok {
			m.Entities = append(m.Entities, e)
			continue
		}
		m.Scalars[i] = v
	}
	return m
}
