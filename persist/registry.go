package persist

import "github.com/arthur-debert/entigraph/entity"

// Registry maps a type tag recorded by ExportTree to a factory that
// allocates a fresh zero-valued instance of the corresponding concrete
// entity type. Callers must register every concrete type that can appear
// in a tree before calling ImportTree; the wire format carries type names,
// not Go types, so there is no way to recover this mapping from the file
// alone.
type Registry map[string]func() entity.Entity

// Register adds name -> factory to r, returning r for chaining.
func (r Registry) Register(name string, factory func() entity.Entity) Registry {
	r[name] = factory
	return r
}
