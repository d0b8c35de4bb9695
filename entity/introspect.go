package entity

import (
	"reflect"
)

// FieldKind classifies a declared struct field by what it carries, per
// spec.md §4.1. Resolution happens purely against the field's static Go
// type: unlike the dynamically typed original, a Go struct field's type
// never changes at runtime, so the "inspect current value, then fall back
// to declared type" resolution order of spec.md §4.1 collapses into a
// single static classification.
type FieldKind int

const (
	// NotEntityBearing fields hold plain data only.
	NotEntityBearing FieldKind = iota
	// SingleEntity fields hold exactly one entity reference.
	SingleEntity
	// ListOfEntity fields hold an ordered sequence of entities.
	ListOfEntity
	// DictOfEntity fields hold a keyed map of entities.
	DictOfEntity
	// SetOfEntity fields hold a deduplicated, order-stable set of entities.
	SetOfEntity
	// TupleOfEntity fields hold a fixed-arity sequence of entities.
	TupleOfEntity
)

var (
	entityType = reflect.TypeOf((*Entity)(nil)).Elem()
	baseType   = reflect.TypeOf(Base{})
	listType   = reflect.TypeOf(List(nil))
	tupleType  = reflect.TypeOf(Tuple(nil))
	dictType   = reflect.TypeOf(Dict{})
	setType    = reflect.TypeOf(Set{})
)

func implementsEntity(t reflect.Type) bool {
	if t == nil {
		return false
	}
	if t.Implements(entityType) {
		return true
	}
	if t.Kind() != reflect.Ptr && reflect.PointerTo(t).Implements(entityType) {
		return true
	}
	return false
}

// classifyType returns the FieldKind for a declared field type.
func classifyType(t reflect.Type) FieldKind {
	switch {
	case t == listType:
		return ListOfEntity
	case t == tupleType:
		return TupleOfEntity
	case t == dictType || t == reflect.PointerTo(dictType):
		return DictOfEntity
	case t == setType || t == reflect.PointerTo(setType):
		return SetOfEntity
	case implementsEntity(t):
		return SingleEntity
	default:
		return NotEntityBearing
	}
}

// FieldInfo describes one declared field of an entity struct.
type FieldInfo struct {
	Name  string
	Kind  FieldKind
	Value reflect.Value
}

// structOf returns the addressable struct reflect.Value underlying e,
// unwrapping the pointer that every Entity implementation is expected to
// be.
func structOf(e Entity) reflect.Value {
	v := reflect.ValueOf(e)
	for v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	return v
}

// Introspect enumerates every declared field of e except the embedded
// identity block, classifying each by FieldKind. Field order follows
// declaration order in the struct, which is what the tree builder uses for
// deterministic edge emission.
func Introspect(e Entity) []FieldInfo {
	v := structOf(e)
	t := v.Type()
	out := make([]FieldInfo, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		if f.Anonymous && f.Type == baseType {
			continue
		}
		out = append(out, FieldInfo{
			Name:  f.Name,
			Kind:  classifyType(f.Type),
			Value: v.Field(i),
		})
	}
	return out
}

// FieldByName returns the named declared field of e (excluding the
// identity block), or ok==false if no such field is declared.
func FieldByName(e Entity, name string) (FieldInfo, bool) {
	for _, fi := range Introspect(e) {
		if fi.Name == name {
			return fi, true
		}
	}
	return FieldInfo{}, false
}

// ChildRef is one entity reached through an entity-bearing field, together
// with its container coordinate (populated only for List/Tuple/Dict
// fields).
type ChildRef struct {
	FieldName      string
	Kind           FieldKind
	Entity         Entity
	ContainerIndex *int
	ContainerKey   *string
}

func intPtr(i int) *int { return &i }

// Children returns every entity directly reachable from e's entity-bearing
// fields, in field declaration order and, within a container field, in the
// container's natural iteration order (list/tuple index ascending, dict
// insertion order, set insertion order).
func Children(e Entity) []ChildRef {
	var out []ChildRef
	for _, fi := range Introspect(e) {
		switch fi.Kind {
		case SingleEntity:
			if fi.Value.IsNil() {
				continue
			}
			child, ok := fi.Value.Interface().(Entity)
			if !ok || child == nil {
				continue
			}
			out = append(out, ChildRef{FieldName: fi.Name, Kind: fi.Kind, Entity: child})
		case ListOfEntity:
			lst := fi.Value.Interface().(List)
			for i, c := range lst {
				if c == nil {
					continue
				}
				out = append(out, ChildRef{FieldName: fi.Name, Kind: fi.Kind, Entity: c, ContainerIndex: intPtr(i)})
			}
		case TupleOfEntity:
			tup := fi.Value.Interface().(Tuple)
			for i, c := range tup {
				if c == nil {
					continue
				}
				out = append(out, ChildRef{FieldName: fi.Name, Kind: fi.Kind, Entity: c, ContainerIndex: intPtr(i)})
			}
		case DictOfEntity:
			d := dictValue(fi.Value)
			if d == nil {
				continue
			}
			for _, k := range d.Keys() {
				c, _ := d.Get(k)
				if c == nil {
					continue
				}
				key := k
				out = append(out, ChildRef{FieldName: fi.Name, Kind: fi.Kind, Entity: c, ContainerKey: &key})
			}
		case SetOfEntity:
			s := setValue(fi.Value)
			if s == nil {
				continue
			}
			for _, c := range s.Members() {
				out = append(out, ChildRef{FieldName: fi.Name, Kind: fi.Kind, Entity: c})
			}
		}
	}
	return out
}

func dictValue(v reflect.Value) *Dict {
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		return v.Interface().(*Dict)
	}
	d := v.Addr().Interface().(*Dict)
	return d
}

func setValue(v reflect.Value) *Set {
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		return v.Interface().(*Set)
	}
	s := v.Addr().Interface().(*Set)
	return s
}

// PlainEqual compares a's and b's non-entity-bearing fields for structural
// equality, the comparison the diff engine's Stage 3 performs. Entity-
// valued fields and the identity block are excluded; attribute_source is
// metadata and is never compared.
func PlainEqual(a, b Entity) bool {
	fa, fb := Introspect(a), Introspect(b)
	if len(fa) != len(fb) {
		return false
	}
	for i := range fa {
		if fa[i].Kind != NotEntityBearing {
			continue
		}
		if fa[i].Name != fb[i].Name {
			return false
		}
		if !reflect.DeepEqual(fa[i].Value.Interface(), fb[i].Value.Interface()) {
			return false
		}
	}
	return true
}
