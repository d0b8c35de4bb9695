package entity

import (
	"reflect"

	"github.com/google/uuid"
)

// DeepCopyPlain performs a structural deep copy of a non-entity Go value:
// pointers are copied to freshly allocated targets, slices and maps get
// fresh backing storage, and exported struct fields are copied recursively
// (unexported struct fields are copied by value). Scalars
// copy by value already, so they pass through untouched. This is the
// "plain-data containers are deep-copied to prevent aliasing" rule used by
// both registry retrieval and borrow_attribute_from.
func DeepCopyPlain(v interface{}) interface{} {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	out := deepCopyValue(rv)
	return out.Interface()
}

func deepCopyValue(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Ptr:
		if v.IsNil() {
			return v
		}
		n := reflect.New(v.Type().Elem())
		n.Elem().Set(deepCopyValue(v.Elem()))
		return n
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		n := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			n.Index(i).Set(deepCopyValue(v.Index(i)))
		}
		return n
	case reflect.Array:
		n := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			n.Index(i).Set(deepCopyValue(v.Index(i)))
		}
		return n
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		n := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			n.SetMapIndex(iter.Key(), deepCopyValue(iter.Value()))
		}
		return n
	case reflect.Struct:
		if v.Type() == reflect.TypeOf(uuid.UUID{}) {
			return v
		}
		n := reflect.New(v.Type()).Elem()
		n.Set(v)
		for i := 0; i < v.NumField(); i++ {
			if !v.Type().Field(i).IsExported() {
				continue
			}
			n.Field(i).Set(deepCopyValue(v.Field(i)))
		}
		return n
	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		n := reflect.New(v.Type()).Elem()
		n.Set(deepCopyValue(v.Elem()))
		return n
	default:
		return v
	}
}

func cloneBase(b Base) Base {
	nb := b
	nb.OldIDs = append([]uuid.UUID(nil), b.OldIDs...)
	nb.AttributeSource = make(map[string]AttributeSource, len(b.AttributeSource))
	for k, v := range b.AttributeSource {
		cp := v
		if v.List != nil {
			cp.List = append([]uuid.UUID(nil), v.List...)
		}
		if v.Map != nil {
			cp.Map = make(map[string]uuid.UUID, len(v.Map))
			for mk, mv := range v.Map {
				cp.Map[mk] = mv
			}
		}
		nb.AttributeSource[k] = cp
	}
	return nb
}

// ShallowClone allocates a new instance of e's concrete type with every
// plain-data field deep-copied and every entity-bearing field still
// pointing at e's ORIGINAL children. Callers that clone a whole tree use
// RelinkChildren afterwards to retarget those fields at the corresponding
// clones. The returned clone's identity fields (ecs_id, lineage_id,
// root_ecs_id, history) are preserved byte-for-byte; only live_id is left
// for the caller to re-stamp.
func ShallowClone(e Entity) Entity {
	src := structOf(e)
	t := src.Type()
	dstPtr := reflect.New(t)
	dst := dstPtr.Elem()

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		if f.Anonymous && f.Type == baseType {
			dst.Field(i).Set(reflect.ValueOf(cloneBase(src.Field(i).Interface().(Base))))
			continue
		}
		switch classifyType(f.Type) {
		case NotEntityBearing:
			dst.Field(i).Set(deepCopyValue(src.Field(i)))
		case SingleEntity:
			dst.Field(i).Set(src.Field(i))
		case ListOfEntity, TupleOfEntity:
			srcSlice := src.Field(i)
			n := reflect.MakeSlice(f.Type, srcSlice.Len(), srcSlice.Len())
			reflect.Copy(n, srcSlice)
			dst.Field(i).Set(n)
		case DictOfEntity:
			srcDict := dictValue(src.Field(i))
			nd := NewDict()
			if srcDict != nil {
				for _, k := range srcDict.Keys() {
					v, _ := srcDict.Get(k)
					nd.Set(k, v)
				}
			}
			if f.Type.Kind() == reflect.Ptr {
				dst.Field(i).Set(reflect.ValueOf(nd))
			} else {
				dst.Field(i).Set(reflect.ValueOf(*nd))
			}
		case SetOfEntity:
			srcSet := setValue(src.Field(i))
			ns := NewSet()
			if srcSet != nil {
				for _, m := range srcSet.Members() {
					ns.Add(m)
				}
			}
			if f.Type.Kind() == reflect.Ptr {
				dst.Field(i).Set(reflect.ValueOf(ns))
			} else {
				dst.Field(i).Set(reflect.ValueOf(*ns))
			}
		}
	}

	return dstPtr.Interface().(Entity)
}

// RelinkChildren rewrites every entity-bearing field of clone so that it
// points at byID[originalChildEcsID] instead of the object ShallowClone
// copied the reference from. byID must map every ecs_id reachable from
// clone to its corresponding clone.
func RelinkChildren(clone Entity, byID map[uuid.UUID]Entity) {
	v := structOf(clone)
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || (f.Anonymous && f.Type == baseType) {
			continue
		}
		switch classifyType(f.Type) {
		case SingleEntity:
			fv := v.Field(i)
			if fv.IsNil() {
				continue
			}
			child := fv.Interface().(Entity)
			if replacement, ok := byID[child.GetBase().EcsID]; ok {
				fv.Set(reflect.ValueOf(replacement))
			}
		case ListOfEntity, TupleOfEntity:
			fv := v.Field(i)
			for j := 0; j < fv.Len(); j++ {
				elem := fv.Index(j)
				if elem.IsNil() {
					continue
				}
				child := elem.Interface().(Entity)
				if replacement, ok := byID[child.GetBase().EcsID]; ok {
					elem.Set(reflect.ValueOf(replacement))
				}
			}
		case DictOfEntity:
			d := dictValue(v.Field(i))
			if d == nil {
				continue
			}
			for _, k := range d.Keys() {
				child, _ := d.Get(k)
				if child == nil {
					continue
				}
				if replacement, ok := byID[child.GetBase().EcsID]; ok {
					d.Set(k, replacement)
				}
			}
		case SetOfEntity:
			s := setValue(v.Field(i))
			if s == nil {
				continue
			}
			members := s.Members()
			*s = *NewSet()
			for _, child := range members {
				if replacement, ok := byID[child.GetBase().EcsID]; ok {
					s.Add(replacement)
				} else {
					s.Add(child)
				}
			}
		}
	}
}
