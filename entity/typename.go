package entity

import "reflect"

// TypeName returns the concrete type name of e (e.g. "Project", "Task"),
// used by the registry's type index, which is keyed by root entity type.
func TypeName(e Entity) string {
	t := reflect.TypeOf(e)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
