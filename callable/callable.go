// Package callable is a minimal client of the registry standing in for
// the function-execution layer spec.md places out of the core's scope. It
// snapshots a call's input tree, invokes a user function, and wraps and
// force-versions the output, without ever touching registry internals —
// spec.md §6: "it never mutates internal indices directly."
package callable

import (
	"github.com/arthur-debert/entigraph/entity"
	"github.com/arthur-debert/entigraph/lifecycle"
)

// Registry is the subset of *registry.Registry Invoke needs. It embeds
// lifecycle.Registry (which already covers RegisterRoot/VersionEntity/
// GetLiveEntity/Emit) since Invoke hands reg straight to
// lifecycle.PromoteToRoot for a freshly wrapped, still-orphan output.
type Registry interface {
	lifecycle.Registry
}

// Func is a user function invoked against an entity tree. It returns
// either an entity.Entity (which becomes the output tree's root directly)
// or any other value (which Invoke wraps in a Result).
type Func func() (interface{}, error)

// Invoke force-versions input before calling fn, runs fn, and force-
// versions the (possibly wrapped) output, returning the output's root
// entity. A non-nil error from fn is returned unchanged and no output
// snapshot is produced.
func Invoke(reg Registry, input entity.Entity, fn Func) (entity.Entity, error) {
	if input != nil {
		if _, err := reg.VersionEntity(input, true); err != nil {
			return nil, err
		}
	}

	result, err := fn()
	if err != nil {
		return nil, err
	}

	output := wrap(result)

	ob := output.GetBase()
	if !ob.IsRoot() {
		if err := lifecycle.PromoteToRoot(reg, output); err != nil {
			return nil, err
		}
	}

	if _, err := reg.VersionEntity(output, true); err != nil {
		return nil, err
	}

	return output, nil
}

// wrap returns v directly if it is already an Entity, otherwise boxes it
// in a fresh Result.
func wrap(v interface{}) entity.Entity {
	if e, ok := v.(entity.Entity); ok {
		return e
	}
	b := entity.NewBase()
	return &Result{Base: b, Value: v}
}
