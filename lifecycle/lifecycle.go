// Package lifecycle implements the entity-side state transitions that move
// an entity across trees — promote, detach, attach, and attribute
// borrowing — per spec.md §4.6. Promote, detach and attach end by
// registering or versioning through the registry; attribute borrowing only
// edits the target entity and does not version it. None of them touches
// registry indices directly.
package lifecycle

import (
	"reflect"

	"github.com/google/uuid"

	"github.com/arthur-debert/entigraph/entity"
	"github.com/arthur-debert/entigraph/event"
)

// Registry is the subset of *registry.Registry the lifecycle operations
// need. Declaring it as an interface keeps this package's dependency on
// registry to its public surface only.
type Registry interface {
	RegisterRoot(root entity.Entity) error
	VersionEntity(root entity.Entity, force bool) (bool, error)
	GetLiveEntity(liveID uuid.UUID) (entity.Entity, bool)
	Emit(op event.Op, phase event.Phase, subject uuid.UUID, changed bool, err error)
}

// PromoteToRoot makes e the root of its own tree.
//
//   - If e is an orphan, it becomes the root of a brand new lineage.
//   - If e is attached to a different root, it is re-stamped with a fresh
//     ecs_id and lineage_id and becomes the root of a new, independent
//     lineage; the tree it is leaving is left untouched here (the caller
//     is expected to have already removed e from its former parent's
//     field, the same precondition Detach documents).
//   - If e is already root, this is idempotent: it simply versions e in
//     place, producing no new version if nothing else changed.
func PromoteToRoot(reg Registry, e entity.Entity) error {
	b := e.GetBase()
	subject := b.EcsID
	reg.Emit(event.OpPromoteToRoot, event.PhaseStarting, subject, false, nil)

	err := promoteToRoot(reg, e, b)
	reg.Emit(event.OpPromoteToRoot, event.PhaseCompleted, subject, err == nil, err)
	return err
}

func promoteToRoot(reg Registry, e entity.Entity, b *entity.Base) error {
	if b.IsRoot() {
		_, err := reg.VersionEntity(e, false)
		return err
	}

	if b.IsOrphan() {
		b.RootEcsID = b.EcsID
		b.RootLiveID = b.LiveID
		return reg.RegisterRoot(e)
	}

	// Attached to a different root: re-stamp and start a new lineage.
	b.Fork()
	b.LineageID = uuid.New()
	b.RootEcsID = b.EcsID
	b.RootLiveID = b.LiveID
	return reg.RegisterRoot(e)
}

// DetachOptions configures Detach. spec.md §9 Open Questions leaves
// whether a detach must re-version the entity's former root as a policy
// decision rather than a hard-coded behavior; this struct is that policy
// flag.
type DetachOptions struct {
	// VersionFormerRoot, if true (the default via Detach), forces a new
	// version of the former root after a physical detach so the removal
	// is actually recorded. This is necessary because the diff engine's
	// attribute-only Stage 3 comparison does not by itself detect a pure
	// removal (spec.md §4.3: "Removed entities do not directly inflate
	// the modified set"); without a forced version, detaching a leaf with
	// no other changes would silently fail to produce a new snapshot.
	VersionFormerRoot bool
}

// DefaultDetachOptions is what Detach uses when called without options.
func DefaultDetachOptions() DetachOptions {
	return DetachOptions{VersionFormerRoot: true}
}

// Detach removes e from the tree it currently claims to belong to. The
// caller must have already physically removed e from its former parent's
// field before calling Detach.
func Detach(reg Registry, e entity.Entity, opts ...DetachOptions) error {
	b := e.GetBase()
	subject := b.EcsID
	reg.Emit(event.OpDetach, event.PhaseStarting, subject, false, nil)

	err := detach(reg, e, b, opts...)
	reg.Emit(event.OpDetach, event.PhaseCompleted, subject, err == nil, err)
	return err
}

func detach(reg Registry, e entity.Entity, b *entity.Base, opts ...DetachOptions) error {
	o := DefaultDetachOptions()
	if len(opts) > 0 {
		o = opts[0]
	}

	if b.IsRoot() {
		_, err := reg.VersionEntity(e, false)
		return err
	}

	if b.IsOrphan() {
		return PromoteToRoot(reg, e)
	}

	formerRoot, ok := reg.GetLiveEntity(b.RootLiveID)
	if !ok {
		// The former root is no longer reachable live; per the documented
		// policy, silently skip rather than error.
		return nil
	}

	_, err := reg.VersionEntity(formerRoot, o.VersionFormerRoot)
	return err
}

// AttachOptions configures Attach, mirroring DetachOptions for symmetry.
type AttachOptions struct {
	// VersionNewRoot forces a version of newRoot after rewiring e into it,
	// for the same reason DetachOptions.VersionFormerRoot exists: a pure
	// structural addition is not guaranteed to surface through Stage 3's
	// attribute-only comparison once e's own fields are unchanged from the
	// moment of arrival.
	VersionNewRoot bool
}

// DefaultAttachOptions is what Attach uses when called without options.
func DefaultAttachOptions() AttachOptions {
	return AttachOptions{VersionNewRoot: true}
}

// Attach absorbs e, which must currently be a root, into newRoot's tree.
// The caller must have already performed the physical attachment (e.g.
// appended e to one of newRoot's entity-bearing fields) before calling
// Attach; Attach verifies this by rebuilding newRoot's tree and checking
// that e's ecs_id is now reachable from it.
//
// Because Attach requires e to be a root, the tree e used to own moves
// with it in its entirety — there is no remnant "old root" left behind to
// re-version once e is reassigned, so unlike Detach there is nothing
// documented here as a "departure" version beyond e's own last snapshot
// under its old lineage, which the registry already retains immutably.
func Attach(reg Registry, e entity.Entity, newRoot entity.Entity, opts ...AttachOptions) error {
	subject := e.GetBase().EcsID
	reg.Emit(event.OpAttach, event.PhaseStarting, subject, false, nil)

	err := attach(reg, e, newRoot, opts...)
	reg.Emit(event.OpAttach, event.PhaseCompleted, subject, err == nil, err)
	return err
}

func attach(reg Registry, e entity.Entity, newRoot entity.Entity, opts ...AttachOptions) error {
	o := DefaultAttachOptions()
	if len(opts) > 0 {
		o = opts[0]
	}

	eb := e.GetBase()
	nb := newRoot.GetBase()

	if !eb.IsRoot() {
		return entity.NewError(entity.ErrNotARoot, eb.EcsID, "attach requires the entity to currently be a root")
	}

	if eb.RootEcsID == nb.RootEcsID && nb.RootEcsID != uuid.Nil {
		_, err := reg.VersionEntity(newRoot, false)
		return err
	}

	if !reachable(newRoot, eb.EcsID) {
		return entity.NewError(entity.ErrInvariantViolation, eb.EcsID,
			"entity must already be physically attached under new_root before calling Attach")
	}

	eb.RootEcsID = nb.RootEcsID
	eb.RootLiveID = nb.RootLiveID
	eb.LineageID = nb.LineageID
	eb.Fork()
	eb.RootEcsID = nb.RootEcsID

	_, err := reg.VersionEntity(newRoot, o.VersionNewRoot)
	return err
}

func reachable(root entity.Entity, target uuid.UUID) bool {
	if root.GetBase().EcsID == target {
		return true
	}
	for _, c := range entity.Children(root) {
		if reachable(c.Entity, target) {
			return true
		}
	}
	return false
}

// BorrowAttributeFrom copies source.sourceField into target.targetField.
// Plain-data containers are deep-copied so mutating the borrowed value on
// target never mutates source's copy; entity references are assigned by
// reference, matching the ownership rule that only one tree owns an
// entity at a time. target.AttributeSource[targetField] is updated to
// record the provenance: a scalar source id for a scalar/single-entity
// field, one source id per element for a list/tuple field, and one source
// id per key for a map/dict field.
func BorrowAttributeFrom(reg Registry, target, source entity.Entity, sourceField, targetField string) error {
	subject := target.GetBase().EcsID
	reg.Emit(event.OpBorrowAttribute, event.PhaseStarting, subject, false, nil)

	err := borrowAttributeFrom(target, source, sourceField, targetField)
	reg.Emit(event.OpBorrowAttribute, event.PhaseCompleted, subject, err == nil, err)
	return err
}

func borrowAttributeFrom(target, source entity.Entity, sourceField, targetField string) error {
	srcField, ok := entity.FieldByName(source, sourceField)
	if !ok {
		return entity.NewError(entity.ErrFieldNotFound, source.GetBase().EcsID, sourceField)
	}
	dstField, ok := entity.FieldByName(target, targetField)
	if !ok {
		return entity.NewError(entity.ErrFieldNotFound, target.GetBase().EcsID, targetField)
	}

	sourceID := source.GetBase().EcsID

	var copied reflect.Value
	switch srcField.Kind {
	case entity.NotEntityBearing:
		copied = reflect.ValueOf(entity.DeepCopyPlain(srcField.Value.Interface()))
	default:
		copied = srcField.Value
	}
	dstField.Value.Set(copied)

	prov := provenanceFor(dstField)
	target.GetBase().AttributeSource[targetField] = prov(sourceID)

	return nil
}

// provenanceFor returns a constructor for the AttributeSource shape
// matching dst's runtime kind (scalar vs list vs map).
func provenanceFor(dst entity.FieldInfo) func(uuid.UUID) entity.AttributeSource {
	v := dst.Value
	if dst.Kind == entity.DictOfEntity {
		var keys []string
		if v.Kind() != reflect.Ptr {
			keys = append(keys, v.Addr().Interface().(*entity.Dict).Keys()...)
		} else if !v.IsNil() {
			keys = append(keys, v.Interface().(*entity.Dict).Keys()...)
		}
		return func(id uuid.UUID) entity.AttributeSource { return entity.MapSource(id, keys) }
	}
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		n := v.Len()
		return func(id uuid.UUID) entity.AttributeSource { return entity.ListSource(id, n) }
	case reflect.Map:
		keys := make([]string, 0, v.Len())
		for _, k := range v.MapKeys() {
			keys = append(keys, k.String())
		}
		return func(id uuid.UUID) entity.AttributeSource { return entity.MapSource(id, keys) }
	default:
		return func(id uuid.UUID) entity.AttributeSource { return entity.ScalarSource(id) }
	}
}
