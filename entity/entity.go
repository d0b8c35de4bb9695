// Package entity defines the identity model for the versioned entity graph
// store: the Entity interface every domain record implements, the Base
// struct carrying identity and lineage fields, and the attribute-source
// provenance map.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Entity is implemented by every record that can participate in a tree.
// Concrete domain types embed Base and satisfy this interface through its
// promoted methods.
type Entity interface {
	GetBase() *Base
}

// Base carries the identity, lineage, and provenance fields common to every
// entity. Domain types embed Base anonymously:
//
//	type Leaf struct {
//	    entity.Base
//	    Name string
//	}
//
// User code must never hand-edit these fields directly; they are owned by
// the tree builder, the versioning engine, and the registry.
type Base struct {
	EcsID         uuid.UUID
	LiveID        uuid.UUID
	LineageID     uuid.UUID
	PreviousEcsID uuid.UUID
	OldEcsID      uuid.UUID
	OldIDs        []uuid.UUID

	RootEcsID  uuid.UUID
	RootLiveID uuid.UUID

	CreatedAt time.Time
	ForkedAt  time.Time

	FromStorage bool

	// AttributeSource maps this entity's declared field names (excluding
	// identity/history fields) to the provenance of the value currently
	// held there. A missing key or a Source with Kind == SourceNone means
	// the value was created locally.
	AttributeSource map[string]AttributeSource
}

// GetBase returns a pointer to the entity's identity block, satisfying
// Entity. Domain types inherit this through embedding.
func (b *Base) GetBase() *Base { return b }

// NewBase allocates a fresh, orphan Base: no root, no history, a single
// freshly minted ecs_id/live_id pair, and lineage_id set to a new identity
// (the caller may overwrite LineageID before registering if the entity is
// meant to join an existing lineage).
func NewBase() Base {
	now := nowFunc()
	return Base{
		EcsID:           uuid.New(),
		LiveID:          uuid.New(),
		LineageID:       uuid.New(),
		CreatedAt:       now,
		AttributeSource: make(map[string]AttributeSource),
	}
}

// nowFunc is indirected so tests can freeze time if ever needed; production
// code always calls time.Now via this var.
var nowFunc = time.Now

// IsRoot reports whether this entity is the root of its own tree.
func (b *Base) IsRoot() bool {
	return b.RootEcsID == b.EcsID
}

// IsOrphan reports whether this entity belongs to no tree. Per the data
// model invariant, RootEcsID and RootLiveID are either both set or both
// empty.
func (b *Base) IsOrphan() bool {
	return b.RootEcsID == uuid.Nil && b.RootLiveID == uuid.Nil
}

// Fork stamps a new ecs_id, pushing the current one onto the version
// history. Callers use this directly only when building custom lifecycle
// operations; the versioning engine is the normal caller.
func (b *Base) Fork() {
	old := b.EcsID
	b.PreviousEcsID = old
	b.OldEcsID = old
	b.OldIDs = append(b.OldIDs, old)
	b.EcsID = uuid.New()
	b.ForkedAt = nowFunc()
}

// Key is the equality/hash key for an entity: (ecs_id, root_ecs_id) only,
// per the data model's equality rule. live_id never participates.
type Key struct {
	EcsID     uuid.UUID
	RootEcsID uuid.UUID
}

// KeyOf returns e's equality key.
func KeyOf(e Entity) Key {
	b := e.GetBase()
	return Key{EcsID: b.EcsID, RootEcsID: b.RootEcsID}
}

// Equal implements the data model's equality rule: two entities are equal
// iff their (ecs_id, root_ecs_id) pairs match, regardless of live_id. Two
// retrievals of "the same" sub-entity taken before and after its root was
// versioned compare unequal, because root_ecs_id changed; this is
// intentional (see DESIGN.md / spec.md Open Questions) and is not
// papered over here.
func Equal(a, b Entity) bool {
	return KeyOf(a) == KeyOf(b)
}
