// Package registry implements the process-wide, coarse-locked store of
// entity tree snapshots: the five cross-indices of spec.md §3 and the
// operations of spec.md §4.5.
package registry

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arthur-debert/entigraph/diff"
	"github.com/arthur-debert/entigraph/entity"
	"github.com/arthur-debert/entigraph/event"
	"github.com/arthur-debert/entigraph/treebuild"
	"github.com/arthur-debert/entigraph/version"
)

// Registry holds every registered snapshot. The zero value is not usable;
// construct one with New. A Registry is safe for concurrent use: all five
// indices are mutated under a single coarse lock, satisfying the
// atomicity invariant of spec.md §5 (a reader observing tree_by_root for a
// root also observes every other index entry for that tree's nodes).
type Registry struct {
	mu sync.Mutex

	treeByRoot     map[uuid.UUID]*entity.EntityTree
	rootsByLineage map[uuid.UUID][]uuid.UUID
	liveByLiveID   map[uuid.UUID]entity.Entity
	rootByEcsID    map[uuid.UUID]uuid.UUID
	lineagesByType map[string][]uuid.UUID

	sink event.Sink
}

// Option configures a Registry at construction time.
type Option func(*Registry)

// WithSink attaches an event sink. The default is event.Noop{}.
func WithSink(s event.Sink) Option {
	return func(r *Registry) { r.sink = s }
}

// New creates an empty Registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		treeByRoot:     make(map[uuid.UUID]*entity.EntityTree),
		rootsByLineage: make(map[uuid.UUID][]uuid.UUID),
		liveByLiveID:   make(map[uuid.UUID]entity.Entity),
		rootByEcsID:    make(map[uuid.UUID]uuid.UUID),
		lineagesByType: make(map[string][]uuid.UUID),
		sink:           event.Noop{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Clear resets every index, per spec.md §3's "cleared only explicitly"
// lifecycle note.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.treeByRoot = make(map[uuid.UUID]*entity.EntityTree)
	r.rootsByLineage = make(map[uuid.UUID][]uuid.UUID)
	r.liveByLiveID = make(map[uuid.UUID]entity.Entity)
	r.rootByEcsID = make(map[uuid.UUID]uuid.UUID)
	r.lineagesByType = make(map[string][]uuid.UUID)
}

func (r *Registry) emit(op event.Op, phase event.Phase, subject uuid.UUID, changed bool, err error) {
	r.sink.Emit(event.Event{Op: op, Phase: phase, SubjectID: subject, At: time.Now(), Changed: changed, Err: err})
}

// Emit publishes an event through the registry's sink. It is exported so
// collaborators outside this package (lifecycle's promote/detach/attach/
// borrow operations) can report through the same bus without the registry
// having to know about their operation kinds.
func (r *Registry) Emit(op event.Op, phase event.Phase, subject uuid.UUID, changed bool, err error) {
	r.emit(op, phase, subject, changed, err)
}

// RegisterRoot builds a tree from the live root entity R and registers it.
// R must already be its own root (root_ecs_id == ecs_id); use
// lifecycle.PromoteToRoot first if it is not.
func (r *Registry) RegisterRoot(root entity.Entity) error {
	rb := root.GetBase()
	r.emit(event.OpRegisterRoot, event.PhaseStarting, rb.EcsID, false, nil)

	if !rb.IsRoot() {
		err := entity.NewError(entity.ErrNotARoot, rb.EcsID, "register_root requires root_ecs_id == ecs_id")
		r.emit(event.OpRegisterRoot, event.PhaseCompleted, rb.EcsID, false, err)
		return err
	}

	r.mu.Lock()
	if _, exists := r.treeByRoot[rb.EcsID]; exists {
		r.mu.Unlock()
		err := entity.NewError(entity.ErrDuplicateRegistration, rb.EcsID, "")
		r.emit(event.OpRegisterRoot, event.PhaseCompleted, rb.EcsID, false, err)
		return err
	}
	r.mu.Unlock()

	tree, err := treebuild.Build(root)
	if err != nil {
		r.emit(event.OpRegisterRoot, event.PhaseCompleted, rb.EcsID, false, err)
		return err
	}

	if err := r.RegisterTree(tree); err != nil {
		r.emit(event.OpRegisterRoot, event.PhaseCompleted, rb.EcsID, false, err)
		return err
	}

	r.emit(event.OpRegisterRoot, event.PhaseCompleted, rb.EcsID, true, nil)
	return nil
}

// RegisterTree inserts a fully built tree into all five indices
// atomically. It fails if the tree's root is already registered.
func (r *Registry) RegisterTree(t *entity.EntityTree) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registerTreeLocked(t)
}

func (r *Registry) registerTreeLocked(t *entity.EntityTree) error {
	if _, exists := r.treeByRoot[t.RootEcsID]; exists {
		return entity.NewError(entity.ErrDuplicateRegistration, t.RootEcsID, "")
	}

	firstOfLineage := len(r.rootsByLineage[t.LineageID]) == 0

	// Every node of a registered tree belongs to its root; stamp the
	// back-references on the live objects before taking the snapshot.
	var rootLiveID uuid.UUID
	if rootEntity, ok := t.Nodes[t.RootEcsID]; ok {
		rootLiveID = rootEntity.GetBase().LiveID
	}
	for _, n := range t.Nodes {
		n.GetBase().RootEcsID = t.RootEcsID
		n.GetBase().RootLiveID = rootLiveID
	}

	// The stored snapshot is a deep copy, never the caller's live objects.
	r.treeByRoot[t.RootEcsID] = cloneTree(t)
	r.rootsByLineage[t.LineageID] = append(r.rootsByLineage[t.LineageID], t.RootEcsID)

	for id, n := range t.Nodes {
		r.rootByEcsID[id] = t.RootEcsID
		r.liveByLiveID[n.GetBase().LiveID] = n
	}

	if firstOfLineage {
		rootEntity, ok := t.Nodes[t.RootEcsID]
		if ok {
			tn := entity.TypeName(rootEntity)
			r.lineagesByType[tn] = append(r.lineagesByType[tn], t.LineageID)
		}
	}

	return nil
}

// GetTree returns a deep copy of the stored snapshot with every node's
// live_id freshly re-stamped, or (nil, false) if root is unknown. Two
// successive calls return trees whose ecs_id sets and edges are identical
// but whose live_ids are disjoint, per spec.md §4.5's immutability
// contract.
func (r *Registry) GetTree(root uuid.UUID) (*entity.EntityTree, bool) {
	r.mu.Lock()
	stored, ok := r.treeByRoot[root]
	r.mu.Unlock()
	if !ok {
		return nil, false
	}
	return cloneTree(stored), true
}

// GetEntity returns the named entity from a fresh retrieval of its tree.
func (r *Registry) GetEntity(root, ecsID uuid.UUID) (entity.Entity, bool) {
	t, ok := r.GetTree(root)
	if !ok {
		return nil, false
	}
	e, ok := t.Nodes[ecsID]
	return e, ok
}

// GetTreeFromEntity resolves e's tree via its root_ecs_id back-pointer.
func (r *Registry) GetTreeFromEntity(e entity.Entity) (*entity.EntityTree, error) {
	b := e.GetBase()
	if b.IsOrphan() {
		return nil, entity.NewError(entity.ErrOrphanOperation, b.EcsID, "entity has no root")
	}
	t, ok := r.GetTree(b.RootEcsID)
	if !ok {
		return nil, entity.NewError(entity.ErrMissingEntity, b.RootEcsID, "root not found in registry")
	}
	return t, nil
}

// GetLiveEntity looks up a currently-live object by its live_id. Unlike
// GetTree, this is a direct lookup with no copy.
func (r *Registry) GetLiveEntity(liveID uuid.UUID) (entity.Entity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.liveByLiveID[liveID]
	return e, ok
}

// GetLiveRootFromEntity resolves e's live root object via root_live_id.
func (r *Registry) GetLiveRootFromEntity(e entity.Entity) (entity.Entity, bool, error) {
	b := e.GetBase()
	if b.IsOrphan() {
		return nil, false, entity.NewError(entity.ErrOrphanOperation, b.EcsID, "entity has no live root")
	}
	root, ok := r.GetLiveEntity(b.RootLiveID)
	return root, ok, nil
}

// RootByEcsID resolves any version of any sub-entity to the root that owns
// it, via the reverse index.
func (r *Registry) RootByEcsID(ecsID uuid.UUID) (uuid.UUID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	root, ok := r.rootByEcsID[ecsID]
	return root, ok
}

// RootsByLineage returns the ordered version history for a lineage.
func (r *Registry) RootsByLineage(lineageID uuid.UUID) []uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]uuid.UUID, len(r.rootsByLineage[lineageID]))
	copy(out, r.rootsByLineage[lineageID])
	return out
}

// LineagesByType returns the root lineages registered under a type name.
func (r *Registry) LineagesByType(typeName string) []uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]uuid.UUID, len(r.lineagesByType[typeName]))
	copy(out, r.lineagesByType[typeName])
	return out
}

// VersionEntity implements spec.md §4.4. It builds a fresh tree from the
// live root, diffs it against the stored snapshot (or treats the whole
// tree as modified when force is true), and — if anything changed —
// re-stamps the modified entities and registers the new snapshot. It
// returns true if a new snapshot was produced (including first-time
// registration of a previously unknown root), false otherwise. A nil root
// returns false.
func (r *Registry) VersionEntity(root entity.Entity, force bool) (bool, error) {
	if root == nil {
		return false, nil
	}
	rb := root.GetBase()
	r.emit(event.OpVersionEntity, event.PhaseStarting, rb.EcsID, false, nil)

	changed, err := r.versionEntity(root, force)
	r.emit(event.OpVersionEntity, event.PhaseCompleted, rb.EcsID, changed, err)
	return changed, err
}

func (r *Registry) versionEntity(root entity.Entity, force bool) (bool, error) {
	rb := root.GetBase()

	if !rb.IsRoot() {
		return false, entity.NewError(entity.ErrNotARoot, rb.EcsID, "version_entity requires a root entity")
	}

	r.mu.Lock()
	oldTree, known := r.treeByRoot[rb.EcsID]
	r.mu.Unlock()

	if !known {
		if err := r.RegisterRoot(root); err != nil {
			return false, err
		}
		return true, nil
	}

	newTree, err := treebuild.Build(root)
	if err != nil {
		return false, err
	}

	var modified map[uuid.UUID]struct{}
	if force {
		modified = make(map[uuid.UUID]struct{}, len(newTree.Nodes))
		for id := range newTree.Nodes {
			modified[id] = struct{}{}
		}
	} else {
		modified = diff.Compute(oldTree, newTree).Modified
	}

	if len(modified) == 0 {
		return false, nil
	}

	outcome, err := version.Apply(root, newTree, modified)
	if err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.registerTreeLocked(outcome.Tree); err != nil {
		return false, err
	}
	return true, nil
}
