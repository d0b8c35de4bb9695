// Package diff implements the three-stage structural diff between two
// entity trees of the same lineage, per spec.md §4.3.
package diff

import (
	"sort"

	"github.com/google/uuid"

	"github.com/arthur-debert/entigraph/entity"
)

// Result is the output of Compute: the modified set the versioning engine
// must re-stamp, plus diagnostic sets.
type Result struct {
	Added     map[uuid.UUID]struct{}
	Removed   map[uuid.UUID]struct{}
	Moved     map[uuid.UUID]struct{}
	Unchanged map[uuid.UUID]struct{}
	Modified  map[uuid.UUID]struct{}

	// ComparisonCount counts the Stage 3 attribute comparisons actually
	// performed, for diagnostics and tests asserting the engine didn't do
	// more work than the algorithm requires.
	ComparisonCount int
}

func newResult() *Result {
	return &Result{
		Added:     make(map[uuid.UUID]struct{}),
		Removed:   make(map[uuid.UUID]struct{}),
		Moved:     make(map[uuid.UUID]struct{}),
		Unchanged: make(map[uuid.UUID]struct{}),
		Modified:  make(map[uuid.UUID]struct{}),
	}
}

func addPath(mod map[uuid.UUID]struct{}, path []uuid.UUID) {
	for _, id := range path {
		mod[id] = struct{}{}
	}
}

// Compute compares oldTree against newTree, which must be snapshots of the
// same lineage, and returns the modified set plus diagnostics.
func Compute(oldTree, newTree *entity.EntityTree) *Result {
	r := newResult()

	// Stage 1 — node set difference.
	for id := range newTree.Nodes {
		if _, ok := oldTree.Nodes[id]; !ok {
			r.Added[id] = struct{}{}
		}
	}
	for id := range oldTree.Nodes {
		if _, ok := newTree.Nodes[id]; !ok {
			r.Removed[id] = struct{}{}
		}
	}
	for id := range r.Added {
		addPath(r.Modified, newTree.AncestryPaths[id])
	}

	// Stage 2 — edge-induced moves. Compare incoming-source sets for every
	// common node.
	common := make(map[uuid.UUID]struct{})
	for id := range newTree.Nodes {
		if _, ok := oldTree.Nodes[id]; ok {
			common[id] = struct{}{}
		}
	}
	for id := range common {
		oldSrc := oldTree.IncomingSources(id)
		newSrc := newTree.IncomingSources(id)
		if !sameSet(oldSrc, newSrc) {
			r.Moved[id] = struct{}{}
			addPath(r.Modified, newTree.AncestryPaths[id])
		}
	}

	// Stage 3 — attribute comparison of remaining commons, leaves first.
	var remaining []uuid.UUID
	for id := range common {
		if _, inMod := r.Modified[id]; inMod {
			continue
		}
		if _, inMoved := r.Moved[id]; inMoved {
			continue
		}
		remaining = append(remaining, id)
	}
	sort.Slice(remaining, func(i, j int) bool {
		return len(newTree.AncestryPaths[remaining[i]]) > len(newTree.AncestryPaths[remaining[j]])
	})

	for _, id := range remaining {
		if _, already := r.Modified[id]; already {
			// Greedy mode: an ancestor already pulled in by a deeper
			// descendant's full path needs no separate comparison.
			continue
		}
		oldEntity, oldOK := oldTree.Nodes[id]
		newEntity, newOK := newTree.Nodes[id]
		if !oldOK || !newOK {
			addPath(r.Modified, newTree.AncestryPaths[id])
			continue
		}
		r.ComparisonCount++
		if !entity.PlainEqual(oldEntity, newEntity) {
			addPath(r.Modified, newTree.AncestryPaths[id])
			continue
		}
		r.Unchanged[id] = struct{}{}
	}

	return r
}

func sameSet(a, b map[uuid.UUID]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
