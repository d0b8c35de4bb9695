package registry

import (
	"github.com/google/uuid"

	"github.com/arthur-debert/entigraph/entity"
)

// cloneTree produces a structurally independent copy of t: every node is a
// fresh object with a freshly minted live_id, every plain-data field is
// deep-copied, and entity-bearing fields are relinked to point at the
// corresponding clones rather than t's original nodes. ecs_id, lineage_id,
// and history fields are preserved byte-for-byte.
func cloneTree(t *entity.EntityTree) *entity.EntityTree {
	clones := make(map[uuid.UUID]entity.Entity, len(t.Nodes))
	for id, n := range t.Nodes {
		clones[id] = entity.ShallowClone(n)
	}
	for _, c := range clones {
		entity.RelinkChildren(c, clones)
	}

	rootClone := clones[t.RootEcsID]
	newRootLiveID := uuid.New()
	rootClone.GetBase().LiveID = newRootLiveID
	rootClone.GetBase().RootLiveID = newRootLiveID

	for id, c := range clones {
		if id == t.RootEcsID {
			continue
		}
		b := c.GetBase()
		b.LiveID = uuid.New()
		if !b.IsOrphan() {
			b.RootLiveID = newRootLiveID
		}
	}

	out := entity.NewEntityTree(t.RootEcsID, t.LineageID)
	out.Nodes = clones

	for k, e := range t.Edges {
		out.Edges[k] = e
	}
	for id, targets := range t.Outgoing {
		out.Outgoing[id] = append([]uuid.UUID(nil), targets...)
	}
	for id, sources := range t.Incoming {
		out.Incoming[id] = append([]uuid.UUID(nil), sources...)
	}
	for id, path := range t.AncestryPaths {
		out.AncestryPaths[id] = append([]uuid.UUID(nil), path...)
	}
	for id, c := range clones {
		out.LiveIDIndex[c.GetBase().LiveID] = id
	}

	return out
}
