// Package persist exports and imports entity.EntityTree snapshots to and
// from YAML files, the durable-storage collaborator spec.md places out of
// the core's scope (§1: "this module does not specify a persistence format
// or storage backend"). It is grounded on the demo JSON->document export in
// nanostore/formats (deleted from this tree; its recursive record-then-
// reconstruct approach is preserved here, adapted to entity trees) and
// uses gopkg.in/yaml.v3 for serialization and github.com/gofrs/flock to
// guard concurrent writers the way a multi-process CLI would need to.
package persist

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/arthur-debert/entigraph/entity"
)

// NodeRecord is the serializable form of one entity: its identity block
// verbatim, a type tag used to pick the right factory on import, and its
// plain (non-entity-bearing) field values keyed by field name.
type NodeRecord struct {
	TypeName string `yaml:"type"`

	EcsID         uuid.UUID   `yaml:"ecs_id"`
	LiveID        uuid.UUID   `yaml:"live_id"`
	LineageID     uuid.UUID   `yaml:"lineage_id"`
	PreviousEcsID uuid.UUID   `yaml:"previous_ecs_id,omitempty"`
	OldEcsID      uuid.UUID   `yaml:"old_ecs_id,omitempty"`
	OldIDs        []uuid.UUID `yaml:"old_ids,omitempty"`

	RootEcsID  uuid.UUID `yaml:"root_ecs_id"`
	RootLiveID uuid.UUID `yaml:"root_live_id"`

	CreatedAt time.Time `yaml:"created_at"`
	ForkedAt  time.Time `yaml:"forked_at,omitempty"`

	FromStorage bool `yaml:"from_storage"`

	AttributeSource map[string]entity.AttributeSource `yaml:"attribute_source,omitempty"`
	Fields          map[string]interface{}            `yaml:"fields"`
}

// EdgeRecord is the serializable form of one EntityEdge.
type EdgeRecord struct {
	Source    uuid.UUID `yaml:"source"`
	Target    uuid.UUID `yaml:"target"`
	FieldName string    `yaml:"field_name"`
	Kind      string    `yaml:"kind"`

	ContainerIndex *int    `yaml:"container_index,omitempty"`
	ContainerKey   *string `yaml:"container_key,omitempty"`
}

// Snapshot is the serializable form of an entity.EntityTree.
type Snapshot struct {
	RootEcsID uuid.UUID    `yaml:"root_ecs_id"`
	LineageID uuid.UUID    `yaml:"lineage_id"`
	Nodes     []NodeRecord `yaml:"nodes"`
	Edges     []EdgeRecord `yaml:"edges"`
}

// ExportTree flattens t into a Snapshot. Node order follows t's ancestry
// path lengths (root first) so ImportTree can reconstruct deterministically,
// though reconstruction does not actually depend on order.
func ExportTree(t *entity.EntityTree) *Snapshot {
	snap := &Snapshot{RootEcsID: t.RootEcsID, LineageID: t.LineageID}

	for id, e := range t.Nodes {
		b := e.GetBase()
		rec := NodeRecord{
			TypeName:        entity.TypeName(e),
			EcsID:           b.EcsID,
			LiveID:          b.LiveID,
			LineageID:       b.LineageID,
			PreviousEcsID:   b.PreviousEcsID,
			OldEcsID:        b.OldEcsID,
			OldIDs:          append([]uuid.UUID(nil), b.OldIDs...),
			RootEcsID:       b.RootEcsID,
			RootLiveID:      b.RootLiveID,
			CreatedAt:       b.CreatedAt,
			ForkedAt:        b.ForkedAt,
			FromStorage:     b.FromStorage,
			AttributeSource: copyAttributeSources(b.AttributeSource),
			Fields:          make(map[string]interface{}),
		}
		for _, fi := range entity.Introspect(e) {
			if fi.Kind != entity.NotEntityBearing {
				continue
			}
			rec.Fields[fi.Name] = entity.DeepCopyPlain(fi.Value.Interface())
		}
		_ = id
		snap.Nodes = append(snap.Nodes, rec)
	}
	sort.Slice(snap.Nodes, func(i, j int) bool {
		di := len(t.AncestryPaths[snap.Nodes[i].EcsID])
		dj := len(t.AncestryPaths[snap.Nodes[j].EcsID])
		if di != dj {
			return di < dj
		}
		return snap.Nodes[i].EcsID.String() < snap.Nodes[j].EcsID.String()
	})

	for _, e := range t.Edges {
		snap.Edges = append(snap.Edges, EdgeRecord{
			Source:         e.SourceEcsID,
			Target:         e.TargetEcsID,
			FieldName:      e.FieldName,
			Kind:           e.Kind.String(),
			ContainerIndex: e.ContainerIndex,
			ContainerKey:   e.ContainerKey,
		})
	}

	return snap
}

func copyAttributeSources(m map[string]entity.AttributeSource) map[string]entity.AttributeSource {
	out := make(map[string]entity.AttributeSource, len(m))
	for k, v := range m {
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
		out[k] = cp
	}
	return out
}
