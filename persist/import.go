package persist

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/go-viper/mapstructure/v2"
	"github.com/google/uuid"

	"github.com/arthur-debert/entigraph/entity"
	"github.com/arthur-debert/entigraph/treebuild"
)

// ImportTree reconstructs a live *entity.EntityTree from snap. reg must
// contain a factory for every TypeName recorded in snap.Nodes. Every node's
// live_id is re-stamped fresh, the same re-stamping contract
// registry.GetTree applies to a retrieved tree, since a tree loaded from
// disk is a new runtime incarnation of stored data.
//
// Plain field values are restored via mapstructure rather than a
// hand-rolled decoder: YAML unmarshaling into map[string]interface{}
// produces generic Go values (map[string]interface{}, []interface{},
// string, int) that do not line up 1:1 with a domain struct's concrete
// field types, and mapstructure is the conversion layer already present in
// this module's dependency graph (pulled in transitively through Viper)
// for exactly this kind of loosely typed-to-typed decoding.
func ImportTree(snap *Snapshot, reg Registry) (*entity.EntityTree, error) {
	nodes := make(map[uuid.UUID]entity.Entity, len(snap.Nodes))

	for _, rec := range snap.Nodes {
		factory, ok := reg[rec.TypeName]
		if !ok {
			return nil, fmt.Errorf("persist: no factory registered for type %q", rec.TypeName)
		}
		e := factory()

		if err := mapstructure.Decode(rec.Fields, e); err != nil {
			return nil, fmt.Errorf("persist: decoding fields for %s %s: %w", rec.TypeName, rec.EcsID, err)
		}

		b := e.GetBase()
		b.EcsID = rec.EcsID
		b.LiveID = uuid.New()
		b.LineageID = rec.LineageID
		b.PreviousEcsID = rec.PreviousEcsID
		b.OldEcsID = rec.OldEcsID
		b.OldIDs = append([]uuid.UUID(nil), rec.OldIDs...)
		b.RootEcsID = rec.RootEcsID
		b.CreatedAt = rec.CreatedAt
		b.ForkedAt = rec.ForkedAt
		b.FromStorage = true
		b.AttributeSource = copyAttributeSources(rec.AttributeSource)

		nodes[rec.EcsID] = e
	}

	root, ok := nodes[snap.RootEcsID]
	if !ok {
		return nil, fmt.Errorf("persist: root %s not found among imported nodes", snap.RootEcsID)
	}
	rootLiveID := root.GetBase().LiveID
	for _, n := range nodes {
		b := n.GetBase()
		if b.RootEcsID == snap.RootEcsID {
			b.RootLiveID = rootLiveID
		}
	}

	type groupKey struct {
		source uuid.UUID
		field  string
	}
	groups := make(map[groupKey][]EdgeRecord)
	for _, er := range snap.Edges {
		k := groupKey{er.Source, er.FieldName}
		groups[k] = append(groups[k], er)
	}

	for k, edges := range groups {
		parent, ok := nodes[k.source]
		if !ok {
			return nil, fmt.Errorf("persist: edge source %s not found", k.source)
		}
		if err := wireField(parent, k.field, edges, nodes); err != nil {
			return nil, err
		}
	}

	return treebuild.Build(root)
}

// wireField assigns parent's named entity-bearing field from the resolved
// targets of edges.
func wireField(parent entity.Entity, fieldName string, edges []EdgeRecord, nodes map[uuid.UUID]entity.Entity) error {
	fi, ok := entity.FieldByName(parent, fieldName)
	if !ok {
		return fmt.Errorf("persist: field %q not declared on %s", fieldName, entity.TypeName(parent))
	}

	switch fi.Kind {
	case entity.SingleEntity:
		target, ok := nodes[edges[0].Target]
		if !ok {
			return fmt.Errorf("persist: target %s not found", edges[0].Target)
		}
		fi.Value.Set(reflect.ValueOf(target))

	case entity.ListOfEntity, entity.TupleOfEntity:
		sort.Slice(edges, func(i, j int) bool {
			ii, jj := edges[i].ContainerIndex, edges[j].ContainerIndex
			if ii == nil || jj == nil {
				return false
			}
			return *ii < *jj
		})
		slice := reflect.MakeSlice(fi.Value.Type(), len(edges), len(edges))
		for i, er := range edges {
			target, ok := nodes[er.Target]
			if !ok {
				return fmt.Errorf("persist: target %s not found", er.Target)
			}
			slice.Index(i).Set(reflect.ValueOf(target))
		}
		fi.Value.Set(slice)

	case entity.DictOfEntity:
		d := fi.Value.Addr().Interface().(*entity.Dict)
		*d = *entity.NewDict()
		for _, er := range edges {
			target, ok := nodes[er.Target]
			if !ok {
				return fmt.Errorf("persist: target %s not found", er.Target)
			}
			if er.ContainerKey == nil {
				return fmt.Errorf("persist: dict edge on %s missing container key", fieldName)
			}
			d.Set(*er.ContainerKey, target)
		}

	case entity.SetOfEntity:
		s := fi.Value.Addr().Interface().(*entity.Set)
		*s = *entity.NewSet()
		for _, er := range edges {
			target, ok := nodes[er.Target]
			if !ok {
				return fmt.Errorf("persist: target %s not found", er.Target)
			}
			s.Add(target)
		}

	default:
		return fmt.Errorf("persist: field %q is not entity-bearing", fieldName)
	}

	return nil
}
