// Package diagram renders an entity.EntityTree as a Mermaid flowchart, the
// visualization collaborator spec.md places out of the core's scope
// (§1 "Visualization and example programs"). It only reads an
// EntityTree's public fields, grounded on
// examples/mermaid/entity_graph_visualization.py and
// examples/mermaid/diff_visualization.py from original_source/.
package diagram

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/arthur-debert/entigraph/diff"
	"github.com/arthur-debert/entigraph/entity"
)

// Mermaid renders t as a top-down Mermaid flowchart. Node labels show the
// entity's Go type name and the first 8 characters of its ecs_id; edge
// labels show the field name and, for list/tuple/dict edges, the
// container coordinate.
func Mermaid(t *entity.EntityTree) string {
	var b strings.Builder
	b.WriteString("graph TD\n")

	ids := sortedIDs(t.Nodes)
	for _, id := range ids {
		n := t.Nodes[id]
		b.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", nodeRef(id), label(n)))
	}

	for _, e := range sortedEdges(t) {
		b.WriteString(fmt.Sprintf("    %s -->|%s| %s\n", nodeRef(e.SourceEcsID), edgeLabel(e), nodeRef(e.TargetEcsID)))
	}

	return b.String()
}

// MermaidDiff renders the same flowchart with nodes classified by diff
// outcome (added/removed/moved/modified/unchanged) using Mermaid class
// styling, grounded on original_source/examples/mermaid/diff_visualization.py.
func MermaidDiff(newTree *entity.EntityTree, result *diff.Result) string {
	var b strings.Builder
	b.WriteString("graph TD\n")

	classDefs := map[string]string{
		"added":     "fill:#bfb,stroke:#363",
		"removed":   "fill:#fbb,stroke:#633",
		"moved":     "fill:#bbf,stroke:#336",
		"modified":  "fill:#ffb,stroke:#663",
		"unchanged": "fill:#eee,stroke:#999",
	}
	for cls, style := range classDefs {
		b.WriteString(fmt.Sprintf("    classDef %s %s\n", cls, style))
	}

	ids := sortedIDs(newTree.Nodes)
	for _, id := range ids {
		n := newTree.Nodes[id]
		cls := classify(id, result)
		b.WriteString(fmt.Sprintf("    %s[\"%s\"]:::%s\n", nodeRef(id), label(n), cls))
	}

	for _, e := range sortedEdges(newTree) {
		b.WriteString(fmt.Sprintf("    %s -->|%s| %s\n", nodeRef(e.SourceEcsID), edgeLabel(e), nodeRef(e.TargetEcsID)))
	}

	return b.String()
}

func classify(id uuid.UUID, r *diff.Result) string {
	switch {
	case has(r.Added, id):
		return "added"
	case has(r.Removed, id):
		return "removed"
	case has(r.Moved, id):
		return "moved"
	case has(r.Modified, id):
		return "modified"
	default:
		return "unchanged"
	}
}

func has(set map[uuid.UUID]struct{}, id uuid.UUID) bool {
	_, ok := set[id]
	return ok
}

func nodeRef(id uuid.UUID) string {
	return "n" + strings.ReplaceAll(id.String(), "-", "")
}

func label(e entity.Entity) string {
	return fmt.Sprintf("%s\\n%s", entity.TypeName(e), e.GetBase().EcsID.String()[:8])
}

func edgeLabel(e entity.EntityEdge) string {
	switch {
	case e.ContainerIndex != nil:
		return fmt.Sprintf("%s[%d]", e.FieldName, *e.ContainerIndex)
	case e.ContainerKey != nil:
		return fmt.Sprintf("%s[%s]", e.FieldName, *e.ContainerKey)
	default:
		return e.FieldName
	}
}

func sortedIDs(nodes map[uuid.UUID]entity.Entity) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(nodes))
	for id := range nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

func sortedEdges(t *entity.EntityTree) []entity.EntityEdge {
	edges := make([]entity.EntityEdge, 0, len(t.Edges))
	for _, e := range t.Edges {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if a.SourceEcsID != b.SourceEcsID {
			return a.SourceEcsID.String() < b.SourceEcsID.String()
		}
		if a.TargetEcsID != b.TargetEcsID {
			return a.TargetEcsID.String() < b.TargetEcsID.String()
		}
		return a.FieldName < b.FieldName
	})
	return edges
}
