package persist

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/entigraph/entity"
	"github.com/arthur-debert/entigraph/treebuild"
)

type persistProject struct {
	entity.Base
	Name  string
	Tasks entity.List
}

type persistTask struct {
	entity.Base
	Title string
	Done  bool
}

func newPersistProject(name string) *persistProject {
	return &persistProject{Base: entity.NewBase(), Name: name}
}

func newPersistTask(title string) *persistTask {
	return &persistTask{Base: entity.NewBase(), Title: title}
}

func testRegistry() Registry {
	return Registry{
		"persistProject": func() entity.Entity { return &persistProject{} },
		"persistTask":    func() entity.Entity { return &persistTask{} },
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	project := newPersistProject("demo")
	t1 := newPersistTask("write")
	t2 := newPersistTask("ship")
	t2.Done = true
	project.Tasks = entity.List{t1, t2}
	project.RootEcsID = project.EcsID

	tree, err := treebuild.Build(project)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	snap := ExportTree(tree)
	imported, err := ImportTree(snap, testRegistry())
	if err != nil {
		t.Fatalf("ImportTree returned error: %v", err)
	}

	if imported.RootEcsID != tree.RootEcsID {
		t.Fatalf("RootEcsID = %s, want %s", imported.RootEcsID, tree.RootEcsID)
	}
	if imported.NodeCount() != tree.NodeCount() {
		t.Fatalf("NodeCount = %d, want %d", imported.NodeCount(), tree.NodeCount())
	}

	importedProject := imported.Nodes[project.EcsID].(*persistProject)
	if importedProject.Name != "demo" {
		t.Fatalf("Name = %q, want %q", importedProject.Name, "demo")
	}
	if len(importedProject.Tasks) != 2 {
		t.Fatalf("len(Tasks) = %d, want 2", len(importedProject.Tasks))
	}

	var sawDone bool
	for _, child := range importedProject.Tasks {
		task := child.(*persistTask)
		if task.Title == "ship" && task.Done {
			sawDone = true
		}
		if task.EcsID == t1.EcsID || task.EcsID == t2.EcsID {
			if task.LiveID == t1.LiveID || task.LiveID == t2.LiveID {
				t.Fatal("import must re-stamp live_ids rather than reuse the originals")
			}
		}
	}
	if !sawDone {
		t.Fatal("expected the imported tree to preserve the Done flag")
	}
}

func TestWriteReadFileRoundTrip(t *testing.T) {
	project := newPersistProject("demo")
	project.RootEcsID = project.EcsID
	tree, err := treebuild.Build(project)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	snap := ExportTree(tree)

	path := filepath.Join(t.TempDir(), "snapshot.yaml")
	ctx := context.Background()

	if err := WriteFile(ctx, path, snap); err != nil {
		t.Fatalf("WriteFile returned error: %v", err)
	}

	readBack, err := ReadFile(ctx, path)
	if err != nil {
		t.Fatalf("ReadFile returned error: %v", err)
	}
	if readBack.RootEcsID != snap.RootEcsID {
		t.Fatalf("RootEcsID = %s, want %s", readBack.RootEcsID, snap.RootEcsID)
	}
	if len(readBack.Nodes) != len(snap.Nodes) {
		t.Fatalf("len(Nodes) = %d, want %d", len(readBack.Nodes), len(snap.Nodes))
	}
}
