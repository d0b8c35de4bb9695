package main

import (
	"fmt"
	"log/slog"

	"github.com/arthur-debert/entigraph/diff"
	"github.com/arthur-debert/entigraph/entity"
	"github.com/arthur-debert/entigraph/registry"
)

// demoResult carries every artifact a subcommand might want to render:
// the registry the scenario ran against, the tree before and after the
// mutation, and the structural diff between them.
type demoResult struct {
	reg    *registry.Registry
	before *entity.EntityTree
	after  *entity.EntityTree
	diff   *diff.Result
}

// runDemo builds a small Project/Task tree, registers it, mutates one task,
// re-versions the project, and returns every intermediate artifact. It is
// the scenario every entigraphctl subcommand renders a different view of.
func runDemo(logger *slog.Logger) (*demoResult, error) {
	reg := registry.New(registry.WithSink(slogSink{log: logger}))

	project := newProject("Launch")
	t1 := newTask("Write spec")
	t2 := newTask("Ship it")
	project.Tasks = entity.List{t1, t2}

	if err := reg.RegisterRoot(project); err != nil {
		return nil, fmt.Errorf("registering project: %w", err)
	}

	before, ok := reg.GetTree(project.GetBase().EcsID)
	if !ok {
		return nil, fmt.Errorf("project not found immediately after registration")
	}

	t1.Done = true

	if _, err := reg.VersionEntity(project, false); err != nil {
		return nil, fmt.Errorf("versioning project: %w", err)
	}

	after, err := reg.GetTreeFromEntity(project)
	if err != nil {
		return nil, fmt.Errorf("fetching project tree after versioning: %w", err)
	}

	result := diff.Compute(before, after)

	return &demoResult{reg: reg, before: before, after: after, diff: result}, nil
}
