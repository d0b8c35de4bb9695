package main

import "github.com/arthur-debert/entigraph/entity"

// Project and Task are the sample domain this CLI demonstrates against: a
// root entity (Project) owning an ordered list of child entities (Task).
// Any real application would declare its own entity.Entity types in
// exactly this shape.
type Project struct {
	entity.Base
	Name  string
	Tasks entity.List
}

type Task struct {
	entity.Base
	Title string
	Done  bool
}

func newProject(name string) *Project {
	p := &Project{Base: entity.NewBase(), Name: name}
	p.RootEcsID = p.EcsID
	p.RootLiveID = p.LiveID
	return p
}

func newTask(title string) *Task {
	return &Task{Base: entity.NewBase(), Title: title}
}
