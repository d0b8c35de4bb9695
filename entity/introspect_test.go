package entity

import "testing"

type introLeaf struct {
	Base
	Title string
}

type introParent struct {
	Base
	Name     string
	Favorite *introLeaf
	All      List
	ByName   Dict
	Unique   Set
	Pair     Tuple
}

func newIntroLeaf(title string) *introLeaf {
	return &introLeaf{Base: NewBase(), Title: title}
}

func TestIntrospectClassification(t *testing.T) {
	p := &introParent{Base: NewBase(), Name: "root"}
	fields := Introspect(p)

	want := map[string]FieldKind{
		"Name":     NotEntityBearing,
		"Favorite": SingleEntity,
		"All":      ListOfEntity,
		"ByName":   DictOfEntity,
		"Unique":   SetOfEntity,
		"Pair":     TupleOfEntity,
	}

	if len(fields) != len(want) {
		t.Fatalf("got %d declared fields, want %d (embedded Base must be excluded)", len(fields), len(want))
	}
	for _, fi := range fields {
		k, ok := want[fi.Name]
		if !ok {
			t.Fatalf("unexpected field %q in Introspect output", fi.Name)
		}
		if fi.Kind != k {
			t.Errorf("field %q: kind = %v, want %v", fi.Name, fi.Kind, k)
		}
	}
}

func TestChildrenOrderAndCoordinates(t *testing.T) {
	p := &introParent{Base: NewBase()}
	fav := newIntroLeaf("fav")
	l1, l2 := newIntroLeaf("l1"), newIntroLeaf("l2")
	d1 := newIntroLeaf("d1")

	p.Favorite = fav
	p.All = List{l1, l2}
	p.ByName.Set("only", d1)

	children := Children(p)

	var names []string
	for _, c := range children {
		names = append(names, c.FieldName)
	}
	wantOrder := []string{"Favorite", "All", "All", "ByName"}
	if len(names) != len(wantOrder) {
		t.Fatalf("got children field order %v, want %v", names, wantOrder)
	}
	for i, n := range names {
		if n != wantOrder[i] {
			t.Errorf("child %d field = %q, want %q", i, n, wantOrder[i])
		}
	}

	for _, c := range children {
		if c.FieldName == "All" {
			if c.ContainerIndex == nil {
				t.Error("list child missing container index")
			}
		}
		if c.FieldName == "ByName" && (c.ContainerKey == nil || *c.ContainerKey != "only") {
			t.Error("dict child missing or wrong container key")
		}
	}
}

func TestPlainEqual(t *testing.T) {
	a := &introParent{Base: NewBase(), Name: "x"}
	b := &introParent{Base: NewBase(), Name: "x"}
	if !PlainEqual(a, b) {
		t.Fatal("entities with identical plain fields should be PlainEqual regardless of identity")
	}

	b.Name = "y"
	if PlainEqual(a, b) {
		t.Fatal("a changed plain field must break PlainEqual")
	}
}
