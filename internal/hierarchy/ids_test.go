package hierarchy

import (
	"errors"
	"testing"
)

func sampleTree() []*Group {
	heating := &Group{Name: "Heating", Kind: KindMain}
	piping := &Group{Name: "Piping", Kind: KindSub, Parent: heating}
	valves := &Group{Name: "Valves", Kind: KindSub, Parent: heating}
	heating.Children = []*Group{piping, valves}
	piping.Items = []*Item{
		{Name: "a", Parent: piping, Attributes: map[string]any{"unit": "m"}},
		{Name: "b", Parent: piping},
	}
	valves.Items = []*Item{{Name: "c", Parent: valves}}

	vent := &Group{Name: "Ventilation", Kind: KindMain}
	ducts := &Group{Name: "Ducts", Kind: KindSub, Parent: vent}
	vent.Children = []*Group{ducts}
	ducts.Items = []*Item{{Name: "d", Parent: ducts}}

	return []*Group{heating, vent}
}

func TestAssignIDs(t *testing.T) {
	fs := AssignIDs(sampleTree())

	if fs.Summary.TotalMainGroups != 2 || fs.Summary.TotalSubGroups != 3 || fs.Summary.TotalItems != 4 {
		t.Fatalf("unexpected summary: %+v", fs.Summary)
	}
	if fs.Summary.IDStructure == "" {
		t.Error("expected id structure description")
	}

	want := []string{"1.1.1", "1.1.2", "1.2.1", "2.1.1"}
	var got []string
	for _, mg := range fs.MainGroups {
		for _, sg := range mg.SubGroups {
			if sg.ParentMainGroupID != mg.ID {
				t.Errorf("sub-group %s has parent %s", sg.ID, sg.ParentMainGroupID)
			}
			for _, it := range sg.Items {
				got = append(got, it.ID)
				if it.ParentSubGroupID != sg.ID || it.ParentMainGroupID != mg.ID {
					t.Errorf("item %s has wrong parents", it.ID)
				}
			}
		}
	}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("item %d: expected %s, got %s", i, want[i], got[i])
		}
	}
	if errs := ValidateIDs(fs); len(errs) != 0 {
		t.Errorf("assigned ids should validate, got %v", errs)
	}
}

func TestAssignIDs_SnapshotIsDetached(t *testing.T) {
	groups := sampleTree()
	fs := AssignIDs(groups)

	groups[0].Children[0].Items[0].Attributes["unit"] = "km"
	if fs.MainGroups[0].SubGroups[0].Items[0].Attributes["unit"] != "m" {
		t.Error("final structure should not share attribute maps with the tree")
	}
}

func TestAssignIDs_Empty(t *testing.T) {
	fs := AssignIDs(nil)
	if fs.MainGroups == nil || len(fs.MainGroups) != 0 {
		t.Errorf("expected empty non-nil main groups, got %#v", fs.MainGroups)
	}
	if fs.Summary.TotalItems != 0 {
		t.Errorf("expected zero items, got %d", fs.Summary.TotalItems)
	}
}

func TestValidateIDs_ReportsProblems(t *testing.T) {
	fs := AssignIDs(sampleTree())
	fs.MainGroups[0].SubGroups[1].ID = "1.3"
	fs.MainGroups[1].SubGroups[0].Items[0].ParentSubGroupID = "9.9"
	fs.MainGroups[0].SubGroups[0].Items[1].ID = "1.1.x"

	errs := ValidateIDs(fs)
	if len(errs) < 3 {
		t.Fatalf("expected at least 3 errors, got %v", errs)
	}
	for _, err := range errs {
		var ive *IDValidationError
		if !errors.As(err, &ive) {
			t.Errorf("expected IDValidationError, got %T", err)
		}
	}
}
