package hierarchy

import (
	"encoding/json"
	"errors"
	"testing"
)

func mustObject(t *testing.T, s string) map[string]any {
	t.Helper()
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	return obj
}

func TestDecodePartial_Canonical(t *testing.T) {
	obj := mustObject(t, `{"groups": [{"name": "Heating Distribution", "sub_groups": [
		{"name": "Piping", "items": [
			{"name": "DN 80 steel pipe", "quantity": 120, "unit": "m"},
			{"name": "DN 50 steel pipe", "quantity": 40, "unit": "m"}
		]}
	]}]}`)

	tree, errs := DecodePartial(obj, "chunk_0_abc")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(tree.Groups) != 1 || len(tree.Groups[0].SubGroups) != 1 {
		t.Fatalf("unexpected shape: %+v", tree)
	}
	items := tree.Groups[0].SubGroups[0].Items
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Name != "DN 80 steel pipe" {
		t.Errorf("expected item name, got %q", items[0].Name)
	}
	if items[0].Attributes["unit"] != "m" || items[0].Attributes["quantity"] != float64(120) {
		t.Errorf("unexpected attributes: %v", items[0].Attributes)
	}
	if _, ok := items[0].Attributes["name"]; ok {
		t.Error("name should not be repeated in attributes")
	}
}

func TestDecodePartial_Aliases(t *testing.T) {
	obj := mustObject(t, `{"offer_item_groups": [{"name": "Ventilation", "offer_groups": [
		{"name": "Ducts", "offer_items": [{"name": "Round duct 200"}]}
	]}]}`)

	tree, errs := DecodePartial(obj, "c")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if got := tree.Groups[0].SubGroups[0].Items[0].Name; got != "Round duct 200" {
		t.Errorf("expected aliased item, got %q", got)
	}
}

func TestDecodePartial_Continuation(t *testing.T) {
	obj := mustObject(t, `{"groups": [{"name": null, "is_continuation": true, "sub_groups": [
		{"name": "", "items": [{"name": "Elbow 90"}]}
	]}]}`)

	tree, errs := DecodePartial(obj, "c")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	g := tree.Groups[0]
	if g.Name != "" || !g.Continuation {
		t.Errorf("expected unnamed continuation group, got %+v", g)
	}
}

func TestDecodePartial_MissingGroups(t *testing.T) {
	_, errs := DecodePartial(mustObject(t, `{"answer": 42}`), "c")
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %v", errs)
	}
	var me *MergeError
	if !errors.As(errs[0], &me) {
		t.Fatalf("expected MergeError, got %T", errs[0])
	}
}

func TestDecodePartial_BadGroupKeepsSiblings(t *testing.T) {
	obj := mustObject(t, `{"groups": [
		{"name": "Broken", "sub_groups": "not a list"},
		"just a string",
		{"name": "Fine", "sub_groups": []}
	]}`)

	tree, errs := DecodePartial(obj, "c")
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %v", errs)
	}
	if len(tree.Groups) != 1 || tree.Groups[0].Name != "Fine" {
		t.Errorf("expected the well-formed group to survive, got %+v", tree.Groups)
	}
}

func TestDecodePartial_EmptyGroups(t *testing.T) {
	tree, errs := DecodePartial(mustObject(t, `{"groups": []}`), "c")
	if len(errs) != 0 || len(tree.Groups) != 0 {
		t.Errorf("expected empty tree without errors, got %+v %v", tree, errs)
	}
}

func TestDecodePartial_NullListsKeepGroup(t *testing.T) {
	obj := mustObject(t, `{"groups": [
		{"name": "Heating Distribution", "sub_groups": null},
		{"name": "Ventilation", "sub_groups": [{"name": "Ducts", "items": null}], "items": null}
	]}`)

	tree, errs := DecodePartial(obj, "c")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(tree.Groups) != 2 || tree.Groups[0].Name != "Heating Distribution" {
		t.Fatalf("expected both groups kept, got %+v", tree.Groups)
	}
	if len(tree.Groups[1].SubGroups) != 1 || tree.Groups[1].SubGroups[0].Items != nil {
		t.Errorf("unexpected sub-groups %+v", tree.Groups[1].SubGroups)
	}
}

func TestDecodePartial_ItemsOnMainGroup(t *testing.T) {
	obj := mustObject(t, `{"offer_item_groups": [{"name": "Heating Distribution",
		"offer_items": [{"name": "DN 80", "unit": "m"}, {"name": "DN 65"}]}]}`)

	tree, errs := DecodePartial(obj, "c")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	g := tree.Groups[0]
	if len(g.SubGroups) != 0 || len(g.Items) != 2 {
		t.Fatalf("expected 2 direct items, got %+v", g)
	}
	if g.Items[0].Name != "DN 80" || g.Items[0].Attributes["unit"] != "m" {
		t.Errorf("unexpected item %+v", g.Items[0])
	}

	_, errs = DecodePartial(mustObject(t, `{"groups": [{"name": "X", "items": ["DN 80"]}]}`), "c")
	if len(errs) != 1 {
		t.Errorf("expected non-object item to be reported, got %v", errs)
	}
}
