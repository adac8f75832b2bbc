package hierarchy

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// PartialTree is one chunk's model output, decoded into the same three
// levels as the accumulated tree but without IDs or parent links.
type PartialTree struct {
	Groups []PartialGroup
}

type PartialGroup struct {
	Name         string
	Continuation bool
	SubGroups    []PartialSubGroup
	// Items the model listed directly on the main group.
	Items []PartialItem
}

type PartialSubGroup struct {
	Name         string
	Continuation bool
	Items        []PartialItem
}

type PartialItem struct {
	Name       string
	Attributes map[string]any
}

// Key aliases accepted from the model. The first entry is canonical.
var (
	groupKeys    = []string{"groups", "offer_item_groups", "main_groups"}
	subGroupKeys = []string{"sub_groups", "offer_groups", "subgroups"}
	itemKeys     = []string{"items", "offer_items"}
)

const groupSchemaJSON = `{
  "$defs": {
    "items": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "properties": {"name": {"type": ["string", "number", "null"]}}
      }
    }
  },
  "type": "object",
  "properties": {
    "name": {"type": ["string", "null"]},
    "is_continuation": {"type": ["boolean", "null"]},
    "items": {"$ref": "#/$defs/items"},
    "sub_groups": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "properties": {
          "name": {"type": ["string", "null"]},
          "is_continuation": {"type": ["boolean", "null"]},
          "items": {"$ref": "#/$defs/items"}
        }
      }
    }
  }
}`

var groupSchema = jsonschema.MustCompileString("group.json", groupSchemaJSON)

// DecodePartial converts a repaired JSON object into a PartialTree. Groups
// that do not match the expected shape are dropped and reported as
// MergeErrors; well-formed siblings are kept.
func DecodePartial(obj map[string]any, chunkID string) (PartialTree, []error) {
	var (
		tree PartialTree
		errs []error
	)

	raw, ok := lookup(obj, groupKeys)
	if !ok {
		return tree, []error{&MergeError{ChunkID: chunkID, Path: "$", Reason: "no groups key in model output"}}
	}
	list, ok := raw.([]any)
	if !ok {
		if raw == nil {
			return tree, nil
		}
		return tree, []error{&MergeError{ChunkID: chunkID, Path: "$.groups", Reason: "groups is not an array"}}
	}

	for i, g := range list {
		path := fmt.Sprintf("$.groups[%d]", i)
		gm, ok := g.(map[string]any)
		if !ok {
			errs = append(errs, &MergeError{ChunkID: chunkID, Path: path, Reason: "group is not an object"})
			continue
		}
		gm = canonicalGroup(gm)
		if err := groupSchema.Validate(gm); err != nil {
			errs = append(errs, &MergeError{ChunkID: chunkID, Path: path, Reason: schemaReason(err)})
			continue
		}
		tree.Groups = append(tree.Groups, partialGroup(gm))
	}
	return tree, errs
}

func lookup(obj map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			return v, true
		}
	}
	return nil, false
}

// canonicalGroup returns a copy of g with alias keys renamed so the schema
// only has to describe the canonical form.
func canonicalGroup(g map[string]any) map[string]any {
	out := renameKey(renameKey(g, subGroupKeys), itemKeys)
	subs, ok := out["sub_groups"].([]any)
	if !ok {
		return out
	}
	canon := make([]any, len(subs))
	for i, s := range subs {
		if sm, ok := s.(map[string]any); ok {
			canon[i] = renameKey(sm, itemKeys)
		} else {
			canon[i] = s
		}
	}
	out["sub_groups"] = canon
	return out
}

func renameKey(m map[string]any, keys []string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	for _, alias := range keys[1:] {
		if v, ok := out[alias]; ok {
			if _, exists := out[keys[0]]; !exists {
				out[keys[0]] = v
			}
			delete(out, alias)
		}
	}
	return out
}

func partialGroup(gm map[string]any) PartialGroup {
	pg := PartialGroup{
		Name:         stringField(gm, "name"),
		Continuation: boolField(gm, "is_continuation"),
	}
	subs, _ := gm["sub_groups"].([]any)
	for _, s := range subs {
		sm := s.(map[string]any)
		pg.SubGroups = append(pg.SubGroups, PartialSubGroup{
			Name:         stringField(sm, "name"),
			Continuation: boolField(sm, "is_continuation"),
			Items:        partialItems(sm),
		})
	}
	pg.Items = partialItems(gm)
	return pg
}

func partialItems(m map[string]any) []PartialItem {
	raw, _ := m["items"].([]any)
	var items []PartialItem
	for _, it := range raw {
		im := it.(map[string]any)
		pi := PartialItem{Name: stringField(im, "name"), Attributes: make(map[string]any, len(im))}
		for k, v := range im {
			if k != "name" {
				pi.Attributes[k] = v
			}
		}
		items = append(items, pi)
	}
	return items
}

func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strings.TrimSpace(fmt.Sprint(v))
	}
	return ""
}

func boolField(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}

func schemaReason(err error) string {
	if ve, ok := err.(*jsonschema.ValidationError); ok {
		leaf := ve
		for len(leaf.Causes) > 0 {
			leaf = leaf.Causes[0]
		}
		return fmt.Sprintf("schema: %s at %s", leaf.Message, leaf.InstanceLocation)
	}
	return err.Error()
}
