package hierarchy

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// FinalStructure is the immutable output of a run with dotted IDs.
type FinalStructure struct {
	MainGroups []MainGroup `json:"main_groups" yaml:"main_groups"`
	Summary    Summary     `json:"summary" yaml:"summary"`
}

type MainGroup struct {
	ID        string     `json:"id" yaml:"id"`
	Name      string     `json:"name" yaml:"name"`
	Kind      Kind       `json:"kind" yaml:"kind"`
	SubGroups []SubGroup `json:"sub_groups" yaml:"sub_groups"`
}

type SubGroup struct {
	ID                string      `json:"id" yaml:"id"`
	Name              string      `json:"name" yaml:"name"`
	Kind              Kind        `json:"kind" yaml:"kind"`
	ParentMainGroupID string      `json:"parent_main_group_id" yaml:"parent_main_group_id"`
	Items             []FinalItem `json:"items" yaml:"items"`
}

type FinalItem struct {
	ID                string         `json:"id" yaml:"id"`
	Name              string         `json:"name" yaml:"name"`
	ParentSubGroupID  string         `json:"parent_sub_group_id" yaml:"parent_sub_group_id"`
	ParentMainGroupID string         `json:"parent_main_group_id" yaml:"parent_main_group_id"`
	ChunkID           string         `json:"chunk_id,omitempty" yaml:"chunk_id,omitempty"`
	Attributes        map[string]any `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

type Summary struct {
	TotalMainGroups int    `json:"total_main_groups" yaml:"total_main_groups"`
	TotalSubGroups  int    `json:"total_sub_groups" yaml:"total_sub_groups"`
	TotalItems      int    `json:"total_items" yaml:"total_items"`
	IDStructure     string `json:"id_structure" yaml:"id_structure"`
}

const idStructure = "main group: N, sub-group: N.M, item: N.M.K"

// AssignIDs numbers groups and items 1-based in accumulation order and
// returns a snapshot that no longer shares slices with the accumulated tree.
func AssignIDs(groups []*Group) FinalStructure {
	fs := FinalStructure{
		MainGroups: make([]MainGroup, 0, len(groups)),
		Summary:    Summary{IDStructure: idStructure},
	}
	for mi, g := range groups {
		mg := MainGroup{
			ID:        strconv.Itoa(mi + 1),
			Name:      g.Name,
			Kind:      KindMain,
			SubGroups: make([]SubGroup, 0, len(g.Children)),
		}
		for si, s := range g.Children {
			sg := SubGroup{
				ID:                fmt.Sprintf("%s.%d", mg.ID, si+1),
				Name:              s.Name,
				Kind:              KindSub,
				ParentMainGroupID: mg.ID,
				Items:             make([]FinalItem, 0, len(s.Items)),
			}
			for ii, it := range s.Items {
				attrs := make(map[string]any, len(it.Attributes))
				for k, v := range it.Attributes {
					attrs[k] = v
				}
				sg.Items = append(sg.Items, FinalItem{
					ID:                fmt.Sprintf("%s.%d", sg.ID, ii+1),
					Name:              it.Name,
					ParentSubGroupID:  sg.ID,
					ParentMainGroupID: mg.ID,
					ChunkID:           it.ChunkID,
					Attributes:        attrs,
				})
			}
			fs.Summary.TotalItems += len(sg.Items)
			mg.SubGroups = append(mg.SubGroups, sg)
		}
		fs.Summary.TotalSubGroups += len(mg.SubGroups)
		fs.MainGroups = append(fs.MainGroups, mg)
	}
	fs.Summary.TotalMainGroups = len(fs.MainGroups)
	return fs
}

var rootIDPattern = regexp.MustCompile(`^[1-9][0-9]*$`)

// ValidateIDs checks ID syntax, parent references and that sibling
// ordinals run 1..n without gaps. Problems are reported, never fatal.
func ValidateIDs(fs FinalStructure) []error {
	var errs []error
	for mi, mg := range fs.MainGroups {
		if !rootIDPattern.MatchString(mg.ID) {
			errs = append(errs, &IDValidationError{ID: mg.ID, Reason: "main group id must be a positive integer"})
		} else if mg.ID != strconv.Itoa(mi+1) {
			errs = append(errs, &IDValidationError{ID: mg.ID, Reason: fmt.Sprintf("expected ordinal %d", mi+1)})
		}
		for si, sg := range mg.SubGroups {
			errs = append(errs, checkChild(sg.ID, mg.ID, sg.ParentMainGroupID, si+1)...)
			for ii, it := range sg.Items {
				errs = append(errs, checkChild(it.ID, sg.ID, it.ParentSubGroupID, ii+1)...)
				if it.ParentMainGroupID != mg.ID {
					errs = append(errs, &IDValidationError{ID: it.ID, Parent: mg.ID, Reason: "parent main group reference mismatch"})
				}
			}
		}
	}
	return errs
}

func checkChild(id, parentID, declaredParent string, ordinal int) []error {
	var errs []error
	if declaredParent != parentID {
		errs = append(errs, &IDValidationError{ID: id, Parent: parentID, Reason: fmt.Sprintf("declares parent %q", declaredParent)})
	}
	prefix := parentID + "."
	rest, ok := strings.CutPrefix(id, prefix)
	if !ok || !rootIDPattern.MatchString(rest) {
		errs = append(errs, &IDValidationError{ID: id, Parent: parentID, Reason: "id must be parent id followed by .N"})
		return errs
	}
	if rest != strconv.Itoa(ordinal) {
		errs = append(errs, &IDValidationError{ID: id, Parent: parentID, Reason: fmt.Sprintf("expected ordinal %d", ordinal)})
	}
	return errs
}
