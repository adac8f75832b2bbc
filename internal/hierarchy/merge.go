package hierarchy

import "fmt"

// Merger folds partial trees into a Context.
type Merger struct {
	Matchers []NameMatcher
}

// NewMerger returns a Merger using DefaultMatchers.
func NewMerger() *Merger {
	return &Merger{Matchers: DefaultMatchers}
}

func (m *Merger) sameName(a, b string) bool {
	na, nb := NormalizeName(a), NormalizeName(b)
	for _, match := range m.Matchers {
		if match(na, nb) {
			return true
		}
	}
	return false
}

// Merge integrates tree into ctx and updates the current group pointers.
// Elements that cannot be placed are skipped and returned as MergeErrors.
// Name matching only ever reuses groups at the same level.
func (m *Merger) Merge(ctx *Context, tree PartialTree, chunkID string) []error {
	var errs []error
	for gi, pg := range tree.Groups {
		path := fmt.Sprintf("groups[%d]", gi)
		main, err := m.resolveMain(ctx, pg, chunkID, path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ctx.CurrentMain != main {
			ctx.CurrentSub = nil
		}
		ctx.CurrentMain = main
		ctx.touch(main)

		for si, ps := range pg.SubGroups {
			spath := fmt.Sprintf("%s.sub_groups[%d]", path, si)
			sub, err := m.resolveSub(ctx, main, ps, chunkID, spath)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			ctx.CurrentSub = sub
			errs = append(errs, m.addItems(ctx, sub, ps.Items, chunkID, spath)...)
		}

		if len(pg.Items) > 0 {
			sub := m.directItemsSub(ctx, main)
			ctx.CurrentSub = sub
			errs = append(errs, m.addItems(ctx, sub, pg.Items, chunkID, path)...)
		}
	}
	return errs
}

// directItemsSub picks the sub-group for items listed directly on a main
// group: the current sub-group if it belongs to main, otherwise a sub-group
// named after main.
func (m *Merger) directItemsSub(ctx *Context, main *Group) *Group {
	if ctx.CurrentSub != nil && ctx.CurrentSub.Parent == main {
		return ctx.CurrentSub
	}
	for _, s := range main.Children {
		if m.sameName(main.Name, s.Name) {
			return s
		}
	}
	s := &Group{TempID: ctx.nextTempID("sub"), Name: main.Name, Kind: KindSub, Parent: main}
	main.Children = append(main.Children, s)
	return s
}

func (m *Merger) addItems(ctx *Context, sub *Group, items []PartialItem, chunkID, path string) []error {
	var errs []error
	for ii, pi := range items {
		if err := ValidateName(pi.Name); err != nil {
			errs = append(errs, &MergeError{
				ChunkID: chunkID,
				Path:    fmt.Sprintf("%s.items[%d]", path, ii),
				Reason:  err.Error(),
			})
			continue
		}
		sub.Items = append(sub.Items, &Item{
			TempID:     ctx.nextTempID("item"),
			Name:       pi.Name,
			Attributes: pi.Attributes,
			ChunkID:    chunkID,
			Parent:     sub,
		})
		ctx.ItemCounter++
	}
	return errs
}

func (m *Merger) resolveMain(ctx *Context, pg PartialGroup, chunkID, path string) (*Group, error) {
	if pg.Name == "" {
		if ctx.CurrentMain == nil {
			return nil, &MergeError{ChunkID: chunkID, Path: path, Reason: "unnamed group with no current main group to continue"}
		}
		return ctx.CurrentMain, nil
	}
	if err := ValidateName(pg.Name); err != nil {
		return nil, &MergeError{ChunkID: chunkID, Path: path, Reason: err.Error()}
	}
	if pg.Continuation && ctx.CurrentMain != nil && m.sameName(pg.Name, ctx.CurrentMain.Name) {
		return ctx.CurrentMain, nil
	}
	for _, g := range ctx.Groups {
		if m.sameName(pg.Name, g.Name) {
			return g, nil
		}
	}
	g := &Group{TempID: ctx.nextTempID("main"), Name: pg.Name, Kind: KindMain}
	ctx.Groups = append(ctx.Groups, g)
	return g, nil
}

func (m *Merger) resolveSub(ctx *Context, main *Group, ps PartialSubGroup, chunkID, path string) (*Group, error) {
	if ps.Name == "" {
		if ctx.CurrentSub == nil || ctx.CurrentSub.Parent != main {
			return nil, &MergeError{ChunkID: chunkID, Path: path, Reason: "unnamed sub-group with no current sub-group to continue"}
		}
		return ctx.CurrentSub, nil
	}
	if err := ValidateName(ps.Name); err != nil {
		return nil, &MergeError{ChunkID: chunkID, Path: path, Reason: err.Error()}
	}
	if ps.Continuation && ctx.CurrentSub != nil && ctx.CurrentSub.Parent == main && m.sameName(ps.Name, ctx.CurrentSub.Name) {
		return ctx.CurrentSub, nil
	}
	for _, s := range main.Children {
		if m.sameName(ps.Name, s.Name) {
			return s, nil
		}
	}
	s := &Group{TempID: ctx.nextTempID("sub"), Name: ps.Name, Kind: KindSub, Parent: main}
	main.Children = append(main.Children, s)
	return s, nil
}
