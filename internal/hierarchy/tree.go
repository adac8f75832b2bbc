// Package hierarchy holds the offer tree that extraction accumulates:
// MAIN groups containing SUB groups containing items. It merges per-chunk
// partial trees into a running Context and assigns dotted IDs at the end.
package hierarchy

import (
	"fmt"
	"strings"
)

// Kind distinguishes top-level categories from their sub-categories.
type Kind string

const (
	KindMain Kind = "MAIN"
	KindSub  Kind = "SUB"
)

// Group is a category node. MAIN groups hold Children, SUB groups hold Items.
type Group struct {
	TempID   string
	Name     string
	Kind     Kind
	Parent   *Group
	Children []*Group
	Items    []*Item
}

// ItemCount returns the number of items under g, recursively.
func (g *Group) ItemCount() int {
	n := len(g.Items)
	for _, c := range g.Children {
		n += c.ItemCount()
	}
	return n
}

// Item is a leaf line item.
type Item struct {
	TempID     string
	Name       string
	Attributes map[string]any
	ChunkID    string
	Parent     *Group
}

// Context is the running state of one extraction run. It is owned by a single
// engine run and must not be shared between goroutines.
type Context struct {
	CurrentMain *Group
	CurrentSub  *Group
	Groups      []*Group
	ItemCounter int

	touched []*Group
	seq     int
}

// NewContext returns an empty context for a new document run.
func NewContext() *Context {
	return &Context{}
}

func (c *Context) nextTempID(prefix string) string {
	c.seq++
	return fmt.Sprintf("%s-%d", prefix, c.seq)
}

// touch moves g to the end of the recently-used list.
func (c *Context) touch(g *Group) {
	for i, t := range c.touched {
		if t == g {
			c.touched = append(c.touched[:i], c.touched[i+1:]...)
			break
		}
	}
	c.touched = append(c.touched, g)
}

// Describe renders the "previous context" handed to the model with the next
// chunk: current group pointers, the most recently touched main groups with
// their latest sub-groups and item counts, and the running item counter.
func (c *Context) Describe(recent int) string {
	if len(c.Groups) == 0 {
		return "No previous context: this is the first chunk."
	}
	if recent <= 0 {
		recent = 3
	}

	var sb strings.Builder
	if c.CurrentMain != nil {
		fmt.Fprintf(&sb, "Current main group: %s\n", c.CurrentMain.Name)
	}
	if c.CurrentSub != nil {
		fmt.Fprintf(&sb, "Current sub-group: %s\n", c.CurrentSub.Name)
	} else {
		sb.WriteString("Current sub-group: none\n")
	}

	sb.WriteString("Recently extracted groups:\n")
	mains := c.touched
	if len(mains) > recent {
		mains = mains[len(mains)-recent:]
	}
	for _, g := range mains {
		fmt.Fprintf(&sb, "- %s (%d sub-groups, %d items)\n", g.Name, len(g.Children), g.ItemCount())
		subs := g.Children
		if len(subs) > recent {
			subs = subs[len(subs)-recent:]
		}
		for _, s := range subs {
			fmt.Fprintf(&sb, "  - %s (%d items)", s.Name, len(s.Items))
			if n := len(s.Items); n > 0 {
				fmt.Fprintf(&sb, ", last item: %s", s.Items[n-1].Name)
			}
			sb.WriteString("\n")
		}
	}
	fmt.Fprintf(&sb, "Items extracted so far: %d", c.ItemCounter)
	return sb.String()
}
