// Package doctree is the format-neutral document outline produced by the
// parsers and flattened back into markdown-style text for chunking.
package doctree

import "strings"

// DocTree is the root of a parsed document.
type DocTree struct {
	Title    string     // Document title (from metadata or filename)
	Children []*DocNode // Top-level sections
}

// DocNode is a recursive section in the document tree.
type DocNode struct {
	Title    string     // Section heading (empty for leaf text)
	Level    int        // Heading level 1-6; 0 means use the nesting depth
	Text     string     // Text content of this node (may be empty for container nodes)
	Page     int        // Source page (0 if N/A)
	Children []*DocNode // Subsections
}

// Builder assembles a DocTree from a flat stream of headings and text
// blocks, nesting each heading under the nearest shallower one.
type Builder struct {
	tree  *DocTree
	root  *DocNode
	stack []stackEntry
	text  strings.Builder
}

type stackEntry struct {
	node  *DocNode
	level int
}

func NewBuilder(title string) *Builder {
	root := &DocNode{Title: title}
	return &Builder{
		tree:  &DocTree{Title: title},
		root:  root,
		stack: []stackEntry{{node: root, level: 0}},
	}
}

// SetTitle overrides the document title, e.g. from an HTML <title>.
func (b *Builder) SetTitle(title string) {
	b.tree.Title = title
}

// Heading opens a new section at level (1 = top).
func (b *Builder) Heading(level int, title string) {
	title = strings.TrimSpace(title)
	if title == "" {
		return
	}
	if level < 1 {
		level = 1
	}
	b.flush()
	node := &DocNode{Title: title, Level: level}
	for len(b.stack) > 1 && b.stack[len(b.stack)-1].level >= level {
		b.stack = b.stack[:len(b.stack)-1]
	}
	parent := b.stack[len(b.stack)-1].node
	parent.Children = append(parent.Children, node)
	b.stack = append(b.stack, stackEntry{node: node, level: level})
}

// Text appends a block of body text to the current section.
func (b *Builder) Text(t string) {
	t = strings.TrimSpace(t)
	if t == "" {
		return
	}
	if b.text.Len() > 0 {
		b.text.WriteString("\n\n")
	}
	b.text.WriteString(t)
}

func (b *Builder) flush() {
	t := b.text.String()
	b.text.Reset()
	if t == "" {
		return
	}
	top := b.stack[len(b.stack)-1].node
	if top.Text != "" {
		top.Text += "\n\n" + t
	} else {
		top.Text = t
	}
}

// Tree finishes the build. Text seen before any heading becomes a leading
// untitled node.
func (b *Builder) Tree() *DocTree {
	b.flush()
	b.tree.Children = b.root.Children
	if b.root.Text != "" {
		lead := &DocNode{Text: b.root.Text}
		b.tree.Children = append([]*DocNode{lead}, b.tree.Children...)
	}
	return b.tree
}

// Flatten renders the tree as markdown-style text: headings become "#"
// lines at their level, body text follows separated by blank lines.
func Flatten(tree *DocTree) string {
	var sb strings.Builder
	var walk func(nodes []*DocNode, depth int)
	walk = func(nodes []*DocNode, depth int) {
		for _, n := range nodes {
			if n.Title != "" {
				level := n.Level
				if level == 0 {
					level = depth
				}
				if level > 6 {
					level = 6
				}
				if sb.Len() > 0 {
					sb.WriteString("\n\n")
				}
				sb.WriteString(strings.Repeat("#", level))
				sb.WriteString(" ")
				sb.WriteString(n.Title)
			}
			if n.Text != "" {
				if sb.Len() > 0 {
					sb.WriteString("\n\n")
				}
				sb.WriteString(n.Text)
			}
			walk(n.Children, depth+1)
		}
	}
	walk(tree.Children, 1)
	return sb.String()
}
