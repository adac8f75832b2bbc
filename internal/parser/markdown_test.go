package parser

import (
	"strings"
	"testing"
)

func TestMarkdownParser_HeadingHierarchy(t *testing.T) {
	input := `# Title

Intro text.

## Section A

Section A content.

### Subsection A1

Subsection A1 content.

## Section B

Section B content.
`
	p := &MarkdownParser{}
	tree, err := p.Parse(strings.NewReader(input), "doc.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tree.Title != "doc" {
		t.Errorf("expected title %q, got %q", "doc", tree.Title)
	}
	if len(tree.Children) != 1 {
		t.Fatalf("expected 1 top-level child (h1), got %d", len(tree.Children))
	}

	h1 := tree.Children[0]
	if h1.Title != "Title" || h1.Text != "Intro text." {
		t.Errorf("unexpected h1 %q / %q", h1.Title, h1.Text)
	}
	if len(h1.Children) != 2 {
		t.Fatalf("expected 2 h2 children, got %d", len(h1.Children))
	}
	secA := h1.Children[0]
	if secA.Text != "Section A content." {
		t.Errorf("expected section text without duplication, got %q", secA.Text)
	}
	if len(secA.Children) != 1 || secA.Children[0].Title != "Subsection A1" {
		t.Errorf("expected Subsection A1 under Section A, got %+v", secA.Children)
	}
	if h1.Children[1].Title != "Section B" {
		t.Errorf("expected %q, got %q", "Section B", h1.Children[1].Title)
	}
}

func TestMarkdownParser_OfferTable(t *testing.T) {
	input := `# 243. A. HEAT DISTRIBUTION

#### 243. A. 1. Piping

| Item | Qty | Unit |
|------|-----|------|
| DN 80 steel pipe | 120 | m |
| DN 50 steel pipe | 40 | m |
`
	p := &MarkdownParser{}
	tree, err := p.Parse(strings.NewReader(input), "offer.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	piping := tree.Children[0].Children[0]
	if piping.Level != 4 {
		t.Errorf("expected level 4, got %d", piping.Level)
	}
	want := "| Item | Qty | Unit |\n| DN 80 steel pipe | 120 | m |\n| DN 50 steel pipe | 40 | m |"
	if piping.Text != want {
		t.Errorf("table text:\n got %q\nwant %q", piping.Text, want)
	}
}

func TestMarkdownParser_CodeBlockAndList(t *testing.T) {
	input := "# Notes\n\n- first point\n- second point\n\n```\nraw line\n```\n\nMore text after code.\n"

	p := &MarkdownParser{}
	tree, err := p.Parse(strings.NewReader(input), "notes.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text := tree.Children[0].Text
	for _, want := range []string{"first point", "second point", "raw line", "More text after code."} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in %q", want, text)
		}
	}
	if strings.Count(text, "first point") != 1 {
		t.Errorf("list text duplicated: %q", text)
	}
}

func TestMarkdownParser_NoHeadings(t *testing.T) {
	p := &MarkdownParser{}
	tree, err := p.Parse(strings.NewReader("Just some plain text.\n\nAnother paragraph here."), "plain.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Children) != 1 {
		t.Fatalf("expected 1 child for headingless markdown, got %d", len(tree.Children))
	}
	if got := tree.Children[0].Text; got != "Just some plain text.\n\nAnother paragraph here." {
		t.Errorf("unexpected text %q", got)
	}
}

func TestMarkdownParser_TitleStripping(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"readme.md", "readme"},
		{"notes.markdown", "notes"},
		{"dir/plain.md", "plain"},
	}
	p := &MarkdownParser{}
	for _, tt := range tests {
		tree, err := p.Parse(strings.NewReader("text"), tt.filename)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", tt.filename, err)
		}
		if tree.Title != tt.want {
			t.Errorf("filename=%q: expected title %q, got %q", tt.filename, tt.want, tree.Title)
		}
	}
}
