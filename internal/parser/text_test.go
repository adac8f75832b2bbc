package parser

import (
	"strings"
	"testing"
)

func TestTextParser_ParagraphsWithoutHeadings(t *testing.T) {
	input := "First paragraph line one.\nFirst paragraph line two.\n\nSecond paragraph.\n\n\n\nThird paragraph."
	p := &TextParser{}
	tree, err := p.Parse(strings.NewReader(input), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tree.Title != "notes" {
		t.Errorf("expected title %q, got %q", "notes", tree.Title)
	}
	if len(tree.Children) != 1 {
		t.Fatalf("expected 1 untitled child, got %d", len(tree.Children))
	}
	want := "First paragraph line one.\nFirst paragraph line two.\n\nSecond paragraph.\n\nThird paragraph."
	if tree.Children[0].Text != want {
		t.Errorf("expected %q, got %q", want, tree.Children[0].Text)
	}
}

func TestTextParser_CostCodeHeadings(t *testing.T) {
	input := `Offer 2024-117

243. A. HEAT DISTRIBUTION

243. A. 1. Piping

DN 80 steel pipe 120 m
DN 50 steel pipe 40 m

1. Heat meter

243. A. 2. Fittings

Gate valve DN 80

244 VENTILATION

120 m round duct`

	p := &TextParser{}
	tree, err := p.Parse(strings.NewReader(input), "offer.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(tree.Children) != 3 {
		t.Fatalf("expected preamble + 2 main sections, got %d", len(tree.Children))
	}
	heat := tree.Children[1]
	if heat.Title != "243. A. HEAT DISTRIBUTION" || heat.Level != 2 {
		t.Errorf("unexpected heading %q level %d", heat.Title, heat.Level)
	}
	if len(heat.Children) != 2 {
		t.Fatalf("expected 2 sub-sections, got %d", len(heat.Children))
	}
	piping := heat.Children[0]
	if !strings.Contains(piping.Text, "1. Heat meter") {
		t.Errorf("numbered item should stay body text, got %q", piping.Text)
	}
	vent := tree.Children[2]
	if vent.Title != "244 VENTILATION" {
		t.Errorf("expected upper-case bare code heading, got %q", vent.Title)
	}
	if !strings.Contains(vent.Text, "120 m round duct") {
		t.Errorf("quantity line should stay body text, got %q", vent.Text)
	}
}

func TestTextParser_EmptyInput(t *testing.T) {
	p := &TextParser{}
	tree, err := p.Parse(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Title != "empty" {
		t.Errorf("expected title %q, got %q", "empty", tree.Title)
	}
	if len(tree.Children) != 0 {
		t.Errorf("expected 0 children for empty input, got %d", len(tree.Children))
	}
}

func TestHeadingDetection(t *testing.T) {
	tests := []struct {
		line  string
		level int // 0 = not a heading
	}{
		{"243. A. HEAT DISTRIBUTION", 2},
		{"243. A. 1. Piping", 3},
		{"243.1 Piping", 2},
		{"243. Heating", 1},
		{"244 VENTILATION", 1},
		{"244 Ventilation", 0},
		{"1. Heat meter", 0},
		{"120 m DN 80 steel pipe", 0},
		{"243. Prices include delivery.", 0},
		{"DN 80 steel pipe", 0},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got := 0
			if m := costCodeHeading.FindStringSubmatch(tt.line); m != nil && isHeadingTitle(m[1], m[2]) {
				got = headingLevel(m[1])
			}
			if got != tt.level {
				t.Errorf("level(%q) = %d, want %d", tt.line, got, tt.level)
			}
		})
	}
}
