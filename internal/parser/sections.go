package parser

import (
	"regexp"
	"strings"

	"github.com/dgallion1/offerstruct/internal/doctree"
)

// costCodeHeading matches standalone lines such as "243.1 Piping",
// "243. A. HEAT DISTRIBUTION" or "243. A. 1. Piping". The code must start
// with at least two digits so numbered item lines ("1. Heat meter") stay
// body text.
var costCodeHeading = regexp.MustCompile(`^(\d{2,4}(?:\.\s*[A-Z0-9]{1,3})*\.?)\s+(\S.{0,118})$`)

// headingLevel derives the outline level from the number of code segments.
func headingLevel(code string) int {
	n := 0
	for _, seg := range strings.Split(code, ".") {
		if strings.TrimSpace(seg) != "" {
			n++
		}
	}
	if n < 1 {
		n = 1
	}
	return n
}

// addParagraphs feeds blank-line separated paragraphs into b. A paragraph
// that is a single line shaped like a cost-code heading opens a section.
func addParagraphs(b *doctree.Builder, paragraphs []string) {
	for _, para := range paragraphs {
		line := strings.TrimSpace(para)
		if !strings.Contains(line, "\n") {
			if m := costCodeHeading.FindStringSubmatch(line); m != nil && isHeadingTitle(m[1], m[2]) {
				b.Heading(headingLevel(m[1]), line)
				continue
			}
		}
		b.Text(para)
	}
}

// isHeadingTitle rejects sentences and, for bare numeric codes like
// "120 m pipe", anything that is not an upper-case title.
func isHeadingTitle(code, title string) bool {
	if strings.HasSuffix(title, ".") {
		return false
	}
	if strings.Contains(code, ".") {
		return true
	}
	return strings.ToUpper(title) == title && strings.ToLower(title) != title
}

// splitParagraphs splits on blank lines and drops surrounding whitespace.
func splitParagraphs(text string) []string {
	var (
		out     []string
		current []string
	)
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				out = append(out, strings.Join(current, "\n"))
				current = current[:0]
			}
			continue
		}
		current = append(current, strings.TrimRight(line, " \t"))
	}
	if len(current) > 0 {
		out = append(out, strings.Join(current, "\n"))
	}
	return out
}
