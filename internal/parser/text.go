package parser

import (
	"io"

	"github.com/dgallion1/offerstruct/internal/doctree"
)

// TextParser handles plain text files. Standalone cost-code lines become
// section headings; everything else is kept as paragraphs.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	data, err := io.ReadAll(io.LimitReader(r, 64<<20))
	if err != nil {
		return nil, err
	}

	b := doctree.NewBuilder(baseTitle(filename))
	addParagraphs(b, splitParagraphs(string(data)))
	return b.Tree(), nil
}
