// Package parser turns uploaded offer documents into a doctree outline.
package parser

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/offerstruct/internal/doctree"
)

// Parser converts raw document bytes into a DocTree.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.DocTree, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %q", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// LoadOptions tunes individual parsers.
type LoadOptions struct {
	PDFFallbackPdftotext bool
}

// Load parses data with the parser for filename and flattens the outline
// into the text that gets chunked.
func Load(data []byte, filename string, opts LoadOptions) (*doctree.DocTree, string, error) {
	p, err := ForFile(filename)
	if err != nil {
		return nil, "", err
	}
	if pdf, ok := p.(*PDFParser); ok {
		pdf.FallbackPdftotext = opts.PDFFallbackPdftotext
	}
	tree, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		return nil, "", fmt.Errorf("parse %s: %w", filename, err)
	}
	return tree, doctree.Flatten(tree), nil
}

func baseTitle(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// tableRow renders cells as a pipe-delimited row, the form language
// models read most reliably for offer tables.
func tableRow(cells []string) string {
	for i, c := range cells {
		c = strings.Join(strings.Fields(c), " ")
		cells[i] = strings.ReplaceAll(c, "|", "/")
	}
	return "| " + strings.Join(cells, " | ") + " |"
}
