package parser

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/dgallion1/offerstruct/internal/doctree"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser handles text-based PDF files. It tries the Go library first,
// then falls back to pdftotext -layout when enabled, which keeps table
// columns aligned. Scanned PDFs without a text layer yield no content.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	// ledongthuc/pdf requires a ReadSeeker+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "offerstruct-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	pages, err := extractPDFPages(tmpPath)
	if (err != nil || len(pages) == 0) && p.FallbackPdftotext {
		pages, err = extractPdftotext(tmpPath)
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	b := doctree.NewBuilder(baseTitle(filename))
	for _, page := range pages {
		addParagraphs(b, splitParagraphs(stripRunningLines(page)))
	}
	return b.Tree(), nil
}

func extractPDFPages(path string) ([]string, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil || strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}

func extractPdftotext(path string) ([]string, error) {
	out, err := exec.Command("pdftotext", "-layout", path, "-").Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	var pages []string
	for _, page := range strings.Split(string(out), "\f") {
		if strings.TrimSpace(page) != "" {
			pages = append(pages, page)
		}
	}
	return pages, nil
}

// stripRunningLines drops page furniture that would otherwise be read as
// line items: "Page 3 of 12" footers and carry-over lines.
func stripRunningLines(page string) string {
	lines := strings.Split(page, "\n")
	kept := lines[:0]
	for _, line := range lines {
		l := strings.ToLower(strings.TrimSpace(line))
		if strings.HasPrefix(l, "page ") && strings.Contains(l, " of ") && len(l) < 20 {
			continue
		}
		if strings.HasPrefix(l, "carried forward") || strings.HasPrefix(l, "brought forward") ||
			strings.HasPrefix(l, "a reporter") || strings.HasPrefix(l, "report fr") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
