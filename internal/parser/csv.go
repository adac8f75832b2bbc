package parser

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/offerstruct/internal/doctree"
)

// CSVParser handles spreadsheet exports of offers. The delimiter is
// sniffed from the header line since European exports often use ';'.
type CSVParser struct{}

const csvRowsPerSection = 50

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(4096)

	reader := csv.NewReader(br)
	reader.Comma = sniffDelimiter(string(head))
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	b := doctree.NewBuilder(baseTitle(filename))
	if len(records) == 0 {
		return b.Tree(), nil
	}

	header := tableRow(records[0])
	rows := records[1:]
	for i := 0; i < len(rows); i += csvRowsPerSection {
		end := min(i+csvRowsPerSection, len(rows))

		var sb strings.Builder
		sb.WriteString(header)
		for _, row := range rows[i:end] {
			if isBlankRow(row) {
				continue
			}
			sb.WriteString("\n")
			sb.WriteString(tableRow(row))
		}
		b.Text(sb.String())
	}
	return b.Tree(), nil
}

func sniffDelimiter(head string) rune {
	line, _, _ := strings.Cut(head, "\n")
	best, bestCount := ',', strings.Count(line, ",")
	for _, d := range []rune{';', '\t'} {
		if n := strings.Count(line, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
