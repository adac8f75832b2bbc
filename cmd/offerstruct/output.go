package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/offerstruct/internal/chunker"
	"github.com/dgallion1/offerstruct/internal/engine"
	"github.com/dgallion1/offerstruct/internal/extract"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("33"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("33")).
			Padding(0, 1)
)

// resultDocument is the serialized form of an extraction run.
type resultDocument struct {
	Structure       any      `json:"structure" yaml:"structure"`
	Errors          []string `json:"errors" yaml:"errors"`
	ChunksProcessed int      `json:"chunks_processed" yaml:"chunks_processed"`
	ChunksFailed    int      `json:"chunks_failed" yaml:"chunks_failed"`
}

func writeResult(w io.Writer, res engine.Result, format string) error {
	doc := resultDocument{
		Structure:       res.Structure,
		Errors:          res.Errors,
		ChunksProcessed: res.ChunksProcessed,
		ChunksFailed:    res.ChunksFailed,
	}
	if doc.Errors == nil {
		doc.Errors = []string{}
	}
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	}
	return writeJSON(w, doc)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printSummary renders the end-of-run box.
func printSummary(w io.Writer, title string, res engine.Result, stats extract.StatsSnapshot) {
	sum := res.Structure.Summary
	status := successStyle.Render("completed")
	switch {
	case len(res.Errors) > 0 && sum.TotalItems > 0:
		status = errorStyle.Render("partial")
	case len(res.Errors) > 0:
		status = errorStyle.Render("failed")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", titleStyle.Render(title), status)
	fmt.Fprintf(&b, "%s %d processed, %d failed\n", dimStyle.Render("Chunks:"), res.ChunksProcessed, res.ChunksFailed)
	fmt.Fprintf(&b, "%s %d main, %d sub, %d items\n", dimStyle.Render("Groups:"), sum.TotalMainGroups, sum.TotalSubGroups, sum.TotalItems)
	if stats.Calls > 0 {
		fmt.Fprintf(&b, "%s %d calls (%d failed), p50 %.0fms, p95 %.0fms\n",
			dimStyle.Render("Model:"), stats.Calls, stats.Failed, stats.P50Ms, stats.P95Ms)
	}
	for _, e := range res.Errors {
		fmt.Fprintf(&b, "%s %s\n", errorStyle.Render("!"), e)
	}
	fmt.Fprintln(w, boxStyle.Render(strings.TrimRight(b.String(), "\n")))
}

func printChunks(w io.Writer, title string, chunks []chunker.Chunk, content bool) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s: %d chunks", title, len(chunks))))
	for _, c := range chunks {
		flags := ""
		if c.OverlapsPrevious {
			flags += " <"
		}
		if c.OverlapsNext {
			flags += " >"
		}
		fmt.Fprintf(w, "%s %s ~%d tokens%s\n", c.Info(), dimStyle.Render(c.ID), c.EstimatedTokens, flags)
		if content {
			fmt.Fprintln(w, boxStyle.Render(c.Content))
		}
	}
}
