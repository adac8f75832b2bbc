package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/offerstruct/internal/chunker"
	"github.com/dgallion1/offerstruct/internal/config"
	"github.com/dgallion1/offerstruct/internal/engine"
	"github.com/dgallion1/offerstruct/internal/parser"
)

var (
	outputFormat string
	outputFile   string
)

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Extract the group and item structure of one document",
	Long: `Parse a document, chunk it and run every chunk through the model in
order. The final structure is written to stdout (or --out) as JSON or YAML;
progress and a summary go to stderr.

Supported formats: .txt .md .markdown .csv .html .htm .pdf .docx`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := cliLogger()
		if outputFormat != "json" && outputFormat != "yaml" {
			return fmt.Errorf("unknown output format %q (want json or yaml)", outputFormat)
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		chunks, title, err := loadChunks(args[0], cfg)
		if err != nil {
			return err
		}
		log.Info("document chunked", "title", title, "chunks", len(chunks))

		be, err := newBackend(cfg, log)
		if err != nil {
			return err
		}
		defer be.close()

		eng, err := engine.New(engine.Options{
			Completer:    be.completer,
			Logger:       log,
			CallTimeout:  cfg.ModelTimeout,
			RecentGroups: cfg.ContextRecentGroups,
			OnChunk: func(p engine.Progress) {
				log.Info("chunk done",
					"chunk", fmt.Sprintf("%d/%d", p.ChunkIndex+1, p.TotalChunks),
					"main_groups", p.MainGroups,
					"items", p.Items,
					"errors", len(p.Errors),
				)
			},
		})
		if err != nil {
			return err
		}

		res := eng.Run(cmd.Context(), chunks)

		out := os.Stdout
		if outputFile != "" {
			f, err := os.Create(outputFile)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}
		if err := writeResult(out, res, outputFormat); err != nil {
			return err
		}
		printSummary(os.Stderr, title, res, be.stats.Snapshot())

		if res.Structure.Summary.TotalItems == 0 && len(res.Errors) > 0 {
			return errors.New("extraction produced no items")
		}
		return nil
	},
}

var (
	showContent bool
	chunksJSON  bool
)

var chunksCmd = &cobra.Command{
	Use:   "chunks <file>",
	Short: "Show how a document would be chunked, without calling a model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		chunks, title, err := loadChunks(args[0], cfg)
		if err != nil {
			return err
		}
		if chunksJSON {
			return writeJSON(os.Stdout, chunks)
		}
		printChunks(os.Stdout, title, chunks, showContent)
		return nil
	},
}

func init() {
	extractCmd.Flags().StringVarP(&outputFormat, "output", "o", "json", "output format: json or yaml")
	extractCmd.Flags().StringVar(&outputFile, "out", "", "write the structure to a file instead of stdout")

	chunksCmd.Flags().BoolVar(&showContent, "content", false, "print each chunk's text")
	chunksCmd.Flags().BoolVar(&chunksJSON, "json", false, "print chunks as JSON")
}

// loadChunks parses path and splits its flattened text.
func loadChunks(path string, cfg config.Config) ([]chunker.Chunk, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	tree, text, err := parser.Load(data, path, parser.LoadOptions{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext})
	if err != nil {
		return nil, "", err
	}
	chunks, err := chunker.CreateChunks(text, cfg.Chunker())
	if err != nil {
		return nil, "", fmt.Errorf("invalid chunking: %w", err)
	}
	return chunks, tree.Title, nil
}
