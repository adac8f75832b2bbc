package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/offerstruct/internal/config"
)

var (
	cfgFile string
	verbose bool

	// Per-run chunk geometry overrides; zero keeps the configured value.
	chunkSize      int
	overlapSize    int
	boundaryWindow int
)

var rootCmd = &cobra.Command{
	Use:   "offerstruct",
	Short: "Extract hierarchical item structure from construction offer documents",
	Long: `offerstruct turns long offer and bill-of-quantities documents into a
three-level structure of main groups, sub-groups and items.

The document is split into overlapping chunks that are sent to a language
model one at a time. Each chunk is told what was extracted before it, so
groups that span chunk boundaries are continued instead of duplicated.
Every element gets a hierarchical ID such as 1, 1.2 and 1.2.7.

Settings come from flags, environment variables (CHUNK_SIZE,
ANTHROPIC_API_KEY, ...) and an optional offerstruct.yaml.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./offerstruct.yaml or ~/.offerstruct/offerstruct.yaml)",
	)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	for _, cmd := range []*cobra.Command{extractCmd, chunksCmd} {
		cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "target chunk size in characters")
		cmd.Flags().IntVar(&overlapSize, "overlap-size", 0, "characters shared between neighbouring chunks")
		cmd.Flags().IntVar(&boundaryWindow, "boundary-window", 0, "how far back to look for a natural break")
	}

	rootCmd.AddCommand(serveCmd, extractCmd, chunksCmd)
}

// cliLogger logs human-readable lines to stderr so stdout stays clean for output.
func cliLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return cfg, err
	}
	if chunkSize > 0 {
		cfg.ChunkSize = chunkSize
	}
	if overlapSize > 0 {
		cfg.OverlapSize = overlapSize
	}
	if boundaryWindow > 0 {
		cfg.BoundaryWindow = boundaryWindow
	}
	return cfg, nil
}
