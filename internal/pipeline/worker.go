package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgallion1/offerstruct/internal/chunker"
	"github.com/dgallion1/offerstruct/internal/engine"
	"github.com/dgallion1/offerstruct/internal/extract"
	"github.com/dgallion1/offerstruct/internal/parser"
)

// WorkerConfig holds the per-document engine settings.
type WorkerConfig struct {
	CallTimeout          time.Duration
	RecentGroups         int
	PDFFallbackPdftotext bool
}

// Worker processes a single document job. Each job gets its own engine run
// and therefore its own extraction context.
type Worker struct {
	completer extract.Completer
	log       *slog.Logger
	cfg       WorkerConfig
}

func NewWorker(completer extract.Completer, log *slog.Logger, cfg WorkerConfig) *Worker {
	if log == nil {
		log = slog.Default()
	}
	return &Worker{
		completer: completer,
		log:       log,
		cfg:       cfg,
	}
}

// Process runs parse, chunk and extract for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	tree, text, err := parser.Load(job.TakeFileData(), job.Filename, parser.LoadOptions{
		PDFFallbackPdftotext: w.cfg.PDFFallbackPdftotext,
	})
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	job.SetDocumentInfo(tree.Title, ContentHashHex([]byte(text)))

	// Phase 2: Chunk
	job.SetStatus(StatusChunking, "chunking")
	if strings.TrimSpace(text) == "" {
		log.Warn("document has no text")
		job.AddError("no extractable content")
		job.SetStatus(StatusFailed, "chunking")
		return
	}
	chunkCfg := job.ChunkConfig()
	chunks, err := chunker.CreateChunks(text, chunkCfg)
	if err != nil {
		log.Error("chunking rejected", "error", err, "geometry", describeChunkConfig(chunkCfg))
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "chunking")
		return
	}
	job.SetTotalChunks(len(chunks))
	log.Info("chunked document", "chunks", len(chunks), "chars", len([]rune(text)))

	// Phase 3: Extract, one chunk at a time.
	job.SetStatus(StatusExtracting, "extracting")
	eng, err := engine.New(engine.Options{
		Completer:    w.completer,
		Logger:       log,
		CallTimeout:  w.cfg.CallTimeout,
		RecentGroups: w.cfg.RecentGroups,
		OnChunk:      job.RecordChunk,
	})
	if err != nil {
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "extracting")
		return
	}

	res := eng.Run(ctx, chunks)
	job.SetResult(res)

	items := res.Structure.Summary.TotalItems
	switch {
	case len(res.Errors) == 0:
		job.SetStatus(StatusCompleted, "done")
	case items > 0:
		job.SetStatus(StatusPartial, "done")
	default:
		job.SetStatus(StatusFailed, "extracting")
	}
	log.Info("job finished",
		"status", job.Snapshot().Status,
		"items", items,
		"errors", len(res.Errors),
		"elapsed", time.Since(job.CreatedAt).Round(time.Millisecond),
	)
}

// describeChunkConfig renders per-job geometry overrides for logs.
func describeChunkConfig(c chunker.Config) string {
	return fmt.Sprintf("chunk_size=%d overlap_size=%d boundary_window=%d", c.ChunkSize, c.OverlapSize, c.BoundaryWindow)
}
