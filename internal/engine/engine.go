// Package engine drives the per-chunk extraction loop: build the running
// context, call the model, salvage JSON from the reply and merge it into the
// accumulated hierarchy.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/offerstruct/internal/chunker"
	"github.com/dgallion1/offerstruct/internal/extract"
	"github.com/dgallion1/offerstruct/internal/hierarchy"
	"github.com/dgallion1/offerstruct/internal/repair"
)

// Options configures an Engine. Only Completer is required.
type Options struct {
	Completer    extract.Completer
	Repairer     *repair.Repairer
	Merger       *hierarchy.Merger
	Logger       *slog.Logger
	CallTimeout  time.Duration
	RecentGroups int

	// OnChunk is called after every chunk, successful or not.
	OnChunk func(Progress)
}

// Progress is reported after each chunk.
type Progress struct {
	ChunkIndex  int
	TotalChunks int
	MainGroups  int
	Items       int
	Errors      []error
}

// Result is the outcome of a run. Errors is never nil.
type Result struct {
	Structure       hierarchy.FinalStructure `json:"structure"`
	Errors          []string                 `json:"errors"`
	ChunksProcessed int                      `json:"chunks_processed"`
	ChunksFailed    int                      `json:"chunks_failed"`

	Failures []error `json:"-"`
}

// Engine runs the extraction loop. One Engine may serve many documents;
// each Run owns its own hierarchy.Context.
type Engine struct {
	completer    extract.Completer
	repairer     *repair.Repairer
	merger       *hierarchy.Merger
	log          *slog.Logger
	callTimeout  time.Duration
	recentGroups int
	onChunk      func(Progress)
}

func New(opts Options) (*Engine, error) {
	if opts.Completer == nil {
		return nil, errors.New("engine: completer is required")
	}
	e := &Engine{
		completer:    opts.Completer,
		repairer:     opts.Repairer,
		merger:       opts.Merger,
		log:          opts.Logger,
		callTimeout:  opts.CallTimeout,
		recentGroups: opts.RecentGroups,
		onChunk:      opts.OnChunk,
	}
	if e.repairer == nil {
		e.repairer = repair.New()
	}
	if e.merger == nil {
		e.merger = hierarchy.NewMerger()
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	if e.recentGroups <= 0 {
		e.recentGroups = 3
	}
	return e, nil
}

// Run processes chunks strictly in order. A failing chunk contributes
// nothing and the loop moves on. If ctx is cancelled the loop stops
// before the next chunk and the partial result is returned.
func (e *Engine) Run(ctx context.Context, chunks []chunker.Chunk) Result {
	ec := hierarchy.NewContext()
	var (
		failures  []error
		processed int
		failed    int
	)

	for _, c := range chunks {
		if err := ctx.Err(); err != nil {
			e.log.Warn("extraction cancelled", "chunks_done", processed, "chunks_total", len(chunks))
			failures = append(failures, fmt.Errorf("cancelled after %d of %d chunks: %w", processed, len(chunks), err))
			break
		}

		errs := e.Step(ctx, ec, c)
		processed++
		if chunkFailed(errs) {
			failed++
		}
		failures = append(failures, errs...)

		if e.onChunk != nil {
			e.onChunk(Progress{
				ChunkIndex:  c.Index,
				TotalChunks: len(chunks),
				MainGroups:  len(ec.Groups),
				Items:       ec.ItemCounter,
				Errors:      errs,
			})
		}
	}

	res := e.Finish(ec, failures)
	res.ChunksProcessed = processed
	res.ChunksFailed = failed
	return res
}

// Step extracts one chunk and merges it into ec. The returned errors are
// ExtractionError, ParseError or MergeError values; none of them is fatal.
func (e *Engine) Step(ctx context.Context, ec *hierarchy.Context, c chunker.Chunk) []error {
	log := e.log.With("chunk", c.Index, "chunk_id", c.ID)

	prompt := extract.BuildChunkPrompt(chunkInfo(c), ec.Describe(e.recentGroups), c.Content)

	callCtx := ctx
	if e.callTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.callTimeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := e.completer.Complete(callCtx, prompt)
	if err != nil {
		log.Warn("model call failed", "error", err, "elapsed", time.Since(start))
		return []error{&ExtractionError{ChunkID: c.ID, Index: c.Index, Err: err}}
	}

	obj, ok := e.repairer.Extract(raw)
	if !ok {
		log.Warn("unparsable model response", "bytes", len(raw))
		return []error{&ParseError{ChunkID: c.ID, Index: c.Index, Raw: raw}}
	}

	tree, errs := hierarchy.DecodePartial(obj, c.ID)
	before := ec.ItemCounter
	errs = append(errs, e.merger.Merge(ec, tree, c.ID)...)
	for _, err := range errs {
		log.Warn("merge problem", "error", err)
	}

	log.Info("chunk extracted",
		"items", ec.ItemCounter-before,
		"main_groups", len(ec.Groups),
		"elapsed", time.Since(start),
	)
	return errs
}

// Finish assigns IDs and folds failures into a Result.
func (e *Engine) Finish(ec *hierarchy.Context, failures []error) Result {
	return e.result(hierarchy.AssignIDs(ec.Groups), failures)
}

// result validates fs and builds the Result. ID problems are appended to
// the failures; the structure is returned as built.
func (e *Engine) result(fs hierarchy.FinalStructure, failures []error) Result {
	for _, err := range hierarchy.ValidateIDs(fs) {
		e.log.Warn("id validation", "error", err)
		failures = append(failures, err)
	}

	res := Result{
		Structure: fs,
		Errors:    make([]string, 0, len(failures)),
		Failures:  failures,
	}
	for _, err := range failures {
		res.Errors = append(res.Errors, err.Error())
	}
	e.log.Info("extraction finished",
		"main_groups", fs.Summary.TotalMainGroups,
		"sub_groups", fs.Summary.TotalSubGroups,
		"items", fs.Summary.TotalItems,
		"errors", len(res.Errors),
	)
	return res
}

func chunkInfo(c chunker.Chunk) string {
	info := c.Info()
	if c.OverlapsPrevious {
		info += " | Starts inside the previous chunk's text"
	}
	if c.OverlapsNext {
		info += " | Ends inside the next chunk's text"
	}
	return info
}

// chunkFailed reports whether the chunk contributed nothing because of a
// model or parse failure. Merge problems leave the rest of the chunk intact.
func chunkFailed(errs []error) bool {
	for _, err := range errs {
		var ee *ExtractionError
		var pe *ParseError
		if errors.As(err, &ee) || errors.As(err, &pe) {
			return true
		}
	}
	return false
}
