// Package ingest provides the ingestion pipeline that turns extracted document
// text into persisted, embedded chunks: chunk → filter-meaningful → embed →
// store. Files within one job are processed strictly sequentially to bound
// peak memory.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/DocuQuery/docuquery-mvp/engine/chunk"
	"github.com/DocuQuery/docuquery-mvp/engine/domain"
	"github.com/DocuQuery/docuquery-mvp/engine/semantic"
	"github.com/DocuQuery/docuquery-mvp/pkg/fn"
	"github.com/DocuQuery/docuquery-mvp/pkg/metrics"
	"github.com/DocuQuery/docuquery-mvp/pkg/progress"
)

const (
	// MinChunkChars is the meaningful-chunk threshold: chunks whose trimmed
	// text is this short (or letter-free) are discarded before embedding.
	MinChunkChars = 10
)

// Embedder produces one vector per input text, order-preserving.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Store is the persistence collaborator for embedded chunks.
type Store interface {
	Upsert(ctx context.Context, records []semantic.Record) error
	DeleteByDocID(ctx context.Context, docID string) error
}

// Options configures the pipeline.
type Options struct {
	Chunking     chunk.Options
	RowsPerTable int
	// FileTimeout bounds one document's processing; zero disables it.
	FileTimeout time.Duration
	Retry       fn.RetryOpts
}

// DefaultOptions returns the reference pipeline configuration.
func DefaultOptions() Options {
	return Options{
		Chunking:     chunk.DefaultOptions(),
		RowsPerTable: chunk.DefaultRowsPerGroup,
		FileTimeout:  2 * time.Minute,
		Retry:        fn.DefaultRetry,
	}
}

// Pipeline orchestrates ingestion. Construct once and reuse; it holds no
// per-request state.
type Pipeline struct {
	embed  Embedder
	store  Store
	notify progress.Notifier
	stats  *metrics.Set
	opts   Options
	logger *slog.Logger
}

// New creates an ingestion Pipeline. notify may be nil.
func New(embed Embedder, store Store, notify progress.Notifier, stats *metrics.Set, opts Options, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if notify == nil {
		notify = progress.Nop
	}
	return &Pipeline{embed: embed, store: store, notify: notify, stats: stats, opts: opts, logger: logger}
}

// Ingest chunks, filters, embeds, and stores one piece of extracted text.
// Degenerate input (nothing survives the meaningful filter) returns
// Result{Count: 0} and no error.
func (p *Pipeline) Ingest(ctx context.Context, text string, meta chunk.SourceMeta) (Result, error) {
	if err := domain.ValidateSourceMeta(meta.DocID, meta.Source, meta.Type); err != nil {
		return Result{}, err
	}

	pipeline := fn.Then(
		fn.TracedStage("ingest.chunk", fn.Then(p.chunkStage(), p.filterStage())),
		fn.TracedStage("ingest.embed", p.embedStage()),
	)
	stored := fn.Then(pipeline, fn.TracedStage("ingest.store", p.storeStage()))

	result := stored(ctx, chunked{raw: text, meta: meta})
	if result.IsErr() {
		_, err := result.Unwrap()
		return Result{}, err
	}
	count, _ := result.Unwrap()
	return Result{Count: count}, nil
}

// chunkStage splits the text held in meta-scoped input. Table content goes
// through the row-group variant.
func (p *Pipeline) chunkStage() fn.Stage[chunked, chunked] {
	return func(_ context.Context, in chunked) fn.Result[chunked] {
		if in.meta.Type == domain.ChunkTable {
			in.chunks = chunk.SplitTable(in.raw, in.meta, p.opts.RowsPerTable)
		} else {
			in.chunks = chunk.Split(in.raw, in.meta, p.opts.Chunking)
		}
		return fn.Ok(in)
	}
}

// filterStage drops chunks that are too short or letter-free, then reports
// the surviving chunk count.
func (p *Pipeline) filterStage() fn.Stage[chunked, chunked] {
	return func(ctx context.Context, in chunked) fn.Result[chunked] {
		in.chunks = fn.Filter(in.chunks, meaningful)
		p.notify.Notify(ctx, progress.Event{
			Kind:    progress.KindInfo,
			Stage:   "chunk",
			Label:   "Chunked",
			Message: fmt.Sprintf("split into %d chunks", len(in.chunks)),
			DocID:   in.meta.DocID,
			Total:   len(in.chunks),
		})
		return fn.Ok(in)
	}
}

// embedStage embeds chunk texts strictly sequentially, preserving positional
// alignment, and reports per-item progress. A per-item model failure has
// already been degraded to a zero vector by the embedder; an error here means
// the model itself is unavailable.
func (p *Pipeline) embedStage() fn.Stage[chunked, chunked] {
	return func(ctx context.Context, in chunked) fn.Result[chunked] {
		total := len(in.chunks)
		for i := range in.chunks {
			vecs, err := p.embed.EmbedBatch(ctx, []string{in.chunks[i].Text})
			if err != nil {
				return fn.Err[chunked](fmt.Errorf("ingest: embed chunk %d: %w", i, err))
			}
			in.chunks[i].Vector = vecs[0]
			p.notify.Notify(ctx, progress.Event{
				Kind:    progress.KindProcessing,
				Stage:   "embed",
				Label:   "Embedding",
				Message: fmt.Sprintf("embedded chunk %d/%d", i+1, total),
				DocID:   in.meta.DocID,
				Current: i + 1,
				Total:   total,
			})
		}
		return fn.Ok(in)
	}
}

// storeStage persists embedded chunks, retrying transient failures. Returns
// the persisted count.
func (p *Pipeline) storeStage() fn.Stage[chunked, int] {
	return func(ctx context.Context, in chunked) fn.Result[int] {
		if len(in.chunks) == 0 {
			return fn.Ok(0)
		}

		records := make([]semantic.Record, len(in.chunks))
		for i, c := range in.chunks {
			records[i] = semantic.Record{ID: pointID(c), Chunk: c}
		}

		upsert := fn.RetryStage(p.opts.Retry, func(ctx context.Context, recs []semantic.Record) fn.Result[int] {
			if err := p.store.Upsert(ctx, recs); err != nil {
				return fn.Err[int](fmt.Errorf("ingest: upsert %d chunks: %w", len(recs), err))
			}
			return fn.Ok(len(recs))
		})

		result := upsert(ctx, records)
		if result.IsOk() {
			n, _ := result.Unwrap()
			p.stats.ChunksWritten(int64(n))
		}
		return result
	}
}

// IngestDocument processes a document's pages strictly sequentially — never in
// parallel — so peak memory stays bounded. A page failure fails the request;
// chunks persisted for earlier pages remain valid.
func (p *Pipeline) IngestDocument(ctx context.Context, doc Document) (Result, error) {
	if err := domain.ValidateSourceMeta(doc.DocID, doc.Source, ""); err != nil {
		return Result{}, err
	}

	start := time.Now()

	if doc.Replace {
		if err := p.store.DeleteByDocID(ctx, doc.DocID); err != nil {
			return Result{}, fmt.Errorf("ingest: replace %s: %w", doc.DocID, err)
		}
	}

	total := 0
	for i, page := range doc.Pages {
		res, err := p.Ingest(ctx, page.Text, page.sourceMeta(doc.DocID, doc.Source))
		if err != nil {
			p.notify.Notify(ctx, progress.Event{
				Kind:    progress.KindError,
				Stage:   "ingest",
				Label:   "Failed",
				Message: fmt.Sprintf("page %d/%d failed: %v", i+1, len(doc.Pages), err),
				DocID:   doc.DocID,
			})
			return Result{Count: total}, err
		}
		total += res.Count
	}

	p.stats.DocIngested()
	p.stats.IngestDone(start)
	p.notify.Notify(ctx, progress.Event{
		Kind:    progress.KindSuccess,
		Stage:   "ingest",
		Label:   "Ingested",
		Message: fmt.Sprintf("stored %d chunks from %d pages", total, len(doc.Pages)),
		DocID:   doc.DocID,
	})
	return Result{Count: total}, nil
}

// meaningful keeps chunks long enough to embed and containing at least one letter.
func meaningful(c domain.Chunk) bool {
	trimmed := strings.TrimSpace(c.Text)
	if len(trimmed) <= MinChunkChars {
		return false
	}
	for _, r := range trimmed {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// pointID derives a deterministic UUID so re-ingesting a document overwrites
// its own points.
func pointID(c domain.Chunk) string {
	page := -1
	if c.Page != nil {
		page = *c.Page
	}
	key := fmt.Sprintf("%s:%d:%d", c.DocID, page, c.Index)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()
}
