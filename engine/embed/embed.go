// Package embed wraps an external embedding model as a batch service. The
// model is readied lazily exactly once per process; concurrent first callers
// share a single in-flight load. Per-item embedding failures degrade to
// all-zero vectors so a batch never changes length.
package embed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/DocuQuery/docuquery-mvp/pkg/metrics"
)

const (
	// DefaultDimensions matches the all-MiniLM class of sentence models.
	DefaultDimensions = 384
	// DefaultTruncateAt is the client-side character budget per input.
	DefaultTruncateAt = 2048
)

// Client is the underlying embedding model. Load readies the model (pulling
// weights, warming a remote endpoint); Embed converts one text into a vector.
type Client interface {
	Load(ctx context.Context) error
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Options configures the embedding service.
type Options struct {
	Dimensions int
	TruncateAt int
}

// DefaultOptions returns the reference configuration.
func DefaultOptions() Options {
	return Options{Dimensions: DefaultDimensions, TruncateAt: DefaultTruncateAt}
}

// Service is the process-scoped embedding adapter. Construct once and inject
// into both pipelines.
type Service struct {
	client Client
	opts   Options
	logger *slog.Logger
	stats  *metrics.Set

	mu      sync.Mutex
	loading chan struct{} // non-nil while a load is in flight
	loaded  bool
}

// New creates an embedding Service around client.
func New(client Client, opts Options, stats *metrics.Set, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Dimensions <= 0 {
		opts.Dimensions = DefaultDimensions
	}
	if opts.TruncateAt <= 0 {
		opts.TruncateAt = DefaultTruncateAt
	}
	return &Service{client: client, opts: opts, stats: stats, logger: logger}
}

// Dimensions returns the fixed vector dimension D.
func (s *Service) Dimensions() int { return s.opts.Dimensions }

// ensureReady loads the model exactly once. Concurrent callers during the
// in-flight first load wait for that load; a failed load is surfaced to every
// waiter and cleared so a later call may retry.
func (s *Service) ensureReady(ctx context.Context) error {
	s.mu.Lock()
	if s.loaded {
		s.mu.Unlock()
		return nil
	}
	if s.loading != nil {
		ch := s.loading
		s.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.loaded {
			return fmt.Errorf("embed: model load failed in another caller")
		}
		return nil
	}

	ch := make(chan struct{})
	s.loading = ch
	s.mu.Unlock()

	err := s.client.Load(ctx)

	s.mu.Lock()
	s.loading = nil
	if err == nil {
		s.loaded = true
	}
	close(ch)
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("embed: load model: %w", err)
	}
	return nil
}

// EmbedBatch embeds texts sequentially, preserving positional 1:1
// correspondence. Empty or failed items yield an all-zero vector instead of
// aborting the batch. Context cancellation aborts the whole batch.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := s.ensureReady(ctx); err != nil {
		return nil, err
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text = s.truncate(text)
		if strings.TrimSpace(text) == "" {
			out[i] = s.zeroVector()
			continue
		}

		vec, err := s.client.Embed(ctx, text)
		if err != nil {
			s.logger.Warn("embed: item failed, substituting zero vector", "index", i, "err", err)
			s.stats.EmbedItemFailed()
			out[i] = s.zeroVector()
			continue
		}
		if len(vec) != s.opts.Dimensions {
			s.logger.Warn("embed: dimension mismatch, substituting zero vector",
				"index", i, "got", len(vec), "want", s.opts.Dimensions)
			s.stats.EmbedItemFailed()
			out[i] = s.zeroVector()
			continue
		}
		out[i] = vec
	}
	return out, nil
}

// EmbedOne embeds a single text via a one-item batch.
func (s *Service) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (s *Service) truncate(text string) string {
	if len(text) <= s.opts.TruncateAt {
		return text
	}
	cut := text[:s.opts.TruncateAt]
	// Back off a partially sliced rune.
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut
}

func (s *Service) zeroVector() []float32 {
	return make([]float32, s.opts.Dimensions)
}
