// Package retrieval queries the vector store for contexts similar to a query
// embedding, then applies local ranking policy: over-fetch, score threshold,
// optional source filter, and truncation to top-K.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/DocuQuery/docuquery-mvp/engine/domain"
	"github.com/DocuQuery/docuquery-mvp/engine/semantic"
	"github.com/DocuQuery/docuquery-mvp/pkg/resilience"
)

// Searcher abstracts the vector store's similarity query.
type Searcher interface {
	Search(ctx context.Context, q semantic.Query) ([]domain.RetrievedContext, error)
}

// Options configures retrieval policy. The threshold and over-fetch
// multipliers are deliberately configuration, not literals, so deployments can
// tune post-filtering attrition.
type Options struct {
	// TopK is the default result count when a request doesn't specify one.
	TopK int
	// MinScore drops any result with score <= MinScore.
	MinScore float32
	// PoolFloor and PoolPerK size the candidate pool: max(PoolFloor, topK*PoolPerK).
	PoolFloor int
	PoolPerK  int
	// FetchPerK sizes the store fetch limit: topK*FetchPerK.
	FetchPerK int
}

// DefaultOptions returns the reference retrieval policy.
func DefaultOptions() Options {
	return Options{
		TopK:      5,
		MinScore:  0.4,
		PoolFloor: 100,
		PoolPerK:  10,
		FetchPerK: 3,
	}
}

// Engine applies retrieval policy over a Searcher. Store calls go through a
// circuit breaker so a struggling vector store fails fast.
type Engine struct {
	search  Searcher
	breaker *resilience.Breaker
	opts    Options
	logger  *slog.Logger
}

// New creates a retrieval Engine. breaker may be nil to disable tripping.
func New(search Searcher, breaker *resilience.Breaker, opts Options, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultOptions().TopK
	}
	return &Engine{search: search, breaker: breaker, opts: opts, logger: logger}
}

// Search retrieves up to topK contexts similar to vector. sourceFilter, when
// non-empty, is a case-insensitive regular expression matched against each
// result's source; non-matches are discarded before the score threshold and
// truncation apply. topK <= 0 uses the configured default.
func (e *Engine) Search(ctx context.Context, vector []float32, topK int, sourceFilter string) ([]domain.RetrievedContext, error) {
	if topK <= 0 {
		topK = e.opts.TopK
	}

	var sourceRe *regexp.Regexp
	if sourceFilter != "" {
		re, err := regexp.Compile("(?i)" + sourceFilter)
		if err != nil {
			return nil, domain.NewValidationError("source_filter", sourceFilter, domain.ErrBadSourceFilter)
		}
		sourceRe = re
	}

	// Over-fetch to compensate for post-filtering attrition.
	pool := topK * e.opts.PoolPerK
	if pool < e.opts.PoolFloor {
		pool = e.opts.PoolFloor
	}
	fetchLimit := topK * e.opts.FetchPerK

	var candidates []domain.RetrievedContext
	fetch := func(ctx context.Context) error {
		var err error
		candidates, err = e.search.Search(ctx, semantic.Query{
			Vector: vector,
			Pool:   pool,
			Limit:  fetchLimit,
		})
		return err
	}

	var err error
	if e.breaker != nil {
		err = e.breaker.Call(ctx, fetch)
	} else {
		err = fetch(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("retrieval: search: %w", err)
	}

	results := make([]domain.RetrievedContext, 0, topK)
	for _, c := range candidates {
		if sourceRe != nil && !sourceRe.MatchString(c.Source) {
			continue
		}
		if c.Score <= e.opts.MinScore {
			continue
		}
		results = append(results, c)
		if len(results) == topK {
			break
		}
	}

	e.logger.Debug("retrieval done",
		"candidates", len(candidates),
		"kept", len(results),
		"pool", pool,
		"fetch_limit", fetchLimit,
	)
	return results, nil
}
