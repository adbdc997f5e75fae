// Package query orchestrates the question answering flow: embed the
// question, retrieve relevant chunks, classify the document kind and
// synthesize an answer from the grouped contexts.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/DocuQuery/docuquery-mvp/engine/answer"
	"github.com/DocuQuery/docuquery-mvp/engine/classify"
	"github.com/DocuQuery/docuquery-mvp/engine/domain"
	"github.com/DocuQuery/docuquery-mvp/engine/embed"
	"github.com/DocuQuery/docuquery-mvp/engine/retrieval"
	"github.com/DocuQuery/docuquery-mvp/pkg/metrics"
	"github.com/DocuQuery/docuquery-mvp/pkg/progress"
)

// Request is a single question against the indexed corpus.
type Request struct {
	Question     string `json:"question"`
	TopK         int    `json:"top_k,omitempty"`
	SourceFilter string `json:"source_filter,omitempty"`
}

// Response carries the synthesized answer and the contexts it drew from.
type Response struct {
	Answer   string                    `json:"answer"`
	Contexts []domain.RetrievedContext `json:"contexts"`
}

// Service wires embedding, retrieval and synthesis together.
type Service struct {
	embedder  *embed.Service
	retriever *retrieval.Engine
	logger    *slog.Logger
	notify    progress.Notifier
	stats     *metrics.Set
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithNotifier sets the progress notifier.
func WithNotifier(n progress.Notifier) Option {
	return func(s *Service) { s.notify = n }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Set) Option {
	return func(s *Service) { s.stats = m }
}

// New builds a query Service.
func New(embedder *embed.Service, retriever *retrieval.Engine, opts ...Option) *Service {
	s := &Service{
		embedder:  embedder,
		retriever: retriever,
		logger:    slog.Default(),
		notify:    progress.Nop,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Answer runs the full question pipeline. An empty retrieval result is not
// an error: the caller gets the standard no-context answer and an empty
// context slice.
func (s *Service) Answer(ctx context.Context, req Request) (Response, error) {
	start := time.Now()

	if err := domain.ValidateQuestion(req.Question); err != nil {
		return Response{}, err
	}
	if err := domain.ValidateTopK(req.TopK); err != nil {
		return Response{}, err
	}

	s.notify.Notify(ctx, progress.Event{
		Kind:    progress.KindProcessing,
		Stage:   "query",
		Message: "query started",
	})

	vector, err := s.embedder.EmbedOne(ctx, req.Question)
	if err != nil {
		return Response{}, fmt.Errorf("embed question: %w", err)
	}

	contexts, err := s.retriever.Search(ctx, vector, req.TopK, req.SourceFilter)
	if err != nil {
		return Response{}, fmt.Errorf("retrieve contexts: %w", err)
	}

	if len(contexts) == 0 {
		s.logger.Debug("query: no contexts above threshold", "question_len", len(req.Question))
		s.stats.RetrievalCameUpEmpty()
		s.stats.QueryServed(start)
		s.notify.Notify(ctx, progress.Event{
			Kind:    progress.KindComplete,
			Stage:   "query",
			Message: "query completed with no context",
		})
		return Response{Answer: answer.NoContextAnswer, Contexts: []domain.RetrievedContext{}}, nil
	}

	groups := retrieval.GroupBySource(contexts)
	primary := retrieval.Primary(groups)
	docType := classify.Classify(contexts)

	ans := answer.Synthesize(answer.Input{
		Question: req.Question,
		Primary:  primary,
		All:      contexts,
		DocType:  docType,
	})

	s.logger.Info("query served",
		"contexts", len(contexts),
		"sources", len(groups),
		"doc_type", string(docType),
		"took", time.Since(start),
	)
	s.stats.QueryServed(start)
	s.notify.Notify(ctx, progress.Event{
		Kind:    progress.KindComplete,
		Stage:   "query",
		Message: "query completed",
	})

	return Response{Answer: ans, Contexts: contexts}, nil
}
