package query

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DocuQuery/docuquery-mvp/engine/answer"
	"github.com/DocuQuery/docuquery-mvp/engine/domain"
	"github.com/DocuQuery/docuquery-mvp/engine/embed"
	"github.com/DocuQuery/docuquery-mvp/engine/retrieval"
	"github.com/DocuQuery/docuquery-mvp/engine/semantic"
)

// echoClient embeds every text to the same unit vector.
type echoClient struct {
	loadErr error
}

func (e *echoClient) Load(context.Context) error { return e.loadErr }

func (e *echoClient) Embed(context.Context, string) ([]float32, error) {
	return []float32{1, 0}, nil
}

// cannedSearcher returns fixed contexts for every search.
type cannedSearcher struct {
	results []domain.RetrievedContext
	err     error
	lastQ   semantic.Query
}

func (c *cannedSearcher) Search(_ context.Context, q semantic.Query) ([]domain.RetrievedContext, error) {
	c.lastQ = q
	return c.results, c.err
}

func newService(s *cannedSearcher) *Service {
	embedder := embed.New(&echoClient{}, embed.Options{Dimensions: 2}, nil, nil)
	retriever := retrieval.New(s, nil, retrieval.DefaultOptions(), nil)
	return New(embedder, retriever)
}

func certContext() domain.RetrievedContext {
	return domain.RetrievedContext{
		Text: "This certificate is awarded to John Smith for successfully " +
			"completing the course Data Science issued by Coursera on June 1, 2023.",
		Source: "cert.pdf",
		Score:  0.92,
	}
}

func TestAnswerEndToEnd(t *testing.T) {
	svc := newService(&cannedSearcher{results: []domain.RetrievedContext{certContext()}})

	resp, err := svc.Answer(context.Background(), Request{Question: "What are the certificate details?"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(resp.Answer, "Certificate Details:") {
		t.Fatalf("answer = %q", resp.Answer)
	}
	if !strings.Contains(resp.Answer, "Recipient: John Smith") {
		t.Fatalf("answer = %q", resp.Answer)
	}
	if len(resp.Contexts) != 1 {
		t.Fatalf("got %d contexts", len(resp.Contexts))
	}
}

func TestAnswerEmptyRetrieval(t *testing.T) {
	// No contexts above threshold: literal no-context answer, empty slice, nil error.
	svc := newService(&cannedSearcher{})

	resp, err := svc.Answer(context.Background(), Request{Question: "Anything about dragons?"})
	if err != nil {
		t.Fatalf("empty retrieval must not be an error: %v", err)
	}
	if resp.Answer != answer.NoContextAnswer {
		t.Fatalf("answer = %q", resp.Answer)
	}
	if resp.Contexts == nil || len(resp.Contexts) != 0 {
		t.Fatalf("contexts = %#v, want empty non-nil slice", resp.Contexts)
	}
}

func TestAnswerBelowThresholdTreatedAsEmpty(t *testing.T) {
	svc := newService(&cannedSearcher{results: []domain.RetrievedContext{
		{Text: "weak match", Source: "a.pdf", Score: 0.2},
	}})

	resp, err := svc.Answer(context.Background(), Request{Question: "What is this?"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Answer != answer.NoContextAnswer {
		t.Fatalf("answer = %q", resp.Answer)
	}
}

func TestAnswerValidatesQuestion(t *testing.T) {
	svc := newService(&cannedSearcher{})

	_, err := svc.Answer(context.Background(), Request{Question: "   "})
	if !errors.Is(err, domain.ErrEmptyQuestion) {
		t.Fatalf("err = %v, want ErrEmptyQuestion", err)
	}

	_, err = svc.Answer(context.Background(), Request{Question: "ok?", TopK: -2})
	if !errors.Is(err, domain.ErrInvalidTopK) {
		t.Fatalf("err = %v, want ErrInvalidTopK", err)
	}
}

func TestAnswerPrimaryGroupDrivesSynthesis(t *testing.T) {
	// Two sources: b.pdf outscores a.pdf in sum, so synthesis must answer
	// from b.pdf's text even though a.pdf has the single best hit.
	searcher := &cannedSearcher{results: []domain.RetrievedContext{
		{Text: "The launch event is in Berlin.", Source: "a.pdf", Score: 0.95},
		{Text: "Offices at 12 Harbor Road handle logistics.", Source: "b.pdf", Score: 0.90},
		{Text: "More notes mention 9 Dock Lane as backup.", Source: "b.pdf", Score: 0.85},
	}}
	svc := newService(searcher)

	resp, err := svc.Answer(context.Background(), Request{Question: "Where are the offices?"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(resp.Answer, "Harbor Road") {
		t.Fatalf("answer should come from the primary source group: %q", resp.Answer)
	}
	if strings.Contains(resp.Answer, "Berlin") {
		t.Fatalf("secondary source leaked into a primary-only strategy: %q", resp.Answer)
	}
}

func TestAnswerPropagatesSearchError(t *testing.T) {
	storeErr := errors.New("store offline")
	svc := newService(&cannedSearcher{err: storeErr})

	_, err := svc.Answer(context.Background(), Request{Question: "ping?"})
	if !errors.Is(err, storeErr) {
		t.Fatalf("err = %v, want wrapped store error", err)
	}
}

func TestAnswerAppliesSourceFilter(t *testing.T) {
	searcher := &cannedSearcher{results: []domain.RetrievedContext{
		{Text: "From the report.", Source: "report.pdf", Score: 0.9},
		{Text: "From the invoice.", Source: "invoice.pdf", Score: 0.9},
	}}
	svc := newService(searcher)

	resp, err := svc.Answer(context.Background(), Request{
		Question:     "what do the documents say?",
		SourceFilter: "^report",
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range resp.Contexts {
		if c.Source != "report.pdf" {
			t.Fatalf("filter let %q through", c.Source)
		}
	}
}

func TestAnswerBadFilterIsValidationError(t *testing.T) {
	svc := newService(&cannedSearcher{})
	_, err := svc.Answer(context.Background(), Request{Question: "q?", SourceFilter: "([bad"})
	if !errors.Is(err, domain.ErrBadSourceFilter) {
		t.Fatalf("err = %v", err)
	}
}
