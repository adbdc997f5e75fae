package metrics

import "time"

// Set bundles the engine's metrics. All methods are safe on a nil *Set, so
// tests can leave metrics unwired.
type Set struct {
	DocumentsIngested *Counter
	ChunksIngested    *Counter
	EmbedItemFailures *Counter
	QueriesServed     *Counter
	RetrievalEmpty    *Counter
	QueryDuration     *Histogram
	IngestDuration    *Histogram
}

// NewSet registers the engine metrics on r.
func NewSet(r *Registry) *Set {
	return &Set{
		DocumentsIngested: r.Counter("docuquery_documents_ingested_total", "Documents successfully ingested."),
		ChunksIngested:    r.Counter("docuquery_chunks_ingested_total", "Chunks written to the vector store."),
		EmbedItemFailures: r.Counter("docuquery_embed_item_failures_total", "Embedding items degraded to zero vectors."),
		QueriesServed:     r.Counter("docuquery_queries_total", "Questions answered."),
		RetrievalEmpty:    r.Counter("docuquery_retrieval_empty_total", "Queries where no context cleared the score threshold."),
		QueryDuration:     r.Histogram("docuquery_query_duration_seconds", "End-to-end query pipeline duration.", nil),
		IngestDuration:    r.Histogram("docuquery_ingest_duration_seconds", "End-to-end ingest pipeline duration.", nil),
	}
}

func (s *Set) DocIngested() {
	if s != nil {
		s.DocumentsIngested.Inc()
	}
}

func (s *Set) ChunksWritten(n int64) {
	if s != nil {
		s.ChunksIngested.Add(n)
	}
}

func (s *Set) EmbedItemFailed() {
	if s != nil {
		s.EmbedItemFailures.Inc()
	}
}

func (s *Set) QueryServed(start time.Time) {
	if s != nil {
		s.QueriesServed.Inc()
		s.QueryDuration.Since(start)
	}
}

func (s *Set) RetrievalCameUpEmpty() {
	if s != nil {
		s.RetrievalEmpty.Inc()
	}
}

func (s *Set) IngestDone(start time.Time) {
	if s != nil {
		s.IngestDuration.Since(start)
	}
}
