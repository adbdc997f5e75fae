package semantic

import "github.com/DocuQuery/docuquery-mvp/engine/domain"

// Record is a chunk ready for persistence, keyed by a deterministic point ID.
type Record struct {
	ID    string
	Chunk domain.Chunk
}

// Query describes one similarity lookup. Pool is the candidate pool the store
// should consider (HNSW ef); Limit is how many matches to return, ordered by
// descending score.
type Query struct {
	Vector []float32
	Pool   int
	Limit  int
}

// Payload keys used in the vector store. Every other payload entry round-trips
// through RetrievedContext.Metadata.
const (
	payloadContent    = "content"
	payloadDocID      = "doc_id"
	payloadSource     = "source"
	payloadPage       = "page"
	payloadChunkType  = "chunk_type"
	payloadChunkIndex = "chunk_index"
)
