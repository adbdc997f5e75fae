package ingest

import (
	"github.com/DocuQuery/docuquery-mvp/engine/chunk"
	"github.com/DocuQuery/docuquery-mvp/engine/domain"
)

// Page is one unit of extracted text handed to the pipeline by the external
// text-extraction collaborator (OCR/PDF). The core never touches binary data.
type Page struct {
	Text     string            `json:"text"`
	Page     *int              `json:"page"`
	Kind     domain.ChunkType  `json:"kind"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Document is a full ingestion request: a document's extracted pages.
type Document struct {
	DocID   string `json:"doc_id"`
	Source  string `json:"source"`
	Pages   []Page `json:"pages"`
	Replace bool   `json:"replace"`
}

// Result reports how many chunks were persisted. Zero is a normal outcome
// for degenerate input, not an error.
type Result struct {
	Count int `json:"count"`
}

// chunked is the intermediate pipeline value between the chunking and
// embedding stages.
type chunked struct {
	raw    string
	meta   chunk.SourceMeta
	chunks []domain.Chunk
}

func (p Page) sourceMeta(docID, source string) chunk.SourceMeta {
	kind := p.Kind
	if kind == "" {
		kind = domain.ChunkText
	}
	return chunk.SourceMeta{
		DocID:    docID,
		Source:   source,
		Page:     p.Page,
		Type:     kind,
		Metadata: p.Metadata,
	}
}
