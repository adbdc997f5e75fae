// Package domain defines core domain types, constants, and validation for the
// docuquery engine pipelines. It acts as the validation gate at pipeline entry points.
package domain

// ChunkType describes how a chunk's text was obtained from the source document.
type ChunkType string

const (
	ChunkText           ChunkType = "text"
	ChunkTable          ChunkType = "table"
	ChunkImageOCR       ChunkType = "image_ocr"
	ChunkChartOCR       ChunkType = "chart_ocr"
	ChunkCertificateOCR ChunkType = "certificate_ocr"
	ChunkTableOCR       ChunkType = "table_ocr"
)

// ValidChunkTypes is the set of recognised chunk types.
var ValidChunkTypes = map[ChunkType]bool{
	ChunkText: true, ChunkTable: true, ChunkImageOCR: true,
	ChunkChartOCR: true, ChunkCertificateOCR: true, ChunkTableOCR: true,
}

// DocType is the coarse keyword-derived document classification used to steer
// answer synthesis.
type DocType string

const (
	DocCertificate DocType = "certificate"
	DocFinancial   DocType = "financial"
	DocResume      DocType = "resume"
	DocChart       DocType = "chart"
	DocReport      DocType = "report"
	DocGeneral     DocType = "general"
)

// Chunk is the minimal retrievable unit of document text. Chunks are created
// at ingestion and immutable thereafter; there is no update path.
type Chunk struct {
	DocID    string            `json:"doc_id"`
	Source   string            `json:"source"`
	Page     *int              `json:"page,omitempty"`
	Type     ChunkType         `json:"type"`
	Index    int               `json:"index"`
	Text     string            `json:"text"`
	Vector   []float32         `json:"-"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// RetrievedContext is a chunk as returned from similarity search, carrying the
// similarity score. It is ephemeral: never persisted, it exists only for the
// duration of a query.
type RetrievedContext struct {
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata"`
	DocID    string            `json:"doc_id"`
	Source   string            `json:"source"`
	Page     *int              `json:"page"`
	Type     ChunkType         `json:"type"`
	Score    float32           `json:"score"`
}
