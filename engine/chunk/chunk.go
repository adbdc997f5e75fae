// Package chunk splits extracted document text into overlapping fixed-size
// windows suitable for embedding and retrieval.
package chunk

import (
	"strings"

	"github.com/DocuQuery/docuquery-mvp/engine/domain"
)

const (
	// DefaultMaxLen is the window size in words.
	DefaultMaxLen = 800
	// DefaultOverlap is the number of words shared by consecutive windows.
	DefaultOverlap = 120
	// DefaultRowsPerGroup is the number of table rows grouped into one chunk.
	DefaultRowsPerGroup = 25
)

// SourceMeta identifies where a piece of extracted text came from.
type SourceMeta struct {
	DocID    string
	Source   string
	Page     *int
	Type     domain.ChunkType
	Metadata map[string]string
}

// Options controls window sizing.
type Options struct {
	MaxLen  int
	Overlap int
}

// DefaultOptions returns the standard window sizing.
func DefaultOptions() Options {
	return Options{MaxLen: DefaultMaxLen, Overlap: DefaultOverlap}
}

// Split breaks text into overlapping word windows. Windows start at
// 0, stride, 2·stride, … where stride = max(1, maxLen − overlap); each window
// takes up to maxLen words. Every word is covered by at least one window and
// consecutive windows overlap by exactly Overlap words, except the final
// window which may be shorter. Empty input yields no chunks.
func Split(text string, meta SourceMeta, opts Options) []domain.Chunk {
	if opts.MaxLen <= 0 {
		opts.MaxLen = DefaultMaxLen
	}
	if opts.Overlap < 0 {
		opts.Overlap = 0
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	stride := opts.MaxLen - opts.Overlap
	if stride < 1 {
		stride = 1
	}

	chunkType := meta.Type
	if chunkType == "" {
		chunkType = domain.ChunkText
	}

	var chunks []domain.Chunk
	for start, idx := 0, 0; start < len(words); start, idx = start+stride, idx+1 {
		end := start + opts.MaxLen
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, domain.Chunk{
			DocID:    meta.DocID,
			Source:   meta.Source,
			Page:     meta.Page,
			Type:     chunkType,
			Index:    idx,
			Text:     strings.Join(words[start:end], " "),
			Metadata: meta.Metadata,
		})
	}
	return chunks
}

// SplitTable breaks delimited table text into fixed-size row groups. The first
// non-empty line is treated as the header row and is repeated at the top of
// every group so each chunk carries its column context. Resulting chunks have
// type "table".
func SplitTable(raw string, meta SourceMeta, rowsPerGroup int) []domain.Chunk {
	if rowsPerGroup <= 0 {
		rowsPerGroup = DefaultRowsPerGroup
	}

	var rows []string
	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) != "" {
			rows = append(rows, line)
		}
	}
	if len(rows) == 0 {
		return nil
	}

	header := rows[0]
	body := rows[1:]
	if len(body) == 0 {
		// Header-only table still produces a single chunk.
		body = []string{""}
	}

	var chunks []domain.Chunk
	for start, idx := 0, 0; start < len(body); start, idx = start+rowsPerGroup, idx+1 {
		end := start + rowsPerGroup
		if end > len(body) {
			end = len(body)
		}
		group := append([]string{header}, body[start:end]...)
		chunks = append(chunks, domain.Chunk{
			DocID:    meta.DocID,
			Source:   meta.Source,
			Page:     meta.Page,
			Type:     domain.ChunkTable,
			Index:    idx,
			Text:     strings.TrimSpace(strings.Join(group, "\n")),
			Metadata: meta.Metadata,
		})
	}
	return chunks
}
