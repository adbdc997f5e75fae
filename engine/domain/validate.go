package domain

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	// MaxQuestionLength bounds user questions (runes).
	MaxQuestionLength = 2000
	// MaxTopK bounds how many contexts a single query may request.
	MaxTopK = 50
)

// ValidateQuestion validates a user question before it enters the query pipeline.
func ValidateQuestion(question string) error {
	text := strings.TrimSpace(question)
	if text == "" {
		return NewValidationError("question", text, ErrEmptyQuestion)
	}
	if utf8.RuneCountInString(text) > MaxQuestionLength {
		return NewValidationError("question", text[:32]+"...", ErrQuestionTooLong)
	}
	return nil
}

// ValidateTopK validates the requested result count. Zero is allowed and means
// "use the configured default".
func ValidateTopK(topK int) error {
	if topK < 0 || topK > MaxTopK {
		return NewValidationError("top_k", strconv.Itoa(topK), ErrInvalidTopK)
	}
	return nil
}

// ValidateSourceMeta validates the ingestion source descriptor for one piece of
// extracted text.
func ValidateSourceMeta(docID, source string, chunkType ChunkType) error {
	if strings.TrimSpace(docID) == "" {
		return NewValidationError("doc_id", docID, ErrEmptyDocID)
	}
	if strings.TrimSpace(source) == "" {
		return NewValidationError("source", source, ErrEmptySource)
	}
	if chunkType != "" && !ValidChunkTypes[chunkType] {
		return NewValidationError("type", string(chunkType), ErrInvalidChunkType)
	}
	return nil
}
