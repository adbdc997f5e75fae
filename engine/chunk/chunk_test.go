package chunk

import (
	"fmt"
	"strings"
	"testing"

	"github.com/DocuQuery/docuquery-mvp/engine/domain"
)

func wordText(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(words, " ")
}

func TestSplitEmpty(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t \n"} {
		if got := Split(text, SourceMeta{}, DefaultOptions()); got != nil {
			t.Errorf("Split(%q) = %d chunks, want none", text, len(got))
		}
	}
}

func TestSplitSingleWindow(t *testing.T) {
	text := wordText(500)
	chunks := Split(text, SourceMeta{DocID: "d1"}, DefaultOptions())

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != text {
		t.Error("single chunk should carry the full text")
	}
	if chunks[0].Index != 0 {
		t.Errorf("index = %d, want 0", chunks[0].Index)
	}
}

func TestSplitWindowStartsAndSizes(t *testing.T) {
	// 2000 words, maxLen 800, overlap 120 → stride 680, windows at
	// 0, 680, 1360 with 800, 800 and 640 words.
	chunks := Split(wordText(2000), SourceMeta{}, Options{MaxLen: 800, Overlap: 120})

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}

	wantStarts := []int{0, 680, 1360}
	wantLens := []int{800, 800, 640}
	for i, c := range chunks {
		words := strings.Fields(c.Text)
		if len(words) != wantLens[i] {
			t.Errorf("chunk %d: %d words, want %d", i, len(words), wantLens[i])
		}
		if words[0] != fmt.Sprintf("w%d", wantStarts[i]) {
			t.Errorf("chunk %d starts at %s, want w%d", i, words[0], wantStarts[i])
		}
		if c.Index != i {
			t.Errorf("chunk %d has index %d", i, c.Index)
		}
	}
}

func TestSplitOverlapProperty(t *testing.T) {
	chunks := Split(wordText(50), SourceMeta{}, Options{MaxLen: 20, Overlap: 5})

	for i := 1; i < len(chunks); i++ {
		prev := strings.Fields(chunks[i-1].Text)
		cur := strings.Fields(chunks[i].Text)
		tail := strings.Join(prev[len(prev)-5:], " ")
		head := strings.Join(cur[:min(5, len(cur))], " ")
		if tail != head {
			t.Errorf("windows %d/%d overlap mismatch: %q vs %q", i-1, i, tail, head)
		}
	}
}

func TestSplitFullCoverage(t *testing.T) {
	const n = 137
	chunks := Split(wordText(n), SourceMeta{}, Options{MaxLen: 30, Overlap: 7})

	seen := make(map[string]bool)
	for _, c := range chunks {
		for _, w := range strings.Fields(c.Text) {
			seen[w] = true
		}
	}
	if len(seen) != n {
		t.Fatalf("coverage: %d distinct words, want %d", len(seen), n)
	}
}

func TestSplitOverlapGEMaxLen(t *testing.T) {
	// Degenerate config: stride clamps to 1 so the split still terminates.
	chunks := Split(wordText(5), SourceMeta{}, Options{MaxLen: 3, Overlap: 3})
	if len(chunks) != 5 {
		t.Fatalf("expected 5 chunks with stride 1, got %d", len(chunks))
	}
}

func TestSplitCarriesMeta(t *testing.T) {
	page := 4
	meta := SourceMeta{
		DocID:    "doc-9",
		Source:   "report.pdf",
		Page:     &page,
		Type:     domain.ChunkImageOCR,
		Metadata: map[string]string{"lang": "en"},
	}
	chunks := Split("alpha beta gamma", meta, DefaultOptions())

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	c := chunks[0]
	if c.DocID != "doc-9" || c.Source != "report.pdf" || c.Page != &page {
		t.Errorf("meta not carried: %+v", c)
	}
	if c.Type != domain.ChunkImageOCR {
		t.Errorf("type = %q, want image_ocr", c.Type)
	}
	if c.Metadata["lang"] != "en" {
		t.Error("metadata not carried")
	}
}

func TestSplitDefaultsTypeToText(t *testing.T) {
	chunks := Split("hello world", SourceMeta{}, DefaultOptions())
	if chunks[0].Type != domain.ChunkText {
		t.Errorf("type = %q, want text", chunks[0].Type)
	}
}

func TestSplitNormalizesWhitespace(t *testing.T) {
	chunks := Split("a\tb\n\nc   d", SourceMeta{}, DefaultOptions())
	if chunks[0].Text != "a b c d" {
		t.Errorf("text = %q, want single-space joined", chunks[0].Text)
	}
}

func TestSplitTableGroupsRows(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("name|amount\n")
	for i := 0; i < 60; i++ {
		fmt.Fprintf(&sb, "row%d|%d\n", i, i*10)
	}

	chunks := SplitTable(sb.String(), SourceMeta{DocID: "t1"}, 25)

	if len(chunks) != 3 {
		t.Fatalf("expected 3 groups (25+25+10), got %d", len(chunks))
	}
	for i, c := range chunks {
		if c.Type != domain.ChunkTable {
			t.Errorf("group %d type = %q, want table", i, c.Type)
		}
		if !strings.HasPrefix(c.Text, "name|amount\n") {
			t.Errorf("group %d missing repeated header: %q", i, c.Text[:20])
		}
		if c.Index != i {
			t.Errorf("group %d has index %d", i, c.Index)
		}
	}

	last := strings.Split(chunks[2].Text, "\n")
	if len(last) != 11 { // header + 10 remaining rows
		t.Errorf("last group has %d lines, want 11", len(last))
	}
}

func TestSplitTableHeaderOnly(t *testing.T) {
	chunks := SplitTable("col_a|col_b\n", SourceMeta{}, 25)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk for header-only table, got %d", len(chunks))
	}
	if chunks[0].Text != "col_a|col_b" {
		t.Errorf("text = %q", chunks[0].Text)
	}
}

func TestSplitTableSkipsBlankLines(t *testing.T) {
	chunks := SplitTable("h\n\n\nr1\n  \nr2\n", SourceMeta{}, 25)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "h\nr1\nr2" {
		t.Errorf("text = %q, want blank lines dropped", chunks[0].Text)
	}
}

func TestSplitTableEmpty(t *testing.T) {
	if got := SplitTable("\n  \n", SourceMeta{}, 25); got != nil {
		t.Fatalf("expected no chunks, got %d", len(got))
	}
}
