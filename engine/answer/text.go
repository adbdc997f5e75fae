package answer

import (
	"strings"
	"unicode"
)

// splitSentences splits text into sentences using punctuation and newlines.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			if r == '\n' || i == len(text)-1 || (i+1 < len(text) && unicode.IsSpace(rune(text[i+1]))) {
				if s := strings.TrimSpace(current.String()); s != "" {
					sentences = append(sentences, s)
				}
				current.Reset()
			}
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// cleanSentences returns sentences longer than minLen that contain at least
// one letter.
func cleanSentences(text string, minLen int) []string {
	var out []string
	for _, s := range splitSentences(text) {
		if len(s) > minLen && hasLetter(s) {
			out = append(out, s)
		}
	}
	return out
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// questionHasAny reports whether the lowercased question mentions any keyword.
func questionHasAny(q string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}

// bulletList renders a labeled bullet list, or a single labeled line for one item.
func bulletList(label string, items []string) string {
	var b strings.Builder
	b.WriteString(label)
	for _, item := range items {
		b.WriteString("\n- ")
		b.WriteString(item)
	}
	return b.String()
}

// questionWords returns de-duplicated question words longer than 3 characters,
// lowercased and stripped of punctuation.
func questionWords(q string) []string {
	seen := make(map[string]bool)
	var words []string
	for _, w := range strings.Fields(q) {
		w = strings.Trim(strings.ToLower(w), "?.,!;:'\"()")
		if len(w) > 3 && !seen[w] {
			seen[w] = true
			words = append(words, w)
		}
	}
	return words
}

// titleWords uppercases the first letter of each word.
func titleWords(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// truncateChars cuts s to at most n bytes on a rune boundary, appending an
// ellipsis when truncated.
func truncateChars(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := s[:n]
	for len(cut) > 0 && (cut[len(cut)-1]&0xC0) == 0x80 {
		cut = cut[:len(cut)-1]
	}
	return cut + "..."
}
