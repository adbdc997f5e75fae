package answer

import "strings"

const fallbackExcerptLen = 200

// extractGeneric is the final strategy: from the single best-ranked primary
// context, return the sentence sharing the most question words, or a leading
// excerpt when no sentence qualifies. It always succeeds.
func extractGeneric(in *input) (string, bool) {
	best := in.primary[0]
	sentences := cleanSentences(best.Text, 10)
	if len(sentences) == 0 {
		return truncateChars(strings.TrimSpace(best.Text), fallbackExcerptLen), true
	}

	words := questionWords(in.q)
	bestIdx, bestScore := 0, -1
	for i, s := range sentences {
		lower := strings.ToLower(s)
		score := 0
		for _, w := range words {
			if strings.Contains(lower, w) {
				score++
			}
		}
		// Earliest sentence wins ties.
		if score > bestScore {
			bestIdx, bestScore = i, score
		}
	}
	return sentences[bestIdx], true
}
