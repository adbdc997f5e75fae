package retrieval

import (
	"sort"

	"github.com/DocuQuery/docuquery-mvp/engine/domain"
)

// SourceGroup is one source document's retrieved contexts, in their original
// relative order, with the group's summed similarity score.
type SourceGroup struct {
	Source   string
	Contexts []domain.RetrievedContext
	Score    float32
}

// GroupBySource partitions contexts by source and orders the groups by
// descending summed score. The partition is lossless: every input context
// appears in exactly one group.
func GroupBySource(contexts []domain.RetrievedContext) []SourceGroup {
	if len(contexts) == 0 {
		return nil
	}

	index := make(map[string]int)
	var groups []SourceGroup
	for _, c := range contexts {
		i, ok := index[c.Source]
		if !ok {
			i = len(groups)
			index[c.Source] = i
			groups = append(groups, SourceGroup{Source: c.Source})
		}
		groups[i].Contexts = append(groups[i].Contexts, c)
		groups[i].Score += c.Score
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Score > groups[j].Score
	})
	return groups
}

// Primary returns the top-ranked group's contexts — the "primary document"
// used by answer synthesis. Nil input yields nil.
func Primary(groups []SourceGroup) []domain.RetrievedContext {
	if len(groups) == 0 {
		return nil
	}
	return groups[0].Contexts
}
