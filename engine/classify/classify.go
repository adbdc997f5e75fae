// Package classify labels a set of retrieved contexts with a coarse document
// type from keyword heuristics. Deterministic and pure — no randomness, no
// external calls.
package classify

import (
	"strings"

	"github.com/DocuQuery/docuquery-mvp/engine/domain"
)

// keywordSets are evaluated in order; the first set with any keyword present
// in the concatenated, lowercased context text wins.
var keywordSets = []struct {
	docType  domain.DocType
	keywords []string
}{
	{domain.DocCertificate, []string{"certificate", "certification", "awarded", "presented", "issued", "diploma", "achievement"}},
	{domain.DocFinancial, []string{"revenue", "profit", "sales", "financial"}},
	{domain.DocResume, []string{"skills", "projects", "education", "experience"}},
	{domain.DocChart, []string{"chart", "graph", "axis", "legend"}},
	{domain.DocReport, []string{"report", "analysis"}},
}

// Classify returns the document type for a set of contexts. Empty input
// classifies as general.
func Classify(contexts []domain.RetrievedContext) domain.DocType {
	var b strings.Builder
	for _, c := range contexts {
		b.WriteString(c.Text)
		b.WriteByte(' ')
	}
	return ClassifyText(b.String())
}

// ClassifyText classifies raw text directly.
func ClassifyText(text string) domain.DocType {
	lower := strings.ToLower(text)
	for _, set := range keywordSets {
		for _, kw := range set.keywords {
			if strings.Contains(lower, kw) {
				return set.docType
			}
		}
	}
	return domain.DocGeneral
}
