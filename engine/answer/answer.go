// Package answer synthesizes a formatted answer string from retrieved,
// classified contexts. Synthesis is rule-based pattern extraction: the
// question is dispatched through an ordered table of (predicate, extractor)
// strategies and the first strategy that both matches and extracts something
// wins. The final generic strategy always produces output, so synthesis never
// fails once contexts exist.
package answer

import (
	"strings"

	"github.com/DocuQuery/docuquery-mvp/engine/domain"
)

// NoContextAnswer is returned when retrieval produced no usable contexts.
const NoContextAnswer = "No relevant context found."

// Input carries one synthesis request. Primary is the top-ranked source
// group's contexts; All is the full retrieved list (the comparison and chart
// strategies look beyond the primary document).
type Input struct {
	Question string
	Primary  []domain.RetrievedContext
	All      []domain.RetrievedContext
	DocType  domain.DocType
}

// input is the precomputed view handlers work against.
type input struct {
	q       string // lowercased question
	primary []domain.RetrievedContext
	all     []domain.RetrievedContext
	text    string // concatenated primary text
	docType domain.DocType
}

// strategy pairs an intent predicate with its extractor. Extractors report
// ok=false on an extraction miss, which cascades to the next strategy.
type strategy struct {
	name    string
	match   func(*input) bool
	extract func(*input) (string, bool)
}

// strategies is the fixed precedence table. Order matters; the table is
// evaluated top to bottom.
var strategies = []strategy{
	{"certificate", matchCertificate, extractCertificate},
	{"name", matchName, extractNames},
	{"course", matchCourse, extractCourses},
	{"organization", matchOrganization, extractOrganizations},
	{"date", matchDate, extractDates},
	{"percentage", matchPercentage, extractPercentages},
	{"amount", matchAmount, extractAmounts},
	{"comparison", matchComparison, extractComparisons},
	{"chart", matchChart, extractChartExcerpt},
	{"location", matchLocation, extractLocations},
	{"contact", matchContact, extractContact},
	{"skills", matchSkills, extractSkillsSection},
	{"projects", matchProjects, extractProjectsSection},
	{"education", matchEducation, extractEducationSection},
	{"summary", matchSummary, extractSummary},
	{"generic", matchAlways, extractGeneric},
}

// Synthesize produces a non-empty answer for the question from the given
// contexts, or the literal NoContextAnswer when Primary is empty.
func Synthesize(req Input) string {
	if len(req.Primary) == 0 {
		return NoContextAnswer
	}

	all := req.All
	if len(all) == 0 {
		all = req.Primary
	}

	var b strings.Builder
	for _, c := range req.Primary {
		b.WriteString(c.Text)
		b.WriteByte('\n')
	}

	in := &input{
		q:       strings.ToLower(req.Question),
		primary: req.Primary,
		all:     all,
		text:    b.String(),
		docType: req.DocType,
	}

	for _, s := range strategies {
		if !s.match(in) {
			continue
		}
		if out, ok := s.extract(in); ok {
			return out
		}
	}
	// Unreachable: the generic strategy always extracts.
	return truncateChars(in.primary[0].Text, 200)
}

func matchAlways(*input) bool { return true }
