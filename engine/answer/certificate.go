package answer

import (
	"regexp"
	"strings"

	"github.com/DocuQuery/docuquery-mvp/engine/domain"
)

// fieldUnknown marks a certificate field no pattern resolved. Unknown fields
// are omitted from the formatted output.
const fieldUnknown = "Unknown"

// Certificate field patterns. Each field is tried against its patterns in
// order; the first match wins.
var (
	certRecipientPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:awarded to|presented to|is awarded to|this is to certify that)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+){0,2})`),
		regexp.MustCompile(`\b([A-Z][a-z]+(?:\s+[A-Z][a-z]+){1,2})\s+(?:was awarded|has been awarded|has successfully completed|is hereby certified)`),
	}
	certCoursePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:completing|completion of)\s+the\s+(?:course|training|program)\s+([A-Z][A-Za-z0-9+#& ]*?)(?:\s+(?:issued|offered|provided|conducted|by|from|on)\b|[.,\n]|$)`),
		regexp.MustCompile(`(?:course|training|program)\s*[:\-]\s*([A-Z][A-Za-z0-9+#& ]*?)(?:[.,\n]|$)`),
		regexp.MustCompile(`(?:course|training|program)\s+(?:in|on)\s+([A-Z][A-Za-z0-9+#& ]*?)(?:\s+(?:issued|offered|by|from|on)\b|[.,\n]|$)`),
	}
	certIssuerPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:issued|certified|granted|conducted)\s+by\s+([A-Z][A-Za-z&.\- ]*?)(?:\s+(?:on|in|at)\b|[.,\n]|$)`),
		regexp.MustCompile(`\b([A-Z][A-Za-z]+(?:\s+[A-Z][A-Za-z]+){0,2})\s+hereby certifies`),
	}
	certTypePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(certificate of [a-z]+(?: [a-z]+)?)\b`),
	}
)

func matchCertificate(in *input) bool {
	return in.docType == domain.DocCertificate ||
		questionHasAny(in.q, "certificate", "certification")
}

// extractCertificate pulls the structured certificate fields out of the
// primary contexts. If no field resolves it degrades to a short excerpt of
// cleaned sentences; only when even that is empty does it miss.
func extractCertificate(in *input) (string, bool) {
	fields := []struct {
		label string
		value string
	}{
		{"Type", certType(in.text)},
		{"Recipient", firstSubmatch(certRecipientPatterns, in.text)},
		{"Course", firstSubmatch(certCoursePatterns, in.text)},
		{"Issuer", firstSubmatch(certIssuerPatterns, in.text)},
		{"Date", firstDate(in.text)},
	}

	var lines []string
	for _, f := range fields {
		if f.value != fieldUnknown {
			lines = append(lines, f.label+": "+f.value)
		}
	}
	if len(lines) > 0 {
		return bulletList("Certificate Details:", lines), true
	}

	// No field resolved; return up to 3 cleaned sentences for context.
	sentences := cleanSentences(in.text, 15)
	if len(sentences) > 3 {
		sentences = sentences[:3]
	}
	if len(sentences) == 0 {
		return "", false
	}
	return strings.Join(sentences, " "), true
}

func certType(text string) string {
	for _, re := range certTypePatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return titleWords(m[1])
		}
	}
	if strings.Contains(strings.ToLower(text), "certificate") {
		return "Certificate"
	}
	return fieldUnknown
}

// firstSubmatch returns the first capture of the first matching pattern, or
// fieldUnknown.
func firstSubmatch(patterns []*regexp.Regexp, text string) string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			if v := strings.TrimSpace(m[1]); v != "" {
				return v
			}
		}
	}
	return fieldUnknown
}

// firstDate returns the first date-like string, trying the richest pattern first.
func firstDate(text string) string {
	for _, re := range []*regexp.Regexp{monthDateRe, slashDateRe, isoDateRe} {
		if m := re.FindString(text); m != "" {
			return m
		}
	}
	return fieldUnknown
}
