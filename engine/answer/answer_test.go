package answer

import (
	"strings"
	"testing"

	"github.com/DocuQuery/docuquery-mvp/engine/domain"
)

func ctx(text string) domain.RetrievedContext {
	return domain.RetrievedContext{Text: text, Source: "doc.pdf", Score: 0.9}
}

func synth(question, text string, docType domain.DocType) string {
	return Synthesize(Input{
		Question: question,
		Primary:  []domain.RetrievedContext{ctx(text)},
		DocType:  docType,
	})
}

const certText = "This certificate is awarded to John Smith for successfully " +
	"completing the course Data Science issued by Coursera on June 1, 2023."

func TestSynthesizeNoContext(t *testing.T) {
	got := Synthesize(Input{Question: "anything"})
	if got != NoContextAnswer {
		t.Fatalf("got %q, want the literal no-context answer", got)
	}
}

func TestSynthesizeCertificateDetails(t *testing.T) {
	got := synth("What are the certificate details?", certText, domain.DocCertificate)

	want := "Certificate Details:\n" +
		"- Type: Certificate\n" +
		"- Recipient: John Smith\n" +
		"- Course: Data Science\n" +
		"- Issuer: Coursera\n" +
		"- Date: June 1, 2023"
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestCertificateMatchesOnDocTypeAlone(t *testing.T) {
	// Question never says "certificate"; classification drives the dispatch.
	got := synth("What are the details of this document?", certText, domain.DocCertificate)
	if !strings.HasPrefix(got, "Certificate Details:") {
		t.Fatalf("got %q", got)
	}
}

func TestCertificatePartialFields(t *testing.T) {
	got := synth("certificate?", "Certificate awarded to Jane Doe.", domain.DocCertificate)

	if !strings.Contains(got, "Recipient: Jane Doe") {
		t.Errorf("missing recipient: %q", got)
	}
	if strings.Contains(got, "Unknown") {
		t.Errorf("unresolved fields must be omitted, not printed: %q", got)
	}
	if strings.Contains(got, "Issuer:") || strings.Contains(got, "Date:") {
		t.Errorf("unexpected fields: %q", got)
	}
}

func TestCertificateDegradesToSentences(t *testing.T) {
	text := "This document confirms participation in the annual meetup event."
	got := synth("certificate?", text, domain.DocCertificate)
	if strings.HasPrefix(got, "Certificate Details:") {
		t.Fatalf("no field should have resolved: %q", got)
	}
	if got != text {
		t.Fatalf("got %q, want the cleaned sentence fallback", got)
	}
}

func TestExtractSingleName(t *testing.T) {
	got := synth("Who received the award?", "The prize was awarded to John Smith for his work.", domain.DocGeneral)
	if got != "The name mentioned is John Smith." {
		t.Fatalf("got %q", got)
	}
}

func TestExtractMultipleNames(t *testing.T) {
	got := synth("What names are mentioned?",
		"Alice Johnson met with Robert Brown yesterday.", domain.DocGeneral)
	if !strings.HasPrefix(got, "Names found:") {
		t.Fatalf("got %q", got)
	}
	if !strings.Contains(got, "- Alice Johnson") || !strings.Contains(got, "- Robert Brown") {
		t.Fatalf("got %q", got)
	}
}

func TestNameStopwordsFiltered(t *testing.T) {
	// "This Report" and "Data Science" look like proper nouns but start with
	// stopwords; with no real name present the strategy misses and the chain
	// falls through to the generic excerpt.
	got := synth("who wrote this?", "This Report covers Data Science topics.", domain.DocGeneral)
	if strings.Contains(got, "name mentioned") || strings.HasPrefix(got, "Names found:") {
		t.Fatalf("stopword phrases leaked as names: %q", got)
	}
}

func TestExtractKnownCourse(t *testing.T) {
	got := synth("Which course is this?", "Completed training in machine learning this year.", domain.DocGeneral)
	if got != "The course mentioned is Machine Learning." {
		t.Fatalf("got %q", got)
	}
}

func TestExtractOrganization(t *testing.T) {
	got := synth("Which organization issued it?", "The program was run by Coursera last spring.", domain.DocGeneral)
	if got != "The organization mentioned is Coursera." {
		t.Fatalf("got %q", got)
	}
}

func TestExtractOrgBySuffix(t *testing.T) {
	got := synth("Which university?", "She studied at Stanford University for four years.", domain.DocGeneral)
	if got != "The organization mentioned is Stanford University." {
		t.Fatalf("got %q", got)
	}
}

func TestExtractSingleDate(t *testing.T) {
	got := synth("When did it happen?", "The ceremony took place on June 1, 2023 downtown.", domain.DocGeneral)
	if got != "Date: June 1, 2023" {
		t.Fatalf("got %q", got)
	}
}

func TestExtractDatesSkipsContainedYears(t *testing.T) {
	// 2023 is already inside the full date; 2019 stands alone.
	got := synth("What dates are mentioned?",
		"Issued on June 1, 2023, following the 2019 revision.", domain.DocGeneral)
	if !strings.HasPrefix(got, "Dates found:") {
		t.Fatalf("got %q", got)
	}
	if strings.Count(got, "2023") != 1 {
		t.Errorf("contained year duplicated: %q", got)
	}
	if !strings.Contains(got, "- 2019") {
		t.Errorf("standalone year missing: %q", got)
	}
}

func TestExtractPercentages(t *testing.T) {
	got := synth("What was the growth percentage?",
		"Revenue increased by 25% while margin held at 12.5%.", domain.DocGeneral)
	if !strings.HasPrefix(got, "Percentage figures:") {
		t.Fatalf("got %q", got)
	}
	if !strings.Contains(got, "25%") || !strings.Contains(got, "12.5%") {
		t.Fatalf("got %q", got)
	}
}

func TestExtractAmounts(t *testing.T) {
	got := synth("What was the total revenue?",
		"Revenue was $1,200,000 against costs of ₹500,000.", domain.DocGeneral)
	if !strings.HasPrefix(got, "Amounts found:") {
		t.Fatalf("got %q", got)
	}
	if !strings.Contains(got, "$1,200,000") || !strings.Contains(got, "₹500,000") {
		t.Fatalf("got %q", got)
	}
}

func TestExtractAmountsCapped(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 15; i++ {
		sb.WriteString("$")
		sb.WriteString(strings.Repeat("9", i+1))
		sb.WriteString(" ")
	}
	got := synth("total value?", sb.String(), domain.DocGeneral)
	if n := strings.Count(got, "\n- "); n != maxAmounts {
		t.Fatalf("listed %d amounts, want cap of %d", n, maxAmounts)
	}
}

func TestExtractComparisonsSearchesAllContexts(t *testing.T) {
	// The comparison sits in a secondary context, not the primary one.
	got := Synthesize(Input{
		Question: "How does this year compare to last year?",
		Primary:  []domain.RetrievedContext{ctx("General discussion of results.")},
		All: []domain.RetrievedContext{
			ctx("General discussion of results."),
			ctx("Sales increased from $10M to $14M."),
		},
		DocType: domain.DocFinancial,
	})
	if !strings.HasPrefix(got, "Comparisons found:") {
		t.Fatalf("got %q", got)
	}
	if !strings.Contains(got, "increased from $10M to $14M") {
		t.Fatalf("got %q", got)
	}
}

func TestExtractChartExcerpt(t *testing.T) {
	chart := domain.RetrievedContext{
		Text:  "X axis shows quarters, Y axis shows revenue in millions.",
		Type:  domain.ChunkChartOCR,
		Score: 0.8,
	}
	got := Synthesize(Input{
		Question: "What trend does the chart show?",
		Primary:  []domain.RetrievedContext{ctx("Narrative text.")},
		All:      []domain.RetrievedContext{ctx("Narrative text."), chart},
	})
	if !strings.HasPrefix(got, "Chart data:\n") {
		t.Fatalf("got %q", got)
	}
	if !strings.Contains(got, "X axis shows quarters") {
		t.Fatalf("got %q", got)
	}
}

func TestChartMissWithoutOCRContext(t *testing.T) {
	got := synth("What does the chart show?", "No visual data here at all.", domain.DocGeneral)
	if strings.HasPrefix(got, "Chart data:") {
		t.Fatalf("chart strategy should miss without chart_ocr chunks: %q", got)
	}
}

func TestExtractLocations(t *testing.T) {
	got := synth("Where is the office?",
		"Our office at 42 Baker Street serves the region.", domain.DocGeneral)
	if got != "Location: 42 Baker Street" {
		t.Fatalf("got %q", got)
	}
}

func TestExtractContactLines(t *testing.T) {
	text := "Email: jane@example.com\nLinkedIn: linkedin.com/in/janedoe\nSKILLS: Python"
	got := synth("What is the contact email?", text, domain.DocResume)
	if !strings.HasPrefix(got, "Contact information:") {
		t.Fatalf("got %q", got)
	}
	if !strings.Contains(got, "Email: jane@example.com") {
		t.Fatalf("got %q", got)
	}
	if strings.Contains(got, "Python") {
		t.Errorf("section after heading leaked into contact: %q", got)
	}
}

const resumeText = "Jane Doe\n" +
	"SKILLS: Python, Go, SQL\n" +
	"PROJECTS: Chatbot platform; ETL pipeline\n" +
	"EDUCATION: BSc Computer Science, State University"

func TestExtractSkillsSection(t *testing.T) {
	got := synth("What skills does the candidate have?", resumeText, domain.DocResume)
	if !strings.HasPrefix(got, "Skills:\n") {
		t.Fatalf("got %q", got)
	}
	if !strings.Contains(got, "Python, Go, SQL") {
		t.Fatalf("got %q", got)
	}
	if strings.Contains(got, "Chatbot") {
		t.Errorf("skills section ran past the next heading: %q", got)
	}
}

func TestExtractProjectsSection(t *testing.T) {
	got := synth("List the projects", resumeText, domain.DocResume)
	if !strings.HasPrefix(got, "Projects:\n") || !strings.Contains(got, "Chatbot platform") {
		t.Fatalf("got %q", got)
	}
}

func TestExtractEducationSection(t *testing.T) {
	got := synth("What is the education background?", resumeText, domain.DocResume)
	if !strings.HasPrefix(got, "Education:\n") || !strings.Contains(got, "BSc Computer Science") {
		t.Fatalf("got %q", got)
	}
}

func TestExtractSummary(t *testing.T) {
	text := "The quarterly report covers revenue and operations across regions. " +
		"Performance exceeded projections in every major market segment."
	got := synth("Give me an overview of the document", text, domain.DocReport)
	if !strings.HasPrefix(got, "Summary:") {
		t.Fatalf("got %q", got)
	}
	if strings.Count(got, "\n- ") != 2 {
		t.Fatalf("expected both sentences, got %q", got)
	}
}

func TestGenericFallbackPicksBestSentence(t *testing.T) {
	text := "The weather was pleasant throughout. Bananas are rich in potassium. Numbers held steady."
	got := synth("Anything on bananas?", text, domain.DocGeneral)
	if got != "Bananas are rich in potassium." {
		t.Fatalf("got %q", got)
	}
}

func TestGenericFallbackExcerptWhenNoSentences(t *testing.T) {
	// Short fragments under the sentence length floor force the raw excerpt.
	got := synth("zzz", "ab. cd. ef.", domain.DocGeneral)
	if got != "ab. cd. ef." {
		t.Fatalf("got %q", got)
	}
}

func TestExtractionMissCascades(t *testing.T) {
	// "who" engages the name strategy but the text holds no names, so the
	// chain must fall through to the generic sentence pick.
	text := "the meeting covered budget planning for the next quarter."
	got := synth("who attended the meeting?", text, domain.DocGeneral)
	if got != "the meeting covered budget planning for the next quarter." {
		t.Fatalf("got %q", got)
	}
}

func TestAllDefaultsToPrimary(t *testing.T) {
	// All omitted: comparison search must still see the primary contexts.
	got := Synthesize(Input{
		Question: "compare the figures",
		Primary:  []domain.RetrievedContext{ctx("Output went from 5 to 9 units.")},
	})
	if !strings.HasPrefix(got, "Comparisons found:") {
		t.Fatalf("got %q", got)
	}
}

func TestStrategyPrecedenceCertificateBeforeName(t *testing.T) {
	// Both certificate and name strategies match; certificate ranks first.
	got := synth("Who is named on the certificate?", certText, domain.DocCertificate)
	if !strings.HasPrefix(got, "Certificate Details:") {
		t.Fatalf("got %q", got)
	}
}
