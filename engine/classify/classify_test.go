package classify

import (
	"testing"

	"github.com/DocuQuery/docuquery-mvp/engine/domain"
)

func TestClassifyText(t *testing.T) {
	cases := []struct {
		name string
		text string
		want domain.DocType
	}{
		{"certificate", "This CERTIFICATE is awarded for completion", domain.DocCertificate},
		{"financial", "Quarterly revenue grew across segments", domain.DocFinancial},
		{"resume", "Education and work experience listed below", domain.DocResume},
		{"chart", "The X axis shows months", domain.DocChart},
		{"report", "An in-depth analysis of the results", domain.DocReport},
		{"general", "Nothing matching any keyword here", domain.DocGeneral},
		{"empty", "", domain.DocGeneral},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := ClassifyText(c.text); got != c.want {
				t.Fatalf("ClassifyText(%q) = %q, want %q", c.text, got, c.want)
			}
		})
	}
}

func TestClassifyPriority(t *testing.T) {
	// Certificate keywords outrank financial ones regardless of counts.
	text := "revenue revenue revenue awarded"
	if got := ClassifyText(text); got != domain.DocCertificate {
		t.Fatalf("got %q, want certificate (first matching set wins)", got)
	}
}

func TestClassifyJoinsContexts(t *testing.T) {
	contexts := []domain.RetrievedContext{
		{Text: "nothing here"},
		{Text: "profit margins improved"},
	}
	if got := Classify(contexts); got != domain.DocFinancial {
		t.Fatalf("got %q, want financial", got)
	}
}

func TestClassifyEmptyContexts(t *testing.T) {
	if got := Classify(nil); got != domain.DocGeneral {
		t.Fatalf("got %q, want general", got)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	contexts := []domain.RetrievedContext{{Text: "skills and projects"}}
	first := Classify(contexts)
	for i := 0; i < 5; i++ {
		if got := Classify(contexts); got != first {
			t.Fatalf("classification changed between runs: %q vs %q", first, got)
		}
	}
}
