package answer

import (
	"regexp"
	"strings"

	"github.com/DocuQuery/docuquery-mvp/engine/domain"
	"github.com/DocuQuery/docuquery-mvp/pkg/fn"
)

// Shared date patterns, richest first.
var (
	monthDateRe = regexp.MustCompile(`\b(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},?\s+\d{4}\b`)
	slashDateRe = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2,4}\b`)
	isoDateRe   = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
	bareYearRe  = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
)

// --- names ---

var (
	awardedToRe  = regexp.MustCompile(`(?:awarded to|presented to)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+){0,2})`)
	properNounRe = regexp.MustCompile(`\b([A-Z][a-z]+(?:\s+[A-Z][a-z]+){1,2})\b`)
)

// capitalised sentence-starters and title-cased non-names the proper-noun
// pattern would otherwise pick up.
var nameStopwords = map[string]bool{
	"The": true, "This": true, "That": true, "These": true, "Those": true,
	"A": true, "An": true, "It": true, "In": true, "On": true, "At": true,
	"For": true, "And": true, "But": true, "Data": true, "Machine": true,
	"Certificate": true, "University": true, "Institute": true, "College": true,
}

func matchName(in *input) bool {
	return questionHasAny(in.q, "name", "who")
}

func extractNames(in *input) (string, bool) {
	var names []string
	for _, m := range awardedToRe.FindAllStringSubmatch(in.text, -1) {
		names = append(names, m[1])
	}
	for _, m := range properNounRe.FindAllStringSubmatch(in.text, -1) {
		if !nameStopwords[strings.Fields(m[1])[0]] {
			names = append(names, m[1])
		}
	}
	names = fn.Dedupe(names)
	if len(names) == 0 {
		return "", false
	}
	if len(names) == 1 {
		return "The name mentioned is " + names[0] + ".", true
	}
	return bulletList("Names found:", names), true
}

// --- courses ---

var knownCourses = []string{
	"Data Science", "Machine Learning", "Deep Learning", "Artificial Intelligence",
	"Web Development", "Cloud Computing", "Data Analytics", "Cybersecurity",
	"Digital Marketing", "Project Management", "Python", "Java",
}

var coursePatternRe = regexp.MustCompile(`(?:[Cc]ourse|[Tt]raining|[Pp]rogram)\s*[:\-]?\s*(?:in\s+|on\s+)?([A-Z][A-Za-z0-9+#& ]*?)(?:\s+(?:issued|offered|provided|conducted|by|from|on)\b|[.,\n]|$)`)

func matchCourse(in *input) bool {
	return questionHasAny(in.q, "course", "training", "program")
}

func extractCourses(in *input) (string, bool) {
	lower := strings.ToLower(in.text)
	var courses []string
	for _, c := range knownCourses {
		if strings.Contains(lower, strings.ToLower(c)) {
			courses = append(courses, c)
		}
	}
	for _, m := range coursePatternRe.FindAllStringSubmatch(in.text, -1) {
		if v := strings.TrimSpace(m[1]); v != "" {
			courses = append(courses, v)
		}
	}
	courses = fn.Dedupe(courses)
	if len(courses) == 0 {
		return "", false
	}
	if len(courses) == 1 {
		return "The course mentioned is " + courses[0] + ".", true
	}
	return bulletList("Courses mentioned:", courses), true
}

// --- organizations ---

var knownOrgs = []string{
	"Coursera", "Udemy", "edX", "Udacity", "Google", "Microsoft", "Amazon",
	"IBM", "Oracle", "Intel", "Infosys", "TCS", "Accenture", "Deloitte",
}

var orgSuffixRe = regexp.MustCompile(`\b([A-Z][A-Za-z]+(?:\s+[A-Z][A-Za-z]+)?)\s+(University|Institute|College|Academy|Corporation|Limited)\b`)

func matchOrganization(in *input) bool {
	return questionHasAny(in.q, "company", "organization", "organisation", "institution", "institute", "university", "issuer")
}

func extractOrganizations(in *input) (string, bool) {
	var orgs []string
	for _, o := range knownOrgs {
		if strings.Contains(in.text, o) {
			orgs = append(orgs, o)
		}
	}
	for _, m := range orgSuffixRe.FindAllStringSubmatch(in.text, -1) {
		orgs = append(orgs, m[1]+" "+m[2])
	}
	orgs = fn.Dedupe(orgs)
	if len(orgs) == 0 {
		return "", false
	}
	if len(orgs) == 1 {
		return "The organization mentioned is " + orgs[0] + ".", true
	}
	return bulletList("Organizations mentioned:", orgs), true
}

// --- dates ---

func matchDate(in *input) bool {
	return questionHasAny(in.q, "date", "when", "year", "time", "day")
}

func extractDates(in *input) (string, bool) {
	var dates []string
	for _, re := range []*regexp.Regexp{monthDateRe, slashDateRe, isoDateRe} {
		dates = append(dates, re.FindAllString(in.text, -1)...)
	}
	// Bare years only when not already part of a captured date.
	for _, y := range bareYearRe.FindAllString(in.text, -1) {
		contained := false
		for _, d := range dates {
			if strings.Contains(d, y) {
				contained = true
				break
			}
		}
		if !contained {
			dates = append(dates, y)
		}
	}
	dates = fn.Dedupe(dates)
	if len(dates) == 0 {
		return "", false
	}
	if len(dates) == 1 {
		return "Date: " + dates[0], true
	}
	return bulletList("Dates found:", dates), true
}

// --- percentages ---

var (
	percentRe       = regexp.MustCompile(`\b\d+(?:\.\d+)?\s?%`)
	percentChangeRe = regexp.MustCompile(`(?i)\b(?:increased|decreased|grew|declined|growth|drop(?:ped)?)\s+by\s+(\d+(?:\.\d+)?\s?%?)`)
)

func matchPercentage(in *input) bool {
	return questionHasAny(in.q, "percent", "percentage", "growth", "increase", "decrease", "%")
}

func extractPercentages(in *input) (string, bool) {
	figures := percentRe.FindAllString(in.text, -1)
	for _, m := range percentChangeRe.FindAllStringSubmatch(in.text, -1) {
		figures = append(figures, m[0])
	}
	figures = fn.Dedupe(figures)
	if len(figures) == 0 {
		return "", false
	}
	return bulletList("Percentage figures:", figures), true
}

// --- amounts ---

const maxAmounts = 10

var (
	currencyAmountRe = regexp.MustCompile(`(?:\$|₹|€|£|(?i:rs\.?|usd|inr|eur))\s?\d[\d,]*(?:\.\d+)?(?:\s?(?i:million|billion|crore|lakh|bn|mn|k))?`)
	keywordAmountRe  = regexp.MustCompile(`(?i)\b(?:revenue|profit|sales|amount|value|cost|price|total)\b(?:\s+(?:of|was|is|at|reached))?\s*[:\-]?\s*(\$?\d[\d,]*(?:\.\d+)?)`)
)

func matchAmount(in *input) bool {
	return questionHasAny(in.q, "amount", "value", "revenue", "profit", "sales", "cost", "price", "total")
}

func extractAmounts(in *input) (string, bool) {
	amounts := currencyAmountRe.FindAllString(in.text, -1)
	for _, m := range keywordAmountRe.FindAllStringSubmatch(in.text, -1) {
		amounts = append(amounts, m[1])
	}
	amounts = fn.Dedupe(amounts)
	if len(amounts) == 0 {
		return "", false
	}
	if len(amounts) > maxAmounts {
		amounts = amounts[:maxAmounts]
	}
	return bulletList("Amounts found:", amounts), true
}

// --- comparisons (searches all contexts, not just primary) ---

var comparisonRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b[\w$%.]+\s+vs\.?\s+[\w$%.]+`),
	regexp.MustCompile(`(?i)\b(?:increased|decreased|went)\s+from\s+\S+\s+to\s+\S+`),
	regexp.MustCompile(`(?i)\b(?:higher|lower|greater|smaller|better|worse)\s+than\s+[\w$%.]+`),
}

func matchComparison(in *input) bool {
	return questionHasAny(in.q, "compar", "versus", "difference", " vs ", "vs.")
}

func extractComparisons(in *input) (string, bool) {
	var found []string
	for _, c := range in.all {
		for _, re := range comparisonRes {
			found = append(found, re.FindAllString(c.Text, -1)...)
		}
	}
	found = fn.Dedupe(found)
	if len(found) == 0 {
		return "", false
	}
	return bulletList("Comparisons found:", found), true
}

// --- charts ---

const chartExcerptLen = 300

func matchChart(in *input) bool {
	return questionHasAny(in.q, "chart", "graph", "trend", "plot")
}

func extractChartExcerpt(in *input) (string, bool) {
	for _, c := range in.all {
		if c.Type == domain.ChunkChartOCR {
			return "Chart data:\n" + truncateChars(c.Text, chartExcerptLen), true
		}
	}
	return "", false
}

// --- locations ---

var (
	cityStateRe = regexp.MustCompile(`\b([A-Z][a-z]+(?:\s[A-Z][a-z]+)?),\s*([A-Z]{2}|[A-Z][a-z]+(?:\s[A-Z][a-z]+)?)\b`)
	streetRe    = regexp.MustCompile(`\b\d+\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\s+(?:Street|St\.?|Road|Rd\.?|Avenue|Ave\.?|Lane|Ln\.?|Drive|Dr\.?|Boulevard|Blvd\.?)\b`)
)

func matchLocation(in *input) bool {
	return questionHasAny(in.q, "location", "where", "address", "city", "place")
}

func extractLocations(in *input) (string, bool) {
	var locs []string
	for _, m := range cityStateRe.FindAllString(in.text, -1) {
		locs = append(locs, m)
	}
	locs = append(locs, streetRe.FindAllString(in.text, -1)...)
	locs = fn.Dedupe(locs)
	if len(locs) == 0 {
		return "", false
	}
	if len(locs) == 1 {
		return "Location: " + locs[0], true
	}
	return bulletList("Locations found:", locs), true
}

// --- contact (resume framing) ---

var (
	contactLineRe   = regexp.MustCompile(`(?i)^\s*(?:linkedin|e-?mail|github|mobile|phone|contact)\s*[:\-]`)
	contactInlineRe = regexp.MustCompile(`(?i)\b(?:linkedin|e-?mail|github|mobile)\s*:\s*[^\s,;]+`)
)

func matchContact(in *input) bool {
	return questionHasAny(in.q, "contact", "email", "phone", "linkedin", "github", "mobile")
}

func extractContact(in *input) (string, bool) {
	var lines []string
	for _, line := range strings.Split(in.text, "\n") {
		if sectionHeadingRe.MatchString(line) && len(lines) > 0 {
			break
		}
		if contactLineRe.MatchString(line) {
			lines = append(lines, strings.TrimSpace(line))
		}
	}
	if len(lines) == 0 {
		lines = contactInlineRe.FindAllString(in.text, -1)
	}
	lines = fn.Dedupe(lines)
	if len(lines) == 0 {
		return "", false
	}
	return bulletList("Contact information:", lines), true
}

// --- resume sections ---

// Known resume section headings; a section runs from its heading to the next
// known heading (education runs to the end of text).
var (
	sectionHeadingRe  = regexp.MustCompile(`(?m)^\s*(?:SKILLS?|PROJECTS?|EDUCATION|EXPERIENCE|CERTIFICATIONS?|CONTACT|SUMMARY|OBJECTIVE)\b`)
	skillsSectionRe   = regexp.MustCompile(`(?s)(?:^|\n)\s*SKILLS?\b[:\s]*(.*?)(?:\n\s*(?:PROJECTS?|EDUCATION|EXPERIENCE|CERTIFICATIONS?|CONTACT|SUMMARY|OBJECTIVE)\b|$)`)
	projectsSectionRe = regexp.MustCompile(`(?s)(?:^|\n)\s*PROJECTS?\b[:\s]*(.*?)(?:\n\s*(?:SKILLS?|EDUCATION|EXPERIENCE|CERTIFICATIONS?|CONTACT|SUMMARY|OBJECTIVE)\b|$)`)
	educationSectionRe = regexp.MustCompile(`(?s)(?:^|\n)\s*EDUCATION\b[:\s]*(.*)$`)
)

func matchSkills(in *input) bool {
	return questionHasAny(in.q, "skill", "technolog", "tech stack")
}

func extractSkillsSection(in *input) (string, bool) {
	return extractSection(in.text, skillsSectionRe, "Skills:")
}

func matchProjects(in *input) bool {
	return questionHasAny(in.q, "project")
}

func extractProjectsSection(in *input) (string, bool) {
	return extractSection(in.text, projectsSectionRe, "Projects:")
}

func matchEducation(in *input) bool {
	return questionHasAny(in.q, "education", "degree", "qualification", "college", "school")
}

func extractEducationSection(in *input) (string, bool) {
	return extractSection(in.text, educationSectionRe, "Education:")
}

func extractSection(text string, re *regexp.Regexp, label string) (string, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	body := strings.TrimSpace(m[1])
	if body == "" {
		return "", false
	}
	return label + "\n" + body, true
}

// --- summary ---

const (
	summaryPerContext = 2
	summaryCap        = 5
)

func matchSummary(in *input) bool {
	return questionHasAny(in.q, "summary", "overview", "about", "describe", "explain")
}

func extractSummary(in *input) (string, bool) {
	var sentences []string
	for _, c := range in.primary {
		clean := cleanSentences(c.Text, 20)
		if len(clean) > summaryPerContext {
			clean = clean[:summaryPerContext]
		}
		sentences = append(sentences, clean...)
	}
	sentences = fn.Dedupe(sentences)
	if len(sentences) == 0 {
		return "", false
	}
	if len(sentences) > summaryCap {
		sentences = sentences[:summaryCap]
	}
	return bulletList("Summary:", sentences), true
}
