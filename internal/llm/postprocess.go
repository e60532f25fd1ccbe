package llm

import (
	"regexp"
	"strings"
)

// preamblePatterns match meta-preface lines some models put before the
// actual content.
var preamblePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^here\s+is\s+my\s+attempt\b.*$`),
	regexp.MustCompile(`^here\s+is\s+my\s+take\b.*$`),
	regexp.MustCompile(`^here\s+is\s+my\s+rewritten\s+text\b.*$`),
	regexp.MustCompile(`^here\s+is\s+my\s+rewrite\b.*$`),
	regexp.MustCompile(`^here\s+is\s+the\s+analysis\b.*$`),
	regexp.MustCompile(`^here\s+are\s+\w+\s+versions\b.*$`),
	regexp.MustCompile(`^sure[,!]\s+.*$`),
	regexp.MustCompile(`^okay[,!]\s+.*$`),
}

// labelLines are bare label lines that precede content.
var labelLines = map[string]bool{
	"rewritten:": true,
	"rewrite:":   true,
	"output:":    true,
	"analysis:":  true,
	"response:":  true,
}

var leadingTitle = regexp.MustCompile(`^#{1,3}\s+.+\n+`)

// StripPreamble removes a leading invented markdown title and common model
// meta-preface lines, keeping only the content.
func StripPreamble(text string) string {
	if text == "" {
		return text
	}

	s := strings.TrimSpace(text)
	s = leadingTitle.ReplaceAllString(s, "")

	lines := strings.Split(s, "\n")
	cleaned := make([]string, 0, len(lines))
	skipping := true
	for _, line := range lines {
		if skipping {
			raw := strings.TrimSpace(line)
			if raw == "" {
				continue
			}
			lowered := strings.ToLower(raw)
			if matchesPreamble(lowered) || labelLines[lowered] {
				continue
			}
			skipping = false
		}
		cleaned = append(cleaned, line)
	}

	return strings.TrimSpace(strings.Join(cleaned, "\n"))
}

func matchesPreamble(lowered string) bool {
	for _, p := range preamblePatterns {
		if p.MatchString(lowered) {
			return true
		}
	}
	return false
}
