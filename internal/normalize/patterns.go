package normalize

import (
	"regexp"
	"strings"
	"time"
)

// Case-details decomposition patterns, tried in order; first match
// wins. The portals print the same identifier three ways:
// "CA/123/2020", "CA 123/2020", "CA-123/2020".
var caseDetailPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^([A-Za-z][A-Za-z.()\s]*?)\s*/\s*(\d+)\s*/\s*(\d{4})`),
	regexp.MustCompile(`^([A-Za-z][A-Za-z.()]*)\s+(\d+)\s*/\s*(\d{4})`),
	regexp.MustCompile(`^([A-Za-z][A-Za-z.()]*)-(\d+)\s*/\s*(\d{4})`),
}

var bareYearPattern = regexp.MustCompile(`\b(\d{4})\b`)

// DecomposeCaseDetails splits a structured case-details string into
// (caseType, caseNumber, caseYear). When no pattern matches it falls
// back to scanning for a bare 4-digit year and leaves type and number
// empty. The fallback is deliberately lossy: the row is still worth
// keeping for its parties and documents.
func DecomposeCaseDetails(details string) (caseType, caseNumber, caseYear string) {
	details = strings.TrimSpace(details)

	for _, pattern := range caseDetailPatterns {
		if m := pattern.FindStringSubmatch(details); m != nil {
			return strings.TrimSpace(m[1]), m[2], m[3]
		}
	}

	if m := bareYearPattern.FindStringSubmatch(details); m != nil {
		return "", "", m[1]
	}
	return "", "", ""
}

// Date formats seen across the Indian court portals.
var courtDateFormats = []string{
	"02-01-2006",
	"02/01/2006",
	"02.01.2006",
	"02-Jan-2006",
	"02 Jan 2006",
	"02 January 2006",
	"2006-01-02",
	"Jan 02, 2006",
}

var dayNamePattern = regexp.MustCompile(`(?i)(Monday|Tuesday|Wednesday|Thursday|Friday|Saturday|Sunday),?\s*`)

// ParseCourtDate parses the date formats the portals use, tolerating
// a leading day name.
func ParseCourtDate(dateStr string) (time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)
	dateStr = regexp.MustCompile(`\s+`).ReplaceAllString(dateStr, " ")

	var firstErr error
	for _, format := range courtDateFormats {
		if d, err := time.Parse(format, dateStr); err == nil {
			return d, nil
		} else if firstErr == nil {
			firstErr = err
		}
	}

	stripped := dayNamePattern.ReplaceAllString(dateStr, "")
	if stripped != dateStr {
		for _, format := range courtDateFormats {
			if d, err := time.Parse(format, stripped); err == nil {
				return d, nil
			}
		}
	}

	return time.Time{}, firstErr
}
