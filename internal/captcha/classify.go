package captcha

import "strings"

// The court portals have no structured error API; state is signaled
// by free text on the page. The keyword tables below are the entire
// classification boundary and are deliberately fuzzy. Keep them
// small, lowercase, and covered by tests.
var defaultCaptchaKeywords = []string{
	"captcha",
	"invalid",
	"incorrect",
}

var defaultNoRecordKeywords = []string{
	"no record",
	"no records",
	"not found",
	"no data available",
}

// Classifier maps post-submit page error text to an ErrorKind.
// Site adapters may extend the captcha keyword table for portals
// with unusual wording.
type Classifier struct {
	captchaKeywords  []string
	noRecordKeywords []string
}

// NewClassifier builds a classifier with the default keyword tables
// plus any site-specific captcha keywords.
func NewClassifier(extraCaptchaKeywords ...string) *Classifier {
	c := &Classifier{
		captchaKeywords:  append([]string{}, defaultCaptchaKeywords...),
		noRecordKeywords: append([]string{}, defaultNoRecordKeywords...),
	}
	for _, kw := range extraCaptchaKeywords {
		c.captchaKeywords = append(c.captchaKeywords, strings.ToLower(kw))
	}
	return c
}

// Classify decides whether page error text means the CAPTCHA answer
// was wrong (retryable) or the site reported something else
// (terminal). Empty text classifies as none.
func (c *Classifier) Classify(text string) ErrorKind {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ErrorNone
	}
	lower := strings.ToLower(trimmed)
	for _, kw := range c.captchaKeywords {
		if strings.Contains(lower, kw) {
			return ErrorWrongAnswer
		}
	}
	return ErrorSiteError
}

// IsNoRecords reports whether error text is the site saying the
// search matched nothing. Callers use it to distinguish "nothing to
// scrape" from a genuine site failure.
func (c *Classifier) IsNoRecords(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range c.noRecordKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
