// Package captcha resolves image CAPTCHA challenges against an
// external vision oracle, with a bounded-retry protocol that tells
// "wrong answer, try again" apart from "the site has nothing for us".
package captcha

import (
	"context"
	"errors"
	"time"
)

// ErrorKind classifies what the target page reported after a submit.
type ErrorKind int

const (
	ErrorNone ErrorKind = iota
	ErrorWrongAnswer
	ErrorSiteError
	ErrorOracleFailure
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorNone:
		return "none"
	case ErrorWrongAnswer:
		return "wrong_answer"
	case ErrorSiteError:
		return "site_error"
	case ErrorOracleFailure:
		return "oracle_failure"
	default:
		return "unknown"
	}
}

// PageState is the post-submit view of the target page, supplied by
// the browser driver.
type PageState interface {
	HasErrorIndicator() bool
	ErrorText() string
}

// Challenge is one CAPTCHA-guarded form submission cycle, supplied by
// the browser driver. Refresh is best-effort; drivers for sites
// without a refresh control may return nil without doing anything.
type Challenge interface {
	CaptureImage(ctx context.Context) ([]byte, error)
	SubmitAnswer(ctx context.Context, answer string) (PageState, error)
	Refresh(ctx context.Context) error
}

// Oracle turns a CAPTCHA image into a candidate answer string. It
// does not retry; retries are the Solver's responsibility.
type Oracle interface {
	Solve(ctx context.Context, image []byte) (string, error)
}

// Policy bounds a solve run. The answer length window is per-site:
// most ecourts portals use exactly 5 or exactly 6 characters.
type Policy struct {
	MaxAttempts  int
	AttemptDelay time.Duration
	MinAnswerLen int
	MaxAnswerLen int
}

// Result reports a successful solve.
type Result struct {
	Answer   string
	Attempts int
}

// ErrExhausted is returned when the attempt budget is consumed
// without the site accepting an answer.
var ErrExhausted = errors.New("captcha attempt budget exhausted")

// ErrOracleUnavailable is returned by oracle clients on transport or
// protocol failure.
var ErrOracleUnavailable = errors.New("captcha oracle unavailable")

// SiteError carries a non-CAPTCHA error reported by the target site.
// It aborts the solve immediately; retrying a CAPTCHA will not fix a
// site that says it has no records.
type SiteError struct {
	Text string
}

func (e *SiteError) Error() string {
	return "site error: " + e.Text
}

// Sanitize strips everything but ASCII letters and digits from an
// oracle answer. The portals' CAPTCHAs are plain alphanumerics; any
// other character is oracle noise.
func Sanitize(raw string) string {
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			out = append(out, c)
		}
	}
	return string(out)
}
