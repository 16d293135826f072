// Package driver wraps browser automation behind the contracts the
// pipeline and challenge solver consume. All rod mechanics live here;
// site adapters supply only selectors and field mappings.
package driver

import (
	"context"

	"github.com/rahul-omni/court-scraper/internal/captcha"
)

// Selectors is the per-site DOM configuration a rod session needs.
type Selectors struct {
	CaptchaImage    string
	CaptchaInput    string
	CaptchaRefresh  string
	SubmitButton    string
	ErrorIndicators []string
	ResultsTable    string
}

// Browser is a navigable page session. Search flows call Navigate and
// the form helpers; the challenge solver drives the captcha.Challenge
// side; extraction reads ResultHTML after acceptance.
type Browser interface {
	captcha.Challenge

	Navigate(ctx context.Context, url string) error
	Fill(ctx context.Context, selector, value string) error
	SelectOption(ctx context.Context, selector, value string) error
	ResultHTML(ctx context.Context) (string, error)
	Close() error
}

// pageState is the post-submit page view handed to the solver.
type pageState struct {
	errText string
}

func (p *pageState) HasErrorIndicator() bool {
	return p.errText != ""
}

func (p *pageState) ErrorText() string {
	return p.errText
}
