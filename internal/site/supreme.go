package site

import (
	"context"
	"fmt"

	"github.com/rahul-omni/court-scraper/internal/driver"
	"github.com/rahul-omni/court-scraper/internal/normalize"
)

// SupremeCourtJudgments scrapes the Supreme Court judgments-by-date
// listing.
type SupremeCourtJudgments struct {
	BaseURL string
}

func NewSupremeCourtJudgments(baseURL string) *SupremeCourtJudgments {
	if baseURL == "" {
		baseURL = "https://www.sci.gov.in"
	}
	return &SupremeCourtJudgments{BaseURL: baseURL}
}

func (a *SupremeCourtJudgments) Name() string     { return "supreme-court-judgments" }
func (a *SupremeCourtJudgments) Court() string    { return "Supreme Court of India" }
func (a *SupremeCourtJudgments) District() string { return "New Delhi" }

func (a *SupremeCourtJudgments) Selectors() driver.Selectors {
	return driver.Selectors{
		CaptchaImage:   "img#siwp_captcha_image_0",
		CaptchaInput:   "input#siwp_captcha_value_0",
		CaptchaRefresh: "a.siwp_captcha_refresh",
		SubmitButton:   "input[type='submit']",
		ErrorIndicators: []string{
			"div.notfound",
			"span.error",
		},
		ResultsTable: "table",
	}
}

func (a *SupremeCourtJudgments) AnswerWindow() (int, int) { return 6, 6 }

func (a *SupremeCourtJudgments) ExtraErrorKeywords() []string { return nil }

func (a *SupremeCourtJudgments) ValidateParams(params SearchParams) error {
	if params.ListingDate == "" {
		return fmt.Errorf("listing date is required")
	}
	return nil
}

func (a *SupremeCourtJudgments) Search(ctx context.Context, b driver.Browser, params SearchParams) error {
	if err := b.Navigate(ctx, a.BaseURL+"/judgements-date-wise/"); err != nil {
		return err
	}
	if err := b.Fill(ctx, "#from_date", params.ListingDate); err != nil {
		return err
	}
	return b.Fill(ctx, "#to_date", params.ListingDate)
}

func (a *SupremeCourtJudgments) ExtractRows(html string) ([]normalize.RawRow, error) {
	return extractRows(html, tableSpec{
		tableSelector: "table",
		headerToKey: map[string]string{
			"serial":     normalize.KeySerial,
			"s.no":       normalize.KeySerial,
			"diary":      normalize.KeyDiary,
			"case":       normalize.KeyCase,
			"petitioner": normalize.KeyPetitioner,
			"respondent": normalize.KeyRespondent,
			"date":       normalize.KeyDate,
			"judge":      normalize.KeyJudgmentBy,
			"order":      normalize.KeyOrderType,
		},
		positional: []string{
			normalize.KeySerial,
			normalize.KeyDiary,
			normalize.KeyCase,
			normalize.KeyParty,
			normalize.KeyDate,
		},
		linkKey: normalize.KeyDocumentURL,
		baseURL: a.BaseURL,
	})
}
