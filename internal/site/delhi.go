package site

import (
	"context"
	"fmt"

	"github.com/rahul-omni/court-scraper/internal/driver"
	"github.com/rahul-omni/court-scraper/internal/normalize"
)

// DelhiHighCourt scrapes the Delhi High Court case-status search.
type DelhiHighCourt struct {
	BaseURL string
}

func NewDelhiHighCourt(baseURL string) *DelhiHighCourt {
	if baseURL == "" {
		baseURL = "https://delhihighcourt.nic.in"
	}
	return &DelhiHighCourt{BaseURL: baseURL}
}

func (a *DelhiHighCourt) Name() string     { return "delhi-high-court" }
func (a *DelhiHighCourt) Court() string    { return "Delhi High Court" }
func (a *DelhiHighCourt) District() string { return "New Delhi" }

func (a *DelhiHighCourt) Selectors() driver.Selectors {
	return driver.Selectors{
		CaptchaImage:   "img#captcha-code, img[id*='captcha'], img[src*='captcha']",
		CaptchaInput:   "input#captchaInput, input[name='captcha']",
		CaptchaRefresh: "a[onclick*='captcha'], img[onclick*='captcha']",
		SubmitButton:   "#search, button[type='submit']",
		ErrorIndicators: []string{
			"div.alert-danger",
			"span.error-message",
			"div#errormsg",
		},
		ResultsTable: "table.table",
	}
}

func (a *DelhiHighCourt) AnswerWindow() (int, int) { return 6, 6 }

func (a *DelhiHighCourt) ExtraErrorKeywords() []string { return nil }

func (a *DelhiHighCourt) ValidateParams(params SearchParams) error {
	if params.CaseType == "" {
		return fmt.Errorf("case type is required")
	}
	if params.CaseNumber == "" {
		return fmt.Errorf("case number is required")
	}
	if params.FilingYear == "" {
		return fmt.Errorf("filing year is required")
	}
	return nil
}

func (a *DelhiHighCourt) Search(ctx context.Context, b driver.Browser, params SearchParams) error {
	if err := b.Navigate(ctx, a.BaseURL+"/app/get-case-type-status"); err != nil {
		return err
	}
	if err := b.SelectOption(ctx, "#case_type", params.CaseType); err != nil {
		return err
	}
	if err := b.Fill(ctx, "#case_number", params.CaseNumber); err != nil {
		return err
	}
	return b.SelectOption(ctx, "#case_year", params.FilingYear)
}

func (a *DelhiHighCourt) ExtractRows(html string) ([]normalize.RawRow, error) {
	return extractRows(html, tableSpec{
		tableSelector: "table.table",
		headerToKey: map[string]string{
			"s.no":    normalize.KeySerial,
			"serial":  normalize.KeySerial,
			"diary":   normalize.KeyDiary,
			"case":    normalize.KeyCase,
			"party":   normalize.KeyParty,
			"petitioner": normalize.KeyPetitioner,
			"respondent": normalize.KeyRespondent,
			"advocate": normalize.KeyAdvocate,
			"date":    normalize.KeyDate,
			"coram":   normalize.KeyBench,
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
