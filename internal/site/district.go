package site

import (
	"context"
	"fmt"

	"github.com/rahul-omni/court-scraper/internal/driver"
	"github.com/rahul-omni/court-scraper/internal/normalize"
)

// DistrictCauseList scrapes an ecourts district cause list for a
// given listing date.
type DistrictCauseList struct {
	BaseURL           string
	DistrictName      string
	EstablishmentCode string
}

func NewDistrictCauseList(baseURL, district, establishmentCode string) *DistrictCauseList {
	if baseURL == "" {
		baseURL = "https://districts.ecourts.gov.in/delhi"
	}
	if district == "" {
		district = "Delhi"
	}
	return &DistrictCauseList{
		BaseURL:           baseURL,
		DistrictName:      district,
		EstablishmentCode: establishmentCode,
	}
}

func (a *DistrictCauseList) Name() string     { return "district-causelist" }
func (a *DistrictCauseList) Court() string    { return "District Court " + a.DistrictName }
func (a *DistrictCauseList) District() string { return a.DistrictName }

func (a *DistrictCauseList) Selectors() driver.Selectors {
	return driver.Selectors{
		CaptchaImage:   "img#captcha_image",
		CaptchaInput:   "input#captcha",
		CaptchaRefresh: "a#refresh_captcha",
		SubmitButton:   "input[type='submit'], button#submit",
		ErrorIndicators: []string{
			"div.error",
			"span.error",
			"div#errSpan",
		},
		ResultsTable: "table#dispTable",
	}
}

// The district portals use 5-character CAPTCHAs.
func (a *DistrictCauseList) AnswerWindow() (int, int) { return 5, 5 }

func (a *DistrictCauseList) ExtraErrorKeywords() []string {
	// This portal says "enter correct captcha" without the word
	// "invalid" or "incorrect".
	return []string{"correct captcha"}
}

func (a *DistrictCauseList) ValidateParams(params SearchParams) error {
	if params.ListingDate == "" {
		return fmt.Errorf("listing date is required")
	}
	return nil
}

func (a *DistrictCauseList) Search(ctx context.Context, b driver.Browser, params SearchParams) error {
	if err := b.Navigate(ctx, a.BaseURL+"/cause-list"); err != nil {
		return err
	}
	if a.EstablishmentCode != "" {
		if err := b.SelectOption(ctx, "#est_code", a.EstablishmentCode); err != nil {
			return err
		}
	}
	return b.Fill(ctx, "#causelist_date", params.ListingDate)
}

func (a *DistrictCauseList) ExtractRows(html string) ([]normalize.RawRow, error) {
	return extractRows(html, tableSpec{
		tableSelector: "table#dispTable",
		headerToKey: map[string]string{
			"sr.":      normalize.KeySerial,
			"s.no":     normalize.KeySerial,
			"case":     normalize.KeyCase,
			"party":    normalize.KeyParty,
			"advocate": normalize.KeyAdvocate,
			"court":    normalize.KeyBench,
			"purpose":  normalize.KeyOrderType,
			"date":     normalize.KeyDate,
		},
		positional: []string{
			normalize.KeySerial,
			normalize.KeyCase,
			normalize.KeyParty,
			normalize.KeyAdvocate,
		},
		linkKey: normalize.KeyDocumentURL,
		baseURL: a.BaseURL,
	})
}
