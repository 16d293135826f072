// Package normalize converts raw table rows extracted from court
// portal result pages into canonical case records. The portals render
// wildly inconsistent tables; everything here is policy over strings,
// with no network or storage side effects.
package normalize

import (
	"strings"
	"time"

	"github.com/rahul-omni/court-scraper/internal/database"
)

// RawRow is one extracted table row keyed by canonical cell names.
// Site adapters map their column layout onto these keys.
type RawRow map[string]string

// Canonical RawRow keys.
const (
	KeySerial      = "serial"
	KeyDiary       = "diary"
	KeyCase        = "case"
	KeyParty       = "party"
	KeyPetitioner  = "petitioner"
	KeyRespondent  = "respondent"
	KeyAdvocate    = "advocate"
	KeyBench       = "bench"
	KeyJudgmentBy  = "judgment_by"
	KeyDate        = "date"
	KeyOrderType   = "order_type"
	KeyDocumentURL = "document_url"
)

// RowContext carries the provenance a row cannot know about itself.
type RowContext struct {
	Court             string
	District          string
	EstablishmentCode string
	ScrapedAt         time.Time
}

// Record is the normalized output: a partially populated case plus an
// optional order entry discovered on the same row. Empty fields
// reflect source-data sparsity, not an error.
type Record struct {
	Case  database.Case
	Order *database.Order
}

// RejectError explains why a row was refused.
type RejectError struct {
	Reason string
}

func (e *RejectError) Error() string {
	return "malformed row: " + e.Reason
}

// Header-echo tokens. Portals frequently repeat the header row inside
// the body, with the serial cell reading "Serial Number" or "S.No.".
var headerTokens = []string{"serial", "s.no", "sr."}

// Normalize validates one raw row and produces a canonical record, or
// a *RejectError describing why the row is unusable.
func Normalize(row RawRow, rc RowContext) (*Record, error) {
	primary := firstNonEmpty(row, KeyDiary, KeySerial, KeyCase)
	if primary == "" {
		return nil, &RejectError{Reason: "primary identifier cell is empty"}
	}
	if isHeaderEcho(primary) {
		return nil, &RejectError{Reason: "primary identifier cell is a header echo"}
	}

	petitioner, respondent := parties(row)
	caseDetails := strings.TrimSpace(row[KeyCase])
	if petitioner == "" && respondent == "" && caseDetails == "" {
		return nil, &RejectError{Reason: "no party or case details text"}
	}

	rec := &Record{
		Case: database.Case{
			DiaryNumber: strings.TrimSpace(row[KeyDiary]),
			Court:       rc.Court,
			District:    rc.District,
			Petitioner:  petitioner,
			Respondent:  respondent,
			Advocates:   strings.TrimSpace(row[KeyAdvocate]),
			Bench:       strings.TrimSpace(row[KeyBench]),
			JudgmentBy:  strings.TrimSpace(row[KeyJudgmentBy]),
			ScrapedAt:   rc.ScrapedAt,
		},
	}

	if caseDetails != "" {
		caseType, caseNumber, caseYear := DecomposeCaseDetails(caseDetails)
		rec.Case.CaseType = caseType
		rec.Case.CaseNumber = caseNumber
		rec.Case.CaseYear = caseYear
	}

	// The district portals omit a separate diary column; the filing
	// identifier there is the number/year pair out of the case cell.
	if rec.Case.DiaryNumber == "" && rec.Case.CaseNumber != "" && rec.Case.CaseYear != "" {
		rec.Case.DiaryNumber = rec.Case.CaseNumber + "/" + rec.Case.CaseYear
	}

	if order := buildOrder(row); order != nil {
		rec.Order = order
		rec.Case.Orders = []database.Order{*order}
	}

	return rec, nil
}

// buildOrder assembles an order entry when the row carries a document
// link or a dated order reference.
func buildOrder(row RawRow) *database.Order {
	docURL := strings.TrimSpace(row[KeyDocumentURL])
	orderType := strings.TrimSpace(row[KeyOrderType])
	dateStr := strings.TrimSpace(row[KeyDate])

	if docURL == "" && (orderType == "" || dateStr == "") {
		return nil
	}

	order := &database.Order{
		OrderType: orderType,
		SourceURL: docURL,
	}
	if dateStr != "" {
		if d, err := ParseCourtDate(dateStr); err == nil {
			order.JudgmentDate = d
		}
	}
	return order
}

// parties resolves petitioner/respondent from either dedicated cells
// or a combined "X Vs Y" party cell. The separator is the literal
// " Vs " the portals print; splitting case-insensitively would break
// names containing "vs".
func parties(row RawRow) (string, string) {
	petitioner := strings.TrimSpace(row[KeyPetitioner])
	respondent := strings.TrimSpace(row[KeyRespondent])
	if petitioner != "" || respondent != "" {
		return petitioner, respondent
	}

	combined := strings.TrimSpace(row[KeyParty])
	if combined == "" {
		return "", ""
	}
	if idx := strings.Index(combined, " Vs "); idx >= 0 {
		return strings.TrimSpace(combined[:idx]), strings.TrimSpace(combined[idx+4:])
	}
	return combined, ""
}

func isHeaderEcho(cell string) bool {
	lower := strings.ToLower(cell)
	for _, token := range headerTokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

func firstNonEmpty(row RawRow, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(row[k]); v != "" {
			return v
		}
	}
	return ""
}
