// Package site holds the thin per-portal adapters: URLs, selectors,
// and column mappings. All reusable logic (solving, normalization,
// reconciliation) lives elsewhere and is shared across adapters.
package site

import (
	"context"
	"fmt"
	"sort"

	"github.com/rahul-omni/court-scraper/internal/driver"
	"github.com/rahul-omni/court-scraper/internal/normalize"
)

// SearchParams are the user-supplied query inputs. Which fields a
// given adapter requires is adapter policy.
type SearchParams struct {
	CaseType    string `json:"case_type" form:"case_type"`
	CaseNumber  string `json:"case_number" form:"case_number"`
	FilingYear  string `json:"filing_year" form:"filing_year"`
	ListingDate string `json:"listing_date" form:"listing_date"`
}

// Adapter is one court portal. Implementations carry configuration
// only; navigation runs through the shared driver and extraction
// through the shared table walker.
type Adapter interface {
	Name() string
	Court() string
	District() string
	Selectors() driver.Selectors
	// AnswerWindow is the accepted CAPTCHA answer length range for
	// this portal.
	AnswerWindow() (min, max int)
	// ExtraErrorKeywords extends the classifier's wrong-answer table
	// for portals with unusual wording.
	ExtraErrorKeywords() []string
	ValidateParams(params SearchParams) error
	// Search navigates to the search form and fills it, leaving the
	// page at the CAPTCHA-guarded submit step.
	Search(ctx context.Context, b driver.Browser, params SearchParams) error
	// ExtractRows walks the post-submit result HTML into raw rows.
	ExtractRows(html string) ([]normalize.RawRow, error)
}

// Registry resolves adapters by name.
type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Name()] = a
	}
	return r
}

func (r *Registry) Get(name string) (Adapter, error) {
	a, ok := r.adapters[name]
	if !ok {
		return nil, fmt.Errorf("unknown site adapter: %s", name)
	}
	return a, nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
