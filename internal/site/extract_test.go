package site

import (
	"testing"

	"github.com/rahul-omni/court-scraper/internal/normalize"
)

func TestExtractRowsHeaderMapped(t *testing.T) {
	html := `
		<table id="results">
			<tr><th>S.No</th><th>Diary Number</th><th>Party Name</th><th>Order Date</th></tr>
			<tr>
				<td>1</td><td>1234/2021</td><td>Ram Kumar Vs State</td>
				<td><a href="/orders/1234.pdf">15-03-2021</a></td>
			</tr>
			<tr>
				<td>2</td><td>5678/2021</td><td>Shyam Vs State</td><td></td>
			</tr>
		</table>`

	spec := tableSpec{
		tableSelector: "#results",
		headerToKey: map[string]string{
			"s.no":  normalize.KeySerial,
			"diary": normalize.KeyDiary,
			"party": normalize.KeyParty,
			"date":  normalize.KeyDate,
		},
		linkKey: normalize.KeyDocumentURL,
		baseURL: "https://court.gov.in/search",
	}

	rows, err := extractRows(html, spec)
	if err != nil {
		t.Fatalf("extractRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}

	first := rows[0]
	if first[normalize.KeyDiary] != "1234/2021" {
		t.Errorf("Diary = %q", first[normalize.KeyDiary])
	}
	if first[normalize.KeyParty] != "Ram Kumar Vs State" {
		t.Errorf("Party = %q", first[normalize.KeyParty])
	}
	if got := first[normalize.KeyDocumentURL]; got != "https://court.gov.in/orders/1234.pdf" {
		t.Errorf("Document URL = %q", got)
	}
	if rows[1][normalize.KeyDocumentURL] != "" {
		t.Errorf("Second row should have no document URL, got %q", rows[1][normalize.KeyDocumentURL])
	}
}

func TestExtractRowsPositionalFallback(t *testing.T) {
	html := `
		<table>
			<tr><td>1</td><td>CA/123/2020</td><td>Ram Vs Shyam</td></tr>
			<tr><td>2</td><td>WP(C)/45/2019</td><td>Sita Vs State</td></tr>
		</table>`

	spec := tableSpec{
		tableSelector: "#missing",
		positional:    []string{normalize.KeySerial, normalize.KeyCase, normalize.KeyParty},
	}

	rows, err := extractRows(html, spec)
	if err != nil {
		t.Fatalf("extractRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}
	if rows[0][normalize.KeyCase] != "CA/123/2020" {
		t.Errorf("Case = %q", rows[0][normalize.KeyCase])
	}
	if rows[1][normalize.KeyParty] != "Sita Vs State" {
		t.Errorf("Party = %q", rows[1][normalize.KeyParty])
	}
}

func TestExtractRowsUnknownHeadersDropped(t *testing.T) {
	html := `
		<table>
			<tr><th>Diary Number</th><th>Remarks</th></tr>
			<tr><td>1234/2021</td><td>listed</td></tr>
		</table>`

	spec := tableSpec{
		headerToKey: map[string]string{"diary": normalize.KeyDiary},
	}

	rows, err := extractRows(html, spec)
	if err != nil {
		t.Fatalf("extractRows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(rows))
	}
	if len(rows[0]) != 1 {
		t.Errorf("Expected only the diary cell, got %v", rows[0])
	}
}

func TestExtractRowsNoTable(t *testing.T) {
	rows, err := extractRows("<html><body><p>Nothing here</p></body></html>", tableSpec{})
	if err != nil {
		t.Fatalf("extractRows: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("Expected no rows, got %d", len(rows))
	}
}

func TestResolveURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		href string
		want string
	}{
		{"absolute kept", "https://court.gov.in/search", "https://cdn.court.gov.in/o.pdf", "https://cdn.court.gov.in/o.pdf"},
		{"root relative", "https://court.gov.in/search/results", "/orders/o.pdf", "https://court.gov.in/orders/o.pdf"},
		{"path relative", "https://court.gov.in/search/", "o.pdf", "https://court.gov.in/search/o.pdf"},
		{"empty", "https://court.gov.in", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveURL(tt.base, tt.href); got != tt.want {
				t.Errorf("resolveURL(%q, %q) = %q, want %q", tt.base, tt.href, got, tt.want)
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry(
		NewDelhiHighCourt("https://dhcmisc.nic.in"),
		NewDistrictCauseList("https://services.ecourts.gov.in", "New Delhi", "DLND01"),
		NewSupremeCourtJudgments("https://scourts.gov.in"),
	)

	adapter, err := reg.Get("delhi-high-court")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if adapter.Court() == "" {
		t.Error("Adapter has no court name")
	}
	if min, max := adapter.AnswerWindow(); min <= 0 || max < min {
		t.Errorf("Bad answer window (%d, %d)", min, max)
	}

	if _, err := reg.Get("unknown-site"); err == nil {
		t.Error("Expected an error for an unknown site")
	}
	if names := reg.Names(); len(names) != 3 {
		t.Errorf("Names() = %v", names)
	}
}
