package normalize

import (
	"testing"
	"time"
)

func TestDecomposeCaseDetails(t *testing.T) {
	tests := []struct {
		name       string
		details    string
		wantType   string
		wantNumber string
		wantYear   string
	}{
		{"slash form", "CA/123/2020", "CA", "123", "2020"},
		{"space form", "CRL.A 99/2018", "CRL.A", "99", "2018"},
		{"dash form", "WP-441/2022", "WP", "441", "2022"},
		{"slash form with spaces", "S.L.P. / 1042 / 2019", "S.L.P.", "1042", "2019"},
		{"trailing text ignored", "CA/123/2020 (stamp)", "CA", "123", "2020"},
		{"year-only fallback", "Registered in 2017 misc", "", "", "2017"},
		{"nothing usable", "pending listing", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caseType, caseNumber, caseYear := DecomposeCaseDetails(tt.details)
			if caseType != tt.wantType || caseNumber != tt.wantNumber || caseYear != tt.wantYear {
				t.Errorf("DecomposeCaseDetails(%q) = (%q, %q, %q), want (%q, %q, %q)",
					tt.details, caseType, caseNumber, caseYear,
					tt.wantType, tt.wantNumber, tt.wantYear)
			}
		})
	}
}

func TestDecomposePatternOrder(t *testing.T) {
	// "CA/123/2020" also contains a bare year; the structured pattern
	// must win over the lossy fallback.
	caseType, _, _ := DecomposeCaseDetails("CA/123/2020")
	if caseType == "" {
		t.Error("Structured pattern should win over the bare-year fallback")
	}
}

func TestParseCourtDate(t *testing.T) {
	want := time.Date(2021, 3, 15, 0, 0, 0, 0, time.UTC)

	tests := []string{
		"15-03-2021",
		"15/03/2021",
		"15.03.2021",
		"15-Mar-2021",
		"15 Mar 2021",
		"15 March 2021",
		"2021-03-15",
		"Monday, 15-03-2021",
	}

	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			got, err := ParseCourtDate(in)
			if err != nil {
				t.Fatalf("ParseCourtDate(%q) failed: %v", in, err)
			}
			if !got.Equal(want) {
				t.Errorf("ParseCourtDate(%q) = %v, want %v", in, got, want)
			}
		})
	}

	if _, err := ParseCourtDate("not a date"); err == nil {
		t.Error("Expected an error for unparseable input")
	}
}
