package captcha

import "testing"

func TestClassify(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		name string
		text string
		want ErrorKind
	}{
		{"empty text", "", ErrorNone},
		{"whitespace only", "   ", ErrorNone},
		{"invalid captcha", "Invalid Captcha", ErrorWrongAnswer},
		{"wrong captcha", "Wrong Captcha entered", ErrorWrongAnswer},
		{"incorrect code", "Incorrect code, please retry", ErrorWrongAnswer},
		{"bare captcha mention", "captcha verification failed", ErrorWrongAnswer},
		{"no records", "No records found for the given criteria", ErrorSiteError},
		{"server error", "Internal server error, try later", ErrorSiteError},
		{"maintenance", "Site under maintenance", ErrorSiteError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Classify(tt.text); got != tt.want {
				t.Errorf("Classify(%q) = %s, want %s", tt.text, got, tt.want)
			}
		})
	}
}

func TestClassifyWithSiteKeywords(t *testing.T) {
	// The district portal says "enter correct captcha" with none of
	// the default keywords in it.
	c := NewClassifier("correct captcha")

	if got := c.Classify("Please enter correct captcha"); got != ErrorWrongAnswer {
		t.Errorf("Expected extended keyword to classify as wrong answer, got %s", got)
	}
	if got := NewClassifier().Classify("Please enter correct captcha"); got != ErrorSiteError {
		t.Errorf("Default classifier should treat unknown wording as site error, got %s", got)
	}
}

func TestIsNoRecords(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		text string
		want bool
	}{
		{"No records found for the given criteria", true},
		{"No Record Found", true},
		{"Case not found", true},
		{"No data available", true},
		{"Internal server error", false},
		{"Invalid Captcha", false},
	}

	for _, tt := range tests {
		if got := c.IsNoRecords(tt.text); got != tt.want {
			t.Errorf("IsNoRecords(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
