package detector

import (
	"strings"
	"testing"
)

// one detector for the package; building it loads every language model
var shared = New()

func TestDetector_DetectISO(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantCode string
		wantOK   bool
	}{
		{
			name:   "empty text",
			text:   "",
			wantOK: false,
		},
		{
			name:   "blank text",
			text:   "   ",
			wantOK: false,
		},
		{
			name:     "english text",
			text:     "Hello, this is a test in English.",
			wantCode: "EN",
			wantOK:   true,
		},
		{
			name:     "ukrainian text",
			text:     "Привіт, це тест українською мовою.",
			wantCode: "UK",
			wantOK:   true,
		},
		{
			name:     "german text",
			text:     "Hallo, das ist ein Test auf Deutsch.",
			wantCode: "DE",
			wantOK:   true,
		},
		{
			name:     "french text",
			text:     "Bonjour, ceci est un test en français.",
			wantCode: "FR",
			wantOK:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, ok := shared.DetectISO(tt.text)
			if ok != tt.wantOK {
				t.Errorf("DetectISO(%q) ok = %v, want %v", tt.text, ok, tt.wantOK)
				return
			}
			if tt.wantOK && code != tt.wantCode {
				t.Errorf("DetectISO(%q) = %q, want %q", tt.text, code, tt.wantCode)
			}
		})
	}
}

func TestDetector_CheckColumn(t *testing.T) {
	english := []string{
		"Comfortable wooden chair for the kitchen",
		"",
		"A sturdy table that seats six people",
		"Comfortable wooden chair for the kitchen",
	}
	french := []string{
		"Chaise en bois confortable pour la cuisine",
		"Une table solide qui accueille six personnes",
	}

	res := shared.CheckColumn(english, "en-US")
	if !res.Match || res.Detected != "EN" || res.Expected != "EN" {
		t.Errorf("CheckColumn(english, en-US) = %+v", res)
	}

	res = shared.CheckColumn(french, "en-US")
	if res.Match {
		t.Errorf("CheckColumn(french, en-US) = %+v, want mismatch", res)
	}
	if res.Detected != "FR" {
		t.Errorf("Detected = %q, want FR", res.Detected)
	}
}

func TestDetector_CheckColumnShortSample(t *testing.T) {
	res := shared.CheckColumn([]string{"Hi", "", "Ok"}, "fr-FR")
	if !res.Match || res.Detected != "" {
		t.Errorf("short sample should be undetermined, got %+v", res)
	}
	if res.Expected != "FR" {
		t.Errorf("Expected = %q, want FR", res.Expected)
	}
}

func TestSample(t *testing.T) {
	got := Sample([]string{"a", " a ", "", "b", "c"}, 100)
	if got != "a\nb\nc" {
		t.Errorf("Sample = %q", got)
	}

	got = Sample([]string{strings.Repeat("x", 10), strings.Repeat("y", 10)}, 15)
	if got != strings.Repeat("x", 10)+"\n"+strings.Repeat("y", 5) {
		t.Errorf("Sample with limit = %q", got)
	}
}

func TestBaseLanguage(t *testing.T) {
	tests := map[string]string{
		"en-US":   "en",
		"fr-CA":   "fr",
		"de":      "de",
		"zh-Hant": "zh",
	}
	for tag, want := range tests {
		if got := baseLanguage(tag); got != want {
			t.Errorf("baseLanguage(%q) = %q, want %q", tag, got, want)
		}
	}
}
