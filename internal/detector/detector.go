// Package detector guesses the language of column contents, so a mislabeled
// source column (title.en-US holding French) is caught before any of it is
// sent for translation.
package detector

import (
	"strings"

	lingua "github.com/pemistahl/lingua-go"
	"golang.org/x/text/language"
)

// sampleRunes caps the text handed to the detector per column.
const sampleRunes = 2000

// minSampleRunes is the shortest sample worth detecting; shorter ones are
// reported as undetermined.
const minSampleRunes = 20

// Detector wraps a lingua detector. Building one loads language models, so
// an instance should be reused.
type Detector struct {
	detector lingua.LanguageDetector
}

func New() *Detector {
	detector := lingua.NewLanguageDetectorBuilder().
		FromAllLanguages().
		Build()

	return &Detector{detector: detector}
}

func (d *Detector) Detect(text string) (lingua.Language, bool) {
	if strings.TrimSpace(text) == "" {
		return lingua.Unknown, false
	}
	return d.detector.DetectLanguageOf(text)
}

// DetectISO returns the upper-case ISO 639-1 code of text's language.
func (d *Detector) DetectISO(text string) (string, bool) {
	lang, ok := d.Detect(text)
	if !ok {
		return "", false
	}
	return lang.IsoCode639_1().String(), true
}

// Result is the outcome of checking a column sample against its tag.
type Result struct {
	// Detected is the ISO 639-1 code found, empty when undetermined.
	Detected string
	// Expected is the ISO 639-1 base of the column's tag.
	Expected string
	// Match is false only when a language was detected and it differs.
	Match bool
}

// CheckColumn detects the language of the non-blank values and compares it
// with the base language of tag (BCP 47).
func (d *Detector) CheckColumn(values []string, tag string) Result {
	res := Result{Expected: strings.ToUpper(baseLanguage(tag)), Match: true}

	sample := Sample(values, sampleRunes)
	if len([]rune(sample)) < minSampleRunes {
		return res
	}
	code, ok := d.DetectISO(sample)
	if !ok {
		return res
	}
	res.Detected = code
	res.Match = res.Expected == "" || strings.EqualFold(code, res.Expected)
	return res
}

// Sample joins distinct non-blank values, one per line, up to limit runes.
func Sample(values []string, limit int) string {
	var b strings.Builder
	seen := make(map[string]bool)
	n := 0
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		r := []rune(v)
		if n+len(r) > limit {
			r = r[:limit-n]
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(r))
		n += len(r)
		if n >= limit {
			break
		}
	}
	return b.String()
}

func baseLanguage(tag string) string {
	t, err := language.Parse(tag)
	if err != nil {
		base, _, _ := strings.Cut(tag, "-")
		return base
	}
	base, _ := t.Base()
	return base.String()
}
