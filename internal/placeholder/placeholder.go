// Package placeholder protects content that must survive translation verbatim
// (template markers, embedded JSON, HTML tags and entities, URLs, emails,
// numbers and product codes) by replacing each span with an opaque token of
// the form [[PH:n]] that LLMs are instructed to preserve. After translation,
// Restore substitutes the tokens back.
//
// Embedded JSON objects are handled specially: their string keys and/or
// values become translation units of their own, and the object is
// re-serialised from the translated leaves before restoration.
package placeholder

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// maxDepth bounds recursion into JSON embedded in JSON strings.
const maxDepth = 8

var (
	// placeholder token, as produced by Protect
	reToken = regexp.MustCompile(`\[\[PH:(\d+)\]\]`)

	// template markers: {{ ... }}, never translated or altered
	reTemplate = regexp.MustCompile(`(?s)\{\{.*?\}\}`)

	// HTML/XML comments and tags: opening, closing, and self-closing
	reComment = regexp.MustCompile(`(?s)<!--.*?-->`)
	reHTMLTag = regexp.MustCompile(`</?[A-Za-z][A-Za-z0-9:_-]*(?:\s[^<>]*)?/?>`)

	// character entities: &amp; &#39; &#x2014;
	reEntity = regexp.MustCompile(`&(?:[A-Za-z][A-Za-z0-9]*|#[0-9]+|#[xX][0-9A-Fa-f]+);`)

	reURL   = regexp.MustCompile(`(?i)\b(?:https?|ftp)://[^\s<>"'\[\]]+|\bwww\.[^\s<>"'\[\]]+`)
	reEmail = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9-]+(?:\.[A-Za-z0-9-]+)+`)

	// numbers and codes: 42, 1,000.50, 3:30, A4, SKU123, v2.0-rc1
	reCode = regexp.MustCompile(`\b[A-Za-z]*\d[A-Za-z0-9]*(?:[-_./:,]\d[A-Za-z0-9]*)*\b`)
)

var (
	// ErrUnitCount is returned by Restore when the number of translations does
	// not match the number of units.
	ErrUnitCount = errors.New("translation count does not match unit count")
	// ErrTokenLost is returned when a translation dropped a placeholder.
	ErrTokenLost = errors.New("placeholder lost in translation")
	// ErrTokenLeaked is returned when unknown placeholders remain after
	// restoration.
	ErrTokenLeaked = errors.New("unknown placeholder in translation")
)

// Map holds token → original span.
type Map map[string]string

// JSONOptions selects which parts of embedded JSON objects are translated.
type JSONOptions struct {
	Keys   bool `yaml:"translate_keys" mapstructure:"translate_keys"`
	Values bool `yaml:"translate_values" mapstructure:"translate_values"`
}

// DefaultJSONOptions applies to columns without explicit options: string
// values are translated, keys are left alone.
var DefaultJSONOptions = JSONOptions{Values: true}

// Protected is the result of Protect.
type Protected struct {
	// Text is the input with every protected span replaced by a token.
	Text string
	// Map resolves the tokens of Text (and of the JSON leaves) back.
	Map Map

	main     bool
	leaves   []*slot
	docs     []*document
	existing map[string]bool
}

// document is an embedded JSON object awaiting re-serialisation.
type document struct {
	token string
	root  *Value
	slots []*slot
	// leaves counts translation units inside this document, nested ones
	// included. A document without leaves is restored verbatim.
	leaves int
}

// slot is one protected string inside a document.
type slot struct {
	ptr       *string
	protected string
	leaf      int
}

type protector struct {
	next   int
	opts   JSONOptions
	spans  Map
	leaves []*slot
	docs   []*document
}

// Protect replaces protectable spans of text with tokens. Tokens already
// present in text are kept as they are, so protecting an already protected
// string is a no-op.
func Protect(text string, opts JSONOptions) *Protected {
	existing := make(map[string]bool)
	maxID := -1
	for _, m := range reToken.FindAllStringSubmatch(text, -1) {
		existing[m[0]] = true
		if id, err := strconv.Atoi(m[1]); err == nil && id > maxID {
			maxID = id
		}
	}

	p := &protector{next: maxID + 1, opts: opts, spans: Map{}}
	out := p.protect(text, 0)

	return &Protected{
		Text:     out,
		Map:      p.spans,
		main:     ShouldTranslate(out),
		leaves:   p.leaves,
		docs:     p.docs,
		existing: existing,
	}
}

// Units returns the strings to send to a translator: the protected text when
// it has anything to translate, followed by the protected JSON leaves.
func (p *Protected) Units() []string {
	units := make([]string, 0, len(p.leaves)+1)
	if p.main {
		units = append(units, p.Text)
	}
	for _, l := range p.leaves {
		units = append(units, l.protected)
	}
	return units
}

// Restore rebuilds the final text from the translations of Units, in the
// same order. Every placeholder of a unit must survive in its translation.
func (p *Protected) Restore(translated []string) (string, error) {
	units := p.Units()
	if len(translated) != len(units) {
		return "", fmt.Errorf("%w: got %d, want %d", ErrUnitCount, len(translated), len(units))
	}
	for i, unit := range units {
		if lost := Missing(translated[i], unit); len(lost) > 0 {
			return "", fmt.Errorf("%w: %s", ErrTokenLost, strings.Join(lost, ", "))
		}
	}

	main := p.Text
	leaves := translated
	if p.main {
		main = translated[0]
		leaves = translated[1:]
	}

	spans := make(Map, len(p.Map))
	for k, v := range p.Map {
		spans[k] = v
	}
	// docs are in post-order, so nested documents are encoded before the
	// strings that embed them are resolved.
	for _, d := range p.docs {
		if d.leaves == 0 {
			continue
		}
		subst := make(map[*string]string, len(d.slots))
		for _, s := range d.slots {
			text := s.protected
			if s.leaf >= 0 {
				text = leaves[s.leaf]
			}
			subst[s.ptr] = Restore(text, spans)
		}
		spans[d.token] = d.root.encode(subst)
	}

	out := Restore(main, spans)
	for _, tok := range reToken.FindAllString(out, -1) {
		if !p.existing[tok] {
			return "", fmt.Errorf("%w: %s", ErrTokenLeaked, tok)
		}
	}
	return out, nil
}

// Restore substitutes tokens in text with their spans from m. Spans that
// themselves contain tokens are resolved too. Unknown tokens are left as-is.
func Restore(text string, m Map) string {
	for i := 0; i <= maxDepth+1; i++ {
		next := reToken.ReplaceAllStringFunc(text, func(tok string) string {
			if span, ok := m[tok]; ok {
				return span
			}
			return tok
		})
		if next == text {
			break
		}
		text = next
	}
	return text
}

// ShouldTranslate reports whether s has anything for a translator to do: it
// is false for blank strings and for strings made only of placeholders,
// punctuation and digits.
func ShouldTranslate(s string) bool {
	rest := reToken.ReplaceAllString(s, "")
	if strings.TrimSpace(rest) == "" {
		return false
	}
	return strings.IndexFunc(rest, unicode.IsLetter) >= 0
}

// Tokens returns the placeholders in s, in order of appearance.
func Tokens(s string) []string {
	return reToken.FindAllString(s, -1)
}

// Missing returns the tokens of original that do not appear in translated.
func Missing(translated, original string) []string {
	var missing []string
	for _, tok := range reToken.FindAllString(original, -1) {
		if !strings.Contains(translated, tok) {
			missing = append(missing, tok)
		}
	}
	return missing
}

// InstructionHint returns a short sentence to append to an LLM prompt so the
// model knows to leave placeholders intact.
func InstructionHint() string {
	return "Keep every [[...]] marker exactly as it appears: do not translate, move, or remove them."
}

func (p *protector) protect(text string, depth int) string {
	text = p.replace(text, reTemplate, false)
	if depth < maxDepth {
		text = p.replaceJSON(text, depth)
	}
	text = p.replace(text, reComment, false)
	text = p.replace(text, reHTMLTag, false)
	text = p.replace(text, reURL, true)
	text = p.replace(text, reEmail, false)
	text = p.replace(text, reEntity, false)
	text = p.replace(text, reCode, false)
	return text
}

func (p *protector) add(span string) string {
	tok := "[[PH:" + strconv.Itoa(p.next) + "]]"
	p.next++
	p.spans[tok] = span
	return tok
}

// eachFree calls fn on the stretches of text between existing tokens and
// reassembles the result.
func eachFree(text string, fn func(string) string) string {
	locs := reToken.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return fn(text)
	}
	var b strings.Builder
	last := 0
	for _, loc := range locs {
		b.WriteString(fn(text[last:loc[0]]))
		b.WriteString(text[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(fn(text[last:]))
	return b.String()
}

func (p *protector) replace(text string, re *regexp.Regexp, trimTrailing bool) string {
	return eachFree(text, func(free string) string {
		return re.ReplaceAllStringFunc(free, func(match string) string {
			tail := ""
			if trimTrailing {
				trimmed := strings.TrimRight(match, ".,;:!?)")
				tail = match[len(trimmed):]
				match = trimmed
			}
			return p.add(match) + tail
		})
	})
}

// replaceJSON scans the whole text rather than the stretches between tokens:
// an object may legitimately contain tokens, e.g. a protected template marker.
func (p *protector) replaceJSON(text string, depth int) string {
	var b strings.Builder
	last := 0
	for i := 0; i < len(text); i++ {
		if text[i] != '{' {
			continue
		}
		end := matchBrace(text, i)
		if end < 0 {
			continue
		}
		root, err := Parse(text[i:end])
		if err != nil || root.Kind != Mapping {
			continue
		}
		b.WriteString(text[last:i])
		b.WriteString(p.document(text[i:end], root, depth))
		last = end
		i = end - 1
	}
	b.WriteString(text[last:])
	return b.String()
}

// document registers an embedded JSON object and returns its token.
func (p *protector) document(raw string, root *Value, depth int) string {
	d := &document{root: root}
	before := len(p.leaves)

	protectString := func(ptr *string) {
		protected := p.protect(*ptr, depth+1)
		s := &slot{ptr: ptr, protected: protected, leaf: -1}
		if ShouldTranslate(protected) {
			s.leaf = len(p.leaves)
			p.leaves = append(p.leaves, s)
		}
		d.slots = append(d.slots, s)
	}
	Walk(root, visitorFuncs{
		key: func(f *Field) {
			if p.opts.Keys {
				protectString(&f.Key)
			}
		},
		str: func(v *Value) {
			if p.opts.Values {
				protectString(&v.Str)
			}
		},
	})

	d.leaves = len(p.leaves) - before
	d.token = p.add(raw)
	p.docs = append(p.docs, d)
	return d.token
}

// matchBrace returns the index just past the brace closing the one at start,
// honouring JSON string literals, or -1.
func matchBrace(s string, start int) int {
	depth := 0
	inString, escaped := false, false
	for j := start; j < len(s); j++ {
		c := s[j]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return j + 1
			}
		}
	}
	return -1
}
