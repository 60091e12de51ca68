// Package postprocess removes common LLM artifacts from translation output.
//
// It is applied to the raw text returned by an LLM-backed engine while the
// response is split back into one translation per line.
package postprocess

import (
	"regexp"
	"strings"
)

// Lines cleans a reply to the source lines and splits it into trimmed,
// non-blank lines:
//  1. Thinking / reasoning block removal
//  2. Markdown code fence removal
//  3. Instruction echo removal on the first line (prompt leakage)
//
// The echo is left alone when the first source line opens with the same
// kind of phrase, since the translation of such a line legitimately does
// too. Quote wrapping is not touched here; see Unquote.
func Lines(text string, sources []string) []string {
	text = removeThinkingBlocks(text)
	text = removeCodeFences(text)

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 || (len(sources) > 0 && isEcho(sources[0])) {
		return lines
	}

	first := removeInstructionEchoes(lines[0])
	if first == "" {
		return lines[1:]
	}
	lines[0] = first
	return lines
}

// Unquote strips quote wrapping the model added around a translated line.
// When the source line was itself wrapped in quotes the translation is
// returned unchanged.
func Unquote(translated, source string) string {
	if removeQuoteWrapping(strings.TrimSpace(source)) != strings.TrimSpace(source) {
		return translated
	}
	return removeQuoteWrapping(translated)
}

// --- Phase 1: thinking blocks ---

// thinkingBlockRe matches complete <thinking>…</thinking> style blocks.
// Each tag variant is listed explicitly because Go's RE2 engine does not
// support backreferences.
// Flags: i = case-insensitive, s = dot matches newline.
var thinkingBlockRe = regexp.MustCompile(
	`(?is)<thinking>.*?</thinking>|<think>.*?</think>|<reasoning>.*?</reasoning>|<reflection>.*?</reflection>`,
)

// truncatedThinkingRe matches an opened thinking tag whose closing tag is
// missing (the model was cut off mid-thought).
var truncatedThinkingRe = regexp.MustCompile(
	`(?is)(?:<thinking>|<think>|<reasoning>|<reflection>).*$`,
)

func removeThinkingBlocks(text string) string {
	text = thinkingBlockRe.ReplaceAllString(text, "")
	text = truncatedThinkingRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// --- Phase 2: instruction echoes ---

// echoPatterns match introductory phrases that LLMs sometimes prepend even
// when instructed not to.  Each pattern is anchored to the start of the string
// and requires a colon to reduce false positives on legitimate content.
var echoPatterns = []*regexp.Regexp{
	// "Here is / Here's [the] [refined|polished|translated] translation:"
	regexp.MustCompile(`(?i)^here(?:'s| is)(?: the)? (?:refined |polished |translated )?(?:translation|text)\s*:`),
	// "[The] [refined|polished] [translation|translated text]:"
	regexp.MustCompile(`(?i)^(?:the )?(?:refined |polished )?(?:translation|translated text)\s*:`),
	// "Certainly / Sure / Of course[,] here is [the] translation:"
	regexp.MustCompile(`(?i)^(?:certainly|sure|of course)[,.]? here(?:'s| is)(?: the)? (?:refined |polished |translated )?(?:translation|text)\s*:`),
}

func removeInstructionEchoes(text string) string {
	for _, re := range echoPatterns {
		if loc := re.FindStringIndex(text); loc != nil && loc[0] == 0 {
			text = strings.TrimSpace(text[loc[1]:])
		}
	}
	return text
}

// isEcho reports whether s opens with one of the echo phrases.
func isEcho(s string) bool {
	s = strings.TrimSpace(s)
	return removeInstructionEchoes(s) != s
}

// --- Phase 3: code fences ---

// codeFenceRe matches a markdown fence line such as ``` or ```text.
var codeFenceRe = regexp.MustCompile("(?m)^\\s*```[A-Za-z0-9_-]*\\s*$")

func removeCodeFences(text string) string {
	return codeFenceRe.ReplaceAllString(text, "")
}

// --- Quote wrapping ---

// removeQuoteWrapping strips a matching pair of outer quotes when the entire
// text is wrapped in them (a common LLM artifact).  Supported pairs:
//
//	"…"  '…'  «…»  "…"  '…'
func removeQuoteWrapping(text string) string {
	runes := []rune(text)
	n := len(runes)
	if n < 2 {
		return text
	}
	first, last := runes[0], runes[n-1]
	if (first == '"' && last == '"') ||
		(first == '\'' && last == '\'') ||
		(first == '«' && last == '»') ||
		(first == '\u201C' && last == '\u201D') || // " "
		(first == '\u2018' && last == '\u2019') { //  ' '
		return strings.TrimSpace(string(runes[1 : n-1]))
	}
	return text
}
