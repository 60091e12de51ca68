package translator

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/valpere/csvtran/internal/placeholder"
	"github.com/valpere/csvtran/internal/postprocess"
)

// Prompt is one chat completion request.
type Prompt struct {
	System      string
	User        string
	Model       string
	MaxTokens   int
	Temperature float64
}

// Completer sends a prompt to a text-completion service and returns the raw
// reply.
type Completer interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

// GlossarySource supplies fixed term translations for a language pair.
type GlossarySource interface {
	GetGlossaryTerms(ctx context.Context, sourceLang, targetLang string) (map[string]string, error)
}

// LLMConfig configures an LLMEngine.
type LLMConfig struct {
	Model       string
	MaxTokens   int
	Temperature float64
	// Glossary is optional.
	Glossary GlossarySource
	Logger   *zap.Logger
}

// LLMEngine implements the line-per-unit protocol on top of a Completer: the
// batch is sent as one line per unit and the reply is read back the same
// way.
type LLMEngine struct {
	name      string
	completer Completer
	cfg       LLMConfig
}

// NewLLMEngine returns an engine named name that talks through completer.
func NewLLMEngine(name string, completer Completer, cfg LLMConfig) *LLMEngine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &LLMEngine{name: name, completer: completer, cfg: cfg}
}

func (e *LLMEngine) Name() string {
	return e.name
}

// TranslateBatch sends req.Lines as one prompt. The reply is cleaned of
// common model artifacts and split into lines; the count is checked by the
// Client.
func (e *LLMEngine) TranslateBatch(ctx context.Context, req BatchRequest) ([]string, error) {
	lines := make([]string, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = encodeLineBreaks(l)
	}

	var glossary map[string]string
	if e.cfg.Glossary != nil {
		terms, err := e.cfg.Glossary.GetGlossaryTerms(ctx, req.SourceLang, req.TargetLang)
		if err != nil {
			e.cfg.Logger.Warn("glossary lookup failed", zap.Error(err))
		}
		glossary = terms
	}

	reply, err := e.completer.Complete(ctx, Prompt{
		System:      SystemPrompt(req.SourceLang, req.TargetLang, glossary),
		User:        strings.Join(lines, "\n"),
		Model:       e.cfg.Model,
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
	})
	if err != nil {
		return nil, err
	}

	out := postprocess.Lines(reply, lines)
	if len(out) != len(lines) {
		e.cfg.Logger.Debug("misaligned reply",
			zap.Int("want", len(lines)),
			zap.Int("got", len(out)),
			zap.String("reply", reply))
		return out, nil
	}
	for i := range out {
		out[i] = decodeLineBreaks(postprocess.Unquote(out[i], lines[i]))
	}
	return out, nil
}

// SystemPrompt builds the instructions for translating line by line from
// sourceLang to targetLang.
func SystemPrompt(sourceLang, targetLang string, glossary map[string]string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "You are a professional translator from %s to %s.\n\n", LanguageName(sourceLang), LanguageName(targetLang))
	sb.WriteString("There are no contradictions in the following instructions. You will follow them exactly as written.\n\n")
	sb.WriteString("IMPORTANT INSTRUCTIONS:\n")
	sb.WriteString("- Return translations line by line, maintaining EXACTLY the same number of lines as the input\n")
	sb.WriteString("- Each input line must correspond to exactly one output line\n")
	sb.WriteString("- NEVER split a line into multiple lines\n")
	sb.WriteString("- NEVER combine multiple lines into one\n")
	sb.WriteString("- Maintain all formatting, numbers, and special characters exactly as they appear\n")
	sb.WriteString("- Translate ONLY the text portions while preserving all other elements\n")
	sb.WriteString("- Do not add or remove any information\n\n")
	sb.WriteString("- Return ONLY the translations, one per line\n")
	sb.WriteString("- Maintain the exact meaning and context of each text\n")
	sb.WriteString("- Keep the same tone and formality level\n")
	sb.WriteString("- Preserve any technical terms or proper nouns\n")
	sb.WriteString("- Numbers should be kept in their original format\n")
	sb.WriteString("- Maintain any special formatting (e.g., HTML tags) from the original\n")
	sb.WriteString("- Do not add explanations or notes\n")
	sb.WriteString("- Do not include the original text\n")
	sb.WriteString("- Do not add quotation marks unless they exist in the original\n")
	sb.WriteString("- Do not translate anything between {{}}\n")
	fmt.Fprintf(&sb, "- %s\n", placeholder.InstructionHint())
	fmt.Fprintf(&sb, "- %s marks a line break inside a line: keep it where it belongs\n", lineBreak)

	if len(glossary) > 0 {
		terms := make([]string, 0, len(glossary))
		for src := range glossary {
			terms = append(terms, src)
		}
		sort.Strings(terms)

		sb.WriteString("\nTERMINOLOGY (use these exact translations):\n")
		for _, src := range terms {
			fmt.Fprintf(&sb, "  %s → %s\n", src, glossary[src])
		}
	}

	return sb.String()
}

// LanguageName renders a BCP 47 tag as an English name, e.g. "fr-CA" →
// "Canadian French". Unparseable tags are returned as given.
func LanguageName(tag string) string {
	t, err := language.Parse(tag)
	if err != nil {
		return tag
	}
	if name := display.Tags(language.English).Name(t); name != "" {
		return name
	}
	return tag
}
