package translator

import (
	"context"

	"go.uber.org/zap"

	"github.com/valpere/csvtran/internal/placeholder"
)

// TextTranslator is what Client offers and Cached wraps.
type TextTranslator interface {
	Name() string
	TranslateTexts(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error)
}

// Memory is a persistent translation memory keyed by source text and
// language pair.
type Memory interface {
	GetCachedTranslation(ctx context.Context, sourceText, sourceLang, targetLang string) (string, bool, error)
	SaveToMemory(ctx context.Context, sourceText, sourceLang, targetLang, finalText, serviceUsed string) error
}

// Cached serves texts found in a Memory without a remote call and records
// new translations there. Only translations carrying exactly the
// placeholders of their source are recorded or served; anything else could
// never be restored and would pin the text to a failure.
type Cached struct {
	next   TextTranslator
	memory Memory
	logger *zap.Logger
}

// NewCached wraps next with memory.
func NewCached(next TextTranslator, memory Memory, logger *zap.Logger) *Cached {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cached{next: next, memory: memory, logger: logger}
}

func (c *Cached) Name() string {
	return c.next.Name()
}

// TranslateTexts has the semantics of Client.TranslateTexts: when the wrapped
// translator fails part way, the longest fully translated prefix of texts is
// returned with the error.
func (c *Cached) TranslateTexts(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error) {
	out := make([]string, len(texts))
	have := make([]bool, len(texts))

	var misses []string
	var missIdx []int
	for i, text := range texts {
		cached, ok, err := c.memory.GetCachedTranslation(ctx, text, sourceLang, targetLang)
		if err != nil {
			c.logger.Warn("translation memory lookup failed", zap.Error(err))
		}
		if ok && keepsTokens(text, cached) {
			out[i], have[i] = cached, true
			continue
		}
		if ok {
			c.logger.Debug("ignoring unusable translation memory entry", zap.String("text", text))
		}
		misses = append(misses, text)
		missIdx = append(missIdx, i)
	}

	var translateErr error
	if len(misses) > 0 {
		c.logger.Debug("translation memory",
			zap.Int("hits", len(texts)-len(misses)),
			zap.Int("misses", len(misses)))

		got, err := c.next.TranslateTexts(ctx, misses, sourceLang, targetLang)
		translateErr = err
		for j, translated := range got {
			i := missIdx[j]
			out[i], have[i] = translated, true
			if !keepsTokens(misses[j], translated) {
				c.logger.Debug("not saving translation with broken placeholders", zap.String("text", misses[j]))
				continue
			}
			if err := c.memory.SaveToMemory(ctx, misses[j], sourceLang, targetLang, translated, c.next.Name()); err != nil {
				c.logger.Warn("translation memory save failed", zap.Error(err))
			}
		}
	}

	for i := range texts {
		if !have[i] {
			return out[:i], translateErr
		}
	}
	return out, translateErr
}

// keepsTokens reports whether translated holds every placeholder of source
// and no other.
func keepsTokens(source, translated string) bool {
	if len(placeholder.Missing(translated, source)) > 0 {
		return false
	}
	known := make(map[string]bool)
	for _, tok := range placeholder.Tokens(source) {
		known[tok] = true
	}
	for _, tok := range placeholder.Tokens(translated) {
		if !known[tok] {
			return false
		}
	}
	return true
}
