package morph

import (
	"context"
	"log/slog"
	"strings"
	"unicode"

	"github.com/ppiankov/reltext/internal/cache"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Normalizer renders noun phrases in the nominative case, word by word.
// It is safe for concurrent use when its analyzer is.
type Normalizer struct {
	analyzer Analyzer
	memo     *cache.MemoryCache
	logger   *slog.Logger
}

// NewNormalizer creates a normalizer. memo and logger may be nil.
func NewNormalizer(analyzer Analyzer, memo *cache.MemoryCache, logger *slog.Logger) *Normalizer {
	if analyzer == nil {
		analyzer = Identity{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Normalizer{
		analyzer: analyzer,
		memo:     memo,
		logger:   logger,
	}
}

// ToNominative returns text with every whitespace-separated word replaced by
// its nominative form. Words the analyzer cannot inflect are kept as is.
// It never fails.
func (n *Normalizer) ToNominative(ctx context.Context, text string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	for i, w := range words {
		words[i] = n.word(ctx, w)
	}
	return strings.Join(words, " ")
}

func (n *Normalizer) word(ctx context.Context, w string) string {
	if n.memo != nil {
		if cached, ok := n.memo.GetString(w); ok {
			return cached
		}
	}

	result := w
	parses, err := n.analyzer.Parse(ctx, w)
	switch {
	case err != nil:
		n.logger.Debug("morph parse failed", "analyzer", n.analyzer.Name(), "word", w, "error", err)
	case len(parses) > 0:
		if inflected, ok := parses[0].Inflect(Nominative); ok && inflected != "" {
			result = matchCase(w, inflected)
		}
	}

	// Errors are usually transient (service down, context cancelled), don't pin the fallback
	if n.memo != nil && err == nil {
		n.memo.SetString(w, result)
	}
	return result
}

// matchCase copies the capitalization of original onto inflected.
// Hyphenated parts are matched one to one when both sides have the same number of parts.
func matchCase(original, inflected string) string {
	if strings.EqualFold(original, inflected) {
		return original
	}
	if isAllUpper(original) {
		return cases.Upper(language.Russian).String(inflected)
	}

	origParts := strings.Split(original, "-")
	inflParts := strings.Split(inflected, "-")
	if len(origParts) != len(inflParts) {
		return copyCase(original, inflected)
	}
	for i := range inflParts {
		inflParts[i] = copyCase(origParts[i], inflParts[i])
	}
	return strings.Join(inflParts, "-")
}

// copyCase takes the letters of original over the shared case-insensitive
// prefix, then capitalizes the first letter if original starts with a capital
func copyCase(original, inflected string) string {
	if strings.EqualFold(original, inflected) {
		return original
	}
	orig := []rune(original)
	out := []rune(inflected)
	for i := 0; i < len(orig) && i < len(out); i++ {
		if unicode.ToLower(orig[i]) != unicode.ToLower(out[i]) {
			break
		}
		out[i] = orig[i]
	}
	if len(orig) > 0 && len(out) > 0 && unicode.IsUpper(orig[0]) {
		out[0] = unicode.ToUpper(out[0])
	}
	return string(out)
}

func isAllUpper(s string) bool {
	letters := 0
	for _, r := range s {
		if !unicode.IsLetter(r) {
			continue
		}
		if !unicode.IsUpper(r) {
			return false
		}
		letters++
	}
	return letters > 1
}
