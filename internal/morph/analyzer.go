// Package morph reduces inflected Russian noun phrases to their nominative form.
//
// The morphological analysis itself is delegated to an Analyzer backend:
// a local dictionary lexicon, a remote morphology service, or the identity
// analyzer that leaves every word unchanged.
package morph

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/reltext/internal/model"
	"github.com/ppiankov/reltext/internal/worker"
)

// Case is an OpenCorpora case grammeme
type Case string

const (
	Nominative    Case = "nomn"
	Genitive      Case = "gent"
	Dative        Case = "datv"
	Accusative    Case = "accs"
	Instrumental  Case = "ablt"
	Prepositional Case = "loct"
	Vocative      Case = "voct"
	Genitive2     Case = "gen2"
	Accusative2   Case = "acc2"
	Locative2     Case = "loc2"
)

var caseGrammemes = map[string]bool{
	string(Nominative): true, string(Genitive): true, string(Dative): true,
	string(Accusative): true, string(Instrumental): true, string(Prepositional): true,
	string(Vocative): true, string(Genitive2): true, string(Accusative2): true,
	string(Locative2): true,
}

// Parse is one morphological reading of a word
type Parse interface {
	// Word returns the analyzed word form
	Word() string
	// Tag returns the grammemes of the reading, comma-separated
	Tag() string
	// Inflect returns the word form in the requested case, or false if none exists
	Inflect(c Case) (string, bool)
}

// Analyzer returns the readings of a word, most probable first
type Analyzer interface {
	Name() string
	Parse(ctx context.Context, word string) ([]Parse, error)
}

// Identity is an analyzer that knows no words; normalization leaves input unchanged
type Identity struct{}

// Name returns the analyzer name
func (Identity) Name() string { return "none" }

// Parse returns no readings
func (Identity) Parse(ctx context.Context, word string) ([]Parse, error) {
	return nil, nil
}

// NewAnalyzer creates the analyzer selected by configuration
func NewAnalyzer(cfg model.MorphConfig, httpCfg model.HTTPConfig, limiter *worker.Limiter) (Analyzer, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "none":
		return Identity{}, nil

	case "dictionary", "dict":
		if cfg.Lexicon == "" {
			return nil, fmt.Errorf("morph backend %q requires a lexicon path", cfg.Backend)
		}
		d, err := LoadDictionaryFile(cfg.Lexicon)
		if err != nil {
			return nil, err
		}
		return d, nil

	case "http":
		if cfg.URL == "" {
			return nil, fmt.Errorf("morph backend %q requires a service URL", cfg.Backend)
		}
		return NewHTTPAnalyzer(cfg.URL, cfg.Timeout, httpCfg, limiter), nil

	default:
		return nil, fmt.Errorf("unknown morph backend: %s (supported: dictionary, http, none)", cfg.Backend)
	}
}
