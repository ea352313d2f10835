package annotate

import (
	"fmt"
	"strings"

	"github.com/ppiankov/reltext/internal/model"
	"github.com/ppiankov/reltext/internal/worker"
)

// NewAnnotator creates the annotator selected by configuration
func NewAnnotator(cfg model.AnnotatorConfig, httpCfg model.HTTPConfig, limiter *worker.Limiter) (Annotator, error) {
	switch strings.ToLower(cfg.Backend) {
	case "http":
		if cfg.URL == "" {
			return nil, fmt.Errorf("annotator backend %q requires a service URL", cfg.Backend)
		}
		return NewHTTPAnnotator(cfg.URL, cfg.Timeout, httpCfg, limiter), nil

	case "command", "cmd":
		if cfg.Command == "" {
			return nil, fmt.Errorf("annotator backend %q requires a command", cfg.Backend)
		}
		return NewCommandAnnotator(cfg.Command, cfg.Args, cfg.Timeout), nil

	case "conllu", "sidecar":
		return SidecarAnnotator{}, nil

	case "openai":
		a, err := NewOpenAIAnnotator(cfg, httpCfg)
		if err != nil {
			return nil, err
		}
		return a, nil

	case "ollama":
		a, err := NewOllamaAnnotator(cfg, httpCfg)
		if err != nil {
			return nil, err
		}
		return a, nil

	case "anthropic", "claude":
		a, err := NewAnthropicAnnotator(cfg, httpCfg)
		if err != nil {
			return nil, err
		}
		return a, nil

	case "":
		return nil, fmt.Errorf("no annotator backend configured")

	default:
		return nil, fmt.Errorf("unknown annotator backend: %s (supported: http, command, conllu, openai, anthropic, ollama)", cfg.Backend)
	}
}

// Cacheable reports whether annotations of the backend may be cached.
// Sidecar annotations are always read fresh.
func Cacheable(a Annotator) bool {
	_, sidecar := a.(SidecarAnnotator)
	return !sidecar
}
