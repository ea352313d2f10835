package annotate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/ppiankov/reltext/internal/model"
	"github.com/ppiankov/reltext/internal/util"
)

const defaultAnthropicModel = "claude-3-5-haiku-20241022"

// AnthropicAnnotator asks an Anthropic model for a CoNLL-U annotation through the Messages API
type AnthropicAnnotator struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

// NewAnthropicAnnotator creates an Anthropic annotator. cfg.URL overrides the API base URL.
func NewAnthropicAnnotator(cfg model.AnnotatorConfig, httpCfg model.HTTPConfig) (*AnthropicAnnotator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required (set ANTHROPIC_API_KEY)")
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = defaultAnthropicModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 8000
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 2 * time.Minute
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(util.NewHTTPClient(timeout, httpCfg)),
		option.WithMaxRetries(0),
	}
	if cfg.URL != "" {
		opts = append(opts, option.WithBaseURL(cfg.URL))
	}

	return &AnthropicAnnotator{
		client:    anthropic.NewClient(opts...),
		model:     anthropic.Model(modelName),
		maxTokens: int64(maxTokens),
	}, nil
}

// Name returns the backend name including the model
func (a *AnthropicAnnotator) Name() string { return "anthropic:" + string(a.model) }

// Annotate sends the text to the Messages API
func (a *AnthropicAnnotator) Annotate(ctx context.Context, src model.Source) (*model.Document, error) {
	if err := checkText(src); err != nil {
		return nil, err
	}

	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(BuildPrompt(src.Text))),
		},
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode != 429 && apiErr.StatusCode < 500 {
			return nil, fmt.Errorf("anthropic API error (%d): %w", apiErr.StatusCode, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var answer strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			answer.WriteString(block.Text)
		}
	}

	conllu := extractCoNLLU(answer.String())
	if conllu == "" {
		return nil, fmt.Errorf("%w: answer contains no CoNLL-U (stop reason %q)", ErrMalformed, message.StopReason)
	}
	doc, err := DecodeCoNLLU(strings.NewReader(conllu), src.Text)
	if err != nil {
		return nil, err
	}
	doc.Path = src.Path
	return doc, nil
}
