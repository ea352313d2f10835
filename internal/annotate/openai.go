package annotate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/reltext/internal/model"
	"github.com/ppiankov/reltext/internal/util"
)

// OpenAIAnnotator asks an OpenAI-compatible chat model for a CoNLL-U annotation
type OpenAIAnnotator struct {
	client    *openai.Client
	model     string
	maxTokens int
	timeout   time.Duration
}

// NewOpenAIAnnotator creates an OpenAI annotator. baseURL may point at any
// OpenAI-compatible endpoint.
func NewOpenAIAnnotator(cfg model.AnnotatorConfig, httpCfg model.HTTPConfig) (*OpenAIAnnotator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.URL != "" {
		clientConfig.BaseURL = cfg.URL
	}
	clientConfig.HTTPClient = util.NewHTTPClient(0, httpCfg)

	modelName := cfg.Model
	if modelName == "" {
		modelName = openai.GPT4oMini
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 8000
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 2 * time.Minute
	}

	return &OpenAIAnnotator{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     modelName,
		maxTokens: maxTokens,
		timeout:   timeout,
	}, nil
}

// Name returns the backend name including the model
func (a *OpenAIAnnotator) Name() string { return "openai:" + a.model }

// Annotate sends the text to the chat completions API
func (a *OpenAIAnnotator) Annotate(ctx context.Context, src model.Source) (*model.Document, error) {
	if err := checkText(src); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(src.Text)},
		},
		MaxTokens:   a.maxTokens,
		Temperature: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: OpenAI API error: %v", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no response from OpenAI", ErrMalformed)
	}

	conllu := extractCoNLLU(resp.Choices[0].Message.Content)
	if conllu == "" {
		return nil, fmt.Errorf("%w: answer contains no CoNLL-U", ErrMalformed)
	}
	doc, err := DecodeCoNLLU(strings.NewReader(conllu), src.Text)
	if err != nil {
		return nil, err
	}
	doc.Path = src.Path
	return doc, nil
}
