package annotate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/reltext/internal/model"
	"github.com/ppiankov/reltext/internal/util"
)

// OllamaAnnotator asks a local Ollama model for a CoNLL-U annotation
type OllamaAnnotator struct {
	baseURL    string
	httpClient *http.Client
	model      string
	maxTokens  int
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	System  string        `json:"system,omitempty"`
	Options ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"` // Max tokens
}

type ollamaResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// NewOllamaAnnotator creates an Ollama annotator
func NewOllamaAnnotator(cfg model.AnnotatorConfig, httpCfg model.HTTPConfig) (*OllamaAnnotator, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("ollama model must be specified (e.g., qwen2.5:14b)")
	}

	baseURL := cfg.URL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Minute // local models are slow on long texts
	}

	return &OllamaAnnotator{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: util.NewHTTPClient(timeout, httpCfg),
		model:      cfg.Model,
		maxTokens:  cfg.MaxTokens,
	}, nil
}

// Name returns the backend name including the model
func (a *OllamaAnnotator) Name() string { return "ollama:" + a.model }

// Annotate sends the text to /api/generate
func (a *OllamaAnnotator) Annotate(ctx context.Context, src model.Source) (*model.Document, error) {
	if err := checkText(src); err != nil {
		return nil, err
	}

	body, err := json.Marshal(ollamaRequest{
		Model:  a.model,
		Prompt: BuildPrompt(src.Text),
		Stream: false,
		System: systemPrompt,
		Options: ollamaOptions{
			NumPredict: a.maxTokens,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		var apiErr errorResponse
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("%w: ollama API error (%d): %s", ErrUnavailable, httpResp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("%w: ollama API error (%d): %s", ErrUnavailable, httpResp.StatusCode, string(respBody))
	}

	var resp ollamaResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	conllu := extractCoNLLU(resp.Response)
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
