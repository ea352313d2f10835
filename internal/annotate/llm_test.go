package annotate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/reltext/internal/model"
)

const llmAnswer = "```conllu\n" +
	"# text = Газпром купил завод.\n" +
	"1\tГазпром\tГазпром\tPROPN\t_\tCase=Nom\t2\tnsubj\t_\tNER=B-ORG\n" +
	"2\tкупил\tкупить\tVERB\t_\tTense=Past\t0\troot\t_\t_\n" +
	"3\tзавод\tзавод\tNOUN\t_\tCase=Acc\t2\tobj\t_\tSpaceAfter=No\n" +
	"4\t.\t.\tPUNCT\t_\t_\t2\tpunct\t_\t_\n" +
	"```"

func TestOpenAIAnnotator_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Expected Authorization header Bearer test-key, got %s", r.Header.Get("Authorization"))
		}

		resp := openai.ChatCompletionResponse{
			ID:    "chatcmpl-123",
			Model: "gpt-4o-mini",
			Choices: []openai.ChatCompletionChoice{
				{
					Message: openai.ChatCompletionMessage{
						Role:    openai.ChatMessageRoleAssistant,
						Content: llmAnswer,
					},
					FinishReason: "stop",
				},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	a, err := NewOpenAIAnnotator(model.AnnotatorConfig{APIKey: "test-key", URL: server.URL, Timeout: 5 * time.Second}, model.HTTPConfig{})
	if err != nil {
		t.Fatalf("Failed to create annotator: %v", err)
	}

	doc, err := a.Annotate(context.Background(), model.Source{Path: "news.txt", Text: "Газпром купил завод."})
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}
	if len(doc.Tokens) != 4 {
		t.Fatalf("expected 4 tokens, got %d", len(doc.Tokens))
	}
	if len(doc.Spans) != 1 || doc.Spans[0].Type != model.EntityOrganization || doc.Spans[0].Text != "Газпром" {
		t.Errorf("unexpected spans: %+v", doc.Spans)
	}
	if doc.Tokens[2].Start != 14 || doc.Tokens[2].Stop != 19 {
		t.Errorf("expected завод at 14:19, got %d:%d", doc.Tokens[2].Start, doc.Tokens[2].Stop)
	}
}

func TestOpenAIAnnotator_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "Internal server error", "type": "server_error"}}`))
	}))
	defer server.Close()

	a, err := NewOpenAIAnnotator(model.AnnotatorConfig{APIKey: "test-key", URL: server.URL}, model.HTTPConfig{})
	if err != nil {
		t.Fatalf("Failed to create annotator: %v", err)
	}

	_, err = a.Annotate(context.Background(), model.Source{Text: "Газпром купил завод."})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestOpenAIAnnotator_NoCoNLLU(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: "I cannot help with that."}},
			},
		})
	}))
	defer server.Close()

	a, err := NewOpenAIAnnotator(model.AnnotatorConfig{APIKey: "test-key", URL: server.URL}, model.HTTPConfig{})
	if err != nil {
		t.Fatalf("Failed to create annotator: %v", err)
	}

	_, err = a.Annotate(context.Background(), model.Source{Text: "Газпром купил завод."})
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}
}

func TestOllamaAnnotator_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("Expected path /api/generate, got %s", r.URL.Path)
		}
		var req ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "qwen2.5" || req.Stream {
			t.Errorf("unexpected request: %+v", req)
		}
		_ = json.NewEncoder(w).Encode(ollamaResponse{Model: req.Model, Response: llmAnswer, Done: true})
	}))
	defer server.Close()

	a, err := NewOllamaAnnotator(model.AnnotatorConfig{Model: "qwen2.5", URL: server.URL}, model.HTTPConfig{})
	if err != nil {
		t.Fatalf("Failed to create annotator: %v", err)
	}

	doc, err := a.Annotate(context.Background(), model.Source{Text: "Газпром купил завод."})
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}
	if len(doc.Tokens) != 4 || len(doc.Spans) != 1 {
		t.Errorf("expected 4 tokens and 1 span, got %d and %d", len(doc.Tokens), len(doc.Spans))
	}
}

func TestOllamaAnnotator_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": "model 'qwen2.5' not found"}`))
	}))
	defer server.Close()

	a, err := NewOllamaAnnotator(model.AnnotatorConfig{Model: "qwen2.5", URL: server.URL}, model.HTTPConfig{})
	if err != nil {
		t.Fatalf("Failed to create annotator: %v", err)
	}

	_, err = a.Annotate(context.Background(), model.Source{Text: "Газпром купил завод."})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestAnthropicAnnotator_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("Expected path /v1/messages, got %s", r.URL.Path)
		}
		if r.Header.Get("X-Api-Key") != "test-key" {
			t.Errorf("Expected x-api-key test-key, got %q", r.Header.Get("X-Api-Key"))
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req["model"] != "claude-test" || req["max_tokens"] != float64(8000) || req["system"] == nil {
			t.Errorf("unexpected request: %v", req)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":          "msg_1",
			"type":        "message",
			"role":        "assistant",
			"model":       "claude-test",
			"stop_reason": "end_turn",
			"content":     []map[string]any{{"type": "text", "text": llmAnswer}},
			"usage":       map[string]any{"input_tokens": 10, "output_tokens": 20},
		})
	}))
	defer server.Close()

	a, err := NewAnthropicAnnotator(model.AnnotatorConfig{APIKey: "test-key", URL: server.URL, Model: "claude-test"}, model.HTTPConfig{})
	if err != nil {
		t.Fatalf("Failed to create annotator: %v", err)
	}
	if a.Name() != "anthropic:claude-test" {
		t.Errorf("unexpected name %s", a.Name())
	}

	doc, err := a.Annotate(context.Background(), model.Source{Path: "a.txt", Text: "Газпром купил завод."})
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}
	if len(doc.Tokens) != 4 || len(doc.Spans) != 1 || doc.Path != "a.txt" {
		t.Errorf("unexpected document: %+v", doc)
	}
}

func TestAnthropicAnnotator_Errors(t *testing.T) {
	if _, err := NewAnthropicAnnotator(model.AnnotatorConfig{}, model.HTTPConfig{}); err == nil {
		t.Error("expected error without API key")
	}

	var status atomic.Int32
	status.Store(http.StatusTooManyRequests)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(int(status.Load()))
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"api_error","message":"try later"}}`))
	}))
	defer server.Close()

	a, err := NewAnthropicAnnotator(model.AnnotatorConfig{APIKey: "test-key", URL: server.URL}, model.HTTPConfig{})
	if err != nil {
		t.Fatalf("Failed to create annotator: %v", err)
	}

	_, err = a.Annotate(context.Background(), model.Source{Text: "Газпром купил завод."})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable for 429, got %v", err)
	}

	status.Store(http.StatusBadRequest)
	_, err = a.Annotate(context.Background(), model.Source{Text: "Газпром купил завод."})
	if err == nil || errors.Is(err, ErrUnavailable) {
		t.Errorf("expected a permanent error for 400, got %v", err)
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("Иван спит.")
	for _, want := range []string{"CoNLL-U", "NER=B-PER", "SpaceAfter=No", "Иван спит."} {
		if !strings.Contains(prompt, want) {
			t.Errorf("expected prompt to mention %q", want)
		}
	}
}
