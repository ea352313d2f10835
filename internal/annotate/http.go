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
	"unicode/utf8"

	"github.com/ppiankov/reltext/internal/model"
	"github.com/ppiankov/reltext/internal/util"
	"github.com/ppiankov/reltext/internal/worker"
)

// HTTPAnnotator calls an NLP annotation service.
//
// Request:  POST {baseURL}/annotate {"text": "..."}
// Response: {"spans": [{"type": "PER", "start": 0, "stop": 4, "text": "Иван"}],
//
//	"tokens": [{"id": "1_1", "head_id": "1_2", "rel": "nsubj", "pos": "PROPN",
//	            "start": 0, "stop": 4, "text": "Иван", "feats": {"Case": "Nom"}}]}
type HTTPAnnotator struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	limiter    *worker.Limiter
}

type annotateRequest struct {
	Text string `json:"text"`
}

type annotateResponse struct {
	Spans  []wireSpan  `json:"spans"`
	Tokens []wireToken `json:"tokens"`
}

type wireSpan struct {
	Type  string `json:"type"`
	Start int    `json:"start"`
	Stop  int    `json:"stop"`
	Text  string `json:"text"`
}

type wireToken struct {
	ID     string            `json:"id"`
	HeadID string            `json:"head_id"`
	Rel    string            `json:"rel"`
	POS    string            `json:"pos"`
	Start  int               `json:"start"`
	Stop   int               `json:"stop"`
	Text   string            `json:"text"`
	Feats  map[string]string `json:"feats"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPAnnotator creates an annotation service client; limiter may be nil
func NewHTTPAnnotator(baseURL string, timeout time.Duration, httpCfg model.HTTPConfig, limiter *worker.Limiter) *HTTPAnnotator {
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	return &HTTPAnnotator{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: util.NewHTTPClient(timeout, httpCfg),
		userAgent:  httpCfg.UserAgent,
		limiter:    limiter,
	}
}

// Name returns the backend name including the service URL
func (a *HTTPAnnotator) Name() string { return "http:" + a.baseURL }

// Annotate sends the document text to the service
func (a *HTTPAnnotator) Annotate(ctx context.Context, src model.Source) (*model.Document, error) {
	if err := checkText(src); err != nil {
		return nil, err
	}

	endpoint := a.baseURL + "/annotate"
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx, endpoint); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	body, err := json.Marshal(annotateRequest{Text: src.Text})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.userAgent != "" {
		req.Header.Set("User-Agent", a.userAgent)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(respBody))
		var apiErr errorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, fmt.Errorf("%w: HTTP %d: %s", ErrUnavailable, resp.StatusCode, msg)
		}
		return nil, fmt.Errorf("annotation service error (%d): %s", resp.StatusCode, msg)
	}

	var decoded annotateResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return decoded.document(src.Path), nil
}

func (r *annotateResponse) document(path string) *model.Document {
	doc := &model.Document{
		Path:   path,
		Spans:  make([]model.Span, 0, len(r.Spans)),
		Tokens: make([]model.Token, 0, len(r.Tokens)),
	}
	for _, s := range r.Spans {
		stop := s.Stop
		if stop == 0 && s.Text != "" {
			stop = s.Start + utf8.RuneCountInString(s.Text)
		}
		doc.Spans = append(doc.Spans, model.Span{
			Type:  model.ParseEntityType(s.Type),
			Start: s.Start,
			Stop:  stop,
			Text:  s.Text,
		})
	}
	for _, t := range r.Tokens {
		stop := t.Stop
		if stop == 0 && t.Text != "" {
			stop = t.Start + utf8.RuneCountInString(t.Text)
		}
		doc.Tokens = append(doc.Tokens, model.Token{
			ID:     t.ID,
			HeadID: t.HeadID,
			Rel:    t.Rel,
			POS:    model.ParsePartOfSpeech(t.POS),
			Start:  t.Start,
			Stop:   stop,
			Text:   t.Text,
			Feats:  t.Feats,
		})
	}
	return doc
}
