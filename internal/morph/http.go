package morph

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
	"github.com/ppiankov/reltext/internal/worker"
)

// HTTPAnalyzer queries a morphology service.
//
// Request:  POST {baseURL}/parse {"word": "Ивана"}
// Response: {"parses": [{"tag": "NOUN,anim,masc,Name,sing,gent", "score": 0.9, "forms": {"nomn": "иван"}}]}
type HTTPAnalyzer struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	limiter    *worker.Limiter
}

type parseRequest struct {
	Word string `json:"word"`
}

type parseResponse struct {
	Parses []remoteParse `json:"parses"`
}

type remoteParse struct {
	Grammemes string            `json:"tag"`
	Score     float64           `json:"score"`
	Forms     map[string]string `json:"forms"`
	word      string
}

// NewHTTPAnalyzer creates a morphology service client; limiter may be nil
func NewHTTPAnalyzer(baseURL string, timeout time.Duration, httpCfg model.HTTPConfig, limiter *worker.Limiter) *HTTPAnalyzer {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &HTTPAnalyzer{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: util.NewHTTPClient(timeout, httpCfg),
		userAgent:  httpCfg.UserAgent,
		limiter:    limiter,
	}
}

// Name returns the analyzer name
func (a *HTTPAnalyzer) Name() string { return "http" }

// Parse asks the service for the readings of word
func (a *HTTPAnalyzer) Parse(ctx context.Context, word string) ([]Parse, error) {
	endpoint := a.baseURL + "/parse"
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx, endpoint); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	body, err := json.Marshal(parseRequest{Word: word})
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
		return nil, fmt.Errorf("morph service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("morph service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var decoded parseResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode morph response: %w", err)
	}

	parses := make([]Parse, 0, len(decoded.Parses))
	for i := range decoded.Parses {
		p := decoded.Parses[i]
		p.word = word
		parses = append(parses, &p)
	}
	return parses, nil
}

func (p *remoteParse) Word() string { return p.word }

func (p *remoteParse) Tag() string { return p.Grammemes }

func (p *remoteParse) Inflect(c Case) (string, bool) {
	form, ok := p.Forms[string(c)]
	if !ok || form == "" {
		return "", false
	}
	return form, true
}
