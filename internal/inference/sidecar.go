package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/translation-arena/backend/internal/scoring"
)

// Sidecar talks JSON over HTTP to a local model server hosting the embedding,
// NLI, keyword and fluency models. Each capability lives under its own path, so
// one server may host any subset of them.
type Sidecar struct {
	baseURL    string
	httpClient *http.Client
}

var (
	_ scoring.EmbeddingBackend      = (*Sidecar)(nil)
	_ scoring.ClassificationBackend = (*Sidecar)(nil)
	_ scoring.KeywordExtractor      = (*Sidecar)(nil)
	_ scoring.FluencyBackend        = (*Sidecar)(nil)
)

func NewSidecar(baseURL string, timeout time.Duration) *Sidecar {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Sidecar{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type similarityRequest struct {
	A string `json:"a"`
	B string `json:"b"`
}

type similarityResponse struct {
	Similarity float64 `json:"similarity"`
}

func (s *Sidecar) Similarity(ctx context.Context, a, b string) (float64, error) {
	var out similarityResponse
	if err := s.post(ctx, "/similarity", similarityRequest{A: a, B: b}, &out); err != nil {
		return 0, err
	}
	return out.Similarity, nil
}

type nliRequest struct {
	Premise    string `json:"premise"`
	Hypothesis string `json:"hypothesis"`
}

func (s *Sidecar) Classify(ctx context.Context, premise, hypothesis string) (scoring.Classification, error) {
	var out rawClassification
	if err := s.post(ctx, "/nli", nliRequest{Premise: premise, Hypothesis: hypothesis}, &out); err != nil {
		return scoring.Classification{}, err
	}
	c, err := out.normalize()
	if err != nil {
		return scoring.Classification{}, fmt.Errorf("nli sidecar returned %w", err)
	}
	return c, nil
}

type keywordsRequest struct {
	Text string `json:"text"`
	TopN int    `json:"top_n"`
}

type keywordsResponse struct {
	Keywords []scoring.Keyword `json:"keywords"`
}

func (s *Sidecar) Extract(ctx context.Context, text string, topN int) ([]scoring.Keyword, error) {
	var out keywordsResponse
	if err := s.post(ctx, "/keywords", keywordsRequest{Text: text, TopN: topN}, &out); err != nil {
		return nil, err
	}
	if len(out.Keywords) > topN && topN > 0 {
		out.Keywords = out.Keywords[:topN]
	}
	return out.Keywords, nil
}

type fluencyRequest struct {
	Text     string           `json:"text"`
	Language scoring.Language `json:"language"`
}

type fluencyResponse struct {
	Score float64 `json:"score"`
}

func (s *Sidecar) Score(ctx context.Context, text string, lang scoring.Language) (float64, error) {
	var out fluencyResponse
	if err := s.post(ctx, "/fluency", fluencyRequest{Text: text, Language: lang}, &out); err != nil {
		return 0, err
	}
	return out.Score, nil
}

func (s *Sidecar) post(ctx context.Context, path string, in, out any) error {
	reqBody, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("failed to setup a new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sidecar %s: %w", path, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("[inference] failed to close %s response body: %v", path, err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sidecar %s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse %s response: %w", path, err)
	}
	return nil
}
