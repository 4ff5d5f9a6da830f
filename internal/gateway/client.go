package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"murphy/internal/timeline"
)

// #region constants

// FailureMessage is returned by Complete when every attempt failed. The
// "Error:" prefix is the contract downstream parsing uses to detect
// upstream failure without inspecting error types.
const FailureMessage = "Error: Timeline communication lost."

const (
	defaultBaseURL        = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel          = "gemini-2.5-flash-lite"
	defaultEmbedModel     = "text-embedding-004"
	defaultAttemptTimeout = 30 * time.Second
)

// #endregion constants

// #region config

// Config holds the gateway's transport settings.
type Config struct {
	APIKey string
	Model  string
	// EmbedModel is the model serving embedContent. Completion models do
	// not serve it, so this is a separate name.
	EmbedModel string
	BaseURL    string
	// JSONMode asks the completion endpoint for a JSON response body,
	// matching the parser's structured mode.
	JSONMode bool
	Timeout  time.Duration
	Policy   RetryPolicy
}

// #endregion config

// #region client

// Client calls a Gemini-style text-completion endpoint with bounded retry.
type Client struct {
	http       *http.Client
	apiKey     string
	model      string
	embedModel string
	baseURL    string
	json       bool
	policy     RetryPolicy
}

// NewClient creates a gateway client, filling unset config with defaults.
func NewClient(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.EmbedModel == "" {
		cfg.EmbedModel = defaultEmbedModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultAttemptTimeout
	}
	if cfg.Policy.MaxAttempts == 0 {
		cfg.Policy = DefaultRetryPolicy()
	}
	return &Client{
		http:       &http.Client{Timeout: cfg.Timeout},
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		embedModel: cfg.EmbedModel,
		baseURL:    cfg.BaseURL,
		json:       cfg.JSONMode,
		policy:     cfg.Policy,
	}
}

// #endregion client

// #region wire-types

type wirePart struct {
	Text string `json:"text"`
}

type wireContent struct {
	Role  string     `json:"role,omitempty"`
	Parts []wirePart `json:"parts"`
}

type generateRequest struct {
	Contents          []wireContent     `json:"contents"`
	SystemInstruction *wireContent      `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	ResponseMimeType string `json:"responseMimeType,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content wireContent `json:"content"`
	} `json:"candidates"`
}

type embedRequest struct {
	Content wireContent `json:"content"`
}

type embedResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

// #endregion wire-types

// #region complete

// Complete sends the prompt pair, with prior conversation turns prepended,
// to the completion endpoint. It never returns an error: on exhaustion it
// returns FailureMessage, distinguishable from model output by its prefix.
func (c *Client) Complete(ctx context.Context, system, user string, history []timeline.ChatTurn) string {
	for attempt := 0; attempt < c.policy.MaxAttempts; attempt++ {
		text, kind, err := c.generateOnce(ctx, system, user, history)
		if err == nil {
			return text
		}

		tag := "transient"
		if kind == kindRateLimit {
			tag = "rate-limit"
		}
		log.Printf("[GATEWAY] attempt %d/%d failed (%s): %v", attempt+1, c.policy.MaxAttempts, tag, err)

		// The final attempt reports failure immediately, no wait.
		if attempt < c.policy.MaxAttempts-1 {
			c.policy.Sleep(c.policy.Backoff(attempt))
		}
	}
	return FailureMessage
}

func (c *Client) generateOnce(ctx context.Context, system, user string, history []timeline.ChatTurn) (string, failureKind, error) {
	req := generateRequest{
		SystemInstruction: &wireContent{Parts: []wirePart{{Text: system}}},
	}
	for _, turn := range history {
		req.Contents = append(req.Contents, wireContent{
			Role:  string(turn.Role),
			Parts: []wirePart{{Text: turn.Content}},
		})
	}
	req.Contents = append(req.Contents, wireContent{Role: string(timeline.RoleUser), Parts: []wirePart{{Text: user}}})
	if c.json {
		req.GenerationConfig = &generationConfig{ResponseMimeType: "application/json"}
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	body, kind, err := c.post(ctx, url, req)
	if err != nil {
		return "", kind, err
	}

	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", kindTransient, fmt.Errorf("decode response: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", kindTransient, fmt.Errorf("empty completion body")
	}
	text := resp.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return "", kindTransient, fmt.Errorf("empty completion text")
	}
	return text, kindTransient, nil
}

// #endregion complete

// #region embed

// Embed fetches an embedding vector for text. Unlike Complete this is a
// single attempt: retrieval callers treat failure as "no retrieval".
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	url := fmt.Sprintf("%s/models/%s:embedContent?key=%s", c.baseURL, c.embedModel, c.apiKey)
	body, _, err := c.post(ctx, url, embedRequest{Content: wireContent{Parts: []wirePart{{Text: text}}}})
	if err != nil {
		return nil, err
	}
	var resp embedResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode embedding: %w", err)
	}
	if len(resp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("empty embedding")
	}
	return resp.Embedding.Values, nil
}

// #endregion embed

// #region transport

func (c *Client) post(ctx context.Context, url string, payload any) ([]byte, failureKind, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, kindTransient, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return nil, kindTransient, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, kindTransient, fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, kindTransient, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, kindRateLimit, fmt.Errorf("rate limited (status 429)")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, kindTransient, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	return body, kindTransient, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// #endregion transport
