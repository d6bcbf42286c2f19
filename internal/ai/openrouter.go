package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// ErrMissingAPIKey is returned before any request when no key is configured.
var ErrMissingAPIKey = errors.New("OPENROUTER_API_KEY is missing")

const (
	defaultOpenRouterURL = "https://openrouter.ai/api/v1"
	noRetry              = time.Duration(-1)
)

// OpenRouter talks to the OpenRouter chat completions API.
type OpenRouter struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	retry      retryPolicy
}

// NewOpenRouter builds a client; zero durations and counts take defaults.
func NewOpenRouter(apiKey string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration) *OpenRouter {
	if httpTimeout <= 0 {
		httpTimeout = 60 * time.Second
	}
	if retryMax <= 0 {
		retryMax = 3
	}
	return &OpenRouter{
		httpClient: &http.Client{Timeout: httpTimeout},
		apiKey:     apiKey,
		baseURL:    defaultOpenRouterURL,
		retry:      newRetryPolicy(retryMax, baseDelay, maxDelay, 500*time.Millisecond, 4*time.Second),
	}
}

// WithBaseURL points the client at another endpoint, mostly for tests.
func (c *OpenRouter) WithBaseURL(u string) *OpenRouter {
	if u != "" {
		c.baseURL = strings.TrimRight(u, "/")
	}
	return c
}

type openRouterRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float64         `json:"temperature,omitempty"`
	Stream         bool            `json:"stream,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

func (c *OpenRouter) payload(req GenerateRequest, stream bool) ([]byte, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if req.Model == "" {
		return nil, errors.New("model cannot be empty")
	}
	body := openRouterRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      stream,
	}
	if req.JSON {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	return b, nil
}

func (c *OpenRouter) post(ctx context.Context, payload []byte) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("HTTP-Referer", "https://github.com/KaramelBytes/dashloom-cli")
	httpReq.Header.Set("X-Title", "Dashloom CLI")
	return c.httpClient.Do(httpReq)
}

// Generate sends a chat completion, retrying 429s, 5xx and transient
// network failures with backoff. Retry-After is honored when present.
func (c *OpenRouter) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	payload, err := c.payload(req, false)
	if err != nil {
		return nil, err
	}
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, wait, err := c.once(ctx, payload)
		if err == nil {
			return out, nil
		}
		if wait == noRetry || attempt >= c.retry.attempts {
			return nil, err
		}
		if wait == 0 {
			wait = c.retry.delay(attempt)
		}
		if serr := sleep(ctx, wait); serr != nil {
			return nil, serr
		}
	}
}

func (c *OpenRouter) once(ctx context.Context, payload []byte) (*GenerateResponse, time.Duration, error) {
	resp, err := c.post(ctx, payload)
	if err != nil {
		if isRetryableNetErr(err) {
			return nil, 0, fmt.Errorf("http request: %w", err)
		}
		return nil, noRetry, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := classifyAPIError(readAPIError(resp), resp)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, retryAfter(resp), err
		}
		return nil, noRetry, err
	}
	var out GenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, noRetry, fmt.Errorf("decode response: %w", err)
	}
	out.RequestID = extractRequestID(resp)
	return &out, 0, nil
}

// GenerateStream reads the SSE stream and hands each content delta to onDelta.
func (c *OpenRouter) GenerateStream(ctx context.Context, req GenerateRequest, onDelta func(string)) error {
	payload, err := c.payload(req, true)
	if err != nil {
		return err
	}
	resp, err := c.post(ctx, payload)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classifyAPIError(readAPIError(resp), resp)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, ok := strings.CutPrefix(scanner.Text(), "data:")
		if !ok {
			continue
		}
		data = strings.TrimSpace(data)
		if data == "[DONE]" {
			break
		}
		if delta := gjson.Get(data, "choices.0.delta.content").String(); delta != "" {
			onDelta(delta)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("stream read: %w", err)
	}
	return nil
}
