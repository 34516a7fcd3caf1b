// Package ai wraps the Gemini generateContent API behind typed domain
// operations. Responses are requested as JSON, defensively cleaned and
// unmarshalled into concrete structs.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hireloop/jobboard-api/pkg/circuitbreaker"
	"github.com/hireloop/jobboard-api/pkg/errors"
	"github.com/hireloop/jobboard-api/pkg/logger"
	"github.com/hireloop/jobboard-api/pkg/metrics"
)

const defaultModel = "gemini-2.0-flash"

// Client is the low-level generateContent transport.
type Client struct {
	baseURL        string
	apiKey         string
	model          string
	maxOutputChars int
	httpClient     *http.Client
	breaker        *circuitbreaker.CircuitBreaker
	logger         *logger.Logger
	metrics        *metrics.Metrics
}

type Option func(*Client)

func WithLogger(log *logger.Logger) Option {
	return func(c *Client) { c.logger = log }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithMaxOutputChars caps the model text accepted per response. Zero
// means no cap.
func WithMaxOutputChars(n int) Option {
	return func(c *Client) { c.maxOutputChars = n }
}

func NewClient(baseURL, apiKey string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   defaultModel,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		breaker: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "ai-api",
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// generateContentRequest is the Gemini wire format.
type generateContentRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature      *float64 `json:"temperature,omitempty"`
	ResponseMIMEType string   `json:"responseMimeType,omitempty"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason,omitempty"`
	} `json:"candidates"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// generate sends a single-turn prompt and returns the raw model text.
func (c *Client) generate(ctx context.Context, operation, prompt string) (string, error) {
	start := time.Now()

	var text string
	err := c.breaker.Execute(func() error {
		var innerErr error
		text, innerErr = c.doGenerate(ctx, prompt)
		return innerErr
	})

	if c.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		c.metrics.AIRequests.WithLabelValues(operation, status).Inc()
		c.metrics.AILatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}

	if err != nil {
		return "", errors.Upstream("AI request failed", err)
	}
	return text, nil
}

func (c *Client) doGenerate(ctx context.Context, prompt string) (string, error) {
	temp := 0.2
	reqBody := generateContentRequest{
		Contents: []content{{
			Role:  "user",
			Parts: []part{{Text: prompt}},
		}},
		GenerationConfig: &generationConfig{
			Temperature:      &temp,
			ResponseMIMEType: "application/json",
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp generateContentResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != nil {
			return "", fmt.Errorf("AI API error [%d]: %s", resp.StatusCode, errResp.Error.Message)
		}
		return "", fmt.Errorf("AI API error [%d]: %s", resp.StatusCode, string(respBody))
	}

	var result generateContentResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("AI API returned no candidates")
	}

	text := result.Candidates[0].Content.Parts[0].Text
	if c.maxOutputChars > 0 && len(text) > c.maxOutputChars {
		return "", fmt.Errorf("AI response exceeded %d characters", c.maxOutputChars)
	}
	return text, nil
}

// extractJSON strips markdown fences the model sometimes wraps around
// its output and falls back to the outermost brace or bracket pair.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	if json.Valid([]byte(s)) {
		return s
	}

	for _, pair := range [][2]string{{"{", "}"}, {"[", "]"}} {
		start := strings.Index(s, pair[0])
		end := strings.LastIndex(s, pair[1])
		if start >= 0 && end > start {
			candidate := s[start : end+1]
			if json.Valid([]byte(candidate)) {
				return candidate
			}
		}
	}
	return s
}

// decodeInto parses the model output into dst after cleaning.
func decodeInto(raw string, dst interface{}) error {
	cleaned := extractJSON(raw)
	if err := json.Unmarshal([]byte(cleaned), dst); err != nil {
		return errors.Upstream("AI returned malformed JSON", err)
	}
	return nil
}
