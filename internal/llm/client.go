package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is a minimal OpenAI-compatible chat completion client.
// One prompt in, one text completion out; no streaming.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

var ErrNotConfigured = errors.New("llm: api key not configured")

const (
	defaultBaseURL  = "https://api.openai.com"
	defaultModel    = "gpt-4o-mini"
	generateTimeout = 15 * time.Second
)

func NewClient(baseURL, apiKey, model string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = defaultModel
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: generateTimeout},
	}
}

func (c *Client) IsConfigured() bool { return c != nil && c.apiKey != "" }

func (c *Client) Model() string { return c.model }

// HealthCheck is a lightweight liveness probe against the models endpoint.
func (c *Client) HealthCheck(ctx context.Context) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/models", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("llm health check failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("llm health check failed: status %d", resp.StatusCode)
	}
	return nil
}

// Generate performs a single chat completion round trip.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if !c.IsConfigured() {
		return "", ErrNotConfigured
	}

	body, err := json.Marshal(map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": 0,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm generate failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("llm response read failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llm generate failed: status %d: %s", resp.StatusCode, truncate(respBody))
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &completion); err != nil {
		return "", fmt.Errorf("llm response parse failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("llm response has no choices")
	}
	return completion.Choices[0].Message.Content, nil
}

func truncate(b []byte) string {
	const max = 200
	s := string(b)
	if len(s) > max {
		return s[:max]
	}
	return s
}
