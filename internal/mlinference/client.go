package mlinference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// Client talks to the audio classification microservice.
//
// Contract:
//   GET  /health  -> {"status": "healthy", "model_loaded": true}
//   POST /predict -> multipart audio file -> {"label": "human"|"voicemail", "confidence": 0.95}
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var ErrUnhealthy = errors.New("mlinference: service unhealthy")

const predictTimeout = 10 * time.Second

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: predictTimeout},
	}
}

func (c *Client) IsConfigured() bool { return c != nil && c.baseURL != "" }

// HealthCheck verifies the service is up and its model is loaded.
// Callers bound the wait with their context; timeouts mean unhealthy.
func (c *Client) HealthCheck(ctx context.Context) error {
	if !c.IsConfigured() {
		return ErrUnhealthy
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnhealthy, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}

	var health struct {
		Status      string `json:"status"`
		ModelLoaded bool   `json:"model_loaded"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return fmt.Errorf("%w: %v", ErrUnhealthy, err)
	}
	if health.Status != "healthy" {
		return fmt.Errorf("%w: status %q", ErrUnhealthy, health.Status)
	}
	return nil
}

// Prediction is the classifier output for one audio window.
type Prediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Predict submits an audio window and returns its classification.
func (c *Client) Predict(ctx context.Context, audio []byte) (Prediction, error) {
	if !c.IsConfigured() {
		return Prediction{}, ErrUnhealthy
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "window.wav")
	if err != nil {
		return Prediction{}, err
	}
	if _, err := part.Write(audio); err != nil {
		return Prediction{}, err
	}
	if err := mw.Close(); err != nil {
		return Prediction{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", &body)
	if err != nil {
		return Prediction{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Prediction{}, fmt.Errorf("mlinference: predict failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Prediction{}, fmt.Errorf("mlinference: response read failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Prediction{}, fmt.Errorf("mlinference: predict failed: status %d: %s", resp.StatusCode, truncate(respBody))
	}

	var p Prediction
	if err := json.Unmarshal(respBody, &p); err != nil {
		return Prediction{}, fmt.Errorf("mlinference: response parse failed: %w", err)
	}
	if p.Label == "" {
		return Prediction{}, fmt.Errorf("mlinference: response missing label")
	}
	return p, nil
}

func truncate(b []byte) string {
	const max = 200
	s := string(b)
	if len(s) > max {
		return s[:max]
	}
	return s
}
