package telephony

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	telnyxBaseURL     = "https://api.telnyx.com"
	telnyxHTTPTimeout = 15 * time.Second
)

// TelnyxDialer places calls through the Telnyx Call Control API with
// premium answering machine detection.
//
// Unlike Twilio, Telnyx does not answer webhooks with markup; mid-call
// actions (speak, hangup, gather) are separate command requests, exposed
// here so the webhook layer can execute reconciliation actions.
type TelnyxDialer struct {
	apiKey       string
	connectionID string
	fromNumber   string

	publicBaseURL string

	baseURL    string
	httpClient *http.Client
}

func NewTelnyxDialer(apiKey, connectionID, fromNumber, publicBaseURL string) *TelnyxDialer {
	return &TelnyxDialer{
		apiKey:        apiKey,
		connectionID:  connectionID,
		fromNumber:    fromNumber,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		baseURL:       telnyxBaseURL,
		httpClient:    &http.Client{Timeout: telnyxHTTPTimeout},
	}
}

// WithBaseURL points the adapter at a non-default API host (tests).
func (d *TelnyxDialer) WithBaseURL(u string) *TelnyxDialer {
	d.baseURL = strings.TrimRight(u, "/")
	return d
}

func (d *TelnyxDialer) Name() string { return "telnyx" }

func (d *TelnyxDialer) IsConfigured() bool {
	return d.apiKey != "" && d.connectionID != "" && d.fromNumber != ""
}

func (d *TelnyxDialer) HealthCheck(ctx context.Context) error {
	if !d.IsConfigured() {
		return ErrNotConfigured
	}
	u := fmt.Sprintf("%s/v2/connections/%s", d.baseURL, d.connectionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+d.apiKey)
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telnyx health check failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telnyx health check failed: status %d", resp.StatusCode)
	}
	return nil
}

func (d *TelnyxDialer) PlaceCall(ctx context.Context, req PlaceCallRequest) (PlaceCallResult, error) {
	if !d.IsConfigured() {
		return PlaceCallResult{}, ErrNotConfigured
	}

	payload := map[string]any{
		"connection_id": d.connectionID,
		"to":            req.To,
		"from":          d.fromNumber,
		"webhook_url":   d.publicBaseURL + "/webhooks/telnyx/amd?call_id=" + req.CallID,
		"answering_machine_detection": "premium",
	}
	amdCfg := map[string]any{}
	if req.DecisionTimeoutMs > 0 {
		amdCfg["total_analysis_time_millis"] = req.DecisionTimeoutMs
	}
	if req.WordCountThreshold > 0 {
		amdCfg["greeting_total_analysis_time_millis"] = req.DecisionTimeoutMs
		amdCfg["maximum_number_of_words"] = req.WordCountThreshold
	}
	if len(amdCfg) > 0 {
		payload["answering_machine_detection_config"] = amdCfg
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return PlaceCallResult{}, err
	}

	respBody, status, err := d.do(ctx, http.MethodPost, "/v2/calls", body)
	if err != nil {
		return PlaceCallResult{}, fmt.Errorf("telnyx call create failed: %w", err)
	}
	if status < 200 || status > 299 {
		// 422 is Telnyx's rejection of an unparseable destination.
		if status == http.StatusUnprocessableEntity {
			return PlaceCallResult{}, fmt.Errorf("%w: %s", ErrNumberRejected, truncateBody(respBody))
		}
		return PlaceCallResult{}, fmt.Errorf("telnyx call create failed: status %d: %s", status, truncateBody(respBody))
	}

	var created struct {
		Data struct {
			CallControlID string `json:"call_control_id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBody, &created); err != nil {
		return PlaceCallResult{}, fmt.Errorf("telnyx response parse failed: %w", err)
	}
	if created.Data.CallControlID == "" {
		return PlaceCallResult{}, fmt.Errorf("telnyx response missing call_control_id")
	}

	return PlaceCallResult{
		Provider:       d.Name(),
		ProviderCallID: created.Data.CallControlID,
		Raw:            string(respBody),
	}, nil
}

// Speak plays a TTS message on the live call.
func (d *TelnyxDialer) Speak(ctx context.Context, callControlID, text string) error {
	body, _ := json.Marshal(map[string]string{
		"payload":  text,
		"voice":    "female",
		"language": "en-US",
	})
	return d.command(ctx, callControlID, "speak", body)
}

// Hangup terminates the live call.
func (d *TelnyxDialer) Hangup(ctx context.Context, callControlID string) error {
	return d.command(ctx, callControlID, "hangup", []byte(`{}`))
}

// GatherUsingSpeak prompts the callee and opens a bounded speech capture
// window; the transcript arrives on the speech webhook.
func (d *TelnyxDialer) GatherUsingSpeak(ctx context.Context, callControlID, prompt string, timeout time.Duration) error {
	body, _ := json.Marshal(map[string]any{
		"payload":        prompt,
		"voice":          "female",
		"language":       "en-US",
		"timeout_millis": timeout.Milliseconds(),
	})
	return d.command(ctx, callControlID, "gather_using_speak", body)
}

func (d *TelnyxDialer) command(ctx context.Context, callControlID, action string, body []byte) error {
	path := fmt.Sprintf("/v2/calls/%s/actions/%s", callControlID, action)
	respBody, status, err := d.do(ctx, http.MethodPost, path, body)
	if err != nil {
		return fmt.Errorf("telnyx %s command failed: %w", action, err)
	}
	if status < 200 || status > 299 {
		return fmt.Errorf("telnyx %s command failed: status %d: %s", action, status, truncateBody(respBody))
	}
	return nil
}

func (d *TelnyxDialer) do(ctx context.Context, method, path string, body []byte) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, d.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+d.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return respBody, resp.StatusCode, nil
}

func truncateBody(b []byte) string {
	const max = 256
	s := string(b)
	if len(s) > max {
		return s[:max]
	}
	return s
}
