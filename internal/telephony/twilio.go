package telephony

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	twilioBaseURL     = "https://api.twilio.com"
	twilioHTTPTimeout = 15 * time.Second

	// Twilio error codes we translate into sentinel errors.
	twilioErrInvalidTo        = 21211
	twilioErrTrialUnverified  = 21219
	twilioErrIntlNotPermitted = 21608
)

// TwilioDialer places calls through the Twilio REST API.
// No SDK dependency; the API surface we need is a single form POST.
type TwilioDialer struct {
	accountSID string
	authToken  string
	fromNumber string

	// publicBaseURL is this service's externally reachable base URL,
	// used to build status/speech/media callback URLs.
	publicBaseURL string

	baseURL    string
	httpClient *http.Client
}

func NewTwilioDialer(accountSID, authToken, fromNumber, publicBaseURL string) *TwilioDialer {
	return &TwilioDialer{
		accountSID:    accountSID,
		authToken:     authToken,
		fromNumber:    fromNumber,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		baseURL:       twilioBaseURL,
		httpClient:    &http.Client{Timeout: twilioHTTPTimeout},
	}
}

// WithBaseURL points the adapter at a non-default API host (tests).
func (d *TwilioDialer) WithBaseURL(u string) *TwilioDialer {
	d.baseURL = strings.TrimRight(u, "/")
	return d
}

func (d *TwilioDialer) Name() string { return "twilio" }

func (d *TwilioDialer) IsConfigured() bool {
	return d.accountSID != "" && d.authToken != "" && d.fromNumber != ""
}

func (d *TwilioDialer) HealthCheck(ctx context.Context) error {
	if !d.IsConfigured() {
		return ErrNotConfigured
	}
	u := fmt.Sprintf("%s/2010-04-01/Accounts/%s.json", d.baseURL, d.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(d.accountSID, d.authToken)
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("twilio health check failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("twilio health check failed: status %d", resp.StatusCode)
	}
	return nil
}

func (d *TwilioDialer) PlaceCall(ctx context.Context, req PlaceCallRequest) (PlaceCallResult, error) {
	if !d.IsConfigured() {
		return PlaceCallResult{}, ErrNotConfigured
	}

	twiml, err := d.answerTwiML(req)
	if err != nil {
		return PlaceCallResult{}, err
	}

	statusCallback := d.publicBaseURL + "/webhooks/twilio/status?call_id=" + url.QueryEscape(req.CallID)

	form := url.Values{}
	form.Set("To", req.To)
	form.Set("From", d.fromNumber)
	form.Set("Twiml", twiml)
	form.Set("StatusCallback", statusCallback)
	form.Set("StatusCallbackMethod", "POST")
	for _, ev := range []string{"initiated", "ringing", "answered", "completed"} {
		form.Add("StatusCallbackEvent", ev)
	}

	if req.MachineDetection {
		// Async AMD keeps the call leg responsive while analysis runs;
		// the classification arrives on the status callback as AnsweredBy.
		form.Set("MachineDetection", "Enable")
		form.Set("AsyncAmd", "true")
		form.Set("AsyncAmdStatusCallback", statusCallback)
		form.Set("AsyncAmdStatusCallbackMethod", "POST")
		if req.DetectionTimeoutSec > 0 {
			form.Set("MachineDetectionTimeout", strconv.Itoa(req.DetectionTimeoutSec))
		}
		if req.SpeechThresholdMs > 0 {
			form.Set("MachineDetectionSpeechThreshold", strconv.Itoa(req.SpeechThresholdMs))
		}
		if req.SpeechEndThresholdMs > 0 {
			form.Set("MachineDetectionSpeechEndThreshold", strconv.Itoa(req.SpeechEndThresholdMs))
		}
		if req.SilenceTimeoutMs > 0 {
			form.Set("MachineDetectionSilenceTimeout", strconv.Itoa(req.SilenceTimeoutMs))
		}
	}

	u := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Calls.json", d.baseURL, d.accountSID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(form.Encode()))
	if err != nil {
		return PlaceCallResult{}, err
	}
	httpReq.SetBasicAuth(d.accountSID, d.authToken)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		return PlaceCallResult{}, fmt.Errorf("twilio call create failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return PlaceCallResult{}, fmt.Errorf("twilio response read failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return PlaceCallResult{}, d.translateError(resp.StatusCode, body)
	}

	var created struct {
		Sid string `json:"sid"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return PlaceCallResult{}, fmt.Errorf("twilio response parse failed: %w", err)
	}
	if created.Sid == "" {
		return PlaceCallResult{}, fmt.Errorf("twilio response missing call sid")
	}

	return PlaceCallResult{
		Provider:       d.Name(),
		ProviderCallID: created.Sid,
		Raw:            string(body),
	}, nil
}

// UpdateCall replaces the TwiML executing on a live call leg. Used to
// steer the call after an asynchronous detection result (speak, probe,
// or hang up).
func (d *TwilioDialer) UpdateCall(ctx context.Context, callSid, twiml string) error {
	if !d.IsConfigured() {
		return ErrNotConfigured
	}

	form := url.Values{}
	form.Set("Twiml", twiml)

	u := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Calls/%s.json", d.baseURL, d.accountSID, url.PathEscape(callSid))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	httpReq.SetBasicAuth(d.accountSID, d.authToken)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("twilio call update failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return d.translateError(resp.StatusCode, body)
	}
	return nil
}

// answerTwiML builds the inline document executed when the callee answers.
// The default is a neutral hold; strategies layer a media stream or a
// speech gather on top of it.
func (d *TwilioDialer) answerTwiML(req PlaceCallRequest) (string, error) {
	var verbs []any
	switch {
	case req.MediaStream:
		verbs = append(verbs,
			StartStream(d.mediaStreamURL(req.CallID)),
			Say("Hello, please hold for a moment."),
			Pause(10),
		)
	case req.GatherSpeech:
		verbs = append(verbs,
			GatherSpeech("Hello, who am I speaking with?", d.publicBaseURL+"/webhooks/twilio/speech?call_id="+url.QueryEscape(req.CallID), 5),
			Hangup(),
		)
	default:
		verbs = append(verbs,
			Say("Please hold."),
			Pause(8),
		)
	}
	return RenderTwiML(verbs...)
}

func (d *TwilioDialer) mediaStreamURL(callID string) string {
	ws := strings.Replace(d.publicBaseURL, "https://", "wss://", 1)
	ws = strings.Replace(ws, "http://", "ws://", 1)
	return ws + "/webhooks/twilio/media?call_id=" + url.QueryEscape(callID)
}

func (d *TwilioDialer) translateError(status int, body []byte) error {
	var apiErr struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &apiErr)

	switch apiErr.Code {
	case twilioErrTrialUnverified, twilioErrIntlNotPermitted:
		return fmt.Errorf("%w: %s", ErrUnverifiedNumber, apiErr.Message)
	case twilioErrInvalidTo:
		return fmt.Errorf("%w: %s", ErrNumberRejected, apiErr.Message)
	}
	if apiErr.Message != "" {
		return fmt.Errorf("twilio call create failed: status %d: %s", status, apiErr.Message)
	}
	return fmt.Errorf("twilio call create failed: status %d", status)
}
