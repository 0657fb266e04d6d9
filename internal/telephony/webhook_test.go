package telephony

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseTwilioStatus(t *testing.T) {
	body := strings.NewReader("CallSid=CA123&CallStatus=completed&AnsweredBy=machine_end_beep&CallDuration=42")
	r := httptest.NewRequest(http.MethodPost, "/webhooks/twilio/status", body)
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	form, err := ParseTwilioStatus(r)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if form.CallSid != "CA123" || form.CallStatus != "completed" {
		t.Fatalf("unexpected form: %+v", form)
	}

	p := form.Payload()
	if p[PayloadKeyProvider] != "twilio" {
		t.Fatalf("expected twilio provider, got %q", p[PayloadKeyProvider])
	}
	if p[PayloadKeyAnsweredBy] != "machine_end_beep" {
		t.Fatalf("expected answered_by in payload")
	}
	if p[PayloadKeyDuration] != "42" {
		t.Fatalf("expected duration in payload")
	}
}

func TestParseTwilioStatusOmitsEmptyFields(t *testing.T) {
	body := strings.NewReader("CallSid=CA123&CallStatus=ringing")
	r := httptest.NewRequest(http.MethodPost, "/webhooks/twilio/status", body)
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	form, _ := ParseTwilioStatus(r)
	p := form.Payload()
	if _, ok := p[PayloadKeyAnsweredBy]; ok {
		t.Fatalf("AnsweredBy must be absent when Twilio sent none")
	}
}

func TestParseTwilioSpeech(t *testing.T) {
	body := strings.NewReader("CallSid=CA123&SpeechResult=hello+who+is+this&Confidence=0.91")
	r := httptest.NewRequest(http.MethodPost, "/webhooks/twilio/speech", body)
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	form, err := ParseTwilioSpeech(r)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if form.SpeechResult != "hello who is this" {
		t.Fatalf("unexpected transcript %q", form.SpeechResult)
	}
}

func TestParseTelnyxEvent(t *testing.T) {
	body := strings.NewReader(`{"data":{"event_type":"call.machine.detection.ended","payload":{"call_control_id":"cc-1","result":"human"}}}`)
	r := httptest.NewRequest(http.MethodPost, "/webhooks/telnyx/amd", body)
	r.Header.Set("Content-Type", "application/json")

	ev, err := ParseTelnyxEvent(r)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if ev.EventType != "call.machine.detection.ended" || ev.CallControlID != "cc-1" || ev.Result != "human" {
		t.Fatalf("unexpected event: %+v", ev)
	}

	p := ev.Payload()
	if p[PayloadKeyProvider] != "telnyx" || p[PayloadKeyAMDResult] != "human" {
		t.Fatalf("unexpected payload: %v", p)
	}
}

func TestParseTelnyxEventMalformed(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/webhooks/telnyx/amd", strings.NewReader("not-json"))
	if _, err := ParseTelnyxEvent(r); err == nil {
		t.Fatalf("expected parse error")
	}
}
