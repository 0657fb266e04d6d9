package telephony

import (
	"encoding/json"
	"io"
	"net/http"
)

// Webhook parsing only; no decisions are made here. Each parser flattens
// the provider payload into the string map the detection strategies
// consume, so strategy code never sees provider wire formats.

// Canonical payload keys shared by both providers.
const (
	PayloadKeyProvider    = "provider"
	PayloadKeyCallSid     = "CallSid"
	PayloadKeyCallStatus  = "CallStatus"
	PayloadKeyAnsweredBy  = "AnsweredBy"
	PayloadKeyDuration    = "CallDuration"
	PayloadKeyEventType   = "event_type"
	PayloadKeyControlID   = "call_control_id"
	PayloadKeyAMDResult   = "amd_result"
	PayloadKeyCallState   = "call_state"
	PayloadKeyHangupCause = "hangup_cause"
)

// TwilioStatusForm captures the status-callback fields the AMD flow uses.
// Twilio posts application/x-www-form-urlencoded.
type TwilioStatusForm struct {
	CallSid        string
	CallStatus     string
	AnsweredBy     string
	CallDuration   string
	To             string
	From           string
	SequenceNumber string
}

func ParseTwilioStatus(r *http.Request) (TwilioStatusForm, error) {
	if err := r.ParseForm(); err != nil {
		return TwilioStatusForm{}, err
	}
	return TwilioStatusForm{
		CallSid:        r.PostFormValue("CallSid"),
		CallStatus:     r.PostFormValue("CallStatus"),
		AnsweredBy:     r.PostFormValue("AnsweredBy"),
		CallDuration:   r.PostFormValue("CallDuration"),
		To:             r.PostFormValue("To"),
		From:           r.PostFormValue("From"),
		SequenceNumber: r.PostFormValue("SequenceNumber"),
	}, nil
}

func (f TwilioStatusForm) Payload() map[string]string {
	p := map[string]string{
		PayloadKeyProvider: "twilio",
		PayloadKeyCallSid:  f.CallSid,
	}
	if f.CallStatus != "" {
		p[PayloadKeyCallStatus] = f.CallStatus
	}
	if f.AnsweredBy != "" {
		p[PayloadKeyAnsweredBy] = f.AnsweredBy
	}
	if f.CallDuration != "" {
		p[PayloadKeyDuration] = f.CallDuration
	}
	return p
}

// TwilioSpeechForm captures a Gather speech result.
type TwilioSpeechForm struct {
	CallSid      string
	SpeechResult string
	Confidence   string
}

func ParseTwilioSpeech(r *http.Request) (TwilioSpeechForm, error) {
	if err := r.ParseForm(); err != nil {
		return TwilioSpeechForm{}, err
	}
	return TwilioSpeechForm{
		CallSid:      r.PostFormValue("CallSid"),
		SpeechResult: r.PostFormValue("SpeechResult"),
		Confidence:   r.PostFormValue("Confidence"),
	}, nil
}

// TwilioRecordingForm captures a recording-complete callback.
type TwilioRecordingForm struct {
	CallSid           string
	RecordingSid      string
	RecordingURL      string
	RecordingDuration string
}

func ParseTwilioRecording(r *http.Request) (TwilioRecordingForm, error) {
	if err := r.ParseForm(); err != nil {
		return TwilioRecordingForm{}, err
	}
	return TwilioRecordingForm{
		CallSid:           r.PostFormValue("CallSid"),
		RecordingSid:      r.PostFormValue("RecordingSid"),
		RecordingURL:      r.PostFormValue("RecordingUrl"),
		RecordingDuration: r.PostFormValue("RecordingDuration"),
	}, nil
}

// TelnyxEvent is the subset of the Call Control webhook envelope we use.
// Telnyx posts JSON: {"data": {"event_type": ..., "payload": {...}}}.
type TelnyxEvent struct {
	EventType     string
	CallControlID string
	// Result is the AMD outcome: human, machine, not_sure.
	Result      string
	State       string
	HangupCause string
	// Transcript is populated on gather/transcription events.
	Transcript string
}

func ParseTelnyxEvent(r *http.Request) (TelnyxEvent, error) {
	body, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, 1<<20))
	if err != nil {
		return TelnyxEvent{}, err
	}
	var envelope struct {
		Data struct {
			EventType string `json:"event_type"`
			Payload   struct {
				CallControlID string `json:"call_control_id"`
				Result        string `json:"result"`
				State         string `json:"state"`
				HangupCause   string `json:"hangup_cause"`
				Transcript    string `json:"transcript"`
				Speech        string `json:"speech"`
			} `json:"payload"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return TelnyxEvent{}, err
	}
	ev := TelnyxEvent{
		EventType:     envelope.Data.EventType,
		CallControlID: envelope.Data.Payload.CallControlID,
		Result:        envelope.Data.Payload.Result,
		State:         envelope.Data.Payload.State,
		HangupCause:   envelope.Data.Payload.HangupCause,
		Transcript:    envelope.Data.Payload.Transcript,
	}
	if ev.Transcript == "" {
		ev.Transcript = envelope.Data.Payload.Speech
	}
	return ev, nil
}

func (e TelnyxEvent) Payload() map[string]string {
	p := map[string]string{
		PayloadKeyProvider:  "telnyx",
		PayloadKeyEventType: e.EventType,
		PayloadKeyControlID: e.CallControlID,
	}
	if e.Result != "" {
		p[PayloadKeyAMDResult] = e.Result
	}
	if e.State != "" {
		p[PayloadKeyCallState] = e.State
	}
	if e.HangupCause != "" {
		p[PayloadKeyHangupCause] = e.HangupCause
	}
	return p
}
