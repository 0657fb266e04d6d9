package reconcile

import (
	"testing"

	"amd-dialer/internal/calls"
	"amd-dialer/internal/telephony"
)

func TestStatusFromTwilioPayload(t *testing.T) {
	cases := []struct {
		in   string
		want calls.Status
	}{
		{"queued", calls.StatusInitiated},
		{"ringing", calls.StatusRinging},
		{"in-progress", calls.StatusAnswered},
		{"completed", calls.StatusCompleted},
		{"busy", calls.StatusFailed},
		{"no-answer", calls.StatusFailed},
		{"canceled", calls.StatusCancelled},
	}
	for _, tc := range cases {
		got, ok := statusFromPayload(map[string]string{telephony.PayloadKeyCallStatus: tc.in})
		if !ok || got != tc.want {
			t.Fatalf("%s: got %s ok=%v", tc.in, got, ok)
		}
	}

	if _, ok := statusFromPayload(map[string]string{telephony.PayloadKeyCallStatus: "something-new"}); ok {
		t.Fatalf("unknown status must map to nothing")
	}
}

func TestStatusFromTelnyxPayload(t *testing.T) {
	got, ok := statusFromPayload(map[string]string{telephony.PayloadKeyEventType: "call.answered"})
	if !ok || got != calls.StatusAnswered {
		t.Fatalf("got %s ok=%v", got, ok)
	}

	got, ok = statusFromPayload(map[string]string{
		telephony.PayloadKeyEventType:   "call.hangup",
		telephony.PayloadKeyHangupCause: "normal_clearing",
	})
	if !ok || got != calls.StatusCompleted {
		t.Fatalf("normal hangup: got %s ok=%v", got, ok)
	}

	got, ok = statusFromPayload(map[string]string{
		telephony.PayloadKeyEventType:   "call.hangup",
		telephony.PayloadKeyHangupCause: "call_rejected",
	})
	if !ok || got != calls.StatusFailed {
		t.Fatalf("rejected hangup: got %s ok=%v", got, ok)
	}

	if _, ok := statusFromPayload(map[string]string{telephony.PayloadKeyEventType: "call.machine.premium.detection.ended"}); ok {
		t.Fatalf("amd events carry no lifecycle signal")
	}
}

func TestAdvanceStatus(t *testing.T) {
	if got := advanceStatus(calls.StatusRinging, calls.StatusAnswered); got != calls.StatusAnswered {
		t.Fatalf("got %s", got)
	}
	if got := advanceStatus(calls.StatusCompleted, calls.StatusRinging); got != calls.StatusCompleted {
		t.Fatalf("regressed to %s", got)
	}
	if got := advanceStatus(calls.StatusCompleted, calls.StatusFailed); got != calls.StatusCompleted {
		t.Fatalf("terminal flip to %s", got)
	}
}
