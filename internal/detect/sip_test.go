package detect

import (
	"context"
	"strings"
	"testing"

	"amd-dialer/internal/telephony"
)

func TestSIPFallbackWhenNotConfigured(t *testing.T) {
	native := NewNativeStrategy(newTwilioFake())
	s := NewSIPStrategy(&fakeDialer{name: "telnyx", configured: false}, native)

	res := s.ProcessCall(context.Background(), "+919876543210", "call-1")
	if res.Verdict != VerdictUndecided {
		t.Fatalf("fallback placement should succeed, got %s", res.Verdict)
	}
	if res.Metadata[MetaFallbackUsed] != true {
		t.Fatalf("expected fallback_used=true: %v", res.Metadata)
	}
	reason, _ := res.Metadata[MetaFallbackReason].(string)
	if !strings.Contains(reason, "not configured") {
		t.Fatalf("expected reason to mention missing config, got %q", reason)
	}
	if res.Metadata[MetaOriginalProvider] != "telnyx" || res.Metadata[MetaActualProvider] != "twilio" {
		t.Fatalf("expected provider annotations: %v", res.Metadata)
	}
}

func TestSIPFallbackWhenUnhealthy(t *testing.T) {
	native := NewNativeStrategy(newTwilioFake())
	sip := &fakeDialer{name: "telnyx", configured: true, healthErr: errUnavailable}
	s := NewSIPStrategy(sip, native)

	res := s.ProcessCall(context.Background(), "+15551234567", "call-1")
	if res.Metadata[MetaFallbackUsed] != true {
		t.Fatalf("expected fallback on failed health probe: %v", res.Metadata)
	}
	reason, _ := res.Metadata[MetaFallbackReason].(string)
	if !strings.Contains(reason, "health check failed") {
		t.Fatalf("unexpected reason %q", reason)
	}
	if len(sip.placed) != 0 {
		t.Fatalf("no placement should be attempted on an unhealthy provider")
	}
}

func TestSIPNumberVariantLadder(t *testing.T) {
	native := NewNativeStrategy(newTwilioFake())
	// Reject the canonical and bare forms; accept the national form.
	sip := &fakeDialer{
		name:       "telnyx",
		configured: true,
		callSid:    "cc-7",
		rejectTo:   map[string]bool{"+919876543210": true, "919876543210": true},
	}
	s := NewSIPStrategy(sip, native)

	res := s.ProcessCall(context.Background(), "+919876543210", "call-1")
	if res.Verdict != VerdictUndecided {
		t.Fatalf("expected placement success, got %s (%v)", res.Verdict, res.Metadata)
	}
	if res.Metadata[MetaTelnyxCallID] != "cc-7" {
		t.Fatalf("expected telnyx call id: %v", res.Metadata)
	}
	if res.Metadata[MetaNumberVariant] != "9876543210" {
		t.Fatalf("expected national variant to win, got %v", res.Metadata[MetaNumberVariant])
	}
	if _, ok := res.Metadata[MetaFallbackUsed]; ok {
		t.Fatalf("no fallback annotation expected on direct success")
	}
	if len(sip.placed) != 3 {
		t.Fatalf("expected 3 placement attempts, got %d", len(sip.placed))
	}
}

func TestSIPFallbackWhenAllVariantsRejected(t *testing.T) {
	native := NewNativeStrategy(newTwilioFake())
	sip := &fakeDialer{name: "telnyx", configured: true, placeErr: telephony.ErrNumberRejected}
	s := NewSIPStrategy(sip, native)

	res := s.ProcessCall(context.Background(), "+15551234567", "call-1")
	if res.Metadata[MetaFallbackUsed] != true {
		t.Fatalf("expected fallback after variant exhaustion: %v", res.Metadata)
	}
	reason, _ := res.Metadata[MetaFallbackReason].(string)
	if !strings.Contains(reason, "rejected all number formats") {
		t.Fatalf("unexpected reason %q", reason)
	}
}

func TestSIPFallbackMatchesNativeResult(t *testing.T) {
	// Under identical conditions the fallback result must be
	// indistinguishable from a direct native call, apart from the
	// fallback annotations.
	nativeDialer := newTwilioFake()
	native := NewNativeStrategy(nativeDialer)
	direct := native.ProcessCall(context.Background(), "+15551234567", "call-a")

	s := NewSIPStrategy(&fakeDialer{name: "telnyx"}, NewNativeStrategy(newTwilioFake()))
	viaFallback := s.ProcessCall(context.Background(), "+15551234567", "call-b")

	if direct.Verdict != viaFallback.Verdict || direct.Confidence != viaFallback.Confidence {
		t.Fatalf("fallback verdict diverges: direct %s@%v, fallback %s@%v",
			direct.Verdict, direct.Confidence, viaFallback.Verdict, viaFallback.Confidence)
	}
}

func TestSIPHandleWebhook(t *testing.T) {
	s := NewSIPStrategy(&fakeDialer{name: "telnyx", configured: true}, NewNativeStrategy(newTwilioFake()))
	ctx := context.Background()

	cases := []struct {
		result     string
		verdict    Verdict
		confidence float64
	}{
		{"human", VerdictHuman, 0.9},
		{"machine", VerdictMachine, 0.85},
		{"not_sure", VerdictTimeout, 0.5},
	}
	for _, tc := range cases {
		r := s.HandleWebhook(ctx, map[string]string{telephony.PayloadKeyAMDResult: tc.result})
		if r == nil || r.Verdict != tc.verdict || r.Confidence != tc.confidence {
			t.Fatalf("%s: got %+v", tc.result, r)
		}
	}

	if r := s.HandleWebhook(ctx, map[string]string{telephony.PayloadKeyCallState: "answered"}); r != nil {
		t.Fatalf("non-AMD payload must yield no signal")
	}
}

func TestNumberVariants(t *testing.T) {
	got := numberVariants("+919876543210")
	want := []string{"+919876543210", "919876543210", "9876543210"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("variant %d: got %s want %s", i, got[i], want[i])
		}
	}

	got = numberVariants("+15551234567")
	if got[2] != "5551234567" {
		t.Fatalf("expected US national variant, got %v", got)
	}
}
