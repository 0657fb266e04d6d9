package detect

import (
	"context"
	"strings"
	"testing"
)

func TestStreamMLProcessCallHealthy(t *testing.T) {
	twilio := newTwilioFake()
	s := NewStreamMLStrategy(&fakeProber{configured: true}, twilio, NewNativeStrategy(newTwilioFake()))

	res := s.ProcessCall(context.Background(), "+15551234567", "call-1")
	if res.Verdict != VerdictUndecided {
		t.Fatalf("expected undecided, got %s", res.Verdict)
	}
	if res.Metadata[MetaStreamingEnabled] != true || res.Metadata[MetaModel] != MLModelName {
		t.Fatalf("expected streaming metadata: %v", res.Metadata)
	}
	if len(twilio.placed) != 1 || !twilio.placed[0].MediaStream {
		t.Fatalf("expected a media-stream placement, got %+v", twilio.placed)
	}
	if twilio.placed[0].MachineDetection {
		t.Fatalf("native AMD must stay off when streaming classification is active")
	}
}

func TestStreamMLFallbackWhenUnhealthy(t *testing.T) {
	streamDialer := newTwilioFake()
	s := NewStreamMLStrategy(&fakeProber{configured: true, healthErr: errUnavailable}, streamDialer, NewNativeStrategy(newTwilioFake()))

	res := s.ProcessCall(context.Background(), "+15551234567", "call-1")
	if res.Metadata[MetaFallbackUsed] != true {
		t.Fatalf("expected fallback: %v", res.Metadata)
	}
	reason, _ := res.Metadata[MetaFallbackReason].(string)
	if !strings.Contains(reason, "unavailable") {
		t.Fatalf("unexpected reason %q", reason)
	}
	// The streaming placement path must never run, so no audio
	// buffering is ever initiated for this call.
	if len(streamDialer.placed) != 0 {
		t.Fatalf("stream placement attempted despite fallback")
	}
	if res.Metadata[MetaStreamingEnabled] == true {
		t.Fatalf("fallback result must not mark streaming enabled")
	}
}

func TestStreamMLFallbackWhenUnconfigured(t *testing.T) {
	s := NewStreamMLStrategy(&fakeProber{configured: false}, newTwilioFake(), NewNativeStrategy(newTwilioFake()))
	res := s.ProcessCall(context.Background(), "+15551234567", "call-1")
	if res.Metadata[MetaFallbackUsed] != true {
		t.Fatalf("expected fallback when inference service unconfigured")
	}
}

func TestResultFromPrediction(t *testing.T) {
	r := ResultFromPrediction("human", 0.93)
	if r.Verdict != VerdictHuman || r.Confidence != 0.93 {
		t.Fatalf("got %+v", r)
	}
	r = ResultFromPrediction("voicemail", 0.88)
	if r.Verdict != VerdictMachine {
		t.Fatalf("voicemail label must map to machine, got %s", r.Verdict)
	}
	if r.Metadata[MetaAnalysis] != AnalysisStreamingML {
		t.Fatalf("expected streaming analysis metadata")
	}
}
