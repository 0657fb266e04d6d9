package telephony

import (
	"strings"
	"testing"
)

func TestRenderTwiMLSayHangup(t *testing.T) {
	out, err := RenderTwiML(Say("Thank you, goodbye."), Hangup())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(out, "<Say>Thank you, goodbye.</Say>") {
		t.Fatalf("missing Say verb: %s", out)
	}
	if !strings.Contains(out, "<Hangup>") {
		t.Fatalf("missing Hangup verb: %s", out)
	}
}

func TestRenderTwiMLGatherSpeech(t *testing.T) {
	out, err := RenderTwiML(GatherSpeech("Hello, are you there?", "/webhooks/twilio/speech", 5), Hangup())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(out, `input="speech"`) {
		t.Fatalf("gather must use speech input: %s", out)
	}
	if !strings.Contains(out, `action="/webhooks/twilio/speech"`) {
		t.Fatalf("gather must carry action url: %s", out)
	}
	if !strings.Contains(out, "Hello, are you there?") {
		t.Fatalf("gather must nest the prompt: %s", out)
	}
}

func TestRenderTwiMLStream(t *testing.T) {
	out, err := RenderTwiML(StartStream("wss://example.com/webhooks/twilio/media"), Pause(10))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(out, `url="wss://example.com/webhooks/twilio/media"`) {
		t.Fatalf("missing stream url: %s", out)
	}
	if !strings.Contains(out, `length="10"`) {
		t.Fatalf("missing pause length: %s", out)
	}
}
