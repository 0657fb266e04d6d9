package detect

import (
	"context"
	"fmt"
)

// ID identifies one of the four detection strategies. Immutable per call;
// it selects both the placement behavior and the webhook handler that
// interprets provider events for that call.
type ID string

const (
	StrategyNative      ID = "native_amd"
	StrategySIPEnhanced ID = "sip_amd"
	StrategyStreamingML ID = "streaming_ml"
	StrategyLLM         ID = "llm_transcript"
)

// ParseID validates a strategy identifier from user input.
func ParseID(s string) (ID, error) {
	switch ID(s) {
	case StrategyNative, StrategySIPEnhanced, StrategyStreamingML, StrategyLLM:
		return ID(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

// Strategy is the capability contract every detection strategy satisfies.
type Strategy interface {
	ID() ID

	// ProcessCall places the outbound call and returns a provisional
	// result, almost always UNDECIDED with provenance metadata. Failures
	// are reported as an ERROR result, never panics.
	ProcessCall(ctx context.Context, number, callID string) Result

	// HandleWebhook interprets a provider callback payload. A nil return
	// means the payload carries no detection signal and existing call
	// state must be left untouched.
	HandleWebhook(ctx context.Context, payload map[string]string) *Result
}
