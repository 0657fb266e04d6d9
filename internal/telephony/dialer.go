package telephony

import (
	"context"
	"errors"
)

// Dialer is the provider-agnostic outbound call contract used by the
// detection strategies.
//
// Rules:
// - No provider SDK calls outside telephony adapters.
// - Keep request/response types provider-agnostic; raw provider payloads
//   belong in call metadata, not in these types.
// - Every network call must honor the caller's context deadline.
type Dialer interface {
	Name() string
	HealthCheck(ctx context.Context) error
	PlaceCall(ctx context.Context, req PlaceCallRequest) (PlaceCallResult, error)
}

// Sentinel errors adapters translate provider failures into so callers can
// branch without knowing provider error formats.
var (
	// ErrNotConfigured means required credentials/endpoints are absent.
	ErrNotConfigured = errors.New("telephony: provider not configured")

	// ErrNumberRejected means the provider refused the destination number
	// format. Callers may retry with an alternate format.
	ErrNumberRejected = errors.New("telephony: number rejected by provider")

	// ErrUnverifiedNumber means a trial account restriction blocked the
	// destination (the number is not verified with the provider).
	ErrUnverifiedNumber = errors.New("telephony: destination not verified for trial account")
)

// PlaceCallRequest describes an outbound call with optional machine
// detection and analysis hooks.
type PlaceCallRequest struct {
	// To is the destination in canonical E.164-like form.
	To string
	// CallID is the internal call identifier, threaded through provider
	// callbacks so events can be correlated without a lookup.
	CallID string

	// MachineDetection enables the provider's native AMD.
	MachineDetection bool
	// DetectionTimeoutSec bounds how long the provider analyzes the answer.
	DetectionTimeoutSec int
	// SpeechThresholdMs and SpeechEndThresholdMs tune greeting analysis.
	SpeechThresholdMs    int
	SpeechEndThresholdMs int
	// SilenceTimeoutMs is the max initial silence before giving up.
	SilenceTimeoutMs int

	// WordCountThreshold and DecisionTimeoutMs are the enhanced AMD knobs
	// honored by SIP-capable providers only.
	WordCountThreshold int
	DecisionTimeoutMs  int

	// MediaStream opens a live audio stream to the media websocket endpoint.
	MediaStream bool
	// GatherSpeech collects a speech transcript after answer.
	GatherSpeech bool
}

// PlaceCallResult reports a successfully created call leg.
type PlaceCallResult struct {
	// Provider is the adapter name that carried the call.
	Provider string
	// ProviderCallID is the provider-assigned identifier for the leg.
	ProviderCallID string
	// Raw is the provider response body, kept for audit metadata.
	Raw string
}
