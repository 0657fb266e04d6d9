package detect

import (
	"context"
	"fmt"
	"time"

	"amd-dialer/internal/telephony"
	"amd-dialer/pkg/logger"
)

const (
	mlProbeTimeout = 3 * time.Second

	// MLModelName identifies the classifier behind the inference service.
	MLModelName = "wav2vec-vm-finetune"
)

// MLProber is the slice of the inference client this strategy needs at
// placement time; classification of audio windows happens later in the
// reconciliation layer.
type MLProber interface {
	IsConfigured() bool
	HealthCheck(ctx context.Context) error
}

// StreamMLStrategy opens a live audio stream on the call and leaves the
// verdict to streaming classification. If the inference service is down
// at placement time it degrades to the native strategy, so no audio
// buffering is ever started for the call.
type StreamMLStrategy struct {
	ml       MLProber
	dialer   telephony.Dialer
	fallback *NativeStrategy
}

func NewStreamMLStrategy(ml MLProber, dialer telephony.Dialer, fallback *NativeStrategy) *StreamMLStrategy {
	return &StreamMLStrategy{ml: ml, dialer: dialer, fallback: fallback}
}

func (s *StreamMLStrategy) ID() ID { return StrategyStreamingML }

func (s *StreamMLStrategy) ProcessCall(ctx context.Context, number, callID string) Result {
	log := logger.From(ctx)

	if s.ml == nil || !s.ml.IsConfigured() {
		return s.fallbackCall(ctx, number, callID, "ml inference service not configured")
	}

	probeCtx, cancel := context.WithTimeout(ctx, mlProbeTimeout)
	err := s.ml.HealthCheck(probeCtx)
	cancel()
	if err != nil {
		log.Warn("ml inference service unhealthy, falling back", "err", err)
		return s.fallbackCall(ctx, number, callID, fmt.Sprintf("ml inference service unavailable: %v", err))
	}

	res, err := s.dialer.PlaceCall(ctx, telephony.PlaceCallRequest{
		To:          number,
		CallID:      callID,
		MediaStream: true,
	})
	if err != nil {
		return placementError(err)
	}

	return NewResult(VerdictUndecided, 0, map[string]any{
		MetaProvider:         res.Provider,
		MetaAnalysis:         AnalysisStreamingML,
		MetaModel:            MLModelName,
		MetaStreamingEnabled: true,
		MetaTwilioCallSid:    res.ProviderCallID,
	})
}

// HandleWebhook delegates to the native mapping: the call transport is
// still the native provider, so out-of-band status events look the same.
func (s *StreamMLStrategy) HandleWebhook(ctx context.Context, payload map[string]string) *Result {
	return s.fallback.HandleWebhook(ctx, payload)
}

func (s *StreamMLStrategy) fallbackCall(ctx context.Context, number, callID, reason string) Result {
	res := s.fallback.ProcessCall(ctx, number, callID)
	res.Metadata[MetaFallbackUsed] = true
	res.Metadata[MetaFallbackReason] = reason
	res.Metadata[MetaOriginalProvider] = "ml_inference"
	res.Metadata[MetaActualProvider] = "twilio"
	return res
}

// ResultFromPrediction maps an inference label into the verdict set.
// The classifier only distinguishes live speech from recorded greetings,
// so any non-human label counts as machine.
func ResultFromPrediction(label string, confidence float64) Result {
	meta := map[string]any{
		MetaProvider: "ml_inference",
		MetaAnalysis: AnalysisStreamingML,
		MetaModel:    MLModelName,
	}
	if label == "human" {
		return NewResult(VerdictHuman, confidence, meta)
	}
	return NewResult(VerdictMachine, confidence, meta)
}
