package detect

import (
	"context"
	"errors"
	"strings"

	"amd-dialer/internal/telephony"
)

// Native AMD tuning. These are operational constants, not user settings;
// they mirror what the provider's detection pipeline expects.
const (
	nativeDetectionTimeoutSec    = 5
	nativeSpeechThresholdMs      = 2400
	nativeSpeechEndThresholdMs   = 1200
	nativeSilenceTimeoutMs       = 5000
	nativeConfidenceHuman        = 0.85
	nativeConfidenceMachine      = 0.8
	nativeConfidenceFax          = 0.9
	nativeConfidenceInconclusive = 0.3
)

// NativeStrategy uses the baseline provider's built-in machine detection.
// It is also the universal fallback target for the other strategies.
type NativeStrategy struct {
	dialer telephony.Dialer
}

func NewNativeStrategy(dialer telephony.Dialer) *NativeStrategy {
	return &NativeStrategy{dialer: dialer}
}

func (s *NativeStrategy) ID() ID { return StrategyNative }

func (s *NativeStrategy) ProcessCall(ctx context.Context, number, callID string) Result {
	res, err := s.dialer.PlaceCall(ctx, telephony.PlaceCallRequest{
		To:                   number,
		CallID:               callID,
		MachineDetection:     true,
		DetectionTimeoutSec:  nativeDetectionTimeoutSec,
		SpeechThresholdMs:    nativeSpeechThresholdMs,
		SpeechEndThresholdMs: nativeSpeechEndThresholdMs,
		SilenceTimeoutMs:     nativeSilenceTimeoutMs,
	})
	if err != nil {
		return placementError(err)
	}

	return NewResult(VerdictUndecided, 0, map[string]any{
		MetaProvider:      res.Provider,
		MetaAnalysis:      AnalysisNativeAMD,
		MetaTwilioCallSid: res.ProviderCallID,
	})
}

// HandleWebhook maps the provider's AnsweredBy classification into the
// closed verdict set. A payload without AnsweredBy carries no AMD signal.
func (s *NativeStrategy) HandleWebhook(ctx context.Context, payload map[string]string) *Result {
	answeredBy := payload[telephony.PayloadKeyAnsweredBy]
	if answeredBy == "" {
		return nil
	}

	meta := map[string]any{
		MetaProvider:   "twilio",
		MetaAnalysis:   AnalysisNativeAMD,
		MetaAnsweredBy: answeredBy,
	}

	var r Result
	switch {
	case answeredBy == "human":
		r = NewResult(VerdictHuman, nativeConfidenceHuman, meta)
	case answeredBy == "fax":
		// Fax tones are unambiguous.
		r = NewResult(VerdictMachine, nativeConfidenceFax, meta)
	case answeredBy == "machine" || strings.HasPrefix(answeredBy, "machine_"):
		r = NewResult(VerdictMachine, nativeConfidenceMachine, meta)
	default:
		// A signal arrived but was inconclusive. Distinct from "no
		// signal", which returns nil above.
		r = NewResult(VerdictUndecided, nativeConfidenceInconclusive, meta)
	}
	return &r
}

// placementError maps dialer failures into ERROR results with a stable
// cause tag so operators can distinguish configuration problems from
// provider rejections.
func placementError(err error) Result {
	meta := map[string]any{}
	switch {
	case errors.Is(err, telephony.ErrNotConfigured):
		meta[MetaErrorCause] = "provider_not_configured"
	case errors.Is(err, telephony.ErrUnverifiedNumber):
		meta[MetaErrorCause] = "trial_account_unverified_number"
	case errors.Is(err, telephony.ErrNumberRejected):
		meta[MetaErrorCause] = "number_rejected"
	default:
		meta[MetaErrorCause] = "placement_failed"
	}
	return ErrorResult(err, meta)
}
