package detect

import (
	"context"
	"fmt"
	"strings"
	"time"

	"amd-dialer/internal/telephony"
	"amd-dialer/pkg/logger"
)

// Enhanced AMD tuning for the SIP-capable provider.
const (
	sipWordCountThreshold = 3
	sipDecisionTimeoutMs  = 5000
	sipProbeTimeout       = 3 * time.Second

	sipConfidenceHuman   = 0.9
	sipConfidenceMachine = 0.85
	sipConfidenceTimeout = 0.5
)

// SIPDialer is the alternate-provider surface this strategy needs beyond
// the generic dialer: a cheap configuration check to short-circuit the
// degradation ladder.
type SIPDialer interface {
	telephony.Dialer
	IsConfigured() bool
}

// SIPStrategy attempts placement through the SIP-capable provider with
// enhanced AMD, degrading deterministically to the native strategy:
// missing config -> fallback; failed health probe -> fallback; all
// number-format variants rejected -> fallback.
type SIPStrategy struct {
	sip      SIPDialer
	fallback *NativeStrategy
}

func NewSIPStrategy(sip SIPDialer, fallback *NativeStrategy) *SIPStrategy {
	return &SIPStrategy{sip: sip, fallback: fallback}
}

func (s *SIPStrategy) ID() ID { return StrategySIPEnhanced }

func (s *SIPStrategy) ProcessCall(ctx context.Context, number, callID string) Result {
	log := logger.From(ctx)

	if s.sip == nil || !s.sip.IsConfigured() {
		return s.fallbackCall(ctx, number, callID, "telnyx not configured")
	}

	probeCtx, cancel := context.WithTimeout(ctx, sipProbeTimeout)
	err := s.sip.HealthCheck(probeCtx)
	cancel()
	if err != nil {
		log.Warn("sip provider unhealthy, falling back", "err", err)
		return s.fallbackCall(ctx, number, callID, fmt.Sprintf("telnyx health check failed: %v", err))
	}

	// The alternate provider's number parsing is stricter than our
	// canonical form; try a small ordered set of format variants.
	var lastErr error
	for _, variant := range numberVariants(number) {
		res, err := s.sip.PlaceCall(ctx, telephony.PlaceCallRequest{
			To:                 variant,
			CallID:             callID,
			WordCountThreshold: sipWordCountThreshold,
			DecisionTimeoutMs:  sipDecisionTimeoutMs,
		})
		if err != nil {
			lastErr = err
			log.Debug("sip placement variant rejected", "variant", variant, "err", err)
			continue
		}
		return NewResult(VerdictUndecided, 0, map[string]any{
			MetaProvider:      res.Provider,
			MetaAnalysis:      AnalysisSIPAMD,
			MetaTelnyxCallID:  res.ProviderCallID,
			MetaNumberVariant: variant,
		})
	}

	return s.fallbackCall(ctx, number, callID, fmt.Sprintf("telnyx rejected all number formats: %v", lastErr))
}

// HandleWebhook recognizes the provider's three AMD signals. Any other
// payload shape carries no signal for this strategy.
func (s *SIPStrategy) HandleWebhook(ctx context.Context, payload map[string]string) *Result {
	result := payload[telephony.PayloadKeyAMDResult]
	if result == "" {
		return nil
	}

	meta := map[string]any{
		MetaProvider: "telnyx",
		MetaAnalysis: AnalysisSIPAMD,
	}

	var r Result
	switch result {
	case "human":
		r = NewResult(VerdictHuman, sipConfidenceHuman, meta)
	case "machine":
		r = NewResult(VerdictMachine, sipConfidenceMachine, meta)
	case "not_sure", "timeout":
		r = NewResult(VerdictTimeout, sipConfidenceTimeout, meta)
	default:
		return nil
	}
	return &r
}

// fallbackCall delegates entirely to the native strategy and annotates
// the result so the degradation is auditable without changing how the
// caller processes it.
func (s *SIPStrategy) fallbackCall(ctx context.Context, number, callID, reason string) Result {
	res := s.fallback.ProcessCall(ctx, number, callID)
	res.Metadata[MetaFallbackUsed] = true
	res.Metadata[MetaFallbackReason] = reason
	res.Metadata[MetaOriginalProvider] = "telnyx"
	res.Metadata[MetaActualProvider] = "twilio"
	return res
}

// numberVariants returns the ordered placement formats: canonical, bare
// digits, and national digits with the country code stripped.
func numberVariants(number string) []string {
	variants := []string{number}

	bare := strings.TrimPrefix(number, "+")
	if bare != number {
		variants = append(variants, bare)
	}

	switch {
	case strings.HasPrefix(number, "+91") && len(number) == 13:
		variants = append(variants, number[3:])
	case strings.HasPrefix(number, "+1") && len(number) == 12:
		variants = append(variants, number[2:])
	}
	return variants
}
