package detect

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"amd-dialer/internal/telephony"
	"amd-dialer/pkg/logger"
)

const (
	llmProbeTimeout = 3 * time.Second

	// Transcripts are truncated before prompting; greetings decide the
	// verdict in their first sentences anyway.
	llmMaxTranscriptLen = 500

	llmConfidenceKeyword = 0.7
)

// TranscriptClassifier is the LLM surface this strategy needs.
type TranscriptClassifier interface {
	IsConfigured() bool
	HealthCheck(ctx context.Context) error
	Generate(ctx context.Context, prompt string) (string, error)
	Model() string
}

// LLMStrategy collects a speech transcript on the call and classifies it
// with a language model once the transcript webhook arrives. Missing
// credentials or a failed liveness probe degrade to the native strategy.
type LLMStrategy struct {
	llm      TranscriptClassifier
	dialer   telephony.Dialer
	fallback *NativeStrategy
}

func NewLLMStrategy(llm TranscriptClassifier, dialer telephony.Dialer, fallback *NativeStrategy) *LLMStrategy {
	return &LLMStrategy{llm: llm, dialer: dialer, fallback: fallback}
}

func (s *LLMStrategy) ID() ID { return StrategyLLM }

func (s *LLMStrategy) ProcessCall(ctx context.Context, number, callID string) Result {
	log := logger.From(ctx)

	if s.llm == nil || !s.llm.IsConfigured() {
		return s.fallbackCall(ctx, number, callID, "llm api key not configured")
	}

	probeCtx, cancel := context.WithTimeout(ctx, llmProbeTimeout)
	err := s.llm.HealthCheck(probeCtx)
	cancel()
	if err != nil {
		log.Warn("llm unavailable, falling back", "err", err)
		return s.fallbackCall(ctx, number, callID, fmt.Sprintf("llm liveness probe failed: %v", err))
	}

	res, err := s.dialer.PlaceCall(ctx, telephony.PlaceCallRequest{
		To:           number,
		CallID:       callID,
		GatherSpeech: true,
	})
	if err != nil {
		return placementError(err)
	}

	return NewResult(VerdictUndecided, 0, map[string]any{
		MetaProvider:      res.Provider,
		MetaAnalysis:      AnalysisLLM,
		MetaModel:         s.llm.Model(),
		MetaTwilioCallSid: res.ProviderCallID,
	})
}

// HandleWebhook delegates status-only events to the native mapping.
func (s *LLMStrategy) HandleWebhook(ctx context.Context, payload map[string]string) *Result {
	return s.fallback.HandleWebhook(ctx, payload)
}

func (s *LLMStrategy) fallbackCall(ctx context.Context, number, callID, reason string) Result {
	res := s.fallback.ProcessCall(ctx, number, callID)
	res.Metadata[MetaFallbackUsed] = true
	res.Metadata[MetaFallbackReason] = reason
	res.Metadata[MetaOriginalProvider] = "llm"
	res.Metadata[MetaActualProvider] = "twilio"
	return res
}

// ClassifyTranscript turns a collected transcript into a verdict.
// Parsing degrades in order: structured JSON, keyword scan of the raw
// response, then ERROR with the raw response preserved for diagnosis.
func (s *LLMStrategy) ClassifyTranscript(ctx context.Context, transcript string, noisy bool) Result {
	if s.llm == nil || !s.llm.IsConfigured() {
		return ErrorResult(fmt.Errorf("llm not configured for transcript classification"), map[string]any{
			MetaAnalysis: AnalysisLLM,
		})
	}

	prompt := buildClassificationPrompt(transcript, noisy)

	raw, err := s.llm.Generate(ctx, prompt)
	if err != nil {
		return ErrorResult(fmt.Errorf("llm classification failed: %w", err), map[string]any{
			MetaAnalysis: AnalysisLLM,
		})
	}

	meta := map[string]any{
		MetaProvider: "llm",
		MetaAnalysis: AnalysisLLM,
		MetaModel:    s.llm.Model(),
	}

	if r, ok := parseStructuredClassification(raw, meta); ok {
		return r
	}
	if r, ok := keywordClassification(raw, meta); ok {
		return r
	}

	meta[MetaRawResponse] = raw
	return ErrorResult(fmt.Errorf("llm response unparseable"), meta)
}

func buildClassificationPrompt(transcript string, noisy bool) string {
	t := transcript
	if len(t) > llmMaxTranscriptLen {
		t = t[:llmMaxTranscriptLen]
	}

	if noisy {
		// Short variant for noisy audio: fewer tokens, less surface for
		// the model to over-interpret artifacts.
		return fmt.Sprintf(
			"Classify this noisy phone call transcript. Respond with JSON only: "+
				`{"classification": "human"|"machine"|"voicemail", "confidence": 0.0-1.0}`+
				"\nTranscript: %q", t)
	}

	return fmt.Sprintf(
		"You are classifying who answered an outbound phone call based on the first words spoken.\n"+
			"A human typically answers with a short greeting or a question. "+
			"An answering machine or voicemail typically plays a longer scripted message, "+
			"mentions leaving a message, or states a name and unavailability.\n"+
			"Respond with JSON only, no prose: "+
			`{"classification": "human"|"machine"|"voicemail", "confidence": 0.0-1.0}`+
			"\nTranscript: %q", t)
}

func parseStructuredClassification(raw string, meta map[string]any) (Result, bool) {
	jsonPart := extractJSONObject(raw)
	if jsonPart == "" {
		return Result{}, false
	}

	var parsed struct {
		Classification string  `json:"classification"`
		Confidence     float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(jsonPart), &parsed); err != nil {
		return Result{}, false
	}

	conf := parsed.Confidence
	if conf < 0 || conf > 1 {
		conf = 0
	}

	switch strings.ToLower(parsed.Classification) {
	case "human":
		return NewResult(VerdictHuman, conf, meta), true
	case "machine":
		return NewResult(VerdictMachine, conf, meta), true
	case "voicemail":
		return NewResult(VerdictVoicemail, conf, meta), true
	default:
		return Result{}, false
	}
}

func keywordClassification(raw string, meta map[string]any) (Result, bool) {
	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "human"):
		return NewResult(VerdictHuman, llmConfidenceKeyword, meta), true
	case strings.Contains(lower, "machine"), strings.Contains(lower, "voicemail"):
		return NewResult(VerdictMachine, llmConfidenceKeyword, meta), true
	default:
		return Result{}, false
	}
}

// extractJSONObject pulls the first balanced {...} block out of a model
// response that may wrap JSON in prose or code fences.
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return ""
	}
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
