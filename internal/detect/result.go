package detect

// Verdict is the closed classification set every strategy produces.
type Verdict string

const (
	VerdictHuman     Verdict = "human"
	VerdictMachine   Verdict = "machine"
	VerdictVoicemail Verdict = "voicemail"
	VerdictUndecided Verdict = "undecided"
	VerdictTimeout   Verdict = "timeout"
	VerdictError     Verdict = "error"
)

// Decisive reports whether the verdict classifies the answering party.
func (v Verdict) Decisive() bool {
	switch v {
	case VerdictHuman, VerdictMachine, VerdictVoicemail:
		return true
	default:
		return false
	}
}

// Shared metadata keys. Metadata records provenance only; control flow
// must never branch on it except where a key is named in the merge policy.
const (
	MetaError            = "error"
	MetaProvider         = "provider"
	MetaAnalysis         = "analysis"
	MetaModel            = "model"
	MetaFallbackUsed     = "fallback_used"
	MetaFallbackReason   = "fallback_reason"
	MetaOriginalProvider = "original_provider"
	MetaActualProvider   = "actual_provider"
	MetaTwilioCallSid    = "twilio_call_sid"
	MetaTelnyxCallID     = "telnyx_call_id"
	MetaAnsweredBy       = "answered_by"
	MetaStreamingEnabled = "streaming_enabled"
	MetaRawResponse      = "raw_response"
	MetaNumberVariant    = "number_variant"
	MetaTranscript       = "transcript"
	MetaErrorCause       = "error_cause"
)

// Analysis path values stored under MetaAnalysis. The merge policy uses
// them to decide whether a timeout/error may supersede a prior verdict.
const (
	AnalysisNativeAMD   = "native_amd"
	AnalysisSIPAMD      = "sip_amd"
	AnalysisStreamingML = "streaming_ml"
	AnalysisLLM         = "llm_transcript"
	AnalysisSpeechProbe = "speech_probe"
)

// Result is the outcome of one detection operation.
// Confidence is in [0,1]; 0 when no estimate exists.
type Result struct {
	Verdict    Verdict
	Confidence float64
	Metadata   map[string]any
}

// NewResult builds a result with its own metadata map.
func NewResult(v Verdict, confidence float64, meta map[string]any) Result {
	if meta == nil {
		meta = map[string]any{}
	}
	return Result{Verdict: v, Confidence: confidence, Metadata: meta}
}

// ErrorResult builds an ERROR verdict carrying a human-readable cause.
func ErrorResult(err error, meta map[string]any) Result {
	r := NewResult(VerdictError, 0, meta)
	r.Metadata[MetaError] = err.Error()
	return r
}

// With sets a metadata key and returns the result for chaining.
func (r Result) With(key string, value any) Result {
	if r.Metadata == nil {
		r.Metadata = map[string]any{}
	}
	r.Metadata[key] = value
	return r
}
