package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"amd-dialer/internal/audit"
	"amd-dialer/internal/calls"
	"amd-dialer/internal/detect"
	"amd-dialer/internal/mlinference"
	"amd-dialer/internal/pricing"
	"amd-dialer/internal/telephony"
	"amd-dialer/pkg/logger"
)

const mlInferenceTimeout = 10 * time.Second

var (
	ErrTooManyCalls      = errors.New("reconcile: concurrent call limit reached")
	ErrUnknownProviderID = errors.New("reconcile: no call for provider identifier")
)

// ConcurrencyGate caps the number of in-flight detection calls. Acquire
// is called once per dial, Release once per terminal transition.
type ConcurrencyGate interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// AudioClassifier is the inference surface used for streaming windows.
type AudioClassifier interface {
	Predict(ctx context.Context, window []byte) (mlinference.Prediction, error)
}

// Service reconciles asynchronous provider events against call records.
//
// All mutation of a call record after dial time flows through here: the
// merge policy keeps verdicts monotonic so late or duplicate webhooks
// cannot downgrade a settled detection.
type Service struct {
	store    calls.Store
	registry *detect.Registry
	pricing  *pricing.Service
	audit    *audit.Service
	ml       AudioClassifier
	llm      *detect.LLMStrategy
	gate     ConcurrencyGate
	clock    func() time.Time
}

// Deps carries the service's collaborators. Audit, ML, LLM and Gate are
// optional; absent collaborators disable their feature, never the call.
type Deps struct {
	Store    calls.Store
	Registry *detect.Registry
	Pricing  *pricing.Service
	Audit    *audit.Service
	ML       AudioClassifier
	LLM      *detect.LLMStrategy
	Gate     ConcurrencyGate
}

func NewService(d Deps) *Service {
	return &Service{
		store:    d.Store,
		registry: d.Registry,
		pricing:  d.Pricing,
		audit:    d.Audit,
		ml:       d.ML,
		llm:      d.LLM,
		gate:     d.Gate,
		clock:    time.Now,
	}
}

// StartCall dials the destination with the requested strategy and
// persists the initial record. The number must already be canonical.
func (s *Service) StartCall(ctx context.Context, to string, strategyID detect.ID) (calls.Call, error) {
	log := logger.From(ctx)

	strat, err := s.registry.Select(strategyID)
	if err != nil {
		return calls.Call{}, err
	}

	if s.gate != nil {
		ok, gateErr := s.gate.Acquire(ctx)
		if gateErr != nil {
			// Redis trouble must not take dialing down with it.
			log.Warn("concurrency gate unavailable, admitting call", "err", gateErr)
		} else if !ok {
			return calls.Call{}, ErrTooManyCalls
		}
	}

	now := s.clock().UTC()
	c := calls.Call{
		CallID:    uuid.NewString(),
		To:        to,
		Strategy:  string(strategyID),
		Status:    calls.StatusInitiated,
		Verdict:   string(detect.VerdictUndecided),
		Metadata:  map[string]any{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, c); err != nil {
		s.releaseGate(ctx, &c)
		return calls.Call{}, err
	}

	res := strat.ProcessCall(ctx, to, c.CallID)
	s.mergeResult(ctx, &c, res)
	if detect.Verdict(c.Verdict) == detect.VerdictError {
		c.Status = calls.StatusFailed
	}
	s.finishIfTerminal(ctx, &c)

	c.UpdatedAt = s.clock().UTC()
	if err := s.store.Update(ctx, c); err != nil {
		return calls.Call{}, err
	}

	s.auditDial(ctx, c, res)
	return c, nil
}

// HandleProviderEvent applies one flattened webhook payload: lifecycle
// transition, detection signal, duration and cost, and the resulting
// call-control action.
func (s *Service) HandleProviderEvent(ctx context.Context, payload map[string]string) (calls.Call, Action, error) {
	c, err := s.resolveCall(ctx, payload)
	if err != nil {
		return calls.Call{}, ActionNone, err
	}

	if next, ok := statusFromPayload(payload); ok {
		advanced := advanceStatus(c.Status, next)
		if advanced != c.Status {
			s.auditStatus(ctx, c, string(c.Status), string(advanced), payload[telephony.PayloadKeyProvider])
			c.Status = advanced
		}
	}

	if d := payload[telephony.PayloadKeyDuration]; d != "" {
		if sec, err := strconv.Atoi(d); err == nil && sec > c.DurationSeconds {
			c.DurationSeconds = sec
		}
	}

	if strat, err := s.registry.Select(detect.ID(c.Strategy)); err == nil {
		if res := strat.HandleWebhook(ctx, payload); res != nil {
			s.mergeResult(ctx, &c, *res)
		}
	}

	s.finishIfTerminal(ctx, &c)

	c.UpdatedAt = s.clock().UTC()
	if err := s.store.Update(ctx, c); err != nil {
		return calls.Call{}, ActionNone, err
	}
	action := NextAction(c)
	s.auditAction(ctx, c, action)
	return c, action, nil
}

// HandleSpeechResult applies a collected speech transcript. LLM-strategy
// calls are classified by the language model; everything else uses the
// conversational heuristics as verification of an inconclusive AMD.
func (s *Service) HandleSpeechResult(ctx context.Context, metaKey, providerCallID, transcript string, confidence float64) (calls.Call, Action, error) {
	c, err := s.store.FindByProviderID(ctx, metaKey, providerCallID)
	if err != nil {
		if errors.Is(err, calls.ErrNotFound) {
			return calls.Call{}, ActionNone, fmt.Errorf("%w: %s=%s", ErrUnknownProviderID, metaKey, providerCallID)
		}
		return calls.Call{}, ActionNone, err
	}

	var res detect.Result
	if detect.ID(c.Strategy) == detect.StrategyLLM && s.llm != nil && strings.TrimSpace(transcript) != "" {
		noisy := confidence > 0 && confidence < 0.5
		res = s.llm.ClassifyTranscript(ctx, transcript, noisy)
		res = res.With(detect.MetaTranscript, transcript)
	} else {
		res = speechProbeResult(transcript, confidence)
	}

	s.mergeResult(ctx, &c, res)
	s.finishIfTerminal(ctx, &c)

	c.UpdatedAt = s.clock().UTC()
	if err := s.store.Update(ctx, c); err != nil {
		return calls.Call{}, ActionNone, err
	}
	action := NextAction(c)
	s.auditAction(ctx, c, action)
	return c, action, nil
}

// ProcessAudioWindow classifies one streaming audio window. Inference
// failures are swallowed: the stream keeps delivering windows and the
// out-of-band lifecycle webhooks still settle the call.
func (s *Service) ProcessAudioWindow(ctx context.Context, callID string, window []byte) (calls.Call, error) {
	log := logger.From(ctx)

	c, err := s.store.Get(ctx, callID)
	if err != nil {
		return calls.Call{}, err
	}
	if detect.Verdict(c.Verdict).Decisive() || c.Status.Terminal() {
		// Already settled; later windows change nothing.
		return c, nil
	}
	if s.ml == nil {
		return c, nil
	}

	inferCtx, cancel := context.WithTimeout(ctx, mlInferenceTimeout)
	pred, err := s.ml.Predict(inferCtx, window)
	cancel()
	if err != nil {
		log.Warn("window inference failed", "call_id", callID, "err", err)
		return c, nil
	}

	res := detect.ResultFromPrediction(pred.Label, pred.Confidence)
	s.mergeResult(ctx, &c, res)

	c.UpdatedAt = s.clock().UTC()
	if err := s.store.Update(ctx, c); err != nil {
		return calls.Call{}, err
	}
	return c, nil
}

// AttachRecording records a finished call recording on the owning call.
func (s *Service) AttachRecording(ctx context.Context, providerCallID, recordingURL string, durationSeconds int) (calls.Call, error) {
	c, err := s.store.FindByProviderID(ctx, detect.MetaTwilioCallSid, providerCallID)
	if err != nil {
		if errors.Is(err, calls.ErrNotFound) {
			return calls.Call{}, fmt.Errorf("%w: %s", ErrUnknownProviderID, providerCallID)
		}
		return calls.Call{}, err
	}

	if c.Metadata == nil {
		c.Metadata = map[string]any{}
	}
	c.Metadata["recording_url"] = recordingURL
	if durationSeconds > c.DurationSeconds {
		c.DurationSeconds = durationSeconds
	}

	c.UpdatedAt = s.clock().UTC()
	if err := s.store.Update(ctx, c); err != nil {
		return calls.Call{}, err
	}
	return c, nil
}

// resolveCall maps a webhook payload back to the owning call record via
// the provider's identifier namespace.
func (s *Service) resolveCall(ctx context.Context, payload map[string]string) (calls.Call, error) {
	var metaKey, id string
	if payload[telephony.PayloadKeyProvider] == "telnyx" {
		metaKey, id = detect.MetaTelnyxCallID, payload[telephony.PayloadKeyControlID]
	} else {
		metaKey, id = detect.MetaTwilioCallSid, payload[telephony.PayloadKeyCallSid]
	}
	if id == "" {
		return calls.Call{}, fmt.Errorf("%w: payload carries no call identifier", ErrUnknownProviderID)
	}

	c, err := s.store.FindByProviderID(ctx, metaKey, id)
	if errors.Is(err, calls.ErrNotFound) {
		return calls.Call{}, fmt.Errorf("%w: %s=%s", ErrUnknownProviderID, metaKey, id)
	}
	return c, err
}

// mergeResult folds a detection result into the record under the
// monotonic verdict policy:
//   - metadata is a shallow union, new keys win;
//   - any verdict replaces UNDECIDED (or an empty verdict);
//   - a decisive verdict replaces TIMEOUT/ERROR;
//   - the same verdict arriving again only raises confidence;
//   - TIMEOUT/ERROR replace a decisive verdict only when produced by the
//     same analysis path, so a probe timing out cannot erase what native
//     AMD already settled.
func (s *Service) mergeResult(ctx context.Context, c *calls.Call, r detect.Result) {
	curAnalysis, _ := c.MetaString(detect.MetaAnalysis)
	newAnalysis, _ := r.Metadata[detect.MetaAnalysis].(string)

	if c.Metadata == nil {
		c.Metadata = map[string]any{}
	}
	for k, v := range r.Metadata {
		c.Metadata[k] = v
	}

	if r.Verdict == "" {
		return
	}

	cur := detect.Verdict(c.Verdict)
	accepted := false
	switch {
	case r.Verdict == cur:
		if r.Confidence > c.Confidence {
			c.Confidence = r.Confidence
		}
	case cur == "" || cur == detect.VerdictUndecided:
		accepted = true
	case r.Verdict.Decisive() && !cur.Decisive():
		accepted = true
	case (r.Verdict == detect.VerdictTimeout || r.Verdict == detect.VerdictError) &&
		newAnalysis != "" && newAnalysis == curAnalysis:
		accepted = true
	}

	if !accepted {
		return
	}
	c.Verdict = string(r.Verdict)
	c.Confidence = r.Confidence
	s.auditVerdict(ctx, *c, newAnalysis)
}

// finishIfTerminal performs the once-per-call terminal bookkeeping:
// cost computation and concurrency slot release.
func (s *Service) finishIfTerminal(ctx context.Context, c *calls.Call) {
	if !c.Status.Terminal() {
		return
	}

	if c.CostMinor == 0 && c.DurationSeconds > 0 && s.pricing != nil {
		cost, err := s.pricing.CalculateCallCost(ctx, pricing.CallCostRequest{
			Provider:        s.callProvider(c),
			DurationSeconds: c.DurationSeconds,
			At:              s.clock().UTC(),
		})
		if err != nil {
			logger.From(ctx).Warn("cost calculation failed", "call_id", c.CallID, "err", err)
		} else {
			c.CostMinor = cost.TotalMinor
			c.Currency = cost.Currency
		}
	}

	s.releaseGate(ctx, c)
}

// callProvider returns the provider the call actually ran on. Fallback
// calls record the real transport under actual_provider.
func (s *Service) callProvider(c *calls.Call) string {
	if p, ok := c.MetaString(detect.MetaActualProvider); ok {
		return p
	}
	if p, ok := c.MetaString(detect.MetaProvider); ok {
		return p
	}
	return "twilio"
}

const metaGateReleased = "gate_released"

func (s *Service) releaseGate(ctx context.Context, c *calls.Call) {
	if s.gate == nil {
		return
	}
	if c.Metadata != nil {
		if done, _ := c.Metadata[metaGateReleased].(bool); done {
			return
		}
	}
	if err := s.gate.Release(ctx); err != nil {
		logger.From(ctx).Warn("concurrency gate release failed", "call_id", c.CallID, "err", err)
		return
	}
	if c.Metadata == nil {
		c.Metadata = map[string]any{}
	}
	c.Metadata[metaGateReleased] = true
}

// Audit appends are best-effort; failures are logged and dropped.

func (s *Service) auditDial(ctx context.Context, c calls.Call, res detect.Result) {
	if s.audit == nil {
		return
	}
	if err := s.audit.LogDial(ctx, c.CallID, c.Strategy, s.callProvider(&c)); err != nil {
		logger.From(ctx).Warn("audit append failed", "err", err)
	}
	if used, _ := res.Metadata[detect.MetaFallbackUsed].(bool); used {
		reason, _ := res.Metadata[detect.MetaFallbackReason].(string)
		if err := s.audit.LogFallback(ctx, c.CallID, c.Strategy, reason); err != nil {
			logger.From(ctx).Warn("audit append failed", "err", err)
		}
	}
}

func (s *Service) auditStatus(ctx context.Context, c calls.Call, from, to, source string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.LogStatus(ctx, c.CallID, source, from, to); err != nil {
		logger.From(ctx).Warn("audit append failed", "err", err)
	}
}

func (s *Service) auditAction(ctx context.Context, c calls.Call, a Action) {
	if s.audit == nil || a == ActionNone {
		return
	}
	if err := s.audit.LogAction(ctx, c.CallID, string(a)); err != nil {
		logger.From(ctx).Warn("audit append failed", "err", err)
	}
}

func (s *Service) auditVerdict(ctx context.Context, c calls.Call, source string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.LogVerdict(ctx, c.CallID, c.Strategy, source, c.Verdict, c.Confidence); err != nil {
		logger.From(ctx).Warn("audit append failed", "err", err)
	}
}
