package reconcile

import (
	"context"
	"errors"
	"sync"
	"time"

	"amd-dialer/internal/audit"
	"amd-dialer/internal/calls"
	"amd-dialer/internal/detect"
	"amd-dialer/internal/mlinference"
	"amd-dialer/internal/pricing"
	"amd-dialer/internal/telephony"
)

var errUnavailable = errors.New("service unavailable")

type fakeDialer struct {
	callSid  string
	placeErr error
	placed   []telephony.PlaceCallRequest
}

func (d *fakeDialer) Name() string                          { return "twilio" }
func (d *fakeDialer) HealthCheck(ctx context.Context) error { return nil }

func (d *fakeDialer) PlaceCall(ctx context.Context, req telephony.PlaceCallRequest) (telephony.PlaceCallResult, error) {
	if d.placeErr != nil {
		return telephony.PlaceCallResult{}, d.placeErr
	}
	d.placed = append(d.placed, req)
	return telephony.PlaceCallResult{Provider: "twilio", ProviderCallID: d.callSid}, nil
}

type fakeGate struct {
	mu         sync.Mutex
	limit      int
	active     int
	acquireErr error
}

func (g *fakeGate) Acquire(ctx context.Context) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.acquireErr != nil {
		return false, g.acquireErr
	}
	if g.active >= g.limit {
		return false, nil
	}
	g.active++
	return true, nil
}

func (g *fakeGate) Release(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.active--
	return nil
}

func (g *fakeGate) inFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active
}

type fakeML struct {
	label    string
	conf     float64
	err      error
	predicts int
}

func (m *fakeML) Predict(ctx context.Context, window []byte) (mlinference.Prediction, error) {
	m.predicts++
	if m.err != nil {
		return mlinference.Prediction{}, m.err
	}
	return mlinference.Prediction{Label: m.label, Confidence: m.conf}, nil
}

type fakeLLM struct {
	response string
}

func (f *fakeLLM) IsConfigured() bool                    { return true }
func (f *fakeLLM) HealthCheck(ctx context.Context) error { return nil }
func (f *fakeLLM) Model() string                         { return "gpt-4o-mini" }
func (f *fakeLLM) Generate(ctx context.Context, prompt string) (string, error) {
	return f.response, nil
}

// newTestService wires a service over in-memory collaborators with the
// native strategy registered against the given dialer.
func newTestService(dialer *fakeDialer, gate *fakeGate) (*Service, *calls.MemoryStore, *audit.MemoryRepo) {
	store := calls.NewMemoryStore()
	auditRepo := audit.NewMemoryRepo()
	native := detect.NewNativeStrategy(dialer)
	registry := detect.NewRegistry(native)
	rates := &pricing.MemoryRepo{Minute: pricing.DefaultRates(time.Now().UTC())}

	var g ConcurrencyGate
	if gate != nil {
		g = gate
	}
	svc := NewService(Deps{
		Store:    store,
		Registry: registry,
		Pricing:  pricing.NewService(rates),
		Audit:    audit.NewService(auditRepo),
		Gate:     g,
	})
	return svc, store, auditRepo
}
