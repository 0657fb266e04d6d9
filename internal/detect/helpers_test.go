package detect

import (
	"context"
	"errors"

	"amd-dialer/internal/telephony"
)

// fakeDialer scripts placement outcomes per destination format.
type fakeDialer struct {
	name       string
	configured bool
	healthErr  error

	// placeErr applies to every call unless rejectTo matches.
	placeErr error
	// rejectTo lists destination formats that fail with ErrNumberRejected.
	rejectTo map[string]bool

	callSid string
	placed  []telephony.PlaceCallRequest
}

func (f *fakeDialer) Name() string       { return f.name }
func (f *fakeDialer) IsConfigured() bool { return f.configured }

func (f *fakeDialer) HealthCheck(ctx context.Context) error { return f.healthErr }

func (f *fakeDialer) PlaceCall(ctx context.Context, req telephony.PlaceCallRequest) (telephony.PlaceCallResult, error) {
	f.placed = append(f.placed, req)
	if f.rejectTo[req.To] {
		return telephony.PlaceCallResult{}, telephony.ErrNumberRejected
	}
	if f.placeErr != nil {
		return telephony.PlaceCallResult{}, f.placeErr
	}
	sid := f.callSid
	if sid == "" {
		sid = "CA-fake"
	}
	return telephony.PlaceCallResult{Provider: f.name, ProviderCallID: sid}, nil
}

func newTwilioFake() *fakeDialer {
	return &fakeDialer{name: "twilio", configured: true, callSid: "CA123"}
}

type fakeProber struct {
	configured bool
	healthErr  error
}

func (f *fakeProber) IsConfigured() bool                    { return f.configured }
func (f *fakeProber) HealthCheck(ctx context.Context) error { return f.healthErr }

type fakeLLM struct {
	configured bool
	healthErr  error
	response   string
	genErr     error
	prompts    []string
}

func (f *fakeLLM) IsConfigured() bool                    { return f.configured }
func (f *fakeLLM) HealthCheck(ctx context.Context) error { return f.healthErr }
func (f *fakeLLM) Model() string                         { return "test-model" }

func (f *fakeLLM) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.genErr != nil {
		return "", f.genErr
	}
	return f.response, nil
}

var errUnavailable = errors.New("connection refused")
