package calls

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreCreateGetUpdate(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	c := Call{
		CallID:   "call-1",
		To:       "+15551234567",
		Strategy: "native_amd",
		Status:   StatusInitiated,
		Verdict:  "undecided",
		Metadata: map[string]any{"twilio_call_sid": "CA123"},
	}
	if err := s.Create(ctx, c); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Create(ctx, c); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	got, err := s.Get(ctx, "call-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusInitiated || got.CreatedAt.IsZero() {
		t.Fatalf("unexpected record: %+v", got)
	}

	got.Status = StatusRinging
	if err := s.Update(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	got2, _ := s.Get(ctx, "call-1")
	if got2.Status != StatusRinging {
		t.Fatalf("update not persisted: %+v", got2)
	}
}

func TestMemoryStoreFindByProviderID(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_ = s.Create(ctx, Call{CallID: "call-1", Metadata: map[string]any{"twilio_call_sid": "CA123"}})
	_ = s.Create(ctx, Call{CallID: "call-2", Metadata: map[string]any{"telnyx_call_id": "cc-9"}})

	got, err := s.FindByProviderID(ctx, "telnyx_call_id", "cc-9")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.CallID != "call-2" {
		t.Fatalf("expected call-2, got %s", got.CallID)
	}

	if _, err := s.FindByProviderID(ctx, "twilio_call_sid", "CA999"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.FindByProviderID(ctx, "", "CA123"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("empty key must not match, got %v", err)
	}
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_ = s.Create(ctx, Call{CallID: "call-1", Metadata: map[string]any{"k": "v"}})

	got, _ := s.Get(ctx, "call-1")
	got.Metadata["k"] = "mutated"

	again, _ := s.Get(ctx, "call-1")
	if again.Metadata["k"] != "v" {
		t.Fatalf("stored metadata was mutated through a returned copy")
	}
}

func TestMemoryStoreList(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		_ = s.Create(ctx, Call{CallID: id, CreatedAt: base.Add(time.Duration(i) * time.Hour)})
	}

	out, err := s.List(ctx, base, base.Add(90*time.Minute), 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 calls in window, got %d", len(out))
	}
	if out[0].CallID != "b" {
		t.Fatalf("expected newest first, got %s", out[0].CallID)
	}
}

func TestStatusTerminal(t *testing.T) {
	for _, s := range []Status{StatusCompleted, StatusFailed, StatusCancelled} {
		if !s.Terminal() {
			t.Fatalf("%s must be terminal", s)
		}
	}
	for _, s := range []Status{StatusInitiated, StatusRinging, StatusAnswered} {
		if s.Terminal() {
			t.Fatalf("%s must not be terminal", s)
		}
	}
}
