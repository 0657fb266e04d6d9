package pricing

import (
	"context"
	"testing"
	"time"
)

func TestBillableSeconds(t *testing.T) {
	// 60s increment, 0 min
	if got := billableSeconds(1, 0, 60); got != 60 {
		t.Fatalf("expected 60, got %d", got)
	}
	if got := billableSeconds(60, 0, 60); got != 60 {
		t.Fatalf("expected 60, got %d", got)
	}
	if got := billableSeconds(61, 0, 60); got != 120 {
		t.Fatalf("expected 120, got %d", got)
	}

	// min billable seconds
	if got := billableSeconds(5, 30, 60); got != 60 {
		t.Fatalf("expected 60, got %d", got)
	}
}

func TestBillableMinutesFromSeconds(t *testing.T) {
	if got := billableMinutesFromSeconds(1); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
	if got := billableMinutesFromSeconds(60); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
	if got := billableMinutesFromSeconds(61); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
}

func TestCalculateCallCostPerProvider(t *testing.T) {
	now := time.Now().UTC()
	repo := &MemoryRepo{Minute: DefaultRates(now)}
	svc := NewService(repo)

	got, err := svc.CalculateCallCost(context.Background(), CallCostRequest{
		Provider:        "twilio",
		DurationSeconds: 61,
		At:              now,
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.BillableMinutes != 2 || got.TotalMinor != 4 {
		t.Fatalf("unexpected cost: %+v", got)
	}
	if got.Currency != "USD" {
		t.Fatalf("expected USD, got %s", got.Currency)
	}
}

func TestCalculateCallCostUnknownProvider(t *testing.T) {
	repo := &MemoryRepo{Minute: DefaultRates(time.Now().UTC())}
	svc := NewService(repo)

	if _, err := svc.CalculateCallCost(context.Background(), CallCostRequest{Provider: "bandwidth", DurationSeconds: 30}); err != ErrPricingNotFound {
		t.Fatalf("expected ErrPricingNotFound, got %v", err)
	}
	if _, err := svc.CalculateCallCost(context.Background(), CallCostRequest{DurationSeconds: 30}); err != ErrInvalidPricingReq {
		t.Fatalf("expected ErrInvalidPricingReq, got %v", err)
	}
}
