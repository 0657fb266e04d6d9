package pricing

import (
	"context"
	"time"
)

// MemoryRepo is a simple in-memory repository useful for tests and early development.
// It holds provider-scoped rate rows and supports exact provider matches.
//
// NOTE: This is not intended for production; replace with Postgres implementation.
type MemoryRepo struct {
	Minute []MinutePricing
}

// DefaultRates seeds the built-in per-minute rates used when no rate
// table is configured. Amounts are USD cents per started minute.
func DefaultRates(now time.Time) []MinutePricing {
	return []MinutePricing{
		{
			ID:                      "twilio-default",
			Provider:                "twilio",
			Currency:                "USD",
			RatePerMinuteMinor:      2,
			BillingIncrementSeconds: 60,
			Status:                  PricingStatusActive,
			EffectiveFrom:           now.Add(-time.Hour),
		},
		{
			ID:                      "telnyx-default",
			Provider:                "telnyx",
			Currency:                "USD",
			RatePerMinuteMinor:      1,
			BillingIncrementSeconds: 60,
			Status:                  PricingStatusActive,
			EffectiveFrom:           now.Add(-time.Hour),
		},
	}
}

func (r *MemoryRepo) FindMinutePricing(ctx context.Context, provider string, at time.Time) (MinutePricing, bool, error) {
	_ = ctx

	// Prefer the most recent effective pricing row.
	var best MinutePricing
	found := false

	for _, p := range r.Minute {
		if p.Provider != provider {
			continue
		}
		if p.Status != PricingStatusActive {
			continue
		}
		if at.Before(p.EffectiveFrom) {
			continue
		}
		if p.EffectiveTo != nil && !at.Before(*p.EffectiveTo) {
			continue
		}

		if !found || p.EffectiveFrom.After(best.EffectiveFrom) {
			best = p
			found = true
		}
	}

	return best, found, nil
}
