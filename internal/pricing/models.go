package pricing

import "time"

// Pricing models are provider-scoped. Amounts are expressed in minor
// units (e.g., cents) using int64.

// MinutePricing defines per-minute charges for outbound detection calls.
type MinutePricing struct {
	ID string `json:"id" db:"id"`

	// Provider is the telephony provider the rate applies to
	// (e.g., "twilio", "telnyx").
	Provider string `json:"provider" db:"provider"`

	Currency string `json:"currency" db:"currency"`

	// RatePerMinuteMinor is the price per started minute.
	RatePerMinuteMinor int64 `json:"rate_per_minute_minor" db:"rate_per_minute_minor"`

	// BillingIncrementSeconds (e.g., 60 for per-minute, 1 for per-second billing).
	BillingIncrementSeconds int `json:"billing_increment_seconds" db:"billing_increment_seconds"`

	// MinimumBillableSeconds enforces a minimum charge duration.
	MinimumBillableSeconds int `json:"minimum_billable_seconds" db:"minimum_billable_seconds"`

	// Effective window for pricing.
	EffectiveFrom time.Time  `json:"effective_from" db:"effective_from"`
	EffectiveTo   *time.Time `json:"effective_to,omitempty" db:"effective_to"`

	Status PricingStatus `json:"status" db:"status"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type PricingStatus string

const (
	PricingStatusActive   PricingStatus = "active"
	PricingStatusInactive PricingStatus = "inactive"
)
