package calls

import "time"

// Call is the authoritative record of one outbound detection attempt.
//
// Mutation rules:
// - Strategy is immutable after creation.
// - Metadata is merged (new keys win), never wholesale-replaced.
// - Verdict/Confidence change only when a webhook produced a new
//   detection result; the merge policy lives in internal/reconcile.
//
// Provider call identifiers are stored in Metadata under per-provider
// keys (twilio_call_sid, telnyx_call_id) because webhooks only carry the
// provider's own id and must be resolved back to this record. Metadata
// also carries the reconciler's gate_released flag: the record is the
// only state shared across events, so the one-shot release of the
// concurrency slot is tracked here and visible in API responses like
// any other provenance key.
type Call struct {
	CallID string `json:"call_id" db:"call_id"`

	// To is the destination in canonical E.164-like form.
	To string `json:"to" db:"to_number"`

	// Strategy is the detection strategy identifier chosen at dial time.
	Strategy string `json:"strategy" db:"strategy"`

	Status Status `json:"status" db:"status"`

	// Verdict is the latest detection verdict; Confidence in [0,1].
	Verdict    string  `json:"verdict" db:"verdict"`
	Confidence float64 `json:"confidence" db:"confidence"`

	Metadata map[string]any `json:"metadata" db:"metadata"`

	DurationSeconds int `json:"duration_seconds" db:"duration_seconds"`

	// CostMinor is the computed call cost in minor units; populated once
	// duration is known.
	CostMinor int64  `json:"cost_minor" db:"cost_minor"`
	Currency  string `json:"currency,omitempty" db:"currency"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Status string

const (
	StatusInitiated Status = "initiated"
	StatusRinging   Status = "ringing"
	StatusAnswered  Status = "answered"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further lifecycle transitions are expected.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// MetaString returns a metadata value if it is a non-empty string.
func (c *Call) MetaString(key string) (string, bool) {
	if c.Metadata == nil {
		return "", false
	}
	v, ok := c.Metadata[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}
