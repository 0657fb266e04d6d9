package audit

import "time"

// Event is an immutable, append-only record in a call's decision trail.
//
// Invariants:
// - Events are never updated or deleted.
// - call_id is required; every event belongs to exactly one call.
// - Appends are best-effort; do not block call flows on audit failures.
//
// Storage recommendation (Postgres):
// - Table audit_events with an INSERT-only policy.
// - Optional: trigger to prevent UPDATE/DELETE.
// - Optional: partition by time for retention.

type Event struct {
	ID     string `json:"id" db:"id"`
	CallID string `json:"call_id" db:"call_id"`

	// Type indicates the business category of the audit record.
	Type EventType `json:"type" db:"type"`

	// Strategy is the detection strategy the call was dialed with.
	Strategy string `json:"strategy,omitempty" db:"strategy"`

	// Verdict/Confidence capture the detection outcome for verdict events.
	Verdict    string  `json:"verdict,omitempty" db:"verdict"`
	Confidence float64 `json:"confidence,omitempty" db:"confidence"`

	// Source names the signal that produced the event
	// (e.g. "twilio_status", "telnyx_amd", "media_window", "speech_probe").
	Source string `json:"source,omitempty" db:"source"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty" db:"message"`

	// Metadata is optional JSON for full details.
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeDial     EventType = "dial"
	EventTypeStatus   EventType = "status_change"
	EventTypeVerdict  EventType = "verdict"
	EventTypeFallback EventType = "strategy_fallback"
	EventTypeAction   EventType = "call_action"
)
