package reconcile

import (
	"amd-dialer/internal/calls"
	"amd-dialer/internal/telephony"
)

// Provider lifecycle vocabularies mapped into the canonical status set.
// Unknown values map to nothing and the call keeps its current status.

var twilioStatus = map[string]calls.Status{
	"queued":      calls.StatusInitiated,
	"initiated":   calls.StatusInitiated,
	"ringing":     calls.StatusRinging,
	"in-progress": calls.StatusAnswered,
	"answered":    calls.StatusAnswered,
	"completed":   calls.StatusCompleted,
	"busy":        calls.StatusFailed,
	"failed":      calls.StatusFailed,
	"no-answer":   calls.StatusFailed,
	"canceled":    calls.StatusCancelled,
}

var telnyxEventStatus = map[string]calls.Status{
	"call.initiated": calls.StatusInitiated,
	"call.ringing":   calls.StatusRinging,
	"call.answered":  calls.StatusAnswered,
	"call.bridged":   calls.StatusAnswered,
}

// statusFromPayload extracts a canonical lifecycle status from a
// flattened webhook payload. ok is false when the event carries no
// lifecycle signal (e.g. a pure AMD or speech event).
func statusFromPayload(payload map[string]string) (calls.Status, bool) {
	if v := payload[telephony.PayloadKeyCallStatus]; v != "" {
		st, ok := twilioStatus[v]
		return st, ok
	}

	if ev := payload[telephony.PayloadKeyEventType]; ev != "" {
		if st, ok := telnyxEventStatus[ev]; ok {
			return st, true
		}
		if ev == "call.hangup" {
			switch payload[telephony.PayloadKeyHangupCause] {
			case "", "normal_clearing":
				return calls.StatusCompleted, true
			default:
				return calls.StatusFailed, true
			}
		}
	}
	return "", false
}

var statusRank = map[calls.Status]int{
	calls.StatusInitiated: 1,
	calls.StatusRinging:   2,
	calls.StatusAnswered:  3,
	calls.StatusCompleted: 4,
	calls.StatusFailed:    4,
	calls.StatusCancelled: 4,
}

// advanceStatus applies a lifecycle transition, never moving backwards.
// Out-of-order provider retries therefore cannot regress a call.
func advanceStatus(current, next calls.Status) calls.Status {
	if statusRank[next] > statusRank[current] {
		return next
	}
	return current
}
