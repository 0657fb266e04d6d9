package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only.
// No Update/Delete methods are provided by design.

type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service records the decision trail of detection calls.
//
// IMPORTANT:
// - Audit is internal-only. Do not expose these records through the public
//   call API by default.
// - Callers should treat audit logging as best-effort.

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.CallID == "" {
		return ErrInvalidEvent
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}

	now := s.clock().UTC()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	return s.repo.Append(ctx, e)
}

// LogDial records the call placement and the strategy it was dialed with.
func (s *Service) LogDial(ctx context.Context, callID, strategy, provider string) error {
	return s.Append(ctx, Event{
		CallID:   callID,
		Type:     EventTypeDial,
		Strategy: strategy,
		Source:   provider,
		Message:  "call placed",
	})
}

// LogStatus records a lifecycle transition reported by the provider.
func (s *Service) LogStatus(ctx context.Context, callID, source, from, to string) error {
	return s.Append(ctx, Event{
		CallID:  callID,
		Type:    EventTypeStatus,
		Source:  source,
		Message: from + " -> " + to,
	})
}

// LogVerdict records a detection verdict and the signal it came from.
func (s *Service) LogVerdict(ctx context.Context, callID, strategy, source, verdict string, confidence float64) error {
	return s.Append(ctx, Event{
		CallID:     callID,
		Type:       EventTypeVerdict,
		Strategy:   strategy,
		Verdict:    verdict,
		Confidence: confidence,
		Source:     source,
	})
}

// LogAction records the call-control action taken on a live leg.
func (s *Service) LogAction(ctx context.Context, callID, action string) error {
	return s.Append(ctx, Event{
		CallID:  callID,
		Type:    EventTypeAction,
		Message: action,
	})
}

// LogFallback records a strategy downgrading to its fallback path.
func (s *Service) LogFallback(ctx context.Context, callID, strategy, reason string) error {
	return s.Append(ctx, Event{
		CallID:   callID,
		Type:     EventTypeFallback,
		Strategy: strategy,
		Message:  reason,
	})
}
