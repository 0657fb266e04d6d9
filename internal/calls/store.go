package calls

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("calls: call not found")
	ErrAlreadyExists = errors.New("calls: call already exists")
	ErrInvalidCall   = errors.New("calls: invalid call record")
)

// Store is the call record persistence contract.
//
// Concurrency contract: callers perform read-then-merge-then-write per
// event; per-call provider event ordering is sequential, so the merge
// policy in internal/reconcile substitutes for locking across events of
// the same call. Implementations must keep operations per-call scoped.
type Store interface {
	Create(ctx context.Context, c Call) error
	Get(ctx context.Context, callID string) (Call, error)
	Update(ctx context.Context, c Call) error

	// FindByProviderID resolves a call by a per-provider metadata key
	// (e.g. metaKey "twilio_call_sid"). Returns ErrNotFound when no call
	// carries that identifier.
	FindByProviderID(ctx context.Context, metaKey, providerCallID string) (Call, error)

	// List returns calls created inside [from, to), newest first.
	List(ctx context.Context, from, to time.Time, limit int) ([]Call, error)
}
