package detect

import (
	"errors"
	"fmt"
)

var ErrUnknownStrategy = errors.New("detect: unknown strategy")

// Registry maps strategy identifiers to their configured instances.
// It is built once at startup; an unknown id is a configuration error
// and always fails fast rather than defaulting.
type Registry struct {
	byID map[ID]Strategy
}

func NewRegistry(strategies ...Strategy) *Registry {
	byID := make(map[ID]Strategy, len(strategies))
	for _, s := range strategies {
		byID[s.ID()] = s
	}
	return &Registry{byID: byID}
}

func (r *Registry) Select(id ID) (Strategy, error) {
	s, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, id)
	}
	return s, nil
}
