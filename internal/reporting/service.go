package reporting

import (
	"context"
	"errors"

	"amd-dialer/internal/calls"
	"amd-dialer/internal/detect"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Reports are read-only aggregations over the immutable-ish call store;
// no detection or billing logic lives here.

const maxSummaryRows = 10000

type Service struct {
	store calls.Store
}

func NewService(store calls.Store) *Service { return &Service{store: store} }

func (s *Service) Summary(ctx context.Context, req SummaryRequest) (Summary, error) {
	if req.Range.From.IsZero() || req.Range.To.IsZero() || !req.Range.To.After(req.Range.From) {
		return Summary{}, ErrInvalidRequest
	}
	if s.store == nil {
		return Summary{}, errors.New("reporting: store not configured")
	}

	rows, err := s.store.List(ctx, req.Range.From, req.Range.To, maxSummaryRows)
	if err != nil {
		return Summary{}, err
	}

	out := Summary{
		Range:          req.Range,
		Strategy:       req.Strategy,
		ByVerdict:      map[string]int{},
		ByStrategy:     map[string]int{},
		TotalCostMinor: map[string]int64{},
	}

	decided := 0
	humans := 0
	for _, c := range rows {
		if req.Strategy != "" && c.Strategy != req.Strategy {
			continue
		}

		out.TotalCalls++
		out.TotalDurationSeconds += c.DurationSeconds
		out.ByStrategy[c.Strategy]++
		if c.Verdict != "" {
			out.ByVerdict[c.Verdict]++
		}

		switch c.Status {
		case calls.StatusCompleted:
			out.CompletedCalls++
		case calls.StatusFailed:
			out.FailedCalls++
		case calls.StatusCancelled:
			out.CanceledCalls++
		default:
			out.ActiveCalls++
		}

		if c.Metadata != nil {
			if used, _ := c.Metadata[detect.MetaFallbackUsed].(bool); used {
				out.FallbackCalls++
			}
		}

		if v := detect.Verdict(c.Verdict); v.Decisive() {
			decided++
			if v == detect.VerdictHuman {
				humans++
			}
		}

		if c.CostMinor > 0 {
			cur := c.Currency
			if cur == "" {
				cur = "USD"
			}
			out.TotalCostMinor[cur] += c.CostMinor
		}
	}

	if out.TotalCalls > 0 {
		out.AverageDurationSeconds = out.TotalDurationSeconds / out.TotalCalls
	}
	if decided > 0 {
		out.HumanRate = float64(humans) / float64(decided)
	}
	return out, nil
}
