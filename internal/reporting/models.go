package reporting

import "time"

// Common filtering inputs.

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// SummaryRequest requests aggregated detection metrics over a window.

type SummaryRequest struct {
	Range TimeRange `json:"range"`

	// Strategy restricts the summary to calls dialed with one strategy.
	Strategy string `json:"strategy,omitempty"`
}

type Summary struct {
	Range    TimeRange `json:"range"`
	Strategy string    `json:"strategy,omitempty"`

	TotalCalls     int `json:"total_calls"`
	CompletedCalls int `json:"completed_calls"`
	FailedCalls    int `json:"failed_calls"`
	CanceledCalls  int `json:"canceled_calls"`
	ActiveCalls    int `json:"active_calls"`

	// ByVerdict counts calls per detection verdict.
	ByVerdict map[string]int `json:"by_verdict"`

	// ByStrategy counts calls per dialed strategy.
	ByStrategy map[string]int `json:"by_strategy"`

	// FallbackCalls counts calls where the strategy degraded to native AMD.
	FallbackCalls int `json:"fallback_calls"`

	// HumanRate is decided-human over all decisively classified calls.
	HumanRate float64 `json:"human_rate"`

	TotalDurationSeconds   int `json:"total_duration_seconds"`
	AverageDurationSeconds int `json:"average_duration_seconds"`

	// TotalCostMinor aggregates computed call costs; mixed-currency rows
	// are summed per currency.
	TotalCostMinor map[string]int64 `json:"total_cost_minor"`
}
