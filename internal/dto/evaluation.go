package dto

import "time"

// PolicyResultLog is one policy's outcome in an evaluation cycle, kept for
// the per-cycle results log.
type PolicyResultLog struct {
	Policy          string     `json:"policy"`
	Action          string     `json:"action"`
	RecommendedDate *time.Time `json:"recommended_date,omitempty"`
	Reason          string     `json:"reason"`
	Priority        int        `json:"priority"`
	Skipped         bool       `json:"skipped,omitempty"`
	SkipReason      string     `json:"skip_reason,omitempty"`
}

// PlayEvaluation is the authoritative outcome of one GTD evaluation cycle
// for a play.
type PlayEvaluation struct {
	ShouldClose          bool              `json:"should_close"`
	CloseReason          string            `json:"close_reason,omitempty"`
	EffectiveDate        *time.Time        `json:"effective_date,omitempty"`
	EffectiveDateChanged bool              `json:"effective_date_changed"`
	PolicyStateChanged   bool              `json:"policy_state_changed"`
	PerPolicyResults     []PolicyResultLog `json:"per_policy_results"`
	IsGTDExit            bool              `json:"is_gtd_exit"`
}

// SweepResult summarizes one play's handling inside an orchestration sweep.
type SweepResult struct {
	Filename string `json:"filename"`
	Symbol   string `json:"symbol"`
	Errors   string `json:"errors,omitempty"`
}
