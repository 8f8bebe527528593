// Package gtd implements the dynamic good-til-date policy framework: a
// registry of pluggable exit-timing policies, the shared evaluation context,
// and the conflict-resolving evaluator that produces one authoritative
// decision per monitoring cycle.
package gtd

import (
	"encoding/json"
	"time"
)

type Action string

const (
	ActionHold     Action = "HOLD"
	ActionShorten  Action = "SHORTEN"
	ActionExtend   Action = "EXTEND"
	ActionCloseNow Action = "CLOSE_NOW"
)

// Result is one policy's recommendation for the current cycle.
// RecommendedDate is required for SHORTEN and EXTEND. Priority breaks ties
// within the same action only; a lower number is stronger.
type Result struct {
	Action          Action
	RecommendedDate time.Time
	Reason          string
	Priority        int
	Metadata        map[string]interface{}
}

func Hold(reason string) Result {
	return Result{Action: ActionHold, Reason: reason}
}

// Policy is the two-method contract every exit-timing policy implements,
// plus the introspection hooks the framework needs. Policies without
// cross-cycle memory embed NoState.
type Policy interface {
	Name() string
	Evaluate(ctx *Context) (Result, error)

	// RequiresMarketData marks policies that are skipped, not defaulted to
	// HOLD, when live market data is unavailable for a cycle.
	RequiresMarketData() bool

	// State and LoadState carry per-play memory across cycles.
	State() (json.RawMessage, error)
	LoadState(raw json.RawMessage) error

	// ParamSchema describes the tunable parameters for validation and UI
	// generation. ValidateConfig rejects out-of-range values by returning
	// an error, never by panicking.
	ParamSchema() ParamSchema
	ValidateConfig(params map[string]interface{}) error
}

// NoState is the no-op state adapter for stateless policies.
type NoState struct{}

func (NoState) State() (json.RawMessage, error)     { return nil, nil }
func (NoState) LoadState(raw json.RawMessage) error { return nil }
