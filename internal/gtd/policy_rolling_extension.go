package gtd

import (
	"encoding/json"
	"fmt"
	"options-trading/pkg/utils"
)

const PolicyRollingExtension = "rolling_extension"

type rollingExtensionState struct {
	Disabled bool `json:"disabled"`
}

// RollingExtensionPolicy keeps rolling the exit deadline forward one
// increment per cycle while the position stays above a breakeven buffer.
// The first drawdown below the buffer disables it permanently for the play;
// the disable flag is persisted across restarts.
type RollingExtensionPolicy struct {
	state rollingExtensionState
}

func NewRollingExtensionPolicy() *RollingExtensionPolicy { return &RollingExtensionPolicy{} }

func (p *RollingExtensionPolicy) Name() string             { return PolicyRollingExtension }
func (p *RollingExtensionPolicy) RequiresMarketData() bool { return true }

func (p *RollingExtensionPolicy) ParamSchema() ParamSchema {
	return ParamSchema{
		"increment_days": {
			Type:        "int",
			Description: "Days to roll the deadline forward per evaluation",
			Default:     1,
			Min:         bound(1),
			Max:         bound(10),
		},
		"breakeven_buffer_pct": {
			Type:        "float",
			Description: "P/L percentage floor below which rolling stops for good",
			Default:     0.0,
			Min:         bound(-100),
			Max:         bound(100),
		},
	}
}

func (p *RollingExtensionPolicy) ValidateConfig(params map[string]interface{}) error {
	return ValidateParams(p.ParamSchema(), params)
}

func (p *RollingExtensionPolicy) State() (json.RawMessage, error) {
	return json.Marshal(p.state)
}

func (p *RollingExtensionPolicy) LoadState(raw json.RawMessage) error {
	if len(raw) == 0 {
		p.state = rollingExtensionState{}
		return nil
	}
	return json.Unmarshal(raw, &p.state)
}

func (p *RollingExtensionPolicy) Evaluate(ctx *Context) (Result, error) {
	if p.state.Disabled {
		return Hold("rolling permanently disabled after drawdown"), nil
	}

	buffer := paramFloat(p.ParamSchema(), ctx.Params, "breakeven_buffer_pct")
	if ctx.UnrealizedPLPct < buffer {
		p.state.Disabled = true
		return Hold(fmt.Sprintf("P/L %.1f%% fell below buffer %.1f%%, disabling rolling for this play", ctx.UnrealizedPLPct, buffer)), nil
	}

	increment := paramInt(p.ParamSchema(), ctx.Params, "increment_days")
	extended := utils.DateOnly(ctx.EffectiveDate).AddDate(0, 0, increment)
	expiration := utils.DateOnly(ctx.ContractExpiration)
	if extended.After(expiration) {
		extended = expiration
	}
	if !extended.After(utils.DateOnly(ctx.EffectiveDate)) {
		return Hold("deadline already at contract expiration"), nil
	}
	return Result{
		Action:          ActionExtend,
		RecommendedDate: extended,
		Reason:          fmt.Sprintf("rolling deadline forward %d day(s), P/L %.1f%% above buffer", increment, ctx.UnrealizedPLPct),
		Priority:        60,
	}, nil
}
