package gtd

import "fmt"

const PolicyProfitTimeStop = "profit_time_stop"

// ProfitTimeStopPolicy force-closes a position that failed to become
// profitable within its allotted days. A position already in profit is
// left alone.
type ProfitTimeStopPolicy struct {
	NoState
}

func NewProfitTimeStopPolicy() *ProfitTimeStopPolicy { return &ProfitTimeStopPolicy{} }

func (p *ProfitTimeStopPolicy) Name() string             { return PolicyProfitTimeStop }
func (p *ProfitTimeStopPolicy) RequiresMarketData() bool { return true }

func (p *ProfitTimeStopPolicy) ParamSchema() ParamSchema {
	return ParamSchema{
		"max_days": {
			Type:        "int",
			Description: "Days allowed to reach profitability",
			Default:     5,
			Min:         bound(1),
			Max:         bound(60),
		},
	}
}

func (p *ProfitTimeStopPolicy) ValidateConfig(params map[string]interface{}) error {
	return ValidateParams(p.ParamSchema(), params)
}

func (p *ProfitTimeStopPolicy) Evaluate(ctx *Context) (Result, error) {
	maxDays := paramInt(p.ParamSchema(), ctx.Params, "max_days")
	if ctx.DaysHeld < maxDays {
		return Hold("profit window still open"), nil
	}
	if ctx.UnrealizedPLPct > 0 {
		return Hold("already profitable, time stop waived"), nil
	}
	return Result{
		Action:   ActionCloseNow,
		Reason:   fmt.Sprintf("not profitable after %d days (P/L %.1f%%)", ctx.DaysHeld, ctx.UnrealizedPLPct),
		Priority: 35,
	}, nil
}
