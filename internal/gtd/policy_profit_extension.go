package gtd

import (
	"fmt"
	"options-trading/pkg/utils"
)

const PolicyProfitExtension = "profit_extension"

// ProfitExtensionPolicy lets a winner run: when unrealized profit clears a
// minimum, it pushes the exit deadline out, clamped to option expiration.
type ProfitExtensionPolicy struct {
	NoState
}

func NewProfitExtensionPolicy() *ProfitExtensionPolicy { return &ProfitExtensionPolicy{} }

func (p *ProfitExtensionPolicy) Name() string             { return PolicyProfitExtension }
func (p *ProfitExtensionPolicy) RequiresMarketData() bool { return true }

func (p *ProfitExtensionPolicy) ParamSchema() ParamSchema {
	return ParamSchema{
		"min_profit_pct": {
			Type:        "float",
			Description: "Unrealized profit percentage required to extend",
			Default:     20.0,
			Min:         bound(0),
			Max:         bound(1000),
		},
		"extend_days": {
			Type:        "int",
			Description: "Days to push the exit deadline out",
			Default:     3,
			Min:         bound(1),
			Max:         bound(30),
		},
	}
}

func (p *ProfitExtensionPolicy) ValidateConfig(params map[string]interface{}) error {
	return ValidateParams(p.ParamSchema(), params)
}

func (p *ProfitExtensionPolicy) Evaluate(ctx *Context) (Result, error) {
	minProfit := paramFloat(p.ParamSchema(), ctx.Params, "min_profit_pct")
	extendDays := paramInt(p.ParamSchema(), ctx.Params, "extend_days")

	if ctx.UnrealizedPLPct < minProfit {
		return Hold(fmt.Sprintf("P/L %.1f%% under extension minimum %.1f%%", ctx.UnrealizedPLPct, minProfit)), nil
	}

	extended := utils.DateOnly(ctx.EffectiveDate).AddDate(0, 0, extendDays)
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
		Reason:          fmt.Sprintf("P/L %.1f%% cleared %.1f%%, letting the winner run %d more days", ctx.UnrealizedPLPct, minProfit, extendDays),
		Priority:        55,
	}, nil
}
