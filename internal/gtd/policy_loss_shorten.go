package gtd

import (
	"fmt"
	"math"
	"options-trading/pkg/utils"
)

const PolicyLossShorten = "loss_shorten"

// LossShortenPolicy pulls the exit deadline closer in proportion to how far
// the unrealized loss has breached a negative threshold, escalating to an
// immediate close when the shortened date would already be in the past.
type LossShortenPolicy struct {
	NoState
}

func NewLossShortenPolicy() *LossShortenPolicy { return &LossShortenPolicy{} }

func (p *LossShortenPolicy) Name() string             { return PolicyLossShorten }
func (p *LossShortenPolicy) RequiresMarketData() bool { return true }

func (p *LossShortenPolicy) ParamSchema() ParamSchema {
	return ParamSchema{
		"loss_threshold_pct": {
			Type:        "float",
			Description: "Negative P/L percentage that starts shortening",
			Default:     -10.0,
			Min:         bound(-100),
			Max:         bound(0),
		},
	}
}

func (p *LossShortenPolicy) ValidateConfig(params map[string]interface{}) error {
	return ValidateParams(p.ParamSchema(), params)
}

func (p *LossShortenPolicy) Evaluate(ctx *Context) (Result, error) {
	threshold := paramFloat(p.ParamSchema(), ctx.Params, "loss_threshold_pct")
	if ctx.UnrealizedPLPct >= threshold {
		return Hold("loss threshold not breached"), nil
	}

	breach := (threshold - ctx.UnrealizedPLPct) / math.Abs(threshold)
	if breach > 1 {
		breach = 1
	}
	remaining := utils.DaysBetween(ctx.Now, ctx.EffectiveDate)
	cut := int(math.Ceil(breach * float64(remaining)))
	shortened := utils.DateOnly(ctx.EffectiveDate).AddDate(0, 0, -cut)

	if !shortened.After(utils.DateOnly(ctx.Now)) {
		return Result{
			Action:   ActionCloseNow,
			Reason:   fmt.Sprintf("P/L %.1f%% breached threshold %.1f%% and shortened date is already due", ctx.UnrealizedPLPct, threshold),
			Priority: 20,
		}, nil
	}
	return Result{
		Action:          ActionShorten,
		RecommendedDate: shortened,
		Reason:          fmt.Sprintf("P/L %.1f%% breached threshold %.1f%%, cutting %d days", ctx.UnrealizedPLPct, threshold, cut),
		Priority:        20,
	}, nil
}
