package gtd

import (
	"fmt"
	"math"
)

const PolicyThetaDecay = "theta_decay"

// ThetaDecayPolicy closes a position once the daily theta burn reaches a
// configurable share of the current premium.
type ThetaDecayPolicy struct {
	NoState
}

func NewThetaDecayPolicy() *ThetaDecayPolicy { return &ThetaDecayPolicy{} }

func (p *ThetaDecayPolicy) Name() string             { return PolicyThetaDecay }
func (p *ThetaDecayPolicy) RequiresMarketData() bool { return true }

func (p *ThetaDecayPolicy) ParamSchema() ParamSchema {
	return ParamSchema{
		"max_theta_pct": {
			Type:        "float",
			Description: "Daily theta as a percentage of current premium that forces a close",
			Default:     5.0,
			Min:         bound(0.1),
			Max:         bound(100),
		},
	}
}

func (p *ThetaDecayPolicy) ValidateConfig(params map[string]interface{}) error {
	return ValidateParams(p.ParamSchema(), params)
}

func (p *ThetaDecayPolicy) Evaluate(ctx *Context) (Result, error) {
	if ctx.Greeks == nil || ctx.CurrentPremium <= 0 {
		return Hold("no greeks available"), nil
	}
	maxPct := paramFloat(p.ParamSchema(), ctx.Params, "max_theta_pct")
	dailyBurn := math.Abs(ctx.Greeks.Theta)
	limit := ctx.CurrentPremium * maxPct / 100

	if dailyBurn >= limit {
		return Result{
			Action:   ActionCloseNow,
			Reason:   fmt.Sprintf("daily theta %.4f is %.1f%%+ of premium %.2f", dailyBurn, maxPct, ctx.CurrentPremium),
			Priority: 30,
		}, nil
	}
	return Hold("theta burn within tolerance"), nil
}
