package gtd

import (
	"fmt"
	"math"
	"options-trading/pkg/utils"
)

const PolicyHalfLife = "half_life"

// HalfLifePolicy closes the play at a configurable fraction of its total
// life between entry and option expiration.
type HalfLifePolicy struct {
	NoState
}

func NewHalfLifePolicy() *HalfLifePolicy { return &HalfLifePolicy{} }

func (p *HalfLifePolicy) Name() string             { return PolicyHalfLife }
func (p *HalfLifePolicy) RequiresMarketData() bool { return false }

func (p *HalfLifePolicy) ParamSchema() ParamSchema {
	return ParamSchema{
		"fraction": {
			Type:        "float",
			Description: "Fraction of the entry-to-expiration life to hold",
			Default:     0.5,
			Min:         bound(0.1),
			Max:         bound(0.9),
		},
	}
}

func (p *HalfLifePolicy) ValidateConfig(params map[string]interface{}) error {
	return ValidateParams(p.ParamSchema(), params)
}

func (p *HalfLifePolicy) Evaluate(ctx *Context) (Result, error) {
	fraction := paramFloat(p.ParamSchema(), ctx.Params, "fraction")
	totalLife := utils.DaysBetween(ctx.EntryDate, ctx.ContractExpiration)
	if totalLife <= 0 {
		return Hold("no remaining life to split"), nil
	}
	boundaryDays := int(math.Ceil(float64(totalLife) * fraction))
	if ctx.DaysHeld >= boundaryDays {
		return Result{
			Action:   ActionCloseNow,
			Reason:   fmt.Sprintf("held %d of %d days, past the %.0f%% life boundary", ctx.DaysHeld, totalLife, fraction*100),
			Priority: 45,
		}, nil
	}
	boundary := utils.DateOnly(ctx.EntryDate).AddDate(0, 0, boundaryDays)
	if boundary.Before(utils.DateOnly(ctx.EffectiveDate)) {
		return Result{
			Action:          ActionShorten,
			RecommendedDate: boundary,
			Reason:          fmt.Sprintf("exit at %.0f%% of contract life", fraction*100),
			Priority:        45,
		}, nil
	}
	return Hold("life boundary not reached"), nil
}
