package gtd

import (
	"fmt"
	"options-trading/pkg/utils"
)

const PolicyMaxHoldDays = "max_hold_days"

// MaxHoldDaysPolicy caps how long a position may be held regardless of
// performance.
type MaxHoldDaysPolicy struct {
	NoState
}

func NewMaxHoldDaysPolicy() *MaxHoldDaysPolicy { return &MaxHoldDaysPolicy{} }

func (p *MaxHoldDaysPolicy) Name() string             { return PolicyMaxHoldDays }
func (p *MaxHoldDaysPolicy) RequiresMarketData() bool { return false }

func (p *MaxHoldDaysPolicy) ParamSchema() ParamSchema {
	return ParamSchema{
		"max_days": {
			Type:        "int",
			Description: "Maximum calendar days to hold the position",
			Default:     14,
			Min:         bound(1),
			Max:         bound(365),
		},
	}
}

func (p *MaxHoldDaysPolicy) ValidateConfig(params map[string]interface{}) error {
	return ValidateParams(p.ParamSchema(), params)
}

func (p *MaxHoldDaysPolicy) Evaluate(ctx *Context) (Result, error) {
	maxDays := paramInt(p.ParamSchema(), ctx.Params, "max_days")
	if ctx.DaysHeld >= maxDays {
		return Result{
			Action:   ActionCloseNow,
			Reason:   fmt.Sprintf("held %d days, maximum is %d", ctx.DaysHeld, maxDays),
			Priority: 50,
		}, nil
	}
	deadline := utils.DateOnly(ctx.EntryDate).AddDate(0, 0, maxDays)
	if deadline.Before(utils.DateOnly(ctx.EffectiveDate)) {
		return Result{
			Action:          ActionShorten,
			RecommendedDate: deadline,
			Reason:          fmt.Sprintf("cap hold time at %d days from entry", maxDays),
			Priority:        50,
		}, nil
	}
	return Hold("hold cap not yet binding"), nil
}
