package gtd

import (
	"fmt"
	"options-trading/pkg/utils"
)

const PolicyDTEClose = "dte_close"

// DTEClosePolicy exits positions before the steepest part of the theta
// curve: close at or under a days-to-expiry threshold, otherwise pull the
// exit deadline to that many days before option expiration.
type DTEClosePolicy struct {
	NoState
}

func NewDTEClosePolicy() *DTEClosePolicy { return &DTEClosePolicy{} }

func (p *DTEClosePolicy) Name() string             { return PolicyDTEClose }
func (p *DTEClosePolicy) RequiresMarketData() bool { return false }

func (p *DTEClosePolicy) ParamSchema() ParamSchema {
	return ParamSchema{
		"close_at_dte": {
			Type:        "int",
			Description: "Close when days to expiry is at or under this threshold",
			Default:     7,
			Min:         bound(0),
			Max:         bound(60),
		},
	}
}

func (p *DTEClosePolicy) ValidateConfig(params map[string]interface{}) error {
	return ValidateParams(p.ParamSchema(), params)
}

func (p *DTEClosePolicy) Evaluate(ctx *Context) (Result, error) {
	threshold := paramInt(p.ParamSchema(), ctx.Params, "close_at_dte")
	if ctx.DaysToExpiry <= threshold {
		return Result{
			Action:   ActionCloseNow,
			Reason:   fmt.Sprintf("days to expiry %d at or under close threshold %d", ctx.DaysToExpiry, threshold),
			Priority: 40,
		}, nil
	}
	target := utils.DateOnly(ctx.ContractExpiration).AddDate(0, 0, -threshold)
	if target.Before(utils.DateOnly(ctx.EffectiveDate)) {
		return Result{
			Action:          ActionShorten,
			RecommendedDate: target,
			Reason:          fmt.Sprintf("exit %d days before option expiration", threshold),
			Priority:        40,
		}, nil
	}
	return Hold("days to expiry above threshold"), nil
}
