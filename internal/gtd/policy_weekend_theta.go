package gtd

import (
	"fmt"
	"options-trading/pkg/utils"
	"time"
)

const PolicyWeekendTheta = "weekend_theta"

// WeekendThetaPolicy avoids paying two days of decay over the weekend on
// short-dated contracts: close on Friday, or on Thursday shorten the
// deadline to Friday.
type WeekendThetaPolicy struct {
	NoState
}

func NewWeekendThetaPolicy() *WeekendThetaPolicy { return &WeekendThetaPolicy{} }

func (p *WeekendThetaPolicy) Name() string             { return PolicyWeekendTheta }
func (p *WeekendThetaPolicy) RequiresMarketData() bool { return false }

func (p *WeekendThetaPolicy) ParamSchema() ParamSchema {
	return ParamSchema{
		"dte_concern": {
			Type:        "int",
			Description: "Apply only when days to expiry is at or under this",
			Default:     14,
			Min:         bound(1),
			Max:         bound(60),
		},
	}
}

func (p *WeekendThetaPolicy) ValidateConfig(params map[string]interface{}) error {
	return ValidateParams(p.ParamSchema(), params)
}

func (p *WeekendThetaPolicy) Evaluate(ctx *Context) (Result, error) {
	concern := paramInt(p.ParamSchema(), ctx.Params, "dte_concern")
	if ctx.DaysToExpiry > concern {
		return Hold("expiry too far out for weekend concern"), nil
	}

	switch ctx.Now.Weekday() {
	case time.Friday:
		return Result{
			Action:   ActionCloseNow,
			Reason:   fmt.Sprintf("Friday with %d days to expiry, avoiding weekend decay", ctx.DaysToExpiry),
			Priority: 25,
		}, nil
	case time.Thursday:
		friday := utils.DateOnly(ctx.Now).AddDate(0, 0, 1)
		if friday.Before(utils.DateOnly(ctx.EffectiveDate)) {
			return Result{
				Action:          ActionShorten,
				RecommendedDate: friday,
				Reason:          "exit by Friday to avoid weekend decay",
				Priority:        25,
			}, nil
		}
	}
	return Hold("not near a weekend boundary"), nil
}
