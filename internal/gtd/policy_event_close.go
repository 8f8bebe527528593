package gtd

import (
	"fmt"
	"options-trading/pkg/utils"
)

const PolicyEventClose = "event_close"

// EventClosePolicy exits ahead of scheduled market events. Index-wide events
// (empty symbol) apply to every play; symbol-scoped events only to matching
// plays.
type EventClosePolicy struct {
	NoState
}

func NewEventClosePolicy() *EventClosePolicy { return &EventClosePolicy{} }

func (p *EventClosePolicy) Name() string             { return PolicyEventClose }
func (p *EventClosePolicy) RequiresMarketData() bool { return false }

func (p *EventClosePolicy) ParamSchema() ParamSchema {
	return ParamSchema{
		"days_before": {
			Type:        "int",
			Description: "Days before the event to be flat by",
			Default:     2,
			Min:         bound(0),
			Max:         bound(30),
		},
	}
}

func (p *EventClosePolicy) ValidateConfig(params map[string]interface{}) error {
	return ValidateParams(p.ParamSchema(), params)
}

func (p *EventClosePolicy) Evaluate(ctx *Context) (Result, error) {
	if len(ctx.Events) == 0 {
		return Hold("no upcoming events"), nil
	}
	daysBefore := paramInt(p.ParamSchema(), ctx.Params, "days_before")
	today := utils.DateOnly(ctx.Now)

	var best Result
	for _, ev := range ctx.Events {
		if ev.Symbol != "" && ev.Symbol != ctx.Symbol {
			continue
		}
		eventDay := utils.DateOnly(ev.Date)
		if eventDay.Before(today) {
			continue
		}
		flatBy := eventDay.AddDate(0, 0, -daysBefore)
		if !flatBy.After(today) {
			return Result{
				Action:   ActionCloseNow,
				Reason:   fmt.Sprintf("%s on %s is inside the %d-day buffer", ev.Type, eventDay.Format("2006-01-02"), daysBefore),
				Priority: 15,
			}, nil
		}
		if !flatBy.Before(utils.DateOnly(ctx.EffectiveDate)) {
			continue
		}
		if best.Action != ActionShorten || flatBy.Before(best.RecommendedDate) {
			best = Result{
				Action:          ActionShorten,
				RecommendedDate: flatBy,
				Reason:          fmt.Sprintf("be flat %d days before %s on %s", daysBefore, ev.Type, eventDay.Format("2006-01-02")),
				Priority:        15,
			}
		}
	}
	if best.Action == ActionShorten {
		return best, nil
	}
	return Hold("no event shortens the deadline"), nil
}
