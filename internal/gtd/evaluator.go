package gtd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"options-trading/internal/dto"
	"options-trading/internal/model"
	"options-trading/pkg/logger"
	"options-trading/pkg/utils"
	"time"
)

type namedResult struct {
	name   string
	result Result
}

// Evaluator runs every enabled policy on a play and resolves their
// recommendations into one authoritative decision per cycle.
type Evaluator struct {
	registry *Registry
	log      *logger.Logger
}

func NewEvaluator(registry *Registry, log *logger.Logger) *Evaluator {
	return &Evaluator{
		registry: registry,
		log:      log,
	}
}

// EvaluatePlay executes the configured policies against the shared snapshot
// and resolves conflicts. It mutates only the play's DynamicGTD block
// (persisted policy state, effective date, last-evaluated stamp); the
// caller persists the play.
func (e *Evaluator) EvaluatePlay(ctx context.Context, play *model.Play, gctx *Context) (*dto.PlayEvaluation, error) {
	eval := &dto.PlayEvaluation{}

	if play.DynamicGTD == nil || !play.DynamicGTD.Enabled {
		return eval, nil
	}

	var collected []namedResult
	for _, instance := range play.DynamicGTD.Policies {
		if !instance.Enabled {
			continue
		}
		logEntry := dto.PolicyResultLog{Policy: instance.Name}

		policy, err := e.registry.Create(instance.Name)
		if err != nil {
			e.log.ErrorContext(ctx, "Unknown policy configured on play",
				logger.StringField("policy", instance.Name),
				logger.StringField("play", play.Filename),
			)
			logEntry.Skipped = true
			logEntry.SkipReason = "unknown policy"
			eval.PerPolicyResults = append(eval.PerPolicyResults, logEntry)
			continue
		}

		if err := policy.ValidateConfig(instance.Params); err != nil {
			e.log.WarnContext(ctx, "Policy config invalid, skipping",
				logger.StringField("policy", instance.Name),
				logger.StringField("play", play.Filename),
				logger.ErrorField(err),
			)
			logEntry.Skipped = true
			logEntry.SkipReason = fmt.Sprintf("invalid config: %v", err)
			eval.PerPolicyResults = append(eval.PerPolicyResults, logEntry)
			continue
		}

		if policy.RequiresMarketData() && !gctx.MarketDataAvailable {
			e.log.InfoContext(ctx, "Market data unavailable, skipping policy",
				logger.StringField("policy", instance.Name),
				logger.StringField("play", play.Filename),
			)
			logEntry.Skipped = true
			logEntry.SkipReason = "market data unavailable"
			eval.PerPolicyResults = append(eval.PerPolicyResults, logEntry)
			continue
		}

		if prior, ok := play.DynamicGTD.PolicyState[instance.Name]; ok {
			if err := policy.LoadState(prior); err != nil {
				e.log.WarnContext(ctx, "Failed to load policy state, starting fresh",
					logger.StringField("policy", instance.Name),
					logger.ErrorField(err),
				)
			}
		}

		result, err := e.runPolicy(policy, gctx.forPolicy(play.DynamicGTD.PolicyState[instance.Name], instance.Params))
		if err != nil {
			// A failing policy abstains; the sweep never crashes on one.
			e.log.ErrorContext(ctx, "Policy evaluation failed, treating as abstained",
				logger.StringField("policy", instance.Name),
				logger.StringField("play", play.Filename),
				logger.ErrorField(err),
			)
			logEntry.Skipped = true
			logEntry.SkipReason = fmt.Sprintf("evaluation error: %v", err)
			eval.PerPolicyResults = append(eval.PerPolicyResults, logEntry)
			continue
		}

		if state, err := policy.State(); err == nil && state != nil {
			if !bytes.Equal(play.DynamicGTD.PolicyState[instance.Name], state) {
				if play.DynamicGTD.PolicyState == nil {
					play.DynamicGTD.PolicyState = make(map[string]json.RawMessage)
				}
				play.DynamicGTD.PolicyState[instance.Name] = state
				eval.PolicyStateChanged = true
			}
		}

		logEntry.Action = string(result.Action)
		logEntry.Reason = result.Reason
		logEntry.Priority = result.Priority
		if result.Action == ActionShorten || result.Action == ActionExtend {
			d := result.RecommendedDate
			logEntry.RecommendedDate = &d
		}
		eval.PerPolicyResults = append(eval.PerPolicyResults, logEntry)
		collected = append(collected, namedResult{name: instance.Name, result: result})
	}

	e.resolve(eval, collected, gctx)

	// An unchanged resolution must not dirty the record, so the evaluation
	// stamp moves only together with a real change.
	if eval.ShouldClose || eval.EffectiveDateChanged || eval.PolicyStateChanged {
		now := gctx.Now
		play.DynamicGTD.LastEvaluated = &now
	}
	return eval, nil
}

// runPolicy isolates a single policy call so a panic inside one policy is
// converted into an abstention.
func (e *Evaluator) runPolicy(policy Policy, gctx *Context) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("policy panicked: %v", r)
		}
	}()
	return policy.Evaluate(gctx)
}

// resolve applies the fixed-order decision table. The order encodes the
// safety contract: CLOSE_NOW beats everything, SHORTEN always beats EXTEND
// regardless of priority numbers, and priority only breaks ties within one
// action class.
func (e *Evaluator) resolve(eval *dto.PlayEvaluation, collected []namedResult, gctx *Context) {
	current := utils.DateOnly(gctx.EffectiveDate)
	today := utils.DateOnly(gctx.Now)

	// Step 1: any CLOSE_NOW wins outright, lowest priority number first.
	var closeWinner *namedResult
	for i := range collected {
		if collected[i].result.Action != ActionCloseNow {
			continue
		}
		if closeWinner == nil || collected[i].result.Priority < closeWinner.result.Priority {
			closeWinner = &collected[i]
		}
	}
	if closeWinner != nil {
		eval.ShouldClose = true
		eval.IsGTDExit = true
		eval.CloseReason = fmt.Sprintf("%s: %s", closeWinner.name, closeWinner.result.Reason)
		return
	}

	// Step 2: earliest SHORTEN date is the most conservative.
	var resolved *time.Time
	for _, nr := range collected {
		if nr.result.Action != ActionShorten {
			continue
		}
		d := utils.DateOnly(nr.result.RecommendedDate)
		if resolved == nil || d.Before(*resolved) {
			resolved = &d
		}
	}

	// Step 3: only when no SHORTEN exists, latest EXTEND clamped to the
	// contract expiration.
	if resolved == nil {
		for _, nr := range collected {
			if nr.result.Action != ActionExtend {
				continue
			}
			d := utils.DateOnly(nr.result.RecommendedDate)
			if resolved == nil || d.After(*resolved) {
				resolved = &d
			}
		}
		if resolved != nil {
			expiration := utils.DateOnly(gctx.ContractExpiration)
			if resolved.After(expiration) {
				resolved = &expiration
			}
		}
	}

	// Step 5: no opinion leaves the effective date untouched, and an
	// unchanged resolution must not be reported as a change.
	if resolved == nil || resolved.Equal(current) {
		final := current
		eval.EffectiveDate = &final
		eval.EffectiveDateChanged = false
	} else {
		eval.EffectiveDate = resolved
		eval.EffectiveDateChanged = true
	}

	// A reached deadline is itself a GTD exit.
	if !eval.EffectiveDate.After(today) {
		eval.ShouldClose = true
		eval.IsGTDExit = true
		eval.CloseReason = fmt.Sprintf("good-til-date %s reached", eval.EffectiveDate.Format(model.DateLayout))
	}
}
