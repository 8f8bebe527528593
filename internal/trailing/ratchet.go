package trailing

import (
	"options-trading/internal/model"
	"options-trading/pkg/logger"
	"options-trading/pkg/utils"
	"time"
)

// Updater applies the trailing ratchet to a play's exit sections. Trailing
// runs only when both the global gate and the section's own config are
// enabled, and levels only ever move in the favorable direction.
type Updater struct {
	enabled bool
	log     *logger.Logger
	now     func() time.Time
}

func NewUpdater(enabled bool, log *logger.Logger) *Updater {
	return &Updater{
		enabled: enabled,
		log:     log,
		now:     utils.TimeNowET,
	}
}

// UpdateTrailingLevels feeds the latest underlying price into both exit
// sections and reports whether any trail level moved.
func (u *Updater) UpdateTrailingLevels(play *model.Play, stockPrice float64) bool {
	if !u.enabled || stockPrice <= 0 {
		return false
	}

	changed := false
	if u.updateSection(play, &play.TakeProfit, stockPrice) {
		changed = true
	}
	if u.updateSection(play, &play.StopLoss, stockPrice) {
		changed = true
	}
	return changed
}

func (u *Updater) updateSection(play *model.Play, section *model.ExitSpec, price float64) bool {
	cfg := section.Trailing
	if cfg == nil || !cfg.Enabled {
		return false
	}

	if section.TrailState == nil {
		section.TrailState = &model.TrailState{
			HighestFavorablePrice: play.Entry.StockPrice,
		}
	}
	state := section.TrailState

	if moreFavorable(play.TradeType, price, state.HighestFavorablePrice) {
		state.HighestFavorablePrice = price
	}

	if !state.Activated {
		if favorableMovePct(play.TradeType, play.Entry.StockPrice, state.HighestFavorablePrice) < cfg.ActivationThresholdPct {
			return false
		}
		state.Activated = true
		u.log.Debug("Trailing activated",
			logger.StringField("symbol", play.Symbol),
			logger.Float64Field("peak", state.HighestFavorablePrice),
		)
	}

	candidate := trailLevel(play.TradeType, cfg, state.HighestFavorablePrice)
	if state.CurrentTrailLevel != 0 && !moreFavorable(play.TradeType, candidate, state.CurrentTrailLevel) {
		return false
	}

	now := u.now()
	state.History = append(state.History, model.TrailChange{
		Timestamp: now,
		OldLevel:  state.CurrentTrailLevel,
		NewLevel:  candidate,
	})
	state.CurrentTrailLevel = candidate
	state.LastUpdate = now
	return true
}

// moreFavorable reports whether a is strictly better than b for the trade
// direction: higher for CALL, lower for PUT.
func moreFavorable(tradeType model.TradeType, a, b float64) bool {
	if tradeType == model.TradeTypePut {
		return a < b
	}
	return a > b
}

func favorableMovePct(tradeType model.TradeType, entry, peak float64) float64 {
	if entry <= 0 {
		return 0
	}
	if tradeType == model.TradeTypePut {
		return (entry - peak) / entry * 100
	}
	return (peak - entry) / entry * 100
}

// trailLevel derives the protective level from the peak. CALL levels sit
// below the peak, PUT levels above it.
func trailLevel(tradeType model.TradeType, cfg *model.TrailingConfig, peak float64) float64 {
	switch cfg.Mode {
	case model.TrailingModeFixed:
		if tradeType == model.TradeTypePut {
			return peak + cfg.FixedAmount
		}
		return peak - cfg.FixedAmount
	default:
		if tradeType == model.TradeTypePut {
			return peak * (1 + cfg.Percent/100)
		}
		return peak * (1 - cfg.Percent/100)
	}
}
