package model

import (
	"encoding/json"
	"fmt"
	"time"
)

type TradeType string

const (
	TradeTypeCall TradeType = "CALL"
	TradeTypePut  TradeType = "PUT"
)

type PlayClass string

const (
	PlayClassSimple  PlayClass = "SIMPLE"
	PlayClassPrimary PlayClass = "PRIMARY"
	PlayClassOTO     PlayClass = "OTO"
)

type PlayStatus string

const (
	PlayStatusNew     PlayStatus = "NEW"
	PlayStatusOpen    PlayStatus = "OPEN"
	PlayStatusClosed  PlayStatus = "CLOSED"
	PlayStatusExpired PlayStatus = "EXPIRED"
)

type CloseType string

const (
	CloseTypeTP     CloseType = "TP"
	CloseTypeSL     CloseType = "SL"
	CloseTypeGTD    CloseType = "GTD"
	CloseTypeManual CloseType = "manual"
)

const DateLayout = "2006-01-02"

const (
	TrailingModePercentage = "percentage"
	TrailingModeFixed      = "fixed"
)

// Entry captures the market state at position entry.
type Entry struct {
	StockPrice float64   `json:"entry_stock_price"`
	Premium    float64   `json:"entry_premium"`
	OrderType  string    `json:"order_type"`
	EntryDate  time.Time `json:"entry_date"`
}

// TrailingConfig is the per-section trailing configuration. Trailing only
// runs when both this and the global trailing gate are enabled.
type TrailingConfig struct {
	Enabled                bool    `json:"enabled"`
	Mode                   string  `json:"mode"` // "percentage" or "fixed"
	Percent                float64 `json:"percent,omitempty"`
	FixedAmount            float64 `json:"fixed_amount,omitempty"`
	ActivationThresholdPct float64 `json:"activation_threshold_pct"`
}

// TrailChange is one accepted ratchet update.
type TrailChange struct {
	Timestamp time.Time `json:"timestamp"`
	OldLevel  float64   `json:"old_level"`
	NewLevel  float64   `json:"new_level"`
}

// TrailState holds the ratchet state for one TP/SL section.
type TrailState struct {
	CurrentTrailLevel     float64       `json:"current_trail_level"`
	HighestFavorablePrice float64       `json:"highest_favorable_price"`
	LastUpdate            time.Time     `json:"last_update_timestamp"`
	Activated             bool          `json:"trail_activated"`
	History               []TrailChange `json:"trail_history,omitempty"`
}

// ExitSpec describes one exit side of a play (take profit or stop loss).
// Either an absolute stock price or a premium percentage target may be set.
type ExitSpec struct {
	StockPrice float64         `json:"stock_price,omitempty"`
	PremiumPct float64         `json:"premium_pct,omitempty"`
	OrderType  string          `json:"order_type,omitempty"`
	Trailing   *TrailingConfig `json:"trailing,omitempty"`
	TrailState *TrailState     `json:"trail_state,omitempty"`
}

// ConditionalPlays references sibling plays by filename.
type ConditionalPlays struct {
	OCOTrigger string `json:"oco_trigger,omitempty"`
	OTOTrigger string `json:"oto_trigger,omitempty"`
}

type StatusBlock struct {
	PlayStatus         PlayStatus `json:"play_status"`
	OrderID            string     `json:"order_id,omitempty"`
	OrderStatus        string     `json:"order_status,omitempty"`
	PositionExists     bool       `json:"position_exists"`
	ClosingOrderID     string     `json:"closing_order_id,omitempty"`
	ClosingOrderStatus string     `json:"closing_order_status,omitempty"`
	CloseType          CloseType  `json:"close_type,omitempty"`
	ClosedAt           *time.Time `json:"closed_at,omitempty"`
}

// PolicyInstance is one configured GTD policy on a play.
type PolicyInstance struct {
	Name    string                 `json:"name"`
	Enabled bool                   `json:"enabled"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

// DynamicGTD is the dynamic good-til-date block of a play. EffectiveDate is
// the current exit deadline and is never later than the contract expiration.
type DynamicGTD struct {
	Enabled       bool                       `json:"enabled"`
	Policies      []PolicyInstance           `json:"policies,omitempty"`
	PolicyState   map[string]json.RawMessage `json:"policy_state,omitempty"`
	EffectiveDate string                     `json:"effective_date,omitempty"`
	LastEvaluated *time.Time                 `json:"last_evaluated,omitempty"`
}

// Play is one options position instance. StrikePrice and
// ContractExpirationDate are stored as strings so that structural repair can
// backfill visually distinguishable placeholders without inventing numbers.
type Play struct {
	Symbol                 string            `json:"symbol"`
	TradeType              TradeType         `json:"trade_type"`
	StrikePrice            string            `json:"strike_price"`
	ContractExpirationDate string            `json:"contract_expiration_date"`
	Entry                  Entry             `json:"entry"`
	TakeProfit             ExitSpec          `json:"take_profit"`
	StopLoss               ExitSpec          `json:"stop_loss"`
	Contracts              int               `json:"contracts"`
	PlayClass              PlayClass         `json:"play_class"`
	Conditionals           *ConditionalPlays `json:"conditional_plays,omitempty"`
	Status                 StatusBlock       `json:"status"`
	DynamicGTD             *DynamicGTD       `json:"dynamic_gtd,omitempty"`
	Integrity              bool              `json:"integrity"`

	// Filename identifies the record inside its lifecycle folder.
	Filename string `json:"-"`
	// Folder is the lifecycle folder the record was loaded from.
	Folder string `json:"-"`
}

// ExpirationTime parses the contract expiration date.
func (p *Play) ExpirationTime() (time.Time, error) {
	t, err := time.Parse(DateLayout, p.ContractExpirationDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid contract expiration date %q: %w", p.ContractExpirationDate, err)
	}
	return t, nil
}

// EffectiveDate returns the current dynamic exit deadline, falling back to
// the contract expiration when no dynamic date has been set.
func (p *Play) EffectiveDate() (time.Time, error) {
	if p.DynamicGTD != nil && p.DynamicGTD.EffectiveDate != "" {
		t, err := time.Parse(DateLayout, p.DynamicGTD.EffectiveDate)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid effective date %q: %w", p.DynamicGTD.EffectiveDate, err)
		}
		return t, nil
	}
	return p.ExpirationTime()
}

// SetEffectiveDate stores a new dynamic exit deadline.
func (p *Play) SetEffectiveDate(t time.Time) {
	if p.DynamicGTD == nil {
		p.DynamicGTD = &DynamicGTD{Enabled: true}
	}
	p.DynamicGTD.EffectiveDate = t.Format(DateLayout)
}

// IsTerminal reports whether the play reached a terminal lifecycle state.
func (p *Play) IsTerminal() bool {
	return p.Status.PlayStatus == PlayStatusClosed || p.Status.PlayStatus == PlayStatusExpired
}

// OptionContractSymbol builds the OCC-style contract identifier. The fields
// it embeds are the ones that may only be edited while the play is NEW.
func (p *Play) OptionContractSymbol() string {
	exp, err := p.ExpirationTime()
	if err != nil {
		return ""
	}
	side := "C"
	if p.TradeType == TradeTypePut {
		side = "P"
	}
	return fmt.Sprintf("%s%s%s%s", p.Symbol, exp.Format("060102"), side, p.StrikePrice)
}
