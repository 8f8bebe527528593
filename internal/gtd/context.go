package gtd

import (
	"context"
	"encoding/json"
	"options-trading/internal/contract"
	"options-trading/internal/dto"
	"options-trading/internal/model"
	"options-trading/pkg/logger"
	"options-trading/pkg/utils"
	"time"
)

// Context is the immutable snapshot handed to each policy for one
// evaluation cycle. It is built once per play per cycle and shared
// read-only; the per-policy State and Params fields are stamped onto a copy
// by the evaluator before each policy runs.
type Context struct {
	Symbol    string
	TradeType model.TradeType

	Now                time.Time
	EntryDate          time.Time
	ContractExpiration time.Time
	EffectiveDate      time.Time

	CurrentPrice    float64
	EntryPrice      float64
	CurrentPremium  float64
	EntryPremium    float64
	UnrealizedPLPct float64

	Greeks *dto.OptionQuote

	DaysHeld     int
	DaysToExpiry int

	MarketOpen          bool
	MarketDataAvailable bool

	Events []dto.CalendarEvent

	// Per-policy fields, stamped by the evaluator.
	State  json.RawMessage
	Params map[string]interface{}
}

// forPolicy copies the shared context with one policy's state and params.
func (c *Context) forPolicy(state json.RawMessage, params map[string]interface{}) *Context {
	cp := *c
	cp.State = state
	cp.Params = params
	return &cp
}

// ContextBuilder assembles the evaluation snapshot from the play record and
// the external collaborators.
type ContextBuilder struct {
	marketData contract.MarketDataProvider
	calendar   contract.EventCalendar
	log        *logger.Logger
	now        func() time.Time
}

func NewContextBuilder(marketData contract.MarketDataProvider, calendar contract.EventCalendar, log *logger.Logger) *ContextBuilder {
	return &ContextBuilder{
		marketData: marketData,
		calendar:   calendar,
		log:        log,
		now:        utils.TimeNowET,
	}
}

// Build constructs the shared snapshot for one play. Missing market data is
// not an error: the snapshot records its absence and data-hungry policies
// are skipped downstream.
func (b *ContextBuilder) Build(ctx context.Context, play *model.Play) (*Context, error) {
	expiration, err := play.ExpirationTime()
	if err != nil {
		return nil, err
	}
	effective, err := play.EffectiveDate()
	if err != nil {
		return nil, err
	}

	now := b.now()
	gctx := &Context{
		Symbol:             play.Symbol,
		TradeType:          play.TradeType,
		Now:                now,
		EntryDate:          play.Entry.EntryDate,
		ContractExpiration: expiration,
		EffectiveDate:      effective,
		EntryPrice:         play.Entry.StockPrice,
		EntryPremium:       play.Entry.Premium,
		DaysHeld:           utils.DaysBetween(play.Entry.EntryDate, now),
		DaysToExpiry:       utils.DaysBetween(now, expiration),
		MarketOpen:         utils.IsMarketOpen(now),
	}

	price, priceOK, err := b.marketData.GetStockPrice(ctx, play.Symbol)
	if err != nil {
		b.log.WarnContext(ctx, "Failed to fetch stock price",
			logger.StringField("symbol", play.Symbol),
			logger.ErrorField(err),
		)
	}

	quote, quoteOK, err := b.marketData.GetOptionQuote(ctx, play.OptionContractSymbol())
	if err != nil {
		b.log.WarnContext(ctx, "Failed to fetch option quote",
			logger.StringField("symbol", play.Symbol),
			logger.ErrorField(err),
		)
	}

	if priceOK {
		gctx.CurrentPrice = price
	}
	if quoteOK && quote != nil {
		gctx.CurrentPremium = quote.Premium
		gctx.Greeks = quote
	}
	gctx.MarketDataAvailable = priceOK && quoteOK

	if gctx.EntryPremium > 0 && gctx.CurrentPremium > 0 {
		gctx.UnrealizedPLPct = (gctx.CurrentPremium - gctx.EntryPremium) / gctx.EntryPremium * 100
	}

	if b.calendar != nil {
		events, err := b.calendar.GetUpcomingEvents(ctx)
		if err != nil {
			b.log.WarnContext(ctx, "Failed to fetch upcoming events", logger.ErrorField(err))
		} else {
			gctx.Events = events
		}
	}

	return gctx, nil
}
