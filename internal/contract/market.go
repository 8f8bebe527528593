package contract

import (
	"context"
	"options-trading/internal/dto"
)

// MarketDataProvider is the narrow interface onto the external market data
// collaborator. Absent data is reported through ok=false, not an error.
type MarketDataProvider interface {
	GetStockPrice(ctx context.Context, symbol string) (price float64, ok bool, err error)
	GetOptionQuote(ctx context.Context, contractSymbol string) (quote *dto.OptionQuote, ok bool, err error)
}

// EventCalendar supplies upcoming market events. Optional collaborator; a
// nil implementation means no event-driven policies fire.
type EventCalendar interface {
	GetUpcomingEvents(ctx context.Context) ([]dto.CalendarEvent, error)
}
