package dto

import "time"

// OptionQuote is one option contract quote from the market data collaborator.
type OptionQuote struct {
	Premium float64 `json:"premium"`
	Bid     float64 `json:"bid"`
	Ask     float64 `json:"ask"`
	Delta   float64 `json:"delta"`
	Gamma   float64 `json:"gamma"`
	Theta   float64 `json:"theta"`
	Vega    float64 `json:"vega"`
	Rho     float64 `json:"rho"`
}

type EventType string

const (
	EventTypeEarnings EventType = "earnings"
	EventTypeDividend EventType = "dividend"
	EventTypeFOMC     EventType = "fomc"
	EventTypeCPI      EventType = "cpi"
)

// CalendarEvent is one upcoming market event. Symbol is empty for
// index-wide events such as FOMC meetings.
type CalendarEvent struct {
	Type   EventType `json:"type"`
	Symbol string    `json:"symbol,omitempty"`
	Date   time.Time `json:"date"`
}
