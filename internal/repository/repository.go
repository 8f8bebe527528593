package repository

import (
	"options-trading/config"
	"options-trading/internal/contract"
	"options-trading/pkg/cache"
	"options-trading/pkg/logger"
)

type Repository struct {
	PlayStore     PlayStoreRepository
	MarketData    contract.MarketDataProvider
	EventCalendar contract.EventCalendar
}

func NewRepository(cfg *config.Config, inmemoryCache cache.Cache, log *logger.Logger) (*Repository, error) {
	playStore, err := NewPlayStoreRepository(cfg.Store.BaseDir, log)
	if err != nil {
		return nil, err
	}

	return &Repository{
		PlayStore:     playStore,
		MarketData:    NewMarketDataRepository(cfg, log, inmemoryCache),
		EventCalendar: NewEventCalendarRepository(cfg, log, inmemoryCache),
	}, nil
}
