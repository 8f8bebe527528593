package repository

import (
	"context"
	"fmt"
	"net/http"
	"options-trading/config"
	"options-trading/internal/contract"
	"options-trading/internal/dto"
	"options-trading/pkg/cache"
	"options-trading/pkg/common"
	"options-trading/pkg/httpclient"
	"options-trading/pkg/logger"
	"options-trading/pkg/ratelimit"
	"time"
)

type marketDataRepository struct {
	cfg     *config.Config
	log     *logger.Logger
	client  httpclient.HTTPClient
	cache   cache.Cache
	limiter *ratelimit.TokenLimiter
}

type stockPriceResponse struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

type optionQuoteResponse struct {
	ContractSymbol string          `json:"contract_symbol"`
	Quote          dto.OptionQuote `json:"quote"`
}

// NewMarketDataRepository builds the market data collaborator client.
// Responses are cached briefly so one sweep does not hammer the provider.
func NewMarketDataRepository(cfg *config.Config, log *logger.Logger, inmemoryCache cache.Cache) contract.MarketDataProvider {
	return &marketDataRepository{
		cfg:     cfg,
		log:     log,
		client:  httpclient.New(cfg.MarketData.BaseURL, cfg.MarketData.BaseTimeout, cfg.MarketData.APIToken),
		cache:   inmemoryCache,
		limiter: ratelimit.NewTokenLimiter(cfg.MarketData.MaxRequestPerMin),
	}
}

func (r *marketDataRepository) GetStockPrice(ctx context.Context, symbol string) (float64, bool, error) {
	cacheKey := fmt.Sprintf(common.KEY_LAST_STOCK_PRICE, symbol)
	if price, found := cache.GetFromCache[float64](cacheKey); found {
		return price, true, nil
	}

	if err := r.limiter.Wait(ctx, 1); err != nil {
		return 0, false, err
	}

	var result stockPriceResponse
	resp, err := r.client.Get(ctx, "/v1/markets/quotes", map[string]string{"symbol": symbol}, nil, &result)
	if err != nil {
		return 0, false, fmt.Errorf("failed to fetch stock price for %s: %w", symbol, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		r.log.DebugContext(ctx, "Stock price unavailable", logger.StringField("symbol", symbol))
		return 0, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return 0, false, fmt.Errorf("market data provider returned status %d for %s", resp.StatusCode, symbol)
	}
	if result.Price <= 0 {
		return 0, false, nil
	}

	r.cache.Set(cacheKey, result.Price, 30*time.Second)
	return result.Price, true, nil
}

func (r *marketDataRepository) GetOptionQuote(ctx context.Context, contractSymbol string) (*dto.OptionQuote, bool, error) {
	cacheKey := fmt.Sprintf(common.KEY_LAST_OPTION_QUOTE, contractSymbol)
	if quote, found := cache.GetFromCache[*dto.OptionQuote](cacheKey); found {
		return quote, true, nil
	}

	if err := r.limiter.Wait(ctx, 1); err != nil {
		return nil, false, err
	}

	var result optionQuoteResponse
	resp, err := r.client.Get(ctx, "/v1/markets/options/quotes", map[string]string{"symbol": contractSymbol}, nil, &result)
	if err != nil {
		return nil, false, fmt.Errorf("failed to fetch option quote for %s: %w", contractSymbol, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		r.log.DebugContext(ctx, "Option quote unavailable", logger.StringField("contract", contractSymbol))
		return nil, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("market data provider returned status %d for %s", resp.StatusCode, contractSymbol)
	}

	quote := result.Quote
	r.cache.Set(cacheKey, &quote, 30*time.Second)
	return &quote, true, nil
}
