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
	"time"
)

type eventCalendarRepository struct {
	cfg    *config.Config
	log    *logger.Logger
	client httpclient.HTTPClient
	cache  cache.Cache
}

type upcomingEventsResponse struct {
	Events []dto.CalendarEvent `json:"events"`
}

// NewEventCalendarRepository builds the optional calendar collaborator.
// Returns nil when the calendar is disabled; callers treat nil as
// "no events".
func NewEventCalendarRepository(cfg *config.Config, log *logger.Logger, inmemoryCache cache.Cache) contract.EventCalendar {
	if !cfg.Calendar.Enabled {
		return nil
	}
	return &eventCalendarRepository{
		cfg:    cfg,
		log:    log,
		client: httpclient.New(cfg.Calendar.BaseURL, cfg.Calendar.BaseTimeout, ""),
		cache:  inmemoryCache,
	}
}

func (r *eventCalendarRepository) GetUpcomingEvents(ctx context.Context) ([]dto.CalendarEvent, error) {
	if events, found := cache.GetFromCache[[]dto.CalendarEvent](common.KEY_UPCOMING_EVENTS); found {
		return events, nil
	}

	var result upcomingEventsResponse
	resp, err := r.client.Get(ctx, "/v1/calendar/events", nil, nil, &result)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch upcoming events: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("calendar provider returned status %d", resp.StatusCode)
	}

	r.cache.Set(common.KEY_UPCOMING_EVENTS, result.Events, 15*time.Minute)
	return result.Events, nil
}
