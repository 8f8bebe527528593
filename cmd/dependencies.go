package cmd

import (
	"context"
	"options-trading/config"
	"options-trading/pkg/cache"
	"options-trading/pkg/logger"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap/zapcore"
)

type AppDependency struct {
	cfg          *config.Config
	log          *logger.Logger
	validator    *goValidator.Validate
	echo         *echo.Echo
	cache        cache.Cache
	promRegistry *prometheus.Registry
}

func NewAppDependency(ctx context.Context) (*AppDependency, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log, err := logger.NewWithAlerts(cfg.Log.Level, cfg.Log.Encoding, logger.AlertConfig{
		BotToken: cfg.Telegram.BotToken,
		ChatID:   cfg.Telegram.ChatID,
		MinLevel: zapcore.ErrorLevel,
	})
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true

	return &AppDependency{
		cfg:          cfg,
		log:          log,
		validator:    goValidator.New(),
		echo:         e,
		cache:        cache.NewCache(cfg.Cache.DefaultExpiration, cfg.Cache.CleanupInterval),
		promRegistry: prometheus.NewRegistry(),
	}, nil
}

func (d *AppDependency) Close() error {
	d.log.Info("Closing app dependency")
	return d.log.Sync()
}
