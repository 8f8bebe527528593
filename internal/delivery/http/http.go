package http

import (
	"context"
	"options-trading/internal/repository"
	"options-trading/internal/service"
	"options-trading/pkg/logger"
	appMiddleware "options-trading/pkg/middleware"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HttpAPIHandler struct {
	echo         *echo.Echo
	validator    *goValidator.Validate
	service      *service.Service
	repo         *repository.Repository
	log          *logger.Logger
	promRegistry *prometheus.Registry
}

func NewHttpAPIHandler(ctx context.Context, echo *echo.Echo, validator *goValidator.Validate, service *service.Service, repo *repository.Repository, log *logger.Logger, promRegistry *prometheus.Registry) *HttpAPIHandler {
	return &HttpAPIHandler{
		echo:         echo,
		validator:    validator,
		service:      service,
		repo:         repo,
		log:          log,
		promRegistry: promRegistry,
	}
}

func (h *HttpAPIHandler) SetupRoutes() {
	h.echo.Use(appMiddleware.NewRateLimiterMiddleware())

	base := h.echo.Group("/api")
	h.SetupPlays(base)
	h.SetupRepair(base)

	h.echo.GET("/health", h.Health)
	h.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(h.promRegistry, promhttp.HandlerOpts{})))
}
