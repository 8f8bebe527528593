package service

import (
	"options-trading/config"
	"options-trading/internal/gtd"
	"options-trading/internal/lifecycle"
	"options-trading/internal/repository"
	"options-trading/internal/trailing"
	"options-trading/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
)

type Service struct {
	OrchestratorService OrchestratorService
	MonitorService      MonitorService
	StateMachine        *lifecycle.StateMachine
	Registry            *gtd.Registry
	Metrics             *Metrics
	Heartbeat           *Heartbeat
}

func NewService(
	cfg *config.Config,
	log *logger.Logger,
	repo *repository.Repository,
	promRegistry *prometheus.Registry,
) *Service {
	metrics := NewMetrics(promRegistry)
	heartbeat := NewHeartbeat()

	registry := gtd.DefaultRegistry()
	evaluator := gtd.NewEvaluator(registry, log)
	ctxBuilder := gtd.NewContextBuilder(repo.MarketData, repo.EventCalendar, log)
	stateMachine := lifecycle.NewStateMachine(repo.PlayStore, log)
	trailer := trailing.NewUpdater(cfg.Trailing.Enabled, log)

	orchestrator := NewOrchestratorService(cfg, log, repo.PlayStore, ctxBuilder, evaluator, trailer, stateMachine, heartbeat, metrics)
	monitor := NewMonitorService(cfg, log, heartbeat, metrics)

	return &Service{
		OrchestratorService: orchestrator,
		MonitorService:      monitor,
		StateMachine:        stateMachine,
		Registry:            registry,
		Metrics:             metrics,
		Heartbeat:           heartbeat,
	}
}
