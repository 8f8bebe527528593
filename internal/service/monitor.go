package service

import (
	"context"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"options-trading/config"
	"options-trading/pkg/logger"
	"options-trading/pkg/utils"
)

// Heartbeat is the shared liveness state between the sweep loop and the
// monitor goroutine. One mutex guards it; both sides only hold it for the
// read or write itself.
type Heartbeat struct {
	mu   sync.Mutex
	last time.Time
}

func NewHeartbeat() *Heartbeat {
	return &Heartbeat{last: time.Now()}
}

func (h *Heartbeat) Beat() {
	h.mu.Lock()
	h.last = time.Now()
	h.mu.Unlock()
}

func (h *Heartbeat) Age() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return time.Since(h.last)
}

type MonitorService interface {
	Start(ctx context.Context) error
}

// monitorService watches the sweep heartbeat and process resource usage on
// its own timer. It never cancels a sweep: a stall is reported and handed to
// the recovery hook, not interrupted.
type monitorService struct {
	cfg       *config.Config
	log       *logger.Logger
	heartbeat *Heartbeat
	metrics   *Metrics
}

func NewMonitorService(cfg *config.Config, log *logger.Logger, heartbeat *Heartbeat, metrics *Metrics) MonitorService {
	return &monitorService{
		cfg:       cfg,
		log:       log,
		heartbeat: heartbeat,
		metrics:   metrics,
	}
}

func (s *monitorService) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Monitor.CheckInterval)
	defer ticker.Stop()

	s.log.Info("Liveness monitor started",
		logger.StringField("check_interval", s.cfg.Monitor.CheckInterval.String()),
	)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Liveness monitor stopped")
			return nil
		case <-ticker.C:
			s.check(ctx)
		}
	}
}

func (s *monitorService) check(ctx context.Context) {
	age := s.heartbeat.Age()
	s.metrics.HeartbeatAge.Set(age.Seconds())

	if age > 2*s.cfg.Monitor.CheckInterval {
		s.log.ErrorContextWithAlert(ctx, "FATAL liveness failure: sweep heartbeat stale",
			logger.StringField("heartbeat_age", age.String()),
			logger.StringField("check_interval", s.cfg.Monitor.CheckInterval.String()),
		)
		s.invokeRecoveryHook(ctx)
	}

	goroutines := runtime.NumGoroutine()
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	memMB := float64(mem.HeapAlloc) / 1024 / 1024

	s.metrics.Goroutines.Set(float64(goroutines))
	s.metrics.MemoryMB.Set(memMB)

	if s.cfg.Monitor.MaxGoroutines > 0 && goroutines > s.cfg.Monitor.MaxGoroutines {
		s.log.WarnContext(ctx, "Goroutine count above limit",
			logger.IntField("goroutines", goroutines),
			logger.IntField("limit", s.cfg.Monitor.MaxGoroutines),
		)
	}
	if s.cfg.Monitor.MaxMemoryMB > 0 && memMB > float64(s.cfg.Monitor.MaxMemoryMB) {
		s.log.WarnContext(ctx, "Memory usage above limit",
			logger.Float64Field("memory_mb", memMB),
			logger.IntField("limit_mb", s.cfg.Monitor.MaxMemoryMB),
		)
	}
}

func (s *monitorService) invokeRecoveryHook(ctx context.Context) {
	script := s.cfg.Monitor.Recoveryscript
	if script == "" {
		return
	}
	utils.GoSafe(func() {
		out, err := exec.Command(script).CombinedOutput()
		if err != nil {
			s.log.ErrorContext(ctx, "Recovery hook failed",
				logger.StringField("script", script),
				logger.StringField("output", string(out)),
				logger.ErrorField(err),
			)
			return
		}
		s.log.InfoContext(ctx, "Recovery hook invoked", logger.StringField("script", script))
	})
}
