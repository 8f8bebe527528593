package service

import (
	"context"
	"fmt"
	"time"

	"options-trading/config"
	"options-trading/internal/dto"
	"options-trading/internal/gtd"
	"options-trading/internal/lifecycle"
	"options-trading/internal/model"
	"options-trading/internal/repository"
	"options-trading/internal/trailing"
	"options-trading/pkg/logger"
	"options-trading/pkg/utils"

	"github.com/robfig/cron/v3"
)

type OrchestratorService interface {
	Start(ctx context.Context) error
	Sweep(ctx context.Context) []dto.SweepResult
	EvaluatePlay(ctx context.Context, play *model.Play) (*dto.PlayEvaluation, error)
}

// orchestratorService runs the single cooperative sweep loop. Each sweep
// walks the active plays sequentially: load, heartbeat, GTD evaluation,
// trailing update, state machine, persist. One play's failure is captured
// and the sweep moves on.
type orchestratorService struct {
	cfg          *config.Config
	log          *logger.Logger
	store        repository.PlayStoreRepository
	ctxBuilder   *gtd.ContextBuilder
	evaluator    *gtd.Evaluator
	trailer      *trailing.Updater
	stateMachine *lifecycle.StateMachine
	heartbeat    *Heartbeat
	metrics      *Metrics
}

func NewOrchestratorService(
	cfg *config.Config,
	log *logger.Logger,
	store repository.PlayStoreRepository,
	ctxBuilder *gtd.ContextBuilder,
	evaluator *gtd.Evaluator,
	trailer *trailing.Updater,
	stateMachine *lifecycle.StateMachine,
	heartbeat *Heartbeat,
	metrics *Metrics,
) OrchestratorService {
	return &orchestratorService{
		cfg:          cfg,
		log:          log,
		store:        store,
		ctxBuilder:   ctxBuilder,
		evaluator:    evaluator,
		trailer:      trailer,
		stateMachine: stateMachine,
		heartbeat:    heartbeat,
		metrics:      metrics,
	}
}

func (s *orchestratorService) Start(ctx context.Context) error {
	scheduler := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DiscardLogger),
		cron.Recover(cron.DiscardLogger),
	))

	spec := fmt.Sprintf("@every %s", s.cfg.Orchestrator.SweepInterval)
	_, err := scheduler.AddFunc(spec, func() {
		sweepCtx, cancel := context.WithTimeout(ctx, s.cfg.Orchestrator.SweepTimeout)
		defer cancel()
		s.Sweep(sweepCtx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}

	s.log.Info("Orchestrator started",
		logger.StringField("sweep_interval", s.cfg.Orchestrator.SweepInterval.String()),
	)
	scheduler.Start()

	<-ctx.Done()
	stopCtx := scheduler.Stop()
	<-stopCtx.Done()
	s.log.Info("Orchestrator stopped")
	return nil
}

// Sweep processes every active play once. Per-play errors are captured in
// the results; only a store-level listing failure aborts the sweep.
func (s *orchestratorService) Sweep(ctx context.Context) []dto.SweepResult {
	started := time.Now()
	s.heartbeat.Beat()

	plays, err := s.store.GetActivePlays(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to list active plays", logger.ErrorField(err))
		s.metrics.SweepErrorsTotal.Inc()
		return nil
	}

	results := make([]dto.SweepResult, 0, len(plays))
	for i := range plays {
		if !utils.ShouldContinue(ctx, s.log) {
			break
		}
		play := &plays[i]
		result := dto.SweepResult{Filename: play.Filename, Symbol: play.Symbol}
		if err := s.processPlay(ctx, play); err != nil {
			result.Errors = err.Error()
			s.metrics.SweepErrorsTotal.Inc()
			s.log.ErrorContext(ctx, "Failed to process play",
				logger.StringField("play", play.Filename),
				logger.StringField("symbol", play.Symbol),
				logger.ErrorField(err),
			)
		}
		results = append(results, result)
	}

	if queued := s.stateMachine.DrainRepairQueue(); len(queued) > 0 {
		s.log.WarnContext(ctx, "Running repair for integrity-blocked records",
			logger.IntField("queued", len(queued)),
		)
		fixed, err := s.store.CheckAndFixAllPlays(ctx)
		if err != nil {
			s.log.ErrorContext(ctx, "Repair pass failed", logger.ErrorField(err))
		} else if fixed > 0 {
			s.metrics.RepairsTotal.Add(float64(fixed))
		}
	}

	s.metrics.SweepsTotal.Inc()
	s.metrics.SweepDuration.Observe(time.Since(started).Seconds())
	s.log.InfoContext(ctx, "Sweep completed",
		logger.IntField("plays", len(results)),
		logger.StringField("duration", time.Since(started).String()),
	)
	return results
}

func (s *orchestratorService) processPlay(ctx context.Context, play *model.Play) error {
	if play.IsTerminal() {
		return nil
	}
	if !play.Integrity {
		s.log.WarnContext(ctx, "Skipping integrity-failing play",
			logger.StringField("play", play.Filename),
		)
		return nil
	}

	expiration, err := play.ExpirationTime()
	if err != nil {
		return err
	}
	// A lapsed contract expires the play whether it was filled or not.
	now := utils.TimeNowET()
	if utils.DateOnly(now).After(utils.DateOnly(expiration)) {
		return s.stateMachine.Expire(ctx, play)
	}
	if play.Status.PlayStatus != model.PlayStatusOpen {
		return nil
	}

	gctx, err := s.ctxBuilder.Build(ctx, play)
	if err != nil {
		return fmt.Errorf("failed to build evaluation context: %w", err)
	}

	dirty := false

	if s.cfg.GTD.Enabled && play.DynamicGTD != nil && play.DynamicGTD.Enabled {
		eval, err := s.evaluator.EvaluatePlay(ctx, play, gctx)
		if err != nil {
			return fmt.Errorf("failed to evaluate play: %w", err)
		}
		if eval.EffectiveDateChanged || eval.PolicyStateChanged {
			dirty = true
		}

		if eval.EffectiveDateChanged && eval.EffectiveDate != nil {
			play.SetEffectiveDate(*eval.EffectiveDate)
			s.log.InfoContext(ctx, "Effective date updated",
				logger.StringField("play", play.Filename),
				logger.TimeField("effective_date", *eval.EffectiveDate),
			)
		}

		if eval.ShouldClose {
			if err := s.store.Save(ctx, play); err != nil {
				return err
			}
			closeType := model.CloseTypeGTD
			if !eval.IsGTDExit {
				closeType = model.CloseTypeManual
			}
			if err := s.stateMachine.Close(ctx, play, closeType, eval.CloseReason); err != nil {
				return err
			}
			s.metrics.PlaysClosedTotal.WithLabelValues(string(closeType)).Inc()
			return nil
		}
	}

	if gctx.MarketDataAvailable && s.trailer.UpdateTrailingLevels(play, gctx.CurrentPrice) {
		dirty = true
	}

	if dirty {
		return s.store.Save(ctx, play)
	}
	return nil
}

// EvaluatePlay runs one on-demand GTD evaluation without persisting or
// closing anything. The API surface uses it for dry runs.
func (s *orchestratorService) EvaluatePlay(ctx context.Context, play *model.Play) (*dto.PlayEvaluation, error) {
	gctx, err := s.ctxBuilder.Build(ctx, play)
	if err != nil {
		return nil, fmt.Errorf("failed to build evaluation context: %w", err)
	}
	return s.evaluator.EvaluatePlay(ctx, play, gctx)
}
