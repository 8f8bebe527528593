// Package lifecycle drives plays through their states: NEW -> OPEN ->
// {CLOSED, EXPIRED}. CLOSED and EXPIRED are terminal. Folder moves track
// status changes so the on-disk layout always mirrors lifecycle state.
package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"options-trading/internal/model"
	"options-trading/internal/repository"
	"options-trading/pkg/logger"
	"options-trading/pkg/utils"
)

// ErrIntegrityBlocked rejects transitions on records flagged by repair.
var ErrIntegrityBlocked = fmt.Errorf("record failed integrity check, transition blocked")

var allowedTransitions = map[model.PlayStatus][]model.PlayStatus{
	model.PlayStatusNew:  {model.PlayStatusOpen, model.PlayStatusClosed, model.PlayStatusExpired},
	model.PlayStatusOpen: {model.PlayStatusClosed, model.PlayStatusExpired},
}

var statusFolder = map[model.PlayStatus]string{
	model.PlayStatusNew:     repository.FolderNew,
	model.PlayStatusOpen:    repository.FolderOpen,
	model.PlayStatusClosed:  repository.FolderClosed,
	model.PlayStatusExpired: repository.FolderExpired,
}

type StateMachine struct {
	store repository.PlayStoreRepository
	log   *logger.Logger
	now   func() time.Time

	mu          sync.Mutex
	repairQueue []string
}

func NewStateMachine(store repository.PlayStoreRepository, log *logger.Logger) *StateMachine {
	return &StateMachine{
		store: store,
		log:   log,
		now:   utils.TimeNowET,
	}
}

// HandleFill moves a filled play from NEW to OPEN. For a PRIMARY play it also
// resolves the conditional siblings: the OCO sibling is cancelled and the OTO
// sibling promoted from staging into the new folder.
func (m *StateMachine) HandleFill(ctx context.Context, play *model.Play) error {
	if err := m.transition(ctx, play, model.PlayStatusOpen); err != nil {
		return err
	}
	play.Status.PositionExists = true
	if err := m.store.Save(ctx, play); err != nil {
		return err
	}

	if play.PlayClass != model.PlayClassPrimary || play.Conditionals == nil {
		return nil
	}
	if name := play.Conditionals.OCOTrigger; name != "" {
		if err := m.cancelSibling(ctx, name); err != nil {
			m.log.ErrorContext(ctx, "Failed to cancel OCO sibling",
				logger.StringField("play", play.Filename),
				logger.StringField("sibling", name),
				logger.ErrorField(err),
			)
		}
	}
	if name := play.Conditionals.OTOTrigger; name != "" {
		if err := m.promoteSibling(ctx, name); err != nil {
			m.log.ErrorContext(ctx, "Failed to promote OTO sibling",
				logger.StringField("play", play.Filename),
				logger.StringField("sibling", name),
				logger.ErrorField(err),
			)
		}
	}
	return nil
}

// Close ends an open play with the given close type.
func (m *StateMachine) Close(ctx context.Context, play *model.Play, closeType model.CloseType, reason string) error {
	if err := m.transition(ctx, play, model.PlayStatusClosed); err != nil {
		return err
	}
	now := m.now()
	play.Status.CloseType = closeType
	play.Status.ClosedAt = &now
	play.Status.PositionExists = false
	m.log.InfoContext(ctx, "Play closed",
		logger.StringField("play", play.Filename),
		logger.StringField("close_type", string(closeType)),
		logger.StringField("reason", reason),
	)
	return m.store.Save(ctx, play)
}

// Expire ends a play whose contract expiration passed, whether it was never
// filled (still NEW) or held open without a closing fill.
func (m *StateMachine) Expire(ctx context.Context, play *model.Play) error {
	if err := m.transition(ctx, play, model.PlayStatusExpired); err != nil {
		return err
	}
	now := m.now()
	play.Status.ClosedAt = &now
	play.Status.PositionExists = false
	m.log.InfoContext(ctx, "Play expired", logger.StringField("play", play.Filename))
	return m.store.Save(ctx, play)
}

// CanEditContractIdentity reports whether the contract-identity fields
// (symbol, trade type, strike, expiration) may still be changed.
func CanEditContractIdentity(play *model.Play) bool {
	return play.Status.PlayStatus == model.PlayStatusNew
}

// DrainRepairQueue returns and clears the filenames whose transitions were
// blocked on integrity failures.
func (m *StateMachine) DrainRepairQueue() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	queued := m.repairQueue
	m.repairQueue = nil
	return queued
}

func (m *StateMachine) transition(ctx context.Context, play *model.Play, target model.PlayStatus) error {
	if !play.Integrity {
		m.mu.Lock()
		m.repairQueue = append(m.repairQueue, play.Filename)
		m.mu.Unlock()
		m.log.WarnContext(ctx, "Transition rejected on integrity-failing record",
			logger.StringField("play", play.Filename),
			logger.StringField("target", string(target)),
		)
		return ErrIntegrityBlocked
	}
	if !transitionAllowed(play.Status.PlayStatus, target) {
		return fmt.Errorf("invalid transition %s -> %s for %s", play.Status.PlayStatus, target, play.Filename)
	}
	play.Status.PlayStatus = target
	return m.store.Move(ctx, play, statusFolder[target])
}

func transitionAllowed(from, to model.PlayStatus) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func (m *StateMachine) cancelSibling(ctx context.Context, filename string) error {
	sibling, err := m.store.Load(ctx, repository.FolderNew, filename)
	if err != nil {
		return err
	}
	if sibling.Status.PlayStatus != model.PlayStatusNew {
		return nil
	}
	if err := m.transition(ctx, sibling, model.PlayStatusClosed); err != nil {
		return err
	}
	now := m.now()
	sibling.Status.CloseType = model.CloseTypeManual
	sibling.Status.OrderStatus = "CANCELED"
	sibling.Status.ClosedAt = &now
	m.log.InfoContext(ctx, "Cancelled OCO sibling", logger.StringField("play", filename))
	return m.store.Save(ctx, sibling)
}

func (m *StateMachine) promoteSibling(ctx context.Context, filename string) error {
	sibling, err := m.store.Load(ctx, repository.FolderTemp, filename)
	if err != nil {
		return err
	}
	if !sibling.Integrity {
		m.mu.Lock()
		m.repairQueue = append(m.repairQueue, sibling.Filename)
		m.mu.Unlock()
		return ErrIntegrityBlocked
	}
	sibling.Status.PlayStatus = model.PlayStatusNew
	if err := m.store.Move(ctx, sibling, repository.FolderNew); err != nil {
		return err
	}
	m.log.InfoContext(ctx, "Promoted OTO sibling to new", logger.StringField("play", filename))
	return m.store.Save(ctx, sibling)
}
