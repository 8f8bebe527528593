package lifecycle

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"options-trading/internal/model"
	"options-trading/internal/repository"
	"options-trading/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMachine(t *testing.T) (*StateMachine, repository.PlayStoreRepository, string) {
	t.Helper()
	log, err := logger.New("error", "console")
	require.NoError(t, err)

	dir := t.TempDir()
	store, err := repository.NewPlayStoreRepository(dir, log)
	require.NoError(t, err)
	return NewStateMachine(store, log), store, dir
}

func seedPlay(t *testing.T, dir, folder, filename string, mutate func(*model.Play)) {
	t.Helper()
	play := &model.Play{
		Symbol:                 "SPY",
		TradeType:              model.TradeTypeCall,
		StrikePrice:            "450.0",
		ContractExpirationDate: "2025-07-18",
		Entry: model.Entry{
			StockPrice: 448.5,
			Premium:    2.35,
			OrderType:  "limit",
			EntryDate:  time.Date(2025, 6, 2, 9, 45, 0, 0, time.UTC),
		},
		Contracts: 1,
		PlayClass: model.PlayClassSimple,
		Status:    model.StatusBlock{PlayStatus: model.PlayStatusNew},
		Integrity: true,
	}
	if mutate != nil {
		mutate(play)
	}
	data, err := json.MarshalIndent(play, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, folder, filename), data, 0o644))
}

func TestHandleFill_MovesNewPlayToOpen(t *testing.T) {
	machine, store, dir := newTestMachine(t)
	seedPlay(t, dir, repository.FolderNew, "spy.json", nil)

	play, err := store.Load(context.Background(), repository.FolderNew, "spy.json")
	require.NoError(t, err)
	require.NoError(t, machine.HandleFill(context.Background(), play))

	assert.Equal(t, model.PlayStatusOpen, play.Status.PlayStatus)
	assert.True(t, play.Status.PositionExists)
	assert.FileExists(t, filepath.Join(dir, repository.FolderOpen, "spy.json"))
	assert.NoFileExists(t, filepath.Join(dir, repository.FolderNew, "spy.json"))
}

func TestHandleFill_PrimaryResolvesConditionalSiblings(t *testing.T) {
	machine, store, dir := newTestMachine(t)
	seedPlay(t, dir, repository.FolderNew, "primary.json", func(p *model.Play) {
		p.PlayClass = model.PlayClassPrimary
		p.Conditionals = &model.ConditionalPlays{
			OCOTrigger: "oco.json",
			OTOTrigger: "oto.json",
		}
	})
	seedPlay(t, dir, repository.FolderNew, "oco.json", nil)
	seedPlay(t, dir, repository.FolderTemp, "oto.json", func(p *model.Play) {
		p.PlayClass = model.PlayClassOTO
	})

	primary, err := store.Load(context.Background(), repository.FolderNew, "primary.json")
	require.NoError(t, err)
	require.NoError(t, machine.HandleFill(context.Background(), primary))

	// OCO sibling cancelled into closed.
	oco, err := store.Load(context.Background(), repository.FolderClosed, "oco.json")
	require.NoError(t, err)
	assert.Equal(t, model.PlayStatusClosed, oco.Status.PlayStatus)
	assert.Equal(t, model.CloseTypeManual, oco.Status.CloseType)
	assert.Equal(t, "CANCELED", oco.Status.OrderStatus)

	// OTO sibling promoted from staging into new.
	oto, err := store.Load(context.Background(), repository.FolderNew, "oto.json")
	require.NoError(t, err)
	assert.Equal(t, model.PlayStatusNew, oto.Status.PlayStatus)
	assert.NoFileExists(t, filepath.Join(dir, repository.FolderTemp, "oto.json"))
}

func TestClose_SetsCloseTypeAndTimestamp(t *testing.T) {
	machine, store, dir := newTestMachine(t)
	seedPlay(t, dir, repository.FolderOpen, "spy.json", func(p *model.Play) {
		p.Status.PlayStatus = model.PlayStatusOpen
		p.Status.PositionExists = true
	})

	play, err := store.Load(context.Background(), repository.FolderOpen, "spy.json")
	require.NoError(t, err)
	require.NoError(t, machine.Close(context.Background(), play, model.CloseTypeGTD, "deadline reached"))

	assert.Equal(t, model.PlayStatusClosed, play.Status.PlayStatus)
	assert.Equal(t, model.CloseTypeGTD, play.Status.CloseType)
	require.NotNil(t, play.Status.ClosedAt)
	assert.False(t, play.Status.PositionExists)
	assert.FileExists(t, filepath.Join(dir, repository.FolderClosed, "spy.json"))
}

func TestExpire_MovesOpenPlayToExpired(t *testing.T) {
	machine, store, dir := newTestMachine(t)
	seedPlay(t, dir, repository.FolderOpen, "spy.json", func(p *model.Play) {
		p.Status.PlayStatus = model.PlayStatusOpen
	})

	play, err := store.Load(context.Background(), repository.FolderOpen, "spy.json")
	require.NoError(t, err)
	require.NoError(t, machine.Expire(context.Background(), play))

	assert.Equal(t, model.PlayStatusExpired, play.Status.PlayStatus)
	assert.FileExists(t, filepath.Join(dir, repository.FolderExpired, "spy.json"))
}

func TestTransition_RejectsInvalidEdges(t *testing.T) {
	machine, store, dir := newTestMachine(t)
	seedPlay(t, dir, repository.FolderClosed, "done.json", func(p *model.Play) {
		p.Status.PlayStatus = model.PlayStatusClosed
	})
	seedPlay(t, dir, repository.FolderExpired, "lapsed.json", func(p *model.Play) {
		p.Status.PlayStatus = model.PlayStatusExpired
	})

	done, err := store.Load(context.Background(), repository.FolderClosed, "done.json")
	require.NoError(t, err)
	assert.Error(t, machine.HandleFill(context.Background(), done), "terminal plays cannot reopen")
	assert.Error(t, machine.Expire(context.Background(), done))

	lapsed, err := store.Load(context.Background(), repository.FolderExpired, "lapsed.json")
	require.NoError(t, err)
	assert.Error(t, machine.HandleFill(context.Background(), lapsed))
	assert.Error(t, machine.Close(context.Background(), lapsed, model.CloseTypeTP, ""))
}

func TestExpire_UnfilledNewPlay(t *testing.T) {
	machine, store, dir := newTestMachine(t)
	seedPlay(t, dir, repository.FolderNew, "stale.json", nil)

	play, err := store.Load(context.Background(), repository.FolderNew, "stale.json")
	require.NoError(t, err)
	require.Equal(t, model.PlayStatusNew, play.Status.PlayStatus)

	require.NoError(t, machine.Expire(context.Background(), play))
	assert.Equal(t, model.PlayStatusExpired, play.Status.PlayStatus)
	assert.False(t, play.Status.PositionExists)
	assert.FileExists(t, filepath.Join(dir, repository.FolderExpired, "stale.json"))
	assert.NoFileExists(t, filepath.Join(dir, repository.FolderNew, "stale.json"))
}

func TestTransition_IntegrityFailureBlocksAndQueues(t *testing.T) {
	machine, store, dir := newTestMachine(t)
	seedPlay(t, dir, repository.FolderNew, "damaged.json", func(p *model.Play) {
		p.Integrity = false
	})

	play, err := store.Load(context.Background(), repository.FolderNew, "damaged.json")
	require.NoError(t, err)

	err = machine.HandleFill(context.Background(), play)
	require.ErrorIs(t, err, ErrIntegrityBlocked)
	assert.Equal(t, model.PlayStatusNew, play.Status.PlayStatus)

	queued := machine.DrainRepairQueue()
	assert.Equal(t, []string{"damaged.json"}, queued)
	assert.Empty(t, machine.DrainRepairQueue(), "queue drains once")
}

func TestCanEditContractIdentity(t *testing.T) {
	play := &model.Play{Status: model.StatusBlock{PlayStatus: model.PlayStatusNew}}
	assert.True(t, CanEditContractIdentity(play))

	for _, status := range []model.PlayStatus{model.PlayStatusOpen, model.PlayStatusClosed, model.PlayStatusExpired} {
		play.Status.PlayStatus = status
		assert.False(t, CanEditContractIdentity(play), "status %s", status)
	}
}
