package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"options-trading/config"
	"options-trading/internal/dto"
	"options-trading/internal/gtd"
	"options-trading/internal/lifecycle"
	"options-trading/internal/model"
	"options-trading/internal/repository"
	"options-trading/internal/trailing"
	"options-trading/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noMarketData struct{}

func (noMarketData) GetStockPrice(ctx context.Context, symbol string) (float64, bool, error) {
	return 0, false, nil
}

func (noMarketData) GetOptionQuote(ctx context.Context, contractSymbol string) (*dto.OptionQuote, bool, error) {
	return nil, false, nil
}

func newTestOrchestrator(t *testing.T) (OrchestratorService, repository.PlayStoreRepository, string) {
	t.Helper()
	log, err := logger.New("error", "console")
	require.NoError(t, err)

	dir := t.TempDir()
	store, err := repository.NewPlayStoreRepository(dir, log)
	require.NoError(t, err)

	cfg := &config.Config{
		GTD:      config.GTD{Enabled: true},
		Trailing: config.Trailing{Enabled: true},
	}
	evaluator := gtd.NewEvaluator(gtd.DefaultRegistry(), log)
	builder := gtd.NewContextBuilder(noMarketData{}, nil, log)
	machine := lifecycle.NewStateMachine(store, log)
	trailer := trailing.NewUpdater(cfg.Trailing.Enabled, log)
	metrics := NewMetrics(prometheus.NewRegistry())

	orch := NewOrchestratorService(cfg, log, store, builder, evaluator, trailer, machine, NewHeartbeat(), metrics)
	return orch, store, dir
}

func sweepTestPlay(filename, folder string) *model.Play {
	return &model.Play{
		Symbol:                 "SPY",
		TradeType:              model.TradeTypeCall,
		StrikePrice:            "450.0",
		ContractExpirationDate: "2099-12-31",
		Contracts:              1,
		PlayClass:              model.PlayClassSimple,
		Entry: model.Entry{
			StockPrice: 448.5,
			Premium:    2.5,
			EntryDate:  time.Now().AddDate(0, 0, -2),
		},
		Status:    model.StatusBlock{PlayStatus: model.PlayStatusOpen, PositionExists: true},
		Integrity: true,
		Filename:  filename,
		Folder:    folder,
	}
}

func TestSweep_AllHoldCycleDoesNotRewriteRecord(t *testing.T) {
	orch, store, dir := newTestOrchestrator(t)
	ctx := context.Background()

	play := sweepTestPlay("spy.json", repository.FolderOpen)
	play.DynamicGTD = &model.DynamicGTD{
		Enabled: true,
		Policies: []model.PolicyInstance{
			{Name: gtd.PolicyWeekendTheta, Enabled: true},
		},
	}
	require.NoError(t, store.Save(ctx, play))

	path := filepath.Join(dir, repository.FolderOpen, "spy.json")
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	results := orch.Sweep(ctx)
	require.Len(t, results, 1)
	assert.Empty(t, results[0].Errors)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after), "an all-HOLD cycle must not rewrite the record")
}

func TestSweep_ExpiresUnfilledNewPlay(t *testing.T) {
	orch, store, dir := newTestOrchestrator(t)
	ctx := context.Background()

	play := sweepTestPlay("stale.json", repository.FolderNew)
	play.ContractExpirationDate = "2024-01-19"
	play.Status = model.StatusBlock{PlayStatus: model.PlayStatusNew}
	require.NoError(t, store.Save(ctx, play))

	results := orch.Sweep(ctx)
	require.Len(t, results, 1)
	assert.Empty(t, results[0].Errors)

	assert.NoFileExists(t, filepath.Join(dir, repository.FolderNew, "stale.json"))
	assert.FileExists(t, filepath.Join(dir, repository.FolderExpired, "stale.json"))

	expired, err := store.Load(ctx, repository.FolderExpired, "stale.json")
	require.NoError(t, err)
	assert.Equal(t, model.PlayStatusExpired, expired.Status.PlayStatus)
}
