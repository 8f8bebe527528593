package gtd

import (
	"options-trading/internal/dto"
	"options-trading/internal/model"
	"options-trading/pkg/utils"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Monday 2025-06-09, 10:00.
var testNow = time.Date(2025, 6, 9, 10, 0, 0, 0, time.UTC)

func testContext() *Context {
	return &Context{
		Symbol:              "SPY",
		TradeType:           model.TradeTypeCall,
		Now:                 testNow,
		EntryDate:           testNow.AddDate(0, 0, -4),
		ContractExpiration:  testNow.AddDate(0, 0, 12),
		EffectiveDate:       testNow.AddDate(0, 0, 12),
		EntryPrice:          100,
		CurrentPrice:        103,
		EntryPremium:        2.0,
		CurrentPremium:      2.4,
		UnrealizedPLPct:     20,
		DaysHeld:            4,
		DaysToExpiry:        12,
		MarketDataAvailable: true,
	}
}

func TestDTEClosePolicy(t *testing.T) {
	policy := NewDTEClosePolicy()

	testCases := []struct {
		name           string
		daysToExpiry   int
		params         map[string]interface{}
		expectedAction Action
	}{
		{
			name:           "at threshold closes now",
			daysToExpiry:   7,
			expectedAction: ActionCloseNow,
		},
		{
			name:           "under threshold closes now",
			daysToExpiry:   5,
			expectedAction: ActionCloseNow,
		},
		{
			name:           "above threshold shortens toward expiry",
			daysToExpiry:   12,
			expectedAction: ActionShorten,
		},
		{
			name:           "custom threshold",
			daysToExpiry:   5,
			params:         map[string]interface{}{"close_at_dte": 3},
			expectedAction: ActionShorten,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := testContext()
			ctx.DaysToExpiry = tc.daysToExpiry
			ctx.ContractExpiration = testNow.AddDate(0, 0, tc.daysToExpiry)
			ctx.EffectiveDate = ctx.ContractExpiration
			ctx.Params = tc.params

			result, err := policy.Evaluate(ctx)
			require.NoError(t, err)
			assert.Equal(t, tc.expectedAction, result.Action)
		})
	}
}

func TestDTEClosePolicy_ReasonNamesBothNumbers(t *testing.T) {
	policy := NewDTEClosePolicy()
	ctx := testContext()
	ctx.DaysToExpiry = 5
	ctx.ContractExpiration = testNow.AddDate(0, 0, 5)
	ctx.EffectiveDate = ctx.ContractExpiration

	result, err := policy.Evaluate(ctx)
	require.NoError(t, err)
	assert.Equal(t, ActionCloseNow, result.Action)
	assert.Equal(t, 40, result.Priority)
	assert.Contains(t, result.Reason, "5")
	assert.Contains(t, result.Reason, "7")
}

func TestHalfLifePolicy(t *testing.T) {
	policy := NewHalfLifePolicy()

	testCases := []struct {
		name           string
		daysHeld       int
		totalLifeDays  int
		expectedAction Action
	}{
		{
			name:           "at boundary closes now",
			daysHeld:       10,
			totalLifeDays:  20,
			expectedAction: ActionCloseNow,
		},
		{
			name:           "past boundary closes now",
			daysHeld:       14,
			totalLifeDays:  20,
			expectedAction: ActionCloseNow,
		},
		{
			name:           "before boundary shortens to it",
			daysHeld:       4,
			totalLifeDays:  20,
			expectedAction: ActionShorten,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := testContext()
			ctx.EntryDate = testNow.AddDate(0, 0, -tc.daysHeld)
			ctx.ContractExpiration = ctx.EntryDate.AddDate(0, 0, tc.totalLifeDays)
			ctx.EffectiveDate = ctx.ContractExpiration
			ctx.DaysHeld = tc.daysHeld

			result, err := policy.Evaluate(ctx)
			require.NoError(t, err)
			assert.Equal(t, tc.expectedAction, result.Action)
			if tc.expectedAction == ActionShorten {
				boundary := utils.DateOnly(ctx.EntryDate).AddDate(0, 0, tc.totalLifeDays/2)
				assert.True(t, result.RecommendedDate.Equal(boundary),
					"expected boundary %s, got %s", boundary, result.RecommendedDate)
			}
		})
	}
}

func TestMaxHoldDaysPolicy(t *testing.T) {
	policy := NewMaxHoldDaysPolicy()

	ctx := testContext()
	ctx.DaysHeld = 14
	result, err := policy.Evaluate(ctx)
	require.NoError(t, err)
	assert.Equal(t, ActionCloseNow, result.Action)

	ctx = testContext()
	ctx.DaysHeld = 2
	ctx.EntryDate = testNow.AddDate(0, 0, -2)
	ctx.ContractExpiration = testNow.AddDate(0, 0, 30)
	ctx.EffectiveDate = ctx.ContractExpiration
	result, err = policy.Evaluate(ctx)
	require.NoError(t, err)
	assert.Equal(t, ActionShorten, result.Action)
	assert.True(t, result.RecommendedDate.Equal(utils.DateOnly(ctx.EntryDate).AddDate(0, 0, 14)))
}

func TestProfitTimeStopPolicy(t *testing.T) {
	policy := NewProfitTimeStopPolicy()

	testCases := []struct {
		name           string
		daysHeld       int
		plPct          float64
		expectedAction Action
	}{
		{name: "window still open", daysHeld: 3, plPct: -5, expectedAction: ActionHold},
		{name: "flat after window closes", daysHeld: 5, plPct: 0, expectedAction: ActionCloseNow},
		{name: "losing after window closes", daysHeld: 6, plPct: -12, expectedAction: ActionCloseNow},
		{name: "profitable after window holds", daysHeld: 6, plPct: 8, expectedAction: ActionHold},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := testContext()
			ctx.DaysHeld = tc.daysHeld
			ctx.UnrealizedPLPct = tc.plPct

			result, err := policy.Evaluate(ctx)
			require.NoError(t, err)
			assert.Equal(t, tc.expectedAction, result.Action)
		})
	}
}

func TestLossShortenPolicy(t *testing.T) {
	policy := NewLossShortenPolicy()

	t.Run("no breach holds", func(t *testing.T) {
		ctx := testContext()
		ctx.UnrealizedPLPct = -5
		result, err := policy.Evaluate(ctx)
		require.NoError(t, err)
		assert.Equal(t, ActionHold, result.Action)
	})

	t.Run("partial breach shortens proportionally", func(t *testing.T) {
		ctx := testContext()
		ctx.UnrealizedPLPct = -15 // 50% past the -10 threshold
		result, err := policy.Evaluate(ctx)
		require.NoError(t, err)
		assert.Equal(t, ActionShorten, result.Action)
		assert.True(t, result.RecommendedDate.Before(ctx.EffectiveDate))
		assert.True(t, result.RecommendedDate.After(ctx.Now))
	})

	t.Run("full breach escalates to close", func(t *testing.T) {
		ctx := testContext()
		ctx.UnrealizedPLPct = -60
		result, err := policy.Evaluate(ctx)
		require.NoError(t, err)
		assert.Equal(t, ActionCloseNow, result.Action)
	})
}

func TestProfitExtensionPolicy(t *testing.T) {
	policy := NewProfitExtensionPolicy()

	t.Run("below minimum holds", func(t *testing.T) {
		ctx := testContext()
		ctx.UnrealizedPLPct = 10
		result, err := policy.Evaluate(ctx)
		require.NoError(t, err)
		assert.Equal(t, ActionHold, result.Action)
	})

	t.Run("winner extends", func(t *testing.T) {
		ctx := testContext()
		ctx.UnrealizedPLPct = 35
		ctx.EffectiveDate = testNow.AddDate(0, 0, 3)
		result, err := policy.Evaluate(ctx)
		require.NoError(t, err)
		assert.Equal(t, ActionExtend, result.Action)
		assert.True(t, result.RecommendedDate.Equal(utils.DateOnly(testNow).AddDate(0, 0, 6)))
	})

	t.Run("extension clamps to expiration", func(t *testing.T) {
		ctx := testContext()
		ctx.UnrealizedPLPct = 35
		ctx.ContractExpiration = testNow.AddDate(0, 0, 4)
		ctx.EffectiveDate = testNow.AddDate(0, 0, 3)
		result, err := policy.Evaluate(ctx)
		require.NoError(t, err)
		assert.Equal(t, ActionExtend, result.Action)
		assert.True(t, result.RecommendedDate.Equal(utils.DateOnly(ctx.ContractExpiration)))
	})

	t.Run("already at expiration holds", func(t *testing.T) {
		ctx := testContext()
		ctx.UnrealizedPLPct = 35
		ctx.EffectiveDate = ctx.ContractExpiration
		result, err := policy.Evaluate(ctx)
		require.NoError(t, err)
		assert.Equal(t, ActionHold, result.Action)
	})
}

func TestRollingExtensionPolicy(t *testing.T) {
	t.Run("above buffer keeps rolling", func(t *testing.T) {
		policy := NewRollingExtensionPolicy()
		ctx := testContext()
		ctx.UnrealizedPLPct = 5
		ctx.EffectiveDate = testNow.AddDate(0, 0, 3)

		result, err := policy.Evaluate(ctx)
		require.NoError(t, err)
		assert.Equal(t, ActionExtend, result.Action)
		assert.True(t, result.RecommendedDate.Equal(utils.DateOnly(testNow).AddDate(0, 0, 4)))
	})

	t.Run("drawdown disables permanently", func(t *testing.T) {
		policy := NewRollingExtensionPolicy()
		ctx := testContext()
		ctx.UnrealizedPLPct = -3

		result, err := policy.Evaluate(ctx)
		require.NoError(t, err)
		assert.Equal(t, ActionHold, result.Action)

		state, err := policy.State()
		require.NoError(t, err)
		assert.JSONEq(t, `{"disabled":true}`, string(state))

		// A recovery does not re-enable it.
		fresh := NewRollingExtensionPolicy()
		require.NoError(t, fresh.LoadState(state))
		ctx.UnrealizedPLPct = 50
		result, err = fresh.Evaluate(ctx)
		require.NoError(t, err)
		assert.Equal(t, ActionHold, result.Action)
	})
}

func TestThetaDecayPolicy(t *testing.T) {
	policy := NewThetaDecayPolicy()

	t.Run("no greeks holds", func(t *testing.T) {
		ctx := testContext()
		ctx.Greeks = nil
		result, err := policy.Evaluate(ctx)
		require.NoError(t, err)
		assert.Equal(t, ActionHold, result.Action)
	})

	t.Run("burn above limit closes", func(t *testing.T) {
		ctx := testContext()
		ctx.CurrentPremium = 2.0
		ctx.Greeks = &dto.OptionQuote{Theta: -0.15}
		result, err := policy.Evaluate(ctx)
		require.NoError(t, err)
		assert.Equal(t, ActionCloseNow, result.Action)
	})

	t.Run("burn under limit holds", func(t *testing.T) {
		ctx := testContext()
		ctx.CurrentPremium = 2.0
		ctx.Greeks = &dto.OptionQuote{Theta: -0.05}
		result, err := policy.Evaluate(ctx)
		require.NoError(t, err)
		assert.Equal(t, ActionHold, result.Action)
	})
}

func TestWeekendThetaPolicy(t *testing.T) {
	policy := NewWeekendThetaPolicy()
	friday := time.Date(2025, 6, 13, 10, 0, 0, 0, time.UTC)
	thursday := time.Date(2025, 6, 12, 10, 0, 0, 0, time.UTC)

	t.Run("friday with short dte closes", func(t *testing.T) {
		ctx := testContext()
		ctx.Now = friday
		ctx.DaysToExpiry = 6
		result, err := policy.Evaluate(ctx)
		require.NoError(t, err)
		assert.Equal(t, ActionCloseNow, result.Action)
	})

	t.Run("thursday shortens to friday", func(t *testing.T) {
		ctx := testContext()
		ctx.Now = thursday
		ctx.DaysToExpiry = 6
		ctx.EffectiveDate = thursday.AddDate(0, 0, 6)
		result, err := policy.Evaluate(ctx)
		require.NoError(t, err)
		assert.Equal(t, ActionShorten, result.Action)
		assert.Equal(t, time.Friday, result.RecommendedDate.Weekday())
	})

	t.Run("long dte holds on friday", func(t *testing.T) {
		ctx := testContext()
		ctx.Now = friday
		ctx.DaysToExpiry = 45
		result, err := policy.Evaluate(ctx)
		require.NoError(t, err)
		assert.Equal(t, ActionHold, result.Action)
	})

	t.Run("monday holds", func(t *testing.T) {
		ctx := testContext()
		ctx.DaysToExpiry = 6
		result, err := policy.Evaluate(ctx)
		require.NoError(t, err)
		assert.Equal(t, ActionHold, result.Action)
	})
}

func TestEventClosePolicy(t *testing.T) {
	policy := NewEventClosePolicy()

	t.Run("no events holds", func(t *testing.T) {
		ctx := testContext()
		result, err := policy.Evaluate(ctx)
		require.NoError(t, err)
		assert.Equal(t, ActionHold, result.Action)
	})

	t.Run("other symbol event ignored", func(t *testing.T) {
		ctx := testContext()
		ctx.Events = []dto.CalendarEvent{
			{Type: dto.EventTypeEarnings, Symbol: "AAPL", Date: testNow.AddDate(0, 0, 1)},
		}
		result, err := policy.Evaluate(ctx)
		require.NoError(t, err)
		assert.Equal(t, ActionHold, result.Action)
	})

	t.Run("imminent matching event closes", func(t *testing.T) {
		ctx := testContext()
		ctx.Events = []dto.CalendarEvent{
			{Type: dto.EventTypeEarnings, Symbol: "SPY", Date: testNow.AddDate(0, 0, 1)},
		}
		result, err := policy.Evaluate(ctx)
		require.NoError(t, err)
		assert.Equal(t, ActionCloseNow, result.Action)
	})

	t.Run("index-wide event applies to every play", func(t *testing.T) {
		ctx := testContext()
		ctx.Events = []dto.CalendarEvent{
			{Type: dto.EventTypeFOMC, Symbol: "", Date: testNow.AddDate(0, 0, 8)},
		}
		result, err := policy.Evaluate(ctx)
		require.NoError(t, err)
		assert.Equal(t, ActionShorten, result.Action)
		assert.True(t, result.RecommendedDate.Equal(utils.DateOnly(testNow).AddDate(0, 0, 6)))
	})
}
