package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlay_EffectiveDateFallsBackToExpiration(t *testing.T) {
	play := &Play{ContractExpirationDate: "2025-07-18"}

	effective, err := play.EffectiveDate()
	require.NoError(t, err)
	assert.Equal(t, "2025-07-18", effective.Format(DateLayout))

	play.SetEffectiveDate(time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC))
	effective, err = play.EffectiveDate()
	require.NoError(t, err)
	assert.Equal(t, "2025-07-10", effective.Format(DateLayout))
	assert.True(t, play.DynamicGTD.Enabled)
}

func TestPlay_EffectiveDateRejectsGarbage(t *testing.T) {
	play := &Play{ContractExpirationDate: "not-a-date"}
	_, err := play.EffectiveDate()
	assert.Error(t, err)
}

func TestPlay_IsTerminal(t *testing.T) {
	play := &Play{Status: StatusBlock{PlayStatus: PlayStatusOpen}}
	assert.False(t, play.IsTerminal())

	play.Status.PlayStatus = PlayStatusClosed
	assert.True(t, play.IsTerminal())
	play.Status.PlayStatus = PlayStatusExpired
	assert.True(t, play.IsTerminal())
}

func TestPlay_OptionContractSymbol(t *testing.T) {
	play := &Play{
		Symbol:                 "SPY",
		TradeType:              TradeTypePut,
		StrikePrice:            "450.0",
		ContractExpirationDate: "2025-07-18",
	}
	assert.Equal(t, "SPY250718P450.0", play.OptionContractSymbol())

	play.ContractExpirationDate = "garbage"
	assert.Equal(t, "", play.OptionContractSymbol())
}
