package simulator

import (
	"TradeSimulator/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettleClosesAtReferencePrice(t *testing.T) {
	bars := flatBars(10, 100)
	bars[2].Open = 110
	sim := newTestSimulator(t, NewConfig(), bars)

	_, err := sim.Open(models.TradeModeSpotBuy, 10, 100, 1)
	require.NoError(t, err)
	_, err = sim.Advance(2)
	require.NoError(t, err)

	stats, err := sim.Settle(true)
	require.NoError(t, err)

	snap := sim.Snapshot()
	require.Len(t, snap.Transactions, 1)
	assert.Equal(t, models.CloseReasonSettlement, snap.Transactions[0].Reason)
	assert.InDelta(t, 110.0, snap.Transactions[0].ExitPrice, 1e-9)
	assert.False(t, snap.Active)
	assert.True(t, stats.EndedEarly)
	assert.Equal(t, 2, stats.EndIndex)
	assert.Equal(t, bars[0].Date, stats.StartDate)
	assert.Equal(t, bars[2].Date, stats.EndDate)
	assert.InDelta(t, sim.Cash(), stats.FinalAsset, 1e-9)
	assert.InDelta(t, stats.FinalAsset-100000, stats.TotalPnL, 1e-9)
}

func TestSettleIsIdempotent(t *testing.T) {
	sim := newTestSimulator(t, NewConfig(), flatBars(10, 100))
	_, err := sim.Open(models.TradeModeMarginLong, 3, 100, 2)
	require.NoError(t, err)

	first, err := sim.Settle(false)
	require.NoError(t, err)
	second, err := sim.Settle(true)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, sim.Snapshot().Transactions, 1)
}

func TestSettleROIScenario(t *testing.T) {
	config := NewConfig()
	config.FeeRate = 0
	bars := flatBars(5, 100)
	bars[4].Open = 110
	sim := newTestSimulator(t, config, bars)

	_, err := sim.Open(models.TradeModeSpotBuy, 500, 100, 1)
	require.NoError(t, err)
	_, err = sim.Advance(4)
	require.NoError(t, err)

	stats := *sim.Snapshot().Stats
	assert.InDelta(t, 105000.0, stats.FinalAsset, 1e-9)
	assert.InDelta(t, 5.0, stats.ROI, 1e-9)
	assert.Equal(t, "+5.00%", stats.ROIString())
}

func TestROIString(t *testing.T) {
	assert.Equal(t, "+5.00%", SettlementStats{ROI: 5}.ROIString())
	assert.Equal(t, "-12.35%", SettlementStats{ROI: -12.345}.ROIString())
	assert.Equal(t, "+0.00%", SettlementStats{}.ROIString())
}

func TestSettlementTradeMetrics(t *testing.T) {
	bars := flatBars(10, 100)
	bars[1].Open = 120
	sim := newTestSimulator(t, NewConfig(), bars)

	winner, err := sim.Open(models.TradeModeSpotBuy, 10, 100, 1)
	require.NoError(t, err)
	loser, err := sim.Open(models.TradeModeMarginShort, 10, 100, 2)
	require.NoError(t, err)

	_, err = sim.Advance(1)
	require.NoError(t, err)
	_, err = sim.Close(winner.ID, 10, sim.ReferencePrice(), models.CloseReasonManual)
	require.NoError(t, err)
	_, err = sim.Close(loser.ID, 10, sim.ReferencePrice(), models.CloseReasonManual)
	require.NoError(t, err)

	stats, err := sim.Settle(true)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TradeCount)
	assert.Equal(t, 1, stats.WinningTrades)
	assert.InDelta(t, 0.5, stats.WinRate, 1e-9)
	// spot: 5 open + 6 close; margin: 10 open + 12 close
	assert.InDelta(t, 33.0, stats.TotalFees, 1e-9)
	assert.GreaterOrEqual(t, stats.MaxDrawdown, 0.0)
}

func TestMaxDrawdown(t *testing.T) {
	curve := []EquityPoint{{Equity: 100}, {Equity: 120}, {Equity: 90}, {Equity: 130}, {Equity: 117}}
	assert.InDelta(t, 0.25, maxDrawdown(curve, 100), 1e-9)
	assert.Equal(t, 0.0, maxDrawdown(nil, 100))
}

func TestSharpeRatio(t *testing.T) {
	assert.Equal(t, 0.0, sharpeRatio([]EquityPoint{{Equity: 100}, {Equity: 101}}))
	assert.Equal(t, 0.0, sharpeRatio([]EquityPoint{{Equity: 100}, {Equity: 100}, {Equity: 100}}))

	rising := []EquityPoint{{Equity: 100}, {Equity: 101}, {Equity: 103}, {Equity: 104}}
	assert.Greater(t, sharpeRatio(rising), 0.0)
}

func TestResetStartsFreshRun(t *testing.T) {
	sim := newTestSimulator(t, NewConfig(), flatBars(10, 100))
	_, err := sim.Open(models.TradeModeSpotBuy, 1, 100, 1)
	require.NoError(t, err)
	_, err = sim.Settle(true)
	require.NoError(t, err)

	require.NoError(t, sim.Reset(3))
	snap := sim.Snapshot()
	assert.True(t, snap.Active)
	assert.Equal(t, 100000.0, snap.Cash)
	assert.Equal(t, 3, snap.CurrentIndex)
	assert.Empty(t, snap.Positions)
	assert.Empty(t, snap.Transactions)
	assert.Nil(t, snap.Stats)

	assert.ErrorIs(t, sim.Reset(9), models.ErrInvalidInput)
	assert.ErrorIs(t, sim.Reset(-1), models.ErrInvalidInput)
}
