package simulator

import (
	"TradeSimulator/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSpotDebitsCostPlusFee(t *testing.T) {
	sim := newTestSimulator(t, NewConfig(), flatBars(5, 100))

	position, err := sim.Open(models.TradeModeSpotBuy, 10, 100, 5)
	require.NoError(t, err)

	assert.Equal(t, 1.0, position.Leverage)
	assert.Equal(t, 0.0, position.LiquidationPrice)
	assert.InDelta(t, 1000.0, position.MarginCommitted, 1e-9)
	assert.InDelta(t, 100000-1000-5, sim.Cash(), 1e-9)
	assert.Equal(t, EventSuccess, sim.Snapshot().LastEvent.Kind)
}

func TestSpotRoundTripLosesOnlyFees(t *testing.T) {
	sim := newTestSimulator(t, NewConfig(), flatBars(5, 100))

	position, err := sim.Open(models.TradeModeSpotBuy, 10, 100, 1)
	require.NoError(t, err)
	transaction, err := sim.Close(position.ID, 10, 100, models.CloseReasonManual)
	require.NoError(t, err)

	openFee, closeFee := 5.0, 5.0
	assert.InDelta(t, 100000-openFee-closeFee, sim.Cash(), 1e-9)
	assert.InDelta(t, -closeFee, transaction.NetPnL, 1e-9)
	assert.InDelta(t, openFee+closeFee, transaction.Fees, 1e-9)
	assert.Empty(t, sim.Positions())
}

func TestOpenMarginCommitsCostOverLeverage(t *testing.T) {
	sim := newTestSimulator(t, NewConfig(), flatBars(5, 100))

	position, err := sim.Open(models.TradeModeMarginLong, 10, 100, 2)
	require.NoError(t, err)

	assert.InDelta(t, 500.0, position.MarginCommitted, 1e-9)
	assert.InDelta(t, 50.0, position.LiquidationPrice, 1e-9)
	assert.InDelta(t, 100000-500-10, sim.Cash(), 1e-9)
}

func TestOpenRejections(t *testing.T) {
	tests := []struct {
		name     string
		mode     models.TradeMode
		quantity float64
		price    float64
		leverage float64
		wantErr  error
	}{
		{"zero quantity", models.TradeModeSpotBuy, 0, 100, 1, models.ErrInvalidInput},
		{"negative quantity", models.TradeModeSpotBuy, -1, 100, 1, models.ErrInvalidInput},
		{"zero price", models.TradeModeSpotBuy, 1, 0, 1, models.ErrInvalidInput},
		{"leverage below one", models.TradeModeMarginLong, 1, 100, 0.5, models.ErrInvalidInput},
		{"leverage above maximum", models.TradeModeMarginShort, 1, 100, 25, models.ErrInvalidInput},
		{"unknown mode", models.TradeMode(99), 1, 100, 1, models.ErrInvalidInput},
		{"insufficient cash", models.TradeModeSpotBuy, 1000, 100, 1, models.ErrInsufficientFunds},
		{"insufficient margin", models.TradeModeMarginLong, 10000, 100, 2, models.ErrInsufficientFunds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := newTestSimulator(t, NewConfig(), flatBars(5, 100))

			_, err := sim.Open(tt.mode, tt.quantity, tt.price, tt.leverage)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 100000.0, sim.Cash())
			assert.Empty(t, sim.Positions())
			assert.Equal(t, EventError, sim.Snapshot().LastEvent.Kind)
		})
	}
}

func TestSetProtectionStopLossAtLiquidation(t *testing.T) {
	sim := newTestSimulator(t, NewConfig(), flatBars(5, 100))
	position, err := sim.Open(models.TradeModeMarginLong, 10, 100, 2)
	require.NoError(t, err)

	err = sim.SetProtection(position.ID, position.LiquidationPrice, 0)
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	require.NoError(t, sim.SetProtection(position.ID, position.LiquidationPrice+0.01, 0))
	stored, err := sim.Position(position.ID)
	require.NoError(t, err)
	assert.InDelta(t, 50.01, stored.StopLoss, 1e-9)
}

func TestSetProtectionShortRules(t *testing.T) {
	sim := newTestSimulator(t, NewConfig(), flatBars(5, 100))
	position, err := sim.Open(models.TradeModeMarginShort, 10, 100, 2)
	require.NoError(t, err)

	assert.ErrorIs(t, sim.SetProtection(position.ID, 150, 0), models.ErrInvalidInput)
	assert.ErrorIs(t, sim.SetProtection(position.ID, 0, 100), models.ErrInvalidInput)
	assert.ErrorIs(t, sim.SetProtection(position.ID, 0, 105), models.ErrInvalidInput)
	require.NoError(t, sim.SetProtection(position.ID, 120, 80))
}

func TestSetProtectionTakeProfitLong(t *testing.T) {
	sim := newTestSimulator(t, NewConfig(), flatBars(5, 100))
	position, err := sim.Open(models.TradeModeSpotBuy, 1, 100, 1)
	require.NoError(t, err)

	assert.ErrorIs(t, sim.SetProtection(position.ID, 0, 100), models.ErrInvalidInput)
	require.NoError(t, sim.SetProtection(position.ID, 10, 120))
}

func TestSetProtectionStopLossMustBeOnLosingSide(t *testing.T) {
	bars := flatBars(5, 100)
	bars[1].High = 101
	sim := newTestSimulator(t, NewConfig(), bars)

	long, err := sim.Open(models.TradeModeSpotBuy, 1, 100, 1)
	require.NoError(t, err)
	assert.ErrorIs(t, sim.SetProtection(long.ID, 150, 0), models.ErrInvalidInput)
	assert.ErrorIs(t, sim.SetProtection(long.ID, 100, 0), models.ErrInvalidInput)

	short, err := sim.Open(models.TradeModeMarginShort, 1, 100, 2)
	require.NoError(t, err)
	assert.ErrorIs(t, sim.SetProtection(short.ID, 50, 0), models.ErrInvalidInput)
	assert.ErrorIs(t, sim.SetProtection(short.ID, 100, 0), models.ErrInvalidInput)

	triggered, err := sim.Advance(1)
	require.NoError(t, err)
	assert.Empty(t, triggered)
	assert.Len(t, sim.Positions(), 2)
}

func TestSetProtectionNoOpAndNotFound(t *testing.T) {
	sim := newTestSimulator(t, NewConfig(), flatBars(5, 100))
	position, err := sim.Open(models.TradeModeSpotBuy, 1, 100, 1)
	require.NoError(t, err)

	require.NoError(t, sim.SetProtection(position.ID, 0, 0))
	assert.Equal(t, EventInfo, sim.Snapshot().LastEvent.Kind)

	assert.ErrorIs(t, sim.SetProtection("missing", 90, 0), models.ErrNotFound)
	assert.ErrorIs(t, sim.SetProtection(position.ID, -1, 0), models.ErrInvalidInput)
}

func TestPartialCloseReleasesProportionalMargin(t *testing.T) {
	sim := newTestSimulator(t, NewConfig(), flatBars(5, 100))
	position, err := sim.Open(models.TradeModeMarginLong, 10, 100, 2)
	require.NoError(t, err)
	cashAfterOpen := sim.Cash()

	transaction, err := sim.Close(position.ID, 4, 100, models.CloseReasonManual)
	require.NoError(t, err)

	remaining, err := sim.Position(position.ID)
	require.NoError(t, err)
	assert.InDelta(t, 6.0, remaining.Quantity, 1e-9)
	assert.InDelta(t, 300.0, remaining.MarginCommitted, 1e-9)
	assert.InDelta(t, 6.0, remaining.OpenFee, 1e-9)

	closeFee := 4 * 100 * 0.01
	assert.InDelta(t, cashAfterOpen+200-closeFee, sim.Cash(), 1e-9)
	assert.InDelta(t, -closeFee, transaction.NetPnL, 1e-9)
	assert.InDelta(t, 4+closeFee, transaction.Fees, 1e-9)
	assert.Len(t, sim.Snapshot().Transactions, 1)
}

func TestCloseRejectionsLeaveStateUnchanged(t *testing.T) {
	sim := newTestSimulator(t, NewConfig(), flatBars(5, 100))
	position, err := sim.Open(models.TradeModeSpotBuy, 10, 100, 1)
	require.NoError(t, err)
	before := sim.Snapshot()

	_, err = sim.Close(position.ID, 11, 100, models.CloseReasonManual)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	_, err = sim.Close(position.ID, 0, 100, models.CloseReasonManual)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	_, err = sim.Close("missing", 1, 100, models.CloseReasonManual)
	assert.ErrorIs(t, err, models.ErrNotFound)

	after := sim.Snapshot()
	assert.Equal(t, before.Cash, after.Cash)
	assert.Equal(t, before.Positions, after.Positions)
	assert.Empty(t, after.Transactions)
}

func TestCloseAllKeepsRunActive(t *testing.T) {
	sim := newTestSimulator(t, NewConfig(), flatBars(5, 100))
	_, err := sim.Open(models.TradeModeSpotBuy, 1, 100, 1)
	require.NoError(t, err)
	_, err = sim.Open(models.TradeModeMarginShort, 1, 100, 3)
	require.NoError(t, err)

	transactions, err := sim.CloseAll()
	require.NoError(t, err)
	assert.Len(t, transactions, 2)
	for _, transaction := range transactions {
		assert.Equal(t, models.CloseReasonManual, transaction.Reason)
	}
	assert.True(t, sim.Active())
	assert.Empty(t, sim.Positions())

	transactions, err = sim.CloseAll()
	require.NoError(t, err)
	assert.Empty(t, transactions)
}

func TestTransactionUsesAssetLabel(t *testing.T) {
	config := NewConfig()
	config.Asset = models.DefaultAssetClasses()[models.AssetClassStock]
	sim := newTestSimulator(t, config, flatBars(5, 100))

	position, err := sim.Open(models.TradeModeMarginShort, 1, 100, 2)
	require.NoError(t, err)
	transaction, err := sim.Close(position.ID, 1, 100, models.CloseReasonManual)
	require.NoError(t, err)
	assert.Equal(t, "Short Sell", transaction.Type)
}

func TestConfigQuote(t *testing.T) {
	config := NewConfig()

	spot := config.Quote(models.TradeModeSpotBuy, 10, 100, 5)
	assert.Equal(t, 1.0, spot.Leverage)
	assert.InDelta(t, 1005.0, spot.Required, 1e-9)
	assert.Equal(t, 0.0, spot.LiquidationPrice)

	short := config.Quote(models.TradeModeMarginShort, 10, 100, 4)
	assert.InDelta(t, 250.0, short.Margin, 1e-9)
	assert.InDelta(t, 10.0, short.Fee, 1e-9)
	assert.InDelta(t, 260.0, short.Required, 1e-9)
	assert.InDelta(t, 125.0, short.LiquidationPrice, 1e-9)
	assert.Equal(t, 20.0, config.MaxLeverage())
}
