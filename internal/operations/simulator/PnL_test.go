package simulator

import (
	"TradeSimulator/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculatePnL(t *testing.T) {
	tests := []struct {
		name      string
		direction models.Direction
		quantity  float64
		entry     float64
		reference float64
		want      float64
	}{
		{"long gain", models.DirectionLong, 10, 100, 110, 100},
		{"long loss", models.DirectionLong, 10, 100, 50, -500},
		{"short gain", models.DirectionShort, 10, 100, 90, 100},
		{"short loss", models.DirectionShort, 2, 100, 130, -60},
		{"flat", models.DirectionLong, 7, 100, 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CalculatePnL(tt.direction, tt.quantity, tt.entry, tt.reference), 1e-9)
		})
	}
}

func TestLiquidationPriceSides(t *testing.T) {
	for _, leverage := range []float64{1.01, 1.5, 2, 3, 5, 10, 20} {
		long := LiquidationPrice(models.DirectionLong, 100, leverage)
		short := LiquidationPrice(models.DirectionShort, 100, leverage)
		assert.Less(t, long, 100.0, "leverage %g", leverage)
		assert.Greater(t, short, 100.0, "leverage %g", leverage)
	}

	assert.InDelta(t, 50.0, LiquidationPrice(models.DirectionLong, 100, 2), 1e-9)
	assert.InDelta(t, 150.0, LiquidationPrice(models.DirectionShort, 100, 2), 1e-9)
	assert.Equal(t, 0.0, LiquidationPrice(models.DirectionLong, 100, 1))
}
