package simulator

import "TradeSimulator/internal/models"

// CalculatePnL returns the gross PnL of a lot marked at referencePrice.
// Leverage does not scale PnL; it only changes the margin committed.
func CalculatePnL(direction models.Direction, quantity, entryPrice, referencePrice float64) float64 {
	if direction == models.DirectionShort {
		return (entryPrice - referencePrice) * quantity
	}
	return (referencePrice - entryPrice) * quantity
}

// LiquidationPrice is the price at which a margin lot's loss consumes its
// margin: entry*(1-1/lev) for longs, entry*(1+1/lev) for shorts.
func LiquidationPrice(direction models.Direction, entryPrice, leverage float64) float64 {
	if leverage <= 0 {
		return 0
	}
	if direction == models.DirectionShort {
		return entryPrice * (1 + 1/leverage)
	}
	return entryPrice * (1 - 1/leverage)
}
