package simulator

import (
	"TradeSimulator/internal/models"
	"fmt"
)

// Open executes a new lot at referencePrice. Spot lots ignore leverage and
// commit the full cost; margin lots commit cost/leverage. The fee is
// charged on the full notional in both cases and debited with the margin.
func (s *Simulator) Open(mode models.TradeMode, quantity, referencePrice, leverage float64) (*models.Position, error) {
	if err := s.ensureActive(); err != nil {
		return nil, s.reject(err)
	}
	if !mode.Valid() {
		return nil, s.reject(fmt.Errorf("%w: unknown trade mode", models.ErrInvalidInput))
	}
	if quantity <= 0 {
		return nil, s.reject(fmt.Errorf("%w: quantity must be positive", models.ErrInvalidInput))
	}
	if referencePrice <= 0 {
		return nil, s.reject(fmt.Errorf("%w: reference price must be positive", models.ErrInvalidInput))
	}

	if mode.IsMargin() {
		if leverage < 1 {
			return nil, s.reject(fmt.Errorf("%w: leverage must be at least 1", models.ErrInvalidInput))
		}
		if leverage > s.config.MaxLeverage() {
			return nil, s.reject(fmt.Errorf("%w: leverage %gx exceeds maximum %gx", models.ErrInvalidInput, leverage, s.config.MaxLeverage()))
		}
	}

	quote := s.config.Quote(mode, quantity, referencePrice, leverage)
	if s.state.Cash < quote.Required {
		return nil, s.reject(fmt.Errorf("%w: need %s, have %s", models.ErrInsufficientFunds,
			formatAmount(quote.Required), formatAmount(s.state.Cash)))
	}

	position := &models.Position{
		ID:               s.newID(),
		Mode:             mode,
		Quantity:         quantity,
		EntryPrice:       referencePrice,
		Leverage:         quote.Leverage,
		MarginCommitted:  quote.Margin,
		OpenFee:          quote.Fee,
		LiquidationPrice: quote.LiquidationPrice,
		OpenDayIndex:     s.state.CurrentIndex,
		OpenDate:         s.CurrentBar().Date,
	}

	if err := s.positions.Create(position); err != nil {
		return nil, s.reject(fmt.Errorf("%w: %v", models.ErrInvalidInput, err))
	}
	s.state.Cash -= quote.Required

	s.notify(EventSuccess, fmt.Sprintf("Opened %s %g @ %s (fee %s)",
		mode.Label(s.config.Asset), quantity, formatAmount(referencePrice), formatAmount(quote.Fee)))
	s.log.Info().
		Str("position_id", position.ID).
		Str("mode", mode.Key()).
		Float64("quantity", quantity).
		Float64("price", referencePrice).
		Float64("leverage", quote.Leverage).
		Float64("fee", quote.Fee).
		Msg("Position opened")

	return position, nil
}

// SetProtection overwrites a lot's stop-loss and take-profit. Zero clears
// a level. Equal values are accepted as a no-op. A new stop-loss must sit
// on the losing side of the current reference price.
func (s *Simulator) SetProtection(positionID string, stopLoss, takeProfit float64) error {
	if err := s.ensureActive(); err != nil {
		return s.reject(err)
	}
	if stopLoss < 0 || takeProfit < 0 {
		return s.reject(fmt.Errorf("%w: protective levels cannot be negative", models.ErrInvalidInput))
	}
	position, err := s.Position(positionID)
	if err != nil {
		return s.reject(err)
	}
	if position.StopLoss == stopLoss && position.TakeProfit == takeProfit {
		s.notify(EventInfo, "Protective levels unchanged")
		return nil
	}

	long := position.Direction() == models.DirectionLong
	if stopLoss > 0 && stopLoss != position.StopLoss {
		reference := s.ReferencePrice()
		if long && stopLoss >= reference {
			return s.reject(fmt.Errorf("%w: stop-loss %s must be below the current price %s",
				models.ErrInvalidInput, formatAmount(stopLoss), formatAmount(reference)))
		}
		if !long && stopLoss <= reference {
			return s.reject(fmt.Errorf("%w: stop-loss %s must be above the current price %s",
				models.ErrInvalidInput, formatAmount(stopLoss), formatAmount(reference)))
		}
	}
	if stopLoss > 0 && position.IsMargin() && position.LiquidationPrice > 0 {
		if long && stopLoss <= position.LiquidationPrice {
			return s.reject(fmt.Errorf("%w: stop-loss %s must be above liquidation price %s",
				models.ErrInvalidInput, formatAmount(stopLoss), formatAmount(position.LiquidationPrice)))
		}
		if !long && stopLoss >= position.LiquidationPrice {
			return s.reject(fmt.Errorf("%w: stop-loss %s must be below liquidation price %s",
				models.ErrInvalidInput, formatAmount(stopLoss), formatAmount(position.LiquidationPrice)))
		}
	}
	if takeProfit > 0 {
		if long && takeProfit <= position.EntryPrice {
			return s.reject(fmt.Errorf("%w: take-profit %s must be above entry price %s",
				models.ErrInvalidInput, formatAmount(takeProfit), formatAmount(position.EntryPrice)))
		}
		if !long && takeProfit >= position.EntryPrice {
			return s.reject(fmt.Errorf("%w: take-profit %s must be below entry price %s",
				models.ErrInvalidInput, formatAmount(takeProfit), formatAmount(position.EntryPrice)))
		}
	}

	position.StopLoss = stopLoss
	position.TakeProfit = takeProfit
	if err := s.positions.Update(position); err != nil {
		return s.reject(err)
	}

	s.notify(EventSuccess, fmt.Sprintf("Updated protection: SL %s, TP %s", formatAmount(stopLoss), formatAmount(takeProfit)))
	s.log.Info().
		Str("position_id", positionID).
		Float64("stop_loss", stopLoss).
		Float64("take_profit", takeProfit).
		Msg("Protection updated")
	return nil
}

// Close realizes quantity of a lot at referencePrice.
func (s *Simulator) Close(positionID string, quantity, referencePrice float64, reason models.CloseReason) (*models.Transaction, error) {
	if err := s.ensureActive(); err != nil {
		return nil, s.reject(err)
	}
	transaction, err := s.closeLot(positionID, quantity, referencePrice, reason)
	if err != nil {
		return nil, s.reject(err)
	}

	s.notify(EventSuccess, fmt.Sprintf("Closed %g @ %s, net PnL %s",
		quantity, formatAmount(referencePrice), formatAmount(transaction.NetPnL)))
	return transaction, nil
}

// CloseAll closes every open lot at the current reference price. Unlike
// Settle, the run stays active and trading can continue.
func (s *Simulator) CloseAll() ([]models.Transaction, error) {
	if err := s.ensureActive(); err != nil {
		return nil, s.reject(err)
	}
	transactions, err := s.closeAllAt(s.ReferencePrice(), models.CloseReasonManual)
	if err != nil {
		return transactions, s.reject(err)
	}
	if len(transactions) == 0 {
		s.notify(EventInfo, "No open positions")
		return nil, nil
	}
	s.notify(EventSuccess, fmt.Sprintf("Closed %d positions", len(transactions)))
	return transactions, nil
}

func (s *Simulator) closeAllAt(price float64, reason models.CloseReason) ([]models.Transaction, error) {
	var transactions []models.Transaction
	for _, position := range s.positions.FindAll() {
		transaction, err := s.closeLot(position.ID, position.Quantity, price, reason)
		if err != nil {
			return transactions, err
		}
		transactions = append(transactions, *transaction)
	}
	return transactions, nil
}

// closeLot validates fully before mutating anything, so a rejected close
// leaves the state untouched.
func (s *Simulator) closeLot(positionID string, quantity, referencePrice float64, reason models.CloseReason) (*models.Transaction, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity to close must be positive", models.ErrInvalidInput)
	}
	if referencePrice <= 0 {
		return nil, fmt.Errorf("%w: reference price must be positive", models.ErrInvalidInput)
	}
	position, err := s.Position(positionID)
	if err != nil {
		return nil, err
	}
	if quantity > position.Quantity {
		return nil, fmt.Errorf("%w: cannot close %g of %g", models.ErrInvalidInput, quantity, position.Quantity)
	}

	closeFee := quantity * referencePrice * s.config.FeeRateFor(position.Mode)
	gross := CalculatePnL(position.Direction(), quantity, position.EntryPrice, referencePrice)
	netPnL := gross - closeFee

	remaining := position.Quantity - quantity
	fullyClosed := remaining <= quantityEpsilon
	released, openFeeShare := position.MarginCommitted, position.OpenFee
	if !fullyClosed {
		ratio := quantity / position.Quantity
		released = position.MarginCommitted * ratio
		openFeeShare = position.OpenFee * ratio
	}

	if fullyClosed {
		err = s.positions.Delete(position.ID)
	} else {
		position.Quantity = remaining
		position.MarginCommitted -= released
		position.OpenFee -= openFeeShare
		err = s.positions.Update(position)
	}
	if err != nil {
		return nil, err
	}
	s.state.Cash += released + netPnL

	bar := s.CurrentBar()
	transaction := models.Transaction{
		PositionID:    position.ID,
		Type:          position.Mode.Label(s.config.Asset),
		Mode:          position.Mode,
		Quantity:      quantity,
		EntryPrice:    position.EntryPrice,
		ExitPrice:     referencePrice,
		Leverage:      position.Leverage,
		Fees:          openFeeShare + closeFee,
		NetPnL:        netPnL,
		Reason:        reason,
		CloseDayIndex: s.state.CurrentIndex,
		CloseDate:     bar.Date,
	}
	s.state.Transactions = append(s.state.Transactions, transaction)

	s.log.Info().
		Str("position_id", position.ID).
		Str("reason", string(reason)).
		Float64("quantity", quantity).
		Float64("price", referencePrice).
		Float64("net_pnl", netPnL).
		Bool("fully_closed", fullyClosed).
		Msg("Position closed")

	return &transaction, nil
}
