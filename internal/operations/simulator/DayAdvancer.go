package simulator

import (
	"TradeSimulator/internal/models"
	"fmt"
)

// Advance moves the clock forward by days bars, clamped to the terminal
// index. Each new bar is checked against every open lot before the next
// bar is processed. Reaching the terminal index settles the run.
func (s *Simulator) Advance(days int) ([]models.Transaction, error) {
	if err := s.ensureActive(); err != nil {
		return nil, s.reject(err)
	}
	if days <= 0 {
		return nil, s.reject(fmt.Errorf("%w: days must be positive", models.ErrInvalidInput))
	}

	// Compare before adding so huge day counts cannot overflow.
	target := s.state.TerminalIndex
	if days < s.state.TerminalIndex-s.state.CurrentIndex {
		target = s.state.CurrentIndex + days
	}

	var triggered []models.Transaction
	for day := s.state.CurrentIndex + 1; day <= target; day++ {
		bar, _ := s.series.Bar(day)
		s.state.CurrentIndex = day

		for _, position := range s.positions.FindAll() {
			price, reason, hit := checkTriggers(position, bar)
			if !hit {
				continue
			}
			transaction, err := s.closeLot(position.ID, position.Quantity, price, reason)
			if err != nil {
				return triggered, s.reject(err)
			}
			triggered = append(triggered, *transaction)
		}

		s.state.EquityCurve = append(s.state.EquityCurve, EquityPoint{
			DayIndex: day,
			Date:     bar.Date,
			Equity:   s.TotalAssetValue(bar.Close),
		})
	}

	s.log.Debug().
		Int("days", days).
		Int("current_index", s.state.CurrentIndex).
		Int("triggered", len(triggered)).
		Msg("Advanced")

	if len(triggered) > 0 {
		s.notify(EventInfo, fmt.Sprintf("%d positions closed automatically", len(triggered)))
	} else {
		s.notify(EventInfo, fmt.Sprintf("Advanced to %s", s.CurrentBar().Date.Format("2006-01-02")))
	}

	if s.state.CurrentIndex >= s.state.TerminalIndex {
		if _, err := s.settle(false); err != nil {
			return triggered, err
		}
	}
	return triggered, nil
}

// checkTriggers evaluates liquidation, then stop-loss, then take-profit
// against the bar's range and returns the first hit with its trigger price.
func checkTriggers(position models.Position, bar models.PriceBar) (float64, models.CloseReason, bool) {
	long := position.Direction() == models.DirectionLong

	if position.IsMargin() && position.LiquidationPrice > 0 {
		liq := position.LiquidationPrice
		if (long && bar.Low <= liq) || (!long && bar.High >= liq) {
			return liq, models.CloseReasonLiquidation, true
		}
	}

	if sl := position.StopLoss; sl > 0 {
		if (long && bar.Low <= sl) || (!long && bar.High >= sl) {
			return sl, models.CloseReasonStopLoss, true
		}
	}

	if tp := position.TakeProfit; tp > 0 {
		if (long && bar.High >= tp) || (!long && bar.Low <= tp) {
			return tp, models.CloseReasonTakeProfit, true
		}
	}

	return 0, "", false
}
