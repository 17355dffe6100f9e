package simulator

import (
	"TradeSimulator/internal/models"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Settle closes every open lot at the current reference price and ends the
// run. Calling it on a finished run returns the stored statistics.
func (s *Simulator) Settle(forceEnd bool) (SettlementStats, error) {
	if !s.state.Active && s.state.Stats != nil {
		return *s.state.Stats, nil
	}
	return s.settle(forceEnd)
}

func (s *Simulator) settle(forceEnd bool) (SettlementStats, error) {
	if _, err := s.closeAllAt(s.ReferencePrice(), models.CloseReasonSettlement); err != nil {
		return SettlementStats{}, s.reject(fmt.Errorf("settlement failed: %w", err))
	}
	s.state.Active = false

	bar := s.CurrentBar()
	s.state.EquityCurve = append(s.state.EquityCurve, EquityPoint{
		DayIndex: s.state.CurrentIndex,
		Date:     bar.Date,
		Equity:   s.state.Cash,
	})

	stats := s.calculateStats(forceEnd)
	s.state.Stats = &stats

	s.notify(EventInfo, fmt.Sprintf("Simulation settled: final asset %s, ROI %s",
		formatAmount(stats.FinalAsset), stats.ROIString()))
	s.log.Info().
		Float64("final_asset", stats.FinalAsset).
		Float64("roi", stats.ROI).
		Int("trades", stats.TradeCount).
		Bool("ended_early", forceEnd).
		Msg("Simulation settled")

	return stats, nil
}

func (s *Simulator) calculateStats(forceEnd bool) SettlementStats {
	initial := s.state.InitialCapital
	final := s.state.Cash
	startBar, _ := s.series.Bar(s.state.StartIndex)
	endBar := s.CurrentBar()

	stats := SettlementStats{
		InitialCapital: initial,
		FinalAsset:     final,
		TotalPnL:       final - initial,
		StartIndex:     s.state.StartIndex,
		EndIndex:       s.state.CurrentIndex,
		StartDate:      startBar.Date,
		EndDate:        endBar.Date,
		EndedEarly:     forceEnd,
		TradeCount:     len(s.state.Transactions),
	}
	if initial > 0 {
		stats.ROI = stats.TotalPnL / initial * 100
	}

	for _, transaction := range s.state.Transactions {
		if transaction.NetPnL > 0 {
			stats.WinningTrades++
		}
		stats.TotalFees += transaction.Fees
	}
	if stats.TradeCount > 0 {
		stats.WinRate = float64(stats.WinningTrades) / float64(stats.TradeCount)
	}

	stats.MaxDrawdown = maxDrawdown(s.state.EquityCurve, initial)
	stats.SharpeRatio = sharpeRatio(s.state.EquityCurve)
	return stats
}

func maxDrawdown(curve []EquityPoint, initial float64) float64 {
	maxDrawdown := 0.0
	peak := initial
	for _, point := range curve {
		if point.Equity > peak {
			peak = point.Equity
		}
		if peak <= 0 {
			continue
		}
		drawdown := (peak - point.Equity) / peak
		if drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}
	return maxDrawdown
}

func sharpeRatio(curve []EquityPoint) float64 {
	if len(curve) < 3 {
		return 0
	}

	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		if curve[i-1].Equity == 0 {
			continue
		}
		returns = append(returns, (curve[i].Equity-curve[i-1].Equity)/curve[i-1].Equity)
	}
	if len(returns) < 2 {
		return 0
	}

	mean, stdDev := stat.MeanStdDev(returns, nil)
	if stdDev == 0 || math.IsNaN(stdDev) {
		return 0
	}

	// Annualize (assuming daily returns)
	return (mean * tradingDaysPerYear) / (stdDev * math.Sqrt(tradingDaysPerYear))
}
