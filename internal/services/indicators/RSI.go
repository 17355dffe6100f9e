package indicators

import (
	"github.com/markcheno/go-talib"
)

type RSIService struct{}

func NewRSIService() *RSIService {
	return &RSIService{}
}

// Calculate returns Wilder's RSI aligned with prices. The first period
// values are zero.
func (s *RSIService) Calculate(prices []float64, period int) []float64 {
	if period < 2 || len(prices) < period+1 {
		return nil
	}
	return talib.Rsi(prices, period)
}
