package indicators

import (
	"github.com/markcheno/go-talib"
)

type MAService struct{}

func NewMAService() *MAService {
	return &MAService{}
}

// Calculate returns the simple moving average aligned with prices. The
// first period-1 values are zero.
func (s *MAService) Calculate(prices []float64, period int) []float64 {
	if period < 1 || len(prices) < period {
		return nil
	}
	return talib.Sma(prices, period)
}
