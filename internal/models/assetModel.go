package models

import (
	"github.com/shopspring/decimal"
)

// AssetClass carries the display vocabulary and quantity rules of a market.
type AssetClass struct {
	Name             string  `toml:"name" json:"name"`
	Unit             string  `toml:"unit" json:"unit"`
	SpotLabel        string  `toml:"spot_label" json:"spot_label"`
	MarginLongLabel  string  `toml:"margin_long_label" json:"margin_long_label"`
	MarginShortLabel string  `toml:"margin_short_label" json:"margin_short_label"`
	DefaultQuantity  float64 `toml:"default_quantity" json:"default_quantity"`
	MinQuantity      float64 `toml:"min_quantity" json:"min_quantity"`
}

const (
	AssetClassStock  = "Stock"
	AssetClassForex  = "Forex"
	AssetClassCrypto = "Crypto"
)

func DefaultAssetClasses() map[string]AssetClass {
	return map[string]AssetClass{
		AssetClassStock: {
			Name:             AssetClassStock,
			Unit:             "shares",
			SpotLabel:        "Spot",
			MarginLongLabel:  "Margin Buy",
			MarginShortLabel: "Short Sell",
			DefaultQuantity:  1000,
			MinQuantity:      1,
		},
		AssetClassForex: {
			Name:             AssetClassForex,
			Unit:             "points",
			SpotLabel:        "Spot",
			MarginLongLabel:  "Long",
			MarginShortLabel: "Short",
			DefaultQuantity:  100,
			MinQuantity:      100,
		},
		AssetClassCrypto: {
			Name:             AssetClassCrypto,
			Unit:             "coins",
			SpotLabel:        "Spot",
			MarginLongLabel:  "Futures Long",
			MarginShortLabel: "Futures Short",
			DefaultQuantity:  1,
			MinQuantity:      0.001,
		},
	}
}

// RoundDown truncates quantity to a whole multiple of MinQuantity.
func (a AssetClass) RoundDown(quantity float64) float64 {
	if a.MinQuantity <= 0 || quantity <= 0 {
		return quantity
	}
	step := decimal.NewFromFloat(a.MinQuantity)
	rounded := decimal.NewFromFloat(quantity).Div(step).Floor().Mul(step)
	return rounded.InexactFloat64()
}

func (a AssetClass) ValidQuantity(quantity float64) bool {
	return quantity > 0 && quantity >= a.MinQuantity
}
