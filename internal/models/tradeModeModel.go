package models

import (
	"fmt"
	"strings"
)

type Direction string

const (
	DirectionLong  Direction = "Long"
	DirectionShort Direction = "Short"
)

type TradeMode int

const (
	TradeModeSpotBuy TradeMode = iota + 1
	TradeModeMarginLong
	TradeModeMarginShort
)

type tradeModeInfo struct {
	key       string
	direction Direction
	margin    bool
}

var tradeModes = map[TradeMode]tradeModeInfo{
	TradeModeSpotBuy:     {key: "Spot_Buy", direction: DirectionLong},
	TradeModeMarginLong:  {key: "Margin_Long", direction: DirectionLong, margin: true},
	TradeModeMarginShort: {key: "Margin_Short", direction: DirectionShort, margin: true},
}

// TradeModes lists the supported modes in display order.
func TradeModes() []TradeMode {
	return []TradeMode{TradeModeSpotBuy, TradeModeMarginLong, TradeModeMarginShort}
}

func (m TradeMode) Valid() bool {
	_, ok := tradeModes[m]
	return ok
}

func (m TradeMode) Key() string {
	if info, ok := tradeModes[m]; ok {
		return info.key
	}
	return fmt.Sprintf("TradeMode(%d)", int(m))
}

func (m TradeMode) String() string {
	return m.Key()
}

func (m TradeMode) Direction() Direction {
	return tradeModes[m].direction
}

func (m TradeMode) IsMargin() bool {
	return tradeModes[m].margin
}

// Label returns the asset-specific display label, falling back to the mode key.
func (m TradeMode) Label(asset AssetClass) string {
	var label string
	switch m {
	case TradeModeSpotBuy:
		label = asset.SpotLabel
	case TradeModeMarginLong:
		label = asset.MarginLongLabel
	case TradeModeMarginShort:
		label = asset.MarginShortLabel
	}
	if label == "" {
		return m.Key()
	}
	return label
}

// ParseTradeMode accepts the canonical key ("Margin_Long") case-insensitively.
func ParseTradeMode(s string) (TradeMode, error) {
	for mode, info := range tradeModes {
		if strings.EqualFold(info.key, strings.TrimSpace(s)) {
			return mode, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown trade mode %q", ErrInvalidInput, s)
}

func (m TradeMode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: unknown trade mode %d", ErrInvalidInput, int(m))
	}
	return []byte(m.Key()), nil
}

func (m *TradeMode) UnmarshalText(text []byte) error {
	mode, err := ParseTradeMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}
