package models

import "time"

// Position is an open lot held in the position book.
type Position struct {
	ID         string    `json:"id"`
	Mode       TradeMode `json:"mode"`
	Quantity   float64   `json:"quantity"`
	EntryPrice float64   `json:"entry_price"`
	Leverage   float64   `json:"leverage"`

	// MarginCommitted is the cash locked by the lot, excluding fees.
	MarginCommitted float64 `json:"margin_committed"`
	// OpenFee is the part of the opening fee not yet allocated to a close.
	OpenFee float64 `json:"open_fee"`

	LiquidationPrice float64 `json:"liquidation_price"`
	StopLoss         float64 `json:"stop_loss"`
	TakeProfit       float64 `json:"take_profit"`

	OpenDayIndex int       `json:"open_day_index"`
	OpenDate     time.Time `json:"open_date"`
}

func (p Position) Direction() Direction {
	return p.Mode.Direction()
}

func (p Position) IsMargin() bool {
	return p.Mode.IsMargin()
}
