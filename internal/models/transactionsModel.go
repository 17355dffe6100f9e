package models

import (
	"time"
)

type CloseReason string

const (
	CloseReasonManual      CloseReason = "manual"
	CloseReasonStopLoss    CloseReason = "stop_loss"
	CloseReasonTakeProfit  CloseReason = "take_profit"
	CloseReasonLiquidation CloseReason = "liquidation"
	CloseReasonSettlement  CloseReason = "settlement"
)

// Transaction records one closing event. NetPnL is gross PnL minus the
// closing fee; Fees is the allocated opening fee plus the closing fee.
type Transaction struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	RunID      string    `gorm:"index;not null" json:"-"`
	PositionID string    `gorm:"index;not null" json:"position_id"`
	Type       string    `gorm:"not null" json:"type"`
	Mode       TradeMode `gorm:"not null" json:"mode"`
	Quantity   float64   `gorm:"type:decimal(20,8);not null" json:"quantity"`
	EntryPrice float64   `gorm:"type:decimal(20,8);not null" json:"entry_price"`
	ExitPrice  float64   `gorm:"type:decimal(20,8);not null" json:"exit_price"`
	Leverage   float64   `gorm:"type:decimal(10,4);not null" json:"leverage"`
	Fees       float64   `gorm:"type:decimal(20,8)" json:"fees"`
	NetPnL     float64   `gorm:"type:decimal(20,8)" json:"net_pnl"`

	Reason        CloseReason `gorm:"index;not null" json:"reason"`
	CloseDayIndex int         `gorm:"not null" json:"close_day_index"`
	CloseDate     time.Time   `gorm:"index" json:"close_date"`

	// Time
	CreatedAt time.Time `gorm:"autoCreateTime" json:"-"`
}
