package models

import (
	"time"
)

// Run is the archived outcome of a settled simulation.
type Run struct {
	ID         string `gorm:"primaryKey" json:"id"`
	SessionID  string `gorm:"index" json:"session_id"`
	Symbol     string `gorm:"index;not null" json:"symbol"`
	AssetClass string `gorm:"not null" json:"asset_class"`

	InitialCapital float64 `gorm:"type:decimal(20,8);not null" json:"initial_capital"`
	FinalAsset     float64 `gorm:"type:decimal(20,8);not null" json:"final_asset"`
	TotalPnL       float64 `gorm:"type:decimal(20,8)" json:"total_pnl"`
	ROI            float64 `gorm:"type:decimal(20,8)" json:"roi"`

	TradeCount  int     `json:"trade_count"`
	WinRate     float64 `json:"win_rate"`
	TotalFees   float64 `gorm:"type:decimal(20,8)" json:"total_fees"`
	MaxDrawdown float64 `json:"max_drawdown"`
	SharpeRatio float64 `json:"sharpe_ratio"`
	EndedEarly  bool    `json:"ended_early"`

	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	SettledAt time.Time `gorm:"index;not null" json:"settled_at"`

	// Relationships
	Transactions []Transaction `gorm:"foreignKey:RunID;references:ID" json:"transactions,omitempty"`
}
