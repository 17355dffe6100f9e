package repositories

import (
	"TradeSimulator/internal/models"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const priceBatchSize = 500

type PriceRepository struct {
	db *gorm.DB
}

// NewPriceRepository creates a new instance of PriceRepository
func NewPriceRepository(db *gorm.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// SaveBars upserts daily bars keyed by symbol and date
func (r *PriceRepository) SaveBars(bars []models.PriceBar) error {
	if len(bars) == 0 {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"open", "high", "low", "close", "volume", "fetched_at"}),
	}).CreateInBatches(&bars, priceBatchSize).Error
}

// GetDailyBars returns every cached bar for a symbol, oldest first
func (r *PriceRepository) GetDailyBars(symbol string) ([]models.PriceBar, error) {
	if symbol == "" {
		return nil, errors.New("invalid symbol")
	}
	var bars []models.PriceBar
	err := r.db.Where("symbol = ?", symbol).
		Order("date ASC").
		Find(&bars).Error
	return bars, err
}

// GetLatestBar gets the most recently dated bar for a symbol
func (r *PriceRepository) GetLatestBar(symbol string) (*models.PriceBar, error) {
	if symbol == "" {
		return nil, errors.New("invalid symbol")
	}

	var bar models.PriceBar
	err := r.db.Where("symbol = ?", symbol).
		Order("date DESC").
		First(&bar).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &bar, err
}

// GetLastFetched gets the bar written by the most recent refresh
func (r *PriceRepository) GetLastFetched(symbol string) (*models.PriceBar, error) {
	if symbol == "" {
		return nil, errors.New("invalid symbol")
	}

	var bar models.PriceBar
	err := r.db.Where("symbol = ?", symbol).
		Order("fetched_at DESC").
		First(&bar).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &bar, err
}

// DeleteBySymbol drops the cache for one symbol
func (r *PriceRepository) DeleteBySymbol(symbol string) error {
	if symbol == "" {
		return errors.New("invalid symbol")
	}
	return r.db.Where("symbol = ?", symbol).Delete(&models.PriceBar{}).Error
}
