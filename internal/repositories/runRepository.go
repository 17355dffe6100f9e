package repositories

import (
	"TradeSimulator/internal/models"
	"context"
	"errors"

	"gorm.io/gorm"
)

type RunRepository struct {
	db *gorm.DB
}

// NewRunRepository creates a new instance of RunRepository
func NewRunRepository(db *gorm.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Archive stores a settled run together with its transaction ledger
func (r *RunRepository) Archive(ctx context.Context, run *models.Run) error {
	if run == nil {
		return errors.New("run cannot be nil")
	}
	if run.ID == "" {
		return errors.New("invalid id")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Transactions").Create(run).Error; err != nil {
			return err
		}
		if len(run.Transactions) == 0 {
			return nil
		}
		for i := range run.Transactions {
			run.Transactions[i].ID = 0
			run.Transactions[i].RunID = run.ID
		}
		return tx.CreateInBatches(&run.Transactions, 100).Error
	})
}

// FindByID retrieves a run and its ledger
func (r *RunRepository) FindByID(id string) (*models.Run, error) {
	if id == "" {
		return nil, errors.New("invalid id")
	}
	var run models.Run
	err := r.db.Preload("Transactions", func(db *gorm.DB) *gorm.DB {
		return db.Order("close_day_index ASC, id ASC")
	}).First(&run, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &run, err
}

// FindRecent lists the latest settled runs without their ledgers
func (r *RunRepository) FindRecent(limit int) ([]models.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []models.Run
	err := r.db.Order("settled_at DESC").Limit(limit).Find(&runs).Error
	return runs, err
}

// FindBySymbol lists every settled run on a symbol
func (r *RunRepository) FindBySymbol(symbol string) ([]models.Run, error) {
	if symbol == "" {
		return nil, errors.New("invalid symbol")
	}
	var runs []models.Run
	err := r.db.Where("symbol = ?", symbol).Order("settled_at DESC").Find(&runs).Error
	return runs, err
}
