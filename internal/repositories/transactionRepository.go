package repositories

import (
	"TradeSimulator/internal/models"
	"errors"

	"gorm.io/gorm"
)

type TransactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new instance of TransactionRepository
func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create adds a new Transaction record to the database
func (r *TransactionRepository) Create(transaction *models.Transaction) error {
	if transaction == nil {
		return errors.New("transaction cannot be nil")
	}
	return r.db.Create(transaction).Error
}

// FindByRunID retrieves the ledger of one archived run in close order
func (r *TransactionRepository) FindByRunID(runID string) ([]models.Transaction, error) {
	if runID == "" {
		return nil, errors.New("invalid run id")
	}
	var transactions []models.Transaction
	err := r.db.Where("run_id = ?", runID).
		Order("close_day_index ASC, id ASC").
		Find(&transactions).Error
	return transactions, err
}

// FindByReason retrieves the closes of one run triggered for a given reason
func (r *TransactionRepository) FindByReason(runID string, reason models.CloseReason) ([]models.Transaction, error) {
	if runID == "" {
		return nil, errors.New("invalid run id")
	}
	var transactions []models.Transaction
	err := r.db.Where("run_id = ? AND reason = ?", runID, reason).
		Order("close_day_index ASC, id ASC").
		Find(&transactions).Error
	return transactions, err
}

// GetTotalFees sums the fees paid across one run
func (r *TransactionRepository) GetTotalFees(runID string) (float64, error) {
	var total struct {
		Total float64
	}
	err := r.db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(fees), 0) as total").
		Where("run_id = ?", runID).
		Scan(&total).Error
	return total.Total, err
}
