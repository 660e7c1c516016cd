// Package finance provides CRUD and reporting operations for a group's
// income/expense register. All amounts are minor currency units.
package finance

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bandsync/bandsync/internal/db/models"
)

const (
	idQueryPattern    = "id = ? AND group_id = ?"
	groupQueryPattern = "group_id = ?"
)

var (
	// ErrTransactionNotFound is returned when a transaction is not found.
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrAmountNotPositive is returned when a transaction amount is zero or negative.
	ErrAmountNotPositive = errors.New("amount must be positive")
	// ErrKindInvalid is returned when the transaction kind is not income or expense.
	ErrKindInvalid = errors.New("unknown transaction kind")
	// ErrCurrencyEmpty is returned when a transaction has no currency code.
	ErrCurrencyEmpty = errors.New("currency cannot be empty")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Summary aggregates a group's register.
type Summary struct {
	Income  int64 `json:"income"`
	Expense int64 `json:"expense"`
	Balance int64 `json:"balance"`
}

// CategoryTotal is the aggregated amount of one category and kind.
type CategoryTotal struct {
	Category string                 `json:"category"`
	Kind     models.TransactionKind `json:"kind"`
	Total    int64                  `json:"total"`
}

// Create records a new transaction for a group.
func Create(db *gorm.DB, txn *models.Transaction) (*models.Transaction, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if txn.Amount <= 0 {
		return nil, ErrAmountNotPositive
	}
	if txn.Kind != models.TransactionIncome && txn.Kind != models.TransactionExpense {
		return nil, ErrKindInvalid
	}
	if txn.Currency == "" {
		return nil, ErrCurrencyEmpty
	}

	if txn.ID == "" {
		txn.ID = uuid.NewString()
	}

	result := db.Create(txn)
	if result.Error != nil {
		return nil, result.Error
	}

	return txn, nil
}

// Get retrieves a transaction by ID within a group.
func Get(db *gorm.DB, groupID, id string) (*models.Transaction, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var txn models.Transaction
	result := db.Where(idQueryPattern, id, groupID).First(&txn)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, result.Error
	}

	return &txn, nil
}

// GetAll retrieves all transactions of a group, newest first.
func GetAll(db *gorm.DB, groupID string) ([]models.Transaction, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var txns []models.Transaction
	result := db.Where(groupQueryPattern, groupID).Order("occurred_at DESC").Find(&txns)
	if result.Error != nil {
		return nil, result.Error
	}

	return txns, nil
}

// Delete removes a transaction by ID within a group.
func Delete(db *gorm.DB, groupID, id string) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Where(idQueryPattern, id, groupID).Delete(&models.Transaction{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTransactionNotFound
	}

	return nil
}

// Summarize computes the income, expense and balance totals of a group.
func Summarize(db *gorm.DB, groupID string) (*Summary, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var summary Summary

	err := db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(CASE WHEN kind = ? THEN amount ELSE 0 END), 0) AS income, "+
			"COALESCE(SUM(CASE WHEN kind = ? THEN amount ELSE 0 END), 0) AS expense",
			models.TransactionIncome, models.TransactionExpense).
		Where(groupQueryPattern, groupID).
		Scan(&summary).Error
	if err != nil {
		return nil, err
	}

	summary.Balance = summary.Income - summary.Expense

	return &summary, nil
}

// ByCategory aggregates a group's register per category and kind.
func ByCategory(db *gorm.DB, groupID string) ([]CategoryTotal, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var totals []CategoryTotal

	err := db.Model(&models.Transaction{}).
		Select("category, kind, SUM(amount) AS total").
		Where(groupQueryPattern, groupID).
		Group("category, kind").
		Order("category ASC, kind ASC").
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}

	return totals, nil
}
