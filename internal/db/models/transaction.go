package models

import "time"

// TransactionKind separates money coming in from money going out.
type TransactionKind string

const (
	// TransactionIncome is money received by the group.
	TransactionIncome TransactionKind = "income"
	// TransactionExpense is money spent by the group.
	TransactionExpense TransactionKind = "expense"
)

// Transaction is one entry in a group's finance register.
// Amounts are stored in minor currency units (cents) to avoid float drift.
type Transaction struct {
	// ID is the unique identifier for the transaction (UUID string).
	ID string `gorm:"primaryKey;size:36" json:"id"`
	// GroupID scopes the transaction to a group.
	GroupID string `gorm:"size:36;index;not null" json:"groupId"`
	// Kind is income or expense.
	Kind TransactionKind `gorm:"type:varchar(10);not null" json:"kind"`
	// Amount is the value in minor currency units, always positive.
	Amount int64 `gorm:"not null" json:"amount"`
	// Currency is the ISO 4217 code, e.g. "EUR".
	Currency string `gorm:"size:3;not null" json:"currency"`
	// Category groups transactions for reporting (gig, merch, rent, ...).
	Category string `gorm:"size:100" json:"category"`
	// Details is the free-form description.
	Details string `gorm:"size:500" json:"details"`
	// OccurredAt is when the money moved.
	OccurredAt time.Time `gorm:"index" json:"occurredAt"`
	// RecordedBy is the user who entered the transaction.
	RecordedBy string `gorm:"size:36" json:"recordedBy"`
	// CreatedAt is the timestamp when the row was created (managed by GORM).
	CreatedAt time.Time `json:"createdAt"`
}

// TableName specifies the database table name for the Transaction model.
func (Transaction) TableName() string {
	return "transactions"
}
