package models

import (
	"time"

	"gorm.io/datatypes"
)

// TransactionType defines the direction of a wallet transaction
type TransactionType string

const (
	TransactionTypeCredit TransactionType = "credit"
	TransactionTypeDebit  TransactionType = "debit"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	return t == TransactionTypeCredit || t == TransactionTypeDebit
}

// TransactionStatus defines the status of a transaction
type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "completed"
)

// DefaultCategory is used when a transaction is recorded without a category.
const DefaultCategory = "autre"

// WalletTransaction is an append-only ledger entry. Rows are never updated.
type WalletTransaction struct {
	ID           string            `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID       string            `gorm:"type:varchar(36);not null;uniqueIndex:idx_wallet_tx_user_seq,priority:1" json:"userId"`
	Seq          int64             `gorm:"not null;uniqueIndex:idx_wallet_tx_user_seq,priority:2" json:"seq"`
	Type         TransactionType   `gorm:"type:varchar(10);not null" json:"type"`
	Category     string            `gorm:"type:varchar(50);not null;index" json:"category"`
	Amount       int64             `gorm:"not null" json:"amount"`
	BalanceAfter int64             `gorm:"not null" json:"balanceAfter"`
	Label        string            `gorm:"type:varchar(255);not null" json:"label"`
	Metadata     datatypes.JSONMap `json:"metadata,omitempty"`
	ReferenceID  *string           `gorm:"type:varchar(100);index" json:"referenceId,omitempty"`
	Status       TransactionStatus `gorm:"type:varchar(20);not null" json:"status"`
	OccurredAt   time.Time         `gorm:"not null;index" json:"occurredAt"`
}

func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}

// SignedAmount returns +Amount for credits and -Amount for debits.
func (t WalletTransaction) SignedAmount() int64 {
	if t.Type == TransactionTypeDebit {
		return -t.Amount
	}
	return t.Amount
}
