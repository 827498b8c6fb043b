package models

import "time"

// WalletAccount holds the materialized balance of a user's ledger.
// TotalCredits always equals the sum of credits minus the sum of debits.
type WalletAccount struct {
	UserID            string     `gorm:"type:varchar(36);primaryKey" json:"userId"`
	TotalCredits      int64      `gorm:"not null" json:"totalCredits"`
	BonusCredits      int64      `gorm:"not null" json:"bonusCredits"`
	LifetimeCredits   int64      `gorm:"not null" json:"lifetimeCredits"`
	TransactionCount  int64      `gorm:"not null" json:"-"`
	LastTransactionAt *time.Time `json:"lastTransactionAt"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

func (WalletAccount) TableName() string {
	return "wallet_accounts"
}
