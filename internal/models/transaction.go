package models

import "time"

// Transaction is the engine's read-only view of a ledger entry. Amount is
// signed in minor units: negative values leave the account, positive values
// arrive. Transfers carry the other leg's account in CounterAccountID.
type Transaction struct {
	Base
	UserID           string    `gorm:"type:uuid;not null;index" json:"user_id"`
	AccountID        string    `gorm:"type:uuid;not null;index" json:"account_id"`
	CounterAccountID *string   `gorm:"type:uuid" json:"counter_account_id,omitempty"`
	CategoryID       *string   `gorm:"type:uuid" json:"category_id,omitempty"`
	Amount           int64     `gorm:"type:bigint;not null" json:"amount"`
	Description      string    `json:"description"`
	Date             time.Time `gorm:"not null;index" json:"date"`
	IsTransfer       bool      `gorm:"not null;default:false" json:"is_transfer"`

	// Relationships
	Splits []TransactionSplit `gorm:"foreignKey:TransactionID" json:"splits,omitempty"`
}

// TransactionSplit is one categorized portion of a split transaction. Split
// amounts carry the same sign convention as their parent.
type TransactionSplit struct {
	Base
	TransactionID string  `gorm:"type:uuid;not null;index" json:"transaction_id"`
	CategoryID    *string `gorm:"type:uuid" json:"category_id,omitempty"`
	Amount        int64   `gorm:"type:bigint;not null" json:"amount"`
}

// ScheduledBill is an upcoming bill supplied by the bills collaborator.
// Amount is a positive outflow in minor units.
type ScheduledBill struct {
	Base
	UserID     string    `gorm:"type:uuid;not null;index" json:"user_id"`
	Name       string    `gorm:"not null" json:"name"`
	DueDate    time.Time `gorm:"not null;index" json:"due_date"`
	Amount     int64     `gorm:"type:bigint;not null" json:"amount"`
	CategoryID *string   `gorm:"type:uuid" json:"category_id,omitempty"`
}
