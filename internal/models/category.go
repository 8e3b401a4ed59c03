package models

// Category is a ledger spending or income category. Categories form a tree
// through ParentID; the engine only reads them.
type Category struct {
	Base
	UserID   string  `gorm:"type:uuid;not null;index" json:"user_id"`
	Name     string  `gorm:"not null" json:"name"`
	ParentID *string `gorm:"type:uuid" json:"parent_id,omitempty"`
	IsIncome bool    `gorm:"not null;default:false" json:"is_income"`
}
