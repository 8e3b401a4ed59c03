package models

import "time"

// PeriodStatus is the lifecycle state of a budget period.
type PeriodStatus string

const (
	PeriodOpen      PeriodStatus = "OPEN"
	PeriodClosed    PeriodStatus = "CLOSED"
	PeriodProjected PeriodStatus = "PROJECTED"
)

// BudgetPeriod is the persisted state of one resolved period of a budget.
type BudgetPeriod struct {
	Base
	BudgetID       string       `gorm:"type:uuid;not null;uniqueIndex:idx_budget_period_start" json:"budget_id"`
	PeriodStart    time.Time    `gorm:"not null;uniqueIndex:idx_budget_period_start" json:"period_start"`
	PeriodEnd      time.Time    `gorm:"not null" json:"period_end"`
	ActualIncome   int64        `gorm:"not null;default:0" json:"actual_income"`
	ActualExpenses int64        `gorm:"not null;default:0" json:"actual_expenses"`
	TotalBudgeted  int64        `gorm:"not null;default:0" json:"total_budgeted"`
	Status         PeriodStatus `gorm:"not null;default:'OPEN'" json:"status"`
	ClosedAt       *time.Time   `json:"closed_at,omitempty"`

	// Relationships
	Categories []BudgetPeriodCategory `gorm:"foreignKey:BudgetPeriodID" json:"categories,omitempty"`
}

// BudgetPeriodCategory is the computed state of one budget category within
// one period. BudgetedAmount is the target at computation time and may
// differ from the live BudgetCategory.Amount.
type BudgetPeriodCategory struct {
	Base
	BudgetPeriodID   string `gorm:"type:uuid;not null;uniqueIndex:idx_period_category" json:"budget_period_id"`
	BudgetCategoryID string `gorm:"type:uuid;not null;uniqueIndex:idx_period_category" json:"budget_category_id"`
	BudgetedAmount   int64  `gorm:"not null" json:"budgeted_amount"`
	RolloverIn       int64  `gorm:"not null;default:0" json:"rollover_in"`
	ActualAmount     int64  `gorm:"not null;default:0" json:"actual_amount"`
	EffectiveBudget  int64  `gorm:"not null" json:"effective_budget"`
	RolloverOut      int64  `gorm:"not null;default:0" json:"rollover_out"`
}
