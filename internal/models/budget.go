package models

import (
	"time"

	"gorm.io/gorm"

	apperrors "budgetpace/internal/errors"
)

// BudgetType selects how a budget's periods are cut.
type BudgetType string

const (
	BudgetTypeMonthly   BudgetType = "MONTHLY"
	BudgetTypeAnnual    BudgetType = "ANNUAL"
	BudgetTypePayPeriod BudgetType = "PAY_PERIOD"
)

// BudgetStrategy is the allocation philosophy of a budget.
type BudgetStrategy string

const (
	StrategyFixed             BudgetStrategy = "FIXED"
	StrategyRollover          BudgetStrategy = "ROLLOVER"
	StrategyZeroBased         BudgetStrategy = "ZERO_BASED"
	StrategyFiftyThirtyTwenty BudgetStrategy = "FIFTY_THIRTY_TWENTY"
)

// PayFrequency is the cadence of PAY_PERIOD budgets.
type PayFrequency string

const (
	PayWeekly      PayFrequency = "WEEKLY"
	PayBiweekly    PayFrequency = "BIWEEKLY"
	PaySemimonthly PayFrequency = "SEMIMONTHLY"
	PayMonthly     PayFrequency = "MONTHLY"
)

// CurrentConfigVersion is written into every BudgetConfig saved by this build.
const CurrentConfigVersion = 1

// BudgetConfig is the typed, versioned configuration of a budget. Cadence
// fields are only meaningful for the budget types that use them.
type BudgetConfig struct {
	Version int `json:"version"`

	// ANNUAL: month (1-12) the fiscal year starts in.
	FiscalYearStartMonth int `json:"fiscal_year_start_month,omitempty"`

	// PAY_PERIOD cadence. PayDayOfMonth anchors SEMIMONTHLY and MONTHLY
	// cycles; when zero the day of Budget.PeriodStart is used.
	PayFrequency  PayFrequency `json:"pay_frequency,omitempty"`
	PayDayOfMonth int          `json:"pay_day_of_month,omitempty"`

	// Defaults for categories that leave their alert thresholds unset.
	DefaultWarnPercent     float64 `json:"default_warn_percent,omitempty"`
	DefaultCriticalPercent float64 `json:"default_critical_percent,omitempty"`

	// Accounts whose transactions feed this budget. Empty means every
	// account of the budget owner.
	AccountIDs []string `json:"account_ids,omitempty"`
}

// FiscalStart returns the fiscal-year start month, defaulting to January.
func (c BudgetConfig) FiscalStart() int {
	if c.FiscalYearStartMonth < 1 || c.FiscalYearStartMonth > 12 {
		return 1
	}
	return c.FiscalYearStartMonth
}

// Budget is a user's spending plan over repeating periods.
type Budget struct {
	Base
	UserID       string         `gorm:"type:uuid;not null;index" json:"user_id"`
	Name         string         `gorm:"not null" json:"name"`
	BudgetType   BudgetType     `gorm:"not null" json:"budget_type"`
	PeriodStart  time.Time      `gorm:"not null" json:"period_start"`
	PeriodEnd    *time.Time     `json:"period_end,omitempty"`
	BaseIncome   int64          `gorm:"not null;default:0" json:"base_income"`
	IncomeLinked bool           `gorm:"not null;default:false" json:"income_linked"`
	Strategy     BudgetStrategy `gorm:"not null" json:"strategy"`
	Currency     string         `gorm:"not null;default:'USD'" json:"currency"`
	Config       BudgetConfig   `gorm:"serializer:json;type:text" json:"config"`
	IsActive     bool           `gorm:"not null;default:true" json:"is_active"`

	// Relationships
	Categories []BudgetCategory `gorm:"foreignKey:BudgetID" json:"categories,omitempty"`
}

// CategoryByID returns the budget category with the given id.
func (b *Budget) CategoryByID(id string) (*BudgetCategory, bool) {
	for i := range b.Categories {
		if b.Categories[i].ID == id {
			return &b.Categories[i], true
		}
	}
	return nil, false
}

// CategoryGroup classifies a category for 50/30/20 and health weighting.
type CategoryGroup string

const (
	GroupNeed   CategoryGroup = "NEED"
	GroupWant   CategoryGroup = "WANT"
	GroupSaving CategoryGroup = "SAVING"
)

// RolloverType is the carry-forward policy of a budget category.
type RolloverType string

const (
	RolloverNone      RolloverType = "NONE"
	RolloverMonthly   RolloverType = "MONTHLY"
	RolloverQuarterly RolloverType = "QUARTERLY"
	RolloverAnnual    RolloverType = "ANNUAL"
)

// BudgetCategory is one line of a budget. It targets either a spending
// category or a transfer destination account, never both.
type BudgetCategory struct {
	Base
	BudgetID             string         `gorm:"type:uuid;not null;index" json:"budget_id"`
	CategoryID           *string        `gorm:"type:uuid" json:"category_id,omitempty"`
	TransferAccountID    *string        `gorm:"type:uuid" json:"transfer_account_id,omitempty"`
	IsTransfer           bool           `gorm:"not null;default:false" json:"is_transfer"`
	Name                 string         `gorm:"not null" json:"name"`
	Amount               int64          `gorm:"not null" json:"amount"`
	IsIncome             bool           `gorm:"not null;default:false" json:"is_income"`
	CategoryGroup        *CategoryGroup `json:"category_group,omitempty"`
	RolloverType         RolloverType   `gorm:"not null;default:'NONE'" json:"rollover_type"`
	RolloverCap          *int64         `json:"rollover_cap,omitempty"`
	FlexGroup            *string        `json:"flex_group,omitempty"`
	AlertWarnPercent     *float64       `json:"alert_warn_percent,omitempty"`
	AlertCriticalPercent *float64       `json:"alert_critical_percent,omitempty"`
	SortOrder            int            `gorm:"not null;default:0" json:"sort_order"`
}

// Validate enforces that exactly one of CategoryID/TransferAccountID is set
// and that IsTransfer agrees with which one.
func (c *BudgetCategory) Validate() error {
	hasCategory := c.CategoryID != nil && *c.CategoryID != ""
	hasAccount := c.TransferAccountID != nil && *c.TransferAccountID != ""
	if hasCategory == hasAccount || hasAccount != c.IsTransfer {
		return apperrors.ErrInconsistentCategoryReference
	}
	if c.RolloverCap != nil && *c.RolloverCap < 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "rollover_cap must not be negative")
	}
	return nil
}

// BeforeSave rejects inconsistent category references at write time.
func (c *BudgetCategory) BeforeSave(tx *gorm.DB) error {
	return c.Validate()
}

// Rollover returns the effective rollover policy, treating empty as NONE.
func (c *BudgetCategory) Rollover() RolloverType {
	if c.RolloverType == "" {
		return RolloverNone
	}
	return c.RolloverType
}

// Flex returns the flex group name, or "" when the category is standalone.
func (c *BudgetCategory) Flex() string {
	if c.FlexGroup == nil {
		return ""
	}
	return *c.FlexGroup
}

// Group returns the category group, or "" when unset.
func (c *BudgetCategory) Group() CategoryGroup {
	if c.CategoryGroup == nil {
		return ""
	}
	return *c.CategoryGroup
}
