package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"budgetpace/internal/models"

	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Day returns midnight UTC of the given date.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// NewUserID returns a fresh user identifier. Users live in the identity
// service, so there is no row to create.
func NewUserID() string {
	return models.NewID()
}

// CreateTestCategory creates an expense category, optionally under parent.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID string, parentID *string) *models.Category {
	t.Helper()

	cat := &models.Category{
		UserID:   userID,
		Name:     fmt.Sprintf("Category %d", nextID()),
		ParentID: parentID,
	}
	if err := db.Create(cat).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return cat
}

// CreateTestIncomeCategory creates an income category.
func CreateTestIncomeCategory(t *testing.T, db *gorm.DB, userID string) *models.Category {
	t.Helper()

	cat := &models.Category{
		UserID:   userID,
		Name:     fmt.Sprintf("Income %d", nextID()),
		IsIncome: true,
	}
	if err := db.Create(cat).Error; err != nil {
		t.Fatalf("failed to create test income category: %v", err)
	}
	return cat
}

// CreateTestTransaction creates a transaction. Negative amounts are outflows.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID, accountID string, categoryID *string, amount int64, date time.Time) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:      userID,
		AccountID:   accountID,
		CategoryID:  categoryID,
		Amount:      amount,
		Description: fmt.Sprintf("Transaction %d", nextID()),
		Date:        date,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestSplitTransaction creates a transaction whose amount is the sum of
// its splits.
func CreateTestSplitTransaction(t *testing.T, db *gorm.DB, userID, accountID string, date time.Time, splits ...models.TransactionSplit) *models.Transaction {
	t.Helper()

	var total int64
	for _, s := range splits {
		total += s.Amount
	}
	tx := &models.Transaction{
		UserID:      userID,
		AccountID:   accountID,
		Amount:      total,
		Description: fmt.Sprintf("Split %d", nextID()),
		Date:        date,
		Splits:      splits,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test split transaction: %v", err)
	}
	return tx
}

// CreateTestBill creates an upcoming scheduled bill.
func CreateTestBill(t *testing.T, db *gorm.DB, userID string, categoryID *string, amount int64, due time.Time) *models.ScheduledBill {
	t.Helper()

	bill := &models.ScheduledBill{
		UserID:     userID,
		Name:       fmt.Sprintf("Bill %d", nextID()),
		DueDate:    due,
		Amount:     amount,
		CategoryID: categoryID,
	}
	if err := db.Create(bill).Error; err != nil {
		t.Fatalf("failed to create test bill: %v", err)
	}
	return bill
}

// BudgetLine builds a budget category referencing a ledger category.
func BudgetLine(categoryID, name string, amount int64) models.BudgetCategory {
	id := categoryID
	return models.BudgetCategory{
		CategoryID:   &id,
		Name:         name,
		Amount:       amount,
		RolloverType: models.RolloverNone,
	}
}

// CreateTestBudget creates an active monthly FIXED budget starting at start
// with the given categories.
func CreateTestBudget(t *testing.T, db *gorm.DB, userID string, start time.Time, lines ...models.BudgetCategory) *models.Budget {
	t.Helper()
	return CreateTestBudgetWith(t, db, &models.Budget{
		UserID:      userID,
		BudgetType:  models.BudgetTypeMonthly,
		Strategy:    models.StrategyFixed,
		PeriodStart: start,
		Categories:  lines,
	})
}

// CreateTestBudgetWith fills defaults into b and persists it.
func CreateTestBudgetWith(t *testing.T, db *gorm.DB, b *models.Budget) *models.Budget {
	t.Helper()

	if b.Name == "" {
		b.Name = fmt.Sprintf("Budget %d", nextID())
	}
	if b.Currency == "" {
		b.Currency = "USD"
	}
	if b.Config.Version == 0 {
		b.Config.Version = models.CurrentConfigVersion
	}
	b.IsActive = true
	for i := range b.Categories {
		b.Categories[i].SortOrder = i
	}
	if err := db.Create(b).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return b
}
