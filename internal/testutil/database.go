// Package testutil provides test helpers for setting up in-memory databases,
// creating fixtures, and making assertions.
package testutil

import (
	"testing"

	"budgetpace/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// allModels is the list of all GORM models to auto-migrate in tests.
var allModels = []interface{}{
	&models.Category{},
	&models.Transaction{},
	&models.TransactionSplit{},
	&models.ScheduledBill{},
	&models.Budget{},
	&models.BudgetCategory{},
	&models.BudgetPeriod{},
	&models.BudgetPeriodCategory{},
	&models.BudgetAlert{},
	&models.AuditLog{},
}

// unreadDedupIndex mirrors the partial unique index of the alerts migration.
const unreadDedupIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_budget_alerts_unread_dedup
	ON budget_alerts (budget_id, dedup_key) WHERE is_read = 0 AND deleted_at IS NULL`

// SetupTestDB creates an in-memory SQLite database with all models migrated.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	if err := db.Exec(unreadDedupIndex).Error; err != nil {
		t.Fatalf("failed to create alert dedup index: %v", err)
	}

	return db
}

// TeardownTestDB closes the underlying database connection.
func TeardownTestDB(t *testing.T, db *gorm.DB) {
	t.Helper()

	sqlDB, err := db.DB()
	if err != nil {
		t.Errorf("failed to get underlying DB for teardown: %v", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		t.Errorf("failed to close test database: %v", err)
	}
}
