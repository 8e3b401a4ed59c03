package testutil_test

import (
	"testing"

	"budgetpace/internal/errors"
	"budgetpace/internal/models"
	"budgetpace/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	// Verify all tables exist by doing a simple count query on each model.
	var count int64
	for _, table := range []string{"categories", "transactions", "transaction_splits", "scheduled_bills", "budgets", "budget_categories", "budget_periods", "budget_period_categories", "budget_alerts", "audit_logs"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	userID := testutil.NewUserID()
	accountID := testutil.NewUserID()

	parent := testutil.CreateTestCategory(t, db, userID, nil)
	child := testutil.CreateTestCategory(t, db, userID, &parent.ID)
	if child.ParentID == nil || *child.ParentID != parent.ID {
		t.Error("child category should reference its parent")
	}

	tx := testutil.CreateTestTransaction(t, db, userID, accountID, &child.ID, -1250, testutil.Day(2024, 3, 4))
	if tx.ID == "" {
		t.Fatal("transaction should have an ID")
	}

	split := testutil.CreateTestSplitTransaction(t, db, userID, accountID, testutil.Day(2024, 3, 5),
		models.TransactionSplit{CategoryID: &parent.ID, Amount: -300},
		models.TransactionSplit{CategoryID: &child.ID, Amount: -200},
	)
	if split.Amount != -500 {
		t.Errorf("expected split total -500, got %d", split.Amount)
	}

	budget := testutil.CreateTestBudget(t, db, userID, testutil.Day(2024, 1, 1),
		testutil.BudgetLine(parent.ID, "Food", 50000),
		testutil.BudgetLine(child.ID, "Dining", 20000),
	)
	if len(budget.Categories) != 2 || budget.Categories[0].ID == "" {
		t.Fatalf("expected two persisted categories, got %+v", budget.Categories)
	}
	if budget.Categories[1].SortOrder != 1 {
		t.Errorf("expected sort order 1, got %d", budget.Categories[1].SortOrder)
	}
}

func TestAssertAppError(t *testing.T) {
	// AssertAppError should pass for matching codes.
	testutil.AssertAppError(t, errors.ErrBudgetNotFound, "BUDGET_NOT_FOUND")
	testutil.AssertAppError(t, errors.Wrap(errors.ErrInternalServer, errors.ErrNotFound), "INTERNAL_ERROR")
}

func TestAssertNoError(t *testing.T) {
	testutil.AssertNoError(t, nil)
}

func TestFormatCents(t *testing.T) {
	for in, want := range map[int64]string{0: "0.00", 5: "0.05", 8000: "80.00", -123456: "-1234.56"} {
		if got := testutil.FormatCents(in); got != want {
			t.Errorf("FormatCents(%d) = %q, want %q", in, got, want)
		}
	}
}
