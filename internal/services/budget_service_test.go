package services

import (
	"context"
	"testing"

	"budgetpace/internal/models"
	"budgetpace/internal/pagination"
	"budgetpace/internal/repository"
	"budgetpace/internal/testutil"
)

func monthlyInput(lines ...models.BudgetCategory) BudgetInput {
	return BudgetInput{
		Name:        "Household",
		BudgetType:  models.BudgetTypeMonthly,
		PeriodStart: testutil.Day(2024, 1, 1),
		Strategy:    models.StrategyFixed,
		Categories:  lines,
	}
}

func TestCreateBudget(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(repository.NewStore(db))
		userID := testutil.NewUserID()
		cat := testutil.CreateTestCategory(t, db, userID, nil)

		budget, err := svc.CreateBudget(ctx, userID, monthlyInput(testutil.BudgetLine(cat.ID, "Groceries", 50000)))
		testutil.AssertNoError(t, err)

		if budget.ID == "" {
			t.Fatal("expected budget ID")
		}
		if budget.Currency != "USD" {
			t.Errorf("expected default currency USD, got %s", budget.Currency)
		}
		if budget.Config.Version != models.CurrentConfigVersion {
			t.Errorf("expected config version %d, got %d", models.CurrentConfigVersion, budget.Config.Version)
		}
		if !budget.IsActive {
			t.Error("expected budget to be active")
		}
		if len(budget.Categories) != 1 || budget.Categories[0].BudgetID != budget.ID {
			t.Errorf("expected one category bound to the budget, got %+v", budget.Categories)
		}
	})

	t.Run("inactive", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(repository.NewStore(db))
		userID := testutil.NewUserID()

		inactive := false
		in := monthlyInput()
		in.IsActive = &inactive
		budget, err := svc.CreateBudget(ctx, userID, in)
		testutil.AssertNoError(t, err)
		if budget.IsActive {
			t.Error("expected created budget to be inactive")
		}

		found, err := svc.GetBudgetByID(ctx, userID, budget.ID)
		testutil.AssertNoError(t, err)
		if found.IsActive {
			t.Error("expected budget to stay inactive")
		}
	})

	t.Run("pay_period_without_frequency", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(repository.NewStore(db))

		in := monthlyInput()
		in.BudgetType = models.BudgetTypePayPeriod
		_, err := svc.CreateBudget(ctx, testutil.NewUserID(), in)
		testutil.AssertAppError(t, err, "INVALID_PERIOD_CONFIG")
	})

	t.Run("annual_without_fiscal_start", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(repository.NewStore(db))

		in := monthlyInput()
		in.BudgetType = models.BudgetTypeAnnual
		_, err := svc.CreateBudget(ctx, testutil.NewUserID(), in)
		testutil.AssertAppError(t, err, "INVALID_PERIOD_CONFIG")
	})

	t.Run("inconsistent_reference", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(repository.NewStore(db))
		userID := testutil.NewUserID()
		cat := testutil.CreateTestCategory(t, db, userID, nil)

		line := testutil.BudgetLine(cat.ID, "Both", 100)
		account := testutil.NewUserID()
		line.TransferAccountID = &account
		line.IsTransfer = true

		_, err := svc.CreateBudget(ctx, userID, monthlyInput(line))
		testutil.AssertAppError(t, err, "INCONSISTENT_CATEGORY_REFERENCE")
	})

	t.Run("transfer_line", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(repository.NewStore(db))

		account := testutil.NewUserID()
		line := models.BudgetCategory{Name: "Savings", Amount: 20000, TransferAccountID: &account, IsTransfer: true}
		_, err := svc.CreateBudget(ctx, testutil.NewUserID(), monthlyInput(line))
		testutil.AssertNoError(t, err)
	})

	t.Run("wrong_user_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(repository.NewStore(db))
		other := testutil.CreateTestCategory(t, db, testutil.NewUserID(), nil)

		_, err := svc.CreateBudget(ctx, testutil.NewUserID(), monthlyInput(testutil.BudgetLine(other.ID, "Not Mine", 100)))
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})

	t.Run("missing_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(repository.NewStore(db))

		in := monthlyInput()
		in.Name = ""
		_, err := svc.CreateBudget(ctx, testutil.NewUserID(), in)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestGetUserBudgets(t *testing.T) {
	ctx := context.Background()

	t.Run("returns_user_budgets_only", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(repository.NewStore(db))
		user1, user2 := testutil.NewUserID(), testutil.NewUserID()

		testutil.CreateTestBudget(t, db, user1, testutil.Day(2024, 1, 1))
		testutil.CreateTestBudget(t, db, user1, testutil.Day(2024, 1, 1))
		testutil.CreateTestBudget(t, db, user2, testutil.Day(2024, 1, 1))

		result, err := svc.GetUserBudgets(ctx, user1, pagination.PageRequest{Page: 1, PageSize: 20}, repository.BudgetFilter{})
		testutil.AssertNoError(t, err)

		if result.TotalItems != 2 {
			t.Errorf("expected 2 budgets, got %d", result.TotalItems)
		}
	})

	t.Run("filter_by_is_active", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(repository.NewStore(db))
		userID := testutil.NewUserID()

		testutil.CreateTestBudget(t, db, userID, testutil.Day(2024, 1, 1))
		inactive := testutil.CreateTestBudget(t, db, userID, testutil.Day(2024, 1, 1))
		if err := db.Model(inactive).Update("is_active", false).Error; err != nil {
			t.Fatalf("failed to deactivate budget: %v", err)
		}

		active := true
		result, err := svc.GetUserBudgets(ctx, userID, pagination.PageRequest{}, repository.BudgetFilter{IsActive: &active})
		testutil.AssertNoError(t, err)

		if result.TotalItems != 1 {
			t.Errorf("expected 1 active budget, got %d", result.TotalItems)
		}
	})

	t.Run("pagination", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(repository.NewStore(db))
		userID := testutil.NewUserID()

		for i := 0; i < 5; i++ {
			testutil.CreateTestBudget(t, db, userID, testutil.Day(2024, 1, 1))
		}

		result, err := svc.GetUserBudgets(ctx, userID, pagination.PageRequest{Page: 1, PageSize: 2}, repository.BudgetFilter{})
		testutil.AssertNoError(t, err)

		if result.TotalItems != 5 {
			t.Errorf("expected 5 total items, got %d", result.TotalItems)
		}
		if result.TotalPages != 3 {
			t.Errorf("expected 3 total pages, got %d", result.TotalPages)
		}
		if len(result.Data) != 2 {
			t.Errorf("expected 2 items on page, got %d", len(result.Data))
		}
	})
}

func TestGetBudgetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(repository.NewStore(db))
		userID := testutil.NewUserID()
		budget := testutil.CreateTestBudget(t, db, userID, testutil.Day(2024, 1, 1))

		found, err := svc.GetBudgetByID(ctx, userID, budget.ID)
		testutil.AssertNoError(t, err)
		if found.ID != budget.ID {
			t.Errorf("expected budget %s, got %s", budget.ID, found.ID)
		}
	})

	t.Run("wrong_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(repository.NewStore(db))
		budget := testutil.CreateTestBudget(t, db, testutil.NewUserID(), testutil.Day(2024, 1, 1))

		_, err := svc.GetBudgetByID(ctx, testutil.NewUserID(), budget.ID)
		testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")
	})
}

func TestUpdateBudget(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces_categories", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(repository.NewStore(db))
		userID := testutil.NewUserID()
		food := testutil.CreateTestCategory(t, db, userID, nil)
		rent := testutil.CreateTestCategory(t, db, userID, nil)
		budget := testutil.CreateTestBudget(t, db, userID, testutil.Day(2024, 1, 1), testutil.BudgetLine(food.ID, "Food", 50000))

		kept := budget.Categories[0]
		kept.Amount = 45000
		in := monthlyInput(kept, testutil.BudgetLine(rent.ID, "Rent", 150000))
		in.Name = "Updated"

		updated, err := svc.UpdateBudget(ctx, userID, budget.ID, in)
		testutil.AssertNoError(t, err)

		if updated.Name != "Updated" {
			t.Errorf("expected name Updated, got %s", updated.Name)
		}
		if len(updated.Categories) != 2 {
			t.Fatalf("expected 2 categories, got %d", len(updated.Categories))
		}
		if updated.Categories[0].ID != kept.ID || updated.Categories[0].Amount != 45000 {
			t.Errorf("expected kept category first with amount 45000, got %+v", updated.Categories[0])
		}
	})

	t.Run("foreign_category_id", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(repository.NewStore(db))
		userID := testutil.NewUserID()
		food := testutil.CreateTestCategory(t, db, userID, nil)
		budget := testutil.CreateTestBudget(t, db, userID, testutil.Day(2024, 1, 1))

		line := testutil.BudgetLine(food.ID, "Food", 100)
		line.ID = models.NewID()
		_, err := svc.UpdateBudget(ctx, userID, budget.ID, monthlyInput(line))
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(repository.NewStore(db))

		_, err := svc.UpdateBudget(ctx, testutil.NewUserID(), models.NewID(), monthlyInput())
		testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")
	})
}

func TestDeleteBudget(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(repository.NewStore(db))
		userID := testutil.NewUserID()
		budget := testutil.CreateTestBudget(t, db, userID, testutil.Day(2024, 1, 1))

		testutil.AssertNoError(t, svc.DeleteBudget(ctx, userID, budget.ID))

		_, err := svc.GetBudgetByID(ctx, userID, budget.ID)
		testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(repository.NewStore(db))

		err := svc.DeleteBudget(ctx, testutil.NewUserID(), models.NewID())
		testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")
	})
}
