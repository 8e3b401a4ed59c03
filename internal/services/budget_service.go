package services

import (
	"context"

	apperrors "budgetpace/internal/errors"
	"budgetpace/internal/models"
	"budgetpace/internal/pagination"
	"budgetpace/internal/period"
	"budgetpace/internal/repository"
)

// budgetService handles budget definitions.
type budgetService struct {
	store repository.Store
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(store repository.Store) BudgetServicer {
	return &budgetService{store: store}
}

// CreateBudget validates and stores a new budget with its categories.
func (s *budgetService) CreateBudget(ctx context.Context, userID string, in BudgetInput) (*models.Budget, error) {
	budget := &models.Budget{UserID: userID, IsActive: true}
	apply(budget, in)

	if err := validateBudget(ctx, s.store.Ledger(), budget); err != nil {
		return nil, err
	}

	if err := s.store.Budgets().CreateBudget(ctx, budget); err != nil {
		return nil, err
	}
	return budget, nil
}

// GetUserBudgets returns a paginated list of budgets for the user with optional filters.
func (s *budgetService) GetUserBudgets(ctx context.Context, userID string, page pagination.PageRequest, filter repository.BudgetFilter) (*pagination.PageResponse[models.Budget], error) {
	page.Defaults()

	budgets, total, err := s.store.Budgets().ListBudgets(ctx, userID, filter, page)
	if err != nil {
		return nil, err
	}

	result := pagination.NewPageResponse(budgets, page.Page, page.PageSize, total)
	return &result, nil
}

// GetBudgetByID returns a budget by ID if it belongs to the user.
func (s *budgetService) GetBudgetByID(ctx context.Context, userID, budgetID string) (*models.Budget, error) {
	return s.store.Budgets().GetBudget(ctx, userID, budgetID)
}

// UpdateBudget replaces the writable fields and the category set of a
// budget. Stored CLOSED periods keep their rows for removed categories.
func (s *budgetService) UpdateBudget(ctx context.Context, userID, budgetID string, in BudgetInput) (*models.Budget, error) {
	var updated *models.Budget
	err := s.store.Atomic(ctx, func(tx repository.Store) error {
		budget, err := tx.Budgets().GetBudget(ctx, userID, budgetID)
		if err != nil {
			return err
		}

		for _, c := range in.Categories {
			if c.ID == "" {
				continue
			}
			if _, ok := budget.CategoryByID(c.ID); !ok {
				return apperrors.WithMessage(apperrors.ErrCategoryNotFound, "budget category "+c.ID+" does not belong to this budget")
			}
		}

		apply(budget, in)
		if err := validateBudget(ctx, tx.Ledger(), budget); err != nil {
			return err
		}
		if err := tx.Budgets().UpdateBudget(ctx, budget); err != nil {
			return err
		}

		updated, err = tx.Budgets().GetBudget(ctx, userID, budgetID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteBudget soft-deletes a budget.
func (s *budgetService) DeleteBudget(ctx context.Context, userID, budgetID string) error {
	budget, err := s.GetBudgetByID(ctx, userID, budgetID)
	if err != nil {
		return err
	}
	return s.store.Budgets().DeleteBudget(ctx, budget)
}

// apply copies in onto b and fills defaults.
func apply(b *models.Budget, in BudgetInput) {
	b.Name = in.Name
	b.BudgetType = in.BudgetType
	b.PeriodStart = period.Date(in.PeriodStart)
	b.PeriodEnd = in.PeriodEnd
	b.BaseIncome = in.BaseIncome
	b.IncomeLinked = in.IncomeLinked
	b.Strategy = in.Strategy
	b.Currency = in.Currency
	b.Config = in.Config
	if in.IsActive != nil {
		b.IsActive = *in.IsActive
	}

	if b.Strategy == "" {
		b.Strategy = models.StrategyFixed
	}
	if b.Currency == "" {
		b.Currency = "USD"
	}
	if b.Config.Version == 0 {
		b.Config.Version = models.CurrentConfigVersion
	}
	if b.PeriodEnd != nil {
		end := period.Date(*b.PeriodEnd)
		b.PeriodEnd = &end
	}

	cats := make([]models.BudgetCategory, len(in.Categories))
	for i, c := range in.Categories {
		c.BudgetID = b.ID
		c.SortOrder = i
		if c.RolloverType == "" {
			c.RolloverType = models.RolloverNone
		}
		cats[i] = c
	}
	b.Categories = cats
}

// validateBudget rejects budgets the engine cannot compute: bad cadence config,
// inconsistent category references and ledger categories the user does
// not own.
func validateBudget(ctx context.Context, ledger repository.Ledger, b *models.Budget) error {
	if b.Name == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "name is required")
	}
	if _, err := period.ForBudget(b); err != nil {
		return err
	}
	if b.PeriodEnd != nil && b.PeriodEnd.Before(b.PeriodStart) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "period_end must not be before period_start")
	}
	if b.BaseIncome < 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "base_income must not be negative")
	}

	cfg := b.Config
	if cfg.DefaultWarnPercent > 0 && cfg.DefaultCriticalPercent > 0 && cfg.DefaultWarnPercent > cfg.DefaultCriticalPercent {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "default_warn_percent must not exceed default_critical_percent")
	}

	tree, err := ledger.CategoryTree(ctx, b.UserID)
	if err != nil {
		return err
	}
	owned := make(map[string]bool, len(tree))
	for _, c := range tree {
		owned[c.ID] = true
	}

	for i := range b.Categories {
		c := &b.Categories[i]
		if err := c.Validate(); err != nil {
			return err
		}
		if c.Amount < 0 {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "category amount must not be negative")
		}
		if c.CategoryID != nil && !owned[*c.CategoryID] {
			return apperrors.WithMessage(apperrors.ErrCategoryNotFound, "category "+*c.CategoryID+" not found")
		}
	}
	return nil
}
