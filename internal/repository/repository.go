// Package repository defines the collaborator contracts the budget engine
// reads from and writes to, and their GORM implementation.
package repository

import (
	"context"
	"time"

	"budgetpace/internal/models"
	"budgetpace/internal/pagination"
	"budgetpace/internal/period"
)

// AccountScope selects the transactions a budget sees. Empty AccountIDs
// means every account of the user.
type AccountScope struct {
	UserID     string
	AccountIDs []string
}

// ScopeFor returns the account scope of a budget.
func ScopeFor(b *models.Budget) AccountScope {
	return AccountScope{UserID: b.UserID, AccountIDs: b.Config.AccountIDs}
}

// Ledger is the read-only view of the transaction ledger.
type Ledger interface {
	FetchTransactions(ctx context.Context, scope AccountScope, iv period.Interval) ([]models.Transaction, error)
	FetchUpcomingBills(ctx context.Context, userID string, iv period.Interval) ([]models.ScheduledBill, error)
	CategoryTree(ctx context.Context, userID string) ([]models.Category, error)
	// EarliestTransaction returns the date of the first transaction in
	// scope; ok is false for an empty ledger.
	EarliestTransaction(ctx context.Context, scope AccountScope) (first time.Time, ok bool, err error)
}

// BudgetFilter narrows budget listings.
type BudgetFilter struct {
	IsActive   *bool
	BudgetType *models.BudgetType
}

// BudgetRepository persists budgets and their periods.
type BudgetRepository interface {
	CreateBudget(ctx context.Context, b *models.Budget) error
	// GetBudget loads a budget with its categories. An empty userID skips
	// the ownership check.
	GetBudget(ctx context.Context, userID, id string) (*models.Budget, error)
	ListBudgets(ctx context.Context, userID string, filter BudgetFilter, page pagination.PageRequest) ([]models.Budget, int64, error)
	ListActiveBudgets(ctx context.Context) ([]models.Budget, error)
	// UpdateBudget saves b and replaces its category set with b.Categories.
	UpdateBudget(ctx context.Context, b *models.Budget) error
	DeleteBudget(ctx context.Context, b *models.Budget) error

	// ListPeriods returns stored periods whose start lies in [from, to],
	// oldest first, with their category rows.
	ListPeriods(ctx context.Context, budgetID string, from, to time.Time) ([]models.BudgetPeriod, error)
	// GetPeriod returns the stored period starting at start, or nil.
	GetPeriod(ctx context.Context, budgetID string, start time.Time) (*models.BudgetPeriod, error)
	// EnsureOpenPeriod inserts an OPEN row unless one already exists.
	EnsureOpenPeriod(ctx context.Context, p *models.BudgetPeriod) error
	// ClosePeriod writes a CLOSED period and its category rows. It fails
	// with ErrConcurrentPeriodClose when another writer closed it first.
	ClosePeriod(ctx context.Context, p *models.BudgetPeriod) error
}

// AlertRepository persists alerts.
type AlertRepository interface {
	UnreadDedupKeys(ctx context.Context, budgetID string) (map[string]bool, error)
	// AppendAlerts inserts alerts, skipping any that collide with an
	// existing unread alert, and returns the ones written.
	AppendAlerts(ctx context.Context, alerts []models.BudgetAlert) ([]models.BudgetAlert, error)
	ListAlerts(ctx context.Context, budgetID string, unreadOnly bool, page pagination.PageRequest) ([]models.BudgetAlert, int64, error)
	CountUnread(ctx context.Context, budgetID string) (int64, error)
	// GetAlert loads an alert. An empty userID skips the ownership check.
	GetAlert(ctx context.Context, userID, id string) (*models.BudgetAlert, error)
	MarkRead(ctx context.Context, id string) error
	MarkEmailSent(ctx context.Context, id string) error
}

// Store groups the repositories and runs units of work atomically.
type Store interface {
	Ledger() Ledger
	Budgets() BudgetRepository
	Alerts() AlertRepository
	// Atomic runs fn inside one database transaction. fn receives a Store
	// bound to that transaction.
	Atomic(ctx context.Context, fn func(Store) error) error
}
