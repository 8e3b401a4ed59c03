package services

import (
	"context"
	"time"

	"budgetpace/internal/generator"
	"budgetpace/internal/health"
	"budgetpace/internal/models"
	"budgetpace/internal/pagination"
	"budgetpace/internal/report"
	"budgetpace/internal/repository"
	"budgetpace/internal/rollover"
	"budgetpace/internal/seasonal"
	"budgetpace/internal/velocity"
)

// BudgetInput carries the writable fields of a budget. Categories replace
// the budget's whole category set; entries with an ID update that category.
type BudgetInput struct {
	Name         string
	BudgetType   models.BudgetType
	PeriodStart  time.Time
	PeriodEnd    *time.Time
	BaseIncome   int64
	IncomeLinked bool
	Strategy     models.BudgetStrategy
	Currency     string
	Config       models.BudgetConfig
	IsActive     *bool
	Categories   []models.BudgetCategory
}

// BudgetServicer defines the contract for budget definitions.
type BudgetServicer interface {
	CreateBudget(ctx context.Context, userID string, in BudgetInput) (*models.Budget, error)
	GetUserBudgets(ctx context.Context, userID string, page pagination.PageRequest, filter repository.BudgetFilter) (*pagination.PageResponse[models.Budget], error)
	GetBudgetByID(ctx context.Context, userID, budgetID string) (*models.Budget, error)
	UpdateBudget(ctx context.Context, userID, budgetID string, in BudgetInput) (*models.Budget, error)
	DeleteBudget(ctx context.Context, userID, budgetID string) error
}

// BudgetVelocity is the pace of a period overall and per expense category.
type BudgetVelocity struct {
	BudgetID string `json:"budget_id"`
	velocity.Projection
	Categories []velocity.CategoryProjection `json:"categories"`
}

// HealthScoreResult is a health score with the period it describes.
type HealthScoreResult struct {
	BudgetID    string    `json:"budget_id"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
	health.Result
}

// SeasonalResult is the seasonal analysis of a budget's categories.
type SeasonalResult struct {
	BudgetID string `json:"budget_id"`
	seasonal.Result
}

// TrackingServicer computes read models of budgets. It never writes.
type TrackingServicer interface {
	GetSummary(ctx context.Context, userID, budgetID string, asOf time.Time) (*report.BudgetSummary, error)
	GetVelocity(ctx context.Context, userID, budgetID string, asOf time.Time) (*BudgetVelocity, error)
	GetHealthScore(ctx context.Context, userID, budgetID string, asOf time.Time) (*HealthScoreResult, error)
	GetSeasonalPatterns(ctx context.Context, userID, budgetID string, asOf time.Time) (*SeasonalResult, error)
	GetFlexGroups(ctx context.Context, userID, budgetID string, asOf time.Time) ([]rollover.FlexGroupStatus, error)
	GetTrends(ctx context.Context, userID, budgetID string, asOf time.Time, periods int) (*report.Trends, error)
	GetDashboard(ctx context.Context, userID string, asOf time.Time) ([]report.DashboardBudgetSummary, error)
	GenerateBudget(ctx context.Context, userID string, accountIDs []string, req generator.Request) (*generator.Response, error)
}

// CloseOutcome reports one period handled by CloseDuePeriods.
type CloseOutcome struct {
	BudgetID    string    `json:"budget_id"`
	PeriodStart time.Time `json:"period_start"`
	Error       string    `json:"error,omitempty"`
}

// CloseReport summarizes a CloseDuePeriods run.
type CloseReport struct {
	Closed []CloseOutcome `json:"closed"`
	Failed []CloseOutcome `json:"failed"`
}

// PeriodServicer defines the contract for closing periods.
type PeriodServicer interface {
	// ClosePeriod freezes the period starting at periodStart. Closing a
	// CLOSED period returns the stored rows unchanged.
	ClosePeriod(ctx context.Context, budgetID string, periodStart, asOf time.Time) (*models.BudgetPeriod, error)
	CloseDuePeriods(ctx context.Context, asOf time.Time) (*CloseReport, error)
}

// AlertServicer defines the contract for budget alerts.
type AlertServicer interface {
	// GenerateAlerts evaluates the period containing asOf and stores the
	// alerts that have no unread duplicate. An empty userID skips the
	// ownership check.
	GenerateAlerts(ctx context.Context, userID, budgetID string, asOf time.Time) ([]models.BudgetAlert, error)
	ListAlerts(ctx context.Context, userID, budgetID string, unreadOnly bool, page pagination.PageRequest) (*pagination.PageResponse[models.BudgetAlert], error)
	MarkRead(ctx context.Context, userID, alertID string) (*models.BudgetAlert, error)
	MarkEmailSent(ctx context.Context, alertID string) (*models.BudgetAlert, error)
}

// AuditServicer records budget edits. Recording never fails the caller.
type AuditServicer interface {
	Record(ctx context.Context, e AuditEntry)
}
