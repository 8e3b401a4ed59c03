package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"budgetpace/internal/aggregator"
	"budgetpace/internal/config"
	apperrors "budgetpace/internal/errors"
	"budgetpace/internal/generator"
	"budgetpace/internal/health"
	"budgetpace/internal/logger"
	"budgetpace/internal/models"
	"budgetpace/internal/pagination"
	"budgetpace/internal/period"
	"budgetpace/internal/report"
	"budgetpace/internal/repository"
	"budgetpace/internal/rollover"
	"budgetpace/internal/seasonal"
)

// healthHistory is how many earlier periods feed the health trend bonus.
const healthHistory = 3

// MaxTrendPeriods bounds GetTrends.
const MaxTrendPeriods = 36

// dashboardBudgets bounds how many active budgets the dashboard shows.
const dashboardBudgets = 50

// trackingService computes budget read models.
type trackingService struct {
	store repository.Store
	engine
}

// NewTrackingService creates a new TrackingServicer.
func NewTrackingService(store repository.Store, cfg config.EngineConfig) TrackingServicer {
	return &trackingService{store: store, engine: newEngine(cfg)}
}

func (s *trackingService) snapshot(ctx context.Context, userID, budgetID string, asOf time.Time, keep int) (*snapshot, error) {
	b, err := s.store.Budgets().GetBudget(ctx, userID, budgetID)
	if err != nil {
		return nil, err
	}
	r, err := period.ForBudget(b)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, s.store, b, targetIndex(b, r, asOf), keep)
}

// GetSummary returns the summary of the period containing asOf.
func (s *trackingService) GetSummary(ctx context.Context, userID, budgetID string, asOf time.Time) (*report.BudgetSummary, error) {
	snap, err := s.snapshot(ctx, userID, budgetID, asOf, 0)
	if err != nil {
		return nil, err
	}
	sum := snap.summarize(asOf)
	return &sum, nil
}

// GetVelocity projects the period containing asOf to its end.
func (s *trackingService) GetVelocity(ctx context.Context, userID, budgetID string, asOf time.Time) (*BudgetVelocity, error) {
	snap, err := s.snapshot(ctx, userID, budgetID, asOf, 0)
	if err != nil {
		return nil, err
	}
	sum := snap.summarize(asOf)

	overall, cats, err := s.project(ctx, s.store, &sum, snap.budget.UserID, asOf)
	if err != nil {
		return nil, err
	}
	return &BudgetVelocity{BudgetID: snap.budget.ID, Projection: overall, Categories: cats}, nil
}

// GetHealthScore scores the period containing asOf.
func (s *trackingService) GetHealthScore(ctx context.Context, userID, budgetID string, asOf time.Time) (*HealthScoreResult, error) {
	snap, err := s.snapshot(ctx, userID, budgetID, asOf, healthHistory)
	if err != nil {
		return nil, err
	}
	sum := snap.summarize(asOf)
	h := s.score(snap, &sum)
	return &HealthScoreResult{BudgetID: snap.budget.ID, PeriodStart: sum.PeriodStart, PeriodEnd: sum.PeriodEnd, Result: h}, nil
}

// score rates a summary of the snapshot's target using the views before it
// as trend history.
func (e engine) score(snap *snapshot, sum *report.BudgetSummary) health.Result {
	history := report.History(snap.budget, snap.views[:len(snap.views)-1])
	return health.Score(report.HealthInput(sum, history), e.cfg.Health)
}

// GetSeasonalPatterns analyzes monthly spend of the budget's categories
// over the configured lookback ending before the period containing asOf.
func (s *trackingService) GetSeasonalPatterns(ctx context.Context, userID, budgetID string, asOf time.Time) (*SeasonalResult, error) {
	b, err := s.store.Budgets().GetBudget(ctx, userID, budgetID)
	if err != nil {
		return nil, err
	}
	res, err := s.seasonality(ctx, s.store, b, asOf)
	if err != nil {
		return nil, err
	}
	return &SeasonalResult{BudgetID: b.ID, Result: res}, nil
}

// seasonality fetches the seasonal history of b and analyzes it.
func (e engine) seasonality(ctx context.Context, store repository.Store, b *models.Budget, asOf time.Time) (seasonal.Result, error) {
	current := period.MonthOrdinal(asOf)
	iv := period.Interval{
		Start: period.MonthStart(current - 12*e.cfg.Seasonal.LookbackYears),
		End:   period.MonthStart(current).AddDate(0, 0, -1),
	}

	var (
		txns []models.Transaction
		cats []models.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txns, err = store.Ledger().FetchTransactions(gctx, repository.ScopeFor(b), iv)
		return err
	})
	g.Go(func() error {
		var err error
		cats, err = store.Ledger().CategoryTree(gctx, b.UserID)
		return err
	})
	if err := g.Wait(); err != nil {
		return seasonal.Result{}, err
	}

	router := aggregator.NewRouter(b.Categories, aggregator.NewTree(cats))
	series := seasonal.Collect(router, aggregator.Flatten(txns))
	return seasonal.Analyze(series, e.cfg.Seasonal), nil
}

// GetFlexGroups returns the pooled status of every flex group.
func (s *trackingService) GetFlexGroups(ctx context.Context, userID, budgetID string, asOf time.Time) ([]rollover.FlexGroupStatus, error) {
	snap, err := s.snapshot(ctx, userID, budgetID, asOf, 0)
	if err != nil {
		return nil, err
	}
	groups := snap.current().FlexGroups
	if groups == nil {
		groups = []rollover.FlexGroupStatus{}
	}
	return groups, nil
}

// GetTrends returns up to periods periods of history ending with the one
// containing asOf.
func (s *trackingService) GetTrends(ctx context.Context, userID, budgetID string, asOf time.Time, periods int) (*report.Trends, error) {
	if periods < 1 || periods > MaxTrendPeriods {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("periods must be between 1 and %d", MaxTrendPeriods))
	}
	snap, err := s.snapshot(ctx, userID, budgetID, asOf, periods-1)
	if err != nil {
		return nil, err
	}

	views := snap.views
	if len(views) > periods {
		views = views[len(views)-periods:]
	}
	t := report.BuildTrends(snap.budget, views)
	return &t, nil
}

// GetDashboard condenses every active budget of the user.
func (s *trackingService) GetDashboard(ctx context.Context, userID string, asOf time.Time) ([]report.DashboardBudgetSummary, error) {
	active := true
	budgets, _, err := s.store.Budgets().ListBudgets(ctx, userID, repository.BudgetFilter{IsActive: &active}, pagination.PageRequest{Page: 1, PageSize: dashboardBudgets})
	if err != nil {
		return nil, err
	}

	out := make([]report.DashboardBudgetSummary, len(budgets))
	built := make([]bool, len(budgets))
	var g errgroup.Group
	g.SetLimit(4)
	for i := range budgets {
		b := &budgets[i]
		g.Go(func() error {
			d, err := s.dashboard(ctx, b, asOf)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				// One broken budget must not hide the others.
				logger.Get().Errorw("skipping dashboard entry", "error", err, "budget_id", b.ID)
				return nil
			}
			out[i], built[i] = d, true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	entries := out[:0]
	for i := range out {
		if built[i] {
			entries = append(entries, out[i])
		}
	}
	return entries, nil
}

func (s *trackingService) dashboard(ctx context.Context, b *models.Budget, asOf time.Time) (report.DashboardBudgetSummary, error) {
	r, err := period.ForBudget(b)
	if err != nil {
		return report.DashboardBudgetSummary{}, err
	}
	snap, err := s.load(ctx, s.store, b, targetIndex(b, r, asOf), healthHistory)
	if err != nil {
		return report.DashboardBudgetSummary{}, err
	}
	sum := snap.summarize(asOf)

	overall, _, err := s.project(ctx, s.store, &sum, b.UserID, asOf)
	if err != nil {
		return report.DashboardBudgetSummary{}, err
	}
	unread, err := s.store.Alerts().CountUnread(ctx, b.ID)
	if err != nil {
		return report.DashboardBudgetSummary{}, err
	}
	return report.Dashboard(&sum, overall, s.score(snap, &sum), unread), nil
}

// GenerateBudget suggests a budget from the user's ledger history.
func (s *trackingService) GenerateBudget(ctx context.Context, userID string, accountIDs []string, req generator.Request) (*generator.Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	scope := repository.AccountScope{UserID: userID, AccountIDs: accountIDs}

	var (
		txns     []models.Transaction
		cats     []models.Category
		earliest time.Time
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txns, err = s.store.Ledger().FetchTransactions(gctx, scope, req.Window())
		return err
	})
	g.Go(func() error {
		var err error
		cats, err = s.store.Ledger().CategoryTree(gctx, userID)
		return err
	})
	g.Go(func() error {
		first, ok, err := s.store.Ledger().EarliestTransaction(gctx, scope)
		if !ok {
			// No history at all: nothing in the window is available.
			first = req.AsOf
		}
		earliest = first
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return generator.Generate(ctx, aggregator.Flatten(txns), aggregator.NewTree(cats), earliest, req, s.cfg.Generator)
}
