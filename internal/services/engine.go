package services

import (
	"context"
	"time"

	"budgetpace/internal/aggregator"
	"budgetpace/internal/config"
	"budgetpace/internal/models"
	"budgetpace/internal/period"
	"budgetpace/internal/report"
	"budgetpace/internal/repository"
	"budgetpace/internal/tracker"
	"budgetpace/internal/velocity"
)

// engine loads the inputs of a budget computation and replays the rollover
// chain. It is shared by the tracking, period and alert services.
type engine struct {
	cfg config.EngineConfig
	now func() time.Time
}

func newEngine(cfg config.EngineConfig) engine {
	return engine{cfg: cfg, now: time.Now}
}

// snapshot is a budget with its replayed periods up to a target.
type snapshot struct {
	budget   *models.Budget
	resolver *period.Resolver
	tree     *aggregator.Tree
	// views are oldest first; the last one is the target period.
	views []tracker.View
}

func (s *snapshot) current() tracker.View { return s.views[len(s.views)-1] }

// previous returns the view before the target, if it was loaded.
func (s *snapshot) previous() (tracker.View, bool) {
	if len(s.views) < 2 {
		return tracker.View{}, false
	}
	return s.views[len(s.views)-2], true
}

// targetIndex returns the period index containing asOf, clamped to the
// budget's first and last periods.
func targetIndex(b *models.Budget, r *period.Resolver, asOf time.Time) int {
	idx := r.Index(asOf)
	if last, ok := lastIndex(b, r); ok && idx > last {
		idx = last
	}
	if idx < 0 {
		return 0
	}
	return idx
}

// lastIndex returns the index of the period containing the budget's end
// date. ok is false for open-ended budgets.
func lastIndex(b *models.Budget, r *period.Resolver) (int, bool) {
	if b.PeriodEnd == nil {
		return 0, false
	}
	return r.Index(*b.PeriodEnd), true
}

func hasClosed(stored []models.BudgetPeriod) bool {
	for _, p := range stored {
		if p.Status == models.PeriodClosed {
			return true
		}
	}
	return false
}

// load computes the period of b at index target. keep forces that many
// earlier periods into the result even when a CLOSED one ends the chain.
func (e engine) load(ctx context.Context, store repository.Store, b *models.Budget, target, keep int) (*snapshot, error) {
	r, err := period.ForBudget(b)
	if err != nil {
		return nil, err
	}

	lookback := e.cfg.Rollover.MaxLookbackPeriods
	from := target - lookback
	if keep > lookback {
		from = target - keep
	}
	if from < 0 {
		from = 0
	}

	// Sequential: store may be bound to a transaction, which serves one
	// query at a time.
	stored, err := store.Budgets().ListPeriods(ctx, b.ID, r.At(from).Start, r.At(target).Start)
	if err != nil {
		return nil, err
	}
	// Without a CLOSED row in the window the chain has to start at the
	// budget's first period, or the carry into the window is lost.
	if from > 0 && !hasClosed(stored) {
		if stored, err = store.Budgets().ListPeriods(ctx, b.ID, r.At(0).Start, r.At(target).Start); err != nil {
			return nil, err
		}
	}
	cats, err := store.Ledger().CategoryTree(ctx, b.UserID)
	if err != nil {
		return nil, err
	}

	plan := tracker.NewPlan(r, target, stored, keep)

	var lines []aggregator.Line
	if window, ok := plan.Window(); ok {
		txns, err := store.Ledger().FetchTransactions(ctx, repository.ScopeFor(b), window)
		if err != nil {
			return nil, err
		}
		lines = aggregator.Flatten(txns)
	}

	tree := aggregator.NewTree(cats)
	views := tracker.Run(plan, b, tree, lines)

	today := period.Date(e.now())
	for i := range views {
		if views[i].Status != models.PeriodClosed && views[i].Interval.Start.After(today) {
			views[i].Status = models.PeriodProjected
		}
	}

	return &snapshot{budget: b, resolver: r, tree: tree, views: views}, nil
}

// summarize builds the summary of the target period at asOf.
func (s *snapshot) summarize(asOf time.Time) report.BudgetSummary {
	return report.Summary(s.budget, s.current(), asOf, s.tree)
}

// project computes the period and per-category pace of a summary.
func (e engine) project(ctx context.Context, store repository.Store, s *report.BudgetSummary, userID string, asOf time.Time) (velocity.Projection, []velocity.CategoryProjection, error) {
	iv := period.Interval{Start: s.PeriodStart, End: s.PeriodEnd}
	rows, err := store.Ledger().FetchUpcomingBills(ctx, userID, iv)
	if err != nil {
		return velocity.Projection{}, nil, err
	}
	bills := velocity.BillsFrom(rows)

	overall := velocity.Project(iv, asOf, s.TotalSpent, s.TotalBudgeted, bills, e.cfg.Velocity)

	cats := make([]velocity.CategoryProjection, 0, len(s.CategoryBreakdown))
	for _, r := range s.CategoryBreakdown {
		if r.IsIncome || r.IsUncategorized {
			continue
		}
		var ledgerID string
		if r.CategoryID != nil {
			ledgerID = *r.CategoryID
		}
		cats = append(cats, velocity.ProjectCategory(iv, asOf, r.BudgetCategoryID, r.Name, ledgerID, r.Spent, r.EffectiveBudget, bills, e.cfg.Velocity))
	}
	return overall, cats, nil
}
