package report

import (
	"sort"
	"time"

	"budgetpace/internal/health"
	"budgetpace/internal/models"
	"budgetpace/internal/money"
	"budgetpace/internal/tracker"
	"budgetpace/internal/velocity"
)

// BudgetTrendPoint is one period of budgeted-versus-actual history.
type BudgetTrendPoint struct {
	PeriodStart time.Time           `json:"period_start"`
	PeriodEnd   time.Time           `json:"period_end"`
	Status      models.PeriodStatus `json:"status"`
	Budgeted    int64               `json:"budgeted"`
	Spent       int64               `json:"spent"`
	Income      int64               `json:"income"`
	PercentUsed float64             `json:"percent_used"`
	RolloverOut int64               `json:"rollover_out"`
}

// CategoryTrendPoint is one period of a category series.
type CategoryTrendPoint struct {
	PeriodStart     time.Time `json:"period_start"`
	Budgeted        int64     `json:"budgeted"`
	EffectiveBudget int64     `json:"effective_budget"`
	Spent           int64     `json:"spent"`
	PercentUsed     float64   `json:"percent_used"`
}

// CategoryTrendSeries is the history of one budget category. Periods in
// which the category did not exist are omitted.
type CategoryTrendSeries struct {
	BudgetCategoryID string               `json:"budget_category_id"`
	Name             string               `json:"name"`
	Points           []CategoryTrendPoint `json:"points"`
}

// Trends is the chartable history of a budget.
type Trends struct {
	Points     []BudgetTrendPoint    `json:"points"`
	Categories []CategoryTrendSeries `json:"categories"`
}

// BuildTrends converts views, oldest first, into trend series for the
// budget's current expense categories.
func BuildTrends(b *models.Budget, views []tracker.View) Trends {
	t := Trends{Points: make([]BudgetTrendPoint, 0, len(views)), Categories: []CategoryTrendSeries{}}
	for _, v := range views {
		p := BudgetTrendPoint{
			PeriodStart: v.Interval.Start,
			PeriodEnd:   v.Interval.End,
			Status:      v.Status,
			Budgeted:    v.Budgeted(b),
			Spent:       v.Spent(b),
			Income:      v.Income,
		}
		for _, st := range v.States {
			p.RolloverOut += st.RolloverOut
		}
		p.PercentUsed = money.Percent(p.Spent, p.Budgeted)
		t.Points = append(t.Points, p)
	}

	for _, c := range b.Categories {
		if c.IsIncome {
			continue
		}
		series := CategoryTrendSeries{BudgetCategoryID: c.ID, Name: c.Name, Points: []CategoryTrendPoint{}}
		for _, v := range views {
			st, ok := v.State(c.ID)
			if !ok {
				continue
			}
			series.Points = append(series.Points, CategoryTrendPoint{
				PeriodStart:     v.Interval.Start,
				Budgeted:        st.Budgeted,
				EffectiveBudget: st.Effective,
				Spent:           st.Actual,
				PercentUsed:     money.Percent(st.Actual, st.Effective),
			})
		}
		t.Categories = append(t.Categories, series)
	}
	return t
}

// History returns aggregate percent used of the closed views, oldest
// first, for the health trend bonus.
func History(b *models.Budget, views []tracker.View) []float64 {
	var out []float64
	for _, v := range views {
		if v.Status != models.PeriodClosed {
			continue
		}
		out = append(out, money.Percent(v.Spent(b), v.Budgeted(b)))
	}
	return out
}

// DashboardBudgetSummary is the condensed widget view of one budget.
type DashboardBudgetSummary struct {
	BudgetID       string              `json:"budget_id"`
	Name           string              `json:"name"`
	Currency       string              `json:"currency"`
	PeriodStart    time.Time           `json:"period_start"`
	PeriodEnd      time.Time           `json:"period_end"`
	TotalBudgeted  int64               `json:"total_budgeted"`
	TotalSpent     int64               `json:"total_spent"`
	PercentUsed    float64             `json:"percent_used"`
	DaysRemaining  int                 `json:"days_remaining"`
	SafeDailySpend float64             `json:"safe_daily_spend"`
	PaceStatus     velocity.PaceStatus `json:"pace_status"`
	HealthScore    int                 `json:"health_score"`
	HealthLabel    string              `json:"health_label"`
	OverBudget     []string            `json:"over_budget"`
	UnreadAlerts   int64               `json:"unread_alerts"`
}

// Dashboard condenses a summary with its projection and score.
func Dashboard(s *BudgetSummary, v velocity.Projection, h health.Result, unread int64) DashboardBudgetSummary {
	d := DashboardBudgetSummary{
		BudgetID:       s.BudgetID,
		Name:           s.Name,
		Currency:       s.Currency,
		PeriodStart:    s.PeriodStart,
		PeriodEnd:      s.PeriodEnd,
		TotalBudgeted:  s.TotalBudgeted,
		TotalSpent:     s.TotalSpent,
		PercentUsed:    s.PercentUsed,
		DaysRemaining:  s.DaysRemaining,
		SafeDailySpend: v.SafeDailySpend,
		PaceStatus:     v.PaceStatus,
		HealthScore:    h.Score,
		HealthLabel:    h.Label,
		OverBudget:     []string{},
		UnreadAlerts:   unread,
	}
	for _, r := range s.CategoryBreakdown {
		if !r.IsIncome && !r.IsUncategorized && r.Spent > r.EffectiveBudget {
			d.OverBudget = append(d.OverBudget, r.Name)
		}
	}
	return d
}

func sortUnbudgeted(rows []UnbudgetedSpend) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Spent != rows[j].Spent {
			return rows[i].Spent > rows[j].Spent
		}
		return rows[i].CategoryID < rows[j].CategoryID
	})
}
