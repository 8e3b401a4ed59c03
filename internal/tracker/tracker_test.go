package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetpace/internal/aggregator"
	"budgetpace/internal/models"
	"budgetpace/internal/period"
)

func strp(s string) *string { return &s }

func date(m time.Month, d int) time.Time { return time.Date(2026, m, d, 0, 0, 0, 0, time.UTC) }

func groceryBudget() *models.Budget {
	return &models.Budget{
		Base:        models.Base{ID: "b1"},
		BudgetType:  models.BudgetTypeMonthly,
		PeriodStart: date(1, 1),
		Strategy:    models.StrategyRollover,
		Categories: []models.BudgetCategory{
			{Base: models.Base{ID: "groceries"}, CategoryID: strp("food"), Name: "Groceries", Amount: 50000, RolloverType: models.RolloverMonthly},
			{Base: models.Base{ID: "salary"}, CategoryID: strp("pay"), Name: "Salary", Amount: 400000, IsIncome: true},
		},
	}
}

func history() []aggregator.Line {
	return []aggregator.Line{
		{Date: date(1, 5), CategoryID: "food", Amount: -42000},
		{Date: date(1, 6), CategoryID: "pay", Amount: 400000},
		{Date: date(1, 9), CategoryID: "", Amount: -3000},
		{Date: date(2, 3), CategoryID: "food", Amount: -10000},
	}
}

func resolver(t *testing.T, b *models.Budget) *period.Resolver {
	t.Helper()
	r, err := period.ForBudget(b)
	require.NoError(t, err)
	return r
}

func TestRunCarriesRolloverForward(t *testing.T) {
	b := groceryBudget()
	r := resolver(t, b)

	plan := NewPlan(r, 1, nil, 0)
	require.Len(t, plan.Steps, 2)
	win, ok := plan.Window()
	require.True(t, ok)
	assert.Equal(t, date(1, 1), win.Start)
	assert.Equal(t, date(2, 28), win.End)

	views := Run(plan, b, nil, history())
	require.Len(t, views, 2)

	jan, feb := views[0], views[1]
	st, _ := jan.State("groceries")
	assert.Equal(t, int64(8000), st.RolloverOut)
	assert.Equal(t, int64(400000), jan.Income)
	assert.Equal(t, int64(3000), jan.Uncategorized)
	assert.Equal(t, int64(45000), jan.Spent(b))

	st, _ = feb.State("groceries")
	assert.Equal(t, int64(8000), st.RolloverIn)
	assert.Equal(t, int64(58000), st.Effective)
	assert.Equal(t, int64(58000), feb.Budgeted(b))
}

func TestRunUsesClosedPeriodAsRecorded(t *testing.T) {
	b := groceryBudget()
	r := resolver(t, b)
	closedAt := date(2, 1)
	stored := []models.BudgetPeriod{{
		BudgetID:    "b1",
		PeriodStart: date(1, 1),
		PeriodEnd:   date(1, 31),
		Status:      models.PeriodClosed,
		ClosedAt:    &closedAt,
		Categories: []models.BudgetPeriodCategory{
			{BudgetCategoryID: "groceries", BudgetedAmount: 50000, ActualAmount: 41000, EffectiveBudget: 50000, RolloverOut: 9000},
		},
	}}

	plan := NewPlan(r, 1, stored, 0)
	require.Len(t, plan.Steps, 2)
	assert.NotNil(t, plan.Steps[0].Stored)
	win, _ := plan.Window()
	assert.Equal(t, date(2, 1), win.Start, "closed periods are not refetched")

	views := Run(plan, b, nil, history())
	st, _ := views[1].State("groceries")
	assert.Equal(t, int64(9000), st.RolloverIn)
	assert.Equal(t, models.PeriodClosed, views[0].Status)
}

func TestNewPlanBounds(t *testing.T) {
	b := groceryBudget()
	r := resolver(t, b)

	plan := NewPlan(r, 5, nil, 0)
	require.Len(t, plan.Steps, 6, "an unanchored chain starts at the first period")
	assert.Equal(t, 0, plan.Steps[0].Index)

	plan = NewPlan(r, 0, nil, 3)
	assert.Len(t, plan.Steps, 1, "nothing precedes the first period")

	stored := []models.BudgetPeriod{
		{PeriodStart: date(3, 1), Status: models.PeriodClosed},
		{PeriodStart: date(2, 1), Status: models.PeriodOpen},
	}
	plan = NewPlan(r, 3, stored, 0)
	require.Len(t, plan.Steps, 2)
	assert.Equal(t, 2, plan.Steps[0].Index)

	plan = NewPlan(r, 3, stored, 3)
	assert.Len(t, plan.Steps, 4, "keep extends past the closed period")

	plan = NewPlan(r, 2, stored, 0)
	assert.Len(t, plan.Steps, 1, "a closed target needs no history")
	_, ok := plan.Window()
	assert.False(t, ok)
}

func TestRunConservesRolloverOverLongChains(t *testing.T) {
	b := groceryBudget()
	r := resolver(t, b)

	var lines []aggregator.Line
	for m := 0; m < 15; m++ {
		lines = append(lines, aggregator.Line{Date: time.Date(2026, time.Month(1+m), 5, 0, 0, 0, 0, time.UTC), CategoryID: "food", Amount: -40000})
	}

	views := Run(NewPlan(r, 14, nil, 0), b, nil, lines)
	require.Len(t, views, 15)
	for i := 1; i < len(views); i++ {
		prev, _ := views[i-1].State("groceries")
		cur, _ := views[i].State("groceries")
		assert.Equal(t, prev.RolloverOut, cur.RolloverIn, "period %d", i)
	}
	last, _ := views[14].State("groceries")
	assert.Equal(t, int64(140000), last.RolloverIn)
}

func TestRecordRoundTrip(t *testing.T) {
	b := groceryBudget()
	r := resolver(t, b)
	views := Run(NewPlan(r, 0, nil, 0), b, nil, history())
	jan := views[0]

	rec := jan.Record(b, date(2, 1))
	assert.Equal(t, models.PeriodClosed, rec.Status)
	assert.Equal(t, int64(45000), rec.ActualExpenses)
	assert.Equal(t, int64(400000), rec.ActualIncome)
	assert.Equal(t, int64(50000), rec.TotalBudgeted)
	require.Len(t, rec.Categories, 2)

	back := FromRecord(b, 0, rec)
	assert.Equal(t, jan.States, back.States)
	assert.Equal(t, jan.Uncategorized, back.Uncategorized)
	assert.Equal(t, jan.Spent(b), back.Spent(b))
}

func TestFromRecordKeepsRemovedCategories(t *testing.T) {
	b := groceryBudget()
	rec := &models.BudgetPeriod{
		PeriodStart:    date(1, 1),
		PeriodEnd:      date(1, 31),
		Status:         models.PeriodClosed,
		ActualExpenses: 7000,
		Categories: []models.BudgetPeriodCategory{
			{BudgetCategoryID: "gone", BudgetedAmount: 5000, ActualAmount: 6000, EffectiveBudget: 5000},
			{BudgetCategoryID: "groceries", BudgetedAmount: 50000, ActualAmount: 1000, EffectiveBudget: 50000},
		},
	}
	v := FromRecord(b, 0, rec)
	require.Len(t, v.States, 2)
	assert.Equal(t, "groceries", v.States[0].BudgetCategoryID)
	assert.Equal(t, "gone", v.States[1].BudgetCategoryID)
	assert.Equal(t, int64(1000), v.States[1].Overspend)
	assert.Equal(t, int64(0), v.Uncategorized)
}

func TestStoredFlexGroups(t *testing.T) {
	b := groceryBudget()
	fun := "fun"
	b.Categories = append(b.Categories,
		models.BudgetCategory{Base: models.Base{ID: "games"}, CategoryID: strp("g"), Amount: 200, FlexGroup: &fun},
		models.BudgetCategory{Base: models.Base{ID: "films"}, CategoryID: strp("f"), Amount: 100, FlexGroup: &fun},
	)
	rec := &models.BudgetPeriod{
		PeriodStart: date(1, 1),
		PeriodEnd:   date(1, 31),
		Categories: []models.BudgetPeriodCategory{
			{BudgetCategoryID: "games", BudgetedAmount: 200, ActualAmount: 250, EffectiveBudget: 200},
			{BudgetCategoryID: "films", BudgetedAmount: 100, ActualAmount: 20, EffectiveBudget: 100},
		},
	}
	v := FromRecord(b, 0, rec)
	require.Len(t, v.FlexGroups, 1)
	g := v.FlexGroups[0]
	assert.Equal(t, int64(300), g.Effective)
	assert.Equal(t, int64(270), g.Spent)
	assert.Equal(t, int64(30), g.Remaining)
	assert.Equal(t, 90.0, g.PercentUsed)
}
