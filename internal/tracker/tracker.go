// Package tracker derives the state of a budget period from the ledger and
// the stored period history. Rollover depends on every earlier period, so a
// period is computed by walking back to the most recent CLOSED period (or
// the budget start) and replaying forward.
package tracker

import (
	"time"

	"budgetpace/internal/models"
	"budgetpace/internal/period"
	"budgetpace/internal/rollover"
)

// View is the computed or stored state of one period. States follows the
// order of the budget's categories for computed views; stored views keep
// rows for categories that were removed since the period closed.
type View struct {
	Index         int
	Interval      period.Interval
	Status        models.PeriodStatus
	States        []rollover.CategoryState
	FlexGroups    []rollover.FlexGroupStatus
	Income        int64
	Uncategorized int64
	// Unbudgeted breaks Uncategorized down by ledger category. Stored views
	// only know the total.
	Unbudgeted map[string]int64
	ClosedAt   *time.Time
}

// Spent is expense spend: non-income category actuals plus uncategorized.
func (v View) Spent(b *models.Budget) int64 {
	total := v.Uncategorized
	for _, st := range v.States {
		if c, ok := b.CategoryByID(st.BudgetCategoryID); ok && c.IsIncome {
			continue
		}
		total += st.Actual
	}
	return total
}

// Budgeted is total effective budget of non-income categories.
func (v View) Budgeted(b *models.Budget) int64 {
	var total int64
	for _, st := range v.States {
		if c, ok := b.CategoryByID(st.BudgetCategoryID); ok && c.IsIncome {
			continue
		}
		total += st.Effective
	}
	return total
}

// State returns the state of a budget category.
func (v View) State(id string) (rollover.CategoryState, bool) {
	for _, st := range v.States {
		if st.BudgetCategoryID == id {
			return st, true
		}
	}
	return rollover.CategoryState{}, false
}

// Prior returns the carry-forward this period hands to the next.
func (v View) Prior() *rollover.Prior {
	out := make(map[string]int64, len(v.States))
	for _, st := range v.States {
		out[st.BudgetCategoryID] = st.RolloverOut
	}
	return &rollover.Prior{Start: v.Interval.Start, Out: out}
}

// Record converts a view into rows ready to persist as a CLOSED period.
func (v View) Record(b *models.Budget, closedAt time.Time) *models.BudgetPeriod {
	rec := &models.BudgetPeriod{
		BudgetID:       b.ID,
		PeriodStart:    v.Interval.Start,
		PeriodEnd:      v.Interval.End,
		ActualIncome:   v.Income,
		ActualExpenses: v.Spent(b),
		TotalBudgeted:  v.Budgeted(b),
		Status:         models.PeriodClosed,
		ClosedAt:       &closedAt,
	}
	for _, st := range v.States {
		rec.Categories = append(rec.Categories, models.BudgetPeriodCategory{
			BudgetCategoryID: st.BudgetCategoryID,
			BudgetedAmount:   st.Budgeted,
			RolloverIn:       st.RolloverIn,
			ActualAmount:     st.Actual,
			EffectiveBudget:  st.Effective,
			RolloverOut:      st.RolloverOut,
		})
	}
	return rec
}

// FromRecord rebuilds the view of a stored period without recomputing it.
func FromRecord(b *models.Budget, index int, rec *models.BudgetPeriod) View {
	v := View{
		Index:      index,
		Interval:   period.Interval{Start: period.Date(rec.PeriodStart), End: period.Date(rec.PeriodEnd)},
		Status:     rec.Status,
		Income:     rec.ActualIncome,
		Unbudgeted: map[string]int64{},
		ClosedAt:   rec.ClosedAt,
	}

	rows := make(map[string]models.BudgetPeriodCategory, len(rec.Categories))
	for _, r := range rec.Categories {
		rows[r.BudgetCategoryID] = r
	}
	add := func(r models.BudgetPeriodCategory) {
		st := rollover.CategoryState{
			BudgetCategoryID: r.BudgetCategoryID,
			Budgeted:         r.BudgetedAmount,
			RolloverIn:       r.RolloverIn,
			Actual:           r.ActualAmount,
			Effective:        r.EffectiveBudget,
			RolloverOut:      r.RolloverOut,
		}
		if c, ok := b.CategoryByID(r.BudgetCategoryID); (!ok || !c.IsIncome) && st.Actual > st.Effective {
			st.Overspend = st.Actual - st.Effective
		}
		v.States = append(v.States, st)
	}
	for _, c := range b.Categories {
		if r, ok := rows[c.ID]; ok {
			add(r)
			delete(rows, c.ID)
		}
	}
	for _, r := range rec.Categories {
		if _, ok := rows[r.BudgetCategoryID]; ok {
			add(r)
		}
	}

	var categorized int64
	for _, st := range v.States {
		if c, ok := b.CategoryByID(st.BudgetCategoryID); ok && c.IsIncome {
			continue
		}
		categorized += st.Actual
	}
	v.Uncategorized = rec.ActualExpenses - categorized
	v.FlexGroups = flexGroups(b, v.States)
	return v
}

// flexGroups summarizes pools of a stored view.
func flexGroups(b *models.Budget, states []rollover.CategoryState) []rollover.FlexGroupStatus {
	var out []rollover.FlexGroupStatus
	pos := make(map[string]int)
	for _, st := range states {
		c, ok := b.CategoryByID(st.BudgetCategoryID)
		if !ok || c.IsIncome || c.Flex() == "" {
			continue
		}
		i, seen := pos[c.Flex()]
		if !seen {
			i = len(out)
			pos[c.Flex()] = i
			out = append(out, rollover.FlexGroupStatus{Name: c.Flex()})
		}
		g := &out[i]
		g.CategoryIDs = append(g.CategoryIDs, st.BudgetCategoryID)
		g.Budgeted += st.Budgeted
		g.Effective += st.Effective
		g.Spent += st.Actual
		g.PoolRollover += st.RolloverOut
	}
	for i := range out {
		finishGroup(&out[i])
	}
	return out
}
