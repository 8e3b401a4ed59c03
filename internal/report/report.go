// Package report shapes computed periods into the read models served to
// clients: summaries, trend series and dashboard widgets.
package report

import (
	"time"

	"budgetpace/internal/aggregator"
	"budgetpace/internal/health"
	"budgetpace/internal/models"
	"budgetpace/internal/money"
	"budgetpace/internal/rollover"
	"budgetpace/internal/tracker"
	"budgetpace/internal/velocity"
)

// UncategorizedName labels the breakdown row for spend outside every
// budget category.
const UncategorizedName = "Uncategorized"

// CategoryBreakdown is one row of a summary.
type CategoryBreakdown struct {
	BudgetCategoryID  string                `json:"budget_category_id,omitempty"`
	CategoryID        *string               `json:"category_id,omitempty"`
	TransferAccountID *string               `json:"transfer_account_id,omitempty"`
	Name              string                `json:"name"`
	IsIncome          bool                  `json:"is_income"`
	IsTransfer        bool                  `json:"is_transfer"`
	IsUncategorized   bool                  `json:"is_uncategorized"`
	CategoryGroup     *models.CategoryGroup `json:"category_group,omitempty"`
	FlexGroup         *string               `json:"flex_group,omitempty"`
	RolloverType      models.RolloverType   `json:"rollover_type,omitempty"`
	Budgeted          int64                 `json:"budgeted"`
	RolloverIn        int64                 `json:"rollover_in"`
	EffectiveBudget   int64                 `json:"effective_budget"`
	Spent             int64                 `json:"spent"`
	Remaining         int64                 `json:"remaining"`
	PercentUsed       float64               `json:"percent_used"`
	RolloverOut       int64                 `json:"rollover_out"`
	Overspend         int64                 `json:"overspend"`
}

// UnbudgetedSpend is uncategorized spend attributed to a ledger category.
type UnbudgetedSpend struct {
	CategoryID string `json:"category_id,omitempty"`
	Name       string `json:"name"`
	Spent      int64  `json:"spent"`
}

// BudgetSummary is the state of one period of a budget.
type BudgetSummary struct {
	BudgetID           string                     `json:"budget_id"`
	Name               string                     `json:"name"`
	BudgetType         models.BudgetType          `json:"budget_type"`
	Strategy           models.BudgetStrategy      `json:"strategy"`
	Currency           string                     `json:"currency"`
	PeriodStart        time.Time                  `json:"period_start"`
	PeriodEnd          time.Time                  `json:"period_end"`
	Status             models.PeriodStatus        `json:"status"`
	TotalDays          int                        `json:"total_days"`
	DaysElapsed        int                        `json:"days_elapsed"`
	DaysRemaining      int                        `json:"days_remaining"`
	BaseIncome         int64                      `json:"base_income"`
	ActualIncome       int64                      `json:"actual_income"`
	EffectiveIncome    int64                      `json:"effective_income"`
	TotalBudgeted      int64                      `json:"total_budgeted"`
	TotalRolloverIn    int64                      `json:"total_rollover_in"`
	TotalSpent         int64                      `json:"total_spent"`
	TotalRemaining     int64                      `json:"total_remaining"`
	PercentUsed        float64                    `json:"percent_used"`
	UncategorizedSpent int64                      `json:"uncategorized_spent"`
	UnallocatedIncome  *int64                     `json:"unallocated_income,omitempty"`
	CategoryBreakdown  []CategoryBreakdown        `json:"category_breakdown"`
	Unbudgeted         []UnbudgetedSpend          `json:"unbudgeted,omitempty"`
	FlexGroups         []rollover.FlexGroupStatus `json:"flex_groups"`
}

// ExpenseRows returns the breakdown rows that count toward TotalSpent,
// including the uncategorized row.
func (s *BudgetSummary) ExpenseRows() []CategoryBreakdown {
	var out []CategoryBreakdown
	for _, r := range s.CategoryBreakdown {
		if !r.IsIncome {
			out = append(out, r)
		}
	}
	return out
}

// Summary builds the summary of view. asOf positions the day counters;
// tree names unbudgeted ledger categories and may be nil.
func Summary(b *models.Budget, v tracker.View, asOf time.Time, tree *aggregator.Tree) BudgetSummary {
	elapsed, remaining, total := velocity.Elapsed(v.Interval, asOf)
	s := BudgetSummary{
		BudgetID:           b.ID,
		Name:               b.Name,
		BudgetType:         b.BudgetType,
		Strategy:           b.Strategy,
		Currency:           b.Currency,
		PeriodStart:        v.Interval.Start,
		PeriodEnd:          v.Interval.End,
		Status:             v.Status,
		TotalDays:          total,
		DaysElapsed:        elapsed,
		DaysRemaining:      remaining,
		BaseIncome:         b.BaseIncome,
		ActualIncome:       v.Income,
		EffectiveIncome:    b.BaseIncome,
		UncategorizedSpent: v.Uncategorized,
		CategoryBreakdown:  make([]CategoryBreakdown, 0, len(v.States)+1),
		FlexGroups:         v.FlexGroups,
	}
	if b.IncomeLinked {
		s.EffectiveIncome = v.Income
	}
	if s.FlexGroups == nil {
		s.FlexGroups = []rollover.FlexGroupStatus{}
	}

	for _, st := range v.States {
		row := CategoryBreakdown{
			BudgetCategoryID: st.BudgetCategoryID,
			Budgeted:         st.Budgeted,
			RolloverIn:       st.RolloverIn,
			EffectiveBudget:  st.Effective,
			Spent:            st.Actual,
			Remaining:        st.Effective - st.Actual,
			PercentUsed:      money.Percent(st.Actual, st.Effective),
			RolloverOut:      st.RolloverOut,
			Overspend:        st.Overspend,
		}
		if c, ok := b.CategoryByID(st.BudgetCategoryID); ok {
			row.CategoryID = c.CategoryID
			row.TransferAccountID = c.TransferAccountID
			row.Name = c.Name
			row.IsIncome = c.IsIncome
			row.IsTransfer = c.IsTransfer
			row.CategoryGroup = c.CategoryGroup
			row.FlexGroup = c.FlexGroup
			row.RolloverType = c.Rollover()
		}
		s.CategoryBreakdown = append(s.CategoryBreakdown, row)
		if row.IsIncome {
			continue
		}
		s.TotalBudgeted += st.Effective
		s.TotalRolloverIn += st.RolloverIn
		s.TotalSpent += st.Actual
	}

	s.CategoryBreakdown = append(s.CategoryBreakdown, CategoryBreakdown{
		Name:            UncategorizedName,
		IsUncategorized: true,
		Spent:           v.Uncategorized,
		Remaining:       -v.Uncategorized,
		PercentUsed:     money.Percent(v.Uncategorized, 0),
	})
	s.TotalSpent += v.Uncategorized
	s.TotalRemaining = s.TotalBudgeted - s.TotalSpent
	s.PercentUsed = money.Percent(s.TotalSpent, s.TotalBudgeted)

	for id, amt := range v.Unbudgeted {
		if amt == 0 {
			continue
		}
		name := tree.Name(id)
		if id == "" || name == "" {
			name = UncategorizedName
		}
		s.Unbudgeted = append(s.Unbudgeted, UnbudgetedSpend{CategoryID: id, Name: name, Spent: amt})
	}
	sortUnbudgeted(s.Unbudgeted)

	if b.Strategy == models.StrategyZeroBased {
		left := s.EffectiveIncome - s.TotalBudgeted
		s.UnallocatedIncome = &left
	}
	return s
}

// HealthInput derives scorer input from a summary's expense rows.
func HealthInput(s *BudgetSummary, history []float64) health.Input {
	in := health.Input{History: history}
	if s.TotalDays > 0 {
		in.PaceFraction = float64(s.DaysElapsed) / float64(s.TotalDays)
	}
	for _, r := range s.CategoryBreakdown {
		if r.IsIncome || r.IsUncategorized {
			continue
		}
		var g models.CategoryGroup
		if r.CategoryGroup != nil {
			g = *r.CategoryGroup
		}
		in.Categories = append(in.Categories, health.CategoryInput{
			BudgetCategoryID: r.BudgetCategoryID,
			Name:             r.Name,
			Group:            g,
			Spent:            r.Spent,
			Budgeted:         r.EffectiveBudget,
		})
	}
	return in
}
