// Package rollover computes per-category carry-forward between budget
// periods, including flex-group pooling.
package rollover

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"budgetpace/internal/models"
	"budgetpace/internal/money"
	"budgetpace/internal/period"
)

// Params tunes the rollover chain walk and close retries.
type Params struct {
	// MaxLookbackPeriods is how far back a CLOSED anchor is searched
	// before the chain falls back to the budget start.
	MaxLookbackPeriods int `toml:"max_lookback_periods"`
	CloseRetries       int `toml:"close_retries"`
}

// DefaultParams returns the production defaults.
func DefaultParams() Params {
	return Params{MaxLookbackPeriods: 12, CloseRetries: 1}
}

// Prior is the carry-forward state of the previous period.
type Prior struct {
	Start time.Time
	// Out maps budget category id to that period's rollover out.
	Out map[string]int64
}

// Input describes one period to compute.
type Input struct {
	Strategy         models.BudgetStrategy
	Categories       []models.BudgetCategory
	Actual           []int64
	Start            time.Time
	FiscalStartMonth int
	Prior            *Prior
}

// CategoryState is the computed rollover state of one budget category.
type CategoryState struct {
	BudgetCategoryID string `json:"budget_category_id"`
	Budgeted         int64  `json:"budgeted"`
	RolloverIn       int64  `json:"rollover_in"`
	Actual           int64  `json:"actual"`
	Effective        int64  `json:"effective"`
	RolloverOut      int64  `json:"rollover_out"`
	Overspend        int64  `json:"overspend"`
}

// FlexGroupStatus is the pooled view of a flex group.
type FlexGroupStatus struct {
	Name         string   `json:"name"`
	CategoryIDs  []string `json:"category_ids"`
	Budgeted     int64    `json:"budgeted"`
	Effective    int64    `json:"effective"`
	Spent        int64    `json:"spent"`
	Remaining    int64    `json:"remaining"`
	PercentUsed  float64  `json:"percent_used"`
	Overspent    bool     `json:"overspent"`
	PoolRollover int64    `json:"pool_rollover"`
}

// Output holds one state per input category, in input order.
type Output struct {
	Categories []CategoryState
	FlexGroups []FlexGroupStatus
}

// TotalOut returns the sum of all rollover out.
func (o Output) TotalOut() int64 {
	var total int64
	for _, c := range o.Categories {
		total += c.RolloverOut
	}
	return total
}

// OutByID returns rollover out keyed by budget category id.
func (o Output) OutByID() map[string]int64 {
	out := make(map[string]int64, len(o.Categories))
	for _, c := range o.Categories {
		out[c.BudgetCategoryID] = c.RolloverOut
	}
	return out
}

// In returns the carry-forward a category receives at start given the
// previous period's rollover out. QUARTERLY and ANNUAL policies reset when
// the fiscal quarter or year changes between the two period starts.
func In(policy models.RolloverType, prior *Prior, id string, start time.Time, fiscalStart int) int64 {
	if prior == nil || prior.Out == nil {
		return 0
	}
	out := prior.Out[id]
	switch policy {
	case models.RolloverMonthly:
		return out
	case models.RolloverQuarterly:
		if period.SameFiscalQuarter(prior.Start, start, fiscalStart) {
			return out
		}
	case models.RolloverAnnual:
		if period.SameFiscalYear(prior.Start, start, fiscalStart) {
			return out
		}
	}
	return 0
}

// Out applies a category's own policy to a leftover amount.
func Out(c *models.BudgetCategory, leftover int64) int64 {
	if c.Rollover() == models.RolloverNone || leftover <= 0 {
		return 0
	}
	if c.RolloverCap != nil && leftover > *c.RolloverCap {
		return *c.RolloverCap
	}
	return leftover
}

// Compute derives every category's rollover state for one period.
func Compute(in Input) Output {
	states := make([]CategoryState, len(in.Categories))
	groups := make(map[string][]int)
	var order []string

	for i := range in.Categories {
		c := &in.Categories[i]
		var actual int64
		if i < len(in.Actual) {
			actual = in.Actual[i]
		}
		st := CategoryState{BudgetCategoryID: c.ID, Budgeted: c.Amount, Actual: actual}
		if !c.IsIncome {
			st.RolloverIn = In(c.Rollover(), in.Prior, c.ID, in.Start, in.FiscalStartMonth)
		}
		st.Effective = st.Budgeted + st.RolloverIn
		if !c.IsIncome && actual > st.Effective {
			st.Overspend = actual - st.Effective
		}
		states[i] = st

		if c.IsIncome {
			continue
		}
		if g := c.Flex(); g != "" {
			if _, seen := groups[g]; !seen {
				order = append(order, g)
			}
			groups[g] = append(groups[g], i)
			continue
		}
		states[i].RolloverOut = Out(c, st.Effective-st.Actual)
	}

	out := Output{Categories: states}
	for _, name := range order {
		out.FlexGroups = append(out.FlexGroups, reconcile(in, states, name, groups[name]))
	}
	return out
}

// reconcile pools a flex group. ZERO_BASED budgets net member overspend
// against siblings; other strategies pool each member's own leftover. The
// pool is split by remaining share with largest-remainder rounding, then
// each member's policy decides what it keeps.
func reconcile(in Input, states []CategoryState, name string, members []int) FlexGroupStatus {
	status := FlexGroupStatus{Name: name}
	remaining := make([]int64, len(members))
	var sumRemaining int64

	for k, i := range members {
		st := &states[i]
		status.CategoryIDs = append(status.CategoryIDs, st.BudgetCategoryID)
		status.Budgeted += st.Budgeted
		status.Effective += st.Effective
		status.Spent += st.Actual
		if left := st.Effective - st.Actual; left > 0 {
			remaining[k] = left
			sumRemaining += left
		}
	}

	pool := sumRemaining
	if in.Strategy == models.StrategyZeroBased {
		pool = status.Effective - status.Spent
		if pool < 0 {
			pool = 0
		}
	}

	status.Remaining = status.Effective - status.Spent
	status.Overspent = status.Spent > status.Effective
	status.PercentUsed = money.Percent(status.Spent, status.Effective)

	shares := apportion(pool, remaining, sumRemaining)
	for k, i := range members {
		states[i].RolloverOut = Out(&in.Categories[i], shares[k])
		status.PoolRollover += states[i].RolloverOut
	}
	return status
}

// apportion splits amount by weights using largest-remainder rounding so
// the shares sum exactly to amount.
func apportion(amount int64, weights []int64, total int64) []int64 {
	shares := make([]int64, len(weights))
	if amount <= 0 || total <= 0 {
		return shares
	}

	type frac struct {
		k   int
		rem decimal.Decimal
	}
	fracs := make([]frac, len(weights))
	var assigned int64
	for k, w := range weights {
		share, rem := money.Share(amount, w, total)
		shares[k] = share
		assigned += share
		fracs[k] = frac{k: k, rem: rem}
	}

	sort.SliceStable(fracs, func(a, b int) bool {
		return fracs[a].rem.GreaterThan(fracs[b].rem)
	})
	for j := 0; assigned < amount && j < len(fracs); j++ {
		if weights[fracs[j].k] == 0 {
			continue
		}
		shares[fracs[j].k]++
		assigned++
	}
	return shares
}
