// Package aggregator maps ledger transactions onto the categories of a
// budget for one period.
package aggregator

import (
	"strconv"
	"time"

	"budgetpace/internal/models"
	"budgetpace/internal/period"
)

// Line is one routable piece of a transaction. Split transactions produce one
// line per split. Transfer lines are normalized: Amount is the transferred
// magnitude and From/To name the two accounts.
type Line struct {
	Date       time.Time
	CategoryID string
	Amount     int64
	Transfer   bool
	From       string
	To         string
}

// Flatten turns transactions into lines. Transfer legs recorded on both
// accounts collapse into a single line. External transfers, with no counter
// account, become ordinary category lines.
func Flatten(txns []models.Transaction) []Line {
	lines := make([]Line, 0, len(txns))

	// Count outgoing legs so the matching incoming mirror can be dropped.
	debits := make(map[string]int)
	for i := range txns {
		tx := &txns[i]
		if tx.IsTransfer && tx.CounterAccountID != nil && tx.Amount < 0 {
			debits[transferKey(tx.AccountID, *tx.CounterAccountID, -tx.Amount, tx.Date)]++
		}
	}

	for i := range txns {
		tx := &txns[i]
		// A transfer without a counter account left the user's books and
		// is routed like any other line.
		if tx.IsTransfer && tx.CounterAccountID != nil {
			if tx.Amount == 0 {
				continue
			}
			l := Line{Date: period.Date(tx.Date), Transfer: true}
			if tx.Amount < 0 {
				l.From, l.To, l.Amount = tx.AccountID, *tx.CounterAccountID, -tx.Amount
			} else {
				l.From, l.To, l.Amount = *tx.CounterAccountID, tx.AccountID, tx.Amount
				key := transferKey(l.From, l.To, l.Amount, tx.Date)
				if debits[key] > 0 {
					debits[key]--
					continue
				}
			}
			lines = append(lines, l)
			continue
		}

		if len(tx.Splits) > 0 {
			for _, s := range tx.Splits {
				lines = append(lines, Line{Date: period.Date(tx.Date), CategoryID: deref(s.CategoryID), Amount: s.Amount})
			}
			continue
		}
		lines = append(lines, Line{Date: period.Date(tx.Date), CategoryID: deref(tx.CategoryID), Amount: tx.Amount})
	}
	return lines
}

func transferKey(from, to string, amount int64, date time.Time) string {
	return from + ">" + to + ":" + strconv.FormatInt(amount, 10) + "@" + period.Date(date).Format(time.DateOnly)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Kind classifies where a routed line lands.
type Kind int

const (
	KindIgnored Kind = iota
	KindSpend
	KindIncome
	KindTransfer
	KindUncategorized
)

// Routed is the outcome of routing one line. Index is the position in the
// budget's category slice, or -1. Amount is the line's contribution: spend
// is positive for outflows and negative for refunds.
type Routed struct {
	Kind   Kind
	Index  int
	Amount int64
}

// Router resolves lines to budget categories.
type Router struct {
	categories []models.BudgetCategory
	tree       *Tree
	byCategory map[string]int
	byAccount  map[string]int
	nearest    []int32
}

// NewRouter indexes categories for routing. tree may be nil, in which case
// only direct category matches are used.
func NewRouter(categories []models.BudgetCategory, tree *Tree) *Router {
	r := &Router{
		categories: categories,
		tree:       tree,
		byCategory: make(map[string]int),
		byAccount:  make(map[string]int),
	}
	for i := range categories {
		c := &categories[i]
		if c.IsTransfer && c.TransferAccountID != nil {
			r.byAccount[*c.TransferAccountID] = i
		} else if c.CategoryID != nil {
			r.byCategory[*c.CategoryID] = i
		}
	}
	if tree != nil {
		r.nearest = tree.nearest(func(i int32) bool {
			_, ok := r.byCategory[tree.ID(i)]
			return ok
		})
	}
	return r
}

// Categories returns the budget categories the router was built with.
func (r *Router) Categories() []models.BudgetCategory { return r.categories }

// budgetIndex finds the budget category covering ledger category id,
// walking up the tree to the nearest budgeted ancestor.
func (r *Router) budgetIndex(id string) (int, bool) {
	if id == "" {
		return -1, false
	}
	if i, ok := r.byCategory[id]; ok {
		return i, true
	}
	if ti, ok := r.tree.Lookup(id); ok {
		if n := r.nearest[ti]; n >= 0 {
			return r.byCategory[r.tree.ID(n)], true
		}
	}
	return -1, false
}

// Route classifies a single line.
func (r *Router) Route(l Line) Routed {
	if l.Transfer {
		// Destination leg first so a transfer between two tracked accounts
		// is counted once, against the receiving side.
		if i, ok := r.byAccount[l.To]; ok {
			return Routed{Kind: KindTransfer, Index: i, Amount: l.Amount}
		}
		if i, ok := r.byAccount[l.From]; ok {
			return Routed{Kind: KindTransfer, Index: i, Amount: -l.Amount}
		}
		return Routed{Kind: KindIgnored, Index: -1}
	}

	i, ok := r.budgetIndex(l.CategoryID)
	if ok && r.categories[i].IsIncome {
		return Routed{Kind: KindIncome, Index: i, Amount: l.Amount}
	}
	if ok {
		return Routed{Kind: KindSpend, Index: i, Amount: -l.Amount}
	}
	switch {
	case l.Amount == 0:
		return Routed{Kind: KindIgnored, Index: -1}
	case l.Amount > 0 && !isExpense(r.tree, l.CategoryID):
		return Routed{Kind: KindIncome, Index: -1, Amount: l.Amount}
	default:
		// Refunds on unbudgeted expense categories net against
		// uncategorized spend.
		return Routed{Kind: KindUncategorized, Index: -1, Amount: -l.Amount}
	}
}

// isExpense reports whether a ledger category holds spending. Inflows on
// such a category are refunds, not income.
func isExpense(tree *Tree, id string) bool {
	return id != "" && !tree.IsIncome(id)
}

// Result is the aggregate of one period.
type Result struct {
	// Actual holds the net amount per budget category, indexed like the
	// budget's categories. Income categories hold income received.
	Actual []int64
	// Uncategorized is spend not covered by any budget category.
	Uncategorized int64
	// Unbudgeted breaks Uncategorized down by ledger category id; "" holds
	// lines with no category at all.
	Unbudgeted map[string]int64
	// Income is every inflow routed as income.
	Income int64
	// TotalSpent is the sum of non-income category actuals plus
	// Uncategorized.
	TotalSpent int64
}

// Aggregate routes every line dated inside iv.
func (r *Router) Aggregate(lines []Line, iv period.Interval) Result {
	res := Result{
		Actual:     make([]int64, len(r.categories)),
		Unbudgeted: make(map[string]int64),
	}
	for _, l := range lines {
		if !iv.Contains(l.Date) {
			continue
		}
		rt := r.Route(l)
		switch rt.Kind {
		case KindSpend, KindTransfer:
			res.Actual[rt.Index] += rt.Amount
		case KindIncome:
			if rt.Index >= 0 {
				res.Actual[rt.Index] += rt.Amount
			}
			res.Income += rt.Amount
		case KindUncategorized:
			res.Uncategorized += rt.Amount
			res.Unbudgeted[l.CategoryID] += rt.Amount
		}
	}
	for i := range r.categories {
		if !r.categories[i].IsIncome {
			res.TotalSpent += res.Actual[i]
		}
	}
	res.TotalSpent += res.Uncategorized
	return res
}

// Aggregate is a convenience wrapper for a single pass.
func Aggregate(categories []models.BudgetCategory, tree *Tree, txns []models.Transaction, iv period.Interval) Result {
	return NewRouter(categories, tree).Aggregate(Flatten(txns), iv)
}

// Partition groups lines by the period interval they fall in. Lines outside
// every interval are dropped.
func Partition(lines []Line, ivs []period.Interval) [][]Line {
	out := make([][]Line, len(ivs))
	for _, l := range lines {
		for i, iv := range ivs {
			if iv.Contains(l.Date) {
				out[i] = append(out[i], l)
				break
			}
		}
	}
	return out
}

// HistoryKey classifies a line for budget-independent history analysis.
// Spend is keyed by ledger category ("" when uncategorized) and nets refunds
// booked to non-income categories. Transfers are keyed by destination
// account. Inflows to income categories or to no category are income.
func HistoryKey(tree *Tree, l Line) (key string, kind Kind, amount int64) {
	if l.Transfer {
		return l.To, KindTransfer, l.Amount
	}
	switch {
	case l.Amount == 0:
		return "", KindIgnored, 0
	case isExpense(tree, l.CategoryID):
		return l.CategoryID, KindSpend, -l.Amount
	case l.Amount > 0:
		return "", KindIncome, l.Amount
	default:
		return "", KindUncategorized, -l.Amount
	}
}
