// Package seasonal finds calendar months in which a category historically
// spends well above its typical month.
package seasonal

import (
	"sort"
	"time"

	"budgetpace/internal/aggregator"
	"budgetpace/internal/money"
	"budgetpace/internal/period"
)

// Params tunes spike detection.
type Params struct {
	// Threshold marks a month as high when its average exceeds
	// typical * Threshold.
	Threshold float64 `toml:"threshold"`
	MinYears  int     `toml:"min_years"`
	// LookbackYears bounds how much history the service fetches.
	LookbackYears int `toml:"lookback_years"`
	MaxIterations int `toml:"max_iterations"`
}

// DefaultParams returns the production defaults.
func DefaultParams() Params {
	return Params{Threshold: 1.5, MinYears: 2, LookbackYears: 3, MaxIterations: 12}
}

// Series is the monthly spend of one category keyed by month ordinal.
type Series struct {
	BudgetCategoryID string
	Name             string
	Monthly          map[int]int64
}

// Pattern is the seasonal profile of one category. MonthlyAverages is
// indexed by calendar month minus one; months never observed are nil.
type Pattern struct {
	BudgetCategoryID    string     `json:"budget_category_id"`
	Name                string     `json:"name"`
	MonthlyAverages     []*float64 `json:"monthly_averages"`
	TypicalMonthlySpend float64    `json:"typical_monthly_spend"`
	HighMonths          []int      `json:"high_months"`
	YearsObserved       int        `json:"years_observed"`
}

// IsHigh reports whether calendar month m is a high month.
func (p Pattern) IsHigh(m time.Month) bool {
	for _, h := range p.HighMonths {
		if h == int(m) {
			return true
		}
	}
	return false
}

// Result lists eligible patterns. Categories without enough history are
// left out and reported through InsufficientHistory and Omitted.
type Result struct {
	Patterns            []Pattern `json:"patterns"`
	InsufficientHistory bool      `json:"insufficient_history"`
	Omitted             []string  `json:"omitted,omitempty"`
}

// ByCategory returns the pattern for a budget category.
func (r Result) ByCategory(id string) (Pattern, bool) {
	for _, p := range r.Patterns {
		if p.BudgetCategoryID == id {
			return p, true
		}
	}
	return Pattern{}, false
}

// Collect buckets history lines into monthly spend per budget category.
// Only spend and transfer categories are collected.
func Collect(r *aggregator.Router, lines []aggregator.Line) []Series {
	cats := r.Categories()
	series := make([]Series, len(cats))
	for i := range cats {
		series[i] = Series{BudgetCategoryID: cats[i].ID, Name: cats[i].Name, Monthly: make(map[int]int64)}
	}
	for _, l := range lines {
		rt := r.Route(l)
		if rt.Kind != aggregator.KindSpend && rt.Kind != aggregator.KindTransfer {
			continue
		}
		series[rt.Index].Monthly[period.MonthOrdinal(l.Date)] += rt.Amount
	}
	out := series[:0]
	for i, s := range series {
		if !cats[i].IsIncome {
			out = append(out, s)
		}
	}
	return out
}

// Analyze computes a pattern for every series with at least MinYears
// distinct years of spend.
func Analyze(series []Series, p Params) Result {
	res := Result{Patterns: []Pattern{}}
	for _, s := range series {
		pat, ok := analyzeOne(s, p)
		if !ok {
			res.InsufficientHistory = true
			res.Omitted = append(res.Omitted, s.BudgetCategoryID)
			continue
		}
		res.Patterns = append(res.Patterns, pat)
	}
	return res
}

func analyzeOne(s Series, p Params) (Pattern, bool) {
	first, last := 0, 0
	years := make(map[int]bool)
	for m, v := range s.Monthly {
		if v <= 0 {
			continue
		}
		if len(years) == 0 || m < first {
			first = m
		}
		if len(years) == 0 || m > last {
			last = m
		}
		years[period.MonthStart(m).Year()] = true
	}
	if len(years) < p.MinYears {
		return Pattern{}, false
	}

	// Zero-fill every month inside the observed span.
	var sums [12]int64
	var counts [12]int
	for m := first; m <= last; m++ {
		cm := period.MonthStart(m).Month() - 1
		if v := s.Monthly[m]; v > 0 {
			sums[cm] += v
		}
		counts[cm]++
	}

	pat := Pattern{
		BudgetCategoryID: s.BudgetCategoryID,
		Name:             s.Name,
		MonthlyAverages:  make([]*float64, 12),
		HighMonths:       []int{},
		YearsObserved:    len(years),
	}
	var observed []int
	avgs := make([]float64, 12)
	for i := 0; i < 12; i++ {
		if counts[i] == 0 {
			continue
		}
		avg := money.Round2(float64(sums[i]) / float64(counts[i]))
		avgs[i] = avg
		pat.MonthlyAverages[i] = &avg
		observed = append(observed, i)
	}

	high := make(map[int]bool)
	typical := median(valuesOf(avgs, observed, high))
	for iter := 0; iter < p.MaxIterations; iter++ {
		next := make(map[int]bool)
		for _, i := range observed {
			if avgs[i] > typical*p.Threshold {
				next[i] = true
			}
		}
		nextTypical := median(valuesOf(avgs, observed, next))
		stable := len(next) == len(high) && nextTypical == typical
		high, typical = next, nextTypical
		if stable {
			break
		}
	}

	pat.TypicalMonthlySpend = money.Round2(typical)
	for _, i := range observed {
		if high[i] {
			pat.HighMonths = append(pat.HighMonths, i+1)
		}
	}
	return pat, true
}

func valuesOf(avgs []float64, observed []int, exclude map[int]bool) []float64 {
	out := make([]float64, 0, len(observed))
	for _, i := range observed {
		if !exclude[i] {
			out = append(out, avgs[i])
		}
	}
	return out
}

func median(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	s := append([]float64(nil), vs...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}
