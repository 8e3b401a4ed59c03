package generator

import (
	"math"
	"sort"

	"budgetpace/internal/money"
)

// Stats is the statistical summary of one monthly spend series. Money
// fields are minor units.
type Stats struct {
	Average        float64 `json:"average"`
	Median         float64 `json:"median"`
	P25            float64 `json:"p25"`
	P75            float64 `json:"p75"`
	Min            int64   `json:"min"`
	Max            int64   `json:"max"`
	StdDev         float64 `json:"std_dev"`
	Monthly        []int64 `json:"monthly"`
	Occurrences    int     `json:"occurrences"`
	IsFixed        bool    `json:"is_fixed"`
	SeasonalMonths []int   `json:"seasonal_months"`
	Suggested      int64   `json:"suggested"`
}

// summarize computes everything except Suggested and SeasonalMonths.
func summarize(monthly []int64, occurrences int, fixedCV float64) Stats {
	st := Stats{Monthly: monthly, Occurrences: occurrences, SeasonalMonths: []int{}}
	n := len(monthly)
	if n == 0 {
		return st
	}

	sorted := append([]int64(nil), monthly...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	st.Min, st.Max = sorted[0], sorted[n-1]

	var sum float64
	for _, v := range monthly {
		sum += float64(v)
	}
	st.Average = sum / float64(n)

	var sq float64
	for _, v := range monthly {
		dv := float64(v) - st.Average
		sq += dv * dv
	}
	st.StdDev = math.Sqrt(sq / float64(n))

	st.Median = percentile(sorted, 0.5)
	st.P25 = percentile(sorted, 0.25)
	st.P75 = percentile(sorted, 0.75)
	st.IsFixed = st.Average > 0 && st.StdDev/st.Average < fixedCV

	st.Average = money.Round2(st.Average)
	st.StdDev = money.Round2(st.StdDev)
	return st
}

// percentile interpolates linearly between closest ranks of a sorted series.
func percentile(sorted []int64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return float64(sorted[lo])
	}
	frac := pos - float64(lo)
	return money.Round2(float64(sorted[lo]) + (float64(sorted[hi])-float64(sorted[lo]))*frac)
}
