// Package velocity projects end-of-period spend from the current burn rate.
package velocity

import (
	"time"

	"budgetpace/internal/models"
	"budgetpace/internal/money"
	"budgetpace/internal/period"
)

// PaceStatus summarizes the projection.
type PaceStatus string

const (
	PaceOver    PaceStatus = "over"
	PaceUnder   PaceStatus = "under"
	PaceOnTrack PaceStatus = "on_track"
)

// Params tunes pace classification.
type Params struct {
	// UnderRatio marks a projection as "under" when it lands below
	// budget * UnderRatio.
	UnderRatio float64 `toml:"under_ratio"`
}

// DefaultParams returns the production defaults.
func DefaultParams() Params {
	return Params{UnderRatio: 0.9}
}

// Bill is an upcoming scheduled payment.
type Bill struct {
	Name       string    `json:"name"`
	DueDate    time.Time `json:"due_date"`
	Amount     int64     `json:"amount"`
	CategoryID string    `json:"category_id,omitempty"`
}

// BillsFrom converts scheduled bills.
func BillsFrom(bills []models.ScheduledBill) []Bill {
	out := make([]Bill, 0, len(bills))
	for _, b := range bills {
		bill := Bill{Name: b.Name, DueDate: period.Date(b.DueDate), Amount: b.Amount}
		if b.CategoryID != nil {
			bill.CategoryID = *b.CategoryID
		}
		out = append(out, bill)
	}
	return out
}

// Projection is the pace view of a period or one category within it. Money
// fields are minor units; rates are fractional minor units per day.
type Projection struct {
	PeriodStart        time.Time  `json:"period_start"`
	PeriodEnd          time.Time  `json:"period_end"`
	TotalDays          int        `json:"total_days"`
	DaysElapsed        int        `json:"days_elapsed"`
	DaysRemaining      int        `json:"days_remaining"`
	CurrentSpent       int64      `json:"current_spent"`
	BudgetTotal        int64      `json:"budget_total"`
	DailyBurnRate      float64    `json:"daily_burn_rate"`
	ProjectedTotal     float64    `json:"projected_total"`
	ProjectedVariance  float64    `json:"projected_variance"`
	SafeDailySpend     float64    `json:"safe_daily_spend"`
	TotalUpcomingBills int64      `json:"total_upcoming_bills"`
	TrulyAvailable     int64      `json:"truly_available"`
	PaceStatus         PaceStatus `json:"pace_status"`
	UpcomingBills      []Bill     `json:"upcoming_bills"`
}

// Elapsed returns the inclusive days elapsed at asOf, clamped to the period.
func Elapsed(iv period.Interval, asOf time.Time) (elapsed, remaining, total int) {
	total = iv.Days()
	elapsed = period.DaysBetween(iv.Start, asOf) + 1
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > total {
		elapsed = total
	}
	return elapsed, total - elapsed, total
}

// Project computes the pace of spent against budget at asOf. Only bills due
// after asOf and on or before the period end are counted.
func Project(iv period.Interval, asOf time.Time, spent, budget int64, bills []Bill, p Params) Projection {
	elapsed, remaining, total := Elapsed(iv, asOf)
	asOfDate := period.Date(asOf)

	pr := Projection{
		PeriodStart:   iv.Start,
		PeriodEnd:     iv.End,
		TotalDays:     total,
		DaysElapsed:   elapsed,
		DaysRemaining: remaining,
		CurrentSpent:  spent,
		BudgetTotal:   budget,
		UpcomingBills: []Bill{},
	}

	for _, b := range bills {
		due := period.Date(b.DueDate)
		if due.After(asOfDate) && !due.After(iv.End) {
			pr.UpcomingBills = append(pr.UpcomingBills, b)
			pr.TotalUpcomingBills += b.Amount
		}
	}

	if elapsed == 0 {
		pr.DailyBurnRate = 0
		pr.ProjectedTotal = float64(spent)
	} else {
		pr.DailyBurnRate = money.Rate(spent, elapsed)
		pr.ProjectedTotal = money.Round2(float64(spent) + float64(spent)/float64(elapsed)*float64(remaining))
	}
	pr.ProjectedVariance = money.Round2(pr.ProjectedTotal - float64(budget))

	pr.TrulyAvailable = budget - spent - pr.TotalUpcomingBills
	if pr.TrulyAvailable > 0 {
		pr.SafeDailySpend = money.Rate(pr.TrulyAvailable, remaining)
	}

	switch {
	case pr.ProjectedVariance > 0:
		pr.PaceStatus = PaceOver
	case pr.ProjectedTotal < float64(budget)*p.UnderRatio:
		pr.PaceStatus = PaceUnder
	default:
		pr.PaceStatus = PaceOnTrack
	}
	return pr
}

// CategoryProjection is the pace of one budget category.
type CategoryProjection struct {
	BudgetCategoryID string `json:"budget_category_id"`
	Name             string `json:"name"`
	Projection
}

// ProjectCategory projects a single category using only the bills booked to
// categoryID.
func ProjectCategory(iv period.Interval, asOf time.Time, id, name, categoryID string, spent, budget int64, bills []Bill, p Params) CategoryProjection {
	var own []Bill
	if categoryID != "" {
		for _, b := range bills {
			if b.CategoryID == categoryID {
				own = append(own, b)
			}
		}
	}
	return CategoryProjection{BudgetCategoryID: id, Name: name, Projection: Project(iv, asOf, spent, budget, own, p)}
}
