// Package period resolves budget period boundaries. Every period is a closed
// interval of whole dates and is addressed by its ordinal relative to the
// period containing the budget's anchor date, so any period can be computed
// directly without stepping through its predecessors.
package period

import (
	"time"

	apperrors "budgetpace/internal/errors"
	"budgetpace/internal/models"
)

const day = 24 * time.Hour

// Interval is a closed range of whole dates.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Days returns the inclusive number of days in the interval.
func (i Interval) Days() int {
	return DaysBetween(i.Start, i.End) + 1
}

// Contains reports whether t falls on a date inside the interval.
func (i Interval) Contains(t time.Time) bool {
	d := Date(t)
	return !d.Before(i.Start) && !d.After(i.End)
}

// Date truncates t to midnight UTC of its calendar date.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Date(b).Sub(Date(a)) / day)
}

// Resolver maps dates to the periods of one budget.
type Resolver struct {
	kind   models.BudgetType
	freq   models.PayFrequency
	anchor time.Time
	payDay int
	fiscal int
	base   int
}

// New validates the cadence configuration for budgetType and returns a
// Resolver anchored at anchor.
func New(budgetType models.BudgetType, anchor time.Time, cfg models.BudgetConfig) (*Resolver, error) {
	if anchor.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidPeriodConfig, "period_start is required")
	}
	r := &Resolver{kind: budgetType, anchor: Date(anchor)}

	switch budgetType {
	case models.BudgetTypeMonthly:
	case models.BudgetTypeAnnual:
		if cfg.FiscalYearStartMonth < 1 || cfg.FiscalYearStartMonth > 12 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidPeriodConfig, "fiscal_year_start_month must be between 1 and 12")
		}
		r.fiscal = cfg.FiscalYearStartMonth
	case models.BudgetTypePayPeriod:
		switch cfg.PayFrequency {
		case models.PayWeekly, models.PayBiweekly:
		case models.PaySemimonthly, models.PayMonthly:
			if cfg.PayDayOfMonth < 0 || cfg.PayDayOfMonth > 31 {
				return nil, apperrors.WithMessage(apperrors.ErrInvalidPeriodConfig, "pay_day_of_month must be between 1 and 31")
			}
			r.payDay = cfg.PayDayOfMonth
			if r.payDay == 0 {
				r.payDay = r.anchor.Day()
			}
		case "":
			return nil, apperrors.WithMessage(apperrors.ErrInvalidPeriodConfig, "pay_frequency is required for PAY_PERIOD budgets")
		default:
			return nil, apperrors.WithMessage(apperrors.ErrInvalidPeriodConfig, "unknown pay_frequency "+string(cfg.PayFrequency))
		}
		r.freq = cfg.PayFrequency
	default:
		return nil, apperrors.WithMessage(apperrors.ErrInvalidPeriodConfig, "unknown budget_type "+string(budgetType))
	}

	r.base = r.slot(r.anchor)
	return r, nil
}

// ForBudget builds the Resolver for b.
func ForBudget(b *models.Budget) (*Resolver, error) {
	return New(b.BudgetType, b.PeriodStart, b.Config)
}

// Anchor returns the budget's anchor date.
func (r *Resolver) Anchor() time.Time { return r.anchor }

// Index returns the ordinal of the period containing ref. The anchor's
// period is 0; earlier periods are negative.
func (r *Resolver) Index(ref time.Time) int {
	return r.slot(Date(ref)) - r.base
}

// At returns the n-th period relative to the anchor's period.
func (r *Resolver) At(n int) Interval {
	k := r.base + n
	start := r.slotStart(k)
	end := r.slotStart(k + 1).AddDate(0, 0, -1)
	return Interval{Start: start, End: end}
}

// Containing returns the period that contains ref.
func (r *Resolver) Containing(ref time.Time) Interval {
	return r.At(r.Index(ref))
}

// Next returns the period following iv.
func (r *Resolver) Next(iv Interval) Interval {
	return r.At(r.Index(iv.Start) + 1)
}

// Previous returns the period preceding iv.
func (r *Resolver) Previous(iv Interval) Interval {
	return r.At(r.Index(iv.Start) - 1)
}

// slot maps a date to an absolute cadence ordinal.
func (r *Resolver) slot(d time.Time) int {
	switch r.kind {
	case models.BudgetTypeMonthly:
		return MonthOrdinal(d)
	case models.BudgetTypeAnnual:
		return FiscalYear(d, r.fiscal)
	}

	switch r.freq {
	case models.PayWeekly:
		return floorDiv(DaysBetween(r.anchor, d), 7)
	case models.PayBiweekly:
		return floorDiv(DaysBetween(r.anchor, d), 14)
	case models.PaySemimonthly:
		m := MonthOrdinal(d)
		first, second := r.halves(m)
		switch {
		case d.Day() >= second:
			return 2*m + 1
		case d.Day() >= first:
			return 2 * m
		default:
			return 2*(m-1) + 1
		}
	default:
		m := MonthOrdinal(d)
		if d.Day() >= clampDay(r.payDay, m) {
			return m
		}
		return m - 1
	}
}

// slotStart is the first date of absolute ordinal k.
func (r *Resolver) slotStart(k int) time.Time {
	switch r.kind {
	case models.BudgetTypeMonthly:
		return monthDate(k, 1)
	case models.BudgetTypeAnnual:
		return time.Date(k, time.Month(r.fiscal), 1, 0, 0, 0, 0, time.UTC)
	}

	switch r.freq {
	case models.PayWeekly:
		return r.anchor.AddDate(0, 0, 7*k)
	case models.PayBiweekly:
		return r.anchor.AddDate(0, 0, 14*k)
	case models.PaySemimonthly:
		m := floorDiv(k, 2)
		first, second := r.halves(m)
		if k-2*m == 0 {
			return monthDate(m, first)
		}
		return monthDate(m, second)
	default:
		return monthDate(k, clampDay(r.payDay, k))
	}
}

// halves returns the two semimonthly start days of month ordinal m. The pay
// day is folded into the first half so the cycles are fifteen days apart,
// with the second start clipped to the end of short months.
func (r *Resolver) halves(m int) (int, int) {
	first := (r.payDay-1)%15 + 1
	return first, clampDay(first+15, m)
}

// MonthOrdinal returns year*12 + zero-based month.
func MonthOrdinal(t time.Time) int {
	return t.Year()*12 + int(t.Month()) - 1
}

// MonthStart returns the first day of the month with ordinal m.
func MonthStart(m int) time.Time {
	return monthDate(m, 1)
}

// MonthInterval returns the calendar month with ordinal m.
func MonthInterval(m int) Interval {
	return Interval{Start: monthDate(m, 1), End: monthDate(m+1, 1).AddDate(0, 0, -1)}
}

func monthDate(m, d int) time.Time {
	return time.Date(floorDiv(m, 12), time.Month(m-12*floorDiv(m, 12)+1), d, 0, 0, 0, 0, time.UTC)
}

func lastDay(m int) int {
	return monthDate(m+1, 1).AddDate(0, 0, -1).Day()
}

func clampDay(d, m int) int {
	if last := lastDay(m); d > last {
		return last
	}
	return d
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// FiscalYear returns the calendar year in which the fiscal year containing t
// started.
func FiscalYear(t time.Time, startMonth int) int {
	if startMonth < 1 || startMonth > 12 {
		startMonth = 1
	}
	if int(t.Month()) >= startMonth {
		return t.Year()
	}
	return t.Year() - 1
}

// FiscalQuarter returns the 1-based fiscal quarter containing t.
func FiscalQuarter(t time.Time, startMonth int) int {
	if startMonth < 1 || startMonth > 12 {
		startMonth = 1
	}
	offset := (int(t.Month()) - startMonth + 12) % 12
	return offset/3 + 1
}

// SameFiscalYear reports whether a and b fall in the same fiscal year.
func SameFiscalYear(a, b time.Time, startMonth int) bool {
	return FiscalYear(a, startMonth) == FiscalYear(b, startMonth)
}

// SameFiscalQuarter reports whether a and b fall in the same fiscal quarter
// of the same fiscal year.
func SameFiscalQuarter(a, b time.Time, startMonth int) bool {
	return SameFiscalYear(a, b, startMonth) && FiscalQuarter(a, startMonth) == FiscalQuarter(b, startMonth)
}
