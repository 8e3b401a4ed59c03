// Package money holds the minor-unit arithmetic shared by the budget engine.
// Amounts are int64 cents; anything that divides goes through decimal so
// rounding is explicit.
package money

import (
	"github.com/shopspring/decimal"
)

// MaxPercent caps reported usage so a zero budget with spend stays finite.
const MaxPercent = 999.0

var hundred = decimal.NewFromInt(100)

// Percent returns spent/budgeted*100 clamped to [0, MaxPercent], rounded to
// two decimals. A zero budget yields 0 when nothing was spent and MaxPercent
// otherwise.
func Percent(spent, budgeted int64) float64 {
	if spent <= 0 {
		return 0
	}
	if budgeted <= 0 {
		return MaxPercent
	}
	p := decimal.NewFromInt(spent).Mul(hundred).Div(decimal.NewFromInt(budgeted)).Round(2)
	f, _ := p.Float64()
	if f > MaxPercent {
		return MaxPercent
	}
	return f
}

// Rate divides amount by days and returns the per-day value in cents,
// rounded to two decimals. days below 1 is treated as 1.
func Rate(amount int64, days int) float64 {
	if days < 1 {
		days = 1
	}
	r := decimal.NewFromInt(amount).Div(decimal.NewFromInt(int64(days))).Round(2)
	f, _ := r.Float64()
	return f
}

// Round rounds a fractional cent amount half away from zero.
func Round(v float64) int64 {
	return decimal.NewFromFloat(v).Round(0).IntPart()
}

// Round2 rounds a float to two decimals.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// unit is one whole currency unit in minor units.
const unit = 100

// CeilUnit rounds cents up to the next whole currency unit.
func CeilUnit(v float64) int64 {
	return decimal.NewFromFloat(v).Div(decimal.NewFromInt(unit)).Ceil().IntPart() * unit
}

// FloorUnit rounds cents down to the previous whole currency unit.
func FloorUnit(v float64) int64 {
	return decimal.NewFromFloat(v).Div(decimal.NewFromInt(unit)).Floor().IntPart() * unit
}

// RoundUnit rounds cents to the nearest whole currency unit.
func RoundUnit(v float64) int64 {
	return decimal.NewFromFloat(v).Div(decimal.NewFromInt(unit)).Round(0).IntPart() * unit
}

// Share returns amount*part/whole rounded toward zero along with the
// fractional remainder, for largest-remainder apportionment.
func Share(amount, part, whole int64) (int64, decimal.Decimal) {
	if whole == 0 {
		return 0, decimal.Zero
	}
	exact := decimal.NewFromInt(amount).Mul(decimal.NewFromInt(part)).Div(decimal.NewFromInt(whole))
	floor := exact.Floor()
	return floor.IntPart(), exact.Sub(floor)
}

// Format renders minor units as a major-unit string, e.g. "12.50 USD".
func Format(amount int64, currency string) string {
	s := decimal.New(amount, -2).StringFixed(2)
	if currency == "" {
		return s
	}
	return s + " " + currency
}

// Abs returns the absolute value of v.
func Abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
