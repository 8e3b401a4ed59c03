// Package health scores how closely spending tracked a budget.
package health

import (
	"math"

	"budgetpace/internal/models"
	"budgetpace/internal/money"
)

// Params holds the scoring constants.
type Params struct {
	BaseScore float64 `toml:"base_score"`

	// Deductions start at PressureThreshold percent used and grow by
	// PressureRate points per percent up to 100, then by OverageRate per
	// percent beyond it, capped at CategoryCap per category.
	PressureThreshold float64 `toml:"pressure_threshold"`
	PressureRate      float64 `toml:"pressure_rate"`
	OverageRate       float64 `toml:"overage_rate"`
	CategoryCap       float64 `toml:"category_cap"`

	// NEED categories lose an extra EssentialMultiplier times their deduction.
	EssentialMultiplier float64 `toml:"essential_multiplier"`

	// Categories below pace*UnderPaceRatio earn UnderPaceBonus each, with the
	// total scaled down to UnderBonusCap.
	UnderPaceRatio float64 `toml:"under_pace_ratio"`
	UnderPaceBonus float64 `toml:"under_pace_bonus"`
	UnderBonusCap  float64 `toml:"under_bonus_cap"`

	TrendBonus float64 `toml:"trend_bonus"`

	ExcellentAt      int `toml:"excellent_at"`
	GoodAt           int `toml:"good_at"`
	NeedsAttentionAt int `toml:"needs_attention_at"`
}

// DefaultParams returns the production defaults.
func DefaultParams() Params {
	return Params{
		BaseScore:           100,
		PressureThreshold:   85,
		PressureRate:        0.2,
		OverageRate:         0.5,
		CategoryCap:         25,
		EssentialMultiplier: 0.5,
		UnderPaceRatio:      0.8,
		UnderPaceBonus:      2,
		UnderBonusCap:       10,
		TrendBonus:          5,
		ExcellentAt:         85,
		GoodAt:              70,
		NeedsAttentionAt:    50,
	}
}

// Labels, best first.
const (
	LabelExcellent      = "Excellent"
	LabelGood           = "Good"
	LabelNeedsAttention = "Needs Attention"
	LabelCritical       = "Critical"
)

// Label buckets a score.
func (p Params) Label(score int) string {
	switch {
	case score >= p.ExcellentAt:
		return LabelExcellent
	case score >= p.GoodAt:
		return LabelGood
	case score >= p.NeedsAttentionAt:
		return LabelNeedsAttention
	default:
		return LabelCritical
	}
}

// Rank orders labels so that a higher rank is a better band.
func Rank(label string) int {
	switch label {
	case LabelExcellent:
		return 3
	case LabelGood:
		return 2
	case LabelNeedsAttention:
		return 1
	default:
		return 0
	}
}

// CategoryInput is one scored category.
type CategoryInput struct {
	BudgetCategoryID string
	Name             string
	Group            models.CategoryGroup
	Spent            int64
	Budgeted         int64
}

// Input is everything the scorer needs for one period.
type Input struct {
	Categories []CategoryInput
	// PaceFraction is elapsed/total days of the period, 1 once it ended.
	PaceFraction float64
	// History holds aggregate percent used of prior closed periods, oldest
	// first.
	History []float64
}

// CategoryScore is the auditable contribution of one category.
type CategoryScore struct {
	BudgetCategoryID string               `json:"budget_category_id"`
	Name             string               `json:"name"`
	Group            models.CategoryGroup `json:"category_group,omitempty"`
	PercentUsed      float64              `json:"percent_used"`
	Deduction        float64              `json:"deduction"`
	EssentialPenalty float64              `json:"essential_penalty"`
	Bonus            float64              `json:"bonus"`
	Impact           float64              `json:"impact"`
}

// Result is the score with its full additive breakdown. RawScore equals
// BaseScore + TrendBonus + the sum of every category Impact.
type Result struct {
	Score                  int             `json:"score"`
	Label                  string          `json:"label"`
	RawScore               float64         `json:"raw_score"`
	BaseScore              float64         `json:"base_score"`
	OverBudgetDeductions   float64         `json:"over_budget_deductions"`
	EssentialWeightPenalty float64         `json:"essential_weight_penalty"`
	UnderBudgetBonus       float64         `json:"under_budget_bonus"`
	TrendBonus             float64         `json:"trend_bonus"`
	CategoryScores         []CategoryScore `json:"category_scores"`
}

// Score computes the health score.
func Score(in Input, p Params) Result {
	res := Result{BaseScore: p.BaseScore, CategoryScores: make([]CategoryScore, 0, len(in.Categories))}

	pacePercent := in.PaceFraction * 100
	var rawBonus float64
	for _, c := range in.Categories {
		cs := CategoryScore{
			BudgetCategoryID: c.BudgetCategoryID,
			Name:             c.Name,
			Group:            c.Group,
			PercentUsed:      money.Percent(c.Spent, c.Budgeted),
		}
		cs.Deduction = deduction(cs.PercentUsed, p)
		if c.Group == models.GroupNeed {
			cs.EssentialPenalty = cs.Deduction * p.EssentialMultiplier
		}
		if c.Budgeted > 0 && cs.PercentUsed < pacePercent*p.UnderPaceRatio {
			cs.Bonus = p.UnderPaceBonus
			rawBonus += cs.Bonus
		}
		res.CategoryScores = append(res.CategoryScores, cs)
	}

	scale := 1.0
	if rawBonus > p.UnderBonusCap && rawBonus > 0 {
		scale = p.UnderBonusCap / rawBonus
	}
	for i := range res.CategoryScores {
		cs := &res.CategoryScores[i]
		cs.Bonus = round4(cs.Bonus * scale)
		cs.Deduction = round4(cs.Deduction)
		cs.EssentialPenalty = round4(cs.EssentialPenalty)
		cs.Impact = round4(cs.Bonus - cs.Deduction - cs.EssentialPenalty)
		res.OverBudgetDeductions += cs.Deduction
		res.EssentialWeightPenalty += cs.EssentialPenalty
		res.UnderBudgetBonus += cs.Bonus
		res.RawScore += cs.Impact
	}

	if n := len(in.History); n >= 3 && in.History[n-1] < in.History[n-3] {
		res.TrendBonus = p.TrendBonus
	}

	res.OverBudgetDeductions = round4(res.OverBudgetDeductions)
	res.EssentialWeightPenalty = round4(res.EssentialWeightPenalty)
	res.UnderBudgetBonus = round4(res.UnderBudgetBonus)
	res.RawScore = round4(res.RawScore + p.BaseScore + res.TrendBonus)

	score := int(math.Round(res.RawScore))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	res.Score = score
	res.Label = p.Label(score)
	return res
}

func deduction(pct float64, p Params) float64 {
	if pct <= p.PressureThreshold {
		return 0
	}
	d := (math.Min(pct, 100) - p.PressureThreshold) * p.PressureRate
	if pct > 100 {
		d += (pct - 100) * p.OverageRate
	}
	return math.Min(d, p.CategoryCap)
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
