package health

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"budgetpace/internal/models"
)

func categories(pcts ...int64) []CategoryInput {
	out := make([]CategoryInput, len(pcts))
	for i, p := range pcts {
		out[i] = CategoryInput{BudgetCategoryID: string(rune('a' + i)), Budgeted: 10000, Spent: p * 100}
	}
	return out
}

func TestFullUsageScoresBelowHalfUsage(t *testing.T) {
	p := DefaultParams()
	full := Score(Input{Categories: categories(100, 100, 100), PaceFraction: 1}, p)
	half := Score(Input{Categories: categories(50, 50, 50), PaceFraction: 1}, p)

	assert.Less(t, full.Score, half.Score)
	assert.Less(t, full.Score, 100)
}

func TestScoreIsClamped(t *testing.T) {
	p := DefaultParams()
	res := Score(Input{Categories: categories(300, 300, 300, 300, 300), PaceFraction: 1}, p)
	assert.Equal(t, 0, res.Score)
	assert.Equal(t, LabelCritical, res.Label)
	assert.Less(t, res.RawScore, 0.0)

	res = Score(Input{Categories: categories(10, 10), PaceFraction: 1, History: []float64{90, 80, 70}}, p)
	assert.Equal(t, 100, res.Score)
}

func TestImpactsSumToRawScore(t *testing.T) {
	p := DefaultParams()
	cats := categories(20, 95, 130, 60, 10, 10, 10, 10, 5)
	cats[1].Group = models.GroupNeed
	cats[2].Group = models.GroupWant
	res := Score(Input{Categories: cats, PaceFraction: 0.5, History: []float64{100, 90, 80}}, p)

	sum := res.BaseScore + res.TrendBonus
	for _, cs := range res.CategoryScores {
		sum += cs.Impact
	}
	assert.InDelta(t, res.RawScore, sum, 0.001)
	assert.InDelta(t, p.UnderBonusCap, res.UnderBudgetBonus, 0.001, "bonus capped and scaled")
}

func TestEssentialCategoriesCostMore(t *testing.T) {
	p := DefaultParams()
	need := Score(Input{Categories: []CategoryInput{{Budgeted: 100, Spent: 120, Group: models.GroupNeed}}, PaceFraction: 1}, p)
	want := Score(Input{Categories: []CategoryInput{{Budgeted: 100, Spent: 120, Group: models.GroupWant}}, PaceFraction: 1}, p)

	assert.Greater(t, need.EssentialWeightPenalty, 0.0)
	assert.Equal(t, 0.0, want.EssentialWeightPenalty)
	assert.Less(t, need.RawScore, want.RawScore)
}

func TestDeduction(t *testing.T) {
	p := DefaultParams()
	assert.Equal(t, 0.0, deduction(85, p))
	assert.InDelta(t, 3.0, deduction(100, p), 1e-9)
	assert.InDelta(t, 13.0, deduction(120, p), 1e-9)
	assert.Equal(t, p.CategoryCap, deduction(400, p))
}

func TestTrendBonus(t *testing.T) {
	p := DefaultParams()
	cats := categories(90)

	improving := Score(Input{Categories: cats, PaceFraction: 1, History: []float64{95, 100, 80}}, p)
	assert.Equal(t, p.TrendBonus, improving.TrendBonus)

	worsening := Score(Input{Categories: cats, PaceFraction: 1, History: []float64{80, 70, 95}}, p)
	assert.Equal(t, 0.0, worsening.TrendBonus)

	short := Score(Input{Categories: cats, PaceFraction: 1, History: []float64{100, 50}}, p)
	assert.Equal(t, 0.0, short.TrendBonus)
}

func TestLabelsAreMonotonic(t *testing.T) {
	p := DefaultParams()
	prev := Rank(p.Label(0))
	for s := 1; s <= 100; s++ {
		r := Rank(p.Label(s))
		assert.GreaterOrEqual(t, r, prev)
		prev = r
	}
	assert.Equal(t, LabelExcellent, p.Label(85))
	assert.Equal(t, LabelGood, p.Label(70))
	assert.Equal(t, LabelNeedsAttention, p.Label(50))
	assert.Equal(t, LabelCritical, p.Label(49))
}
