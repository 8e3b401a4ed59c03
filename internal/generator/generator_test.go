package generator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetpace/internal/aggregator"
	"budgetpace/internal/models"
)

func strp(s string) *string { return &s }

func tree() *aggregator.Tree {
	return aggregator.NewTree([]models.Category{
		{Base: models.Base{ID: "rent"}, Name: "Rent"},
		{Base: models.Base{ID: "food"}, Name: "Food"},
		{Base: models.Base{ID: "salary"}, Name: "Salary", IsIncome: true},
	})
}

func mid(y int, m time.Month) time.Time { return time.Date(y, m, 10, 0, 0, 0, 0, time.UTC) }

// sixMonths builds Jan-Jun 2026 history: fixed rent, variable food, a
// monthly savings transfer and a salary.
func sixMonths() []aggregator.Line {
	food := []int64{40000, 52000, 45000, 61000, 38000, 50000}
	var lines []aggregator.Line
	for i := 0; i < 6; i++ {
		m := mid(2026, time.Month(i+1))
		lines = append(lines,
			aggregator.Line{Date: m, CategoryID: "rent", Amount: -150000},
			aggregator.Line{Date: m, CategoryID: "food", Amount: -food[i]},
			aggregator.Line{Date: m, CategoryID: "salary", Amount: 500000},
			aggregator.Line{Date: m, Transfer: true, From: "checking", To: "savings", Amount: 30000},
		)
	}
	return lines
}

func TestGenerate(t *testing.T) {
	req := Request{Months: 6, AsOf: time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC)}
	resp, err := Generate(context.Background(), sixMonths(), tree(), time.Time{}, req, DefaultParams())
	require.NoError(t, err)

	assert.False(t, resp.InsufficientHistory)
	assert.Equal(t, 6, resp.MonthsAvailable)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), resp.PeriodStart)
	assert.Equal(t, time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC), resp.PeriodEnd)
	assert.Equal(t, int64(500000), resp.EstimatedMonthlyIncome)

	require.Len(t, resp.Categories, 2)
	rent := resp.Categories[0]
	assert.Equal(t, "rent", rent.CategoryID)
	assert.Equal(t, "Rent", rent.Name)
	assert.True(t, rent.IsFixed)
	assert.Equal(t, int64(150000), rent.Suggested)
	assert.Equal(t, 6, rent.Occurrences)

	food := resp.Categories[1]
	assert.False(t, food.IsFixed)
	assert.Equal(t, 47500.0, food.Median)
	assert.Equal(t, int64(38000), food.Min)
	assert.Equal(t, int64(61000), food.Max)
	assert.Equal(t, int64(47500), food.Suggested)
	assert.Equal(t, []int64{40000, 52000, 45000, 61000, 38000, 50000}, food.Monthly)

	require.Len(t, resp.Transfers, 1)
	assert.Equal(t, "savings", resp.Transfers[0].AccountID)
	assert.Equal(t, int64(30000), resp.TotalTransfers)

	assert.Equal(t, int64(197500), resp.TotalBudgeted)
	assert.Equal(t, resp.EstimatedMonthlyIncome-resp.TotalBudgeted-resp.TotalTransfers, resp.ProjectedMonthlySavings)
}

func TestGenerateProfiles(t *testing.T) {
	asOf := time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC)
	gen := func(p Profile) CategoryAnalysis {
		resp, err := Generate(context.Background(), sixMonths(), tree(), time.Time{}, Request{Months: 6, Profile: p, AsOf: asOf}, DefaultParams())
		require.NoError(t, err)
		return resp.Categories[1]
	}

	comfortable := gen(ProfileComfortable)
	aggressive := gen(ProfileAggressive)
	onTrack := gen(ProfileOnTrack)

	assert.Greater(t, comfortable.Suggested, onTrack.Suggested)
	assert.Less(t, aggressive.Suggested, onTrack.Suggested)
	assert.Equal(t, int64(0), comfortable.Suggested%100, "rounded to whole units")
	assert.Equal(t, int64(0), aggressive.Suggested%100)
}

func TestGenerateInsufficientHistory(t *testing.T) {
	req := Request{Months: 6, AsOf: time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC)}
	earliest := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)

	resp, err := Generate(context.Background(), sixMonths(), tree(), earliest, req, DefaultParams())
	require.NoError(t, err)

	assert.True(t, resp.InsufficientHistory)
	assert.Equal(t, 2, resp.MonthsAvailable)
	assert.Empty(t, resp.Categories)
	assert.Empty(t, resp.Transfers)
}

func TestGenerateStrategyExtras(t *testing.T) {
	asOf := time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC)

	resp, err := Generate(context.Background(), sixMonths(), tree(), time.Time{}, Request{Months: 6, Strategy: models.StrategyFiftyThirtyTwenty, AsOf: asOf}, DefaultParams())
	require.NoError(t, err)
	require.NotNil(t, resp.GroupTargets)
	assert.Equal(t, int64(250000), resp.GroupTargets.Need)
	assert.Equal(t, int64(150000), resp.GroupTargets.Want)
	assert.Equal(t, int64(100000), resp.GroupTargets.Saving)

	resp, err = Generate(context.Background(), sixMonths(), tree(), time.Time{}, Request{Months: 6, Strategy: models.StrategyZeroBased, AsOf: asOf}, DefaultParams())
	require.NoError(t, err)
	require.NotNil(t, resp.UnallocatedIncome)
	assert.Equal(t, resp.ProjectedMonthlySavings, *resp.UnallocatedIncome)
}

func TestGenerateRejectsBadRequest(t *testing.T) {
	_, err := Generate(context.Background(), nil, nil, time.Time{}, Request{Months: 4}, DefaultParams())
	assert.Error(t, err)

	_, err = Generate(context.Background(), nil, nil, time.Time{}, Request{Months: 3, Profile: "YOLO"}, DefaultParams())
	assert.Error(t, err)
}

func TestGenerateHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := Request{Months: 6, AsOf: time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC)}
	_, err := Generate(ctx, sixMonths(), tree(), time.Time{}, req, DefaultParams())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSummarize(t *testing.T) {
	st := summarize([]int64{10, 20, 30, 40}, 4, 0.1)
	assert.Equal(t, 25.0, st.Average)
	assert.Equal(t, 25.0, st.Median)
	assert.Equal(t, 17.5, st.P25)
	assert.Equal(t, 32.5, st.P75)
	assert.InDelta(t, 11.18, st.StdDev, 0.01)
	assert.False(t, st.IsFixed)

	flat := summarize([]int64{100, 101, 99, 100}, 4, 0.1)
	assert.True(t, flat.IsFixed)

	empty := summarize(nil, 0, 0.1)
	assert.Equal(t, 0.0, empty.Average)

	thirds := summarize([]int64{1, 2, 2}, 3, 0.1)
	assert.Equal(t, 1.67, thirds.Average, "averages round to two decimals")
	assert.Equal(t, 0.47, thirds.StdDev)
	assert.Equal(t, 1.5, thirds.P25)
}
