package tracker

import (
	"budgetpace/internal/aggregator"
	"budgetpace/internal/models"
	"budgetpace/internal/money"
	"budgetpace/internal/period"
	"budgetpace/internal/rollover"
)

// Step is one period of a plan. Stored is set when the period is CLOSED
// and must not be recomputed.
type Step struct {
	Index    int
	Interval period.Interval
	Stored   *models.BudgetPeriod
}

// Plan lists the periods needed to derive a target period, oldest first.
// The target is always the last step.
type Plan struct {
	Steps []Step
}

// Target returns the last step.
func (p Plan) Target() Step { return p.Steps[len(p.Steps)-1] }

// Window returns the span the ledger must be fetched for: from the first
// step that needs recomputation to the end of the target. ok is false when
// every step is stored.
func (p Plan) Window() (iv period.Interval, ok bool) {
	for _, s := range p.Steps {
		if s.Stored != nil {
			continue
		}
		if !ok {
			iv.Start = s.Interval.Start
			ok = true
		}
		iv.End = s.Interval.End
	}
	return iv, ok
}

// NewPlan walks back from target until a CLOSED period is found or the
// budget's first period is reached. stored must reach back far enough to
// hold that CLOSED period. At least keep earlier periods are included even
// past a CLOSED one, for callers that need history (trends, health).
func NewPlan(r *period.Resolver, target int, stored []models.BudgetPeriod, keep int) Plan {
	closed := make(map[int]*models.BudgetPeriod, len(stored))
	for i := range stored {
		if stored[i].Status == models.PeriodClosed {
			closed[r.Index(stored[i].PeriodStart)] = &stored[i]
		}
	}

	steps := []Step{{Index: target, Interval: r.At(target), Stored: closed[target]}}
	for j := target - 1; j >= 0; j-- {
		if target-j > keep && steps[len(steps)-1].Stored != nil {
			break
		}
		steps = append(steps, Step{Index: j, Interval: r.At(j), Stored: closed[j]})
	}

	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}
	return Plan{Steps: steps}
}

// Run replays a plan over ledger lines covering Plan.Window and returns one
// view per step. Stored steps are returned as recorded and seed the
// rollover of the step after them.
func Run(plan Plan, b *models.Budget, tree *aggregator.Tree, lines []aggregator.Line) []View {
	router := aggregator.NewRouter(b.Categories, tree)
	ivs := make([]period.Interval, len(plan.Steps))
	for i, s := range plan.Steps {
		ivs[i] = s.Interval
	}
	parts := aggregator.Partition(lines, ivs)

	views := make([]View, 0, len(plan.Steps))
	var prior *rollover.Prior
	for i, s := range plan.Steps {
		if s.Stored != nil {
			v := FromRecord(b, s.Index, s.Stored)
			views = append(views, v)
			prior = v.Prior()
			continue
		}
		v := Compute(router, b, s.Index, s.Interval, parts[i], prior)
		views = append(views, v)
		prior = v.Prior()
	}
	return views
}

// Compute derives one period from its lines and the prior carry-forward.
// The result is OPEN; callers mark future periods PROJECTED.
func Compute(router *aggregator.Router, b *models.Budget, index int, iv period.Interval, lines []aggregator.Line, prior *rollover.Prior) View {
	agg := router.Aggregate(lines, iv)
	out := rollover.Compute(rollover.Input{
		Strategy:         b.Strategy,
		Categories:       router.Categories(),
		Actual:           agg.Actual,
		Start:            iv.Start,
		FiscalStartMonth: b.Config.FiscalStart(),
		Prior:            prior,
	})
	return View{
		Index:         index,
		Interval:      iv,
		Status:        models.PeriodOpen,
		States:        out.Categories,
		FlexGroups:    out.FlexGroups,
		Income:        agg.Income,
		Uncategorized: agg.Uncategorized,
		Unbudgeted:    agg.Unbudgeted,
	}
}

func finishGroup(g *rollover.FlexGroupStatus) {
	g.Remaining = g.Effective - g.Spent
	g.Overspent = g.Spent > g.Effective
	g.PercentUsed = money.Percent(g.Spent, g.Effective)
}
