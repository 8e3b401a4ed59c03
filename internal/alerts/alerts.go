// Package alerts evaluates alert rules against a computed budget period.
// Evaluate is pure: it returns candidate alerts and leaves deduplication
// against stored alerts to the caller via DedupKey.
package alerts

import (
	"fmt"
	"strings"
	"time"

	"budgetpace/internal/health"
	"budgetpace/internal/models"
	"budgetpace/internal/money"
	"budgetpace/internal/period"
	"budgetpace/internal/rollover"
	"budgetpace/internal/seasonal"
	"budgetpace/internal/velocity"
)

// Params holds rule thresholds.
type Params struct {
	DefaultWarnPercent     float64 `toml:"default_warn_percent"`
	DefaultCriticalPercent float64 `toml:"default_critical_percent"`

	// INCOME_SHORTFALL fires once IncomeCheckElapsed of the period has
	// passed and income is below base income * IncomeShortfallRatio.
	IncomeShortfallRatio float64 `toml:"income_shortfall_ratio"`
	IncomeCheckElapsed   float64 `toml:"income_check_elapsed"`

	// A category that ends its period at or below MilestoneUnderPercent
	// earns a POSITIVE_MILESTONE.
	MilestoneUnderPercent float64 `toml:"milestone_under_percent"`
}

// DefaultParams returns the production defaults.
func DefaultParams() Params {
	return Params{
		DefaultWarnPercent:     80,
		DefaultCriticalPercent: 95,
		IncomeShortfallRatio:   0.9,
		IncomeCheckElapsed:     0.8,
		MilestoneUnderPercent:  75,
	}
}

// Category is the per-category view the rules read.
type Category struct {
	Budget     *models.BudgetCategory
	State      rollover.CategoryState
	Percent    float64
	Projection velocity.Projection
}

// Input is one evaluated period of a budget.
type Input struct {
	Budget     *models.Budget
	Period     period.Interval
	AsOf       time.Time
	Categories []Category
	FlexGroups []rollover.FlexGroupStatus
	Seasonal   *seasonal.Result
	Velocity   velocity.Projection
	Income     int64
	Health     *health.Result
	// PreviousHealth is the score of the period before, if known.
	PreviousHealth *health.Result
}

// ended reports whether the period is complete at AsOf.
func (in Input) ended() bool {
	return period.Date(in.AsOf).After(in.Period.End)
}

// DedupKey identifies an alert within a period: regenerating the same rule
// for the same subject and period yields the same key.
func DedupKey(t models.AlertType, subject string, periodStart time.Time) string {
	return strings.Join([]string{string(t), subject, periodStart.Format(time.DateOnly)}, "|")
}

// Thresholds returns the warn and critical percentages of a category,
// inheriting budget defaults and then p.
func Thresholds(c *models.BudgetCategory, cfg models.BudgetConfig, p Params) (warn, critical float64) {
	warn, critical = p.DefaultWarnPercent, p.DefaultCriticalPercent
	if cfg.DefaultWarnPercent > 0 {
		warn = cfg.DefaultWarnPercent
	}
	if cfg.DefaultCriticalPercent > 0 {
		critical = cfg.DefaultCriticalPercent
	}
	if c != nil && c.AlertWarnPercent != nil {
		warn = *c.AlertWarnPercent
	}
	if c != nil && c.AlertCriticalPercent != nil {
		critical = *c.AlertCriticalPercent
	}
	return warn, critical
}

type builder struct {
	in  Input
	out []models.BudgetAlert
}

func (b *builder) add(t models.AlertType, sev models.AlertSeverity, subject string, catID *string, title, msg string, data map[string]interface{}) {
	b.out = append(b.out, models.BudgetAlert{
		BudgetID:         b.in.Budget.ID,
		BudgetCategoryID: catID,
		AlertType:        t,
		Severity:         sev,
		Title:            title,
		Message:          msg,
		Data:             data,
		PeriodStart:      b.in.Period.Start,
		DedupKey:         DedupKey(t, subject, b.in.Period.Start),
	})
}

func (b *builder) amount(v int64) string { return money.Format(v, b.in.Budget.Currency) }

// Evaluate runs every rule and returns candidate alerts in a stable order.
func Evaluate(in Input, p Params) []models.BudgetAlert {
	b := &builder{in: in}
	ended := in.ended()

	for _, c := range in.Categories {
		if c.Budget == nil || c.Budget.IsIncome {
			continue
		}
		b.threshold(c, p)
		if !ended {
			b.pace(c)
		}
		b.seasonal(c)
		if ended {
			b.categoryMilestone(c, p)
		}
	}
	for _, g := range in.FlexGroups {
		b.flex(g, p)
	}
	if !ended {
		b.projected()
	}
	b.income(p, ended)
	b.healthMilestone()
	return b.out
}

// threshold emits the highest band crossed: over budget, critical or warn.
func (b *builder) threshold(c Category, p Params) {
	if c.State.Actual <= 0 {
		return
	}
	warn, critical := Thresholds(c.Budget, b.in.Budget.Config, p)
	id := c.Budget.ID
	data := map[string]interface{}{
		"percent_used":     c.Percent,
		"spent":            c.State.Actual,
		"effective_budget": c.State.Effective,
	}
	switch {
	case c.Percent > 100:
		data["overspend"] = c.State.Actual - c.State.Effective
		b.add(models.AlertOverBudget, models.SeverityCritical, id, &id,
			c.Budget.Name+" is over budget",
			fmt.Sprintf("Spent %s of %s (%.0f%%).", b.amount(c.State.Actual), b.amount(c.State.Effective), c.Percent), data)
	case c.Percent >= critical:
		data["threshold"] = critical
		b.add(models.AlertThresholdCritical, models.SeverityCritical, id, &id,
			c.Budget.Name+" is nearly exhausted",
			fmt.Sprintf("%.0f%% of the budget is used, %s left.", c.Percent, b.amount(c.State.Effective-c.State.Actual)), data)
	case c.Percent >= warn:
		data["threshold"] = warn
		b.add(models.AlertThresholdWarning, models.SeverityWarning, id, &id,
			fmt.Sprintf("%s passed %.0f%%", c.Budget.Name, warn),
			fmt.Sprintf("%.0f%% of the budget is used, %s left.", c.Percent, b.amount(c.State.Effective-c.State.Actual)), data)
	}
}

// pace warns when the burn rate will exhaust a category that is still
// within budget.
func (b *builder) pace(c Category) {
	pr := c.Projection
	if pr.DaysElapsed == 0 || pr.PaceStatus != velocity.PaceOver || c.Percent > 100 {
		return
	}
	id := c.Budget.ID
	b.add(models.AlertPaceWarning, models.SeverityWarning, id, &id,
		c.Budget.Name+" is on pace to overspend",
		fmt.Sprintf("At the current rate spending reaches %s against %s.", b.amount(money.Round(pr.ProjectedTotal)), b.amount(pr.BudgetTotal)),
		map[string]interface{}{
			"daily_burn_rate":    pr.DailyBurnRate,
			"projected_total":    pr.ProjectedTotal,
			"projected_variance": pr.ProjectedVariance,
			"days_remaining":     pr.DaysRemaining,
		})
}

// seasonal flags a historically high month once spend already exceeds the
// typical month. The month is the one containing AsOf, clamped into the
// period.
func (b *builder) seasonal(c Category) {
	if b.in.Seasonal == nil {
		return
	}
	pat, ok := b.in.Seasonal.ByCategory(c.Budget.ID)
	if !ok {
		return
	}
	month := b.month()
	if !pat.IsHigh(month) || float64(c.State.Actual) <= pat.TypicalMonthlySpend {
		return
	}
	id := c.Budget.ID
	var avg float64
	if a := pat.MonthlyAverages[month-1]; a != nil {
		avg = *a
	}
	b.add(models.AlertSeasonalSpike, models.SeverityInfo, id, &id,
		c.Budget.Name+" usually spikes in "+month.String(),
		fmt.Sprintf("%s typically averages %s, against %s in a normal month.", month, b.amount(money.Round(avg)), b.amount(money.Round(pat.TypicalMonthlySpend))),
		map[string]interface{}{
			"month":                 int(month),
			"monthly_average":       avg,
			"typical_monthly_spend": pat.TypicalMonthlySpend,
			"spent":                 c.State.Actual,
		})
}

func (b *builder) month() time.Month {
	d := period.Date(b.in.AsOf)
	if d.Before(b.in.Period.Start) {
		d = b.in.Period.Start
	}
	if d.After(b.in.Period.End) {
		d = b.in.Period.End
	}
	return d.Month()
}

func (b *builder) categoryMilestone(c Category, p Params) {
	if c.State.Effective <= 0 || c.Percent > p.MilestoneUnderPercent {
		return
	}
	id := c.Budget.ID
	b.add(models.AlertPositiveMilestone, models.SeveritySuccess, id, &id,
		c.Budget.Name+" finished well under budget",
		fmt.Sprintf("Only %.0f%% of %s was used.", c.Percent, b.amount(c.State.Effective)),
		map[string]interface{}{"percent_used": c.Percent, "saved": c.State.Effective - c.State.Actual})
}

func (b *builder) flex(g rollover.FlexGroupStatus, p Params) {
	warn, _ := Thresholds(nil, b.in.Budget.Config, p)
	if g.Spent <= 0 || g.PercentUsed < warn {
		return
	}
	sev := models.SeverityWarning
	if g.Overspent {
		sev = models.SeverityCritical
	}
	b.add(models.AlertFlexGroupWarning, sev, "flex:"+g.Name, nil,
		"Flex group "+g.Name+" is running low",
		fmt.Sprintf("The shared pool has %s of %s left.", b.amount(g.Remaining), b.amount(g.Effective)),
		map[string]interface{}{
			"flex_group":   g.Name,
			"percent_used": g.PercentUsed,
			"remaining":    g.Remaining,
			"category_ids": g.CategoryIDs,
		})
}

func (b *builder) projected() {
	v := b.in.Velocity
	if v.DaysElapsed == 0 || v.ProjectedVariance <= 0 {
		return
	}
	b.add(models.AlertProjectedOverspend, models.SeverityWarning, "budget", nil,
		b.in.Budget.Name+" is projected to overspend",
		fmt.Sprintf("Projected spend of %s exceeds the budget by %s.", b.amount(money.Round(v.ProjectedTotal)), b.amount(money.Round(v.ProjectedVariance))),
		map[string]interface{}{
			"projected_total":    v.ProjectedTotal,
			"projected_variance": v.ProjectedVariance,
			"budget_total":       v.BudgetTotal,
		})
}

func (b *builder) income(p Params, ended bool) {
	bg := b.in.Budget
	if !bg.IncomeLinked || bg.BaseIncome <= 0 {
		return
	}
	elapsed, _, total := velocity.Elapsed(b.in.Period, b.in.AsOf)
	if !ended && float64(elapsed) < float64(total)*p.IncomeCheckElapsed {
		return
	}
	if float64(b.in.Income) >= float64(bg.BaseIncome)*p.IncomeShortfallRatio {
		return
	}
	b.add(models.AlertIncomeShortfall, models.SeverityWarning, "income", nil,
		"Income is below plan",
		fmt.Sprintf("Received %s of the expected %s.", b.amount(b.in.Income), b.amount(bg.BaseIncome)),
		map[string]interface{}{
			"actual_income": b.in.Income,
			"base_income":   bg.BaseIncome,
			"shortfall":     bg.BaseIncome - b.in.Income,
		})
}

func (b *builder) healthMilestone() {
	cur, prev := b.in.Health, b.in.PreviousHealth
	if cur == nil || prev == nil || health.Rank(cur.Label) <= health.Rank(prev.Label) {
		return
	}
	b.add(models.AlertPositiveMilestone, models.SeveritySuccess, "health:"+cur.Label, nil,
		"Budget health improved to "+cur.Label,
		fmt.Sprintf("Health score rose from %d (%s) to %d.", prev.Score, prev.Label, cur.Score),
		map[string]interface{}{
			"score":          cur.Score,
			"label":          cur.Label,
			"previous_score": prev.Score,
			"previous_label": prev.Label,
		})
}
