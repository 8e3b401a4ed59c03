// Package generator suggests a budget from months of transaction history.
// The result is advisory; nothing here persists a budget.
package generator

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"budgetpace/internal/aggregator"
	apperrors "budgetpace/internal/errors"
	"budgetpace/internal/models"
	"budgetpace/internal/money"
	"budgetpace/internal/period"
)

// Profile tunes how conservative suggestions are.
type Profile string

const (
	ProfileComfortable Profile = "COMFORTABLE"
	ProfileOnTrack     Profile = "ON_TRACK"
	ProfileAggressive  Profile = "AGGRESSIVE"
)

// Params tunes the generator.
type Params struct {
	MinMonths      int     `toml:"min_months"`
	FixedCV        float64 `toml:"fixed_cv"`
	SeasonalFactor float64 `toml:"seasonal_factor"`
	Parallelism    int     `toml:"parallelism"`
}

// DefaultParams returns the production defaults.
func DefaultParams() Params {
	return Params{MinMonths: 3, FixedCV: 0.1, SeasonalFactor: 1.5, Parallelism: 8}
}

// Request selects the window and tuning of a suggestion.
type Request struct {
	Months   int                   `json:"months"`
	Strategy models.BudgetStrategy `json:"strategy"`
	Profile  Profile               `json:"profile"`
	AsOf     time.Time             `json:"as_of"`
}

// Window returns the whole months analyzed: the Months calendar months
// before the month of AsOf.
func (r Request) Window() period.Interval {
	end := period.MonthOrdinal(r.AsOf) - 1
	return period.Interval{
		Start: period.MonthStart(end - r.Months + 1),
		End:   period.MonthInterval(end).End,
	}
}

// Validate checks the request.
func (r *Request) Validate() error {
	switch r.Months {
	case 3, 6, 12:
	default:
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "months must be 3, 6 or 12")
	}
	switch r.Profile {
	case "":
		r.Profile = ProfileOnTrack
	case ProfileComfortable, ProfileOnTrack, ProfileAggressive:
	default:
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown profile "+string(r.Profile))
	}
	if r.Strategy == "" {
		r.Strategy = models.StrategyFixed
	}
	if r.AsOf.IsZero() {
		r.AsOf = time.Now()
	}
	return nil
}

// CategoryAnalysis is the history of one ledger category.
type CategoryAnalysis struct {
	CategoryID string `json:"category_id"`
	Name       string `json:"name"`
	Stats
}

// TransferAnalysis is the history of transfers into one account.
type TransferAnalysis struct {
	AccountID string `json:"account_id"`
	Stats
}

// GroupTargets is the 50/30/20 split of estimated income.
type GroupTargets struct {
	Need   int64 `json:"need"`
	Want   int64 `json:"want"`
	Saving int64 `json:"saving"`
}

// Response is the suggested budget.
type Response struct {
	Months                  int                   `json:"months"`
	MonthsAvailable         int                   `json:"months_available"`
	Strategy                models.BudgetStrategy `json:"strategy"`
	Profile                 Profile               `json:"profile"`
	PeriodStart             time.Time             `json:"period_start"`
	PeriodEnd               time.Time             `json:"period_end"`
	EstimatedMonthlyIncome  int64                 `json:"estimated_monthly_income"`
	Categories              []CategoryAnalysis    `json:"categories"`
	Transfers               []TransferAnalysis    `json:"transfers"`
	UncategorizedAverage    float64               `json:"uncategorized_average"`
	TotalBudgeted           int64                 `json:"total_budgeted"`
	TotalTransfers          int64                 `json:"total_transfers"`
	ProjectedMonthlySavings int64                 `json:"projected_monthly_savings"`
	GroupTargets            *GroupTargets         `json:"group_targets,omitempty"`
	UnallocatedIncome       *int64                `json:"unallocated_income,omitempty"`
	InsufficientHistory     bool                  `json:"insufficient_history"`
}

type stream struct {
	key         string
	transfer    bool
	monthly     map[int]int64
	occurrences int
}

// Generate analyzes history lines inside the request window. earliest is
// the date of the user's first ledger entry and bounds how many months of
// the window actually have history; zero means the whole window does.
func Generate(ctx context.Context, lines []aggregator.Line, tree *aggregator.Tree, earliest time.Time, req Request, p Params) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	win := req.Window()
	first, last := period.MonthOrdinal(win.Start), period.MonthOrdinal(win.End)
	if !earliest.IsZero() && period.MonthOrdinal(earliest) > first {
		first = period.MonthOrdinal(earliest)
	}

	resp := &Response{
		Months:      req.Months,
		Strategy:    req.Strategy,
		Profile:     req.Profile,
		PeriodStart: win.Start,
		PeriodEnd:   win.End,
		Categories:  []CategoryAnalysis{},
		Transfers:   []TransferAnalysis{},
	}
	if last >= first {
		resp.MonthsAvailable = last - first + 1
	}

	streams := make(map[string]*stream)
	income := make(map[int]int64)
	var uncategorized int64
	for _, l := range lines {
		m := period.MonthOrdinal(l.Date)
		if m < first || m > last {
			continue
		}
		key, kind, amount := aggregator.HistoryKey(tree, l)
		switch kind {
		case aggregator.KindIncome:
			income[m] += amount
			continue
		case aggregator.KindUncategorized:
			uncategorized += amount
			continue
		case aggregator.KindIgnored:
			continue
		}
		id := key
		if kind == aggregator.KindTransfer {
			id = "account:" + key
		}
		s, ok := streams[id]
		if !ok {
			s = &stream{key: key, transfer: kind == aggregator.KindTransfer, monthly: make(map[int]int64)}
			streams[id] = s
		}
		s.monthly[m] += amount
		s.occurrences++
	}

	if resp.MonthsAvailable > 0 {
		monthlyIncome := make([]int64, 0, resp.MonthsAvailable)
		for m := first; m <= last; m++ {
			monthlyIncome = append(monthlyIncome, income[m])
		}
		resp.EstimatedMonthlyIncome = money.Round(summarize(monthlyIncome, 0, p.FixedCV).Median)
		resp.UncategorizedAverage = money.Round2(float64(uncategorized) / float64(resp.MonthsAvailable))
	}

	if resp.MonthsAvailable < p.MinMonths {
		resp.InsufficientHistory = true
		resp.ProjectedMonthlySavings = resp.EstimatedMonthlyIncome
		applyStrategy(resp)
		return resp, nil
	}

	keys := make([]string, 0, len(streams))
	for k := range streams {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	results := make([]Stats, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	if p.Parallelism > 0 {
		g.SetLimit(p.Parallelism)
	}
	for i, k := range keys {
		s := streams[k]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = analyze(s, first, last, req.Profile, p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, k := range keys {
		s, st := streams[k], results[i]
		if st.Suggested <= 0 {
			continue
		}
		if s.transfer {
			resp.Transfers = append(resp.Transfers, TransferAnalysis{AccountID: s.key, Stats: st})
			resp.TotalTransfers += st.Suggested
			continue
		}
		resp.Categories = append(resp.Categories, CategoryAnalysis{CategoryID: s.key, Name: tree.Name(s.key), Stats: st})
		resp.TotalBudgeted += st.Suggested
	}

	sort.SliceStable(resp.Categories, func(i, j int) bool {
		return resp.Categories[i].Suggested > resp.Categories[j].Suggested
	})
	sort.SliceStable(resp.Transfers, func(i, j int) bool {
		return resp.Transfers[i].Suggested > resp.Transfers[j].Suggested
	})

	resp.ProjectedMonthlySavings = resp.EstimatedMonthlyIncome - resp.TotalBudgeted - resp.TotalTransfers
	applyStrategy(resp)
	return resp, nil
}

func analyze(s *stream, first, last int, profile Profile, p Params) Stats {
	monthly := make([]int64, 0, last-first+1)
	for m := first; m <= last; m++ {
		monthly = append(monthly, s.monthly[m])
	}
	st := summarize(monthly, s.occurrences, p.FixedCV)
	st.Suggested = suggest(st, profile)

	if st.Median > 0 {
		for k, v := range monthly {
			if float64(v) > st.Median*p.SeasonalFactor {
				cm := int(period.MonthStart(first + k).Month())
				if !containsInt(st.SeasonalMonths, cm) {
					st.SeasonalMonths = append(st.SeasonalMonths, cm)
				}
			}
		}
		sort.Ints(st.SeasonalMonths)
	}
	return st
}

// suggest applies the profile. Fixed costs are budgeted at their median.
func suggest(st Stats, profile Profile) int64 {
	if st.IsFixed {
		return money.Round(st.Median)
	}
	switch profile {
	case ProfileComfortable:
		return money.CeilUnit(st.P75)
	case ProfileAggressive:
		return money.FloorUnit(st.P25)
	default:
		return money.RoundUnit(st.Median)
	}
}

func applyStrategy(resp *Response) {
	switch resp.Strategy {
	case models.StrategyFiftyThirtyTwenty:
		inc := resp.EstimatedMonthlyIncome
		resp.GroupTargets = &GroupTargets{
			Need:   inc * 50 / 100,
			Want:   inc * 30 / 100,
			Saving: inc - inc*50/100 - inc*30/100,
		}
	case models.StrategyZeroBased:
		left := resp.EstimatedMonthlyIncome - resp.TotalBudgeted - resp.TotalTransfers
		resp.UnallocatedIncome = &left
	}
}

func containsInt(vs []int, v int) bool {
	for _, x := range vs {
		if x == v {
			return true
		}
	}
	return false
}
