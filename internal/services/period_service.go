package services

import (
	"context"
	"errors"
	"time"

	"budgetpace/internal/config"
	apperrors "budgetpace/internal/errors"
	"budgetpace/internal/logger"
	"budgetpace/internal/models"
	"budgetpace/internal/period"
	"budgetpace/internal/repository"
)

// periodService closes budget periods.
type periodService struct {
	store repository.Store
	engine
}

// NewPeriodService creates a new PeriodServicer.
func NewPeriodService(store repository.Store, cfg config.EngineConfig) PeriodServicer {
	return &periodService{store: store, engine: newEngine(cfg)}
}

// ClosePeriod computes and stores the period starting at periodStart in one
// transaction. A lost race against another closer is retried; the retry
// finds the winner's rows and returns them.
func (s *periodService) ClosePeriod(ctx context.Context, budgetID string, periodStart, asOf time.Time) (*models.BudgetPeriod, error) {
	b, err := s.store.Budgets().GetBudget(ctx, "", budgetID)
	if err != nil {
		return nil, err
	}
	return s.closeBudgetPeriod(ctx, b, periodStart, asOf)
}

func (s *periodService) closeBudgetPeriod(ctx context.Context, b *models.Budget, periodStart, asOf time.Time) (*models.BudgetPeriod, error) {
	r, err := period.ForBudget(b)
	if err != nil {
		return nil, err
	}
	idx := r.Index(periodStart)
	iv := r.At(idx)
	if idx < 0 || !iv.Start.Equal(period.Date(periodStart)) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "period_start does not begin a period of this budget")
	}
	if last, ok := lastIndex(b, r); ok && idx > last {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "period_start is after the budget end")
	}
	if !period.Date(asOf).After(iv.End) {
		return nil, apperrors.ErrPeriodNotEnded
	}

	var rec *models.BudgetPeriod
	for attempt := 0; ; attempt++ {
		rec, err = s.closeOnce(ctx, b, idx, iv)
		if err == nil || !errors.Is(err, apperrors.ErrConcurrentPeriodClose) || attempt >= s.cfg.Rollover.CloseRetries {
			break
		}
		logger.Get().Warnw("period close raced, retrying",
			"budget_id", b.ID,
			"period_start", iv.Start.Format(time.DateOnly),
		)
	}
	return rec, err
}

func (s *periodService) closeOnce(ctx context.Context, b *models.Budget, idx int, iv period.Interval) (*models.BudgetPeriod, error) {
	var rec *models.BudgetPeriod
	created := false
	err := s.store.Atomic(ctx, func(tx repository.Store) error {
		existing, err := tx.Budgets().GetPeriod(ctx, b.ID, iv.Start)
		if err != nil {
			return err
		}
		if existing != nil && existing.Status == models.PeriodClosed {
			rec = existing
			return nil
		}

		snap, err := s.load(ctx, tx, b, idx, 0)
		if err != nil {
			return err
		}
		record := snap.current().Record(b, s.now().UTC())
		if err := tx.Budgets().ClosePeriod(ctx, record); err != nil {
			return err
		}

		rec, err = tx.Budgets().GetPeriod(ctx, b.ID, iv.Start)
		created = true
		return err
	})
	if err != nil {
		return nil, err
	}

	if created {
		logger.Get().Infow("closed budget period",
			"budget_id", b.ID,
			"period_start", iv.Start.Format(time.DateOnly),
			"actual_expenses", rec.ActualExpenses,
			"total_budgeted", rec.TotalBudgeted,
			"categories", len(rec.Categories),
		)
	}
	return rec, nil
}

// CloseDuePeriods closes every ended, unclosed period of the active
// budgets, oldest first, and makes sure the period containing asOf has an
// OPEN row. Failures are reported per budget and do not stop the run.
func (s *periodService) CloseDuePeriods(ctx context.Context, asOf time.Time) (*CloseReport, error) {
	budgets, err := s.store.Budgets().ListActiveBudgets(ctx)
	if err != nil {
		return nil, err
	}

	out := &CloseReport{Closed: []CloseOutcome{}, Failed: []CloseOutcome{}}
	for i := range budgets {
		b := &budgets[i]
		r, err := period.ForBudget(b)
		if err != nil {
			out.Failed = append(out.Failed, CloseOutcome{BudgetID: b.ID, PeriodStart: b.PeriodStart, Error: err.Error()})
			continue
		}

		current := r.Index(asOf)
		if current < 0 {
			continue
		}
		// An ended budget has its last period closed and nothing opened
		// after it.
		due, open := current, true
		if last, ok := lastIndex(b, r); ok && last < current {
			due, open = last+1, false
		}

		stored, err := s.store.Budgets().ListPeriods(ctx, b.ID, r.At(0).Start, r.At(current).Start)
		if err != nil {
			return nil, err
		}
		closed := make(map[time.Time]bool, len(stored))
		for _, p := range stored {
			if p.Status == models.PeriodClosed {
				closed[period.Date(p.PeriodStart)] = true
			}
		}

		// Oldest first from the budget start, so each close anchors the
		// rollover of the next.
		for idx := 0; idx < due; idx++ {
			iv := r.At(idx)
			if closed[iv.Start] {
				continue
			}
			if _, err := s.closeBudgetPeriod(ctx, b, iv.Start, asOf); err != nil {
				logger.Get().Errorw("failed to close budget period",
					"error", err,
					"budget_id", b.ID,
					"period_start", iv.Start.Format(time.DateOnly),
				)
				out.Failed = append(out.Failed, CloseOutcome{BudgetID: b.ID, PeriodStart: iv.Start, Error: err.Error()})
				break
			}
			out.Closed = append(out.Closed, CloseOutcome{BudgetID: b.ID, PeriodStart: iv.Start})
		}

		if !open {
			continue
		}
		iv := r.At(current)
		if err := s.store.Budgets().EnsureOpenPeriod(ctx, &models.BudgetPeriod{BudgetID: b.ID, PeriodStart: iv.Start, PeriodEnd: iv.End}); err != nil {
			return nil, err
		}
	}

	logger.Get().Infow("closed due periods",
		"as_of", period.Date(asOf).Format(time.DateOnly),
		"closed", len(out.Closed),
		"failed", len(out.Failed),
	)
	return out, nil
}
