package services

import (
	"context"
	"time"

	"budgetpace/internal/alerts"
	"budgetpace/internal/config"
	"budgetpace/internal/logger"
	"budgetpace/internal/models"
	"budgetpace/internal/money"
	"budgetpace/internal/notify"
	"budgetpace/internal/pagination"
	"budgetpace/internal/period"
	"budgetpace/internal/repository"
)

// alertService generates and manages budget alerts.
type alertService struct {
	store     repository.Store
	publisher notify.Publisher
	engine
}

// NewAlertService creates a new AlertServicer. A nil publisher discards
// events.
func NewAlertService(store repository.Store, publisher notify.Publisher, cfg config.EngineConfig) AlertServicer {
	if publisher == nil {
		publisher = notify.Nop{}
	}
	return &alertService{store: store, publisher: publisher, engine: newEngine(cfg)}
}

// GenerateAlerts evaluates the period containing asOf. Candidates whose
// dedup key matches an unread alert are dropped; the rest are appended in
// one transaction and published once it commits.
func (s *alertService) GenerateAlerts(ctx context.Context, userID, budgetID string, asOf time.Time) ([]models.BudgetAlert, error) {
	b, err := s.store.Budgets().GetBudget(ctx, userID, budgetID)
	if err != nil {
		return nil, err
	}
	in, err := s.evaluate(ctx, b, asOf)
	if err != nil {
		return nil, err
	}
	candidates := alerts.Evaluate(in, s.cfg.Alerts)

	var created []models.BudgetAlert
	err = s.store.Atomic(ctx, func(tx repository.Store) error {
		unread, err := tx.Alerts().UnreadDedupKeys(ctx, b.ID)
		if err != nil {
			return err
		}
		fresh := make([]models.BudgetAlert, 0, len(candidates))
		for _, a := range candidates {
			if unread[a.DedupKey] {
				continue
			}
			unread[a.DedupKey] = true
			fresh = append(fresh, a)
		}
		created, err = tx.Alerts().AppendAlerts(ctx, fresh)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Get().Infow("generated budget alerts",
		"budget_id", b.ID,
		"period_start", in.Period.Start.Format(time.DateOnly),
		"candidates", len(candidates),
		"created", len(created),
	)

	if len(created) > 0 {
		if err := s.publisher.Publish(ctx, notify.EventsFor(b, created)); err != nil {
			logger.Get().Errorw("failed to publish alert events",
				"error", err,
				"budget_id", b.ID,
				"alerts", len(created),
			)
		}
	}
	return created, nil
}

// evaluate gathers the rule inputs of the period containing asOf.
func (s *alertService) evaluate(ctx context.Context, b *models.Budget, asOf time.Time) (alerts.Input, error) {
	r, err := period.ForBudget(b)
	if err != nil {
		return alerts.Input{}, err
	}
	snap, err := s.load(ctx, s.store, b, targetIndex(b, r, asOf), healthHistory+1)
	if err != nil {
		return alerts.Input{}, err
	}
	view := snap.current()
	sum := snap.summarize(asOf)

	overall, cats, err := s.project(ctx, s.store, &sum, b.UserID, asOf)
	if err != nil {
		return alerts.Input{}, err
	}
	patterns, err := s.seasonality(ctx, s.store, b, asOf)
	if err != nil {
		return alerts.Input{}, err
	}

	current := s.score(snap, &sum)
	in := alerts.Input{
		Budget:     b,
		Period:     view.Interval,
		AsOf:       asOf,
		FlexGroups: view.FlexGroups,
		Seasonal:   &patterns,
		Velocity:   overall,
		Income:     view.Income,
		Health:     &current,
	}
	if prev, ok := snap.previous(); ok {
		before := &snapshot{budget: b, resolver: snap.resolver, tree: snap.tree, views: snap.views[:len(snap.views)-1]}
		prevSum := before.summarize(prev.Interval.End)
		h := s.score(before, &prevSum)
		in.PreviousHealth = &h
	}

	byID := make(map[string]int, len(cats))
	for i, c := range cats {
		byID[c.BudgetCategoryID] = i
	}
	for _, st := range view.States {
		c, ok := b.CategoryByID(st.BudgetCategoryID)
		if !ok || c.IsIncome {
			continue
		}
		ac := alerts.Category{Budget: c, State: st, Percent: money.Percent(st.Actual, st.Effective)}
		if i, ok := byID[st.BudgetCategoryID]; ok {
			ac.Projection = cats[i].Projection
		}
		in.Categories = append(in.Categories, ac)
	}
	return in, nil
}

// ListAlerts returns a page of a budget's alerts, newest first.
func (s *alertService) ListAlerts(ctx context.Context, userID, budgetID string, unreadOnly bool, page pagination.PageRequest) (*pagination.PageResponse[models.BudgetAlert], error) {
	page.Defaults()

	if _, err := s.store.Budgets().GetBudget(ctx, userID, budgetID); err != nil {
		return nil, err
	}
	items, total, err := s.store.Alerts().ListAlerts(ctx, budgetID, unreadOnly, page)
	if err != nil {
		return nil, err
	}

	result := pagination.NewPageResponse(items, page.Page, page.PageSize, total)
	return &result, nil
}

// MarkRead marks an alert of the user read.
func (s *alertService) MarkRead(ctx context.Context, userID, alertID string) (*models.BudgetAlert, error) {
	if _, err := s.store.Alerts().GetAlert(ctx, userID, alertID); err != nil {
		return nil, err
	}
	if err := s.store.Alerts().MarkRead(ctx, alertID); err != nil {
		return nil, err
	}
	return s.store.Alerts().GetAlert(ctx, userID, alertID)
}

// MarkEmailSent records that the notifier delivered an alert.
func (s *alertService) MarkEmailSent(ctx context.Context, alertID string) (*models.BudgetAlert, error) {
	if err := s.store.Alerts().MarkEmailSent(ctx, alertID); err != nil {
		return nil, err
	}
	return s.store.Alerts().GetAlert(ctx, "", alertID)
}
