// Package notify publishes newly created alerts to downstream consumers.
package notify

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"budgetpace/internal/models"
)

// Publisher delivers alert events. Publishing happens after the alerts are
// committed; a failed publish never rolls them back.
type Publisher interface {
	Publish(ctx context.Context, events []AlertEvent) error
	Close() error
}

// AlertEvent is the message body sent for each new alert.
type AlertEvent struct {
	AlertID          string                 `json:"alert_id"`
	BudgetID         string                 `json:"budget_id"`
	BudgetName       string                 `json:"budget_name"`
	UserID           string                 `json:"user_id"`
	BudgetCategoryID *string                `json:"budget_category_id,omitempty"`
	AlertType        models.AlertType       `json:"alert_type"`
	Severity         models.AlertSeverity   `json:"severity"`
	Title            string                 `json:"title"`
	Message          string                 `json:"message"`
	Data             map[string]interface{} `json:"data,omitempty"`
	PeriodStart      string                 `json:"period_start"`
	CreatedAt        time.Time              `json:"created_at"`
}

// EventsFor builds one event per alert of budget b.
func EventsFor(b *models.Budget, alerts []models.BudgetAlert) []AlertEvent {
	events := make([]AlertEvent, 0, len(alerts))
	for _, a := range alerts {
		events = append(events, AlertEvent{
			AlertID:          a.ID,
			BudgetID:         b.ID,
			BudgetName:       b.Name,
			UserID:           b.UserID,
			BudgetCategoryID: a.BudgetCategoryID,
			AlertType:        a.AlertType,
			Severity:         a.Severity,
			Title:            a.Title,
			Message:          a.Message,
			Data:             a.Data,
			PeriodStart:      a.PeriodStart.Format("2006-01-02"),
			CreatedAt:        a.CreatedAt,
		})
	}
	return events
}

// ToJSON encodes the event.
func (e AlertEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// RoutingKey routes events by alert type, e.g. "alert.over_budget".
func (e AlertEvent) RoutingKey() string {
	return "alert." + strings.ToLower(string(e.AlertType))
}

// Nop discards events. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, []AlertEvent) error { return nil }
func (Nop) Close() error { return nil }
