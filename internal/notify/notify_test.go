package notify

import (
	"encoding/json"
	"testing"
	"time"

	"budgetpace/internal/models"
)

func TestEventsFor(t *testing.T) {
	catID := "cat-1"
	b := &models.Budget{Name: "Household", UserID: "user-1"}
	b.ID = "budget-1"
	alert := models.BudgetAlert{
		BudgetID:         b.ID,
		BudgetCategoryID: &catID,
		AlertType:        models.AlertOverBudget,
		Severity:         models.SeverityCritical,
		Title:            "Food over budget",
		Message:          "Food is 112% of budget",
		PeriodStart:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	alert.ID = "alert-1"

	events := EventsFor(b, []models.BudgetAlert{alert})
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.UserID != "user-1" || e.BudgetName != "Household" {
		t.Errorf("expected budget fields copied, got %+v", e)
	}
	if e.PeriodStart != "2024-03-01" {
		t.Errorf("expected period start 2024-03-01, got %s", e.PeriodStart)
	}
	if e.RoutingKey() != "alert.over_budget" {
		t.Errorf("expected routing key alert.over_budget, got %s", e.RoutingKey())
	}

	body, err := e.ToJSON()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded["alert_type"] != "OVER_BUDGET" {
		t.Errorf("expected alert_type OVER_BUDGET, got %v", decoded["alert_type"])
	}
}
