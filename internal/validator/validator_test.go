package validator

import (
	"testing"

	"github.com/gin-gonic/gin/binding"

	"budgetpace/internal/models"
)

type sample struct {
	Currency string               `binding:"required,iso4217"`
	Type     models.BudgetType    `binding:"required,budget_type"`
	Rollover *models.RolloverType `binding:"omitempty,rollover_type"`
	Profile  string               `binding:"omitempty,generator_profile"`
}

func TestRegister(t *testing.T) {
	Register()
	Register()

	quarterly := models.RolloverQuarterly
	bogus := models.RolloverType("WEEKLY")

	tests := []struct {
		name  string
		in    sample
		valid bool
	}{
		{"valid", sample{Currency: "USD", Type: models.BudgetTypeMonthly, Rollover: &quarterly, Profile: "AGGRESSIVE"}, true},
		{"nil optional pointer", sample{Currency: "EUR", Type: models.BudgetTypeAnnual}, true},
		{"unknown currency", sample{Currency: "XXX", Type: models.BudgetTypeMonthly}, false},
		{"lowercase currency", sample{Currency: "usd", Type: models.BudgetTypeMonthly}, false},
		{"unknown budget type", sample{Currency: "USD", Type: "DAILY"}, false},
		{"unknown rollover", sample{Currency: "USD", Type: models.BudgetTypePayPeriod, Rollover: &bogus}, false},
		{"unknown profile", sample{Currency: "USD", Type: models.BudgetTypeMonthly, Profile: "RELAXED"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := binding.Validator.ValidateStruct(&tt.in)
			if tt.valid && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tt.valid && err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestCurrencyList(t *testing.T) {
	for _, code := range []string{"USD", "GBP", "JPY", "ZWL"} {
		if !validCurrencies[code] {
			t.Errorf("expected %s to be accepted", code)
		}
	}
	if len(validCurrencies) < 150 {
		t.Errorf("expected the full ISO 4217 list, got %d codes", len(validCurrencies))
	}
}
