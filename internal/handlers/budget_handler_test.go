package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "budgetpace/internal/errors"
	"budgetpace/internal/models"
	"budgetpace/internal/pagination"
	"budgetpace/internal/repository"
	"budgetpace/internal/services"
)

// --- mock budget service ---

type mockBudgetService struct {
	createBudgetFn   func(userID string, in services.BudgetInput) (*models.Budget, error)
	getUserBudgetsFn func(userID string, page pagination.PageRequest, filter repository.BudgetFilter) (*pagination.PageResponse[models.Budget], error)
	getBudgetByIDFn  func(userID, budgetID string) (*models.Budget, error)
	updateBudgetFn   func(userID, budgetID string, in services.BudgetInput) (*models.Budget, error)
	deleteBudgetFn   func(userID, budgetID string) error
}

func (m *mockBudgetService) CreateBudget(_ context.Context, userID string, in services.BudgetInput) (*models.Budget, error) {
	if m.createBudgetFn != nil {
		return m.createBudgetFn(userID, in)
	}
	return &models.Budget{}, nil
}

func (m *mockBudgetService) GetUserBudgets(_ context.Context, userID string, page pagination.PageRequest, filter repository.BudgetFilter) (*pagination.PageResponse[models.Budget], error) {
	if m.getUserBudgetsFn != nil {
		return m.getUserBudgetsFn(userID, page, filter)
	}
	resp := pagination.NewPageResponse([]models.Budget{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockBudgetService) GetBudgetByID(_ context.Context, userID, budgetID string) (*models.Budget, error) {
	if m.getBudgetByIDFn != nil {
		return m.getBudgetByIDFn(userID, budgetID)
	}
	return &models.Budget{}, nil
}

func (m *mockBudgetService) UpdateBudget(_ context.Context, userID, budgetID string, in services.BudgetInput) (*models.Budget, error) {
	if m.updateBudgetFn != nil {
		return m.updateBudgetFn(userID, budgetID, in)
	}
	return &models.Budget{}, nil
}

func (m *mockBudgetService) DeleteBudget(_ context.Context, userID, budgetID string) error {
	if m.deleteBudgetFn != nil {
		return m.deleteBudgetFn(userID, budgetID)
	}
	return nil
}

var _ services.BudgetServicer = (*mockBudgetService)(nil)

func setupBudgetRouter(handler *BudgetHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.POST("/budgets", handler.CreateBudget)
	auth.GET("/budgets", handler.GetBudgets)
	auth.GET("/budgets/:id", handler.GetBudget)
	auth.PUT("/budgets/:id", handler.UpdateBudget)
	auth.DELETE("/budgets/:id", handler.DeleteBudget)
	return r
}

const validBudgetBody = `{
	"name": "Household",
	"budget_type": "MONTHLY",
	"period_start": "2025-01-01T00:00:00Z",
	"strategy": "ROLLOVER",
	"currency": "EUR",
	"categories": [
		{"category_id": "` + testCatID + `", "name": "Groceries", "amount": 50000, "rollover_type": "MONTHLY", "flex_group": "food"}
	]
}`

func TestBudgetHandler_CreateBudget(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		var captured services.BudgetInput
		svc := &mockBudgetService{
			createBudgetFn: func(userID string, in services.BudgetInput) (*models.Budget, error) {
				captured = in
				b := &models.Budget{UserID: userID, Name: in.Name, BudgetType: in.BudgetType, Strategy: in.Strategy, IsActive: true}
				b.ID = testBudgetID
				return b, nil
			},
		}
		audit := &mockAuditService{}
		handler := NewBudgetHandler(svc, audit)
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "POST", "/budgets", validBudgetBody)

		assertStatus(t, rec, http.StatusCreated)
		budget := parseJSON(t, rec)["budget"].(map[string]interface{})
		if budget["name"] != "Household" {
			t.Errorf("expected Household, got %v", budget["name"])
		}
		if len(captured.Categories) != 1 {
			t.Fatalf("expected one category passed to service, got %d", len(captured.Categories))
		}
		line := captured.Categories[0]
		if line.CategoryID == nil || *line.CategoryID != testCatID {
			t.Errorf("expected category id %s, got %v", testCatID, line.CategoryID)
		}
		if line.RolloverType != models.RolloverMonthly || line.Flex() != "food" {
			t.Errorf("unexpected line %+v", line)
		}
		if captured.Currency != "EUR" {
			t.Errorf("expected EUR, got %s", captured.Currency)
		}
		if len(audit.entries) != 1 || audit.entries[0].Action != "CREATE_BUDGET" || audit.entries[0].BudgetID != testBudgetID {
			t.Errorf("expected CREATE_BUDGET audit entry, got %+v", audit.entries)
		}
	})

	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"budget_type":"MONTHLY","period_start":"2025-01-01T00:00:00Z"}`},
		{"missing budget type", `{"name":"B","period_start":"2025-01-01T00:00:00Z"}`},
		{"invalid budget type", `{"name":"B","budget_type":"WEEKLY","period_start":"2025-01-01T00:00:00Z"}`},
		{"invalid strategy", `{"name":"B","budget_type":"MONTHLY","strategy":"YOLO","period_start":"2025-01-01T00:00:00Z"}`},
		{"invalid currency", `{"name":"B","budget_type":"MONTHLY","currency":"XXX","period_start":"2025-01-01T00:00:00Z"}`},
		{"invalid rollover type", `{"name":"B","budget_type":"MONTHLY","period_start":"2025-01-01T00:00:00Z","categories":[{"name":"G","amount":1,"rollover_type":"WEEKLY"}]}`},
		{"negative amount", `{"name":"B","budget_type":"MONTHLY","period_start":"2025-01-01T00:00:00Z","categories":[{"name":"G","amount":-1}]}`},
		{"invalid pay frequency", `{"name":"B","budget_type":"PAY_PERIOD","period_start":"2025-01-01T00:00:00Z","config":{"pay_frequency":"DAILY"}}`},
		{"invalid category id", `{"name":"B","budget_type":"MONTHLY","period_start":"2025-01-01T00:00:00Z","categories":[{"name":"G","amount":1,"category_id":"12"}]}`},
	}
	for _, tt := range tests {
		t.Run("returns 400 on "+tt.name, func(t *testing.T) {
			handler := NewBudgetHandler(&mockBudgetService{}, &mockAuditService{})
			r := setupBudgetRouter(handler)

			rec := doRequest(r, "POST", "/budgets", tt.body)

			assertStatus(t, rec, http.StatusBadRequest)
			assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
		})
	}

	t.Run("returns 400 on inconsistent category reference", func(t *testing.T) {
		svc := &mockBudgetService{
			createBudgetFn: func(_ string, _ services.BudgetInput) (*models.Budget, error) {
				return nil, apperrors.ErrInconsistentCategoryReference
			},
		}
		handler := NewBudgetHandler(svc, &mockAuditService{})
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "POST", "/budgets", validBudgetBody)

		assertStatus(t, rec, http.StatusBadRequest)
		assertErrorCode(t, parseJSON(t, rec), "INCONSISTENT_CATEGORY_REFERENCE")
	})

	t.Run("returns 404 on unknown category", func(t *testing.T) {
		svc := &mockBudgetService{
			createBudgetFn: func(_ string, _ services.BudgetInput) (*models.Budget, error) {
				return nil, apperrors.ErrCategoryNotFound
			},
		}
		audit := &mockAuditService{}
		handler := NewBudgetHandler(svc, audit)
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "POST", "/budgets", validBudgetBody)

		assertStatus(t, rec, http.StatusNotFound)
		assertErrorCode(t, parseJSON(t, rec), "CATEGORY_NOT_FOUND")
		if len(audit.entries) != 0 {
			t.Errorf("expected no audit entry on failure, got %+v", audit.entries)
		}
	})

	t.Run("returns 401 without auth", func(t *testing.T) {
		handler := NewBudgetHandler(&mockBudgetService{}, &mockAuditService{})
		r := gin.New()
		r.POST("/budgets", handler.CreateBudget)

		rec := doRequest(r, "POST", "/budgets", validBudgetBody)

		assertStatus(t, rec, http.StatusUnauthorized)
	})
}

func TestBudgetHandler_GetBudgets(t *testing.T) {
	t.Run("returns 200 with paginated budgets", func(t *testing.T) {
		svc := &mockBudgetService{
			getUserBudgetsFn: func(_ string, _ pagination.PageRequest, _ repository.BudgetFilter) (*pagination.PageResponse[models.Budget], error) {
				resp := pagination.NewPageResponse([]models.Budget{{Name: "Household"}, {Name: "Holiday"}}, 1, 20, 2)
				return &resp, nil
			},
		}
		handler := NewBudgetHandler(svc, &mockAuditService{})
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "GET", "/budgets", "")

		assertStatus(t, rec, http.StatusOK)
		result := parseJSON(t, rec)
		if data := result["data"].([]interface{}); len(data) != 2 {
			t.Errorf("expected 2 budgets, got %d", len(data))
		}
		if result["total_items"].(float64) != 2 {
			t.Errorf("expected total_items=2, got %v", result["total_items"])
		}
	})

	t.Run("passes filter params to service", func(t *testing.T) {
		var captured repository.BudgetFilter
		var capturedUser string
		svc := &mockBudgetService{
			getUserBudgetsFn: func(userID string, _ pagination.PageRequest, filter repository.BudgetFilter) (*pagination.PageResponse[models.Budget], error) {
				capturedUser = userID
				captured = filter
				resp := pagination.NewPageResponse([]models.Budget{}, 1, 20, 0)
				return &resp, nil
			},
		}
		handler := NewBudgetHandler(svc, &mockAuditService{})
		r := setupBudgetRouter(handler)

		doRequest(r, "GET", "/budgets?is_active=false&budget_type=ANNUAL", "")

		if capturedUser != testUserID {
			t.Errorf("expected user %s, got %s", testUserID, capturedUser)
		}
		if captured.IsActive == nil || *captured.IsActive {
			t.Error("expected is_active=false to be passed")
		}
		if captured.BudgetType == nil || *captured.BudgetType != models.BudgetTypeAnnual {
			t.Error("expected budget_type=ANNUAL to be passed")
		}
	})

	t.Run("returns 400 on invalid filters", func(t *testing.T) {
		handler := NewBudgetHandler(&mockBudgetService{}, &mockAuditService{})
		r := setupBudgetRouter(handler)

		for _, q := range []string{"is_active=maybe", "budget_type=WEEKLY", "page_size=500"} {
			rec := doRequest(r, "GET", "/budgets?"+q, "")
			assertStatus(t, rec, http.StatusBadRequest)
			assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
		}
	})
}

func TestBudgetHandler_GetBudget(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		svc := &mockBudgetService{
			getBudgetByIDFn: func(_, budgetID string) (*models.Budget, error) {
				b := &models.Budget{Name: "Household"}
				b.ID = budgetID
				return b, nil
			},
		}
		handler := NewBudgetHandler(svc, &mockAuditService{})
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "GET", "/budgets/"+testBudgetID, "")

		assertStatus(t, rec, http.StatusOK)
		budget := parseJSON(t, rec)["budget"].(map[string]interface{})
		if budget["id"] != testBudgetID {
			t.Errorf("expected id %s, got %v", testBudgetID, budget["id"])
		}
	})

	t.Run("returns 404 when not found", func(t *testing.T) {
		svc := &mockBudgetService{
			getBudgetByIDFn: func(_, _ string) (*models.Budget, error) {
				return nil, apperrors.ErrBudgetNotFound
			},
		}
		handler := NewBudgetHandler(svc, &mockAuditService{})
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "GET", "/budgets/"+testBudgetID, "")

		assertStatus(t, rec, http.StatusNotFound)
		assertErrorCode(t, parseJSON(t, rec), "BUDGET_NOT_FOUND")
	})

	t.Run("returns 400 on invalid ID", func(t *testing.T) {
		handler := NewBudgetHandler(&mockBudgetService{}, &mockAuditService{})
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "GET", "/budgets/abc", "")

		assertStatus(t, rec, http.StatusBadRequest)
	})
}

func TestBudgetHandler_UpdateBudget(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		var capturedID string
		svc := &mockBudgetService{
			updateBudgetFn: func(_, budgetID string, in services.BudgetInput) (*models.Budget, error) {
				capturedID = budgetID
				b := &models.Budget{Name: in.Name}
				b.ID = budgetID
				return b, nil
			},
		}
		audit := &mockAuditService{}
		handler := NewBudgetHandler(svc, audit)
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "PUT", "/budgets/"+testBudgetID, validBudgetBody)

		assertStatus(t, rec, http.StatusOK)
		if capturedID != testBudgetID {
			t.Errorf("expected budget %s, got %s", testBudgetID, capturedID)
		}
		if len(audit.entries) != 1 || audit.entries[0].Action != "UPDATE_BUDGET" {
			t.Errorf("expected UPDATE_BUDGET audit entry, got %+v", audit.entries)
		}
	})

	t.Run("returns 404 when not found", func(t *testing.T) {
		svc := &mockBudgetService{
			updateBudgetFn: func(_, _ string, _ services.BudgetInput) (*models.Budget, error) {
				return nil, apperrors.ErrBudgetNotFound
			},
		}
		handler := NewBudgetHandler(svc, &mockAuditService{})
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "PUT", "/budgets/"+testBudgetID, validBudgetBody)

		assertStatus(t, rec, http.StatusNotFound)
		assertErrorCode(t, parseJSON(t, rec), "BUDGET_NOT_FOUND")
	})
}

func TestBudgetHandler_DeleteBudget(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		audit := &mockAuditService{}
		handler := NewBudgetHandler(&mockBudgetService{}, audit)
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "DELETE", "/budgets/"+testBudgetID, "")

		assertStatus(t, rec, http.StatusOK)
		if msg := parseJSON(t, rec)["message"]; msg != "Budget deleted successfully" {
			t.Errorf("unexpected message: %v", msg)
		}
		if len(audit.entries) != 1 || audit.entries[0].Action != "DELETE_BUDGET" {
			t.Errorf("expected DELETE_BUDGET audit entry, got %+v", audit.entries)
		}
	})

	t.Run("returns 404 when not found", func(t *testing.T) {
		svc := &mockBudgetService{
			deleteBudgetFn: func(_, _ string) error {
				return apperrors.ErrBudgetNotFound
			},
		}
		handler := NewBudgetHandler(svc, &mockAuditService{})
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "DELETE", "/budgets/"+testBudgetID, "")

		assertStatus(t, rec, http.StatusNotFound)
		assertErrorCode(t, parseJSON(t, rec), "BUDGET_NOT_FOUND")
	})

	t.Run("returns 400 on invalid ID", func(t *testing.T) {
		handler := NewBudgetHandler(&mockBudgetService{}, &mockAuditService{})
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "DELETE", "/budgets/abc", "")

		assertStatus(t, rec, http.StatusBadRequest)
	})
}
