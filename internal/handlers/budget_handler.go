package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "budgetpace/internal/errors"
	"budgetpace/internal/models"
	"budgetpace/internal/pagination"
	"budgetpace/internal/repository"
	"budgetpace/internal/services"
)

// BudgetHandler handles budget definition requests.
type BudgetHandler struct {
	budgetService services.BudgetServicer
	auditService  services.AuditServicer
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetService services.BudgetServicer, auditService services.AuditServicer) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService, auditService: auditService}
}

// BudgetCategoryRequest is one budget line. Exactly one of category_id and
// transfer_account_id must be set; the service enforces it.
type BudgetCategoryRequest struct {
	ID                   string                `json:"id" binding:"omitempty,uuid"`
	CategoryID           *string               `json:"category_id" binding:"omitempty,uuid"`
	TransferAccountID    *string               `json:"transfer_account_id" binding:"omitempty,uuid"`
	IsTransfer           bool                  `json:"is_transfer"`
	Name                 string                `json:"name" binding:"required,min=1,max=100"`
	Amount               int64                 `json:"amount" binding:"gte=0"`
	IsIncome             bool                  `json:"is_income"`
	CategoryGroup        *models.CategoryGroup `json:"category_group" binding:"omitempty,category_group"`
	RolloverType         models.RolloverType   `json:"rollover_type" binding:"omitempty,rollover_type"`
	RolloverCap          *int64                `json:"rollover_cap" binding:"omitempty,gte=0"`
	FlexGroup            *string               `json:"flex_group" binding:"omitempty,min=1,max=50"`
	AlertWarnPercent     *float64              `json:"alert_warn_percent" binding:"omitempty,gt=0,lte=100"`
	AlertCriticalPercent *float64              `json:"alert_critical_percent" binding:"omitempty,gt=0,lte=100"`
}

// BudgetConfigRequest carries the cadence and alert defaults of a budget.
type BudgetConfigRequest struct {
	FiscalYearStartMonth   int                 `json:"fiscal_year_start_month" binding:"omitempty,min=1,max=12"`
	PayFrequency           models.PayFrequency `json:"pay_frequency" binding:"omitempty,pay_frequency"`
	PayDayOfMonth          int                 `json:"pay_day_of_month" binding:"omitempty,min=1,max=31"`
	DefaultWarnPercent     float64             `json:"default_warn_percent" binding:"omitempty,gt=0,lte=100"`
	DefaultCriticalPercent float64             `json:"default_critical_percent" binding:"omitempty,gt=0,lte=100"`
	AccountIDs             []string            `json:"account_ids" binding:"omitempty,dive,uuid"`
}

// BudgetRequest is the payload of budget create and update. An update
// replaces the whole category set.
type BudgetRequest struct {
	Name         string                  `json:"name" binding:"required,min=1,max=100"`
	BudgetType   models.BudgetType       `json:"budget_type" binding:"required,budget_type"`
	PeriodStart  time.Time               `json:"period_start" binding:"required"`
	PeriodEnd    *time.Time              `json:"period_end"`
	BaseIncome   int64                   `json:"base_income" binding:"gte=0"`
	IncomeLinked bool                    `json:"income_linked"`
	Strategy     models.BudgetStrategy   `json:"strategy" binding:"omitempty,budget_strategy"`
	Currency     string                  `json:"currency" binding:"omitempty,iso4217"`
	IsActive     *bool                   `json:"is_active"`
	Config       BudgetConfigRequest     `json:"config"`
	Categories   []BudgetCategoryRequest `json:"categories" binding:"omitempty,dive"`
}

func (r *BudgetRequest) input() services.BudgetInput {
	in := services.BudgetInput{
		Name:         r.Name,
		BudgetType:   r.BudgetType,
		PeriodStart:  r.PeriodStart,
		PeriodEnd:    r.PeriodEnd,
		BaseIncome:   r.BaseIncome,
		IncomeLinked: r.IncomeLinked,
		Strategy:     r.Strategy,
		Currency:     r.Currency,
		IsActive:     r.IsActive,
		Config: models.BudgetConfig{
			FiscalYearStartMonth:   r.Config.FiscalYearStartMonth,
			PayFrequency:           r.Config.PayFrequency,
			PayDayOfMonth:          r.Config.PayDayOfMonth,
			DefaultWarnPercent:     r.Config.DefaultWarnPercent,
			DefaultCriticalPercent: r.Config.DefaultCriticalPercent,
			AccountIDs:             r.Config.AccountIDs,
		},
		Categories: make([]models.BudgetCategory, 0, len(r.Categories)),
	}
	for _, c := range r.Categories {
		bc := models.BudgetCategory{
			CategoryID:           c.CategoryID,
			TransferAccountID:    c.TransferAccountID,
			IsTransfer:           c.IsTransfer,
			Name:                 c.Name,
			Amount:               c.Amount,
			IsIncome:             c.IsIncome,
			CategoryGroup:        c.CategoryGroup,
			RolloverType:         c.RolloverType,
			RolloverCap:          c.RolloverCap,
			FlexGroup:            c.FlexGroup,
			AlertWarnPercent:     c.AlertWarnPercent,
			AlertCriticalPercent: c.AlertCriticalPercent,
		}
		bc.ID = c.ID
		in.Categories = append(in.Categories, bc)
	}
	return in
}

// CreateBudget handles the creation of a new budget.
func (h *BudgetHandler) CreateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req BudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	budget, err := h.budgetService.CreateBudget(c.Request.Context(), userID, req.input())
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Record(c.Request.Context(), services.AuditEntry{
		UserID:    userID,
		Action:    services.AuditCreateBudget,
		BudgetID:  budget.ID,
		IPAddress: c.ClientIP(),
		Changes:   map[string]interface{}{"name": req.Name, "budget_type": req.BudgetType, "categories": len(req.Categories)},
	})

	c.JSON(http.StatusCreated, gin.H{"budget": budget})
}

// GetBudgets handles listing budgets for the authenticated user.
// Optional filters: is_active (true/false) and budget_type.
func (h *BudgetHandler) GetBudgets(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var filter repository.BudgetFilter
	if v := c.Query("is_active"); v != "" {
		switch v {
		case "true":
			b := true
			filter.IsActive = &b
		case "false":
			b := false
			filter.IsActive = &b
		default:
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "is_active must be 'true' or 'false'"))
			return
		}
	}

	if v := c.Query("budget_type"); v != "" {
		t := models.BudgetType(v)
		switch t {
		case models.BudgetTypeMonthly, models.BudgetTypeAnnual, models.BudgetTypePayPeriod:
			filter.BudgetType = &t
		default:
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "budget_type must be MONTHLY, ANNUAL or PAY_PERIOD"))
			return
		}
	}

	result, err := h.budgetService.GetUserBudgets(c.Request.Context(), userID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetBudget handles retrieving a specific budget with its categories.
func (h *BudgetHandler) GetBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.GetBudgetByID(c.Request.Context(), userID, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// UpdateBudget handles replacing a budget definition.
func (h *BudgetHandler) UpdateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req BudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	budget, err := h.budgetService.UpdateBudget(c.Request.Context(), userID, budgetID, req.input())
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Record(c.Request.Context(), services.AuditEntry{
		UserID:    userID,
		Action:    services.AuditUpdateBudget,
		BudgetID:  budgetID,
		IPAddress: c.ClientIP(),
		Changes:   map[string]interface{}{"name": req.Name, "categories": len(req.Categories)},
	})

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// DeleteBudget handles deleting a budget (soft delete).
func (h *BudgetHandler) DeleteBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.budgetService.DeleteBudget(c.Request.Context(), userID, budgetID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Record(c.Request.Context(), services.AuditEntry{
		UserID:    userID,
		Action:    services.AuditDeleteBudget,
		BudgetID:  budgetID,
		IPAddress: c.ClientIP(),
	})

	c.JSON(http.StatusOK, MessageResponse{Message: "Budget deleted successfully"})
}
