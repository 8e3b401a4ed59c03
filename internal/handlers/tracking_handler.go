package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "budgetpace/internal/errors"
	"budgetpace/internal/generator"
	"budgetpace/internal/models"
	"budgetpace/internal/services"
)

// defaultTrendPeriods is used when the periods query parameter is absent.
const defaultTrendPeriods = 6

// TrackingHandler serves the computed views of budgets. Every endpoint
// accepts date=YYYY-MM-DD to evaluate as of another day.
type TrackingHandler struct {
	trackingService services.TrackingServicer
}

// NewTrackingHandler creates a new TrackingHandler.
func NewTrackingHandler(trackingService services.TrackingServicer) *TrackingHandler {
	return &TrackingHandler{trackingService: trackingService}
}

// budgetRequest reads the user, the :id budget and the as-of date shared by
// the per-budget endpoints.
func budgetRequest(c *gin.Context) (userID, budgetID string, asOf time.Time, err error) {
	if userID, err = getUserID(c); err != nil {
		return
	}
	if budgetID, err = parsePathID(c, "id"); err != nil {
		return
	}
	asOf, err = parseAsOf(c)
	return
}

// GetSummary handles the period summary of a budget.
func (h *TrackingHandler) GetSummary(c *gin.Context) {
	userID, budgetID, asOf, err := budgetRequest(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.trackingService.GetSummary(c.Request.Context(), userID, budgetID, asOf)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// GetVelocity handles the spending pace projection of a budget.
func (h *TrackingHandler) GetVelocity(c *gin.Context) {
	userID, budgetID, asOf, err := budgetRequest(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	v, err := h.trackingService.GetVelocity(c.Request.Context(), userID, budgetID, asOf)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"velocity": v})
}

// GetHealthScore handles the health score of a budget.
func (h *TrackingHandler) GetHealthScore(c *gin.Context) {
	userID, budgetID, asOf, err := budgetRequest(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	score, err := h.trackingService.GetHealthScore(c.Request.Context(), userID, budgetID, asOf)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"health": score})
}

// GetSeasonalPatterns handles the seasonal analysis of a budget.
func (h *TrackingHandler) GetSeasonalPatterns(c *gin.Context) {
	userID, budgetID, asOf, err := budgetRequest(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	res, err := h.trackingService.GetSeasonalPatterns(c.Request.Context(), userID, budgetID, asOf)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"seasonal": res})
}

// GetFlexGroups handles the pooled flex group status of a budget.
func (h *TrackingHandler) GetFlexGroups(c *gin.Context) {
	userID, budgetID, asOf, err := budgetRequest(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	groups, err := h.trackingService.GetFlexGroups(c.Request.Context(), userID, budgetID, asOf)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"flex_groups": groups})
}

// GetTrends handles the period history of a budget. periods defaults to 6.
func (h *TrackingHandler) GetTrends(c *gin.Context) {
	userID, budgetID, asOf, err := budgetRequest(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	periods := defaultTrendPeriods
	if v := c.Query("periods"); v != "" {
		periods, err = strconv.Atoi(v)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "periods must be an integer"))
			return
		}
	}

	trends, err := h.trackingService.GetTrends(c.Request.Context(), userID, budgetID, asOf, periods)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"trends": trends})
}

// GetDashboard handles the condensed view of the user's active budgets.
func (h *TrackingHandler) GetDashboard(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	asOf, err := parseAsOf(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgets, err := h.trackingService.GetDashboard(c.Request.Context(), userID, asOf)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budgets": budgets})
}

// GenerateBudgetRequest represents the request payload for a budget
// suggestion.
type GenerateBudgetRequest struct {
	Months     int                   `json:"months" binding:"required,oneof=3 6 12"`
	Strategy   models.BudgetStrategy `json:"strategy" binding:"omitempty,budget_strategy"`
	Profile    generator.Profile     `json:"profile" binding:"omitempty,generator_profile"`
	AccountIDs []string              `json:"account_ids" binding:"omitempty,dive,uuid"`
}

// GenerateBudget handles suggesting a budget from ledger history. The
// analyzed window is the whole months before the as-of date.
func (h *TrackingHandler) GenerateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	asOf, err := parseAsOf(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req GenerateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	resp, err := h.trackingService.GenerateBudget(c.Request.Context(), userID, req.AccountIDs, generator.Request{
		Months:   req.Months,
		Strategy: req.Strategy,
		Profile:  req.Profile,
		AsOf:     asOf,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestion": resp})
}
