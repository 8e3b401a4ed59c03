package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "budgetpace/internal/errors"
	"budgetpace/internal/services"
)

// PipelineHandler serves the scheduled-job endpoints. Routes are guarded by
// the pipeline API key instead of a user token, so no ownership is checked.
type PipelineHandler struct {
	periodService services.PeriodServicer
	alertService  services.AlertServicer
}

// NewPipelineHandler creates a new PipelineHandler.
func NewPipelineHandler(periodService services.PeriodServicer, alertService services.AlertServicer) *PipelineHandler {
	return &PipelineHandler{periodService: periodService, alertService: alertService}
}

// ClosePeriodRequest names the period to close by its first day.
type ClosePeriodRequest struct {
	PeriodStart string `json:"period_start" binding:"required"`
}

// ClosePeriod handles freezing one ended period of a budget. Closing a
// period twice returns the stored result.
func (h *PipelineHandler) ClosePeriod(c *gin.Context) {
	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	asOf, err := parseAsOf(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ClosePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	start, err := parseDate("period_start", req.PeriodStart)
	if err != nil {
		respondWithError(c, err)
		return
	}

	rec, err := h.periodService.ClosePeriod(c.Request.Context(), budgetID, start, asOf)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"period": rec})
}

// CloseDuePeriods handles closing every ended period of the active budgets.
func (h *PipelineHandler) CloseDuePeriods(c *gin.Context) {
	asOf, err := parseAsOf(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	report, err := h.periodService.CloseDuePeriods(c.Request.Context(), asOf)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// GenerateAlerts handles evaluating the alert rules of a budget.
func (h *PipelineHandler) GenerateAlerts(c *gin.Context) {
	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	asOf, err := parseAsOf(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	created, err := h.alertService.GenerateAlerts(c.Request.Context(), "", budgetID, asOf)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"alerts": created, "created": len(created)})
}

// MarkEmailSent handles the notifier's delivery receipt for an alert.
func (h *PipelineHandler) MarkEmailSent(c *gin.Context) {
	alertID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	alert, err := h.alertService.MarkEmailSent(c.Request.Context(), alertID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"alert": alert})
}
