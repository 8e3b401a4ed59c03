package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "budgetpace/internal/errors"
	"budgetpace/internal/pagination"
	"budgetpace/internal/services"
)

// AlertHandler handles the user-facing alert requests.
type AlertHandler struct {
	alertService services.AlertServicer
}

// NewAlertHandler creates a new AlertHandler.
func NewAlertHandler(alertService services.AlertServicer) *AlertHandler {
	return &AlertHandler{alertService: alertService}
}

// ListAlerts handles listing a budget's alerts, newest first.
// unread=true restricts the page to unread alerts.
func (h *AlertHandler) ListAlerts(c *gin.Context) {
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

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	unreadOnly := false
	switch c.Query("unread") {
	case "", "false":
	case "true":
		unreadOnly = true
	default:
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "unread must be 'true' or 'false'"))
		return
	}

	result, err := h.alertService.ListAlerts(c.Request.Context(), userID, budgetID, unreadOnly, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// MarkRead handles acknowledging an alert. A later evaluation may raise
// the same alert again.
func (h *AlertHandler) MarkRead(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	alertID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	alert, err := h.alertService.MarkRead(c.Request.Context(), userID, alertID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"alert": alert})
}
