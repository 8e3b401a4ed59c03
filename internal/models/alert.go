package models

import "time"

// AlertType identifies the rule that produced an alert.
type AlertType string

const (
	AlertPaceWarning        AlertType = "PACE_WARNING"
	AlertThresholdWarning   AlertType = "THRESHOLD_WARNING"
	AlertThresholdCritical  AlertType = "THRESHOLD_CRITICAL"
	AlertOverBudget         AlertType = "OVER_BUDGET"
	AlertFlexGroupWarning   AlertType = "FLEX_GROUP_WARNING"
	AlertSeasonalSpike      AlertType = "SEASONAL_SPIKE"
	AlertProjectedOverspend AlertType = "PROJECTED_OVERSPEND"
	AlertIncomeShortfall    AlertType = "INCOME_SHORTFALL"
	AlertPositiveMilestone  AlertType = "POSITIVE_MILESTONE"
)

// AlertSeverity grades how urgent an alert is.
type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "info"
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
	SeveritySuccess  AlertSeverity = "success"
)

// BudgetAlert is an append-only alert event. Only IsRead and IsEmailSent
// change after creation.
type BudgetAlert struct {
	Base
	BudgetID         string                 `gorm:"type:uuid;not null;index" json:"budget_id"`
	BudgetCategoryID *string                `gorm:"type:uuid" json:"budget_category_id,omitempty"`
	AlertType        AlertType              `gorm:"not null" json:"alert_type"`
	Severity         AlertSeverity          `gorm:"not null" json:"severity"`
	Title            string                 `gorm:"not null" json:"title"`
	Message          string                 `gorm:"not null" json:"message"`
	Data             map[string]interface{} `gorm:"serializer:json;type:text" json:"data,omitempty"`
	IsRead           bool                   `gorm:"not null;default:false" json:"is_read"`
	IsEmailSent      bool                   `gorm:"not null;default:false" json:"is_email_sent"`
	PeriodStart      time.Time              `gorm:"not null" json:"period_start"`
	DedupKey         string                 `gorm:"not null;index" json:"-"`
}
