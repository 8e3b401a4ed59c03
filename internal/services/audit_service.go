package services

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"

	"budgetpace/internal/logger"
	"budgetpace/internal/models"
)

// Audit actions for budget definition edits.
const (
	AuditCreateBudget = "CREATE_BUDGET"
	AuditUpdateBudget = "UPDATE_BUDGET"
	AuditDeleteBudget = "DELETE_BUDGET"
)

const auditResourceBudget = "budget"

// AuditEntry describes one budget edit.
type AuditEntry struct {
	UserID    string
	Action    string
	BudgetID  string
	IPAddress string
	Changes   map[string]interface{}
}

// auditService records budget edits on its own connection, outside any
// transaction of the edit itself.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Record stores e. Failures are logged and swallowed; the edit has already
// been committed by the time it is audited.
func (s *auditService) Record(ctx context.Context, e AuditEntry) {
	log := logger.With("user_id", e.UserID, "action", e.Action, "budget_id", e.BudgetID)

	var changes string
	if len(e.Changes) > 0 {
		data, err := json.Marshal(e.Changes)
		if err != nil {
			log.Errorw("failed to marshal audit changes", "error", err)
			data = []byte("{}")
		}
		changes = string(data)
	}

	row := &models.AuditLog{
		UserID:       e.UserID,
		Action:       e.Action,
		ResourceType: auditResourceBudget,
		ResourceID:   e.BudgetID,
		IPAddress:    e.IPAddress,
		Changes:      changes,
	}

	// A client hanging up after a successful edit must not lose the record.
	if err := s.db.WithContext(context.WithoutCancel(ctx)).Create(row).Error; err != nil {
		log.Errorw("failed to create audit log entry", "error", err)
	}
}
