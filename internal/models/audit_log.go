package models

// AuditLog records budget definition edits made through the API. Changes
// holds a JSON summary of the submitted fields.
type AuditLog struct {
	Base
	UserID       string `gorm:"type:uuid;index" json:"user_id"`
	Action       string `gorm:"not null" json:"action"`
	ResourceType string `gorm:"not null;index:idx_audit_logs_resource,priority:1" json:"resource_type"`
	ResourceID   string `gorm:"type:uuid;index:idx_audit_logs_resource,priority:2" json:"resource_id"`
	IPAddress    string `json:"ip_address,omitempty"`
	Changes      string `json:"changes,omitempty"`
}
