// internal/models/audit.go
package models

import "time"

// AuditEvent is one row of audit_log and one document of the activity index.
type AuditEvent struct {
	ID           string                 `json:"id"`
	EventType    string                 `json:"event_type"`
	ResourceType string                 `json:"resource_type"`
	ResourceID   string                 `json:"resource_id"`
	ActorID      string                 `json:"actor_id"`
	Details      map[string]interface{} `json:"details,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
}

const (
	EventVerificationApproved = "verification.approved"
	EventVerificationRejected = "verification.rejected"
	EventReportStatusChanged  = "report.status_changed"
	EventUserUpdated          = "user.updated"
	EventLeadCreated          = "lead.created"
	EventLeadStatusChanged    = "lead.status_changed"
	EventEmailSent            = "email.sent"
)

type ActivityQuery struct {
	Query string
	Page
}
