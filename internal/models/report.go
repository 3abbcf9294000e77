// internal/models/report.go
package models

import "time"

type ReportStatus string

const (
	ReportNew           ReportStatus = "new"
	ReportInvestigating ReportStatus = "investigating"
	ReportResolved      ReportStatus = "resolved"
	ReportDismissed     ReportStatus = "dismissed"
)

func (s ReportStatus) Valid() bool {
	switch s {
	case ReportNew, ReportInvestigating, ReportResolved, ReportDismissed:
		return true
	}
	return false
}

type Report struct {
	ID          string       `json:"id"`
	EntityType  string       `json:"entity_type"`
	EntityID    string       `json:"entity_id"`
	ReporterID  *string      `json:"reporter_id"`
	Reason      string       `json:"reason"`
	Description string       `json:"description"`
	Status      ReportStatus `json:"status"`
	AdminNotes  *string      `json:"admin_notes"`
	ReviewedBy  *string      `json:"reviewed_by"`
	ReviewedAt  *time.Time   `json:"reviewed_at"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

type ReportFilter struct {
	Status ReportStatus
	Page
}

// ReportStatusChange is PATCH /reports/{id}. AdminNotes nil keeps the old notes.
type ReportStatusChange struct {
	ReportID   string
	Status     ReportStatus
	AdminNotes *string
	ReviewerID string
}
