// internal/models/verification.go
package models

import "time"

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
	VerificationRejected VerificationStatus = "rejected"
)

func (s VerificationStatus) Valid() bool {
	switch s {
	case VerificationPending, VerificationApproved, VerificationRejected:
		return true
	}
	return false
}

// EntityStatus is the agent/property status a decision propagates to.
func (s VerificationStatus) EntityStatus() EntityVerificationStatus {
	switch s {
	case VerificationApproved:
		return EntityVerified
	case VerificationRejected:
		return EntityRejected
	default:
		return EntityPending
	}
}

type Verification struct {
	ID           string             `json:"id"`
	Entity       EntityRef          `json:"-"`
	EntityType   EntityType         `json:"entity_type"`
	EntityID     string             `json:"entity_id"`
	DocumentType string             `json:"document_type"`
	DocumentURL  string             `json:"document_url"`
	Status       VerificationStatus `json:"status"`
	ReviewNotes  *string            `json:"review_notes"`
	ReviewedBy   *string            `json:"reviewed_by"`
	ReviewedAt   *time.Time         `json:"reviewed_at"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

type VerificationFilter struct {
	Status VerificationStatus
	Page
}

// Decision is an admin's approve/reject of one verification.
type Decision struct {
	VerificationID string
	Status         VerificationStatus
	ReviewNotes    string
	ReviewerID     string
}

// DecisionResult is returned by approve/reject.
type DecisionResult struct {
	Verification      *Verification            `json:"verification"`
	EntityStatus      EntityVerificationStatus `json:"entity_status"`
	NotificationSent  bool                     `json:"notification_sent"`
	NotificationError string                   `json:"notification_error,omitempty"`
	// Replayed is set when the verification already carried this exact
	// decision, e.g. a redelivered job. Nothing was written or sent.
	Replayed bool `json:"replayed,omitempty"`
}

// ReminderResult summarises one reminder sweep.
type ReminderResult struct {
	Checked int      `json:"checked"`
	Sent    int      `json:"sent"`
	Failed  []string `json:"failed,omitempty"`
}
