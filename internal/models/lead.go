// internal/models/lead.go
package models

import "time"

type LeadStatus string

const (
	LeadNew              LeadStatus = "new"
	LeadContacted        LeadStatus = "contacted"
	LeadQualified        LeadStatus = "qualified"
	LeadViewingScheduled LeadStatus = "viewing_scheduled"
	LeadNegotiating      LeadStatus = "negotiating"
	LeadOfferMade        LeadStatus = "offer_made"
	LeadUnderContract    LeadStatus = "under_contract"
	LeadClosedWon        LeadStatus = "closed_won"
	LeadClosedLost       LeadStatus = "closed_lost"
)

var LeadStatuses = []LeadStatus{
	LeadNew, LeadContacted, LeadQualified, LeadViewingScheduled, LeadNegotiating,
	LeadOfferMade, LeadUnderContract, LeadClosedWon, LeadClosedLost,
}

func (s LeadStatus) Valid() bool {
	for _, v := range LeadStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Closed reports whether entering s stamps closed_at.
func (s LeadStatus) Closed() bool {
	return s == LeadClosedWon || s == LeadClosedLost
}

type LeadPriority string

const (
	PriorityLow    LeadPriority = "low"
	PriorityMedium LeadPriority = "medium"
	PriorityHigh   LeadPriority = "high"
	PriorityUrgent LeadPriority = "urgent"
)

func (p LeadPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

const (
	MinLeadScore = 0
	MaxLeadScore = 100
)

type Lead struct {
	ID         string       `json:"id"`
	AgentID    string       `json:"agent_id"`
	PropertyID *string      `json:"property_id"`
	Name       string       `json:"name"`
	Email      string       `json:"email"`
	Phone      string       `json:"phone"`
	Status     LeadStatus   `json:"status"`
	Priority   LeadPriority `json:"priority"`
	LeadScore  int          `json:"lead_score"`
	Source     string       `json:"source"`
	ClosedAt   *time.Time   `json:"closed_at"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

type LeadFilter struct {
	AgentID string
	Status  LeadStatus
	Page
}

type ActivityType string

const (
	ActivityCall         ActivityType = "call"
	ActivityEmail        ActivityType = "email"
	ActivityMeeting      ActivityType = "meeting"
	ActivityViewing      ActivityType = "viewing"
	ActivityStatusChange ActivityType = "status_change"
	ActivityOther        ActivityType = "other"
)

func (t ActivityType) Valid() bool {
	switch t {
	case ActivityCall, ActivityEmail, ActivityMeeting, ActivityViewing, ActivityStatusChange, ActivityOther:
		return true
	}
	return false
}

type LeadActivity struct {
	ID           string       `json:"id"`
	LeadID       string       `json:"lead_id"`
	ActivityType ActivityType `json:"activity_type"`
	Description  string       `json:"description"`
	CreatedBy    *string      `json:"created_by"`
	CreatedAt    time.Time    `json:"created_at"`
}

type LeadNote struct {
	ID        string    `json:"id"`
	LeadID    string    `json:"lead_id"`
	Content   string    `json:"content"`
	CreatedBy *string   `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}
