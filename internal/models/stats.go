package models

import "time"

// DashboardStats is the GET /stats summary.
type DashboardStats struct {
	PendingVerifications int            `json:"pending_verifications"`
	PendingAgents        int            `json:"pending_agents"`
	PendingProperties    int            `json:"pending_properties"`
	OpenReports          int            `json:"open_reports"`
	UsersByRole          map[string]int `json:"users_by_role"`
	LeadsByStatus        map[string]int `json:"leads_by_status"`
	NewLeadsLast7Days    int            `json:"new_leads_last_7_days"`
	GeneratedAt          time.Time      `json:"generated_at"`
}
