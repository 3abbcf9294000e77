package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEntityRef(t *testing.T) {
	ref, err := ParseEntityRef("agent", "a1")
	require.NoError(t, err)
	assert.Equal(t, AgentRef{ID: "a1"}, ref)
	assert.Equal(t, EntityAgent, ref.EntityType())

	ref, err = ParseEntityRef("property", "p1")
	require.NoError(t, err)
	assert.Equal(t, PropertyRef{ID: "p1"}, ref)
	assert.Equal(t, "p1", ref.EntityID())

	_, err = ParseEntityRef("listing", "x")
	assert.Error(t, err)
}

func TestVerificationStatus_EntityStatus(t *testing.T) {
	assert.Equal(t, EntityVerified, VerificationApproved.EntityStatus())
	assert.Equal(t, EntityRejected, VerificationRejected.EntityStatus())
	assert.Equal(t, EntityPending, VerificationPending.EntityStatus())
}

func TestVerificationTransitions(t *testing.T) {
	assert.True(t, VerificationTransitions.Allows(VerificationPending, VerificationApproved))
	assert.True(t, VerificationTransitions.Allows(VerificationPending, VerificationRejected))
	assert.False(t, VerificationTransitions.Allows(VerificationApproved, VerificationApproved))
	assert.False(t, VerificationTransitions.Allows(VerificationApproved, VerificationRejected))
	assert.False(t, VerificationTransitions.Allows(VerificationRejected, VerificationPending))
}

func TestReportTransitions(t *testing.T) {
	tests := []struct {
		from, to ReportStatus
		allowed  bool
	}{
		{ReportNew, ReportInvestigating, true},
		{ReportNew, ReportResolved, true},
		{ReportInvestigating, ReportDismissed, true},
		{ReportResolved, ReportInvestigating, true},
		{ReportResolved, ReportDismissed, false},
		{ReportInvestigating, ReportNew, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, ReportTransitions.Allows(tt.from, tt.to))
		})
	}
}

func TestLeadTransitions(t *testing.T) {
	assert.True(t, LeadTransitions.Allows(LeadNew, LeadClosedWon))
	assert.True(t, LeadTransitions.Allows(LeadNegotiating, LeadContacted))
	assert.False(t, LeadTransitions.Allows(LeadClosedWon, LeadNew))
	assert.True(t, LeadTransitions.Allows(LeadClosedLost, LeadContacted))
	assert.False(t, LeadTransitions.Allows(LeadClosedLost, LeadNegotiating))
	assert.True(t, LeadTransitions.Allows(LeadNew, LeadNew))
	assert.True(t, LeadTransitions.Allows(LeadContacted, LeadContacted))
	assert.False(t, LeadTransitions.Allows(LeadClosedWon, LeadClosedWon))
	assert.False(t, LeadTransitions.Allows(LeadClosedLost, LeadClosedLost))
}

func TestPageNormalize(t *testing.T) {
	assert.Equal(t, Page{Limit: DefaultPageLimit}, Page{}.Normalize())
	assert.Equal(t, Page{Limit: MaxPageLimit, Offset: 0}, Page{Limit: 5000, Offset: -3}.Normalize())
}
