package models

// TransitionTable maps a status to the statuses that may follow it. A status
// with no entry is terminal.
type TransitionTable[S ~string] map[S][]S

// Allows reports whether from -> to is a listed transition.
func (t TransitionTable[S]) Allows(from, to S) bool {
	for _, next := range t[from] {
		if next == to {
			return true
		}
	}
	return false
}

// VerificationTransitions: a decision is final.
var VerificationTransitions = TransitionTable[VerificationStatus]{
	VerificationPending: {VerificationApproved, VerificationRejected},
}

// ReportTransitions allows re-opening a closed report for investigation.
var ReportTransitions = TransitionTable[ReportStatus]{
	ReportNew:           {ReportInvestigating, ReportResolved, ReportDismissed},
	ReportInvestigating: {ReportResolved, ReportDismissed},
	ReportResolved:      {ReportInvestigating},
	ReportDismissed:     {ReportInvestigating},
}

// LeadTransitions: open leads move freely, including to their own status,
// closed_won is final and a lost lead may be revived as new or contacted.
var LeadTransitions = func() TransitionTable[LeadStatus] {
	t := TransitionTable[LeadStatus]{}
	for _, from := range LeadStatuses {
		if from.Closed() {
			continue
		}
		t[from] = append(t[from], LeadStatuses...)
	}
	t[LeadClosedLost] = []LeadStatus{LeadNew, LeadContacted}
	return t
}()
