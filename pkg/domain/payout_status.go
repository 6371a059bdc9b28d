package domain

import dErrors "payflow/pkg/domain-errors"

// PayoutStatus is the lifecycle state of a payout.
// Invariant: transitions follow the graph below and nothing else; Approved
// and Rejected are terminal.
type PayoutStatus string

const (
	StatusDraft     PayoutStatus = "Draft"
	StatusSubmitted PayoutStatus = "Submitted"
	StatusApproved  PayoutStatus = "Approved"
	StatusRejected  PayoutStatus = "Rejected"
)

// validTransitions is the single source of truth for the lifecycle graph.
var validTransitions = map[PayoutStatus][]PayoutStatus{
	StatusDraft:     {StatusSubmitted},
	StatusSubmitted: {StatusApproved, StatusRejected},
	StatusApproved:  {},
	StatusRejected:  {},
}

// ParsePayoutStatus constructs a PayoutStatus from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParsePayoutStatus(s string) (PayoutStatus, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "status cannot be empty")
	}
	st := PayoutStatus(s)
	if !st.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid status")
	}
	return st, nil
}

// IsValid checks the status against the supported enum values.
func (s PayoutStatus) IsValid() bool {
	_, ok := validTransitions[s]
	return ok
}

// IsTerminal reports whether no further transitions exist from this status.
func (s PayoutStatus) IsTerminal() bool {
	next, ok := validTransitions[s]
	return ok && len(next) == 0
}

// CanTransitionTo reports whether the lifecycle graph allows moving from the
// current status to target.
func (s PayoutStatus) CanTransitionTo(target PayoutStatus) bool {
	for _, next := range validTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

func (s PayoutStatus) String() string { return string(s) }
