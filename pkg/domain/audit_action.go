package domain

// AuditAction names a lifecycle event recorded in the audit ledger.
type AuditAction string

const (
	ActionCreated   AuditAction = "Created"
	ActionSubmitted AuditAction = "Submitted"
	ActionApproved  AuditAction = "Approved"
	ActionRejected  AuditAction = "Rejected"
)

func (a AuditAction) String() string { return string(a) }
