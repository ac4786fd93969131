package models

// ProtocolStatus is the lifecycle state of a protocol.
type ProtocolStatus string

const (
	StatusDraft                  ProtocolStatus = "DRAFT"
	StatusSubmitted              ProtocolStatus = "SUBMITTED"
	StatusPreReview              ProtocolStatus = "PRE_REVIEW"
	StatusUnderReview            ProtocolStatus = "UNDER_REVIEW"
	StatusRevisionRequired       ProtocolStatus = "REVISION_REQUIRED"
	StatusResubmitted            ProtocolStatus = "RESUBMITTED"
	StatusApproved               ProtocolStatus = "APPROVED"
	StatusApprovedWithConditions ProtocolStatus = "APPROVED_WITH_CONDITIONS"
	StatusRejected               ProtocolStatus = "REJECTED"
	StatusDeferred               ProtocolStatus = "DEFERRED"
	StatusSuspended              ProtocolStatus = "SUSPENDED"
	StatusClosed                 ProtocolStatus = "CLOSED"
)

// AllStatuses lists every lifecycle state in workflow order.
var AllStatuses = []ProtocolStatus{
	StatusDraft,
	StatusSubmitted,
	StatusPreReview,
	StatusUnderReview,
	StatusRevisionRequired,
	StatusResubmitted,
	StatusApproved,
	StatusApprovedWithConditions,
	StatusRejected,
	StatusDeferred,
	StatusSuspended,
	StatusClosed,
}

func (s ProtocolStatus) String() string {
	return string(s)
}

// Valid reports whether s is one of the known lifecycle states.
func (s ProtocolStatus) Valid() bool {
	for _, status := range AllStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsEditable reports whether working content and attachments may change in this state.
func (s ProtocolStatus) IsEditable() bool {
	return s == StatusDraft || s == StatusRevisionRequired
}

// IsTerminal reports whether no transition can leave this state.
func (s ProtocolStatus) IsTerminal() bool {
	return s == StatusClosed
}
