package domain

import "time"

// EventKind names a lifecycle transition request. The kind is recorded on
// every audit entry so consumers never have to infer it from note text.
type EventKind string

const (
	EventCreate              EventKind = "CREATE"
	EventIntake              EventKind = "INTAKE"
	EventRegisterPlan        EventKind = "REGISTER_PLAN"
	EventRequestPostponement EventKind = "REQUEST_POSTPONEMENT"
	EventApprovePostponement EventKind = "APPROVE_POSTPONEMENT"
	EventRejectPostponement  EventKind = "REJECT_POSTPONEMENT"
	EventRequestCompletion   EventKind = "REQUEST_COMPLETION"
	EventApproveCompletion   EventKind = "APPROVE_COMPLETION"
	EventRejectCompletion    EventKind = "REJECT_COMPLETION"
	EventMarkDelayed         EventKind = "MARK_DELAYED"
)

// ActorTypeSystem identifies sweeper-initiated entries; user entries carry
// the acting user's id.
type ActorType string

const (
	ActorTypeUser   ActorType = "USER"
	ActorTypeSystem ActorType = "SYSTEM"
)

// AuditEntry is one immutable record of an applied transition. The note
// embeds any reason text so the trail reads standalone, without joining
// against the live ticket fields.
type AuditEntry struct {
	ID              string
	TicketID        string
	EventKind       EventKind
	ResultingStatus TicketStatus
	ActorType       ActorType
	ActorID         *string
	ActorName       string
	Note            string
	CreatedAt       time.Time
}
