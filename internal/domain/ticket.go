package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusWaiting             TicketStatus = "WAITING"
	TicketStatusReceived            TicketStatus = "RECEIVED"
	TicketStatusInProgress          TicketStatus = "IN_PROGRESS"
	TicketStatusPostponeRequested   TicketStatus = "POSTPONE_REQUESTED"
	TicketStatusCompletionRequested TicketStatus = "COMPLETION_REQUESTED"
	TicketStatusCompleted           TicketStatus = "COMPLETED"
	TicketStatusDelayed             TicketStatus = "DELAYED"
)

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID                     string
	ExternalKey            string
	RequesterID            string
	AssigneeID             *string
	ProjectID              string
	Title                  string
	Description            string
	Status                 TicketStatus
	OriginalDueDate        time.Time
	DueDate                time.Time
	ExpectedCompletionDate *time.Time
	Plan                   *string
	PostponeDate           *time.Time
	PostponeReason         *string
	RejectionReason        *string
	Satisfaction           *int
	CompletionFeedback     *string
	CreatedAt              time.Time
	UpdatedAt              time.Time
	CompletedAt            *time.Time
}

// Open reports whether the ticket is still in an active lifecycle state.
func (t *Ticket) Open() bool {
	return t.Status != TicketStatusCompleted
}

// HasPendingPostponement reports whether the postpone fields are populated.
// They are always set and cleared together.
func (t *Ticket) HasPendingPostponement() bool {
	return t.PostponeDate != nil && t.PostponeReason != nil
}
