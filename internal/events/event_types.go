package events

import (
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated      EventType = "ticket_created"
	EventTicketTransitioned EventType = "ticket_transitioned"
	EventTicketOverdue      EventType = "ticket_overdue"
	EventTicketCommentAdded EventType = "ticket_comment_added"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type   domain.ActorType `json:"type"`
	UserID *string          `json:"user_id,omitempty"`
	Name   string           `json:"name"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	ProjectID     string              `json:"project_id"`
	RequesterID   string              `json:"requester_id"`
	InitialStatus domain.TicketStatus `json:"initial_status"`
	DueDate       time.Time           `json:"due_date"`
	Title         string              `json:"title"`
}

// TicketTransitionedPayload payload.
type TicketTransitionedPayload struct {
	EventKind domain.EventKind    `json:"event_kind"`
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Note      string              `json:"note,omitempty"`
}

// TicketOverduePayload payload.
type TicketOverduePayload struct {
	DueDate          time.Time           `json:"due_date"`
	OldStatus        domain.TicketStatus `json:"old_status"`
	ProjectManagerID *string             `json:"project_manager_id,omitempty"`
}

// TicketCommentAddedPayload payload.
type TicketCommentAddedPayload struct {
	CommentID   string `json:"comment_id"`
	AuthorID    string `json:"author_id"`
	BodyPreview string `json:"body_preview"`
}
