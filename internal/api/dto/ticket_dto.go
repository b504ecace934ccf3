package dto

import (
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	ProjectID   string     `json:"project_id"`
	RequesterID string     `json:"requester_id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

// TransitionRequest carries one lifecycle event with its event-specific
// fields.
type TransitionRequest struct {
	Event                  string     `json:"event"`
	Plan                   string     `json:"plan,omitempty"`
	ExpectedCompletionDate *time.Time `json:"expected_completion_date,omitempty"`
	PostponeDate           *time.Time `json:"postpone_date,omitempty"`
	PostponeReason         string     `json:"postpone_reason,omitempty"`
	RejectionReason        string     `json:"rejection_reason,omitempty"`
	Satisfaction           *int       `json:"satisfaction,omitempty"`
	CompletionFeedback     string     `json:"completion_feedback,omitempty"`
}

// TicketResponse is the full ticket snapshot.
type TicketResponse struct {
	ID                     string              `json:"id"`
	ExternalKey            string              `json:"external_key"`
	RequesterID            string              `json:"requester_id"`
	AssigneeID             *string             `json:"assignee_id,omitempty"`
	ProjectID              string              `json:"project_id"`
	Title                  string              `json:"title"`
	Description            string              `json:"description"`
	Status                 domain.TicketStatus `json:"status"`
	OriginalDueDate        time.Time           `json:"original_due_date"`
	DueDate                time.Time           `json:"due_date"`
	ExpectedCompletionDate *time.Time          `json:"expected_completion_date,omitempty"`
	Plan                   *string             `json:"plan,omitempty"`
	PostponeDate           *time.Time          `json:"postpone_date,omitempty"`
	PostponeReason         *string             `json:"postpone_reason,omitempty"`
	RejectionReason        *string             `json:"rejection_reason,omitempty"`
	Satisfaction           *int                `json:"satisfaction,omitempty"`
	CompletionFeedback     *string             `json:"completion_feedback,omitempty"`
	CreatedAt              time.Time           `json:"created_at"`
	UpdatedAt              time.Time           `json:"updated_at"`
	CompletedAt            *time.Time          `json:"completed_at,omitempty"`
}

// AuditEntryResponse represents one applied transition.
type AuditEntryResponse struct {
	ID              string              `json:"id"`
	EventKind       domain.EventKind    `json:"event_kind"`
	ResultingStatus domain.TicketStatus `json:"resulting_status"`
	ActorType       domain.ActorType    `json:"actor_type"`
	ActorID         *string             `json:"actor_id,omitempty"`
	ActorName       string              `json:"actor_name"`
	Note            string              `json:"note"`
	CreatedAt       time.Time           `json:"created_at"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Body string `json:"body"`
}

// CommentResponse represents one discussion entry.
type CommentResponse struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// TicketDetailResponse bundles a ticket with its comments.
type TicketDetailResponse struct {
	Ticket   TicketResponse    `json:"ticket"`
	Comments []CommentResponse `json:"comments"`
}
