package domain

import "time"

// Comment captures free-text discussion on a ticket. Comments are removed
// only as part of whole-ticket cascade deletion.
type Comment struct {
	ID        string
	TicketID  string
	AuthorID  string
	Body      string
	CreatedAt time.Time
}
