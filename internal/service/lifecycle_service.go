package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/calendar"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
	"github.com/spec-kit/support-desk/pkg/util/keylock"
)

const (
	// DefaultDueBusinessDays is offered at creation when no due date is given.
	DefaultDueBusinessDays = 5
	// PlanCeilingBusinessDays bounds a plan deadline above the original due date.
	PlanCeilingBusinessDays = 3
	// PostponeMinBusinessDays is the minimum distance of a postponement date
	// past the current due date.
	PostponeMinBusinessDays = 1

	noteDateLayout = "2006-01-02"
)

// LifecycleService is the sole mutation path for tickets: it guards,
// validates, and applies transitions, appending exactly one audit entry per
// accepted transition. Rejected transitions are complete no-ops.
type LifecycleService struct {
	tickets    repository.TicketRepository
	audit      repository.AuditLogRepository
	comments   repository.CommentRepository
	users      repository.UserRepository
	projects   repository.ProjectRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	locks      *keylock.KeyLock
	now        func() time.Time
}

// LifecycleDependencies bundles collaborators for the engine.
type LifecycleDependencies struct {
	TicketRepo  repository.TicketRepository
	AuditRepo   repository.AuditLogRepository
	CommentRepo repository.CommentRepository
	UserRepo    repository.UserRepository
	ProjectRepo repository.ProjectRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	// Now overrides the clock; defaults to time.Now.
	Now func() time.Time
}

// NewLifecycleService constructs the engine.
func NewLifecycleService(deps LifecycleDependencies) *LifecycleService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LifecycleService{
		tickets:    deps.TicketRepo,
		audit:      deps.AuditRepo,
		comments:   deps.CommentRepo,
		users:      deps.UserRepo,
		projects:   deps.ProjectRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		locks:      keylock.New(),
		now:        now,
	}
}

// CreateTicketInput describes ticket creation payload.
type CreateTicketInput struct {
	// RequesterID names the customer the ticket is raised for. Customers may
	// only raise tickets for themselves; support and admin raise tickets on a
	// customer's behalf.
	RequesterID string
	ProjectID   string
	Title       string
	Description string
	// DueDate is optional; when zero the default of five business days from
	// creation applies. It becomes the immutable original due date.
	DueDate time.Time
}

// TransitionPayload carries event-specific fields for SubmitTransition.
type TransitionPayload struct {
	Plan                   string
	ExpectedCompletionDate *time.Time
	PostponeDate           *time.Time
	PostponeReason         string
	RejectionReason        string
	Satisfaction           *int
	CompletionFeedback     string
}

// CreateTicket seeds a ticket, chooses the initial status by the creating
// actor's role, and appends the first audit entry.
func (s *LifecycleService) CreateTicket(ctx context.Context, actor Actor, input CreateTicketInput) (*domain.Ticket, error) {
	if actor.System {
		return nil, apperrors.NewUnauthorizedTransition("system actor cannot create tickets")
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperrors.NewValidationError("title required", nil)
	}

	project, err := s.projects.GetByID(ctx, input.ProjectID)
	if err != nil {
		return nil, mapLookupError(err, "project")
	}
	if !project.IsActive {
		return nil, apperrors.NewValidationError("project inactive", map[string]any{"project_id": project.ID})
	}

	requesterID := input.RequesterID
	status := domain.TicketStatusReceived
	note := "ticket created"
	if actor.Role == domain.RoleCustomer {
		if requesterID != "" && requesterID != actor.ID {
			return nil, apperrors.NewUnauthorizedTransition("customers may only raise tickets for themselves")
		}
		requesterID = actor.ID
		status = domain.TicketStatusWaiting
	} else {
		if requesterID == "" {
			return nil, apperrors.NewValidationError("requester_id required when creating on behalf of a customer", nil)
		}
		requester, err := s.users.GetByID(ctx, requesterID)
		if err != nil {
			return nil, mapLookupError(err, "requester")
		}
		note = fmt.Sprintf("ticket created on behalf of %s", requester.Name)
	}

	createdAt := s.now()
	dueDate := input.DueDate
	if dueDate.IsZero() {
		dueDate = calendar.AddBusinessDays(createdAt, DefaultDueBusinessDays)
	}
	if calendar.DayAfter(createdAt, dueDate) {
		return nil, apperrors.NewValidationError("due date precedes creation date", map[string]any{
			"due_date": dueDate.Format(noteDateLayout),
		})
	}

	ticket := &domain.Ticket{
		ExternalKey:     generateTicketKey(),
		RequesterID:     requesterID,
		ProjectID:       project.ID,
		Title:           strings.TrimSpace(input.Title),
		Description:     strings.TrimSpace(input.Description),
		Status:          status,
		OriginalDueDate: dueDate,
		DueDate:         dueDate,
	}
	entry := s.auditEntry(ticket, actor, domain.EventCreate, note)

	if err := s.tickets.Create(ctx, ticket, entry); err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    eventActor(actor),
		Payload: events.TicketCreatedPayload{
			ProjectID:     ticket.ProjectID,
			RequesterID:   ticket.RequesterID,
			InitialStatus: ticket.Status,
			DueDate:       ticket.DueDate,
			Title:         ticket.Title,
		},
	})
	return ticket, nil
}

// SubmitTransition applies one lifecycle event to a ticket. The ticket is
// locked for the full read-validate-write window; concurrent transitions on
// other tickets proceed independently.
func (s *LifecycleService) SubmitTransition(ctx context.Context, actor Actor, ticketID string, event domain.EventKind, payload TransitionPayload) (*domain.Ticket, error) {
	s.locks.Lock(ticketID)
	defer s.locks.Unlock(ticketID)

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapLookupError(err, "ticket")
	}

	project, err := s.projects.GetByID(ctx, ticket.ProjectID)
	if err != nil {
		return nil, mapLookupError(err, "project")
	}

	// Guard first: an actor who may never fire this event is told so
	// regardless of what state the ticket happens to be in.
	if err := Authorize(actor, ticket, project, event); err != nil {
		return nil, err
	}

	if !EventDefinedFor(event, ticket.Status) {
		return nil, apperrors.NewInvalidState(
			fmt.Sprintf("event %s not defined for status %s", event, ticket.Status),
			map[string]any{"status": ticket.Status, "event": event},
		)
	}
	// A ticket demoted to DELAYED keeps any pending postponement fields; only
	// such a ticket may re-request postponement while delayed. Without a
	// pending request the support side must register a fresh plan first.
	if event == domain.EventRequestPostponement &&
		ticket.Status == domain.TicketStatusDelayed && !ticket.HasPendingPostponement() {
		return nil, apperrors.NewInvalidState(
			"delayed ticket has no pending postponement to renew; register a plan instead",
			map[string]any{"status": ticket.Status},
		)
	}

	oldStatus := ticket.Status
	note, err := s.applyEvent(ticket, actor, event, payload)
	if err != nil {
		return nil, err
	}

	entry := s.auditEntry(ticket, actor, event, note)
	if err := s.tickets.ApplyTransition(ctx, ticket, entry); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.NewStoreUnavailable(err)
	}

	eventType := events.EventTicketTransitioned
	var eventPayload any = events.TicketTransitionedPayload{
		EventKind: event,
		OldStatus: oldStatus,
		NewStatus: ticket.Status,
		Note:      note,
	}
	if event == domain.EventMarkDelayed {
		eventType = events.EventTicketOverdue
		overdue := events.TicketOverduePayload{
			DueDate:   ticket.DueDate,
			OldStatus: oldStatus,
		}
		// Carry the project manager so notifiers can escalate the slip.
		if pm, ok := project.ManagerID(); ok {
			overdue.ProjectManagerID = &pm
		}
		eventPayload = overdue
	}
	s.publishEvent(ctx, events.Event{
		Type:     eventType,
		TicketID: ticket.ID,
		Actor:    eventActor(actor),
		Payload:  eventPayload,
	})
	return ticket, nil
}

// applyEvent mutates the in-memory ticket for the already guarded event and
// returns the audit note. Validation failures leave the ticket untouched
// because the caller discards it on error.
func (s *LifecycleService) applyEvent(ticket *domain.Ticket, actor Actor, event domain.EventKind, payload TransitionPayload) (string, error) {
	switch event {
	case domain.EventIntake:
		ticket.Status = domain.TicketStatusReceived
		return "ticket accepted for processing", nil

	case domain.EventRegisterPlan:
		plan := strings.TrimSpace(payload.Plan)
		if plan == "" {
			return "", apperrors.NewValidationError("plan text required", nil)
		}
		if payload.ExpectedCompletionDate == nil {
			return "", apperrors.NewValidationError("expected completion date required", nil)
		}
		expected := *payload.ExpectedCompletionDate
		ceiling := calendar.AddBusinessDays(ticket.OriginalDueDate, PlanCeilingBusinessDays)
		if !calendar.SameDayOrBefore(expected, ceiling) {
			return "", apperrors.NewValidationError("expected completion date exceeds plan ceiling", map[string]any{
				"ceiling": ceiling.Format(noteDateLayout),
			})
		}
		if calendar.DayAfter(ticket.CreatedAt, expected) {
			return "", apperrors.NewValidationError("expected completion date precedes ticket creation", nil)
		}
		ticket.Plan = &plan
		ticket.ExpectedCompletionDate = &expected
		ticket.DueDate = expected
		// A fresh plan abandons any postponement request the ticket carried
		// into DELAYED; the fields stay populated only while a request is
		// actually pending.
		ticket.PostponeDate = nil
		ticket.PostponeReason = nil
		if !actor.System {
			assignee := actor.ID
			ticket.AssigneeID = &assignee
		}
		ticket.Status = domain.TicketStatusInProgress
		return fmt.Sprintf("plan registered, expected completion %s: %s", expected.Format(noteDateLayout), plan), nil

	case domain.EventRequestPostponement:
		reason := strings.TrimSpace(payload.PostponeReason)
		if reason == "" {
			return "", apperrors.NewValidationError("postponement reason required", nil)
		}
		if payload.PostponeDate == nil {
			return "", apperrors.NewValidationError("postponement date required", nil)
		}
		requested := *payload.PostponeDate
		minimum := calendar.AddBusinessDays(ticket.DueDate, PostponeMinBusinessDays)
		if calendar.DayAfter(minimum, requested) {
			return "", apperrors.NewValidationError("postponement date must be after the current due date", map[string]any{
				"minimum": minimum.Format(noteDateLayout),
			})
		}
		ticket.PostponeDate = &requested
		ticket.PostponeReason = &reason
		ticket.Status = domain.TicketStatusPostponeRequested
		return fmt.Sprintf("postponement to %s requested: %s", requested.Format(noteDateLayout), reason), nil

	case domain.EventApprovePostponement:
		if !ticket.HasPendingPostponement() {
			return "", apperrors.NewValidationError("no pending postponement on ticket", nil)
		}
		approved := *ticket.PostponeDate
		ticket.DueDate = approved
		ticket.ExpectedCompletionDate = &approved
		ticket.PostponeDate = nil
		ticket.PostponeReason = nil
		ticket.RejectionReason = nil
		ticket.Status = domain.TicketStatusInProgress
		return fmt.Sprintf("postponement approved, due date moved to %s", approved.Format(noteDateLayout)), nil

	case domain.EventRejectPostponement:
		reason := strings.TrimSpace(payload.RejectionReason)
		if reason == "" {
			return "", apperrors.NewValidationError("rejection reason required", nil)
		}
		ticket.PostponeDate = nil
		ticket.PostponeReason = nil
		ticket.RejectionReason = &reason
		ticket.Status = domain.TicketStatusInProgress
		return fmt.Sprintf("postponement rejected: %s", reason), nil

	case domain.EventRequestCompletion:
		// Reporting completion abandons a postponement request carried into
		// DELAYED: whichever way the requester decides, the ticket never
		// returns to a state that could resolve it.
		ticket.PostponeDate = nil
		ticket.PostponeReason = nil
		ticket.Status = domain.TicketStatusCompletionRequested
		return "completion reported, awaiting requester approval", nil

	case domain.EventApproveCompletion:
		if payload.Satisfaction == nil {
			return "", apperrors.NewValidationError("satisfaction score required", nil)
		}
		score := *payload.Satisfaction
		if score < 1 || score > 5 {
			return "", apperrors.NewValidationError("satisfaction must be between 1 and 5", map[string]any{
				"satisfaction": score,
			})
		}
		feedback := strings.TrimSpace(payload.CompletionFeedback)
		completedAt := s.now()
		ticket.Satisfaction = &score
		if feedback != "" {
			ticket.CompletionFeedback = &feedback
		}
		ticket.RejectionReason = nil
		ticket.CompletedAt = &completedAt
		ticket.Status = domain.TicketStatusCompleted
		note := fmt.Sprintf("completion approved, satisfaction %d/5", score)
		if feedback != "" {
			note += ": " + feedback
		}
		return note, nil

	case domain.EventRejectCompletion:
		reason := strings.TrimSpace(payload.RejectionReason)
		if reason == "" {
			return "", apperrors.NewValidationError("rejection reason required", nil)
		}
		ticket.RejectionReason = &reason
		ticket.Status = domain.TicketStatusInProgress
		return fmt.Sprintf("completion rejected, needs rework: %s", reason), nil

	case domain.EventMarkDelayed:
		ticket.Status = domain.TicketStatusDelayed
		return fmt.Sprintf("due date %s elapsed without completion", ticket.DueDate.Format(noteDateLayout)), nil

	default:
		return "", apperrors.NewInvalidState(fmt.Sprintf("unknown event %s", event), nil)
	}
}

// ListHistory returns the ticket's audit trail in creation order.
func (s *LifecycleService) ListHistory(ctx context.Context, actor Actor, ticketID string) ([]domain.AuditEntry, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapLookupError(err, "ticket")
	}
	if err := s.authorizeRead(ctx, actor, ticket); err != nil {
		return nil, err
	}
	entries, err := s.audit.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	return entries, nil
}

// GetTicket fetches a ticket with its comments, enforcing read access. The
// reference may be either the internal id or the external TCK key; mutation
// paths accept only internal ids so the per-ticket lock has a single key.
func (s *LifecycleService) GetTicket(ctx context.Context, actor Actor, ref string) (*domain.Ticket, []domain.Comment, error) {
	ticket, err := s.findTicket(ctx, ref)
	if err != nil {
		return nil, nil, mapLookupError(err, "ticket")
	}
	if err := s.authorizeRead(ctx, actor, ticket); err != nil {
		return nil, nil, err
	}
	comments, err := s.comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, apperrors.NewStoreUnavailable(err)
	}
	return ticket, comments, nil
}

func (s *LifecycleService) findTicket(ctx context.Context, ref string) (*domain.Ticket, error) {
	if strings.HasPrefix(ref, ticketKeyPrefix) {
		return s.tickets.GetByExternalKey(ctx, ref)
	}
	return s.tickets.GetByID(ctx, ref)
}

// ListTickets returns tickets visible to the actor. Customers only ever see
// their own tickets.
func (s *LifecycleService) ListTickets(ctx context.Context, actor Actor, filter repository.TicketFilter) ([]domain.Ticket, error) {
	if actor.Role == domain.RoleCustomer {
		requesterID := actor.ID
		filter.RequesterID = &requesterID
	}
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	return tickets, nil
}

// AddComment appends a discussion entry to a ticket.
func (s *LifecycleService) AddComment(ctx context.Context, actor Actor, ticketID, body string) (*domain.Comment, error) {
	if actor.System {
		return nil, apperrors.NewUnauthorizedTransition("system actor cannot comment")
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("body required", nil)
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapLookupError(err, "ticket")
	}
	if err := s.authorizeRead(ctx, actor, ticket); err != nil {
		return nil, err
	}
	comment := &domain.Comment{
		TicketID: ticket.ID,
		AuthorID: actor.ID,
		Body:     body,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCommentAdded,
		TicketID: ticket.ID,
		Actor:    eventActor(actor),
		Payload: events.TicketCommentAddedPayload{
			CommentID:   comment.ID,
			AuthorID:    comment.AuthorID,
			BodyPreview: stringPreview(comment.Body, 120),
		},
	})
	return comment, nil
}

// DeleteTicket removes a ticket that has seen no lifecycle activity beyond
// creation, cascading to its audit entries and comments. Only the requester
// or an admin may delete.
func (s *LifecycleService) DeleteTicket(ctx context.Context, actor Actor, ticketID string) error {
	s.locks.Lock(ticketID)
	defer s.locks.Unlock(ticketID)

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return mapLookupError(err, "ticket")
	}
	if actor.System {
		return apperrors.NewUnauthorizedTransition("system actor cannot delete tickets")
	}
	if actor.Role != domain.RoleAdmin && actor.ID != ticket.RequesterID {
		return apperrors.NewUnauthorizedTransition("only the requester or an admin may delete a ticket")
	}
	count, err := s.audit.CountByTicket(ctx, ticketID)
	if err != nil {
		return apperrors.NewStoreUnavailable(err)
	}
	if count > 1 {
		return apperrors.NewInvalidState("ticket already has lifecycle activity", map[string]any{
			"audit_entries": count,
		})
	}
	if err := s.tickets.Delete(ctx, ticketID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return apperrors.NewStoreUnavailable(err)
	}
	return nil
}

// RunOverdueSweep transitions every ticket whose due date's calendar day has
// fully elapsed into DELAYED, under the system actor and through the same
// entry point human transitions use. A failure on one ticket is logged and
// does not abort the sweep. Returns the number of tickets transitioned.
func (s *LifecycleService) RunOverdueSweep(ctx context.Context, now time.Time) (int, error) {
	candidates, err := s.tickets.ListInStatuses(ctx, []domain.TicketStatus{
		domain.TicketStatusInProgress,
		domain.TicketStatusPostponeRequested,
	})
	if err != nil {
		return 0, apperrors.NewStoreUnavailable(err)
	}

	transitioned := 0
	for i := range candidates {
		ticket := &candidates[i]
		if !calendar.DayAfter(now, ticket.DueDate) {
			continue
		}
		if _, err := s.SubmitTransition(ctx, SystemActor, ticket.ID, domain.EventMarkDelayed, TransitionPayload{}); err != nil {
			// Another actor may have transitioned the ticket between the scan
			// and the lock; InvalidState here is expected, not a fault.
			if apperrors.HasCode(err, apperrors.CodeInvalidState) {
				continue
			}
			s.logger.Warn("overdue sweep: ticket transition failed",
				zap.String("ticket_id", ticket.ID),
				zap.Error(err))
			continue
		}
		transitioned++
	}
	return transitioned, nil
}

func (s *LifecycleService) authorizeRead(ctx context.Context, actor Actor, ticket *domain.Ticket) error {
	if actor.System || actor.Role == domain.RoleAdmin {
		return nil
	}
	if actor.ID == ticket.RequesterID {
		return nil
	}
	if actor.Role.SupportSide() {
		project, err := s.projects.GetByID(ctx, ticket.ProjectID)
		if err != nil {
			return mapLookupError(err, "project")
		}
		if project.HasSupportStaff(actor.ID) {
			return nil
		}
	}
	return apperrors.NewUnauthorizedTransition("access denied")
}

func (s *LifecycleService) auditEntry(ticket *domain.Ticket, actor Actor, event domain.EventKind, note string) *domain.AuditEntry {
	entry := &domain.AuditEntry{
		TicketID:        ticket.ID,
		EventKind:       event,
		ResultingStatus: ticket.Status,
		ActorType:       actor.AuditActorType(),
		ActorName:       actor.Name,
		Note:            note,
	}
	if !actor.System {
		actorID := actor.ID
		entry.ActorID = &actorID
	}
	return entry
}

func (s *LifecycleService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func eventActor(actor Actor) events.Actor {
	out := events.Actor{Type: actor.AuditActorType(), Name: actor.Name}
	if !actor.System {
		id := actor.ID
		out.UserID = &id
	}
	return out
}

func mapLookupError(err error, resource string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(resource, nil)
	}
	return apperrors.NewStoreUnavailable(err)
}

const ticketKeyPrefix = "TCK-"

func generateTicketKey() string {
	return ticketKeyPrefix + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// stringPreview truncates on rune boundaries so a multibyte character is
// never split mid-sequence.
func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if utf8.RuneCountInString(body) <= max {
		return body
	}
	runes := []rune(body)
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
