package service

import (
	"github.com/spec-kit/support-desk/internal/domain"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// Actor identifies who is requesting a transition. System is true only for
// the overdue sweeper; user transitions always carry a resolved user.
type Actor struct {
	ID     string
	Name   string
	Role   domain.Role
	System bool
}

// SystemActor is the identity the sweeper transitions under.
var SystemActor = Actor{Name: "system", System: true}

// AuditActorType maps the actor onto the audit trail's actor column.
func (a Actor) AuditActorType() domain.ActorType {
	if a.System {
		return domain.ActorTypeSystem
	}
	return domain.ActorTypeUser
}

// transitionSources maps each lifecycle event to the statuses it may fire
// from. Any (status, event) pair outside this table is rejected before the
// guard even runs.
var transitionSources = map[domain.EventKind][]domain.TicketStatus{
	domain.EventIntake:              {domain.TicketStatusWaiting},
	domain.EventRegisterPlan:        {domain.TicketStatusReceived, domain.TicketStatusInProgress, domain.TicketStatusDelayed},
	domain.EventRequestPostponement: {domain.TicketStatusInProgress, domain.TicketStatusDelayed},
	domain.EventApprovePostponement: {domain.TicketStatusPostponeRequested},
	domain.EventRejectPostponement:  {domain.TicketStatusPostponeRequested},
	domain.EventRequestCompletion:   {domain.TicketStatusInProgress, domain.TicketStatusDelayed},
	domain.EventApproveCompletion:   {domain.TicketStatusCompletionRequested},
	domain.EventRejectCompletion:    {domain.TicketStatusCompletionRequested},
	domain.EventMarkDelayed:         {domain.TicketStatusInProgress, domain.TicketStatusPostponeRequested},
}

// EventDefinedFor reports whether the event may fire from the given status.
func EventDefinedFor(event domain.EventKind, status domain.TicketStatus) bool {
	for _, candidate := range transitionSources[event] {
		if candidate == status {
			return true
		}
	}
	return false
}

// supportSideEvents are driven by the ticket's project support team.
var supportSideEvents = map[domain.EventKind]bool{
	domain.EventIntake:              true,
	domain.EventRegisterPlan:        true,
	domain.EventRequestPostponement: true,
	domain.EventRequestCompletion:   true,
}

// customerSideEvents are decided by the requesting customer.
var customerSideEvents = map[domain.EventKind]bool{
	domain.EventApprovePostponement: true,
	domain.EventRejectPostponement:  true,
	domain.EventApproveCompletion:   true,
	domain.EventRejectCompletion:    true,
}

// Authorize decides whether the actor may apply the event to the ticket.
// It is a pure function over (actor, ticket, project, event); nil means
// allowed. MarkDelayed is reserved for the system actor: no user, admin
// included, may request it directly.
func Authorize(actor Actor, ticket *domain.Ticket, project *domain.Project, event domain.EventKind) error {
	if event == domain.EventMarkDelayed {
		if !actor.System {
			return apperrors.NewUnauthorizedTransition("only the overdue sweeper may mark tickets delayed")
		}
		return nil
	}
	if actor.System {
		return apperrors.NewUnauthorizedTransition("system actor may only mark tickets delayed")
	}
	if actor.Role == domain.RoleAdmin {
		return nil
	}

	switch {
	case supportSideEvents[event]:
		if !actor.Role.SupportSide() {
			return apperrors.NewUnauthorizedTransition("support role required")
		}
		if project == nil || !project.HasSupportStaff(actor.ID) {
			return apperrors.NewUnauthorizedTransition("actor is not on the project support team")
		}
		return nil
	case customerSideEvents[event]:
		if actor.ID != ticket.RequesterID {
			return apperrors.NewUnauthorizedTransition("only the ticket requester may decide this")
		}
		return nil
	default:
		return apperrors.NewUnauthorizedTransition("event not permitted for any role")
	}
}
