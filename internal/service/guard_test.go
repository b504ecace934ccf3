package service

import (
	"testing"

	"github.com/spec-kit/support-desk/internal/domain"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

var (
	actorCustomer  = Actor{ID: "cust-1", Name: "Carol Chen", Role: domain.RoleCustomer}
	actorCustomer2 = Actor{ID: "cust-2", Name: "Dan Ortiz", Role: domain.RoleCustomer}
	actorSupport   = Actor{ID: "sup-1", Name: "Sam Reyes", Role: domain.RoleSupport}
	actorLead      = Actor{ID: "lead-1", Name: "Lena Park", Role: domain.RoleSupportLead}
	actorOffTeam   = Actor{ID: "sup-9", Name: "Omar Diaz", Role: domain.RoleSupport}
	actorAdmin     = Actor{ID: "adm-1", Name: "Ada Morgan", Role: domain.RoleAdmin}
)

var allUserEvents = []domain.EventKind{
	domain.EventIntake,
	domain.EventRegisterPlan,
	domain.EventRequestPostponement,
	domain.EventApprovePostponement,
	domain.EventRejectPostponement,
	domain.EventRequestCompletion,
	domain.EventApproveCompletion,
	domain.EventRejectCompletion,
}

func guardFixtures() (*domain.Ticket, *domain.Project) {
	ticket := &domain.Ticket{
		ID:          "tck-1",
		RequesterID: actorCustomer.ID,
		ProjectID:   "proj-1",
		Status:      domain.TicketStatusInProgress,
	}
	project := &domain.Project{
		ID:              "proj-1",
		SupportStaffIDs: []string{actorSupport.ID, "sup-2", actorLead.ID},
		IsActive:        true,
	}
	return ticket, project
}

func wantDenied(t *testing.T, err error, context string) {
	t.Helper()
	if !apperrors.HasCode(err, apperrors.CodeUnauthorizedTransition) {
		t.Fatalf("%s: got %v, want UNAUTHORIZED_TRANSITION", context, err)
	}
}

func TestAuthorizeMarkDelayedReservedForSystem(t *testing.T) {
	ticket, project := guardFixtures()

	if err := Authorize(SystemActor, ticket, project, domain.EventMarkDelayed); err != nil {
		t.Fatalf("system actor must mark delayed: %v", err)
	}
	for _, actor := range []Actor{actorAdmin, actorLead, actorSupport, actorCustomer} {
		err := Authorize(actor, ticket, project, domain.EventMarkDelayed)
		wantDenied(t, err, string(actor.Role))
	}
}

func TestAuthorizeSystemLimitedToMarkDelayed(t *testing.T) {
	ticket, project := guardFixtures()
	for _, event := range allUserEvents {
		err := Authorize(SystemActor, ticket, project, event)
		wantDenied(t, err, string(event))
	}
}

func TestAuthorizeAdminSatisfiesEveryUserEvent(t *testing.T) {
	ticket, project := guardFixtures()
	for _, event := range allUserEvents {
		if err := Authorize(actorAdmin, ticket, project, event); err != nil {
			t.Fatalf("admin denied %s: %v", event, err)
		}
	}
}

func TestAuthorizeSupportSideEvents(t *testing.T) {
	ticket, project := guardFixtures()
	supportSide := []domain.EventKind{
		domain.EventIntake,
		domain.EventRegisterPlan,
		domain.EventRequestPostponement,
		domain.EventRequestCompletion,
	}

	for _, event := range supportSide {
		if err := Authorize(actorSupport, ticket, project, event); err != nil {
			t.Fatalf("project support denied %s: %v", event, err)
		}
		if err := Authorize(actorLead, ticket, project, event); err != nil {
			t.Fatalf("project lead denied %s: %v", event, err)
		}
		wantDenied(t, Authorize(actorOffTeam, ticket, project, event), "support outside the project")
		wantDenied(t, Authorize(actorCustomer, ticket, project, event), "customer on support-side event")
	}
}

func TestAuthorizeCustomerSideEvents(t *testing.T) {
	ticket, project := guardFixtures()
	customerSide := []domain.EventKind{
		domain.EventApprovePostponement,
		domain.EventRejectPostponement,
		domain.EventApproveCompletion,
		domain.EventRejectCompletion,
	}

	for _, event := range customerSide {
		if err := Authorize(actorCustomer, ticket, project, event); err != nil {
			t.Fatalf("requester denied %s: %v", event, err)
		}
		wantDenied(t, Authorize(actorCustomer2, ticket, project, event), "non-requester customer")
		wantDenied(t, Authorize(actorSupport, ticket, project, event), "support on customer-side event")
		wantDenied(t, Authorize(actorLead, ticket, project, event), "lead on customer-side event")
	}
}

func TestEventDefinedFor(t *testing.T) {
	cases := []struct {
		event  domain.EventKind
		status domain.TicketStatus
		want   bool
	}{
		{domain.EventIntake, domain.TicketStatusWaiting, true},
		{domain.EventIntake, domain.TicketStatusReceived, false},
		{domain.EventRegisterPlan, domain.TicketStatusReceived, true},
		{domain.EventRegisterPlan, domain.TicketStatusDelayed, true},
		{domain.EventRegisterPlan, domain.TicketStatusCompleted, false},
		{domain.EventApprovePostponement, domain.TicketStatusPostponeRequested, true},
		{domain.EventApprovePostponement, domain.TicketStatusInProgress, false},
		{domain.EventMarkDelayed, domain.TicketStatusInProgress, true},
		{domain.EventMarkDelayed, domain.TicketStatusPostponeRequested, true},
		{domain.EventMarkDelayed, domain.TicketStatusDelayed, false},
		{domain.EventApproveCompletion, domain.TicketStatusCompletionRequested, true},
		{domain.EventApproveCompletion, domain.TicketStatusCompleted, false},
	}
	for _, tc := range cases {
		if got := EventDefinedFor(tc.event, tc.status); got != tc.want {
			t.Errorf("EventDefinedFor(%s, %s) = %v, want %v", tc.event, tc.status, got, tc.want)
		}
	}
}
