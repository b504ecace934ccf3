package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
	"github.com/spec-kit/support-desk/internal/service"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// TicketsHandler exposes the lifecycle engine over HTTP.
type TicketsHandler struct {
	engine *service.LifecycleService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(engine *service.LifecycleService) *TicketsHandler {
	return &TicketsHandler{engine: engine}
}

// submittableEvents are the lifecycle events callers may request over HTTP.
// MARK_DELAYED is deliberately absent: only the sweeper produces it.
var submittableEvents = map[string]domain.EventKind{
	"intake":               domain.EventIntake,
	"register_plan":        domain.EventRegisterPlan,
	"request_postponement": domain.EventRequestPostponement,
	"approve_postponement": domain.EventApprovePostponement,
	"reject_postponement":  domain.EventRejectPostponement,
	"request_completion":   domain.EventRequestCompletion,
	"approve_completion":   domain.EventApproveCompletion,
	"reject_completion":    domain.EventRejectCompletion,
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ProjectID == "" || req.Title == "" {
		return apperrors.NewValidationError("project_id and title required", nil)
	}

	input := service.CreateTicketInput{
		RequesterID: req.RequesterID,
		ProjectID:   req.ProjectID,
		Title:       req.Title,
		Description: req.Description,
	}
	if req.DueDate != nil {
		input.DueDate = *req.DueDate
	}
	ticket, err := h.engine.CreateTicket(c.Context(), actor, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	filter := parseTicketQuery(c)
	tickets, err := h.engine.ListTickets(c.Context(), actor, filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	ticket, comments, err := h.engine.GetTicket(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	detail := dto.TicketDetailResponse{
		Ticket:   ticketResponse(ticket),
		Comments: make([]dto.CommentResponse, 0, len(comments)),
	}
	for i := range comments {
		detail.Comments = append(detail.Comments, commentResponse(&comments[i]))
	}
	return c.JSON(fiber.Map{"data": detail})
}

// SubmitTransition POST /tickets/:id/transitions.
func (h *TicketsHandler) SubmitTransition(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	event, ok := submittableEvents[strings.ToLower(strings.TrimSpace(req.Event))]
	if !ok {
		return apperrors.NewValidationError("unknown event", map[string]any{"event": req.Event})
	}
	payload := service.TransitionPayload{
		Plan:                   req.Plan,
		ExpectedCompletionDate: req.ExpectedCompletionDate,
		PostponeDate:           req.PostponeDate,
		PostponeReason:         req.PostponeReason,
		RejectionReason:        req.RejectionReason,
		Satisfaction:           req.Satisfaction,
		CompletionFeedback:     req.CompletionFeedback,
	}
	ticket, err := h.engine.SubmitTransition(c.Context(), actor, c.Params("id"), event, payload)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ListHistory GET /tickets/:id/history.
func (h *TicketsHandler) ListHistory(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	entries, err := h.engine.ListHistory(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.AuditEntryResponse, 0, len(entries))
	for i := range entries {
		items = append(items, auditEntryResponse(&entries[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// DeleteTicket DELETE /tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	if err := h.engine.DeleteTicket(c.Context(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// AddComment POST /tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	comment, err := h.engine.AddComment(c.Context(), actor, c.Params("id"), req.Body)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": commentResponse(comment)})
}

func actorFromContext(c *fiber.Ctx) (service.Actor, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return service.Actor{}, apperrors.NewUnauthorized("authentication required")
	}
	return service.Actor{
		ID:   principal.User.ID,
		Name: principal.User.Name,
		Role: principal.User.Role,
	}, nil
}

func parseTicketQuery(c *fiber.Ctx) repository.TicketFilter {
	filter := repository.TicketFilter{}
	if project := c.Query("project_id"); project != "" {
		filter.ProjectID = &project
	}
	if statuses := c.Query("status"); statuses != "" {
		for _, raw := range strings.Split(statuses, ",") {
			filter.Statuses = append(filter.Statuses, domain.TicketStatus(strings.ToUpper(strings.TrimSpace(raw))))
		}
	}
	if page, err := strconv.Atoi(c.Query("page")); err == nil && page > 1 {
		filter.Offset = (page - 1) * pageSize(c)
	}
	filter.Limit = pageSize(c)
	return filter
}

func pageSize(c *fiber.Ctx) int {
	size, err := strconv.Atoi(c.Query("page_size"))
	if err != nil || size <= 0 || size > 100 {
		return 20
	}
	return size
}

func ticketResponse(t *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:                     t.ID,
		ExternalKey:            t.ExternalKey,
		RequesterID:            t.RequesterID,
		AssigneeID:             t.AssigneeID,
		ProjectID:              t.ProjectID,
		Title:                  t.Title,
		Description:            t.Description,
		Status:                 t.Status,
		OriginalDueDate:        t.OriginalDueDate,
		DueDate:                t.DueDate,
		ExpectedCompletionDate: t.ExpectedCompletionDate,
		Plan:                   t.Plan,
		PostponeDate:           t.PostponeDate,
		PostponeReason:         t.PostponeReason,
		RejectionReason:        t.RejectionReason,
		Satisfaction:           t.Satisfaction,
		CompletionFeedback:     t.CompletionFeedback,
		CreatedAt:              t.CreatedAt,
		UpdatedAt:              t.UpdatedAt,
		CompletedAt:            t.CompletedAt,
	}
}

func auditEntryResponse(e *domain.AuditEntry) dto.AuditEntryResponse {
	return dto.AuditEntryResponse{
		ID:              e.ID,
		EventKind:       e.EventKind,
		ResultingStatus: e.ResultingStatus,
		ActorType:       e.ActorType,
		ActorID:         e.ActorID,
		ActorName:       e.ActorName,
		Note:            e.Note,
		CreatedAt:       e.CreatedAt,
	}
}

func commentResponse(cm *domain.Comment) dto.CommentResponse {
	return dto.CommentResponse{
		ID:        cm.ID,
		AuthorID:  cm.AuthorID,
		Body:      cm.Body,
		CreatedAt: cm.CreatedAt,
	}
}
