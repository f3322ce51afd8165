package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/triage-service/internal/api/dto"
	"github.com/spec-kit/triage-service/internal/auth"
	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/repository"
	"github.com/spec-kit/triage-service/internal/service"
	apperrors "github.com/spec-kit/triage-service/pkg/util/errorutil"
)

// TicketsHandler manages ticket workflow endpoints for adapters.
type TicketsHandler struct {
	workflow  *service.WorkflowService
	reminders *service.ReminderService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(workflow *service.WorkflowService, reminders *service.ReminderService) *TicketsHandler {
	return &TicketsHandler{workflow: workflow, reminders: reminders}
}

// ApplyTransition POST /tickets/:id/transitions. The acting role is
// derived from the caller's scope, never from the request body.
func (h *TicketsHandler) ApplyTransition(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("adapter account required")
	}
	role, ok := principal.ActsForRole()
	if !ok {
		return apperrors.NewForbidden("admin accounts cannot apply transitions")
	}

	ticketID, err := parseTicketID(c)
	if err != nil {
		return err
	}

	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Kind == "" {
		return apperrors.NewValidationError("kind required", nil)
	}

	ticket, err := h.workflow.ApplyTransition(c.Context(), domain.Transition{
		Kind:     req.Kind,
		TicketID: ticketID,
		Role:     role,
		Payload:  req.Payload,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// List GET /tickets?status=&client=&owner=.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	filter := repository.TicketFilter{
		Limit:  c.QueryInt("limit", 50),
		Offset: c.QueryInt("offset", 0),
	}
	if status := c.Query("status"); status != "" {
		if status == "open" {
			filter.Statuses = domain.OpenStatuses()
		} else {
			filter.Statuses = []domain.TicketStatus{domain.TicketStatus(status)}
		}
	}
	if client := c.Query("client"); client != "" {
		filter.Client = &client
	}
	if owner := c.Query("owner"); owner != "" {
		filter.OwnerActorID = &owner
	}

	tickets, err := h.workflow.ListTickets(c.Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummaries(tickets)})
}

// Get GET /tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	ticketID, err := parseTicketID(c)
	if err != nil {
		return err
	}
	ticket, err := h.workflow.GetTicket(c.Context(), ticketID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// Search GET /tickets/search?order_ref=.
func (h *TicketsHandler) Search(c *fiber.Ctx) error {
	tickets, err := h.workflow.SearchByOrderRef(c.Context(), c.Query("order_ref"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummaries(tickets)})
}

// ScheduleReminder POST /tickets/:id/reminders. Arms the client
// "respond later" timer; delay "now" disarms instead.
func (h *TicketsHandler) ScheduleReminder(c *fiber.Ctx) error {
	ticketID, err := parseTicketID(c)
	if err != nil {
		return err
	}
	var req dto.ScheduleReminderRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ContactAddress == "" {
		return apperrors.NewValidationError("contact_address required", nil)
	}

	// Scheduling against an unknown ticket should fail loudly now,
	// not minutes later inside the timer goroutine.
	if _, err := h.workflow.GetTicket(c.Context(), ticketID); err != nil {
		return err
	}
	if err := h.reminders.Schedule(ticketID, req.ContactAddress, service.ReminderDelay(req.Delay)); err != nil {
		return err
	}
	return c.SendStatus(http.StatusAccepted)
}

func parseTicketID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid ticket id", nil)
	}
	return id, nil
}

func ticketSummaries(tickets []domain.Ticket) []dto.TicketSummary {
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return items
}

func ticketSummary(ticket *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:           ticket.ID,
		OrderRef:     ticket.OrderRef,
		Client:       ticket.Client,
		IssueType:    ticket.IssueType,
		Status:       ticket.Status,
		OwnerActorID: ticket.OwnerActorID,
		CreatedAt:    ticket.CreatedAt,
		UpdatedAt:    ticket.UpdatedAt,
	}
}

func ticketDetail(ticket *domain.Ticket) dto.TicketDetailResponse {
	return dto.TicketDetailResponse{
		ID:           ticket.ID,
		OrderRef:     ticket.OrderRef,
		Description:  ticket.Description,
		IssueReason:  ticket.IssueReason,
		IssueType:    ticket.IssueType,
		Client:       ticket.Client,
		ImageRef:     ticket.ImageRef,
		Status:       ticket.Status,
		OwnerActorID: ticket.OwnerActorID,
		EventLog:     eventResponses(ticket.EventLog),
		CreatedAt:    ticket.CreatedAt,
		UpdatedAt:    ticket.UpdatedAt,
	}
}

func eventResponses(events []domain.TicketEvent) []dto.TicketEventResponse {
	items := make([]dto.TicketEventResponse, 0, len(events))
	for _, event := range events {
		items = append(items, dto.TicketEventResponse{
			Action:    event.Action,
			ActorRole: event.ActorRole,
			Message:   event.Message,
			Timestamp: event.Timestamp,
		})
	}
	return items
}
