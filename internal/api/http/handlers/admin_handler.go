package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/repository"
	"github.com/spec-kit/triage-service/internal/service"
)

// AdminHandler serves the read-only back-office views. No mutations
// are exposed here; all workflow changes go through adapter routes.
type AdminHandler struct {
	workflow *service.WorkflowService
	registry *service.RegistryService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(workflow *service.WorkflowService, registry *service.RegistryService) *AdminHandler {
	return &AdminHandler{workflow: workflow, registry: registry}
}

// ListTickets GET /admin/tickets?status=&client=.
func (h *AdminHandler) ListTickets(c *fiber.Ctx) error {
	filter := repository.TicketFilter{
		Limit:  c.QueryInt("limit", 100),
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

	tickets, err := h.workflow.ListTickets(c.Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummaries(tickets)})
}

// TicketActivity GET /admin/tickets/:id/activity returns the full
// audit trail for one ticket.
func (h *AdminHandler) TicketActivity(c *fiber.Ctx) error {
	ticketID, err := parseTicketID(c)
	if err != nil {
		return err
	}
	ticket, err := h.workflow.GetTicket(c.Context(), ticketID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"ticket_id": ticket.ID,
		"order_ref": ticket.OrderRef,
		"status":    ticket.Status,
		"activity":  eventResponses(ticket.EventLog),
	}})
}

// ListActors GET /admin/actors returns every registered subscription.
func (h *AdminHandler) ListActors(c *fiber.Ctx) error {
	actors, err := h.registry.ListAll(c.Context())
	if err != nil {
		return err
	}
	items := make([]any, 0, len(actors))
	for i := range actors {
		items = append(items, actorResponse(&actors[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}
