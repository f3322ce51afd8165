package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/triage-service/internal/api/dto"
	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/service"
	apperrors "github.com/spec-kit/triage-service/pkg/util/errorutil"
)

// DraftsHandler runs the DA ticket-creation draft flow.
type DraftsHandler struct {
	drafts *service.DraftService
}

// NewDraftsHandler constructs handler.
func NewDraftsHandler(drafts *service.DraftService) *DraftsHandler {
	return &DraftsHandler{drafts: drafts}
}

// Start POST /drafts.
func (h *DraftsHandler) Start(c *fiber.Ctx) error {
	var req dto.StartDraftRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	draft, err := h.drafts.Start(c.Context(), req.OwnerActorID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": draftResponse(draft)})
}

// Edit PATCH /drafts/:owner.
func (h *DraftsHandler) Edit(c *fiber.Ctx) error {
	var req dto.EditDraftRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	draft, err := h.drafts.SetField(c.Context(), c.Params("owner"), req.Field, req.Value)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": draftResponse(draft)})
}

// Get GET /drafts/:owner.
func (h *DraftsHandler) Get(c *fiber.Ctx) error {
	draft, err := h.drafts.Get(c.Context(), c.Params("owner"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": draftResponse(draft)})
}

// Finalize POST /drafts/:owner/finalize.
func (h *DraftsHandler) Finalize(c *fiber.Ctx) error {
	ticket, err := h.drafts.Finalize(c.Context(), c.Params("owner"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// Abandon DELETE /drafts/:owner.
func (h *DraftsHandler) Abandon(c *fiber.Ctx) error {
	if err := h.drafts.Abandon(c.Context(), c.Params("owner")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func draftResponse(draft *domain.TicketDraft) dto.DraftResponse {
	return dto.DraftResponse{
		OwnerActorID: draft.OwnerActorID,
		OrderRef:     draft.OrderRef,
		Description:  draft.Description,
		IssueReason:  draft.IssueReason,
		IssueType:    draft.IssueType,
		Client:       draft.Client,
		ImageRef:     draft.ImageRef,
		Edits:        eventResponses(draft.Edits),
		StartedAt:    draft.StartedAt,
	}
}
