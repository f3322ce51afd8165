package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/triage-service/internal/api/dto"
	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/service"
	apperrors "github.com/spec-kit/triage-service/pkg/util/errorutil"
)

// ActorsHandler manages actor registry endpoints.
type ActorsHandler struct {
	registry *service.RegistryService
}

// NewActorsHandler constructs handler.
func NewActorsHandler(registry *service.RegistryService) *ActorsHandler {
	return &ActorsHandler{registry: registry}
}

// Register POST /actors.
func (h *ActorsHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterActorRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	actor, err := h.registry.Register(c.Context(), service.RegisterInput{
		Identity:          req.Identity,
		Role:              req.Role,
		ClientAffiliation: req.ClientAffiliation,
		ContactAddress:    req.ContactAddress,
		DisplayName:       req.DisplayName,
		Phone:             req.Phone,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": actorResponse(actor)})
}

// List GET /actors?role=&affiliation=.
func (h *ActorsHandler) List(c *fiber.Ctx) error {
	role := domain.Role(c.Query("role"))
	affiliation := c.Query("affiliation")

	var (
		actors []domain.Actor
		err    error
	)
	if affiliation != "" {
		actors, err = h.registry.ListByRoleAndAffiliation(c.Context(), role, affiliation)
	} else {
		actors, err = h.registry.ListByRole(c.Context(), role)
	}
	if err != nil {
		return err
	}

	items := make([]dto.ActorResponse, 0, len(actors))
	for i := range actors {
		items = append(items, actorResponse(&actors[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /actors/:identity/:role.
func (h *ActorsHandler) Get(c *fiber.Ctx) error {
	actor, err := h.registry.Lookup(c.Context(), c.Params("identity"), domain.Role(c.Params("role")))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": actorResponse(actor)})
}

func actorResponse(actor *domain.Actor) dto.ActorResponse {
	return dto.ActorResponse{
		Identity:          actor.Identity,
		Role:              actor.Role,
		ClientAffiliation: actor.ClientAffiliation,
		ContactAddress:    actor.ContactAddress,
		DisplayName:       actor.DisplayName,
		Phone:             actor.Phone,
		Complete:          actor.Complete(),
		CreatedAt:         actor.CreatedAt,
		UpdatedAt:         actor.UpdatedAt,
	}
}
