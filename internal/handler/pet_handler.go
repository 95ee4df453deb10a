package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/peibanapp/peiban-api/internal/dto"
	"github.com/peibanapp/peiban-api/internal/service"
	"github.com/peibanapp/peiban-api/internal/utils"
)

// PetHandler handles virtual pet endpoints.
type PetHandler struct {
	service service.PetService
	logger  zerolog.Logger
}

// NewPetHandler constructs the handler.
func NewPetHandler(service service.PetService, logger zerolog.Logger) *PetHandler {
	return &PetHandler{
		service: service,
		logger:  logger.With().Str("component", "pet_handler").Logger(),
	}
}

// Register wires the pet routes.
func (h *PetHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Put("/:id", h.update)
	router.Delete("/:id", h.delete)
	router.Post("/:id/interact", h.interact)
	router.Get("/:id/interactions", h.listInteractions)
}

func (h *PetHandler) create(c *fiber.Ctx) error {
	var payload dto.PetCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	pet, err := h.service.Create(requestContext(c), actorFromContext(c), payload)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrPetLimitReached):
			return utils.SendError(c, fiber.StatusConflict, "pet limit reached")
		default:
			h.logger.Error().Err(err).Msg("failed to create pet")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to create pet")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "pet created", pet)
}

func (h *PetHandler) list(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}
	offset, err := parseQueryInt(c, "offset")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid offset")
	}

	pets, err := h.service.ListOwn(requestContext(c), actorFromContext(c), limit, offset)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list pets")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list pets")
	}

	return utils.SendSuccess(c, "pets retrieved", pets)
}

func (h *PetHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid pet id")
	}

	pet, err := h.service.Get(requestContext(c), actorFromContext(c), id)
	if err != nil {
		return h.mapPetError(c, err, "failed to load pet")
	}

	return utils.SendSuccess(c, "pet retrieved", pet)
}

func (h *PetHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid pet id")
	}

	var payload dto.PetUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	pet, err := h.service.Update(requestContext(c), actorFromContext(c), id, payload)
	if err != nil {
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		return h.mapPetError(c, err, "failed to update pet")
	}

	return utils.SendSuccess(c, "pet updated", pet)
}

func (h *PetHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid pet id")
	}

	if err := h.service.Delete(requestContext(c), actorFromContext(c), id); err != nil {
		return h.mapPetError(c, err, "failed to delete pet")
	}

	return utils.SendSuccess(c, "pet deleted", nil)
}

func (h *PetHandler) interact(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid pet id")
	}

	var payload dto.PetInteractionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	interaction, err := h.service.Interact(requestContext(c), actorFromContext(c), id, payload)
	if err != nil {
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		return h.mapPetError(c, err, "failed to apply interaction")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "interaction applied", interaction)
}

func (h *PetHandler) listInteractions(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid pet id")
	}

	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}
	offset, err := parseQueryInt(c, "offset")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid offset")
	}

	interactions, err := h.service.ListInteractions(requestContext(c), actorFromContext(c), id, limit, offset)
	if err != nil {
		return h.mapPetError(c, err, "failed to list interactions")
	}

	return utils.SendSuccess(c, "interactions retrieved", interactions)
}

func (h *PetHandler) mapPetError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, service.ErrPetNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "pet not found")
	case errors.Is(err, service.ErrPetAccessDenied):
		return utils.SendError(c, fiber.StatusForbidden, "not allowed to access this pet")
	default:
		h.logger.Error().Err(err).Msg(fallback)
		return utils.SendError(c, fiber.StatusInternalServerError, fallback)
	}
}
