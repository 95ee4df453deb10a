package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/peibanapp/peiban-api/internal/dto"
	"github.com/peibanapp/peiban-api/internal/repository"
	"github.com/peibanapp/peiban-api/internal/service"
	"github.com/peibanapp/peiban-api/internal/utils"
)

// GuideHandler handles how-to guide endpoints.
type GuideHandler struct {
	service service.GuideService
	logger  zerolog.Logger
}

// NewGuideHandler constructs the handler.
func NewGuideHandler(service service.GuideService, logger zerolog.Logger) *GuideHandler {
	return &GuideHandler{
		service: service,
		logger:  logger.With().Str("component", "guide_handler").Logger(),
	}
}

// Register wires the guide routes.
func (h *GuideHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Put("/:id", h.update)
	router.Delete("/:id", h.delete)
	router.Post("/:id/steps", h.addStep)
	router.Put("/:id/steps/:stepId", h.updateStep)
	router.Delete("/:id/steps/:stepId", h.deleteStep)
}

func (h *GuideHandler) create(c *fiber.Ctx) error {
	var payload dto.GuideCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	guide, err := h.service.Create(requestContext(c), actorFromContext(c), payload)
	if err != nil {
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		h.logger.Error().Err(err).Msg("failed to create guide")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to create guide")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "guide created", guide)
}

func (h *GuideHandler) list(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}
	offset, err := parseQueryInt(c, "offset")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid offset")
	}

	filter := repository.GuideFilter{
		Category:      strings.TrimSpace(c.Query("category")),
		PublishedOnly: c.QueryBool("published", true),
		Limit:         limit,
		Offset:        offset,
	}

	guides, total, err := h.service.List(requestContext(c), filter)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list guides")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list guides")
	}

	return utils.SendSuccess(c, "guides retrieved", fiber.Map{
		"items": guides,
		"total": total,
	})
}

func (h *GuideHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid guide id")
	}

	guide, err := h.service.Get(requestContext(c), id)
	if err != nil {
		return h.mapGuideError(c, err, "failed to load guide")
	}

	return utils.SendSuccess(c, "guide retrieved", guide)
}

func (h *GuideHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid guide id")
	}

	var payload dto.GuideUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	guide, err := h.service.Update(requestContext(c), actorFromContext(c), id, payload)
	if err != nil {
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		return h.mapGuideError(c, err, "failed to update guide")
	}

	return utils.SendSuccess(c, "guide updated", guide)
}

func (h *GuideHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid guide id")
	}

	if err := h.service.Delete(requestContext(c), actorFromContext(c), id); err != nil {
		return h.mapGuideError(c, err, "failed to delete guide")
	}

	return utils.SendSuccess(c, "guide deleted", nil)
}

func (h *GuideHandler) addStep(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid guide id")
	}

	var payload dto.GuideStepCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	step, err := h.service.AddStep(requestContext(c), actorFromContext(c), id, payload)
	if err != nil {
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		return h.mapGuideError(c, err, "failed to add step")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "step added", step)
}

func (h *GuideHandler) updateStep(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid guide id")
	}
	stepID, err := parseUintParam(c, "stepId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid step id")
	}

	var payload dto.GuideStepUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	step, err := h.service.UpdateStep(requestContext(c), actorFromContext(c), id, stepID, payload)
	if err != nil {
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		return h.mapGuideError(c, err, "failed to update step")
	}

	return utils.SendSuccess(c, "step updated", step)
}

func (h *GuideHandler) deleteStep(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid guide id")
	}
	stepID, err := parseUintParam(c, "stepId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid step id")
	}

	if err := h.service.DeleteStep(requestContext(c), actorFromContext(c), id, stepID); err != nil {
		return h.mapGuideError(c, err, "failed to delete step")
	}

	return utils.SendSuccess(c, "step deleted", nil)
}

func (h *GuideHandler) mapGuideError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, service.ErrGuideNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "guide not found")
	case errors.Is(err, service.ErrGuideStepNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "guide step not found")
	case errors.Is(err, service.ErrGuideAccessDenied):
		return utils.SendError(c, fiber.StatusForbidden, "not allowed to modify this guide")
	default:
		h.logger.Error().Err(err).Msg(fallback)
		return utils.SendError(c, fiber.StatusInternalServerError, fallback)
	}
}
