package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/peibanapp/peiban-api/internal/dto"
	"github.com/peibanapp/peiban-api/internal/service"
	"github.com/peibanapp/peiban-api/internal/utils"
)

// ActivityHandler handles community activity endpoints.
type ActivityHandler struct {
	service service.ActivityService
	logger  zerolog.Logger
}

// NewActivityHandler constructs the handler.
func NewActivityHandler(service service.ActivityService, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		service: service,
		logger:  logger.With().Str("component", "activity_handler").Logger(),
	}
}

// Register wires the activity routes.
func (h *ActivityHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Get("", h.list)
	router.Get("/available", h.listAvailable)
	router.Get("/:id", h.get)
	router.Put("/:id", h.update)
	router.Delete("/:id", h.delete)
	router.Post("/:id/join", h.join)
	router.Post("/:id/leave", h.leave)
	router.Get("/:id/participants", h.participants)
}

func (h *ActivityHandler) create(c *fiber.Ctx) error {
	var payload dto.ActivityCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	activity, err := h.service.Create(requestContext(c), actorFromContext(c), payload)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrInvalidTimeRange):
			return utils.SendError(c, fiber.StatusBadRequest, "end time must be after start time")
		default:
			h.logger.Error().Err(err).Msg("failed to create activity")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to create activity")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "activity created", activity)
}

func (h *ActivityHandler) list(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}
	offset, err := parseQueryInt(c, "offset")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid offset")
	}

	activities, total, err := h.service.List(requestContext(c), limit, offset)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list activities")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list activities")
	}

	return utils.SendSuccess(c, "activities retrieved", fiber.Map{
		"items": activities,
		"total": total,
	})
}

func (h *ActivityHandler) listAvailable(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}
	offset, err := parseQueryInt(c, "offset")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid offset")
	}

	activities, err := h.service.ListAvailable(requestContext(c), limit, offset)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list available activities")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list available activities")
	}

	return utils.SendSuccess(c, "activities retrieved", activities)
}

func (h *ActivityHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid activity id")
	}

	activity, err := h.service.Get(requestContext(c), id)
	if err != nil {
		return h.mapActivityError(c, err, "failed to load activity")
	}

	return utils.SendSuccess(c, "activity retrieved", activity)
}

func (h *ActivityHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid activity id")
	}

	var payload dto.ActivityUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	activity, err := h.service.Update(requestContext(c), actorFromContext(c), id, payload)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrInvalidTimeRange):
			return utils.SendError(c, fiber.StatusBadRequest, "end time must be after start time")
		default:
			return h.mapActivityError(c, err, "failed to update activity")
		}
	}

	return utils.SendSuccess(c, "activity updated", activity)
}

func (h *ActivityHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid activity id")
	}

	if err := h.service.Delete(requestContext(c), actorFromContext(c), id); err != nil {
		return h.mapActivityError(c, err, "failed to delete activity")
	}

	return utils.SendSuccess(c, "activity deleted", nil)
}

func (h *ActivityHandler) join(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid activity id")
	}

	participant, err := h.service.Join(requestContext(c), actorFromContext(c), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAlreadyJoined):
			return utils.SendError(c, fiber.StatusConflict, "already joined this activity")
		case errors.Is(err, service.ErrActivityFull):
			return utils.SendError(c, fiber.StatusConflict, "activity is full")
		case errors.Is(err, service.ErrActivityNotJoinable):
			return utils.SendError(c, fiber.StatusConflict, "activity is not open for registration")
		default:
			return h.mapActivityError(c, err, "failed to join activity")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "joined activity", participant)
}

func (h *ActivityHandler) leave(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid activity id")
	}

	if err := h.service.Leave(requestContext(c), actorFromContext(c), id); err != nil {
		if errors.Is(err, service.ErrNotParticipant) {
			return utils.SendError(c, fiber.StatusConflict, "not a participant of this activity")
		}
		return h.mapActivityError(c, err, "failed to leave activity")
	}

	return utils.SendSuccess(c, "left activity", nil)
}

func (h *ActivityHandler) participants(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid activity id")
	}

	participants, err := h.service.Participants(requestContext(c), id)
	if err != nil {
		return h.mapActivityError(c, err, "failed to list participants")
	}

	return utils.SendSuccess(c, "participants retrieved", participants)
}

func (h *ActivityHandler) mapActivityError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, service.ErrActivityNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "activity not found")
	case errors.Is(err, service.ErrActivityAccessDenied):
		return utils.SendError(c, fiber.StatusForbidden, "not allowed to modify this activity")
	default:
		h.logger.Error().Err(err).Msg(fallback)
		return utils.SendError(c, fiber.StatusInternalServerError, fallback)
	}
}
