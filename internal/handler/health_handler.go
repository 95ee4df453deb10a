package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/peibanapp/peiban-api/internal/dto"
	"github.com/peibanapp/peiban-api/internal/repository"
	"github.com/peibanapp/peiban-api/internal/service"
	"github.com/peibanapp/peiban-api/internal/utils"
)

// HealthHandler handles vital-sign records, alerts and the live alert stream.
type HealthHandler struct {
	service service.VitalsService
	feed    service.AlertFeedService
	logger  zerolog.Logger
}

// NewHealthHandler constructs the handler. feed may be nil; the stream
// endpoint then reports unavailability.
func NewHealthHandler(service service.VitalsService, feed service.AlertFeedService, logger zerolog.Logger) *HealthHandler {
	return &HealthHandler{
		service: service,
		feed:    feed,
		logger:  logger.With().Str("component", "health_handler").Logger(),
	}
}

// Register wires the health record and alert routes.
func (h *HealthHandler) Register(router fiber.Router) {
	router.Post("/records", h.createRecord)
	router.Get("/records", h.listRecords)
	router.Put("/records/:id", h.updateRecord)
	router.Delete("/records/:id", h.deleteRecord)
	router.Get("/stats", h.stats)
	router.Get("/alerts", h.listAlerts)
	router.Patch("/alerts/:id", h.updateAlertStatus)
	router.Get("/alerts/stream", h.stream)
}

func (h *HealthHandler) createRecord(c *fiber.Ctx) error {
	var payload dto.HealthRecordCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if payload.UserID == 0 {
		payload.UserID = userIDFromContext(c)
	}

	record, err := h.service.RecordMeasurement(requestContext(c), actorFromContext(c), payload)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrInvalidMeasurementValue):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrHealthAccessDenied):
			return utils.SendError(c, fiber.StatusForbidden, "not allowed to record for this user")
		default:
			h.logger.Error().Err(err).Msg("failed to create health record")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to create health record")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "health record created", record)
}

func (h *HealthHandler) listRecords(c *fiber.Ctx) error {
	userID, err := h.targetUserID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid user_id")
	}

	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}
	offset, err := parseQueryInt(c, "offset")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid offset")
	}

	filter := repository.HealthRecordFilter{
		RecordType: strings.TrimSpace(c.Query("record_type")),
		Limit:      limit,
		Offset:     offset,
	}

	if value := strings.TrimSpace(c.Query("start")); value != "" {
		start, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid start")
		}
		filter.Start = &start
	}
	if value := strings.TrimSpace(c.Query("end")); value != "" {
		end, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid end")
		}
		filter.End = &end
	}

	records, err := h.service.ListRecords(requestContext(c), actorFromContext(c), userID, filter)
	if err != nil {
		return h.mapHealthError(c, err, "failed to list health records")
	}

	return utils.SendSuccess(c, "health records retrieved", records)
}

func (h *HealthHandler) updateRecord(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid record id")
	}

	var payload dto.HealthRecordUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	record, err := h.service.UpdateRecord(requestContext(c), actorFromContext(c), id, payload)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrInvalidMeasurementValue):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			return h.mapHealthError(c, err, "failed to update health record")
		}
	}

	return utils.SendSuccess(c, "health record updated", record)
}

func (h *HealthHandler) deleteRecord(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid record id")
	}

	if err := h.service.DeleteRecord(requestContext(c), actorFromContext(c), id); err != nil {
		return h.mapHealthError(c, err, "failed to delete health record")
	}

	return utils.SendSuccess(c, "health record deleted", nil)
}

func (h *HealthHandler) stats(c *fiber.Ctx) error {
	userID, err := h.targetUserID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid user_id")
	}

	recordType := strings.TrimSpace(c.Query("record_type"))
	if recordType == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "record_type is required")
	}

	end := time.Now()
	start := end.AddDate(0, 0, -7)
	if value := strings.TrimSpace(c.Query("start")); value != "" {
		start, err = time.Parse(time.RFC3339, value)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid start")
		}
	}
	if value := strings.TrimSpace(c.Query("end")); value != "" {
		end, err = time.Parse(time.RFC3339, value)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid end")
		}
	}

	stats, err := h.service.Stats(requestContext(c), actorFromContext(c), userID, recordType, start, end)
	if err != nil {
		return h.mapHealthError(c, err, "failed to compute health stats")
	}

	return utils.SendSuccess(c, "health stats retrieved", stats)
}

func (h *HealthHandler) listAlerts(c *fiber.Ctx) error {
	userID, err := h.targetUserID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid user_id")
	}

	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}
	offset, err := parseQueryInt(c, "offset")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid offset")
	}

	alerts, err := h.service.ListActiveAlerts(requestContext(c), actorFromContext(c), userID, limit, offset)
	if err != nil {
		return h.mapHealthError(c, err, "failed to list alerts")
	}

	return utils.SendSuccess(c, "alerts retrieved", alerts)
}

func (h *HealthHandler) updateAlertStatus(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid alert id")
	}

	var payload dto.AlertStatusUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	alert, err := h.service.UpdateAlertStatus(requestContext(c), actorFromContext(c), id, payload)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrAlertAlreadyClosed):
			return utils.SendError(c, fiber.StatusConflict, "alert is already resolved or dismissed")
		default:
			return h.mapHealthError(c, err, "failed to update alert")
		}
	}

	return utils.SendSuccess(c, "alert updated", alert)
}

func (h *HealthHandler) stream(c *fiber.Ctx) error {
	if h.feed == nil {
		return utils.SendError(c, fiber.StatusServiceUnavailable, "alert stream not available")
	}

	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	ctx, cancel := context.WithCancel(requestContext(c))

	stream, cleanup := h.feed.Subscribe(userID)

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer func() {
			cleanup()
			cancel()
		}()

		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case alert, ok := <-stream:
				if !ok {
					return
				}
				if err := writeAlertEvent(w, alert); err != nil {
					h.logger.Debug().Err(err).Msg("failed to write alert event")
					return
				}
			case <-ticker.C:
				if err := writeKeepAlive(w); err != nil {
					h.logger.Debug().Err(err).Msg("failed to write alert keepalive")
					return
				}
			case <-ctx.Done():
				return
			}
		}
	})

	return nil
}

// targetUserID resolves the user whose data is requested: the user_id query
// parameter when present, the authenticated user otherwise.
func (h *HealthHandler) targetUserID(c *fiber.Ctx) (uint, error) {
	if value := strings.TrimSpace(c.Query("user_id")); value != "" {
		parsed, err := parseQueryInt(c, "user_id")
		if err != nil || parsed <= 0 {
			return 0, errors.New("invalid user_id")
		}
		return uint(parsed), nil
	}

	return userIDFromContext(c), nil
}

func (h *HealthHandler) mapHealthError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, service.ErrHealthRecordNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "health record not found")
	case errors.Is(err, service.ErrHealthAlertNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "alert not found")
	case errors.Is(err, service.ErrHealthAccessDenied):
		return utils.SendError(c, fiber.StatusForbidden, "not allowed to access this user's health data")
	default:
		h.logger.Error().Err(err).Msg(fallback)
		return utils.SendError(c, fiber.StatusInternalServerError, fallback)
	}
}

func writeAlertEvent(w *bufio.Writer, alert dto.HealthAlertResponse) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "event: alert\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return err
	}
	return w.Flush()
}

func writeKeepAlive(w *bufio.Writer) error {
	if _, err := fmt.Fprintf(w, ": keep-alive %s\n\n", time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return w.Flush()
}
