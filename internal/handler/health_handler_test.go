package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/peibanapp/peiban-api/internal/dto"
	"github.com/peibanapp/peiban-api/internal/handler"
	"github.com/peibanapp/peiban-api/internal/models"
	"github.com/peibanapp/peiban-api/internal/repository"
	"github.com/peibanapp/peiban-api/internal/service"
)

type mockVitalsService struct {
	lastCreate dto.HealthRecordCreateRequest
	lastAlert  dto.AlertStatusUpdateRequest
	recordResp dto.HealthRecordResponse
	alertResp  dto.HealthAlertResponse
	err        error
}

func (m *mockVitalsService) RecordMeasurement(_ context.Context, _ service.Actor, payload dto.HealthRecordCreateRequest) (dto.HealthRecordResponse, error) {
	m.lastCreate = payload
	return m.recordResp, m.err
}

func (m *mockVitalsService) ListRecords(_ context.Context, _ service.Actor, _ uint, _ repository.HealthRecordFilter) ([]dto.HealthRecordResponse, error) {
	return nil, m.err
}

func (m *mockVitalsService) UpdateRecord(_ context.Context, _ service.Actor, _ uint, _ dto.HealthRecordUpdateRequest) (dto.HealthRecordResponse, error) {
	return m.recordResp, m.err
}

func (m *mockVitalsService) DeleteRecord(_ context.Context, _ service.Actor, _ uint) error {
	return m.err
}

func (m *mockVitalsService) Stats(_ context.Context, _ service.Actor, _ uint, _ string, _, _ time.Time) (dto.HealthStatsResponse, error) {
	return dto.HealthStatsResponse{}, m.err
}

func (m *mockVitalsService) ListActiveAlerts(_ context.Context, _ service.Actor, _ uint, _, _ int) ([]dto.HealthAlertResponse, error) {
	return []dto.HealthAlertResponse{m.alertResp}, m.err
}

func (m *mockVitalsService) UpdateAlertStatus(_ context.Context, _ service.Actor, _ uint, payload dto.AlertStatusUpdateRequest) (dto.HealthAlertResponse, error) {
	m.lastAlert = payload
	return m.alertResp, m.err
}

func newHealthApp(svc service.VitalsService) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v1/health", func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(42))
		c.Locals("user_role", "user")
		return c.Next()
	})
	handler.NewHealthHandler(svc, nil, zerolog.New(io.Discard)).Register(group)
	return app
}

func TestHealthHandlerCreateRecordDefaultsUser(t *testing.T) {
	svc := &mockVitalsService{recordResp: dto.HealthRecordResponse{ID: 1, UserID: 42}}
	app := newHealthApp(svc)

	payload := map[string]string{
		"record_type": models.RecordTypeHeartRate,
		"value":       "88",
		"unit":        "bpm",
		"measured_at": time.Now().UTC().Format(time.RFC3339),
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/health/records", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Equal(t, uint(42), svc.lastCreate.UserID, "missing user_id falls back to the authenticated user")
}

func TestHealthHandlerCreateRecordRejectsBadValue(t *testing.T) {
	svc := &mockVitalsService{err: service.ErrInvalidMeasurementValue}
	app := newHealthApp(svc)

	payload := map[string]string{
		"record_type": models.RecordTypeHeartRate,
		"value":       "abc",
		"unit":        "bpm",
		"measured_at": time.Now().UTC().Format(time.RFC3339),
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/health/records", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHealthHandlerAlertStatusConflict(t *testing.T) {
	svc := &mockVitalsService{err: service.ErrAlertAlreadyClosed}
	app := newHealthApp(svc)

	body, err := json.Marshal(dto.AlertStatusUpdateRequest{Status: models.AlertStatusResolved})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/health/alerts/1", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestHealthHandlerAlertStatusUpdated(t *testing.T) {
	resolvedAt := time.Now().UTC()
	svc := &mockVitalsService{alertResp: dto.HealthAlertResponse{ID: 1, UserID: 42, Status: models.AlertStatusResolved, ResolvedAt: &resolvedAt}}
	app := newHealthApp(svc)

	body, err := json.Marshal(dto.AlertStatusUpdateRequest{Status: models.AlertStatusResolved})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/health/alerts/1", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response struct {
		Success bool                    `json:"success"`
		Data    dto.HealthAlertResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.True(t, response.Success)
	require.Equal(t, models.AlertStatusResolved, response.Data.Status)
	require.NotNil(t, response.Data.ResolvedAt)
	require.Equal(t, models.AlertStatusResolved, svc.lastAlert.Status)
}

func TestHealthHandlerStreamUnavailableWithoutFeed(t *testing.T) {
	svc := &mockVitalsService{}
	app := newHealthApp(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health/alerts/stream", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}
