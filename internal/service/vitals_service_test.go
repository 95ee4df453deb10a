package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/peibanapp/peiban-api/internal/dto"
	"github.com/peibanapp/peiban-api/internal/models"
	"github.com/peibanapp/peiban-api/internal/repository"
)

type memoryRecordRepo struct {
	records []models.HealthRecord
	failAll bool
}

func (m *memoryRecordRepo) Create(_ context.Context, record *models.HealthRecord) error {
	if m.failAll {
		return errors.New("record store down")
	}
	record.ID = uint(len(m.records) + 1)
	record.CreatedAt = time.Now()
	m.records = append(m.records, *record)
	return nil
}

func (m *memoryRecordRepo) GetByID(_ context.Context, id uint) (models.HealthRecord, error) {
	for _, record := range m.records {
		if record.ID == id {
			return record, nil
		}
	}
	return models.HealthRecord{}, gorm.ErrRecordNotFound
}

func (m *memoryRecordRepo) Update(_ context.Context, record *models.HealthRecord) error {
	for i, existing := range m.records {
		if existing.ID == record.ID {
			m.records[i] = *record
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *memoryRecordRepo) Delete(_ context.Context, id uint) error {
	for i, record := range m.records {
		if record.ID == id {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *memoryRecordRepo) ListByUser(_ context.Context, userID uint, filter repository.HealthRecordFilter) ([]models.HealthRecord, error) {
	var result []models.HealthRecord
	for _, record := range m.records {
		if record.UserID != userID {
			continue
		}
		if filter.RecordType != "" && record.RecordType != filter.RecordType {
			continue
		}
		if filter.Start != nil && record.MeasuredAt.Before(*filter.Start) {
			continue
		}
		if filter.End != nil && record.MeasuredAt.After(*filter.End) {
			continue
		}
		result = append(result, record)
	}
	return result, nil
}

type memoryAlertRepo struct {
	alerts     []models.HealthAlert
	failCreate bool
}

func (m *memoryAlertRepo) Create(_ context.Context, alert *models.HealthAlert) error {
	if m.failCreate {
		return errors.New("alert store down")
	}
	alert.ID = uint(len(m.alerts) + 1)
	alert.CreatedAt = time.Now()
	m.alerts = append(m.alerts, *alert)
	return nil
}

func (m *memoryAlertRepo) GetByID(_ context.Context, id uint) (models.HealthAlert, error) {
	for _, alert := range m.alerts {
		if alert.ID == id {
			return alert, nil
		}
	}
	return models.HealthAlert{}, gorm.ErrRecordNotFound
}

func (m *memoryAlertRepo) Update(_ context.Context, alert *models.HealthAlert) error {
	for i, existing := range m.alerts {
		if existing.ID == alert.ID {
			m.alerts[i] = *alert
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *memoryAlertRepo) ListActive(_ context.Context, userID *uint, _, _ int) ([]models.HealthAlert, error) {
	var result []models.HealthAlert
	for _, alert := range m.alerts {
		if alert.Status != models.AlertStatusActive {
			continue
		}
		if userID != nil && alert.UserID != *userID {
			continue
		}
		result = append(result, alert)
	}
	return result, nil
}

type capturePublisher struct {
	published []dto.HealthAlertResponse
}

func (p *capturePublisher) PublishAlert(_ context.Context, alert dto.HealthAlertResponse) {
	p.published = append(p.published, alert)
}

func newVitalsFixture() (*memoryRecordRepo, *memoryAlertRepo, *capturePublisher, VitalsService) {
	records := &memoryRecordRepo{}
	alerts := &memoryAlertRepo{}
	feed := &capturePublisher{}
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewVitalsService(records, alerts, feed, validate, testLogger())
	return records, alerts, feed, svc
}

func measuredAt() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func TestRecordMeasurementFiresHighAlert(t *testing.T) {
	records, alerts, feed, svc := newVitalsFixture()

	actor := Actor{ID: 1, Role: models.RoleUser}
	record, err := svc.RecordMeasurement(context.Background(), actor, dto.HealthRecordCreateRequest{
		UserID:     1,
		RecordType: models.RecordTypeHeartRate,
		Value:      "105",
		Unit:       "bpm",
		MeasuredAt: measuredAt(),
	})
	require.NoError(t, err)
	require.NotZero(t, record.ID)
	require.Len(t, records.records, 1)

	require.Len(t, alerts.alerts, 1)
	alert := alerts.alerts[0]
	require.Equal(t, uint(1), alert.UserID)
	require.Equal(t, models.AlertTypeVitalSigns, alert.AlertType)
	require.Equal(t, models.AlertSeverityHigh, alert.Severity)
	require.Equal(t, "心率偏高: 105 bpm", alert.Message)
	require.Equal(t, models.AlertStatusActive, alert.Status)
	require.Equal(t, models.RecordTypeHeartRate, alert.Metadata["record_type"])

	require.Len(t, feed.published, 1)
	require.Equal(t, alert.Message, feed.published[0].Message)
}

func TestRecordMeasurementNormalReadingNoAlert(t *testing.T) {
	records, alerts, feed, svc := newVitalsFixture()

	actor := Actor{ID: 1, Role: models.RoleUser}
	_, err := svc.RecordMeasurement(context.Background(), actor, dto.HealthRecordCreateRequest{
		UserID:     1,
		RecordType: models.RecordTypeTemperature,
		Value:      "36.8",
		Unit:       "°C",
		MeasuredAt: measuredAt(),
	})
	require.NoError(t, err)
	require.Len(t, records.records, 1)
	require.Empty(t, alerts.alerts)
	require.Empty(t, feed.published)
}

func TestRecordMeasurementLowBloodPressureMediumAlert(t *testing.T) {
	_, alerts, _, svc := newVitalsFixture()

	actor := Actor{ID: 1, Role: models.RoleUser}
	_, err := svc.RecordMeasurement(context.Background(), actor, dto.HealthRecordCreateRequest{
		UserID:     1,
		RecordType: models.RecordTypeBloodPressure,
		Value:      "85/55",
		Unit:       "mmHg",
		MeasuredAt: measuredAt(),
	})
	require.NoError(t, err)
	require.Len(t, alerts.alerts, 1)
	require.Equal(t, models.AlertSeverityMedium, alerts.alerts[0].Severity)
	require.Equal(t, "血压偏低: 85/55 mmHg", alerts.alerts[0].Message)
}

func TestRecordMeasurementMalformedBloodPressureIsTolerated(t *testing.T) {
	records, alerts, _, svc := newVitalsFixture()

	actor := Actor{ID: 1, Role: models.RoleUser}
	_, err := svc.RecordMeasurement(context.Background(), actor, dto.HealthRecordCreateRequest{
		UserID:     1,
		RecordType: models.RecordTypeBloodPressure,
		Value:      "notanumber",
		Unit:       "mmHg",
		MeasuredAt: measuredAt(),
	})
	require.NoError(t, err)
	require.Len(t, records.records, 1, "the record must still be stored")
	require.Empty(t, alerts.alerts)
}

func TestRecordMeasurementMalformedScalarRejected(t *testing.T) {
	records, _, _, svc := newVitalsFixture()

	actor := Actor{ID: 1, Role: models.RoleUser}
	_, err := svc.RecordMeasurement(context.Background(), actor, dto.HealthRecordCreateRequest{
		UserID:     1,
		RecordType: models.RecordTypeHeartRate,
		Value:      "abc",
		Unit:       "bpm",
		MeasuredAt: measuredAt(),
	})
	require.ErrorIs(t, err, ErrInvalidMeasurementValue)
	require.Empty(t, records.records)
}

func TestRecordMeasurementAlertPersistFailureDoesNotFailWrite(t *testing.T) {
	records, alerts, feed, svc := newVitalsFixture()
	alerts.failCreate = true

	actor := Actor{ID: 1, Role: models.RoleUser}
	_, err := svc.RecordMeasurement(context.Background(), actor, dto.HealthRecordCreateRequest{
		UserID:     1,
		RecordType: models.RecordTypeHeartRate,
		Value:      "110",
		Unit:       "bpm",
		MeasuredAt: measuredAt(),
	})
	require.NoError(t, err)
	require.Len(t, records.records, 1)
	require.Empty(t, feed.published)
}

func TestRecordMeasurementPermission(t *testing.T) {
	_, _, _, svc := newVitalsFixture()

	payload := dto.HealthRecordCreateRequest{
		UserID:     2,
		RecordType: models.RecordTypeHeartRate,
		Value:      "80",
		Unit:       "bpm",
		MeasuredAt: measuredAt(),
	}

	_, err := svc.RecordMeasurement(context.Background(), Actor{ID: 1, Role: models.RoleUser}, payload)
	require.ErrorIs(t, err, ErrHealthAccessDenied)

	_, err = svc.RecordMeasurement(context.Background(), Actor{ID: 1, Role: models.RoleAdmin}, payload)
	require.NoError(t, err)
}

func TestUpdateAlertStatusTerminal(t *testing.T) {
	_, alerts, _, svc := newVitalsFixture()

	require.NoError(t, alerts.Create(context.Background(), &models.HealthAlert{
		UserID:    1,
		AlertType: models.AlertTypeVitalSigns,
		Severity:  models.AlertSeverityHigh,
		Message:   "心率偏高: 105 bpm",
		Status:    models.AlertStatusActive,
	}))

	actor := Actor{ID: 1, Role: models.RoleUser}
	updated, err := svc.UpdateAlertStatus(context.Background(), actor, 1, dto.AlertStatusUpdateRequest{Status: models.AlertStatusResolved})
	require.NoError(t, err)
	require.Equal(t, models.AlertStatusResolved, updated.Status)
	require.NotNil(t, updated.ResolvedAt)

	_, err = svc.UpdateAlertStatus(context.Background(), actor, 1, dto.AlertStatusUpdateRequest{Status: models.AlertStatusDismissed})
	require.ErrorIs(t, err, ErrAlertAlreadyClosed)
}

func TestUpdateAlertStatusOtherUserDenied(t *testing.T) {
	_, alerts, _, svc := newVitalsFixture()

	require.NoError(t, alerts.Create(context.Background(), &models.HealthAlert{
		UserID: 7,
		Status: models.AlertStatusActive,
	}))

	_, err := svc.UpdateAlertStatus(context.Background(), Actor{ID: 1, Role: models.RoleUser}, 1, dto.AlertStatusUpdateRequest{Status: models.AlertStatusResolved})
	require.ErrorIs(t, err, ErrHealthAccessDenied)
}

func TestStatsSummary(t *testing.T) {
	records, _, _, svc := newVitalsFixture()

	now := time.Now().UTC()
	for i, value := range []string{"80", "100", "60"} {
		require.NoError(t, records.Create(context.Background(), &models.HealthRecord{
			UserID:     1,
			RecordType: models.RecordTypeHeartRate,
			Value:      value,
			Unit:       "bpm",
			MeasuredAt: now.Add(-time.Duration(i) * time.Hour),
		}))
	}
	// Unparsable values are excluded from the aggregates.
	require.NoError(t, records.Create(context.Background(), &models.HealthRecord{
		UserID:     1,
		RecordType: models.RecordTypeHeartRate,
		Value:      "n/a",
		Unit:       "bpm",
		MeasuredAt: now,
	}))

	stats, err := svc.Stats(context.Background(), Actor{ID: 1, Role: models.RoleUser}, 1, models.RecordTypeHeartRate, now.AddDate(0, 0, -1), now.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, 4, stats.Summary.Count)
	require.NotNil(t, stats.Summary.Min)
	require.Equal(t, 60.0, *stats.Summary.Min)
	require.Equal(t, 100.0, *stats.Summary.Max)
	require.Equal(t, 80.0, *stats.Summary.Avg)
}

func TestStatsMedicationCountOnly(t *testing.T) {
	records, _, _, svc := newVitalsFixture()

	now := time.Now().UTC()
	require.NoError(t, records.Create(context.Background(), &models.HealthRecord{
		UserID:     1,
		RecordType: models.RecordTypeMedication,
		Value:      "阿司匹林 100mg",
		Unit:       "片",
		MeasuredAt: now,
	}))

	stats, err := svc.Stats(context.Background(), Actor{ID: 1, Role: models.RoleUser}, 1, models.RecordTypeMedication, now.AddDate(0, 0, -1), now.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, 1, stats.Summary.Count)
	require.Nil(t, stats.Summary.Min)
	require.Nil(t, stats.Summary.Max)
	require.Nil(t, stats.Summary.Avg)
}
