package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/peibanapp/peiban-api/internal/dto"
	"github.com/peibanapp/peiban-api/internal/models"
	"github.com/peibanapp/peiban-api/internal/observability"
	"github.com/peibanapp/peiban-api/internal/repository"
)

var (
	// ErrHealthRecordNotFound indicates the requested record does not exist.
	ErrHealthRecordNotFound = errors.New("health record not found")
	// ErrHealthAlertNotFound indicates the requested alert does not exist.
	ErrHealthAlertNotFound = errors.New("health alert not found")
	// ErrHealthAccessDenied indicates the actor may not touch the target user's data.
	ErrHealthAccessDenied = errors.New("not allowed to access this user's health data")
	// ErrInvalidMeasurementValue indicates a scalar vital-sign value that does not parse.
	ErrInvalidMeasurementValue = errors.New("measurement value is not a valid number")
	// ErrAlertAlreadyClosed indicates a transition out of a terminal alert state.
	ErrAlertAlreadyClosed = errors.New("alert is already resolved or dismissed")
)

// AlertPublisher pushes a freshly fired alert to live subscribers.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, alert dto.HealthAlertResponse)
}

// VitalsService exposes health record and alert use cases.
type VitalsService interface {
	RecordMeasurement(ctx context.Context, actor Actor, payload dto.HealthRecordCreateRequest) (dto.HealthRecordResponse, error)
	ListRecords(ctx context.Context, actor Actor, userID uint, filter repository.HealthRecordFilter) ([]dto.HealthRecordResponse, error)
	UpdateRecord(ctx context.Context, actor Actor, id uint, payload dto.HealthRecordUpdateRequest) (dto.HealthRecordResponse, error)
	DeleteRecord(ctx context.Context, actor Actor, id uint) error
	Stats(ctx context.Context, actor Actor, userID uint, recordType string, start, end time.Time) (dto.HealthStatsResponse, error)
	ListActiveAlerts(ctx context.Context, actor Actor, userID uint, limit, offset int) ([]dto.HealthAlertResponse, error)
	UpdateAlertStatus(ctx context.Context, actor Actor, alertID uint, payload dto.AlertStatusUpdateRequest) (dto.HealthAlertResponse, error)
}

type vitalsService struct {
	records   repository.HealthRecordRepository
	alerts    repository.HealthAlertRepository
	feed      AlertPublisher
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewVitalsService builds the health record/alert service. feed may be nil
// when live alert streaming is not configured.
func NewVitalsService(records repository.HealthRecordRepository, alerts repository.HealthAlertRepository, feed AlertPublisher, validate *validator.Validate, logger zerolog.Logger) VitalsService {
	return &vitalsService{
		records:   records,
		alerts:    alerts,
		feed:      feed,
		validator: validate,
		logger:    logger.With().Str("component", "vitals_service").Logger(),
		tracer:    otel.Tracer("github.com/peibanapp/peiban-api/internal/service/vitals"),
		now:       time.Now,
	}
}

func (s *vitalsService) RecordMeasurement(ctx context.Context, actor Actor, payload dto.HealthRecordCreateRequest) (dto.HealthRecordResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.HealthRecordResponse{}, err
	}

	if payload.UserID != actor.ID && !actor.IsAdmin() {
		return dto.HealthRecordResponse{}, ErrHealthAccessDenied
	}

	measuredAt, err := time.Parse(time.RFC3339, payload.MeasuredAt)
	if err != nil {
		return dto.HealthRecordResponse{}, fmt.Errorf("invalid measured_at: %w", err)
	}

	// Scalar vital signs must carry a parseable number; rejecting here keeps
	// unreadable readings out of the store entirely. Blood pressure is looser:
	// legacy clients send partial values, so its parse failures are tolerated
	// at evaluation time instead.
	var scalarReading float64
	if isScalarVital(payload.RecordType) {
		scalarReading, err = strconv.ParseFloat(payload.Value, 64)
		if err != nil {
			return dto.HealthRecordResponse{}, fmt.Errorf("%w: %q", ErrInvalidMeasurementValue, payload.Value)
		}
	}

	ctx, span := s.tracer.Start(ctx, "vitals.record", trace.WithAttributes(
		attribute.String("record.type", payload.RecordType),
		attribute.Int64("record.user_id", int64(payload.UserID)),
	))
	defer span.End()

	record := models.HealthRecord{
		UserID:     payload.UserID,
		RecordType: payload.RecordType,
		Value:      payload.Value,
		Unit:       payload.Unit,
		MeasuredAt: measuredAt,
		Notes:      payload.Notes,
	}

	if err := s.records.Create(ctx, &record); err != nil {
		span.RecordError(err)
		return dto.HealthRecordResponse{}, err
	}

	s.evaluateAndPersistAlert(ctx, record, scalarReading)

	s.logger.Info().Uint("record_id", record.ID).Str("record_type", record.RecordType).Msg("health record created")

	return dto.NewHealthRecordResponse(record), nil
}

// evaluateAndPersistAlert runs threshold evaluation as a side channel of the
// measurement write. Nothing in here may fail the caller: a measurement must
// be stored even when its alert cannot be.
func (s *vitalsService) evaluateAndPersistAlert(ctx context.Context, record models.HealthRecord, scalarReading float64) {
	var (
		draft alertDraft
		fired bool
	)

	switch {
	case record.RecordType == models.RecordTypeBloodPressure:
		reading, err := ParseBloodPressure(record.Value)
		if err != nil {
			s.logger.Warn().Err(err).Uint("record_id", record.ID).Msg("skipping alert evaluation for malformed blood pressure value")
			observability.AlertEvaluationFailures().WithLabelValues("malformed_compound").Inc()
			return
		}
		draft, fired = evaluateBloodPressure(reading, record.Value, record.Unit)
	case isScalarVital(record.RecordType):
		draft, fired = evaluateScalar(record.RecordType, scalarReading, record.Value, record.Unit)
	default:
		// Record type is exempt from threshold evaluation.
		return
	}

	if !fired {
		return
	}

	alert := models.HealthAlert{
		UserID:    record.UserID,
		AlertType: models.AlertTypeVitalSigns,
		Severity:  draft.Severity,
		Message:   draft.Message,
		Status:    models.AlertStatusActive,
		Metadata: datatypes.JSONMap{
			"record_id":   record.ID,
			"record_type": record.RecordType,
			"value":       record.Value,
			"unit":        record.Unit,
		},
	}

	if err := s.alerts.Create(ctx, &alert); err != nil {
		s.logger.Error().Err(err).Uint("record_id", record.ID).Msg("failed to persist vital-sign alert")
		observability.AlertEvaluationFailures().WithLabelValues("persist_failed").Inc()
		return
	}

	observability.VitalAlertsFired().WithLabelValues(record.RecordType, alert.Severity).Inc()

	if s.feed != nil {
		s.feed.PublishAlert(ctx, dto.NewHealthAlertResponse(alert))
	}

	s.logger.Info().
		Uint("alert_id", alert.ID).
		Str("severity", alert.Severity).
		Str("record_type", record.RecordType).
		Msg("vital-sign alert fired")
}

func (s *vitalsService) ListRecords(ctx context.Context, actor Actor, userID uint, filter repository.HealthRecordFilter) ([]dto.HealthRecordResponse, error) {
	if userID != actor.ID && !actor.IsAdmin() {
		return nil, ErrHealthAccessDenied
	}

	records, err := s.records.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	return dto.NewHealthRecordResponseSlice(records), nil
}

func (s *vitalsService) UpdateRecord(ctx context.Context, actor Actor, id uint, payload dto.HealthRecordUpdateRequest) (dto.HealthRecordResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.HealthRecordResponse{}, err
	}

	record, err := s.records.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.HealthRecordResponse{}, ErrHealthRecordNotFound
		}
		return dto.HealthRecordResponse{}, err
	}

	if record.UserID != actor.ID && !actor.IsAdmin() {
		return dto.HealthRecordResponse{}, ErrHealthAccessDenied
	}

	if payload.Value != nil {
		if isScalarVital(record.RecordType) {
			if _, err := strconv.ParseFloat(*payload.Value, 64); err != nil {
				return dto.HealthRecordResponse{}, fmt.Errorf("%w: %q", ErrInvalidMeasurementValue, *payload.Value)
			}
		}
		record.Value = *payload.Value
	}
	if payload.Unit != nil {
		record.Unit = *payload.Unit
	}
	if payload.MeasuredAt != nil {
		measuredAt, err := time.Parse(time.RFC3339, *payload.MeasuredAt)
		if err != nil {
			return dto.HealthRecordResponse{}, fmt.Errorf("invalid measured_at: %w", err)
		}
		record.MeasuredAt = measuredAt
	}
	if payload.Notes != nil {
		record.Notes = *payload.Notes
	}

	if err := s.records.Update(ctx, &record); err != nil {
		return dto.HealthRecordResponse{}, err
	}

	return dto.NewHealthRecordResponse(record), nil
}

func (s *vitalsService) DeleteRecord(ctx context.Context, actor Actor, id uint) error {
	record, err := s.records.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrHealthRecordNotFound
		}
		return err
	}

	if record.UserID != actor.ID && !actor.IsAdmin() {
		return ErrHealthAccessDenied
	}

	return s.records.Delete(ctx, id)
}

func (s *vitalsService) Stats(ctx context.Context, actor Actor, userID uint, recordType string, start, end time.Time) (dto.HealthStatsResponse, error) {
	if userID != actor.ID && !actor.IsAdmin() {
		return dto.HealthStatsResponse{}, ErrHealthAccessDenied
	}

	records, err := s.records.ListByUser(ctx, userID, repository.HealthRecordFilter{
		RecordType: recordType,
		Start:      &start,
		End:        &end,
	})
	if err != nil {
		return dto.HealthStatsResponse{}, err
	}

	response := dto.HealthStatsResponse{
		UserID:     userID,
		RecordType: recordType,
		StartDate:  start,
		EndDate:    end,
		Data:       dto.NewHealthRecordResponseSlice(records),
		Summary:    dto.HealthStatsSummary{Count: len(records)},
	}

	// Medication entries are free text; only the count is meaningful.
	if recordType == models.RecordTypeMedication {
		return response, nil
	}

	var (
		sum    float64
		parsed int
		min    float64
		max    float64
	)
	for _, record := range records {
		value, err := strconv.ParseFloat(record.Value, 64)
		if err != nil {
			continue
		}
		if parsed == 0 || value < min {
			min = value
		}
		if parsed == 0 || value > max {
			max = value
		}
		sum += value
		parsed++
	}

	if parsed > 0 {
		avg := sum / float64(parsed)
		response.Summary.Min = &min
		response.Summary.Max = &max
		response.Summary.Avg = &avg
	}

	return response, nil
}

func (s *vitalsService) ListActiveAlerts(ctx context.Context, actor Actor, userID uint, limit, offset int) ([]dto.HealthAlertResponse, error) {
	if userID != actor.ID && !actor.IsAdmin() {
		return nil, ErrHealthAccessDenied
	}

	alerts, err := s.alerts.ListActive(ctx, &userID, limit, offset)
	if err != nil {
		return nil, err
	}

	return dto.NewHealthAlertResponseSlice(alerts), nil
}

func (s *vitalsService) UpdateAlertStatus(ctx context.Context, actor Actor, alertID uint, payload dto.AlertStatusUpdateRequest) (dto.HealthAlertResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.HealthAlertResponse{}, err
	}

	alert, err := s.alerts.GetByID(ctx, alertID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.HealthAlertResponse{}, ErrHealthAlertNotFound
		}
		return dto.HealthAlertResponse{}, err
	}

	if alert.UserID != actor.ID && !actor.IsAdmin() {
		return dto.HealthAlertResponse{}, ErrHealthAccessDenied
	}

	if alert.Status != models.AlertStatusActive {
		return dto.HealthAlertResponse{}, ErrAlertAlreadyClosed
	}

	resolvedAt := s.now()
	alert.Status = payload.Status
	alert.ResolvedAt = &resolvedAt

	if err := s.alerts.Update(ctx, &alert); err != nil {
		return dto.HealthAlertResponse{}, err
	}

	s.logger.Info().Uint("alert_id", alert.ID).Str("status", alert.Status).Msg("alert closed")

	return dto.NewHealthAlertResponse(alert), nil
}
