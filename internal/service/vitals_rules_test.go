package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/peibanapp/peiban-api/internal/models"
)

func TestParseBloodPressure(t *testing.T) {
	reading, err := ParseBloodPressure("120/80")
	require.NoError(t, err)
	require.Equal(t, 120.0, reading.Systolic)
	require.Equal(t, 80.0, reading.Diastolic)

	reading, err = ParseBloodPressure(" 135 / 85 ")
	require.NoError(t, err)
	require.Equal(t, 135.0, reading.Systolic)
	require.Equal(t, 85.0, reading.Diastolic)

	_, err = ParseBloodPressure("120")
	require.Error(t, err)

	_, err = ParseBloodPressure("120/80/60")
	require.Error(t, err)

	_, err = ParseBloodPressure("abc/80")
	require.Error(t, err)

	_, err = ParseBloodPressure("120/xyz")
	require.Error(t, err)
}

func TestEvaluateScalarHeartRate(t *testing.T) {
	draft, fired := evaluateScalar(models.RecordTypeHeartRate, 105, "105", "bpm")
	require.True(t, fired)
	require.Equal(t, models.AlertSeverityHigh, draft.Severity)
	require.Equal(t, "心率偏高: 105 bpm", draft.Message)

	draft, fired = evaluateScalar(models.RecordTypeHeartRate, 55, "55", "bpm")
	require.True(t, fired)
	require.Equal(t, models.AlertSeverityMedium, draft.Severity)
	require.Equal(t, "心率偏低: 55 bpm", draft.Message)

	_, fired = evaluateScalar(models.RecordTypeHeartRate, 72, "72", "bpm")
	require.False(t, fired)
}

func TestEvaluateScalarBoundsAreInclusive(t *testing.T) {
	draft, fired := evaluateScalar(models.RecordTypeHeartRate, 100, "100", "bpm")
	require.True(t, fired)
	require.Equal(t, models.AlertSeverityHigh, draft.Severity)

	draft, fired = evaluateScalar(models.RecordTypeHeartRate, 60, "60", "bpm")
	require.True(t, fired)
	require.Equal(t, models.AlertSeverityMedium, draft.Severity)
}

func TestEvaluateScalarBloodSugarAndTemperature(t *testing.T) {
	draft, fired := evaluateScalar(models.RecordTypeBloodSugar, 7.8, "7.8", "mmol/L")
	require.True(t, fired)
	require.Equal(t, models.AlertSeverityHigh, draft.Severity)
	require.Equal(t, "血糖偏高: 7.8 mmol/L", draft.Message)

	draft, fired = evaluateScalar(models.RecordTypeBloodSugar, 3.5, "3.5", "mmol/L")
	require.True(t, fired)
	require.Equal(t, models.AlertSeverityMedium, draft.Severity)

	_, fired = evaluateScalar(models.RecordTypeTemperature, 36.8, "36.8", "°C")
	require.False(t, fired)

	draft, fired = evaluateScalar(models.RecordTypeTemperature, 38.2, "38.2", "°C")
	require.True(t, fired)
	require.Equal(t, models.AlertSeverityHigh, draft.Severity)
}

func TestEvaluateScalarUncataloguedTypeNeverFires(t *testing.T) {
	_, fired := evaluateScalar(models.RecordTypeWeight, 500, "500", "kg")
	require.False(t, fired)

	_, fired = evaluateScalar(models.RecordTypeSleep, 0, "0", "h")
	require.False(t, fired)
}

func TestEvaluateBloodPressure(t *testing.T) {
	draft, fired := evaluateBloodPressure(BloodPressure{Systolic: 150, Diastolic: 95}, "150/95", "mmHg")
	require.True(t, fired)
	require.Equal(t, models.AlertSeverityHigh, draft.Severity)
	require.Equal(t, "血压偏高: 150/95 mmHg", draft.Message)

	// One field past its bound is enough.
	draft, fired = evaluateBloodPressure(BloodPressure{Systolic: 120, Diastolic: 92}, "120/92", "mmHg")
	require.True(t, fired)
	require.Equal(t, models.AlertSeverityHigh, draft.Severity)

	draft, fired = evaluateBloodPressure(BloodPressure{Systolic: 85, Diastolic: 55}, "85/55", "mmHg")
	require.True(t, fired)
	require.Equal(t, models.AlertSeverityMedium, draft.Severity)
	require.Equal(t, "血压偏低: 85/55 mmHg", draft.Message)

	_, fired = evaluateBloodPressure(BloodPressure{Systolic: 120, Diastolic: 80}, "120/80", "mmHg")
	require.False(t, fired)
}

func TestEvaluateBloodPressureHighWinsOverLow(t *testing.T) {
	// Systolic past the high bound and diastolic past the low bound: the
	// reading trips as high.
	draft, fired := evaluateBloodPressure(BloodPressure{Systolic: 145, Diastolic: 55}, "145/55", "mmHg")
	require.True(t, fired)
	require.Equal(t, models.AlertSeverityHigh, draft.Severity)
}

func TestIsScalarVital(t *testing.T) {
	require.True(t, isScalarVital(models.RecordTypeHeartRate))
	require.True(t, isScalarVital(models.RecordTypeBloodSugar))
	require.True(t, isScalarVital(models.RecordTypeTemperature))
	require.False(t, isScalarVital(models.RecordTypeBloodPressure))
	require.False(t, isScalarVital(models.RecordTypeMedication))
	require.False(t, isScalarVital(models.RecordTypeWeight))
}
