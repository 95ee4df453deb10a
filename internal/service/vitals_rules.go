package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/peibanapp/peiban-api/internal/models"
)

// BloodPressure is a compound reading parsed from the "systolic/diastolic"
// wire string.
type BloodPressure struct {
	Systolic  float64
	Diastolic float64
}

// ParseBloodPressure parses the "systolic/diastolic" wire format.
func ParseBloodPressure(value string) (BloodPressure, error) {
	parts := strings.Split(value, "/")
	if len(parts) != 2 {
		return BloodPressure{}, fmt.Errorf("blood pressure value %q is not systolic/diastolic", value)
	}

	systolic, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return BloodPressure{}, fmt.Errorf("invalid systolic reading: %w", err)
	}

	diastolic, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return BloodPressure{}, fmt.Errorf("invalid diastolic reading: %w", err)
	}

	return BloodPressure{Systolic: systolic, Diastolic: diastolic}, nil
}

// scalarBounds holds the high/low thresholds of a single-valued vital sign.
type scalarBounds struct {
	High float64
	Low  float64
}

// bloodPressureBounds holds per-field thresholds; either field crossing its
// bound trips the reading.
type bloodPressureBounds struct {
	HighSystolic  float64
	HighDiastolic float64
	LowSystolic   float64
	LowDiastolic  float64
}

// Threshold catalog. Record types absent here (weight, sleep, medication)
// are exempt from evaluation and never produce an alert.
var (
	scalarThresholds = map[string]scalarBounds{
		models.RecordTypeHeartRate:   {High: 100, Low: 60},
		models.RecordTypeBloodSugar:  {High: 7.0, Low: 4.0},
		models.RecordTypeTemperature: {High: 37.5, Low: 36.0},
	}

	bloodPressureThresholds = bloodPressureBounds{
		HighSystolic:  140,
		HighDiastolic: 90,
		LowSystolic:   90,
		LowDiastolic:  60,
	}
)

// scalarTypeLabels are the Chinese display names used in alert messages.
var scalarTypeLabels = map[string]string{
	models.RecordTypeHeartRate:   "心率",
	models.RecordTypeBloodSugar:  "血糖",
	models.RecordTypeTemperature: "体温",
}

// alertDraft is an evaluation verdict before persistence.
type alertDraft struct {
	Severity string
	Message  string
}

// evaluateScalar applies the catalog bounds to an already parsed reading.
// The high bound is inspected first; a reading can only trip one direction.
func evaluateScalar(recordType string, reading float64, rawValue, unit string) (alertDraft, bool) {
	bounds, ok := scalarThresholds[recordType]
	if !ok {
		return alertDraft{}, false
	}

	label := scalarTypeLabels[recordType]
	if label == "" {
		label = recordType
	}

	switch {
	case reading >= bounds.High:
		return alertDraft{
			Severity: models.AlertSeverityHigh,
			Message:  fmt.Sprintf("%s偏高: %s %s", label, rawValue, unit),
		}, true
	case reading <= bounds.Low:
		return alertDraft{
			Severity: models.AlertSeverityMedium,
			Message:  fmt.Sprintf("%s偏低: %s %s", label, rawValue, unit),
		}, true
	default:
		return alertDraft{}, false
	}
}

// evaluateBloodPressure applies the compound OR rule: either field at or past
// its bound trips the reading, high checked before low.
func evaluateBloodPressure(reading BloodPressure, rawValue, unit string) (alertDraft, bool) {
	bounds := bloodPressureThresholds

	switch {
	case reading.Systolic >= bounds.HighSystolic || reading.Diastolic >= bounds.HighDiastolic:
		return alertDraft{
			Severity: models.AlertSeverityHigh,
			Message:  fmt.Sprintf("血压偏高: %s %s", rawValue, unit),
		}, true
	case reading.Systolic <= bounds.LowSystolic || reading.Diastolic <= bounds.LowDiastolic:
		return alertDraft{
			Severity: models.AlertSeverityMedium,
			Message:  fmt.Sprintf("血压偏低: %s %s", rawValue, unit),
		}, true
	default:
		return alertDraft{}, false
	}
}

// isScalarVital reports whether the record type carries a single numeric
// reading subject to threshold evaluation.
func isScalarVital(recordType string) bool {
	_, ok := scalarThresholds[recordType]
	return ok
}
