package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/andes-io/riverwatch/internal/models"
)

// BuildAlert constructs an Alert record for a triggered rule. The title is
// "{rule name} - {sensor name}"; the dedup gate matches on it, so the rule
// name must appear verbatim.
func BuildAlert(rule *models.AlertRule, sensor *models.Sensor, reading *models.SensorReading, value float64, now time.Time) *models.Alert {
	unit := models.MetricUnit(rule.Metric)

	return &models.Alert{
		ID:        uuid.New().String(),
		SensorID:  sensor.ID,
		ReadingID: reading.ID,
		RuleID:    rule.ID,
		Severity:  rule.Severity,
		Status:    models.AlertStatusActive,
		Title:     fmt.Sprintf("%s - %s", rule.Name, sensor.Name),
		Message: fmt.Sprintf("Sensor %s triggered rule '%s'. Current value: %v %s",
			sensor.Name, rule.Name, value, unit),
		CreatedAt: now,
	}
}
