// Package engine evaluates sensor readings against alert rules, deduplicates
// triggers against already-active alerts, and creates alert records.
package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/andes-io/riverwatch/internal/models"
)

// rapidChangeWindow is how far back the reference reading for a rapid_change
// rule must lie: the most recent reading strictly older than now minus this.
const rapidChangeWindow = 5 * time.Minute

// Clock provides the current time. Injected so rapid-change windows are
// deterministic in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }

// HistoryLookup provides access to earlier readings of a sensor.
// Only rapid_change evaluation uses it.
type HistoryLookup interface {
	PreviousReading(ctx context.Context, sensorID string, olderThan time.Time) (*models.SensorReading, error)
}

// Evaluator decides whether a rule triggers for a reading. It has no side
// effects; all state it needs comes from its inputs and the history lookup.
type Evaluator struct {
	history HistoryLookup
	clock   Clock
}

// NewEvaluator creates an evaluator. A nil clock defaults to the system clock.
func NewEvaluator(history HistoryLookup, clock Clock) *Evaluator {
	if clock == nil {
		clock = SystemClock()
	}
	return &Evaluator{history: history, clock: clock}
}

// Evaluate returns whether the rule triggers for the reading, along with the
// metric value that was compared. Unknown metrics and unknown conditions do
// not trigger and are not errors; only history lookup failures are.
func (e *Evaluator) Evaluate(ctx context.Context, rule *models.AlertRule, reading *models.SensorReading) (bool, float64, error) {
	value, ok := reading.MetricValue(rule.Metric)
	if !ok {
		return false, 0, nil
	}

	switch rule.Condition {
	case models.ConditionGreaterThan:
		return value > rule.ThresholdValue, value, nil
	case models.ConditionLessThan:
		return value < rule.ThresholdValue, value, nil
	case models.ConditionEquals:
		// Exact float64 equality, deliberately not epsilon-based.
		return value == rule.ThresholdValue, value, nil
	case models.ConditionRapidChange:
		triggered, err := e.evaluateRapidChange(ctx, rule, reading, value)
		return triggered, value, err
	default:
		return false, value, nil
	}
}

// evaluateRapidChange compares the current value against the most recent
// reading older than the rapid-change window. ThresholdValue is a
// percentage-change threshold here, not an absolute value.
func (e *Evaluator) evaluateRapidChange(ctx context.Context, rule *models.AlertRule, reading *models.SensorReading, current float64) (bool, error) {
	// battery_level drains slowly; rapid-change is only meaningful for the
	// hydrological metrics.
	switch rule.Metric {
	case models.MetricWaterLevel, models.MetricTemperature, models.MetricFlowRate:
	default:
		return false, nil
	}

	olderThan := e.clock.Now().Add(-rapidChangeWindow)
	previous, err := e.history.PreviousReading(ctx, reading.SensorID, olderThan)
	if err != nil {
		return false, fmt.Errorf("lookup previous reading: %w", err)
	}
	if previous == nil {
		return false, nil
	}

	previousValue, ok := previous.MetricValue(rule.Metric)
	if !ok {
		return false, nil
	}
	if previousValue == 0 {
		return false, nil
	}

	changePct := math.Abs((current-previousValue)/previousValue) * 100
	return changePct > rule.ThresholdValue, nil
}
