package models

import "time"

// RuleCondition represents the comparison a rule applies to a metric.
type RuleCondition string

const (
	ConditionGreaterThan RuleCondition = "greater_than"
	ConditionLessThan    RuleCondition = "less_than"
	ConditionEquals      RuleCondition = "equals"
	ConditionRapidChange RuleCondition = "rapid_change"
)

// Severity represents alert severity level.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// ParseSeverity converts a string to Severity.
func ParseSeverity(s string) Severity {
	switch s {
	case "info":
		return SeverityInfo
	case "warning":
		return SeverityWarning
	case "critical":
		return SeverityCritical
	default:
		return SeverityInfo
	}
}

// AlertRule is a configured condition over one metric that raises an alert
// when satisfied. A rule with an empty SensorID applies to all sensors.
// For rapid_change rules ThresholdValue is a percentage-change threshold,
// not an absolute value.
type AlertRule struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	SensorID       string        `json:"sensor_id,omitempty"`
	Metric         Metric        `json:"metric"`
	Condition      RuleCondition `json:"condition"`
	ThresholdValue float64       `json:"threshold_value"`
	Severity       Severity      `json:"severity"`
	IsActive       bool          `json:"is_active"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// NewAlertRule creates a new AlertRule with initialized timestamps.
func NewAlertRule(name string, metric Metric, condition RuleCondition, threshold float64, severity Severity) *AlertRule {
	now := time.Now()
	return &AlertRule{
		Name:           name,
		Metric:         metric,
		Condition:      condition,
		ThresholdValue: threshold,
		Severity:       severity,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
