package rules

import (
	"github.com/andes-io/riverwatch/internal/models"
)

var validMetrics = map[models.Metric]bool{
	models.MetricWaterLevel:   true,
	models.MetricTemperature:  true,
	models.MetricFlowRate:     true,
	models.MetricBatteryLevel: true,
}

var validConditions = map[models.RuleCondition]bool{
	models.ConditionGreaterThan: true,
	models.ConditionLessThan:    true,
	models.ConditionEquals:      true,
	models.ConditionRapidChange: true,
}

var validSeverities = map[models.Severity]bool{
	models.SeverityInfo:     true,
	models.SeverityWarning:  true,
	models.SeverityCritical: true,
}

// validateRuleRequest returns an error message, or "" when the request is
// valid.
func validateRuleRequest(req *RuleRequest) string {
	if req.Name == "" {
		return "name is required"
	}
	if !validMetrics[models.Metric(req.Metric)] {
		return "metric must be one of: water_level, temperature, flow_rate, battery_level"
	}
	if !validConditions[models.RuleCondition(req.Condition)] {
		return "condition must be one of: greater_than, less_than, equals, rapid_change"
	}
	if !validSeverities[models.Severity(req.Severity)] {
		return "severity must be one of: info, warning, critical"
	}
	if models.RuleCondition(req.Condition) == models.ConditionRapidChange && req.ThresholdValue <= 0 {
		return "rapid_change threshold must be a positive percentage"
	}
	return ""
}
