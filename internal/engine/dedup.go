package engine

import (
	"context"
	"fmt"

	"github.com/andes-io/riverwatch/internal/models"
)

// ActiveAlertLookup is the slice of the alert store the dedup gate needs.
type ActiveAlertLookup interface {
	FindActive(ctx context.Context, sensorID string, severity models.Severity, titleContains string) (*models.Alert, error)
	FindActiveByRule(ctx context.Context, sensorID string, severity models.Severity, ruleID string) (*models.Alert, error)
}

// DedupGate suppresses triggers for conditions that already have an active
// alert. An active alert suppresses indefinitely; there is no time-window
// expiry, only acknowledge/resolve by an operator ends the suppression.
//
// The default match is heuristic: same sensor, same severity, and the rule
// name appearing as a substring of the alert title. A rule whose name is
// contained in another rule's title is therefore suppressed too, and renaming
// a rule breaks its dedup. ByRuleID trades that quirk for strict rule
// identity.
type DedupGate struct {
	alerts ActiveAlertLookup

	// ByRuleID switches from title-substring matching to strict rule-ID
	// matching. Off by default.
	ByRuleID bool
}

// NewDedupGate creates a dedup gate over the given alert lookup.
func NewDedupGate(alerts ActiveAlertLookup) *DedupGate {
	return &DedupGate{alerts: alerts}
}

// ShouldCreate reports whether a new alert should be created for the rule
// triggering on the sensor, or suppressed because one is already active.
func (g *DedupGate) ShouldCreate(ctx context.Context, sensor *models.Sensor, rule *models.AlertRule) (bool, error) {
	var existing *models.Alert
	var err error

	if g.ByRuleID && rule.ID != "" {
		existing, err = g.alerts.FindActiveByRule(ctx, sensor.ID, rule.Severity, rule.ID)
	} else {
		existing, err = g.alerts.FindActive(ctx, sensor.ID, rule.Severity, rule.Name)
	}
	if err != nil {
		return false, fmt.Errorf("find active alert: %w", err)
	}

	return existing == nil, nil
}
