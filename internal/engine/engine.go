package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/andes-io/riverwatch/internal/metrics"
	"github.com/andes-io/riverwatch/internal/models"
)

// RuleSource supplies the rules applicable to a sensor: rules scoped to the
// sensor plus globally-scoped rules, in stable order.
type RuleSource interface {
	ListForSensor(ctx context.Context, sensorID string) ([]*models.AlertRule, error)
}

// AlertStore is the slice of the alert store the engine writes through.
type AlertStore interface {
	ActiveAlertLookup
	Create(ctx context.Context, alert *models.Alert) error
}

// Dispatcher requests asynchronous notification fan-out for a new alert.
// Enqueue must not block; it returns false if the request was dropped.
type Dispatcher interface {
	Enqueue(alertID string) bool
}

// Engine runs the evaluate -> dedup -> create pipeline for incoming readings.
type Engine struct {
	rules      RuleSource
	alerts     AlertStore
	evaluator  *Evaluator
	dedup      *DedupGate
	dispatcher Dispatcher
	clock      Clock

	// sensorLocks serializes the evaluate->dedup->create sequence per sensor
	// so concurrent readings for one sensor cannot double-create an alert.
	sensorLocks sync.Map // sensorID -> *sync.Mutex

	stats EngineStats
}

// EngineStats tracks engine counters using atomic operations.
type EngineStats struct {
	ReadingsEvaluated atomic.Int64
	RulesTriggered    atomic.Int64
	AlertsCreated     atomic.Int64
	AlertsSuppressed  atomic.Int64
}

// Options configures the engine.
type Options struct {
	// Clock defaults to the system clock.
	Clock Clock
	// DedupByRuleID enables strict rule-ID dedup instead of the default
	// title-substring heuristic.
	DedupByRuleID bool
}

// New creates an engine over the given stores. dispatcher may be nil, in
// which case alerts are created but no notifications are requested.
func New(rules RuleSource, alerts AlertStore, history HistoryLookup, dispatcher Dispatcher, opts Options) *Engine {
	gate := NewDedupGate(alerts)
	gate.ByRuleID = opts.DedupByRuleID

	return &Engine{
		rules:      rules,
		alerts:     alerts,
		evaluator:  NewEvaluator(history, opts.Clock),
		dedup:      gate,
		dispatcher: dispatcher,
		clock:      orSystemClock(opts.Clock),
	}
}

func orSystemClock(c Clock) Clock {
	if c == nil {
		return SystemClock()
	}
	return c
}

// EvaluateReading runs all applicable rules against a newly persisted
// reading, creating one deduplicated alert per triggered rule and queueing
// each for notification dispatch. Store failures abort the pass and are
// returned to the caller; the ingestion boundary decides whether to retry
// the whole reading.
func (e *Engine) EvaluateReading(ctx context.Context, sensor *models.Sensor, reading *models.SensorReading) ([]*models.Alert, error) {
	unlock := e.lockSensor(sensor.ID)
	defer unlock()

	e.stats.ReadingsEvaluated.Add(1)
	metrics.ReadingsEvaluated.Inc()

	rules, err := e.rules.ListForSensor(ctx, sensor.ID)
	if err != nil {
		return nil, fmt.Errorf("list rules for sensor %s: %w", sensor.ID, err)
	}

	var created []*models.Alert

	for _, rule := range rules {
		if !rule.IsActive {
			continue
		}

		triggered, value, err := e.evaluator.Evaluate(ctx, rule, reading)
		if err != nil {
			return created, fmt.Errorf("evaluate rule %q: %w", rule.Name, err)
		}
		if !triggered {
			continue
		}

		e.stats.RulesTriggered.Add(1)
		metrics.RulesTriggered.WithLabelValues(string(rule.Condition)).Inc()

		ok, err := e.dedup.ShouldCreate(ctx, sensor, rule)
		if err != nil {
			return created, fmt.Errorf("dedup rule %q: %w", rule.Name, err)
		}
		if !ok {
			e.stats.AlertsSuppressed.Add(1)
			metrics.AlertsSuppressed.Inc()
			continue
		}

		alert := BuildAlert(rule, sensor, reading, value, e.clock.Now())
		if err := e.alerts.Create(ctx, alert); err != nil {
			return created, fmt.Errorf("create alert for rule %q: %w", rule.Name, err)
		}

		e.stats.AlertsCreated.Add(1)
		metrics.AlertsCreated.WithLabelValues(string(alert.Severity)).Inc()
		log.Printf("alert created: %s [%s] sensor=%s", alert.Title, alert.Severity, sensor.SensorCode)

		if e.dispatcher != nil {
			if !e.dispatcher.Enqueue(alert.ID) {
				log.Printf("warning: dispatch queue full, notifications skipped for alert %s", alert.ID)
			}
		}

		created = append(created, alert)
	}

	return created, nil
}

// lockSensor acquires the per-sensor mutex and returns its unlock func.
func (e *Engine) lockSensor(sensorID string) func() {
	v, _ := e.sensorLocks.LoadOrStore(sensorID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// StatsSnapshot is a point-in-time copy of the engine counters.
type StatsSnapshot struct {
	ReadingsEvaluated int64
	RulesTriggered    int64
	AlertsCreated     int64
	AlertsSuppressed  int64
}

// Stats returns a snapshot of engine counters.
func (e *Engine) Stats() StatsSnapshot {
	return StatsSnapshot{
		ReadingsEvaluated: e.stats.ReadingsEvaluated.Load(),
		RulesTriggered:    e.stats.RulesTriggered.Load(),
		AlertsCreated:     e.stats.AlertsCreated.Load(),
		AlertsSuppressed:  e.stats.AlertsSuppressed.Load(),
	}
}
