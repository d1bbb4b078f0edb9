package notifier

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/andes-io/riverwatch/internal/metrics"
	"github.com/andes-io/riverwatch/internal/models"
)

// ErrAlertNotFound marks a dispatch request whose alert no longer exists.
// Not retryable.
var ErrAlertNotFound = errors.New("alert not found")

// AlertLoader looks up the alert for a queued dispatch request.
type AlertLoader interface {
	GetByID(ctx context.Context, id string) (*models.Alert, error)
}

// SensorLoader looks up the sensor an alert fired on.
type SensorLoader interface {
	GetByID(ctx context.Context, id string) (*models.Sensor, error)
}

// Queue decouples alert creation from notification delivery: the evaluation
// path enqueues alert IDs and returns, a worker pool loads each alert and
// runs the dispatcher. A full queue drops the request rather than block
// ingestion.
type Queue struct {
	requests   chan string
	dispatcher *Dispatcher
	alerts     AlertLoader
	sensors    SensorLoader
	workers    int

	startOnce sync.Once
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// QueueConfig sizes the dispatch queue.
type QueueConfig struct {
	// Workers is the number of concurrent dispatch workers. Default 4.
	Workers int
	// Buffer is the queue capacity. Default 256.
	Buffer int
}

// NewQueue creates a dispatch queue. Call Start before Enqueue.
func NewQueue(dispatcher *Dispatcher, alerts AlertLoader, sensors SensorLoader, config QueueConfig) *Queue {
	if config.Workers <= 0 {
		config.Workers = 4
	}
	if config.Buffer <= 0 {
		config.Buffer = 256
	}
	return &Queue{
		requests:   make(chan string, config.Buffer),
		dispatcher: dispatcher,
		alerts:     alerts,
		sensors:    sensors,
		workers:    config.Workers,
	}
}

// Start launches the worker pool. Workers exit when ctx is cancelled or the
// queue is stopped, whichever comes first.
func (q *Queue) Start(ctx context.Context) {
	q.startOnce.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go q.worker(ctx)
		}
	})
}

// Stop closes the queue and waits for in-flight dispatches to finish.
// Enqueue must not be called after Stop.
func (q *Queue) Stop() {
	q.stopOnce.Do(func() {
		close(q.requests)
	})
	q.wg.Wait()
}

// Enqueue requests async dispatch for an alert. Never blocks; returns false
// if the queue is full and the request was dropped.
func (q *Queue) Enqueue(alertID string) bool {
	select {
	case q.requests <- alertID:
		metrics.DispatchQueueDepth.Set(float64(len(q.requests)))
		return true
	default:
		metrics.DispatchDropped.Inc()
		return false
	}
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case alertID, ok := <-q.requests:
			if !ok {
				return
			}
			metrics.DispatchQueueDepth.Set(float64(len(q.requests)))

			if err := q.dispatch(ctx, alertID); err != nil {
				log.Printf("dispatch alert %s: %v", alertID, err)
			}
		}
	}
}

// dispatch loads the alert and its sensor, then runs the fan-out.
func (q *Queue) dispatch(ctx context.Context, alertID string) error {
	alert, err := q.alerts.GetByID(ctx, alertID)
	if err != nil {
		return fmt.Errorf("load alert: %w", err)
	}
	if alert == nil {
		return ErrAlertNotFound
	}

	sensor, err := q.sensors.GetByID(ctx, alert.SensorID)
	if err != nil {
		return fmt.Errorf("load sensor %s: %w", alert.SensorID, err)
	}
	if sensor == nil {
		return fmt.Errorf("sensor %s not found for alert %s", alert.SensorID, alertID)
	}

	return q.dispatcher.Dispatch(ctx, &AlertContext{Alert: alert, Sensor: sensor})
}
