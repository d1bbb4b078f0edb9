// Package notifier fans alert notifications out across delivery channels and
// records a per-recipient audit trail.
package notifier

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/andes-io/riverwatch/internal/metrics"
	"github.com/andes-io/riverwatch/internal/models"
)

// Delivery is the outcome of one delivery attempt for one recipient.
type Delivery struct {
	Recipient string
	Status    models.NotificationStatus
	SentAt    *time.Time
	Error     string
}

// AlertContext bundles an alert with the sensor it fired on. Senders need
// sensor and river details for message bodies and webhook payloads.
type AlertContext struct {
	Alert  *models.Alert
	Sensor *models.Sensor
}

// ChannelSender attempts delivery of an alert through one channel type.
// It returns one Delivery per recipient it attempted; failures are reported
// in the Delivery, never as a panic or abort.
type ChannelSender interface {
	// Type returns the channel type this sender handles.
	Type() models.ChannelType
	// Send attempts delivery to every recipient in the configuration.
	Send(ctx context.Context, ac *AlertContext, config models.ChannelConfig) []Delivery
}

// ChannelSource supplies the channels to fan out to.
type ChannelSource interface {
	ListActive(ctx context.Context) ([]*models.NotificationChannel, error)
}

// AuditLog records delivery outcomes. Append-only.
type AuditLog interface {
	Create(ctx context.Context, n *models.AlertNotification) error
}

// ErrRateLimited is returned when a dispatch is dropped due to rate limiting.
var ErrRateLimited = errors.New("notification rate limited")

// Dispatcher fans one alert out to all active channels, concurrently,
// delegating to the sender registered for each channel type. Outcomes are
// recorded per recipient; a failing channel or recipient never affects the
// others.
type Dispatcher struct {
	mu       sync.RWMutex
	senders  map[models.ChannelType]ChannelSender
	channels ChannelSource
	audit    AuditLog
	limiter  *RateLimiter
}

// NewDispatcher creates a dispatcher with default rate limiting.
func NewDispatcher(channels ChannelSource, audit AuditLog) *Dispatcher {
	return &Dispatcher{
		senders:  make(map[models.ChannelType]ChannelSender),
		channels: channels,
		audit:    audit,
		limiter:  NewRateLimiter(DefaultRateLimitConfig()),
	}
}

// NewDispatcherWithRateLimit creates a dispatcher with a custom rate limit.
func NewDispatcherWithRateLimit(channels ChannelSource, audit AuditLog, config RateLimitConfig) *Dispatcher {
	d := NewDispatcher(channels, audit)
	d.limiter = NewRateLimiter(config)
	return d
}

// Register adds a sender for its channel type.
func (d *Dispatcher) Register(s ChannelSender) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.senders[s.Type()] = s
}

// Dispatch fans the alert out to every active channel. Channels run
// concurrently; Dispatch returns once all have finished or ctx is
// cancelled. Only channel-store failures and rate limiting are returned;
// delivery failures live in the audit trail.
func (d *Dispatcher) Dispatch(ctx context.Context, ac *AlertContext) error {
	if d.limiter != nil && !d.limiter.Allow() {
		return ErrRateLimited
	}

	channels, err := d.channels.ListActive(ctx)
	if err != nil {
		if d.limiter != nil {
			d.limiter.Release()
		}
		return err
	}

	var (
		wg       sync.WaitGroup
		countsMu sync.Mutex
		sent     int
	)

	for _, channel := range channels {
		d.mu.RLock()
		sender, ok := d.senders[channel.ChannelType]
		d.mu.RUnlock()
		if !ok {
			// Unknown channel type: skipped without an audit record.
			log.Printf("no sender for channel type %q, skipping channel %s", channel.ChannelType, channel.Name)
			continue
		}

		wg.Add(1)
		go func(channel *models.NotificationChannel, sender ChannelSender) {
			defer wg.Done()

			deliveries := sender.Send(ctx, ac, channel.Configuration)

			for _, del := range deliveries {
				if del.Status == models.NotificationStatusSent {
					countsMu.Lock()
					sent++
					countsMu.Unlock()
				}
				d.record(ctx, ac.Alert.ID, channel, del)
			}
		}(channel, sender)
	}

	wg.Wait()

	// Nothing got through, either because no channel attempted a delivery or
	// because every attempt failed: refund the rate limit token.
	if sent == 0 && d.limiter != nil {
		d.limiter.Release()
	}

	return nil
}

// record writes one audit row. Audit failures are logged, not propagated:
// a lost row must not abort sibling deliveries.
func (d *Dispatcher) record(ctx context.Context, alertID string, channel *models.NotificationChannel, del Delivery) {
	n := &models.AlertNotification{
		ID:           uuid.New().String(),
		AlertID:      alertID,
		ChannelID:    channel.ID,
		Recipient:    del.Recipient,
		Status:       del.Status,
		SentAt:       del.SentAt,
		ErrorMessage: del.Error,
	}

	if err := d.audit.Create(ctx, n); err != nil {
		log.Printf("record notification error: alert=%s channel=%s recipient=%s: %v",
			alertID, channel.Name, del.Recipient, err)
		return
	}

	switch del.Status {
	case models.NotificationStatusSent:
		metrics.NotificationsSent.WithLabelValues(string(channel.ChannelType)).Inc()
	case models.NotificationStatusFailed:
		metrics.NotificationsFailed.WithLabelValues(string(channel.ChannelType)).Inc()
		log.Printf("notification failed: alert=%s channel=%s recipient=%s: %s",
			alertID, channel.Name, del.Recipient, del.Error)
	}
}
