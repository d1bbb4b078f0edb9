package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/andes-io/riverwatch/internal/models"
)

// SmsProvider sends one text message through an external gateway.
type SmsProvider interface {
	SendSMS(ctx context.Context, apiKey, to, message string) error
}

// SMSSender delivers alerts as text messages, one attempt per recipient in
// the channel configuration. The gateway is injected; with no provider
// configured every recipient gets a failed delivery, so the gap shows up in
// the audit trail instead of vanishing.
type SMSSender struct {
	provider SmsProvider
	clock    func() time.Time
}

// NewSMSSender creates an SMS sender. provider may be nil.
func NewSMSSender(provider SmsProvider) *SMSSender {
	return &SMSSender{provider: provider, clock: time.Now}
}

// Type returns "sms".
func (s *SMSSender) Type() models.ChannelType { return models.ChannelTypeSMS }

// Send attempts delivery to each recipient in the channel configuration.
func (s *SMSSender) Send(ctx context.Context, ac *AlertContext, config models.ChannelConfig) []Delivery {
	recipients := config.Recipients()
	if len(recipients) == 0 {
		return nil
	}

	apiKey := config.String("api_key")
	message := fmt.Sprintf("%s: %s", ac.Alert.Title, ac.Alert.Message)

	deliveries := make([]Delivery, 0, len(recipients))
	for _, to := range recipients {
		del := Delivery{Recipient: to}
		if err := s.deliver(ctx, apiKey, to, message); err != nil {
			del.Status = models.NotificationStatusFailed
			del.Error = err.Error()
		} else {
			now := s.clock()
			del.Status = models.NotificationStatusSent
			del.SentAt = &now
		}
		deliveries = append(deliveries, del)
	}
	return deliveries
}

func (s *SMSSender) deliver(ctx context.Context, apiKey, to, message string) error {
	if s.provider == nil {
		return fmt.Errorf("no sms provider configured")
	}
	return s.provider.SendSMS(ctx, apiKey, to, message)
}
