package notifier

import (
	"context"
	"log"

	"github.com/andes-io/riverwatch/internal/models"
)

// PushSender is registered so push channels are recognized, but no push
// gateway is integrated yet: it attempts nothing and records nothing.
// TODO: wire an FCM provider once device token registration lands.
type PushSender struct{}

// NewPushSender creates the push placeholder sender.
func NewPushSender() *PushSender { return &PushSender{} }

// Type returns "push".
func (s *PushSender) Type() models.ChannelType { return models.ChannelTypePush }

// Send logs and returns no deliveries.
func (s *PushSender) Send(_ context.Context, ac *AlertContext, _ models.ChannelConfig) []Delivery {
	log.Printf("push delivery not implemented, skipping alert %s", ac.Alert.ID)
	return nil
}
