package notifier

import (
	"context"
	"errors"
	"testing"

	"github.com/andes-io/riverwatch/internal/models"
)

type mockSmsProvider struct {
	failFor map[string]error
	apiKeys []string
	sent    []string
}

func (m *mockSmsProvider) SendSMS(ctx context.Context, apiKey, to, message string) error {
	m.apiKeys = append(m.apiKeys, apiKey)
	if err, ok := m.failFor[to]; ok {
		return err
	}
	m.sent = append(m.sent, to)
	return nil
}

func TestSMSSenderDeliversPerRecipient(t *testing.T) {
	provider := &mockSmsProvider{failFor: map[string]error{
		"+56900000000": errors.New("invalid number"),
	}}
	s := NewSMSSender(provider)

	config := models.ChannelConfig{
		"recipients": []any{"+56911111111", "+56900000000"},
		"api_key":    "key-123",
	}
	deliveries := s.Send(context.Background(), testAlertContext(), config)

	if len(deliveries) != 2 {
		t.Fatalf("deliveries = %d, want 2", len(deliveries))
	}
	if deliveries[0].Status != models.NotificationStatusSent {
		t.Errorf("first delivery = %+v, want sent", deliveries[0])
	}
	if deliveries[1].Status != models.NotificationStatusFailed || deliveries[1].Error != "invalid number" {
		t.Errorf("second delivery = %+v, want failed with error", deliveries[1])
	}
	for _, key := range provider.apiKeys {
		if key != "key-123" {
			t.Errorf("api key = %q, want key-123", key)
		}
	}
}

func TestSMSSenderNoProvider(t *testing.T) {
	s := NewSMSSender(nil)

	config := models.ChannelConfig{"recipients": []string{"+56911111111"}}
	deliveries := s.Send(context.Background(), testAlertContext(), config)

	if len(deliveries) != 1 {
		t.Fatalf("deliveries = %d, want 1", len(deliveries))
	}
	if deliveries[0].Status != models.NotificationStatusFailed {
		t.Errorf("status = %q, want failed when no provider is configured", deliveries[0].Status)
	}
	if deliveries[0].Error == "" {
		t.Error("failed delivery missing error text")
	}
}

func TestSMSSenderNoRecipients(t *testing.T) {
	s := NewSMSSender(&mockSmsProvider{})
	if deliveries := s.Send(context.Background(), testAlertContext(), models.ChannelConfig{}); deliveries != nil {
		t.Errorf("deliveries = %+v, want nil for empty recipients", deliveries)
	}
}
