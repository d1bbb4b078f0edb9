package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/andes-io/riverwatch/internal/models"
)

// WebhookSender POSTs an alert payload to the URL in the channel
// configuration. Exactly one delivery per dispatch, recorded with the URL as
// the recipient. Only HTTP 200 counts as delivered; any other status is a
// failure with the response body as the error text.
type WebhookSender struct {
	client *http.Client
	clock  func() time.Time
}

// NewWebhookSender creates a webhook sender with a 30 second request timeout.
func NewWebhookSender() *WebhookSender {
	return &WebhookSender{
		client: &http.Client{Timeout: 30 * time.Second},
		clock:  time.Now,
	}
}

// Type returns "webhook".
func (s *WebhookSender) Type() models.ChannelType { return models.ChannelTypeWebhook }

// webhookPayload is the JSON body POSTed to the configured URL.
type webhookPayload struct {
	AlertID    string   `json:"alert_id"`
	SensorName string   `json:"sensor_name"`
	RiverName  string   `json:"river_name"`
	Severity   string   `json:"severity"`
	Title      string   `json:"title"`
	Message    string   `json:"message"`
	Timestamp  string   `json:"timestamp"`
	Location   location `json:"sensor_location"`
}

type location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Send posts the alert to the configured URL.
func (s *WebhookSender) Send(ctx context.Context, ac *AlertContext, config models.ChannelConfig) []Delivery {
	url := config.String("url")
	if url == "" {
		return nil
	}

	del := Delivery{Recipient: url}
	if err := s.post(ctx, url, ac); err != nil {
		del.Status = models.NotificationStatusFailed
		del.Error = err.Error()
	} else {
		now := s.clock()
		del.Status = models.NotificationStatusSent
		del.SentAt = &now
	}
	return []Delivery{del}
}

func (s *WebhookSender) post(ctx context.Context, url string, ac *AlertContext) error {
	payload := webhookPayload{
		AlertID:    ac.Alert.ID,
		SensorName: ac.Sensor.Name,
		RiverName:  ac.Sensor.RiverName,
		Severity:   string(ac.Alert.Severity),
		Title:      ac.Alert.Title,
		Message:    ac.Alert.Message,
		Timestamp:  ac.Alert.CreatedAt.Format(time.RFC3339),
		Location: location{
			Latitude:  ac.Sensor.Latitude,
			Longitude: ac.Sensor.Longitude,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
