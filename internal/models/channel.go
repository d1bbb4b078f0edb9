package models

import "time"

// ChannelType identifies the delivery mechanism of a notification channel.
type ChannelType string

const (
	ChannelTypeEmail   ChannelType = "email"
	ChannelTypeSMS     ChannelType = "sms"
	ChannelTypeWebhook ChannelType = "webhook"
	ChannelTypePush    ChannelType = "push"
)

// ChannelConfig is the channel-specific configuration: recipient lists,
// API keys, URLs. Interpreted per channel type by the matching sender.
type ChannelConfig map[string]any

// Recipients returns the "recipients" list from the configuration, tolerating
// both []string and []any encodings (JSON round-trips produce the latter).
func (c ChannelConfig) Recipients() []string {
	switch v := c["recipients"].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// String returns the named configuration value as a string, or "" if absent
// or not a string.
func (c ChannelConfig) String(key string) string {
	s, _ := c[key].(string)
	return s
}

// NotificationChannel is a configured notification destination.
type NotificationChannel struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	ChannelType   ChannelType   `json:"channel_type"`
	Configuration ChannelConfig `json:"configuration"`
	IsActive      bool          `json:"is_active"`
	CreatedAt     time.Time     `json:"created_at"`
}
