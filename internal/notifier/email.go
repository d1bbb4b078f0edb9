package notifier

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/andes-io/riverwatch/internal/models"
)

// Mailer sends one email to one recipient. Abstracted from EmailSender so
// tests can swap out the SMTP transport.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// EmailSender delivers alerts over SMTP, one attempt per recipient listed in
// the channel configuration. Recipients are attempted in order; one bounce
// does not stop the rest.
type EmailSender struct {
	mailer Mailer
	clock  func() time.Time
}

// NewEmailSender creates an email sender over the given transport.
func NewEmailSender(mailer Mailer) *EmailSender {
	return &EmailSender{mailer: mailer, clock: time.Now}
}

// Type returns "email".
func (s *EmailSender) Type() models.ChannelType { return models.ChannelTypeEmail }

// Send attempts delivery to each recipient in the channel configuration.
func (s *EmailSender) Send(ctx context.Context, ac *AlertContext, config models.ChannelConfig) []Delivery {
	recipients := config.Recipients()
	if len(recipients) == 0 {
		return nil
	}

	subject := fmt.Sprintf("[%s] %s", strings.ToUpper(string(ac.Alert.Severity)), ac.Alert.Title)
	body := emailBody(ac)

	deliveries := make([]Delivery, 0, len(recipients))
	for _, to := range recipients {
		del := Delivery{Recipient: to}
		if err := s.mailer.Send(ctx, to, subject, body); err != nil {
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

func emailBody(ac *AlertContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", ac.Alert.Message)
	fmt.Fprintf(&b, "Sensor: %s (%s)\n", ac.Sensor.Name, ac.Sensor.SensorCode)
	if ac.Sensor.RiverName != "" {
		fmt.Fprintf(&b, "River: %s\n", ac.Sensor.RiverName)
	}
	fmt.Fprintf(&b, "Severity: %s\n", ac.Alert.Severity)
	fmt.Fprintf(&b, "Time: %s\n", ac.Alert.CreatedAt.Format(time.RFC3339))
	return b.String()
}

// SMTPConfig holds the SMTP server settings shared by all email channels.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Validate checks the fields required to dial at all.
func (c *SMTPConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("smtp host is required")
	}
	if c.Port == 0 {
		return fmt.Errorf("smtp port is required")
	}
	if c.From == "" {
		return fmt.Errorf("smtp from address is required")
	}
	return nil
}

// SMTPMailer is the production Mailer: implicit TLS on port 465, STARTTLS
// otherwise, optional PLAIN auth.
type SMTPMailer struct {
	config SMTPConfig
}

// NewSMTPMailer creates a mailer after validating the server settings.
func NewSMTPMailer(config SMTPConfig) (*SMTPMailer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid smtp config: %w", err)
	}
	return &SMTPMailer{config: config}, nil
}

// Send delivers one message to one recipient.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	msg := m.buildMessage(to, subject, body)

	client, err := m.connect(ctx)
	if err != nil {
		return fmt.Errorf("connect to smtp server: %w", err)
	}
	defer client.Close()

	if m.config.Username != "" && m.config.Password != "" {
		auth := smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(extractEmail(m.config.From)); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("add recipient %s: %w", to, err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("start data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close data: %w", err)
	}

	return client.Quit()
}

func (m *SMTPMailer) buildMessage(to, subject, body string) []byte {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.config.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)
	msg.WriteString("\r\n")
	return []byte(msg.String())
}

func (m *SMTPMailer) connect(ctx context.Context) (*smtp.Client, error) {
	addr := fmt.Sprintf("%s:%d", m.config.Host, m.config.Port)
	tlsConfig := &tls.Config{ServerName: m.config.Host}

	// Port 465 is implicit TLS; everything else negotiates STARTTLS.
	if m.config.Port == 465 {
		conn, err := tls.Dial("tcp", addr, tlsConfig)
		if err != nil {
			return nil, err
		}
		return smtp.NewClient(conn, m.config.Host)
	}

	dialer := &net.Dialer{Timeout: 30 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	client, err := smtp.NewClient(conn, m.config.Host)
	if err != nil {
		conn.Close()
		return nil, err
	}

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(tlsConfig); err != nil {
			client.Close()
			return nil, fmt.Errorf("starttls: %w", err)
		}
	}
	return client, nil
}

// extractEmail pulls the address out of a "Name <email>" header value.
func extractEmail(addr string) string {
	if start := strings.Index(addr, "<"); start != -1 {
		if end := strings.Index(addr, ">"); end > start {
			return addr[start+1 : end]
		}
	}
	return addr
}
