package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/andes-io/riverwatch/internal/models"
)

type sqliteNotificationRepo struct {
	db *sql.DB
}

const notificationColumns = `id, alert_id, channel_id, recipient, status, sent_at, error_message`

func (r *sqliteNotificationRepo) Create(ctx context.Context, n *models.AlertNotification) error {
	query := `
		INSERT INTO alert_notifications (id, alert_id, channel_id, recipient, status, sent_at, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		n.ID, n.AlertID, n.ChannelID, n.Recipient,
		string(n.Status), n.SentAt, nullString(n.ErrorMessage),
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *sqliteNotificationRepo) List(ctx context.Context, filter NotificationFilter, limit, offset int) ([]*models.AlertNotification, error) {
	var conds []string
	var args []any

	if filter.AlertID != "" {
		conds = append(conds, "alert_id = ?")
		args = append(args, filter.AlertID)
	}
	if filter.ChannelID != "" {
		conds = append(conds, "channel_id = ?")
		args = append(args, filter.ChannelID)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(filter.Status))
	}

	query := `SELECT ` + notificationColumns + ` FROM alert_notifications`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY sent_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	return r.queryNotifications(ctx, query, args...)
}

func (r *sqliteNotificationRepo) ListByAlert(ctx context.Context, alertID string) ([]*models.AlertNotification, error) {
	query := `SELECT ` + notificationColumns + ` FROM alert_notifications WHERE alert_id = ? ORDER BY sent_at DESC`
	return r.queryNotifications(ctx, query, alertID)
}

func (r *sqliteNotificationRepo) queryNotifications(ctx context.Context, query string, args ...any) ([]*models.AlertNotification, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*models.AlertNotification
	for rows.Next() {
		n := &models.AlertNotification{}
		var status string
		var sentAt sql.NullTime
		var errorMessage sql.NullString

		if err := rows.Scan(
			&n.ID, &n.AlertID, &n.ChannelID, &n.Recipient,
			&status, &sentAt, &errorMessage,
		); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}

		n.Status = models.NotificationStatus(status)
		n.ErrorMessage = errorMessage.String
		if sentAt.Valid {
			n.SentAt = &sentAt.Time
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}
