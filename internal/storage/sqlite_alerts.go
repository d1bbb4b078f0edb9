package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/andes-io/riverwatch/internal/models"
)

type sqliteAlertRepo struct {
	db *sql.DB
}

const alertColumns = `id, sensor_id, reading_id, rule_id, severity, status, title, message,
	created_at, acknowledged_at, acknowledged_by, resolved_at, resolved_by`

func (r *sqliteAlertRepo) Create(ctx context.Context, alert *models.Alert) error {
	query := `
		INSERT INTO alerts (id, sensor_id, reading_id, rule_id, severity, status,
			title, message, created_at, acknowledged_at, acknowledged_by,
			resolved_at, resolved_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		alert.ID, alert.SensorID, nullString(alert.ReadingID), nullString(alert.RuleID),
		string(alert.Severity), string(alert.Status), alert.Title, alert.Message,
		alert.CreatedAt, alert.AcknowledgedAt, nullString(alert.AcknowledgedBy),
		alert.ResolvedAt, nullString(alert.ResolvedBy),
	)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

func (r *sqliteAlertRepo) GetByID(ctx context.Context, id string) (*models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE id = ?`
	alert, err := scanAlertRow(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return alert, err
}

func (r *sqliteAlertRepo) Update(ctx context.Context, alert *models.Alert) error {
	query := `
		UPDATE alerts SET status = ?, acknowledged_at = ?, acknowledged_by = ?,
			resolved_at = ?, resolved_by = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		string(alert.Status), alert.AcknowledgedAt, nullString(alert.AcknowledgedBy),
		alert.ResolvedAt, nullString(alert.ResolvedBy), alert.ID,
	)
	if err != nil {
		return fmt.Errorf("update alert: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("alert not found: %s", alert.ID)
	}
	return nil
}

func (r *sqliteAlertRepo) List(ctx context.Context, limit, offset int) ([]*models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts ORDER BY created_at DESC LIMIT ? OFFSET ?`
	return r.queryAlerts(ctx, query, limit, offset)
}

func (r *sqliteAlertRepo) ListActive(ctx context.Context) ([]*models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE status = 'active' ORDER BY created_at DESC`
	return r.queryAlerts(ctx, query)
}

func (r *sqliteAlertRepo) FindActive(ctx context.Context, sensorID string, severity models.Severity, titleContains string) (*models.Alert, error) {
	query := `
		SELECT ` + alertColumns + ` FROM alerts
		WHERE sensor_id = ? AND severity = ? AND status = 'active'
			AND instr(lower(title), lower(?)) > 0
		ORDER BY created_at DESC LIMIT 1
	`
	alert, err := scanAlertRow(r.db.QueryRowContext(ctx, query, sensorID, string(severity), titleContains))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return alert, err
}

func (r *sqliteAlertRepo) FindActiveByRule(ctx context.Context, sensorID string, severity models.Severity, ruleID string) (*models.Alert, error) {
	query := `
		SELECT ` + alertColumns + ` FROM alerts
		WHERE sensor_id = ? AND severity = ? AND status = 'active' AND rule_id = ?
		ORDER BY created_at DESC LIMIT 1
	`
	alert, err := scanAlertRow(r.db.QueryRowContext(ctx, query, sensorID, string(severity), ruleID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return alert, err
}

func (r *sqliteAlertRepo) Summary(ctx context.Context, now time.Time) (*AlertSummary, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(CASE WHEN status = 'active' THEN 1 END),
			COUNT(CASE WHEN severity = 'critical' AND status = 'active' THEN 1 END),
			COUNT(CASE WHEN severity = 'warning' AND status = 'active' THEN 1 END),
			COUNT(CASE WHEN status = 'acknowledged' THEN 1 END),
			COUNT(CASE WHEN created_at >= ? THEN 1 END)
		FROM alerts
	`
	summary := &AlertSummary{}
	err := r.db.QueryRowContext(ctx, query, now.Add(-24*time.Hour)).Scan(
		&summary.TotalAlerts, &summary.ActiveAlerts, &summary.CriticalAlerts,
		&summary.WarningAlerts, &summary.AcknowledgedAlerts, &summary.RecentAlerts24h,
	)
	if err != nil {
		return nil, fmt.Errorf("alert summary: %w", err)
	}
	return summary, nil
}

func (r *sqliteAlertRepo) queryAlerts(ctx context.Context, query string, args ...any) ([]*models.Alert, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*models.Alert
	for rows.Next() {
		alert, err := scanAlertRow(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}

func scanAlertRow(row scanner) (*models.Alert, error) {
	alert := &models.Alert{}
	var readingID, ruleID, acknowledgedBy, resolvedBy sql.NullString
	var severity, status string
	var acknowledgedAt, resolvedAt sql.NullTime

	err := row.Scan(
		&alert.ID, &alert.SensorID, &readingID, &ruleID, &severity, &status,
		&alert.Title, &alert.Message, &alert.CreatedAt,
		&acknowledgedAt, &acknowledgedBy, &resolvedAt, &resolvedBy,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan alert: %w", err)
	}

	alert.ReadingID = readingID.String
	alert.RuleID = ruleID.String
	alert.Severity = models.Severity(severity)
	alert.Status = models.AlertStatus(status)
	alert.AcknowledgedBy = acknowledgedBy.String
	alert.ResolvedBy = resolvedBy.String
	if acknowledgedAt.Valid {
		alert.AcknowledgedAt = &acknowledgedAt.Time
	}
	if resolvedAt.Valid {
		alert.ResolvedAt = &resolvedAt.Time
	}
	return alert, nil
}
