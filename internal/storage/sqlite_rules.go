package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/andes-io/riverwatch/internal/models"
)

type sqliteRuleRepo struct {
	db *sql.DB
}

const ruleColumns = `id, name, sensor_id, metric, condition, threshold_value, severity, is_active, created_at, updated_at`

func (r *sqliteRuleRepo) Create(ctx context.Context, rule *models.AlertRule) error {
	query := `
		INSERT INTO alert_rules (id, name, sensor_id, metric, condition,
			threshold_value, severity, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		rule.ID, rule.Name, nullString(rule.SensorID), string(rule.Metric),
		string(rule.Condition), rule.ThresholdValue, string(rule.Severity),
		boolToInt(rule.IsActive), rule.CreatedAt, rule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert rule: %w", err)
	}
	return nil
}

func (r *sqliteRuleRepo) GetByID(ctx context.Context, id string) (*models.AlertRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM alert_rules WHERE id = ?`
	rule, err := scanRuleRow(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rule, err
}

func (r *sqliteRuleRepo) Update(ctx context.Context, rule *models.AlertRule) error {
	query := `
		UPDATE alert_rules SET name = ?, sensor_id = ?, metric = ?, condition = ?,
			threshold_value = ?, severity = ?, is_active = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		rule.Name, nullString(rule.SensorID), string(rule.Metric),
		string(rule.Condition), rule.ThresholdValue, string(rule.Severity),
		boolToInt(rule.IsActive), rule.UpdatedAt, rule.ID,
	)
	if err != nil {
		return fmt.Errorf("update rule: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("rule not found: %s", rule.ID)
	}
	return nil
}

func (r *sqliteRuleRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM alert_rules WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("rule not found: %s", id)
	}
	return nil
}

func (r *sqliteRuleRepo) List(ctx context.Context) ([]*models.AlertRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM alert_rules ORDER BY name`
	return r.queryRules(ctx, query)
}

// ListForSensor returns active rules scoped to the sensor plus active
// globally-scoped rules. Ordered by name so evaluation order is stable.
func (r *sqliteRuleRepo) ListForSensor(ctx context.Context, sensorID string) ([]*models.AlertRule, error) {
	query := `
		SELECT ` + ruleColumns + ` FROM alert_rules
		WHERE (sensor_id = ? OR sensor_id IS NULL) AND is_active = 1
		ORDER BY name
	`
	return r.queryRules(ctx, query, sensorID)
}

func (r *sqliteRuleRepo) SetActive(ctx context.Context, id string, active bool) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE alert_rules SET is_active = ?, updated_at = ? WHERE id = ?",
		boolToInt(active), time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("set rule active: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("rule not found: %s", id)
	}
	return nil
}

func (r *sqliteRuleRepo) queryRules(ctx context.Context, query string, args ...any) ([]*models.AlertRule, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}
	defer rows.Close()

	var rules []*models.AlertRule
	for rows.Next() {
		rule, err := scanRuleRow(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func scanRuleRow(row scanner) (*models.AlertRule, error) {
	rule := &models.AlertRule{}
	var sensorID sql.NullString
	var metric, condition, severity string
	var isActive int

	err := row.Scan(
		&rule.ID, &rule.Name, &sensorID, &metric, &condition,
		&rule.ThresholdValue, &severity, &isActive,
		&rule.CreatedAt, &rule.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan rule: %w", err)
	}

	rule.SensorID = sensorID.String
	rule.Metric = models.Metric(metric)
	rule.Condition = models.RuleCondition(condition)
	rule.Severity = models.Severity(severity)
	rule.IsActive = isActive != 0
	return rule, nil
}
