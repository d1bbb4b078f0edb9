package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// Migration represents a database migration.
type Migration struct {
	Version int
	Name    string
	Up      string
}

// migrations holds all database migrations in order.
var migrations = []Migration{
	{
		Version: 1,
		Name:    "initial_schema",
		Up: `
			-- Rivers table
			CREATE TABLE IF NOT EXISTS rivers (
				id TEXT PRIMARY KEY,
				name TEXT UNIQUE NOT NULL,
				description TEXT,
				latitude REAL NOT NULL,
				longitude REAL NOT NULL,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			);

			-- Sensors table
			CREATE TABLE IF NOT EXISTS sensors (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				sensor_code TEXT UNIQUE NOT NULL,
				river_id TEXT NOT NULL,
				latitude REAL NOT NULL,
				longitude REAL NOT NULL,
				status TEXT NOT NULL DEFAULT 'active',
				installation_date DATETIME NOT NULL,
				last_maintenance DATETIME,
				max_level REAL NOT NULL,
				warning_threshold REAL NOT NULL DEFAULT 75,
				critical_threshold REAL NOT NULL DEFAULT 90,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL,
				FOREIGN KEY (river_id) REFERENCES rivers(id) ON DELETE CASCADE
			);

			-- Sensor readings table
			CREATE TABLE IF NOT EXISTS sensor_readings (
				id TEXT PRIMARY KEY,
				sensor_id TEXT NOT NULL,
				water_level REAL NOT NULL,
				temperature REAL NOT NULL,
				flow_rate REAL NOT NULL,
				battery_level REAL NOT NULL,
				signal_strength INTEGER NOT NULL,
				timestamp DATETIME NOT NULL,
				FOREIGN KEY (sensor_id) REFERENCES sensors(id) ON DELETE CASCADE
			);

			-- Alert rules table
			CREATE TABLE IF NOT EXISTS alert_rules (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				sensor_id TEXT,
				metric TEXT NOT NULL,
				condition TEXT NOT NULL,
				threshold_value REAL NOT NULL,
				severity TEXT NOT NULL,
				is_active INTEGER NOT NULL DEFAULT 1,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL,
				FOREIGN KEY (sensor_id) REFERENCES sensors(id) ON DELETE CASCADE
			);

			-- Alerts table
			CREATE TABLE IF NOT EXISTS alerts (
				id TEXT PRIMARY KEY,
				sensor_id TEXT NOT NULL,
				reading_id TEXT,
				rule_id TEXT,
				severity TEXT NOT NULL,
				status TEXT NOT NULL DEFAULT 'active',
				title TEXT NOT NULL,
				message TEXT NOT NULL,
				created_at DATETIME NOT NULL,
				acknowledged_at DATETIME,
				acknowledged_by TEXT,
				resolved_at DATETIME,
				resolved_by TEXT,
				FOREIGN KEY (sensor_id) REFERENCES sensors(id) ON DELETE CASCADE
			);

			-- Notification channels table
			CREATE TABLE IF NOT EXISTS notification_channels (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				channel_type TEXT NOT NULL,
				configuration_json TEXT NOT NULL,
				is_active INTEGER NOT NULL DEFAULT 1,
				created_at DATETIME NOT NULL
			);

			-- Alert notifications audit table (append-only; rows are kept
			-- even if the owning alert goes away)
			CREATE TABLE IF NOT EXISTS alert_notifications (
				id TEXT PRIMARY KEY,
				alert_id TEXT NOT NULL,
				channel_id TEXT NOT NULL,
				recipient TEXT NOT NULL,
				status TEXT NOT NULL DEFAULT 'pending',
				sent_at DATETIME,
				error_message TEXT
			);

			-- Indexes
			CREATE INDEX IF NOT EXISTS idx_sensors_river ON sensors(river_id);
			CREATE INDEX IF NOT EXISTS idx_readings_sensor_ts ON sensor_readings(sensor_id, timestamp DESC);
			CREATE INDEX IF NOT EXISTS idx_rules_sensor ON alert_rules(sensor_id);
			CREATE INDEX IF NOT EXISTS idx_rules_active ON alert_rules(is_active);
			CREATE INDEX IF NOT EXISTS idx_alerts_sensor_created ON alerts(sensor_id, created_at DESC);
			CREATE INDEX IF NOT EXISTS idx_alerts_severity_status ON alerts(severity, status);
			CREATE INDEX IF NOT EXISTS idx_channels_active ON notification_channels(is_active);
			CREATE INDEX IF NOT EXISTS idx_notifications_alert ON alert_notifications(alert_id);
			CREATE INDEX IF NOT EXISTS idx_notifications_channel ON alert_notifications(channel_id);
		`,
	},
}

// runMigrations applies all pending migrations.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	var currentVersion int
	err = db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("get current version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= currentVersion {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.Up); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration %d (%s): %w", m.Version, m.Name, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)",
			m.Version, m.Name, time.Now(),
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}
