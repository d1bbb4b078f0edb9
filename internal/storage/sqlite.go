package storage

import (
	"context"
	"database/sql"
	"fmt"

	// Pure-Go SQLite driver.
	_ "modernc.org/sqlite"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	path string
	db   *sql.DB

	rivers        *sqliteRiverRepo
	sensors       *sqliteSensorRepo
	readings      *sqliteReadingRepo
	rules         *sqliteRuleRepo
	alerts        *sqliteAlertRepo
	channels      *sqliteChannelRepo
	notifications *sqliteNotificationRepo
}

// NewSQLiteStorage creates a new SQLite storage.
func NewSQLiteStorage(path string) *SQLiteStorage {
	return &SQLiteStorage{path: path}
}

// Open initializes the database connection.
func (s *SQLiteStorage) Open() error {
	ctx := context.Background()

	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", s.path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	// SQLite is single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("ping database: %w", err)
	}

	s.db = db

	s.rivers = &sqliteRiverRepo{db: db}
	s.sensors = &sqliteSensorRepo{db: db}
	s.readings = &sqliteReadingRepo{db: db}
	s.rules = &sqliteRuleRepo{db: db}
	s.alerts = &sqliteAlertRepo{db: db}
	s.channels = &sqliteChannelRepo{db: db}
	s.notifications = &sqliteNotificationRepo{db: db}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying database connection for health checks.
func (s *SQLiteStorage) DB() *sql.DB {
	return s.db
}

// Migrate runs database migrations.
func (s *SQLiteStorage) Migrate() error {
	return runMigrations(s.db)
}

// Rivers returns the river repository.
func (s *SQLiteStorage) Rivers() RiverRepository {
	return s.rivers
}

// Sensors returns the sensor repository.
func (s *SQLiteStorage) Sensors() SensorRepository {
	return s.sensors
}

// Readings returns the reading repository.
func (s *SQLiteStorage) Readings() ReadingRepository {
	return s.readings
}

// Rules returns the alert rule repository.
func (s *SQLiteStorage) Rules() RuleRepository {
	return s.rules
}

// Alerts returns the alert repository.
func (s *SQLiteStorage) Alerts() AlertRepository {
	return s.alerts
}

// Channels returns the notification channel repository.
func (s *SQLiteStorage) Channels() ChannelRepository {
	return s.channels
}

// Notifications returns the notification audit repository.
func (s *SQLiteStorage) Notifications() NotificationRepository {
	return s.notifications
}

// Helper functions shared by the sqlite repositories.

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
