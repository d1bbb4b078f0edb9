package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/andes-io/riverwatch/internal/models"
)

type sqliteReadingRepo struct {
	db *sql.DB
}

const readingColumns = `id, sensor_id, water_level, temperature, flow_rate, battery_level, signal_strength, timestamp`

func (r *sqliteReadingRepo) Create(ctx context.Context, reading *models.SensorReading) error {
	query := `
		INSERT INTO sensor_readings (id, sensor_id, water_level, temperature,
			flow_rate, battery_level, signal_strength, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		reading.ID, reading.SensorID, reading.WaterLevel, reading.Temperature,
		reading.FlowRate, reading.BatteryLevel, reading.SignalStrength, reading.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}
	return nil
}

func (r *sqliteReadingRepo) GetByID(ctx context.Context, id string) (*models.SensorReading, error) {
	query := `SELECT ` + readingColumns + ` FROM sensor_readings WHERE id = ?`
	return r.scanReading(r.db.QueryRowContext(ctx, query, id))
}

func (r *sqliteReadingRepo) ListBySensor(ctx context.Context, sensorID string, limit, offset int) ([]*models.SensorReading, error) {
	query := `
		SELECT ` + readingColumns + ` FROM sensor_readings
		WHERE sensor_id = ? ORDER BY timestamp DESC LIMIT ? OFFSET ?
	`
	rows, err := r.db.QueryContext(ctx, query, sensorID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query readings: %w", err)
	}
	defer rows.Close()

	var readings []*models.SensorReading
	for rows.Next() {
		reading, err := scanReadingRow(rows)
		if err != nil {
			return nil, err
		}
		readings = append(readings, reading)
	}
	return readings, rows.Err()
}

func (r *sqliteReadingRepo) Latest(ctx context.Context, sensorID string) (*models.SensorReading, error) {
	query := `
		SELECT ` + readingColumns + ` FROM sensor_readings
		WHERE sensor_id = ? ORDER BY timestamp DESC LIMIT 1
	`
	return r.scanReading(r.db.QueryRowContext(ctx, query, sensorID))
}

func (r *sqliteReadingRepo) PreviousReading(ctx context.Context, sensorID string, olderThan time.Time) (*models.SensorReading, error) {
	query := `
		SELECT ` + readingColumns + ` FROM sensor_readings
		WHERE sensor_id = ? AND timestamp < ? ORDER BY timestamp DESC LIMIT 1
	`
	return r.scanReading(r.db.QueryRowContext(ctx, query, sensorID, olderThan))
}

func (r *sqliteReadingRepo) scanReading(row *sql.Row) (*models.SensorReading, error) {
	reading, err := scanReadingRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return reading, err
}

func scanReadingRow(row scanner) (*models.SensorReading, error) {
	reading := &models.SensorReading{}
	err := row.Scan(
		&reading.ID, &reading.SensorID, &reading.WaterLevel, &reading.Temperature,
		&reading.FlowRate, &reading.BatteryLevel, &reading.SignalStrength, &reading.Timestamp,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan reading: %w", err)
	}
	return reading, nil
}
