package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/andes-io/riverwatch/internal/models"
)

type sqliteSensorRepo struct {
	db *sql.DB
}

const sensorColumns = `
	s.id, s.name, s.sensor_code, s.river_id, r.name, s.latitude, s.longitude,
	s.status, s.installation_date, s.last_maintenance, s.max_level,
	s.warning_threshold, s.critical_threshold, s.created_at, s.updated_at
`

func (r *sqliteSensorRepo) Create(ctx context.Context, sensor *models.Sensor) error {
	query := `
		INSERT INTO sensors (id, name, sensor_code, river_id, latitude, longitude,
			status, installation_date, last_maintenance, max_level,
			warning_threshold, critical_threshold, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		sensor.ID, sensor.Name, sensor.SensorCode, sensor.RiverID,
		sensor.Latitude, sensor.Longitude, string(sensor.Status),
		sensor.InstallationDate, sensor.LastMaintenance, sensor.MaxLevel,
		sensor.WarningThreshold, sensor.CriticalThreshold,
		sensor.CreatedAt, sensor.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert sensor: %w", err)
	}
	return nil
}

func (r *sqliteSensorRepo) GetByID(ctx context.Context, id string) (*models.Sensor, error) {
	query := `SELECT ` + sensorColumns + ` FROM sensors s JOIN rivers r ON r.id = s.river_id WHERE s.id = ?`
	return r.scanSensor(r.db.QueryRowContext(ctx, query, id))
}

func (r *sqliteSensorRepo) GetByCode(ctx context.Context, code string) (*models.Sensor, error) {
	query := `SELECT ` + sensorColumns + ` FROM sensors s JOIN rivers r ON r.id = s.river_id WHERE s.sensor_code = ?`
	return r.scanSensor(r.db.QueryRowContext(ctx, query, code))
}

func (r *sqliteSensorRepo) Update(ctx context.Context, sensor *models.Sensor) error {
	query := `
		UPDATE sensors SET name = ?, sensor_code = ?, river_id = ?, latitude = ?,
			longitude = ?, status = ?, installation_date = ?, last_maintenance = ?,
			max_level = ?, warning_threshold = ?, critical_threshold = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		sensor.Name, sensor.SensorCode, sensor.RiverID, sensor.Latitude,
		sensor.Longitude, string(sensor.Status), sensor.InstallationDate,
		sensor.LastMaintenance, sensor.MaxLevel, sensor.WarningThreshold,
		sensor.CriticalThreshold, sensor.UpdatedAt, sensor.ID,
	)
	if err != nil {
		return fmt.Errorf("update sensor: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("sensor not found: %s", sensor.ID)
	}
	return nil
}

func (r *sqliteSensorRepo) List(ctx context.Context) ([]*models.Sensor, error) {
	query := `SELECT ` + sensorColumns + ` FROM sensors s JOIN rivers r ON r.id = s.river_id ORDER BY s.name`
	return r.querySensors(ctx, query)
}

func (r *sqliteSensorRepo) ListByRiver(ctx context.Context, riverID string) ([]*models.Sensor, error) {
	query := `SELECT ` + sensorColumns + ` FROM sensors s JOIN rivers r ON r.id = s.river_id WHERE s.river_id = ? ORDER BY s.name`
	return r.querySensors(ctx, query, riverID)
}

func (r *sqliteSensorRepo) querySensors(ctx context.Context, query string, args ...any) ([]*models.Sensor, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sensors: %w", err)
	}
	defer rows.Close()

	var sensors []*models.Sensor
	for rows.Next() {
		sensor, err := scanSensorRow(rows)
		if err != nil {
			return nil, err
		}
		sensors = append(sensors, sensor)
	}
	return sensors, rows.Err()
}

func (r *sqliteSensorRepo) scanSensor(row *sql.Row) (*models.Sensor, error) {
	sensor, err := scanSensorRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return sensor, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSensorRow(row scanner) (*models.Sensor, error) {
	sensor := &models.Sensor{}
	var status string
	var lastMaintenance sql.NullTime

	err := row.Scan(
		&sensor.ID, &sensor.Name, &sensor.SensorCode, &sensor.RiverID,
		&sensor.RiverName, &sensor.Latitude, &sensor.Longitude, &status,
		&sensor.InstallationDate, &lastMaintenance, &sensor.MaxLevel,
		&sensor.WarningThreshold, &sensor.CriticalThreshold,
		&sensor.CreatedAt, &sensor.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan sensor: %w", err)
	}

	sensor.Status = models.SensorStatus(status)
	if lastMaintenance.Valid {
		sensor.LastMaintenance = &lastMaintenance.Time
	}
	return sensor, nil
}
