package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/andes-io/riverwatch/internal/models"
)

type sqliteChannelRepo struct {
	db *sql.DB
}

const channelColumns = `id, name, channel_type, configuration_json, is_active, created_at`

func (r *sqliteChannelRepo) Create(ctx context.Context, channel *models.NotificationChannel) error {
	configJSON, err := json.Marshal(channel.Configuration)
	if err != nil {
		return fmt.Errorf("marshal configuration: %w", err)
	}

	query := `
		INSERT INTO notification_channels (id, name, channel_type, configuration_json, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		channel.ID, channel.Name, string(channel.ChannelType),
		string(configJSON), boolToInt(channel.IsActive), channel.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert channel: %w", err)
	}
	return nil
}

func (r *sqliteChannelRepo) GetByID(ctx context.Context, id string) (*models.NotificationChannel, error) {
	query := `SELECT ` + channelColumns + ` FROM notification_channels WHERE id = ?`
	channel, err := scanChannelRow(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return channel, err
}

func (r *sqliteChannelRepo) Update(ctx context.Context, channel *models.NotificationChannel) error {
	configJSON, err := json.Marshal(channel.Configuration)
	if err != nil {
		return fmt.Errorf("marshal configuration: %w", err)
	}

	query := `
		UPDATE notification_channels SET name = ?, channel_type = ?,
			configuration_json = ?, is_active = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		channel.Name, string(channel.ChannelType), string(configJSON),
		boolToInt(channel.IsActive), channel.ID,
	)
	if err != nil {
		return fmt.Errorf("update channel: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("channel not found: %s", channel.ID)
	}
	return nil
}

func (r *sqliteChannelRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM notification_channels WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete channel: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("channel not found: %s", id)
	}
	return nil
}

func (r *sqliteChannelRepo) List(ctx context.Context) ([]*models.NotificationChannel, error) {
	query := `SELECT ` + channelColumns + ` FROM notification_channels ORDER BY name`
	return r.queryChannels(ctx, query)
}

func (r *sqliteChannelRepo) ListActive(ctx context.Context) ([]*models.NotificationChannel, error) {
	query := `SELECT ` + channelColumns + ` FROM notification_channels WHERE is_active = 1 ORDER BY name`
	return r.queryChannels(ctx, query)
}

func (r *sqliteChannelRepo) queryChannels(ctx context.Context, query string, args ...any) ([]*models.NotificationChannel, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query channels: %w", err)
	}
	defer rows.Close()

	var channels []*models.NotificationChannel
	for rows.Next() {
		channel, err := scanChannelRow(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, channel)
	}
	return channels, rows.Err()
}

func scanChannelRow(row scanner) (*models.NotificationChannel, error) {
	channel := &models.NotificationChannel{}
	var channelType, configJSON string
	var isActive int

	err := row.Scan(
		&channel.ID, &channel.Name, &channelType, &configJSON,
		&isActive, &channel.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan channel: %w", err)
	}

	channel.ChannelType = models.ChannelType(channelType)
	channel.IsActive = isActive != 0
	if err := json.Unmarshal([]byte(configJSON), &channel.Configuration); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}
	return channel, nil
}
