package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/andes-io/riverwatch/internal/models"
)

type sqliteRiverRepo struct {
	db *sql.DB
}

func (r *sqliteRiverRepo) Create(ctx context.Context, river *models.River) error {
	query := `
		INSERT INTO rivers (id, name, description, latitude, longitude, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		river.ID, river.Name, nullString(river.Description),
		river.Latitude, river.Longitude, river.CreatedAt, river.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert river: %w", err)
	}
	return nil
}

func (r *sqliteRiverRepo) GetByID(ctx context.Context, id string) (*models.River, error) {
	query := `
		SELECT id, name, description, latitude, longitude, created_at, updated_at
		FROM rivers WHERE id = ?
	`
	river := &models.River{}
	var description sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&river.ID, &river.Name, &description,
		&river.Latitude, &river.Longitude, &river.CreatedAt, &river.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan river: %w", err)
	}
	river.Description = description.String
	return river, nil
}

func (r *sqliteRiverRepo) List(ctx context.Context) ([]*models.River, error) {
	query := `
		SELECT id, name, description, latitude, longitude, created_at, updated_at
		FROM rivers ORDER BY name
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query rivers: %w", err)
	}
	defer rows.Close()

	var rivers []*models.River
	for rows.Next() {
		river := &models.River{}
		var description sql.NullString
		if err := rows.Scan(
			&river.ID, &river.Name, &description,
			&river.Latitude, &river.Longitude, &river.CreatedAt, &river.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan river: %w", err)
		}
		river.Description = description.String
		rivers = append(rivers, river)
	}
	return rivers, rows.Err()
}
