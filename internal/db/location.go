package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/auspex-data/auspex/internal/telemetry"
)

// GetLocation retrieves a location by id. Locations have no other lookup key:
// once a station re-points elsewhere, the old row is reachable only this way.
func (db *DB) GetLocation(ctx context.Context, id int64) (*telemetry.Location, error) {
	var loc telemetry.Location
	err := db.QueryRowContext(ctx,
		`SELECT id, station_token, latitude, longitude, country, province, city, street, number
		 FROM locations WHERE id = ?`, id).Scan(
		&loc.ID,
		&loc.StationToken,
		&loc.Latitude,
		&loc.Longitude,
		&loc.Country,
		&loc.Province,
		&loc.City,
		&loc.Street,
		&loc.Number,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("location %d: %w", id, telemetry.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get location: %w", err)
	}
	return &loc, nil
}

// InsertLocation inserts a new location row and fills in its assigned id.
// Rows are only ever inserted; there is no update or delete.
func (db *DB) InsertLocation(ctx context.Context, loc *telemetry.Location) (int64, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO locations (station_token, latitude, longitude, country, province, city, street, number)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		loc.StationToken, loc.Latitude, loc.Longitude,
		loc.Country, loc.Province, loc.City, loc.Street, loc.Number)
	if err != nil {
		return 0, fmt.Errorf("failed to insert location: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	loc.ID = id
	return id, nil
}
