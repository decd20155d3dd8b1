package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/auspex-data/auspex/internal/telemetry"
)

const stationColumns = "id, uid, token, hw_version, sw_version, location_id, last_online"

// scanStation maps one stations row onto the domain entity. The embedded
// Location is never populated here; the Repository composes it explicitly.
func scanStation(scan func(dest ...any) error) (*telemetry.Station, error) {
	var (
		s          telemetry.Station
		locationID sql.NullInt64
		lastOnline int64
	)
	if err := scan(&s.ID, &s.UID, &s.Token, &s.HWVersion, &s.SWVersion, &locationID, &lastOnline); err != nil {
		return nil, err
	}
	if locationID.Valid {
		s.LocationID = &locationID.Int64
	}
	s.LastOnline = time.Unix(lastOnline, 0)
	return &s, nil
}

func getStation(ctx context.Context, q dbtx, token string) (*telemetry.Station, error) {
	row := q.QueryRowContext(ctx,
		"SELECT "+stationColumns+" FROM stations WHERE token = ?", token)

	s, err := scanStation(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("station %q: %w", token, telemetry.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get station: %w", err)
	}
	return s, nil
}

// GetStation looks a station up by its caller-chosen token. The numeric id is
// a surrogate and is never used for external lookups.
func (db *DB) GetStation(ctx context.Context, token string) (*telemetry.Station, error) {
	return getStation(ctx, db.DB, token)
}

// ActiveStations returns stations whose last_online is at or after since,
// boundary inclusive.
func (db *DB) ActiveStations(ctx context.Context, since time.Time) ([]telemetry.Station, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT "+stationColumns+" FROM stations WHERE last_online >= ? ORDER BY token ASC",
		since.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query active stations: %w", err)
	}
	defer rows.Close()

	var stations []telemetry.Station
	for rows.Next() {
		s, err := scanStation(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan station: %w", err)
		}
		stations = append(stations, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stations: %w", err)
	}
	return stations, nil
}

// InsertStation inserts the station and fills in its store-assigned id. There
// is no existence pre-check: token uniqueness is the store's constraint, and a
// duplicate surfaces as telemetry.ErrConflict.
func (db *DB) InsertStation(ctx context.Context, s *telemetry.Station) (int64, error) {
	var locationID any
	if s.LocationID != nil {
		locationID = *s.LocationID
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO stations (uid, token, hw_version, sw_version, location_id, last_online)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		s.UID, s.Token, s.HWVersion, s.SWVersion, locationID, s.LastOnline.Unix())
	if err != nil {
		if isConstraintViolation(err) {
			return 0, fmt.Errorf("station token %q: %w", s.Token, telemetry.ErrConflict)
		}
		return 0, fmt.Errorf("failed to insert station: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	s.ID = id
	return id, nil
}

// UpdateStation writes the station's mutable fields back by id.
func (db *DB) UpdateStation(ctx context.Context, s *telemetry.Station) error {
	var locationID any
	if s.LocationID != nil {
		locationID = *s.LocationID
	}

	result, err := db.ExecContext(ctx,
		`UPDATE stations
		 SET hw_version = ?, sw_version = ?, location_id = ?, last_online = ?
		 WHERE id = ?`,
		s.HWVersion, s.SWVersion, locationID, s.LastOnline.Unix(), s.ID)
	if err != nil {
		return fmt.Errorf("failed to update station: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("station id %d: %w", s.ID, telemetry.ErrNotFound)
	}
	return nil
}

// UpdateStationLocation re-points the station's weak location reference by
// token, without reading the station first. The previously referenced
// location row is left in place.
func (db *DB) UpdateStationLocation(ctx context.Context, locationID int64, token string) error {
	result, err := db.ExecContext(ctx,
		"UPDATE stations SET location_id = ? WHERE token = ?", locationID, token)
	if err != nil {
		return fmt.Errorf("failed to update station location: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("station %q: %w", token, telemetry.ErrNotFound)
	}
	return nil
}

// setStationLastOnline stamps liveness inside the ingestion transaction.
func setStationLastOnline(ctx context.Context, q dbtx, stationID int64, t time.Time) error {
	result, err := q.ExecContext(ctx,
		"UPDATE stations SET last_online = ? WHERE id = ?", t.Unix(), stationID)
	if err != nil {
		return fmt.Errorf("failed to update last_online: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("station id %d: %w", stationID, telemetry.ErrNotFound)
	}
	return nil
}
