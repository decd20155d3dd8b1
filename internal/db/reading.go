package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/auspex-data/auspex/internal/telemetry"
)

const readingColumns = "id, station_id, location_id, recorded_at, temperature, humidity, pm10, pm25, co2, voc"

func scanReading(scan func(dest ...any) error) (*telemetry.Reading, error) {
	var (
		r          telemetry.Reading
		locationID sql.NullInt64
		recordedAt int64
	)
	if err := scan(&r.ID, &r.StationID, &locationID, &recordedAt,
		&r.Temperature, &r.Humidity, &r.PM10, &r.PM25, &r.CO2, &r.VOC); err != nil {
		return nil, err
	}
	if locationID.Valid {
		r.LocationID = &locationID.Int64
	}
	r.RecordedAt = time.Unix(recordedAt, 0)
	return &r, nil
}

func collectReadings(rows *sql.Rows) ([]telemetry.Reading, error) {
	defer rows.Close()

	var readings []telemetry.Reading
	for rows.Next() {
		r, err := scanReading(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}
		readings = append(readings, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating readings: %w", err)
	}
	return readings, nil
}

// insertReading inserts one immutable sample; it runs on the ingestion
// transaction alongside the liveness stamp.
func insertReading(ctx context.Context, q dbtx, r *telemetry.Reading) (int64, error) {
	var locationID any
	if r.LocationID != nil {
		locationID = *r.LocationID
	}

	result, err := q.ExecContext(ctx,
		`INSERT INTO readings (station_id, location_id, recorded_at, temperature, humidity, pm10, pm25, co2, voc)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.StationID, locationID, r.RecordedAt.Unix(),
		r.Temperature, r.Humidity, r.PM10, r.PM25, r.CO2, r.VOC)
	if err != nil {
		return 0, fmt.Errorf("failed to insert reading: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	r.ID = id
	return id, nil
}

// LatestReading returns the single most recent reading for a station. Equal
// timestamps tie-break on the higher id, the later insert.
func (db *DB) LatestReading(ctx context.Context, stationID int64) (*telemetry.Reading, error) {
	row := db.QueryRowContext(ctx,
		"SELECT "+readingColumns+` FROM readings
		 WHERE station_id = ?
		 ORDER BY recorded_at DESC, id DESC
		 LIMIT 1`, stationID)

	r, err := scanReading(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("station id %d readings: %w", stationID, telemetry.ErrNoData)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest reading: %w", err)
	}
	return r, nil
}

// LatestReadings returns up to count most recent readings, newest first.
// Fewer than count readings is not an error; the result is just shorter.
func (db *DB) LatestReadings(ctx context.Context, stationID int64, count int) ([]telemetry.Reading, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT "+readingColumns+` FROM readings
		 WHERE station_id = ?
		 ORDER BY recorded_at DESC, id DESC
		 LIMIT ?`, stationID, count)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest readings: %w", err)
	}
	return collectReadings(rows)
}

// ReadingsBetween returns the station's readings with recorded_at in
// [start, end], inclusive on both ends, oldest first.
func (db *DB) ReadingsBetween(ctx context.Context, stationID int64, start, end time.Time) ([]telemetry.Reading, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT "+readingColumns+` FROM readings
		 WHERE station_id = ? AND recorded_at BETWEEN ? AND ?
		 ORDER BY recorded_at ASC, id ASC`,
		stationID, start.Unix(), end.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query readings between: %w", err)
	}
	return collectReadings(rows)
}

// StationReadingsSince returns the station's readings with recorded_at at or
// after since.
func (db *DB) StationReadingsSince(ctx context.Context, stationID int64, since time.Time) ([]telemetry.Reading, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT "+readingColumns+` FROM readings
		 WHERE station_id = ? AND recorded_at >= ?
		 ORDER BY recorded_at ASC, id ASC`,
		stationID, since.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query station readings: %w", err)
	}
	return collectReadings(rows)
}

// ReadingsSince returns every reading across all stations with recorded_at at
// or after since.
func (db *DB) ReadingsSince(ctx context.Context, since time.Time) ([]telemetry.Reading, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT "+readingColumns+` FROM readings
		 WHERE recorded_at >= ?
		 ORDER BY recorded_at ASC, id ASC`, since.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query recent readings: %w", err)
	}
	return collectReadings(rows)
}

// LatestPerStation returns, for each station with a reading at or after
// since, only its single most recent one. Ties on recorded_at resolve to the
// highest reading id so the result is deterministic.
func (db *DB) LatestPerStation(ctx context.Context, since time.Time) ([]telemetry.Reading, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT "+readingColumns+` FROM (
			SELECT *, ROW_NUMBER() OVER (
				PARTITION BY station_id
				ORDER BY recorded_at DESC, id DESC
			) AS rn
			FROM readings
			WHERE recorded_at >= ?
		 )
		 WHERE rn = 1
		 ORDER BY station_id ASC`, since.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query latest per station: %w", err)
	}
	return collectReadings(rows)
}
