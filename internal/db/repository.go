package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/auspex-data/auspex/internal/monitoring"
	"github.com/auspex-data/auspex/internal/telemetry"
	"github.com/auspex-data/auspex/internal/timeutil"
)

// Window policies. A station is active if it reported within the last hour;
// the "right now" view only considers the last five minutes; averages cover
// the trailing hour and day.
const (
	activeWindow  = time.Hour
	currentWindow = 5 * time.Minute
	hourWindow    = time.Hour
	dayWindow     = 24 * time.Hour
)

// Repository is the telemetry repository: it aggregates the per-entity query
// layer and enforces the cross-entity invariants — station/location linkage,
// reading snapshotting, liveness tracking — behind one API. All durable state
// lives in the store; the Repository itself holds nothing mutable beyond the
// shared pool.
type Repository struct {
	db    *DB
	clock timeutil.Clock
}

// NewRepository creates a Repository over the shared pool using wall-clock
// time.
func NewRepository(db *DB) *Repository {
	return &Repository{db: db, clock: timeutil.RealClock{}}
}

// NewRepositoryWithClock is NewRepository with an injected clock, for tests
// that pin "now".
func NewRepositoryWithClock(db *DB, clock timeutil.Clock) *Repository {
	return &Repository{db: db, clock: clock}
}

// RegisterStation creates the station, first creating its location when one
// is supplied. Uniqueness of the token is enforced entirely by the store; a
// duplicate surfaces as telemetry.ErrConflict, not a pre-check.
func (r *Repository) RegisterStation(ctx context.Context, token string, hwVersion, swVersion int, loc *telemetry.Location) (int64, error) {
	station := telemetry.NewStation(token, hwVersion, swVersion)
	station.LastOnline = r.clock.Now()

	if loc != nil {
		loc.StationToken = token
		locationID, err := r.db.InsertLocation(ctx, loc)
		if err != nil {
			return 0, err
		}
		station.LocationID = &locationID
	}

	return r.db.InsertStation(ctx, station)
}

// GetStation looks a station up by token. When includeLocation is set and the
// station has a location reference, the location is fetched and embedded; a
// dangling reference is data corruption and returns a hard storage error, not
// ErrNotFound.
func (r *Repository) GetStation(ctx context.Context, token string, includeLocation bool) (*telemetry.Station, error) {
	station, err := r.db.GetStation(ctx, token)
	if err != nil {
		return nil, err
	}

	if includeLocation && station.LocationID != nil {
		loc, err := r.db.GetLocation(ctx, *station.LocationID)
		if err != nil {
			if errors.Is(err, telemetry.ErrNotFound) {
				return nil, fmt.Errorf("station %q references missing location %d", token, *station.LocationID)
			}
			return nil, err
		}
		station.Location = loc
	}

	return station, nil
}

// ActiveStations returns stations seen within the last hour, boundary
// inclusive. Locations are not embedded; callers compose them per station
// when needed.
func (r *Repository) ActiveStations(ctx context.Context) ([]telemetry.Station, error) {
	return r.db.ActiveStations(ctx, r.clock.Now().Add(-activeWindow))
}

// UpdateStation applies a partial update to the station named by token.
// Fields absent from the update are left unchanged.
func (r *Repository) UpdateStation(ctx context.Context, token string, update telemetry.StationUpdate) error {
	station, err := r.db.GetStation(ctx, token)
	if err != nil {
		return err
	}
	update.Apply(station)
	return r.db.UpdateStation(ctx, station)
}

// AttachLocation creates a brand-new location row and re-points the target
// station at it by token, without reading the station's current state. Any
// previously linked location row stays behind, orphaned but retrievable by
// id; locations carry no back-reference and are never garbage-collected.
func (r *Repository) AttachLocation(ctx context.Context, loc *telemetry.Location) error {
	locationID, err := r.db.InsertLocation(ctx, loc)
	if err != nil {
		return err
	}
	return r.db.UpdateStationLocation(ctx, locationID, loc.StationToken)
}

// GetLocation retrieves a location by id.
func (r *Repository) GetLocation(ctx context.Context, id int64) (*telemetry.Location, error) {
	return r.db.GetLocation(ctx, id)
}

// IngestReading records one sample for the station named by token. Ingestion
// never auto-registers: an unknown token is ErrNotFound. The station's
// last_online is stamped with the current server time regardless of the
// reading's own timestamp, which defaults to that same "now" when the caller
// supplies none. Both writes — the liveness stamp and the reading insert —
// run in a single transaction, so a failure on either leaves the store
// untouched.
func (r *Repository) IngestReading(ctx context.Context, token string, recordedAt *time.Time, metrics telemetry.Metrics) (int64, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("failed to begin ingest transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			monitoring.Logf("warning: failed to rollback ingest transaction: %v", err)
		}
	}()

	station, err := getStation(ctx, tx, token)
	if err != nil {
		return 0, err
	}

	now := r.clock.Now()
	if err := setStationLastOnline(ctx, tx, station.ID, now); err != nil {
		return 0, err
	}

	at := now
	if recordedAt != nil {
		at = *recordedAt
	}

	reading := &telemetry.Reading{
		StationID:  station.ID,
		LocationID: station.LocationID,
		RecordedAt: at,
		Metrics:    metrics,
	}
	id, err := insertReading(ctx, tx, reading)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit ingest transaction: %w", err)
	}
	return id, nil
}

// LatestReading returns the station's most recent reading, or ErrNoData when
// the station has none.
func (r *Repository) LatestReading(ctx context.Context, token string) (*telemetry.Reading, error) {
	station, err := r.db.GetStation(ctx, token)
	if err != nil {
		return nil, err
	}
	return r.db.LatestReading(ctx, station.ID)
}

// LatestReadings returns up to count most recent readings for the station,
// newest first, truncated to however many exist.
func (r *Repository) LatestReadings(ctx context.Context, token string, count int) ([]telemetry.Reading, error) {
	station, err := r.db.GetStation(ctx, token)
	if err != nil {
		return nil, err
	}
	return r.db.LatestReadings(ctx, station.ID, count)
}

// ReadingsBetween returns the station's readings in [start, end], inclusive
// on both ends. No matches is an empty result, not an error.
func (r *Repository) ReadingsBetween(ctx context.Context, token string, start, end time.Time) ([]telemetry.Reading, error) {
	station, err := r.db.GetStation(ctx, token)
	if err != nil {
		return nil, err
	}
	return r.db.ReadingsBetween(ctx, station.ID, start, end)
}

// RecentReadings returns every reading across all stations recorded within
// the last hours hours.
func (r *Repository) RecentReadings(ctx context.Context, hours int) ([]telemetry.Reading, error) {
	return r.db.ReadingsSince(ctx, r.clock.Now().Add(-time.Duration(hours)*time.Hour))
}

// CurrentReadings answers "what is every station reporting right now": per
// station, only its most recent reading, restricted to the last five minutes.
// Equal timestamps resolve deterministically to the higher reading id.
func (r *Repository) CurrentReadings(ctx context.Context) ([]telemetry.Reading, error) {
	return r.db.LatestPerStation(ctx, r.clock.Now().Add(-currentWindow))
}

// AverageReading computes per-metric arithmetic means for the station over
// the trailing hour and the trailing 24 hours. An empty window yields all
// zeros with a zero sample count; callers must not read that as a true zero
// measurement.
func (r *Repository) AverageReading(ctx context.Context, token string) (*telemetry.AverageReading, error) {
	station, err := r.db.GetStation(ctx, token)
	if err != nil {
		return nil, err
	}

	now := r.clock.Now()
	hourReadings, err := r.db.StationReadingsSince(ctx, station.ID, now.Add(-hourWindow))
	if err != nil {
		return nil, err
	}
	dayReadings, err := r.db.StationReadingsSince(ctx, station.ID, now.Add(-dayWindow))
	if err != nil {
		return nil, err
	}

	return &telemetry.AverageReading{
		Hour: windowAverage(hourReadings),
		Day:  windowAverage(dayReadings),
	}, nil
}

// windowAverage reduces one window of readings to per-metric means. The
// zero-sample case returns the zero value by explicit policy rather than NaN.
func windowAverage(readings []telemetry.Reading) telemetry.WindowAverage {
	avg := telemetry.WindowAverage{Samples: len(readings)}
	if len(readings) == 0 {
		return avg
	}

	n := len(readings)
	temperature := make([]float64, n)
	humidity := make([]float64, n)
	pm10 := make([]float64, n)
	pm25 := make([]float64, n)
	co2 := make([]float64, n)
	voc := make([]float64, n)
	for i, reading := range readings {
		temperature[i] = reading.Temperature
		humidity[i] = reading.Humidity
		pm10[i] = reading.PM10
		pm25[i] = reading.PM25
		co2[i] = reading.CO2
		voc[i] = reading.VOC
	}

	avg.Temperature = stat.Mean(temperature, nil)
	avg.Humidity = stat.Mean(humidity, nil)
	avg.PM10 = stat.Mean(pm10, nil)
	avg.PM25 = stat.Mean(pm25, nil)
	avg.CO2 = stat.Mean(co2, nil)
	avg.VOC = stat.Mean(voc, nil)
	return avg
}
