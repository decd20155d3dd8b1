package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/auspex-data/auspex/internal/telemetry"
	"github.com/auspex-data/auspex/internal/timeutil"
)

// testBase is an arbitrary fixed instant (whole seconds, since the store
// keeps unix-second resolution) that mock clocks in tests start from.
var testBase = time.Unix(1700000000, 0)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewDB(filepath.Join(t.TempDir(), "telemetry.db"))
	if err != nil {
		t.Fatalf("failed to create test DB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// newTestRepo wires a repository over a fresh store with a mock clock pinned
// at testBase.
func newTestRepo(t *testing.T) (*DB, *Repository, *timeutil.MockClock) {
	t.Helper()

	db := setupTestDB(t)
	clock := timeutil.NewMockClock(testBase)
	return db, NewRepositoryWithClock(db, clock), clock
}

func registerTestStation(t *testing.T, repo *Repository, token string) int64 {
	t.Helper()

	id, err := repo.RegisterStation(context.Background(), token, 1, 1, nil)
	if err != nil {
		t.Fatalf("RegisterStation(%q) failed: %v", token, err)
	}
	return id
}

// flatMetrics builds a sample with every metric set to v, which keeps mean
// assertions single-valued.
func flatMetrics(v float64) telemetry.Metrics {
	return telemetry.Metrics{
		Temperature: v,
		Humidity:    v,
		PM10:        v,
		PM25:        v,
		CO2:         v,
		VOC:         v,
	}
}

func ingestTestReadingAt(t *testing.T, repo *Repository, token string, at time.Time, v float64) int64 {
	t.Helper()

	id, err := repo.IngestReading(context.Background(), token, &at, flatMetrics(v))
	if err != nil {
		t.Fatalf("IngestReading(%q) failed: %v", token, err)
	}
	return id
}

func testLocation(token string) *telemetry.Location {
	return &telemetry.Location{
		StationToken: token,
		Latitude:     52.2297,
		Longitude:    21.0122,
		Country:      "Poland",
		Province:     "Mazowieckie",
		City:         "Warsaw",
		Street:       "Nowy Swiat",
		Number:       "15",
	}
}
