package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auspex-data/auspex/internal/db"
	"github.com/auspex-data/auspex/internal/telemetry"
	"github.com/auspex-data/auspex/internal/timeutil"
)

var serviceTestBase = time.Unix(1700000000, 0)

func setupServices(t *testing.T) (*StationService, *ReadingService, *timeutil.MockClock) {
	t.Helper()

	store, err := db.NewDB(filepath.Join(t.TempDir(), "telemetry.db"))
	if err != nil {
		t.Fatalf("failed to create test DB: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	clock := timeutil.NewMockClock(serviceTestBase)
	repo := db.NewRepositoryWithClock(store, clock)
	return NewStationService(repo), NewReadingService(repo), clock
}

func TestRegisterGetAndIngestFlow(t *testing.T) {
	stations, readings, clock := setupServices(t)
	ctx := context.Background()

	loc := &telemetry.Location{
		StationToken: "alpha",
		Latitude:     50.06,
		Longitude:    19.94,
		Country:      "Poland",
		City:         "Krakow",
	}
	id, err := stations.Register(ctx, "alpha", 1, 2, loc)
	require.NoError(t, err)
	require.NotZero(t, id)

	station, err := stations.Get(ctx, "alpha")
	require.NoError(t, err)
	require.NotNil(t, station.Location, "Get embeds the station's location")
	assert.Equal(t, "Krakow", station.Location.City)

	clock.Advance(5 * time.Minute)
	_, err = readings.Ingest(ctx, "alpha", nil, telemetry.Metrics{Temperature: 20, CO2: 410})
	require.NoError(t, err)

	latest, err := readings.Latest(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, 20.0, latest.Temperature)
	assert.Equal(t, 410.0, latest.CO2)
	assert.Equal(t, clock.Now().Unix(), latest.RecordedAt.Unix())
}

func TestUpdateLocationReplacesStationLink(t *testing.T) {
	stations, _, _ := setupServices(t)
	ctx := context.Background()

	_, err := stations.Register(ctx, "alpha", 1, 1, &telemetry.Location{City: "Warsaw"})
	require.NoError(t, err)

	err = stations.UpdateLocation(ctx, &telemetry.Location{StationToken: "alpha", City: "Gdansk"})
	require.NoError(t, err)

	station, err := stations.Get(ctx, "alpha")
	require.NoError(t, err)
	require.NotNil(t, station.Location)
	assert.Equal(t, "Gdansk", station.Location.City)

	old, err := stations.GetLocation(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Warsaw", old.City)
}

func TestDomainErrorsPassThrough(t *testing.T) {
	stations, readings, _ := setupServices(t)
	ctx := context.Background()

	_, err := stations.Get(ctx, "ghost")
	assert.True(t, errors.Is(err, telemetry.ErrNotFound))

	_, err = readings.Ingest(ctx, "ghost", nil, telemetry.Metrics{})
	assert.True(t, errors.Is(err, telemetry.ErrNotFound))

	_, err = stations.Register(ctx, "alpha", 1, 1, nil)
	require.NoError(t, err)
	_, err = stations.Register(ctx, "alpha", 1, 1, nil)
	assert.True(t, errors.Is(err, telemetry.ErrConflict))

	_, err = readings.Latest(ctx, "alpha")
	assert.True(t, errors.Is(err, telemetry.ErrNoData))
}

func TestCurrentAndPastHours(t *testing.T) {
	stations, readings, _ := setupServices(t)
	ctx := context.Background()

	_, err := stations.Register(ctx, "alpha", 1, 1, nil)
	require.NoError(t, err)

	recent := serviceTestBase.Add(-2 * time.Minute)
	old := serviceTestBase.Add(-3 * time.Hour)
	_, err = readings.Ingest(ctx, "alpha", &recent, telemetry.Metrics{Temperature: 1})
	require.NoError(t, err)
	_, err = readings.Ingest(ctx, "alpha", &old, telemetry.Metrics{Temperature: 2})
	require.NoError(t, err)

	current, err := readings.Current(ctx)
	require.NoError(t, err)
	require.Len(t, current, 1)
	assert.Equal(t, 1.0, current[0].Temperature)

	past, err := readings.PastHours(ctx, 4)
	require.NoError(t, err)
	assert.Len(t, past, 2)
}
