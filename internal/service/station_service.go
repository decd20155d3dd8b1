// Package service holds the thin use-case layer between the HTTP boundary
// and the telemetry repository. Services orchestrate repository calls; they
// hold no state and add no storage logic of their own.
package service

import (
	"context"

	"github.com/auspex-data/auspex/internal/db"
	"github.com/auspex-data/auspex/internal/telemetry"
)

// StationService covers station registration and lifecycle use cases.
type StationService struct {
	repo *db.Repository
}

func NewStationService(repo *db.Repository) *StationService {
	return &StationService{repo: repo}
}

// Register registers a station, creating its location first when one is
// supplied, and returns the new station id.
func (s *StationService) Register(ctx context.Context, token string, hwVersion, swVersion int, loc *telemetry.Location) (int64, error) {
	return s.repo.RegisterStation(ctx, token, hwVersion, swVersion, loc)
}

// Get returns the station with its location embedded when it has one.
func (s *StationService) Get(ctx context.Context, token string) (*telemetry.Station, error) {
	return s.repo.GetStation(ctx, token, true)
}

// Active returns the stations seen within the last hour.
func (s *StationService) Active(ctx context.Context) ([]telemetry.Station, error) {
	return s.repo.ActiveStations(ctx)
}

// Update applies a partial update to the station.
func (s *StationService) Update(ctx context.Context, token string, update telemetry.StationUpdate) error {
	return s.repo.UpdateStation(ctx, token, update)
}

// UpdateLocation creates a new location and re-points the station at it. The
// old location, if any, stays retrievable by id.
func (s *StationService) UpdateLocation(ctx context.Context, loc *telemetry.Location) error {
	return s.repo.AttachLocation(ctx, loc)
}

// GetLocation returns the location with the given id.
func (s *StationService) GetLocation(ctx context.Context, id int64) (*telemetry.Location, error) {
	return s.repo.GetLocation(ctx, id)
}
