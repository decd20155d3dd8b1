package service

import (
	"context"
	"time"

	"github.com/auspex-data/auspex/internal/db"
	"github.com/auspex-data/auspex/internal/telemetry"
)

// ReadingService covers ingestion and the time-series query use cases.
type ReadingService struct {
	repo *db.Repository
}

func NewReadingService(repo *db.Repository) *ReadingService {
	return &ReadingService{repo: repo}
}

// Ingest records one sample for the station. recordedAt nil means "now".
func (s *ReadingService) Ingest(ctx context.Context, token string, recordedAt *time.Time, metrics telemetry.Metrics) (int64, error) {
	return s.repo.IngestReading(ctx, token, recordedAt, metrics)
}

// Latest returns the station's most recent reading.
func (s *ReadingService) Latest(ctx context.Context, token string) (*telemetry.Reading, error) {
	return s.repo.LatestReading(ctx, token)
}

// LatestN returns up to count most recent readings, newest first.
func (s *ReadingService) LatestN(ctx context.Context, token string, count int) ([]telemetry.Reading, error) {
	return s.repo.LatestReadings(ctx, token, count)
}

// Between returns the station's readings in the inclusive [start, end] range.
func (s *ReadingService) Between(ctx context.Context, token string, start, end time.Time) ([]telemetry.Reading, error) {
	return s.repo.ReadingsBetween(ctx, token, start, end)
}

// Average returns the station's per-metric means over the trailing hour and
// day windows.
func (s *ReadingService) Average(ctx context.Context, token string) (*telemetry.AverageReading, error) {
	return s.repo.AverageReading(ctx, token)
}

// PastHours returns every reading across all stations from the last hours
// hours.
func (s *ReadingService) PastHours(ctx context.Context, hours int) ([]telemetry.Reading, error) {
	return s.repo.RecentReadings(ctx, hours)
}

// Current returns each station's single most recent reading from the last
// five minutes.
func (s *ReadingService) Current(ctx context.Context) ([]telemetry.Reading, error) {
	return s.repo.CurrentReadings(ctx)
}
