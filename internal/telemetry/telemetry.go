// Package telemetry defines the domain entities for environmental telemetry:
// stations, locations and readings, plus the derived average-reading view.
// It carries no storage concerns; row mapping lives in internal/db.
package telemetry

import (
	"time"

	"github.com/google/uuid"
)

// Station is a registered sensor device. It is identified externally by its
// caller-chosen Token; the numeric ID is a store-assigned surrogate and never
// appears in lookups. UID is generated once at registration and never
// reassigned.
type Station struct {
	ID         int64     `json:"id"`
	UID        string    `json:"uid"`
	Token      string    `json:"token"`
	HWVersion  int       `json:"hw_version"`
	SWVersion  int       `json:"sw_version"`
	LocationID *int64    `json:"location_id"`
	Location   *Location `json:"location,omitempty"`
	LastOnline time.Time `json:"last_online"`
}

// NewStation builds an unregistered station with a fresh UID and version
// defaults matching first-generation hardware.
func NewStation(token string, hwVersion, swVersion int) *Station {
	if hwVersion == 0 {
		hwVersion = 1
	}
	if swVersion == 0 {
		swVersion = 1
	}
	return &Station{
		UID:       uuid.New().String(),
		Token:     token,
		HWVersion: hwVersion,
		SWVersion: swVersion,
	}
}

// StationUpdate is a partial update: nil fields are left unchanged.
type StationUpdate struct {
	HWVersion  *int       `json:"hw_version"`
	SWVersion  *int       `json:"sw_version"`
	LastOnline *time.Time `json:"last_online"`
}

// Apply copies the non-nil fields of the update onto the station.
func (u StationUpdate) Apply(s *Station) {
	if u.HWVersion != nil {
		s.HWVersion = *u.HWVersion
	}
	if u.SWVersion != nil {
		s.SWVersion = *u.SWVersion
	}
	if u.LastOnline != nil {
		s.LastOnline = *u.LastOnline
	}
}

// Location is a physical address record. StationToken records which station
// requested it but is deliberately not a foreign key: stations re-point to new
// locations and old rows stay behind, addressable only by id.
type Location struct {
	ID           int64   `json:"id"`
	StationToken string  `json:"station_token"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Country      string  `json:"country"`
	Province     string  `json:"province"`
	City         string  `json:"city"`
	Street       string  `json:"street"`
	Number       string  `json:"number"`
}

// Metrics holds one sample of the six measured quantities.
type Metrics struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	PM10        float64 `json:"pm10"`
	PM25        float64 `json:"pm25"`
	CO2         float64 `json:"co2"`
	VOC         float64 `json:"voc"`
}

// Reading is one immutable timestamped sample. LocationID snapshots the
// owning station's location at ingestion time and is unaffected by later
// re-linking.
type Reading struct {
	ID         int64     `json:"id"`
	StationID  int64     `json:"station_id"`
	LocationID *int64    `json:"location_id"`
	RecordedAt time.Time `json:"recorded_at"`
	Metrics
}

// WindowAverage is the per-metric arithmetic mean over one query window.
// Samples is the number of readings the mean was computed from; a window with
// zero samples reports all-zero metrics, which is not the same thing as a
// window of true zero readings.
type WindowAverage struct {
	Metrics
	Samples int `json:"samples"`
}

// AverageReading is a derived, never-persisted view: means over the trailing
// one-hour and 24-hour windows for a single station.
type AverageReading struct {
	Hour WindowAverage `json:"hour"`
	Day  WindowAverage `json:"day"`
}
