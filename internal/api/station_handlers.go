package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/auspex-data/auspex/internal/httputil"
	"github.com/auspex-data/auspex/internal/telemetry"
)

// locationRequest carries the address fields for station registration and
// location updates. The station token comes from the URL, never the body.
type locationRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Country   string  `json:"country"`
	Province  string  `json:"province"`
	City      string  `json:"city"`
	Street    string  `json:"street"`
	Number    string  `json:"number"`
}

func (lr *locationRequest) toLocation(token string) *telemetry.Location {
	return &telemetry.Location{
		StationToken: token,
		Latitude:     lr.Latitude,
		Longitude:    lr.Longitude,
		Country:      lr.Country,
		Province:     lr.Province,
		City:         lr.City,
		Street:       lr.Street,
		Number:       lr.Number,
	}
}

type registerStationRequest struct {
	HWVersion int              `json:"hw_version"`
	SWVersion int              `json:"sw_version"`
	Location  *locationRequest `json:"location"`
}

type updateStationRequest struct {
	HWVersion  *int   `json:"hw_version"`
	SWVersion  *int   `json:"sw_version"`
	LastOnline *int64 `json:"last_online"` // unix seconds
}

// stationResponse pairs a station with its most recent reading, absent when
// the station has none yet.
type stationResponse struct {
	Station     *telemetry.Station `json:"station"`
	LastReading *telemetry.Reading `json:"last_reading"`
}

func (s *Server) registerStation(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")

	var req registerStationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, "invalid request body")
		return
	}

	var loc *telemetry.Location
	if req.Location != nil {
		loc = req.Location.toLocation(token)
	}

	id, err := s.stations.Register(r.Context(), token, req.HWVersion, req.SWVersion, loc)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httputil.WriteJSONCreated(w, map[string]int64{"id": id})
}

func (s *Server) showStation(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")

	station, err := s.stations.Get(r.Context(), token)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httputil.WriteJSONOK(w, s.stationResponse(r, station))
}

func (s *Server) listActiveStations(w http.ResponseWriter, r *http.Request) {
	stations, err := s.stations.Active(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	responses := make([]stationResponse, 0, len(stations))
	for i := range stations {
		responses = append(responses, s.stationResponse(r, &stations[i]))
	}
	httputil.WriteJSONOK(w, responses)
}

// stationResponse embeds the station's latest reading, best-effort: a station
// with no readings simply has none to show.
func (s *Server) stationResponse(r *http.Request, station *telemetry.Station) stationResponse {
	resp := stationResponse{Station: station}
	if reading, err := s.readings.Latest(r.Context(), station.Token); err == nil {
		resp.LastReading = reading
	}
	return resp
}

func (s *Server) updateStation(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")

	var req updateStationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, "invalid request body")
		return
	}

	update := telemetry.StationUpdate{
		HWVersion: req.HWVersion,
		SWVersion: req.SWVersion,
	}
	if req.LastOnline != nil {
		t := time.Unix(*req.LastOnline, 0)
		update.LastOnline = &t
	}

	if err := s.stations.Update(r.Context(), token, update); err != nil {
		writeDomainError(w, err)
		return
	}
	httputil.WriteJSONOK(w, map[string]string{"status": "updated"})
}

func (s *Server) updateStationLocation(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")

	var req locationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, "invalid request body")
		return
	}

	if err := s.stations.UpdateLocation(r.Context(), req.toLocation(token)); err != nil {
		writeDomainError(w, err)
		return
	}
	httputil.WriteJSONOK(w, map[string]string{"status": "updated"})
}

func (s *Server) showLocation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		httputil.BadRequest(w, "invalid location id")
		return
	}

	loc, err := s.stations.GetLocation(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httputil.WriteJSONOK(w, loc)
}
