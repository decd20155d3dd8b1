package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/auspex-data/auspex/internal/httputil"
	"github.com/auspex-data/auspex/internal/telemetry"
)

// defaultLatestCount bounds GET readings when the caller gives no count.
const defaultLatestCount = 10

type addReadingRequest struct {
	RecordedAt  *int64  `json:"recorded_at"` // unix seconds; nil means "now"
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	PM10        float64 `json:"pm10"`
	PM25        float64 `json:"pm25"`
	CO2         float64 `json:"co2"`
	VOC         float64 `json:"voc"`
}

func (s *Server) ingestReading(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")

	var req addReadingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, "invalid request body")
		return
	}

	var recordedAt *time.Time
	if req.RecordedAt != nil {
		t := time.Unix(*req.RecordedAt, 0)
		recordedAt = &t
	}

	metrics := telemetry.Metrics{
		Temperature: req.Temperature,
		Humidity:    req.Humidity,
		PM10:        req.PM10,
		PM25:        req.PM25,
		CO2:         req.CO2,
		VOC:         req.VOC,
	}

	id, err := s.readings.Ingest(r.Context(), token, recordedAt, metrics)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httputil.WriteJSONCreated(w, map[string]int64{"id": id})
}

// listStationReadings serves both range and latest-n queries: with start and
// end it returns the inclusive range, otherwise the count most recent
// readings.
func (s *Server) listStationReadings(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	q := r.URL.Query()

	if q.Has("start") || q.Has("end") {
		start, err := unixParam(q.Get("start"))
		if err != nil {
			httputil.BadRequest(w, "invalid 'start' parameter")
			return
		}
		end, err := unixParam(q.Get("end"))
		if err != nil {
			httputil.BadRequest(w, "invalid 'end' parameter")
			return
		}

		readings, err := s.readings.Between(r.Context(), token, start, end)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeReadings(w, readings)
		return
	}

	count := defaultLatestCount
	if c := q.Get("count"); c != "" {
		parsed, err := strconv.Atoi(c)
		if err != nil || parsed < 1 {
			httputil.BadRequest(w, "invalid 'count' parameter")
			return
		}
		count = parsed
	}

	readings, err := s.readings.LatestN(r.Context(), token, count)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeReadings(w, readings)
}

func (s *Server) showLatestReading(w http.ResponseWriter, r *http.Request) {
	reading, err := s.readings.Latest(r.Context(), r.PathValue("token"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httputil.WriteJSONOK(w, reading)
}

func (s *Server) showAverageReading(w http.ResponseWriter, r *http.Request) {
	avg, err := s.readings.Average(r.Context(), r.PathValue("token"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httputil.WriteJSONOK(w, avg)
}

func (s *Server) listRecentReadings(w http.ResponseWriter, r *http.Request) {
	hours := 1
	if h := r.URL.Query().Get("hours"); h != "" {
		parsed, err := strconv.Atoi(h)
		if err != nil || parsed < 1 {
			httputil.BadRequest(w, "invalid 'hours' parameter")
			return
		}
		hours = parsed
	}

	readings, err := s.readings.PastHours(r.Context(), hours)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeReadings(w, readings)
}

func (s *Server) listCurrentReadings(w http.ResponseWriter, r *http.Request) {
	readings, err := s.readings.Current(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeReadings(w, readings)
}

// writeReadings always renders a JSON array, never null, so "no readings" is
// an empty list on the wire.
func writeReadings(w http.ResponseWriter, readings []telemetry.Reading) {
	if readings == nil {
		readings = []telemetry.Reading{}
	}
	httputil.WriteJSONOK(w, readings)
}

func unixParam(v string) (time.Time, error) {
	sec, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(sec, 0), nil
}
