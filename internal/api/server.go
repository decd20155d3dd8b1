// Package api is the HTTP boundary: route binding, request DTO parsing and
// the mapping of domain results and error kinds onto transport responses.
// All domain decisions live below it, in the repository.
package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/auspex-data/auspex/internal/httputil"
	"github.com/auspex-data/auspex/internal/monitoring"
	"github.com/auspex-data/auspex/internal/service"
	"github.com/auspex-data/auspex/internal/telemetry"
)

// ANSI escape codes for request logging
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	stations *service.StationService
	readings *service.ReadingService
}

func NewServer(stations *service.StationService, readings *service.ReadingService) *Server {
	return &Server{
		stations: stations,
		readings: readings,
	}
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("PUT /api/stations/{token}", s.registerStation)
	mux.HandleFunc("GET /api/stations/active", s.listActiveStations)
	mux.HandleFunc("GET /api/stations/{token}", s.showStation)
	mux.HandleFunc("POST /api/stations/{token}/update", s.updateStation)
	mux.HandleFunc("POST /api/stations/{token}/location", s.updateStationLocation)
	mux.HandleFunc("GET /api/locations/{id}", s.showLocation)

	mux.HandleFunc("POST /api/stations/{token}/readings", s.ingestReading)
	mux.HandleFunc("GET /api/stations/{token}/readings", s.listStationReadings)
	mux.HandleFunc("GET /api/stations/{token}/readings/latest", s.showLatestReading)
	mux.HandleFunc("GET /api/stations/{token}/readings/average", s.showAverageReading)
	mux.HandleFunc("GET /api/readings/recent", s.listRecentReadings)
	mux.HandleFunc("GET /api/readings/now", s.listCurrentReadings)

	mux.HandleFunc("GET /charts/readings", s.showReadingsChart)

	return mux
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	default:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	}
}

// LoggingMiddleware logs method, path, status, and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

// writeDomainError maps the repository's error kinds onto transport status
// codes. NotFound and NoData are expected conditions; everything else is an
// operational storage failure.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, telemetry.ErrNotFound):
		httputil.NotFound(w, err.Error())
	case errors.Is(err, telemetry.ErrNoData):
		httputil.NotFound(w, err.Error())
	case errors.Is(err, telemetry.ErrConflict):
		httputil.Conflict(w, err.Error())
	default:
		monitoring.Logf("storage failure: %v", err)
		httputil.InternalServerError(w, "storage failure")
	}
}
