package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/auspex-data/auspex/internal/httputil"
)

// showReadingsChart renders an HTML line chart of a station's recent metrics.
// Operator-facing convenience over the same repository queries the JSON API
// uses. Query params: token (required), hours (optional, default 24).
func (s *Server) showReadingsChart(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		httputil.BadRequest(w, "missing 'token' parameter")
		return
	}

	hours := 24
	if h := r.URL.Query().Get("hours"); h != "" {
		parsed, err := strconv.Atoi(h)
		if err != nil || parsed < 1 {
			httputil.BadRequest(w, "invalid 'hours' parameter")
			return
		}
		hours = parsed
	}

	end := time.Now()
	start := end.Add(-time.Duration(hours) * time.Hour)
	readings, err := s.readings.Between(r.Context(), token, start, end)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "720px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Station %s", token),
			Subtitle: fmt.Sprintf("last %dh, %d readings", hours, len(readings)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)

	x := make([]string, len(readings))
	series := map[string][]opts.LineData{
		"temperature": make([]opts.LineData, len(readings)),
		"humidity":    make([]opts.LineData, len(readings)),
		"pm10":        make([]opts.LineData, len(readings)),
		"pm25":        make([]opts.LineData, len(readings)),
		"co2":         make([]opts.LineData, len(readings)),
		"voc":         make([]opts.LineData, len(readings)),
	}
	for i, reading := range readings {
		x[i] = reading.RecordedAt.Format("15:04")
		series["temperature"][i] = opts.LineData{Value: reading.Temperature}
		series["humidity"][i] = opts.LineData{Value: reading.Humidity}
		series["pm10"][i] = opts.LineData{Value: reading.PM10}
		series["pm25"][i] = opts.LineData{Value: reading.PM25}
		series["co2"][i] = opts.LineData{Value: reading.CO2}
		series["voc"][i] = opts.LineData{Value: reading.VOC}
	}

	line.SetXAxis(x)
	for _, name := range []string{"temperature", "humidity", "pm10", "pm25", "co2", "voc"} {
		line.AddSeries(name, series[name])
	}

	page := components.NewPage()
	page.AddCharts(line)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("render error: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
