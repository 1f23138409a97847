// Package monitor renders trajectory visualisations for fusion runs: an
// HTML dashboard of per-rover and fused ECEF coordinates over time, plus
// PNG exports of the same panels.
package monitor

import (
	"fmt"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/gnss-data/gnssfuse/internal/db"
	"github.com/gnss-data/gnssfuse/internal/pos"
)

// WebServer serves the trajectory charts for stored runs.
type WebServer struct {
	db *db.DB
}

func NewWebServer(database *db.DB) *WebServer {
	return &WebServer{db: database}
}

// ServeMux returns the monitor routes.
func (ws *WebServer) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /trajectory", ws.handleTrajectory)
	mux.HandleFunc("GET /trajectory.png", ws.handleTrajectoryPNG)
	return mux
}

// axisValue extracts one ECEF coordinate from a record.
func axisValue(rec pos.PositionRecord, axis string) float64 {
	switch axis {
	case "y":
		return rec.Y
	case "z":
		return rec.Z
	default:
		return rec.X
	}
}

// runSeries loads every rover series and the fused series for a run.
func (ws *WebServer) runSeries(runID string) (map[string][]pos.PositionRecord, []pos.PositionRecord, error) {
	names, err := ws.db.RoverNames(runID)
	if err != nil {
		return nil, nil, err
	}
	if len(names) == 0 {
		return nil, nil, fmt.Errorf("no rovers stored for run %s", runID)
	}

	rovers := make(map[string][]pos.PositionRecord, len(names))
	for _, name := range names {
		recs, err := ws.db.RoverRecords(runID, name)
		if err != nil {
			return nil, nil, err
		}
		rovers[name] = recs
	}

	fused, err := ws.db.FusedRecords(runID)
	if err != nil {
		return nil, nil, err
	}
	fusedPositions := make([]pos.PositionRecord, len(fused))
	for i, rec := range fused {
		fusedPositions[i] = rec.PositionRecord
	}
	return rovers, fusedPositions, nil
}

// handleTrajectory renders an HTML page with one line chart per ECEF axis,
// overlaying every rover's series and the fused trajectory.
// Query params: run (required).
func (ws *WebServer) handleTrajectory(w http.ResponseWriter, r *http.Request) {
	runID := r.URL.Query().Get("run")
	if runID == "" {
		http.Error(w, "missing run query parameter", http.StatusBadRequest)
		return
	}

	rovers, fused, err := ws.runSeries(runID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	page := components.NewPage()
	page.SetPageTitle("Fused Trajectory " + runID)
	for _, axis := range []string{"x", "y", "z"} {
		page.AddCharts(axisChart(axis, rovers, fused))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Render(w); err != nil {
		http.Error(w, fmt.Sprintf("failed to render charts: %v", err), http.StatusInternalServerError)
	}
}

func axisChart(axis string, rovers map[string][]pos.PositionRecord, fused []pos.PositionRecord) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("%s-ecef(m) over time", axis)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	labels := make([]string, len(fused))
	for i, rec := range fused {
		labels[i] = rec.Time.Format("15:04:05")
	}
	line.SetXAxis(labels)

	for name, recs := range rovers {
		data := make([]opts.LineData, len(recs))
		for i, rec := range recs {
			data[i] = opts.LineData{Value: axisValue(rec, axis)}
		}
		line.AddSeries(name, data)
	}

	fusedData := make([]opts.LineData, len(fused))
	for i, rec := range fused {
		fusedData[i] = opts.LineData{Value: axisValue(rec, axis)}
	}
	line.AddSeries("Fused", fusedData, charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))

	return line
}

// handleTrajectoryPNG renders one axis as a PNG image.
// Query params: run (required), axis (x|y|z, default x).
func (ws *WebServer) handleTrajectoryPNG(w http.ResponseWriter, r *http.Request) {
	runID := r.URL.Query().Get("run")
	if runID == "" {
		http.Error(w, "missing run query parameter", http.StatusBadRequest)
		return
	}
	axis := r.URL.Query().Get("axis")
	switch axis {
	case "x", "y", "z":
	case "":
		axis = "x"
	default:
		http.Error(w, "axis must be one of x, y, z", http.StatusBadRequest)
		return
	}

	rovers, fused, err := ws.runSeries(runID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if err := RenderAxisPNG(w, axis, rovers, fused); err != nil {
		http.Error(w, fmt.Sprintf("failed to render plot: %v", err), http.StatusInternalServerError)
	}
}
