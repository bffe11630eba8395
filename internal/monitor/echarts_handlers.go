package monitor

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/ooju-data/videosync/internal/httputil"
)

const echartsAssetsPrefix = "https://go-echarts.github.io/go-echarts-assets/assets/"

// handleWeightChart renders a line chart (HTML) of interpolation
// weights over the frame sequence using go-echarts.
// This is a debugging-only endpoint to eyeball alignment quality
// without exporting data.
// Query params:
//   - run_id (required)
func (ws *WebServer) handleWeightChart(w http.ResponseWriter, r *http.Request) {
	runID := r.URL.Query().Get("run_id")
	if runID == "" {
		httputil.BadRequest(w, "missing 'run_id' parameter")
		return
	}
	if ws.db == nil {
		httputil.InternalServerError(w, "no database configured")
		return
	}

	matches, err := ws.loadMatches(runID)
	if err != nil {
		httputil.NotFound(w, fmt.Sprintf("get matches: %v", err))
		return
	}
	if len(matches) == 0 {
		httputil.NotFound(w, "no matches found for run")
		return
	}

	frames := make([]string, 0, len(matches))
	weights := make([]opts.LineData, 0, len(matches))
	gapped := make([]opts.LineData, 0, len(matches))
	for i, m := range matches {
		frames = append(frames, fmt.Sprintf("%d", i))
		weights = append(weights, opts.LineData{Value: m.Weight})
		if m.Gapped {
			gapped = append(gapped, opts.LineData{Value: m.Weight})
		} else {
			gapped = append(gapped, opts.LineData{Value: nil})
		}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Sync Weights", Theme: "dark", Width: "1400px", Height: "600px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Interpolation Weight per Frame", Subtitle: fmt.Sprintf("run=%s frames=%d", runID, len(matches))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Frame"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Weight", Min: 0, Max: 1}),
	)
	line.SetXAxis(frames).
		AddSeries("weight", weights).
		AddSeries("gapped", gapped, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true)}))

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	httputil.WriteHTML(w, buf.Bytes())
}

// handleIntervalChart renders a line chart (HTML) of bracket intervals
// over the frame sequence. Wide intervals reveal motion recording
// pauses that the gap threshold should be catching.
// Query params:
//   - run_id (required)
func (ws *WebServer) handleIntervalChart(w http.ResponseWriter, r *http.Request) {
	runID := r.URL.Query().Get("run_id")
	if runID == "" {
		httputil.BadRequest(w, "missing 'run_id' parameter")
		return
	}
	if ws.db == nil {
		httputil.InternalServerError(w, "no database configured")
		return
	}

	matches, err := ws.loadMatches(runID)
	if err != nil {
		httputil.NotFound(w, fmt.Sprintf("get matches: %v", err))
		return
	}
	if len(matches) == 0 {
		httputil.NotFound(w, "no matches found for run")
		return
	}

	frames := make([]string, 0, len(matches))
	intervals := make([]opts.LineData, 0, len(matches))
	maxInterval := 0.0
	for i, m := range matches {
		frames = append(frames, fmt.Sprintf("%d", i))
		if m.Prev == nil || m.Next == nil {
			intervals = append(intervals, opts.LineData{Value: nil})
			continue
		}
		interval := m.Next.Timestamp - m.Prev.Timestamp
		if interval > maxInterval {
			maxInterval = interval
		}
		intervals = append(intervals, opts.LineData{Value: interval})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Sync Intervals", Theme: "dark", Width: "1400px", Height: "600px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Bracket Interval per Frame", Subtitle: fmt.Sprintf("run=%s max=%.3fs", runID, maxInterval)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Frame"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Interval (s)"}),
	)
	line.SetXAxis(frames).AddSeries("interval", intervals)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	httputil.WriteHTML(w, buf.Bytes())
}
