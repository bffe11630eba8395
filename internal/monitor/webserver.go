package monitor

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/ooju-data/videosync/internal/httputil"
	"github.com/ooju-data/videosync/internal/motion"
	"github.com/ooju-data/videosync/internal/pipeline"
	"github.com/ooju-data/videosync/internal/projection"
	"github.com/ooju-data/videosync/internal/session"
)

//go:embed status.html
var StatusHTML embed.FS

// WebServer handles the HTTP interface for inspecting sync runs.
// It provides endpoints for health checks, run summaries, synced pose
// queries, calibration adjustment, and debug charts.
type WebServer struct {
	address     string
	db          *session.DB
	projector   *projection.Projector
	sessionPath string
	server      *http.Server
	started     time.Time
}

// WebServerConfig contains configuration options for the web server
type WebServerConfig struct {
	Address     string
	DB          *session.DB
	Projector   *projection.Projector
	SessionPath string
}

// NewWebServer creates a new web server with the provided configuration
func NewWebServer(config WebServerConfig) *WebServer {
	ws := &WebServer{
		address:     config.Address,
		db:          config.DB,
		projector:   config.Projector,
		sessionPath: config.SessionPath,
		started:     time.Now(),
	}

	ws.server = &http.Server{
		Addr:    ws.address,
		Handler: ws.setupRoutes(),
	}

	return ws
}

// Start begins the HTTP server in a goroutine and handles graceful shutdown
func (ws *WebServer) Start(ctx context.Context) error {
	// Start server in a goroutine so it doesn't block
	go func() {
		log.Printf("Starting HTTP server on %s", ws.address)
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	// Wait for context cancellation to shut down server
	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		// Force close the server if graceful shutdown fails
		if err := ws.server.Close(); err != nil {
			log.Printf("HTTP server force close error: %v", err)
		}
	}

	log.Printf("HTTP server routine stopped")
	return nil
}

// setupRoutes configures the HTTP routes and handlers
func (ws *WebServer) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", ws.handleHealth)
	mux.HandleFunc("/", ws.handleStatus)
	mux.HandleFunc("/api/runs", ws.handleRuns)
	mux.HandleFunc("/api/run", ws.handleRun)
	mux.HandleFunc("/api/report", ws.handleReport)
	mux.HandleFunc("/api/poses", ws.handlePoses)
	mux.HandleFunc("/api/calibration", ws.handleCalibration)
	mux.HandleFunc("/charts/weights", ws.handleWeightChart)
	mux.HandleFunc("/charts/intervals", ws.handleIntervalChart)

	return mux
}

// handleHealth handles the health check endpoint
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status": "ok", "service": "videosync", "timestamp": "%s"}`, time.Now().UTC().Format(time.RFC3339))
}

// handleStatus handles the main status page endpoint
func (ws *WebServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html")

	var runs []*session.Run
	if ws.db != nil {
		var err error
		runs, err = ws.db.ListRuns(10)
		if err != nil {
			log.Printf("status page: list runs: %v", err)
		}
	}

	calibration := "none"
	if ws.projector != nil {
		c := ws.projector.Calibration()
		calibration = fmt.Sprintf("fov=%.1f° offset=(%.3f, %.3f, %.3f)",
			c.FOVDeg, c.OffsetPos.X, c.OffsetPos.Y, c.OffsetPos.Z)
	}

	tmpl, err := template.ParseFS(StatusHTML, "status.html")
	if err != nil {
		http.Error(w, "Error loading template: "+err.Error(), http.StatusInternalServerError)
		return
	}

	data := struct {
		HTTPAddress string
		SessionPath string
		Calibration string
		Uptime      string
		Runs        []*session.Run
	}{
		HTTPAddress: ws.address,
		SessionPath: ws.sessionPath,
		Calibration: calibration,
		Uptime:      time.Since(ws.started).Round(time.Second).String(),
		Runs:        runs,
	}

	if err := tmpl.Execute(w, data); err != nil {
		http.Error(w, "Error executing template: "+err.Error(), http.StatusInternalServerError)
		return
	}
}

// handleRuns returns a JSON array of recent sync runs.
// Query params:
//
//	limit (optional, default 10)
func (ws *WebServer) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if ws.db == nil {
		httputil.InternalServerError(w, "no database configured")
		return
	}
	limit := 10
	if l := r.URL.Query().Get("limit"); l != "" {
		fmt.Sscanf(l, "%d", &limit)
		if limit <= 0 || limit > 100 {
			limit = 10
		}
	}

	runs, err := ws.db.ListRuns(limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("list runs: %v", err))
		return
	}

	type RunSummary struct {
		RunID         string  `json:"run_id"`
		SessionPath   string  `json:"session_path"`
		OffsetSeconds float64 `json:"offset_seconds"`
		GapThreshold  float64 `json:"gap_threshold"`
		FrameCount    int     `json:"frame_count"`
		GappedCount   int     `json:"gapped_count"`
		Created       string  `json:"created"`
	}
	summaries := make([]RunSummary, 0, len(runs))
	for _, run := range runs {
		summaries = append(summaries, RunSummary{
			RunID:         run.ID,
			SessionPath:   run.SessionPath,
			OffsetSeconds: run.OffsetSeconds,
			GapThreshold:  run.GapThreshold,
			FrameCount:    run.FrameCount,
			GappedCount:   run.GappedCount,
			Created:       run.CreatedAt.Format(time.RFC3339Nano),
		})
	}
	httputil.WriteJSONOK(w, summaries)
}

// handleRun returns a JSON summary for one sync run.
// Query params:
//
//	run_id (required)
func (ws *WebServer) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	runID := r.URL.Query().Get("run_id")
	if runID == "" {
		httputil.BadRequest(w, "missing 'run_id' parameter")
		return
	}
	if ws.db == nil {
		httputil.InternalServerError(w, "no database configured")
		return
	}

	run, err := ws.db.GetRun(runID)
	if err != nil {
		httputil.NotFound(w, fmt.Sprintf("get run: %v", err))
		return
	}

	summary := map[string]interface{}{
		"run_id":         run.ID,
		"session_path":   run.SessionPath,
		"offset_seconds": run.OffsetSeconds,
		"gap_threshold":  run.GapThreshold,
		"frame_count":    run.FrameCount,
		"gapped_count":   run.GappedCount,
		"created":        run.CreatedAt.Format(time.RFC3339Nano),
	}
	httputil.WriteJSONOK(w, summary)
}

// handleReport recomputes alignment statistics from a run's stored
// matches and returns them as JSON.
// Query params:
//
//	run_id (required)
func (ws *WebServer) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
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

	httputil.WriteJSONOK(w, pipeline.BuildReport(matches))
}

// loadMatches fetches a run's stored matches in their in-memory form.
func (ws *WebServer) loadMatches(runID string) ([]motion.FrameMatch, error) {
	stored, err := ws.db.GetMatches(runID, 0)
	if err != nil {
		return nil, err
	}

	matches := make([]motion.FrameMatch, 0, len(stored))
	for _, sm := range stored {
		matches = append(matches, sm.FrameMatch())
	}
	return matches, nil
}

// handlePoses returns synced poses for a run within a frame range.
// Query params:
//
//	run_id (required)
//	start (optional, default 0)
//	end (optional, default unbounded)
func (ws *WebServer) handlePoses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	runID := r.URL.Query().Get("run_id")
	if runID == "" {
		httputil.BadRequest(w, "missing 'run_id' parameter")
		return
	}
	if ws.db == nil {
		httputil.InternalServerError(w, "no database configured")
		return
	}

	start := 0
	if v := r.URL.Query().Get("start"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			start = parsed
		}
	}
	end := -1
	if v := r.URL.Query().Get("end"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			end = parsed
		}
	}

	poses, err := ws.db.GetSyncedPoses(runID, start, end)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("get poses: %v", err))
		return
	}

	type PoseOut struct {
		FrameIndex int         `json:"frame_index"`
		AlignedTS  float64     `json:"aligned_ts"`
		Hand       [7]float64  `json:"hand"`
		Camera     *[7]float64 `json:"camera,omitempty"`
	}
	out := make([]PoseOut, 0, len(poses))
	for _, p := range poses {
		po := PoseOut{FrameIndex: p.FrameIndex, AlignedTS: p.AlignedTS, Hand: poseArray(p.Hand)}
		if p.Camera != nil {
			arr := poseArray(*p.Camera)
			po.Camera = &arr
		}
		out = append(out, po)
	}
	httputil.WriteJSONOK(w, out)
}

func poseArray(p motion.Pose) [7]float64 {
	return [7]float64{
		p.Position.X, p.Position.Y, p.Position.Z,
		p.Rotation.Imag, p.Rotation.Jmag, p.Rotation.Kmag, p.Rotation.Real,
	}
}

// handleCalibration reads or updates the projector calibration.
// GET returns the current calibration; POST accepts a calibration JSON
// body and applies it to the live projector.
func (ws *WebServer) handleCalibration(w http.ResponseWriter, r *http.Request) {
	if ws.projector == nil {
		httputil.NotFound(w, "no projector configured")
		return
	}

	switch r.Method {
	case http.MethodGet:
		c := ws.projector.Calibration()
		out := map[string]interface{}{
			"offset_pos":       [3]float64{c.OffsetPos.X, c.OffsetPos.Y, c.OffsetPos.Z},
			"offset_rot_euler": c.OffsetRotEuler,
			"fov":              c.FOVDeg,
		}
		httputil.WriteJSONOK(w, out)

	case http.MethodPost:
		var in struct {
			OffsetPos      [3]float64 `json:"offset_pos"`
			OffsetRotEuler [3]float64 `json:"offset_rot_euler"`
			FOV            float64    `json:"fov"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			httputil.BadRequest(w, fmt.Sprintf("decode calibration: %v", err))
			return
		}
		if in.FOV <= 0 || in.FOV >= 180 {
			httputil.BadRequest(w, "fov must be in (0, 180)")
			return
		}

		c := projection.Calibration{
			OffsetRotEuler: in.OffsetRotEuler,
			FOVDeg:         in.FOV,
		}
		c.OffsetPos.X, c.OffsetPos.Y, c.OffsetPos.Z = in.OffsetPos[0], in.OffsetPos[1], in.OffsetPos[2]
		ws.projector.SetCalibration(c)
		log.Printf("calibration updated via API: fov=%.1f", in.FOV)

		httputil.WriteJSONOK(w, map[string]string{"status": "ok"})

	default:
		httputil.MethodNotAllowed(w)
	}
}

// Close shuts down the web server
func (ws *WebServer) Close() error {
	if ws.server != nil {
		return ws.server.Close()
	}
	return nil
}
