package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ooju-data/videosync/internal/config"
	"github.com/ooju-data/videosync/internal/monitor"
	"github.com/ooju-data/videosync/internal/motion"
	"github.com/ooju-data/videosync/internal/pipeline"
	"github.com/ooju-data/videosync/internal/projection"
	"github.com/ooju-data/videosync/internal/session"
)

// loadSessionConfig reads the optional config file, falling back to an
// empty config whose getters supply the defaults.
func loadSessionConfig(path string) *config.SessionConfig {
	if path == "" {
		return &config.SessionConfig{}
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	return cfg
}

// setFlags reports which flags were explicitly provided, so they can
// override config file values.
func setFlags(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

// frameTimestamps builds the per-frame timestamp sequence, either from
// a JSON file of timestamps or uniformly from a frame rate.
func frameTimestamps(framesFile string, fps float64, count int, start float64) ([]float64, error) {
	if framesFile != "" {
		data, err := os.ReadFile(framesFile)
		if err != nil {
			return nil, fmt.Errorf("read frames file: %w", err)
		}
		var ts []float64
		if err := json.Unmarshal(data, &ts); err != nil {
			return nil, fmt.Errorf("parse frames file: %w", err)
		}
		if len(ts) == 0 {
			return nil, fmt.Errorf("frames file %s contains no timestamps", framesFile)
		}
		return ts, nil
	}

	if fps <= 0 {
		return nil, fmt.Errorf("either --frames or a positive --fps is required")
	}
	if count <= 0 {
		return nil, fmt.Errorf("--frame-count must be positive when generating timestamps from --fps")
	}
	ts := make([]float64, count)
	for i := range ts {
		ts[i] = start + float64(i)/fps
	}
	return ts, nil
}

func handleSync(args []string) {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	sessionPath := fs.String("session", "", "Motion session directory or file (required)")
	framesFile := fs.String("frames", "", "JSON file with per-frame timestamps")
	fps := fs.Float64("fps", 0, "Video frame rate for uniform timestamps")
	frameCount := fs.Int("frame-count", 0, "Number of video frames when using --fps")
	frameStart := fs.Float64("frame-start", 0, "Timestamp of the first frame when using --fps")
	offset := fs.Float64("offset", 0, "Clock offset added to frame timestamps (seconds)")
	gap := fs.Float64("gap", 0, "Gap threshold in seconds (0 uses config or default)")
	configPath := fs.String("config", "", "Session configuration JSON")
	dbPath := fs.String("db", "", "SQLite database path")
	calibPath := fs.String("calibration", "", "Calibration JSON path")
	workers := fs.Int("workers", 0, "Worker goroutines (0 uses config or NumCPU)")
	axisLen := fs.Float64("axis-len", 0, "Gizmo axis length in meters (0 uses config)")
	plotDir := fs.String("plot-dir", "", "Write alignment plots under this directory")
	fs.Parse(args)

	if *sessionPath == "" {
		fmt.Fprintln(os.Stderr, "Error: --session flag is required")
		fs.Usage()
		os.Exit(1)
	}

	cfg := loadSessionConfig(*configPath)
	set := setFlags(fs)

	effOffset := cfg.GetOffsetSeconds()
	if set["offset"] {
		effOffset = *offset
	}
	effGap := cfg.GetGapThresholdSeconds()
	if set["gap"] {
		effGap = *gap
	}
	effDB := cfg.GetDatabasePath()
	if set["db"] {
		effDB = *dbPath
	}
	effCalib := cfg.GetCalibrationPath()
	if set["calibration"] {
		effCalib = *calibPath
	}
	effWorkers := cfg.GetWorkers()
	if set["workers"] {
		effWorkers = *workers
	}
	effAxisLen := cfg.GetAxisLengthMeters()
	if set["axis-len"] {
		effAxisLen = *axisLen
	}

	track, stats, err := session.LoadTrack(*sessionPath)
	if err != nil {
		log.Fatalf("failed to load motion session: %v", err)
	}
	log.Printf("loaded %d motion samples from %d sources (%d skipped, %d truncated)",
		stats.TotalSamples, stats.SourcesLoaded, stats.SourcesSkipped, stats.SamplesTruncated)

	frameTS, err := frameTimestamps(*framesFile, *fps, *frameCount, *frameStart)
	if err != nil {
		log.Fatalf("failed to build frame timestamps: %v", err)
	}

	projector, err := projection.NewProjectorFromFile(cfg.GetVideoWidth(), cfg.GetVideoHeight(), effCalib)
	if err != nil {
		log.Printf("calibration %s not loaded (%v), using defaults", effCalib, err)
	}

	db, err := session.NewDB(effDB)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt := pipeline.NewRuntime(track, effGap, projector, db)
	runner := pipeline.NewRunner(rt, pipeline.RunnerConfig{Workers: effWorkers, AxisLength: effAxisLen})

	results, err := runner.Run(ctx, frameTS, effOffset)
	if err != nil {
		log.Fatalf("sync failed: %v", err)
	}

	run := session.NewRun(*sessionPath, effOffset, effGap)
	if err := runner.Persist(run, results); err != nil {
		log.Fatalf("failed to persist run: %v", err)
	}

	matches := make([]motion.FrameMatch, len(results))
	for i, res := range results {
		matches[i] = res.Match
	}
	printReport(pipeline.BuildReport(matches))

	if *plotDir != "" {
		writePlots(monitor.MakePlotOutputDir(*plotDir, *sessionPath), run.ID, matches)
	}
}

func handleReport(args []string) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	dbPath := fs.String("db", "videosync.db", "SQLite database path")
	runID := fs.String("run", "", "Run id (default: most recent)")
	fs.Parse(args)

	db, err := session.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	id := resolveRunID(db, *runID)
	matches := loadStoredMatches(db, id)
	fmt.Printf("run %s\n", id)
	printReport(pipeline.BuildReport(matches))
}

func handlePlot(args []string) {
	fs := flag.NewFlagSet("plot", flag.ExitOnError)
	dbPath := fs.String("db", "videosync.db", "SQLite database path")
	runID := fs.String("run", "", "Run id (default: most recent)")
	outDir := fs.String("out", "plots", "Output directory for PNG files")
	fs.Parse(args)

	db, err := session.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	id := resolveRunID(db, *runID)
	run, err := db.GetRun(id)
	if err != nil {
		log.Fatalf("failed to load run: %v", err)
	}
	matches := loadStoredMatches(db, id)
	writePlots(monitor.MakePlotOutputDir(*outDir, run.SessionPath), id, matches)
}

func handleServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	listen := fs.String("listen", ":8080", "HTTP listen address")
	dbPath := fs.String("db", "", "SQLite database path")
	calibPath := fs.String("calibration", "", "Calibration JSON path")
	configPath := fs.String("config", "", "Session configuration JSON")
	sessionPath := fs.String("session", "", "Session path shown on the status page")
	fs.Parse(args)

	cfg := loadSessionConfig(*configPath)
	set := setFlags(fs)

	effDB := cfg.GetDatabasePath()
	if set["db"] {
		effDB = *dbPath
	}
	effCalib := cfg.GetCalibrationPath()
	if set["calibration"] {
		effCalib = *calibPath
	}

	db, err := session.NewDB(effDB)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	projector, err := projection.NewProjectorFromFile(cfg.GetVideoWidth(), cfg.GetVideoHeight(), effCalib)
	if err != nil {
		log.Printf("calibration %s not loaded (%v), using defaults", effCalib, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := monitor.NewWebServer(monitor.WebServerConfig{
		Address:     *listen,
		DB:          db,
		Projector:   projector,
		SessionPath: *sessionPath,
	})
	if err := server.Start(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}

	// Persist calibration changes made through the API
	if effCalib != "" {
		if err := projector.SaveCalibration(effCalib); err != nil {
			log.Printf("failed to save calibration: %v", err)
		}
	}
	log.Printf("Graceful shutdown complete")
}

func handleMigrate(args []string) {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	dbPath := fs.String("db", "videosync.db", "SQLite database path")
	migrationsDir := fs.String("migrations", "migrations", "Directory containing migration files")
	fs.Parse(args)

	db, err := session.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.MigrateUp(*migrationsDir); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
	v, dirty, err := db.MigrateVersion(*migrationsDir)
	if err != nil {
		log.Fatalf("failed to read migration version: %v", err)
	}
	log.Printf("database at schema version %d (dirty=%v)", v, dirty)
}

// resolveRunID returns the given id, or the most recent run's id when
// empty.
func resolveRunID(db *session.DB, runID string) string {
	if runID != "" {
		return runID
	}
	runs, err := db.ListRuns(1)
	if err != nil || len(runs) == 0 {
		log.Fatalf("no runs found (use 'videosync sync' first)")
	}
	return runs[0].ID
}

func loadStoredMatches(db *session.DB, runID string) []motion.FrameMatch {
	stored, err := db.GetMatches(runID, 0)
	if err != nil {
		log.Fatalf("failed to load matches: %v", err)
	}
	if len(stored) == 0 {
		log.Fatalf("run %s has no stored matches", runID)
	}
	matches := make([]motion.FrameMatch, 0, len(stored))
	for _, sm := range stored {
		matches = append(matches, sm.FrameMatch())
	}
	return matches
}

func printReport(rep pipeline.Report) {
	out, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		log.Fatalf("failed to encode report: %v", err)
	}
	fmt.Println(string(out))
}

func writePlots(dir, runID string, matches []motion.FrameMatch) {
	plotter := monitor.NewAlignmentPlotter()
	if err := plotter.Start(dir); err != nil {
		log.Fatalf("failed to prepare plot directory: %v", err)
	}
	plotter.Record(runID, matches)
	count, err := plotter.GeneratePlots()
	if err != nil {
		log.Fatalf("failed to generate plots: %v", err)
	}
	log.Printf("wrote %d plots to %s", count, dir)
}
