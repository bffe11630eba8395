package pipeline

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ooju-data/videosync/internal/motion"
	"github.com/ooju-data/videosync/internal/projection"
	"github.com/ooju-data/videosync/internal/session"
)

// testTrack builds a track where pose X equals the sample timestamp, so
// interpolation results are easy to predict. Eye poses sit slightly
// above the hand.
func testTrack(t *testing.T, timestamps []float64) *motion.Track {
	t.Helper()
	tr := motion.Trajectory{Timestamps: timestamps}
	for _, ts := range timestamps {
		tr.Poses = append(tr.Poses, []float64{ts, 0, 0, 0, 0, 0, 1})
		tr.LeftEyePoses = append(tr.LeftEyePoses, []float64{ts, 1, 0, 0, 0, 0, 1})
		tr.RightEyePoses = append(tr.RightEyePoses, []float64{ts, 1.2, 0, 0, 0, 0, 1})
	}
	track, stats := motion.BuildTrack([]*motion.SourceRecord{{Trajectories: []motion.Trajectory{tr}}})
	if stats.TotalSamples != len(timestamps) {
		t.Fatalf("track build lost samples: %d != %d", stats.TotalSamples, len(timestamps))
	}
	return track
}

func TestRunInterpolatesFrames(t *testing.T) {
	track := testTrack(t, []float64{10, 20, 30, 40})
	rt := NewRuntime(track, 100, nil, nil)
	runner := NewRunner(rt, RunnerConfig{Workers: 2})

	results, err := runner.Run(context.Background(), []float64{15, 25, 35}, 0)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	wantX := []float64{15, 25, 35}
	for i, res := range results {
		if res.Hand == nil {
			t.Fatalf("frame %d: no hand pose", i)
		}
		if math.Abs(res.Hand.Position.X-wantX[i]) > 1e-9 {
			t.Errorf("frame %d: hand X = %v, want %v", i, res.Hand.Position.X, wantX[i])
		}
		if res.Camera == nil {
			t.Fatalf("frame %d: no camera pose", i)
		}
		// Camera position is the eye midpoint: Y = (1 + 1.2) / 2
		if math.Abs(res.Camera.Position.Y-1.1) > 1e-9 {
			t.Errorf("frame %d: camera Y = %v, want 1.1", i, res.Camera.Position.Y)
		}
	}
}

func TestRunSkipsGappedFrames(t *testing.T) {
	track := testTrack(t, []float64{10, 10.1, 14, 14.1})
	rt := NewRuntime(track, 0.2, nil, nil)
	runner := NewRunner(rt, RunnerConfig{Workers: 1})

	results, err := runner.Run(context.Background(), []float64{10.05, 12, 14.05}, 0)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if results[0].Hand == nil || results[2].Hand == nil {
		t.Error("non-gapped frames should interpolate")
	}
	if !results[1].Match.Gapped {
		t.Error("frame inside the recording pause should be gapped")
	}
	if results[1].Hand != nil {
		t.Error("gapped frame must not be interpolated")
	}
}

func TestRunOrderIndependentOfWorkerCount(t *testing.T) {
	track := testTrack(t, []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	var frameTS []float64
	for ts := 0.0; ts <= 10.0; ts += 0.05 {
		frameTS = append(frameTS, ts)
	}

	var baseline []FrameResult
	for _, workers := range []int{1, 2, 7, 32} {
		rt := NewRuntime(track, 100, nil, nil)
		runner := NewRunner(rt, RunnerConfig{Workers: workers})
		results, err := runner.Run(context.Background(), frameTS, 0)
		if err != nil {
			t.Fatalf("Run with %d workers failed: %v", workers, err)
		}
		if baseline == nil {
			baseline = results
			continue
		}
		opts := cmpopts.IgnoreFields(motion.FrameMatch{}, "Prev", "Next")
		if diff := cmp.Diff(baseline, results, opts); diff != "" {
			t.Errorf("results differ with %d workers (-baseline +got):\n%s", workers, diff)
		}
	}
}

func TestRunEmptyTrack(t *testing.T) {
	track, _ := motion.BuildTrack(nil)
	rt := NewRuntime(track, 0.2, nil, nil)
	runner := NewRunner(rt, RunnerConfig{Workers: 2})

	if _, err := runner.Run(context.Background(), []float64{1, 2}, 0); err == nil {
		t.Error("expected error for empty track")
	}
}

func TestRunCancelledContext(t *testing.T) {
	track := testTrack(t, []float64{10, 20})
	rt := NewRuntime(track, 100, nil, nil)
	runner := NewRunner(rt, RunnerConfig{Workers: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := runner.Run(ctx, []float64{15}, 0); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestRunProjectsGizmos(t *testing.T) {
	// Hand 2m in front of the eyes along the view axis.
	tr := motion.Trajectory{
		Timestamps:    []float64{10, 20},
		Poses:         [][]float64{{0, 0, 2, 0, 0, 0, 1}, {0, 0, 2, 0, 0, 0, 1}},
		LeftEyePoses:  [][]float64{{0, 0, 0, 0, 0, 0, 1}, {0, 0, 0, 0, 0, 0, 1}},
		RightEyePoses: [][]float64{{0, 0, 0, 0, 0, 0, 1}, {0, 0, 0, 0, 0, 0, 1}},
	}
	track, _ := motion.BuildTrack([]*motion.SourceRecord{{Trajectories: []motion.Trajectory{tr}}})

	proj := projection.NewProjector(1920, 1080, projection.Calibration{FOVDeg: 90})
	rt := NewRuntime(track, 100, proj, nil)
	runner := NewRunner(rt, RunnerConfig{Workers: 1, AxisLength: 0.1})

	results, err := runner.Run(context.Background(), []float64{15}, 0)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if results[0].Gizmo == nil {
		t.Fatal("expected a projected gizmo")
	}
	g := results[0].Gizmo
	if math.Abs(g.Origin.U-960) > 1e-6 || math.Abs(g.Origin.V-540) > 1e-6 {
		t.Errorf("gizmo origin = %+v, want image center", g.Origin)
	}
}

func TestPersist(t *testing.T) {
	db, err := session.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	track := testTrack(t, []float64{10, 10.1, 14, 14.1})
	rt := NewRuntime(track, 0.2, nil, db)
	runner := NewRunner(rt, RunnerConfig{Workers: 2})

	results, err := runner.Run(context.Background(), []float64{10.05, 12, 14.05}, 0)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	run := session.NewRun("/data/session", 0, 0.2)
	if err := runner.Persist(run, results); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}

	stored, err := db.GetRun(run.ID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if stored.FrameCount != 3 || stored.GappedCount != 1 {
		t.Errorf("run counts = (%d, %d), want (3, 1)", stored.FrameCount, stored.GappedCount)
	}

	poses, err := db.GetSyncedPoses(run.ID, 0, -1)
	if err != nil {
		t.Fatalf("GetSyncedPoses failed: %v", err)
	}
	if len(poses) != 2 {
		t.Errorf("got %d synced poses, want 2 (gapped frame skipped)", len(poses))
	}
}
