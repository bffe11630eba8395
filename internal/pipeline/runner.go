package pipeline

import (
	"context"
	"fmt"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ooju-data/videosync/internal/monitoring"
	"github.com/ooju-data/videosync/internal/motion"
	"github.com/ooju-data/videosync/internal/projection"
	"github.com/ooju-data/videosync/internal/session"
)

// FrameResult is the per-frame outcome of a sync run. Hand and Camera
// are nil when the frame could not be interpolated (gapped bracket or
// empty track); Gizmo is nil additionally when the hand does not
// project into the camera's image.
type FrameResult struct {
	FrameIndex int
	Match      motion.FrameMatch
	Hand       *motion.Pose
	Camera     *motion.Pose
	Gizmo      *projection.Gizmo
}

// RunnerConfig controls a batch run.
type RunnerConfig struct {
	Workers    int
	AxisLength float64 // gizmo axis length in meters; 0 disables overlay projection
}

// Runner executes sync batches over a runtime.
type Runner struct {
	rt  *Runtime
	cfg RunnerConfig
}

// NewRunner creates a runner. Workers below 1 are treated as 1.
func NewRunner(rt *Runtime, cfg RunnerConfig) *Runner {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Runner{rt: rt, cfg: cfg}
}

// Run aligns every frame timestamp and interpolates poses for the
// non-gapped matches. Each frame's processing is independent, so the
// batch is partitioned across workers sharing only the read-only track
// and the calibration snapshot; results keep frame order regardless of
// worker scheduling.
func (r *Runner) Run(ctx context.Context, frameTS []float64, offset float64) ([]FrameResult, error) {
	matches := r.rt.Matcher.Align(frameTS, offset)
	if matches == nil {
		return nil, fmt.Errorf("no motion samples available")
	}

	results := make([]FrameResult, len(matches))

	var wg sync.WaitGroup
	chunk := (len(matches) + r.cfg.Workers - 1) / r.cfg.Workers
	for w := 0; w < r.cfg.Workers; w++ {
		start := w * chunk
		if start >= len(matches) {
			break
		}
		end := start + chunk
		if end > len(matches) {
			end = len(matches)
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				if ctx.Err() != nil {
					return
				}
				results[i] = r.processFrame(i, matches[i])
			}
		}(start, end)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// processFrame interpolates one frame's poses from its match.
func (r *Runner) processFrame(idx int, m motion.FrameMatch) FrameResult {
	res := FrameResult{FrameIndex: idx, Match: m}
	if m.Prev == nil || m.Next == nil || m.Gapped {
		return res
	}

	hand := motion.Interpolate(m.Prev.Pose, m.Next.Pose, m.Weight)
	res.Hand = &hand

	left := motion.InterpolateOptional(m.Prev.LeftEye, m.Next.LeftEye, m.Weight)
	right := motion.InterpolateOptional(m.Prev.RightEye, m.Next.RightEye, m.Weight)
	res.Camera = cameraPose(left, right)

	if res.Camera != nil && r.cfg.AxisLength > 0 && r.rt.Projector != nil {
		if g, ok := r.rt.Projector.ProjectGizmo(hand, *res.Camera, r.cfg.AxisLength); ok {
			res.Gizmo = &g
		}
	}
	return res
}

// cameraPose derives the camera viewpoint from the interpolated eye
// poses: the midpoint of both eyes with the left eye's orientation, or
// whichever single eye is available.
func cameraPose(left, right *motion.Pose) *motion.Pose {
	switch {
	case left != nil && right != nil:
		return &motion.Pose{
			Position: r3.Scale(0.5, r3.Add(left.Position, right.Position)),
			Rotation: left.Rotation,
		}
	case left != nil:
		return left
	case right != nil:
		return right
	default:
		return nil
	}
}

// Persist stores a completed run: the run record, its matches, and the
// synced poses for every interpolated frame.
func (r *Runner) Persist(run *session.Run, results []FrameResult) error {
	if r.rt.Store == nil {
		return fmt.Errorf("no store configured")
	}

	gapped := 0
	matches := make([]motion.FrameMatch, len(results))
	var poses []session.SyncedPose
	for i, res := range results {
		matches[i] = res.Match
		if res.Match.Gapped {
			gapped++
		}
		if res.Hand != nil {
			poses = append(poses, session.SyncedPose{
				FrameIndex: res.FrameIndex,
				AlignedTS:  res.Match.AlignedTS,
				Hand:       *res.Hand,
				Camera:     res.Camera,
			})
		}
	}
	run.FrameCount = len(results)
	run.GappedCount = gapped

	if err := r.rt.Store.InsertRun(run); err != nil {
		return err
	}
	if err := r.rt.Store.InsertMatches(run.ID, matches); err != nil {
		return err
	}
	if err := r.rt.Store.InsertSyncedPoses(run.ID, poses); err != nil {
		return err
	}

	monitoring.Logf("pipeline: persisted run %s: %d frames, %d gapped, %d synced poses",
		run.ID, run.FrameCount, run.GappedCount, len(poses))
	return nil
}
