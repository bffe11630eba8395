// Package pipeline runs the per-frame sync batch: timestamp alignment,
// pose interpolation and optional overlay projection.
package pipeline

import (
	"github.com/ooju-data/videosync/internal/motion"
	"github.com/ooju-data/videosync/internal/projection"
	"github.com/ooju-data/videosync/internal/session"
)

// Runtime bundles the per-session dependencies so wiring is explicit
// and tests stay deterministic. The track is frozen and the projector's
// calibration is read as a snapshot, so a Runtime is safe to share
// across worker goroutines for the duration of a run.
type Runtime struct {
	Track     *motion.Track
	Matcher   *motion.Matcher
	Projector *projection.Projector
	Store     *session.DB
}

// NewRuntime builds a runtime over a frozen track.
func NewRuntime(track *motion.Track, gapThreshold float64, projector *projection.Projector, store *session.DB) *Runtime {
	return &Runtime{
		Track:     track,
		Matcher:   motion.NewMatcher(track, gapThreshold),
		Projector: projector,
		Store:     store,
	}
}
