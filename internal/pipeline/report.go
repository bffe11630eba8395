package pipeline

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/ooju-data/videosync/internal/motion"
)

// Report summarizes the temporal alignment quality of a match sequence.
// Clamped counts measure how many frames fell outside the recorded
// motion interval; the interval percentiles characterize the motion
// stream's sampling cadence around the matched frames.
type Report struct {
	FrameCount   int     `json:"frame_count"`
	Interpolated int     `json:"interpolated"`
	Gapped       int     `json:"gapped"`
	LeftClamped  int     `json:"left_clamped"`
	RightClamped int     `json:"right_clamped"`
	WeightMean   float64 `json:"weight_mean"`
	WeightStdDev float64 `json:"weight_stddev"`
	IntervalMean float64 `json:"interval_mean"`
	IntervalP50  float64 `json:"interval_p50"`
	IntervalP95  float64 `json:"interval_p95"`
}

// BuildReport computes alignment statistics over a match sequence.
func BuildReport(matches []motion.FrameMatch) Report {
	rep := Report{FrameCount: len(matches)}
	if len(matches) == 0 {
		return rep
	}

	weights := make([]float64, 0, len(matches))
	var intervals []float64
	for _, m := range matches {
		weights = append(weights, m.Weight)

		if m.Gapped {
			rep.Gapped++
			continue
		}
		if m.Prev == nil || m.Next == nil {
			continue
		}
		switch {
		case m.AlignedTS < m.Prev.Timestamp:
			rep.LeftClamped++
		case m.AlignedTS > m.Next.Timestamp:
			rep.RightClamped++
		default:
			rep.Interpolated++
			intervals = append(intervals, m.Next.Timestamp-m.Prev.Timestamp)
		}
	}

	rep.WeightMean = stat.Mean(weights, nil)
	if len(weights) > 1 {
		// StdDev is NaN for a single sample, which would break JSON
		// encoding of the report.
		rep.WeightStdDev = stat.StdDev(weights, nil)
	}

	if len(intervals) > 0 {
		sort.Float64s(intervals)
		rep.IntervalMean = stat.Mean(intervals, nil)
		rep.IntervalP50 = stat.Quantile(0.5, stat.Empirical, intervals, nil)
		rep.IntervalP95 = stat.Quantile(0.95, stat.Empirical, intervals, nil)
	}
	return rep
}
