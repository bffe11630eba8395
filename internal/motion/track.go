package motion

import (
	"log"
	"math"
	"sort"
)

// Track is an immutable, time-ordered store of timed samples merged
// from one or more source records. It is built once per session and
// never mutated afterward; all queries are read-only and safe for
// concurrent use.
type Track struct {
	samples []TimedSample
}

// LoadStats reports what happened while building a track. None of the
// conditions counted here are fatal; a multi-file session degrades
// gracefully.
type LoadStats struct {
	SourcesLoaded    int
	SourcesSkipped   int
	SamplesTruncated int
	TotalSamples     int
}

// BuildTrack merges the first trajectory of every source record into a
// single track sorted by timestamp. Sources without trajectory data
// contribute nothing and are counted as skipped. The sort is a single
// stable pass over whole samples, so the eye-pose channels can never be
// reordered independently of the poses they were recorded with.
func BuildTrack(sources []*SourceRecord) (*Track, LoadStats) {
	var stats LoadStats
	var samples []TimedSample

	for _, src := range sources {
		if src == nil || len(src.Trajectories) == 0 {
			stats.SourcesSkipped++
			log.Printf("motion: source has no trajectories, skipping")
			continue
		}
		tr := &src.Trajectories[0]
		ss, truncated := tr.samples()
		if truncated > 0 {
			stats.SamplesTruncated += truncated
			log.Printf("motion: trajectory arrays disagree in length, truncated %d entries", truncated)
		}
		if len(ss) == 0 {
			stats.SourcesSkipped++
			continue
		}
		samples = append(samples, ss...)
		stats.SourcesLoaded++
	}

	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Timestamp < samples[j].Timestamp
	})

	stats.TotalSamples = len(samples)
	return &Track{samples: samples}, stats
}

// Len returns the number of samples in the track.
func (t *Track) Len() int { return len(t.samples) }

// Sample returns the sample at index i.
func (t *Track) Sample(i int) TimedSample { return t.samples[i] }

// TimeRange returns the first and last timestamps. ok is false when the
// track is empty.
func (t *Track) TimeRange() (min, max float64, ok bool) {
	if len(t.samples) == 0 {
		return 0, 0, false
	}
	return t.samples[0].Timestamp, t.samples[len(t.samples)-1].Timestamp, true
}

// searchTimestamp returns the insertion point for ts: the index of the
// first sample whose timestamp is >= ts.
func (t *Track) searchTimestamp(ts float64) int {
	return sort.Search(len(t.samples), func(i int) bool {
		return t.samples[i].Timestamp >= ts
	})
}

// Nearest returns the sample closest in absolute time to ts. When
// tolerance is positive, candidates further away than tolerance are
// rejected. ok is false when the track is empty or nothing qualifies.
func (t *Track) Nearest(ts, tolerance float64) (TimedSample, bool) {
	if len(t.samples) == 0 {
		return TimedSample{}, false
	}

	idx := t.searchTimestamp(ts)

	best := -1
	minDiff := math.Inf(1)
	for _, i := range []int{idx, idx - 1} {
		if i < 0 || i >= len(t.samples) {
			continue
		}
		diff := math.Abs(t.samples[i].Timestamp - ts)
		if diff < minDiff {
			minDiff = diff
			best = i
		}
	}

	if best < 0 {
		return TimedSample{}, false
	}
	if tolerance > 0 && minDiff > tolerance {
		return TimedSample{}, false
	}
	return t.samples[best], true
}

// Bracket returns the samples surrounding ts. An exact timestamp hit
// returns the same sample as both prev and next: a zero-width bracket,
// meaning no interpolation is needed. Before the first sample prev is
// nil; past the last sample next is nil. Both are nil only when the
// track is empty.
func (t *Track) Bracket(ts float64) (prev, next *TimedSample) {
	if len(t.samples) == 0 {
		return nil, nil
	}

	idx := t.searchTimestamp(ts)

	if idx < len(t.samples) && t.samples[idx].Timestamp == ts {
		return &t.samples[idx], &t.samples[idx]
	}
	if idx < len(t.samples) {
		next = &t.samples[idx]
	}
	if idx > 0 {
		prev = &t.samples[idx-1]
	}
	return prev, next
}
