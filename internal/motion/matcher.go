package motion

import "log"

// FrameMatch is the result of aligning one external timestamp against
// the track: the bracketing samples, the normalized interpolation
// weight between them, and whether the bracket straddles a recording
// gap. It is produced once and never mutated.
type FrameMatch struct {
	RawTS     float64
	AlignedTS float64
	Prev      *TimedSample
	Next      *TimedSample
	Weight    float64
	Gapped    bool
}

// Matcher maps an external timestamp sequence onto a track's clock via
// a scalar offset. GapThreshold is the bracket interval beyond which a
// match is flagged as straddling a recording pause; a typical session
// uses a few multiples of the motion stream's nominal sample period.
type Matcher struct {
	Track        *Track
	GapThreshold float64
}

// NewMatcher returns a matcher over the given frozen track.
func NewMatcher(track *Track, gapThreshold float64) *Matcher {
	return &Matcher{Track: track, GapThreshold: gapThreshold}
}

// Align produces one FrameMatch per external timestamp, preserving
// input order. Timestamps outside the track's range clamp to the
// nearest end rather than extrapolating: there is no information to
// interpolate from beyond the recorded interval, so the boundary sample
// is reused with weight 0 (start) or 1 (end).
func (m *Matcher) Align(externalTS []float64, offset float64) []FrameMatch {
	if m.Track.Len() == 0 {
		log.Printf("motion: no track samples available for matching")
		return nil
	}

	first := m.Track.samples[0].Timestamp
	last := m.Track.samples[m.Track.Len()-1].Timestamp

	matches := make([]FrameMatch, 0, len(externalTS))
	for _, raw := range externalTS {
		aligned := raw + offset
		match := FrameMatch{RawTS: raw, AlignedTS: aligned}

		switch {
		case aligned < first:
			s := &m.Track.samples[0]
			match.Prev, match.Next = s, s
			match.Weight = 0
		case aligned > last:
			s := &m.Track.samples[m.Track.Len()-1]
			match.Prev, match.Next = s, s
			match.Weight = 1
		default:
			prev, next := m.Track.Bracket(aligned)
			match.Prev, match.Next = prev, next
			interval := next.Timestamp - prev.Timestamp
			if interval > 1e-9 {
				match.Weight = clamp01((aligned - prev.Timestamp) / interval)
			}
		}

		match.Gapped = m.GapThreshold > 0 &&
			match.Next.Timestamp-match.Prev.Timestamp > m.GapThreshold
		matches = append(matches, match)
	}
	return matches
}
